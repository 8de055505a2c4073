package scene

import (
	"fmt"
	"math"

	"github.com/chazu/templux/pkg/depth"
	"github.com/chazu/templux/pkg/kernel"
	"github.com/chazu/templux/pkg/mesh"
)

// Severity indicates whether a finding blocks rendering or is merely
// informational.
type Severity int

const (
	SeverityError   Severity = iota // blocks rendering
	SeverityWarning                 // informational
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return fmt.Sprintf("Severity(%d)", int(s))
	}
}

// ValidationError describes a single validation finding.
type ValidationError struct {
	NodeID   NodeID   // which node has the problem (zero if scene-level)
	Message  string   // human-readable description
	Severity Severity // error or warning
}

func (e ValidationError) Error() string {
	if e.NodeID.IsZero() {
		return fmt.Sprintf("[%s] %s", e.Severity, e.Message)
	}
	return fmt.Sprintf("[%s] node %s: %s", e.Severity, e.NodeID.Short(), e.Message)
}

// Findings is the result of Validate.
type Findings []ValidationError

// Errors returns only the blocking findings.
func (f Findings) Errors() Findings {
	return f.filter(SeverityError)
}

// Warnings returns only the advisory findings.
func (f Findings) Warnings() Findings {
	return f.filter(SeverityWarning)
}

func (f Findings) filter(sev Severity) Findings {
	var out Findings
	for _, e := range f {
		if e.Severity == sev {
			out = append(out, e)
		}
	}
	return out
}

// Validate runs every structural and geometric check on the scene. It is
// read-only and never mutates s.
func Validate(s *Scene) Findings {
	var out Findings
	out = append(out, validateDAG(s)...)
	out = append(out, validateReferences(s)...)
	out = append(out, validateNames(s)...)
	out = append(out, validateRoots(s)...)
	out = append(out, validateData(s)...)
	out = append(out, validateBooleans(s)...)
	out = append(out, validateView(s)...)
	return out
}

func errorf(id NodeID, format string, args ...any) ValidationError {
	return ValidationError{NodeID: id, Message: fmt.Sprintf(format, args...), Severity: SeverityError}
}

func warnf(id NodeID, format string, args ...any) ValidationError {
	return ValidationError{NodeID: id, Message: fmt.Sprintf(format, args...), Severity: SeverityWarning}
}

// validateDAG checks for cycles using DFS with 3-color marking.
func validateDAG(s *Scene) []ValidationError {
	const (
		white = iota
		gray
		black
	)

	color := make(map[NodeID]int)
	var errs []ValidationError

	var visit func(id NodeID) bool
	visit = func(id NodeID) bool {
		switch color[id] {
		case black:
			return false
		case gray:
			errs = append(errs, errorf(id, "cycle detected: node %s is part of a cycle", id.Short()))
			return true
		}
		color[id] = gray
		node, ok := s.Nodes[id]
		if !ok {
			// Dangling; reported by validateReferences.
			color[id] = black
			return false
		}
		for _, childID := range node.Children {
			if visit(childID) {
				return true
			}
		}
		color[id] = black
		return false
	}

	for id := range s.Nodes {
		if color[id] == white && visit(id) {
			break
		}
	}
	return errs
}

// validateReferences checks that every child ID points to an existing node.
func validateReferences(s *Scene) []ValidationError {
	var errs []ValidationError
	for _, node := range s.Nodes {
		for _, childID := range node.Children {
			if _, ok := s.Nodes[childID]; !ok {
				errs = append(errs, errorf(node.ID, "child reference %s does not exist", childID.Short()))
			}
		}
	}
	return errs
}

// validateNames checks that the name index is injective and points at
// existing nodes.
func validateNames(s *Scene) []ValidationError {
	var errs []ValidationError
	for name, id := range s.NameIndex {
		if _, ok := s.Nodes[id]; !ok {
			errs = append(errs, errorf(ZeroID, "name index entry %q references non-existent node %s", name, id.Short()))
		}
	}

	byName := make(map[string]int)
	for _, node := range s.Nodes {
		if node.Name != "" {
			byName[node.Name]++
		}
	}
	for name, n := range byName {
		if n > 1 {
			errs = append(errs, errorf(ZeroID, "duplicate name %q assigned to %d nodes", name, n))
		}
	}
	return errs
}

// validateRoots checks that roots exist and warns about nodes unreachable
// from any root, since they will never be drawn.
func validateRoots(s *Scene) []ValidationError {
	var errs []ValidationError
	for _, rid := range s.Roots {
		if _, ok := s.Nodes[rid]; !ok {
			errs = append(errs, errorf(ZeroID, "root reference %s does not exist", rid.Short()))
		}
	}
	if len(s.Nodes) == 0 {
		return errs
	}

	reachable := make(map[NodeID]bool)
	queue := make([]NodeID, 0, len(s.Roots))
	for _, rid := range s.Roots {
		if _, ok := s.Nodes[rid]; ok && !reachable[rid] {
			reachable[rid] = true
			queue = append(queue, rid)
		}
	}
	for len(queue) > 0 {
		node := s.Nodes[queue[0]]
		queue = queue[1:]
		if node == nil {
			continue
		}
		for _, childID := range node.Children {
			if !reachable[childID] {
				reachable[childID] = true
				queue = append(queue, childID)
			}
		}
	}

	for id, node := range s.Nodes {
		if !reachable[id] {
			errs = append(errs, warnf(id, "node %q is not reachable from any root (orphan)", node.Label()))
		}
	}
	return errs
}

// validateData checks each node's payload matches its kind and holds sane
// values.
func validateData(s *Scene) []ValidationError {
	var errs []ValidationError
	for _, node := range s.Nodes {
		switch d := node.Data.(type) {
		case ModelData:
			if node.Kind != NodeModel {
				errs = append(errs, errorf(node.ID, "%s node carries model data", node.Kind))
			}
			if d.Path == "" {
				errs = append(errs, errorf(node.ID, "model has no file path"))
			}
		case PrimitiveData:
			if node.Kind != NodePrimitive {
				errs = append(errs, errorf(node.ID, "%s node carries primitive data", node.Kind))
			}
			if err := checkPrimitive(d); err != nil {
				errs = append(errs, errorf(node.ID, "%s: %v", d.Shape, err))
			}
		case TransformData:
			if node.Kind != NodeTransform {
				errs = append(errs, errorf(node.ID, "%s node carries transform data", node.Kind))
			}
			if d.Scale != nil && (d.Scale.X == 0 || d.Scale.Y == 0 || d.Scale.Z == 0) {
				errs = append(errs, errorf(node.ID, "scale %v flattens geometry", *d.Scale))
			}
			for name, v := range map[string]*mesh.Vertex{
				"translation": d.Translation,
				"rotation":    d.Rotation,
				"scale":       d.Scale,
			} {
				if v != nil && !v.IsFinite() {
					errs = append(errs, errorf(node.ID, "%s is not finite", name))
				}
			}
			if len(node.Children) == 0 {
				errs = append(errs, warnf(node.ID, "transform has no children"))
			}
		case GroupData:
			if node.Kind != NodeGroup {
				errs = append(errs, errorf(node.ID, "%s node carries group data", node.Kind))
			}
			if len(node.Children) == 0 {
				errs = append(errs, warnf(node.ID, "group %q is empty", node.Label()))
			}
		case BooleanData:
			if node.Kind != NodeBoolean {
				errs = append(errs, errorf(node.ID, "%s node carries boolean data", node.Kind))
			}
		case nil:
			errs = append(errs, errorf(node.ID, "%s node has no data", node.Kind))
		}
	}
	return errs
}

func checkPrimitive(d PrimitiveData) error {
	switch d.Shape {
	case ShapeBox:
		return kernel.CheckDimensions(d.Size.X, d.Size.Y, d.Size.Z)
	case ShapeCylinder:
		return kernel.CheckDimensions(d.Height, d.Radius)
	case ShapeSphere:
		return kernel.CheckDimensions(d.Radius)
	}
	return fmt.Errorf("unknown shape")
}

// validateBooleans checks that boolean nodes combine at least two operands
// and that no operand subtree contains a model, since STL meshes are not
// kernel solids.
func validateBooleans(s *Scene) []ValidationError {
	var errs []ValidationError
	for _, node := range s.Nodes {
		if node.Kind != NodeBoolean {
			continue
		}
		op := BooleanOp(0)
		if d, ok := node.Data.(BooleanData); ok {
			op = d.Op
		}
		if len(node.Children) < 2 {
			errs = append(errs, errorf(node.ID, "%s needs at least two operands, got %d", op, len(node.Children)))
		}
		if m := findModel(s, node, map[NodeID]bool{}); m != nil {
			errs = append(errs, errorf(node.ID, "%s operand %q is an STL model, not a solid", op, m.Label()))
		}
	}
	return errs
}

func findModel(s *Scene, n *Node, seen map[NodeID]bool) *Node {
	if seen[n.ID] {
		return nil
	}
	seen[n.ID] = true
	for _, c := range s.Children(n) {
		if c.Kind == NodeModel {
			return c
		}
		if m := findModel(s, c, seen); m != nil {
			return m
		}
	}
	return nil
}

// validateView checks the scene-wide camera, frames and style.
func validateView(s *Scene) []ValidationError {
	var errs []ValidationError
	if err := s.Camera.Validate(); err != nil {
		errs = append(errs, errorf(ZeroID, "%v", err))
	}
	if s.Frames.Count < 1 {
		errs = append(errs, errorf(ZeroID, "frame count %d must be at least 1", s.Frames.Count))
	}
	if math.IsNaN(s.Frames.PitchStep) || math.IsInf(s.Frames.PitchStep, 0) ||
		math.IsNaN(s.Frames.YawStep) || math.IsInf(s.Frames.YawStep, 0) {
		errs = append(errs, errorf(ZeroID, "frame steps must be finite"))
	}
	if s.Frames.Count > 1 && s.Frames.PitchStep == 0 && s.Frames.YawStep == 0 {
		errs = append(errs, warnf(ZeroID, "%d frames with no camera motion are identical", s.Frames.Count))
	}
	if _, ok := depth.ByName(s.Style.Orderer); !ok {
		errs = append(errs, errorf(ZeroID, "unknown depth orderer %q", s.Style.Orderer))
	}
	if s.Style.Thickness < 0 {
		errs = append(errs, errorf(ZeroID, "line thickness %g is negative", s.Style.Thickness))
	}
	if len(s.Roots) == 0 {
		errs = append(errs, warnf(ZeroID, "scene has nothing to draw"))
	}
	return errs
}
