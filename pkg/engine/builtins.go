package engine

import (
	"fmt"
	"image/color"
	"strings"

	"github.com/gogpu/gg"
	"github.com/samber/lo"
	zygo "github.com/glycerine/zygomys/zygo"

	"github.com/chazu/templux/pkg/camera"
	"github.com/chazu/templux/pkg/mesh"
	"github.com/chazu/templux/pkg/raster"
	"github.com/chazu/templux/pkg/scene"
)

// ---------------------------------------------------------------------------
// Source preprocessing
// ---------------------------------------------------------------------------

// preprocessSource transforms scene script source before passing it to
// zygomys. It performs three transformations:
//
//  1. Keyword conversion: :keyword -> "__kw_keyword" (string literal)
//     This avoids the need to register keyword symbols as globals, which
//     would conflict with user-defined variables of the same name.
//
//  2. Kebab-case to underscore: pitch-step -> pitch_step
//     zygomys does not allow hyphens in identifiers (it interprets them
//     as the subtraction operator). Keywords keep their hyphens.
//
//  3. Line comments: ; -> //
//
// All transformations respect string literal boundaries.
func preprocessSource(source string) string {
	result := make([]byte, 0, len(source)+len(source)/4)
	b := []byte(source)
	i := 0
	for i < len(b) {
		// Skip double-quoted string literals.
		if b[i] == '"' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '"' {
				if b[i] == '\\' && i+1 < len(b) {
					result = append(result, b[i], b[i+1])
					i += 2
					continue
				}
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Skip backtick-quoted string literals.
		if b[i] == '`' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '`' {
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// zygomys uses // for line comments, not the traditional Lisp ;.
		if b[i] == ';' {
			result = append(result, '/', '/')
			i++
			for i < len(b) && b[i] == ';' {
				i++
			}
			for i < len(b) && b[i] != '\n' {
				result = append(result, b[i])
				i++
			}
			continue
		}
		if b[i] == ':' && i+1 < len(b) {
			// Preserve := (assignment operator).
			if b[i+1] == '=' {
				result = append(result, b[i], b[i+1])
				i += 2
				continue
			}
			if isLetter(b[i+1]) {
				j := i + 1
				for j < len(b) && isKWChar(b[j]) {
					j++
				}
				result = append(result, '"')
				result = append(result, kwPrefix...)
				result = append(result, b[i+1:j]...)
				result = append(result, '"')
				i = j
				continue
			}
		}
		// Only a hyphen between identifier characters is kebab-case; the
		// rest are minus operators or negative literals.
		if b[i] == '-' && i > 0 && i+1 < len(b) &&
			isIdentChar(b[i-1]) && isIdentStartChar(b[i+1]) {
			result = append(result, '_')
			i++
			continue
		}
		result = append(result, b[i])
		i++
	}
	return string(result)
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isKWChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '-' || c == '_'
}

func isIdentChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '_'
}

func isIdentStartChar(c byte) bool {
	return isLetter(c)
}

// ---------------------------------------------------------------------------
// Custom Sexp types for passing Go values through the zygomys environment
// ---------------------------------------------------------------------------

// sexpNodeRef wraps a scene.NodeID so it can be passed between builtins.
type sexpNodeRef struct {
	id   scene.NodeID
	name string // human-readable name for error messages
}

func (n *sexpNodeRef) SexpString(ps *zygo.PrintState) string {
	if n.name != "" {
		return fmt.Sprintf("(ref %q)", n.name)
	}
	return fmt.Sprintf("(ref %s)", n.id.Short())
}
func (n *sexpNodeRef) Type() *zygo.RegisteredType { return nil }

// sexpVec3 wraps a mesh.Vertex.
type sexpVec3 struct {
	vec mesh.Vertex
}

func (v *sexpVec3) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(vec3 %g %g %g)", v.vec.X, v.vec.Y, v.vec.Z)
}
func (v *sexpVec3) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

// kwPrefix is the marker prepended to keyword names by preprocessSource.
const kwPrefix = "__kw_"

// isKW checks if a Sexp is a preprocessed keyword string.
// Returns the keyword name (without prefix) and true if it is.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", false
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], true
	}
	return "", false
}

// kwArgs holds the result of parsing a mixed positional+keyword argument list.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// parseArgs separates args into keyword and positional arguments.
// Keywords are identified by the __kw_ prefix added during preprocessing.
func parseArgs(args []zygo.Sexp) kwArgs {
	result := kwArgs{kw: make(map[string]zygo.Sexp)}
	i := 0
	for i < len(args) {
		name, ok := isKW(args[i])
		if ok {
			if i+1 < len(args) {
				result.kw[name] = args[i+1]
				i += 2
			} else {
				// Keyword at end with no value: treat as flag with nil.
				result.kw[name] = zygo.SexpNull
				i++
			}
		} else {
			result.positional = append(result.positional, args[i])
			i++
		}
	}
	return result
}

// float reads an optional numeric keyword into dst.
func (pa kwArgs) float(key string, dst *float64) error {
	v, ok := pa.kw[key]
	if !ok {
		return nil
	}
	f, err := toFloat64(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = f
	return nil
}

// str reads an optional string keyword into dst.
func (pa kwArgs) str(key string, dst *string) error {
	v, ok := pa.kw[key]
	if !ok {
		return nil
	}
	s, err := toString(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = s
	return nil
}

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

// toFloat64 extracts a float64 from a Sexp (SexpInt or SexpFloat).
func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

// toInt extracts a whole number.
func toInt(s zygo.Sexp) (int, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return int(v.Val), nil
	case *zygo.SexpFloat:
		if v.Val == float64(int(v.Val)) {
			return int(v.Val), nil
		}
	}
	return 0, fmt.Errorf("expected integer, got %T (%s)", s, s.SexpString(nil))
}

// toString extracts a string from a Sexp.
func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %T (%s)", s, s.SexpString(nil))
}

// toBool accepts booleans, and treats a bare flag (nil value) as true.
func toBool(s zygo.Sexp) (bool, error) {
	switch v := s.(type) {
	case *zygo.SexpBool:
		return v.Val, nil
	case *zygo.SexpSentinel:
		if v == zygo.SexpNull {
			return true, nil
		}
	}
	return false, fmt.Errorf("expected boolean, got %T (%s)", s, s.SexpString(nil))
}

// toKeywordString extracts a keyword name or plain string from a Sexp.
// Handles both preprocessed keywords (__kw_z) and plain strings ("z").
func toKeywordString(s zygo.Sexp) (string, error) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", fmt.Errorf("expected keyword or string, got %T (%s)", s, s.SexpString(nil))
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], nil
	}
	return str.S, nil
}

// toNodeRef extracts a NodeID from a sexpNodeRef.
func toNodeRef(s zygo.Sexp) (*sexpNodeRef, error) {
	if ref, ok := s.(*sexpNodeRef); ok {
		return ref, nil
	}
	return nil, fmt.Errorf("expected node reference, got %T (%s)", s, s.SexpString(nil))
}

// toVec3 extracts a vertex from a sexpVec3.
func toVec3(s zygo.Sexp) (mesh.Vertex, error) {
	if v, ok := s.(*sexpVec3); ok {
		return v.vec, nil
	}
	return mesh.Vertex{}, fmt.Errorf("expected vec3, got %T (%s)", s, s.SexpString(nil))
}

// toVec3OrScalar accepts a vec3 or a single number applied to every axis.
func toVec3OrScalar(s zygo.Sexp) (mesh.Vertex, error) {
	if f, err := toFloat64(s); err == nil {
		return mesh.Vertex{X: f, Y: f, Z: f}, nil
	}
	v, err := toVec3(s)
	if err != nil {
		return mesh.Vertex{}, fmt.Errorf("expected vec3 or number, got %T (%s)", s, s.SexpString(nil))
	}
	return v, nil
}

// toColor parses a "#rgb", "#rrggbb" or "#rrggbbaa" string.
func toColor(s zygo.Sexp) (color.RGBA, error) {
	str, err := toString(s)
	if err != nil {
		return color.RGBA{}, err
	}
	c, err := gg.ParseHex(str)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("color %q: %w", str, err)
	}
	return color.RGBAModel.Convert(c).(color.RGBA), nil
}

// sexpListToSlice converts a SexpPair (Lisp list) or SexpArray to a Go slice.
func sexpListToSlice(s zygo.Sexp) ([]zygo.Sexp, error) {
	switch v := s.(type) {
	case *zygo.SexpPair:
		return zygo.ListToArray(v)
	case *zygo.SexpArray:
		return v.Val, nil
	case *zygo.SexpSentinel:
		if v == zygo.SexpNull {
			return nil, nil
		}
	}
	return nil, fmt.Errorf("expected list or array, got %T", s)
}

// nodeRefs flattens positional arguments into node references. Lists of
// references are accepted so scripts can build children with map.
func nodeRefs(args []zygo.Sexp) ([]*sexpNodeRef, error) {
	var refs []*sexpNodeRef
	for i, a := range args {
		if ref, ok := a.(*sexpNodeRef); ok {
			refs = append(refs, ref)
			continue
		}
		items, err := sexpListToSlice(a)
		if err != nil {
			return nil, fmt.Errorf("child %d: expected node reference, got %T (%s)", i, a, a.SexpString(nil))
		}
		nested, err := nodeRefs(items)
		if err != nil {
			return nil, fmt.Errorf("child %d: %w", i, err)
		}
		refs = append(refs, nested...)
	}
	return refs, nil
}

// ---------------------------------------------------------------------------
// Scene builder
// ---------------------------------------------------------------------------

// builder accumulates nodes for one evaluation. Every drawable node starts
// out as a root and stops being one once another node adopts it.
type builder struct {
	s    *scene.Scene
	anon int
}

// id derives a deterministic node ID from the node's kind and name. Nodes
// without a name get a per-evaluation sequence number.
func (b *builder) id(prefix, name string) scene.NodeID {
	if name != "" {
		return scene.NewNodeID(prefix + "/" + name)
	}
	b.anon++
	return scene.NewNodeID(fmt.Sprintf("%s/_anon_%d", prefix, b.anon))
}

// add inserts n as a new root after rejecting duplicate names.
func (b *builder) add(n *scene.Node) (*sexpNodeRef, error) {
	if n.Name != "" {
		if _, taken := b.s.NameIndex[n.Name]; taken {
			return nil, fmt.Errorf("duplicate name %q", n.Name)
		}
	}
	for _, c := range n.Children {
		b.s.RemoveRoot(c)
	}
	b.s.AddNode(n)
	b.s.AddRoot(n.ID)
	return &sexpNodeRef{id: n.ID, name: n.Name}, nil
}

func childIDs(refs []*sexpNodeRef) []scene.NodeID {
	return lo.Map(refs, func(r *sexpNodeRef, _ int) scene.NodeID { return r.id })
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// registerBuiltins installs the scene builtins into a zygomys environment.
// The builtins populate b.s during evaluation.
//
// Source code must be preprocessed with preprocessSource() before evaluation so
// that :keyword tokens are converted to recognizable string literals.
func registerBuiltins(env *zygo.Zlisp, b *builder) {
	s := b.s

	// -----------------------------------------------------------------------
	// (vec3 1 2 3)
	// -----------------------------------------------------------------------
	env.AddFunction("vec3", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 3 {
			return zygo.SexpNull, fmt.Errorf("vec3 requires exactly 3 arguments, got %d", len(args))
		}
		var xyz [3]float64
		for i, a := range args {
			f, err := toFloat64(a)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("vec3: %c: %w", "xyz"[i], err)
			}
			xyz[i] = f
		}
		return &sexpVec3{vec: mesh.Vertex{X: xyz[0], Y: xyz[1], Z: xyz[2]}}, nil
	})

	// -----------------------------------------------------------------------
	// (model "teapot.stl" :name "teapot" :polygons true)
	// -----------------------------------------------------------------------
	env.AddFunction("model", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) < 1 {
			return zygo.SexpNull, fmt.Errorf("model requires a file path")
		}
		path, err := toString(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("model: path: %w", err)
		}
		md := scene.ModelData{Path: path}
		if v, ok := pa.kw["polygons"]; ok {
			if md.Polygons, err = toBool(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("model: polygons: %w", err)
			}
		}
		var nodeName string
		if err := pa.str("name", &nodeName); err != nil {
			return zygo.SexpNull, fmt.Errorf("model: %w", err)
		}

		ref, err := b.add(&scene.Node{
			ID:   b.id("model", nodeName),
			Kind: scene.NodeModel,
			Name: nodeName,
			Data: md,
		})
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("model: %w", err)
		}
		return ref, nil
	})

	// -----------------------------------------------------------------------
	// (box 4 2 1 :name "shelf") / (box :size (vec3 4 2 1)) / (box 3)
	// -----------------------------------------------------------------------
	env.AddFunction("box", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		pd := scene.PrimitiveData{Shape: scene.ShapeBox}

		size, hasSize := pa.kw["size"]
		switch {
		case hasSize:
			v, err := toVec3OrScalar(size)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("box: size: %w", err)
			}
			pd.Size = v
		case len(pa.positional) == 1:
			v, err := toVec3OrScalar(pa.positional[0])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("box: size: %w", err)
			}
			pd.Size = v
		case len(pa.positional) == 3:
			var xyz [3]float64
			for i, a := range pa.positional {
				f, err := toFloat64(a)
				if err != nil {
					return zygo.SexpNull, fmt.Errorf("box: %c: %w", "xyz"[i], err)
				}
				xyz[i] = f
			}
			pd.Size = mesh.Vertex{X: xyz[0], Y: xyz[1], Z: xyz[2]}
		default:
			return zygo.SexpNull, fmt.Errorf("box requires a size: one number, three numbers or :size")
		}

		var nodeName string
		if err := pa.str("name", &nodeName); err != nil {
			return zygo.SexpNull, fmt.Errorf("box: %w", err)
		}
		ref, err := b.add(&scene.Node{
			ID:   b.id("box", nodeName),
			Kind: scene.NodePrimitive,
			Name: nodeName,
			Data: pd,
		})
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("box: %w", err)
		}
		return ref, nil
	})

	// -----------------------------------------------------------------------
	// (cylinder :height 2 :radius 0.5 :name "peg")
	// -----------------------------------------------------------------------
	env.AddFunction("cylinder", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		pd := scene.PrimitiveData{Shape: scene.ShapeCylinder}
		var nodeName string
		if err := pa.float("height", &pd.Height); err != nil {
			return zygo.SexpNull, fmt.Errorf("cylinder: %w", err)
		}
		if err := pa.float("radius", &pd.Radius); err != nil {
			return zygo.SexpNull, fmt.Errorf("cylinder: %w", err)
		}
		if err := pa.str("name", &nodeName); err != nil {
			return zygo.SexpNull, fmt.Errorf("cylinder: %w", err)
		}
		ref, err := b.add(&scene.Node{
			ID:   b.id("cylinder", nodeName),
			Kind: scene.NodePrimitive,
			Name: nodeName,
			Data: pd,
		})
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("cylinder: %w", err)
		}
		return ref, nil
	})

	// -----------------------------------------------------------------------
	// (sphere 1.5) / (sphere :radius 1.5 :name "ball")
	// -----------------------------------------------------------------------
	env.AddFunction("sphere", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		pd := scene.PrimitiveData{Shape: scene.ShapeSphere}
		if len(pa.positional) > 0 {
			f, err := toFloat64(pa.positional[0])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("sphere: radius: %w", err)
			}
			pd.Radius = f
		}
		if err := pa.float("radius", &pd.Radius); err != nil {
			return zygo.SexpNull, fmt.Errorf("sphere: %w", err)
		}
		var nodeName string
		if err := pa.str("name", &nodeName); err != nil {
			return zygo.SexpNull, fmt.Errorf("sphere: %w", err)
		}
		ref, err := b.add(&scene.Node{
			ID:   b.id("sphere", nodeName),
			Kind: scene.NodePrimitive,
			Name: nodeName,
			Data: pd,
		})
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("sphere: %w", err)
		}
		return ref, nil
	})

	// -----------------------------------------------------------------------
	// (ref "name")
	// -----------------------------------------------------------------------
	env.AddFunction("ref", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) < 1 {
			return zygo.SexpNull, fmt.Errorf("ref requires a name argument")
		}
		refName, err := toString(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("ref: name: %w", err)
		}
		n := s.Lookup(refName)
		if n == nil {
			return zygo.SexpNull, fmt.Errorf("ref: no node named %q", refName)
		}
		return &sexpNodeRef{id: n.ID, name: refName}, nil
	})

	// -----------------------------------------------------------------------
	// (place (ref "teapot") :at (vec3 0 0 2) :rotate (vec3 0 0 90) :scale 2)
	// -----------------------------------------------------------------------
	env.AddFunction("place", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) < 1 {
			return zygo.SexpNull, fmt.Errorf("place requires a node reference as first argument")
		}
		children, err := nodeRefs(pa.positional)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("place: %w", err)
		}

		td := scene.TransformData{}
		if v, ok := pa.kw["at"]; ok {
			vec, err := toVec3(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("place: at: %w", err)
			}
			td.Translation = &vec
		}
		if v, ok := pa.kw["rotate"]; ok {
			vec, err := toVec3(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("place: rotate: %w", err)
			}
			td.Rotation = &vec
		}
		if v, ok := pa.kw["scale"]; ok {
			vec, err := toVec3OrScalar(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("place: scale: %w", err)
			}
			td.Scale = &vec
		}

		var nodeName string
		if err := pa.str("name", &nodeName); err != nil {
			return zygo.SexpNull, fmt.Errorf("place: %w", err)
		}
		ref, err := b.add(&scene.Node{
			ID:       b.id("place", nodeName),
			Kind:     scene.NodeTransform,
			Name:     nodeName,
			Children: childIDs(children),
			Data:     td,
		})
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("place: %w", err)
		}
		return ref, nil
	})

	// -----------------------------------------------------------------------
	// (group "name" (place ...) (place ...) ...)
	// -----------------------------------------------------------------------
	env.AddFunction("group", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) < 1 {
			return zygo.SexpNull, fmt.Errorf("group requires a name argument")
		}
		groupName, err := toString(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("group: name: %w", err)
		}
		children, err := nodeRefs(args[1:])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("group: %w", err)
		}
		ref, err := b.add(&scene.Node{
			ID:       b.id("group", groupName),
			Kind:     scene.NodeGroup,
			Name:     groupName,
			Children: childIDs(children),
			Data:     scene.GroupData{},
		})
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("group: %w", err)
		}
		return ref, nil
	})

	// -----------------------------------------------------------------------
	// (union a b ...) (difference a b ...) (intersection a b ...)
	// -----------------------------------------------------------------------
	for opName, op := range map[string]scene.BooleanOp{
		"union":        scene.OpUnion,
		"difference":   scene.OpDifference,
		"intersection": scene.OpIntersection,
	} {
		env.AddFunction(opName, func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			pa := parseArgs(args)
			operands, err := nodeRefs(pa.positional)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: %w", opName, err)
			}
			if len(operands) < 2 {
				return zygo.SexpNull, fmt.Errorf("%s requires at least two operands, got %d", opName, len(operands))
			}
			var nodeName string
			if err := pa.str("name", &nodeName); err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: %w", opName, err)
			}
			ref, err := b.add(&scene.Node{
				ID:       b.id(opName, nodeName),
				Kind:     scene.NodeBoolean,
				Name:     nodeName,
				Children: childIDs(operands),
				Data:     scene.BooleanData{Op: op},
			})
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: %w", opName, err)
			}
			return ref, nil
		})
	}

	// -----------------------------------------------------------------------
	// (camera :width 640 :height 480 :size 10 :pitch 30 :yaw 45)
	// -----------------------------------------------------------------------
	env.AddFunction("camera", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		c := s.Camera
		if v, ok := pa.kw["width"]; ok {
			n, err := toInt(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("camera: width: %w", err)
			}
			c.Width = n
		}
		if v, ok := pa.kw["height"]; ok {
			n, err := toInt(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("camera: height: %w", err)
			}
			c.Height = n
		}
		if err := pa.float("size", &c.Size); err != nil {
			return zygo.SexpNull, fmt.Errorf("camera: %w", err)
		}
		if err := pa.float("pitch", &c.Orientation.Pitch); err != nil {
			return zygo.SexpNull, fmt.Errorf("camera: %w", err)
		}
		if err := pa.float("yaw", &c.Orientation.Yaw); err != nil {
			return zygo.SexpNull, fmt.Errorf("camera: %w", err)
		}
		cam, err := camera.New(c.Width, c.Height, c.Size, c.Orientation)
		if err != nil {
			return zygo.SexpNull, err
		}
		s.Camera = cam
		return zygo.SexpNull, nil
	})

	// -----------------------------------------------------------------------
	// (frames :count 36 :yaw-step 10 :pitch-step 0)
	// -----------------------------------------------------------------------
	env.AddFunction("frames", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		f := s.Frames
		if v, ok := pa.kw["count"]; ok {
			n, err := toInt(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("frames: count: %w", err)
			}
			if n < 1 {
				return zygo.SexpNull, fmt.Errorf("frames: count must be at least 1, got %d", n)
			}
			f.Count = n
		}
		if err := pa.float("pitch-step", &f.PitchStep); err != nil {
			return zygo.SexpNull, fmt.Errorf("frames: %w", err)
		}
		if err := pa.float("yaw-step", &f.YawStep); err != nil {
			return zygo.SexpNull, fmt.Errorf("frames: %w", err)
		}
		s.Frames = f
		return zygo.SexpNull, nil
	})

	// -----------------------------------------------------------------------
	// (style :mode :wireframe :color "#00ff00" :thickness 1.5
	//        :matcap "clay.png" :background "#202020" :orderer "depth")
	// -----------------------------------------------------------------------
	env.AddFunction("style", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		st := s.Style
		if v, ok := pa.kw["mode"]; ok {
			m, err := toKeywordString(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("style: mode: %w", err)
			}
			if st.Mode, err = raster.ParseMode(m); err != nil {
				return zygo.SexpNull, fmt.Errorf("style: %w", err)
			}
		}
		if v, ok := pa.kw["color"]; ok {
			c, err := toColor(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("style: %w", err)
			}
			st.Color = c
		}
		if v, ok := pa.kw["background"]; ok {
			c, err := toColor(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("style: background: %w", err)
			}
			st.Background = &c
		}
		if err := pa.float("thickness", &st.Thickness); err != nil {
			return zygo.SexpNull, fmt.Errorf("style: %w", err)
		}
		if err := pa.str("matcap", &st.Matcap); err != nil {
			return zygo.SexpNull, fmt.Errorf("style: %w", err)
		}
		if v, ok := pa.kw["orderer"]; ok {
			o, err := toKeywordString(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("style: orderer: %w", err)
			}
			st.Orderer = o
		}
		s.Style = st
		return zygo.SexpNull, nil
	})
}
