package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/chazu/templux/pkg/animate"
	"github.com/chazu/templux/pkg/depth"
	"github.com/chazu/templux/pkg/engine"
	"github.com/chazu/templux/pkg/kernel"
	"github.com/chazu/templux/pkg/kernel/sdfx"
	"github.com/chazu/templux/pkg/mesh"
	"github.com/chazu/templux/pkg/raster"
	"github.com/chazu/templux/pkg/scene"
	"github.com/chazu/templux/pkg/tessellate"
)

// App ties the pipeline together: script -> scene -> meshes -> frames.
type App struct {
	engine  *engine.Engine
	kernel  kernel.Kernel
	log     *slog.Logger
	baseDir string // resolves model and matcap paths
	workers int
}

// EvalErrorData is a located message from evaluation or validation.
type EvalErrorData struct {
	Line    int
	Col     int
	Message string
}

func (e EvalErrorData) String() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

// EvalResult is everything a script produces.
type EvalResult struct {
	Scene    *scene.Scene
	Meshes   []*mesh.Mesh
	Errors   []EvalErrorData
	Warnings []EvalErrorData
}

// NewApp creates an App with an engine and the sdfx kernel.
func NewApp(log *slog.Logger) *App {
	if log == nil {
		log = raster.Logger()
	}
	return &App{
		engine: engine.NewEngine(),
		kernel: sdfx.New(),
		log:    log,
	}
}

// Evaluate takes script source and returns the scene, its meshes and any
// errors. Errors are collected rather than returned so callers can show all
// of them at once.
func (a *App) Evaluate(source string) EvalResult {
	var result EvalResult

	// Step 1: Evaluate the script into a validated scene.
	res, err := a.engine.Build(source)
	if err != nil {
		// Fatal error (panic, timeout, etc.)
		a.log.Error("evaluate failed", "err", err)
		result.Errors = append(result.Errors, EvalErrorData{Message: err.Error()})
		return result
	}
	for _, w := range res.Warnings {
		result.Warnings = append(result.Warnings, EvalErrorData{Line: w.Line, Col: w.Col, Message: w.Message})
	}
	if !res.OK() {
		for _, e := range res.Errors {
			result.Errors = append(result.Errors, EvalErrorData{Line: e.Line, Col: e.Col, Message: e.Message})
		}
		return result
	}

	// Step 2: Tessellate the scene into triangle meshes.
	meshes, err := a.tessellator().Tessellate(res.Scene)
	if err != nil {
		a.log.Error("tessellate failed", "err", err)
		result.Errors = append(result.Errors, EvalErrorData{Message: "tessellation failed: " + err.Error()})
		return result
	}

	result.Scene = res.Scene
	result.Meshes = meshes
	return result
}

func (a *App) tessellator() *tessellate.Tessellator {
	return tessellate.New(a.kernel, tessellate.WithBaseDir(a.baseDir))
}

// ModelScene wraps a single STL file in a scene with default view settings.
func ModelScene(path string, polygons bool) *scene.Scene {
	s := scene.New()
	n := &scene.Node{
		ID:   scene.NewNodeID("model/" + path),
		Kind: scene.NodeModel,
		Name: strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
		Data: scene.ModelData{Path: path, Polygons: polygons},
	}
	s.AddNode(n)
	s.AddRoot(n.ID)
	return s
}

// Tessellate turns s into meshes without evaluating a script.
func (a *App) Tessellate(s *scene.Scene) ([]*mesh.Mesh, error) {
	return a.tessellator().Tessellate(s)
}

// Render draws every frame of s to out. A ".gif" path becomes an animated
// GIF; a ".png" path holds a still; anything else is a directory of PNG
// frames.
func (a *App) Render(ctx context.Context, s *scene.Scene, meshes []*mesh.Mesh, out string) error {
	r, style, err := a.renderer(s.Style)
	if err != nil {
		return err
	}
	seq := animate.Sequence{
		Base:      s.Camera,
		Count:     s.Frames.Count,
		PitchStep: s.Frames.PitchStep,
		YawStep:   s.Frames.YawStep,
	}

	sink, closeOut, err := openSink(out, seq.Count)
	if err != nil {
		return err
	}
	if err := animate.Render(ctx, r, meshes, style, seq, sink, a.workers); err != nil {
		_ = closeOut()
		return err
	}
	if err := sink.Close(); err != nil {
		_ = closeOut()
		return err
	}
	if err := closeOut(); err != nil {
		return err
	}
	a.log.Info("rendered", "output", out, "frames", seq.Count, "meshes", len(meshes))
	return nil
}

// renderer converts scene style settings into a configured renderer.
func (a *App) renderer(st scene.Style) (*raster.Renderer, raster.Style, error) {
	orderer, ok := depth.ByName(st.Orderer)
	if !ok {
		return nil, raster.Style{}, fmt.Errorf("unknown depth orderer %q", st.Orderer)
	}
	opts := []raster.Option{raster.WithOrderer(orderer)}
	if st.Background != nil {
		opts = append(opts, raster.WithBackground(*st.Background))
	}

	style := raster.Style{Mode: st.Mode, Color: st.Color, Thickness: st.Thickness}
	if st.Matcap != "" {
		path := st.Matcap
		if a.baseDir != "" && !filepath.IsAbs(path) {
			path = filepath.Join(a.baseDir, path)
		}
		mc, err := raster.LoadMatcap(path)
		if err != nil {
			return nil, raster.Style{}, err
		}
		style.Matcap = mc
	}
	return raster.New(opts...), style, nil
}

// pngSink writes a single frame to a fixed path.
type pngSink struct{ path string }

func (s pngSink) WriteFrame(f animate.Frame) error { return f.Pixmap.SavePNG(s.path) }
func (s pngSink) Close() error                     { return nil }

// openSink picks a frame sink from the output path. The returned func
// releases any file the sink writes into.
func openSink(out string, frames int) (animate.FrameSink, func() error, error) {
	nop := func() error { return nil }
	switch strings.ToLower(filepath.Ext(out)) {
	case ".gif":
		f, err := os.Create(out)
		if err != nil {
			return nil, nil, err
		}
		return animate.NewGIFSink(f, 10), f.Close, nil
	case ".png":
		if frames == 1 {
			return pngSink{path: out}, nop, nil
		}
		return nil, nil, fmt.Errorf("%d frames cannot be written to a single PNG; use a directory or .gif", frames)
	}
	sink, err := animate.NewDirSink(out)
	if err != nil {
		return nil, nil, err
	}
	return sink, nop, nil
}
