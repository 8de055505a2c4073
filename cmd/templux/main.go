// Command templux renders STL models and scene scripts to images.
//
// Usage:
//
//	templux render  [flags] model.stl
//	templux script  [flags] scene.zy
//	templux convert [-format ascii|binary] in.stl out.stl
//	templux info    model.stl
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image/color"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/gogpu/gg"

	"github.com/chazu/templux/pkg/camera"
	"github.com/chazu/templux/pkg/raster"
	"github.com/chazu/templux/pkg/scene"
	"github.com/chazu/templux/pkg/stl"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

// run executes one subcommand and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		usage(stderr)
		return 2
	}
	cmd, rest := args[0], args[1:]

	var err error
	switch cmd {
	case "render":
		err = cmdRender(ctx, rest, stderr)
	case "script":
		err = cmdScript(ctx, rest, stderr)
	case "convert":
		err = cmdConvert(rest, stderr)
	case "info":
		err = cmdInfo(rest, stdout, stderr)
	case "help", "-h", "-help", "--help":
		usage(stdout)
		return 0
	default:
		fmt.Fprintf(stderr, "templux: unknown command %q\n", cmd)
		usage(stderr)
		return 2
	}

	switch {
	case err == nil:
		return 0
	case errors.Is(err, flag.ErrHelp):
		return 0
	case errors.Is(err, errUsage):
		return 2
	}
	fmt.Fprintf(stderr, "templux %s: %v\n", cmd, err)
	return 1
}

var errUsage = errors.New("usage")

func usage(w io.Writer) {
	fmt.Fprintln(w, `usage: templux <command> [flags] [args]

commands:
  render   render an STL file to PNG, GIF or a frame directory
  script   evaluate a scene script and render it
  convert  rewrite an STL file as ASCII or binary
  info     print name, facet count and bounds of an STL file`)
}

// newLogger installs a text handler on stderr, at Debug level when verbose.
func newLogger(stderr io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))
	raster.SetLogger(log)
	return log
}

// viewFlags are shared by render; script sets the same things in the source.
type viewFlags struct {
	width, height int
	size          float64
	pitch, yaw    float64
	mode          string
	color         string
	thickness     float64
	matcap        string
	background    string
	orderer       string
	frames        int
	pitchStep     float64
	yawStep       float64
}

func (v *viewFlags) register(fs *flag.FlagSet) {
	fs.IntVar(&v.width, "width", scene.DefaultWidth, "image width in pixels")
	fs.IntVar(&v.height, "height", scene.DefaultHeight, "image height in pixels")
	fs.Float64Var(&v.size, "size", camera.DefaultSize, "world units across the image width")
	fs.Float64Var(&v.pitch, "pitch", 0, "camera pitch in degrees")
	fs.Float64Var(&v.yaw, "yaw", 0, "camera yaw in degrees")
	fs.StringVar(&v.mode, "mode", "solid", "solid or wireframe")
	fs.StringVar(&v.color, "color", "#ffffff", "wireframe line color")
	fs.Float64Var(&v.thickness, "thickness", raster.DefaultThickness, "wireframe line width")
	fs.StringVar(&v.matcap, "matcap", "", "matcap image (default: built-in clay)")
	fs.StringVar(&v.background, "background", "", "background color (default: transparent)")
	fs.StringVar(&v.orderer, "orderer", "heuristic", "depth order: heuristic or depth")
	fs.IntVar(&v.frames, "frames", 1, "number of frames")
	fs.Float64Var(&v.pitchStep, "pitch-step", 0, "pitch change per frame in degrees")
	fs.Float64Var(&v.yawStep, "yaw-step", 0, "yaw change per frame in degrees (default: full turn when frames > 1)")
}

// apply copies the flags onto s.
func (v *viewFlags) apply(s *scene.Scene) error {
	cam, err := camera.New(v.width, v.height, v.size, camera.Orientation{Pitch: v.pitch, Yaw: v.yaw})
	if err != nil {
		return err
	}
	s.Camera = cam

	mode, err := raster.ParseMode(v.mode)
	if err != nil {
		return err
	}
	s.Style.Mode = mode
	c, err := gg.ParseHex(v.color)
	if err != nil {
		return fmt.Errorf("color: %w", err)
	}
	s.Style.Color = toRGBA(c)
	if v.background != "" {
		bg, err := gg.ParseHex(v.background)
		if err != nil {
			return fmt.Errorf("background: %w", err)
		}
		rgba := toRGBA(bg)
		s.Style.Background = &rgba
	}
	s.Style.Thickness = v.thickness
	s.Style.Matcap = v.matcap
	s.Style.Orderer = v.orderer

	if v.frames < 1 {
		return fmt.Errorf("frames must be at least 1, got %d", v.frames)
	}
	s.Frames = scene.Frames{Count: v.frames, PitchStep: v.pitchStep, YawStep: v.yawStep}
	if v.frames > 1 && v.yawStep == 0 && v.pitchStep == 0 {
		s.Frames.YawStep = 360 / float64(v.frames)
	}
	return nil
}

func toRGBA(c gg.RGBA) color.RGBA {
	return color.RGBAModel.Convert(c).(color.RGBA)
}

func cmdRender(ctx context.Context, args []string, stderr io.Writer) error {
	fs := flag.NewFlagSet("render", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var view viewFlags
	view.register(fs)
	out := fs.String("o", "out.png", "output: file.png, file.gif or a directory for frames")
	polygons := fs.Bool("polygons", false, "accept ASCII facets with more than three vertices")
	workers := fs.Int("workers", 0, "frames rendered in parallel (default 4)")
	verbose := fs.Bool("v", false, "verbose logging")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return errUsage
	}

	app := NewApp(newLogger(stderr, *verbose))
	app.workers = *workers

	s := ModelScene(fs.Arg(0), *polygons)
	if err := view.apply(s); err != nil {
		return err
	}
	if f := scene.Validate(s); len(f.Errors()) > 0 {
		return f.Errors()[0]
	}
	meshes, err := app.Tessellate(s)
	if err != nil {
		return err
	}
	return app.Render(ctx, s, meshes, *out)
}

func cmdScript(ctx context.Context, args []string, stderr io.Writer) error {
	fs := flag.NewFlagSet("script", flag.ContinueOnError)
	fs.SetOutput(stderr)
	out := fs.String("o", "out.png", "output: file.png, file.gif or a directory for frames")
	workers := fs.Int("workers", 0, "frames rendered in parallel (default 4)")
	verbose := fs.Bool("v", false, "verbose logging")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return errUsage
	}

	path := fs.Arg(0)
	source, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	log := newLogger(stderr, *verbose)
	app := NewApp(log)
	app.workers = *workers
	app.baseDir = filepath.Dir(path)

	result := app.Evaluate(string(source))
	for _, w := range result.Warnings {
		log.Warn(w.String(), "script", path)
	}
	if len(result.Errors) > 0 {
		for _, e := range result.Errors {
			fmt.Fprintf(stderr, "%s: %s\n", path, e)
		}
		return fmt.Errorf("%d error(s) in %s", len(result.Errors), path)
	}
	return app.Render(ctx, result.Scene, result.Meshes, *out)
}

func cmdConvert(args []string, stderr io.Writer) error {
	fs := flag.NewFlagSet("convert", flag.ContinueOnError)
	fs.SetOutput(stderr)
	format := fs.String("format", "binary", "output format: ascii or binary")
	polygons := fs.Bool("polygons", false, "accept and triangulate ASCII facets with more than three vertices")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 2 {
		fs.Usage()
		return errUsage
	}
	f, err := stl.ParseFormat(*format)
	if err != nil {
		return err
	}
	var opts []stl.Option
	if *polygons {
		opts = append(opts, stl.WithPolygons())
	}
	m, err := stl.ReadFile(fs.Arg(0), opts...)
	if err != nil {
		return err
	}
	return stl.WriteFile(fs.Arg(1), m.Triangulate(), f)
}

func cmdInfo(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("info", flag.ContinueOnError)
	fs.SetOutput(stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return errUsage
	}
	path := fs.Arg(0)
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	m, err := stl.Parse(data, stl.WithPolygons())
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	fmt.Fprintf(stdout, "file:   %s\n", path)
	fmt.Fprintf(stdout, "format: %s\n", stl.DetectFormat(data))
	fmt.Fprintf(stdout, "name:   %s\n", m.Name)
	fmt.Fprintf(stdout, "facets: %d\n", m.FaceCount())
	if lo, hi, ok := m.Bounds(); ok {
		fmt.Fprintf(stdout, "bounds: (%g, %g, %g) - (%g, %g, %g)\n", lo.X, lo.Y, lo.Z, hi.X, hi.Y, hi.Z)
		size := hi.Sub(lo)
		fmt.Fprintf(stdout, "size:   %g x %g x %g\n", size.X, size.Y, size.Z)
	}
	return nil
}
