package animate

import (
	"fmt"
	"image"
	"image/color"
	"image/color/palette"
	"image/gif"
	"io"
	"os"
	"path/filepath"

	xdraw "golang.org/x/image/draw"
)

// DefaultPattern names the files written by DirSink.
const DefaultPattern = "frame_%04d.png"

// DirSink writes every frame as a PNG file in a directory.
type DirSink struct {
	Dir     string
	Pattern string // fmt pattern taking the frame index

	written []string
}

// NewDirSink creates dir if needed and returns a sink writing into it.
func NewDirSink(dir string) (*DirSink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("animate: %w", err)
	}
	return &DirSink{Dir: dir, Pattern: DefaultPattern}, nil
}

// WriteFrame implements FrameSink.
func (s *DirSink) WriteFrame(f Frame) error {
	pattern := s.Pattern
	if pattern == "" {
		pattern = DefaultPattern
	}
	path := filepath.Join(s.Dir, fmt.Sprintf(pattern, f.Index))
	if err := f.Pixmap.SavePNG(path); err != nil {
		return fmt.Errorf("animate: frame %d: %w", f.Index, err)
	}
	s.written = append(s.written, path)
	return nil
}

// Files returns the paths written so far, in frame order.
func (s *DirSink) Files() []string {
	return s.written
}

// Close implements FrameSink.
func (s *DirSink) Close() error { return nil }

// gifPalette is Plan 9 with its darkest grey traded for a transparent
// entry, so pixels the renderer left unpainted stay see-through.
var gifPalette = func() color.Palette {
	p := make(color.Palette, 0, len(palette.Plan9))
	for _, c := range palette.Plan9 {
		if c != (color.RGBA{R: 0x11, G: 0x11, B: 0x11, A: 0xff}) {
			p = append(p, c)
		}
	}
	return append(p, color.RGBA{})
}()

// GIFSink collects frames into an animated GIF written on Close. Frames are
// dithered onto a Plan 9 based palette. Fully transparent pixels keep the
// palette's transparent index, and each frame is disposed to the background
// so earlier frames never show through.
type GIFSink struct {
	w     io.Writer
	delay int
	anim  gif.GIF
}

// NewGIFSink returns a sink writing to w with delay hundredths of a second
// between frames. The GIF loops forever.
func NewGIFSink(w io.Writer, delay int) *GIFSink {
	if delay <= 0 {
		delay = 10
	}
	return &GIFSink{w: w, delay: delay}
}

// WriteFrame implements FrameSink.
func (s *GIFSink) WriteFrame(f Frame) error {
	b := f.Pixmap.Bounds()
	dst := image.NewPaletted(b, gifPalette)
	xdraw.FloydSteinberg.Draw(dst, b, f.Pixmap, b.Min)
	s.anim.Image = append(s.anim.Image, dst)
	s.anim.Delay = append(s.anim.Delay, s.delay)
	s.anim.Disposal = append(s.anim.Disposal, gif.DisposalBackground)
	return nil
}

// Len returns the number of frames collected.
func (s *GIFSink) Len() int {
	return len(s.anim.Image)
}

// Close encodes the collected frames. An empty sink writes nothing.
func (s *GIFSink) Close() error {
	if len(s.anim.Image) == 0 {
		return nil
	}
	if err := gif.EncodeAll(s.w, &s.anim); err != nil {
		return fmt.Errorf("animate: encode gif: %w", err)
	}
	return nil
}
