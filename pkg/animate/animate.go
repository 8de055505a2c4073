// Package animate renders turntable frame sequences. Frames are rendered
// concurrently with a bounded worker pool and handed to a FrameSink strictly
// in frame order.
package animate

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/gogpu/gg"
	"golang.org/x/sync/errgroup"

	"github.com/chazu/templux/pkg/camera"
	"github.com/chazu/templux/pkg/mesh"
	"github.com/chazu/templux/pkg/raster"
)

// DefaultWorkers is the number of frames rendered at once when the caller
// passes a non-positive worker count.
const DefaultWorkers = 4

// ErrInvalidSequence is returned for sequences that cannot be rendered.
var ErrInvalidSequence = errors.New("invalid frame sequence")

// Sequence is a camera path: Count frames starting at Base, each rotated by
// PitchStep and YawStep degrees from the previous one.
type Sequence struct {
	Base      camera.Camera
	Count     int
	PitchStep float64
	YawStep   float64
}

// Still returns a one-frame sequence.
func Still(cam camera.Camera) Sequence {
	return Sequence{Base: cam, Count: 1}
}

// Turntable returns a sequence of count frames spinning a full turn in yaw.
func Turntable(cam camera.Camera, count int) Sequence {
	seq := Sequence{Base: cam, Count: count}
	if count > 0 {
		seq.YawStep = 360 / float64(count)
	}
	return seq
}

// Validate reports whether every frame of the sequence is renderable.
func (s Sequence) Validate() error {
	if s.Count < 1 {
		return fmt.Errorf("animate: %d frames: %w", s.Count, ErrInvalidSequence)
	}
	if math.IsNaN(s.PitchStep) || math.IsInf(s.PitchStep, 0) ||
		math.IsNaN(s.YawStep) || math.IsInf(s.YawStep, 0) {
		return fmt.Errorf("animate: non-finite step: %w", ErrInvalidSequence)
	}
	if err := s.Base.Validate(); err != nil {
		return fmt.Errorf("animate: %w", err)
	}
	return nil
}

// Frames returns the camera of every frame in order.
func (s Sequence) Frames() []camera.Camera {
	if s.Count < 1 {
		return nil
	}
	cams := make([]camera.Camera, s.Count)
	for i := range cams {
		cams[i] = s.Base.Rotated(float64(i)*s.PitchStep, float64(i)*s.YawStep)
	}
	return cams
}

// Frame is one rendered image of a sequence.
type Frame struct {
	Index  int
	Camera camera.Camera
	Pixmap *gg.Pixmap
}

// FrameSink consumes frames. WriteFrame is called from a single goroutine
// with indexes 0, 1, 2, ... in order.
type FrameSink interface {
	WriteFrame(f Frame) error
	Close() error
}

// Render draws every frame of seq and writes it to sink. At most workers
// frames are rendered at once. The first error cancels the remaining work
// and is returned; the sink is not closed.
func Render(ctx context.Context, r *raster.Renderer, meshes []*mesh.Mesh, style raster.Style,
	seq Sequence, sink FrameSink, workers int) error {
	if err := seq.Validate(); err != nil {
		return err
	}
	if r == nil {
		r = raster.New()
	}
	if workers <= 0 {
		workers = DefaultWorkers
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	cams := seq.Frames()
	ready := make([]chan *gg.Pixmap, len(cams))
	for i := range ready {
		ready[i] = make(chan *gg.Pixmap, 1)
	}

	emitted := make(chan error, 1)
	go func() {
		emitted <- emit(gctx, cams, ready, sink, cancel)
	}()

	log := raster.Logger()
	for i, cam := range cams {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			pm, err := r.Render(cam, meshes, style)
			if err != nil {
				return fmt.Errorf("animate: frame %d: %w", i, err)
			}
			log.Debug("frame rendered", "index", i, "pitch", cam.Orientation.Pitch, "yaw", cam.Orientation.Yaw)
			ready[i] <- pm
			return nil
		})
	}

	renderErr := g.Wait()
	emitErr := <-emitted
	switch {
	case emitErr != nil:
		return emitErr
	case renderErr != nil:
		return renderErr
	}
	log.Info("sequence rendered", "frames", len(cams), "workers", workers)
	return nil
}

// emit hands frames to sink in index order as they become ready. A ready
// frame always wins over cancellation, since the group cancels its context
// once Wait returns.
func emit(ctx context.Context, cams []camera.Camera, ready []chan *gg.Pixmap, sink FrameSink, cancel context.CancelFunc) error {
	for i, cam := range cams {
		var pm *gg.Pixmap
		select {
		case pm = <-ready[i]:
		case <-ctx.Done():
			select {
			case pm = <-ready[i]:
			default:
				// The cause is the first render error or the caller's cancellation.
				return context.Cause(ctx)
			}
		}
		if err := sink.WriteFrame(Frame{Index: i, Camera: cam, Pixmap: pm}); err != nil {
			cancel()
			return fmt.Errorf("animate: write frame %d: %w", i, err)
		}
	}
	return nil
}
