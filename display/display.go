// This file is part of Framepipe.
//
// Framepipe is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Framepipe is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Framepipe.  If not, see <https://www.gnu.org/licenses/>.

package display

import (
	"fmt"
	"io/fs"
	"sync/atomic"

	"github.com/jetsetilly/framepipe/frame"
	"github.com/jetsetilly/framepipe/logger"
	"github.com/jetsetilly/framepipe/video"
)

// Producer is the source of frames. The display consults the producer's
// frame-pacing gate before servicing the queue and releases the gate once
// the frame has been taken (or presented, see SetSyncPresentation()).
//
// Interrupt() suspends the producer from the caller's goroutine: the
// producer must not be inside FramePosted() or blocked on the gate when
// Interrupt() returns. The returned function resumes the producer.
type Producer interface {
	WaitFrameStart() bool
	SignalFrameEnd()
	Interrupt() (resume func())
	Resolution() (width int, height int)
}

// Surface is the presentable graphics surface and its context. All functions
// except Capabilities() are called from the render goroutine once drawing has
// started.
type Surface interface {
	MakeCurrent() error
	ReleaseCurrent()
	Present() error
	Valid() bool
	DevicePixelRatio() float32
	Capabilities() video.Capabilities
}

// Overlay is painted over the frame on every draw, after the backend but
// before presentation. An overlay is optional.
type Overlay interface {
	Paint()
}

// Display is the cross-goroutine facade over the frame pipeline. Functions
// are safe to call from any goroutine; the producer additionally calls
// FramePosted() from its own goroutine.
type Display struct {
	surface Surface
	queue   *frame.Queue
	backend video.Backend
	p       *painter

	// whether the render goroutine is running. read by FramePosted() on the
	// producer goroutine
	drawing atomic.Bool

	producer Producer

	cfg              video.Config
	syncPresentation bool

	winWidth  int
	winHeight int
}

// NewDisplay prepares the pipeline for the given surface. The backend variant
// is selected from the surface's reported capabilities and initialised on the
// calling goroutine; the caller's OS thread must be able to hold the graphics
// context for the duration of the call.
//
// The overlay may be nil. maxWidth and maxHeight bound the frame sizes the
// queue will ever be asked to hold.
func NewDisplay(surface Surface, overlay Overlay, maxWidth int, maxHeight int) (*Display, error) {
	queue, err := frame.NewQueue(frame.DefaultPoolSize, maxWidth, maxHeight)
	if err != nil {
		return nil, fmt.Errorf("display: %w", err)
	}

	d := &Display{
		surface: surface,
		queue:   queue,
		p:       newPainter(surface, overlay, queue, DefaultSwapInterval),
	}

	if err := surface.MakeCurrent(); err != nil {
		return nil, fmt.Errorf("display: %w", err)
	}
	defer surface.ReleaseCurrent()

	d.backend, err = video.NewBackend(surface.Capabilities(), d.p)
	if err != nil {
		return nil, fmt.Errorf("display: %w", err)
	}
	if err := d.backend.Init(); err != nil {
		return nil, fmt.Errorf("display: %w", err)
	}
	d.p.backend = d.backend

	return d, nil
}

// Destroy stops drawing if necessary and releases all graphics resources.
// The display must not be used again.
func (d *Display) Destroy() {
	d.StopDrawing()

	if err := d.surface.MakeCurrent(); err != nil {
		logger.Logf(logger.Allow, "display", "destroy: %v", err)
	}
	d.backend.Deinit()
	d.surface.ReleaseCurrent()
}

// StartDrawing hands the graphics context to a new render goroutine and
// begins servicing frames from the producer. The caller must not hold the
// context current. It is an error to start a display that is already
// drawing.
func (d *Display) StartDrawing(producer Producer) error {
	if d.drawing.Load() {
		return fmt.Errorf("display: already drawing")
	}
	if producer == nil {
		return fmt.Errorf("display: nil producer")
	}

	d.producer = producer
	d.p.producer = producer
	d.p.syncPresentation = d.syncPresentation
	d.p.winWidth = d.winWidth
	d.p.winHeight = d.winHeight

	// size the queue before any frame can arrive. no graphics calls are made
	// so this is safe on the caller's goroutine
	if err := d.queue.SetFrameSize(producer.Resolution()); err != nil {
		return fmt.Errorf("display: %w", err)
	}

	d.p.state = stateStarting
	d.p.done = make(chan struct{})
	d.drawing.Store(true)

	go d.p.run()

	cfg := d.cfg
	d.p.post(func() {
		d.p.backend.SetDimensions(producer.Resolution())
		d.p.setConfig(cfg)
	})

	return nil
}

// StopDrawing shuts down the render goroutine, flushing the queue and
// presenting a blank frame on the way out. The graphics context is current
// on the calling goroutine when StopDrawing returns. Stopping a display that
// isn't drawing is a no-op.
func (d *Display) StopDrawing() {
	if !d.drawing.Load() {
		return
	}

	// refuse new frames before suspending the producer. the producer cannot
	// be mid-FramePosted or parked on the gate while stop() runs
	d.drawing.Store(false)

	resume := d.producer.Interrupt()
	defer resume()

	d.p.postBlocking(d.p.stop)
	<-d.p.done

	if err := d.surface.MakeCurrent(); err != nil {
		logger.Logf(logger.Allow, "display", "stop: %v", err)
	}

	d.producer = nil
	d.p.producer = nil
}

// PauseDrawing suspends frame servicing. Frames posted while paused
// accumulate in the queue, dropping the oldest when full, and the most
// recent survivor is drawn when drawing resumes. Presentation of already
// drawn frames is unaffected.
func (d *Display) PauseDrawing() {
	d.setPaused(true)
}

// UnpauseDrawing resumes frame servicing.
func (d *Display) UnpauseDrawing() {
	d.setPaused(false)
}

func (d *Display) setPaused(paused bool) {
	if !d.drawing.Load() {
		return
	}

	resume := d.producer.Interrupt()
	defer resume()

	if paused {
		d.p.postBlocking(d.p.pause)
	} else {
		d.p.postBlocking(func() {
			d.p.unpause()
			if d.queue.Entries() > 0 {
				d.p.requestDraw()
			}
		})
	}
}

// FramePosted accepts a completed frame from the producer. The pixel data is
// copied so the producer may reuse its buffer immediately. A nil pixels slice
// records a skipped frame, keeping the producer's gate cadence without
// drawing anything.
//
// FramePosted never blocks: when the queue is full the oldest pending frame
// is dropped.
func (d *Display) FramePosted(pixels []byte) {
	if !d.drawing.Load() {
		return
	}
	d.queue.Enqueue(pixels)
	d.p.requestDraw()
}

// ForceDraw schedules an unconditional redraw of the most recent frame.
func (d *Display) ForceDraw() {
	if !d.drawing.Load() {
		return
	}
	d.p.post(d.p.forceDraw)
}

// Resized declares the new surface size in surface coordinates.
func (d *Display) Resized(width int, height int) {
	d.winWidth = width
	d.winHeight = height

	if d.drawing.Load() {
		d.p.postBlocking(func() {
			d.p.resize(width, height)
		})
	} else {
		d.p.winWidth = width
		d.p.winHeight = height
	}
}

// ResizeContext re-reads the producer's resolution and resizes the frame
// queue and the backend texture to match. Call after the producer has
// changed video mode.
func (d *Display) ResizeContext() {
	if !d.drawing.Load() {
		d.p.resizeContext()
		return
	}

	resume := d.producer.Interrupt()
	defer resume()

	d.p.postBlocking(d.p.resizeContext)
}

// SetFilter selects linear (true) or nearest (false) sampling for the
// presentation draw.
func (d *Display) SetFilter(filter bool) {
	d.cfg.Filter = filter
	d.applyConfig()
}

// SetAspectRatioLock preserves the frame's aspect ratio when fitting it to
// the surface.
func (d *Display) SetAspectRatioLock(lock bool) {
	d.cfg.LockAspectRatio = lock
	d.applyConfig()
}

// SetIntegerScalingLock restricts upscaling to whole-number factors.
// Implies an aspect ratio lock.
func (d *Display) SetIntegerScalingLock(lock bool) {
	d.cfg.LockIntegerScaling = lock
	d.applyConfig()
}

func (d *Display) applyConfig() {
	cfg := d.cfg
	if d.drawing.Load() {
		d.p.post(func() {
			d.p.setConfig(cfg)
		})
	} else {
		d.backend.SetConfig(cfg)
	}
}

// SetSyncPresentation selects when the producer's gate is released: after
// the frame has been presented (true) or as soon as it has been copied out
// of the queue (false). Presentation sync trades producer throughput for
// latency that tracks the display refresh.
func (d *Display) SetSyncPresentation(sync bool) {
	d.syncPresentation = sync
	if d.drawing.Load() {
		d.p.post(func() {
			d.p.syncPresentation = sync
		})
	}
}

// SetShaders loads a shader set from the filesystem and attaches it to the
// backend. On any error the previously attached set, if any, remains in
// place. SetShaders fails if the backend does not support shaders, see
// SupportsShaderPipeline().
func (d *Display) SetShaders(fsys fs.FS) error {
	if !d.backend.SupportsShaders() {
		return fmt.Errorf("display: backend does not support shaders")
	}

	set, err := video.LoadShaderSet(fsys)
	if err != nil {
		return fmt.Errorf("display: %w", err)
	}

	if d.drawing.Load() {
		d.p.postBlocking(func() {
			d.p.setShaders(set)
		})
	} else {
		if err := d.surface.MakeCurrent(); err != nil {
			return fmt.Errorf("display: %w", err)
		}
		defer d.surface.ReleaseCurrent()
		d.p.setShaders(set)
	}

	return nil
}

// ClearShaders detaches any attached shader set.
func (d *Display) ClearShaders() {
	if d.drawing.Load() {
		d.p.post(d.p.clearShaders)
	} else {
		if err := d.surface.MakeCurrent(); err != nil {
			logger.Logf(logger.Allow, "display", "clear shaders: %v", err)
			return
		}
		defer d.surface.ReleaseCurrent()
		d.p.clearShaders()
	}
}

// SupportsShaderPipeline reports whether the selected backend can run
// user-supplied shader passes.
func (d *Display) SupportsShaderPipeline() bool {
	return d.backend.SupportsShaders()
}

// CurrentTextureHandle returns the handle of the frame texture. The blocking
// round-trip to the render goroutine means the handle is not stale, but the
// texture contents may of course change on the next draw.
func (d *Display) CurrentTextureHandle() uint32 {
	if !d.drawing.Load() {
		return d.backend.TextureID()
	}

	var tex uint32
	d.p.postBlocking(func() {
		tex = d.p.glTex()
	})
	return tex
}

// ActualFPS returns the most recently measured presentation rate.
func (d *Display) ActualFPS() float32 {
	return d.p.pacer.fps()
}

// QueueStats returns the number of frames dropped since the display was
// created and the number currently pending.
func (d *Display) QueueStats() (dropped int, pending int) {
	return d.queue.Dropped(), d.queue.Pending()
}
