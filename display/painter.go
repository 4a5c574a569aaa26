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
	"runtime"
	"time"

	"github.com/jetsetilly/framepipe/frame"
	"github.com/jetsetilly/framepipe/logger"
	"github.com/jetsetilly/framepipe/video"
)

type renderState int

const (
	stateStopped renderState = iota
	stateStarting
	stateActive
	statePaused
)

// painter is the render thread controller. Once run() has been launched every
// painter function must be called from the render goroutine; functions from
// other goroutines are marshaled through the service channel.
type painter struct {
	surface Surface
	overlay Overlay
	queue   *frame.Queue
	backend video.Backend
	pacer   *pacer

	// functions that need to be performed on the render goroutine are queued
	// for serving by the run() loop. serviceRet is used for commands that
	// require a blocking round-trip
	service    chan func()
	serviceRet chan error

	// draw requests are coalesced: a single pending request drains one frame
	// and the pacer re-triggers while a backlog remains
	drawReq chan struct{}

	// closed when the run() loop returns
	done chan struct{}

	// the lifecycle state machine. written on the render goroutine only,
	// except for the transition to stateStarting which happens before the
	// goroutine is launched
	state renderState

	producer Producer

	// destination size in surface coordinates. scaled by the device pixel
	// ratio at draw time
	winWidth  int
	winHeight int

	// a frame has been drawn since the last presentation
	frameReady bool

	// the producer's gate release is deferred until the next presentation
	needsUnlock bool

	// whether the gate is released after presentation rather than after the
	// frame has been copied out of the queue
	syncPresentation bool

	// shader set pending attachment or currently attached
	shaders *video.ShaderSet
}

func newPainter(surface Surface, overlay Overlay, queue *frame.Queue, interval time.Duration) *painter {
	return &painter{
		surface:    surface,
		overlay:    overlay,
		queue:      queue,
		pacer:      newPacer(interval),
		service:    make(chan func(), 1),
		serviceRet: make(chan error, 1),
		drawReq:    make(chan struct{}, 1),
	}
}

// RequestSwap implements the video.SwapRequester interface. Called by the
// backend, on the render goroutine, when a drawn frame is ready to present.
func (p *painter) RequestSwap() {
	p.pacer.start()
}

// post a command for asynchronous servicing by the render goroutine.
func (p *painter) post(f func()) {
	p.service <- f
}

// postBlocking posts a command and waits for the render goroutine to finish
// servicing it.
func (p *painter) postBlocking(f func()) {
	p.service <- func() {
		f()
		p.serviceRet <- nil
	}
	<-p.serviceRet
}

// requestDraw schedules a draw cycle on the render goroutine. requests are
// coalesced so this never blocks, no matter which goroutine calls it.
func (p *painter) requestDraw() {
	select {
	case p.drawReq <- struct{}{}:
	default:
	}
}

// run is the render goroutine. The graphics context is bound to this
// goroutine's OS thread from start() until stop() releases it.
func (p *painter) run() {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(p.done)

	p.start()

	for p.state != stateStopped {
		select {
		case f := <-p.service:
			f()
		case <-p.drawReq:
			p.draw()
		case <-p.pacer.c():
			p.pacer.expired()
			p.swap()
		}
	}
}

func (p *painter) start() {
	if err := p.surface.MakeCurrent(); err != nil {
		logger.Logf(logger.Allow, "display", "start: %v", err)
	}

	// attach any shader set that was requested before the render goroutine
	// existed
	if p.shaders != nil {
		if sb, ok := p.backend.(video.ShaderBackend); ok {
			if err := sb.AttachShaders(p.shaders); err != nil {
				logger.Logf(logger.Allow, "display", "attach shaders: %v", err)
				p.shaders = nil
			}
		}
	}

	p.state = stateActive
}

// draw services one entry of the pending queue, consulting the producer's
// frame-pacing gate.
func (p *painter) draw() {
	if p.state != stateActive {
		return
	}

	if p.queue.Entries() == 0 {
		return
	}

	if p.needsUnlock {
		// the previous frame has not been presented yet. the pacer requeues
		// the draw once the gate has been released
		return
	}

	if p.producer.WaitFrameStart() || p.queue.Entries() > 0 {
		p.queue.Dequeue(p.backend.PostFrame)
		p.forceDraw()
		if p.syncPresentation {
			p.needsUnlock = true
		} else {
			p.producer.SignalFrameEnd()
		}
	} else {
		// gate not ready and nothing queued. release the producer so that it
		// doesn't stall on a dry queue
		p.producer.SignalFrameEnd()
	}
}

// forceDraw performs an immediate draw and present-request cycle,
// unconditionally. used for regular frames and for synthetic redraws that
// must be visible without waiting for new content.
func (p *painter) forceDraw() {
	p.performDraw()
	p.backend.Swap()
}

func (p *painter) performDraw() {
	r := p.surface.DevicePixelRatio()
	p.backend.Resized(int(float32(p.winWidth)*r), int(float32(p.winHeight)*r))
	p.backend.DrawFrame()
	if p.overlay != nil {
		p.overlay.Paint()
	}
	p.frameReady = true
}

// swap is the pacer tick: present the drawn frame, release any deferred gate
// and either drain the backlog or rearm the timer.
func (p *painter) swap() {
	if !p.surface.Valid() {
		// a lost context is not a crash. presentation is skipped until the
		// owning layer stops and recreates the display
		return
	}

	if p.frameReady {
		if err := p.surface.Present(); err != nil {
			logger.Logf(logger.Allow, "display", "present: %v", err)
		}
		if err := p.surface.MakeCurrent(); err != nil {
			logger.Logf(logger.Allow, "display", "present: %v", err)
		}
		p.frameReady = false
		p.pacer.measure()
	}

	if p.needsUnlock {
		p.producer.SignalFrameEnd()
		p.needsUnlock = false
	}

	if p.queue.Entries() > 0 {
		// drain the backlog. queued rather than called directly to avoid
		// re-entrant growth of the draw cycle
		p.requestDraw()
	} else {
		p.pacer.rearm()
	}
}

func (p *painter) pause() {
	if p.state == stateActive {
		p.state = statePaused
	}
}

func (p *painter) unpause() {
	if p.state == statePaused {
		p.state = stateActive
	}
}

// stop flushes the queue, presents a blank frame and releases the graphics
// context from the render goroutine. the run() loop ends once stop has been
// serviced.
func (p *painter) stop() {
	if p.state == stateStopped {
		return
	}
	p.state = stateStopped

	p.queue.DequeueAll(p.backend.PostFrame)
	p.backend.Clear()
	p.frameReady = true
	p.backend.Swap()
	p.swap()
	p.pacer.stop()

	// the producer must never be left waiting on the gate after a stop, even
	// if the surface was lost and the final present skipped
	if p.needsUnlock {
		p.producer.SignalFrameEnd()
		p.needsUnlock = false
	}

	p.surface.ReleaseCurrent()
}

// resize declares the new destination size. while paused a synchronous
// redraw keeps the letterboxing current even though no frames are flowing.
func (p *painter) resize(width int, height int) {
	p.winWidth = width
	p.winHeight = height
	if p.state == statePaused {
		p.forceDraw()
	}
}

// setConfig forwards presentation options to the backend. same synchronous
// redraw rule as resize().
func (p *painter) setConfig(cfg video.Config) {
	p.backend.SetConfig(cfg)
	if p.state == statePaused {
		p.forceDraw()
	}
}

// resizeContext re-derives the logical source resolution from the producer.
func (p *painter) resizeContext() {
	if p.producer == nil {
		return
	}

	w, h := p.producer.Resolution()
	if err := p.queue.SetFrameSize(w, h); err != nil {
		logger.Logf(logger.Allow, "display", "resize context: %v", err)
		return
	}
	p.backend.SetDimensions(w, h)
}

func (p *painter) setShaders(set *video.ShaderSet) {
	sb, ok := p.backend.(video.ShaderBackend)
	if !ok {
		return
	}

	if p.state == stateStopped || p.state == stateStarting {
		p.shaders = set
		return
	}

	if err := sb.AttachShaders(set); err != nil {
		// the previously attached set, if any, remains in place
		logger.Logf(logger.Allow, "display", "attach shaders: %v", err)
		return
	}
	p.shaders = set
}

func (p *painter) clearShaders() {
	sb, ok := p.backend.(video.ShaderBackend)
	if !ok {
		return
	}

	p.shaders = nil
	if p.state != stateStopped && p.state != stateStarting {
		sb.DetachShaders()
	}
}

func (p *painter) glTex() uint32 {
	return p.backend.TextureID()
}
