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
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jetsetilly/framepipe/frame"
	"github.com/jetsetilly/framepipe/test"
	"github.com/jetsetilly/framepipe/video"
)

type stubSurface struct {
	valid    bool
	ratio    float32
	presents atomic.Int32
}

func (s *stubSurface) MakeCurrent() error { return nil }
func (s *stubSurface) ReleaseCurrent()    {}
func (s *stubSurface) Present() error     { s.presents.Add(1); return nil }
func (s *stubSurface) Valid() bool        { return s.valid }
func (s *stubSurface) DevicePixelRatio() float32 {
	return s.ratio
}
func (s *stubSurface) Capabilities() video.Capabilities {
	return video.Capabilities{Major: 3, Minor: 2}
}

type stubProducer struct {
	gate      bool
	width     int
	height    int
	frameEnds atomic.Int32
}

func (p *stubProducer) WaitFrameStart() bool { return p.gate }
func (p *stubProducer) SignalFrameEnd()      { p.frameEnds.Add(1) }
func (p *stubProducer) Interrupt() func()    { return func() {} }
func (p *stubProducer) Resolution() (int, int) {
	return p.width, p.height
}

type stubBackend struct {
	swap video.SwapRequester

	posts  atomic.Int32
	draws  atomic.Int32
	clears atomic.Int32

	crit struct {
		section   sync.Mutex
		lastFrame []byte
	}
}

func (b *stubBackend) Init() error              { return nil }
func (b *stubBackend) Deinit()                  {}
func (b *stubBackend) SetDimensions(_, _ int)   {}
func (b *stubBackend) Resized(_, _ int)         {}
func (b *stubBackend) DrawFrame()               { b.draws.Add(1) }
func (b *stubBackend) Clear()                   { b.clears.Add(1) }
func (b *stubBackend) Swap()                    { b.swap.RequestSwap() }
func (b *stubBackend) SetConfig(_ video.Config) {}
func (b *stubBackend) TextureID() uint32        { return 1 }
func (b *stubBackend) SupportsShaders() bool    { return false }

func (b *stubBackend) PostFrame(pixels []byte) {
	b.crit.section.Lock()
	defer b.crit.section.Unlock()
	b.crit.lastFrame = append(b.crit.lastFrame[:0], pixels...)
	b.posts.Add(1)
}

func (b *stubBackend) lastPixel() byte {
	b.crit.section.Lock()
	defer b.crit.section.Unlock()
	if len(b.crit.lastFrame) == 0 {
		return 0
	}
	return b.crit.lastFrame[0]
}

// newTestPainter assembles a painter that can be driven synchronously from
// the test goroutine. the pacing interval is far enough away that the timer
// never fires on its own.
func newTestPainter(t *testing.T, prod *stubProducer) (*painter, *stubBackend, *stubSurface) {
	t.Helper()

	q, err := frame.NewQueue(frame.DefaultPoolSize, 64, 64)
	test.DemandSuccess(t, err)
	test.DemandSuccess(t, q.SetFrameSize(4, 4))

	surf := &stubSurface{valid: true, ratio: 1.0}
	b := &stubBackend{}
	p := newPainter(surf, nil, q, time.Hour)
	b.swap = p
	p.backend = b
	p.producer = prod
	p.winWidth = 640
	p.winHeight = 480
	p.state = stateActive

	return p, b, surf
}

func testFrame(v byte) []byte {
	pixels := make([]byte, 4*4*frame.BytesPerPixel)
	pixels[0] = v
	return pixels
}

func TestDrawCycle(t *testing.T) {
	prod := &stubProducer{gate: true, width: 4, height: 4}
	p, b, surf := newTestPainter(t, prod)

	p.queue.Enqueue(testFrame(1))
	p.draw()

	test.ExpectEquality(t, b.posts.Load(), int32(1))
	test.ExpectEquality(t, b.draws.Load(), int32(1))
	test.ExpectEquality(t, b.lastPixel(), byte(1))

	// the gate is released as soon as the frame has been copied out
	test.ExpectEquality(t, prod.frameEnds.Load(), int32(1))

	// a drawn frame is waiting for the pacer
	test.ExpectEquality(t, p.frameReady, true)
	test.ExpectEquality(t, p.pacer.active, true)

	// pacer tick presents the frame
	p.pacer.expired()
	p.swap()
	test.ExpectEquality(t, surf.presents.Load(), int32(1))
	test.ExpectEquality(t, p.frameReady, false)
}

func TestDrawEmptyQueue(t *testing.T) {
	prod := &stubProducer{gate: true, width: 4, height: 4}
	p, b, _ := newTestPainter(t, prod)

	p.draw()
	test.ExpectEquality(t, b.draws.Load(), int32(0))
	test.ExpectEquality(t, prod.frameEnds.Load(), int32(0))
}

func TestSkippedFrame(t *testing.T) {
	prod := &stubProducer{gate: true, width: 4, height: 4}
	p, b, _ := newTestPainter(t, prod)

	// a nil frame keeps the gate cadence without drawing
	p.queue.Enqueue(nil)
	p.draw()

	test.ExpectEquality(t, b.posts.Load(), int32(0))
	test.ExpectEquality(t, b.draws.Load(), int32(1))
	test.ExpectEquality(t, prod.frameEnds.Load(), int32(1))
}

func TestSyncPresentation(t *testing.T) {
	prod := &stubProducer{gate: true, width: 4, height: 4}
	p, b, surf := newTestPainter(t, prod)
	p.syncPresentation = true

	p.queue.Enqueue(testFrame(1))
	p.draw()

	// gate release is deferred until presentation
	test.ExpectEquality(t, b.posts.Load(), int32(1))
	test.ExpectEquality(t, prod.frameEnds.Load(), int32(0))
	test.ExpectEquality(t, p.needsUnlock, true)

	// a second frame is not serviced while the first is unpresented
	p.queue.Enqueue(testFrame(2))
	p.draw()
	test.ExpectEquality(t, b.posts.Load(), int32(1))

	// the pacer tick presents, releases the gate and requeues the draw for
	// the backlogged frame
	p.pacer.expired()
	p.swap()
	test.ExpectEquality(t, surf.presents.Load(), int32(1))
	test.ExpectEquality(t, prod.frameEnds.Load(), int32(1))
	test.ExpectEquality(t, p.needsUnlock, false)

	select {
	case <-p.drawReq:
	default:
		t.Fatal("backlogged frame did not requeue a draw")
	}

	p.draw()
	test.ExpectEquality(t, b.posts.Load(), int32(2))
	test.ExpectEquality(t, b.lastPixel(), byte(2))
}

func TestPausedBacklog(t *testing.T) {
	prod := &stubProducer{gate: true, width: 4, height: 4}
	p, b, _ := newTestPainter(t, prod)

	p.pause()
	test.ExpectEquality(t, p.state, statePaused)

	// frames posted while paused accumulate, dropping the oldest once the
	// pool is exhausted
	for i := 1; i <= 5; i++ {
		p.queue.Enqueue(testFrame(byte(i)))
	}
	test.ExpectEquality(t, p.queue.Dropped(), 3)
	test.ExpectEquality(t, p.queue.Pending(), 2)

	p.unpause()
	test.ExpectEquality(t, p.state, stateActive)

	p.draw()
	test.ExpectEquality(t, b.lastPixel(), byte(4))
	p.draw()
	test.ExpectEquality(t, b.lastPixel(), byte(5))
	test.ExpectEquality(t, prod.frameEnds.Load(), int32(2))
}

func TestResizeWhilePaused(t *testing.T) {
	prod := &stubProducer{gate: true, width: 4, height: 4}
	p, b, _ := newTestPainter(t, prod)

	// while active a resize does not redraw on its own
	p.resize(800, 600)
	test.ExpectEquality(t, b.draws.Load(), int32(0))

	// while paused the redraw is forced so letterboxing stays current
	p.pause()
	p.resize(1024, 768)
	test.ExpectEquality(t, b.draws.Load(), int32(1))

	p.setConfig(video.Config{LockAspectRatio: true})
	test.ExpectEquality(t, b.draws.Load(), int32(2))
}

func TestStopFlushesQueue(t *testing.T) {
	prod := &stubProducer{gate: true, width: 4, height: 4}
	p, b, surf := newTestPainter(t, prod)
	p.syncPresentation = true

	p.queue.Enqueue(testFrame(1))
	p.draw()
	test.ExpectEquality(t, p.needsUnlock, true)

	p.queue.Enqueue(testFrame(2))
	p.queue.Enqueue(testFrame(3))

	p.stop()
	test.ExpectEquality(t, p.state, stateStopped)

	// the most recent pending frame was taken before the blank was drawn
	test.ExpectEquality(t, b.lastPixel(), byte(3))
	test.ExpectEquality(t, p.queue.Entries(), 0)
	test.ExpectEquality(t, b.clears.Load(), int32(1))
	test.ExpectSuccess(t, surf.presents.Load() >= 1)

	// the gate is never left held after a stop
	test.ExpectEquality(t, prod.frameEnds.Load(), int32(1))
	test.ExpectEquality(t, p.needsUnlock, false)

	// draw after stop is a no-op
	p.draw()
	test.ExpectEquality(t, b.posts.Load(), int32(2))
}

func TestStopWithInvalidSurface(t *testing.T) {
	prod := &stubProducer{gate: true, width: 4, height: 4}
	p, _, surf := newTestPainter(t, prod)
	p.syncPresentation = true
	surf.valid = false

	p.queue.Enqueue(testFrame(1))
	p.draw()
	test.ExpectEquality(t, p.needsUnlock, true)

	// presentation is skipped on a lost surface but the gate is still
	// released
	p.stop()
	test.ExpectEquality(t, surf.presents.Load(), int32(0))
	test.ExpectEquality(t, prod.frameEnds.Load(), int32(1))
	test.ExpectEquality(t, p.needsUnlock, false)
}

func TestSinglePresentPerTick(t *testing.T) {
	prod := &stubProducer{gate: true, width: 4, height: 4}
	p, b, surf := newTestPainter(t, prod)

	// any number of draws between ticks results in a single present
	p.queue.Enqueue(testFrame(1))
	p.draw()
	p.forceDraw()
	p.forceDraw()
	test.ExpectEquality(t, b.draws.Load(), int32(3))

	p.pacer.expired()
	p.swap()
	test.ExpectEquality(t, surf.presents.Load(), int32(1))

	// nothing new drawn, the next tick presents nothing
	p.pacer.expired()
	p.swap()
	test.ExpectEquality(t, surf.presents.Load(), int32(1))
}

func TestDisplayRestart(t *testing.T) {
	d, b, _ := newTestDisplay(t)
	prod := &stubProducer{gate: true, width: 4, height: 4}

	test.ExpectSuccess(t, d.StartDrawing(prod))
	d.FramePosted(testFrame(1))
	d.FramePosted(testFrame(2))
	d.StopDrawing()

	// the stopped pipeline is empty with the pool fully free
	test.ExpectEquality(t, d.queue.Entries(), 0)
	test.ExpectEquality(t, d.queue.Free(), d.queue.PoolSize())

	// and can be started again
	test.ExpectSuccess(t, d.StartDrawing(prod))
	d.FramePosted(testFrame(3))
	waitFor(t, func() bool { return b.lastPixel() == 3 }, "frame after restart")
	d.StopDrawing()
}

func TestPacer(t *testing.T) {
	p := newPacer(time.Hour)

	test.ExpectEquality(t, p.active, false)
	test.ExpectEquality(t, p.fps(), float32(0.0))

	p.start()
	test.ExpectEquality(t, p.active, true)

	// starting an armed pacer is a no-op
	p.start()
	test.ExpectEquality(t, p.active, true)

	p.expired()
	test.ExpectEquality(t, p.active, false)

	p.rearm()
	test.ExpectEquality(t, p.active, true)

	p.stop()
	test.ExpectEquality(t, p.active, false)
}

// newTestDisplay assembles a Display around stub components, bypassing the
// real backend selection which requires a live graphics context.
func newTestDisplay(t *testing.T) (*Display, *stubBackend, *stubSurface) {
	t.Helper()

	q, err := frame.NewQueue(frame.DefaultPoolSize, 64, 64)
	test.DemandSuccess(t, err)

	surf := &stubSurface{valid: true, ratio: 1.0}
	b := &stubBackend{}
	p := newPainter(surf, nil, q, 2*time.Millisecond)
	b.swap = p
	p.backend = b

	d := &Display{
		surface: surf,
		queue:   q,
		backend: b,
		p:       p,
	}

	return d, b, surf
}

func waitFor(t *testing.T, cond func() bool, tags ...any) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("timed out waiting for condition", tags)
}

func TestDisplayLifecycle(t *testing.T) {
	d, b, surf := newTestDisplay(t)
	prod := &stubProducer{gate: true, width: 4, height: 4}

	test.ExpectSuccess(t, d.StartDrawing(prod))
	test.ExpectFailure(t, d.StartDrawing(prod))

	d.FramePosted(testFrame(1))
	waitFor(t, func() bool { return prod.frameEnds.Load() >= 1 }, "first frame")
	waitFor(t, func() bool { return surf.presents.Load() >= 1 }, "first present")

	d.Resized(320, 240)
	d.ForceDraw()

	d.PauseDrawing()
	for i := 2; i <= 6; i++ {
		d.FramePosted(testFrame(byte(i)))
	}
	_, pending := d.QueueStats()
	test.ExpectEquality(t, pending, 2)

	d.UnpauseDrawing()
	waitFor(t, func() bool { return d.queue.Entries() == 0 }, "backlog drained")
	waitFor(t, func() bool { return b.lastPixel() == 6 }, "last survivor drawn")

	d.StopDrawing()
	test.ExpectEquality(t, d.drawing.Load(), false)
	test.ExpectSuccess(t, b.clears.Load() >= 1)

	// a stopped display refuses frames
	d.FramePosted(testFrame(7))
	test.ExpectEquality(t, d.queue.Entries(), 0)

	// stopping twice is a no-op
	d.StopDrawing()
}

func TestDisplayStopUnblocksGate(t *testing.T) {
	d, _, _ := newTestDisplay(t)
	d.SetSyncPresentation(true)

	prod := &stubProducer{gate: true, width: 4, height: 4}
	test.ExpectSuccess(t, d.StartDrawing(prod))

	d.FramePosted(testFrame(1))
	waitFor(t, func() bool { return prod.frameEnds.Load() >= 1 }, "gate released")

	d.StopDrawing()
	test.ExpectEquality(t, d.drawing.Load(), false)
}

func TestDisplayConfigBeforeStart(t *testing.T) {
	d, _, _ := newTestDisplay(t)

	// config changes on a stopped display go straight to the backend
	d.SetFilter(true)
	d.SetAspectRatioLock(true)
	d.SetIntegerScalingLock(true)
	test.ExpectEquality(t, d.cfg.Filter, true)
	test.ExpectEquality(t, d.cfg.LockAspectRatio, true)
	test.ExpectEquality(t, d.cfg.LockIntegerScaling, true)

	test.ExpectEquality(t, d.SupportsShaderPipeline(), false)
	test.ExpectEquality(t, d.CurrentTextureHandle(), uint32(1))
}
