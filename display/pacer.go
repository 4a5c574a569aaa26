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
	"sync/atomic"
	"time"
)

// DefaultSwapInterval is the default presentation pacing interval,
// approximately 60Hz.
const DefaultSwapInterval = 16 * time.Millisecond

// pacer is the recurring single-shot timer that rate-limits surface
// presentation. Except for the measured frame rate, which can be read from
// any goroutine, the pacer belongs to the render goroutine.
type pacer struct {
	timer    *time.Timer
	interval time.Duration
	active   bool

	// presentation rate measurement. too expensive to do on every present so
	// a simple counter is accumulated over a measurement window
	measureTime time.Time
	measureCt   int
	measured    atomic.Value // float32
}

func newPacer(interval time.Duration) *pacer {
	p := &pacer{
		interval:    interval,
		timer:       time.NewTimer(interval),
		measureTime: time.Now(),
	}

	// the timer is created stopped. it is armed by start()
	if !p.timer.Stop() {
		<-p.timer.C
	}

	p.measured.Store(float32(0.0))

	return p
}

// the channel the render goroutine selects on. expired() must be called when
// the channel fires.
func (p *pacer) c() <-chan time.Time {
	return p.timer.C
}

// start arms the timer if it isn't already running.
func (p *pacer) start() {
	if p.active {
		return
	}
	p.active = true
	p.timer.Reset(p.interval)
}

// expired acknowledges that the single-shot timer has fired.
func (p *pacer) expired() {
	p.active = false
}

// rearm the timer for another interval. called at the end of a tick when
// there is no backlog to drain.
func (p *pacer) rearm() {
	p.active = true
	p.timer.Reset(p.interval)
}

// stop cancels any armed timer.
func (p *pacer) stop() {
	if !p.active {
		return
	}
	p.active = false
	if !p.timer.Stop() {
		select {
		case <-p.timer.C:
		default:
		}
	}
}

// measure records that a frame has been presented.
func (p *pacer) measure() {
	p.measureCt++
	elapsed := time.Since(p.measureTime)
	if elapsed >= time.Second {
		p.measured.Store(float32(float64(p.measureCt) / elapsed.Seconds()))
		p.measureCt = 0
		p.measureTime = time.Now()
	}
}

// fps returns the most recently measured presentation rate. safe to call
// from any goroutine.
func (p *pacer) fps() float32 {
	return p.measured.Load().(float32)
}
