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

package main

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/jetsetilly/framepipe/display"
	"github.com/jetsetilly/framepipe/frame"
)

// the test patterns cycled through by the pattern producer
const (
	patternCheckerboard = iota
	patternGradient
	patternStripes
	patternCount
)

const checkerboardTileSize = 16

// pattern is a synthetic frame producer implementing the display.Producer
// interface. It generates animated test patterns at a fixed rate, standing in
// for whatever real frame source the pipeline is eventually attached to.
type pattern struct {
	width  int
	height int
	rate   time.Duration

	pixels  []byte
	count   int
	variant int

	// true while a posted frame is waiting for its gate release
	inFrame atomic.Bool

	// release of the frame gate. capacity one so that a release arriving
	// before the producer starts waiting is not lost
	gate chan struct{}

	// held by the producer for the duration of one generate/post/wait cycle.
	// Interrupt() acquires it to suspend the producer
	crit sync.Mutex

	quit chan struct{}
	done chan struct{}
}

func newPattern(width int, height int, fps float64) *pattern {
	return &pattern{
		width:  width,
		height: height,
		rate:   time.Duration(float64(time.Second) / fps),
		pixels: make([]byte, width*height*frame.BytesPerPixel),
		gate:   make(chan struct{}, 1),
		quit:   make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// run generates frames until stop() is called, posting each one to the
// display. run blocks and is expected to be launched in its own goroutine.
func (p *pattern) run(d *display.Display) {
	defer close(p.done)

	tick := time.NewTicker(p.rate)
	defer tick.Stop()

	for {
		select {
		case <-p.quit:
			return
		case <-tick.C:
		}

		p.crit.Lock()
		p.generate()
		p.inFrame.Store(true)
		d.FramePosted(p.pixels)

		// wait for the display to release the gate before generating the
		// next frame
		select {
		case <-p.gate:
		case <-p.quit:
			p.crit.Unlock()
			return
		}
		p.crit.Unlock()
	}
}

func (p *pattern) stop() {
	close(p.quit)
	<-p.done
}

// CyclePattern moves to the next test pattern.
func (p *pattern) CyclePattern() {
	p.variant = (p.variant + 1) % patternCount
}

// WaitFrameStart implements the display.Producer interface.
func (p *pattern) WaitFrameStart() bool {
	return p.inFrame.Load()
}

// SignalFrameEnd implements the display.Producer interface.
func (p *pattern) SignalFrameEnd() {
	p.inFrame.Store(false)
	select {
	case p.gate <- struct{}{}:
	default:
	}
}

// Interrupt implements the display.Producer interface.
func (p *pattern) Interrupt() func() {
	// release any gate wait before acquiring the critical section, otherwise
	// the producer could be parked on the gate and never release the lock
	p.SignalFrameEnd()
	p.crit.Lock()
	return p.crit.Unlock
}

// Resolution implements the display.Producer interface.
func (p *pattern) Resolution() (int, int) {
	return p.width, p.height
}

func (p *pattern) generate() {
	p.count++

	switch p.variant {
	case patternCheckerboard:
		for y := 0; y < p.height; y++ {
			for x := 0; x < p.width; x++ {
				var v byte
				if ((x/checkerboardTileSize)+(y/checkerboardTileSize))%2 == 0 {
					v = 0xff
				}
				p.set(x, y, v, v, v)
			}
		}
	case patternGradient:
		for y := 0; y < p.height; y++ {
			for x := 0; x < p.width; x++ {
				p.set(x, y,
					byte(255*x/p.width),
					byte(255*y/p.height),
					byte(p.count))
			}
		}
	case patternStripes:
		for y := 0; y < p.height; y++ {
			for x := 0; x < p.width; x++ {
				var v byte
				if ((x+p.count)/checkerboardTileSize)%2 == 0 {
					v = 0xff
				}
				p.set(x, y, v, 0x40, 0xff-v)
			}
		}
	}
}

func (p *pattern) set(x int, y int, r byte, g byte, b byte) {
	o := (y*p.width + x) * frame.BytesPerPixel
	p.pixels[o] = r
	p.pixels[o+1] = g
	p.pixels[o+2] = b
	p.pixels[o+3] = 0xff
}
