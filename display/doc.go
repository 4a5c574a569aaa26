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

// Package display ties the frame pipeline together. The Display type is the
// facade through which the owning layer starts and stops drawing, and
// through which the producer posts frames.
//
// Between StartDrawing() and StopDrawing() a dedicated render goroutine,
// locked to an OS thread, owns the graphics context, the backend and the
// presentation pacer. Lifecycle commands from other goroutines are marshaled
// onto the render goroutine through a service channel; some commands are
// fire-and-forget, others are blocking round-trips because they touch
// context state that must not be read mid-mutation.
//
// Presentation is decoupled from drawing. Drawn frames are presented by a
// recurring single-shot timer (the pacer) so that the surface is never
// swapped faster than the pacing interval no matter how fast the producer
// runs.
package display
