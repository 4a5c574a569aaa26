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

// Package frame implements the hand-off point between the frame producer and
// the render goroutine. Pixel data is copied into a fixed pool of reusable
// buffers, meaning the producer can reuse its own frame memory as soon as
// Enqueue() returns.
//
// The pool and the pending queue share a single critical section. All
// operations are bounded memory copies or index moves. Enqueue() never waits
// on the render goroutine: when the pool is exhausted the oldest undrawn
// frame is dropped in preference to stalling the producer.
package frame
