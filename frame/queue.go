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

package frame

import (
	"fmt"
	"sync"
)

// BytesPerPixel is the size of a single packed pixel. All pixel data passing
// through the queue is RGBA.
const BytesPerPixel = 4

// DefaultPoolSize is enough for one frame in flight to the backend and one
// frame being filled by the producer.
const DefaultPoolSize = 2

// a skip entry in the pending queue indicates that the producer had no new
// content but that the consumer should advance as though it had
const skip = -1

// Queue is a bounded FIFO of pending frames backed by a fixed pool of
// reusable pixel buffers. It is safe for concurrent use by one producer and
// one consumer.
type Queue struct {
	crit queueCrit

	// capacity of every slot in the arena. fixed at creation
	maxBytes int
}

// for clarity, variables accessed in the critical section are encapsulated in
// their own subtype.
type queueCrit struct {
	// critical sectioning. covers both the free list and the pending queue
	section sync.Mutex

	// arena of pixel buffers. slots are never resized or freed individually.
	// a slot is referenced by exactly one of the free list, the pending
	// queue, or (briefly, inside Dequeue) the post function
	slots [][]byte

	// free and pending are collections of indexes into the slots arena
	free    []int
	pending []int

	// current logical frame size. the number of bytes copied on Enqueue()
	width  int
	height int

	// number of frames lost to the drop-oldest policy
	dropped int
}

// NewQueue is the preferred method of initialisation for the Queue type. The
// pool is sized once: poolSize buffers each large enough for a frame of
// maxWidth by maxHeight pixels.
func NewQueue(poolSize int, maxWidth int, maxHeight int) (*Queue, error) {
	if poolSize < 1 {
		return nil, fmt.Errorf("frame: pool size must be at least one (%d)", poolSize)
	}
	if maxWidth < 1 || maxHeight < 1 {
		return nil, fmt.Errorf("frame: invalid maximum frame size (%dx%d)", maxWidth, maxHeight)
	}

	q := &Queue{
		maxBytes: maxWidth * maxHeight * BytesPerPixel,
	}

	q.crit.slots = make([][]byte, poolSize)
	q.crit.free = make([]int, 0, poolSize)
	q.crit.pending = make([]int, 0, poolSize+1)
	for i := range q.crit.slots {
		q.crit.slots[i] = make([]byte, q.maxBytes)
		q.crit.free = append(q.crit.free, i)
	}

	q.crit.width = maxWidth
	q.crit.height = maxHeight

	return q, nil
}

// SetFrameSize declares the logical size of frames passed to Enqueue(). The
// size must fit inside the buffer capacity fixed at creation.
func (q *Queue) SetFrameSize(width int, height int) error {
	if width < 1 || height < 1 || width*height*BytesPerPixel > q.maxBytes {
		return fmt.Errorf("frame: frame size does not fit pool buffers (%dx%d)", width, height)
	}

	q.crit.section.Lock()
	defer q.crit.section.Unlock()

	q.crit.width = width
	q.crit.height = height

	return nil
}

// FrameSize returns the current logical frame size.
func (q *Queue) FrameSize() (int, int) {
	q.crit.section.Lock()
	defer q.crit.section.Unlock()
	return q.crit.width, q.crit.height
}

// Enqueue copies pixels into a pooled buffer and appends it to the pending
// queue. The pixels slice can be reused by the caller as soon as Enqueue()
// returns.
//
// A nil pixels slice enqueues a skip entry, signalling that there is no new
// content but that the consumer should still advance.
//
// Enqueue never blocks on the consumer. If no buffer is free the oldest
// pending frame is reclaimed and its content lost.
func (q *Queue) Enqueue(pixels []byte) {
	q.crit.section.Lock()
	defer q.crit.section.Unlock()

	entry := skip

	if pixels != nil {
		if len(q.crit.free) == 0 {
			entry = q.dropOldest()
		} else {
			entry = q.crit.free[len(q.crit.free)-1]
			q.crit.free = q.crit.free[:len(q.crit.free)-1]
		}

		n := q.crit.width * q.crit.height * BytesPerPixel
		if n > len(pixels) {
			n = len(pixels)
		}
		copy(q.crit.slots[entry][:n], pixels)
	}

	q.crit.pending = append(q.crit.pending, entry)
}

// dropOldest reclaims the buffer of the oldest pending frame. skip entries
// encountered on the way are discarded. must be called from inside the
// critical section and only when the free list is empty, which guarantees at
// least one real frame is pending.
func (q *Queue) dropOldest() int {
	for {
		entry := q.crit.pending[0]
		q.crit.pending = q.crit.pending[1:]
		if entry != skip {
			q.crit.dropped++
			return entry
		}
	}
}

// Dequeue pops the front of the pending queue. If the entry is a real frame
// the post function is called with the buffer contents before the buffer is
// returned to the free list; the buffer must not be retained after post
// returns. Returns true if a frame was posted.
//
// The post function runs inside the critical section. It must be a bounded
// memory copy and must not call back into the queue or perform graphics
// context operations.
func (q *Queue) Dequeue(post func([]byte)) bool {
	q.crit.section.Lock()
	defer q.crit.section.Unlock()

	if len(q.crit.pending) == 0 {
		return false
	}

	entry := q.crit.pending[0]
	q.crit.pending = q.crit.pending[1:]

	if entry == skip {
		return false
	}

	if post != nil {
		post(q.crit.slots[entry][:q.crit.width*q.crit.height*BytesPerPixel])
	}
	q.crit.free = append(q.crit.free, entry)

	return true
}

// DequeueAll drains the pending queue, posting only the most recent real
// frame. Used on stop to flush any visible state before teardown. Returns
// true if a frame was posted.
func (q *Queue) DequeueAll(post func([]byte)) bool {
	q.crit.section.Lock()
	defer q.crit.section.Unlock()

	last := skip
	for len(q.crit.pending) > 0 {
		entry := q.crit.pending[0]
		q.crit.pending = q.crit.pending[1:]
		if entry != skip {
			if last != skip {
				q.crit.free = append(q.crit.free, last)
			}
			last = entry
		}
	}

	if last == skip {
		return false
	}

	if post != nil {
		post(q.crit.slots[last][:q.crit.width*q.crit.height*BytesPerPixel])
	}
	q.crit.free = append(q.crit.free, last)

	return true
}

// Pending returns the number of real frames waiting in the queue. skip
// entries are not counted.
func (q *Queue) Pending() int {
	q.crit.section.Lock()
	defer q.crit.section.Unlock()

	ct := 0
	for _, e := range q.crit.pending {
		if e != skip {
			ct++
		}
	}
	return ct
}

// Entries returns the length of the pending queue, including skip entries.
func (q *Queue) Entries() int {
	q.crit.section.Lock()
	defer q.crit.section.Unlock()
	return len(q.crit.pending)
}

// Free returns the number of buffers in the free list.
func (q *Queue) Free() int {
	q.crit.section.Lock()
	defer q.crit.section.Unlock()
	return len(q.crit.free)
}

// PoolSize returns the fixed number of buffers in the pool.
func (q *Queue) PoolSize() int {
	return len(q.crit.slots)
}

// Dropped returns the number of frames lost to the drop-oldest policy.
func (q *Queue) Dropped() int {
	q.crit.section.Lock()
	defer q.crit.section.Unlock()
	return q.crit.dropped
}
