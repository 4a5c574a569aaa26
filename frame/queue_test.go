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

package frame_test

import (
	"testing"
	"time"

	"github.com/jetsetilly/framepipe/frame"
	"github.com/jetsetilly/framepipe/test"
)

// fill returns a frame of the given size with every byte set to v. the value
// acts as a frame identity in the tests below.
func fill(w int, h int, v byte) []byte {
	p := make([]byte, w*h*frame.BytesPerPixel)
	for i := range p {
		p[i] = v
	}
	return p
}

// conservation checks the pool invariant: every buffer is in the free list or
// the pending queue. buffers are only ever lent out inside Dequeue() so at
// any observation point the two collections account for the whole pool.
func conservation(t *testing.T, q *frame.Queue, tags ...any) {
	t.Helper()
	test.ExpectEquality(t, q.Free()+q.Pending(), q.PoolSize(), tags...)
}

func TestNewQueue(t *testing.T) {
	_, err := frame.NewQueue(0, 10, 10)
	test.ExpectFailure(t, err)

	_, err = frame.NewQueue(2, 0, 10)
	test.ExpectFailure(t, err)

	q, err := frame.NewQueue(2, 10, 10)
	test.DemandSuccess(t, err)
	test.ExpectEquality(t, q.PoolSize(), 2)
	test.ExpectEquality(t, q.Free(), 2)
	test.ExpectEquality(t, q.Pending(), 0)
}

func TestEnqueueDequeue(t *testing.T) {
	q, err := frame.NewQueue(2, 4, 4)
	test.DemandSuccess(t, err)

	q.Enqueue(fill(4, 4, 1))
	conservation(t, q)
	test.ExpectEquality(t, q.Pending(), 1)
	test.ExpectEquality(t, q.Free(), 1)

	var posted []byte
	ok := q.Dequeue(func(p []byte) {
		posted = append([]byte(nil), p...)
	})
	test.ExpectSuccess(t, ok)
	test.ExpectEquality(t, posted[0], byte(1))
	test.ExpectEquality(t, len(posted), 4*4*frame.BytesPerPixel)
	conservation(t, q)
	test.ExpectEquality(t, q.Free(), 2)

	// empty queue is a no-op
	ok = q.Dequeue(nil)
	test.ExpectFailure(t, ok)
}

func TestSkipEntries(t *testing.T) {
	q, err := frame.NewQueue(2, 4, 4)
	test.DemandSuccess(t, err)

	q.Enqueue(nil)
	test.ExpectEquality(t, q.Pending(), 0)
	test.ExpectEquality(t, q.Entries(), 1)
	test.ExpectEquality(t, q.Free(), 2)

	// a skip entry advances the queue but posts nothing
	ok := q.Dequeue(func(_ []byte) {
		t.Errorf("nothing should be posted for a skip entry")
	})
	test.ExpectFailure(t, ok)
	test.ExpectEquality(t, q.Entries(), 0)
	conservation(t, q)
}

func TestDropOldest(t *testing.T) {
	q, err := frame.NewQueue(2, 4, 4)
	test.DemandSuccess(t, err)

	// five frames into a pool of two. the oldest undrawn frames are lost
	for i := byte(1); i <= 5; i++ {
		q.Enqueue(fill(4, 4, i))
		conservation(t, q, i)
	}

	test.ExpectEquality(t, q.Pending(), 2)
	test.ExpectEquality(t, q.Free(), 0)
	test.ExpectEquality(t, q.Dropped(), 3)

	// the two surviving frames are the most recent, in order
	var posted []byte
	q.Dequeue(func(p []byte) { posted = append([]byte(nil), p...) })
	test.ExpectEquality(t, posted[0], byte(4))
	q.Dequeue(func(p []byte) { posted = append([]byte(nil), p...) })
	test.ExpectEquality(t, posted[0], byte(5))
	conservation(t, q)
}

func TestOrdering(t *testing.T) {
	q, err := frame.NewQueue(3, 4, 4)
	test.DemandSuccess(t, err)

	q.Enqueue(fill(4, 4, 10))
	q.Enqueue(fill(4, 4, 20))
	q.Enqueue(fill(4, 4, 30))

	var order []byte
	for q.Dequeue(func(p []byte) { order = append(order, p[0]) }) {
	}

	test.DemandEquality(t, len(order), 3)
	test.ExpectEquality(t, order[0], byte(10))
	test.ExpectEquality(t, order[1], byte(20))
	test.ExpectEquality(t, order[2], byte(30))
}

func TestDequeueAll(t *testing.T) {
	q, err := frame.NewQueue(3, 4, 4)
	test.DemandSuccess(t, err)

	q.Enqueue(fill(4, 4, 1))
	q.Enqueue(nil)
	q.Enqueue(fill(4, 4, 2))

	// only the most recent real frame is posted
	var posted []byte
	ct := 0
	ok := q.DequeueAll(func(p []byte) {
		posted = append([]byte(nil), p...)
		ct++
	})
	test.ExpectSuccess(t, ok)
	test.ExpectEquality(t, ct, 1)
	test.ExpectEquality(t, posted[0], byte(2))

	// flush returns every buffer to the free list
	test.ExpectEquality(t, q.Free(), 3)
	test.ExpectEquality(t, q.Entries(), 0)

	// draining an empty queue posts nothing
	ok = q.DequeueAll(nil)
	test.ExpectFailure(t, ok)
}

func TestFrameSize(t *testing.T) {
	q, err := frame.NewQueue(2, 8, 8)
	test.DemandSuccess(t, err)

	// frames smaller than the buffer capacity are fine
	test.ExpectSuccess(t, q.SetFrameSize(4, 2))
	w, h := q.FrameSize()
	test.ExpectEquality(t, w, 4)
	test.ExpectEquality(t, h, 2)

	q.Enqueue(fill(4, 2, 9))
	var posted int
	q.Dequeue(func(p []byte) { posted = len(p) })
	test.ExpectEquality(t, posted, 4*2*frame.BytesPerPixel)

	// frames larger than the buffer capacity are not
	test.ExpectFailure(t, q.SetFrameSize(9, 8))
}

// Enqueue must complete in bounded time regardless of what the consumer is
// doing. the only lock it takes is the queue mutex.
func TestEnqueueNeverBlocks(t *testing.T) {
	q, err := frame.NewQueue(2, 4, 4)
	test.DemandSuccess(t, err)

	done := make(chan bool)
	go func() {
		// far more frames than the pool can hold and no consumer at all
		for i := 0; i < 1000; i++ {
			q.Enqueue(fill(4, 4, byte(i)))
		}
		done <- true
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("Enqueue() blocked with no consumer running")
	}

	conservation(t, q)
	test.ExpectEquality(t, q.Dropped(), 998)
}
