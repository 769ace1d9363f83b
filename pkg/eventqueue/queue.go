// Package eventqueue provides the per-task event pipeline that decouples an
// agent executor (producer) from its consumers: a bounded FIFO with tap-based
// fan-out and graceful/immediate close semantics.
package eventqueue

import (
	"context"
	"errors"
	"sync"

	"github.com/arcwire/arcwire/pkg/a2a"
)

// DefaultCapacity is the buffered depth of a queue before enqueue starts
// back-pressuring the producer.
const DefaultCapacity = 1024

var (
	// ErrQueueEmpty is returned by a non-blocking dequeue on an empty queue.
	ErrQueueEmpty = errors.New("event queue is empty")

	// ErrQueueClosed is returned once a queue is closed and fully drained.
	ErrQueueClosed = errors.New("event queue is closed")
)

// Queue is a bounded FIFO of task events. Taps created with Tap receive every
// event enqueued from that moment on; events already dequeued are not
// replayed. A queue delivers events to any single consumer in enqueue order.
type Queue struct {
	mu       sync.Mutex
	events   chan a2a.Event
	children []*Queue
	closed   bool
	done     chan struct{}
}

// New creates a queue with the given capacity; capacity <= 0 selects
// DefaultCapacity.
func New(capacity int) *Queue {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Queue{
		events: make(chan a2a.Event, capacity),
		done:   make(chan struct{}),
	}
}

// Enqueue appends e to the queue and to every tap. It blocks once the buffer
// is full, back-pressuring the producer. Enqueueing into a closed queue is a
// silent no-op: the producer is draining, not failing.
func (q *Queue) Enqueue(ctx context.Context, e a2a.Event) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	children := make([]*Queue, len(q.children))
	copy(children, q.children)
	q.mu.Unlock()

	for _, child := range children {
		if err := child.Enqueue(ctx, e); err != nil {
			return err
		}
	}

	select {
	case q.events <- e:
		return nil
	case <-q.done:
		// Closed while blocked on a full buffer; drop.
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Dequeue returns the next event, blocking until one is available, the queue
// closes and drains (ErrQueueClosed), or ctx expires.
func (q *Queue) Dequeue(ctx context.Context) (a2a.Event, error) {
	// Buffered events win over closure so a graceful close lets consumers
	// drain before they observe ErrQueueClosed.
	select {
	case e := <-q.events:
		return e, nil
	default:
	}

	select {
	case e := <-q.events:
		return e, nil
	case <-q.done:
		select {
		case e := <-q.events:
			return e, nil
		default:
			return nil, ErrQueueClosed
		}
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// TryDequeue is the non-blocking variant: ErrQueueEmpty when nothing is
// buffered, ErrQueueClosed when the queue is closed and drained.
func (q *Queue) TryDequeue() (a2a.Event, error) {
	select {
	case e := <-q.events:
		return e, nil
	default:
	}
	select {
	case <-q.done:
		return nil, ErrQueueClosed
	default:
		return nil, ErrQueueEmpty
	}
}

// Tap creates a child queue that observes every event enqueued into q from
// now on. Tapping a closed queue yields an already-closed (empty) child.
func (q *Queue) Tap() *Queue {
	child := New(cap(q.events))
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		child.closeLocked(false)
		return child
	}
	q.children = append(q.children, child)
	return child
}

// Close marks the queue closed. With immediate set, buffered events are
// discarded; otherwise consumers may drain what is already enqueued. Closure
// propagates to every tap and is idempotent.
func (q *Queue) Close(immediate bool) {
	q.mu.Lock()
	if q.closed {
		children := append([]*Queue(nil), q.children...)
		q.mu.Unlock()
		if immediate {
			q.discard()
			for _, child := range children {
				child.Close(true)
			}
		}
		return
	}
	q.closed = true
	children := append([]*Queue(nil), q.children...)
	close(q.done)
	q.mu.Unlock()

	if immediate {
		q.discard()
	}
	for _, child := range children {
		child.Close(immediate)
	}
}

// Closed reports whether Close has been called.
func (q *Queue) Closed() bool {
	select {
	case <-q.done:
		return true
	default:
		return false
	}
}

func (q *Queue) closeLocked(immediate bool) {
	q.closed = true
	close(q.done)
	if immediate {
		q.discard()
	}
}

func (q *Queue) discard() {
	for {
		select {
		case <-q.events:
		default:
			return
		}
	}
}
