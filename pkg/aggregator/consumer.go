package aggregator

import (
	"context"
	"errors"

	"github.com/arcwire/arcwire/pkg/a2a"
	"github.com/arcwire/arcwire/pkg/eventqueue"
)

// Result is the terminal outcome of a consumed stream: a task snapshot, or a
// direct-reply message in lieu of one.
type Result struct {
	Task    *a2a.Task
	Message *a2a.Message
}

// Consumer couples a queue to a fold: every dequeued event is folded before
// it is handed back, so the caller always observes a snapshot consistent with
// the events it has forwarded.
type Consumer struct {
	queue *eventqueue.Queue
	fold  *Fold
}

// NewConsumer creates a consumer over q with a fresh fold.
func NewConsumer(q *eventqueue.Queue) *Consumer {
	return &Consumer{queue: q, fold: New()}
}

// Fold exposes the consumer's fold for snapshot inspection.
func (c *Consumer) Fold() *Fold { return c.fold }

// Next dequeues and folds the next event. It returns eventqueue.ErrQueueClosed
// once the stream is exhausted. Fold errors are returned alongside a nil
// event; the queue is left usable.
func (c *Consumer) Next(ctx context.Context) (a2a.Event, error) {
	ev, err := c.queue.Dequeue(ctx)
	if err != nil {
		return nil, err
	}
	if err := c.fold.Apply(ev); err != nil {
		return nil, err
	}
	return ev, nil
}

// ConsumeAll drains the queue until the fold reports finality or the queue
// closes, and returns the aggregated result. An empty stream yields an empty
// Result, not an error.
func (c *Consumer) ConsumeAll(ctx context.Context) (*Result, error) {
	for {
		_, err := c.Next(ctx)
		if errors.Is(err, eventqueue.ErrQueueClosed) {
			break
		}
		if err != nil {
			return nil, err
		}
		if c.fold.Final() {
			break
		}
	}
	task, msg := c.fold.Result()
	return &Result{Task: task, Message: msg}, nil
}
