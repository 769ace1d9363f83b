package eventqueue

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arcwire/arcwire/pkg/a2a"
)

func statusEvent(taskID string, state a2a.TaskState) *a2a.TaskStatusUpdateEvent {
	return &a2a.TaskStatusUpdateEvent{
		TaskID: taskID,
		Status: a2a.TaskStatus{State: state},
	}
}

func TestQueueFIFO(t *testing.T) {
	q := New(8)
	ctx := context.Background()

	events := []a2a.Event{
		statusEvent("t1", a2a.TaskStateSubmitted),
		statusEvent("t1", a2a.TaskStateWorking),
		statusEvent("t1", a2a.TaskStateCompleted),
	}
	for _, ev := range events {
		require.NoError(t, q.Enqueue(ctx, ev))
	}

	for _, want := range events {
		got, err := q.Dequeue(ctx)
		require.NoError(t, err)
		assert.Same(t, want, got)
	}
}

func TestQueueDequeueBlocksUntilEnqueue(t *testing.T) {
	q := New(1)
	ctx := context.Background()

	go func() {
		time.Sleep(20 * time.Millisecond)
		_ = q.Enqueue(ctx, statusEvent("t1", a2a.TaskStateWorking))
	}()

	ev, err := q.Dequeue(ctx)
	require.NoError(t, err)
	assert.Equal(t, "status-update", ev.Kind())
}

func TestQueueDequeueRespectsContext(t *testing.T) {
	q := New(1)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := q.Dequeue(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestQueueGracefulCloseDrains(t *testing.T) {
	q := New(8)
	ctx := context.Background()

	require.NoError(t, q.Enqueue(ctx, statusEvent("t1", a2a.TaskStateWorking)))
	require.NoError(t, q.Enqueue(ctx, statusEvent("t1", a2a.TaskStateCompleted)))
	q.Close(false)

	// Buffered events remain readable after a graceful close.
	_, err := q.Dequeue(ctx)
	require.NoError(t, err)
	_, err = q.Dequeue(ctx)
	require.NoError(t, err)

	_, err = q.Dequeue(ctx)
	assert.ErrorIs(t, err, ErrQueueClosed)
}

func TestQueueImmediateCloseDiscards(t *testing.T) {
	q := New(8)
	ctx := context.Background()

	require.NoError(t, q.Enqueue(ctx, statusEvent("t1", a2a.TaskStateWorking)))
	q.Close(true)

	_, err := q.Dequeue(ctx)
	assert.ErrorIs(t, err, ErrQueueClosed)
}

func TestQueueEnqueueAfterCloseIsNoOp(t *testing.T) {
	q := New(8)
	ctx := context.Background()
	q.Close(false)

	require.NoError(t, q.Enqueue(ctx, statusEvent("t1", a2a.TaskStateWorking)))

	_, err := q.Dequeue(ctx)
	assert.ErrorIs(t, err, ErrQueueClosed)
}

func TestQueueCloseIdempotent(t *testing.T) {
	q := New(8)
	q.Close(false)
	q.Close(false)
	q.Close(true)
	assert.True(t, q.Closed())
}

func TestTryDequeue(t *testing.T) {
	q := New(8)
	ctx := context.Background()

	_, err := q.TryDequeue()
	assert.ErrorIs(t, err, ErrQueueEmpty)

	require.NoError(t, q.Enqueue(ctx, statusEvent("t1", a2a.TaskStateWorking)))
	ev, err := q.TryDequeue()
	require.NoError(t, err)
	assert.Equal(t, "status-update", ev.Kind())

	q.Close(false)
	_, err = q.TryDequeue()
	assert.ErrorIs(t, err, ErrQueueClosed)
}

func TestTapReceivesSuffix(t *testing.T) {
	q := New(8)
	ctx := context.Background()

	before := statusEvent("t1", a2a.TaskStateSubmitted)
	after := statusEvent("t1", a2a.TaskStateWorking)

	require.NoError(t, q.Enqueue(ctx, before))
	child := q.Tap()
	require.NoError(t, q.Enqueue(ctx, after))

	// The tap observes only events enqueued after its creation.
	got, err := child.Dequeue(ctx)
	require.NoError(t, err)
	assert.Same(t, after, got)
	_, err = child.TryDequeue()
	assert.ErrorIs(t, err, ErrQueueEmpty)

	// The parent still delivers its full prefix.
	got, err = q.Dequeue(ctx)
	require.NoError(t, err)
	assert.Same(t, before, got)
}

func TestTapOfClosedQueueIsClosed(t *testing.T) {
	q := New(8)
	q.Close(false)

	child := q.Tap()
	assert.True(t, child.Closed())
	_, err := child.TryDequeue()
	assert.ErrorIs(t, err, ErrQueueClosed)
}

func TestCloseReachesTaps(t *testing.T) {
	q := New(8)
	ctx := context.Background()
	child := q.Tap()

	require.NoError(t, q.Enqueue(ctx, statusEvent("t1", a2a.TaskStateWorking)))
	q.Close(false)

	// Graceful close still lets the tap drain its copy.
	_, err := child.Dequeue(ctx)
	require.NoError(t, err)
	_, err = child.Dequeue(ctx)
	assert.ErrorIs(t, err, ErrQueueClosed)
}

func TestManagerCreateOrTap(t *testing.T) {
	m := NewManager()
	ctx := context.Background()

	primary := m.CreateOrTap("t1")
	require.NotNil(t, primary)
	assert.Same(t, primary, m.Get("t1"))

	// Second attach taps instead of replacing.
	tap := m.CreateOrTap("t1")
	require.NotSame(t, primary, tap)

	ev := statusEvent("t1", a2a.TaskStateWorking)
	require.NoError(t, primary.Enqueue(ctx, ev))
	got, err := tap.Dequeue(ctx)
	require.NoError(t, err)
	assert.Same(t, ev, got)
}

func TestManagerAddDuplicate(t *testing.T) {
	m := NewManager()
	require.NoError(t, m.Add("t1", New(0)))
	assert.Error(t, m.Add("t1", New(0)))
}

func TestManagerTapUnknownTask(t *testing.T) {
	m := NewManager()
	assert.Nil(t, m.Tap("missing"))
}

func TestManagerClose(t *testing.T) {
	m := NewManager()
	q := m.CreateOrTap("t1")

	m.Close("t1")
	assert.True(t, q.Closed())
	assert.Nil(t, m.Get("t1"))

	// Closing an unknown task is a no-op.
	m.Close("t1")
}
