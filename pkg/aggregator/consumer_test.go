package aggregator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arcwire/arcwire/pkg/a2a"
	"github.com/arcwire/arcwire/pkg/eventqueue"
)

func TestConsumerConsumeAllUntilFinal(t *testing.T) {
	q := eventqueue.New(8)
	ctx := context.Background()

	require.NoError(t, q.Enqueue(ctx, initialTask("t1", a2a.TaskStateSubmitted)))
	require.NoError(t, q.Enqueue(ctx, statusUpdate("t1", a2a.TaskStateWorking, false)))
	require.NoError(t, q.Enqueue(ctx, artifactUpdate("t1", "a1", false, a2a.TextPart("out"))))
	require.NoError(t, q.Enqueue(ctx, statusUpdate("t1", a2a.TaskStateCompleted, true)))

	result, err := NewConsumer(q).ConsumeAll(ctx)
	require.NoError(t, err)
	require.NotNil(t, result.Task)
	assert.Nil(t, result.Message)
	assert.Equal(t, a2a.TaskStateCompleted, result.Task.Status.State)
	assert.Len(t, result.Task.Artifacts, 1)
}

func TestConsumerEmptyClosedStream(t *testing.T) {
	q := eventqueue.New(8)
	q.Close(false)

	result, err := NewConsumer(q).ConsumeAll(context.Background())
	require.NoError(t, err)
	assert.Nil(t, result.Task)
	assert.Nil(t, result.Message)
}

func TestConsumerDirectReply(t *testing.T) {
	q := eventqueue.New(8)
	ctx := context.Background()
	msg := &a2a.Message{MessageID: "m1", Role: a2a.MessageRoleAgent}
	require.NoError(t, q.Enqueue(ctx, msg))

	result, err := NewConsumer(q).ConsumeAll(ctx)
	require.NoError(t, err)
	assert.Nil(t, result.Task)
	assert.Same(t, msg, result.Message)
}

func TestConsumerSurfacesFoldError(t *testing.T) {
	q := eventqueue.New(8)
	ctx := context.Background()
	require.NoError(t, q.Enqueue(ctx, initialTask("t1", a2a.TaskStateSubmitted)))
	require.NoError(t, q.Enqueue(ctx, initialTask("t1", a2a.TaskStateSubmitted)))

	_, err := NewConsumer(q).ConsumeAll(ctx)
	assert.ErrorIs(t, err, ErrDuplicateInitialTask)
}

func TestConsumerNextClosedQueue(t *testing.T) {
	q := eventqueue.New(8)
	q.Close(false)

	_, err := NewConsumer(q).Next(context.Background())
	assert.ErrorIs(t, err, eventqueue.ErrQueueClosed)
}
