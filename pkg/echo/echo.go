// Package echo provides a minimal agent executor that mirrors incoming text
// back as an artifact. It exists for demos and end-to-end tests of the
// runtime; it exercises the full event sequence a real agent would emit.
package echo

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/arcwire/arcwire/pkg/a2a"
	"github.com/arcwire/arcwire/pkg/eventqueue"
	"github.com/arcwire/arcwire/pkg/server"
)

// Executor echoes the text parts of each message. An empty message parks the
// task in input-required so interrupted flows can be exercised too.
type Executor struct {
	// Delay is inserted before the completion event, giving streaming
	// consumers observable intermediate states.
	Delay time.Duration

	mu       sync.Mutex
	canceled map[string]bool
}

// New creates an echo executor.
func New() *Executor {
	return &Executor{canceled: make(map[string]bool)}
}

// Execute implements server.AgentExecutor.
func (e *Executor) Execute(ctx context.Context, reqCtx *server.RequestContext, queue *eventqueue.Queue) error {
	defer queue.Close(false)

	if reqCtx.CurrentTask == nil {
		task := &a2a.Task{
			ID:        reqCtx.TaskID,
			ContextID: reqCtx.ContextID,
			Status: a2a.TaskStatus{
				State:     a2a.TaskStateSubmitted,
				Timestamp: a2a.Timestamp(time.Now()),
			},
			History: []a2a.Message{*reqCtx.Message},
		}
		if err := queue.Enqueue(ctx, task); err != nil {
			return err
		}
	}

	text := collectText(reqCtx.Message)
	if text == "" {
		return queue.Enqueue(ctx, &a2a.TaskStatusUpdateEvent{
			TaskID:    reqCtx.TaskID,
			ContextID: reqCtx.ContextID,
			Status: a2a.TaskStatus{
				State:     a2a.TaskStateInputRequired,
				Timestamp: a2a.Timestamp(time.Now()),
				Message: &a2a.Message{
					MessageID: uuid.NewString(),
					Role:      a2a.MessageRoleAgent,
					TaskID:    reqCtx.TaskID,
					ContextID: reqCtx.ContextID,
					Parts:     []a2a.Part{a2a.TextPart("what should I echo?")},
				},
			},
			Final: true,
		})
	}

	working := &a2a.TaskStatusUpdateEvent{
		TaskID:    reqCtx.TaskID,
		ContextID: reqCtx.ContextID,
		Status: a2a.TaskStatus{
			State:     a2a.TaskStateWorking,
			Timestamp: a2a.Timestamp(time.Now()),
		},
	}
	if err := queue.Enqueue(ctx, working); err != nil {
		return err
	}

	if e.Delay > 0 {
		select {
		case <-time.After(e.Delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if e.isCanceled(reqCtx.TaskID) {
		return queue.Enqueue(ctx, &a2a.TaskStatusUpdateEvent{
			TaskID:    reqCtx.TaskID,
			ContextID: reqCtx.ContextID,
			Status: a2a.TaskStatus{
				State:     a2a.TaskStateCanceled,
				Timestamp: a2a.Timestamp(time.Now()),
			},
			Final: true,
		})
	}

	artifact := &a2a.TaskArtifactUpdateEvent{
		TaskID:    reqCtx.TaskID,
		ContextID: reqCtx.ContextID,
		Artifact: a2a.Artifact{
			ArtifactID: uuid.NewString(),
			Name:       "echo",
			Parts:      []a2a.Part{a2a.TextPart(text)},
		},
		LastChunk: true,
	}
	if err := queue.Enqueue(ctx, artifact); err != nil {
		return err
	}

	return queue.Enqueue(ctx, &a2a.TaskStatusUpdateEvent{
		TaskID:    reqCtx.TaskID,
		ContextID: reqCtx.ContextID,
		Status: a2a.TaskStatus{
			State:     a2a.TaskStateCompleted,
			Timestamp: a2a.Timestamp(time.Now()),
		},
		Final: true,
	})
}

// Cancel implements server.AgentExecutor.
func (e *Executor) Cancel(_ context.Context, taskID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.canceled[taskID] = true
	return nil
}

func (e *Executor) isCanceled(taskID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.canceled[taskID]
}

func collectText(msg *a2a.Message) string {
	var parts []string
	for _, p := range msg.Parts {
		if p.Kind == a2a.PartKindText && strings.TrimSpace(p.Text) != "" {
			parts = append(parts, p.Text)
		}
	}
	return strings.Join(parts, "\n")
}
