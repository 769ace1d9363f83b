// Package server implements the A2A server side: the default request handler
// that coordinates an agent executor with per-task event queues, the three
// wire transports, task and push-config stores, and webhook push delivery.
package server

import (
	"context"

	"github.com/google/uuid"

	"github.com/arcwire/arcwire/pkg/a2a"
	"github.com/arcwire/arcwire/pkg/eventqueue"
)

// AgentExecutor is the agent implementation the runtime drives. Execute runs
// the agent to completion, publishing events into the queue; it must close
// the queue on exit. Cancel requests cooperative cancellation of a running
// task.
type AgentExecutor interface {
	Execute(ctx context.Context, reqCtx *RequestContext, queue *eventqueue.Queue) error
	Cancel(ctx context.Context, taskID string) error
}

// RequestContext is everything an executor needs about one incoming message:
// the resolved ids, the message itself, and the task snapshot if the message
// continues an existing task.
type RequestContext struct {
	TaskID      string
	ContextID   string
	Message     *a2a.Message
	CurrentTask *a2a.Task
	Params      *a2a.MessageSendParams
}

// RequestContextBuilder assembles the RequestContext for each request.
// Custom builders can enrich the context (caller identity, quotas) before
// the executor sees it.
type RequestContextBuilder interface {
	Build(ctx context.Context, params *a2a.MessageSendParams, taskID, contextID string, current *a2a.Task) (*RequestContext, error)
}

type defaultContextBuilder struct{}

// NewRequestContextBuilder returns the standard builder: ids are taken from
// the params or freshly minted, and the message is stamped with them.
func NewRequestContextBuilder() RequestContextBuilder {
	return defaultContextBuilder{}
}

func (defaultContextBuilder) Build(_ context.Context, params *a2a.MessageSendParams, taskID, contextID string, current *a2a.Task) (*RequestContext, error) {
	msg := params.Message
	msg.TaskID = taskID
	msg.ContextID = contextID
	if msg.MessageID == "" {
		msg.MessageID = uuid.NewString()
	}
	return &RequestContext{
		TaskID:      taskID,
		ContextID:   contextID,
		Message:     &msg,
		CurrentTask: current,
		Params:      params,
	}, nil
}
