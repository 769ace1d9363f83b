package client

import (
	"context"
	"fmt"
	"time"

	"github.com/arcwire/arcwire/pkg/a2a"
	"github.com/arcwire/arcwire/pkg/aggregator"
)

// Client is the user-facing facade: one selected transport plus the agent
// card that produced it, with helpers to fold streams into snapshots.
type Client struct {
	transport Transport
	card      *a2a.AgentCard
	config    Config
}

// New resolves the agent card from baseURL and builds a client for it.
func New(ctx context.Context, baseURL string, cfg Config) (*Client, error) {
	card, err := NewCardResolver(WithCardHTTPClient(cfg.HTTPClient)).Get(ctx, baseURL, cfg.Verifier)
	if err != nil {
		return nil, err
	}
	return NewFromCard(card, cfg)
}

// NewFromCard builds a client for an already-resolved card.
func NewFromCard(card *a2a.AgentCard, cfg Config) (*Client, error) {
	return NewFactory(cfg).NewClient(card)
}

// Card returns the cached agent card.
func (c *Client) Card() *a2a.AgentCard { return c.card }

// Transport exposes the underlying transport for direct operation access.
func (c *Client) Transport() Transport { return c.transport }

// RefreshCard fetches the authenticated extended card when the cached card
// advertises one, replacing the cache. The configured verifier runs on the
// fetched card.
func (c *Client) RefreshCard(ctx context.Context, call *CallContext) (*a2a.AgentCard, error) {
	if !c.card.SupportsAuthenticatedExtendedCard {
		return c.card, nil
	}
	card, err := c.transport.GetCard(ctx, call)
	if err != nil {
		return nil, err
	}
	if c.config.Verifier != nil {
		if err := c.config.Verifier(card); err != nil {
			return nil, fmt.Errorf("agent card verification failed: %w", err)
		}
	}
	c.card = card
	return card, nil
}

// SendMessage submits a message and returns the Task or direct-reply Message
// the server produced.
func (c *Client) SendMessage(ctx context.Context, params *a2a.MessageSendParams, call *CallContext) (a2a.Event, error) {
	return c.transport.SendMessage(ctx, params, call)
}

// SendMessageStreaming submits a message and returns the event stream. The
// peer must advertise streaming capability.
func (c *Client) SendMessageStreaming(ctx context.Context, params *a2a.MessageSendParams, call *CallContext) (<-chan StreamEvent, error) {
	if !c.card.Capabilities.Streaming {
		return nil, &a2a.InvalidStateError{Msg: "agent does not support streaming"}
	}
	return c.transport.SendMessageStreaming(ctx, params, call)
}

// SendMessageAndFold runs the streaming path and folds every event into a
// task snapshot, returning the aggregated result once the stream ends. When
// the peer does not stream, it falls back to send_message.
func (c *Client) SendMessageAndFold(ctx context.Context, params *a2a.MessageSendParams, call *CallContext) (*aggregator.Result, error) {
	if !c.card.Capabilities.Streaming || !c.config.Streaming {
		ev, err := c.transport.SendMessage(ctx, params, call)
		if err != nil {
			return nil, err
		}
		switch v := ev.(type) {
		case *a2a.Task:
			return &aggregator.Result{Task: v}, nil
		case *a2a.Message:
			return &aggregator.Result{Message: v}, nil
		default:
			return nil, &a2a.JSONError{Msg: "unexpected response kind"}
		}
	}

	stream, err := c.transport.SendMessageStreaming(ctx, params, call)
	if err != nil {
		return nil, err
	}
	return FoldStream(stream)
}

// FoldStream folds a client event stream to completion. A transport error
// terminates the fold but the partial snapshot remains valid and is returned
// alongside the error.
func FoldStream(stream <-chan StreamEvent) (*aggregator.Result, error) {
	fold := aggregator.New()
	for item := range stream {
		if item.Err != nil {
			task, msg := fold.Result()
			return &aggregator.Result{Task: task, Message: msg}, item.Err
		}
		if err := fold.Apply(item.Event); err != nil {
			task, msg := fold.Result()
			return &aggregator.Result{Task: task, Message: msg}, err
		}
	}
	task, msg := fold.Result()
	return &aggregator.Result{Task: task, Message: msg}, nil
}

// GetTask implements the tasks/get operation.
func (c *Client) GetTask(ctx context.Context, params *a2a.TaskQueryParams, call *CallContext) (*a2a.Task, error) {
	return c.transport.GetTask(ctx, params, call)
}

// CancelTask implements the tasks/cancel operation.
func (c *Client) CancelTask(ctx context.Context, params *a2a.TaskIDParams, call *CallContext) (*a2a.Task, error) {
	return c.transport.CancelTask(ctx, params, call)
}

// SetTaskCallback registers a push notification config for a task.
func (c *Client) SetTaskCallback(ctx context.Context, cfg *a2a.TaskPushNotificationConfig, call *CallContext) (*a2a.TaskPushNotificationConfig, error) {
	return c.transport.SetTaskCallback(ctx, cfg, call)
}

// GetTaskCallback fetches a registered push notification config.
func (c *Client) GetTaskCallback(ctx context.Context, params *a2a.GetTaskPushNotificationConfigParams, call *CallContext) (*a2a.TaskPushNotificationConfig, error) {
	return c.transport.GetTaskCallback(ctx, params, call)
}

// ListTaskCallbacks lists the push notification configs of a task.
func (c *Client) ListTaskCallbacks(ctx context.Context, params *a2a.ListTaskPushNotificationConfigParams, call *CallContext) ([]a2a.TaskPushNotificationConfig, error) {
	return c.transport.ListTaskCallbacks(ctx, params, call)
}

// DeleteTaskCallback removes a push notification config.
func (c *Client) DeleteTaskCallback(ctx context.Context, params *a2a.DeleteTaskPushNotificationConfigParams, call *CallContext) error {
	return c.transport.DeleteTaskCallback(ctx, params, call)
}

// Resubscribe attaches to an in-flight task's event stream.
func (c *Client) Resubscribe(ctx context.Context, params *a2a.TaskIDParams, call *CallContext) (<-chan StreamEvent, error) {
	if !c.card.Capabilities.Streaming {
		return nil, &a2a.InvalidStateError{Msg: "agent does not support streaming"}
	}
	return c.transport.Resubscribe(ctx, params, call)
}

// WaitForTask polls tasks/get until the task reaches an interrupted state or
// ctx expires.
func (c *Client) WaitForTask(ctx context.Context, taskID string, interval time.Duration, call *CallContext) (*a2a.Task, error) {
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
			task, err := c.transport.GetTask(ctx, &a2a.TaskQueryParams{ID: taskID}, call)
			if err != nil {
				return nil, err
			}
			if task.Status.State.Interrupted() {
				return task, nil
			}
		}
	}
}

// Close releases the underlying transport.
func (c *Client) Close() error {
	return c.transport.Close()
}
