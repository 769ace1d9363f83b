// Package client implements the A2A client side: a uniform operation set
// projected onto JSON-RPC, REST, and gRPC transports, agent-card discovery,
// an interceptor chain for outbound requests, and helpers to fold streaming
// responses into task snapshots.
package client

import (
	"context"
	"net/http"
	"time"

	"github.com/arcwire/arcwire/pkg/a2a"
)

// StreamEvent is one item of a streaming response: an event, or the error
// that terminated the stream. After an item with Err != nil the channel is
// closed.
type StreamEvent struct {
	Event a2a.Event
	Err   error
}

// CallContext carries per-call state visible to interceptors, most notably
// the session key used to look up credentials.
type CallContext struct {
	SessionID string
	Values    map[string]any
}

// Transport is the uniform operation set every wire encoding implements.
// Streaming operations return a channel that is closed when the stream ends;
// dropping the receiver cancels the underlying I/O via ctx.
type Transport interface {
	SendMessage(ctx context.Context, params *a2a.MessageSendParams, call *CallContext) (a2a.Event, error)
	SendMessageStreaming(ctx context.Context, params *a2a.MessageSendParams, call *CallContext) (<-chan StreamEvent, error)
	GetTask(ctx context.Context, params *a2a.TaskQueryParams, call *CallContext) (*a2a.Task, error)
	CancelTask(ctx context.Context, params *a2a.TaskIDParams, call *CallContext) (*a2a.Task, error)
	SetTaskCallback(ctx context.Context, cfg *a2a.TaskPushNotificationConfig, call *CallContext) (*a2a.TaskPushNotificationConfig, error)
	GetTaskCallback(ctx context.Context, params *a2a.GetTaskPushNotificationConfigParams, call *CallContext) (*a2a.TaskPushNotificationConfig, error)
	ListTaskCallbacks(ctx context.Context, params *a2a.ListTaskPushNotificationConfigParams, call *CallContext) ([]a2a.TaskPushNotificationConfig, error)
	DeleteTaskCallback(ctx context.Context, params *a2a.DeleteTaskPushNotificationConfigParams, call *CallContext) error
	Resubscribe(ctx context.Context, params *a2a.TaskIDParams, call *CallContext) (<-chan StreamEvent, error)
	GetCard(ctx context.Context, call *CallContext) (*a2a.AgentCard, error)
	Close() error
}

// Request is the mutable view of an outbound call handed to interceptors:
// the method name, the parameter payload, and the transport options that will
// accompany it on the wire. HTTP transports send Header verbatim; the gRPC
// transport lowers header keys into outgoing metadata.
type Request struct {
	Method  string
	Payload any
	Header  http.Header
	Timeout time.Duration
	Card    *a2a.AgentCard
	Call    *CallContext
}

// Interceptor transforms an outbound request before it is sent. Interceptors
// must not block indefinitely and must not retain the request across calls.
type Interceptor interface {
	Intercept(ctx context.Context, req *Request) error
}

// InterceptorFunc adapts a function to the Interceptor interface.
type InterceptorFunc func(ctx context.Context, req *Request) error

// Intercept implements Interceptor.
func (f InterceptorFunc) Intercept(ctx context.Context, req *Request) error {
	return f(ctx, req)
}

// applyInterceptors runs the chain in order over a fresh Request and returns
// it. A nil call context is replaced with an empty one so interceptors can
// rely on it being present.
func applyInterceptors(ctx context.Context, chain []Interceptor, method string, payload any, card *a2a.AgentCard, call *CallContext, timeout time.Duration) (*Request, error) {
	if call == nil {
		call = &CallContext{}
	}
	req := &Request{
		Method:  method,
		Payload: payload,
		Header:  make(http.Header),
		Timeout: timeout,
		Card:    card,
		Call:    call,
	}
	for _, ic := range chain {
		if err := ic.Intercept(ctx, req); err != nil {
			return nil, err
		}
	}
	return req, nil
}

// ExtensionsInterceptor attaches the activated extension URIs to every
// outbound request as the X-A2A-Extensions header.
func ExtensionsInterceptor(uris []string) Interceptor {
	return InterceptorFunc(func(_ context.Context, req *Request) error {
		if len(uris) == 0 {
			return nil
		}
		joined := uris[0]
		for _, u := range uris[1:] {
			joined += "," + u
		}
		req.Header.Set(a2a.ExtensionsHeader, joined)
		return nil
	})
}
