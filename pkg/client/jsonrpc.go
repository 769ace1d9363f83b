package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/arcwire/arcwire/pkg/a2a"
)

// JSONRPCTransport speaks JSON-RPC 2.0 over HTTP POST, with SSE for the
// streaming methods.
type JSONRPCTransport struct {
	url          string
	httpClient   *http.Client
	card         *a2a.AgentCard
	interceptors []Interceptor
	timeout      time.Duration
}

// NewJSONRPCTransport creates a JSON-RPC transport bound to url. The card may
// be nil when the transport is built before discovery.
func NewJSONRPCTransport(url string, card *a2a.AgentCard, opts TransportOpts) *JSONRPCTransport {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &JSONRPCTransport{
		url:          strings.TrimSuffix(url, "/"),
		httpClient:   httpClient,
		card:         card,
		interceptors: opts.Interceptors,
		timeout:      opts.Timeout,
	}
}

// TransportOpts carries the construction options shared by all transports.
type TransportOpts struct {
	HTTPClient   *http.Client
	Interceptors []Interceptor
	Timeout      time.Duration
}

func (t *JSONRPCTransport) prepare(ctx context.Context, method string, params any, call *CallContext) (*Request, context.Context, context.CancelFunc, error) {
	req, err := applyInterceptors(ctx, t.interceptors, method, params, t.card, call, t.timeout)
	if err != nil {
		return nil, nil, nil, err
	}
	cancel := func() {}
	if req.Timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
	}
	return req, ctx, cancel, nil
}

// call performs one non-streaming JSON-RPC exchange and returns the result
// payload.
func (t *JSONRPCTransport) call(ctx context.Context, method string, params any, call *CallContext) (json.RawMessage, error) {
	req, ctx, cancel, err := t.prepare(ctx, method, params, call)
	if err != nil {
		return nil, err
	}
	defer cancel()

	rpcReq, err := a2a.NewJSONRPCRequest(uuid.NewString(), method, req.Payload)
	if err != nil {
		return nil, err
	}
	body, err := json.Marshal(rpcReq)
	if err != nil {
		return nil, &a2a.JSONError{Msg: "failed to marshal request", Err: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, t.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	mergeHeader(httpReq.Header, req.Header)

	resp, err := t.httpClient.Do(httpReq)
	if err != nil {
		return nil, wrapTransportError(ctx, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &a2a.HTTPError{Status: resp.StatusCode, Msg: string(msg)}
	}

	var rpcResp a2a.JSONRPCResponse
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return nil, &a2a.JSONError{Msg: "malformed response body", Err: err}
	}
	if rpcResp.Error != nil {
		return nil, rpcResp.Error
	}
	return rpcResp.Result, nil
}

// stream performs one streaming JSON-RPC exchange over SSE.
func (t *JSONRPCTransport) stream(ctx context.Context, method string, params any, call *CallContext) (<-chan StreamEvent, error) {
	req, err := applyInterceptors(ctx, t.interceptors, method, params, t.card, call, 0)
	if err != nil {
		return nil, err
	}

	rpcReq, err := a2a.NewJSONRPCRequest(uuid.NewString(), method, req.Payload)
	if err != nil {
		return nil, err
	}
	body, err := json.Marshal(rpcReq)
	if err != nil {
		return nil, &a2a.JSONError{Msg: "failed to marshal request", Err: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, t.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")
	mergeHeader(httpReq.Header, req.Header)

	resp, err := t.httpClient.Do(httpReq)
	if err != nil {
		return nil, wrapTransportError(ctx, err)
	}
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, &a2a.HTTPError{Status: resp.StatusCode, Msg: string(msg)}
	}

	return streamSSE(ctx, resp.Body, decodeJSONRPCEvent), nil
}

// SendMessage implements Transport.
func (t *JSONRPCTransport) SendMessage(ctx context.Context, params *a2a.MessageSendParams, call *CallContext) (a2a.Event, error) {
	result, err := t.call(ctx, a2a.MethodMessageSend, params, call)
	if err != nil {
		return nil, err
	}
	return a2a.UnmarshalEvent(result)
}

// SendMessageStreaming implements Transport.
func (t *JSONRPCTransport) SendMessageStreaming(ctx context.Context, params *a2a.MessageSendParams, call *CallContext) (<-chan StreamEvent, error) {
	return t.stream(ctx, a2a.MethodMessageStream, params, call)
}

// GetTask implements Transport.
func (t *JSONRPCTransport) GetTask(ctx context.Context, params *a2a.TaskQueryParams, call *CallContext) (*a2a.Task, error) {
	result, err := t.call(ctx, a2a.MethodTasksGet, params, call)
	if err != nil {
		return nil, err
	}
	return decodeTask(result)
}

// CancelTask implements Transport.
func (t *JSONRPCTransport) CancelTask(ctx context.Context, params *a2a.TaskIDParams, call *CallContext) (*a2a.Task, error) {
	result, err := t.call(ctx, a2a.MethodTasksCancel, params, call)
	if err != nil {
		return nil, err
	}
	return decodeTask(result)
}

// SetTaskCallback implements Transport.
func (t *JSONRPCTransport) SetTaskCallback(ctx context.Context, cfg *a2a.TaskPushNotificationConfig, call *CallContext) (*a2a.TaskPushNotificationConfig, error) {
	result, err := t.call(ctx, a2a.MethodPushConfigSet, cfg, call)
	if err != nil {
		return nil, err
	}
	return decodePushConfig(result)
}

// GetTaskCallback implements Transport.
func (t *JSONRPCTransport) GetTaskCallback(ctx context.Context, params *a2a.GetTaskPushNotificationConfigParams, call *CallContext) (*a2a.TaskPushNotificationConfig, error) {
	result, err := t.call(ctx, a2a.MethodPushConfigGet, params, call)
	if err != nil {
		return nil, err
	}
	return decodePushConfig(result)
}

// ListTaskCallbacks implements Transport.
func (t *JSONRPCTransport) ListTaskCallbacks(ctx context.Context, params *a2a.ListTaskPushNotificationConfigParams, call *CallContext) ([]a2a.TaskPushNotificationConfig, error) {
	result, err := t.call(ctx, a2a.MethodPushConfigList, params, call)
	if err != nil {
		return nil, err
	}
	var configs []a2a.TaskPushNotificationConfig
	if err := json.Unmarshal(result, &configs); err != nil {
		return nil, &a2a.JSONError{Msg: "malformed push config list", Err: err}
	}
	return configs, nil
}

// DeleteTaskCallback implements Transport.
func (t *JSONRPCTransport) DeleteTaskCallback(ctx context.Context, params *a2a.DeleteTaskPushNotificationConfigParams, call *CallContext) error {
	_, err := t.call(ctx, a2a.MethodPushConfigDelete, params, call)
	return err
}

// Resubscribe implements Transport.
func (t *JSONRPCTransport) Resubscribe(ctx context.Context, params *a2a.TaskIDParams, call *CallContext) (<-chan StreamEvent, error) {
	return t.stream(ctx, a2a.MethodTasksResubscribe, params, call)
}

// GetCard fetches the authenticated extended card via the transport.
func (t *JSONRPCTransport) GetCard(ctx context.Context, call *CallContext) (*a2a.AgentCard, error) {
	result, err := t.call(ctx, a2a.MethodGetExtendedCard, nil, call)
	if err != nil {
		return nil, err
	}
	var card a2a.AgentCard
	if err := json.Unmarshal(result, &card); err != nil {
		return nil, &a2a.JSONError{Msg: "malformed agent card", Err: err}
	}
	return &card, nil
}

// Close implements Transport.
func (t *JSONRPCTransport) Close() error {
	t.httpClient.CloseIdleConnections()
	return nil
}

// ============================================================================
// shared decoding helpers
// ============================================================================

func decodeTask(data []byte) (*a2a.Task, error) {
	var task a2a.Task
	if err := json.Unmarshal(data, &task); err != nil {
		return nil, &a2a.JSONError{Msg: "malformed task", Err: err}
	}
	return &task, nil
}

func decodePushConfig(data []byte) (*a2a.TaskPushNotificationConfig, error) {
	var cfg a2a.TaskPushNotificationConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, &a2a.JSONError{Msg: "malformed push notification config", Err: err}
	}
	return &cfg, nil
}

func mergeHeader(dst, src http.Header) {
	for k, vals := range src {
		for _, v := range vals {
			dst.Add(k, v)
		}
	}
}

// wrapTransportError distinguishes deadline expiry from other transport
// failures.
func wrapTransportError(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return &a2a.TimeoutError{Msg: "request deadline exceeded", Err: err}
	}
	return fmt.Errorf("request failed: %w", err)
}
