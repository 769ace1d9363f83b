package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/arcwire/arcwire/pkg/a2a"
)

// RESTTransport speaks the HTTP+JSON mapping: one route per operation with
// bare JSON payloads, SSE for the streaming routes.
type RESTTransport struct {
	baseURL      string
	httpClient   *http.Client
	card         *a2a.AgentCard
	interceptors []Interceptor
	timeout      time.Duration
}

// NewRESTTransport creates a REST transport rooted at baseURL.
func NewRESTTransport(baseURL string, card *a2a.AgentCard, opts TransportOpts) *RESTTransport {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &RESTTransport{
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		httpClient:   httpClient,
		card:         card,
		interceptors: opts.Interceptors,
		timeout:      opts.Timeout,
	}
}

// do performs one REST exchange. A nil payload sends no body; out == nil
// skips response decoding.
func (t *RESTTransport) do(ctx context.Context, method, httpMethod, path string, payload, out any, call *CallContext) error {
	req, err := applyInterceptors(ctx, t.interceptors, method, payload, t.card, call, t.timeout)
	if err != nil {
		return err
	}
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	var body io.Reader
	if req.Payload != nil && httpMethod != http.MethodGet && httpMethod != http.MethodDelete {
		data, err := json.Marshal(req.Payload)
		if err != nil {
			return &a2a.JSONError{Msg: "failed to marshal request", Err: err}
		}
		body = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, httpMethod, t.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	mergeHeader(httpReq.Header, req.Header)

	resp, err := t.httpClient.Do(httpReq)
	if err != nil {
		return wrapTransportError(ctx, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeRESTError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &a2a.JSONError{Msg: "malformed response body", Err: err}
	}
	return nil
}

// stream opens one of the SSE routes.
func (t *RESTTransport) stream(ctx context.Context, method, httpMethod, path string, payload any, call *CallContext) (<-chan StreamEvent, error) {
	req, err := applyInterceptors(ctx, t.interceptors, method, payload, t.card, call, 0)
	if err != nil {
		return nil, err
	}

	var body io.Reader
	if req.Payload != nil && httpMethod != http.MethodGet {
		data, err := json.Marshal(req.Payload)
		if err != nil {
			return nil, &a2a.JSONError{Msg: "failed to marshal request", Err: err}
		}
		body = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, httpMethod, t.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	httpReq.Header.Set("Accept", "text/event-stream")
	mergeHeader(httpReq.Header, req.Header)

	resp, err := t.httpClient.Do(httpReq)
	if err != nil {
		return nil, wrapTransportError(ctx, err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, decodeRESTError(resp)
	}

	return streamSSE(ctx, resp.Body, decodeBareEvent), nil
}

// SendMessage implements Transport.
func (t *RESTTransport) SendMessage(ctx context.Context, params *a2a.MessageSendParams, call *CallContext) (a2a.Event, error) {
	var raw json.RawMessage
	if err := t.do(ctx, a2a.MethodMessageSend, http.MethodPost, "/v1/message:send", params, &raw, call); err != nil {
		return nil, err
	}
	return a2a.UnmarshalEvent(raw)
}

// SendMessageStreaming implements Transport.
func (t *RESTTransport) SendMessageStreaming(ctx context.Context, params *a2a.MessageSendParams, call *CallContext) (<-chan StreamEvent, error) {
	return t.stream(ctx, a2a.MethodMessageStream, http.MethodPost, "/v1/message:stream", params, call)
}

// GetTask implements Transport.
func (t *RESTTransport) GetTask(ctx context.Context, params *a2a.TaskQueryParams, call *CallContext) (*a2a.Task, error) {
	path := "/v1/tasks/" + url.PathEscape(params.ID)
	if params.HistoryLength > 0 {
		path += "?historyLength=" + strconv.Itoa(params.HistoryLength)
	}
	var task a2a.Task
	if err := t.do(ctx, a2a.MethodTasksGet, http.MethodGet, path, nil, &task, call); err != nil {
		return nil, err
	}
	return &task, nil
}

// CancelTask implements Transport.
func (t *RESTTransport) CancelTask(ctx context.Context, params *a2a.TaskIDParams, call *CallContext) (*a2a.Task, error) {
	var task a2a.Task
	path := "/v1/tasks/" + url.PathEscape(params.ID) + ":cancel"
	if err := t.do(ctx, a2a.MethodTasksCancel, http.MethodPost, path, struct{}{}, &task, call); err != nil {
		return nil, err
	}
	return &task, nil
}

// SetTaskCallback implements Transport.
func (t *RESTTransport) SetTaskCallback(ctx context.Context, cfg *a2a.TaskPushNotificationConfig, call *CallContext) (*a2a.TaskPushNotificationConfig, error) {
	var out a2a.TaskPushNotificationConfig
	path := "/v1/tasks/" + url.PathEscape(cfg.TaskID) + "/pushNotificationConfigs"
	if err := t.do(ctx, a2a.MethodPushConfigSet, http.MethodPost, path, cfg, &out, call); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetTaskCallback implements Transport.
func (t *RESTTransport) GetTaskCallback(ctx context.Context, params *a2a.GetTaskPushNotificationConfigParams, call *CallContext) (*a2a.TaskPushNotificationConfig, error) {
	var out a2a.TaskPushNotificationConfig
	path := "/v1/tasks/" + url.PathEscape(params.ID) + "/pushNotificationConfigs/" + url.PathEscape(params.PushNotificationConfigID)
	if err := t.do(ctx, a2a.MethodPushConfigGet, http.MethodGet, path, nil, &out, call); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListTaskCallbacks implements Transport.
func (t *RESTTransport) ListTaskCallbacks(ctx context.Context, params *a2a.ListTaskPushNotificationConfigParams, call *CallContext) ([]a2a.TaskPushNotificationConfig, error) {
	var out []a2a.TaskPushNotificationConfig
	path := "/v1/tasks/" + url.PathEscape(params.ID) + "/pushNotificationConfigs"
	if err := t.do(ctx, a2a.MethodPushConfigList, http.MethodGet, path, nil, &out, call); err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteTaskCallback implements Transport.
func (t *RESTTransport) DeleteTaskCallback(ctx context.Context, params *a2a.DeleteTaskPushNotificationConfigParams, call *CallContext) error {
	path := "/v1/tasks/" + url.PathEscape(params.ID) + "/pushNotificationConfigs/" + url.PathEscape(params.PushNotificationConfigID)
	return t.do(ctx, a2a.MethodPushConfigDelete, http.MethodDelete, path, nil, nil, call)
}

// Resubscribe implements Transport.
func (t *RESTTransport) Resubscribe(ctx context.Context, params *a2a.TaskIDParams, call *CallContext) (<-chan StreamEvent, error) {
	path := "/v1/tasks/" + url.PathEscape(params.ID) + ":subscribe"
	return t.stream(ctx, a2a.MethodTasksResubscribe, http.MethodGet, path, nil, call)
}

// GetCard fetches the authenticated extended card.
func (t *RESTTransport) GetCard(ctx context.Context, call *CallContext) (*a2a.AgentCard, error) {
	var card a2a.AgentCard
	if err := t.do(ctx, a2a.MethodGetExtendedCard, http.MethodGet, "/v1/card", nil, &card, call); err != nil {
		return nil, err
	}
	return &card, nil
}

// Close implements Transport.
func (t *RESTTransport) Close() error {
	t.httpClient.CloseIdleConnections()
	return nil
}

// decodeRESTError recovers the structured error body a REST server emits for
// failures, falling back to a bare HTTP error.
func decodeRESTError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var rpcErr a2a.RPCError
	if err := json.Unmarshal(body, &rpcErr); err == nil && rpcErr.Code != 0 {
		return &rpcErr
	}
	return &a2a.HTTPError{Status: resp.StatusCode, Msg: string(body)}
}
