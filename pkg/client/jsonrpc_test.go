package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arcwire/arcwire/pkg/a2a"
)

func rpcResult(t *testing.T, w http.ResponseWriter, id any, result any) {
	t.Helper()
	raw, err := json.Marshal(result)
	require.NoError(t, err)
	w.Header().Set("Content-Type", "application/json")
	require.NoError(t, json.NewEncoder(w).Encode(&a2a.JSONRPCResponse{JSONRPC: "2.0", ID: id, Result: raw}))
}

func TestJSONRPCSendMessage(t *testing.T) {
	var gotReq a2a.JSONRPCRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		rpcResult(t, w, gotReq.ID, &a2a.Task{
			ID: "t1", ContextID: "c1",
			Status: a2a.TaskStatus{State: a2a.TaskStateCompleted},
		})
	}))
	defer srv.Close()

	tr := NewJSONRPCTransport(srv.URL, nil, TransportOpts{})
	params := &a2a.MessageSendParams{Message: a2a.Message{
		Role:  a2a.MessageRoleUser,
		Parts: []a2a.Part{a2a.TextPart("hi")},
	}}
	ev, err := tr.SendMessage(context.Background(), params, nil)
	require.NoError(t, err)

	assert.Equal(t, a2a.MethodMessageSend, gotReq.Method)
	assert.Equal(t, "2.0", gotReq.JSONRPC)
	task, ok := ev.(*a2a.Task)
	require.True(t, ok)
	assert.Equal(t, "t1", task.ID)
}

func TestJSONRPCErrorEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req a2a.JSONRPCRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(&a2a.JSONRPCResponse{
			JSONRPC: "2.0", ID: req.ID,
			Error: a2a.NewTaskNotFoundError("missing"),
		})
	}))
	defer srv.Close()

	tr := NewJSONRPCTransport(srv.URL, nil, TransportOpts{})
	_, err := tr.GetTask(context.Background(), &a2a.TaskQueryParams{ID: "missing"}, nil)
	require.Error(t, err)
	assert.Equal(t, a2a.CodeTaskNotFound, a2a.CodeOf(err))
}

func TestJSONRPCHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	tr := NewJSONRPCTransport(srv.URL, nil, TransportOpts{})
	_, err := tr.GetTask(context.Background(), &a2a.TaskQueryParams{ID: "t1"}, nil)
	var httpErr *a2a.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusBadGateway, httpErr.Status)
}

func TestJSONRPCStreaming(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req a2a.JSONRPCRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, a2a.MethodMessageStream, req.Method)
		assert.Equal(t, "text/event-stream", r.Header.Get("Accept"))

		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		for _, state := range []a2a.TaskState{a2a.TaskStateWorking, a2a.TaskStateCompleted} {
			ev := &a2a.TaskStatusUpdateEvent{
				TaskID: "t1", ContextID: "c1",
				Status: a2a.TaskStatus{State: state},
				Final:  state == a2a.TaskStateCompleted,
			}
			raw, err := json.Marshal(ev)
			require.NoError(t, err)
			frame, err := json.Marshal(&a2a.JSONRPCResponse{JSONRPC: "2.0", ID: req.ID, Result: raw})
			require.NoError(t, err)
			fmt.Fprintf(w, "data: %s\n\n", frame)
			flusher.Flush()
		}
	}))
	defer srv.Close()

	tr := NewJSONRPCTransport(srv.URL, nil, TransportOpts{})
	stream, err := tr.SendMessageStreaming(context.Background(), &a2a.MessageSendParams{
		Message: a2a.Message{Role: a2a.MessageRoleUser, Parts: []a2a.Part{a2a.TextPart("hi")}},
	}, nil)
	require.NoError(t, err)

	items := collect(t, stream)
	require.Len(t, items, 2)
	for _, item := range items {
		require.NoError(t, item.Err)
	}
	last := items[1].Event.(*a2a.TaskStatusUpdateEvent)
	assert.True(t, last.Final)
}

func TestJSONRPCInterceptorHeaders(t *testing.T) {
	var gotHeader string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeader = r.Header.Get(a2a.ExtensionsHeader)
		var req a2a.JSONRPCRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		rpcResult(t, w, req.ID, &a2a.Task{ID: "t1"})
	}))
	defer srv.Close()

	tr := NewJSONRPCTransport(srv.URL, nil, TransportOpts{
		Interceptors: []Interceptor{ExtensionsInterceptor([]string{"https://ext.one", "https://ext.two"})},
	})
	_, err := tr.GetTask(context.Background(), &a2a.TaskQueryParams{ID: "t1"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "https://ext.one,https://ext.two", gotHeader)
}
