package server_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arcwire/arcwire/pkg/a2a"
	"github.com/arcwire/arcwire/pkg/client"
	"github.com/arcwire/arcwire/pkg/echo"
	"github.com/arcwire/arcwire/pkg/server"
)

// newAgentServer wires the echo executor behind both HTTP transports the way
// the production router does.
func newAgentServer(t *testing.T) (*httptest.Server, *a2a.AgentCard) {
	t.Helper()

	handler := server.NewDefaultRequestHandler(echo.New(), server.NewInMemoryTaskStore(),
		server.WithPushConfigStore(server.NewInMemoryPushConfigStore()))
	t.Cleanup(func() { _ = handler.Close(context.Background()) })

	card := &a2a.AgentCard{
		Name:               "echo",
		Version:            "1.0.0",
		PreferredTransport: a2a.TransportJSONRPC,
		Capabilities:       a2a.AgentCapabilities{Streaming: true},
	}
	extended := &a2a.AgentCard{Name: "echo-extended", Version: "1.0.0"}

	r := chi.NewRouter()
	r.Post("/", server.NewJSONRPCServer(handler, card, extended).ServeHTTP)
	server.NewRESTServer(handler, extended).Routes(r)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	card.URL = srv.URL + "/"
	card.AdditionalInterfaces = []a2a.AgentInterface{
		{Transport: a2a.TransportREST, URL: srv.URL},
	}
	return srv, card
}

func sendParams(text string) *a2a.MessageSendParams {
	return &a2a.MessageSendParams{Message: a2a.Message{
		Role:  a2a.MessageRoleUser,
		Parts: []a2a.Part{a2a.TextPart(text)},
	}}
}

func eachTransport(t *testing.T, run func(t *testing.T, tr client.Transport)) {
	srv, card := newAgentServer(t)
	transports := map[string]client.Transport{
		"jsonrpc": client.NewJSONRPCTransport(srv.URL+"/", card, client.TransportOpts{}),
		"rest":    client.NewRESTTransport(srv.URL, card, client.TransportOpts{}),
	}
	for name, tr := range transports {
		t.Run(name, func(t *testing.T) {
			defer tr.Close()
			run(t, tr)
		})
	}
}

func TestEndToEndSendAndGet(t *testing.T) {
	eachTransport(t, func(t *testing.T, tr client.Transport) {
		ctx := context.Background()

		ev, err := tr.SendMessage(ctx, sendParams("ping"), nil)
		require.NoError(t, err)
		task, ok := ev.(*a2a.Task)
		require.True(t, ok, "echo returns a task, got %T", ev)
		assert.Equal(t, a2a.TaskStateCompleted, task.Status.State)
		require.Len(t, task.Artifacts, 1)
		require.NotEmpty(t, task.Artifacts[0].Parts)
		assert.Equal(t, "ping", task.Artifacts[0].Parts[0].Text)

		got, err := tr.GetTask(ctx, &a2a.TaskQueryParams{ID: task.ID}, nil)
		require.NoError(t, err)
		assert.Equal(t, task.ID, got.ID)
		assert.Equal(t, a2a.TaskStateCompleted, got.Status.State)
	})
}

func TestEndToEndGetTaskNotFound(t *testing.T) {
	eachTransport(t, func(t *testing.T, tr client.Transport) {
		_, err := tr.GetTask(context.Background(), &a2a.TaskQueryParams{ID: "ghost"}, nil)
		assert.Equal(t, a2a.CodeTaskNotFound, a2a.CodeOf(err))
	})
}

func TestEndToEndCancelCompletedTask(t *testing.T) {
	eachTransport(t, func(t *testing.T, tr client.Transport) {
		ctx := context.Background()
		ev, err := tr.SendMessage(ctx, sendParams("ping"), nil)
		require.NoError(t, err)
		task := ev.(*a2a.Task)

		_, err = tr.CancelTask(ctx, &a2a.TaskIDParams{ID: task.ID}, nil)
		assert.Equal(t, a2a.CodeTaskNotCancelable, a2a.CodeOf(err))
	})
}

func TestEndToEndStreaming(t *testing.T) {
	eachTransport(t, func(t *testing.T, tr client.Transport) {
		stream, err := tr.SendMessageStreaming(context.Background(), sendParams("ping"), nil)
		require.NoError(t, err)

		var kinds []string
		for item := range stream {
			require.NoError(t, item.Err)
			kinds = append(kinds, item.Event.Kind())
		}
		assert.Equal(t, []string{
			a2a.KindTask,
			a2a.KindStatusUpdate,
			a2a.KindArtifactUpdate,
			a2a.KindStatusUpdate,
		}, kinds)
	})
}

func TestEndToEndInputRequired(t *testing.T) {
	eachTransport(t, func(t *testing.T, tr client.Transport) {
		ctx := context.Background()

		// An empty message parks the echo task in input-required.
		ev, err := tr.SendMessage(ctx, sendParams(""), nil)
		require.NoError(t, err)
		task := ev.(*a2a.Task)
		require.Equal(t, a2a.TaskStateInputRequired, task.Status.State)

		// A follow-up on the same task drives it to completion.
		params := sendParams("now echo this")
		params.Message.TaskID = task.ID
		params.Message.ContextID = task.ContextID
		ev, err = tr.SendMessage(ctx, params, nil)
		require.NoError(t, err)
		task = ev.(*a2a.Task)
		assert.Equal(t, a2a.TaskStateCompleted, task.Status.State)
	})
}

func TestEndToEndPushConfigs(t *testing.T) {
	eachTransport(t, func(t *testing.T, tr client.Transport) {
		ctx := context.Background()
		ev, err := tr.SendMessage(ctx, sendParams("ping"), nil)
		require.NoError(t, err)
		taskID := ev.(*a2a.Task).ID

		saved, err := tr.SetTaskCallback(ctx, &a2a.TaskPushNotificationConfig{
			TaskID:                 taskID,
			PushNotificationConfig: a2a.PushNotificationConfig{URL: "https://hook.example"},
		}, nil)
		require.NoError(t, err)
		require.NotEmpty(t, saved.PushNotificationConfig.ID)

		got, err := tr.GetTaskCallback(ctx, &a2a.GetTaskPushNotificationConfigParams{
			ID: taskID, PushNotificationConfigID: saved.PushNotificationConfig.ID,
		}, nil)
		require.NoError(t, err)
		assert.Equal(t, "https://hook.example", got.PushNotificationConfig.URL)

		list, err := tr.ListTaskCallbacks(ctx, &a2a.ListTaskPushNotificationConfigParams{ID: taskID}, nil)
		require.NoError(t, err)
		assert.Len(t, list, 1)

		require.NoError(t, tr.DeleteTaskCallback(ctx, &a2a.DeleteTaskPushNotificationConfigParams{
			ID: taskID, PushNotificationConfigID: saved.PushNotificationConfig.ID,
		}, nil))

		list, err = tr.ListTaskCallbacks(ctx, &a2a.ListTaskPushNotificationConfigParams{ID: taskID}, nil)
		require.NoError(t, err)
		assert.Empty(t, list)
	})
}

func TestEndToEndExtendedCard(t *testing.T) {
	eachTransport(t, func(t *testing.T, tr client.Transport) {
		card, err := tr.GetCard(context.Background(), nil)
		require.NoError(t, err)
		assert.Equal(t, "echo-extended", card.Name)
	})
}

func TestRESTErrorStatusMapping(t *testing.T) {
	srv, _ := newAgentServer(t)

	resp, err := http.Get(srv.URL + "/v1/tasks/ghost")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	var rpcErr a2a.RPCError
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&rpcErr))
	assert.Equal(t, a2a.CodeTaskNotFound, rpcErr.Code)
}

func TestJSONRPCMethodNotFound(t *testing.T) {
	srv, _ := newAgentServer(t)

	body := `{"jsonrpc":"2.0","id":1,"method":"no/such"}`
	resp, err := http.Post(srv.URL+"/", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	var envelope a2a.JSONRPCResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	require.NotNil(t, envelope.Error)
	assert.Equal(t, a2a.CodeMethodNotFound, envelope.Error.Code)
}

func TestJSONRPCRejectsWrongVersion(t *testing.T) {
	srv, _ := newAgentServer(t)

	body := `{"jsonrpc":"1.0","id":1,"method":"tasks/get","params":{"id":"x"}}`
	resp, err := http.Post(srv.URL+"/", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	var envelope a2a.JSONRPCResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	require.NotNil(t, envelope.Error)
	assert.Equal(t, a2a.CodeInvalidRequest, envelope.Error.Code)
}
