package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arcwire/arcwire/pkg/a2a"
)

func sseBody(frames ...string) io.ReadCloser {
	var b strings.Builder
	for _, f := range frames {
		b.WriteString("data: " + f + "\n\n")
	}
	return io.NopCloser(strings.NewReader(b.String()))
}

func collect(t *testing.T, ch <-chan StreamEvent) []StreamEvent {
	t.Helper()
	var out []StreamEvent
	for ev := range ch {
		out = append(out, ev)
	}
	return out
}

func TestStreamSSEBareEvents(t *testing.T) {
	body := sseBody(
		`{"kind":"status-update","taskId":"t1","contextId":"c1","status":{"state":"working"},"final":false}`,
		`{"kind":"status-update","taskId":"t1","contextId":"c1","status":{"state":"completed"},"final":true}`,
	)

	items := collect(t, streamSSE(context.Background(), body, decodeBareEvent))
	require.Len(t, items, 2)
	for _, item := range items {
		require.NoError(t, item.Err)
	}
	last, ok := items[1].Event.(*a2a.TaskStatusUpdateEvent)
	require.True(t, ok)
	assert.True(t, last.Final)
	assert.Equal(t, a2a.TaskStateCompleted, last.Status.State)
}

func TestStreamSSEIgnoresCommentsAndFields(t *testing.T) {
	raw := ": keepalive\nevent: message\nid: 7\ndata: {\"kind\":\"message\",\"messageId\":\"m1\",\"role\":\"agent\",\"parts\":[]}\n\n"
	body := io.NopCloser(strings.NewReader(raw))

	items := collect(t, streamSSE(context.Background(), body, decodeBareEvent))
	require.Len(t, items, 1)
	require.NoError(t, items[0].Err)
	assert.Equal(t, a2a.KindMessage, items[0].Event.Kind())
}

func TestStreamSSELargeFrame(t *testing.T) {
	// Frames past bufio.Scanner's 64KB default must still parse.
	big := strings.Repeat("x", 128*1024)
	payload, err := json.Marshal(&a2a.Message{
		MessageID: "m1",
		Role:      a2a.MessageRoleAgent,
		Parts:     []a2a.Part{a2a.TextPart(big)},
	})
	require.NoError(t, err)

	items := collect(t, streamSSE(context.Background(), sseBody(string(payload)), decodeBareEvent))
	require.Len(t, items, 1)
	require.NoError(t, items[0].Err)
	msg := items[0].Event.(*a2a.Message)
	assert.Len(t, msg.Parts[0].Text, 128*1024)
}

func TestStreamSSEDecodeErrorTerminates(t *testing.T) {
	body := sseBody(
		`{"kind":"status-update","taskId":"t1","contextId":"c1","status":{"state":"working"}}`,
		`{"kind":"wat"}`,
		`{"kind":"status-update","taskId":"t1","contextId":"c1","status":{"state":"completed"},"final":true}`,
	)

	items := collect(t, streamSSE(context.Background(), body, decodeBareEvent))
	require.Len(t, items, 2)
	require.NoError(t, items[0].Err)
	assert.Error(t, items[1].Err)
}

func TestDecodeJSONRPCEvent(t *testing.T) {
	task := &a2a.Task{ID: "t1", ContextID: "c1", Status: a2a.TaskStatus{State: a2a.TaskStateSubmitted}}
	result, err := json.Marshal(task)
	require.NoError(t, err)
	frame, err := json.Marshal(&a2a.JSONRPCResponse{JSONRPC: "2.0", ID: "1", Result: result})
	require.NoError(t, err)

	ev, err := decodeJSONRPCEvent(frame)
	require.NoError(t, err)
	assert.Equal(t, a2a.KindTask, ev.Kind())
}

func TestDecodeJSONRPCEventEnvelopeError(t *testing.T) {
	frame := fmt.Sprintf(`{"jsonrpc":"2.0","id":"1","error":{"code":%d,"message":"task not found"}}`, a2a.CodeTaskNotFound)

	_, err := decodeJSONRPCEvent([]byte(frame))
	require.Error(t, err)
	assert.Equal(t, a2a.CodeTaskNotFound, a2a.CodeOf(err))
}

func TestStreamSSEContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	pr, pw := io.Pipe()

	ch := streamSSE(ctx, pr, decodeBareEvent)
	_, err := pw.Write([]byte("data: {\"kind\":\"message\",\"messageId\":\"m1\",\"role\":\"agent\",\"parts\":[]}\n\n"))
	require.NoError(t, err)
	<-ch

	cancel()
	_ = pw.CloseWithError(context.Canceled)
	for range ch {
		// drained without hanging
	}
}
