package client

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"

	"github.com/arcwire/arcwire/pkg/a2a"
)

// sseDecoder turns one SSE data payload into an event. The JSON-RPC
// transport unwraps a response envelope first; REST frames carry the event
// directly.
type sseDecoder func(data []byte) (a2a.Event, error)

// streamSSE incrementally parses text/event-stream frames from body and
// emits decoded events. It never buffers more than one frame: lines are read
// as they arrive and dispatched at each blank-line frame boundary.
//
// bufio.Reader.ReadBytes is used instead of bufio.Scanner: Scanner's default
// 64KB line limit fails on large payloads such as base64-encoded file parts.
func streamSSE(ctx context.Context, body io.ReadCloser, decode sseDecoder) <-chan StreamEvent {
	out := make(chan StreamEvent, 8)

	go func() {
		defer close(out)
		defer body.Close()

		reader := bufio.NewReader(body)
		var data string
		var haveData bool

		emit := func(ev StreamEvent) bool {
			select {
			case out <- ev:
				return true
			case <-ctx.Done():
				return false
			}
		}

		for {
			line, err := reader.ReadBytes('\n')
			if len(line) > 0 {
				lineStr := strings.TrimRight(string(line), "\r\n")
				switch {
				case strings.HasPrefix(lineStr, "data:"):
					data = strings.TrimPrefix(strings.TrimPrefix(lineStr, "data:"), " ")
					haveData = true
				case lineStr == "" && haveData:
					ev, decErr := decode([]byte(data))
					data, haveData = "", false
					if decErr != nil {
						emit(StreamEvent{Err: decErr})
						return
					}
					if !emit(StreamEvent{Event: ev}) {
						return
					}
				default:
					// Comment lines and other fields (event:, id:, retry:)
					// are ignored; dispatch is by the kind discriminator in
					// the payload.
				}
			}
			if err != nil {
				if !errors.Is(err, io.EOF) && ctx.Err() == nil {
					slog.Debug("sse stream read error", "error", err)
					emit(StreamEvent{Err: &a2a.JSONError{Msg: "sse stream read failed", Err: err}})
				}
				return
			}
		}
	}()

	return out
}

// decodeBareEvent decodes a frame that carries a kind-discriminated event
// directly (REST streaming).
func decodeBareEvent(data []byte) (a2a.Event, error) {
	return a2a.UnmarshalEvent(data)
}

// decodeJSONRPCEvent decodes a frame wrapped in a JSON-RPC response envelope
// (JSON-RPC streaming). A server-side error in the envelope terminates the
// stream with that error.
func decodeJSONRPCEvent(data []byte) (a2a.Event, error) {
	var resp a2a.JSONRPCResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, &a2a.JSONError{Msg: "malformed sse frame", Err: err}
	}
	if resp.Error != nil {
		return nil, resp.Error
	}
	return a2a.UnmarshalEvent(resp.Result)
}
