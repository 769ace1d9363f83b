package server

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/arcwire/arcwire/pkg/a2a"
)

// JSONRPCServer exposes the request handler as a JSON-RPC 2.0 endpoint at
// the service root. Streaming methods respond with text/event-stream where
// every frame is a complete JSON-RPC response envelope.
type JSONRPCServer struct {
	handler      RequestHandler
	card         *a2a.AgentCard
	extendedCard *a2a.AgentCard
	log          *slog.Logger
}

// NewJSONRPCServer creates the JSON-RPC endpoint. extendedCard may be nil
// when no authenticated extended card is offered.
func NewJSONRPCServer(handler RequestHandler, card, extendedCard *a2a.AgentCard) *JSONRPCServer {
	return &JSONRPCServer{
		handler:      handler,
		card:         card,
		extendedCard: extendedCard,
		log:          slog.Default().With("component", "jsonrpc_server"),
	}
}

// ServeHTTP implements http.Handler.
func (s *JSONRPCServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		s.writeError(w, nil, a2a.NewParseError("failed to read request body"))
		return
	}
	defer r.Body.Close()

	var req a2a.JSONRPCRequest
	if err := json.Unmarshal(body, &req); err != nil {
		s.writeError(w, nil, a2a.NewParseError(err.Error()))
		return
	}
	if req.JSONRPC != "2.0" {
		s.writeError(w, req.ID, a2a.NewInvalidRequestError("jsonrpc must be \"2.0\""))
		return
	}
	if req.Method == "" {
		s.writeError(w, req.ID, a2a.NewInvalidRequestError("method is required"))
		return
	}

	switch req.Method {
	case a2a.MethodMessageStream:
		s.streamMethod(w, r, &req, func() (<-chan StreamItem, error) {
			var params a2a.MessageSendParams
			if err := unmarshalParams(req.Params, &params); err != nil {
				return nil, err
			}
			return s.handler.OnMessageSendStream(r.Context(), &params)
		})
	case a2a.MethodTasksResubscribe:
		s.streamMethod(w, r, &req, func() (<-chan StreamItem, error) {
			var params a2a.TaskIDParams
			if err := unmarshalParams(req.Params, &params); err != nil {
				return nil, err
			}
			return s.handler.OnResubscribe(r.Context(), &params)
		})
	default:
		result, err := s.dispatch(r, &req)
		if err != nil {
			s.writeError(w, req.ID, err)
			return
		}
		s.writeResult(w, req.ID, result)
	}
}

func (s *JSONRPCServer) dispatch(r *http.Request, req *a2a.JSONRPCRequest) (any, error) {
	ctx := r.Context()
	switch req.Method {
	case a2a.MethodMessageSend:
		var params a2a.MessageSendParams
		if err := unmarshalParams(req.Params, &params); err != nil {
			return nil, err
		}
		return s.handler.OnMessageSend(ctx, &params)

	case a2a.MethodTasksGet:
		var params a2a.TaskQueryParams
		if err := unmarshalParams(req.Params, &params); err != nil {
			return nil, err
		}
		return s.handler.OnGetTask(ctx, &params)

	case a2a.MethodTasksCancel:
		var params a2a.TaskIDParams
		if err := unmarshalParams(req.Params, &params); err != nil {
			return nil, err
		}
		return s.handler.OnCancelTask(ctx, &params)

	case a2a.MethodPushConfigSet:
		var cfg a2a.TaskPushNotificationConfig
		if err := unmarshalParams(req.Params, &cfg); err != nil {
			return nil, err
		}
		return s.handler.OnSetTaskPushConfig(ctx, &cfg)

	case a2a.MethodPushConfigGet:
		var params a2a.GetTaskPushNotificationConfigParams
		if err := unmarshalParams(req.Params, &params); err != nil {
			return nil, err
		}
		return s.handler.OnGetTaskPushConfig(ctx, &params)

	case a2a.MethodPushConfigList:
		var params a2a.ListTaskPushNotificationConfigParams
		if err := unmarshalParams(req.Params, &params); err != nil {
			return nil, err
		}
		return s.handler.OnListTaskPushConfig(ctx, &params)

	case a2a.MethodPushConfigDelete:
		var params a2a.DeleteTaskPushNotificationConfigParams
		if err := unmarshalParams(req.Params, &params); err != nil {
			return nil, err
		}
		if err := s.handler.OnDeleteTaskPushConfig(ctx, &params); err != nil {
			return nil, err
		}
		return map[string]any{}, nil

	case a2a.MethodGetExtendedCard:
		if s.extendedCard == nil {
			return nil, a2a.NewExtendedCardNotConfiguredError()
		}
		return s.extendedCard, nil

	default:
		return nil, a2a.NewMethodNotFoundError(req.Method)
	}
}

// streamMethod runs a streaming operation over SSE. Each event becomes a
// success envelope frame; a stream error becomes the final frame as an error
// envelope.
func (s *JSONRPCServer) streamMethod(w http.ResponseWriter, r *http.Request, req *a2a.JSONRPCRequest, open func() (<-chan StreamItem, error)) {
	stream, err := open()
	if err != nil {
		s.writeError(w, req.ID, err)
		return
	}

	sse, err := newSSEWriter(w)
	if err != nil {
		s.writeError(w, req.ID, a2a.NewInternalError(err.Error()))
		return
	}

	for item := range stream {
		var frame a2a.JSONRPCResponse
		frame.JSONRPC = "2.0"
		frame.ID = req.ID
		if item.Err != nil {
			frame.Error = a2a.AsRPCError(item.Err)
		} else {
			result, err := json.Marshal(item.Event)
			if err != nil {
				frame.Error = a2a.NewInternalError(err.Error())
			} else {
				frame.Result = result
			}
		}
		if err := sse.Send(&frame); err != nil {
			s.log.Debug("stream write failed, client likely gone", "error", err)
			return
		}
		if frame.Error != nil {
			return
		}
	}
}

func (s *JSONRPCServer) writeResult(w http.ResponseWriter, id any, result any) {
	raw, err := json.Marshal(result)
	if err != nil {
		s.writeError(w, id, a2a.NewInternalError(err.Error()))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(&a2a.JSONRPCResponse{
		JSONRPC: "2.0",
		ID:      id,
		Result:  raw,
	})
}

func (s *JSONRPCServer) writeError(w http.ResponseWriter, id any, err error) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(&a2a.JSONRPCResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error:   a2a.AsRPCError(err),
	})
}

func unmarshalParams(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return a2a.NewInvalidParamsError("params are required")
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return a2a.NewInvalidParamsError(err.Error())
	}
	return nil
}
