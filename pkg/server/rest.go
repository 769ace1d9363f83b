package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/arcwire/arcwire/pkg/a2a"
)

// RESTServer exposes the request handler over the HTTP+JSON mapping.
// Streaming endpoints emit bare events as SSE frames, without the JSON-RPC
// envelope.
type RESTServer struct {
	handler      RequestHandler
	extendedCard *a2a.AgentCard
	log          *slog.Logger
}

// NewRESTServer creates the REST endpoint set. extendedCard may be nil.
func NewRESTServer(handler RequestHandler, extendedCard *a2a.AgentCard) *RESTServer {
	return &RESTServer{
		handler:      handler,
		extendedCard: extendedCard,
		log:          slog.Default().With("component", "rest_server"),
	}
}

// Routes mounts every REST route on a chi router. The colon-suffixed custom
// methods use a regex param so `{id}` never swallows the verb.
func (s *RESTServer) Routes(r chi.Router) {
	r.Post("/v1/message:send", s.handleSendMessage)
	r.Post("/v1/message:stream", s.handleStreamMessage)
	r.Get(`/v1/tasks/{id:[^:]+}`, s.handleGetTask)
	r.Post(`/v1/tasks/{id:[^:]+}:cancel`, s.handleCancelTask)
	r.Get(`/v1/tasks/{id:[^:]+}:subscribe`, s.handleSubscribe)
	r.Post(`/v1/tasks/{id:[^:]+}/pushNotificationConfigs`, s.handleSetPushConfig)
	r.Get(`/v1/tasks/{id:[^:]+}/pushNotificationConfigs`, s.handleListPushConfigs)
	r.Get(`/v1/tasks/{id:[^:]+}/pushNotificationConfigs/{configId}`, s.handleGetPushConfig)
	r.Delete(`/v1/tasks/{id:[^:]+}/pushNotificationConfigs/{configId}`, s.handleDeletePushConfig)
	r.Get("/v1/card", s.handleExtendedCard)
}

func (s *RESTServer) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	var params a2a.MessageSendParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		s.writeError(w, a2a.NewParseError(err.Error()))
		return
	}
	event, err := s.handler.OnMessageSend(r.Context(), &params)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, event)
}

func (s *RESTServer) handleStreamMessage(w http.ResponseWriter, r *http.Request) {
	var params a2a.MessageSendParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		s.writeError(w, a2a.NewParseError(err.Error()))
		return
	}
	stream, err := s.handler.OnMessageSendStream(r.Context(), &params)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.streamEvents(w, stream)
}

func (s *RESTServer) handleGetTask(w http.ResponseWriter, r *http.Request) {
	params := a2a.TaskQueryParams{ID: chi.URLParam(r, "id")}
	if v := r.URL.Query().Get("historyLength"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			s.writeError(w, a2a.NewInvalidParamsError("historyLength must be an integer"))
			return
		}
		params.HistoryLength = n
	}
	task, err := s.handler.OnGetTask(r.Context(), &params)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, task)
}

func (s *RESTServer) handleCancelTask(w http.ResponseWriter, r *http.Request) {
	task, err := s.handler.OnCancelTask(r.Context(), &a2a.TaskIDParams{ID: chi.URLParam(r, "id")})
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, task)
}

func (s *RESTServer) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	stream, err := s.handler.OnResubscribe(r.Context(), &a2a.TaskIDParams{ID: chi.URLParam(r, "id")})
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.streamEvents(w, stream)
}

func (s *RESTServer) handleSetPushConfig(w http.ResponseWriter, r *http.Request) {
	var cfg a2a.TaskPushNotificationConfig
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		s.writeError(w, a2a.NewParseError(err.Error()))
		return
	}
	cfg.TaskID = chi.URLParam(r, "id")
	saved, err := s.handler.OnSetTaskPushConfig(r.Context(), &cfg)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, saved)
}

func (s *RESTServer) handleGetPushConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.handler.OnGetTaskPushConfig(r.Context(), &a2a.GetTaskPushNotificationConfigParams{
		ID:                       chi.URLParam(r, "id"),
		PushNotificationConfigID: chi.URLParam(r, "configId"),
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, cfg)
}

func (s *RESTServer) handleListPushConfigs(w http.ResponseWriter, r *http.Request) {
	configs, err := s.handler.OnListTaskPushConfig(r.Context(), &a2a.ListTaskPushNotificationConfigParams{
		ID: chi.URLParam(r, "id"),
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, configs)
}

func (s *RESTServer) handleDeletePushConfig(w http.ResponseWriter, r *http.Request) {
	err := s.handler.OnDeleteTaskPushConfig(r.Context(), &a2a.DeleteTaskPushNotificationConfigParams{
		ID:                       chi.URLParam(r, "id"),
		PushNotificationConfigID: chi.URLParam(r, "configId"),
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *RESTServer) handleExtendedCard(w http.ResponseWriter, r *http.Request) {
	if s.extendedCard == nil {
		s.writeError(w, a2a.NewExtendedCardNotConfiguredError())
		return
	}
	s.writeJSON(w, s.extendedCard)
}

func (s *RESTServer) streamEvents(w http.ResponseWriter, stream <-chan StreamItem) {
	sse, err := newSSEWriter(w)
	if err != nil {
		s.writeError(w, a2a.NewInternalError(err.Error()))
		return
	}
	for item := range stream {
		if item.Err != nil {
			// Headers are out; deliver the error as the final frame.
			_ = sse.Send(a2a.AsRPCError(item.Err))
			return
		}
		if err := sse.Send(item.Event); err != nil {
			s.log.Debug("stream write failed, client likely gone", "error", err)
			return
		}
	}
}

func (s *RESTServer) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func (s *RESTServer) writeError(w http.ResponseWriter, err error) {
	rpcErr := a2a.AsRPCError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatusFor(rpcErr.Code))
	_ = json.NewEncoder(w).Encode(rpcErr)
}

// httpStatusFor maps RPC error codes onto the REST status line.
func httpStatusFor(code int) int {
	switch code {
	case a2a.CodeParseError, a2a.CodeInvalidRequest, a2a.CodeInvalidParams:
		return http.StatusBadRequest
	case a2a.CodeTaskNotFound, a2a.CodeExtendedCardNotConfigured:
		return http.StatusNotFound
	case a2a.CodeTaskNotCancelable:
		return http.StatusConflict
	case a2a.CodeMethodNotFound:
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}
