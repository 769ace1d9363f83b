package server

import (
	"context"

	"github.com/arcwire/arcwire/pkg/a2a"
	"github.com/arcwire/arcwire/pkg/grpcwire"
)

// GRPCService adapts the request handler to the gRPC service surface. Errors
// cross the wire as gRPC statuses carrying the RPC error code in the detail
// message.
type GRPCService struct {
	handler      RequestHandler
	card         *a2a.AgentCard
	extendedCard *a2a.AgentCard
}

// NewGRPCService creates the gRPC adapter. extendedCard may be nil; the
// GetAgentCard RPC then serves the public card.
func NewGRPCService(handler RequestHandler, card, extendedCard *a2a.AgentCard) *GRPCService {
	return &GRPCService{handler: handler, card: card, extendedCard: extendedCard}
}

// SendMessage implements grpcwire.A2AServiceServer.
func (s *GRPCService) SendMessage(ctx context.Context, in *a2a.MessageSendParams) (*grpcwire.EventEnvelope, error) {
	event, err := s.handler.OnMessageSend(ctx, in)
	if err != nil {
		return nil, grpcwire.StatusFromError(err)
	}
	return &grpcwire.EventEnvelope{Event: event}, nil
}

// SendStreamingMessage implements grpcwire.A2AServiceServer.
func (s *GRPCService) SendStreamingMessage(in *a2a.MessageSendParams, stream grpcwire.A2AService_StreamServer) error {
	events, err := s.handler.OnMessageSendStream(stream.Context(), in)
	if err != nil {
		return grpcwire.StatusFromError(err)
	}
	return s.pump(events, stream)
}

// GetTask implements grpcwire.A2AServiceServer.
func (s *GRPCService) GetTask(ctx context.Context, in *a2a.TaskQueryParams) (*a2a.Task, error) {
	task, err := s.handler.OnGetTask(ctx, in)
	if err != nil {
		return nil, grpcwire.StatusFromError(err)
	}
	return task, nil
}

// CancelTask implements grpcwire.A2AServiceServer.
func (s *GRPCService) CancelTask(ctx context.Context, in *a2a.TaskIDParams) (*a2a.Task, error) {
	task, err := s.handler.OnCancelTask(ctx, in)
	if err != nil {
		return nil, grpcwire.StatusFromError(err)
	}
	return task, nil
}

// TaskSubscription implements grpcwire.A2AServiceServer.
func (s *GRPCService) TaskSubscription(in *a2a.TaskIDParams, stream grpcwire.A2AService_StreamServer) error {
	events, err := s.handler.OnResubscribe(stream.Context(), in)
	if err != nil {
		return grpcwire.StatusFromError(err)
	}
	return s.pump(events, stream)
}

func (s *GRPCService) pump(events <-chan StreamItem, stream grpcwire.A2AService_StreamServer) error {
	for item := range events {
		if item.Err != nil {
			return grpcwire.StatusFromError(item.Err)
		}
		if err := stream.Send(&grpcwire.EventEnvelope{Event: item.Event}); err != nil {
			return err
		}
	}
	return nil
}

// SetTaskPushNotificationConfig implements grpcwire.A2AServiceServer.
func (s *GRPCService) SetTaskPushNotificationConfig(ctx context.Context, in *a2a.TaskPushNotificationConfig) (*a2a.TaskPushNotificationConfig, error) {
	cfg, err := s.handler.OnSetTaskPushConfig(ctx, in)
	if err != nil {
		return nil, grpcwire.StatusFromError(err)
	}
	return cfg, nil
}

// GetTaskPushNotificationConfig implements grpcwire.A2AServiceServer.
func (s *GRPCService) GetTaskPushNotificationConfig(ctx context.Context, in *a2a.GetTaskPushNotificationConfigParams) (*a2a.TaskPushNotificationConfig, error) {
	cfg, err := s.handler.OnGetTaskPushConfig(ctx, in)
	if err != nil {
		return nil, grpcwire.StatusFromError(err)
	}
	return cfg, nil
}

// ListTaskPushNotificationConfig implements grpcwire.A2AServiceServer.
func (s *GRPCService) ListTaskPushNotificationConfig(ctx context.Context, in *a2a.ListTaskPushNotificationConfigParams) (*grpcwire.ListTaskPushNotificationConfigResponse, error) {
	configs, err := s.handler.OnListTaskPushConfig(ctx, in)
	if err != nil {
		return nil, grpcwire.StatusFromError(err)
	}
	return &grpcwire.ListTaskPushNotificationConfigResponse{Configs: configs}, nil
}

// DeleteTaskPushNotificationConfig implements grpcwire.A2AServiceServer.
func (s *GRPCService) DeleteTaskPushNotificationConfig(ctx context.Context, in *a2a.DeleteTaskPushNotificationConfigParams) (*grpcwire.Empty, error) {
	if err := s.handler.OnDeleteTaskPushConfig(ctx, in); err != nil {
		return nil, grpcwire.StatusFromError(err)
	}
	return &grpcwire.Empty{}, nil
}

// GetAgentCard implements grpcwire.A2AServiceServer.
func (s *GRPCService) GetAgentCard(_ context.Context, _ *grpcwire.GetAgentCardRequest) (*a2a.AgentCard, error) {
	if s.extendedCard != nil {
		return s.extendedCard, nil
	}
	return s.card, nil
}
