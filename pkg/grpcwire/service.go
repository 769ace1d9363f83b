package grpcwire

import (
	"context"

	"google.golang.org/grpc"

	"github.com/arcwire/arcwire/pkg/a2a"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "a2a.v1.A2AService"

// Fully qualified method names, as used by interceptors and stats handlers.
const (
	MethodSendMessage          = "/" + ServiceName + "/SendMessage"
	MethodSendStreamingMessage = "/" + ServiceName + "/SendStreamingMessage"
	MethodGetTask              = "/" + ServiceName + "/GetTask"
	MethodCancelTask           = "/" + ServiceName + "/CancelTask"
	MethodTaskSubscription     = "/" + ServiceName + "/TaskSubscription"
	MethodSetPushConfig        = "/" + ServiceName + "/SetTaskPushNotificationConfig"
	MethodGetPushConfig        = "/" + ServiceName + "/GetTaskPushNotificationConfig"
	MethodListPushConfigs      = "/" + ServiceName + "/ListTaskPushNotificationConfig"
	MethodDeletePushConfig     = "/" + ServiceName + "/DeleteTaskPushNotificationConfig"
	MethodGetAgentCard         = "/" + ServiceName + "/GetAgentCard"
)

// A2AServiceServer is the server-side API of the gRPC transport.
type A2AServiceServer interface {
	SendMessage(ctx context.Context, in *a2a.MessageSendParams) (*EventEnvelope, error)
	SendStreamingMessage(in *a2a.MessageSendParams, stream A2AService_StreamServer) error
	GetTask(ctx context.Context, in *a2a.TaskQueryParams) (*a2a.Task, error)
	CancelTask(ctx context.Context, in *a2a.TaskIDParams) (*a2a.Task, error)
	TaskSubscription(in *a2a.TaskIDParams, stream A2AService_StreamServer) error
	SetTaskPushNotificationConfig(ctx context.Context, in *a2a.TaskPushNotificationConfig) (*a2a.TaskPushNotificationConfig, error)
	GetTaskPushNotificationConfig(ctx context.Context, in *a2a.GetTaskPushNotificationConfigParams) (*a2a.TaskPushNotificationConfig, error)
	ListTaskPushNotificationConfig(ctx context.Context, in *a2a.ListTaskPushNotificationConfigParams) (*ListTaskPushNotificationConfigResponse, error)
	DeleteTaskPushNotificationConfig(ctx context.Context, in *a2a.DeleteTaskPushNotificationConfigParams) (*Empty, error)
	GetAgentCard(ctx context.Context, in *GetAgentCardRequest) (*a2a.AgentCard, error)
}

// A2AService_StreamServer is the server view of the two server-streaming
// methods; every sent envelope is one task event.
type A2AService_StreamServer interface {
	Send(*EventEnvelope) error
	grpc.ServerStream
}

type streamServer struct {
	grpc.ServerStream
}

func (s *streamServer) Send(e *EventEnvelope) error {
	return s.ServerStream.SendMsg(e)
}

// RegisterA2AServiceServer registers srv on s under ServiceName.
func RegisterA2AServiceServer(s grpc.ServiceRegistrar, srv A2AServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}

func sendMessageHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(a2a.MessageSendParams)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(A2AServiceServer).SendMessage(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: MethodSendMessage}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(A2AServiceServer).SendMessage(ctx, req.(*a2a.MessageSendParams))
	}
	return interceptor(ctx, in, info, handler)
}

func getTaskHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(a2a.TaskQueryParams)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(A2AServiceServer).GetTask(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: MethodGetTask}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(A2AServiceServer).GetTask(ctx, req.(*a2a.TaskQueryParams))
	}
	return interceptor(ctx, in, info, handler)
}

func cancelTaskHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(a2a.TaskIDParams)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(A2AServiceServer).CancelTask(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: MethodCancelTask}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(A2AServiceServer).CancelTask(ctx, req.(*a2a.TaskIDParams))
	}
	return interceptor(ctx, in, info, handler)
}

func setPushConfigHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(a2a.TaskPushNotificationConfig)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(A2AServiceServer).SetTaskPushNotificationConfig(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: MethodSetPushConfig}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(A2AServiceServer).SetTaskPushNotificationConfig(ctx, req.(*a2a.TaskPushNotificationConfig))
	}
	return interceptor(ctx, in, info, handler)
}

func getPushConfigHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(a2a.GetTaskPushNotificationConfigParams)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(A2AServiceServer).GetTaskPushNotificationConfig(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: MethodGetPushConfig}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(A2AServiceServer).GetTaskPushNotificationConfig(ctx, req.(*a2a.GetTaskPushNotificationConfigParams))
	}
	return interceptor(ctx, in, info, handler)
}

func listPushConfigsHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(a2a.ListTaskPushNotificationConfigParams)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(A2AServiceServer).ListTaskPushNotificationConfig(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: MethodListPushConfigs}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(A2AServiceServer).ListTaskPushNotificationConfig(ctx, req.(*a2a.ListTaskPushNotificationConfigParams))
	}
	return interceptor(ctx, in, info, handler)
}

func deletePushConfigHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(a2a.DeleteTaskPushNotificationConfigParams)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(A2AServiceServer).DeleteTaskPushNotificationConfig(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: MethodDeletePushConfig}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(A2AServiceServer).DeleteTaskPushNotificationConfig(ctx, req.(*a2a.DeleteTaskPushNotificationConfigParams))
	}
	return interceptor(ctx, in, info, handler)
}

func getAgentCardHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(GetAgentCardRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(A2AServiceServer).GetAgentCard(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: MethodGetAgentCard}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(A2AServiceServer).GetAgentCard(ctx, req.(*GetAgentCardRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func sendStreamingMessageHandler(srv any, stream grpc.ServerStream) error {
	in := new(a2a.MessageSendParams)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(A2AServiceServer).SendStreamingMessage(in, &streamServer{stream})
}

func taskSubscriptionHandler(srv any, stream grpc.ServerStream) error {
	in := new(a2a.TaskIDParams)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(A2AServiceServer).TaskSubscription(in, &streamServer{stream})
}

// ServiceDesc wires the handler table for grpc.Server registration.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*A2AServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "SendMessage", Handler: sendMessageHandler},
		{MethodName: "GetTask", Handler: getTaskHandler},
		{MethodName: "CancelTask", Handler: cancelTaskHandler},
		{MethodName: "SetTaskPushNotificationConfig", Handler: setPushConfigHandler},
		{MethodName: "GetTaskPushNotificationConfig", Handler: getPushConfigHandler},
		{MethodName: "ListTaskPushNotificationConfig", Handler: listPushConfigsHandler},
		{MethodName: "DeleteTaskPushNotificationConfig", Handler: deletePushConfigHandler},
		{MethodName: "GetAgentCard", Handler: getAgentCardHandler},
	},
	Streams: []grpc.StreamDesc{
		{StreamName: "SendStreamingMessage", Handler: sendStreamingMessageHandler, ServerStreams: true},
		{StreamName: "TaskSubscription", Handler: taskSubscriptionHandler, ServerStreams: true},
	},
}
