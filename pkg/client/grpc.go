package client

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"

	"github.com/arcwire/arcwire/pkg/a2a"
	"github.com/arcwire/arcwire/pkg/grpcwire"
)

// GRPCTransport projects the operation set onto the a2a.v1.A2AService gRPC
// service, using server streaming for the two streaming operations.
type GRPCTransport struct {
	conn         *grpc.ClientConn
	card         *a2a.AgentCard
	interceptors []Interceptor
	timeout      time.Duration
	callOpts     []grpc.CallOption
}

// NewGRPCTransport dials target (host:port, no scheme) without transport
// security; callers needing TLS supply their own dial options through
// NewGRPCTransportFromConn.
func NewGRPCTransport(target string, card *a2a.AgentCard, opts TransportOpts) (*GRPCTransport, error) {
	target = strings.TrimPrefix(strings.TrimPrefix(target, "grpc://"), "dns:///")
	conn, err := grpc.NewClient(target, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, err
	}
	return NewGRPCTransportFromConn(conn, card, opts), nil
}

// NewGRPCTransportFromConn wraps an established connection.
func NewGRPCTransportFromConn(conn *grpc.ClientConn, card *a2a.AgentCard, opts TransportOpts) *GRPCTransport {
	return &GRPCTransport{
		conn:         conn,
		card:         card,
		interceptors: opts.Interceptors,
		timeout:      opts.Timeout,
		callOpts:     []grpc.CallOption{grpc.CallContentSubtype(grpcwire.CodecName)},
	}
}

// withOutgoingMetadata lowers the interceptor-populated headers into gRPC
// metadata, including the x-a2a-extensions key.
func withOutgoingMetadata(ctx context.Context, req *Request) context.Context {
	if len(req.Header) == 0 {
		return ctx
	}
	pairs := make([]string, 0, len(req.Header)*2)
	for k, vals := range req.Header {
		for _, v := range vals {
			pairs = append(pairs, strings.ToLower(k), v)
		}
	}
	return metadata.AppendToOutgoingContext(ctx, pairs...)
}

func (t *GRPCTransport) invoke(ctx context.Context, method string, in, out any, call *CallContext) error {
	req, err := applyInterceptors(ctx, t.interceptors, method, in, t.card, call, t.timeout)
	if err != nil {
		return err
	}
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}
	ctx = withOutgoingMetadata(ctx, req)
	if err := t.conn.Invoke(ctx, method, req.Payload, out, t.callOpts...); err != nil {
		return grpcwire.ErrorFromStatus(err)
	}
	return nil
}

func (t *GRPCTransport) openStream(ctx context.Context, desc *grpc.StreamDesc, method string, in any, call *CallContext) (<-chan StreamEvent, error) {
	req, err := applyInterceptors(ctx, t.interceptors, method, in, t.card, call, 0)
	if err != nil {
		return nil, err
	}
	ctx = withOutgoingMetadata(ctx, req)

	stream, err := t.conn.NewStream(ctx, desc, method, t.callOpts...)
	if err != nil {
		return nil, grpcwire.ErrorFromStatus(err)
	}
	if err := stream.SendMsg(req.Payload); err != nil {
		return nil, grpcwire.ErrorFromStatus(err)
	}
	if err := stream.CloseSend(); err != nil {
		return nil, grpcwire.ErrorFromStatus(err)
	}

	out := make(chan StreamEvent, 8)
	go func() {
		defer close(out)
		for {
			var env grpcwire.EventEnvelope
			if err := stream.RecvMsg(&env); err != nil {
				if !errors.Is(err, io.EOF) && ctx.Err() == nil {
					select {
					case out <- StreamEvent{Err: grpcwire.ErrorFromStatus(err)}:
					case <-ctx.Done():
					}
				}
				return
			}
			select {
			case out <- StreamEvent{Event: env.Event}:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// SendMessage implements Transport.
func (t *GRPCTransport) SendMessage(ctx context.Context, params *a2a.MessageSendParams, call *CallContext) (a2a.Event, error) {
	var env grpcwire.EventEnvelope
	if err := t.invoke(ctx, grpcwire.MethodSendMessage, params, &env, call); err != nil {
		return nil, err
	}
	return env.Event, nil
}

// SendMessageStreaming implements Transport.
func (t *GRPCTransport) SendMessageStreaming(ctx context.Context, params *a2a.MessageSendParams, call *CallContext) (<-chan StreamEvent, error) {
	desc := &grpc.StreamDesc{StreamName: "SendStreamingMessage", ServerStreams: true}
	return t.openStream(ctx, desc, grpcwire.MethodSendStreamingMessage, params, call)
}

// GetTask implements Transport.
func (t *GRPCTransport) GetTask(ctx context.Context, params *a2a.TaskQueryParams, call *CallContext) (*a2a.Task, error) {
	var task a2a.Task
	if err := t.invoke(ctx, grpcwire.MethodGetTask, params, &task, call); err != nil {
		return nil, err
	}
	return &task, nil
}

// CancelTask implements Transport.
func (t *GRPCTransport) CancelTask(ctx context.Context, params *a2a.TaskIDParams, call *CallContext) (*a2a.Task, error) {
	var task a2a.Task
	if err := t.invoke(ctx, grpcwire.MethodCancelTask, params, &task, call); err != nil {
		return nil, err
	}
	return &task, nil
}

// SetTaskCallback implements Transport.
func (t *GRPCTransport) SetTaskCallback(ctx context.Context, cfg *a2a.TaskPushNotificationConfig, call *CallContext) (*a2a.TaskPushNotificationConfig, error) {
	var out a2a.TaskPushNotificationConfig
	if err := t.invoke(ctx, grpcwire.MethodSetPushConfig, cfg, &out, call); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetTaskCallback implements Transport.
func (t *GRPCTransport) GetTaskCallback(ctx context.Context, params *a2a.GetTaskPushNotificationConfigParams, call *CallContext) (*a2a.TaskPushNotificationConfig, error) {
	var out a2a.TaskPushNotificationConfig
	if err := t.invoke(ctx, grpcwire.MethodGetPushConfig, params, &out, call); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListTaskCallbacks implements Transport.
func (t *GRPCTransport) ListTaskCallbacks(ctx context.Context, params *a2a.ListTaskPushNotificationConfigParams, call *CallContext) ([]a2a.TaskPushNotificationConfig, error) {
	var out grpcwire.ListTaskPushNotificationConfigResponse
	if err := t.invoke(ctx, grpcwire.MethodListPushConfigs, params, &out, call); err != nil {
		return nil, err
	}
	return out.Configs, nil
}

// DeleteTaskCallback implements Transport.
func (t *GRPCTransport) DeleteTaskCallback(ctx context.Context, params *a2a.DeleteTaskPushNotificationConfigParams, call *CallContext) error {
	var out grpcwire.Empty
	return t.invoke(ctx, grpcwire.MethodDeletePushConfig, params, &out, call)
}

// Resubscribe implements Transport.
func (t *GRPCTransport) Resubscribe(ctx context.Context, params *a2a.TaskIDParams, call *CallContext) (<-chan StreamEvent, error) {
	desc := &grpc.StreamDesc{StreamName: "TaskSubscription", ServerStreams: true}
	return t.openStream(ctx, desc, grpcwire.MethodTaskSubscription, params, call)
}

// GetCard implements Transport.
func (t *GRPCTransport) GetCard(ctx context.Context, call *CallContext) (*a2a.AgentCard, error) {
	var card a2a.AgentCard
	if err := t.invoke(ctx, grpcwire.MethodGetAgentCard, &grpcwire.GetAgentCardRequest{}, &card, call); err != nil {
		return nil, err
	}
	return &card, nil
}

// Close implements Transport.
func (t *GRPCTransport) Close() error {
	return t.conn.Close()
}
