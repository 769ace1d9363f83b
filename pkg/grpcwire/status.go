package grpcwire

import (
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/arcwire/arcwire/pkg/a2a"
)

// StatusFromError maps the A2A error taxonomy onto gRPC status codes for the
// server side of the transport.
func StatusFromError(err error) error {
	if err == nil {
		return nil
	}
	rpcErr := a2a.AsRPCError(err)
	var code codes.Code
	switch rpcErr.Code {
	case a2a.CodeTaskNotFound:
		code = codes.NotFound
	case a2a.CodeTaskNotCancelable:
		code = codes.FailedPrecondition
	case a2a.CodeInvalidParams, a2a.CodeInvalidRequest, a2a.CodeParseError:
		code = codes.InvalidArgument
	case a2a.CodeMethodNotFound, a2a.CodePushUnsupported, a2a.CodeUnsupportedOperation, a2a.CodeExtendedCardNotConfigured:
		code = codes.Unimplemented
	default:
		code = codes.Internal
	}
	return status.Error(code, rpcErr.Message)
}

// ErrorFromStatus is the client-side inverse: a gRPC status becomes the
// matching RPCError so callers see one error space across transports.
func ErrorFromStatus(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	switch st.Code() {
	case codes.NotFound:
		return &a2a.RPCError{Code: a2a.CodeTaskNotFound, Message: st.Message()}
	case codes.FailedPrecondition:
		return &a2a.RPCError{Code: a2a.CodeTaskNotCancelable, Message: st.Message()}
	case codes.InvalidArgument:
		return &a2a.RPCError{Code: a2a.CodeInvalidParams, Message: st.Message()}
	case codes.Unimplemented:
		return &a2a.RPCError{Code: a2a.CodeMethodNotFound, Message: st.Message()}
	case codes.DeadlineExceeded:
		return &a2a.TimeoutError{Msg: st.Message()}
	case codes.Canceled:
		return err
	default:
		return &a2a.RPCError{Code: a2a.CodeInternalError, Message: st.Message()}
	}
}
