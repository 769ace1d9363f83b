package a2a

import (
	"errors"
	"fmt"
)

// ============================================================================
// ERROR KINDS
// Transport-independent error taxonomy. Each transport maps these onto its
// own code space; the JSON-RPC codes in jsonrpc.go are the canonical one.
// ============================================================================

// HTTPError is a non-2xx response from a transport endpoint.
type HTTPError struct {
	Status int
	Msg    string
}

func (e *HTTPError) Error() string {
	if e.Msg == "" {
		return fmt.Sprintf("HTTP %d", e.Status)
	}
	return fmt.Sprintf("HTTP %d: %s", e.Status, e.Msg)
}

// JSONError is a malformed response body, SSE payload, or agent card.
type JSONError struct {
	Msg string
	Err error
}

func (e *JSONError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *JSONError) Unwrap() error { return e.Err }

// TimeoutError is a request that exceeded its deadline.
type TimeoutError struct {
	Msg string
	Err error
}

func (e *TimeoutError) Error() string {
	if e.Msg == "" {
		return "request timed out"
	}
	return e.Msg
}

func (e *TimeoutError) Unwrap() error { return e.Err }

// InvalidArgsError is a caller-side precondition failure.
type InvalidArgsError struct {
	Msg string
}

func (e *InvalidArgsError) Error() string { return e.Msg }

// InvalidStateError reports that the receiver is in a state incompatible with
// the requested operation, e.g. resubscribing when streaming is unsupported
// or a duplicate initial Task in a fold.
type InvalidStateError struct {
	Msg string
}

func (e *InvalidStateError) Error() string { return e.Msg }

// RPCError is a structured server-side error returned within an otherwise
// successful transport exchange. It doubles as the JSON-RPC error object.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// Constructors for the well-known A2A error codes.

func NewParseError(msg string) *RPCError {
	return &RPCError{Code: CodeParseError, Message: msg}
}

func NewInvalidRequestError(msg string) *RPCError {
	return &RPCError{Code: CodeInvalidRequest, Message: msg}
}

func NewMethodNotFoundError(method string) *RPCError {
	return &RPCError{Code: CodeMethodNotFound, Message: fmt.Sprintf("method not found: %s", method)}
}

func NewInvalidParamsError(msg string) *RPCError {
	return &RPCError{Code: CodeInvalidParams, Message: msg}
}

func NewInternalError(msg string) *RPCError {
	return &RPCError{Code: CodeInternalError, Message: msg}
}

func NewTaskNotFoundError(taskID string) *RPCError {
	return &RPCError{Code: CodeTaskNotFound, Message: "task not found", Data: taskID}
}

func NewConfigNotFoundError(configID string) *RPCError {
	return &RPCError{Code: CodeTaskNotFound, Message: "push notification config not found", Data: configID}
}

func NewTaskNotCancelableError(taskID string) *RPCError {
	return &RPCError{Code: CodeTaskNotCancelable, Message: "task not cancelable", Data: taskID}
}

func NewPushUnsupportedError() *RPCError {
	return &RPCError{Code: CodePushUnsupported, Message: "push notifications not supported"}
}

func NewExtendedCardNotConfiguredError() *RPCError {
	return &RPCError{Code: CodeExtendedCardNotConfigured, Message: "authenticated extended card not configured"}
}

// AsRPCError extracts an *RPCError from err's chain, wrapping unknown errors
// as internal errors so transports always have a code to emit.
func AsRPCError(err error) *RPCError {
	var rpcErr *RPCError
	if errors.As(err, &rpcErr) {
		return rpcErr
	}
	return NewInternalError(err.Error())
}

// CodeOf returns the RPC code carried by err, or CodeInternalError when the
// chain carries none.
func CodeOf(err error) int {
	return AsRPCError(err).Code
}
