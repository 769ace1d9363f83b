package a2a

import "encoding/json"

// ============================================================================
// JSON-RPC 2.0 ENVELOPE
// The JSON-RPC transport wraps every call in this envelope; the REST and gRPC
// transports reuse the error-code space where a structured code is needed.
// ============================================================================

// JSON-RPC method names.
const (
	MethodMessageSend      = "message/send"
	MethodMessageStream    = "message/stream"
	MethodTasksGet         = "tasks/get"
	MethodTasksCancel      = "tasks/cancel"
	MethodTasksResubscribe = "tasks/resubscribe"
	MethodPushConfigSet    = "tasks/pushNotificationConfig/set"
	MethodPushConfigGet    = "tasks/pushNotificationConfig/get"
	MethodPushConfigList   = "tasks/pushNotificationConfig/list"
	MethodPushConfigDelete = "tasks/pushNotificationConfig/delete"
	MethodGetExtendedCard  = "agent/getAuthenticatedExtendedCard"
)

// Standard JSON-RPC codes plus the A2A-specific range.
const (
	CodeParseError                = -32700
	CodeInvalidRequest            = -32600
	CodeMethodNotFound            = -32601
	CodeInvalidParams             = -32602
	CodeInternalError             = -32603
	CodeTaskNotFound              = -32001
	CodeTaskNotCancelable         = -32002
	CodePushUnsupported           = -32003
	CodeUnsupportedOperation      = -32004
	CodeContentTypeNotSupported   = -32005
	CodeInvalidAgentResponse      = -32006
	CodeExtendedCardNotConfigured = -32007
)

// JSONRPCRequest is an incoming or outgoing JSON-RPC 2.0 call.
type JSONRPCRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      any             `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// JSONRPCResponse is the reply to a JSONRPCRequest: exactly one of Result and
// Error is set.
type JSONRPCResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      any             `json:"id,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

// NewJSONRPCRequest builds a versioned request with marshaled params.
func NewJSONRPCRequest(id any, method string, params any) (*JSONRPCRequest, error) {
	req := &JSONRPCRequest{JSONRPC: "2.0", ID: id, Method: method}
	if params != nil {
		raw, err := json.Marshal(params)
		if err != nil {
			return nil, &JSONError{Msg: "failed to marshal params", Err: err}
		}
		req.Params = raw
	}
	return req, nil
}
