// Package grpcwire defines the gRPC projection of the A2A operation set: the
// service descriptor, the stream interfaces, and a JSON codec so the native
// data model travels the wire without generated protobuf artifacts.
package grpcwire

import (
	"encoding/json"

	"google.golang.org/grpc/encoding"

	"github.com/arcwire/arcwire/pkg/a2a"
)

// CodecName is the gRPC content-subtype both peers select.
const CodecName = "a2a-json"

// Codec marshals the native A2A types as JSON. Registered for the
// "application/grpc+a2a-json" content subtype on import.
type Codec struct{}

// Marshal implements encoding.Codec.
func (Codec) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

// Unmarshal implements encoding.Codec.
func (Codec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

// Name implements encoding.Codec.
func (Codec) Name() string { return CodecName }

func init() {
	encoding.RegisterCodec(Codec{})
}

// EventEnvelope carries the kind-discriminated event union (Task, Message,
// status update, artifact update) as a concrete wire message.
type EventEnvelope struct {
	Event a2a.Event
}

// MarshalJSON emits the wrapped event with its kind discriminator.
func (e EventEnvelope) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.Event)
}

// UnmarshalJSON dispatches on the kind discriminator.
func (e *EventEnvelope) UnmarshalJSON(data []byte) error {
	ev, err := a2a.UnmarshalEvent(data)
	if err != nil {
		return err
	}
	e.Event = ev
	return nil
}

// ListTaskPushNotificationConfigResponse wraps the config list.
type ListTaskPushNotificationConfigResponse struct {
	Configs []a2a.TaskPushNotificationConfig `json:"configs"`
}

// GetAgentCardRequest has no fields; the card returned is the authenticated
// extended card when one is configured.
type GetAgentCardRequest struct{}

// Empty is the reply of operations with no payload.
type Empty struct{}
