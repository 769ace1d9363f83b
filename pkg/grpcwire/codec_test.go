package grpcwire

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/encoding"

	"github.com/arcwire/arcwire/pkg/a2a"
)

func TestCodecRegistered(t *testing.T) {
	codec := encoding.GetCodec(CodecName)
	require.NotNil(t, codec)
	assert.Equal(t, CodecName, codec.Name())
}

func TestCodecRoundTrip(t *testing.T) {
	task := &a2a.Task{
		ID:        "t1",
		ContextID: "c1",
		Status:    a2a.TaskStatus{State: a2a.TaskStateWorking},
	}
	data, err := Codec{}.Marshal(task)
	require.NoError(t, err)

	var decoded a2a.Task
	require.NoError(t, Codec{}.Unmarshal(data, &decoded))
	assert.Equal(t, task.ID, decoded.ID)
	assert.Equal(t, a2a.TaskStateWorking, decoded.Status.State)
}

func TestEventEnvelopeDispatch(t *testing.T) {
	events := []a2a.Event{
		&a2a.Task{ID: "t1", Status: a2a.TaskStatus{State: a2a.TaskStateSubmitted}},
		&a2a.Message{MessageID: "m1", Role: a2a.MessageRoleAgent},
		&a2a.TaskStatusUpdateEvent{TaskID: "t1", Status: a2a.TaskStatus{State: a2a.TaskStateWorking}},
		&a2a.TaskArtifactUpdateEvent{TaskID: "t1", Artifact: a2a.Artifact{ArtifactID: "a1"}},
	}
	for _, ev := range events {
		t.Run(ev.Kind(), func(t *testing.T) {
			data, err := json.Marshal(EventEnvelope{Event: ev})
			require.NoError(t, err)

			var envelope EventEnvelope
			require.NoError(t, json.Unmarshal(data, &envelope))
			assert.Equal(t, ev.Kind(), envelope.Event.Kind())
			assert.IsType(t, ev, envelope.Event)
		})
	}
}

func TestEventEnvelopeRejectsUnknownKind(t *testing.T) {
	var envelope EventEnvelope
	err := json.Unmarshal([]byte(`{"kind":"mystery"}`), &envelope)
	assert.Error(t, err)
}
