// Package a2a defines the wire-level data model of the Agent-to-Agent (A2A)
// protocol: messages, parts, tasks, update events, agent cards, and the
// JSON-RPC envelope shared by every transport.
// Specification: https://a2a-protocol.org/latest/specification/
package a2a

import (
	"encoding/json"
	"fmt"
	"time"
)

// ============================================================================
// KIND DISCRIMINATORS
// Every streamable object carries a "kind" field on the wire so receivers can
// dispatch without peeking at the payload shape.
// ============================================================================

const (
	KindTask           = "task"
	KindMessage        = "message"
	KindStatusUpdate   = "status-update"
	KindArtifactUpdate = "artifact-update"
)

// Event is any object an agent executor may publish for a task: the initial
// Task snapshot, a status update, an artifact update, or a direct-reply
// Message.
type Event interface {
	Kind() string
}

// ============================================================================
// TASK STATE
// ============================================================================

// TaskState is the lifecycle state of a task.
type TaskState string

const (
	TaskStateSubmitted     TaskState = "submitted"
	TaskStateWorking       TaskState = "working"
	TaskStateInputRequired TaskState = "input-required"
	TaskStateCompleted     TaskState = "completed"
	TaskStateCanceled      TaskState = "canceled"
	TaskStateFailed        TaskState = "failed"
	TaskStateRejected      TaskState = "rejected"
	TaskStateAuthRequired  TaskState = "auth-required"
	TaskStateUnknown       TaskState = "unknown"
)

// Terminal reports whether no further transitions may occur from s.
func (s TaskState) Terminal() bool {
	switch s {
	case TaskStateCompleted, TaskStateCanceled, TaskStateFailed, TaskStateRejected:
		return true
	}
	return false
}

// Interrupted reports whether s pauses the task awaiting external action.
// Interruptable = terminal states plus auth-required and input-required.
func (s TaskState) Interrupted() bool {
	return s.Terminal() || s == TaskStateAuthRequired || s == TaskStateInputRequired
}

// ============================================================================
// MESSAGE
// ============================================================================

// MessageRole identifies the sender of a message.
type MessageRole string

const (
	MessageRoleUser  MessageRole = "user"
	MessageRoleAgent MessageRole = "agent"
)

// Message is a single user or agent utterance.
type Message struct {
	MessageID        string         `json:"messageId"`
	Role             MessageRole    `json:"role"`
	Parts            []Part         `json:"parts"`
	TaskID           string         `json:"taskId,omitempty"`
	ContextID        string         `json:"contextId,omitempty"`
	ReferenceTaskIDs []string       `json:"referenceTaskIds,omitempty"`
	Extensions       []string       `json:"extensions,omitempty"`
	Metadata         map[string]any `json:"metadata,omitempty"`
}

// Kind implements Event.
func (*Message) Kind() string { return KindMessage }

// MarshalJSON emits the kind discriminator alongside the message fields.
func (m *Message) MarshalJSON() ([]byte, error) {
	type alias Message
	return json.Marshal(struct {
		Kind string `json:"kind"`
		*alias
	}{Kind: KindMessage, alias: (*alias)(m)})
}

// UnmarshalJSON tolerates payloads with or without the discriminator.
func (m *Message) UnmarshalJSON(data []byte) error {
	type alias Message
	var aux struct {
		Kind string `json:"kind"`
		*alias
	}
	aux.alias = (*alias)(m)
	return json.Unmarshal(data, &aux)
}

// ============================================================================
// PART - tagged variant of message/artifact content
// ============================================================================

// PartKind discriminates the Part union.
type PartKind string

const (
	PartKindText PartKind = "text"
	PartKindFile PartKind = "file"
	PartKindData PartKind = "data"
)

// Part is one unit of message or artifact content. Exactly one of Text, File,
// or Data is populated, selected by Kind.
type Part struct {
	Kind PartKind `json:"kind"`

	// Text part
	Text string `json:"text,omitempty"`

	// File part: inline bytes or a URI, never both
	File *FilePart `json:"file,omitempty"`

	// Data part: arbitrary structured JSON
	Data map[string]any `json:"data,omitempty"`

	Metadata map[string]any `json:"metadata,omitempty"`
}

// FilePart carries file content inline (base64 bytes) or by reference (URI).
type FilePart struct {
	Name     string `json:"name,omitempty"`
	MimeType string `json:"mimeType,omitempty"`
	Bytes    string `json:"bytes,omitempty"`
	URI      string `json:"uri,omitempty"`
}

// TextPart builds a text part.
func TextPart(text string) Part {
	return Part{Kind: PartKindText, Text: text}
}

// DataPart builds a structured-data part.
func DataPart(data map[string]any) Part {
	return Part{Kind: PartKindData, Data: data}
}

// FileBytesPart builds a file part with inline base64 content.
func FileBytesPart(name, mimeType, b64 string) Part {
	return Part{Kind: PartKindFile, File: &FilePart{Name: name, MimeType: mimeType, Bytes: b64}}
}

// FileURIPart builds a file part referencing external content.
func FileURIPart(name, mimeType, uri string) Part {
	return Part{Kind: PartKindFile, File: &FilePart{Name: name, MimeType: mimeType, URI: uri}}
}

// Validate checks the union is well-formed: a recognized kind with its
// matching payload populated.
func (p Part) Validate() error {
	switch p.Kind {
	case PartKindText:
		return nil
	case PartKindFile:
		if p.File == nil {
			return fmt.Errorf("file part without file payload")
		}
		if p.File.Bytes != "" && p.File.URI != "" {
			return fmt.Errorf("file part with both bytes and uri")
		}
		return nil
	case PartKindData:
		if p.Data == nil {
			return fmt.Errorf("data part without data payload")
		}
		return nil
	default:
		return fmt.Errorf("unknown part kind: %q", p.Kind)
	}
}

// ============================================================================
// ARTIFACT
// ============================================================================

// Artifact is an agent-produced output attached to a task, possibly delivered
// in chunks across multiple artifact-update events.
type Artifact struct {
	ArtifactID  string         `json:"artifactId"`
	Name        string         `json:"name,omitempty"`
	Description string         `json:"description,omitempty"`
	Parts       []Part         `json:"parts"`
	Extensions  []string       `json:"extensions,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// ============================================================================
// TASK
// ============================================================================

// TaskStatus is the current state of a task plus the message, if any, that
// accompanied the transition.
type TaskStatus struct {
	State     TaskState `json:"state"`
	Message   *Message  `json:"message,omitempty"`
	Timestamp string    `json:"timestamp,omitempty"`
}

// Task is a long-running unit of work: its status, the conversation history
// that produced it, and the artifacts it has emitted so far.
type Task struct {
	ID        string         `json:"id"`
	ContextID string         `json:"contextId"`
	Status    TaskStatus     `json:"status"`
	History   []Message      `json:"history,omitempty"`
	Artifacts []Artifact     `json:"artifacts,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// Kind implements Event.
func (*Task) Kind() string { return KindTask }

func (t *Task) MarshalJSON() ([]byte, error) {
	type alias Task
	return json.Marshal(struct {
		Kind string `json:"kind"`
		*alias
	}{Kind: KindTask, alias: (*alias)(t)})
}

func (t *Task) UnmarshalJSON(data []byte) error {
	type alias Task
	var aux struct {
		Kind string `json:"kind"`
		*alias
	}
	aux.alias = (*alias)(t)
	return json.Unmarshal(data, &aux)
}

// Clone returns a deep-enough copy of t: the slices are copied so folds on
// independent holders cannot alias each other's history or artifacts.
func (t *Task) Clone() *Task {
	if t == nil {
		return nil
	}
	cp := *t
	if t.History != nil {
		cp.History = append([]Message(nil), t.History...)
	}
	if t.Artifacts != nil {
		cp.Artifacts = make([]Artifact, len(t.Artifacts))
		for i, a := range t.Artifacts {
			cp.Artifacts[i] = a
			if a.Parts != nil {
				cp.Artifacts[i].Parts = append([]Part(nil), a.Parts...)
			}
		}
	}
	if t.Metadata != nil {
		cp.Metadata = make(map[string]any, len(t.Metadata))
		for k, v := range t.Metadata {
			cp.Metadata[k] = v
		}
	}
	return &cp
}

// TrimHistory returns a copy of t whose history keeps only the last n
// messages. For n >= len(history) the task is returned unchanged, which makes
// the operation idempotent.
func (t *Task) TrimHistory(n int) *Task {
	if t == nil || n < 1 || len(t.History) <= n {
		return t
	}
	cp := t.Clone()
	cp.History = cp.History[len(cp.History)-n:]
	return cp
}

// Timestamp formats t in the RFC 3339 UTC form used on the wire.
func Timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// ============================================================================
// UPDATE EVENTS
// ============================================================================

// TaskStatusUpdateEvent signals a task state transition. Final marks the end
// of the stream.
type TaskStatusUpdateEvent struct {
	TaskID    string         `json:"taskId"`
	ContextID string         `json:"contextId"`
	Status    TaskStatus     `json:"status"`
	Final     bool           `json:"final"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// Kind implements Event.
func (*TaskStatusUpdateEvent) Kind() string { return KindStatusUpdate }

func (e *TaskStatusUpdateEvent) MarshalJSON() ([]byte, error) {
	type alias TaskStatusUpdateEvent
	return json.Marshal(struct {
		Kind string `json:"kind"`
		*alias
	}{Kind: KindStatusUpdate, alias: (*alias)(e)})
}

func (e *TaskStatusUpdateEvent) UnmarshalJSON(data []byte) error {
	type alias TaskStatusUpdateEvent
	var aux struct {
		Kind string `json:"kind"`
		*alias
	}
	aux.alias = (*alias)(e)
	return json.Unmarshal(data, &aux)
}

// TaskArtifactUpdateEvent delivers an artifact, or with Append set, a further
// chunk of an artifact announced earlier in the stream.
type TaskArtifactUpdateEvent struct {
	TaskID    string         `json:"taskId"`
	ContextID string         `json:"contextId"`
	Artifact  Artifact       `json:"artifact"`
	Append    bool           `json:"append,omitempty"`
	LastChunk bool           `json:"lastChunk,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// Kind implements Event.
func (*TaskArtifactUpdateEvent) Kind() string { return KindArtifactUpdate }

func (e *TaskArtifactUpdateEvent) MarshalJSON() ([]byte, error) {
	type alias TaskArtifactUpdateEvent
	return json.Marshal(struct {
		Kind string `json:"kind"`
		*alias
	}{Kind: KindArtifactUpdate, alias: (*alias)(e)})
}

func (e *TaskArtifactUpdateEvent) UnmarshalJSON(data []byte) error {
	type alias TaskArtifactUpdateEvent
	var aux struct {
		Kind string `json:"kind"`
		*alias
	}
	aux.alias = (*alias)(e)
	return json.Unmarshal(data, &aux)
}

// ============================================================================
// EVENT DECODING
// ============================================================================

// UnmarshalEvent decodes a kind-discriminated JSON payload into the matching
// concrete event type.
func UnmarshalEvent(data []byte) (Event, error) {
	var probe struct {
		Kind string `json:"kind"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, &JSONError{Msg: "malformed event payload", Err: err}
	}
	var ev Event
	switch probe.Kind {
	case KindTask:
		ev = &Task{}
	case KindMessage:
		ev = &Message{}
	case KindStatusUpdate:
		ev = &TaskStatusUpdateEvent{}
	case KindArtifactUpdate:
		ev = &TaskArtifactUpdateEvent{}
	default:
		return nil, &JSONError{Msg: fmt.Sprintf("unknown event kind: %q", probe.Kind)}
	}
	if err := json.Unmarshal(data, ev); err != nil {
		return nil, &JSONError{Msg: "malformed event payload", Err: err}
	}
	return ev, nil
}
