// Package aggregator reduces a stream of partial task updates into a current
// Task snapshot. Client and server run the same fold, so given the same event
// prefix both sides hold identical snapshots.
package aggregator

import (
	"log/slog"

	"github.com/arcwire/arcwire/pkg/a2a"
)

// ErrDuplicateInitialTask is returned when a second initial Task event
// arrives for a fold that already holds a snapshot.
var ErrDuplicateInitialTask = &a2a.InvalidStateError{Msg: "duplicate initial task event in stream"}

// ErrMessageAfterEvents is returned when a direct-reply Message arrives after
// other events; a direct reply must be the first and only event of a stream.
var ErrMessageAfterEvents = &a2a.InvalidStateError{Msg: "direct-reply message must be the first event in stream"}

// ErrUpdateAfterTerminal is returned when an update arrives for a task that
// already reached a terminal state. A task never leaves a terminal state.
var ErrUpdateAfterTerminal = &a2a.InvalidStateError{Msg: "update for a task in a terminal state"}

// Fold maintains a Task snapshot from a sequence of events. It is not safe
// for concurrent use; each consumer owns its own fold.
type Fold struct {
	task    *a2a.Task
	message *a2a.Message
	final   bool
	applied bool
	log     *slog.Logger
}

// New creates an empty fold.
func New() *Fold {
	return &Fold{log: slog.Default()}
}

// Apply folds one event into the snapshot. Events arriving after the fold
// reported finality are rejected as protocol errors, with one exception: the
// fold stays open after an auth-required status so the stream may resume.
func (f *Fold) Apply(ev a2a.Event) error {
	switch e := ev.(type) {
	case *a2a.Task:
		return f.applyTask(e)
	case *a2a.TaskStatusUpdateEvent:
		return f.applyStatus(e)
	case *a2a.TaskArtifactUpdateEvent:
		return f.applyArtifact(e)
	case *a2a.Message:
		return f.applyMessage(e)
	default:
		return &a2a.InvalidStateError{Msg: "unknown event type in stream"}
	}
}

func (f *Fold) applyTask(t *a2a.Task) error {
	if f.task != nil {
		return ErrDuplicateInitialTask
	}
	f.task = t.Clone()
	f.applied = true
	if t.Status.State.Terminal() || t.Status.State == a2a.TaskStateInputRequired || t.Status.State == a2a.TaskStateUnknown {
		f.final = true
	}
	return nil
}

func (f *Fold) applyStatus(e *a2a.TaskStatusUpdateEvent) error {
	if f.task != nil && f.task.Status.State.Terminal() {
		return ErrUpdateAfterTerminal
	}
	if f.task == nil {
		// A status update may legitimately arrive before the initial Task
		// snapshot (resubscribe taps join mid-stream); synthesize one.
		f.task = &a2a.Task{
			ID:        e.TaskID,
			ContextID: e.ContextID,
			Status:    a2a.TaskStatus{State: a2a.TaskStateUnknown},
		}
	}
	if e.Status.Message != nil {
		f.task.History = append(f.task.History, *e.Status.Message)
	}
	if len(e.Metadata) > 0 {
		if f.task.Metadata == nil {
			f.task.Metadata = make(map[string]any, len(e.Metadata))
		}
		for k, v := range e.Metadata {
			f.task.Metadata[k] = v
		}
	}
	f.task.Status = e.Status
	f.applied = true
	if e.Final || e.Status.State.Terminal() || e.Status.State == a2a.TaskStateInputRequired || e.Status.State == a2a.TaskStateUnknown {
		f.final = true
	}
	return nil
}

func (f *Fold) applyArtifact(e *a2a.TaskArtifactUpdateEvent) error {
	if f.task != nil && f.task.Status.State.Terminal() {
		return ErrUpdateAfterTerminal
	}
	if f.task == nil {
		f.task = &a2a.Task{
			ID:        e.TaskID,
			ContextID: e.ContextID,
			Status:    a2a.TaskStatus{State: a2a.TaskStateUnknown},
		}
	}
	idx := -1
	for i := range f.task.Artifacts {
		if f.task.Artifacts[i].ArtifactID == e.Artifact.ArtifactID {
			idx = i
			break
		}
	}
	if e.Append {
		if idx < 0 {
			// Chunk for an artifact never announced; drop it rather than
			// surface a gap to the client.
			f.log.Debug("dropping artifact chunk for unknown artifact",
				"taskId", e.TaskID, "artifactId", e.Artifact.ArtifactID)
			return nil
		}
		f.task.Artifacts[idx].Parts = append(f.task.Artifacts[idx].Parts, e.Artifact.Parts...)
	} else if idx >= 0 {
		f.task.Artifacts[idx] = e.Artifact
	} else {
		f.task.Artifacts = append(f.task.Artifacts, e.Artifact)
	}
	f.applied = true
	return nil
}

func (f *Fold) applyMessage(m *a2a.Message) error {
	if f.applied {
		return ErrMessageAfterEvents
	}
	f.message = m
	f.applied = true
	f.final = true
	return nil
}

// Task returns the current snapshot, or nil before the first task event.
func (f *Fold) Task() *a2a.Task { return f.task }

// Message returns the direct-reply message, if the stream was one.
func (f *Fold) Message() *a2a.Message { return f.message }

// Final reports whether the fold has observed the end of the stream: a
// direct-reply message, an explicit final status update, or a terminal,
// input-required, or unknown state.
func (f *Fold) Final() bool { return f.final }

// Interrupted reports whether the last observed state pauses the task for
// external action (auth-required). The stream may resume afterwards, so
// Interrupted does not imply Final.
func (f *Fold) Interrupted() bool {
	return f.task != nil && f.task.Status.State == a2a.TaskStateAuthRequired
}

// Result returns whichever of the task snapshot or direct-reply message the
// stream produced.
func (f *Fold) Result() (*a2a.Task, *a2a.Message) {
	return f.task, f.message
}
