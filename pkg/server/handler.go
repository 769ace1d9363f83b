package server

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/arcwire/arcwire/pkg/a2a"
	"github.com/arcwire/arcwire/pkg/aggregator"
	"github.com/arcwire/arcwire/pkg/eventqueue"
)

// StreamItem is one element of a server-side event stream: an event, or the
// error that terminates the stream. The channel closes after a terminal
// item.
type StreamItem struct {
	Event a2a.Event
	Err   error
}

// PushSender delivers a task snapshot to the task's configured webhooks.
// Delivery is best-effort; failures never surface to the task.
type PushSender interface {
	Send(ctx context.Context, task *a2a.Task)
}

// RequestHandler is the transport-facing surface of the server core. All
// three wire transports dispatch into one RequestHandler.
type RequestHandler interface {
	OnGetTask(ctx context.Context, params *a2a.TaskQueryParams) (*a2a.Task, error)
	OnCancelTask(ctx context.Context, params *a2a.TaskIDParams) (*a2a.Task, error)
	OnMessageSend(ctx context.Context, params *a2a.MessageSendParams) (a2a.Event, error)
	OnMessageSendStream(ctx context.Context, params *a2a.MessageSendParams) (<-chan StreamItem, error)
	OnResubscribe(ctx context.Context, params *a2a.TaskIDParams) (<-chan StreamItem, error)
	OnSetTaskPushConfig(ctx context.Context, cfg *a2a.TaskPushNotificationConfig) (*a2a.TaskPushNotificationConfig, error)
	OnGetTaskPushConfig(ctx context.Context, params *a2a.GetTaskPushNotificationConfigParams) (*a2a.TaskPushNotificationConfig, error)
	OnListTaskPushConfig(ctx context.Context, params *a2a.ListTaskPushNotificationConfigParams) ([]a2a.TaskPushNotificationConfig, error)
	OnDeleteTaskPushConfig(ctx context.Context, params *a2a.DeleteTaskPushNotificationConfigParams) error
}

// DefaultRequestHandler coordinates the agent executor, the per-task event
// queues, the task store, and push notification delivery.
type DefaultRequestHandler struct {
	executor   AgentExecutor
	taskStore  TaskStore
	queues     *eventqueue.Manager
	pushStore  PushConfigStore
	pushSender PushSender
	ctxBuilder RequestContextBuilder
	log        *slog.Logger

	mu      sync.Mutex
	running map[string]*producer

	background sync.WaitGroup
}

// producer tracks one spawned executor run.
type producer struct {
	queue  *eventqueue.Queue
	cancel context.CancelFunc
	done   chan struct{}
	err    error // executor failure, set before done closes
}

// HandlerOption customizes a DefaultRequestHandler.
type HandlerOption func(*DefaultRequestHandler)

// WithPushConfigStore enables the push notification config operations.
func WithPushConfigStore(store PushConfigStore) HandlerOption {
	return func(h *DefaultRequestHandler) { h.pushStore = store }
}

// WithPushSender enables webhook delivery on task updates.
func WithPushSender(sender PushSender) HandlerOption {
	return func(h *DefaultRequestHandler) { h.pushSender = sender }
}

// WithRequestContextBuilder replaces the standard context builder.
func WithRequestContextBuilder(b RequestContextBuilder) HandlerOption {
	return func(h *DefaultRequestHandler) { h.ctxBuilder = b }
}

// NewDefaultRequestHandler wires a handler around an executor and a task
// store.
func NewDefaultRequestHandler(executor AgentExecutor, taskStore TaskStore, opts ...HandlerOption) *DefaultRequestHandler {
	h := &DefaultRequestHandler{
		executor:   executor,
		taskStore:  taskStore,
		queues:     eventqueue.NewManager(),
		ctxBuilder: NewRequestContextBuilder(),
		log:        slog.Default().With("component", "request_handler"),
		running:    make(map[string]*producer),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// OnGetTask loads the task, truncating history to the requested length.
func (h *DefaultRequestHandler) OnGetTask(ctx context.Context, params *a2a.TaskQueryParams) (*a2a.Task, error) {
	if params.ID == "" {
		return nil, a2a.NewInvalidParamsError("task id is required")
	}
	task, err := h.taskStore.Get(ctx, params.ID)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, a2a.NewTaskNotFoundError(params.ID)
	}
	return task.TrimHistory(params.HistoryLength), nil
}

// OnCancelTask requests cooperative cancellation and persists the canceled
// state.
func (h *DefaultRequestHandler) OnCancelTask(ctx context.Context, params *a2a.TaskIDParams) (*a2a.Task, error) {
	task, err := h.taskStore.Get(ctx, params.ID)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, a2a.NewTaskNotFoundError(params.ID)
	}
	if task.Status.State.Terminal() {
		return nil, a2a.NewTaskNotCancelableError(params.ID)
	}

	if err := h.executor.Cancel(ctx, params.ID); err != nil {
		return nil, a2a.NewInternalError(err.Error())
	}

	task.Status = a2a.TaskStatus{
		State:     a2a.TaskStateCanceled,
		Timestamp: a2a.Timestamp(time.Now()),
	}
	if err := h.taskStore.Save(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

// setup resolves or creates the task, associates any push config, and
// attaches the event queue.
func (h *DefaultRequestHandler) setup(ctx context.Context, params *a2a.MessageSendParams) (*RequestContext, *eventqueue.Queue, error) {
	var current *a2a.Task
	taskID := params.Message.TaskID
	if taskID != "" {
		task, err := h.taskStore.Get(ctx, taskID)
		if err != nil {
			return nil, nil, err
		}
		if task == nil {
			return nil, nil, a2a.NewTaskNotFoundError(taskID)
		}
		if task.Status.State.Terminal() {
			return nil, nil, a2a.NewInvalidParamsError("task " + taskID + " is in a terminal state")
		}
		current = task
	} else {
		taskID = uuid.NewString()
	}

	contextID := params.Message.ContextID
	if current != nil {
		contextID = current.ContextID
	}
	if contextID == "" {
		contextID = uuid.NewString()
	}

	reqCtx, err := h.ctxBuilder.Build(ctx, params, taskID, contextID, current)
	if err != nil {
		return nil, nil, err
	}

	if h.pushStore != nil && params.Configuration != nil && params.Configuration.PushNotificationConfig != nil {
		_, err := h.pushStore.Save(ctx, &a2a.TaskPushNotificationConfig{
			TaskID:                 taskID,
			PushNotificationConfig: *params.Configuration.PushNotificationConfig,
		})
		if err != nil {
			return nil, nil, err
		}
	}

	queue := h.queues.CreateOrTap(taskID)
	return reqCtx, queue, nil
}

// spawnProducer runs the executor concurrently. The producer's context is
// detached from the request so a client disconnect never aborts execution.
func (h *DefaultRequestHandler) spawnProducer(reqCtx *RequestContext, queue *eventqueue.Queue) *producer {
	prodCtx, cancel := context.WithCancel(context.Background())
	p := &producer{queue: queue, cancel: cancel, done: make(chan struct{})}

	h.mu.Lock()
	h.running[reqCtx.TaskID] = p
	h.mu.Unlock()

	h.background.Add(1)
	go func() {
		defer h.background.Done()
		defer close(p.done)
		defer func() {
			// The executor contract requires it to close the queue; enforce
			// it so a misbehaving executor cannot wedge consumers.
			queue.Close(false)
			h.mu.Lock()
			delete(h.running, reqCtx.TaskID)
			h.mu.Unlock()
		}()
		if err := h.executor.Execute(prodCtx, reqCtx, queue); err != nil {
			p.err = err
			h.log.Error("agent execution failed", "taskId", reqCtx.TaskID, "error", err)
		}
	}()
	return p
}

// OnMessageSend runs the streaming path and folds locally until the fold
// reports finality, returning the aggregated Task or direct-reply Message.
func (h *DefaultRequestHandler) OnMessageSend(ctx context.Context, params *a2a.MessageSendParams) (a2a.Event, error) {
	reqCtx, queue, err := h.setup(ctx, params)
	if err != nil {
		return nil, err
	}
	p := h.spawnProducer(reqCtx, queue)

	consumer := aggregator.NewConsumer(queue)
	result, err := consumer.ConsumeAll(ctx)
	if err != nil {
		queue.Close(true)
		return nil, err
	}
	if result.Task != nil {
		if err := h.taskStore.Save(ctx, result.Task); err != nil {
			return nil, err
		}
		h.notifyPush(result.Task)
	}
	h.finalizeWhenDone(reqCtx.TaskID, p)

	if result.Message != nil {
		return result.Message, nil
	}
	if result.Task == nil {
		<-p.done
		if p.err != nil {
			return nil, a2a.NewInternalError(p.err.Error())
		}
		return nil, a2a.NewInternalError("agent produced no result")
	}
	task := result.Task
	if params.Configuration != nil {
		task = task.TrimHistory(params.Configuration.HistoryLength)
	}
	return task, nil
}

// OnMessageSendStream spawns the executor and returns the event stream. If
// the caller stops receiving (client disconnect), consumption continues in
// the background so the store and any taps stay coherent for a later
// resubscribe.
func (h *DefaultRequestHandler) OnMessageSendStream(ctx context.Context, params *a2a.MessageSendParams) (<-chan StreamItem, error) {
	reqCtx, queue, err := h.setup(ctx, params)
	if err != nil {
		return nil, err
	}
	p := h.spawnProducer(reqCtx, queue)

	out := make(chan StreamItem, 8)
	h.background.Add(1)
	go func() {
		defer h.background.Done()
		defer close(out)
		h.forward(ctx, reqCtx.TaskID, queue, p, out)
		h.finalizeWhenDone(reqCtx.TaskID, p)
	}()
	return out, nil
}

// forward consumes the queue, folds each event, persists the snapshot, and
// forwards events to out until the stream finishes. After the request
// context is canceled it degrades into a pure drain: folding continues,
// forwarding stops.
func (h *DefaultRequestHandler) forward(ctx context.Context, taskID string, queue *eventqueue.Queue, p *producer, out chan<- StreamItem) {
	consumer := aggregator.NewConsumer(queue)
	attached := true

	deliver := func(item StreamItem) {
		if !attached {
			return
		}
		select {
		case out <- item:
		case <-ctx.Done():
			attached = false
			h.log.Debug("client detached, draining in background", "taskId", taskID)
		}
	}

	for {
		ev, err := consumer.Next(context.Background())
		if errors.Is(err, eventqueue.ErrQueueClosed) {
			if p != nil {
				<-p.done
				if p.err != nil {
					deliver(StreamItem{Err: a2a.NewInternalError(p.err.Error())})
				}
			}
			return
		}
		if err != nil {
			// Fold protocol error: surface it and stop; buffered events are
			// discarded since the stream is no longer coherent.
			h.log.Warn("event fold failed", "taskId", taskID, "error", err)
			deliver(StreamItem{Err: err})
			queue.Close(true)
			return
		}

		if task := consumer.Fold().Task(); task != nil {
			if err := h.taskStore.Save(context.Background(), task); err != nil {
				h.log.Error("failed to persist task snapshot", "taskId", taskID, "error", err)
			}
			switch ev.(type) {
			case *a2a.Task, *a2a.TaskStatusUpdateEvent:
				h.notifyPush(task)
			}
		}

		deliver(StreamItem{Event: ev})
		if consumer.Fold().Final() {
			return
		}
	}
}

// finalizeWhenDone closes the queue-manager entry once the producer exits.
func (h *DefaultRequestHandler) finalizeWhenDone(taskID string, p *producer) {
	h.background.Add(1)
	go func() {
		defer h.background.Done()
		<-p.done
		h.queues.Close(taskID)
	}()
}

// OnResubscribe attaches a new consumer to an in-flight task's stream. A
// task whose queue has already closed yields an empty stream rather than an
// error; an unknown task is NotFound.
func (h *DefaultRequestHandler) OnResubscribe(ctx context.Context, params *a2a.TaskIDParams) (<-chan StreamItem, error) {
	task, err := h.taskStore.Get(ctx, params.ID)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, a2a.NewTaskNotFoundError(params.ID)
	}

	out := make(chan StreamItem, 8)
	tap := h.queues.Tap(params.ID)
	if tap == nil {
		close(out)
		return out, nil
	}

	h.background.Add(1)
	go func() {
		defer h.background.Done()
		defer close(out)
		consumer := aggregator.NewConsumer(tap)
		for {
			ev, err := consumer.Next(ctx)
			if errors.Is(err, eventqueue.ErrQueueClosed) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return
			}
			if err != nil {
				select {
				case out <- StreamItem{Err: err}:
				case <-ctx.Done():
				}
				return
			}
			select {
			case out <- StreamItem{Event: ev}:
			case <-ctx.Done():
				tap.Close(true)
				return
			}
			if consumer.Fold().Final() {
				return
			}
		}
	}()
	return out, nil
}

// notifyPush submits a best-effort push notification for the snapshot.
func (h *DefaultRequestHandler) notifyPush(task *a2a.Task) {
	if h.pushSender == nil || task == nil {
		return
	}
	snapshot := task.Clone()
	h.background.Add(1)
	go func() {
		defer h.background.Done()
		h.pushSender.Send(context.Background(), snapshot)
	}()
}

// OnSetTaskPushConfig registers a push config for a task.
func (h *DefaultRequestHandler) OnSetTaskPushConfig(ctx context.Context, cfg *a2a.TaskPushNotificationConfig) (*a2a.TaskPushNotificationConfig, error) {
	if h.pushStore == nil {
		return nil, a2a.NewMethodNotFoundError(a2a.MethodPushConfigSet)
	}
	task, err := h.taskStore.Get(ctx, cfg.TaskID)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, a2a.NewTaskNotFoundError(cfg.TaskID)
	}
	return h.pushStore.Save(ctx, cfg)
}

// OnGetTaskPushConfig fetches one push config of a task.
func (h *DefaultRequestHandler) OnGetTaskPushConfig(ctx context.Context, params *a2a.GetTaskPushNotificationConfigParams) (*a2a.TaskPushNotificationConfig, error) {
	if h.pushStore == nil {
		return nil, a2a.NewMethodNotFoundError(a2a.MethodPushConfigGet)
	}
	cfg, err := h.pushStore.Get(ctx, params.ID, params.PushNotificationConfigID)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, a2a.NewConfigNotFoundError(params.PushNotificationConfigID)
	}
	return cfg, nil
}

// OnListTaskPushConfig lists the push configs of a task.
func (h *DefaultRequestHandler) OnListTaskPushConfig(ctx context.Context, params *a2a.ListTaskPushNotificationConfigParams) ([]a2a.TaskPushNotificationConfig, error) {
	if h.pushStore == nil {
		return nil, a2a.NewMethodNotFoundError(a2a.MethodPushConfigList)
	}
	return h.pushStore.List(ctx, params.ID)
}

// OnDeleteTaskPushConfig removes one push config of a task.
func (h *DefaultRequestHandler) OnDeleteTaskPushConfig(ctx context.Context, params *a2a.DeleteTaskPushNotificationConfigParams) error {
	if h.pushStore == nil {
		return a2a.NewMethodNotFoundError(a2a.MethodPushConfigDelete)
	}
	return h.pushStore.Delete(ctx, params.ID, params.PushNotificationConfigID)
}

// Close waits for every background task (producers, drains, push deliveries)
// to finish, or for ctx to expire.
func (h *DefaultRequestHandler) Close(ctx context.Context) error {
	h.mu.Lock()
	for _, p := range h.running {
		p.cancel()
	}
	h.mu.Unlock()

	done := make(chan struct{})
	go func() {
		h.background.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
