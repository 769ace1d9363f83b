package eventqueue

import (
	"fmt"
	"sync"
)

// Manager maps task ids to their event queues. All operations are safe for
// concurrent callers.
type Manager struct {
	mu     sync.Mutex
	queues map[string]*Queue
}

// NewManager creates an empty queue manager.
func NewManager() *Manager {
	return &Manager{queues: make(map[string]*Queue)}
}

// Add registers q under taskID, failing if the id is already present.
func (m *Manager) Add(taskID string, q *Queue) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.queues[taskID]; ok {
		return fmt.Errorf("queue already exists for task %s", taskID)
	}
	m.queues[taskID] = q
	return nil
}

// Get returns the queue for taskID, or nil if none is registered.
func (m *Manager) Get(taskID string) *Queue {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.queues[taskID]
}

// Tap attaches a child queue to the task's queue, or returns nil if the task
// has no queue.
func (m *Manager) Tap(taskID string) *Queue {
	m.mu.Lock()
	q := m.queues[taskID]
	m.mu.Unlock()
	if q == nil {
		return nil
	}
	return q.Tap()
}

// CreateOrTap returns a fresh primary queue for taskID, or a tap of the
// existing one if a producer is already attached. The check and the create
// are atomic with respect to other callers.
func (m *Manager) CreateOrTap(taskID string) *Queue {
	m.mu.Lock()
	if q, ok := m.queues[taskID]; ok {
		m.mu.Unlock()
		return q.Tap()
	}
	q := New(0)
	m.queues[taskID] = q
	m.mu.Unlock()
	return q
}

// Close gracefully closes and removes the task's queue. Closing an unknown
// task is a no-op.
func (m *Manager) Close(taskID string) {
	m.mu.Lock()
	q := m.queues[taskID]
	delete(m.queues, taskID)
	m.mu.Unlock()
	if q != nil {
		q.Close(false)
	}
}
