package server

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/arcwire/arcwire/pkg/a2a"
)

// TaskStore persists task snapshots. Implementations must behave as if each
// call is linearizable; Get returns nil for unknown ids.
type TaskStore interface {
	Get(ctx context.Context, taskID string) (*a2a.Task, error)
	Save(ctx context.Context, task *a2a.Task) error
	Delete(ctx context.Context, taskID string) error
}

// InMemoryTaskStore is the reference TaskStore, a mutex-guarded map.
type InMemoryTaskStore struct {
	mu    sync.RWMutex
	tasks map[string]*a2a.Task
}

// NewInMemoryTaskStore creates an empty store.
func NewInMemoryTaskStore() *InMemoryTaskStore {
	return &InMemoryTaskStore{tasks: make(map[string]*a2a.Task)}
}

// Get implements TaskStore. The returned task is a copy; callers may mutate
// it freely.
func (s *InMemoryTaskStore) Get(_ context.Context, taskID string) (*a2a.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tasks[taskID].Clone(), nil
}

// Save implements TaskStore.
func (s *InMemoryTaskStore) Save(_ context.Context, task *a2a.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks[task.ID] = task.Clone()
	return nil
}

// Delete implements TaskStore. Deleting an unknown id is a no-op.
func (s *InMemoryTaskStore) Delete(_ context.Context, taskID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tasks, taskID)
	return nil
}

// PushConfigStore persists push notification configs per task.
type PushConfigStore interface {
	Save(ctx context.Context, cfg *a2a.TaskPushNotificationConfig) (*a2a.TaskPushNotificationConfig, error)
	Get(ctx context.Context, taskID, configID string) (*a2a.TaskPushNotificationConfig, error)
	List(ctx context.Context, taskID string) ([]a2a.TaskPushNotificationConfig, error)
	Delete(ctx context.Context, taskID, configID string) error
}

// InMemoryPushConfigStore is the reference PushConfigStore.
type InMemoryPushConfigStore struct {
	mu      sync.RWMutex
	configs map[string][]a2a.TaskPushNotificationConfig
}

// NewInMemoryPushConfigStore creates an empty store.
func NewInMemoryPushConfigStore() *InMemoryPushConfigStore {
	return &InMemoryPushConfigStore{configs: make(map[string][]a2a.TaskPushNotificationConfig)}
}

// Save implements PushConfigStore. A config without an id is assigned one; a
// config with the id of an existing entry replaces it.
func (s *InMemoryPushConfigStore) Save(_ context.Context, cfg *a2a.TaskPushNotificationConfig) (*a2a.TaskPushNotificationConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	saved := *cfg
	if saved.PushNotificationConfig.ID == "" {
		saved.PushNotificationConfig.ID = uuid.NewString()
	}
	list := s.configs[saved.TaskID]
	for i := range list {
		if list[i].PushNotificationConfig.ID == saved.PushNotificationConfig.ID {
			list[i] = saved
			return &saved, nil
		}
	}
	s.configs[saved.TaskID] = append(list, saved)
	return &saved, nil
}

// Get implements PushConfigStore. An empty configID returns the first config
// of the task. Unknown ids return nil.
func (s *InMemoryPushConfigStore) Get(_ context.Context, taskID, configID string) (*a2a.TaskPushNotificationConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	list := s.configs[taskID]
	if len(list) == 0 {
		return nil, nil
	}
	if configID == "" {
		cfg := list[0]
		return &cfg, nil
	}
	for _, cfg := range list {
		if cfg.PushNotificationConfig.ID == configID {
			return &cfg, nil
		}
	}
	return nil, nil
}

// List implements PushConfigStore.
func (s *InMemoryPushConfigStore) List(_ context.Context, taskID string) ([]a2a.TaskPushNotificationConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]a2a.TaskPushNotificationConfig(nil), s.configs[taskID]...), nil
}

// Delete implements PushConfigStore. Deleting an unknown config is a no-op.
func (s *InMemoryPushConfigStore) Delete(_ context.Context, taskID, configID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.configs[taskID]
	for i := range list {
		if list[i].PushNotificationConfig.ID == configID {
			s.configs[taskID] = append(list[:i], list[i+1:]...)
			return nil
		}
	}
	return nil
}
