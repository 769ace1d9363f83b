package server

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arcwire/arcwire/pkg/a2a"
)

func TestInMemoryTaskStoreRoundTrip(t *testing.T) {
	store := NewInMemoryTaskStore()
	ctx := context.Background()

	got, err := store.Get(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, got)

	task := &a2a.Task{
		ID:      "t1",
		Status:  a2a.TaskStatus{State: a2a.TaskStateWorking},
		History: []a2a.Message{{MessageID: "m1"}},
	}
	require.NoError(t, store.Save(ctx, task))

	// Mutating the original after Save must not leak into the store.
	task.History[0].MessageID = "mutated"

	got, err = store.Get(ctx, "t1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "m1", got.History[0].MessageID)

	// Mutating the returned copy must not leak either.
	got.Status.State = a2a.TaskStateFailed
	again, err := store.Get(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, a2a.TaskStateWorking, again.Status.State)

	require.NoError(t, store.Delete(ctx, "t1"))
	got, err = store.Get(ctx, "t1")
	require.NoError(t, err)
	assert.Nil(t, got)

	assert.NoError(t, store.Delete(ctx, "never-existed"))
}

func TestInMemoryPushConfigStoreAssignsID(t *testing.T) {
	store := NewInMemoryPushConfigStore()
	ctx := context.Background()

	saved, err := store.Save(ctx, &a2a.TaskPushNotificationConfig{
		TaskID:                 "t1",
		PushNotificationConfig: a2a.PushNotificationConfig{URL: "https://hook.example/a"},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, saved.PushNotificationConfig.ID)
}

func TestInMemoryPushConfigStoreReplaceByID(t *testing.T) {
	store := NewInMemoryPushConfigStore()
	ctx := context.Background()

	_, err := store.Save(ctx, &a2a.TaskPushNotificationConfig{
		TaskID:                 "t1",
		PushNotificationConfig: a2a.PushNotificationConfig{ID: "c1", URL: "https://hook.example/a"},
	})
	require.NoError(t, err)
	_, err = store.Save(ctx, &a2a.TaskPushNotificationConfig{
		TaskID:                 "t1",
		PushNotificationConfig: a2a.PushNotificationConfig{ID: "c1", URL: "https://hook.example/b"},
	})
	require.NoError(t, err)

	list, err := store.List(ctx, "t1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "https://hook.example/b", list[0].PushNotificationConfig.URL)
}

func TestInMemoryPushConfigStoreGet(t *testing.T) {
	store := NewInMemoryPushConfigStore()
	ctx := context.Background()

	first, err := store.Save(ctx, &a2a.TaskPushNotificationConfig{
		TaskID:                 "t1",
		PushNotificationConfig: a2a.PushNotificationConfig{URL: "https://hook.example/a"},
	})
	require.NoError(t, err)
	_, err = store.Save(ctx, &a2a.TaskPushNotificationConfig{
		TaskID:                 "t1",
		PushNotificationConfig: a2a.PushNotificationConfig{URL: "https://hook.example/b"},
	})
	require.NoError(t, err)

	// Empty configID resolves to the first registered config.
	got, err := store.Get(ctx, "t1", "")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, first.PushNotificationConfig.ID, got.PushNotificationConfig.ID)

	got, err = store.Get(ctx, "t1", "unknown")
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = store.Get(ctx, "no-such-task", "")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestInMemoryPushConfigStoreDelete(t *testing.T) {
	store := NewInMemoryPushConfigStore()
	ctx := context.Background()

	saved, err := store.Save(ctx, &a2a.TaskPushNotificationConfig{
		TaskID:                 "t1",
		PushNotificationConfig: a2a.PushNotificationConfig{URL: "https://hook.example/a"},
	})
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, "t1", saved.PushNotificationConfig.ID))
	list, err := store.List(ctx, "t1")
	require.NoError(t, err)
	assert.Empty(t, list)

	assert.NoError(t, store.Delete(ctx, "t1", "already-gone"))
}
