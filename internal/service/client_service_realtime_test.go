package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MKhiriev/go-offline-sync/internal/adapter"
	"github.com/MKhiriev/go-offline-sync/internal/store"
	"github.com/MKhiriev/go-offline-sync/models"
)

func TestRealtime_AppliesRemoteEvents(t *testing.T) {
	ctx := context.Background()
	env := newClientEnv(t)
	env.putSynced(t, "posts", "gone", map[string]any{"title": "old"})
	env.putSynced(t, "posts", "mine", map[string]any{"title": "synced"})

	env.offline()
	_, err := env.records().Update(ctx, "", "posts", "mine", map[string]any{"title": "local edit"}, adapter.RequestOptions{})
	require.NoError(t, err)
	env.online()

	events := make(chan models.RecordEvent, 4)
	events <- models.RecordEvent{Action: models.EventCreate, Record: models.Record{ID: "fresh", Collection: "posts", Data: map[string]any{"title": "hello"}}}
	events <- models.RecordEvent{Action: models.EventUpdate, Record: models.Record{ID: "mine", Collection: "posts", Data: map[string]any{"title": "remote edit"}}}
	events <- models.RecordEvent{Action: models.EventDelete, Record: models.Record{ID: "gone", Collection: "posts"}}
	events <- models.RecordEvent{Action: models.EventDelete, Record: models.Record{ID: "unknown", Collection: "posts"}}
	close(events)

	env.remote.EXPECT().Subscribe(gomock.Any(), "posts").Return((<-chan models.RecordEvent)(events), nil)

	svc := NewClientRealtimeService(env.storages, env.remote, env.log)
	require.NoError(t, svc.Listen(ctx, "posts"))

	fresh, err := env.mem.Get(ctx, "posts", "fresh")
	require.NoError(t, err)
	assert.True(t, fresh.Synced)
	assert.Equal(t, "hello", fresh.GetString("title"))

	mine, err := env.mem.Get(ctx, "posts", "mine")
	require.NoError(t, err)
	assert.Equal(t, "local edit", mine.GetString("title"))
	assert.False(t, mine.Synced)

	_, err = env.mem.Get(ctx, "posts", "gone")
	assert.ErrorIs(t, err, store.ErrRecordNotFound)
}

func TestRealtime_SubscribeError(t *testing.T) {
	env := newClientEnv(t)
	env.remote.EXPECT().Subscribe(gomock.Any(), "posts").Return(nil, fmt.Errorf("%w: refused", adapter.ErrTransport))

	err := NewClientRealtimeService(env.storages, env.remote, env.log).Listen(context.Background(), "posts")
	assert.ErrorIs(t, err, adapter.ErrTransport)
}

func TestRealtime_StopsOnContextCancel(t *testing.T) {
	env := newClientEnv(t)
	events := make(chan models.RecordEvent)
	env.remote.EXPECT().Subscribe(gomock.Any(), "posts").Return((<-chan models.RecordEvent)(events), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewClientRealtimeService(env.storages, env.remote, env.log).Listen(ctx, "posts")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRealtime_EmptyCollection(t *testing.T) {
	env := newClientEnv(t)
	err := NewClientRealtimeService(env.storages, env.remote, env.log).Listen(context.Background(), "")
	assert.ErrorIs(t, err, ErrEmptyCollection)
}
