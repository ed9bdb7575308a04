package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/go-offline-sync/models"
)

func receive(t *testing.T, ch <-chan []models.Record) []models.Record {
	t.Helper()
	select {
	case recs, ok := <-ch:
		require.True(t, ok, "watch channel closed")
		return recs
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for watch emission")
		return nil
	}
}

func TestWatch_EmitsInitialAndChanges(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s := newTestMemoryStore(t)

	_, err := s.Create(ctx, "tasks", map[string]any{"id": "r1"}, models.RecordFlags{})
	require.NoError(t, err)

	ch, err := s.Watch(ctx, RecordFilter{Collection: "tasks"})
	require.NoError(t, err)
	assert.Len(t, receive(t, ch), 1)

	_, err = s.Create(ctx, "tasks", map[string]any{"id": "r2"}, models.RecordFlags{})
	require.NoError(t, err)
	assert.Len(t, receive(t, ch), 2)

	_, err = s.SoftDelete(ctx, "tasks", "r1", models.RecordFlags{})
	require.NoError(t, err)
	got := receive(t, ch)
	require.Len(t, got, 1)
	assert.Equal(t, "r2", got[0].ID)
}

func TestWatch_IgnoresOtherCollections(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s := newTestMemoryStore(t)

	ch, err := s.Watch(ctx, RecordFilter{Collection: "tasks"})
	require.NoError(t, err)
	assert.Empty(t, receive(t, ch))

	_, err = s.Create(ctx, "notes", map[string]any{"id": "n1"}, models.RecordFlags{})
	require.NoError(t, err)

	select {
	case recs := <-ch:
		t.Fatalf("unexpected emission %v", recs)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestWatch_ClosesOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := newTestMemoryStore(t)

	ch, err := s.Watch(ctx, RecordFilter{})
	require.NoError(t, err)
	receive(t, ch)

	cancel()
	select {
	case _, ok := <-ch:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("watch channel was not closed")
	}
}

func TestChangeHub_Coalesces(t *testing.T) {
	hub := newChangeHub()
	notify, cancel := hub.subscribe("tasks")
	defer cancel()

	hub.publish("tasks")
	hub.publish("tasks")
	hub.publish("notes")

	assert.Len(t, notify, 1)
}
