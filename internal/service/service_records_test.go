// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/go-offline-sync/internal/logger"
	"github.com/MKhiriev/go-offline-sync/internal/store"
	"github.com/MKhiriev/go-offline-sync/models"
)

func newBackend(t *testing.T) RecordBackendService {
	t.Helper()

	ids := &seqIDs{}
	mem, err := store.NewMemoryStore("", ids)
	require.NoError(t, err)
	blobs, err := store.NewFileBlobStorage(t.TempDir(), logger.Nop())
	require.NoError(t, err)

	return NewRecordValidationService().Wrap(
		NewRecordBackendService(&store.ServerStorages{Records: mem, Blobs: blobs}, ids, logger.Nop()),
	)
}

func TestBackend_CreateGetUpdateDelete(t *testing.T) {
	ctx := context.Background()
	svc := newBackend(t)

	created, err := svc.Create(ctx, "posts", map[string]any{"title": "a", "synced": false}, nil)
	require.NoError(t, err)
	assert.Equal(t, "id-001", created["id"])
	assert.Equal(t, "posts", created["collectionName"])
	assert.NotContains(t, created, "synced")

	_, err = svc.Create(ctx, "posts", map[string]any{"id": "id-001"}, nil)
	assert.ErrorIs(t, err, store.ErrRecordExists)

	updated, err := svc.Update(ctx, "posts", "id-001", map[string]any{"views": 3}, nil)
	require.NoError(t, err)
	assert.Equal(t, "a", updated["title"])
	assert.Equal(t, 3, updated["views"])

	got, err := svc.Get(ctx, "posts", "id-001")
	require.NoError(t, err)
	assert.Equal(t, updated["views"], got["views"])

	require.NoError(t, svc.Delete(ctx, "posts", "id-001"))
	assert.ErrorIs(t, svc.Delete(ctx, "posts", "id-001"), store.ErrRecordNotFound)
}

func TestBackend_Upsert(t *testing.T) {
	ctx := context.Background()
	svc := newBackend(t)

	first, err := svc.Upsert(ctx, "posts", map[string]any{"id": "u1", "title": "a"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "u1", first["id"])

	second, err := svc.Upsert(ctx, "posts", map[string]any{"id": "u1", "title": "b"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "b", second["title"])

	list, err := svc.List(ctx, "posts", ListQuery{})
	require.NoError(t, err)
	assert.Equal(t, 1, list.TotalItems)
}

func TestBackend_ListPagingAndFilter(t *testing.T) {
	ctx := context.Background()
	svc := newBackend(t)
	for i := range 5 {
		_, err := svc.Create(ctx, "posts", map[string]any{"n": float64(i), "even": i%2 == 0}, nil)
		require.NoError(t, err)
	}

	page, err := svc.List(ctx, "posts", ListQuery{Page: 2, PerPage: 2})
	require.NoError(t, err)
	assert.Equal(t, 5, page.TotalItems)
	assert.Equal(t, 3, page.TotalPages)
	require.Len(t, page.Items, 2)
	assert.Equal(t, float64(2), page.Items[0]["n"])

	beyond, err := svc.List(ctx, "posts", ListQuery{Page: 9, PerPage: 2})
	require.NoError(t, err)
	assert.Empty(t, beyond.Items)

	even, err := svc.List(ctx, "posts", ListQuery{Filter: map[string]string{"even": "true"}})
	require.NoError(t, err)
	assert.Equal(t, 3, even.TotalItems)
}

func TestBackend_Batch_PartialFailure(t *testing.T) {
	ctx := context.Background()
	svc := newBackend(t)

	items, err := svc.Batch(ctx, []models.BatchRequest{
		models.NewBatchRequest(models.BatchCreate, "posts", "", map[string]any{"id": "b1", "title": "a"}, nil, nil, nil),
		models.NewBatchRequest(models.BatchUpdate, "posts", "nope", map[string]any{"title": "x"}, nil, nil, nil),
		models.NewBatchRequest(models.BatchDelete, "posts", "", nil, nil, nil, nil),
		models.NewBatchRequest(models.BatchCreate, "posts", "", map[string]any{"id": "b1"}, nil, nil, nil),
		models.NewBatchRequest(models.BatchDelete, "posts", "b1", nil, nil, nil, nil),
	})
	require.NoError(t, err)
	require.Len(t, items, 5)

	assert.Equal(t, http.StatusOK, items[0].Status)
	assert.Equal(t, "b1", items[0].ID)
	assert.Equal(t, http.StatusNotFound, items[1].Status)
	assert.Equal(t, http.StatusBadRequest, items[2].Status)
	assert.Equal(t, http.StatusConflict, items[3].Status)
	assert.Equal(t, http.StatusNoContent, items[4].Status)
}

func TestBackend_Batch_Empty(t *testing.T) {
	_, err := newBackend(t).Batch(context.Background(), nil)
	var vErr *ValidationError
	assert.ErrorAs(t, err, &vErr)
}

func TestBackend_FilesAndSchema(t *testing.T) {
	ctx := context.Background()
	svc := newBackend(t)

	rec, err := svc.Create(ctx, "docs", map[string]any{"title": "r", "pages": 3.0}, []models.FileAttachment{
		{Field: "scan", Filename: "p1.png", Data: []byte("1")},
		{Field: "scan", Filename: "p2.png", Data: []byte("2")},
	})
	require.NoError(t, err)
	assert.Equal(t, []any{"p1.png", "p2.png"}, rec["scan"])

	data, err := svc.File(ctx, "docs", rec["id"].(string), "p2.png")
	require.NoError(t, err)
	assert.Equal(t, []byte("2"), data)

	schema, err := svc.Schema(ctx, "docs")
	require.NoError(t, err)
	assert.Equal(t, []string{"scan"}, schema.FileFields())
	assert.Equal(t, []models.SchemaField{
		{Name: "pages", Type: FieldTypeNumber},
		{Name: "scan", Type: models.FieldTypeFile},
		{Name: "title", Type: FieldTypeText},
	}, schema.Fields)

	_, err = svc.Schema(ctx, "unknown")
	assert.ErrorIs(t, err, ErrCollectionNotFound)

	_, err = svc.File(ctx, "docs", rec["id"].(string), "../etc/passwd")
	var vErr *ValidationError
	assert.ErrorAs(t, err, &vErr)
}

func TestBackend_SchemaRebuiltFromStoredRecords(t *testing.T) {
	ctx := context.Background()
	ids := &seqIDs{}
	mem, err := store.NewMemoryStore("", ids)
	require.NoError(t, err)
	blobs, err := store.NewFileBlobStorage(t.TempDir(), logger.Nop())
	require.NoError(t, err)

	_, err = mem.Put(ctx, models.Record{ID: "d1", Collection: "docs", Data: map[string]any{"title": "x", "file": "a.txt", "ok": true}})
	require.NoError(t, err)
	require.NoError(t, blobs.PutBlob(ctx, "d1", "a.txt", []byte("a")))

	svc := NewRecordBackendService(&store.ServerStorages{Records: mem, Blobs: blobs}, ids, logger.Nop())
	schema, err := svc.Schema(ctx, "docs")
	require.NoError(t, err)
	assert.Equal(t, []string{"file"}, schema.FileFields())
	assert.Len(t, schema.Fields, 3)
}

func TestBackend_Subscribe(t *testing.T) {
	ctx := context.Background()
	svc := newBackend(t)

	events, cancel := svc.Subscribe(ctx, "posts")
	defer cancel()
	other, cancelOther := svc.Subscribe(ctx, "tags")
	defer cancelOther()

	_, err := svc.Create(ctx, "posts", map[string]any{"id": "e1"}, nil)
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, "posts", "e1"))

	for _, want := range []models.EventAction{models.EventCreate, models.EventDelete} {
		select {
		case ev := <-events:
			assert.Equal(t, want, ev.Action)
			assert.Equal(t, "e1", ev.Record.ID)
		case <-time.After(time.Second):
			t.Fatalf("no %s event", want)
		}
	}

	select {
	case ev := <-other:
		t.Fatalf("unexpected event for other collection: %+v", ev)
	default:
	}
}

func TestEventBroker_CancelClosesChannel(t *testing.T) {
	b := newEventBroker(logger.Nop())
	ctx, cancel := context.WithCancel(context.Background())

	ch, _ := b.subscribe(ctx, "")
	assert.Equal(t, 1, b.subscribers())

	cancel()
	_, open := <-ch
	assert.False(t, open)
	assert.Zero(t, b.subscribers())
}

func TestBatchStatus(t *testing.T) {
	assert.Equal(t, http.StatusOK, BatchStatus(nil))
	assert.Equal(t, http.StatusNotFound, BatchStatus(store.ErrRecordNotFound))
	assert.Equal(t, http.StatusConflict, BatchStatus(store.ErrRecordExists))
	assert.Equal(t, http.StatusBadRequest, BatchStatus(invalid(ErrInvalidRecordData)))
	assert.Equal(t, http.StatusInternalServerError, BatchStatus(assert.AnError))
}
