package service

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MKhiriev/go-offline-sync/internal/adapter"
	"github.com/MKhiriev/go-offline-sync/internal/policy"
	"github.com/MKhiriev/go-offline-sync/internal/store"
	"github.com/MKhiriev/go-offline-sync/models"
)

func (e *clientEnv) batches() ClientBatchService {
	return NewClientBatchService(e.storages, e.remote, e.resolver, e.ids, models.CacheAndNetwork, e.log)
}

func TestBatch_EmptySend(t *testing.T) {
	env := newClientEnv(t)

	results, err := env.batches().NewBatch().Send(context.Background(), models.NetworkOnly)
	require.NoError(t, err)
	assert.NotNil(t, results)
	assert.Empty(t, results)
}

func TestBatch_QueuingHasNoSideEffects(t *testing.T) {
	ctx := context.Background()
	env := newClientEnv(t)

	b := env.batches().NewBatch()
	b.Collection("posts").Create(map[string]any{"title": "a"}).Delete("p9")

	assert.Equal(t, 2, b.Len())
	all, err := env.mem.Query(ctx, store.RecordFilter{IncludeDeleted: true})
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestBatch_NetworkOnly_OfflineLeavesStoreUntouched(t *testing.T) {
	ctx := context.Background()
	env := newClientEnv(t)
	env.offline()

	b := env.batches().NewBatch()
	b.Collection("posts").Create(map[string]any{"title": "a"}).Update("p1", map[string]any{"title": "b"})

	_, err := b.Send(ctx, models.NetworkOnly)
	require.ErrorIs(t, err, policy.ErrOffline)

	all, err := env.mem.Query(ctx, store.RecordFilter{IncludeDeleted: true})
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestBatch_NetworkOnly_ReturnsItemsVerbatim(t *testing.T) {
	ctx := context.Background()
	env := newClientEnv(t)

	b := env.batches().NewBatch()
	b.Collection("posts").
		Create(map[string]any{"title": "a"}).
		Delete("p1").
		Update("p2", map[string]any{"title": "c"})

	env.remote.EXPECT().SubmitBatch(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, reqs []models.BatchRequest) ([]models.BatchResponseItem, error) {
			require.Len(t, reqs, 3)
			assert.Equal(t, "id-001", reqs[0].Body["id"])
			assert.Equal(t, "p1", reqs[1].RecordID)
			return []models.BatchResponseItem{
				{Status: 200, Body: map[string]any{"id": "id-001", "title": "a"}},
				{Status: 204, ID: "p1"},
				{Status: 404, Body: map[string]any{"message": "missing"}},
			}, nil
		})

	results, err := b.Send(ctx, models.NetworkOnly)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, "id-001", results[0].RecordID)
	assert.Equal(t, "p1", results[1].RecordID)
	assert.Equal(t, http.StatusNotFound, results[2].Status)
	assert.Empty(t, results[2].RecordID)
	for _, r := range results {
		assert.Equal(t, "posts", r.Collection)
	}

	_, err = env.mem.Get(ctx, "posts", "id-001")
	assert.ErrorIs(t, err, store.ErrRecordNotFound, "networkOnly never mirrors")
}

func TestBatch_CacheOnly_OneResultPerRequest(t *testing.T) {
	ctx := context.Background()
	env := newClientEnv(t)
	env.putSynced(t, "posts", "p1", map[string]any{"title": "a"})

	b := env.batches().NewBatch()
	b.Collection("posts").
		Create(map[string]any{"title": "new"}).
		Update("p1", map[string]any{"title": "changed"}).
		Upsert(map[string]any{"id": "p2", "title": "up"})
	b.Collection("tags").Delete("t1")

	results, err := b.Send(ctx, models.CacheOnly)
	require.NoError(t, err)
	require.Len(t, results, 4)

	assert.Equal(t, []int{200, 200, 200, 204}, []int{results[0].Status, results[1].Status, results[2].Status, results[3].Status})
	assert.Equal(t, "tags", results[3].Collection)

	recs, err := env.mem.Query(ctx, store.RecordFilter{Collection: "posts"})
	require.NoError(t, err)
	for _, rec := range recs {
		assert.True(t, rec.NoSync, rec.ID)
		assert.False(t, rec.Synced, rec.ID)
	}

	pending, err := env.sync().Pending(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestBatch_CacheAndNetwork_OfflinePartialFailure(t *testing.T) {
	ctx := context.Background()
	env := newClientEnv(t)
	env.offline()

	b := env.batches().NewBatch()
	b.Collection("posts").
		Create(map[string]any{"title": "a"}).
		Update("missing", map[string]any{"title": "x"}).
		Create(map[string]any{"title": "c"})

	results, err := b.Send(ctx, models.CacheAndNetwork)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, http.StatusOK, results[0].Status)
	assert.Equal(t, http.StatusInternalServerError, results[1].Status)
	assert.Contains(t, results[1].Body.(map[string]any)["message"], "missing")
	assert.Equal(t, http.StatusOK, results[2].Status)

	pending, err := env.sync().Pending(ctx, "posts")
	require.NoError(t, err)
	assert.Len(t, pending, 2)
}

func TestBatch_CacheAndNetwork_MirrorsSuccessfulItems(t *testing.T) {
	ctx := context.Background()
	env := newClientEnv(t)
	env.putSynced(t, "posts", "gone", map[string]any{"title": "old"})

	b := env.batches().NewBatch()
	b.Collection("posts").
		Create(map[string]any{"id": "keep", "title": "a"}).
		Delete("gone").
		Create(map[string]any{"id": "bad", "title": "b"})

	env.remote.EXPECT().SubmitBatch(gomock.Any(), gomock.Any()).Return([]models.BatchResponseItem{
		{Status: 200, Body: map[string]any{"id": "keep", "title": "a"}},
		{Status: 204},
		{Status: 400, Body: map[string]any{"message": "invalid"}},
	}, nil)

	results, err := b.Send(ctx, models.CacheAndNetwork)
	require.NoError(t, err)
	require.Len(t, results, 3)

	kept, err := env.mem.Get(ctx, "posts", "keep")
	require.NoError(t, err)
	assert.True(t, kept.Synced)

	_, err = env.mem.Get(ctx, "posts", "gone")
	assert.ErrorIs(t, err, store.ErrRecordNotFound)

	_, err = env.mem.Get(ctx, "posts", "bad")
	assert.ErrorIs(t, err, store.ErrRecordNotFound)
}

func TestBatch_CacheAndNetwork_TransportErrorFallsBack(t *testing.T) {
	ctx := context.Background()
	env := newClientEnv(t)

	b := env.batches().NewBatch()
	b.Collection("posts").Create(map[string]any{"title": "a"})

	env.remote.EXPECT().SubmitBatch(gomock.Any(), gomock.Any()).
		Return(nil, fmt.Errorf("%w: timeout", adapter.ErrTransport))

	results, err := b.Send(ctx, models.CacheAndNetwork)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, http.StatusOK, results[0].Status)

	rec, err := env.mem.Get(ctx, "posts", results[0].RecordID)
	require.NoError(t, err)
	assert.True(t, rec.IsPending())
}

func TestBatch_WithOptions(t *testing.T) {
	env := newClientEnv(t)

	b := env.batches().NewBatch()
	b.Collection("docs").Create(map[string]any{"title": "a"},
		WithQuery(map[string]string{"expand": "owner"}),
		WithHeaders(map[string]string{"X-Trace": "1"}),
		WithFiles(models.FileAttachment{Field: "file", Filename: "a.txt", Data: []byte("a")}),
	)

	reqs := b.snapshot()
	require.Len(t, reqs, 1)
	assert.Equal(t, models.BatchCreate, reqs[0].Method)
	assert.Equal(t, "owner", reqs[0].Query["expand"])
	assert.Equal(t, "1", reqs[0].Headers["X-Trace"])
	assert.Len(t, reqs[0].Files, 1)
	assert.Equal(t, "id-001", reqs[0].RecordID)
}

func TestResultID(t *testing.T) {
	assert.Equal(t, "x", resultID(models.BatchResponseItem{ID: "x", Body: map[string]any{"id": "y"}}))
	assert.Equal(t, "y", resultID(models.BatchResponseItem{Body: map[string]any{"id": "y"}}))
	assert.Empty(t, resultID(models.BatchResponseItem{Body: "text"}))
}

func TestBatch_CacheFirst(t *testing.T) {
	confirmed := []models.BatchResponseItem{
		{Status: 200, Body: map[string]any{"id": "c1", "title": "a"}},
		{Status: 204, ID: "gone"},
	}

	tests := []struct {
		name        string
		offline     bool
		submitErr   error
		wantPending []string
	}{
		{name: "online, remote confirms", wantPending: nil},
		{name: "online, submission fails", submitErr: fmt.Errorf("%w: timeout", adapter.ErrTransport), wantPending: []string{"c1", "gone"}},
		{name: "offline, no background leg", offline: true, wantPending: []string{"c1", "gone"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			env := newClientEnv(t)
			env.putSynced(t, "posts", "gone", map[string]any{"title": "old"})
			if tt.offline {
				env.offline()
			}

			release := make(chan struct{})
			if !tt.offline {
				env.remote.EXPECT().SubmitBatch(gomock.Any(), gomock.Len(2)).
					DoAndReturn(func(context.Context, []models.BatchRequest) ([]models.BatchResponseItem, error) {
						<-release
						if tt.submitErr != nil {
							return nil, tt.submitErr
						}
						return confirmed, nil
					})
			}

			b := env.batches().NewBatch()
			b.Collection("posts").Create(map[string]any{"id": "c1", "title": "a"}).Delete("gone")

			results, err := b.Send(ctx, models.CacheFirst)
			require.NoError(t, err)
			require.Len(t, results, 2)
			assert.Equal(t, http.StatusOK, results[0].Status)
			assert.Equal(t, http.StatusNoContent, results[1].Status)

			// the local write is visible before the network leg finishes
			created, err := env.mem.Get(ctx, "posts", "c1")
			require.NoError(t, err)
			assert.False(t, created.Synced)
			assert.False(t, created.NoSync)
			tomb, err := env.mem.Get(ctx, "posts", "gone")
			require.NoError(t, err)
			assert.True(t, tomb.Deleted)

			close(release)
			env.resolver.Wait()

			pending, err := env.sync().Pending(ctx, "posts")
			require.NoError(t, err)
			var ids []string
			for _, rec := range pending {
				ids = append(ids, rec.ID)
			}
			assert.ElementsMatch(t, tt.wantPending, ids)

			if tt.wantPending == nil {
				mirrored, err := env.mem.Get(ctx, "posts", "c1")
				require.NoError(t, err)
				assert.True(t, mirrored.Synced)
				_, err = env.mem.Get(ctx, "posts", "gone")
				assert.ErrorIs(t, err, store.ErrRecordNotFound)
			}
		})
	}
}

func TestBatch_NetworkFirst(t *testing.T) {
	tests := []struct {
		name      string
		offline   bool
		items     []models.BatchResponseItem
		submitErr error
		wantErr   error
		wantRows  map[string]bool // id -> synced
	}{
		{
			name:     "offline",
			offline:  true,
			wantErr:  policy.ErrOffline,
			wantRows: map[string]bool{},
		},
		{
			name:      "transport error",
			submitErr: fmt.Errorf("%w: connection refused", adapter.ErrTransport),
			wantErr:   adapter.ErrTransport,
			wantRows:  map[string]bool{},
		},
		{
			name: "success mirrors confirmed items",
			items: []models.BatchResponseItem{
				{Status: 200, Body: map[string]any{"id": "n1", "title": "a"}},
				{Status: 400, Body: map[string]any{"message": "invalid"}},
			},
			wantRows: map[string]bool{"n1": true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			env := newClientEnv(t)
			if tt.offline {
				env.offline()
			} else {
				env.remote.EXPECT().SubmitBatch(gomock.Any(), gomock.Len(2)).Return(tt.items, tt.submitErr)
			}

			b := env.batches().NewBatch()
			b.Collection("posts").
				Create(map[string]any{"id": "n1", "title": "a"}).
				Create(map[string]any{"id": "n2", "title": ""})

			results, err := b.Send(ctx, models.NetworkFirst)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, results)
			} else {
				require.NoError(t, err)
				require.Len(t, results, 2)
				assert.Equal(t, http.StatusBadRequest, results[1].Status)
			}

			all, err := env.mem.Query(ctx, store.RecordFilter{IncludeDeleted: true})
			require.NoError(t, err)
			got := make(map[string]bool, len(all))
			for _, rec := range all {
				got[rec.ID] = rec.Synced
			}
			assert.Equal(t, tt.wantRows, got)

			pending, err := env.sync().Pending(ctx, "")
			require.NoError(t, err)
			assert.Empty(t, pending)
		})
	}
}
