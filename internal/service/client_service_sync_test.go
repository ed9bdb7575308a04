package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MKhiriev/go-offline-sync/internal/adapter"
	"github.com/MKhiriev/go-offline-sync/models"
)

func collect(t *testing.T, ch <-chan models.RetryProgress) []models.RetryProgress {
	t.Helper()

	var out []models.RetryProgress
	timeout := time.After(2 * time.Second)
	for {
		select {
		case p, ok := <-ch:
			if !ok {
				return out
			}
			out = append(out, p)
		case <-timeout:
			t.Fatal("progress channel was not closed")
			return nil
		}
	}
}

func TestRetryLocal_ProgressSequence_PartialFailure(t *testing.T) {
	ctx := context.Background()
	env := newClientEnv(t)
	env.noSchema()
	records, syncSvc := env.records(), env.sync()

	env.offline()
	for _, title := range []string{"a", "b", "c"} {
		_, err := records.Create(ctx, "", "posts", map[string]any{"title": title}, adapter.RequestOptions{})
		require.NoError(t, err)
	}

	env.online()
	env.remote.EXPECT().CreateRecord(gomock.Any(), "posts", gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, collection string, body map[string]any, opts adapter.RequestOptions) (map[string]any, error) {
			if body["id"] == "id-002" {
				return nil, fmt.Errorf("%w: rejected", adapter.ErrBadRequest)
			}
			return echo(collection)(ctx, collection, body, opts)
		}).Times(3)

	ch, err := syncSvc.RetryLocal(ctx, "posts")
	require.NoError(t, err)

	assert.Equal(t, []models.RetryProgress{
		{Current: 0, Total: 3},
		{Current: 1, Total: 3},
		{Current: 2, Total: 3},
		{Current: 3, Total: 3},
	}, collect(t, ch))

	pending, err := syncSvc.Pending(ctx, "posts")
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "id-002", pending[0].ID)
}

func TestRetryLocal_EmptyQueue(t *testing.T) {
	ch, err := newClientEnv(t).sync().RetryLocal(context.Background(), "posts")
	require.NoError(t, err)

	assert.Equal(t, []models.RetryProgress{{Current: 0, Total: 0}}, collect(t, ch))
}

func TestRetryLocal_SkipsLocalOnlyRows(t *testing.T) {
	ctx := context.Background()
	env := newClientEnv(t)

	_, err := env.records().Create(ctx, models.CacheOnly, "posts", map[string]any{"title": "mine"}, adapter.RequestOptions{})
	require.NoError(t, err)

	ch, err := env.sync().RetryLocal(ctx, "posts")
	require.NoError(t, err)
	assert.Equal(t, []models.RetryProgress{{Current: 0, Total: 0}}, collect(t, ch))
}

func TestRetryLocal_OfflineLeavesQueue(t *testing.T) {
	ctx := context.Background()
	env := newClientEnv(t)
	env.noSchema()

	env.offline()
	_, err := env.records().Create(ctx, "", "posts", map[string]any{"title": "a"}, adapter.RequestOptions{})
	require.NoError(t, err)

	ch, err := env.sync().RetryLocal(ctx, "posts")
	require.NoError(t, err)
	assert.Len(t, collect(t, ch), 2)

	pending, err := env.sync().Pending(ctx, "posts")
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}

func TestRetryLocal_ContinuesAfterCallerCancels(t *testing.T) {
	env := newClientEnv(t)
	env.noSchema()

	env.offline()
	_, err := env.records().Create(context.Background(), "", "posts", map[string]any{"title": "a"}, adapter.RequestOptions{})
	require.NoError(t, err)
	env.online()

	env.remote.EXPECT().CreateRecord(gomock.Any(), "posts", gomock.Any(), gomock.Any()).DoAndReturn(echo("posts"))

	ctx, cancel := context.WithCancel(context.Background())
	ch, err := env.sync().RetryLocal(ctx, "posts")
	require.NoError(t, err)
	cancel()

	progress := collect(t, ch)
	require.NotEmpty(t, progress)
	assert.True(t, progress[len(progress)-1].Done())
}

func TestRetryAll_ConcurrentCallsShareOnePass(t *testing.T) {
	ctx := context.Background()
	env := newClientEnv(t)
	env.noSchema()

	env.offline()
	_, err := env.records().Create(ctx, "", "posts", map[string]any{"title": "a"}, adapter.RequestOptions{})
	require.NoError(t, err)
	env.online()

	release := make(chan struct{})
	env.remote.EXPECT().CreateRecord(gomock.Any(), "posts", gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, collection string, body map[string]any, opts adapter.RequestOptions) (map[string]any, error) {
			<-release
			return echo(collection)(ctx, collection, body, opts)
		}).Times(1)

	syncSvc := env.sync()
	var wg sync.WaitGroup
	results := make([]models.RetryProgress, 2)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], _ = syncSvc.RetryAll(ctx)
		}()
	}

	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, results[0], results[1])
}

func TestReplay_SendsCachedAttachments(t *testing.T) {
	ctx := context.Background()
	env := newClientEnv(t)
	env.remote.EXPECT().GetCollectionSchema(gomock.Any(), "docs").
		Return(models.CollectionSchema{Name: "docs", Fields: []models.SchemaField{{Name: "file", Type: models.FieldTypeFile}}}, nil)

	env.offline()
	rec, err := env.records().Create(ctx, "", "docs", map[string]any{"title": "report"}, adapter.RequestOptions{
		Files: []models.FileAttachment{{Field: "file", Filename: "report.pdf", Data: []byte("%PDF")}},
	})
	require.NoError(t, err)
	assert.Equal(t, "report.pdf", rec.GetString("file"))

	env.online()
	env.remote.EXPECT().CreateRecord(gomock.Any(), "docs", gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, collection string, body map[string]any, opts adapter.RequestOptions) (map[string]any, error) {
			require.Len(t, opts.Files, 1)
			assert.Equal(t, "file", opts.Files[0].Field)
			assert.Equal(t, []byte("%PDF"), opts.Files[0].Data)
			return echo(collection)(ctx, collection, body, opts)
		})

	_, err = env.sync().RetryAll(ctx)
	require.NoError(t, err)
}

func TestReplay_InfersFileFieldsWithoutSchema(t *testing.T) {
	ctx := context.Background()
	env := newClientEnv(t)
	env.remote.EXPECT().GetCollectionSchema(gomock.Any(), "docs").
		Return(models.CollectionSchema{}, errors.New("schema endpoint missing")).AnyTimes()
	env.putSynced(t, "docs", "d1", map[string]any{"title": "a", "file": "old.txt"})

	env.offline()
	_, err := env.records().Update(ctx, "", "docs", "d1", map[string]any{"title": "b"}, adapter.RequestOptions{
		Files: []models.FileAttachment{{Field: "file", Filename: "new.txt", Data: []byte("new")}},
	})
	require.NoError(t, err)

	env.online()
	env.remote.EXPECT().UpdateRecord(gomock.Any(), "docs", "d1", gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _, id string, body map[string]any, opts adapter.RequestOptions) (map[string]any, error) {
			assert.NotContains(t, body, "file")
			require.Len(t, opts.Files, 1)
			assert.Equal(t, "new.txt", opts.Files[0].Filename)
			return map[string]any{"id": id, "title": body["title"], "file": "new.txt"}, nil
		})

	_, err = env.sync().RetryAll(ctx)
	require.NoError(t, err)
}
