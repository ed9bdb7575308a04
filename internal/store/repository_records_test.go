package store

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/go-offline-sync/internal/logger"
	"github.com/MKhiriev/go-offline-sync/models"
)

type fixedIDs struct {
	ids []string
	n   int
}

func (f *fixedIDs) Generate() string {
	id := f.ids[f.n%len(f.ids)]
	f.n++
	return id
}

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func newDBFromSQL(db *sql.DB) *DB {
	return &DB{
		DB:                 db,
		errorClassificator: NewSQLiteErrorClassifier(),
		logger:             logger.Nop(),
	}
}

func newTestRepo(t *testing.T, db *sql.DB, ids ...string) *recordRepository {
	t.Helper()
	if len(ids) == 0 {
		ids = []string{"generated"}
	}
	repo := NewRecordRepository(newDBFromSQL(db), &fixedIDs{ids: ids}).(*recordRepository)
	repo.now = func() time.Time { return testNow }
	return repo
}

func testContext() context.Context {
	l := zerolog.Nop()
	return l.WithContext(context.Background())
}

func recordRows() *sqlmock.Rows {
	return sqlmock.NewRows(recordColumns)
}

func TestRecordRepository_Create(t *testing.T) {
	tests := []struct {
		name    string
		data    map[string]any
		execErr error
		wantID  string
		wantErr error
	}{
		{
			name:   "success: id is minted",
			data:   map[string]any{"title": "a"},
			wantID: "generated",
		},
		{
			name:   "success: explicit id is kept and meta is stripped",
			data:   map[string]any{"id": "r1", "title": "a", "created": "x", "synced": true},
			wantID: "r1",
		},
		{
			name:    "error: primary key collision",
			data:    map[string]any{"id": "r1"},
			execErr: sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintPrimaryKey},
			wantErr: ErrRecordExists,
		},
		{
			name:    "error: generic failure",
			data:    map[string]any{"id": "r1"},
			execErr: errors.New("disk I/O error"),
			wantErr: ErrExecutingStatement,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newTestDB(t)
			repo := newTestRepo(t, db)

			exp := mock.ExpectExec(regexp.QuoteMeta("INSERT INTO records")).
				WithArgs("tasks", sqlmock.AnyArg(), sqlmock.AnyArg(), false, true, false, false, sqlmock.AnyArg(), sqlmock.AnyArg())
			if tt.execErr != nil {
				exp.WillReturnError(tt.execErr)
			} else {
				exp.WillReturnResult(sqlmock.NewResult(1, 1))
			}

			rec, err := repo.Create(testContext(), "tasks", tt.data, models.RecordFlags{IsNew: true})
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantID, rec.ID)
				assert.Equal(t, "a", rec.Data["title"])
				assert.NotContains(t, rec.Data, "id")
				assert.NotContains(t, rec.Data, "created")
				assert.NotContains(t, rec.Data, "synced")
				assert.True(t, rec.IsNew)
				assert.Equal(t, testNow, rec.Created)
			}
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestRecordRepository_Query(t *testing.T) {
	created := formatTime(testNow)

	t.Run("success: rows are decoded in order", func(t *testing.T) {
		db, mock := newTestDB(t)
		repo := newTestRepo(t, db)

		mock.ExpectQuery(regexp.QuoteMeta(selectRecordsSQL+" WHERE collection = ? AND deleted = ? ORDER BY rowid")).
			WithArgs("tasks", false).
			WillReturnRows(recordRows().
				AddRow("tasks", "r1", `{"title":"a","n":2}`, true, false, false, nil, created, created).
				AddRow("tasks", "r2", `{}`, false, true, false, true, created, created))

		got, err := repo.Query(testContext(), RecordFilter{Collection: "tasks"})
		require.NoError(t, err)
		require.Len(t, got, 2)

		assert.Equal(t, "r1", got[0].ID)
		assert.Equal(t, "a", got[0].Data["title"])
		assert.Equal(t, float64(2), got[0].Data["n"])
		assert.True(t, got[0].Synced)
		assert.False(t, got[0].NoSync, "NULL no_sync reads as false")
		assert.Equal(t, testNow, got[0].Created)

		assert.Equal(t, "r2", got[1].ID)
		assert.True(t, got[1].IsNew)
		assert.True(t, got[1].NoSync)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("success: empty result is an empty slice", func(t *testing.T) {
		db, mock := newTestDB(t)
		repo := newTestRepo(t, db)

		mock.ExpectQuery(regexp.QuoteMeta(selectRecordsSQL)).WillReturnRows(recordRows())

		got, err := repo.Query(testContext(), RecordFilter{})
		require.NoError(t, err)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})

	t.Run("error: query fails", func(t *testing.T) {
		db, mock := newTestDB(t)
		repo := newTestRepo(t, db)

		mock.ExpectQuery(regexp.QuoteMeta(selectRecordsSQL)).WillReturnError(errors.New("boom"))

		_, err := repo.Query(testContext(), RecordFilter{})
		require.ErrorIs(t, err, ErrExecutingQuery)
	})

	t.Run("error: corrupted json", func(t *testing.T) {
		db, mock := newTestDB(t)
		repo := newTestRepo(t, db)

		mock.ExpectQuery(regexp.QuoteMeta(selectRecordsSQL)).
			WillReturnRows(recordRows().AddRow("tasks", "r1", `{broken`, true, false, false, nil, created, created))

		_, err := repo.Query(testContext(), RecordFilter{})
		require.ErrorIs(t, err, ErrEncodingData)
	})
}

func TestRecordRepository_Get(t *testing.T) {
	created := formatTime(testNow)

	t.Run("tombstones are visible", func(t *testing.T) {
		db, mock := newTestDB(t)
		repo := newTestRepo(t, db)

		mock.ExpectQuery(regexp.QuoteMeta(selectRecordsSQL+" WHERE collection = ? AND id = ? ORDER BY rowid LIMIT 1")).
			WithArgs("tasks", "r1").
			WillReturnRows(recordRows().AddRow("tasks", "r1", `{}`, false, false, true, false, created, created))

		rec, err := repo.Get(testContext(), "tasks", "r1")
		require.NoError(t, err)
		assert.True(t, rec.Deleted)
	})

	t.Run("missing row", func(t *testing.T) {
		db, mock := newTestDB(t)
		repo := newTestRepo(t, db)

		mock.ExpectQuery(regexp.QuoteMeta(selectRecordsSQL)).WillReturnRows(recordRows())

		_, err := repo.Get(testContext(), "tasks", "nope")
		require.ErrorIs(t, err, ErrRecordNotFound)
	})
}

func TestRecordRepository_Update(t *testing.T) {
	created := formatTime(testNow.Add(-time.Hour))

	t.Run("merges fields and replaces flags", func(t *testing.T) {
		db, mock := newTestDB(t)
		repo := newTestRepo(t, db)

		mock.ExpectQuery(regexp.QuoteMeta(selectRecordsSQL)).
			WillReturnRows(recordRows().AddRow("tasks", "r1", `{"title":"a","done":false}`, true, false, false, false, created, created))
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO records")).
			WithArgs("tasks", "r1", sqlmock.AnyArg(), false, false, false, false, created, formatTime(testNow)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		rec, err := repo.Update(testContext(), "tasks", "r1", map[string]any{"done": true, "updated": "ignored"}, models.RecordFlags{})
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"title": "a", "done": true}, rec.Data)
		assert.False(t, rec.Synced)
		assert.Equal(t, testNow, rec.Updated)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing row", func(t *testing.T) {
		db, mock := newTestDB(t)
		repo := newTestRepo(t, db)

		mock.ExpectQuery(regexp.QuoteMeta(selectRecordsSQL)).WillReturnRows(recordRows())

		_, err := repo.Update(testContext(), "tasks", "r1", map[string]any{"done": true}, models.RecordFlags{})
		require.ErrorIs(t, err, ErrRecordNotFound)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRecordRepository_SoftDelete(t *testing.T) {
	created := formatTime(testNow)

	tests := []struct {
		name  string
		isNew bool
	}{
		{name: "remote record", isNew: false},
		{name: "never pushed record keeps isNew", isNew: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newTestDB(t)
			repo := newTestRepo(t, db)

			mock.ExpectQuery(regexp.QuoteMeta(selectRecordsSQL)).
				WillReturnRows(recordRows().AddRow("tasks", "r1", `{"title":"a"}`, !tt.isNew, tt.isNew, false, false, created, created))
			mock.ExpectExec(regexp.QuoteMeta("INSERT INTO records")).
				WithArgs("tasks", "r1", `{"title":"a"}`, false, tt.isNew, true, false, created, created).
				WillReturnResult(sqlmock.NewResult(0, 1))

			rec, err := repo.SoftDelete(testContext(), "tasks", "r1", models.RecordFlags{})
			require.NoError(t, err)
			assert.True(t, rec.Deleted)
			assert.Equal(t, tt.isNew, rec.IsNew)
			assert.Equal(t, "a", rec.Data["title"])
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestRecordRepository_Delete(t *testing.T) {
	db, mock := newTestDB(t)
	repo := newTestRepo(t, db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM records WHERE collection = ? AND id = ?")).
		WithArgs("tasks", "r1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.Delete(testContext(), "tasks", "r1"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordRepository_BusyDatabaseIsRetried(t *testing.T) {
	db, mock := newTestDB(t)
	repo := newTestRepo(t, db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM records")).
		WillReturnError(sqlite3.Error{Code: sqlite3.ErrBusy})
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM records")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Delete(testContext(), "tasks", "r1"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordRepository_Collections(t *testing.T) {
	db, mock := newTestDB(t)
	repo := newTestRepo(t, db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT DISTINCT collection FROM records ORDER BY collection")).
		WillReturnRows(sqlmock.NewRows([]string{"collection"}).AddRow("notes").AddRow("tasks"))

	got, err := repo.Collections(testContext())
	require.NoError(t, err)
	assert.Equal(t, []string{"notes", "tasks"}, got)
}

func TestResponseRepository(t *testing.T) {
	t.Run("hit", func(t *testing.T) {
		db, mock := newTestDB(t)
		repo := NewResponseRepository(newDBFromSQL(db))

		mock.ExpectQuery(regexp.QuoteMeta("SELECT status, body FROM responses WHERE key = ?")).
			WithArgs("k").
			WillReturnRows(sqlmock.NewRows([]string{"status", "body"}).AddRow(200, []byte(`{"ok":true}`)))

		resp, err := repo.GetResponse(testContext(), "k")
		require.NoError(t, err)
		assert.Equal(t, 200, resp.Status)
		assert.JSONEq(t, `{"ok":true}`, string(resp.Body))
		assert.True(t, resp.FromCache)
	})

	t.Run("miss", func(t *testing.T) {
		db, mock := newTestDB(t)
		repo := NewResponseRepository(newDBFromSQL(db))

		mock.ExpectQuery(regexp.QuoteMeta("SELECT status, body FROM responses")).
			WillReturnRows(sqlmock.NewRows([]string{"status", "body"}))

		_, err := repo.GetResponse(testContext(), "k")
		require.ErrorIs(t, err, ErrResponseNotCached)
	})

	t.Run("put", func(t *testing.T) {
		db, mock := newTestDB(t)
		repo := NewResponseRepository(newDBFromSQL(db))

		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO responses")).
			WithArgs("k", 201, []byte("x"), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(1, 1))

		require.NoError(t, repo.PutResponse(testContext(), "k", models.SendResponse{Status: 201, Body: []byte("x")}))
		require.NoError(t, mock.ExpectationsWereMet())
	})
}
