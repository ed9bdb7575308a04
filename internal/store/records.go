package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"maps"
	"time"

	"github.com/MKhiriev/go-offline-sync/models"
)

// newLocalRecord builds a fresh row. The id is taken from data["id"] when it
// is a non-empty string and minted otherwise.
func newLocalRecord(collection string, data map[string]any, flags models.RecordFlags, ids IDGenerator, now time.Time) models.Record {
	id, _ := data[models.FieldID].(string)
	if id == "" {
		id = ids.Generate()
	}

	rec := models.Record{
		ID:         id,
		Collection: collection,
		Data:       userFields(data),
		Created:    now,
		Updated:    now,
	}
	return rec.WithFlags(flags)
}

// mergeRecord applies data on top of existing and replaces its flags.
func mergeRecord(existing models.Record, data map[string]any, flags models.RecordFlags, now time.Time) models.Record {
	merged := maps.Clone(existing.Data)
	if merged == nil {
		merged = make(map[string]any, len(data))
	}
	maps.Copy(merged, userFields(data))

	existing.Data = merged
	existing.Updated = now
	return existing.WithFlags(flags)
}

func userFields(data map[string]any) map[string]any {
	out := models.StripMeta(data)
	delete(out, models.FieldID)
	return out
}

// cloneRecord returns rec with its own copy of Data.
func cloneRecord(rec models.Record) models.Record {
	rec.Data = maps.Clone(rec.Data)
	return rec
}

// matches reports whether rec satisfies filter. It mirrors the SQL built by
// buildSelectRecordsQuery for stores that filter in memory.
func matches(rec models.Record, filter RecordFilter) bool {
	if filter.Collection != "" && rec.Collection != filter.Collection {
		return false
	}
	if filter.ID != "" && rec.ID != filter.ID {
		return false
	}
	if !filter.IncludeDeleted && rec.Deleted {
		return false
	}
	if filter.Pending && !rec.IsPending() {
		return false
	}
	for field, want := range filter.Equals {
		if !equalValues(rec.Get(field), want) {
			return false
		}
	}
	return true
}

// equalValues compares JSON-decoded values, treating every number as float64.
func equalValues(a, b any) bool {
	if fa, ok := toFloat(a); ok {
		fb, ok := toFloat(b)
		return ok && fa == fb
	}
	return fmt.Sprint(a) == fmt.Sprint(b)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

// recordRow is the column representation of a record in the records table.
type recordRow struct {
	Collection string
	ID         string
	Data       string
	Synced     bool
	IsNew      bool
	Deleted    bool
	NoSync     sql.NullBool
	Created    string
	Updated    string
}

func newRecordRow(rec models.Record) (recordRow, error) {
	data := rec.Data
	if data == nil {
		data = map[string]any{}
	}
	payload, err := json.Marshal(data)
	if err != nil {
		return recordRow{}, fmt.Errorf("%w: %w", ErrEncodingData, err)
	}

	return recordRow{
		Collection: rec.Collection,
		ID:         rec.ID,
		Data:       string(payload),
		Synced:     rec.Synced,
		IsNew:      rec.IsNew,
		Deleted:    rec.Deleted,
		NoSync:     sql.NullBool{Bool: rec.NoSync, Valid: true},
		Created:    formatTime(rec.Created),
		Updated:    formatTime(rec.Updated),
	}, nil
}

func (r recordRow) values() []any {
	return []any{r.Collection, r.ID, r.Data, r.Synced, r.IsNew, r.Deleted, r.NoSync, r.Created, r.Updated}
}

func (r *recordRow) scanTargets() []any {
	return []any{&r.Collection, &r.ID, &r.Data, &r.Synced, &r.IsNew, &r.Deleted, &r.NoSync, &r.Created, &r.Updated}
}

func (r recordRow) toRecord() (models.Record, error) {
	var data map[string]any
	if r.Data != "" {
		if err := json.Unmarshal([]byte(r.Data), &data); err != nil {
			return models.Record{}, fmt.Errorf("%w: %w", ErrEncodingData, err)
		}
	}
	if data == nil {
		data = map[string]any{}
	}

	return models.Record{
		ID:         r.ID,
		Collection: r.Collection,
		Data:       data,
		Synced:     r.Synced,
		IsNew:      r.IsNew,
		Deleted:    r.Deleted,
		NoSync:     r.NoSync.Valid && r.NoSync.Bool,
		Created:    parseTime(r.Created),
		Updated:    parseTime(r.Updated),
	}, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
