// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import (
	"maps"
	"time"
)

// Wire field names that carry server-assigned metadata or local sync
// bookkeeping rather than user data.
const (
	FieldID             = "id"
	FieldCreated        = "created"
	FieldUpdated        = "updated"
	FieldCollectionID   = "collectionId"
	FieldCollectionName = "collectionName"
	FieldExpand         = "expand"
	FieldSynced         = "synced"
	FieldIsNew          = "isNew"
	FieldDeleted        = "deleted"
	FieldNoSync         = "noSync"
)

// metaFields lists every key that must never be sent back to the remote
// service as part of a record body.
var metaFields = []string{
	FieldCreated,
	FieldUpdated,
	FieldCollectionID,
	FieldCollectionName,
	FieldExpand,
	FieldSynced,
	FieldIsNew,
	FieldDeleted,
	FieldNoSync,
}

// Record is one backend entity instance.
//
// ID is identical in the local store and on the remote service: the local
// store mints ids that are valid remote ids, so no translation happens at
// sync time.
type Record struct {
	// ID is the record identifier shared by local and remote representations.
	ID string `json:"id"`

	// Collection is the name of the collection the record belongs to.
	Collection string `json:"collectionName"`

	// Data holds user fields (field name -> value).
	Data map[string]any `json:"data"`

	// Synced is false while the local row carries changes the remote
	// service has not confirmed yet.
	Synced bool `json:"synced"`

	// IsNew marks a record created locally that has never existed remotely.
	IsNew bool `json:"isNew"`

	// Deleted is a tombstone: the row is hidden from reads and kept until
	// the remote delete is confirmed.
	Deleted bool `json:"deleted"`

	// NoSync marks a local-only row that is never pushed.
	NoSync bool `json:"noSync"`

	Created time.Time `json:"created"`
	Updated time.Time `json:"updated"`
}

// RecordFlags are the synchronization flags written together with a row.
type RecordFlags struct {
	Synced  bool
	IsNew   bool
	Deleted bool
	NoSync  bool
}

// Flags returns the synchronization flags of r.
func (r Record) Flags() RecordFlags {
	return RecordFlags{Synced: r.Synced, IsNew: r.IsNew, Deleted: r.Deleted, NoSync: r.NoSync}
}

// WithFlags returns a copy of r carrying f.
func (r Record) WithFlags(f RecordFlags) Record {
	r.Synced = f.Synced
	r.IsNew = f.IsNew
	r.Deleted = f.Deleted
	r.NoSync = f.NoSync
	return r
}

// IsPending reports whether the record belongs to the pending-change queue.
func (r Record) IsPending() bool {
	return !r.Synced && !r.NoSync
}

// Get returns the value of a data field.
func (r Record) Get(field string) any {
	if r.Data == nil {
		return nil
	}
	return r.Data[field]
}

// GetString returns a data field as string, or "" when absent or not a string.
func (r Record) GetString(field string) string {
	s, _ := r.Get(field).(string)
	return s
}

// ToMap renders the record in the flat wire form used by the remote service:
// data fields plus id, collectionName, created and updated.
func (r Record) ToMap() map[string]any {
	out := make(map[string]any, len(r.Data)+4)
	maps.Copy(out, r.Data)
	out[FieldID] = r.ID
	if r.Collection != "" {
		out[FieldCollectionName] = r.Collection
	}
	if !r.Created.IsZero() {
		out[FieldCreated] = r.Created.UTC().Format(time.RFC3339Nano)
	}
	if !r.Updated.IsZero() {
		out[FieldUpdated] = r.Updated.UTC().Format(time.RFC3339Nano)
	}
	return out
}

// RecordFromMap builds a Record from the flat wire form. Meta fields are
// lifted out of Data; sync flags are left zero.
func RecordFromMap(collection string, m map[string]any) Record {
	rec := Record{Collection: collection, Data: make(map[string]any, len(m))}
	for k, v := range m {
		switch k {
		case FieldID:
			rec.ID, _ = v.(string)
		case FieldCollectionName:
			if name, ok := v.(string); ok && rec.Collection == "" {
				rec.Collection = name
			}
		case FieldCreated:
			rec.Created = parseTime(v)
		case FieldUpdated:
			rec.Updated = parseTime(v)
		case FieldCollectionID, FieldExpand, FieldSynced, FieldIsNew, FieldDeleted, FieldNoSync:
		default:
			rec.Data[k] = v
		}
	}
	return rec
}

// StripMeta returns a copy of body without server-assigned metadata and
// local sync bookkeeping fields. The id is kept.
func StripMeta(body map[string]any) map[string]any {
	out := maps.Clone(body)
	if out == nil {
		out = make(map[string]any)
	}
	for _, k := range metaFields {
		delete(out, k)
	}
	return out
}

func parseTime(v any) time.Time {
	s, ok := v.(string)
	if !ok || s == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02 15:04:05.000Z", "2006-01-02 15:04:05Z07:00"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
