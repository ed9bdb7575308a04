// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"slices"
	"strings"

	sq "github.com/Masterminds/squirrel"
)

const (
	recordsTable   = "records"
	responsesTable = "responses"
)

var recordColumns = []string{
	"collection",
	"id",
	"data",
	"synced",
	"is_new",
	"deleted",
	"no_sync",
	"created",
	"updated",
}

// buildSelectRecordsQuery renders filter as a SELECT over the records table
// in insertion (rowid) order.
func buildSelectRecordsQuery(filter RecordFilter) (string, []any, error) {
	q := sq.Select(recordColumns...).From(recordsTable)

	if filter.Collection != "" {
		q = q.Where(sq.Eq{"collection": filter.Collection})
	}
	if filter.ID != "" {
		q = q.Where(sq.Eq{"id": filter.ID})
	}
	if !filter.IncludeDeleted {
		q = q.Where(sq.Eq{"deleted": false})
	}
	if filter.Pending {
		q = q.Where(sq.Eq{"synced": false}).
			Where(sq.Or{sq.Eq{"no_sync": nil}, sq.Eq{"no_sync": false}})
	}

	fields := make([]string, 0, len(filter.Equals))
	for field := range filter.Equals {
		fields = append(fields, field)
	}
	slices.Sort(fields)
	for _, field := range fields {
		q = q.Where(sq.Expr("json_extract(data, ?) = ?", jsonPath(field), filter.Equals[field]))
	}

	q = q.OrderBy("rowid")
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}

	return q.ToSql()
}

// buildInsertRecordQuery inserts a row and fails on (collection, id) collision.
func buildInsertRecordQuery(r recordRow) (string, []any, error) {
	return sq.Insert(recordsTable).
		Columns(recordColumns...).
		Values(r.values()...).
		ToSql()
}

// buildUpsertRecordQuery inserts or replaces a row in place, keeping its rowid.
func buildUpsertRecordQuery(r recordRow) (string, []any, error) {
	return sq.Insert(recordsTable).
		Columns(recordColumns...).
		Values(r.values()...).
		Suffix(`ON CONFLICT(collection, id) DO UPDATE SET
			data = excluded.data,
			synced = excluded.synced,
			is_new = excluded.is_new,
			deleted = excluded.deleted,
			no_sync = excluded.no_sync,
			created = excluded.created,
			updated = excluded.updated`).
		ToSql()
}

func buildDeleteRecordQuery(collection, id string) (string, []any, error) {
	return sq.Delete(recordsTable).
		Where(sq.Eq{"collection": collection, "id": id}).
		ToSql()
}

func buildSelectCollectionsQuery() (string, []any, error) {
	return sq.Select("DISTINCT collection").
		From(recordsTable).
		OrderBy("collection").
		ToSql()
}

func buildUpsertResponseQuery(key string, status int, body []byte, storedAt string) (string, []any, error) {
	return sq.Insert(responsesTable).
		Columns("key", "status", "body", "stored_at").
		Values(key, status, body, storedAt).
		Suffix(`ON CONFLICT(key) DO UPDATE SET
			status = excluded.status,
			body = excluded.body,
			stored_at = excluded.stored_at`).
		ToSql()
}

func buildSelectResponseQuery(key string) (string, []any, error) {
	return sq.Select("status", "body").
		From(responsesTable).
		Where(sq.Eq{"key": key}).
		ToSql()
}

// jsonPath quotes field as a SQLite JSON path member.
func jsonPath(field string) string {
	return `$."` + strings.ReplaceAll(field, `"`, `\"`) + `"`
}
