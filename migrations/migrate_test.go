// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package migrations

import (
	"context"
	"io/fs"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrate_DBError(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	// no expectations: goose fails on its first statement
	applied, err := Migrate(context.Background(), db)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "migrate:")
	assert.Nil(t, applied)
}

func TestMigrate_NilDB(t *testing.T) {
	_, err := Migrate(context.Background(), nil)
	assert.ErrorIs(t, err, errNilDB)
}

func TestMigrations_Embedded(t *testing.T) {
	names, err := fs.Glob(embedMigrations, "*.sql")
	require.NoError(t, err)

	assert.Equal(t, []string{"00001_records.sql", "00002_responses.sql"}, names)
}
