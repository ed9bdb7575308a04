// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package validators

import (
	"context"
	"strings"
	"testing"

	"github.com/MKhiriev/go-offline-sync/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validCreate() models.BatchRequest {
	return models.NewBatchRequest(models.BatchCreate, "posts", "", map[string]any{"id": "019a-post", "title": "hi"}, nil, nil, nil)
}

func TestNewRecordValidator(t *testing.T) {
	require.NotNil(t, NewRecordValidator())
}

func TestValidate_Dispatch(t *testing.T) {
	v := NewRecordValidator()
	ctx := context.Background()

	t.Run("unsupported type", func(t *testing.T) {
		require.ErrorIs(t, v.Validate(ctx, "a string"), ErrUnsupportedType)
	})

	t.Run("BatchRequest value", func(t *testing.T) {
		require.NoError(t, v.Validate(ctx, validCreate()))
	})

	t.Run("BatchRequest pointer", func(t *testing.T) {
		req := validCreate()
		require.NoError(t, v.Validate(ctx, &req))
	})

	t.Run("SendRequest pointer", func(t *testing.T) {
		require.NoError(t, v.Validate(ctx, &models.SendRequest{Method: "get", Path: "/api/health"}))
	})

	t.Run("unknown field", func(t *testing.T) {
		require.ErrorIs(t, v.Validate(ctx, validCreate(), "nope"), ErrUnknownField)
	})
}

func TestValidate_BatchRequest(t *testing.T) {
	v := NewRecordValidator()
	ctx := context.Background()

	tests := []struct {
		name    string
		req     models.BatchRequest
		wantErr error
	}{
		{
			name: "valid update",
			req:  models.NewBatchRequest(models.BatchUpdate, "posts", "abc-1", map[string]any{"title": "x"}, nil, nil, nil),
		},
		{
			name: "valid delete without body",
			req:  models.NewBatchRequest(models.BatchDelete, "posts", "abc-1", nil, nil, nil, nil),
		},
		{
			name: "upsert without body id",
			req:  models.NewBatchRequest(models.BatchUpsert, "posts", "", map[string]any{"title": "x"}, nil, nil, nil),
		},
		{
			name:    "unknown method",
			req:     models.NewBatchRequest("patch", "posts", "abc-1", nil, nil, nil, nil),
			wantErr: ErrInvalidMethod,
		},
		{
			name:    "empty collection",
			req:     models.NewBatchRequest(models.BatchCreate, "", "", map[string]any{}, nil, nil, nil),
			wantErr: ErrInvalidCollection,
		},
		{
			name:    "collection with slash",
			req:     models.NewBatchRequest(models.BatchCreate, "a/b", "", map[string]any{}, nil, nil, nil),
			wantErr: ErrInvalidCollection,
		},
		{
			name:    "update without id",
			req:     models.NewBatchRequest(models.BatchUpdate, "posts", "", map[string]any{"a": 1}, nil, nil, nil),
			wantErr: ErrMissingRecordID,
		},
		{
			name:    "delete with bad id",
			req:     models.NewBatchRequest(models.BatchDelete, "posts", "../etc", nil, nil, nil, nil),
			wantErr: ErrInvalidRecordID,
		},
		{
			name:    "numeric body id",
			req:     models.NewBatchRequest(models.BatchCreate, "posts", "", map[string]any{"id": 5}, nil, nil, nil),
			wantErr: ErrInvalidRecordID,
		},
		{
			name:    "create without body",
			req:     models.NewBatchRequest(models.BatchCreate, "posts", "", nil, nil, nil, nil),
			wantErr: ErrEmptyBody,
		},
		{
			name: "bad filename",
			req: models.NewBatchRequest(models.BatchCreate, "posts", "", map[string]any{}, nil, nil,
				[]models.FileAttachment{{Field: "cover", Filename: "../x.png"}}),
			wantErr: ErrInvalidFilename,
		},
		{
			name: "bad file field",
			req: models.NewBatchRequest(models.BatchCreate, "posts", "", map[string]any{}, nil, nil,
				[]models.FileAttachment{{Field: "", Filename: "x.png"}}),
			wantErr: ErrInvalidFieldName,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(ctx, tt.req)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestValidate_BatchRequest_FieldScoping(t *testing.T) {
	v := NewRecordValidator()
	req := models.NewBatchRequest(models.BatchUpdate, "", "abc", map[string]any{}, nil, nil, nil)

	assert.NoError(t, v.Validate(context.Background(), req, FieldRecordID))
	assert.ErrorIs(t, v.Validate(context.Background(), req, FieldCollection), ErrInvalidCollection)
}

func TestValidate_Batch(t *testing.T) {
	v := NewRecordValidator()
	ctx := context.Background()

	assert.ErrorIs(t, v.Validate(ctx, []models.BatchRequest{}), ErrEmptyBatch)

	bad := []models.BatchRequest{validCreate(), models.NewBatchRequest(models.BatchDelete, "posts", "", nil, nil, nil, nil)}
	err := v.Validate(ctx, bad)
	require.ErrorIs(t, err, ErrMissingRecordID)
	assert.Contains(t, err.Error(), "index 1")

	large := make([]models.BatchRequest, MaxBatchRequests+1)
	for i := range large {
		large[i] = validCreate()
	}
	assert.ErrorIs(t, v.Validate(ctx, large), ErrBatchTooLarge)
}

func TestValidate_SendRequest(t *testing.T) {
	v := NewRecordValidator()
	ctx := context.Background()

	assert.NoError(t, v.Validate(ctx, models.SendRequest{Path: "/api/custom"}))
	assert.ErrorIs(t, v.Validate(ctx, models.SendRequest{Method: "FETCH", Path: "/x"}), ErrInvalidMethod)
	assert.ErrorIs(t, v.Validate(ctx, models.SendRequest{Method: "GET", Path: "api/x"}), ErrInvalidPath)
}

func TestIsValidName(t *testing.T) {
	assert.True(t, IsValidName("posts_2"))
	assert.True(t, IsValidName("_internal"))
	assert.False(t, IsValidName("2posts"))
	assert.False(t, IsValidName("po-sts"))
	assert.False(t, IsValidName(strings.Repeat("a", 65)))
}

func TestIsValidFilename(t *testing.T) {
	assert.True(t, IsValidFilename("photo.png"))
	assert.False(t, IsValidFilename(".."))
	assert.False(t, IsValidFilename(`a\b`))
	assert.False(t, IsValidFilename(""))
}
