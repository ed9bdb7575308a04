// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/MKhiriev/go-offline-sync/internal/logger"
	"github.com/MKhiriev/go-offline-sync/internal/service"
	"github.com/MKhiriev/go-offline-sync/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newHandlerWithAuth(auth service.AuthService) *Handler {
	svcs := &service.Services{
		AppInfoService: &fakeAppInfoService{version: "test"},
		AuthService:    auth,
	}
	return NewHandler(svcs, Options{AuthEnabled: true}, logger.Nop())
}

func TestIssueToken(t *testing.T) {
	expires := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		body       string
		createErr  error
		wantStatus int
		wantToken  bool
	}{
		{name: "success", body: `{"clientId":"device-1"}`, wantStatus: http.StatusOK, wantToken: true},
		{name: "invalid JSON", body: `{"clientId":`, wantStatus: http.StatusBadRequest},
		{name: "empty client id", body: `{}`, createErr: service.ErrInvalidDataProvided, wantStatus: http.StatusBadRequest},
		{name: "auth disabled", body: `{"clientId":"d"}`, createErr: service.ErrAuthDisabled, wantStatus: http.StatusNotImplemented},
		{
			name:       "signing failure",
			body:       `{"clientId":"d"}`,
			createErr:  fmt.Errorf("%w: boom", service.ErrTokenCreationFailed),
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotClientID string
			auth := &fakeAuthService{
				createFn: func(_ context.Context, clientID string) (models.Token, error) {
					gotClientID = clientID
					if tt.createErr != nil {
						return models.Token{}, tt.createErr
					}
					return models.Token{
						SignedString:     "signed.jwt.token",
						RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(expires)},
					}, nil
				},
			}

			h := newHandlerWithAuth(auth)
			req := httptest.NewRequest(http.MethodPost, "/api/auth/token", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()

			h.issueToken(rec, req)

			require.Equal(t, tt.wantStatus, rec.Code)
			if !tt.wantToken {
				assert.Empty(t, rec.Header().Get("Authorization"))
				var envelope models.ErrorResponse
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
				assert.Equal(t, tt.wantStatus, envelope.Status)
				return
			}

			assert.Equal(t, "device-1", gotClientID)
			assert.Equal(t, "Bearer signed.jwt.token", rec.Header().Get("Authorization"))

			var resp tokenResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, "signed.jwt.token", resp.Token)
			assert.Equal(t, expires.Unix(), resp.ExpiresAt)
		})
	}
}

func TestIssueToken_InternalErrorHidesDetails(t *testing.T) {
	auth := &fakeAuthService{
		createFn: func(context.Context, string) (models.Token, error) {
			return models.Token{}, errors.New("key material exploded")
		},
	}

	rec := httptest.NewRecorder()
	newHandlerWithAuth(auth).issueToken(rec, httptest.NewRequest(http.MethodPost, "/api/auth/token", strings.NewReader(`{"clientId":"d"}`)))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "exploded")
}
