package server

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roofscope/roofscope/internal/common"
)

func TestWriteError_StatusMapping(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantError  string
	}{
		{
			name:       "not found",
			err:        common.NewAppError("DOCUMENT_NOT_FOUND", "document not found", common.ErrNotFound),
			wantStatus: http.StatusNotFound,
			wantCode:   "DOCUMENT_NOT_FOUND",
			wantError:  "document not found",
		},
		{
			name:       "conflict",
			err:        common.NewAppError("ESTIMATE_CONFLICT", "estimate status changed concurrently", common.ErrConflict),
			wantStatus: http.StatusConflict,
			wantCode:   "ESTIMATE_CONFLICT",
			wantError:  "estimate status changed concurrently",
		},
		{
			name:       "invalid input",
			err:        common.NewAppError("INVALID_TRANSITION", "cannot move estimate from accepted to sent", common.ErrInvalidInput),
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_TRANSITION",
			wantError:  "cannot move estimate from accepted to sent",
		},
		{
			name:       "bare sentinel",
			err:        common.ErrNotFound,
			wantStatus: http.StatusNotFound,
			wantError:  "resource not found",
		},
		{
			name:       "unknown error is opaque",
			err:        errors.New("pgx: connection refused"),
			wantStatus: http.StatusInternalServerError,
			wantError:  "internal error",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			writeError(rec, logger, tc.err)

			assert.Equal(t, tc.wantStatus, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

			var body errorBody
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tc.wantError, body.Error)
			assert.Equal(t, tc.wantCode, body.Code)
		})
	}
}

func TestOrgFrom(t *testing.T) {
	orgID := uuid.New()

	r := httptest.NewRequest(http.MethodGet, "/v1/catalog/suppliers", nil)
	r.Header.Set(OrgHeader, orgID.String())
	got, ok := orgFrom(r)
	assert.True(t, ok)
	assert.Equal(t, orgID, got)

	r = httptest.NewRequest(http.MethodGet, "/v1/catalog/suppliers", nil)
	_, ok = orgFrom(r)
	assert.False(t, ok)

	r = httptest.NewRequest(http.MethodGet, "/v1/catalog/suppliers", nil)
	r.Header.Set(OrgHeader, "not-a-uuid")
	_, ok = orgFrom(r)
	assert.False(t, ok)
}

func TestPathUUID(t *testing.T) {
	id := uuid.New()

	mux := http.NewServeMux()
	var got uuid.UUID
	var ok bool
	mux.HandleFunc("GET /v1/documents/{id}", func(w http.ResponseWriter, r *http.Request) {
		got, ok = pathUUID(r, "id")
	})

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/documents/"+id.String(), nil))
	assert.True(t, ok)
	assert.Equal(t, id, got)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/documents/nope", nil))
	assert.False(t, ok)
}
