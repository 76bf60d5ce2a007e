package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"medminion/internal/delivery/dto"
	"medminion/internal/usecase"
	"medminion/pkg/validator"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuditLogHandler_ListAuditLogs(t *testing.T) {
	var got *dto.ListAuditLogsRequest
	audit := &fakeAuditLogUsecase{
		list: func(req *dto.ListAuditLogsRequest) (*dto.AuditLogListResponse, error) {
			got = req
			return &dto.AuditLogListResponse{
				Logs:  []dto.AuditLogResponse{{ID: uuid.New(), Action: "appointment.book"}},
				Limit: 25,
				Total: 1,
			}, nil
		},
	}
	h := NewAuditLogHandler(audit, validator.NewValidator())

	t.Run("filters are passed through", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ListAuditLogs(rec, httptest.NewRequest(http.MethodGet,
			"/api/v1/audit-logs?entity_type=appointment&entity_id=abc&action=appointment.book&limit=25", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, &dto.ListAuditLogsRequest{
			EntityType: "appointment",
			EntityID:   "abc",
			Action:     "appointment.book",
			Limit:      25,
		}, got)

		body := decodeBody(t, rec)
		assert.Equal(t, map[string]interface{}{"limit": float64(25), "total": float64(1)}, body["meta"])
	})

	tests := []struct {
		name  string
		query string
	}{
		{name: "non-numeric limit", query: "limit=ten"},
		{name: "zero limit", query: "limit=0"},
		{name: "unknown entity type", query: "entity_type=patient"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got = nil
			rec := httptest.NewRecorder()
			h.ListAuditLogs(rec, httptest.NewRequest(http.MethodGet, "/api/v1/audit-logs?"+tt.query, nil))

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Nil(t, got)
		})
	}
}

func TestAuditLogHandler_GetAuditLog(t *testing.T) {
	known := uuid.New()
	audit := &fakeAuditLogUsecase{
		get: func(id uuid.UUID) (*dto.AuditLogResponse, error) {
			if id != known {
				return nil, usecase.ErrAuditLogNotFound
			}
			return &dto.AuditLogResponse{ID: id}, nil
		},
	}
	h := NewAuditLogHandler(audit, validator.NewValidator())

	get := func(id string) *httptest.ResponseRecorder {
		req := mux.SetURLVars(httptest.NewRequest(http.MethodGet, "/api/v1/audit-logs/"+id, nil), map[string]string{"id": id})
		rec := httptest.NewRecorder()
		h.GetAuditLog(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, get(known.String()).Code)
	assert.Equal(t, http.StatusNotFound, get(uuid.NewString()).Code)
	assert.Equal(t, http.StatusBadRequest, get("nope").Code)
}
