package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shiftline-hq/shiftline/backend/internal/config"
	"github.com/shiftline-hq/shiftline/backend/internal/domain"
	"github.com/shiftline-hq/shiftline/backend/internal/scheduling"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHandler(t *testing.T) *Handler {
	t.Helper()
	h, err := NewHandler(&config.Config{}, nil, nil, nil)
	require.NoError(t, err)
	return h
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	body := map[string]any{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestCoreErrorStatusMapping(t *testing.T) {
	h := newTestHandler(t)

	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"not found", scheduling.NotFound("shift not found"), http.StatusNotFound},
		{"forbidden", scheduling.Forbidden("not yours"), http.StatusForbidden},
		{"invalid input", scheduling.InvalidInput("bad date"), http.StatusBadRequest},
		{"conflict", scheduling.Conflict("please retry"), http.StatusConflict},
		{"internal", scheduling.Internal(assert.AnError), http.StatusInternalServerError},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/", nil)

			h.coreError(rec, req, tc.err)

			assert.Equal(t, tc.status, rec.Code)
			body := decodeBody(t, rec)
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestCoreErrorConflictCarriesShift(t *testing.T) {
	h := newTestHandler(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", nil)

	conflicting := &domain.Shift{ID: 42, OrganizationID: 1}
	h.coreError(rec, req, &scheduling.ConflictError{
		Msg:      "user already has an overlapping shift",
		Conflict: conflicting,
	})

	assert.Equal(t, http.StatusConflict, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "user already has an overlapping shift", body["error"])

	conflict, ok := body["conflict"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(42), conflict["id"])
}

func TestCoreErrorComplianceCarriesViolations(t *testing.T) {
	h := newTestHandler(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", nil)

	h.coreError(rec, req, &scheduling.ComplianceError{
		Violations: []domain.ComplianceViolation{{
			Type:        domain.ViolationRestPeriod,
			Severity:    domain.SeverityError,
			ActualValue: 3,
			LimitValue:  12,
			Excess:      9,
		}},
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeBody(t, rec)

	violations, ok := body["violations"].([]any)
	require.True(t, ok)
	require.Len(t, violations, 1)

	v, ok := violations[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, string(domain.ViolationRestPeriod), v["type"])
	assert.Equal(t, float64(9), v["excess"])
}
