package handler

import (
	"net/http"
	"strconv"

	"github.com/shiftline-hq/shiftline/backend/internal/domain"
)

const (
	defaultAuditLogLimit = 100
	maxAuditLogLimit     = 500
)

func (h *Handler) GetAuditLogs(w http.ResponseWriter, r *http.Request) {
	limit := defaultAuditLogLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			h.errorResponse(w, r, http.StatusBadRequest, "invalid limit")
			return
		}
		if parsed > maxAuditLogLimit {
			parsed = maxAuditLogLimit
		}
		limit = parsed
	}

	org := r.Context().Value(OrganizationCtx).(*domain.Organization)

	entries, err := h.repository.ListAuditLogs(r.Context(), org.ID, limit)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.writeJSON(w, r, http.StatusOK, envelope{"auditLogs": entries})
}
