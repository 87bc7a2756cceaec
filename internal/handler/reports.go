package handler

import (
	"net/http"
	"time"

	"github.com/shiftline-hq/shiftline/backend/internal/domain"
	"github.com/shiftline-hq/shiftline/backend/internal/repository"
)

// ComplianceReport runs the working-time rules retrospectively over every
// assigned shift intersecting the requested window.
func (h *Handler) ComplianceReport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	from, err := time.Parse(time.RFC3339, q.Get("from"))
	if err != nil {
		h.errorResponse(w, r, http.StatusBadRequest, "from must be an RFC 3339 timestamp")
		return
	}
	to, err := time.Parse(time.RFC3339, q.Get("to"))
	if err != nil {
		h.errorResponse(w, r, http.StatusBadRequest, "to must be an RFC 3339 timestamp")
		return
	}
	if !to.After(from) {
		h.errorResponse(w, r, http.StatusBadRequest, "to must be after from")
		return
	}

	org := r.Context().Value(OrganizationCtx).(*domain.Organization)

	shifts, err := h.repository.ListShifts(r.Context(),
		repository.Eq("organization_id", org.ID),
		repository.NotNull("user_id"),
		repository.Overlaps("start_at", "end_at", from, to),
	)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	findings := h.rules.EvaluateRange(shifts)

	h.writeJSON(w, r, http.StatusOK, envelope{
		"from":     from,
		"to":       to,
		"findings": findings,
	})
}
