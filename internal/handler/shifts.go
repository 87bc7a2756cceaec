package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/shiftline-hq/shiftline/backend/internal/audit"
	"github.com/shiftline-hq/shiftline/backend/internal/domain"
	"github.com/shiftline-hq/shiftline/backend/internal/repository"
	"github.com/shiftline-hq/shiftline/backend/internal/scheduling"
)

type shiftRequest struct {
	LocationID      *int64    `json:"locationId"`
	StartAt         time.Time `json:"startAt" validate:"required"`
	EndAt           time.Time `json:"endAt" validate:"required"`
	BreakMinutes    int32     `json:"breakMinutes" validate:"gte=0"`
	RequiredSkillID *int64    `json:"requiredSkillId"`
	Notes           string    `json:"notes"`
	Color           string    `json:"color"`
}

func (h *Handler) CreateShift(w http.ResponseWriter, r *http.Request) {
	var req shiftRequest

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if !req.EndAt.After(req.StartAt) {
		h.errorResponse(w, r, http.StatusBadRequest, "endAt must be after startAt")
		return
	}

	org := r.Context().Value(OrganizationCtx).(*domain.Organization)
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)

	shift := &domain.Shift{
		OrganizationID:  org.ID,
		LocationID:      req.LocationID,
		StartAt:         req.StartAt,
		EndAt:           req.EndAt,
		BreakMinutes:    req.BreakMinutes,
		Status:          domain.ShiftStatusDraft,
		RequiredSkillID: req.RequiredSkillID,
		Notes:           req.Notes,
		Color:           req.Color,
		CreatedBy:       myInfo.ID,
	}

	if err := h.repository.CreateShift(r.Context(), shift); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.auditLog.Record(r.Context(), domain.AuditEntry{
		OrganizationID: org.ID,
		ActorID:        myInfo.ID,
		Action:         "shift.create",
		EntityType:     "shift",
		EntityID:       shift.ID,
		NewData:        audit.JSON(shift),
	})

	h.writeJSON(w, r, http.StatusCreated, envelope{"shift": shift})
}

func (h *Handler) CreateShiftFromTemplate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TemplateID int64  `json:"templateId" validate:"required"`
		Date       string `json:"date" validate:"required"`
		LocationID *int64 `json:"locationId"`
		Notes      string `json:"notes"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	org := r.Context().Value(OrganizationCtx).(*domain.Organization)
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)

	tpl, err := h.repository.GetShiftTemplate(r.Context(), org.ID, req.TemplateID)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, http.StatusNotFound, "shift template not found")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	shift, err := scheduling.ExpandTemplate(tpl, req.Date, myInfo.ID, scheduling.ExpandOptions{
		LocationID: req.LocationID,
		Notes:      req.Notes,
	})
	if err != nil {
		h.coreError(w, r, err)
		return
	}

	if err := h.repository.CreateShift(r.Context(), shift); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.auditLog.Record(r.Context(), domain.AuditEntry{
		OrganizationID: org.ID,
		ActorID:        myInfo.ID,
		Action:         "shift.create",
		EntityType:     "shift",
		EntityID:       shift.ID,
		NewData:        audit.JSON(shift),
	})

	h.writeJSON(w, r, http.StatusCreated, envelope{"shift": shift})
}

func (h *Handler) GetShift(w http.ResponseWriter, r *http.Request) {
	shift := r.Context().Value(ShiftCtx).(*domain.Shift)
	h.writeJSON(w, r, http.StatusOK, envelope{"shift": shift})
}

// ListShifts filters by any combination of from/to (RFC 3339), userId,
// locationId and status query parameters.
func (h *Handler) ListShifts(w http.ResponseWriter, r *http.Request) {
	org := r.Context().Value(OrganizationCtx).(*domain.Organization)

	filters := []repository.Filter{repository.Eq("organization_id", org.ID)}

	q := r.URL.Query()

	var from, to *time.Time
	if raw := q.Get("from"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			h.errorResponse(w, r, http.StatusBadRequest, "from must be an RFC 3339 timestamp")
			return
		}
		from = &t
	}
	if raw := q.Get("to"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			h.errorResponse(w, r, http.StatusBadRequest, "to must be an RFC 3339 timestamp")
			return
		}
		to = &t
	}
	switch {
	case from != nil && to != nil:
		filters = append(filters, repository.Overlaps("start_at", "end_at", *from, *to))
	case from != nil:
		filters = append(filters, repository.Gt("end_at", *from))
	case to != nil:
		filters = append(filters, repository.Lt("start_at", *to))
	}

	if raw := q.Get("userId"); raw != "" {
		userID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			h.errorResponse(w, r, http.StatusBadRequest, "invalid userId")
			return
		}
		filters = append(filters, repository.Eq("user_id", userID))
	}
	if raw := q.Get("locationId"); raw != "" {
		locationID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			h.errorResponse(w, r, http.StatusBadRequest, "invalid locationId")
			return
		}
		filters = append(filters, repository.Eq("location_id", locationID))
	}
	if raw := q.Get("status"); raw != "" {
		status := domain.ShiftStatus(raw)
		if status != domain.ShiftStatusDraft && status != domain.ShiftStatusPublished {
			h.errorResponse(w, r, http.StatusBadRequest, "unknown status")
			return
		}
		filters = append(filters, repository.Eq("status", status))
	}

	shifts, err := h.repository.ListShifts(r.Context(), filters...)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.writeJSON(w, r, http.StatusOK, envelope{"shifts": shifts})
}

func (h *Handler) UpdateShift(w http.ResponseWriter, r *http.Request) {
	var req shiftRequest

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if !req.EndAt.After(req.StartAt) {
		h.errorResponse(w, r, http.StatusBadRequest, "endAt must be after startAt")
		return
	}

	org := r.Context().Value(OrganizationCtx).(*domain.Organization)
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)
	shift := r.Context().Value(ShiftCtx).(*domain.Shift)

	before := *shift

	shift.LocationID = req.LocationID
	shift.StartAt = req.StartAt
	shift.EndAt = req.EndAt
	shift.BreakMinutes = req.BreakMinutes
	shift.RequiredSkillID = req.RequiredSkillID
	shift.Notes = req.Notes
	shift.Color = req.Color

	if err := h.repository.UpdateShiftFields(r.Context(), shift); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, http.StatusNotFound, "shift not found")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.auditLog.Record(r.Context(), domain.AuditEntry{
		OrganizationID: org.ID,
		ActorID:        myInfo.ID,
		Action:         "shift.update",
		EntityType:     "shift",
		EntityID:       shift.ID,
		OldData:        audit.JSON(&before),
		NewData:        audit.JSON(shift),
	})

	h.invalidateOpenShiftsCache(r.Context(), org.ID)
	h.writeJSON(w, r, http.StatusOK, envelope{"shift": shift})
}

func (h *Handler) DeleteShift(w http.ResponseWriter, r *http.Request) {
	org := r.Context().Value(OrganizationCtx).(*domain.Organization)
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)
	shift := r.Context().Value(ShiftCtx).(*domain.Shift)

	if err := h.repository.DeleteShift(r.Context(), org.ID, shift.ID); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, http.StatusNotFound, "shift not found")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.auditLog.Record(r.Context(), domain.AuditEntry{
		OrganizationID: org.ID,
		ActorID:        myInfo.ID,
		Action:         "shift.delete",
		EntityType:     "shift",
		EntityID:       shift.ID,
		OldData:        audit.JSON(shift),
	})

	h.invalidateOpenShiftsCache(r.Context(), org.ID)
	h.writeJSON(w, r, http.StatusOK, envelope{"message": "shift deleted"})
}

func (h *Handler) PublishShift(w http.ResponseWriter, r *http.Request) {
	org := r.Context().Value(OrganizationCtx).(*domain.Organization)
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)
	shift := r.Context().Value(ShiftCtx).(*domain.Shift)

	wasPublished := shift.Status == domain.ShiftStatusPublished

	published, err := h.lifecycle.Publish(r.Context(), org.ID, shift.ID, myInfo.ID)
	if err != nil {
		h.coreError(w, r, err)
		return
	}

	if !wasPublished && published.UserID != nil {
		h.notifyAssignee(r.Context(), org, published, "shift_published")
	}

	h.invalidateOpenShiftsCache(r.Context(), org.ID)
	h.writeJSON(w, r, http.StatusOK, envelope{"shift": published})
}

func (h *Handler) UnpublishShift(w http.ResponseWriter, r *http.Request) {
	org := r.Context().Value(OrganizationCtx).(*domain.Organization)
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)
	shift := r.Context().Value(ShiftCtx).(*domain.Shift)

	unpublished, err := h.lifecycle.Unpublish(r.Context(), org.ID, shift.ID, myInfo.ID)
	if err != nil {
		h.coreError(w, r, err)
		return
	}

	h.invalidateOpenShiftsCache(r.Context(), org.ID)
	h.writeJSON(w, r, http.StatusOK, envelope{"shift": unpublished})
}

// PublishManyShifts publishes a batch one by one. The batch is not atomic:
// each shift succeeds or fails on its own, and the response reports both sets.
func (h *Handler) PublishManyShifts(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ShiftIDs []int64 `json:"shiftIds" validate:"required,min=1"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	org := r.Context().Value(OrganizationCtx).(*domain.Organization)
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)

	outcomes, failures := h.lifecycle.PublishMany(r.Context(), org.ID, req.ShiftIDs, myInfo.ID)

	published := make([]*domain.Shift, 0, len(outcomes))
	for _, outcome := range outcomes {
		if outcome.Transitioned && outcome.Shift.UserID != nil {
			h.notifyAssignee(r.Context(), org, outcome.Shift, "shift_published")
		}
		published = append(published, outcome.Shift)
	}

	h.invalidateOpenShiftsCache(r.Context(), org.ID)
	h.writeJSON(w, r, http.StatusOK, envelope{"published": published, "failures": failures})
}

func (h *Handler) AcknowledgeShift(w http.ResponseWriter, r *http.Request) {
	org := r.Context().Value(OrganizationCtx).(*domain.Organization)
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)
	shift := r.Context().Value(ShiftCtx).(*domain.Shift)

	acknowledged, err := h.lifecycle.Acknowledge(r.Context(), org.ID, shift.ID, myInfo.ID)
	if err != nil {
		h.coreError(w, r, err)
		return
	}

	h.writeJSON(w, r, http.StatusOK, envelope{"shift": acknowledged})
}

func (h *Handler) AssignShift(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID int64 `json:"userId" validate:"required"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	org := r.Context().Value(OrganizationCtx).(*domain.Organization)
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)
	shift := r.Context().Value(ShiftCtx).(*domain.Shift)

	if _, err := h.repository.GetMembership(r.Context(), org.ID, req.UserID); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, http.StatusBadRequest, "user is not a member of this organization")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	assigned, err := h.assignments.Assign(r.Context(), org.ID, shift.ID, req.UserID, myInfo.ID)
	if err != nil {
		h.coreError(w, r, err)
		return
	}

	if assigned.Status == domain.ShiftStatusPublished {
		h.notifyAssignee(r.Context(), org, assigned, "shift_assigned")
	}

	h.invalidateOpenShiftsCache(r.Context(), org.ID)
	h.writeJSON(w, r, http.StatusOK, envelope{"shift": assigned})
}

func (h *Handler) UnassignShift(w http.ResponseWriter, r *http.Request) {
	org := r.Context().Value(OrganizationCtx).(*domain.Organization)
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)
	shift := r.Context().Value(ShiftCtx).(*domain.Shift)

	unassigned, err := h.assignments.Unassign(r.Context(), org.ID, shift.ID, myInfo.ID)
	if err != nil {
		h.coreError(w, r, err)
		return
	}

	h.invalidateOpenShiftsCache(r.Context(), org.ID)
	h.writeJSON(w, r, http.StatusOK, envelope{"shift": unassigned})
}

func (h *Handler) ClaimShift(w http.ResponseWriter, r *http.Request) {
	org := r.Context().Value(OrganizationCtx).(*domain.Organization)
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)
	shift := r.Context().Value(ShiftCtx).(*domain.Shift)

	claimed, err := h.assignments.Claim(r.Context(), org.ID, shift.ID, myInfo.ID)
	if err != nil {
		h.coreError(w, r, err)
		return
	}

	h.invalidateOpenShiftsCache(r.Context(), org.ID)
	h.writeJSON(w, r, http.StatusOK, envelope{"shift": claimed})
}

// ListOpenShifts returns published, unassigned shifts. The unfiltered listing
// is cached briefly in Redis; any filter bypasses the cache.
func (h *Handler) ListOpenShifts(w http.ResponseWriter, r *http.Request) {
	org := r.Context().Value(OrganizationCtx).(*domain.Organization)

	q := r.URL.Query()

	var locationID *int64
	if raw := q.Get("locationId"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			h.errorResponse(w, r, http.StatusBadRequest, "invalid locationId")
			return
		}
		locationID = &id
	}

	var from, to *time.Time
	if raw := q.Get("from"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			h.errorResponse(w, r, http.StatusBadRequest, "from must be an RFC 3339 timestamp")
			return
		}
		from = &t
	}
	if raw := q.Get("to"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			h.errorResponse(w, r, http.StatusBadRequest, "to must be an RFC 3339 timestamp")
			return
		}
		to = &t
	}

	unfiltered := locationID == nil && from == nil && to == nil

	if unfiltered && h.redisClient != nil {
		cached, err := h.redisClient.Get(r.Context(), openShiftsCacheKey(org.ID)).Result()
		if err == nil {
			var shifts []*domain.Shift
			if err := json.Unmarshal([]byte(cached), &shifts); err == nil {
				h.writeJSON(w, r, http.StatusOK, envelope{"shifts": shifts})
				return
			}
		}
	}

	shifts, err := h.repository.ListOpenShifts(r.Context(), org.ID, locationID, from, to)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	if unfiltered && h.redisClient != nil {
		if body, err := json.Marshal(shifts); err == nil {
			ttl := time.Duration(h.config.Redis.OpenShiftsCacheTTL) * time.Second
			// Cache misses are acceptable; a failed Set only loses the cache.
			h.redisClient.Set(r.Context(), openShiftsCacheKey(org.ID), body, ttl)
		}
	}

	h.writeJSON(w, r, http.StatusOK, envelope{"shifts": shifts})
}

func openShiftsCacheKey(orgID int64) string {
	return fmt.Sprintf("open_shifts_%d", orgID)
}

func (h *Handler) invalidateOpenShiftsCache(ctx context.Context, orgID int64) {
	if h.redisClient == nil {
		return
	}
	if err := h.redisClient.Del(ctx, openShiftsCacheKey(orgID)).Err(); err != nil {
		// Stale entries expire on their own within the TTL.
		return
	}
}

func (h *Handler) notifyAssignee(ctx context.Context, org *domain.Organization, shift *domain.Shift, mailType string) {
	if shift.UserID == nil {
		return
	}

	user, err := h.repository.GetUserByID(ctx, *shift.UserID)
	if err != nil {
		slog.Error("failed to load assignee for notification", "shiftId", shift.ID, "error", err)
		return
	}

	data := domain.ShiftPublishedMailData{
		FullName: user.FullName,
		OrgName:  org.Name,
		StartAt:  shift.StartAt.Format(time.RFC3339),
		EndAt:    shift.EndAt.Format(time.RFC3339),
	}

	msg := domain.MailMessage{Type: mailType, To: user.Email, Data: data}
	if mailType == "shift_assigned" {
		msg.Data = domain.ShiftAssignedMailData(data)
	}

	if err := h.enqueueMail(msg); err != nil {
		slog.Error("failed to enqueue shift notification", "type", mailType, "shiftId", shift.ID, "error", err)
	}
}
