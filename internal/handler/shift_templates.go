package handler

import (
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/shiftline-hq/shiftline/backend/internal/audit"
	"github.com/shiftline-hq/shiftline/backend/internal/domain"
)

type shiftTemplateRequest struct {
	Name              string `json:"name" validate:"required,max=100"`
	StartTime         string `json:"startTime" validate:"required"`
	EndTime           string `json:"endTime" validate:"required"`
	BreakMinutes      int32  `json:"breakMinutes" validate:"gte=0"`
	DefaultLocationID *int64 `json:"defaultLocationId"`
	RequiredSkillID   *int64 `json:"requiredSkillId"`
	Color             string `json:"color"`
	IsActive          *bool  `json:"isActive"`
}

func validWallClock(value string) bool {
	_, err := time.Parse("15:04", value)
	return err == nil
}

func (h *Handler) GetAllShiftTemplates(w http.ResponseWriter, r *http.Request) {
	org := r.Context().Value(OrganizationCtx).(*domain.Organization)

	tpls, err := h.repository.GetAllShiftTemplates(r.Context(), org.ID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.writeJSON(w, r, http.StatusOK, envelope{"shiftTemplates": tpls})
}

func (h *Handler) GetShiftTemplate(w http.ResponseWriter, r *http.Request) {
	tpl := r.Context().Value(ShiftTemplateCtx).(*domain.ShiftTemplate)
	h.writeJSON(w, r, http.StatusOK, envelope{"shiftTemplate": tpl})
}

func (h *Handler) CreateShiftTemplate(w http.ResponseWriter, r *http.Request) {
	var req shiftTemplateRequest

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if !validWallClock(req.StartTime) || !validWallClock(req.EndTime) {
		h.errorResponse(w, r, http.StatusBadRequest, "startTime and endTime must be HH:mm values")
		return
	}

	org := r.Context().Value(OrganizationCtx).(*domain.Organization)
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	tpl := &domain.ShiftTemplate{
		OrganizationID:    org.ID,
		Name:              req.Name,
		StartTime:         req.StartTime,
		EndTime:           req.EndTime,
		BreakMinutes:      req.BreakMinutes,
		DefaultLocationID: req.DefaultLocationID,
		RequiredSkillID:   req.RequiredSkillID,
		Color:             req.Color,
		IsActive:          isActive,
	}

	if err := h.repository.CreateShiftTemplate(r.Context(), tpl); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.auditLog.Record(r.Context(), domain.AuditEntry{
		OrganizationID: org.ID,
		ActorID:        myInfo.ID,
		Action:         "shift_template.create",
		EntityType:     "shift_template",
		EntityID:       tpl.ID,
		NewData:        audit.JSON(tpl),
	})

	h.writeJSON(w, r, http.StatusCreated, envelope{"shiftTemplate": tpl})
}

func (h *Handler) UpdateShiftTemplate(w http.ResponseWriter, r *http.Request) {
	var req shiftTemplateRequest

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if !validWallClock(req.StartTime) || !validWallClock(req.EndTime) {
		h.errorResponse(w, r, http.StatusBadRequest, "startTime and endTime must be HH:mm values")
		return
	}

	org := r.Context().Value(OrganizationCtx).(*domain.Organization)
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)
	tpl := r.Context().Value(ShiftTemplateCtx).(*domain.ShiftTemplate)

	before := *tpl

	tpl.Name = req.Name
	tpl.StartTime = req.StartTime
	tpl.EndTime = req.EndTime
	tpl.BreakMinutes = req.BreakMinutes
	tpl.DefaultLocationID = req.DefaultLocationID
	tpl.RequiredSkillID = req.RequiredSkillID
	tpl.Color = req.Color
	if req.IsActive != nil {
		tpl.IsActive = *req.IsActive
	}

	if err := h.repository.UpdateShiftTemplate(r.Context(), tpl); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, http.StatusConflict, "template was modified concurrently, please retry")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.auditLog.Record(r.Context(), domain.AuditEntry{
		OrganizationID: org.ID,
		ActorID:        myInfo.ID,
		Action:         "shift_template.update",
		EntityType:     "shift_template",
		EntityID:       tpl.ID,
		OldData:        audit.JSON(&before),
		NewData:        audit.JSON(tpl),
	})

	h.writeJSON(w, r, http.StatusOK, envelope{"shiftTemplate": tpl})
}

// DeleteShiftTemplate removes the template. Shifts generated from it are
// untouched; they only ever recorded the template's id.
func (h *Handler) DeleteShiftTemplate(w http.ResponseWriter, r *http.Request) {
	org := r.Context().Value(OrganizationCtx).(*domain.Organization)
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)
	tpl := r.Context().Value(ShiftTemplateCtx).(*domain.ShiftTemplate)

	if err := h.repository.DeleteShiftTemplate(r.Context(), org.ID, tpl.ID); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, http.StatusNotFound, "shift template not found")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.auditLog.Record(r.Context(), domain.AuditEntry{
		OrganizationID: org.ID,
		ActorID:        myInfo.ID,
		Action:         "shift_template.delete",
		EntityType:     "shift_template",
		EntityID:       tpl.ID,
		OldData:        audit.JSON(tpl),
	})

	h.writeJSON(w, r, http.StatusOK, envelope{"message": "shift template deleted"})
}
