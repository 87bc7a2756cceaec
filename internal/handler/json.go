package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/shiftline-hq/shiftline/backend/internal/scheduling"
)

func (h *Handler) logInternalServerError(r *http.Request, err error) {
	slog.Error("internal server error", "method", r.Method, "path", r.URL.Path, "error", err)
}

func (h *Handler) readJSON(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}

type envelope map[string]any

func (h *Handler) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logInternalServerError(r, err)
	}
}

func (h *Handler) errorResponse(w http.ResponseWriter, r *http.Request, status int, msg string) {
	h.writeJSON(w, r, status, envelope{"error": msg})
}

func (h *Handler) badRequest(w http.ResponseWriter, r *http.Request, err error) {
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		h.errorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	h.errorResponse(w, r, http.StatusBadRequest, validationErrors[0].Translate(h.translator))
}

func (h *Handler) internalServerError(w http.ResponseWriter, r *http.Request, err error) {
	h.logInternalServerError(r, err)
	h.errorResponse(w, r, http.StatusInternalServerError, "internal server error")
}

// coreError maps a scheduling-core error onto the wire: typed kinds choose
// the status code, and conflict/compliance failures carry the specific
// conflicting shift or violated rules so the client can name the reason.
func (h *Handler) coreError(w http.ResponseWriter, r *http.Request, err error) {
	var conflictErr *scheduling.ConflictError
	if errors.As(err, &conflictErr) {
		h.writeJSON(w, r, http.StatusConflict, envelope{
			"error":    conflictErr.Msg,
			"conflict": conflictErr.Conflict,
		})
		return
	}

	var complianceErr *scheduling.ComplianceError
	if errors.As(err, &complianceErr) {
		h.writeJSON(w, r, http.StatusBadRequest, envelope{
			"error":      complianceErr.Error(),
			"violations": complianceErr.Violations,
		})
		return
	}

	switch scheduling.KindOf(err) {
	case scheduling.KindNotFound:
		h.errorResponse(w, r, http.StatusNotFound, err.Error())
	case scheduling.KindForbidden:
		h.errorResponse(w, r, http.StatusForbidden, err.Error())
	case scheduling.KindInvalidInput:
		h.errorResponse(w, r, http.StatusBadRequest, err.Error())
	case scheduling.KindConflict:
		h.errorResponse(w, r, http.StatusConflict, err.Error())
	default:
		h.internalServerError(w, r, err)
	}
}
