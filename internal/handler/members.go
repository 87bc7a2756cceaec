package handler

import (
	"errors"
	"net/http"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shiftline-hq/shiftline/backend/internal/audit"
	"github.com/shiftline-hq/shiftline/backend/internal/domain"
	"github.com/shiftline-hq/shiftline/backend/internal/utils"
	"golang.org/x/crypto/bcrypt"
)

func (h *Handler) ListMembers(w http.ResponseWriter, r *http.Request) {
	org := r.Context().Value(OrganizationCtx).(*domain.Organization)

	members, err := h.repository.ListMembers(r.Context(), org.ID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.writeJSON(w, r, http.StatusOK, envelope{"members": members})
}

// CreateMember provisions an account with a generated password, attaches it
// to the organization and mails the credentials to the new member. If the
// username already belongs to an existing account, that account is added to
// the organization instead.
func (h *Handler) CreateMember(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username" validate:"required"`
		FullName string `json:"fullName" validate:"required"`
		Email    string `json:"email" validate:"required,email"`
		Role     string `json:"role" validate:"required"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	role := domain.MembershipRole(req.Role)
	if !role.Valid() {
		h.errorResponse(w, r, http.StatusBadRequest, "unknown role")
		return
	}

	org := r.Context().Value(OrganizationCtx).(*domain.Organization)
	membership := r.Context().Value(MembershipCtx).(*domain.Membership)

	// Only an owner can grant owner.
	if role == domain.RoleOwner && membership.Role != domain.RoleOwner {
		h.errorResponse(w, r, http.StatusForbidden, "only an owner can grant the owner role")
		return
	}

	password := utils.GenerateRandomPassword(h.config.NewUser.PasswordLength)
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	user := &domain.User{
		Username:     req.Username,
		PasswordHash: string(hashedPassword),
		FullName:     req.FullName,
		Email:        req.Email,
	}

	created := true
	if err := h.repository.CreateUser(r.Context(), user); err != nil {
		pgErr := &pgconn.PgError{}
		switch {
		case errors.As(err, &pgErr) && pgErr.ConstraintName == "users_username_key":
			created = false
			user, err = h.repository.GetUserByUsername(r.Context(), req.Username)
			if err != nil {
				h.internalServerError(w, r, err)
				return
			}
		case errors.As(err, &pgErr) && pgErr.ConstraintName == "users_email_key":
			h.errorResponse(w, r, http.StatusConflict, "email already in use")
			return
		default:
			h.internalServerError(w, r, err)
			return
		}
	}

	m := &domain.Membership{
		OrganizationID: org.ID,
		UserID:         user.ID,
		Role:           role,
	}
	if err := h.repository.AddMembership(r.Context(), m); err != nil {
		pgErr := &pgconn.PgError{}
		switch {
		case errors.As(err, &pgErr) && pgErr.ConstraintName == "memberships_pkey":
			h.errorResponse(w, r, http.StatusConflict, "user is already a member")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	if created {
		mailMessage := domain.MailMessage{
			Type: "create_user",
			To:   user.Email,
			Data: domain.CreateUserMailData{
				FullName: user.FullName,
				Username: user.Username,
				Password: password,
			},
		}
		if err := h.enqueueMail(mailMessage); err != nil {
			h.internalServerError(w, r, err)
			return
		}
	}

	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)
	h.auditLog.Record(r.Context(), domain.AuditEntry{
		OrganizationID: org.ID,
		ActorID:        myInfo.ID,
		Action:         "member.create",
		EntityType:     "membership",
		EntityID:       user.ID,
		NewData:        audit.JSON(m),
	})

	h.writeJSON(w, r, http.StatusCreated, envelope{"member": &domain.OrgMember{
		UserID:   user.ID,
		Username: user.Username,
		FullName: user.FullName,
		Email:    user.Email,
		Role:     m.Role,
		IsActive: user.IsActive,
	}})
}
