package handler

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/shiftline-hq/shiftline/backend/internal/audit"
	"github.com/shiftline-hq/shiftline/backend/internal/config"
	"github.com/shiftline-hq/shiftline/backend/internal/domain"
	"github.com/shiftline-hq/shiftline/backend/internal/repository"
	"github.com/shiftline-hq/shiftline/backend/internal/scheduling"
)

type Handler struct {
	validate     *validator.Validate
	config       *config.Config
	repository   *repository.Repository
	translator   ut.Translator
	queueChannel *amqp.Channel
	redisClient  *redis.Client
	auditLog     audit.Recorder

	assignments *scheduling.AssignmentService
	lifecycle   *scheduling.StateMachine
	rules       scheduling.Rules

	Mux *chi.Mux
}

func NewHandler(cfg *config.Config, repo *repository.Repository, queueCh *amqp.Channel, rdb *redis.Client) (*Handler, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())
	enLocale := en.New()
	uni := ut.New(enLocale, enLocale)
	trans, _ := uni.GetTranslator("en")
	if err := en_translations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, err
	}

	var recorder audit.Recorder = audit.Nop{}
	if queueCh != nil {
		recorder = audit.NewAMQPRecorder(queueCh, time.Duration(cfg.RabbitMQ.PublishTimeout)*time.Second)
	}

	rules := scheduling.DefaultRules()

	return &Handler{
		validate:     validate,
		config:       cfg,
		repository:   repo,
		translator:   trans,
		queueChannel: queueCh,
		redisClient:  rdb,
		auditLog:     recorder,

		assignments: scheduling.NewAssignmentService(repo, rules, recorder),
		lifecycle:   scheduling.NewStateMachine(repo, recorder),
		rules:       rules,

		Mux: chi.NewRouter(),
	}, nil
}

func (h *Handler) RegisterRoutes() {
	h.Mux.Use(h.logger)
	h.Mux.Use(h.recoverer)

	h.Mux.Route("/auth", func(r chi.Router) {
		r.Post("/login", h.Login)
		r.Post("/logout", h.Logout)
		r.Route("/reset-password", func(r chi.Router) {
			r.Post("/require", h.RequireResetPassword)
			r.Post("/confirm", h.ConfirmResetPassword)
		})
	})

	// Everything below requires a logged-in user.
	h.Mux.Group(func(r chi.Router) {
		r.Use(h.auth)

		r.Route("/my-info", func(r chi.Router) {
			r.Use(h.myInfo)
			r.Get("/", h.GetMyInfo)
			r.Patch("/password", h.UpdateMyPassword)
		})

		r.Route("/org/{slug}", func(r chi.Router) {
			r.Use(h.myInfo)
			r.Use(h.organization)

			r.Route("/members", func(r chi.Router) {
				r.Get("/", h.ListMembers)
				r.With(h.RequiredRole(domain.RoleAdmin)).Post("/", h.CreateMember)
			})

			r.Route("/shift-templates", func(r chi.Router) {
				r.Get("/", h.GetAllShiftTemplates)
				r.With(h.RequiredRole(domain.RoleManager)).Post("/", h.CreateShiftTemplate)
				r.Route("/{id}", func(r chi.Router) {
					r.Use(h.shiftTemplate)
					r.Get("/", h.GetShiftTemplate)
					r.With(h.RequiredRole(domain.RoleManager)).Patch("/", h.UpdateShiftTemplate)
					r.With(h.RequiredRole(domain.RoleManager)).Delete("/", h.DeleteShiftTemplate)
				})
			})

			r.Route("/shifts", func(r chi.Router) {
				r.Get("/", h.ListShifts)
				r.Get("/open", h.ListOpenShifts)
				r.With(h.RequiredRole(domain.RoleManager)).Post("/", h.CreateShift)
				r.With(h.RequiredRole(domain.RoleManager)).Post("/from-template", h.CreateShiftFromTemplate)
				r.With(h.RequiredRole(domain.RoleManager)).Post("/publish-many", h.PublishManyShifts)
				r.Route("/{id}", func(r chi.Router) {
					r.Use(h.shift)
					r.Get("/", h.GetShift)
					r.With(h.RequiredRole(domain.RoleManager)).Put("/", h.UpdateShift)
					r.With(h.RequiredRole(domain.RoleManager)).Delete("/", h.DeleteShift)
					r.With(h.RequiredRole(domain.RoleManager)).Post("/publish", h.PublishShift)
					r.With(h.RequiredRole(domain.RoleManager)).Post("/unpublish", h.UnpublishShift)
					r.With(h.RequiredRole(domain.RoleManager)).Post("/assign", h.AssignShift)
					r.With(h.RequiredRole(domain.RoleManager)).Post("/unassign", h.UnassignShift)
					r.Post("/acknowledge", h.AcknowledgeShift)
					r.Post("/claim", h.ClaimShift)
				})
			})

			r.With(h.RequiredRole(domain.RoleManager)).Get("/reports/compliance", h.ComplianceReport)
			r.With(h.RequiredRole(domain.RoleManager)).Get("/audit-logs", h.GetAuditLogs)
		})
	})
}
