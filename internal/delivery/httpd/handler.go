package httpd

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/RubachokBoss/assignment-portal/internal/models"
	"github.com/RubachokBoss/assignment-portal/internal/repository"
	"github.com/RubachokBoss/assignment-portal/internal/service"
	"github.com/RubachokBoss/assignment-portal/pkg/utils"
)

// Pinger проверяет живость базы для /health.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	authService       service.AuthService
	assignmentService service.AssignmentService
	submissionService service.SubmissionService
	gradingService    service.GradingService
	pinger            Pinger
	logger            zerolog.Logger
}

func NewHandler(
	authService service.AuthService,
	assignmentService service.AssignmentService,
	submissionService service.SubmissionService,
	gradingService service.GradingService,
	pinger Pinger,
	logger zerolog.Logger,
) *Handler {
	return &Handler{
		authService:       authService,
		assignmentService: assignmentService,
		submissionService: submissionService,
		gradingService:    gradingService,
		pinger:            pinger,
		logger:            logger,
	}
}

func (h *Handler) RegisterRoutes(router chi.Router) {
	router.Get("/health", h.HealthCheck)

	router.Route("/api/v1", func(api chi.Router) {
		api.Post("/auth/login", h.Login)

		api.Group(func(r chi.Router) {
			r.Use(h.authenticate)

			r.Post("/auth/change-password", h.ChangePassword)
			r.Get("/auth/me", h.Me)

			r.Route("/assignments", func(r chi.Router) {
				r.Get("/", h.ListAssignments)
				r.With(h.requireRole(models.RoleTeacher)).Post("/", h.CreateAssignment)
				r.Get("/{id}", h.GetAssignment)
				r.Get("/{id}/file", h.DownloadAssignmentFile)
				r.With(h.requireRole(models.RoleTeacher)).Get("/{id}/submissions", h.ListSubmissions)
				r.With(h.requireRole(models.RoleStudent)).Get("/{id}/submission", h.GetSubmissionStatus)
				r.With(h.requireRole(models.RoleStudent)).Post("/{id}/submissions", h.SubmitAssignment)
			})

			r.Route("/submissions", func(r chi.Router) {
				r.With(h.requireRole(models.RoleStudent)).Get("/", h.ListMySubmissions)
				r.With(h.requireRole(models.RoleStudent)).Delete("/{id}", h.DeleteSubmission)
				r.Get("/{id}/file", h.DownloadSubmissionFile)
				r.With(h.requireRole(models.RoleTeacher)).Put("/{id}/grade", h.GradeSubmission)
			})
		})
	})
}

func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	code := http.StatusOK

	if err := h.pinger.Ping(r.Context()); err != nil {
		h.logger.Error().Err(err).Msg("Health check failed: database unreachable")
		status = "degraded"
		code = http.StatusServiceUnavailable
	}

	writeJSON(w, code, map[string]interface{}{
		"status":    status,
		"service":   "assignment-portal",
		"timestamp": time.Now().UTC(),
	})
}

func getIntQueryParam(r *http.Request, key string, defaultValue int) int {
	value := r.URL.Query().Get(key)
	if value == "" {
		return defaultValue
	}

	intValue, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	return intValue
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	_ = utils.WriteJSON(w, status, data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]interface{}{
		"error":   http.StatusText(status),
		"message": message,
	})
}

func writeSuccess(w http.ResponseWriter, data interface{}) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    data,
	})
}

// handleServiceError маппит таксономию сервисных ошибок на HTTP-коды.
func (h *Handler) handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, service.ErrAuthorization):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrUserNotFound),
		errors.Is(err, service.ErrAssignmentNotFound),
		errors.Is(err, service.ErrSubmissionNotFound),
		errors.Is(err, repository.ErrObjectNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrConfiguration):
		// Не транзиентная ошибка: повтор не поможет, сообщение действенное
		writeError(w, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, service.ErrUpload), errors.Is(err, service.ErrDownload):
		writeError(w, http.StatusBadGateway, err.Error())
	case errors.Is(err, service.ErrPersistence):
		h.logger.Error().Err(err).Msg("Persistence error")
		writeError(w, http.StatusInternalServerError, err.Error())
	default:
		h.logger.Error().Err(err).Msg("Service error")
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}
