package httpd

import (
	"net/http"

	"github.com/RubachokBoss/assignment-portal/internal/models"
	"github.com/RubachokBoss/assignment-portal/pkg/utils"
)

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := utils.ReadJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	response, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeSuccess(w, response)
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	identity := identityFromContext(r.Context())
	if identity == nil {
		writeError(w, http.StatusUnauthorized, "Missing bearer token")
		return
	}

	// Клиент сообщает, где находится: резолвер не перехватывает глубокую
	// навигацию.
	currentPath := r.URL.Query().Get("path")
	if currentPath == "" {
		currentPath = "/"
	}

	response, err := h.authService.Resolve(r.Context(), identity.UserID, currentPath)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeSuccess(w, response)
}

func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	identity := identityFromContext(r.Context())
	if identity == nil {
		writeError(w, http.StatusUnauthorized, "Missing bearer token")
		return
	}

	var req models.ChangePasswordRequest
	if err := utils.ReadJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.authService.ChangePassword(r.Context(), identity.UserID, req.CurrentPassword, req.NewPassword); err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeSuccess(w, map[string]interface{}{
		"message": "Password changed successfully",
	})
}
