package httpd

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/RubachokBoss/assignment-portal/internal/models"
)

const maxMultipartMemory = 32 << 20 // 32MB

func (h *Handler) ListAssignments(w http.ResponseWriter, r *http.Request) {
	identity := identityFromContext(r.Context())
	page := getIntQueryParam(r, "page", 1)
	limit := getIntQueryParam(r, "limit", 20)

	var (
		response *models.AssignmentsResponse
		err      error
	)

	// Преподаватель видит свои задания, студент — задания своего курса
	switch identity.Role {
	case models.RoleTeacher:
		response, err = h.assignmentService.ListForTeacher(r.Context(), identity.UserID, page, limit)
	case models.RoleStudent:
		response, err = h.assignmentService.ListForStudent(r.Context(), identity.UserID, page, limit)
	default:
		writeError(w, http.StatusForbidden, "Unknown role")
		return
	}

	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeSuccess(w, response)
}

func (h *Handler) CreateAssignment(w http.ResponseWriter, r *http.Request) {
	identity := identityFromContext(r.Context())

	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		writeError(w, http.StatusBadRequest, "Failed to parse form data")
		return
	}

	dueDate, err := time.Parse(time.RFC3339, r.FormValue("due_date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "due_date must be RFC3339")
		return
	}

	req := &models.CreateAssignmentRequest{
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		DueDate:     dueDate,
		Category:    r.FormValue("category"),
		Year:        getIntFormValue(r, "year"),
	}

	// Приложение к заданию опционально
	var attachment *models.FileUpload
	if file, header, err := r.FormFile("file"); err == nil {
		defer file.Close()
		attachment = &models.FileUpload{
			Name:        header.Filename,
			Size:        header.Size,
			ContentType: header.Header.Get("Content-Type"),
			Content:     file,
		}
	}

	assignment, err := h.assignmentService.Create(r.Context(), identity.UserID, req, attachment)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeSuccess(w, assignment)
}

func (h *Handler) GetAssignment(w http.ResponseWriter, r *http.Request) {
	assignmentID := chi.URLParam(r, "id")
	if _, err := uuid.Parse(assignmentID); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid assignment id format")
		return
	}

	assignment, err := h.assignmentService.GetByID(r.Context(), assignmentID)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeSuccess(w, assignment)
}

func (h *Handler) DownloadAssignmentFile(w http.ResponseWriter, r *http.Request) {
	assignmentID := chi.URLParam(r, "id")
	if _, err := uuid.Parse(assignmentID); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid assignment id format")
		return
	}

	content, assignment, err := h.assignmentService.DownloadAttachment(r.Context(), assignmentID)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	serveFile(w, content, *assignment.FileName, *assignment.FileType)
}

func getIntFormValue(r *http.Request, key string) int {
	var value int
	fmt.Sscanf(r.FormValue(key), "%d", &value)
	return value
}

func serveFile(w http.ResponseWriter, content []byte, fileName, contentType string) {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(content)
}
