package httpd

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/RubachokBoss/assignment-portal/internal/models"
	"github.com/RubachokBoss/assignment-portal/pkg/utils"
)

func (h *Handler) SubmitAssignment(w http.ResponseWriter, r *http.Request) {
	identity := identityFromContext(r.Context())

	assignmentID := chi.URLParam(r, "id")
	if _, err := uuid.Parse(assignmentID); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid assignment id format")
		return
	}

	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		writeError(w, http.StatusBadRequest, "Failed to parse form data")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "File is required")
		return
	}
	defer file.Close()

	upload := &models.FileUpload{
		Name:        header.Filename,
		Size:        header.Size,
		ContentType: header.Header.Get("Content-Type"),
		Content:     file,
	}

	submission, err := h.submissionService.Submit(r.Context(), identity.UserID, assignmentID, upload)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeSuccess(w, submission)
}

func (h *Handler) GetSubmissionStatus(w http.ResponseWriter, r *http.Request) {
	identity := identityFromContext(r.Context())

	assignmentID := chi.URLParam(r, "id")
	if _, err := uuid.Parse(assignmentID); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid assignment id format")
		return
	}

	status, err := h.submissionService.Status(r.Context(), identity.UserID, assignmentID)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeSuccess(w, status)
}

func (h *Handler) ListSubmissions(w http.ResponseWriter, r *http.Request) {
	identity := identityFromContext(r.Context())

	assignmentID := chi.URLParam(r, "id")
	if _, err := uuid.Parse(assignmentID); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid assignment id format")
		return
	}

	page := getIntQueryParam(r, "page", 1)
	limit := getIntQueryParam(r, "limit", 20)

	response, err := h.submissionService.GetByAssignment(r.Context(), identity.UserID, assignmentID, page, limit)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeSuccess(w, response)
}

func (h *Handler) ListMySubmissions(w http.ResponseWriter, r *http.Request) {
	identity := identityFromContext(r.Context())

	page := getIntQueryParam(r, "page", 1)
	limit := getIntQueryParam(r, "limit", 20)

	response, err := h.submissionService.GetByStudent(r.Context(), identity.UserID, page, limit)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeSuccess(w, response)
}

func (h *Handler) DeleteSubmission(w http.ResponseWriter, r *http.Request) {
	identity := identityFromContext(r.Context())

	submissionID := chi.URLParam(r, "id")
	if _, err := uuid.Parse(submissionID); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid submission id format")
		return
	}

	if err := h.submissionService.Remove(r.Context(), identity.UserID, submissionID); err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeSuccess(w, map[string]string{"message": "Submission deleted"})
}

func (h *Handler) DownloadSubmissionFile(w http.ResponseWriter, r *http.Request) {
	identity := identityFromContext(r.Context())

	submissionID := chi.URLParam(r, "id")
	if _, err := uuid.Parse(submissionID); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid submission id format")
		return
	}

	content, submission, err := h.submissionService.DownloadFile(r.Context(), identity.UserID, identity.Role, submissionID)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	serveFile(w, content, submission.FileName, submission.FileType)
}

func (h *Handler) GradeSubmission(w http.ResponseWriter, r *http.Request) {
	identity := identityFromContext(r.Context())

	submissionID := chi.URLParam(r, "id")
	if _, err := uuid.Parse(submissionID); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid submission id format")
		return
	}

	var req models.GradeSubmissionRequest
	if err := utils.ReadJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	submission, err := h.gradingService.Grade(r.Context(), identity.UserID, submissionID, req.Grade, req.Feedback)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	writeSuccess(w, submission)
}
