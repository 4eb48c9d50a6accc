package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/RubachokBoss/assignment-portal/internal/models"
	"github.com/RubachokBoss/assignment-portal/internal/repository"
)

// AssignmentService — создание заданий преподавателем и их выборки для
// обеих ролей.
type AssignmentService interface {
	Create(ctx context.Context, teacherID string, req *models.CreateAssignmentRequest, attachment *models.FileUpload) (*models.Assignment, error)
	GetByID(ctx context.Context, id string) (*models.Assignment, error)
	ListForYear(ctx context.Context, year, page, limit int) (*models.AssignmentsResponse, error)
	ListForStudent(ctx context.Context, studentID string, page, limit int) (*models.AssignmentsResponse, error)
	ListForTeacher(ctx context.Context, teacherID string, page, limit int) (*models.AssignmentsResponse, error)
	DownloadAttachment(ctx context.Context, assignmentID string) ([]byte, *models.Assignment, error)
}

type assignmentService struct {
	assignmentRepo repository.AssignmentRepository
	userRepo       repository.UserRepository
	transfer       TransferService
	bucket         string
	logger         zerolog.Logger
}

func NewAssignmentService(
	assignmentRepo repository.AssignmentRepository,
	userRepo repository.UserRepository,
	transfer TransferService,
	bucket string,
	logger zerolog.Logger,
) AssignmentService {
	return &assignmentService{
		assignmentRepo: assignmentRepo,
		userRepo:       userRepo,
		transfer:       transfer,
		bucket:         bucket,
		logger:         logger,
	}
}

func (s *assignmentService) Create(ctx context.Context, teacherID string, req *models.CreateAssignmentRequest, attachment *models.FileUpload) (*models.Assignment, error) {
	if req.Title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrValidation)
	}
	if !models.IsValidCategory(req.Category) {
		return nil, fmt.Errorf("%w: invalid category %q", ErrValidation, req.Category)
	}
	if !models.IsValidYear(req.Year) {
		return nil, fmt.Errorf("%w: year must be between 1 and 6", ErrValidation)
	}
	if req.DueDate.IsZero() {
		return nil, fmt.Errorf("%w: due date is required", ErrValidation)
	}

	now := time.Now()
	assignment := &models.Assignment{
		ID:          uuid.New().String(),
		Title:       req.Title,
		Description: req.Description,
		DueDate:     req.DueDate,
		Category:    req.Category,
		TeacherID:   teacherID,
		Year:        req.Year,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	// Приложение загружается до строки: строка без файла хуже, чем
	// файл-сирота.
	if attachment != nil {
		objectPath := teacherID + "/" + storageFileName(attachment.Name, now)
		if err := s.transfer.Upload(ctx, s.bucket, objectPath, attachment.Content, attachment.Size, attachment.ContentType); err != nil {
			return nil, err
		}
		assignment.FileName = &attachment.Name
		assignment.FilePath = &objectPath
		assignment.FileType = &attachment.ContentType
		assignment.FileSize = &attachment.Size
	}

	if err := s.assignmentRepo.Create(ctx, assignment); err != nil {
		if assignment.FilePath != nil {
			s.logger.Error().
				Err(err).
				Str("object", *assignment.FilePath).
				Msg("Assignment row write failed after successful upload, blob orphaned")
		}
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	s.logger.Info().
		Str("assignment_id", assignment.ID).
		Str("teacher_id", teacherID).
		Int("year", req.Year).
		Msg("Assignment created")

	return assignment, nil
}

func (s *assignmentService) GetByID(ctx context.Context, id string) (*models.Assignment, error) {
	assignment, err := s.assignmentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch assignment: %w", err)
	}
	if assignment == nil {
		return nil, ErrAssignmentNotFound
	}
	return assignment, nil
}

func (s *assignmentService) ListForYear(ctx context.Context, year, page, limit int) (*models.AssignmentsResponse, error) {
	if !models.IsValidYear(year) {
		return nil, fmt.Errorf("%w: year must be between 1 and 6", ErrValidation)
	}
	page, limit = normalizePage(page, limit)

	assignments, total, err := s.assignmentRepo.GetByYear(ctx, year, limit, (page-1)*limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list assignments: %w", err)
	}

	return &models.AssignmentsResponse{
		Assignments: assignments,
		Total:       total,
		Page:        page,
		Limit:       limit,
	}, nil
}

// ListForStudent показывает студенту задания его курса.
func (s *assignmentService) ListForStudent(ctx context.Context, studentID string, page, limit int) (*models.AssignmentsResponse, error) {
	student, err := s.userRepo.GetByID(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch student profile: %w", err)
	}
	if student == nil {
		return nil, ErrUserNotFound
	}
	if student.Year == nil {
		return nil, fmt.Errorf("%w: student profile has no year", ErrValidation)
	}

	return s.ListForYear(ctx, *student.Year, page, limit)
}

func (s *assignmentService) ListForTeacher(ctx context.Context, teacherID string, page, limit int) (*models.AssignmentsResponse, error) {
	page, limit = normalizePage(page, limit)

	assignments, total, err := s.assignmentRepo.GetByTeacherID(ctx, teacherID, limit, (page-1)*limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list assignments: %w", err)
	}

	return &models.AssignmentsResponse{
		Assignments: assignments,
		Total:       total,
		Page:        page,
		Limit:       limit,
	}, nil
}

func (s *assignmentService) DownloadAttachment(ctx context.Context, assignmentID string) ([]byte, *models.Assignment, error) {
	assignment, err := s.GetByID(ctx, assignmentID)
	if err != nil {
		return nil, nil, err
	}
	if !assignment.HasAttachment() {
		return nil, nil, fmt.Errorf("%w: assignment has no attachment", ErrValidation)
	}

	content, err := s.transfer.Download(ctx, s.bucket, *assignment.FilePath)
	if err != nil {
		return nil, nil, err
	}

	return content, assignment, nil
}

func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit
}
