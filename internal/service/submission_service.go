package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/RubachokBoss/assignment-portal/internal/models"
	"github.com/RubachokBoss/assignment-portal/internal/repository"
)

// SubmissionService управляет жизненным циклом сдачи: когда её можно
// создать, заменить и удалить, и в каком порядке идут побочные эффекты.
type SubmissionService interface {
	CanSubmit(assignment *models.Assignment, existing *models.Submission) bool
	CanDelete(submission *models.Submission, assignment *models.Assignment) bool
	Submit(ctx context.Context, studentID, assignmentID string, upload *models.FileUpload) (*models.Submission, error)
	Remove(ctx context.Context, studentID, submissionID string) error
	Status(ctx context.Context, studentID, assignmentID string) (*models.SubmissionStatusResponse, error)
	GetByAssignment(ctx context.Context, teacherID, assignmentID string, page, limit int) (*models.SubmissionsResponse, error)
	GetByStudent(ctx context.Context, studentID string, page, limit int) (*models.SubmissionsResponse, error)
	DownloadFile(ctx context.Context, actorID string, actorRole models.UserRole, submissionID string) ([]byte, *models.Submission, error)
}

type SubmissionConfig struct {
	Bucket       string
	MaxSize      int64
	AllowedTypes []string
}

type submissionService struct {
	submissionRepo repository.SubmissionRepository
	assignmentRepo repository.AssignmentRepository
	userRepo       repository.UserRepository
	transfer       TransferService
	config         SubmissionConfig
	logger         zerolog.Logger

	now func() time.Time
}

func NewSubmissionService(
	submissionRepo repository.SubmissionRepository,
	assignmentRepo repository.AssignmentRepository,
	userRepo repository.UserRepository,
	transfer TransferService,
	config SubmissionConfig,
	logger zerolog.Logger,
) SubmissionService {
	return &submissionService{
		submissionRepo: submissionRepo,
		assignmentRepo: assignmentRepo,
		userRepo:       userRepo,
		transfer:       transfer,
		config:         config,
		logger:         logger,
		now:            time.Now,
	}
}

// CanDelete — единственный предикат, управляющий удалением: без оценки, без
// непустого отзыва и не позже срока сдачи. Он вычисляется дважды: при
// показе кнопки и непосредственно перед удалением (состояние могло
// измениться между рендером и кликом).
func (s *submissionService) CanDelete(submission *models.Submission, assignment *models.Assignment) bool {
	if submission == nil || assignment == nil {
		return false
	}

	if submission.Grade != nil {
		return false
	}
	if submission.Feedback != nil && strings.TrimSpace(*submission.Feedback) != "" {
		return false
	}

	return !s.now().After(assignment.DueDate)
}

// CanSubmit — подсказка для клиента: сдачи нет либо её ещё можно удалить.
// Сама замена через upsert срока сдачи не проверяет — после дедлайна
// загрузка остаётся возможной, заблокировано только удаление. Асимметрия
// намеренная и сохранена как есть.
func (s *submissionService) CanSubmit(assignment *models.Assignment, existing *models.Submission) bool {
	if existing == nil {
		return true
	}
	return s.CanDelete(existing, assignment)
}

func hasGradeOrFeedback(submission *models.Submission) bool {
	if submission.Grade != nil {
		return true
	}
	return submission.Feedback != nil && strings.TrimSpace(*submission.Feedback) != ""
}

// storageFileName разводит коллизии имён: исходное имя без расширения,
// затем наносекундная метка, затем исходное расширение.
func storageFileName(originalName string, now time.Time) string {
	ext := filepath.Ext(originalName)
	stem := strings.TrimSuffix(filepath.Base(originalName), ext)
	return fmt.Sprintf("%s_%d%s", stem, now.UnixNano(), ext)
}

func (s *submissionService) validateUpload(upload *models.FileUpload) error {
	if upload == nil || upload.Name == "" {
		return fmt.Errorf("%w: file is required", ErrValidation)
	}
	if upload.Size > s.config.MaxSize {
		return fmt.Errorf("%w: file exceeds %d bytes", ErrValidation, s.config.MaxSize)
	}
	for _, t := range s.config.AllowedTypes {
		if upload.ContentType == t {
			return nil
		}
	}
	return fmt.Errorf("%w: file type %q is not allowed", ErrValidation, upload.ContentType)
}

func (s *submissionService) Submit(ctx context.Context, studentID, assignmentID string, upload *models.FileUpload) (*models.Submission, error) {
	if err := s.validateUpload(upload); err != nil {
		return nil, err
	}

	assignment, err := s.assignmentRepo.GetByID(ctx, assignmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch assignment: %w", err)
	}
	if assignment == nil {
		return nil, ErrAssignmentNotFound
	}

	// Оценённую сдачу студент заменить не может; просроченную — может
	// (см. CanSubmit).
	existing, err := s.submissionRepo.GetByAssignmentAndStudent(ctx, assignmentID, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing submission: %w", err)
	}
	if existing != nil && hasGradeOrFeedback(existing) {
		return nil, fmt.Errorf("%w: submission has already been graded", ErrAuthorization)
	}

	// Путь в бакете пространствуется по студенту
	objectPath := studentID + "/" + storageFileName(upload.Name, s.now())

	if err := s.transfer.Upload(ctx, s.config.Bucket, objectPath, upload.Content, upload.Size, upload.ContentType); err != nil {
		return nil, err
	}

	student, err := s.userRepo.GetByID(ctx, studentID)
	if err != nil || student == nil {
		// Блоб уже загружен; имя подставляем из идентификатора, запись важнее.
		s.logger.Warn().Err(err).Str("student_id", studentID).Msg("Failed to resolve student profile, using fallback name")
		student = &models.User{ID: studentID}
	}

	now := s.now()
	submission := &models.Submission{
		ID:           uuid.New().String(),
		AssignmentID: assignmentID,
		StudentID:    studentID,
		StudentName:  student.DisplayName(),
		FileName:     upload.Name,
		FilePath:     objectPath,
		FileSize:     upload.Size,
		FileType:     upload.ContentType,
		SubmittedAt:  now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	saved, err := s.submissionRepo.Upsert(ctx, submission)
	if err != nil {
		// Загруженный блоб остаётся сиротой: строка пишется последней, поэтому
		// строки без файла не бывает. Сироту подбирает sweep-orphans.
		s.logger.Error().
			Err(err).
			Str("object", objectPath).
			Str("assignment_id", assignmentID).
			Str("student_id", studentID).
			Msg("Submission row write failed after successful upload, blob orphaned")
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	s.logger.Info().
		Str("submission_id", saved.ID).
		Str("assignment_id", assignmentID).
		Str("student_id", studentID).
		Str("file", upload.Name).
		Msg("Submission stored")

	return saved, nil
}

func (s *submissionService) Remove(ctx context.Context, studentID, submissionID string) error {
	submission, err := s.submissionRepo.GetByID(ctx, submissionID)
	if err != nil {
		return fmt.Errorf("failed to fetch submission: %w", err)
	}
	if submission == nil {
		return ErrSubmissionNotFound
	}
	if submission.StudentID != studentID {
		return fmt.Errorf("%w: submission belongs to another student", ErrAuthorization)
	}

	assignment, err := s.assignmentRepo.GetByID(ctx, submission.AssignmentID)
	if err != nil {
		return fmt.Errorf("failed to fetch assignment: %w", err)
	}
	if assignment == nil {
		return ErrAssignmentNotFound
	}

	// Повторная проверка перед разрушающим действием: между показом кнопки
	// и подтверждением преподаватель мог выставить оценку.
	if !s.CanDelete(submission, assignment) {
		return fmt.Errorf("%w: submission is graded or past due date", ErrAuthorization)
	}

	// Блоб удаляем best-effort: отсутствующий бакет или уже удалённый объект
	// не должны блокировать удаление авторитетной строки.
	if err := s.transfer.Delete(ctx, s.config.Bucket, submission.FilePath); err != nil {
		if !errors.Is(err, repository.ErrObjectNotFound) && !errors.Is(err, repository.ErrBucketNotFound) {
			s.logger.Warn().
				Err(err).
				Str("object", submission.FilePath).
				Msg("Failed to delete submission blob, continuing with record deletion")
		}
	}

	if err := s.submissionRepo.Delete(ctx, submissionID); err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	s.logger.Info().
		Str("submission_id", submissionID).
		Str("student_id", studentID).
		Msg("Submission removed")

	return nil
}

func (s *submissionService) Status(ctx context.Context, studentID, assignmentID string) (*models.SubmissionStatusResponse, error) {
	assignment, err := s.assignmentRepo.GetByID(ctx, assignmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch assignment: %w", err)
	}
	if assignment == nil {
		return nil, ErrAssignmentNotFound
	}

	submission, err := s.submissionRepo.GetByAssignmentAndStudent(ctx, assignmentID, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch submission: %w", err)
	}

	return &models.SubmissionStatusResponse{
		Submission: submission,
		CanSubmit:  s.CanSubmit(assignment, submission),
		CanDelete:  s.CanDelete(submission, assignment),
		Overdue:    s.now().After(assignment.DueDate),
	}, nil
}

func (s *submissionService) GetByAssignment(ctx context.Context, teacherID, assignmentID string, page, limit int) (*models.SubmissionsResponse, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	assignment, err := s.assignmentRepo.GetByID(ctx, assignmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch assignment: %w", err)
	}
	if assignment == nil {
		return nil, ErrAssignmentNotFound
	}
	if assignment.TeacherID != teacherID {
		return nil, fmt.Errorf("%w: assignment belongs to another teacher", ErrAuthorization)
	}

	offset := (page - 1) * limit
	submissions, total, err := s.submissionRepo.GetByAssignmentID(ctx, assignmentID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}

	return &models.SubmissionsResponse{
		Submissions: submissions,
		Total:       total,
		Page:        page,
		Limit:       limit,
	}, nil
}

// GetByStudent — все сдачи студента по всем заданиям, новые сверху.
func (s *submissionService) GetByStudent(ctx context.Context, studentID string, page, limit int) (*models.SubmissionsResponse, error) {
	page, limit = normalizePage(page, limit)

	submissions, total, err := s.submissionRepo.GetByStudentID(ctx, studentID, limit, (page-1)*limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}

	return &models.SubmissionsResponse{
		Submissions: submissions,
		Total:       total,
		Page:        page,
		Limit:       limit,
	}, nil
}

func (s *submissionService) DownloadFile(ctx context.Context, actorID string, actorRole models.UserRole, submissionID string) ([]byte, *models.Submission, error) {
	submission, err := s.submissionRepo.GetByID(ctx, submissionID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fetch submission: %w", err)
	}
	if submission == nil {
		return nil, nil, ErrSubmissionNotFound
	}

	// Скачивать может сам студент или преподаватель-владелец задания.
	switch actorRole {
	case models.RoleStudent:
		if submission.StudentID != actorID {
			return nil, nil, fmt.Errorf("%w: submission belongs to another student", ErrAuthorization)
		}
	case models.RoleTeacher:
		assignment, err := s.assignmentRepo.GetByID(ctx, submission.AssignmentID)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to fetch assignment: %w", err)
		}
		if assignment == nil || assignment.TeacherID != actorID {
			return nil, nil, fmt.Errorf("%w: assignment belongs to another teacher", ErrAuthorization)
		}
	default:
		return nil, nil, fmt.Errorf("%w: unknown role", ErrAuthorization)
	}

	content, err := s.transfer.Download(ctx, s.config.Bucket, submission.FilePath)
	if err != nil {
		return nil, nil, err
	}

	return content, submission, nil
}
