package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/RubachokBoss/assignment-portal/internal/models"
	"github.com/RubachokBoss/assignment-portal/internal/repository"
)

// GradingService выставляет оценку и отзыв от имени преподавателя-владельца.
type GradingService interface {
	Grade(ctx context.Context, teacherID, submissionID string, grade *int, feedback string) (*models.Submission, error)
}

type gradingService struct {
	submissionRepo repository.SubmissionRepository
	assignmentRepo repository.AssignmentRepository
	logger         zerolog.Logger
}

func NewGradingService(
	submissionRepo repository.SubmissionRepository,
	assignmentRepo repository.AssignmentRepository,
	logger zerolog.Logger,
) GradingService {
	return &gradingService{
		submissionRepo: submissionRepo,
		assignmentRepo: assignmentRepo,
		logger:         logger,
	}
}

func (s *gradingService) Grade(ctx context.Context, teacherID, submissionID string, grade *int, feedback string) (*models.Submission, error) {
	// Диапазон проверяем до любого похода в БД
	if grade != nil && (*grade < 0 || *grade > 100) {
		return nil, fmt.Errorf("%w: grade must be between 0 and 100", ErrValidation)
	}

	submission, err := s.submissionRepo.GetByID(ctx, submissionID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch submission: %w", err)
	}
	if submission == nil {
		return nil, ErrSubmissionNotFound
	}

	// Владение заданием перепроверяется на каждый вызов: состояние клиента
	// могло устареть, а прямое обращение к API — прийти мимо интерфейса.
	assignment, err := s.assignmentRepo.GetByID(ctx, submission.AssignmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch assignment: %w", err)
	}
	if assignment == nil || assignment.TeacherID != teacherID {
		return nil, fmt.Errorf("%w: you do not own this assignment", ErrAuthorization)
	}

	// Пустой отзыв нормализуется в NULL: от этого зависит право студента
	// удалить сдачу.
	var feedbackValue *string
	if trimmed := strings.TrimSpace(feedback); trimmed != "" {
		feedbackValue = &trimmed
	}

	updated, err := s.submissionRepo.UpdateGrade(ctx, submissionID, grade, feedbackValue)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if updated == nil {
		return nil, ErrSubmissionNotFound
	}

	event := s.logger.Info().
		Str("submission_id", submissionID).
		Str("teacher_id", teacherID)
	if grade != nil {
		event = event.Int("grade", *grade)
	}
	event.Msg("Submission graded")

	return updated, nil
}
