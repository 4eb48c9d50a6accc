package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/RubachokBoss/assignment-portal/internal/repository"
)

// MaintenanceService — операторские задачи, запускаются только вручную
// из подкоманды, фоновых планировщиков в сервисе нет.
type MaintenanceService interface {
	SweepOrphans(ctx context.Context, olderThan time.Duration) (int, error)
}

type maintenanceService struct {
	submissionRepo repository.SubmissionRepository
	assignmentRepo repository.AssignmentRepository
	storageRepo    repository.StorageRepository
	submissionsBkt string
	assignmentsBkt string
	logger         zerolog.Logger
}

func NewMaintenanceService(
	submissionRepo repository.SubmissionRepository,
	assignmentRepo repository.AssignmentRepository,
	storageRepo repository.StorageRepository,
	submissionsBucket, assignmentsBucket string,
	logger zerolog.Logger,
) MaintenanceService {
	return &maintenanceService{
		submissionRepo: submissionRepo,
		assignmentRepo: assignmentRepo,
		storageRepo:    storageRepo,
		submissionsBkt: submissionsBucket,
		assignmentsBkt: assignmentsBucket,
		logger:         logger,
	}
}

// SweepOrphans удаляет блобы, на которые не ссылается ни одна строка.
// Сироты возникают, когда загрузка удалась, а запись строки — нет; строка
// всегда пишется последней, поэтому обратной ситуации не бывает. Возрастной
// порог защищает загрузку, у которой строка ещё не успела записаться.
func (s *maintenanceService) SweepOrphans(ctx context.Context, olderThan time.Duration) (int, error) {
	removed := 0

	submissionPaths, err := s.submissionRepo.ListFilePaths(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list submission paths: %w", err)
	}
	n, err := s.sweepBucket(ctx, s.submissionsBkt, submissionPaths, olderThan)
	removed += n
	if err != nil {
		return removed, err
	}

	assignmentPaths, err := s.assignmentRepo.ListFilePaths(ctx)
	if err != nil {
		return removed, fmt.Errorf("failed to list assignment paths: %w", err)
	}
	n, err = s.sweepBucket(ctx, s.assignmentsBkt, assignmentPaths, olderThan)
	removed += n

	return removed, err
}

func (s *maintenanceService) sweepBucket(ctx context.Context, bucket string, referenced []string, olderThan time.Duration) (int, error) {
	refs := make(map[string]struct{}, len(referenced))
	for _, p := range referenced {
		refs[p] = struct{}{}
	}

	objects, err := s.storageRepo.ListFiles(ctx, bucket, "")
	if err != nil {
		return 0, fmt.Errorf("failed to list bucket %q: %w", bucket, err)
	}

	removed := 0
	cutoff := time.Now().Add(-olderThan)
	for _, obj := range objects {
		if _, ok := refs[obj.Key]; ok {
			continue
		}
		if obj.LastModified.After(cutoff) {
			continue
		}

		if err := s.storageRepo.DeleteFile(ctx, bucket, obj.Key); err != nil {
			s.logger.Warn().
				Err(err).
				Str("bucket", bucket).
				Str("object", obj.Key).
				Msg("Failed to remove orphaned blob")
			continue
		}

		s.logger.Info().
			Str("bucket", bucket).
			Str("object", obj.Key).
			Int64("size", obj.Size).
			Msg("Removed orphaned blob")
		removed++
	}

	return removed, nil
}
