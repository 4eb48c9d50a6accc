package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/RubachokBoss/assignment-portal/internal/repository"
)

// TransferService переносит байты между клиентом и хранилищем.
type TransferService interface {
	Upload(ctx context.Context, bucket, objectName string, file io.Reader, size int64, contentType string) error
	Download(ctx context.Context, bucket, objectName string) ([]byte, error)
	Delete(ctx context.Context, bucket, objectName string) error
}

type transferService struct {
	storageRepo   repository.StorageRepository
	httpClient    *http.Client
	presignExpiry int64
	logger        zerolog.Logger
}

func NewTransferService(
	storageRepo repository.StorageRepository,
	presignExpiry int64,
	logger zerolog.Logger,
) TransferService {
	if presignExpiry <= 0 {
		presignExpiry = 3600
	}
	return &transferService{
		storageRepo:   storageRepo,
		httpClient:    &http.Client{Timeout: 60 * time.Second},
		presignExpiry: presignExpiry,
		logger:        logger,
	}
}

func (s *transferService) Upload(ctx context.Context, bucket, objectName string, file io.Reader, size int64, contentType string) error {
	err := s.storageRepo.UploadFile(ctx, bucket, objectName, file, size, contentType)
	if err == nil {
		return nil
	}

	// Отсутствующий бакет — не транзиентный сбой: повторная отправка не
	// поможет, нужна настройка окружения.
	if errors.Is(err, repository.ErrBucketNotFound) {
		s.logger.Error().
			Str("bucket", bucket).
			Str("object", objectName).
			Msg("Upload failed: bucket does not exist")
		return fmt.Errorf("%w: bucket %q does not exist", ErrConfiguration, bucket)
	}

	return fmt.Errorf("%w: %v", ErrUpload, err)
}

// Download сначала читает объект напрямую, при любой ошибке запрашивает
// подписанный URL и скачивает через него. Содержимое одинаково в обоих
// случаях; ErrDownload возвращается только когда исчерпаны обе стратегии.
func (s *transferService) Download(ctx context.Context, bucket, objectName string) ([]byte, error) {
	content, directErr := s.downloadDirect(ctx, bucket, objectName)
	if directErr == nil {
		return content, nil
	}

	s.logger.Warn().
		Err(directErr).
		Str("bucket", bucket).
		Str("object", objectName).
		Msg("Direct download failed, falling back to presigned URL")

	content, presignErr := s.downloadPresigned(ctx, bucket, objectName)
	if presignErr == nil {
		return content, nil
	}

	return nil, fmt.Errorf("%w: direct: %v; presigned: %v", ErrDownload, directErr, presignErr)
}

func (s *transferService) downloadDirect(ctx context.Context, bucket, objectName string) ([]byte, error) {
	reader, _, err := s.storageRepo.DownloadFile(ctx, bucket, objectName)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	return io.ReadAll(reader)
}

func (s *transferService) downloadPresigned(ctx context.Context, bucket, objectName string) ([]byte, error) {
	url, err := s.storageRepo.GetPresignedURL(ctx, bucket, objectName, s.presignExpiry)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("presigned fetch returned status %d", resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}

func (s *transferService) Delete(ctx context.Context, bucket, objectName string) error {
	return s.storageRepo.DeleteFile(ctx, bucket, objectName)
}
