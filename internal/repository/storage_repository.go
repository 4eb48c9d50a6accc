package repository

import (
	"context"
	"io"

	"github.com/rs/zerolog"

	"github.com/RubachokBoss/assignment-portal/internal/models"
)

type StorageRepository interface {
	UploadFile(ctx context.Context, bucket, objectName string, file io.Reader, size int64, contentType string) error
	DownloadFile(ctx context.Context, bucket, objectName string) (io.ReadCloser, int64, error)
	DeleteFile(ctx context.Context, bucket, objectName string) error
	GetPresignedURL(ctx context.Context, bucket, objectName string, expiresIn int64) (string, error)
	ListFiles(ctx context.Context, bucket, prefix string) ([]models.StoredObject, error)
	EnsureBucket(ctx context.Context, bucket string) (bool, error)
}

// Оберточный репозиторий: единая точка для смены провайдера хранилища.
type storageRepository struct {
	provider StorageRepository
	logger   zerolog.Logger
}

func NewStorageRepository(provider StorageRepository, logger zerolog.Logger) StorageRepository {
	return &storageRepository{
		provider: provider,
		logger:   logger,
	}
}

func (r *storageRepository) UploadFile(ctx context.Context, bucket, objectName string, file io.Reader, size int64, contentType string) error {
	return r.provider.UploadFile(ctx, bucket, objectName, file, size, contentType)
}

func (r *storageRepository) DownloadFile(ctx context.Context, bucket, objectName string) (io.ReadCloser, int64, error) {
	return r.provider.DownloadFile(ctx, bucket, objectName)
}

func (r *storageRepository) DeleteFile(ctx context.Context, bucket, objectName string) error {
	return r.provider.DeleteFile(ctx, bucket, objectName)
}

func (r *storageRepository) GetPresignedURL(ctx context.Context, bucket, objectName string, expiresIn int64) (string, error) {
	return r.provider.GetPresignedURL(ctx, bucket, objectName, expiresIn)
}

func (r *storageRepository) ListFiles(ctx context.Context, bucket, prefix string) ([]models.StoredObject, error) {
	return r.provider.ListFiles(ctx, bucket, prefix)
}

func (r *storageRepository) EnsureBucket(ctx context.Context, bucket string) (bool, error) {
	return r.provider.EnsureBucket(ctx, bucket)
}
