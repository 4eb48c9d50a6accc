package repository

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rs/zerolog"

	"github.com/RubachokBoss/assignment-portal/internal/models"
)

// ErrObjectNotFound и ErrBucketNotFound отделяют "нет такого объекта" от
// "бакет не создан": второе — ошибка конфигурации, а не данных.
var (
	ErrObjectNotFound = errors.New("object not found")
	ErrBucketNotFound = errors.New("bucket not found")
)

type MinIORepository struct {
	client *minio.Client
	region string
	logger zerolog.Logger
}

func NewMinIORepository(endpoint, accessKey, secretKey, region string, useSSL bool, logger zerolog.Logger) (*MinIORepository, error) {
	// Инициализация клиента MinIO
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	logger.Info().
		Str("endpoint", endpoint).
		Bool("ssl", useSSL).
		Msg("Connected to MinIO")

	return &MinIORepository{
		client: client,
		region: region,
		logger: logger,
	}, nil
}

// Бакеты создаёт только setup-storage. Запросный путь при отсутствующем
// бакете возвращает ErrBucketNotFound, чтобы пользователь получил
// осмысленное "обратитесь в поддержку", а не таймаут догоняющего bootstrap.
func translateMinIOError(err error) error {
	resp := minio.ToErrorResponse(err)
	switch resp.Code {
	case "NoSuchKey":
		return ErrObjectNotFound
	case "NoSuchBucket":
		return ErrBucketNotFound
	}
	return err
}

func (r *MinIORepository) UploadFile(ctx context.Context, bucket, objectName string, file io.Reader, size int64, contentType string) error {
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	uploadInfo, err := r.client.PutObject(ctx, bucket, objectName, file, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		if terr := translateMinIOError(err); terr != err {
			return terr
		}
		return fmt.Errorf("failed to upload file: %w", err)
	}

	r.logger.Debug().
		Str("bucket", bucket).
		Str("object", objectName).
		Str("etag", uploadInfo.ETag).
		Int64("size", size).
		Msg("File uploaded to MinIO")

	return nil
}

func (r *MinIORepository) DownloadFile(ctx context.Context, bucket, objectName string) (io.ReadCloser, int64, error) {
	objInfo, err := r.client.StatObject(ctx, bucket, objectName, minio.StatObjectOptions{})
	if err != nil {
		if terr := translateMinIOError(err); terr != err {
			return nil, 0, terr
		}
		return nil, 0, fmt.Errorf("failed to stat file: %w", err)
	}

	object, err := r.client.GetObject(ctx, bucket, objectName, minio.GetObjectOptions{})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get file: %w", err)
	}

	r.logger.Debug().
		Str("bucket", bucket).
		Str("object", objectName).
		Int64("size", objInfo.Size).
		Msg("File downloaded from MinIO")

	return object, objInfo.Size, nil
}

func (r *MinIORepository) DeleteFile(ctx context.Context, bucket, objectName string) error {
	err := r.client.RemoveObject(ctx, bucket, objectName, minio.RemoveObjectOptions{})
	if err != nil {
		if terr := translateMinIOError(err); terr != err {
			return terr
		}
		return fmt.Errorf("failed to delete file: %w", err)
	}

	r.logger.Debug().
		Str("bucket", bucket).
		Str("object", objectName).
		Msg("File deleted from MinIO")

	return nil
}

func (r *MinIORepository) GetPresignedURL(ctx context.Context, bucket, objectName string, expiresIn int64) (string, error) {
	// Создаем предварительно подписанный URL
	url, err := r.client.PresignedGetObject(ctx, bucket, objectName, time.Duration(expiresIn)*time.Second, nil)
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned URL: %w", err)
	}

	return url.String(), nil
}

func (r *MinIORepository) ListFiles(ctx context.Context, bucket, prefix string) ([]models.StoredObject, error) {
	var files []models.StoredObject

	objectCh := r.client.ListObjects(ctx, bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	})

	for object := range objectCh {
		if object.Err != nil {
			if terr := translateMinIOError(object.Err); terr != object.Err {
				return nil, terr
			}
			return nil, fmt.Errorf("failed to list objects: %w", object.Err)
		}
		files = append(files, models.StoredObject{
			Key:          object.Key,
			Size:         object.Size,
			LastModified: object.LastModified,
		})
	}

	return files, nil
}

// EnsureBucket идемпотентно создаёт приватный бакет: check-before-create,
// вызывается только из setup-storage.
func (r *MinIORepository) EnsureBucket(ctx context.Context, bucket string) (bool, error) {
	exists, err := r.client.BucketExists(ctx, bucket)
	if err != nil {
		return false, fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if exists {
		return false, nil
	}

	if err := r.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: r.region}); err != nil {
		return false, fmt.Errorf("failed to create bucket: %w", err)
	}

	r.logger.Info().Str("bucket", bucket).Msg("Created new bucket")
	return true, nil
}
