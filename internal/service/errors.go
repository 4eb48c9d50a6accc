package service

import "errors"

// Типизированные ошибки для корректного маппинга на HTTP-коды в delivery-слое.
var (
	// Ошибки валидации: обнаруживаются до обращения к бэкенду.
	ErrValidation = errors.New("validation failed")

	// Отказ по владению/роли/состоянию. Повтор запроса не поможет.
	ErrAuthorization = errors.New("not permitted")

	// Ошибки внешних зависимостей: пользователь может повторить вручную.
	ErrUpload      = errors.New("file upload failed")
	ErrDownload    = errors.New("file download failed")
	ErrPersistence = errors.New("failed to persist record")

	// Отсутствующий бакет или политика. Повтор бесполезен, нужен оператор.
	ErrConfiguration = errors.New("storage is not configured, contact support")

	ErrUserNotFound       = errors.New("user not found")
	ErrAssignmentNotFound = errors.New("assignment not found")
	ErrSubmissionNotFound = errors.New("submission not found")
	ErrInvalidCredentials = errors.New("invalid email or password")
)
