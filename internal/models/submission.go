package models

import (
	"io"
	"time"
)

type Submission struct {
	ID           string    `json:"id" db:"id"`
	AssignmentID string    `json:"assignment_id" db:"assignment_id"`
	StudentID    string    `json:"student_id" db:"student_id"`
	StudentName  string    `json:"student_name" db:"student_name"`
	FileName     string    `json:"file_name" db:"file_name"`
	FilePath     string    `json:"file_path" db:"file_path"`
	FileSize     int64     `json:"file_size" db:"file_size"`
	FileType     string    `json:"file_type" db:"file_type"`
	SubmittedAt  time.Time `json:"submitted_at" db:"submitted_at"`
	Grade        *int      `json:"grade" db:"grade"`
	Feedback     *string   `json:"feedback" db:"feedback"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

type SubmissionWithDetails struct {
	Submission
	StudentEmail    string    `json:"student_email" db:"student_email"`
	AssignmentTitle string    `json:"assignment_title" db:"assignment_title"`
	AssignmentDue   time.Time `json:"assignment_due" db:"assignment_due"`
}

// FileUpload описывает входящий файл до записи в хранилище.
type FileUpload struct {
	Name        string
	Size        int64
	ContentType string
	Content     io.Reader
}

// StoredObject — объект в бакете, как его видит хранилище.
type StoredObject struct {
	Key          string
	Size         int64
	LastModified time.Time
}
