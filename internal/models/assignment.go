package models

import (
	"time"
)

type Assignment struct {
	ID          string    `json:"id" db:"id"`
	Title       string    `json:"title" db:"title"`
	Description string    `json:"description" db:"description"`
	DueDate     time.Time `json:"due_date" db:"due_date"`
	Category    string    `json:"category" db:"category"` // Assignment, Tutorial, Lab Report
	TeacherID   string    `json:"teacher_id" db:"teacher_id"`
	Year        int       `json:"year" db:"year"`
	FileName    *string   `json:"file_name,omitempty" db:"file_name"`
	FilePath    *string   `json:"file_path,omitempty" db:"file_path"`
	FileType    *string   `json:"file_type,omitempty" db:"file_type"`
	FileSize    *int64    `json:"file_size,omitempty" db:"file_size"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

type AssignmentWithTeacher struct {
	Assignment
	TeacherName     string `json:"teacher_name" db:"teacher_name"`
	SubmissionCount int    `json:"submission_count" db:"submission_count"`
	TotalStudents   int    `json:"total_students" db:"total_students"`
}

type AssignmentCategory string

const (
	CategoryAssignment AssignmentCategory = "Assignment"
	CategoryTutorial   AssignmentCategory = "Tutorial"
	CategoryLabReport  AssignmentCategory = "Lab Report"
)

func (c AssignmentCategory) String() string {
	return string(c)
}

func IsValidCategory(category string) bool {
	switch category {
	case "Assignment", "Tutorial", "Lab Report":
		return true
	default:
		return false
	}
}

func IsValidYear(year int) bool {
	return year >= 1 && year <= 6
}

// HasAttachment сообщает, прикреплял ли преподаватель файл к заданию.
func (a *Assignment) HasAttachment() bool {
	return a.FilePath != nil && *a.FilePath != ""
}
