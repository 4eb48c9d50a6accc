package repository

import (
	"context"
	"database/sql"

	"github.com/rs/zerolog"

	"github.com/RubachokBoss/assignment-portal/internal/models"
)

type SubmissionRepository interface {
	Upsert(ctx context.Context, submission *models.Submission) (*models.Submission, error)
	GetByID(ctx context.Context, id string) (*models.Submission, error)
	GetByAssignmentAndStudent(ctx context.Context, assignmentID, studentID string) (*models.Submission, error)
	GetByAssignmentID(ctx context.Context, assignmentID string, limit, offset int) ([]models.SubmissionWithDetails, int, error)
	GetByStudentID(ctx context.Context, studentID string, limit, offset int) ([]models.SubmissionWithDetails, int, error)
	UpdateGrade(ctx context.Context, id string, grade *int, feedback *string) (*models.Submission, error)
	Delete(ctx context.Context, id string) error
	ListFilePaths(ctx context.Context) ([]string, error)
}

type submissionRepository struct {
	*PostgresRepository
}

func NewSubmissionRepository(db *sql.DB, logger zerolog.Logger) SubmissionRepository {
	return &submissionRepository{
		PostgresRepository: NewPostgresRepository(db, logger),
	}
}

const submissionColumns = `id, assignment_id, student_id, student_name, file_name, file_path,
	file_size, file_type, submitted_at, grade, feedback, created_at, updated_at`

func scanSubmission(row *sql.Row) (*models.Submission, error) {
	s := &models.Submission{}
	err := row.Scan(
		&s.ID,
		&s.AssignmentID,
		&s.StudentID,
		&s.StudentName,
		&s.FileName,
		&s.FilePath,
		&s.FileSize,
		&s.FileType,
		&s.SubmittedAt,
		&s.Grade,
		&s.Feedback,
		&s.CreatedAt,
		&s.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	return s, err
}

// Upsert вставляет сдачу либо перезаписывает метаданные файла существующей —
// конфликт по (assignment_id, student_id). Оценка и отзыв upsert-ом не
// трогаются: их пишет только преподаватель через UpdateGrade.
func (r *submissionRepository) Upsert(ctx context.Context, submission *models.Submission) (*models.Submission, error) {
	query := `
		INSERT INTO submissions (id, assignment_id, student_id, student_name, file_name, file_path,
			file_size, file_type, submitted_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (assignment_id, student_id) DO UPDATE SET
			student_name = EXCLUDED.student_name,
			file_name = EXCLUDED.file_name,
			file_path = EXCLUDED.file_path,
			file_size = EXCLUDED.file_size,
			file_type = EXCLUDED.file_type,
			submitted_at = EXCLUDED.submitted_at,
			updated_at = EXCLUDED.updated_at
		RETURNING ` + submissionColumns

	row := r.db.QueryRowContext(ctx, query,
		submission.ID,
		submission.AssignmentID,
		submission.StudentID,
		submission.StudentName,
		submission.FileName,
		submission.FilePath,
		submission.FileSize,
		submission.FileType,
		submission.SubmittedAt,
		submission.CreatedAt,
		submission.UpdatedAt,
	)

	return scanSubmission(row)
}

func (r *submissionRepository) GetByID(ctx context.Context, id string) (*models.Submission, error) {
	query := `SELECT ` + submissionColumns + ` FROM submissions WHERE id = $1`
	return scanSubmission(r.db.QueryRowContext(ctx, query, id))
}

func (r *submissionRepository) GetByAssignmentAndStudent(ctx context.Context, assignmentID, studentID string) (*models.Submission, error) {
	query := `SELECT ` + submissionColumns + ` FROM submissions WHERE assignment_id = $1 AND student_id = $2`
	return scanSubmission(r.db.QueryRowContext(ctx, query, assignmentID, studentID))
}

func (r *submissionRepository) GetByAssignmentID(ctx context.Context, assignmentID string, limit, offset int) ([]models.SubmissionWithDetails, int, error) {
	countQuery := `SELECT COUNT(*) FROM submissions WHERE assignment_id = $1`
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, assignmentID).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT
			s.id, s.assignment_id, s.student_id, s.student_name, s.file_name, s.file_path,
			s.file_size, s.file_type, s.submitted_at, s.grade, s.feedback, s.created_at, s.updated_at,
			u.email as student_email,
			a.title as assignment_title, a.due_date as assignment_due
		FROM submissions s
		JOIN users u ON s.student_id = u.id
		JOIN assignments a ON s.assignment_id = a.id
		WHERE s.assignment_id = $1
		ORDER BY s.submitted_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.QueryContext(ctx, query, assignmentID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	submissions, err := scanSubmissionsWithDetails(rows)
	if err != nil {
		return nil, 0, err
	}

	return submissions, total, nil
}

func (r *submissionRepository) GetByStudentID(ctx context.Context, studentID string, limit, offset int) ([]models.SubmissionWithDetails, int, error) {
	countQuery := `SELECT COUNT(*) FROM submissions WHERE student_id = $1`
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, studentID).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT
			s.id, s.assignment_id, s.student_id, s.student_name, s.file_name, s.file_path,
			s.file_size, s.file_type, s.submitted_at, s.grade, s.feedback, s.created_at, s.updated_at,
			u.email as student_email,
			a.title as assignment_title, a.due_date as assignment_due
		FROM submissions s
		JOIN users u ON s.student_id = u.id
		JOIN assignments a ON s.assignment_id = a.id
		WHERE s.student_id = $1
		ORDER BY s.submitted_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.QueryContext(ctx, query, studentID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	submissions, err := scanSubmissionsWithDetails(rows)
	if err != nil {
		return nil, 0, err
	}

	return submissions, total, nil
}

func scanSubmissionsWithDetails(rows *sql.Rows) ([]models.SubmissionWithDetails, error) {
	var submissions []models.SubmissionWithDetails
	for rows.Next() {
		var s models.SubmissionWithDetails
		err := rows.Scan(
			&s.ID,
			&s.AssignmentID,
			&s.StudentID,
			&s.StudentName,
			&s.FileName,
			&s.FilePath,
			&s.FileSize,
			&s.FileType,
			&s.SubmittedAt,
			&s.Grade,
			&s.Feedback,
			&s.CreatedAt,
			&s.UpdatedAt,
			&s.StudentEmail,
			&s.AssignmentTitle,
			&s.AssignmentDue,
		)
		if err != nil {
			return nil, err
		}
		submissions = append(submissions, s)
	}

	return submissions, rows.Err()
}

func (r *submissionRepository) UpdateGrade(ctx context.Context, id string, grade *int, feedback *string) (*models.Submission, error) {
	query := `
		UPDATE submissions
		SET grade = $1, feedback = $2, updated_at = NOW()
		WHERE id = $3
		RETURNING ` + submissionColumns

	return scanSubmission(r.db.QueryRowContext(ctx, query, grade, feedback, id))
}

func (r *submissionRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM submissions WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)
	return err
}

func (r *submissionRepository) ListFilePaths(ctx context.Context) ([]string, error) {
	query := `SELECT file_path FROM submissions`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var paths []string
	for rows.Next() {
		var path string
		if err := rows.Scan(&path); err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}

	return paths, rows.Err()
}
