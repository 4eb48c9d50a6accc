package repository

import (
	"context"
	"database/sql"

	"github.com/rs/zerolog"

	"github.com/RubachokBoss/assignment-portal/internal/models"
)

type AssignmentRepository interface {
	Create(ctx context.Context, assignment *models.Assignment) error
	GetByID(ctx context.Context, id string) (*models.Assignment, error)
	GetByYear(ctx context.Context, year, limit, offset int) ([]models.AssignmentWithTeacher, int, error)
	GetByTeacherID(ctx context.Context, teacherID string, limit, offset int) ([]models.AssignmentWithTeacher, int, error)
	ListFilePaths(ctx context.Context) ([]string, error)
}

type assignmentRepository struct {
	*PostgresRepository
}

func NewAssignmentRepository(db *sql.DB, logger zerolog.Logger) AssignmentRepository {
	return &assignmentRepository{
		PostgresRepository: NewPostgresRepository(db, logger),
	}
}

func (r *assignmentRepository) Create(ctx context.Context, assignment *models.Assignment) error {
	query := `
		INSERT INTO assignments (id, title, description, due_date, category, teacher_id, year,
			file_name, file_path, file_type, file_size, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := r.db.ExecContext(ctx, query,
		assignment.ID,
		assignment.Title,
		assignment.Description,
		assignment.DueDate,
		assignment.Category,
		assignment.TeacherID,
		assignment.Year,
		assignment.FileName,
		assignment.FilePath,
		assignment.FileType,
		assignment.FileSize,
		assignment.CreatedAt,
		assignment.UpdatedAt,
	)

	return err
}

func (r *assignmentRepository) GetByID(ctx context.Context, id string) (*models.Assignment, error) {
	query := `
		SELECT id, title, description, due_date, category, teacher_id, year,
			file_name, file_path, file_type, file_size, created_at, updated_at
		FROM assignments
		WHERE id = $1
	`

	assignment := &models.Assignment{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&assignment.ID,
		&assignment.Title,
		&assignment.Description,
		&assignment.DueDate,
		&assignment.Category,
		&assignment.TeacherID,
		&assignment.Year,
		&assignment.FileName,
		&assignment.FilePath,
		&assignment.FileType,
		&assignment.FileSize,
		&assignment.CreatedAt,
		&assignment.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	return assignment, err
}

// GetByYear возвращает задания курса с именем преподавателя и статистикой
// сдач — то, что видит студент на своей странице.
func (r *assignmentRepository) GetByYear(ctx context.Context, year, limit, offset int) ([]models.AssignmentWithTeacher, int, error) {
	countQuery := `SELECT COUNT(*) FROM assignments WHERE year = $1`
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, year).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT
			a.id, a.title, a.description, a.due_date, a.category, a.teacher_id, a.year,
			a.file_name, a.file_path, a.file_type, a.file_size, a.created_at, a.updated_at,
			COALESCE(u.name, u.email) as teacher_name,
			COUNT(s.id) as submission_count,
			(SELECT COUNT(*) FROM users stu WHERE stu.role = 'student' AND stu.year = a.year) as total_students
		FROM assignments a
		JOIN users u ON a.teacher_id = u.id
		LEFT JOIN submissions s ON a.id = s.assignment_id
		WHERE a.year = $1
		GROUP BY a.id, u.name, u.email
		ORDER BY a.due_date ASC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.QueryContext(ctx, query, year, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	assignments, err := scanAssignmentsWithTeacher(rows)
	if err != nil {
		return nil, 0, err
	}

	return assignments, total, nil
}

func (r *assignmentRepository) GetByTeacherID(ctx context.Context, teacherID string, limit, offset int) ([]models.AssignmentWithTeacher, int, error) {
	countQuery := `SELECT COUNT(*) FROM assignments WHERE teacher_id = $1`
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, teacherID).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT
			a.id, a.title, a.description, a.due_date, a.category, a.teacher_id, a.year,
			a.file_name, a.file_path, a.file_type, a.file_size, a.created_at, a.updated_at,
			COALESCE(u.name, u.email) as teacher_name,
			COUNT(s.id) as submission_count,
			(SELECT COUNT(*) FROM users stu WHERE stu.role = 'student' AND stu.year = a.year) as total_students
		FROM assignments a
		JOIN users u ON a.teacher_id = u.id
		LEFT JOIN submissions s ON a.id = s.assignment_id
		WHERE a.teacher_id = $1
		GROUP BY a.id, u.name, u.email
		ORDER BY a.created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.QueryContext(ctx, query, teacherID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	assignments, err := scanAssignmentsWithTeacher(rows)
	if err != nil {
		return nil, 0, err
	}

	return assignments, total, nil
}

func scanAssignmentsWithTeacher(rows *sql.Rows) ([]models.AssignmentWithTeacher, error) {
	var assignments []models.AssignmentWithTeacher
	for rows.Next() {
		var a models.AssignmentWithTeacher
		err := rows.Scan(
			&a.ID,
			&a.Title,
			&a.Description,
			&a.DueDate,
			&a.Category,
			&a.TeacherID,
			&a.Year,
			&a.FileName,
			&a.FilePath,
			&a.FileType,
			&a.FileSize,
			&a.CreatedAt,
			&a.UpdatedAt,
			&a.TeacherName,
			&a.SubmissionCount,
			&a.TotalStudents,
		)
		if err != nil {
			return nil, err
		}
		assignments = append(assignments, a)
	}

	return assignments, rows.Err()
}

func (r *assignmentRepository) ListFilePaths(ctx context.Context) ([]string, error) {
	query := `SELECT file_path FROM assignments WHERE file_path IS NOT NULL`

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
