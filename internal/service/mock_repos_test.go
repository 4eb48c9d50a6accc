package service

import (
	"context"
	"errors"
	"io"

	"github.com/google/uuid"

	"github.com/RubachokBoss/assignment-portal/internal/models"
)

// ── Mock UserRepository ──

type mockUserRepo struct {
	users map[string]*models.User

	getByIDErr error
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*models.User)}
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*models.User, error) {
	if m.getByIDErr != nil {
		return nil, m.getByIDErr
	}
	return m.users[id], nil
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

func (m *mockUserRepo) UpdatePassword(_ context.Context, id, passwordHash string) error {
	u, ok := m.users[id]
	if !ok {
		return errors.New("user not found")
	}
	u.PasswordHash = passwordHash
	return nil
}

func (m *mockUserRepo) SetPasswordChanged(_ context.Context, id string, changed bool) error {
	u, ok := m.users[id]
	if !ok {
		return errors.New("user not found")
	}
	u.PasswordChanged = changed
	return nil
}

// ── Mock AssignmentRepository ──

type mockAssignmentRepo struct {
	assignments map[string]*models.Assignment
}

func newMockAssignmentRepo() *mockAssignmentRepo {
	return &mockAssignmentRepo{assignments: make(map[string]*models.Assignment)}
}

func (m *mockAssignmentRepo) Create(_ context.Context, assignment *models.Assignment) error {
	m.assignments[assignment.ID] = assignment
	return nil
}

func (m *mockAssignmentRepo) GetByID(_ context.Context, id string) (*models.Assignment, error) {
	return m.assignments[id], nil
}

func (m *mockAssignmentRepo) GetByYear(_ context.Context, year, limit, offset int) ([]models.AssignmentWithTeacher, int, error) {
	var result []models.AssignmentWithTeacher
	for _, a := range m.assignments {
		if a.Year == year {
			result = append(result, models.AssignmentWithTeacher{Assignment: *a})
		}
	}
	return paginate(result, limit, offset), len(result), nil
}

func (m *mockAssignmentRepo) GetByTeacherID(_ context.Context, teacherID string, limit, offset int) ([]models.AssignmentWithTeacher, int, error) {
	var result []models.AssignmentWithTeacher
	for _, a := range m.assignments {
		if a.TeacherID == teacherID {
			result = append(result, models.AssignmentWithTeacher{Assignment: *a})
		}
	}
	return paginate(result, limit, offset), len(result), nil
}

func (m *mockAssignmentRepo) ListFilePaths(_ context.Context) ([]string, error) {
	var paths []string
	for _, a := range m.assignments {
		if a.FilePath != nil {
			paths = append(paths, *a.FilePath)
		}
	}
	return paths, nil
}

func paginate(items []models.AssignmentWithTeacher, limit, offset int) []models.AssignmentWithTeacher {
	if offset >= len(items) {
		return nil
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}

// ── Mock SubmissionRepository ──

type mockSubmissionRepo struct {
	submissions map[string]*models.Submission

	upsertErr error
	deleteErr error
}

func newMockSubmissionRepo() *mockSubmissionRepo {
	return &mockSubmissionRepo{submissions: make(map[string]*models.Submission)}
}

func (m *mockSubmissionRepo) Upsert(_ context.Context, submission *models.Submission) (*models.Submission, error) {
	if m.upsertErr != nil {
		return nil, m.upsertErr
	}
	for _, existing := range m.submissions {
		if existing.AssignmentID == submission.AssignmentID && existing.StudentID == submission.StudentID {
			existing.StudentName = submission.StudentName
			existing.FileName = submission.FileName
			existing.FilePath = submission.FilePath
			existing.FileSize = submission.FileSize
			existing.FileType = submission.FileType
			existing.SubmittedAt = submission.SubmittedAt
			existing.UpdatedAt = submission.UpdatedAt
			return existing, nil
		}
	}
	if submission.ID == "" {
		submission.ID = uuid.New().String()
	}
	copied := *submission
	m.submissions[copied.ID] = &copied
	return &copied, nil
}

func (m *mockSubmissionRepo) GetByID(_ context.Context, id string) (*models.Submission, error) {
	return m.submissions[id], nil
}

func (m *mockSubmissionRepo) GetByAssignmentAndStudent(_ context.Context, assignmentID, studentID string) (*models.Submission, error) {
	for _, s := range m.submissions {
		if s.AssignmentID == assignmentID && s.StudentID == studentID {
			return s, nil
		}
	}
	return nil, nil
}

func (m *mockSubmissionRepo) GetByAssignmentID(_ context.Context, assignmentID string, limit, offset int) ([]models.SubmissionWithDetails, int, error) {
	var result []models.SubmissionWithDetails
	for _, s := range m.submissions {
		if s.AssignmentID == assignmentID {
			result = append(result, models.SubmissionWithDetails{Submission: *s})
		}
	}
	return result, len(result), nil
}

func (m *mockSubmissionRepo) GetByStudentID(_ context.Context, studentID string, limit, offset int) ([]models.SubmissionWithDetails, int, error) {
	var result []models.SubmissionWithDetails
	for _, s := range m.submissions {
		if s.StudentID == studentID {
			result = append(result, models.SubmissionWithDetails{Submission: *s})
		}
	}
	return result, len(result), nil
}

func (m *mockSubmissionRepo) UpdateGrade(_ context.Context, id string, grade *int, feedback *string) (*models.Submission, error) {
	s, ok := m.submissions[id]
	if !ok {
		return nil, nil
	}
	s.Grade = grade
	s.Feedback = feedback
	return s, nil
}

func (m *mockSubmissionRepo) Delete(_ context.Context, id string) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	delete(m.submissions, id)
	return nil
}

func (m *mockSubmissionRepo) ListFilePaths(_ context.Context) ([]string, error) {
	var paths []string
	for _, s := range m.submissions {
		paths = append(paths, s.FilePath)
	}
	return paths, nil
}

// ── Mock TransferService ──

type mockTransfer struct {
	objects map[string][]byte

	uploadErr   error
	downloadErr error
	deleteErr   error

	uploads int
	deletes int
}

func newMockTransfer() *mockTransfer {
	return &mockTransfer{objects: make(map[string][]byte)}
}

func (m *mockTransfer) Upload(_ context.Context, bucket, objectName string, file io.Reader, size int64, contentType string) error {
	if m.uploadErr != nil {
		return m.uploadErr
	}
	content, err := io.ReadAll(file)
	if err != nil {
		return err
	}
	m.objects[bucket+"/"+objectName] = content
	m.uploads++
	return nil
}

func (m *mockTransfer) Download(_ context.Context, bucket, objectName string) ([]byte, error) {
	if m.downloadErr != nil {
		return nil, m.downloadErr
	}
	content, ok := m.objects[bucket+"/"+objectName]
	if !ok {
		return nil, ErrDownload
	}
	return content, nil
}

func (m *mockTransfer) Delete(_ context.Context, bucket, objectName string) error {
	m.deletes++
	if m.deleteErr != nil {
		return m.deleteErr
	}
	delete(m.objects, bucket+"/"+objectName)
	return nil
}
