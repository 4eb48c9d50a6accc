package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/RubachokBoss/assignment-portal/internal/models"
)

func newTestAssignmentService(asgRepo *mockAssignmentRepo, userRepo *mockUserRepo, transfer *mockTransfer) AssignmentService {
	return NewAssignmentService(asgRepo, userRepo, transfer, "assignment-files", zerolog.Nop())
}

func validCreateRequest() *models.CreateAssignmentRequest {
	return &models.CreateAssignmentRequest{
		Title:       "Databases Tutorial 3",
		Description: "Normalization exercises",
		DueDate:     time.Now().Add(7 * 24 * time.Hour),
		Category:    "Tutorial",
		Year:        3,
	}
}

func TestCreateAssignment(t *testing.T) {
	asgRepo := newMockAssignmentRepo()
	svc := newTestAssignmentService(asgRepo, newMockUserRepo(), newMockTransfer())

	created, err := svc.Create(context.Background(), "t1", validCreateRequest(), nil)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if created.TeacherID != "t1" {
		t.Errorf("TeacherID = %q, want t1", created.TeacherID)
	}
	if created.HasAttachment() {
		t.Error("HasAttachment() = true without a file")
	}
	if _, ok := asgRepo.assignments[created.ID]; !ok {
		t.Error("assignment row missing after Create")
	}
}

func TestCreateAssignmentWithAttachment(t *testing.T) {
	asgRepo := newMockAssignmentRepo()
	transfer := newMockTransfer()
	svc := newTestAssignmentService(asgRepo, newMockUserRepo(), transfer)

	created, err := svc.Create(context.Background(), "t1", validCreateRequest(), pdfUpload("brief.pdf"))
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if !created.HasAttachment() {
		t.Fatal("HasAttachment() = false with a file")
	}
	if !strings.HasPrefix(*created.FilePath, "t1/brief_") {
		t.Errorf("FilePath = %q, want prefix t1/brief_", *created.FilePath)
	}
	if transfer.uploads != 1 {
		t.Errorf("uploads = %d, want 1", transfer.uploads)
	}
}

func TestCreateAssignmentValidation(t *testing.T) {
	svc := newTestAssignmentService(newMockAssignmentRepo(), newMockUserRepo(), newMockTransfer())

	tests := []struct {
		name   string
		mutate func(*models.CreateAssignmentRequest)
	}{
		{"empty title", func(r *models.CreateAssignmentRequest) { r.Title = "" }},
		{"bad category", func(r *models.CreateAssignmentRequest) { r.Category = "Homework" }},
		{"year too low", func(r *models.CreateAssignmentRequest) { r.Year = 0 }},
		{"year too high", func(r *models.CreateAssignmentRequest) { r.Year = 7 }},
		{"zero due date", func(r *models.CreateAssignmentRequest) { r.DueDate = time.Time{} }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := validCreateRequest()
			tc.mutate(req)
			if _, err := svc.Create(context.Background(), "t1", req, nil); !errors.Is(err, ErrValidation) {
				t.Errorf("Create() error = %v, want ErrValidation", err)
			}
		})
	}
}

func TestListForStudentUsesProfileYear(t *testing.T) {
	asgRepo := newMockAssignmentRepo()
	userRepo := newMockUserRepo()
	svc := newTestAssignmentService(asgRepo, userRepo, newMockTransfer())

	year := 2
	userRepo.users["s1"] = &models.User{ID: "s1", Email: "s1@uni.edu", Role: string(models.RoleStudent), Year: &year}

	seedAssignment(asgRepo, "a1", time.Now().Add(time.Hour)).Year = 2
	seedAssignment(asgRepo, "a2", time.Now().Add(time.Hour)).Year = 3

	resp, err := svc.ListForStudent(context.Background(), "s1", 1, 20)
	if err != nil {
		t.Fatalf("ListForStudent() error = %v", err)
	}
	if resp.Total != 1 {
		t.Errorf("Total = %d, want 1 (only the student's year)", resp.Total)
	}
}

func TestListForStudentWithoutYear(t *testing.T) {
	userRepo := newMockUserRepo()
	svc := newTestAssignmentService(newMockAssignmentRepo(), userRepo, newMockTransfer())

	userRepo.users["s1"] = &models.User{ID: "s1", Email: "s1@uni.edu", Role: string(models.RoleStudent)}

	if _, err := svc.ListForStudent(context.Background(), "s1", 1, 20); !errors.Is(err, ErrValidation) {
		t.Fatalf("ListForStudent() error = %v, want ErrValidation", err)
	}
}

func TestDownloadAttachment(t *testing.T) {
	asgRepo := newMockAssignmentRepo()
	transfer := newMockTransfer()
	svc := newTestAssignmentService(asgRepo, newMockUserRepo(), transfer)

	created, err := svc.Create(context.Background(), "t1", validCreateRequest(), pdfUpload("brief.pdf"))
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	content, assignment, err := svc.DownloadAttachment(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("DownloadAttachment() error = %v", err)
	}
	if len(content) == 0 {
		t.Error("attachment content is empty")
	}
	if assignment.ID != created.ID {
		t.Errorf("assignment.ID = %q, want %q", assignment.ID, created.ID)
	}
}

func TestDownloadAttachmentWithoutFile(t *testing.T) {
	asgRepo := newMockAssignmentRepo()
	svc := newTestAssignmentService(asgRepo, newMockUserRepo(), newMockTransfer())

	created, err := svc.Create(context.Background(), "t1", validCreateRequest(), nil)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if _, _, err := svc.DownloadAttachment(context.Background(), created.ID); !errors.Is(err, ErrValidation) {
		t.Fatalf("DownloadAttachment() error = %v, want ErrValidation", err)
	}
}
