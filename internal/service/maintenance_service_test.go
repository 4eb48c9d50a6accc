package service

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestSweepOrphans(t *testing.T) {
	subRepo := newMockSubmissionRepo()
	asgRepo := newMockAssignmentRepo()
	storage := newMockStorage()

	sub := seedSubmission(subRepo, "sub1", "a1", "s1")

	old := time.Now().Add(-2 * time.Hour)
	// Блоб с живой строкой
	storage.objects["assignment-submissions/"+sub.FilePath] = []byte("referenced")
	storage.modified["assignment-submissions/"+sub.FilePath] = old
	// Сирота: строка не записалась
	storage.objects["assignment-submissions/s2/orphan_1.pdf"] = []byte("orphaned")
	storage.modified["assignment-submissions/s2/orphan_1.pdf"] = old
	// Свежая загрузка: строка может быть еще в пути
	storage.objects["assignment-submissions/s3/fresh_1.pdf"] = []byte("in flight")
	storage.modified["assignment-submissions/s3/fresh_1.pdf"] = time.Now()

	svc := NewMaintenanceService(subRepo, asgRepo, storage, "assignment-submissions", "assignment-files", zerolog.Nop())

	removed, err := svc.SweepOrphans(context.Background(), time.Hour)
	if err != nil {
		t.Fatalf("SweepOrphans() error = %v", err)
	}
	if removed != 1 {
		t.Fatalf("removed = %d, want 1", removed)
	}

	if _, ok := storage.objects["assignment-submissions/"+sub.FilePath]; !ok {
		t.Error("referenced blob was removed")
	}
	if _, ok := storage.objects["assignment-submissions/s2/orphan_1.pdf"]; ok {
		t.Error("orphaned blob survived the sweep")
	}
	if _, ok := storage.objects["assignment-submissions/s3/fresh_1.pdf"]; !ok {
		t.Error("fresh blob was removed before the grace period")
	}
}

func TestSweepOrphansCoversAssignmentBucket(t *testing.T) {
	subRepo := newMockSubmissionRepo()
	asgRepo := newMockAssignmentRepo()
	storage := newMockStorage()

	path := "t1/brief_1.pdf"
	a := seedAssignment(asgRepo, "a1", time.Now().Add(time.Hour))
	a.FilePath = &path

	old := time.Now().Add(-2 * time.Hour)
	storage.objects["assignment-files/"+path] = []byte("referenced")
	storage.modified["assignment-files/"+path] = old
	storage.objects["assignment-files/t1/stale_1.pdf"] = []byte("orphaned")
	storage.modified["assignment-files/t1/stale_1.pdf"] = old

	svc := NewMaintenanceService(subRepo, asgRepo, storage, "assignment-submissions", "assignment-files", zerolog.Nop())

	removed, err := svc.SweepOrphans(context.Background(), time.Hour)
	if err != nil {
		t.Fatalf("SweepOrphans() error = %v", err)
	}
	if removed != 1 {
		t.Fatalf("removed = %d, want 1", removed)
	}
	if _, ok := storage.objects["assignment-files/"+path]; !ok {
		t.Error("referenced attachment was removed")
	}
}
