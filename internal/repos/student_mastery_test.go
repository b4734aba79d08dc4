package repos

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yeah-genie/chalk-backend/internal/repos/testutil"
	"github.com/yeah-genie/chalk-backend/internal/types"
)

func TestStudentMasteryUpsertNeverDuplicates(t *testing.T) {
	ctx := context.Background()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	tutor := testutil.SeedTutor(t, ctx, db, "upsert@example.com")
	testutil.SeedSubjectTree(t, ctx, db, "algebra-1", "factoring-quadratics")
	student := testutil.SeedStudent(t, ctx, db, tutor.ID, "algebra-1")

	repo := NewStudentMasteryRepo(db, log)

	if err := repo.Upsert(ctx, nil, student.ID, "factoring-quadratics", 45, types.TopicLearning, time.Now().UTC()); err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	if err := repo.Upsert(ctx, nil, student.ID, "factoring-quadratics", 68, types.TopicReviewed, time.Now().UTC()); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	rows, err := repo.ListByStudent(ctx, nil, student.ID)
	if err != nil {
		t.Fatalf("ListByStudent: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("rows = %d, want 1 per (student, topic)", len(rows))
	}
	if rows[0].Score != 68 || rows[0].Status != types.TopicReviewed {
		t.Fatalf("row = %d/%s, want 68/reviewed", rows[0].Score, rows[0].Status)
	}

	// A different topic for the same student is a separate row.
	if err := repo.Upsert(ctx, nil, student.ID, "the-quadratic-formula", 20, types.TopicNew, time.Now().UTC()); err != nil {
		t.Fatalf("other topic upsert: %v", err)
	}
	rows, err = repo.ListByStudent(ctx, nil, student.ID)
	if err != nil {
		t.Fatalf("ListByStudent: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
}

func TestStudentMasteryGet(t *testing.T) {
	ctx := context.Background()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	tutor := testutil.SeedTutor(t, ctx, db, "get@example.com")
	testutil.SeedSubjectTree(t, ctx, db, "algebra-1", "factoring-quadratics")
	student := testutil.SeedStudent(t, ctx, db, tutor.ID, "algebra-1")

	repo := NewStudentMasteryRepo(db, log)

	// Missing rows come back nil, not an error.
	row, err := repo.Get(ctx, nil, student.ID, "factoring-quadratics")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if row != nil {
		t.Fatalf("row = %+v, want nil for missing mastery", row)
	}
	if row, err := repo.Get(ctx, nil, uuid.Nil, ""); err != nil || row != nil {
		t.Fatalf("Get with zero keys = %+v, %v", row, err)
	}

	if err := repo.Upsert(ctx, nil, student.ID, "factoring-quadratics", 45, types.TopicLearning, time.Now().UTC()); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	row, err = repo.Get(ctx, nil, student.ID, "factoring-quadratics")
	if err != nil {
		t.Fatalf("Get after upsert: %v", err)
	}
	if row == nil || row.Score != 45 {
		t.Fatalf("row = %+v, want score 45", row)
	}
}

func TestStudentMasteryUpsertKeepsCallerTimestamp(t *testing.T) {
	ctx := context.Background()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	tutor := testutil.SeedTutor(t, ctx, db, "clock@example.com")
	testutil.SeedSubjectTree(t, ctx, db, "algebra-1", "factoring-quadratics")
	student := testutil.SeedStudent(t, ctx, db, tutor.ID, "algebra-1")

	repo := NewStudentMasteryRepo(db, log)

	// The stored timestamp is the caller's, so decay windows computed against
	// an injected clock read back consistently.
	stamp := time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC)
	if err := repo.Upsert(ctx, nil, student.ID, "factoring-quadratics", 80, types.TopicMastered, stamp); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	row, err := repo.Get(ctx, nil, student.ID, "factoring-quadratics")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if row == nil || !row.UpdatedAt.Equal(stamp) {
		t.Fatalf("updated_at = %v, want %v", row.UpdatedAt, stamp)
	}

	later := stamp.Add(24 * time.Hour)
	if err := repo.Upsert(ctx, nil, student.ID, "factoring-quadratics", 82, types.TopicMastered, later); err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	row, err = repo.Get(ctx, nil, student.ID, "factoring-quadratics")
	if err != nil {
		t.Fatalf("Get after second upsert: %v", err)
	}
	if row == nil || !row.UpdatedAt.Equal(later) {
		t.Fatalf("updated_at = %v, want %v", row.UpdatedAt, later)
	}
}
