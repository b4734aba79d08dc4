package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yeah-genie/chalk-backend/internal/types"
)

func SeedTutor(tb testing.TB, ctx context.Context, db *gorm.DB, email string) *types.Tutor {
	tb.Helper()
	tutor := &types.Tutor{
		ID:       uuid.New(),
		Email:    email,
		Password: "pw",
		Name:     "Test Tutor",
	}
	if err := db.WithContext(ctx).Create(tutor).Error; err != nil {
		tb.Fatalf("seed tutor: %v", err)
	}
	return tutor
}

func SeedStudent(tb testing.TB, ctx context.Context, db *gorm.DB, tutorID uuid.UUID, subjectID string) *types.Student {
	tb.Helper()
	student := &types.Student{
		ID:        uuid.New(),
		TutorID:   tutorID,
		Name:      "Test Student",
		SubjectID: subjectID,
	}
	if err := db.WithContext(ctx).Create(student).Error; err != nil {
		tb.Fatalf("seed student: %v", err)
	}
	return student
}

// SeedSubjectTree plants a minimal curriculum: one subject, one module, one
// unit and the named topics under that unit.
func SeedSubjectTree(tb testing.TB, ctx context.Context, db *gorm.DB, subjectID string, topicIDs ...string) {
	tb.Helper()
	if err := db.WithContext(ctx).Create(&types.Subject{ID: subjectID, Name: "Algebra 1"}).Error; err != nil {
		tb.Fatalf("seed subject: %v", err)
	}
	moduleID := subjectID + "-core"
	if err := db.WithContext(ctx).Create(&types.KBModule{ID: moduleID, SubjectID: subjectID, Name: "Core"}).Error; err != nil {
		tb.Fatalf("seed module: %v", err)
	}
	unitID := subjectID + "-unit"
	if err := db.WithContext(ctx).Create(&types.KBUnit{ID: unitID, ModuleID: moduleID, SubjectID: subjectID, Name: "Quadratic Equations", Weight: 10}).Error; err != nil {
		tb.Fatalf("seed unit: %v", err)
	}
	for _, topicID := range topicIDs {
		topic := &types.KBTopic{ID: topicID, UnitID: unitID, SubjectID: subjectID, Name: topicID}
		if err := db.WithContext(ctx).Create(topic).Error; err != nil {
			tb.Fatalf("seed topic %s: %v", topicID, err)
		}
	}
}

func SeedSession(tb testing.TB, ctx context.Context, db *gorm.DB, studentID uuid.UUID, subjectID string, status types.SessionStatus) *types.Session {
	tb.Helper()
	session := &types.Session{
		ID:          uuid.New(),
		StudentID:   studentID,
		SubjectID:   subjectID,
		ScheduledAt: time.Now().UTC(),
		Status:      status,
	}
	if err := db.WithContext(ctx).Create(session).Error; err != nil {
		tb.Fatalf("seed session: %v", err)
	}
	return session
}
