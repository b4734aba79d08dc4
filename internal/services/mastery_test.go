package services

import (
	"context"
	"testing"
	"time"

	"github.com/yeah-genie/chalk-backend/internal/repos"
	"github.com/yeah-genie/chalk-backend/internal/repos/testutil"
	"github.com/yeah-genie/chalk-backend/internal/types"
)

func TestCalculateNewScore(t *testing.T) {
	cases := []struct {
		name       string
		current    int
		status     types.TopicStatus
		confidence int
		days       float64
		want       int
	}{
		{"full confidence moves halfway to target", 50, types.TopicMastered, 100, 0, 70},
		{"zero confidence keeps score", 50, types.TopicMastered, 0, 0, 50},
		{"fresh topic first mastered observation", 0, types.TopicMastered, 100, 0, 45},
		{"decay applies before the blend", 80, types.TopicNew, 100, 7, 43},
		{"no elapsed time means no decay", 80, types.TopicNew, 100, 0, 45},
		{"half confidence halves the pull", 50, types.TopicMastered, 50, 0, 60},
		{"low status pulls a high score down", 90, types.TopicLearning, 100, 0, 63},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := CalculateNewScore(tc.current, tc.status, tc.confidence, tc.days)
			if got != tc.want {
				t.Fatalf("CalculateNewScore(%d, %s, %d, %.1f) = %d, want %d",
					tc.current, tc.status, tc.confidence, tc.days, got, tc.want)
			}
		})
	}
}

func TestCalculateNewScoreDecayReducesBaseline(t *testing.T) {
	// With zero confidence the blend is a no-op, so the result isolates decay.
	prev := 80
	for _, days := range []float64{7, 14, 28, 90} {
		got := CalculateNewScore(80, types.TopicNew, 0, days)
		if got >= prev {
			t.Fatalf("score after %.0f days = %d, want below %d", days, got, prev)
		}
		prev = got
	}
	if got := CalculateNewScore(80, types.TopicNew, 0, 28); got != 65 {
		t.Fatalf("four weeks of decay on 80 = %d, want 65", got)
	}
}

func TestCalculateNewScoreStaysInRange(t *testing.T) {
	statuses := []types.TopicStatus{types.TopicNew, types.TopicLearning, types.TopicReviewed, types.TopicMastered}
	for _, status := range statuses {
		for current := 0; current <= 100; current += 10 {
			for confidence := 0; confidence <= 100; confidence += 25 {
				for _, days := range []float64{0, 1, 30, 365} {
					got := CalculateNewScore(current, status, confidence, days)
					if got < 0 || got > 100 {
						t.Fatalf("score out of range: CalculateNewScore(%d, %s, %d, %.0f) = %d",
							current, status, confidence, days, got)
					}
				}
			}
		}
	}
}

func TestStatusFromScore(t *testing.T) {
	cases := []struct {
		score int
		want  types.TopicStatus
	}{
		{100, types.TopicMastered},
		{80, types.TopicMastered},
		{79, types.TopicReviewed},
		{55, types.TopicReviewed},
		{54, types.TopicLearning},
		{25, types.TopicLearning},
		{24, types.TopicNew},
		{0, types.TopicNew},
	}
	for _, tc := range cases {
		if got := StatusFromScore(tc.score); got != tc.want {
			t.Fatalf("StatusFromScore(%d) = %s, want %s", tc.score, got, tc.want)
		}
	}
}

func TestApplyObservation(t *testing.T) {
	ctx := context.Background()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	tutor := testutil.SeedTutor(t, ctx, db, "mastery@example.com")
	testutil.SeedSubjectTree(t, ctx, db, "algebra-1", "factoring-quadratics")
	student := testutil.SeedStudent(t, ctx, db, tutor.ID, "algebra-1")

	masteryRepo := repos.NewStudentMasteryRepo(db, log)
	svc := &masteryService{
		db:          db,
		log:         log,
		masteryRepo: masteryRepo,
		now:         func() time.Time { return time.Now().UTC() },
	}

	// First observation starts from zero.
	row, err := svc.ApplyObservation(ctx, nil, student.ID, MasteryObservation{
		TopicID:    "factoring-quadratics",
		Status:     types.TopicMastered,
		Confidence: 100,
	})
	if err != nil {
		t.Fatalf("ApplyObservation: %v", err)
	}
	if row.Score != 45 || row.Status != types.TopicLearning {
		t.Fatalf("first observation = %d/%s, want 45/learning", row.Score, row.Status)
	}

	// Repeated consistent observations converge on mastered.
	wantScores := []int{68, 79, 85}
	for i, want := range wantScores {
		row, err = svc.ApplyObservation(ctx, nil, student.ID, MasteryObservation{
			TopicID:    "factoring-quadratics",
			Status:     types.TopicMastered,
			Confidence: 100,
		})
		if err != nil {
			t.Fatalf("ApplyObservation #%d: %v", i+2, err)
		}
		if row.Score != want {
			t.Fatalf("observation #%d score = %d, want %d", i+2, row.Score, want)
		}
	}
	if row.Status != types.TopicMastered {
		t.Fatalf("final status = %s, want mastered", row.Status)
	}

	// Still one row per (student, topic).
	all, err := svc.ListForStudent(ctx, student.ID)
	if err != nil {
		t.Fatalf("ListForStudent: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("rows for student = %d, want 1", len(all))
	}
}

func TestApplyObservationDecaysWhileAway(t *testing.T) {
	ctx := context.Background()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	tutor := testutil.SeedTutor(t, ctx, db, "decay@example.com")
	testutil.SeedSubjectTree(t, ctx, db, "algebra-1", "slope-and-intercepts")
	student := testutil.SeedStudent(t, ctx, db, tutor.ID, "algebra-1")

	masteryRepo := repos.NewStudentMasteryRepo(db, log)
	if err := masteryRepo.Upsert(ctx, nil, student.ID, "slope-and-intercepts", 80, types.TopicMastered, time.Now().UTC()); err != nil {
		t.Fatalf("seed mastery: %v", err)
	}

	svc := &masteryService{
		db:          db,
		log:         log,
		masteryRepo: masteryRepo,
		now:         func() time.Time { return time.Now().UTC().Add(28 * 24 * time.Hour) },
	}

	// Four weeks later, a zero-confidence observation exposes pure decay.
	row, err := svc.ApplyObservation(ctx, nil, student.ID, MasteryObservation{
		TopicID:    "slope-and-intercepts",
		Status:     types.TopicNew,
		Confidence: 0,
	})
	if err != nil {
		t.Fatalf("ApplyObservation: %v", err)
	}
	if row.Score != 65 {
		t.Fatalf("decayed score = %d, want 65", row.Score)
	}
	if row.Status != types.TopicReviewed {
		t.Fatalf("decayed status = %s, want reviewed", row.Status)
	}
}

func TestApplyObservationRejectsBadInput(t *testing.T) {
	ctx := context.Background()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	tutor := testutil.SeedTutor(t, ctx, db, "badinput@example.com")
	testutil.SeedSubjectTree(t, ctx, db, "algebra-1", "factoring-quadratics")
	student := testutil.SeedStudent(t, ctx, db, tutor.ID, "algebra-1")

	svc := NewMasteryService(db, log, repos.NewStudentMasteryRepo(db, log))

	if _, err := svc.ApplyObservation(ctx, nil, student.ID, MasteryObservation{
		TopicID: "factoring-quadratics",
		Status:  "confused",
	}); err == nil {
		t.Fatal("expected error for unknown status")
	}
	if _, err := svc.ApplyObservation(ctx, nil, student.ID, MasteryObservation{
		Status: types.TopicNew,
	}); err == nil {
		t.Fatal("expected error for missing topic id")
	}
}
