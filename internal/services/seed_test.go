package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/yeah-genie/chalk-backend/internal/repos"
	"github.com/yeah-genie/chalk-backend/internal/repos/testutil"
)

const seedYAML = `subjects:
  - id: algebra-1
    name: Algebra 1
    modules:
      - id: algebra-1-core
        name: Core Algebra
        units:
          - name: Quadratic Equations
            weight: 10
            topics:
              - name: Factoring Quadratics
              - name: The Quadratic Formula
          - name: Linear Equations
            topics:
              - name: Slope and Intercepts
`

func TestSeedFromFile(t *testing.T) {
	ctx := context.Background()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	kbRepo := repos.NewKnowledgeBaseRepo(db, log)

	path := filepath.Join(t.TempDir(), "curriculum.yaml")
	if err := os.WriteFile(path, []byte(seedYAML), 0o644); err != nil {
		t.Fatalf("write seed: %v", err)
	}

	seeder := NewCurriculumSeeder(db, log, kbRepo)
	if err := seeder.SeedFromFile(ctx, path); err != nil {
		t.Fatalf("SeedFromFile: %v", err)
	}

	subject, err := kbRepo.GetSubject(ctx, nil, "algebra-1")
	if err != nil || subject == nil {
		t.Fatalf("subject: err=%v subject=%v", err, subject)
	}

	// Unit ids derive from names; omitted weight takes the default.
	unit, err := kbRepo.FindUnitByIDOrName(ctx, nil, "algebra-1", "quadratic-equations")
	if err != nil || unit == nil {
		t.Fatalf("unit: err=%v unit=%v", err, unit)
	}
	if unit.Weight != 10 {
		t.Fatalf("unit weight = %d, want 10", unit.Weight)
	}
	linear, err := kbRepo.FindUnitByIDOrName(ctx, nil, "algebra-1", "linear-equations")
	if err != nil || linear == nil {
		t.Fatalf("linear unit: err=%v unit=%v", err, linear)
	}
	if linear.Weight != defaultUnitWeight {
		t.Fatalf("default weight = %d, want %d", linear.Weight, defaultUnitWeight)
	}

	topics, err := kbRepo.ListTopicsBySubject(ctx, nil, "algebra-1")
	if err != nil {
		t.Fatalf("topics: %v", err)
	}
	if len(topics) != 3 {
		t.Fatalf("topics = %d, want 3", len(topics))
	}

	// Reseeding is idempotent.
	if err := seeder.SeedFromFile(ctx, path); err != nil {
		t.Fatalf("second SeedFromFile: %v", err)
	}
	topics, err = kbRepo.ListTopicsBySubject(ctx, nil, "algebra-1")
	if err != nil {
		t.Fatalf("topics after reseed: %v", err)
	}
	if len(topics) != 3 {
		t.Fatalf("topics after reseed = %d, want 3", len(topics))
	}
}

func TestSeedFromFileMissingPath(t *testing.T) {
	db := testutil.DB(t)
	log := testutil.Logger(t)
	seeder := NewCurriculumSeeder(db, log, repos.NewKnowledgeBaseRepo(db, log))
	if err := seeder.SeedFromFile(context.Background(), "does/not/exist.yaml"); err == nil {
		t.Fatal("expected error for missing seed file")
	}
}
