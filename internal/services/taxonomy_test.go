package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yeah-genie/chalk-backend/internal/repos"
	"github.com/yeah-genie/chalk-backend/internal/repos/testutil"
	"github.com/yeah-genie/chalk-backend/internal/types"
)

func TestSlugify(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Polynomial Division", "polynomial-division"},
		{"  Completing   the Square  ", "completing-the-square"},
		{"Vectors", "vectors"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := Slugify(tc.in); got != tc.want {
			t.Fatalf("Slugify(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

type taxonomyFixture struct {
	db           *gorm.DB
	svc          TaxonomyService
	proposalRepo repos.TaxonomyProposalRepo
	kbRepo       repos.KnowledgeBaseRepo
	session      *types.Session
}

func newTaxonomyFixture(t *testing.T) *taxonomyFixture {
	t.Helper()
	ctx := context.Background()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	tutor := testutil.SeedTutor(t, ctx, db, "taxonomy@example.com")
	testutil.SeedSubjectTree(t, ctx, db, "algebra-1", "factoring-quadratics")
	student := testutil.SeedStudent(t, ctx, db, tutor.ID, "algebra-1")
	session := testutil.SeedSession(t, ctx, db, student.ID, "algebra-1", types.SessionCompleted)

	proposalRepo := repos.NewTaxonomyProposalRepo(db, log)
	kbRepo := repos.NewKnowledgeBaseRepo(db, log)
	return &taxonomyFixture{
		db:           db,
		svc:          NewTaxonomyService(db, log, proposalRepo, kbRepo, nil),
		proposalRepo: proposalRepo,
		kbRepo:       kbRepo,
		session:      session,
	}
}

func (f *taxonomyFixture) propose(t *testing.T, kind types.ProposalType, name, parentID string) *types.TaxonomyProposal {
	t.Helper()
	proposal := &types.TaxonomyProposal{
		SessionID: f.session.ID,
		SubjectID: "algebra-1",
		Type:      kind,
		Name:      name,
		ParentID:  parentID,
		Status:    types.ProposalPending,
	}
	if err := f.proposalRepo.Create(context.Background(), nil, proposal); err != nil {
		t.Fatalf("create proposal: %v", err)
	}
	return proposal
}

func TestApproveUnitProposal(t *testing.T) {
	ctx := context.Background()
	f := newTaxonomyFixture(t)
	proposal := f.propose(t, types.ProposalUnit, "Polynomial Division", "")

	if err := f.svc.ApproveProposal(ctx, proposal.ID); err != nil {
		t.Fatalf("ApproveProposal: %v", err)
	}

	unit, err := f.kbRepo.FindUnitByIDOrName(ctx, nil, "algebra-1", "polynomial-division")
	if err != nil || unit == nil {
		t.Fatalf("unit lookup: err=%v unit=%v", err, unit)
	}
	if unit.Name != "Polynomial Division" || unit.Weight != defaultUnitWeight {
		t.Fatalf("unit = %+v, want name preserved and default weight", unit)
	}
	// The unit hangs off the subject's existing first module.
	if unit.ModuleID != "algebra-1-core" {
		t.Fatalf("unit module = %q, want algebra-1-core", unit.ModuleID)
	}

	stored, err := f.proposalRepo.GetByID(ctx, nil, proposal.ID)
	if err != nil || stored == nil {
		t.Fatalf("reload proposal: err=%v", err)
	}
	if stored.Status != types.ProposalApproved {
		t.Fatalf("proposal status = %s, want approved", stored.Status)
	}

	// A second approve is refused: reviewed proposals are terminal.
	if err := f.svc.ApproveProposal(ctx, proposal.ID); err == nil {
		t.Fatal("expected error approving an already-approved proposal")
	}
}

func TestApproveUnitProposalSynthesizesModule(t *testing.T) {
	ctx := context.Background()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	tutor := testutil.SeedTutor(t, ctx, db, "bare-subject@example.com")
	// A subject with no modules at all.
	if err := db.WithContext(ctx).Create(&types.Subject{ID: "physics", Name: "Physics"}).Error; err != nil {
		t.Fatalf("seed subject: %v", err)
	}
	student := testutil.SeedStudent(t, ctx, db, tutor.ID, "physics")
	session := testutil.SeedSession(t, ctx, db, student.ID, "physics", types.SessionCompleted)

	proposalRepo := repos.NewTaxonomyProposalRepo(db, log)
	kbRepo := repos.NewKnowledgeBaseRepo(db, log)
	svc := NewTaxonomyService(db, log, proposalRepo, kbRepo, nil)

	proposal := &types.TaxonomyProposal{
		SessionID: session.ID,
		SubjectID: "physics",
		Type:      types.ProposalUnit,
		Name:      "Kinematics",
		Status:    types.ProposalPending,
	}
	if err := proposalRepo.Create(ctx, nil, proposal); err != nil {
		t.Fatalf("create proposal: %v", err)
	}
	if err := svc.ApproveProposal(ctx, proposal.ID); err != nil {
		t.Fatalf("ApproveProposal: %v", err)
	}

	unit, err := kbRepo.FindUnitByIDOrName(ctx, nil, "physics", "kinematics")
	if err != nil || unit == nil {
		t.Fatalf("unit lookup: err=%v unit=%v", err, unit)
	}
	if unit.ModuleID != "physics-default-module" {
		t.Fatalf("unit module = %q, want synthesized default module", unit.ModuleID)
	}
}

func TestApproveTopicProposal(t *testing.T) {
	ctx := context.Background()
	f := newTaxonomyFixture(t)

	// Parent referenced by case-insensitive name rather than id.
	proposal := f.propose(t, types.ProposalTopic, "Discriminant Analysis", "quadratic equations")
	if err := f.svc.ApproveProposal(ctx, proposal.ID); err != nil {
		t.Fatalf("ApproveProposal: %v", err)
	}

	topic, err := f.kbRepo.GetTopic(ctx, nil, "discriminant-analysis")
	if err != nil || topic == nil {
		t.Fatalf("topic lookup: err=%v topic=%v", err, topic)
	}
	if topic.UnitID != "algebra-1-unit" {
		t.Fatalf("topic unit = %q, want algebra-1-unit", topic.UnitID)
	}
}

func TestApproveTopicProposalMissingParentStaysPending(t *testing.T) {
	ctx := context.Background()
	f := newTaxonomyFixture(t)
	proposal := f.propose(t, types.ProposalTopic, "Dot Products", "Vectors")

	err := f.svc.ApproveProposal(ctx, proposal.ID)
	if !errors.Is(err, ErrParentUnitNotFound) {
		t.Fatalf("ApproveProposal error = %v, want ErrParentUnitNotFound", err)
	}

	// The proposal survives for a retry after the unit gets approved.
	stored, err := f.proposalRepo.GetByID(ctx, nil, proposal.ID)
	if err != nil || stored == nil {
		t.Fatalf("reload proposal: err=%v", err)
	}
	if stored.Status != types.ProposalPending {
		t.Fatalf("proposal status = %s, want still pending", stored.Status)
	}

	// Approve the missing unit first, then the topic goes through.
	unitProposal := f.propose(t, types.ProposalUnit, "Vectors", "")
	if err := f.svc.ApproveProposal(ctx, unitProposal.ID); err != nil {
		t.Fatalf("approve unit: %v", err)
	}
	if err := f.svc.ApproveProposal(ctx, proposal.ID); err != nil {
		t.Fatalf("approve topic after unit: %v", err)
	}
	topic, err := f.kbRepo.GetTopic(ctx, nil, "dot-products")
	if err != nil || topic == nil {
		t.Fatalf("topic lookup: err=%v topic=%v", err, topic)
	}
	if topic.UnitID != "vectors" {
		t.Fatalf("topic unit = %q, want vectors", topic.UnitID)
	}
}

func TestRejectProposal(t *testing.T) {
	ctx := context.Background()
	f := newTaxonomyFixture(t)
	proposal := f.propose(t, types.ProposalUnit, "Astrology Basics", "")

	if got := f.svc.PendingProposals(ctx); len(got) != 1 {
		t.Fatalf("pending before reject = %d, want 1", len(got))
	}

	if err := f.svc.RejectProposal(ctx, proposal.ID); err != nil {
		t.Fatalf("RejectProposal: %v", err)
	}
	if got := f.svc.PendingProposals(ctx); len(got) != 0 {
		t.Fatalf("pending after reject = %d, want 0", len(got))
	}

	// Rejection never touches the curriculum.
	unit, err := f.kbRepo.FindUnitByIDOrName(ctx, nil, "algebra-1", "astrology-basics")
	if err != nil {
		t.Fatalf("unit lookup: %v", err)
	}
	if unit != nil {
		t.Fatalf("rejected proposal created unit %+v", unit)
	}

	// Terminal both ways: rejected proposals can't be approved later.
	if err := f.svc.ApproveProposal(ctx, proposal.ID); err == nil {
		t.Fatal("expected error approving a rejected proposal")
	}
}

func TestPendingProposalsJoinsNames(t *testing.T) {
	ctx := context.Background()
	f := newTaxonomyFixture(t)
	f.propose(t, types.ProposalUnit, "Polynomials", "")

	pending := f.svc.PendingProposals(ctx)
	if len(pending) != 1 {
		t.Fatalf("pending = %d, want 1", len(pending))
	}
	if pending[0].SubjectName != "Algebra 1" {
		t.Fatalf("subject name = %q, want Algebra 1", pending[0].SubjectName)
	}
	if pending[0].StudentName != "Test Student" {
		t.Fatalf("student name = %q, want Test Student", pending[0].StudentName)
	}
}

func TestApproveProposalNotFound(t *testing.T) {
	f := newTaxonomyFixture(t)
	if err := f.svc.ApproveProposal(context.Background(), uuid.New()); err == nil {
		t.Fatal("expected error for unknown proposal id")
	}
}
