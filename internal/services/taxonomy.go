package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yeah-genie/chalk-backend/internal/logger"
	"github.com/yeah-genie/chalk-backend/internal/repos"
	"github.com/yeah-genie/chalk-backend/internal/types"
)

const defaultUnitWeight = 5

// ErrParentUnitNotFound is returned when a topic proposal's parent unit does
// not exist yet. The proposal stays pending; the reviewer approves the unit
// proposal first and retries.
var ErrParentUnitNotFound = fmt.Errorf("Parent Unit not found")

type PendingProposal struct {
	Proposal    *types.TaxonomyProposal `json:"proposal"`
	SubjectName string                  `json:"subject_name"`
	StudentName string                  `json:"student_name"`
}

type TaxonomyService interface {
	PendingProposals(ctx context.Context) []PendingProposal
	ApproveProposal(ctx context.Context, id uuid.UUID) error
	RejectProposal(ctx context.Context, id uuid.UUID) error
}

type taxonomyService struct {
	db           *gorm.DB
	log          *logger.Logger
	proposalRepo repos.TaxonomyProposalRepo
	kbRepo       repos.KnowledgeBaseRepo
	graph        GraphMirror
}

func NewTaxonomyService(db *gorm.DB, log *logger.Logger, proposalRepo repos.TaxonomyProposalRepo, kbRepo repos.KnowledgeBaseRepo, graph GraphMirror) TaxonomyService {
	return &taxonomyService{
		db:           db,
		log:          log.With("service", "TaxonomyService"),
		proposalRepo: proposalRepo,
		kbRepo:       kbRepo,
		graph:        graph,
	}
}

// PendingProposals lists unreviewed proposals newest first, each joined with
// the subject and originating student names. Query failures degrade to an
// empty list.
func (ts *taxonomyService) PendingProposals(ctx context.Context) []PendingProposal {
	rows, err := ts.proposalRepo.ListPending(ctx, nil)
	if err != nil {
		ts.log.Error("Failed to list pending proposals", "error", err)
		return []PendingProposal{}
	}
	out := make([]PendingProposal, 0, len(rows))
	for _, row := range rows {
		entry := PendingProposal{Proposal: row}
		if subject, sErr := ts.kbRepo.GetSubject(ctx, nil, row.SubjectID); sErr == nil && subject != nil {
			entry.SubjectName = subject.Name
		}
		if row.Session != nil && row.Session.Student != nil {
			entry.StudentName = row.Session.Student.Name
		}
		out = append(out, entry)
	}
	return out
}

// ApproveProposal merges the proposed node into the curriculum graph and
// marks the proposal approved. Already-reviewed proposals are refused, which
// keeps approval idempotence: a second approve can never create a duplicate
// node.
func (ts *taxonomyService) ApproveProposal(ctx context.Context, id uuid.UUID) error {
	proposal, err := ts.proposalRepo.GetByID(ctx, nil, id)
	if err != nil {
		return fmt.Errorf("load proposal: %w", err)
	}
	if proposal == nil {
		return fmt.Errorf("proposal %s not found", id)
	}
	if proposal.Status != types.ProposalPending {
		return fmt.Errorf("proposal %s is already %s", id, proposal.Status)
	}

	switch proposal.Type {
	case types.ProposalUnit:
		if err := ts.approveUnit(ctx, proposal); err != nil {
			return err
		}
	case types.ProposalTopic:
		if err := ts.approveTopic(ctx, proposal); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown proposal type %q", proposal.Type)
	}

	if err := ts.proposalRepo.UpdateStatus(ctx, nil, id, types.ProposalApproved); err != nil {
		return fmt.Errorf("mark proposal approved: %w", err)
	}
	ts.log.Info("Proposal approved", "proposal_id", id.String(), "type", string(proposal.Type), "name", proposal.Name)
	return nil
}

func (ts *taxonomyService) approveUnit(ctx context.Context, proposal *types.TaxonomyProposal) error {
	module, err := ts.kbRepo.FirstModuleForSubject(ctx, nil, proposal.SubjectID)
	if err != nil {
		return fmt.Errorf("look up module for subject %s: %w", proposal.SubjectID, err)
	}
	moduleID := ""
	if module != nil {
		moduleID = module.ID
	} else {
		// No module exists yet for this subject: synthesize the default one
		// so the unit has a home.
		moduleID = proposal.SubjectID + "-default-module"
		if err := ts.kbRepo.UpsertModule(ctx, nil, &types.KBModule{
			ID:        moduleID,
			SubjectID: proposal.SubjectID,
			Name:      "General",
		}); err != nil {
			return fmt.Errorf("create default module: %w", err)
		}
	}

	unit := &types.KBUnit{
		ID:        Slugify(proposal.Name),
		ModuleID:  moduleID,
		SubjectID: proposal.SubjectID,
		Name:      proposal.Name,
		Weight:    defaultUnitWeight,
	}
	if err := ts.kbRepo.CreateUnit(ctx, nil, unit); err != nil {
		return fmt.Errorf("create unit %q: %w", unit.ID, err)
	}
	ts.mirrorUnit(ctx, unit)
	return nil
}

func (ts *taxonomyService) approveTopic(ctx context.Context, proposal *types.TaxonomyProposal) error {
	parent, err := ts.kbRepo.FindUnitByIDOrName(ctx, nil, proposal.SubjectID, proposal.ParentID)
	if err != nil {
		return fmt.Errorf("resolve parent unit %q: %w", proposal.ParentID, err)
	}
	if parent == nil {
		return ErrParentUnitNotFound
	}

	topic := &types.KBTopic{
		ID:          Slugify(proposal.Name),
		UnitID:      parent.ID,
		SubjectID:   proposal.SubjectID,
		Name:        proposal.Name,
		Description: proposal.Description,
	}
	if err := ts.kbRepo.CreateTopic(ctx, nil, topic); err != nil {
		return fmt.Errorf("create topic %q: %w", topic.ID, err)
	}
	ts.mirrorTopic(ctx, topic)
	return nil
}

func (ts *taxonomyService) RejectProposal(ctx context.Context, id uuid.UUID) error {
	proposal, err := ts.proposalRepo.GetByID(ctx, nil, id)
	if err != nil {
		return fmt.Errorf("load proposal: %w", err)
	}
	if proposal == nil {
		return fmt.Errorf("proposal %s not found", id)
	}
	if proposal.Status != types.ProposalPending {
		return fmt.Errorf("proposal %s is already %s", id, proposal.Status)
	}
	if err := ts.proposalRepo.UpdateStatus(ctx, nil, id, types.ProposalRejected); err != nil {
		return fmt.Errorf("mark proposal rejected: %w", err)
	}
	ts.log.Info("Proposal rejected", "proposal_id", id.String(), "name", proposal.Name)
	return nil
}

func (ts *taxonomyService) mirrorUnit(ctx context.Context, unit *types.KBUnit) {
	if ts.graph == nil {
		return
	}
	if err := ts.graph.MergeUnit(ctx, unit); err != nil {
		ts.log.Warn("Graph mirror failed for unit", "unit_id", unit.ID, "error", err)
	}
}

func (ts *taxonomyService) mirrorTopic(ctx context.Context, topic *types.KBTopic) {
	if ts.graph == nil {
		return
	}
	if err := ts.graph.MergeTopic(ctx, topic); err != nil {
		ts.log.Warn("Graph mirror failed for topic", "topic_id", topic.ID, "error", err)
	}
}

// Slugify derives a stable node id from a proposal name: lowercased, spaces
// collapsed to hyphens.
func Slugify(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	return strings.Join(strings.Fields(s), "-")
}
