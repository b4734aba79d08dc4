package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yeah-genie/chalk-backend/internal/logger"
	"github.com/yeah-genie/chalk-backend/internal/types"
)

type TaxonomyProposalRepo interface {
	Create(ctx context.Context, tx *gorm.DB, proposal *types.TaxonomyProposal) error
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.TaxonomyProposal, error)
	ListPending(ctx context.Context, tx *gorm.DB) ([]*types.TaxonomyProposal, error)
	UpdateStatus(ctx context.Context, tx *gorm.DB, id uuid.UUID, status types.ProposalStatus) error
}

type taxonomyProposalRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTaxonomyProposalRepo(db *gorm.DB, baseLog *logger.Logger) TaxonomyProposalRepo {
	return &taxonomyProposalRepo{db: db, log: baseLog.With("repo", "TaxonomyProposalRepo")}
}

func (r *taxonomyProposalRepo) Create(ctx context.Context, tx *gorm.DB, proposal *types.TaxonomyProposal) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if proposal.ID == uuid.Nil {
		proposal.ID = uuid.New()
	}
	if proposal.Status == "" {
		proposal.Status = types.ProposalPending
	}
	return transaction.WithContext(ctx).Create(proposal).Error
}

func (r *taxonomyProposalRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.TaxonomyProposal, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var row types.TaxonomyProposal
	err := transaction.WithContext(ctx).Where("id = ?", id).Limit(1).Find(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *taxonomyProposalRepo) ListPending(ctx context.Context, tx *gorm.DB) ([]*types.TaxonomyProposal, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var rows []*types.TaxonomyProposal
	err := transaction.WithContext(ctx).
		Where("status = ?", types.ProposalPending).
		Preload("Session").
		Preload("Session.Student").
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *taxonomyProposalRepo) UpdateStatus(ctx context.Context, tx *gorm.DB, id uuid.UUID, status types.ProposalStatus) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Model(&types.TaxonomyProposal{}).
		Where("id = ?", id).
		Update("status", status).Error
}
