package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yeah-genie/chalk-backend/internal/logger"
	"github.com/yeah-genie/chalk-backend/internal/types"
)

type TutorRepo interface {
	Create(ctx context.Context, tx *gorm.DB, tutor *types.Tutor) error
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Tutor, error)
	GetByEmail(ctx context.Context, tx *gorm.DB, email string) (*types.Tutor, error)
	EmailExists(ctx context.Context, tx *gorm.DB, email string) (bool, error)
}

type tutorRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTutorRepo(db *gorm.DB, baseLog *logger.Logger) TutorRepo {
	return &tutorRepo{db: db, log: baseLog.With("repo", "TutorRepo")}
}

func (r *tutorRepo) Create(ctx context.Context, tx *gorm.DB, tutor *types.Tutor) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if tutor.ID == uuid.Nil {
		tutor.ID = uuid.New()
	}
	return transaction.WithContext(ctx).Create(tutor).Error
}

func (r *tutorRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Tutor, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var row types.Tutor
	err := transaction.WithContext(ctx).Where("id = ?", id).Limit(1).Find(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *tutorRepo) GetByEmail(ctx context.Context, tx *gorm.DB, email string) (*types.Tutor, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if email == "" {
		return nil, nil
	}
	var row types.Tutor
	err := transaction.WithContext(ctx).Where("email = ?", email).Limit(1).Find(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *tutorRepo) EmailExists(ctx context.Context, tx *gorm.DB, email string) (bool, error) {
	tutor, err := r.GetByEmail(ctx, tx, email)
	if err != nil {
		return false, err
	}
	return tutor != nil, nil
}
