package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yeah-genie/chalk-backend/internal/logger"
	"github.com/yeah-genie/chalk-backend/internal/types"
)

type SessionTopicRepo interface {
	Create(ctx context.Context, tx *gorm.DB, row *types.SessionTopic) error
	ListBySession(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID) ([]*types.SessionTopic, error)
}

type sessionTopicRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSessionTopicRepo(db *gorm.DB, baseLog *logger.Logger) SessionTopicRepo {
	return &sessionTopicRepo{db: db, log: baseLog.With("repo", "SessionTopicRepo")}
}

func (r *sessionTopicRepo) Create(ctx context.Context, tx *gorm.DB, row *types.SessionTopic) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	return transaction.WithContext(ctx).Create(row).Error
}

func (r *sessionTopicRepo) ListBySession(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID) ([]*types.SessionTopic, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var rows []*types.SessionTopic
	err := transaction.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
