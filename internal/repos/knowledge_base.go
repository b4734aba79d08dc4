package repos

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yeah-genie/chalk-backend/internal/logger"
	"github.com/yeah-genie/chalk-backend/internal/types"
)

type KnowledgeBaseRepo interface {
	GetSubject(ctx context.Context, tx *gorm.DB, id string) (*types.Subject, error)
	FirstModuleForSubject(ctx context.Context, tx *gorm.DB, subjectID string) (*types.KBModule, error)
	FindUnitByIDOrName(ctx context.Context, tx *gorm.DB, subjectID, ref string) (*types.KBUnit, error)
	ListTopicsBySubject(ctx context.Context, tx *gorm.DB, subjectID string) ([]*types.KBTopic, error)
	GetTopic(ctx context.Context, tx *gorm.DB, id string) (*types.KBTopic, error)
	CreateModule(ctx context.Context, tx *gorm.DB, module *types.KBModule) error
	CreateUnit(ctx context.Context, tx *gorm.DB, unit *types.KBUnit) error
	CreateTopic(ctx context.Context, tx *gorm.DB, topic *types.KBTopic) error
	UpsertSubject(ctx context.Context, tx *gorm.DB, subject *types.Subject) error
	UpsertModule(ctx context.Context, tx *gorm.DB, module *types.KBModule) error
	UpsertUnit(ctx context.Context, tx *gorm.DB, unit *types.KBUnit) error
	UpsertTopic(ctx context.Context, tx *gorm.DB, topic *types.KBTopic) error
}

type knowledgeBaseRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewKnowledgeBaseRepo(db *gorm.DB, baseLog *logger.Logger) KnowledgeBaseRepo {
	return &knowledgeBaseRepo{db: db, log: baseLog.With("repo", "KnowledgeBaseRepo")}
}

func (r *knowledgeBaseRepo) tx(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *knowledgeBaseRepo) GetSubject(ctx context.Context, tx *gorm.DB, id string) (*types.Subject, error) {
	if id == "" {
		return nil, nil
	}
	var row types.Subject
	err := r.tx(tx).WithContext(ctx).Where("id = ?", id).Limit(1).Find(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == "" {
		return nil, nil
	}
	return &row, nil
}

func (r *knowledgeBaseRepo) FirstModuleForSubject(ctx context.Context, tx *gorm.DB, subjectID string) (*types.KBModule, error) {
	if subjectID == "" {
		return nil, nil
	}
	var row types.KBModule
	err := r.tx(tx).WithContext(ctx).
		Where("subject_id = ?", subjectID).
		Order(`"index" ASC`).
		Limit(1).
		Find(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == "" {
		return nil, nil
	}
	return &row, nil
}

// FindUnitByIDOrName resolves the free-text parent reference carried on topic
// proposals: exact id match first, then case-insensitive name match.
func (r *knowledgeBaseRepo) FindUnitByIDOrName(ctx context.Context, tx *gorm.DB, subjectID, ref string) (*types.KBUnit, error) {
	if ref == "" {
		return nil, nil
	}
	var row types.KBUnit
	err := r.tx(tx).WithContext(ctx).
		Where("subject_id = ? AND (id = ? OR LOWER(name) = LOWER(?))", subjectID, ref, ref).
		Limit(1).
		Find(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == "" {
		return nil, nil
	}
	return &row, nil
}

func (r *knowledgeBaseRepo) ListTopicsBySubject(ctx context.Context, tx *gorm.DB, subjectID string) ([]*types.KBTopic, error) {
	var rows []*types.KBTopic
	err := r.tx(tx).WithContext(ctx).
		Where("subject_id = ?", subjectID).
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *knowledgeBaseRepo) GetTopic(ctx context.Context, tx *gorm.DB, id string) (*types.KBTopic, error) {
	if id == "" {
		return nil, nil
	}
	var row types.KBTopic
	err := r.tx(tx).WithContext(ctx).Where("id = ?", id).Limit(1).Find(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == "" {
		return nil, nil
	}
	return &row, nil
}

func (r *knowledgeBaseRepo) CreateModule(ctx context.Context, tx *gorm.DB, module *types.KBModule) error {
	return r.tx(tx).WithContext(ctx).Create(module).Error
}

func (r *knowledgeBaseRepo) CreateUnit(ctx context.Context, tx *gorm.DB, unit *types.KBUnit) error {
	return r.tx(tx).WithContext(ctx).Create(unit).Error
}

func (r *knowledgeBaseRepo) CreateTopic(ctx context.Context, tx *gorm.DB, topic *types.KBTopic) error {
	return r.tx(tx).WithContext(ctx).Create(topic).Error
}

func (r *knowledgeBaseRepo) UpsertSubject(ctx context.Context, tx *gorm.DB, subject *types.Subject) error {
	return r.tx(tx).WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "updated_at"}),
		}).
		Create(subject).Error
}

func (r *knowledgeBaseRepo) UpsertModule(ctx context.Context, tx *gorm.DB, module *types.KBModule) error {
	return r.tx(tx).WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "index", "updated_at"}),
		}).
		Create(module).Error
}

func (r *knowledgeBaseRepo) UpsertUnit(ctx context.Context, tx *gorm.DB, unit *types.KBUnit) error {
	return r.tx(tx).WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "weight", "updated_at"}),
		}).
		Create(unit).Error
}

func (r *knowledgeBaseRepo) UpsertTopic(ctx context.Context, tx *gorm.DB, topic *types.KBTopic) error {
	return r.tx(tx).WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "description", "updated_at"}),
		}).
		Create(topic).Error
}
