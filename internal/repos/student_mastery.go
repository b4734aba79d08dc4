package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yeah-genie/chalk-backend/internal/logger"
	"github.com/yeah-genie/chalk-backend/internal/types"
)

type StudentMasteryRepo interface {
	Get(ctx context.Context, tx *gorm.DB, studentID uuid.UUID, topicID string) (*types.StudentMastery, error)
	Upsert(ctx context.Context, tx *gorm.DB, studentID uuid.UUID, topicID string, score int, status types.TopicStatus, updatedAt time.Time) error
	ListByStudent(ctx context.Context, tx *gorm.DB, studentID uuid.UUID) ([]*types.StudentMastery, error)
}

type studentMasteryRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewStudentMasteryRepo(db *gorm.DB, baseLog *logger.Logger) StudentMasteryRepo {
	return &studentMasteryRepo{db: db, log: baseLog.With("repo", "StudentMasteryRepo")}
}

func (r *studentMasteryRepo) Get(ctx context.Context, tx *gorm.DB, studentID uuid.UUID, topicID string) (*types.StudentMastery, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if studentID == uuid.Nil || topicID == "" {
		return nil, nil
	}
	var row types.StudentMastery
	err := transaction.WithContext(ctx).
		Where("student_id = ? AND topic_id = ?", studentID, topicID).
		Limit(1).
		Find(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

// Upsert writes one observation. The caller supplies updatedAt so the decay
// window read back later comes off the same clock that produced the score.
func (r *studentMasteryRepo) Upsert(ctx context.Context, tx *gorm.DB, studentID uuid.UUID, topicID string, score int, status types.TopicStatus, updatedAt time.Time) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if studentID == uuid.Nil || topicID == "" {
		return nil
	}

	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}
	row := &types.StudentMastery{
		ID:        uuid.New(),
		StudentID: studentID,
		TopicID:   topicID,
		Score:     score,
		Status:    status,
		UpdatedAt: updatedAt,
	}
	// On conflict, overwrite score/status/updated_at. Last write wins; two
	// concurrent sessions for the same student are expected to be serialized
	// in practice.
	return transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "student_id"}, {Name: "topic_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"score", "status", "updated_at",
			}),
		}).
		Create(row).Error
}

func (r *studentMasteryRepo) ListByStudent(ctx context.Context, tx *gorm.DB, studentID uuid.UUID) ([]*types.StudentMastery, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var rows []*types.StudentMastery
	err := transaction.WithContext(ctx).
		Where("student_id = ?", studentID).
		Order("updated_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
