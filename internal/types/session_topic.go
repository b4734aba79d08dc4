package types

import (
	"time"

	"github.com/google/uuid"
)

type TopicStatus string

const (
	TopicNew      TopicStatus = "new"
	TopicLearning TopicStatus = "learning"
	TopicReviewed TopicStatus = "reviewed"
	TopicMastered TopicStatus = "mastered"
)

func (s TopicStatus) Valid() bool {
	switch s {
	case TopicNew, TopicLearning, TopicReviewed, TopicMastered:
		return true
	}
	return false
}

// SessionTopic is append-only evidence: one row per topic touched in a
// session, immutable after creation. Recency blending happens only in
// student_mastery.
type SessionTopic struct {
	ID           uuid.UUID   `gorm:"type:uuid;primaryKey" json:"id"`
	SessionID    uuid.UUID   `gorm:"type:uuid;not null;index" json:"session_id"`
	Session      *Session    `gorm:"constraint:OnDelete:CASCADE;foreignKey:SessionID;references:ID" json:"session,omitempty"`
	TopicID      string      `gorm:"column:topic_id;not null;index" json:"topic_id"`
	StatusAfter  TopicStatus `gorm:"column:status_after;not null" json:"status_after"`
	Evidence     string      `gorm:"column:evidence;type:text" json:"evidence"`
	FutureImpact string      `gorm:"column:future_impact;type:text" json:"future_impact,omitempty"`
	CreatedAt    time.Time   `gorm:"not null" json:"created_at"`
}

func (SessionTopic) TableName() string { return "session_topic" }
