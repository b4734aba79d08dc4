package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type SessionStatus string

const (
	SessionScheduled  SessionStatus = "scheduled"
	SessionInProgress SessionStatus = "in_progress"
	SessionCompleted  SessionStatus = "completed"
	SessionCancelled  SessionStatus = "cancelled"
)

// CanTransitionTo is the session lifecycle table. Completed and cancelled are
// terminal; cancellation is allowed from any non-terminal state.
func (s SessionStatus) CanTransitionTo(next SessionStatus) bool {
	switch s {
	case SessionScheduled:
		return next == SessionInProgress || next == SessionCancelled
	case SessionInProgress:
		return next == SessionCompleted || next == SessionCancelled
	default:
		return false
	}
}

func (s SessionStatus) Valid() bool {
	switch s {
	case SessionScheduled, SessionInProgress, SessionCompleted, SessionCancelled:
		return true
	}
	return false
}

type Session struct {
	ID           uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	StudentID    uuid.UUID      `gorm:"type:uuid;not null;index" json:"student_id"`
	Student      *Student       `gorm:"constraint:OnDelete:CASCADE;foreignKey:StudentID;references:ID" json:"student,omitempty"`
	SubjectID    string         `gorm:"column:subject_id;not null;index" json:"subject_id"`
	ScheduledAt  time.Time      `gorm:"column:scheduled_at;not null" json:"scheduled_at"`
	Status       SessionStatus  `gorm:"column:status;not null;index" json:"status"`
	RecordingURL string         `gorm:"column:recording_url" json:"recording_url,omitempty"`
	Transcript   string         `gorm:"column:transcript;type:text" json:"transcript,omitempty"`
	Segments     datatypes.JSON `gorm:"column:segments;type:jsonb" json:"segments,omitempty"`
	EvidenceURLs datatypes.JSON `gorm:"column:evidence_urls;type:jsonb" json:"evidence_urls,omitempty"`
	Notes        string         `gorm:"column:notes;type:text" json:"notes,omitempty"`
	CreatedAt    time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Session) TableName() string { return "session" }
