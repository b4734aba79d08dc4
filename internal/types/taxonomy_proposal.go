package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProposalStatus string

const (
	ProposalPending  ProposalStatus = "pending"
	ProposalApproved ProposalStatus = "approved"
	ProposalRejected ProposalStatus = "rejected"
)

type ProposalType string

const (
	ProposalUnit  ProposalType = "unit"
	ProposalTopic ProposalType = "topic"
)

// TaxonomyProposal is an AI-suggested curriculum node awaiting human review.
// Status is monotonic: pending -> approved|rejected, never reversed.
type TaxonomyProposal struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	SessionID   uuid.UUID      `gorm:"type:uuid;not null;index" json:"session_id"`
	Session     *Session       `gorm:"constraint:OnDelete:CASCADE;foreignKey:SessionID;references:ID" json:"session,omitempty"`
	SubjectID   string         `gorm:"column:subject_id;not null;index" json:"subject_id"`
	Type        ProposalType   `gorm:"column:type;not null" json:"type"`
	Name        string         `gorm:"column:name;not null" json:"name"`
	Description string         `gorm:"column:description;type:text" json:"description"`
	// For topic proposals: free-text reference to the parent unit, matched
	// against kb_unit by id or name at approval time.
	ParentID  string         `gorm:"column:parent_id" json:"parent_id,omitempty"`
	Status    ProposalStatus `gorm:"column:status;not null;index" json:"status"`
	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (TaxonomyProposal) TableName() string { return "kb_proposed_taxonomy" }
