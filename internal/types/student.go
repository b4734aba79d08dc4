package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Student struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	TutorID   uuid.UUID      `gorm:"type:uuid;not null;index" json:"tutor_id"`
	Tutor     *Tutor         `gorm:"constraint:OnDelete:CASCADE;foreignKey:TutorID;references:ID" json:"tutor,omitempty"`
	Name      string         `gorm:"column:name;not null" json:"name"`
	SubjectID string         `gorm:"column:subject_id;not null;index" json:"subject_id"`
	Subject   *Subject       `gorm:"foreignKey:SubjectID;references:ID" json:"subject,omitempty"`
	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Student) TableName() string { return "student" }
