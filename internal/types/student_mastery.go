package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StudentMastery is the single long-lived mutable state per (student, topic).
// The pair is a stable identity: writes upsert, never duplicate.
type StudentMastery struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	StudentID uuid.UUID      `gorm:"type:uuid;not null;index:idx_student_topic,unique,priority:1" json:"student_id"`
	Student   *Student       `gorm:"constraint:OnDelete:CASCADE;foreignKey:StudentID;references:ID" json:"student,omitempty"`
	TopicID   string         `gorm:"column:topic_id;not null;index:idx_student_topic,unique,priority:2" json:"topic_id"`
	Score     int            `gorm:"column:score;not null;default:0" json:"score"`
	Status    TopicStatus    `gorm:"column:status;not null" json:"status"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (StudentMastery) TableName() string { return "student_mastery" }
