package types

import (
	"time"
)

// Curriculum graph tables. Node ids are slugs (lowercased, spaces to hyphens)
// rather than uuids so AI-proposed nodes keep human-readable identities.

type Subject struct {
	ID        string    `gorm:"primaryKey;column:id" json:"id"`
	Name      string    `gorm:"column:name;not null" json:"name"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Subject) TableName() string { return "kb_subject" }

type KBModule struct {
	ID        string    `gorm:"primaryKey;column:id" json:"id"`
	SubjectID string    `gorm:"column:subject_id;not null;index" json:"subject_id"`
	Subject   *Subject  `gorm:"foreignKey:SubjectID;references:ID" json:"subject,omitempty"`
	Name      string    `gorm:"column:name;not null" json:"name"`
	Index     int       `gorm:"column:index;not null;default:0" json:"index"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (KBModule) TableName() string { return "kb_module" }

type KBUnit struct {
	ID        string    `gorm:"primaryKey;column:id" json:"id"`
	ModuleID  string    `gorm:"column:module_id;not null;index" json:"module_id"`
	Module    *KBModule `gorm:"foreignKey:ModuleID;references:ID" json:"module,omitempty"`
	SubjectID string    `gorm:"column:subject_id;not null;index" json:"subject_id"`
	Name      string    `gorm:"column:name;not null" json:"name"`
	Weight    int       `gorm:"column:weight;not null;default:5" json:"weight"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (KBUnit) TableName() string { return "kb_unit" }

type KBTopic struct {
	ID          string    `gorm:"primaryKey;column:id" json:"id"`
	UnitID      string    `gorm:"column:unit_id;not null;index" json:"unit_id"`
	Unit        *KBUnit   `gorm:"foreignKey:UnitID;references:ID" json:"unit,omitempty"`
	SubjectID   string    `gorm:"column:subject_id;not null;index" json:"subject_id"`
	Name        string    `gorm:"column:name;not null" json:"name"`
	Description string    `gorm:"column:description" json:"description"`
	CreatedAt   time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time `gorm:"not null" json:"updated_at"`
}

func (KBTopic) TableName() string { return "kb_topic" }
