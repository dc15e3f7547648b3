// models/selection.go - Team to problem assignment
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Lock annotations written to Selection.LockedBy
const (
	LockedBySystem = "system"
	LockedByAdmin  = "admin"
)

type Selection struct {
	ID         uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	TeamID     uuid.UUID `json:"team_id" gorm:"type:uuid;not null;uniqueIndex"`
	Team       *Team     `json:"team,omitempty" gorm:"foreignKey:TeamID;constraint:OnDelete:CASCADE"`
	ProblemID  uuid.UUID `json:"problem_id" gorm:"type:uuid;not null;index"`
	Problem    *Problem  `json:"problem,omitempty" gorm:"foreignKey:ProblemID;constraint:OnDelete:CASCADE"`
	SelectedAt time.Time `json:"selected_at" gorm:"not null;index"`
	IsLocked   bool      `json:"is_locked" gorm:"default:false"`
	LockedBy   string    `json:"locked_by" gorm:"size:50"`
}

func (Selection) TableName() string {
	return "selections"
}

func (s *Selection) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.SelectedAt.IsZero() {
		s.SelectedAt = time.Now().UTC()
	}
	return nil
}
