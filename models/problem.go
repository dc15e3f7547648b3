// models/problem.go - Problem statement catalog entry
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Problem struct {
	ID              uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Title           string    `json:"title" gorm:"not null;size:200"`
	Description     string    `json:"description" gorm:"type:text"`
	Requirements    string    `json:"requirements" gorm:"type:text"`
	Deliverables    string    `json:"deliverables" gorm:"type:text"`
	EvaluationFocus string    `json:"evaluation_focus" gorm:"type:text"`
	Resources       string    `json:"resources" gorm:"type:text"`
	// TeamLimit is nil when any number of teams may pick the problem.
	TeamLimit *int      `json:"team_limit"`
	IsVisible bool      `json:"is_visible" gorm:"default:false;index"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Problem) TableName() string {
	return "problems"
}

func (p *Problem) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
