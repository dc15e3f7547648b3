// models/team.go
package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ReservedTeamCodes are codes the legacy portal used to park configuration
// data in the teams table. They never take part in allocation.
var ReservedTeamCodes = map[string]struct{}{
	"__TIMELINE__": {},
}

type Team struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Name      string    `json:"name" gorm:"not null;size:100"`
	TeamCode  string    `json:"team_code" gorm:"uniqueIndex;not null;size:32"`
	Members   []Member  `json:"members" gorm:"serializer:json;type:jsonb"`
	IsActive  bool      `json:"is_active" gorm:"not null;index"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Team) TableName() string {
	return "teams"
}

func (t *Team) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// IsReserved reports whether the team row is a configuration pseudo-team.
func (t Team) IsReserved() bool {
	return IsReservedCode(t.TeamCode)
}

func IsReservedCode(code string) bool {
	_, ok := ReservedTeamCodes[strings.TrimSpace(code)]
	return ok
}

// NormalizeTeamCode trims the human-entered code. Codes are compared case-sensitively.
func NormalizeTeamCode(code string) string {
	return strings.TrimSpace(code)
}
