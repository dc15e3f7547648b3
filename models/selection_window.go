// models/selection_window.go
package models

import "time"

// SelectionWindowID is the primary key of the only selection_config row.
const SelectionWindowID = 1

// SelectionWindow gates whether teams may create new selections.
type SelectionWindow struct {
	ID        uint      `json:"id" gorm:"primaryKey;autoIncrement:false"`
	IsOpen    bool      `json:"is_open" gorm:"not null;default:false"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (SelectionWindow) TableName() string {
	return "selection_config"
}
