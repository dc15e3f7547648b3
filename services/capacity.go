// services/capacity.go - Capacity evaluation
package services

import (
	"math"

	"hackportal/models"
)

// UnboundedLimit stands in for a missing or non-positive team limit.
const UnboundedLimit = math.MaxInt32

// Capacity is the derived occupancy of one problem. It is recomputed from a
// fresh read of the selections on every use.
type Capacity struct {
	SelectedCount  int  `json:"selected_count"`
	Limit          int  `json:"limit"`
	Unbounded      bool `json:"unbounded"`
	IsFull         bool `json:"is_full"`
	SlotsRemaining int  `json:"slots_remaining"`
}

// LimitOf returns the problem's team limit, or UnboundedLimit when unset or invalid.
func LimitOf(p models.Problem) int {
	if p.TeamLimit == nil || *p.TeamLimit <= 0 {
		return UnboundedLimit
	}
	return *p.TeamLimit
}

// Evaluate counts the selections referencing p. Lock state is ignored.
func Evaluate(p models.Problem, selections []models.Selection) Capacity {
	count := 0
	for _, s := range selections {
		if s.ProblemID == p.ID {
			count++
		}
	}
	return capacityFor(LimitOf(p), count)
}

func capacityFor(limit, count int) Capacity {
	remaining := limit - count
	if remaining < 0 {
		remaining = 0
	}
	return Capacity{
		SelectedCount:  count,
		Limit:          limit,
		Unbounded:      limit == UnboundedLimit,
		IsFull:         count >= limit,
		SlotsRemaining: remaining,
	}
}
