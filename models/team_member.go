// models/team_member.go
package models

// Member is one entry of a team roster. Attendance is tracked per round.
type Member struct {
	Name  string `json:"name"`
	RegNo string `json:"reg_no,omitempty"`
	Role  string `json:"role,omitempty"`
	R1    bool   `json:"r1"`
	R2    bool   `json:"r2"`
	R3    bool   `json:"r3"`
}

// Present reports attendance for round 1..3; other rounds are never attended.
func (m Member) Present(round int) bool {
	switch round {
	case 1:
		return m.R1
	case 2:
		return m.R2
	case 3:
		return m.R3
	}
	return false
}
