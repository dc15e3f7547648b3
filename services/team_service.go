// services/team_service.go - Team directory and team-code lookup
package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"strings"

	"hackportal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type TeamService struct {
	store TeamStore
	log   *zap.Logger
}

func NewTeamService(store TeamStore, log *zap.Logger) *TeamService {
	return &TeamService{store: store, log: log}
}

// TeamInput is used for manual entry and bulk import.
type TeamInput struct {
	Name     string          `json:"name"`
	TeamCode string          `json:"team_code"`
	Members  []models.Member `json:"members"`
	IsActive *bool           `json:"is_active"`
}

// ================== TEAM CRUD OPERATIONS ==================

// CreateTeam creates a team. A blank code gets a generated one.
func (s *TeamService) CreateTeam(ctx context.Context, in TeamInput) (*models.Team, error) {
	team, err := s.prepareTeam(ctx, in, nil)
	if err != nil {
		return nil, err
	}
	if err := s.store.CreateTeam(ctx, team); err != nil {
		return nil, err
	}
	s.log.Info("team created", zap.String("team_id", team.ID.String()), zap.String("team_code", team.TeamCode))
	return team, nil
}

// ImportTeams validates the whole batch first and inserts the survivors in
// one statement. Invalid inputs and codes that already exist, in the store or
// earlier in the batch, are skipped rather than failing the import. If another
// writer takes a code between the check and the insert, the batch is retried
// one team at a time.
func (s *TeamService) ImportTeams(ctx context.Context, inputs []TeamInput) (created []models.Team, skipped []string, err error) {
	seen := make(map[string]struct{}, len(inputs))
	batch := make([]models.Team, 0, len(inputs))
	for _, in := range inputs {
		team, err := s.prepareTeam(ctx, in, seen)
		switch {
		case err == nil:
			seen[team.TeamCode] = struct{}{}
			batch = append(batch, *team)
		case errors.Is(err, ErrDuplicateTeamCode), errors.Is(err, ErrInvalidInput):
			skipped = append(skipped, strings.TrimSpace(in.TeamCode))
		default:
			return nil, skipped, err
		}
	}
	if len(batch) == 0 {
		return nil, skipped, nil
	}

	err = s.store.CreateTeams(ctx, batch)
	if errors.Is(err, ErrDuplicateTeamCode) {
		s.log.Warn("team code taken during import, inserting one by one", zap.Int("batch", len(batch)))
		return s.importOneByOne(ctx, batch, skipped)
	}
	if err != nil {
		return nil, skipped, err
	}
	s.log.Info("teams imported", zap.Int("created", len(batch)), zap.Int("skipped", len(skipped)))
	return batch, skipped, nil
}

func (s *TeamService) importOneByOne(ctx context.Context, batch []models.Team, skipped []string) ([]models.Team, []string, error) {
	var created []models.Team
	for i := range batch {
		team := batch[i]
		err := s.store.CreateTeam(ctx, &team)
		switch {
		case err == nil:
			created = append(created, team)
		case errors.Is(err, ErrDuplicateTeamCode):
			skipped = append(skipped, team.TeamCode)
		default:
			return created, skipped, err
		}
	}
	return created, skipped, nil
}

func (s *TeamService) ListTeams(ctx context.Context) ([]models.Team, error) {
	teams, err := s.store.ListTeams(ctx)
	if err != nil {
		return nil, err
	}
	out := teams[:0]
	for _, t := range teams {
		if !t.IsReserved() {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *TeamService) GetTeam(ctx context.Context, id uuid.UUID) (*models.Team, error) {
	return s.store.GetTeam(ctx, id)
}

// GetTeamByCode resolves a login code to an active, non-reserved team.
func (s *TeamService) GetTeamByCode(ctx context.Context, code string) (*models.Team, error) {
	code = models.NormalizeTeamCode(code)
	if code == "" || models.IsReservedCode(code) {
		return nil, ErrNotFound
	}
	team, err := s.store.GetTeamByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if !team.IsActive {
		return nil, ErrNotFound
	}
	return team, nil
}

// AttendanceRounds is how many event rounds attendance is recorded for.
const AttendanceRounds = 3

// MemberAttendance is one roster row; Rounds[i] is round i+1.
type MemberAttendance struct {
	Name   string `json:"name"`
	RegNo  string `json:"reg_no"`
	Rounds []bool `json:"rounds"`
}

type RoundTotal struct {
	Round   int `json:"round"`
	Present int `json:"present"`
	Total   int `json:"total"`
}

// Attendance is a team's view of its own roster across rounds.
type Attendance struct {
	TeamID  uuid.UUID          `json:"team_id"`
	Members []MemberAttendance `json:"members"`
	Totals  []RoundTotal       `json:"totals"`
}

// Attendance builds the per-round attendance matrix for one team.
func (s *TeamService) Attendance(ctx context.Context, teamID uuid.UUID) (*Attendance, error) {
	team, err := s.store.GetTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}

	out := &Attendance{
		TeamID:  team.ID,
		Members: make([]MemberAttendance, 0, len(team.Members)),
		Totals:  make([]RoundTotal, AttendanceRounds),
	}
	for r := range out.Totals {
		out.Totals[r] = RoundTotal{Round: r + 1, Total: len(team.Members)}
	}
	for _, m := range team.Members {
		row := MemberAttendance{Name: m.Name, RegNo: m.RegNo, Rounds: make([]bool, AttendanceRounds)}
		for r := 1; r <= AttendanceRounds; r++ {
			if m.Present(r) {
				row.Rounds[r-1] = true
				out.Totals[r-1].Present++
			}
		}
		out.Members = append(out.Members, row)
	}
	return out, nil
}

// UpdateTeam replaces name, code and roster. Empty fields are left unchanged.
func (s *TeamService) UpdateTeam(ctx context.Context, id uuid.UUID, in TeamInput) (*models.Team, error) {
	team, err := s.store.GetTeam(ctx, id)
	if err != nil {
		return nil, err
	}

	if name := strings.TrimSpace(in.Name); name != "" {
		team.Name = name
	}
	if code := models.NormalizeTeamCode(in.TeamCode); code != "" {
		if models.IsReservedCode(code) {
			return nil, invalid("team code %q is reserved", code)
		}
		team.TeamCode = code
	}
	if in.Members != nil {
		team.Members = in.Members
	}
	if in.IsActive != nil {
		team.IsActive = *in.IsActive
	}

	if err := s.store.SaveTeam(ctx, team); err != nil {
		return nil, err
	}
	return team, nil
}

// SetActive soft-activates or deactivates a team.
func (s *TeamService) SetActive(ctx context.Context, id uuid.UUID, active bool) (*models.Team, error) {
	return s.UpdateTeam(ctx, id, TeamInput{IsActive: &active})
}

// DeleteTeam hard-deletes a team; its selection goes with it.
func (s *TeamService) DeleteTeam(ctx context.Context, id uuid.UUID) error {
	if err := s.store.DeleteTeam(ctx, id); err != nil {
		return err
	}
	s.log.Info("team deleted", zap.String("team_id", id.String()))
	return nil
}

// ================== HELPER FUNCTIONS ==================

// prepareTeam validates in and builds the row to insert. Codes in taken count
// as already used.
func (s *TeamService) prepareTeam(ctx context.Context, in TeamInput, taken map[string]struct{}) (*models.Team, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, invalid("team name is required")
	}

	code := models.NormalizeTeamCode(in.TeamCode)
	if models.IsReservedCode(code) {
		return nil, invalid("team code %q is reserved", code)
	}
	if code == "" {
		var err error
		if code, err = s.generateUniqueTeamCode(ctx, taken); err != nil {
			return nil, err
		}
	} else if taken != nil {
		if _, dup := taken[code]; dup {
			return nil, ErrDuplicateTeamCode
		}
		_, err := s.store.GetTeamByCode(ctx, code)
		if err == nil {
			return nil, ErrDuplicateTeamCode
		}
		if !errors.Is(err, ErrNotFound) {
			return nil, err
		}
	}

	team := &models.Team{
		Name:     name,
		TeamCode: code,
		Members:  in.Members,
		IsActive: true,
	}
	if in.IsActive != nil {
		team.IsActive = *in.IsActive
	}
	if team.Members == nil {
		team.Members = []models.Member{}
	}
	return team, nil
}

// generateUniqueTeamCode generates a unique 6-character code
func (s *TeamService) generateUniqueTeamCode(ctx context.Context, taken map[string]struct{}) (string, error) {
	for {
		bytes := make([]byte, 3)
		if _, err := rand.Read(bytes); err != nil {
			return "", err
		}
		code := strings.ToUpper(hex.EncodeToString(bytes))
		if _, dup := taken[code]; dup {
			continue
		}

		_, err := s.store.GetTeamByCode(ctx, code)
		if errors.Is(err, ErrNotFound) {
			return code, nil
		}
		if err != nil {
			return "", err
		}
	}
}
