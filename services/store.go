// services/store.go - Persistence ports used by the services
package services

import (
	"context"
	"time"

	"hackportal/models"

	"github.com/google/uuid"
)

// SelectionStore owns the selections table. InsertSelection must return
// ErrAlreadySelected when the team already has a row.
type SelectionStore interface {
	ListSelections(ctx context.Context) ([]models.Selection, error)
	ListSelectionsDetailed(ctx context.Context, limit int) ([]models.Selection, error)
	SelectionsForProblem(ctx context.Context, problemID uuid.UUID) ([]models.Selection, error)
	SelectionForTeam(ctx context.Context, teamID uuid.UUID) (*models.Selection, error)
	InsertSelection(ctx context.Context, sel *models.Selection) error
	// InsertSelectionWithinLimit counts the problem's selections and inserts in
	// one atomic step, returning ErrProblemFull when count >= limit.
	InsertSelectionWithinLimit(ctx context.Context, sel *models.Selection, limit int) error
	SetSelectionLock(ctx context.Context, id uuid.UUID, locked bool, by string) (*models.Selection, error)
	DeleteSelection(ctx context.Context, id uuid.UUID) error
	CountSelections(ctx context.Context) (int64, error)
}

// WindowStore persists the singleton selection window row.
type WindowStore interface {
	GetWindow(ctx context.Context) (*models.SelectionWindow, error)
	SaveWindow(ctx context.Context, open bool) (*models.SelectionWindow, error)
}

type ProblemStore interface {
	ListProblems(ctx context.Context, visibleOnly bool) ([]models.Problem, error)
	GetProblem(ctx context.Context, id uuid.UUID) (*models.Problem, error)
	CreateProblem(ctx context.Context, p *models.Problem) error
	SaveProblem(ctx context.Context, p *models.Problem) error
	DeleteProblem(ctx context.Context, id uuid.UUID) error
}

type TeamStore interface {
	ListTeams(ctx context.Context) ([]models.Team, error)
	GetTeam(ctx context.Context, id uuid.UUID) (*models.Team, error)
	GetTeamByCode(ctx context.Context, code string) (*models.Team, error)
	CreateTeam(ctx context.Context, t *models.Team) error
	// CreateTeams inserts all rows or none. A taken code anywhere in the
	// batch fails it with ErrDuplicateTeamCode.
	CreateTeams(ctx context.Context, teams []models.Team) error
	SaveTeam(ctx context.Context, t *models.Team) error
	DeleteTeam(ctx context.Context, id uuid.UUID) error
}

type AdminStore interface {
	GetAdminByEmail(ctx context.Context, email string) (*models.Admin, error)
	CountAdmins(ctx context.Context) (int64, error)
	CreateAdmin(ctx context.Context, a *models.Admin) error
	TouchAdminLogin(ctx context.Context, id uint, at time.Time) error
}

// Store is everything the portal persists.
type Store interface {
	SelectionStore
	WindowStore
	ProblemStore
	TeamStore
	AdminStore
}
