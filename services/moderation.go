// services/moderation.go - Admin overrides on selections
package services

import (
	"context"

	"hackportal/metrics"
	"hackportal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ModerationService applies admin actions. None of them consult the window or
// capacity; only storage errors are returned.
type ModerationService struct {
	store  Store
	window *WindowService
	log    *zap.Logger
}

func NewModerationService(store Store, window *WindowService, log *zap.Logger) *ModerationService {
	return &ModerationService{store: store, window: window, log: log}
}

// ProblemCapacity is a problem with its capacity, for the admin overview.
type ProblemCapacity struct {
	ProblemID uuid.UUID `json:"problem_id"`
	Title     string    `json:"title"`
	IsVisible bool      `json:"is_visible"`
	Capacity  Capacity  `json:"capacity"`
}

// Dashboard summarises the event for the admin landing page.
type Dashboard struct {
	TotalTeams      int                `json:"total_teams"`
	Selected        int                `json:"selected"`
	Pending         int                `json:"pending"`
	TotalProblems   int                `json:"total_problems"`
	VisibleProblems int                `json:"visible_problems"`
	WindowOpen      bool               `json:"window_open"`
	Recent          []models.Selection `json:"recent"`
}

const recentFeedSize = 10

func (s *ModerationService) Lock(ctx context.Context, id uuid.UUID) (*models.Selection, error) {
	return s.setLock(ctx, id, true)
}

func (s *ModerationService) Unlock(ctx context.Context, id uuid.UUID) (*models.Selection, error) {
	return s.setLock(ctx, id, false)
}

func (s *ModerationService) setLock(ctx context.Context, id uuid.UUID, locked bool) (*models.Selection, error) {
	sel, err := s.store.SetSelectionLock(ctx, id, locked, models.LockedByAdmin)
	if err != nil {
		return nil, err
	}
	action := "unlock"
	if locked {
		action = "lock"
	}
	metrics.RecordOverride(action)
	s.log.Info("selection lock changed", zap.String("selection_id", id.String()), zap.Bool("locked", locked))
	return sel, nil
}

// Remove deletes the selection whatever its lock state.
func (s *ModerationService) Remove(ctx context.Context, id uuid.UUID) error {
	if err := s.store.DeleteSelection(ctx, id); err != nil {
		return err
	}
	metrics.RecordOverride("remove")
	s.log.Info("selection removed", zap.String("selection_id", id.String()))
	return nil
}

// Selections lists selections newest first with team and problem attached.
// A limit <= 0 returns all of them.
func (s *ModerationService) Selections(ctx context.Context, limit int) ([]models.Selection, error) {
	return s.store.ListSelectionsDetailed(ctx, limit)
}

// Unassigned loads teams and selections and returns the teams without a selection.
func (s *ModerationService) Unassigned(ctx context.Context) ([]models.Team, error) {
	var (
		teams      []models.Team
		selections []models.Selection
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		teams, err = s.store.ListTeams(gctx)
		return err
	})
	g.Go(func() (err error) {
		selections, err = s.store.ListSelections(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return ListUnassigned(teams, selections), nil
}

// ListUnassigned returns the teams that have no selection, skipping
// configuration pseudo-teams. Input order is preserved.
func ListUnassigned(teams []models.Team, selections []models.Selection) []models.Team {
	taken := make(map[uuid.UUID]struct{}, len(selections))
	for _, sel := range selections {
		taken[sel.TeamID] = struct{}{}
	}
	out := []models.Team{}
	for _, t := range teams {
		if t.IsReserved() {
			continue
		}
		if _, ok := taken[t.ID]; ok {
			continue
		}
		out = append(out, t)
	}
	return out
}

// Capacities returns every problem, hidden ones included, with its capacity.
func (s *ModerationService) Capacities(ctx context.Context) ([]ProblemCapacity, error) {
	var (
		problems   []models.Problem
		selections []models.Selection
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		problems, err = s.store.ListProblems(gctx, false)
		return err
	})
	g.Go(func() (err error) {
		selections, err = s.store.ListSelections(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]ProblemCapacity, 0, len(problems))
	for _, p := range problems {
		out = append(out, ProblemCapacity{
			ProblemID: p.ID,
			Title:     p.Title,
			IsVisible: p.IsVisible,
			Capacity:  Evaluate(p, selections),
		})
	}
	return out, nil
}

// Dashboard collects the counters shown on the admin landing page.
func (s *ModerationService) Dashboard(ctx context.Context) (*Dashboard, error) {
	var (
		teams      []models.Team
		problems   []models.Problem
		selections []models.Selection
		open       bool
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		teams, err = s.store.ListTeams(gctx)
		return err
	})
	g.Go(func() (err error) {
		problems, err = s.store.ListProblems(gctx, false)
		return err
	})
	g.Go(func() (err error) {
		selections, err = s.store.ListSelectionsDetailed(gctx, 0)
		return err
	})
	g.Go(func() (err error) {
		open, err = s.window.IsOpen(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	d := &Dashboard{
		TotalProblems: len(problems),
		Selected:      len(selections),
		WindowOpen:    open,
	}
	for _, t := range teams {
		if !t.IsReserved() {
			d.TotalTeams++
		}
	}
	for _, p := range problems {
		if p.IsVisible {
			d.VisibleProblems++
		}
	}
	d.Pending = len(ListUnassigned(teams, selections))
	d.Recent = selections
	if len(d.Recent) > recentFeedSize {
		d.Recent = d.Recent[:recentFeedSize]
	}
	return d, nil
}
