// services/allocation.go - Claim protocol for binding a team to a problem
package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"hackportal/metrics"
	"hackportal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// AllocationStore is what the claim protocol reads and writes.
type AllocationStore interface {
	SelectionStore
	ProblemStore
}

// AllocationService runs in the caller's request; it holds no allocation state
// of its own and re-reads the store on every claim.
//
// In soft mode the capacity check and the insert are separate round trips, so
// concurrent claims by different teams can push a problem past its limit. Only
// the one-selection-per-team rule is enforced by the store. Strict mode asks
// the store to count and insert atomically.
type AllocationService struct {
	store  AllocationStore
	window *WindowService
	strict bool
	log    *zap.Logger
}

func NewAllocationService(store AllocationStore, window *WindowService, strict bool, log *zap.Logger) *AllocationService {
	return &AllocationService{store: store, window: window, strict: strict, log: log}
}

// ProblemSlot is a visible problem with its live capacity.
type ProblemSlot struct {
	Problem  models.Problem `json:"problem"`
	Capacity Capacity       `json:"capacity"`
}

// Board is everything a team needs to render the selection page.
type Board struct {
	WindowOpen bool              `json:"window_open"`
	Problems   []ProblemSlot     `json:"problems"`
	Selection  *models.Selection `json:"selection"`
}

// Claim attempts to bind teamID to problemID. On ErrAlreadySelected the
// returned error is an *AlreadySelectedError carrying the existing selection
// when it could be read back.
func (s *AllocationService) Claim(ctx context.Context, teamID, problemID uuid.UUID) (sel *models.Selection, err error) {
	start := time.Now()
	defer func() {
		outcome := claimOutcome(err)
		metrics.RecordClaim(outcome, time.Since(start))
		s.log.Info("claim attempt",
			zap.String("team_id", teamID.String()),
			zap.String("problem_id", problemID.String()),
			zap.String("outcome", outcome),
			zap.Duration("elapsed", time.Since(start)),
		)
	}()

	open, err := s.window.IsOpen(ctx)
	if err != nil {
		return nil, err
	}
	if !open {
		return nil, ErrWindowClosed
	}

	existing, err := s.store.SelectionForTeam(ctx, teamID)
	switch {
	case err == nil:
		return nil, &AlreadySelectedError{Existing: existing}
	case !errors.Is(err, ErrNotFound):
		return nil, err
	}

	problem, err := s.store.GetProblem(ctx, problemID)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrProblemUnavailable
	}
	if err != nil {
		return nil, err
	}
	if !problem.IsVisible {
		return nil, ErrProblemUnavailable
	}

	current, err := s.store.SelectionsForProblem(ctx, problemID)
	if err != nil {
		return nil, err
	}
	if Evaluate(*problem, current).IsFull {
		return nil, ErrProblemFull
	}

	sel = &models.Selection{
		TeamID:    teamID,
		ProblemID: problemID,
		IsLocked:  true,
		LockedBy:  models.LockedBySystem,
	}
	if s.strict {
		err = s.store.InsertSelectionWithinLimit(ctx, sel, LimitOf(*problem))
	} else {
		err = s.store.InsertSelection(ctx, sel)
	}
	if errors.Is(err, ErrAlreadySelected) {
		return nil, s.alreadySelected(ctx, teamID)
	}
	if err != nil {
		return nil, err
	}

	if !s.strict {
		s.checkOverCapacity(ctx, *problem)
	}
	sel.Problem = problem
	return sel, nil
}

// Mine returns the team's selection with its problem, or ErrNotFound.
func (s *AllocationService) Mine(ctx context.Context, teamID uuid.UUID) (*models.Selection, error) {
	return s.store.SelectionForTeam(ctx, teamID)
}

// Board loads the window state, the visible catalog with fresh capacities, and
// the team's own selection. Problems stay hidden while the window is closed.
// A non-empty query filters on title and description, case-insensitively.
func (s *AllocationService) Board(ctx context.Context, teamID uuid.UUID, query string) (*Board, error) {
	var (
		open       bool
		problems   []models.Problem
		selections []models.Selection
		mine       *models.Selection
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		open, err = s.window.IsOpen(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		problems, err = s.store.ListProblems(gctx, true)
		return err
	})
	g.Go(func() error {
		var err error
		selections, err = s.store.ListSelections(gctx)
		return err
	})
	g.Go(func() error {
		sel, err := s.store.SelectionForTeam(gctx, teamID)
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		mine = sel
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	board := &Board{WindowOpen: open, Selection: mine, Problems: []ProblemSlot{}}
	if !open {
		return board, nil
	}
	for _, p := range problems {
		if !matchesQuery(p, query) {
			continue
		}
		board.Problems = append(board.Problems, ProblemSlot{Problem: p, Capacity: Evaluate(p, selections)})
	}
	return board, nil
}

func (s *AllocationService) alreadySelected(ctx context.Context, teamID uuid.UUID) error {
	existing, err := s.store.SelectionForTeam(ctx, teamID)
	if err != nil {
		s.log.Warn("could not re-read selection after uniqueness rejection",
			zap.String("team_id", teamID.String()), zap.Error(err))
		return &AlreadySelectedError{}
	}
	return &AlreadySelectedError{Existing: existing}
}

// checkOverCapacity reports claims that raced past the limit in soft mode.
func (s *AllocationService) checkOverCapacity(ctx context.Context, p models.Problem) {
	after, err := s.store.SelectionsForProblem(ctx, p.ID)
	if err != nil {
		return
	}
	c := Evaluate(p, after)
	if c.SelectedCount > c.Limit {
		metrics.RecordOverCapacity()
		s.log.Warn("problem exceeded its team limit",
			zap.String("problem_id", p.ID.String()),
			zap.Int("selected", c.SelectedCount),
			zap.Int("limit", c.Limit),
		)
	}
}

func matchesQuery(p models.Problem, query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(p.Title), q) ||
		strings.Contains(strings.ToLower(p.Description), q)
}

func claimOutcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeSuccess
	case errors.Is(err, ErrWindowClosed):
		return metrics.OutcomeWindowClosed
	case errors.Is(err, ErrProblemUnavailable):
		return metrics.OutcomeProblemUnavailable
	case errors.Is(err, ErrProblemFull):
		return metrics.OutcomeProblemFull
	case errors.Is(err, ErrAlreadySelected):
		return metrics.OutcomeAlreadySelected
	default:
		return metrics.OutcomeStorageUnavailable
	}
}
