package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"hackportal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestClaimFillsProblemThenRejects(t *testing.T) {
	ctx := context.Background()
	for _, strict := range []bool{false, true} {
		name := "soft"
		if strict {
			name = "strict"
		}
		t.Run(name, func(t *testing.T) {
			f := newFixture(t, strict)
			f.openWindow(t)
			p := f.addProblem(t, "P", intPtr(2), true)
			a := f.addTeam(t, "Team A", "A")
			b := f.addTeam(t, "Team B", "B")
			c := f.addTeam(t, "Team C", "C")

			sel, err := f.allocation.Claim(ctx, a.ID, p.ID)
			require.NoError(t, err)
			assert.Equal(t, a.ID, sel.TeamID)
			assert.Equal(t, p.ID, sel.ProblemID)
			assert.True(t, sel.IsLocked)
			assert.Equal(t, models.LockedBySystem, sel.LockedBy)
			assert.Equal(t, 1, f.countFor(t, p.ID))

			_, err = f.allocation.Claim(ctx, b.ID, p.ID)
			require.NoError(t, err)
			all, err := f.store.ListSelections(ctx)
			require.NoError(t, err)
			capacity := Evaluate(p, all)
			assert.Equal(t, 2, capacity.SelectedCount)
			assert.True(t, capacity.IsFull)

			_, err = f.allocation.Claim(ctx, c.ID, p.ID)
			assert.ErrorIs(t, err, ErrProblemFull)
			assert.Equal(t, 2, f.countFor(t, p.ID))
		})
	}
}

func TestClaimWindowClosed(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)
	p := f.addProblem(t, "P", intPtr(2), true)
	a := f.addTeam(t, "Team A", "A")

	// Never opened: the missing row reads as closed.
	_, err := f.allocation.Claim(ctx, a.ID, p.ID)
	assert.ErrorIs(t, err, ErrWindowClosed)

	f.openWindow(t)
	_, err = f.window.Close(ctx)
	require.NoError(t, err)

	_, err = f.allocation.Claim(ctx, a.ID, p.ID)
	assert.ErrorIs(t, err, ErrWindowClosed)

	n, err := f.store.CountSelections(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestClaimProblemUnavailable(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)
	f.openWindow(t)
	hidden := f.addProblem(t, "Hidden", intPtr(2), false)
	a := f.addTeam(t, "Team A", "A")

	_, err := f.allocation.Claim(ctx, a.ID, hidden.ID)
	assert.ErrorIs(t, err, ErrProblemUnavailable)

	_, err = f.allocation.Claim(ctx, a.ID, uuid.New())
	assert.ErrorIs(t, err, ErrProblemUnavailable)

	n, err := f.store.CountSelections(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestClaimRepeatReturnsExistingSelection(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)
	f.openWindow(t)
	p := f.addProblem(t, "P", intPtr(2), true)
	q := f.addProblem(t, "Q", intPtr(2), true)
	a := f.addTeam(t, "Team A", "A")

	first, err := f.allocation.Claim(ctx, a.ID, p.ID)
	require.NoError(t, err)

	for _, target := range []uuid.UUID{p.ID, q.ID} {
		_, err = f.allocation.Claim(ctx, a.ID, target)
		require.ErrorIs(t, err, ErrAlreadySelected)

		var already *AlreadySelectedError
		require.ErrorAs(t, err, &already)
		require.NotNil(t, already.Existing)
		assert.Equal(t, first.ID, already.Existing.ID)
		assert.Equal(t, p.ID, already.Existing.ProblemID)
	}

	assert.Equal(t, 1, f.countFor(t, p.ID))
	assert.Equal(t, 0, f.countFor(t, q.ID))
}

func TestClaimAlreadySelectedEvenWhenUnlocked(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)
	f.openWindow(t)
	p := f.addProblem(t, "P", intPtr(1), true)
	q := f.addProblem(t, "Q", intPtr(1), true)
	a := f.addTeam(t, "Team A", "A")

	sel, err := f.allocation.Claim(ctx, a.ID, p.ID)
	require.NoError(t, err)
	_, err = f.moderation.Unlock(ctx, sel.ID)
	require.NoError(t, err)

	_, err = f.allocation.Claim(ctx, a.ID, q.ID)
	assert.ErrorIs(t, err, ErrAlreadySelected)
}

// staleReadStore hides the team's selection from the pre-check, as a second
// browser tab racing the first would see it.
type staleReadStore struct {
	*MemoryStore
	hidden atomic.Bool
}

func (s *staleReadStore) SelectionForTeam(ctx context.Context, teamID uuid.UUID) (*models.Selection, error) {
	if s.hidden.CompareAndSwap(true, false) {
		return nil, ErrNotFound
	}
	return s.MemoryStore.SelectionForTeam(ctx, teamID)
}

func TestClaimUniquenessRejectionIsAlreadySelected(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)
	f.openWindow(t)
	p := f.addProblem(t, "P", intPtr(3), true)
	a := f.addTeam(t, "Team A", "A")

	first, err := f.allocation.Claim(ctx, a.ID, p.ID)
	require.NoError(t, err)

	store := &staleReadStore{MemoryStore: f.store}
	store.hidden.Store(true)
	alloc := NewAllocationService(store, f.window, false, zap.NewNop())

	_, err = alloc.Claim(ctx, a.ID, p.ID)
	var already *AlreadySelectedError
	require.ErrorAs(t, err, &already)
	require.NotNil(t, already.Existing)
	assert.Equal(t, first.ID, already.Existing.ID)
	assert.Equal(t, 1, f.countFor(t, p.ID))
}

// lostAckStore persists the insert but reports a transport failure, like a
// request that timed out after the write landed.
type lostAckStore struct {
	*MemoryStore
	dropped atomic.Bool
}

func (s *lostAckStore) InsertSelection(ctx context.Context, sel *models.Selection) error {
	if err := s.MemoryStore.InsertSelection(ctx, sel); err != nil {
		return err
	}
	if s.dropped.CompareAndSwap(false, true) {
		return Unavailable("insert selection", errors.New("connection reset by peer"))
	}
	return nil
}

func TestClaimRetryAfterLostAcknowledgement(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)
	f.openWindow(t)
	p := f.addProblem(t, "P", intPtr(2), true)
	a := f.addTeam(t, "Team A", "A")

	alloc := NewAllocationService(&lostAckStore{MemoryStore: f.store}, f.window, false, zap.NewNop())

	_, err := alloc.Claim(ctx, a.ID, p.ID)
	require.ErrorIs(t, err, ErrStorageUnavailable)

	_, err = alloc.Claim(ctx, a.ID, p.ID)
	var already *AlreadySelectedError
	require.ErrorAs(t, err, &already)
	assert.Equal(t, p.ID, already.Existing.ProblemID)
	assert.Equal(t, 1, f.countFor(t, p.ID))
}

func TestClaimRetryWhenFirstAttemptNeverLanded(t *testing.T) {
	f := newFixture(t, false)
	f.openWindow(t)
	p := f.addProblem(t, "P", intPtr(2), true)
	a := f.addTeam(t, "Team A", "A")

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := f.allocation.Claim(cancelled, a.ID, p.ID)
	require.ErrorIs(t, err, ErrStorageUnavailable)
	assert.Equal(t, 0, f.countFor(t, p.ID))

	sel, err := f.allocation.Claim(context.Background(), a.ID, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.ID, sel.ProblemID)
	assert.Equal(t, 1, f.countFor(t, p.ID))
}

func TestConcurrentClaimsBySameTeam(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)
	f.openWindow(t)
	a := f.addTeam(t, "Team A", "A")
	problems := []models.Problem{
		f.addProblem(t, "P1", nil, true),
		f.addProblem(t, "P2", nil, true),
		f.addProblem(t, "P3", nil, true),
	}

	var (
		wg        sync.WaitGroup
		successes atomic.Int32
		rejected  atomic.Int32
	)
	for i := 0; i < 30; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := f.allocation.Claim(ctx, a.ID, problems[i%len(problems)].ID)
			switch {
			case err == nil:
				successes.Add(1)
			case errors.Is(err, ErrAlreadySelected):
				rejected.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), successes.Load())
	assert.Equal(t, int32(29), rejected.Load())
	n, err := f.store.CountSelections(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestStrictModeNeverExceedsLimit(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, true)
	f.openWindow(t)
	p := f.addProblem(t, "P", intPtr(3), true)

	teams := make([]models.Team, 25)
	for i := range teams {
		teams[i] = f.addTeam(t, "Team", uuid.NewString()[:8])
	}

	var (
		wg        sync.WaitGroup
		successes atomic.Int32
	)
	for _, team := range teams {
		wg.Add(1)
		go func(id uuid.UUID) {
			defer wg.Done()
			_, err := f.allocation.Claim(ctx, id, p.ID)
			if err == nil {
				successes.Add(1)
				return
			}
			if !errors.Is(err, ErrProblemFull) {
				t.Errorf("unexpected error: %v", err)
			}
		}(team.ID)
	}
	wg.Wait()

	assert.Equal(t, int32(3), successes.Load())
	assert.Equal(t, 3, f.countFor(t, p.ID))
}

func TestSerializedClaimsNeverExceedLimit(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)
	f.openWindow(t)
	p := f.addProblem(t, "P", intPtr(4), true)

	for i := 0; i < 10; i++ {
		team := f.addTeam(t, "Team", uuid.NewString()[:8])
		_, _ = f.allocation.Claim(ctx, team.ID, p.ID)
		assert.LessOrEqual(t, f.countFor(t, p.ID), 4)
	}
	assert.Equal(t, 4, f.countFor(t, p.ID))
}

func TestUnboundedProblemAcceptsEveryone(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)
	f.openWindow(t)
	q := f.addProblem(t, "Q", nil, true)

	for i := 0; i < 20; i++ {
		team := f.addTeam(t, "Team", uuid.NewString()[:8])
		_, err := f.allocation.Claim(ctx, team.ID, q.ID)
		require.NoError(t, err)
	}
	assert.Equal(t, 20, f.countFor(t, q.ID))
}

func TestBoard(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)
	p := f.addProblem(t, "Payments ledger", intPtr(1), true)
	f.addProblem(t, "Campus map", intPtr(2), true)
	f.addProblem(t, "Secret", intPtr(2), false)
	a := f.addTeam(t, "Team A", "A")

	board, err := f.allocation.Board(ctx, a.ID, "")
	require.NoError(t, err)
	assert.False(t, board.WindowOpen)
	assert.Empty(t, board.Problems)
	assert.Nil(t, board.Selection)

	f.openWindow(t)
	_, err = f.allocation.Claim(ctx, a.ID, p.ID)
	require.NoError(t, err)

	board, err = f.allocation.Board(ctx, a.ID, "")
	require.NoError(t, err)
	assert.True(t, board.WindowOpen)
	require.Len(t, board.Problems, 2)
	assert.Equal(t, "Campus map", board.Problems[0].Problem.Title)
	assert.Equal(t, "Payments ledger", board.Problems[1].Problem.Title)
	assert.True(t, board.Problems[1].Capacity.IsFull)
	require.NotNil(t, board.Selection)
	assert.Equal(t, p.ID, board.Selection.ProblemID)
	require.NotNil(t, board.Selection.Problem)
	assert.Equal(t, "Payments ledger", board.Selection.Problem.Title)

	board, err = f.allocation.Board(ctx, a.ID, "  MAP ")
	require.NoError(t, err)
	require.Len(t, board.Problems, 1)
	assert.Equal(t, "Campus map", board.Problems[0].Problem.Title)
}

func TestMine(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)
	f.openWindow(t)
	p := f.addProblem(t, "P", intPtr(1), true)
	a := f.addTeam(t, "Team A", "A")

	_, err := f.allocation.Mine(ctx, a.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.allocation.Claim(ctx, a.ID, p.ID)
	require.NoError(t, err)

	sel, err := f.allocation.Mine(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, p.ID, sel.ProblemID)
}

func TestClaimOutcome(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, "success"},
		{ErrWindowClosed, "window_closed"},
		{ErrProblemUnavailable, "problem_unavailable"},
		{ErrProblemFull, "problem_full"},
		{&AlreadySelectedError{}, "already_selected"},
		{Unavailable("op", errors.New("boom")), "storage_unavailable"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, claimOutcome(tt.err))
	}
}

// blindCapacityStore hides the problem's existing selections from the next
// capacity pre-check, as a claim interleaved with another team's insert sees.
type blindCapacityStore struct {
	*MemoryStore
	blind atomic.Int32
}

func (s *blindCapacityStore) SelectionsForProblem(ctx context.Context, problemID uuid.UUID) ([]models.Selection, error) {
	if s.blind.Add(-1) >= 0 {
		return nil, nil
	}
	return s.MemoryStore.SelectionsForProblem(ctx, problemID)
}

func TestSoftModeInterleavedClaimsExceedLimit(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)
	f.openWindow(t)
	p := f.addProblem(t, "P", intPtr(1), true)
	a := f.addTeam(t, "Team A", "A")
	b := f.addTeam(t, "Team B", "B")

	store := &blindCapacityStore{MemoryStore: f.store}
	alloc := NewAllocationService(store, f.window, false, zap.NewNop())

	_, err := alloc.Claim(ctx, a.ID, p.ID)
	require.NoError(t, err)
	before := metricValue(t, "hackportal_allocation_over_capacity_total")

	store.blind.Store(1)
	sel, err := alloc.Claim(ctx, b.ID, p.ID)
	require.NoError(t, err)
	assert.Equal(t, b.ID, sel.TeamID)

	assert.Equal(t, 2, f.countFor(t, p.ID))
	all, err := f.store.ListSelections(ctx)
	require.NoError(t, err)
	capacity := Evaluate(p, all)
	assert.True(t, capacity.IsFull)
	assert.Zero(t, capacity.SlotsRemaining)
	assert.Equal(t, before+1, metricValue(t, "hackportal_allocation_over_capacity_total"))
}

func TestStrictModeRejectsInterleavedClaim(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, true)
	f.openWindow(t)
	p := f.addProblem(t, "P", intPtr(1), true)
	a := f.addTeam(t, "Team A", "A")
	b := f.addTeam(t, "Team B", "B")

	store := &blindCapacityStore{MemoryStore: f.store}
	alloc := NewAllocationService(store, f.window, true, zap.NewNop())

	_, err := alloc.Claim(ctx, a.ID, p.ID)
	require.NoError(t, err)
	before := metricValue(t, "hackportal_allocation_over_capacity_total")

	store.blind.Store(1)
	_, err = alloc.Claim(ctx, b.ID, p.ID)
	assert.ErrorIs(t, err, ErrProblemFull)

	assert.Equal(t, 1, f.countFor(t, p.ID))
	_, err = f.store.SelectionForTeam(ctx, b.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, before, metricValue(t, "hackportal_allocation_over_capacity_total"))
}
