// services/memory_store.go - In-process Store used for development and tests
package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"hackportal/models"

	"github.com/google/uuid"
)

// MemoryStore keeps every table in maps behind one mutex. Each method is
// atomic, which gives it the same uniqueness guarantees as the database.
type MemoryStore struct {
	mu         sync.RWMutex
	teams      map[uuid.UUID]models.Team
	problems   map[uuid.UUID]models.Problem
	selections map[uuid.UUID]models.Selection
	byTeam     map[uuid.UUID]uuid.UUID // team id -> selection id
	window     *models.SelectionWindow
	admins     []models.Admin
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		teams:      make(map[uuid.UUID]models.Team),
		problems:   make(map[uuid.UUID]models.Problem),
		selections: make(map[uuid.UUID]models.Selection),
		byTeam:     make(map[uuid.UUID]uuid.UUID),
	}
}

// ================== SELECTIONS ==================

func (m *MemoryStore) ListSelections(ctx context.Context) ([]models.Selection, error) {
	if err := ctx.Err(); err != nil {
		return nil, Unavailable("list selections", err)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.Selection, 0, len(m.selections))
	for _, s := range m.selections {
		out = append(out, s)
	}
	sortNewestFirst(out)
	return out, nil
}

func (m *MemoryStore) ListSelectionsDetailed(ctx context.Context, limit int) ([]models.Selection, error) {
	if err := ctx.Err(); err != nil {
		return nil, Unavailable("list selections", err)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.Selection, 0, len(m.selections))
	for _, s := range m.selections {
		out = append(out, m.withRelations(s))
	}
	sortNewestFirst(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryStore) SelectionsForProblem(ctx context.Context, problemID uuid.UUID) ([]models.Selection, error) {
	if err := ctx.Err(); err != nil {
		return nil, Unavailable("list problem selections", err)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []models.Selection
	for _, s := range m.selections {
		if s.ProblemID == problemID {
			out = append(out, s)
		}
	}
	sortNewestFirst(out)
	return out, nil
}

func (m *MemoryStore) SelectionForTeam(ctx context.Context, teamID uuid.UUID) (*models.Selection, error) {
	if err := ctx.Err(); err != nil {
		return nil, Unavailable("get team selection", err)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.byTeam[teamID]
	if !ok {
		return nil, ErrNotFound
	}
	sel := m.withRelations(m.selections[id])
	return &sel, nil
}

func (m *MemoryStore) InsertSelection(ctx context.Context, sel *models.Selection) error {
	if err := ctx.Err(); err != nil {
		return Unavailable("insert selection", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.insertLocked(sel)
}

func (m *MemoryStore) InsertSelectionWithinLimit(ctx context.Context, sel *models.Selection, limit int) error {
	if err := ctx.Err(); err != nil {
		return Unavailable("insert selection", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, taken := m.byTeam[sel.TeamID]; taken {
		return ErrAlreadySelected
	}
	count := 0
	for _, s := range m.selections {
		if s.ProblemID == sel.ProblemID {
			count++
		}
	}
	if count >= limit {
		return ErrProblemFull
	}
	return m.insertLocked(sel)
}

func (m *MemoryStore) insertLocked(sel *models.Selection) error {
	if _, taken := m.byTeam[sel.TeamID]; taken {
		return ErrAlreadySelected
	}
	if sel.ID == uuid.Nil {
		sel.ID = uuid.New()
	}
	if sel.SelectedAt.IsZero() {
		sel.SelectedAt = time.Now().UTC()
	}
	stored := *sel
	stored.Team, stored.Problem = nil, nil
	m.selections[sel.ID] = stored
	m.byTeam[sel.TeamID] = sel.ID
	return nil
}

func (m *MemoryStore) SetSelectionLock(ctx context.Context, id uuid.UUID, locked bool, by string) (*models.Selection, error) {
	if err := ctx.Err(); err != nil {
		return nil, Unavailable("update selection", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	sel, ok := m.selections[id]
	if !ok {
		return nil, ErrNotFound
	}
	sel.IsLocked = locked
	sel.LockedBy = by
	m.selections[id] = sel
	return &sel, nil
}

func (m *MemoryStore) DeleteSelection(ctx context.Context, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return Unavailable("delete selection", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	sel, ok := m.selections[id]
	if !ok {
		return ErrNotFound
	}
	m.deleteSelectionLocked(sel)
	return nil
}

func (m *MemoryStore) deleteSelectionLocked(sel models.Selection) {
	delete(m.selections, sel.ID)
	delete(m.byTeam, sel.TeamID)
}

func (m *MemoryStore) CountSelections(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, Unavailable("count selections", err)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.selections)), nil
}

func (m *MemoryStore) withRelations(s models.Selection) models.Selection {
	if t, ok := m.teams[s.TeamID]; ok {
		t := cloneTeam(t)
		s.Team = &t
	}
	if p, ok := m.problems[s.ProblemID]; ok {
		p := p
		s.Problem = &p
	}
	return s
}

// ================== WINDOW ==================

func (m *MemoryStore) GetWindow(ctx context.Context) (*models.SelectionWindow, error) {
	if err := ctx.Err(); err != nil {
		return nil, Unavailable("get window", err)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.window == nil {
		return &models.SelectionWindow{ID: models.SelectionWindowID}, nil
	}
	w := *m.window
	return &w, nil
}

func (m *MemoryStore) SaveWindow(ctx context.Context, open bool) (*models.SelectionWindow, error) {
	if err := ctx.Err(); err != nil {
		return nil, Unavailable("save window", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.window = &models.SelectionWindow{
		ID:        models.SelectionWindowID,
		IsOpen:    open,
		UpdatedAt: time.Now().UTC(),
	}
	w := *m.window
	return &w, nil
}

// ================== PROBLEMS ==================

func (m *MemoryStore) ListProblems(ctx context.Context, visibleOnly bool) ([]models.Problem, error) {
	if err := ctx.Err(); err != nil {
		return nil, Unavailable("list problems", err)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.Problem, 0, len(m.problems))
	for _, p := range m.problems {
		if visibleOnly && !p.IsVisible {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out, nil
}

func (m *MemoryStore) GetProblem(ctx context.Context, id uuid.UUID) (*models.Problem, error) {
	if err := ctx.Err(); err != nil {
		return nil, Unavailable("get problem", err)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.problems[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (m *MemoryStore) CreateProblem(ctx context.Context, p *models.Problem) error {
	if err := ctx.Err(); err != nil {
		return Unavailable("create problem", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	now := time.Now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now
	m.problems[p.ID] = *p
	return nil
}

func (m *MemoryStore) SaveProblem(ctx context.Context, p *models.Problem) error {
	if err := ctx.Err(); err != nil {
		return Unavailable("save problem", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.problems[p.ID]; !ok {
		return ErrNotFound
	}
	p.UpdatedAt = time.Now().UTC()
	m.problems[p.ID] = *p
	return nil
}

func (m *MemoryStore) DeleteProblem(ctx context.Context, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return Unavailable("delete problem", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.problems[id]; !ok {
		return ErrNotFound
	}
	delete(m.problems, id)
	for _, s := range m.selections {
		if s.ProblemID == id {
			m.deleteSelectionLocked(s)
		}
	}
	return nil
}

// ================== TEAMS ==================

func (m *MemoryStore) ListTeams(ctx context.Context) ([]models.Team, error) {
	if err := ctx.Err(); err != nil {
		return nil, Unavailable("list teams", err)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.Team, 0, len(m.teams))
	for _, t := range m.teams {
		out = append(out, cloneTeam(t))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *MemoryStore) GetTeam(ctx context.Context, id uuid.UUID) (*models.Team, error) {
	if err := ctx.Err(); err != nil {
		return nil, Unavailable("get team", err)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	t, ok := m.teams[id]
	if !ok {
		return nil, ErrNotFound
	}
	t = cloneTeam(t)
	return &t, nil
}

func (m *MemoryStore) GetTeamByCode(ctx context.Context, code string) (*models.Team, error) {
	if err := ctx.Err(); err != nil {
		return nil, Unavailable("get team by code", err)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, t := range m.teams {
		if t.TeamCode == code {
			t = cloneTeam(t)
			return &t, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) CreateTeam(ctx context.Context, t *models.Team) error {
	if err := ctx.Err(); err != nil {
		return Unavailable("create team", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.codeTakenLocked(t.TeamCode, uuid.Nil) {
		return ErrDuplicateTeamCode
	}
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	now := time.Now().UTC()
	t.CreatedAt, t.UpdatedAt = now, now
	m.teams[t.ID] = cloneTeam(*t)
	return nil
}

func (m *MemoryStore) CreateTeams(ctx context.Context, teams []models.Team) error {
	if err := ctx.Err(); err != nil {
		return Unavailable("create teams", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	codes := make(map[string]struct{}, len(teams))
	for _, t := range teams {
		if _, dup := codes[t.TeamCode]; dup || m.codeTakenLocked(t.TeamCode, uuid.Nil) {
			return ErrDuplicateTeamCode
		}
		codes[t.TeamCode] = struct{}{}
	}

	now := time.Now().UTC()
	for i := range teams {
		if teams[i].ID == uuid.Nil {
			teams[i].ID = uuid.New()
		}
		teams[i].CreatedAt, teams[i].UpdatedAt = now, now
		m.teams[teams[i].ID] = cloneTeam(teams[i])
	}
	return nil
}

func (m *MemoryStore) SaveTeam(ctx context.Context, t *models.Team) error {
	if err := ctx.Err(); err != nil {
		return Unavailable("save team", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.teams[t.ID]; !ok {
		return ErrNotFound
	}
	if m.codeTakenLocked(t.TeamCode, t.ID) {
		return ErrDuplicateTeamCode
	}
	t.UpdatedAt = time.Now().UTC()
	m.teams[t.ID] = cloneTeam(*t)
	return nil
}

func (m *MemoryStore) DeleteTeam(ctx context.Context, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return Unavailable("delete team", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.teams[id]; !ok {
		return ErrNotFound
	}
	delete(m.teams, id)
	if selID, ok := m.byTeam[id]; ok {
		m.deleteSelectionLocked(m.selections[selID])
	}
	return nil
}

func (m *MemoryStore) codeTakenLocked(code string, except uuid.UUID) bool {
	for id, t := range m.teams {
		if t.TeamCode == code && id != except {
			return true
		}
	}
	return false
}

// ================== ADMINS ==================

func (m *MemoryStore) GetAdminByEmail(ctx context.Context, email string) (*models.Admin, error) {
	if err := ctx.Err(); err != nil {
		return nil, Unavailable("get admin", err)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, a := range m.admins {
		if a.Email == email {
			return &a, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) CountAdmins(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, Unavailable("count admins", err)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.admins)), nil
}

func (m *MemoryStore) CreateAdmin(ctx context.Context, a *models.Admin) error {
	if err := ctx.Err(); err != nil {
		return Unavailable("create admin", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	a.ID = uint(len(m.admins) + 1)
	a.CreatedAt = time.Now().UTC()
	m.admins = append(m.admins, *a)
	return nil
}

func (m *MemoryStore) TouchAdminLogin(ctx context.Context, id uint, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return Unavailable("update admin", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.admins {
		if m.admins[i].ID == id {
			m.admins[i].LastLogin = at
			return nil
		}
	}
	return ErrNotFound
}

func cloneTeam(t models.Team) models.Team {
	if t.Members != nil {
		t.Members = append([]models.Member(nil), t.Members...)
	}
	return t
}

func sortNewestFirst(sels []models.Selection) {
	sort.SliceStable(sels, func(i, j int) bool {
		return sels[i].SelectedAt.After(sels[j].SelectedAt)
	})
}
