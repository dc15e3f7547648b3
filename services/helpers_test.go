package services

import (
	"context"
	"testing"

	"hackportal/metrics"
	"hackportal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fixture struct {
	store      *MemoryStore
	window     *WindowService
	allocation *AllocationService
	moderation *ModerationService
}

func newFixture(t *testing.T, strict bool) *fixture {
	t.Helper()
	store := NewMemoryStore()
	window := NewWindowService(store, zap.NewNop())
	return &fixture{
		store:      store,
		window:     window,
		allocation: NewAllocationService(store, window, strict, zap.NewNop()),
		moderation: NewModerationService(store, window, zap.NewNop()),
	}
}

func intPtr(n int) *int { return &n }

func (f *fixture) openWindow(t *testing.T) {
	t.Helper()
	_, err := f.window.Open(context.Background())
	require.NoError(t, err)
}

func (f *fixture) addTeam(t *testing.T, name, code string) models.Team {
	t.Helper()
	team := &models.Team{Name: name, TeamCode: code, IsActive: true}
	require.NoError(t, f.store.CreateTeam(context.Background(), team))
	return *team
}

func (f *fixture) addProblem(t *testing.T, title string, limit *int, visible bool) models.Problem {
	t.Helper()
	p := &models.Problem{Title: title, TeamLimit: limit, IsVisible: visible}
	require.NoError(t, f.store.CreateProblem(context.Background(), p))
	return *p
}

func (f *fixture) countFor(t *testing.T, problemID uuid.UUID) int {
	t.Helper()
	sels, err := f.store.SelectionsForProblem(context.Background(), problemID)
	require.NoError(t, err)
	return len(sels)
}

// metricValue reads an unlabelled counter or gauge from the service registry.
func metricValue(t *testing.T, name string) float64 {
	t.Helper()
	metrics.Register()
	families, err := metrics.Registry.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		m := mf.GetMetric()[0]
		if m.GetGauge() != nil {
			return m.GetGauge().GetValue()
		}
		return m.GetCounter().GetValue()
	}
	t.Fatalf("metric %s not registered", name)
	return 0
}
