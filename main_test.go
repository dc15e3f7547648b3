package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"hackportal/config"
	"hackportal/metrics"
	"hackportal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestServer(t *testing.T) *fiber.App {
	t.Helper()
	cfg := &config.Config{
		AppEnv:           "test",
		CORSOrigins:      "http://localhost:5173",
		StoreDriver:      config.DriverMemory,
		JWTSecret:        strings.Repeat("t", 40),
		TokenTTL:         time.Hour,
		CapacityMode:     config.CapacitySoft,
		ClaimTimeout:     2 * time.Second,
		DefaultTeamLimit: 3,
		TeamCacheTTL:     time.Minute,
	}
	require.NoError(t, cfg.Validate())

	metrics.Register()
	p := newPortal(cfg, services.NewMemoryStore(), zap.NewNop())
	require.NoError(t, p.admins.EnsureBootstrapAdmin(context.Background(), "admin@example.com", "s3cret-pass"))
	return newApp(cfg, p, zap.NewNop())
}

func call(t *testing.T, app *fiber.App, method, path, token string, body interface{}) (int, map[string]interface{}) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	out := map[string]interface{}{}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 && strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp.StatusCode, out
}

func field(t *testing.T, m map[string]interface{}, keys ...string) interface{} {
	t.Helper()
	var cur interface{} = m
	for _, k := range keys {
		obj, ok := cur.(map[string]interface{})
		require.True(t, ok, "expected object at %q", k)
		cur = obj[k]
	}
	return cur
}

func adminLogin(t *testing.T, app *fiber.App) string {
	t.Helper()
	status, body := call(t, app, "POST", "/api/admin/login", "", fiber.Map{"email": "admin@example.com", "password": "s3cret-pass"})
	require.Equal(t, fiber.StatusOK, status, body)
	return body["token"].(string)
}

func createTeam(t *testing.T, app *fiber.App, adminToken, name, code string) string {
	t.Helper()
	status, body := call(t, app, "POST", "/api/admin/teams", adminToken, fiber.Map{"name": name, "team_code": code})
	require.Equal(t, fiber.StatusCreated, status, body)
	return field(t, body, "team", "id").(string)
}

func teamLogin(t *testing.T, app *fiber.App, code string) string {
	t.Helper()
	status, body := call(t, app, "POST", "/api/auth/team", "", fiber.Map{"team_code": code})
	require.Equal(t, fiber.StatusOK, status, body)
	return body["token"].(string)
}

func TestSelectionFlow(t *testing.T) {
	app := newTestServer(t)
	adminToken := adminLogin(t, app)

	createTeam(t, app, adminToken, "Alpha", "ALPHA")
	betaID := createTeam(t, app, adminToken, "Beta", "BETA")

	status, body := call(t, app, "POST", "/api/admin/problems", adminToken, fiber.Map{
		"title":      "Campus navigation",
		"team_limit": 1,
		"is_visible": true,
	})
	require.Equal(t, fiber.StatusCreated, status, body)
	problemID := field(t, body, "problem", "id").(string)

	alpha := teamLogin(t, app, " ALPHA ")
	beta := teamLogin(t, app, "BETA")

	// Window starts closed.
	status, body = call(t, app, "POST", "/api/selection", alpha, fiber.Map{"problem_id": problemID})
	assert.Equal(t, fiber.StatusForbidden, status)
	assert.Equal(t, "window_closed", body["code"])

	status, body = call(t, app, "GET", "/api/problems", alpha, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, false, body["window_open"])
	assert.Empty(t, body["problems"])

	status, _ = call(t, app, "POST", "/api/admin/window/open", adminToken, nil)
	require.Equal(t, fiber.StatusOK, status)

	status, body = call(t, app, "POST", "/api/selection", alpha, fiber.Map{"problem_id": problemID})
	require.Equal(t, fiber.StatusCreated, status, body)
	selectionID := field(t, body, "selection", "id").(string)
	assert.Equal(t, true, field(t, body, "selection", "is_locked"))

	// Double submit returns the existing selection.
	status, body = call(t, app, "POST", "/api/selection", alpha, fiber.Map{"problem_id": problemID})
	assert.Equal(t, fiber.StatusConflict, status)
	assert.Equal(t, "already_selected", body["code"])
	assert.Equal(t, selectionID, field(t, body, "selection", "id"))

	status, body = call(t, app, "POST", "/api/selection", beta, fiber.Map{"problem_id": problemID})
	assert.Equal(t, fiber.StatusConflict, status)
	assert.Equal(t, "problem_full", body["code"])

	status, body = call(t, app, "GET", "/api/selection", alpha, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "Campus navigation", field(t, body, "selection", "problem", "title"))

	status, body = call(t, app, "GET", "/api/board", beta, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Nil(t, field(t, body, "board", "selection"))
	problems := field(t, body, "board", "problems").([]interface{})
	require.Len(t, problems, 1)
	assert.Equal(t, true, problems[0].(map[string]interface{})["capacity"].(map[string]interface{})["is_full"])

	status, body = call(t, app, "GET", "/api/admin/selections/unassigned", adminToken, nil)
	require.Equal(t, fiber.StatusOK, status)
	unassigned := body["teams"].([]interface{})
	require.Len(t, unassigned, 1)
	assert.Equal(t, betaID, unassigned[0].(map[string]interface{})["id"])

	// Admin overrides work with the window closed.
	status, _ = call(t, app, "POST", "/api/admin/window/close", adminToken, nil)
	require.Equal(t, fiber.StatusOK, status)

	status, body = call(t, app, "POST", "/api/admin/selections/"+selectionID+"/unlock", adminToken, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "admin", field(t, body, "selection", "locked_by"))

	status, _ = call(t, app, "DELETE", "/api/admin/selections/"+selectionID, adminToken, nil)
	require.Equal(t, fiber.StatusOK, status)

	status, body = call(t, app, "GET", "/api/admin/dashboard", adminToken, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.EqualValues(t, 2, field(t, body, "dashboard", "total_teams"))
	assert.EqualValues(t, 0, field(t, body, "dashboard", "selected"))
	assert.EqualValues(t, 2, field(t, body, "dashboard", "pending"))
	assert.Equal(t, false, field(t, body, "dashboard", "window_open"))
}

func TestAuthFailures(t *testing.T) {
	app := newTestServer(t)

	status, body := call(t, app, "POST", "/api/admin/login", "", fiber.Map{"email": "admin@example.com", "password": "nope"})
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Equal(t, false, body["success"])

	status, _ = call(t, app, "POST", "/api/auth/team", "", fiber.Map{"team_code": "MISSING"})
	assert.Equal(t, fiber.StatusUnauthorized, status)

	status, _ = call(t, app, "GET", "/api/admin/dashboard", "", nil)
	assert.Equal(t, fiber.StatusUnauthorized, status)

	status, _ = call(t, app, "GET", "/api/board", "", nil)
	assert.Equal(t, fiber.StatusUnauthorized, status)
}

func TestInactiveTeamCannotLogIn(t *testing.T) {
	app := newTestServer(t)
	adminToken := adminLogin(t, app)
	id := createTeam(t, app, adminToken, "Gamma", "GAMMA")

	status, _ := call(t, app, "POST", "/api/admin/teams/"+id+"/active", adminToken, fiber.Map{"is_active": false})
	require.Equal(t, fiber.StatusOK, status)

	status, _ = call(t, app, "POST", "/api/auth/team", "", fiber.Map{"team_code": "GAMMA"})
	assert.Equal(t, fiber.StatusUnauthorized, status)
}

func TestAdminValidationErrors(t *testing.T) {
	app := newTestServer(t)
	adminToken := adminLogin(t, app)

	status, body := call(t, app, "POST", "/api/admin/problems", adminToken, fiber.Map{"title": "Bad", "team_limit": 0})
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "team_limit must be a positive integer", body["error"])

	status, _ = call(t, app, "DELETE", "/api/admin/problems/not-a-uuid", adminToken, nil)
	assert.Equal(t, fiber.StatusBadRequest, status)

	createTeam(t, app, adminToken, "Delta", "DELTA")
	status, body = call(t, app, "POST", "/api/admin/teams", adminToken, fiber.Map{"name": "Delta 2", "team_code": "DELTA"})
	assert.Equal(t, fiber.StatusConflict, status)
	assert.Equal(t, "duplicate_team_code", body["code"])
}

func TestOpsEndpoints(t *testing.T) {
	app := newTestServer(t)

	status, body := call(t, app, "GET", "/health", "", nil)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "healthy", body["status"])

	req := httptest.NewRequest("GET", "/metrics", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, string(raw), "go_goroutines")
}

func TestTeamAttendance(t *testing.T) {
	app := newTestServer(t)
	adminToken := adminLogin(t, app)

	status, body := call(t, app, "POST", "/api/admin/teams", adminToken, fiber.Map{
		"name":      "Gamma",
		"team_code": "GAMMA",
		"members": []fiber.Map{
			{"name": "Ann", "reg_no": "21BCE001", "r1": true, "r2": true},
			{"name": "Bo", "r1": true},
		},
	})
	require.Equal(t, fiber.StatusCreated, status, body)

	status, _ = call(t, app, "GET", "/api/attendance", adminToken, nil)
	assert.Equal(t, fiber.StatusForbidden, status)

	gamma := teamLogin(t, app, "GAMMA")
	status, body = call(t, app, "GET", "/api/attendance", gamma, nil)
	require.Equal(t, fiber.StatusOK, status, body)

	members := field(t, body, "attendance", "members").([]interface{})
	require.Len(t, members, 2)
	assert.Equal(t, []interface{}{true, true, false}, members[0].(map[string]interface{})["rounds"])

	totals := field(t, body, "attendance", "totals").([]interface{})
	require.Len(t, totals, 3)
	assert.EqualValues(t, 2, totals[0].(map[string]interface{})["present"])
	assert.EqualValues(t, 1, totals[1].(map[string]interface{})["present"])
	assert.EqualValues(t, 0, totals[2].(map[string]interface{})["present"])
}
