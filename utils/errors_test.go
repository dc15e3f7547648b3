package utils

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"testing"

	"hackportal/models"
	"hackportal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{services.ErrWindowClosed, fiber.StatusForbidden, "window_closed"},
		{services.ErrProblemUnavailable, fiber.StatusNotFound, "problem_unavailable"},
		{services.ErrProblemFull, fiber.StatusConflict, "problem_full"},
		{&services.AlreadySelectedError{}, fiber.StatusConflict, "already_selected"},
		{services.Unavailable("get", errors.New("eof")), fiber.StatusServiceUnavailable, "storage_unavailable"},
		{fmt.Errorf("claim: %w", context.DeadlineExceeded), fiber.StatusServiceUnavailable, "storage_unavailable"},
		{services.ErrNotFound, fiber.StatusNotFound, "not_found"},
		{services.ErrInvalidCredentials, fiber.StatusUnauthorized, "invalid_credentials"},
		{errors.New("boom"), fiber.StatusInternalServerError, "internal"},
	}
	for _, tt := range tests {
		status, code := StatusFor(tt.err)
		assert.Equal(t, tt.status, status, tt.err.Error())
		assert.Equal(t, tt.code, code, tt.err.Error())
	}
}

func TestServiceErrorIncludesExistingSelection(t *testing.T) {
	existing := &models.Selection{ID: uuid.New(), TeamID: uuid.New(), ProblemID: uuid.New(), IsLocked: true}

	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		return ServiceError(c, &services.AlreadySelectedError{Existing: existing})
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var body struct {
		Success   bool              `json:"success"`
		Code      string            `json:"code"`
		Selection *models.Selection `json:"selection"`
	}
	require.NoError(t, json.Unmarshal(raw, &body))
	assert.False(t, body.Success)
	assert.Equal(t, "already_selected", body.Code)
	require.NotNil(t, body.Selection)
	assert.Equal(t, existing.ID, body.Selection.ID)
}
