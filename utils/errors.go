// utils/errors.go - Service error to HTTP status mapping
package utils

import (
	"context"
	"errors"
	"strings"

	"hackportal/services"

	"github.com/gofiber/fiber/v2"
)

// StatusFor returns the HTTP status and a machine-readable code for a
// service error.
func StatusFor(err error) (int, string) {
	switch {
	case errors.Is(err, services.ErrWindowClosed):
		return fiber.StatusForbidden, "window_closed"
	case errors.Is(err, services.ErrProblemUnavailable):
		return fiber.StatusNotFound, "problem_unavailable"
	case errors.Is(err, services.ErrProblemFull):
		return fiber.StatusConflict, "problem_full"
	case errors.Is(err, services.ErrAlreadySelected):
		return fiber.StatusConflict, "already_selected"
	case errors.Is(err, services.ErrNotFound):
		return fiber.StatusNotFound, "not_found"
	case errors.Is(err, services.ErrDuplicateTeamCode):
		return fiber.StatusConflict, "duplicate_team_code"
	case errors.Is(err, services.ErrInvalidInput):
		return fiber.StatusBadRequest, "invalid_input"
	case errors.Is(err, services.ErrInvalidCredentials):
		return fiber.StatusUnauthorized, "invalid_credentials"
	case errors.Is(err, services.ErrStorageUnavailable),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return fiber.StatusServiceUnavailable, "storage_unavailable"
	default:
		return fiber.StatusInternalServerError, "internal"
	}
}

// ServiceError writes err using the portal's status mapping. An
// AlreadySelectedError also carries the selection the team holds.
func ServiceError(c *fiber.Ctx, err error) error {
	status, code := StatusFor(err)

	body := fiber.Map{
		"success": false,
		"code":    code,
		"error":   messageFor(err, status),
	}

	var already *services.AlreadySelectedError
	if errors.As(err, &already) && already.Existing != nil {
		body["selection"] = already.Existing
	}

	return c.Status(status).JSON(body)
}

func messageFor(err error, status int) string {
	switch status {
	case fiber.StatusInternalServerError:
		return "Internal Server Error"
	case fiber.StatusServiceUnavailable:
		return "Service temporarily unavailable. Please retry."
	case fiber.StatusBadRequest:
		return strings.TrimPrefix(err.Error(), services.ErrInvalidInput.Error()+": ")
	}
	return err.Error()
}
