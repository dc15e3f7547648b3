// handlers/auth.go - Team login
package handlers

import (
	"errors"
	"strings"

	"hackportal/middleware"
	"hackportal/services"
	"hackportal/utils"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type TeamLoginRequest struct {
	TeamCode string `json:"team_code"`
}

// TeamLogin exchanges a team code for a team token
// POST /api/auth/team
func TeamLogin(c *fiber.Ctx) error {
	var req TeamLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.JSONError(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if strings.TrimSpace(req.TeamCode) == "" {
		return utils.JSONError(c, fiber.StatusBadRequest, "Team code is required")
	}

	team, err := teamService.GetTeamByCode(c.UserContext(), req.TeamCode)
	if errors.Is(err, services.ErrNotFound) {
		return utils.JSONError(c, fiber.StatusUnauthorized, "Invalid team code")
	}
	if err != nil {
		return utils.ServiceError(c, err)
	}

	token, expiresAt, err := auth.IssueTeamToken(team)
	if err != nil {
		log.Error("failed to sign team token", zap.Error(err))
		return utils.JSONError(c, fiber.StatusInternalServerError, "Failed to generate token")
	}

	log.Info("team logged in", zap.String("team_id", team.ID.String()))
	return utils.JSONSuccess(c, fiber.StatusOK, fiber.Map{
		"token":      token,
		"expires_at": expiresAt,
		"team":       team,
		"role":       middleware.RoleTeam,
	})
}
