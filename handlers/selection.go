// handlers/selection.go - Problem board and claiming
package handlers

import (
	"context"
	"errors"

	"hackportal/middleware"
	"hackportal/services"
	"hackportal/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type ClaimRequest struct {
	ProblemID string `json:"problem_id"`
}

// GetBoard returns the window state, the visible problems with capacity and
// the team's own selection
// GET /api/board?q=
func GetBoard(c *fiber.Ctx) error {
	teamID, err := middleware.GetTeamID(c)
	if err != nil {
		return err
	}

	board, err := allocationService.Board(c.UserContext(), teamID, c.Query("q"))
	if err != nil {
		return utils.ServiceError(c, err)
	}
	return utils.JSONSuccess(c, fiber.StatusOK, fiber.Map{"board": board})
}

// GetProblems lists the problems a team can currently choose from
// GET /api/problems?q=
func GetProblems(c *fiber.Ctx) error {
	teamID, err := middleware.GetTeamID(c)
	if err != nil {
		return err
	}

	board, err := allocationService.Board(c.UserContext(), teamID, c.Query("q"))
	if err != nil {
		return utils.ServiceError(c, err)
	}
	return utils.JSONSuccess(c, fiber.StatusOK, fiber.Map{
		"window_open": board.WindowOpen,
		"problems":    board.Problems,
	})
}

// GetMySelection returns the team's selection, or null when it has none
// GET /api/selection
func GetMySelection(c *fiber.Ctx) error {
	teamID, err := middleware.GetTeamID(c)
	if err != nil {
		return err
	}

	sel, err := allocationService.Mine(c.UserContext(), teamID)
	if errors.Is(err, services.ErrNotFound) {
		return utils.JSONSuccess(c, fiber.StatusOK, fiber.Map{"selection": nil})
	}
	if err != nil {
		return utils.ServiceError(c, err)
	}
	return utils.JSONSuccess(c, fiber.StatusOK, fiber.Map{"selection": sel})
}

// ClaimProblem claims a problem for the authenticated team. The team comes
// from the token, never from the body.
// POST /api/selection
func ClaimProblem(c *fiber.Ctx) error {
	teamID, err := middleware.GetTeamID(c)
	if err != nil {
		return err
	}

	var req ClaimRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.JSONError(c, fiber.StatusBadRequest, "Invalid request body")
	}
	problemID, err := uuid.Parse(req.ProblemID)
	if err != nil {
		return utils.JSONError(c, fiber.StatusBadRequest, "Invalid problem_id")
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), claimTimeout)
	defer cancel()

	sel, err := allocationService.Claim(ctx, teamID, problemID)
	if err != nil {
		return utils.ServiceError(c, err)
	}
	return utils.JSONSuccess(c, fiber.StatusCreated, fiber.Map{"selection": sel})
}
