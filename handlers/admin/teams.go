// handlers/admin/teams.go - Team directory management
package admin

import (
	"hackportal/services"
	"hackportal/utils"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type ActiveRequest struct {
	IsActive bool `json:"is_active"`
}

// GET /api/admin/teams
func ListTeams(c *fiber.Ctx) error {
	teams, err := svc.Teams.ListTeams(c.UserContext())
	if err != nil {
		return utils.ServiceError(c, err)
	}
	return utils.JSONSuccess(c, fiber.StatusOK, fiber.Map{"teams": teams, "count": len(teams)})
}

// POST /api/admin/teams
func CreateTeam(c *fiber.Ctx) error {
	var in services.TeamInput
	if err := c.BodyParser(&in); err != nil {
		return utils.JSONError(c, fiber.StatusBadRequest, "Invalid request body")
	}

	team, err := svc.Teams.CreateTeam(c.UserContext(), in)
	if err != nil {
		return utils.ServiceError(c, err)
	}
	log.Info("team created", zap.String("team_id", team.ID.String()), zap.String("team_code", team.TeamCode))
	return utils.JSONSuccess(c, fiber.StatusCreated, fiber.Map{"team": team})
}

// PUT /api/admin/teams/:id
func UpdateTeam(c *fiber.Ctx) error {
	id, err := utils.ParamUUID(c, "id")
	if err != nil {
		return err
	}

	var in services.TeamInput
	if err := c.BodyParser(&in); err != nil {
		return utils.JSONError(c, fiber.StatusBadRequest, "Invalid request body")
	}

	team, err := svc.Teams.UpdateTeam(c.UserContext(), id, in)
	if err != nil {
		return utils.ServiceError(c, err)
	}
	svc.Auth.Forget(id)
	return utils.JSONSuccess(c, fiber.StatusOK, fiber.Map{"team": team})
}

// POST /api/admin/teams/:id/active
func SetTeamActive(c *fiber.Ctx) error {
	id, err := utils.ParamUUID(c, "id")
	if err != nil {
		return err
	}

	var req ActiveRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.JSONError(c, fiber.StatusBadRequest, "Invalid request body")
	}

	team, err := svc.Teams.SetActive(c.UserContext(), id, req.IsActive)
	if err != nil {
		return utils.ServiceError(c, err)
	}
	svc.Auth.Forget(id)
	return utils.JSONSuccess(c, fiber.StatusOK, fiber.Map{"team": team})
}

// DELETE /api/admin/teams/:id
func DeleteTeam(c *fiber.Ctx) error {
	id, err := utils.ParamUUID(c, "id")
	if err != nil {
		return err
	}

	if err := svc.Teams.DeleteTeam(c.UserContext(), id); err != nil {
		return utils.ServiceError(c, err)
	}
	svc.Auth.Forget(id)
	log.Info("team deleted", zap.String("team_id", id.String()))
	return utils.JSONSuccess(c, fiber.StatusOK, fiber.Map{"message": "Team deleted"})
}
