// handlers/admin/problems.go - Problem catalog management
package admin

import (
	"hackportal/services"
	"hackportal/utils"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type VisibilityRequest struct {
	IsVisible bool `json:"is_visible"`
}

// GET /api/admin/problems
func ListProblems(c *fiber.Ctx) error {
	problems, err := svc.Problems.List(c.UserContext())
	if err != nil {
		return utils.ServiceError(c, err)
	}
	return utils.JSONSuccess(c, fiber.StatusOK, fiber.Map{"problems": problems})
}

// POST /api/admin/problems
func CreateProblem(c *fiber.Ctx) error {
	var in services.ProblemInput
	if err := c.BodyParser(&in); err != nil {
		return utils.JSONError(c, fiber.StatusBadRequest, "Invalid request body")
	}

	p, err := svc.Problems.Create(c.UserContext(), in)
	if err != nil {
		return utils.ServiceError(c, err)
	}
	log.Info("problem created", zap.String("problem_id", p.ID.String()), zap.String("title", p.Title))
	return utils.JSONSuccess(c, fiber.StatusCreated, fiber.Map{"problem": p})
}

// PUT /api/admin/problems/:id
func UpdateProblem(c *fiber.Ctx) error {
	id, err := utils.ParamUUID(c, "id")
	if err != nil {
		return err
	}

	var in services.ProblemInput
	if err := c.BodyParser(&in); err != nil {
		return utils.JSONError(c, fiber.StatusBadRequest, "Invalid request body")
	}

	p, err := svc.Problems.Update(c.UserContext(), id, in)
	if err != nil {
		return utils.ServiceError(c, err)
	}
	return utils.JSONSuccess(c, fiber.StatusOK, fiber.Map{"problem": p})
}

// POST /api/admin/problems/:id/visibility
func SetProblemVisibility(c *fiber.Ctx) error {
	id, err := utils.ParamUUID(c, "id")
	if err != nil {
		return err
	}

	var req VisibilityRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.JSONError(c, fiber.StatusBadRequest, "Invalid request body")
	}

	p, err := svc.Problems.SetVisibility(c.UserContext(), id, req.IsVisible)
	if err != nil {
		return utils.ServiceError(c, err)
	}
	return utils.JSONSuccess(c, fiber.StatusOK, fiber.Map{"problem": p})
}

// DELETE /api/admin/problems/:id
func DeleteProblem(c *fiber.Ctx) error {
	id, err := utils.ParamUUID(c, "id")
	if err != nil {
		return err
	}

	if err := svc.Problems.Delete(c.UserContext(), id); err != nil {
		return utils.ServiceError(c, err)
	}
	log.Info("problem deleted", zap.String("problem_id", id.String()))
	return utils.JSONSuccess(c, fiber.StatusOK, fiber.Map{"message": "Problem deleted"})
}
