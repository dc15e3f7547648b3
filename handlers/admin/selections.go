// handlers/admin/selections.go - Selection moderation
package admin

import (
	"hackportal/middleware"
	"hackportal/utils"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// GET /api/admin/selections?limit=
func ListSelections(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 0)
	if limit < 0 {
		return utils.JSONError(c, fiber.StatusBadRequest, "limit must not be negative")
	}

	sels, err := svc.Moderation.Selections(c.UserContext(), limit)
	if err != nil {
		return utils.ServiceError(c, err)
	}
	return utils.JSONSuccess(c, fiber.StatusOK, fiber.Map{"selections": sels, "count": len(sels)})
}

// GET /api/admin/selections/unassigned
func ListUnassigned(c *fiber.Ctx) error {
	teams, err := svc.Moderation.Unassigned(c.UserContext())
	if err != nil {
		return utils.ServiceError(c, err)
	}
	return utils.JSONSuccess(c, fiber.StatusOK, fiber.Map{"teams": teams, "count": len(teams)})
}

// GET /api/admin/selections/capacity
func ListCapacities(c *fiber.Ctx) error {
	caps, err := svc.Moderation.Capacities(c.UserContext())
	if err != nil {
		return utils.ServiceError(c, err)
	}
	return utils.JSONSuccess(c, fiber.StatusOK, fiber.Map{"problems": caps})
}

// POST /api/admin/selections/:id/lock
func LockSelection(c *fiber.Ctx) error {
	id, err := utils.ParamUUID(c, "id")
	if err != nil {
		return err
	}

	sel, err := svc.Moderation.Lock(c.UserContext(), id)
	if err != nil {
		return utils.ServiceError(c, err)
	}
	log.Info("selection locked", zap.String("selection_id", id.String()), zap.String("by", middleware.GetAdminEmail(c)))
	return utils.JSONSuccess(c, fiber.StatusOK, fiber.Map{"selection": sel})
}

// POST /api/admin/selections/:id/unlock
func UnlockSelection(c *fiber.Ctx) error {
	id, err := utils.ParamUUID(c, "id")
	if err != nil {
		return err
	}

	sel, err := svc.Moderation.Unlock(c.UserContext(), id)
	if err != nil {
		return utils.ServiceError(c, err)
	}
	log.Info("selection unlocked", zap.String("selection_id", id.String()), zap.String("by", middleware.GetAdminEmail(c)))
	return utils.JSONSuccess(c, fiber.StatusOK, fiber.Map{"selection": sel})
}

// DELETE /api/admin/selections/:id
func RemoveSelection(c *fiber.Ctx) error {
	id, err := utils.ParamUUID(c, "id")
	if err != nil {
		return err
	}

	if err := svc.Moderation.Remove(c.UserContext(), id); err != nil {
		return utils.ServiceError(c, err)
	}
	log.Info("selection removed", zap.String("selection_id", id.String()), zap.String("by", middleware.GetAdminEmail(c)))
	return utils.JSONSuccess(c, fiber.StatusOK, fiber.Map{"message": "Selection removed"})
}
