// handlers/admin/window.go - Selection window control
package admin

import (
	"hackportal/middleware"
	"hackportal/utils"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// GET /api/admin/window
func GetWindow(c *fiber.Ctx) error {
	w, err := svc.Window.State(c.UserContext())
	if err != nil {
		return utils.ServiceError(c, err)
	}
	return utils.JSONSuccess(c, fiber.StatusOK, fiber.Map{"window": w})
}

// POST /api/admin/window/open
func OpenWindow(c *fiber.Ctx) error {
	return setWindow(c, true)
}

// POST /api/admin/window/close
func CloseWindow(c *fiber.Ctx) error {
	return setWindow(c, false)
}

func setWindow(c *fiber.Ctx, open bool) error {
	w, err := svc.Window.Set(c.UserContext(), open)
	if err != nil {
		return utils.ServiceError(c, err)
	}
	log.Info("selection window changed", zap.Bool("open", open), zap.String("by", middleware.GetAdminEmail(c)))
	return utils.JSONSuccess(c, fiber.StatusOK, fiber.Map{"window": w})
}
