// handlers/admin/dashboard.go - Admin overview and capacity report
package admin

import (
	"hackportal/utils"

	"github.com/gofiber/fiber/v2"
)

// GET /api/admin/dashboard
func GetDashboard(c *fiber.Ctx) error {
	d, err := svc.Moderation.Dashboard(c.UserContext())
	if err != nil {
		return utils.ServiceError(c, err)
	}
	return utils.JSONSuccess(c, fiber.StatusOK, fiber.Map{"dashboard": d})
}
