// handlers/attendance.go - Team roster attendance
package handlers

import (
	"hackportal/middleware"
	"hackportal/utils"

	"github.com/gofiber/fiber/v2"
)

// GetAttendance returns the team's own roster with per-round attendance
// GET /api/attendance
func GetAttendance(c *fiber.Ctx) error {
	teamID, err := middleware.GetTeamID(c)
	if err != nil {
		return err
	}

	attendance, err := teamService.Attendance(c.UserContext(), teamID)
	if err != nil {
		return utils.ServiceError(c, err)
	}
	return utils.JSONSuccess(c, fiber.StatusOK, fiber.Map{"attendance": attendance})
}
