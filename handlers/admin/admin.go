// handlers/admin/admin.go - Admin handler wiring
package admin

import (
	"hackportal/middleware"
	"hackportal/services"

	"go.uber.org/zap"
)

// Services groups everything the admin endpoints call into.
type Services struct {
	Admins     *services.AdminService
	Problems   *services.ProblemService
	Teams      *services.TeamService
	Window     *services.WindowService
	Moderation *services.ModerationService
	Auth       *middleware.Auth
}

var (
	svc Services
	log = zap.NewNop()
)

// InitAdminHandlers wires the admin endpoints.
func InitAdminHandlers(s Services, logger *zap.Logger) {
	svc = s
	if logger != nil {
		log = logger.Named("admin")
	}
}
