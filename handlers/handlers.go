// handlers/handlers.go - Team-facing handler wiring
package handlers

import (
	"time"

	"hackportal/middleware"
	"hackportal/services"

	"go.uber.org/zap"
)

var (
	allocationService *services.AllocationService
	teamService       *services.TeamService
	auth              *middleware.Auth
	claimTimeout      time.Duration
	log               = zap.NewNop()
)

// InitHandlers wires the services the team endpoints use.
func InitHandlers(alloc *services.AllocationService, teams *services.TeamService, a *middleware.Auth, timeout time.Duration, logger *zap.Logger) {
	allocationService = alloc
	teamService = teams
	auth = a
	claimTimeout = timeout
	if claimTimeout <= 0 {
		claimTimeout = 5 * time.Second
	}
	if logger != nil {
		log = logger.Named("handlers")
	}
}
