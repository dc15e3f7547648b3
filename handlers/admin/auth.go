package admin

import (
	"hackportal/middleware"
	"hackportal/utils"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Success   bool   `json:"success"`
	Token     string `json:"token"`
	Email     string `json:"email"`
	ExpiresAt int64  `json:"expires_at"`
}

// Login authenticates an admin user
// POST /api/admin/login
func Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.JSONError(c, fiber.StatusBadRequest, "Invalid request body")
	}

	if req.Email == "" || req.Password == "" {
		return utils.JSONError(c, fiber.StatusBadRequest, "Email and password are required")
	}

	admin, err := svc.Admins.Authenticate(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return utils.ServiceError(c, err)
	}

	token, expiresAt, err := svc.Auth.IssueAdminToken(admin)
	if err != nil {
		log.Error("failed to sign admin token", zap.Error(err))
		return utils.JSONError(c, fiber.StatusInternalServerError, "Failed to generate token")
	}

	log.Info("admin logged in", zap.String("email", admin.Email))
	return c.JSON(LoginResponse{
		Success:   true,
		Token:     token,
		Email:     admin.Email,
		ExpiresAt: expiresAt,
	})
}

// VerifyToken confirms an admin token is still valid. The middleware has
// already checked it.
// GET /api/admin/verify
func VerifyToken(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"success": true,
		"valid":   true,
		"email":   middleware.GetAdminEmail(c),
	})
}
