// middleware/auth.go - JWT issuing and verification for teams and admins
package middleware

import (
	"context"
	"errors"
	"strings"
	"time"

	"hackportal/models"
	"hackportal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jellydator/ttlcache/v3"
)

const (
	RoleTeam  = "team"
	RoleAdmin = "admin"
)

// Locals keys
const (
	localTeamID   = "teamId"
	localTeamName = "teamName"
	localAdminID  = "adminId"
	localEmail    = "email"
)

var (
	errMissingToken = errors.New("missing bearer token")
	errInvalidToken = errors.New("invalid or expired token")
)

// TeamLookup resolves a team for the active check.
type TeamLookup interface {
	GetTeam(ctx context.Context, id uuid.UUID) (*models.Team, error)
}

// Auth signs and verifies portal tokens. Team activity is cached for a short
// TTL so deactivating a team takes effect without a lookup on every request.
type Auth struct {
	secret []byte
	ttl    time.Duration
	teams  TeamLookup
	active *ttlcache.Cache[uuid.UUID, bool]
}

func NewAuth(secret string, ttl time.Duration, teams TeamLookup, cacheTTL time.Duration) *Auth {
	return &Auth{
		secret: []byte(secret),
		ttl:    ttl,
		teams:  teams,
		active: ttlcache.New(
			ttlcache.WithTTL[uuid.UUID, bool](cacheTTL),
		),
	}
}

// Start runs the cache's expiry loop until Stop is called.
func (a *Auth) Start() { a.active.Start() }

func (a *Auth) Stop() { a.active.Stop() }

// Forget drops the cached active flag for a team.
func (a *Auth) Forget(teamID uuid.UUID) {
	a.active.Delete(teamID)
}

// IssueTeamToken creates a JWT for a logged-in team.
func (a *Auth) IssueTeamToken(team *models.Team) (string, int64, error) {
	now := time.Now()
	expiresAt := now.Add(a.ttl).Unix()

	claims := jwt.MapClaims{
		"team_id":   team.ID.String(),
		"team_name": team.Name,
		"role":      RoleTeam,
		"exp":       expiresAt,
		"iat":       now.Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", 0, err
	}
	return token, expiresAt, nil
}

// IssueAdminToken creates a JWT for an admin.
func (a *Auth) IssueAdminToken(admin *models.Admin) (string, int64, error) {
	now := time.Now()
	expiresAt := now.Add(a.ttl).Unix()

	claims := jwt.MapClaims{
		"admin_id": admin.ID,
		"email":    admin.Email,
		"role":     RoleAdmin,
		"exp":      expiresAt,
		"iat":      now.Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", 0, err
	}
	return token, expiresAt, nil
}

// Parse verifies the signature and expiry of a token and returns its claims.
func (a *Auth) Parse(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return a.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return nil, errInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errInvalidToken
	}
	return claims, nil
}

func bearerToken(c *fiber.Ctx) (string, error) {
	parts := strings.Fields(c.Get(fiber.HeaderAuthorization))
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", errMissingToken
	}
	return parts[1], nil
}

func (a *Auth) claimsFor(c *fiber.Ctx, role string) (jwt.MapClaims, error) {
	tokenString, err := bearerToken(c)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusUnauthorized, "Missing or malformed authorization header")
	}
	claims, err := a.Parse(tokenString)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid or expired token")
	}
	if r, _ := claims["role"].(string); r != role {
		return nil, fiber.NewError(fiber.StatusForbidden, "Access denied")
	}
	return claims, nil
}

// TeamAuthMiddleware admits requests carrying a valid team token for a team
// that is still active.
func (a *Auth) TeamAuthMiddleware(c *fiber.Ctx) error {
	claims, err := a.claimsFor(c, RoleTeam)
	if err != nil {
		return deny(c, err)
	}

	raw, _ := claims["team_id"].(string)
	teamID, err := uuid.Parse(raw)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"success": false, "error": "Invalid token claims"})
	}

	active, err := a.teamActive(c.UserContext(), teamID)
	if err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"success": false, "error": "Unable to verify team"})
	}
	if !active {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"success": false, "error": "Team is not active"})
	}

	c.Locals(localTeamID, teamID)
	c.Locals(localTeamName, claims["team_name"])
	return c.Next()
}

// AdminAuthMiddleware admits requests carrying a valid admin token.
func (a *Auth) AdminAuthMiddleware(c *fiber.Ctx) error {
	claims, err := a.claimsFor(c, RoleAdmin)
	if err != nil {
		return deny(c, err)
	}

	c.Locals(localAdminID, claims["admin_id"])
	c.Locals(localEmail, claims["email"])
	return c.Next()
}

func (a *Auth) teamActive(ctx context.Context, teamID uuid.UUID) (bool, error) {
	if item := a.active.Get(teamID); item != nil {
		return item.Value(), nil
	}

	team, err := a.teams.GetTeam(ctx, teamID)
	if err != nil {
		// A deleted team is simply not active.
		if errors.Is(err, services.ErrNotFound) {
			a.active.Set(teamID, false, ttlcache.DefaultTTL)
			return false, nil
		}
		return false, err
	}

	active := team.IsActive && !team.IsReserved()
	a.active.Set(teamID, active, ttlcache.DefaultTTL)
	return active, nil
}

func deny(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(fiber.Map{"success": false, "error": fe.Message})
	}
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"success": false, "error": err.Error()})
}

// GetTeamID returns the authenticated team's id.
func GetTeamID(c *fiber.Ctx) (uuid.UUID, error) {
	id, ok := c.Locals(localTeamID).(uuid.UUID)
	if !ok || id == uuid.Nil {
		return uuid.Nil, fiber.NewError(fiber.StatusUnauthorized, "Team not authenticated")
	}
	return id, nil
}

func GetAdminEmail(c *fiber.Ctx) string {
	email, _ := c.Locals(localEmail).(string)
	return email
}
