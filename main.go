// main.go - Hackathon problem selection portal
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hackportal/config"
	"hackportal/database"
	"hackportal/handlers"
	"hackportal/handlers/admin"
	"hackportal/metrics"
	"hackportal/middleware"
	"hackportal/services"
	"hackportal/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const version = "1.0.0"

// portal bundles the services the routes are built from.
type portal struct {
	store      services.Store
	auth       *middleware.Auth
	window     *services.WindowService
	allocation *services.AllocationService
	moderation *services.ModerationService
	problems   *services.ProblemService
	teams      *services.TeamService
	admins     *services.AdminService
}

func main() {
	// Load environment variables
	envErr := godotenv.Load()

	cfg := config.Load()

	log, err := utils.NewLogger(cfg.AppEnv)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if envErr != nil {
		log.Warn(".env file not found, using system environment variables")
	}

	if err := cfg.Validate(); err != nil {
		log.Fatal("invalid configuration", zap.Error(err))
	}
	if cfg.IsProduction() && cfg.CORSOrigins == "http://localhost:5173" {
		log.Warn("CORS_ORIGINS not properly configured for production")
	}

	store, err := openStore(cfg, log)
	if err != nil {
		log.Fatal("failed to open store", zap.Error(err))
	}
	defer database.CloseDB()

	metrics.Register()

	p := newPortal(cfg, store, log)
	p.auth.Start()
	defer p.auth.Stop()

	seedCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := p.admins.EnsureBootstrapAdmin(seedCtx, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		log.Error("failed to seed bootstrap admin", zap.Error(err))
	}
	if err := p.window.SyncMetrics(seedCtx); err != nil {
		log.Error("failed to read selection window state", zap.Error(err))
	}
	cancel()

	app := newApp(cfg, p, log)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		log.Info("shutting down")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Error("shutdown failed", zap.Error(err))
		}
	}()

	log.Info("server starting",
		zap.String("port", cfg.Port),
		zap.String("env", cfg.AppEnv),
		zap.String("store", cfg.StoreDriver),
		zap.String("capacity_mode", cfg.CapacityMode),
	)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatal("failed to start HTTP server", zap.Error(err))
	}
}

func openStore(cfg *config.Config, log *zap.Logger) (services.Store, error) {
	if cfg.StoreDriver == config.DriverMemory {
		log.Warn("using in-memory store; data is lost on restart")
		return services.NewMemoryStore(), nil
	}

	db, err := database.InitDB(cfg.DatabaseURL, cfg.IsProduction(), log)
	if err != nil {
		return nil, err
	}
	return database.NewStore(db), nil
}

func newPortal(cfg *config.Config, store services.Store, log *zap.Logger) *portal {
	window := services.NewWindowService(store, log)
	teams := services.NewTeamService(store, log)

	return &portal{
		store:      store,
		auth:       middleware.NewAuth(cfg.JWTSecret, cfg.TokenTTL, teams, cfg.TeamCacheTTL),
		window:     window,
		allocation: services.NewAllocationService(store, window, cfg.StrictCapacity(), log),
		moderation: services.NewModerationService(store, window, log),
		problems:   services.NewProblemService(store, cfg.DefaultTeamLimit, log),
		teams:      teams,
		admins:     services.NewAdminService(store, log),
	}
}

func newApp(cfg *config.Config, p *portal, log *zap.Logger) *fiber.App {
	handlers.InitHandlers(p.allocation, p.teams, p.auth, cfg.ClaimTimeout, log)
	admin.InitAdminHandlers(admin.Services{
		Admins:     p.admins,
		Problems:   p.problems,
		Teams:      p.teams,
		Window:     p.window,
		Moderation: p.moderation,
		Auth:       p.auth,
	}, log)

	app := fiber.New(fiber.Config{
		ErrorHandler: customErrorHandler(cfg, log),
		BodyLimit:    1 * 1024 * 1024, // 1MB
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${method} ${path} (${latency})\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
	}))
	if cfg.RateLimitEnabled {
		app.Use(middleware.RateLimitMiddleware(cfg.RateLimitMax, cfg.RateLimitWindow))
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":    "healthy",
			"timestamp": time.Now().Unix(),
			"version":   version,
		})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{})))

	api := app.Group("/api")

	loginLimit := func(c *fiber.Ctx) error { return c.Next() }
	if cfg.RateLimitEnabled {
		loginLimit = middleware.AuthRateLimitMiddleware(cfg.AuthRateLimitMax, cfg.AuthRateLimitWindow)
	}

	// Team routes
	api.Post("/auth/team", loginLimit, handlers.TeamLogin)

	teamAuth := p.auth.TeamAuthMiddleware
	api.Get("/board", teamAuth, handlers.GetBoard)
	api.Get("/problems", teamAuth, handlers.GetProblems)
	api.Get("/selection", teamAuth, handlers.GetMySelection)
	api.Post("/selection", teamAuth, handlers.ClaimProblem)
	api.Get("/attendance", teamAuth, handlers.GetAttendance)

	// Admin routes
	api.Post("/admin/login", loginLimit, admin.Login)

	adminGroup := api.Group("/admin", p.auth.AdminAuthMiddleware)
	adminGroup.Get("/verify", admin.VerifyToken)
	adminGroup.Get("/dashboard", admin.GetDashboard)

	adminGroup.Get("/problems", admin.ListProblems)
	adminGroup.Post("/problems", admin.CreateProblem)
	adminGroup.Put("/problems/:id", admin.UpdateProblem)
	adminGroup.Delete("/problems/:id", admin.DeleteProblem)
	adminGroup.Post("/problems/:id/visibility", admin.SetProblemVisibility)

	adminGroup.Get("/teams", admin.ListTeams)
	adminGroup.Post("/teams", admin.CreateTeam)
	adminGroup.Put("/teams/:id", admin.UpdateTeam)
	adminGroup.Delete("/teams/:id", admin.DeleteTeam)
	adminGroup.Post("/teams/:id/active", admin.SetTeamActive)

	adminGroup.Get("/window", admin.GetWindow)
	adminGroup.Post("/window/open", admin.OpenWindow)
	adminGroup.Post("/window/close", admin.CloseWindow)

	adminGroup.Get("/selections", admin.ListSelections)
	adminGroup.Get("/selections/unassigned", admin.ListUnassigned)
	adminGroup.Get("/selections/capacity", admin.ListCapacities)
	adminGroup.Post("/selections/:id/lock", admin.LockSelection)
	adminGroup.Post("/selections/:id/unlock", admin.UnlockSelection)
	adminGroup.Delete("/selections/:id", admin.RemoveSelection)

	// 404 handler
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"error":   "Route not found",
		})
	})

	return app
}

func customErrorHandler(cfg *config.Config, log *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		message := "Internal Server Error"

		var e *fiber.Error
		if errors.As(err, &e) {
			code = e.Code
			message = e.Message
		}

		if code == fiber.StatusInternalServerError {
			log.Error("unhandled error", zap.String("path", c.Path()), zap.Error(err))
			// Don't expose internal errors in production
			if cfg.IsProduction() {
				message = "An error occurred. Please try again later."
			}
		}

		return c.Status(code).JSON(fiber.Map{
			"success": false,
			"error":   message,
		})
	}
}
