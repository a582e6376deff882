package app

import (
	"context"

	"vitamend-backend/internal/audit"
	"vitamend-backend/internal/auth"
	"vitamend-backend/internal/config"
	"vitamend-backend/internal/constants"
	"vitamend-backend/internal/donations"
	"vitamend-backend/internal/health"
	"vitamend-backend/internal/infrastructure/database"
	"vitamend-backend/internal/inventory"
	"vitamend-backend/internal/middleware"
	"vitamend-backend/internal/reservations"
	"vitamend-backend/internal/users"
	"vitamend-backend/internal/volunteer"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type gormDBPinger struct {
	db *gorm.DB
}

func (g *gormDBPinger) Ping() error {
	if g == nil || g.db == nil {
		return nil
	}
	sqlDB, err := g.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

// CreateApp builds the Fiber app with all global middleware and route
// registration. Returns the DB and Redis handles so the entrypoint can ping
// them and start background work.
func CreateApp(cfg *config.Config) (*fiber.App, *gorm.DB, *redis.Client, error) {
	app := fiber.New(fiber.Config{
		DisableStartupMessage:   true,
		ErrorHandler:            middleware.ErrorHandler,
		EnableTrustedProxyCheck: true,
	})

	// CORS (before session)
	app.Use(middleware.CORS(middleware.CORSConfig{
		AllowedSuffix: cfg.FrontendURLEndsWith,
		DevPassword:   cfg.CORSDevPassword,
	}))

	// Session (Redis)
	sessionCfg := middleware.SessionConfig{
		Secret:            cfg.SessionSecret,
		RedisURL:          cfg.RedisURL,
		AllowCrossSiteDev: cfg.AllowCrossSiteDev,
		IsProduction:      cfg.Env == "production",
	}
	sessionHandler, rdb, err := middleware.Session(sessionCfg)
	if err != nil {
		return nil, nil, nil, err
	}
	app.Use(sessionHandler)

	// Health request marker (after session)
	app.Use(middleware.HealthMarker(rdb))

	// Tracing + route logger
	app.Use(middleware.Tracing())
	app.Use(middleware.RouteLogger())

	var db *gorm.DB
	if cfg.DatabaseURL != "" {
		db, err = database.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, nil, nil, err
		}
	}

	// Health endpoints (no auth)
	healthHandlers := &health.Handlers{
		Rdb:            rdb,
		DB:             &gormDBPinger{db: db},
		HealthAdminKey: cfg.HealthAdminKey,
	}
	app.Get("/", healthHandlers.Dashboard)
	app.Get("/health/json", healthHandlers.JSON)
	app.Get("/health/reset", healthHandlers.Reset)

	// Auth (no auth middleware): POST login, GET me, DELETE logout
	var userFinder auth.UserFinder
	if db != nil {
		userFinder = &auth.GormUserFinder{DB: db}
	}
	authHandlers := &auth.Handlers{
		UserFinder: userFinder,
		Rdb:        rdb,
		Config:     sessionCfg,
	}
	authGroup := app.Group("/api/v1/auth")
	authGroup.Post("/login", authHandlers.Login)
	authGroup.Get("/me", authHandlers.Me)
	authGroup.Delete("/logout", authHandlers.Logout)

	// --- Protected modules (auth required) ---
	if db != nil && rdb != nil {
		auditService := &audit.Service{DB: db}
		store := &donations.Store{DB: db}

		writeLimiter := middleware.RateLimit(middleware.RateLimitConfig{
			Window: cfg.RateLimitWindow,
			Max:    cfg.RateLimitMax,
		})

		// Donations module
		donationService := &donations.Service{
			Store:     store,
			Audit:     auditService,
			CreditCap: cfg.CreditCapPerItem,
		}
		donationHandlers := &donations.Handlers{Service: donationService, Audit: auditService}
		donationGroup := app.Group("/api/v1/donations", middleware.RequireAuth())
		donationGroup.Post("/", writeLimiter,
			middleware.AuthorizePermission(constants.SubmitDonation, auditService), donationHandlers.Submit)
		donationGroup.Get("/",
			middleware.AuthorizePermission(constants.ViewOwnDonations, auditService), donationHandlers.ListOwn)
		donationGroup.Post("/:id/verify",
			middleware.AuthorizePermission(constants.VerifyDonation, auditService), donationHandlers.Verify)
		donationGroup.Post("/:id/transition",
			middleware.AuthorizePermission(constants.MarkCollected, auditService), donationHandlers.Transition)

		// NGO module: inventory browsing + reservations
		inventoryService := &inventory.Service{Store: store}
		inventoryHandlers := &inventory.Handlers{Service: inventoryService}
		reservationService := &reservations.Service{
			Store: store,
			Audit: auditService,
			TTL:   cfg.ReservationTTL,
		}
		reservationHandlers := &reservations.Handlers{Service: reservationService}
		ngoGroup := app.Group("/api/v1/ngo", middleware.RequireAuth())
		ngoGroup.Get("/available-medicines",
			middleware.AuthorizePermission(constants.BrowseInventory, auditService), inventoryHandlers.Available)
		ngoGroup.Post("/reservations",
			middleware.AuthorizePermission(constants.ReserveDonation, auditService), reservationHandlers.Reserve)
		ngoGroup.Delete("/reservations/:donationId",
			middleware.AuthorizePermission(constants.ReleaseDonation, auditService), reservationHandlers.Release)

		// Volunteer module
		volunteerService := &volunteer.Service{DB: db, Audit: auditService}
		volunteerHandlers := &volunteer.Handlers{Service: volunteerService}
		app.Post("/api/v1/volunteer", middleware.RequireAuth(), writeLimiter,
			middleware.AuthorizePermission(constants.ApplyVolunteer, auditService), volunteerHandlers.Apply)

		// Users module
		userService := &users.Service{DB: db, Audit: auditService}
		userHandlers := &users.Handlers{Service: userService}
		userGroup := app.Group("/api/v1/users", middleware.RequireAuth())
		userGroup.Get("/:id", userHandlers.View)
		userGroup.Patch("/role",
			middleware.AuthorizePermission(constants.AssignRole, auditService), userHandlers.ChangeRole)

		// Audit module (admin only)
		auditHandlers := &audit.Handlers{Service: auditService}
		app.Get("/api/v1/audit", middleware.RequireAuth(),
			middleware.AuthorizePermission(constants.QueryAuditLog, auditService), auditHandlers.Query)
	}

	return app, db, rdb, nil
}

// StartSweeper launches the reservation TTL sweeper. The returned cancel
// stops it.
func StartSweeper(db *gorm.DB, cfg *config.Config) context.CancelFunc {
	ctx, cancel := context.WithCancel(context.Background())
	sweeper := &reservations.Sweeper{
		Service: &reservations.Service{
			Store: &donations.Store{DB: db},
			Audit: &audit.Service{DB: db},
			TTL:   cfg.ReservationTTL,
		},
		Interval: cfg.ReservationSweepEvery,
	}
	go sweeper.Run(ctx)
	return cancel
}
