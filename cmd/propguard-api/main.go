package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m1z23r/drift/pkg/drift"
	"github.com/m1z23r/drift/pkg/middleware"
	"github.com/rcastell/propguard/internal/authcache"
	"github.com/rcastell/propguard/internal/config"
	"github.com/rcastell/propguard/internal/database"
	"github.com/rcastell/propguard/internal/handlers"
	authmw "github.com/rcastell/propguard/internal/middleware"
	"github.com/rcastell/propguard/internal/models"
	"github.com/rcastell/propguard/internal/services"
	"github.com/rs/zerolog"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if !cfg.IsProduction() {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stdout})
	}

	ctx := context.Background()

	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	cache := authcache.New(cfg.AuthzCacheSize, cfg.AuthzCacheTTL)

	jwtService := services.NewJWTService(cfg.JWTSecret, cfg.JWTAccessExpiry)
	userService := services.NewUserService(db)
	reconcilerService := services.NewReconcilerService(db)
	authzService := services.NewAuthzService(db, cache, reconcilerService, logger)
	grantService := services.NewGrantService(db, cache)
	invitationService := services.NewInvitationService(db, authzService, cache, cfg.InviteTTL)
	propertyService := services.NewPropertyService(db, cache)
	unitService := services.NewUnitService(db)
	tenantService := services.NewTenantService(db)
	emailService := services.NewEmailService(cfg.SMTP)

	propertyHandler := handlers.NewPropertyHandler(propertyService, authzService)
	memberHandler := handlers.NewMemberHandler(grantService, userService)
	inviteHandler := handlers.NewInviteHandler(invitationService, propertyService, userService, emailService, cfg.BaseURL)
	unitHandler := handlers.NewUnitHandler(unitService)
	tenantHandler := handlers.NewTenantHandler(tenantService)

	app := drift.New()

	if cfg.IsProduction() {
		app.SetMode(drift.ReleaseMode)
	} else {
		app.SetMode(drift.DebugMode)
	}

	app.Use(middleware.Recovery())
	app.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization"},
		MaxAge:       86400,
	}))
	app.Use(middleware.BodyParser())

	api := app.Group("/api/v1")

	protected := api.Group("")
	protected.Use(authmw.Auth(jwtService, userService))

	protected.Get("/properties", propertyHandler.List)
	protected.Post("/properties", propertyHandler.Create)
	protected.Post("/invites/:token/accept", inviteHandler.Accept)

	// Every property-scoped route passes the enforcement boundary; which
	// permission gates which route follows the matrix.
	viewers := api.Group("")
	viewers.Use(authmw.Auth(jwtService, userService))
	viewers.Use(authmw.RequireAccess(authzService, logger))
	viewers.Get("/properties/:propertyId", propertyHandler.Get)
	viewers.Get("/properties/:propertyId/members", memberHandler.List)
	viewers.Get("/properties/:propertyId/units", unitHandler.List)
	viewers.Get("/properties/:propertyId/tenants", tenantHandler.List)

	editors := api.Group("")
	editors.Use(authmw.Auth(jwtService, userService))
	editors.Use(authmw.RequirePermission(authzService, logger, models.PermEditProperty))
	editors.Patch("/properties/:propertyId", propertyHandler.Update)
	editors.Post("/properties/:propertyId/units", unitHandler.Create)
	editors.Delete("/properties/:propertyId/units/:unitId", unitHandler.Delete)

	tenantManagers := api.Group("")
	tenantManagers.Use(authmw.Auth(jwtService, userService))
	tenantManagers.Use(authmw.RequirePermission(authzService, logger, models.PermManageTenants))
	tenantManagers.Post("/properties/:propertyId/tenants", tenantHandler.Create)
	tenantManagers.Delete("/properties/:propertyId/tenants/:tenantId", tenantHandler.Delete)

	userManagers := api.Group("")
	userManagers.Use(authmw.Auth(jwtService, userService))
	userManagers.Use(authmw.RequirePermission(authzService, logger, models.PermManageUsers))
	userManagers.Delete("/properties/:propertyId", propertyHandler.Delete)
	userManagers.Post("/properties/:propertyId/members", memberHandler.Upsert)
	userManagers.Patch("/properties/:propertyId/members", memberHandler.Upsert)
	userManagers.Delete("/properties/:propertyId/members/:userId", memberHandler.Deactivate)
	userManagers.Get("/properties/:propertyId/invites", inviteHandler.List)
	userManagers.Post("/properties/:propertyId/invites", inviteHandler.Issue)
	userManagers.Delete("/properties/:propertyId/invites/:inviteId", inviteHandler.Revoke)

	api.Get("/health", func(c *drift.Context) {
		_ = c.JSON(200, map[string]string{"status": "ok"})
	})

	// Advisory sweep; Accept checks expiry lazily so nothing depends on it.
	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		for range ticker.C {
			n, err := invitationService.SweepExpired(context.Background())
			if err != nil {
				logger.Error().Err(err).Msg("invitation sweep failed")
				continue
			}
			if n > 0 {
				logger.Info().Int64("expired", n).Msg("swept overdue invitations")
			}
		}
	}()

	go func() {
		addr := fmt.Sprintf(":%s", cfg.Port)
		logger.Info().Str("addr", addr).Msg("server starting")
		if err := app.Run(addr); err != nil {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
}
