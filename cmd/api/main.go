package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/mercaterra/storefront-backend/api/routes"
	"github.com/mercaterra/storefront-backend/internal/auth"
	"github.com/mercaterra/storefront-backend/internal/identity"
	"github.com/mercaterra/storefront-backend/internal/impersonation"
	"github.com/mercaterra/storefront-backend/internal/products"
	"github.com/mercaterra/storefront-backend/internal/tenancy"
	"github.com/mercaterra/storefront-backend/internal/users"
	"github.com/mercaterra/storefront-backend/internal/vendors"
	"github.com/mercaterra/storefront-backend/pkg/auth/session"
	"github.com/mercaterra/storefront-backend/pkg/config"
	"github.com/mercaterra/storefront-backend/pkg/db"
	"github.com/mercaterra/storefront-backend/pkg/logger"
	"github.com/mercaterra/storefront-backend/pkg/metrics"
	"github.com/mercaterra/storefront-backend/pkg/migrate"
	"github.com/mercaterra/storefront-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sessionStore, err := session.NewStore(redisClient, cfg.Session)
	if err != nil {
		logg.Error(context.Background(), "failed to create session store", err)
		os.Exit(1)
	}

	userRepo := users.NewRepository(dbClient.DB())
	vendorRepo := vendors.NewRepository(dbClient.DB())
	productRepo := products.NewRepository(dbClient.DB())

	loader, err := identity.NewLoader(identity.LoaderParams{
		UserRepo:     userRepo,
		SessionStore: sessionStore,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create identity loader", err)
		os.Exit(1)
	}

	resolver, err := tenancy.NewResolver(tenancy.ResolverParams{
		VendorRepo: vendorRepo,
		Config:     cfg.Tenancy,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create tenant resolver", err)
		os.Exit(1)
	}

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:     userRepo,
		SessionStore: sessionStore,
		JWT:          cfg.JWT,
		Logger:       logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	impersonationService, err := impersonation.NewService(impersonation.ServiceParams{
		UserRepo:     userRepo,
		SessionStore: sessionStore,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create impersonation service", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	access := metrics.NewAccessMetrics(registry)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	id := os.Getenv("DYNO")
	if id == "" {
		id = "local"
	}
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": id,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.RouterParams{
			Config:        cfg,
			Logger:        logg,
			DB:            dbClient,
			Cache:         redisClient,
			RateLimiter:   redisClient,
			Sessions:      sessionStore,
			Loader:        loader,
			Resolver:      resolver,
			Auth:          authService,
			Impersonation: impersonationService,
			Users:         userRepo,
			Vendors:       vendorRepo,
			Products:      productRepo,
			Access:        access,
			Registry:      registry,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
