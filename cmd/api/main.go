package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/etfuel/etfuel-backend/api/responses"
	"github.com/etfuel/etfuel-backend/api/routes"
	"github.com/etfuel/etfuel-backend/internal/auth"
	"github.com/etfuel/etfuel-backend/internal/drivers"
	"github.com/etfuel/etfuel-backend/internal/identity"
	"github.com/etfuel/etfuel-backend/internal/members"
	"github.com/etfuel/etfuel-backend/internal/reports"
	"github.com/etfuel/etfuel-backend/internal/stations"
	"github.com/etfuel/etfuel-backend/internal/users"
	"github.com/etfuel/etfuel-backend/internal/vehicles"
	"github.com/etfuel/etfuel-backend/pkg/auth/session"
	"github.com/etfuel/etfuel-backend/pkg/config"
	"github.com/etfuel/etfuel-backend/pkg/db"
	"github.com/etfuel/etfuel-backend/pkg/logger"
	"github.com/etfuel/etfuel-backend/pkg/metrics"
	"github.com/etfuel/etfuel-backend/pkg/migrate"
	"github.com/etfuel/etfuel-backend/pkg/outbox"
	"github.com/etfuel/etfuel-backend/pkg/redis"
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

	responses.SetIncludeDetails(!cfg.App.IsProd())

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

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	usersRepo := users.NewRepository(dbClient.DB())
	auditService := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)

	identityService, err := identity.NewService(identity.ServiceParams{
		Repo:     identity.NewRepository(dbClient.DB()),
		JWT:      cfg.JWT,
		Password: cfg.Password,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create identity service", err)
		os.Exit(1)
	}

	authService, err := auth.NewService(auth.ServiceParams{
		Provider: identityService,
		Profiles: usersRepo,
		Sessions: sessionManager,
		Redeem:   redisClient,
		Audit:    auditService,
		Tx:       dbClient,
		JWT:      cfg.JWT,
		Password: cfg.Password,
		BaseURL:  cfg.App.BaseURL,
		Logger:   logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	stationsRepo := stations.NewRepository(dbClient.DB())
	stationsService, err := stations.NewService(stationsRepo, identityService, usersRepo, auditService, dbClient, cfg.Password)
	if err != nil {
		logg.Error(context.Background(), "failed to create stations service", err)
		os.Exit(1)
	}

	driversRepo := drivers.NewRepository(dbClient.DB())
	driversService, err := drivers.NewService(driversRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create drivers service", err)
		os.Exit(1)
	}

	vehiclesService, err := vehicles.NewService(vehicles.NewRepository(dbClient.DB()), driversRepo, identityService, usersRepo, auditService, dbClient, cfg.Password)
	if err != nil {
		logg.Error(context.Background(), "failed to create vehicles service", err)
		os.Exit(1)
	}

	reportsService, err := reports.NewService(reports.NewRepository(dbClient.DB()), stationsRepo, auditService, dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create reports service", err)
		os.Exit(1)
	}

	membersService, err := members.NewService(members.NewRepository(dbClient.DB()), identityService, usersRepo, auditService, dbClient, cfg.Password)
	if err != nil {
		logg.Error(context.Background(), "failed to create members service", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	httpMetrics := metrics.NewHTTPMetrics(registry)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Config:       cfg,
			Logger:       logg,
			DB:           dbClient,
			Redis:        redisClient,
			Sessions:     sessionManager,
			Auth:         authService,
			Stations:     stationsService,
			Vehicles:     vehiclesService,
			Drivers:      driversService,
			Reports:      reportsService,
			Members:      membersService,
			HTTPMetrics:  httpMetrics,
			PromRegistry: registry,
		}),
	}

	shutdownCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-shutdownCtx.Done():
		logg.Info(ctx, "shutdown signal received")
		drainCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(drainCtx); err != nil {
			logg.Error(ctx, "error draining api server", err)
		}
	}

	logg.Info(ctx, "api server stopped")
}
