package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/00goop/lets-link/api/controllers"
	"github.com/00goop/lets-link/api/routes"
	"github.com/00goop/lets-link/internal/friends"
	"github.com/00goop/lets-link/internal/memberships"
	"github.com/00goop/lets-link/internal/notifications"
	"github.com/00goop/lets-link/internal/parties"
	"github.com/00goop/lets-link/internal/photos"
	"github.com/00goop/lets-link/internal/polls"
	"github.com/00goop/lets-link/internal/suggestions"
	"github.com/00goop/lets-link/pkg/config"
	"github.com/00goop/lets-link/pkg/db"
	"github.com/00goop/lets-link/pkg/logger"
	"github.com/00goop/lets-link/pkg/metrics"
	"github.com/00goop/lets-link/pkg/migrate"
	"github.com/00goop/lets-link/pkg/outbox"
	"github.com/00goop/lets-link/pkg/places"
	"github.com/00goop/lets-link/pkg/redis"
	"github.com/00goop/lets-link/pkg/storage/gcs"
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

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	gcsClient, err := gcs.NewClient(context.Background(), cfg.GCS, cfg.GCP, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap cloud storage", err)
		os.Exit(1)
	}
	defer func() {
		if err := gcsClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing cloud storage", err)
		}
	}()

	var placesClient *places.Client
	if cfg.Places.APIKey != "" {
		placesClient, err = places.NewClient(
			cfg.Places.APIKey,
			places.WithBaseURL(cfg.Places.BaseURL),
			places.WithTimeout(cfg.Places.RequestTimeout),
		)
		if err != nil {
			logg.Error(context.Background(), "failed to create place search client", err)
			os.Exit(1)
		}
	} else {
		logg.Warn(context.Background(), "place search key unset, suggestions run fallback-only")
	}

	appMetrics := metrics.NewAppMetrics(prometheus.DefaultRegisterer)
	outboxSvc := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)

	notificationsSvc, err := notifications.NewService(notifications.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create notifications service", err)
		os.Exit(1)
	}

	membershipsSvc, err := memberships.NewService(memberships.NewRepository(dbClient.DB()), dbClient, outboxSvc, notificationsSvc, appMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create memberships service", err)
		os.Exit(1)
	}

	partiesSvc, err := parties.NewService(parties.NewRepository(dbClient.DB()), dbClient, outboxSvc, membershipsSvc)
	if err != nil {
		logg.Error(context.Background(), "failed to create parties service", err)
		os.Exit(1)
	}

	pollsSvc, err := polls.NewService(polls.NewRepository(dbClient.DB()), dbClient, outboxSvc, membershipsSvc, notificationsSvc, appMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create polls service", err)
		os.Exit(1)
	}

	var suggestionsSvc suggestions.Service
	if placesClient != nil {
		suggestionsSvc, err = suggestions.NewService(partiesSvc, membershipsSvc, placesClient, redisClient, cfg.Suggestions, logg, appMetrics)
	} else {
		suggestionsSvc, err = suggestions.NewService(partiesSvc, membershipsSvc, nil, redisClient, cfg.Suggestions, logg, appMetrics)
	}
	if err != nil {
		logg.Error(context.Background(), "failed to create suggestions service", err)
		os.Exit(1)
	}

	friendsSvc, err := friends.NewService(friends.NewRepository(dbClient.DB()), dbClient, outboxSvc, notificationsSvc)
	if err != nil {
		logg.Error(context.Background(), "failed to create friends service", err)
		os.Exit(1)
	}

	photosSvc, err := photos.NewService(photos.NewRepository(dbClient.DB()), dbClient, outboxSvc, membershipsSvc, gcsClient, cfg.GCS)
	if err != nil {
		logg.Error(context.Background(), "failed to create photos service", err)
		os.Exit(1)
	}

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

	router := routes.NewRouter(routes.Deps{
		Config: cfg,
		Logger: logg,
		Pingers: map[string]controllers.Pinger{
			"database": dbClient,
			"redis":    redisClient,
			"storage":  gcsClient,
		},
		IdempotencyStore: redisClient,
		Parties:          partiesSvc,
		Memberships:      membershipsSvc,
		Polls:            pollsSvc,
		Suggestions:      suggestionsSvc,
		Friends:          friendsSvc,
		Notifications:    notificationsSvc,
		Photos:           photosSvc,
	})

	server := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
