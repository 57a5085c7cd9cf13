// main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/ariebrainware/crm-backend/auth"
	"github.com/ariebrainware/crm-backend/config"
	"github.com/ariebrainware/crm-backend/endpoint"
	"github.com/ariebrainware/crm-backend/model"
	"github.com/ariebrainware/crm-backend/util"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
)

func main() {
	// Load the configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Error loading configuration: %v", err)
	}
	// Refuse to start without token signing settings.
	if err := cfg.Validate(); err != nil {
		logrus.Fatalf("Invalid configuration: %v", err)
	}

	logger := util.NewLogger(cfg.LogLevel, cfg.AppEnv == "production")

	db, err := config.ConnectDatabase(cfg)
	if err != nil {
		logger.Fatalf("Error connecting to database: %v", err)
	}
	if err := db.AutoMigrate(model.AllModels()...); err != nil {
		logger.Fatalf("Error migrating database: %v", err)
	}
	if err := model.SeedRoles(db); err != nil {
		logger.Fatalf("Error seeding roles: %v", err)
	}

	security := util.NewSecurityLogger(logger, db)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := auth.NewMetrics(registry)

	geo, err := util.NewGeoLocator(cfg.GeoIPDBPath)
	if err != nil {
		logger.WithError(err).Warn("GeoIP database unavailable, locations will be unknown")
		geo = nil
	}
	defer geo.Close()

	var auditor auth.LoginAuditor = auth.NewGormAuditor(db, geo)
	rdb, err := config.ConnectRedis(cfg)
	if err != nil {
		logger.WithError(err).Warn("Redis unavailable, login attempts will not be published")
	}
	if rdb != nil {
		defer rdb.Close()
		auditor = auth.NewPublishingAuditor(auditor, rdb, logger)
	}

	svc := auth.NewService(auth.ServiceOptions{
		DB:       db,
		Hasher:   util.NewPasswordHasher(cfg.BcryptCost),
		Auditor:  auditor,
		Security: security,
		Metrics:  metrics,
	})

	if cfg.SeedFile != "" {
		created, err := svc.SeedUsersFromFile(context.Background(), cfg.SeedFile)
		if err != nil {
			logger.Fatalf("Error seeding users from %s: %v", cfg.SeedFile, err)
		}
		logger.WithField("created", created).Info("Seeded users")
	}

	tokens, err := auth.NewTokenIssuer(auth.TokenConfig{
		Key:      []byte(cfg.JWTKey),
		Issuer:   cfg.JWTIssuer,
		Audience: cfg.JWTAudience,
	})
	if err != nil {
		logger.Fatalf("Error creating token issuer: %v", err)
	}
	tokens.WithMetrics(metrics)

	// Set Gin mode from config
	gin.SetMode(cfg.GinMode)

	router := endpoint.NewRouter(endpoint.RouterConfig{
		AppName:  cfg.AppName,
		Auth:     svc,
		Tokens:   tokens,
		Security: security,
		Gatherer: registry,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.AppPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.WithField("addr", srv.Addr).Info("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("error starting server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
	}
}
