// Package main provides the audiencesync API server entry point.
package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"audiencesync/config"
	_ "audiencesync/docs"
	"audiencesync/internal/adapters/auth"
	"audiencesync/internal/adapters/email"
	"audiencesync/internal/adapters/mailchimp"
	delivery "audiencesync/internal/delivery/http"
	"audiencesync/internal/delivery/http/controllers"
	"audiencesync/internal/delivery/http/middleware"
	"audiencesync/internal/repository/postgres"
	"audiencesync/internal/services"
)

const (
	serviceTimeout  = 10 * time.Second
	tokenExpiry     = 24 * time.Hour
	shutdownTimeout = 10 * time.Second
)

// @title audiencesync API
// @version 1.0
// @description Syncs store subscribers and tags with a MailChimp audience.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "err", err)
		os.Exit(1)
	}
	logger := config.NewLogger(cfg)

	db, err := sql.Open("postgres", cfg.DBUrl)
	if err != nil {
		logger.Error("failed to open database", "err", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		logger.Error("failed to reach database", "err", err)
		os.Exit(1)
	}

	// Marketing platform gateway
	api := mailchimp.NewClient(cfg.Mailchimp.APIURL, cfg.Mailchimp.APIKey, &http.Client{
		Timeout: cfg.HTTPTimeout,
	})
	list := services.NewListGateway(api, logger, cfg.Mailchimp.ListName, cfg.Mailchimp.SegmentName, cfg.Mailchimp.ListID)

	mailer, err := email.NewMailer(email.MailerConfig{
		Provider:    cfg.Email.Provider,
		FromAddress: cfg.Email.FromAddress,
		FromName:    cfg.Email.FromName,
		SES: email.SESConfig{
			Region:          cfg.Email.SESRegion,
			AccessKeyID:     cfg.Email.SESAccessKeyID,
			SecretAccessKey: cfg.Email.SESSecretAccess,
		},
	}, logger)
	if err != nil {
		logger.Error("failed to create mailer", "err", err)
		os.Exit(1)
	}

	// Repositories and services
	tagRepo := postgres.NewTagRepository(db)
	userRepo := postgres.NewUserRepository(db)
	tagService := services.NewTagService(tagRepo, list, mailer, cfg.Email.AlertEmail, logger, serviceTimeout)

	jwt := auth.NewJWT(cfg.JWTSecret)
	hasher := auth.NewBcryptHasher(0)
	authService := services.NewAuthService(userRepo, hasher, jwt, tokenExpiry)

	// HTTP delivery
	tagController := controllers.NewTagController(logger, tagService)
	subscriberController := controllers.NewSubscriberController(logger, list)
	authController := controllers.NewAuthController(logger, authService)

	mux := delivery.NewRouter(tagController, subscriberController, authController, jwt)
	handler := middleware.CORS(cfg.CORSOrigins, middleware.Logging(logger, mux))

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		logger.Info("server listening", "port", cfg.Port, "env", cfg.Environment)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "err", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("graceful shutdown failed", "err", err)
	}
}
