package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rakannimer/talk/internal/api"
	"github.com/rakannimer/talk/internal/config"
	"github.com/rakannimer/talk/internal/database"
	"github.com/rakannimer/talk/internal/events"
	"github.com/rakannimer/talk/internal/notify/slack"
	"github.com/rakannimer/talk/internal/notify/webhook"
	"github.com/rakannimer/talk/internal/repository"
	"github.com/rakannimer/talk/internal/secrets"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	logger := config.NewLogger(cfg.Environment)
	slog.SetDefault(logger)

	logger.Info("starting Talk notifications API",
		slog.String("environment", cfg.Environment),
		slog.Int("port", cfg.Port),
	)

	// Connect to database
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := database.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	// Repositories and services
	tenantRepo := repository.NewTenantRepository(pool)
	endpointRepo := repository.NewEndpointRepository(pool)
	ssoKeyRepo := repository.NewSSOKeyRepository(pool)
	entityRepo := repository.NewEntityRepository(pool)
	secretsService := secrets.NewService(endpointRepo, ssoKeyRepo, logger)

	// Outbound notification listeners
	client := &http.Client{Timeout: cfg.DeliveryTimeout}
	broker := events.NewBroker(logger)
	if err := broker.Register(slack.NewListener(client, cfg.OrganizationURL)); err != nil {
		return fmt.Errorf("failed to register slack listener: %w", err)
	}
	if err := broker.Register(webhook.NewListener(client)); err != nil {
		return fmt.Errorf("failed to register webhook listener: %w", err)
	}

	// Setup router
	router := api.NewRouter(logger, &api.Dependencies{
		TenantRepo:   tenantRepo,
		EndpointRepo: endpointRepo,
		SSOKeyRepo:   ssoKeyRepo,
		EntityRepo:   entityRepo,
		Secrets:      secretsService,
		Broker:       broker,
		DB:           pool,
	})
	router.Setup()

	// Start server in goroutine
	errChan := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Port)
		logger.Info("server listening", slog.String("addr", addr))
		if err := router.Listen(addr); err != nil {
			errChan <- err
		}
	}()

	// Wait for shutdown signal or error
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	}

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logger.Info("shutting down server...")
	if err := router.Shutdown(); err != nil {
		logger.Error("shutdown error", slog.Any("error", err))
	}

	<-shutdownCtx.Done()
	logger.Info("server stopped")

	return nil
}
