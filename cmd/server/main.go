// Package main initializes and starts the demand backend server,
// setting up configuration, logging, the database connection,
// repositories, services, handlers, and graceful shutdown.
package main

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	nethttp "net/http"

	"go.uber.org/zap"

	"github.com/chaabi-dev/demandhub/internal/config"
	"github.com/chaabi-dev/demandhub/internal/db"
	"github.com/chaabi-dev/demandhub/internal/logger"
	"github.com/chaabi-dev/demandhub/internal/repository"
	"github.com/chaabi-dev/demandhub/internal/server/handler/http"
	"github.com/chaabi-dev/demandhub/internal/service"
)

var (
	// version holds the build version set via ldflags.
	version string
	// buildDate holds the build timestamp set via ldflags.
	buildDate string
)

func main() {
	// Parse command-line, file, and environment configuration.
	options := config.Parse()

	// Print build metadata (or "N/A" if unset).
	fmt.Printf("Build version: %s\n", cmp.Or(version, "N/A"))
	fmt.Printf("Build date: %s\n", cmp.Or(buildDate, "N/A"))

	// Initialize structured logging.
	log := logger.New()
	defer func() { _ = log.Log.Sync() }()
	if err := log.Init(options.LogLevel); err != nil {
		log.Log.Fatal("failed to init logger", zap.Error(err))
	}
	zapLogger := log.Log

	if options.JWTSecret == "" {
		zapLogger.Fatal("JWT secret is required (flag -secret or JWT_SECRET)")
	}

	// Initialize PostgreSQL connection and schema.
	postgresDB, err := db.InitPostgres(options.DatabaseDSN)
	if err != nil {
		zapLogger.Fatal("cannot init database", zap.Error(err))
	}
	if err := db.SeedDemoUsers(postgresDB); err != nil {
		zapLogger.Fatal("cannot seed users", zap.Error(err))
	}

	// Purge soft-deleted demands past retention.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	db.StartSoftDeleteCleaner(ctx, postgresDB,
		time.Hour,       // interval
		30*24*time.Hour, // retention: 30 days
		zapLogger,
	)

	// Initialize repositories.
	userRepo := repository.NewPostgresUserRepository(postgresDB)
	demandRepo := repository.NewPostgresDemandRepository(postgresDB)

	// Initialize business-logic services.
	authService := service.NewAuthService(userRepo, options.JWTSecret, "demandhub", options.TokenTTL)
	demandService := service.NewDemandService(demandRepo)

	// Create HTTP handlers.
	authHandler := &http.AuthHandler{AuthService: authService, Log: zapLogger}
	demandHandler := &http.DemandHandler{
		Service:   demandService,
		UploadDir: options.UploadDir,
		Log:       zapLogger,
	}

	// Build the router with middleware and routes.
	router := http.NewRouter(authHandler, demandHandler, zapLogger, options.JWTSecret)

	server := &nethttp.Server{
		Addr:    options.Addr,
		Handler: router,
	}

	go func() {
		zapLogger.Info("starting HTTP server", zap.String("addr", options.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
			zapLogger.Error("server stopped", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("shutdown failed", zap.Error(err))
		os.Exit(1)
	}
	zapLogger.Info("server stopped cleanly")
}
