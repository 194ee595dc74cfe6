package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "equipment-rental-backend/internal/api/http"
	"equipment-rental-backend/internal/cache"
	"equipment-rental-backend/internal/config"
	"equipment-rental-backend/internal/logger"
	"equipment-rental-backend/internal/repository/postgres"
	"equipment-rental-backend/internal/security"
	"equipment-rental-backend/internal/service"
	"equipment-rental-backend/internal/utils"

	_ "github.com/lib/pq"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	migrate := flag.Bool("migrate", false, "Apply the database schema before serving")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting Equipment Rental Backend...", "log_level", cfg.Log.Level, "log_format", cfg.Log.Format)
	logger.Info("Server configuration", "address", cfg.GetServerAddress())
	logger.Info("Database configuration", "host", cfg.Database.Host, "port", cfg.Database.Port, "database", cfg.Database.Database, "user", cfg.Database.User)

	// Initialize Database
	logger.Debug("Connecting to database...", "connection_string", fmt.Sprintf("%s@%s:%d/%s", cfg.Database.User, cfg.Database.Host, cfg.Database.Port, cfg.Database.Database))
	db, err := sql.Open("postgres", cfg.GetDatabaseConnectionString())
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	if cfg.Database.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	}

	// Test database connection
	if err := db.Ping(); err != nil {
		logger.Error("Failed to ping database", "error", err)
		log.Fatalf("Failed to ping database: %v", err)
	}
	logger.Info("Database connection established")

	store := postgres.NewStore(db)
	if *migrate {
		if err := store.Migrate(context.Background()); err != nil {
			log.Fatalf("Failed to migrate database: %v", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Activity log queue outlives request contexts and drains on shutdown
	queueCtx, stopQueue := context.WithCancel(context.Background())
	activity := service.NewActivityQueue(store.Activities, cfg.Activity.Workers, cfg.Activity.QueueSize, cfg.Activity.MaxRetries)
	activity.Start(queueCtx)

	// Initialize Services
	plans := make(map[string]service.PlanPolicy, len(cfg.Plans))
	for name, p := range cfg.Plans {
		plans[name] = service.PlanPolicy{MaxBookingsPerMonth: p.MaxBookingsPerMonth, UpgradeURL: p.UpgradeURL}
	}
	ledger := service.NewStockLedger()
	availability := service.NewAvailabilityChecker()
	planChecker := service.NewPlanLimitChecker(store.Tenants, store.Bookings, plans)

	bookingSvc := service.NewBookingService(store.Repositories, store, ledger, availability,
		utils.NewDailyPricing(), planChecker, activity, cfg.Stock.RecentMovementsLimit)
	returnSvc := service.NewReturnService(store.Repositories, store, ledger, activity)
	stockSvc := service.NewStockService(store.Repositories, store, ledger, availability, activity, cfg.Stock.RecentMovementsLimit)

	// Initialize Security and idempotency store
	tokenManager := security.NewTokenManager(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.AccessTokenTTL())
	redisClient := cache.NewRedisClient(cfg.Redis)
	if redisClient != nil {
		defer redisClient.Close()
	}

	router := httpapi.NewRouter(httpapi.RouterDeps{
		Bookings:       bookingSvc,
		Returns:        returnSvc,
		Stock:          stockSvc,
		Tokens:         tokenManager,
		Idempotency:    cache.NewIdempotencyStore(redisClient),
		IdempotencyTTL: cfg.IdempotencyTTL(),
		DB:             store,
		CorsOrigins:    cfg.Server.CorsAllowedOrigins,
	})

	srv := &http.Server{
		Addr:         cfg.GetServerAddress(),
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSeconds) * time.Second,
	}

	go func() {
		logger.Info("HTTP server listening", "address", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed", "error", err)
	}

	stopQueue()
	activity.Wait()
	logger.Info("Server stopped")
}
