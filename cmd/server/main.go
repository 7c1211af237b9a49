/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the Saudi payroll engine server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration (.env, environment, flags)
  2. Build the zap logger
  3. Open the store (SQLite or PostgreSQL) and run migrations
  4. Load payroll rules (defaults, optionally overlaid by RULES_FILE)
  5. Create the export archiver (S3 when configured, else a directory)
  6. Create payroll service, API handler, router and scheduler
  7. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -port    HTTP server port (overrides PORT)
  -db      SQLite database path (overrides DB_PATH)
           Use ":memory:" for in-memory database

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop the scheduler
  2. Stop accepting new connections
  3. Wait for active requests to complete (30s timeout)
  4. Close database connection
  5. Exit

EXAMPLES:
  # Run with file database
  ./server -db="./data/payroll.db"

  # Run against PostgreSQL
  DB_DRIVER=postgres DATABASE_URL=postgres://localhost/payroll ./server

  # Run on different port
  ./server -port=3000

SEE ALSO:
  - config/config.go: Environment variables
  - api/server.go: Router configuration
  - store/sqlite/sqlite.go, store/postgres/postgres.go: Stores
*/
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/warp/payroll-engine/api"
	"github.com/warp/payroll-engine/config"
	"github.com/warp/payroll-engine/export"
	"github.com/warp/payroll-engine/factory"
	"github.com/warp/payroll-engine/payroll"
	"github.com/warp/payroll-engine/store/postgres"
	"github.com/warp/payroll-engine/store/sqlite"
)

// store is what the server needs from either backend.
type store interface {
	payroll.Store
	api.Resetter
	Close() error
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	// Flags
	port := flag.String("port", cfg.App.Port, "HTTP server port")
	dbPath := flag.String("db", cfg.Database.Path, "SQLite database path")
	flag.Parse()
	cfg.App.Port = *port
	cfg.Database.Path = *dbPath

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx := context.Background()

	// Initialize store
	st, err := openStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("initialize database: %w", err)
	}
	defer st.Close()

	rules, err := loadRules(cfg)
	if err != nil {
		return err
	}

	archiver, err := newArchiver(ctx, cfg)
	if err != nil {
		return err
	}

	svc := payroll.NewService(st, rules, logger)
	handler := api.NewHandler(svc, st, archiver, cfg.Payroll.EmployerNumber, logger)

	opts := api.DefaultRouterOptions()
	opts.RateLimitPerMinute = cfg.App.RateLimitPerMinute
	router := api.NewRouter(handler, opts)

	scheduler := api.NewPayrollScheduler(handler)
	scheduler.Enabled = cfg.Scheduler.Enabled
	scheduler.CheckInterval = cfg.Scheduler.Interval
	scheduler.RunDay = cfg.Scheduler.RunDay
	scheduler.Start()

	// Create server
	server := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting",
			zap.String("addr", server.Addr),
			zap.String("env", cfg.App.Environment),
			zap.String("db_driver", cfg.Database.Driver))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-errCh:
		scheduler.Stop()
		return err
	}

	logger.Info("shutting down server")
	scheduler.Stop()

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("server stopped")
	return nil
}

// newLogger returns JSON logs in production and console logs otherwise.
func newLogger(cfg *config.Config) (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(cfg.App.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	zc := zap.NewDevelopmentConfig()
	if cfg.IsProduction() {
		zc = zap.NewProductionConfig()
	}
	zc.Level = level
	return zc.Build()
}

func openStore(ctx context.Context, cfg *config.Config) (store, error) {
	switch cfg.Database.Driver {
	case config.DriverPostgres:
		return postgres.Open(ctx, cfg.Database.URL, postgres.DefaultOptions())
	default:
		return sqlite.New(cfg.Database.Path)
	}
}

func loadRules(cfg *config.Config) (payroll.Rules, error) {
	if cfg.Payroll.RulesFile == "" {
		return payroll.DefaultRules(), nil
	}
	rules, err := factory.NewRulesFactory().LoadFile(cfg.Payroll.RulesFile)
	if err != nil {
		return payroll.Rules{}, fmt.Errorf("load rules %s: %w", cfg.Payroll.RulesFile, err)
	}
	return rules, nil
}

func newArchiver(ctx context.Context, cfg *config.Config) (export.Archiver, error) {
	if cfg.Export.UseS3() {
		return export.NewS3Archiver(ctx, export.S3Options{
			Bucket:    cfg.Export.S3Bucket,
			Region:    cfg.Export.S3Region,
			Endpoint:  cfg.Export.S3Endpoint,
			AccessKey: cfg.Export.S3AccessKey,
			SecretKey: cfg.Export.S3SecretKey,
			Prefix:    "payroll/",
		})
	}
	return export.NewDirArchiver(cfg.Export.Dir)
}
