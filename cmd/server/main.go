// File: cmd/server/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"wecare_donations_backend/internal/config"
	"wecare_donations_backend/internal/platform/database"
	"wecare_donations_backend/internal/platform/logger"
	"wecare_donations_backend/internal/search"
)

func main() {
	if err := newCLI().Run(os.Args); err != nil {
		log.Fatalf("FATAL: %v", err)
	}
}

func newCLI() *cli.App {
	return &cli.App{
		Name:   "wecare",
		Usage:  "WeCare donations backend",
		Action: serve,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the HTTP API (default)",
				Action: serve,
			},
			{
				Name:  "migrate",
				Usage: "apply or roll back database migrations",
				Subcommands: []*cli.Command{
					{
						Name:   database.MigrateUp,
						Usage:  "apply all pending migrations",
						Action: migrate(database.MigrateUp),
					},
					{
						Name:   database.MigrateDown,
						Usage:  "roll back the most recent migration",
						Action: migrate(database.MigrateDown),
					},
				},
			},
			{
				Name:   "sync-search",
				Usage:  "rebuild the donation search index from the database",
				Action: syncSearch,
			},
			{
				Name:   "worker",
				Usage:  "consume donation events from RabbitMQ",
				Action: runWorker,
			},
		},
	}
}

func serve(c *cli.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	if cfg.DBAutoMigrate {
		if err := database.RunMigrations(cfg.MigrationURL(), database.MigrateUp, logger.NewDefaultLogger()); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
	}

	a, cleanup, err := initializeServer(cfg)
	if err != nil {
		return fmt.Errorf("initialize server: %w", err)
	}
	defer cleanup()
	appLogger := a.Logger

	if err := a.Users.EnsureAdmin(c.Context, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		return fmt.Errorf("bootstrap admin account: %w", err)
	}
	if a.Index != nil {
		if err := a.Index.EnsureIndex(c.Context); err != nil {
			appLogger.Error("Failed to create the donations search index", zap.Error(err))
		}
	}

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- a.Server.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-quit:
		appLogger.Info("Received signal, shutting down", zap.String("signal", sig.String()))
	case err := <-serverErr:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ServerTimeout)
	defer cancel()
	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("Server forced to shutdown", zap.Error(err))
		return err
	}
	appLogger.Info("Server shutdown complete")
	return nil
}

func migrate(direction string) cli.ActionFunc {
	return func(c *cli.Context) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load configuration: %w", err)
		}
		appLogger, err := logger.New(cfg)
		if err != nil {
			return fmt.Errorf("initialize logger: %w", err)
		}
		defer func() { _ = appLogger.Sync() }()
		return database.RunMigrations(cfg.MigrationURL(), direction, appLogger)
	}
}

func syncSearch(c *cli.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	deps, cleanup, err := initializeSearchSync(cfg)
	if err != nil {
		return fmt.Errorf("initialize search sync: %w", err)
	}
	defer cleanup()
	if deps.Index == nil {
		return errors.New("ELASTICSEARCH_URL must be set to sync the search index")
	}
	return search.Reindex(c.Context, deps.Index, deps.Donations, deps.Logger)
}

func runWorker(c *cli.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	if cfg.AMQPURL == "" {
		return errors.New("AMQP_URL must be set to run the worker")
	}
	w, cleanup, err := initializeWorker(cfg)
	if err != nil {
		return fmt.Errorf("initialize worker: %w", err)
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := w.Consumer.Run(ctx); err != nil {
		return err
	}
	w.Logger.Info("Worker stopped")
	return nil
}
