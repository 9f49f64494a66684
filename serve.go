package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"arkive/archiver"
	"arkive/config"
	"arkive/database"
	"arkive/handlers"
	"arkive/lock"
	"arkive/logger"
	"arkive/storage"
	"arkive/wayback"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(cmd.Context(), cfg)
	},
}

func init() {
	serveCmd.Flags().Int("port", 0, "Port to listen on (env ARKIVE_PORT)")
}

func openDB(cfg *config.Config) (*gorm.DB, error) {
	level := gormlogger.Warn
	if cfg.LogLevel == "debug" {
		level = gormlogger.Info
	}
	return database.Open(cfg.DBPath, logger.NewGormLogger(level, cfg.SlowQuery), logger.Base())
}

// newApp wires the store, provider, optional lock and routes into a fiber app.
func newApp(ctx context.Context, cfg *config.Config, db *gorm.DB) (*fiber.App, func(), error) {
	log := logger.Base()
	cleanup := func() {}

	store := storage.NewStore(db)
	provider, err := wayback.NewClient(cfg.WaybackEndpoint, cfg.ProviderTimeout)
	if err != nil {
		return nil, cleanup, err
	}

	submitter := archiver.NewSubmitter(store, provider, archiver.Config{
		ClientIdentity: cfg.UserAgent,
		Timeout:        cfg.ProviderTimeout,
	})
	if cfg.RedisAddr != "" {
		rdb, err := lock.NewClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, cleanup, err
		}
		cleanup = func() { _ = rdb.Close() }
		submitter.WithLocker(lock.NewRedisLocker(rdb, cfg.LockTTL))
		log.Info("submission lock enabled", zap.String("redis_addr", cfg.RedisAddr))
	}

	service := archiver.NewService(archiver.NewClassifier(store), submitter)

	app := fiber.New(fiber.Config{
		AppName:               "arkive",
		ErrorHandler:          handlers.ErrorHandler,
		DisableStartupMessage: true,
		// The provider call can take minutes; the write timeout must cover it.
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.ProviderTimeout + 10*time.Second,
	})
	handlers.SetupRoutes(app, handlers.NewHandler(service, store))
	return app, cleanup, nil
}

func serve(ctx context.Context, cfg *config.Config) error {
	log := logger.Base()

	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer database.Close(db)

	app, cleanup, err := newApp(ctx, cfg, db)
	if err != nil {
		return err
	}
	defer cleanup()

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting server", zap.String("addr", cfg.Addr()))
		errCh <- app.Listen(cfg.Addr())
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("server stopped: %w", err)
		}
		return nil
	case sig := <-sigCh:
		log.Info("shutting down", zap.String("signal", sig.String()))
		return app.ShutdownWithTimeout(30 * time.Second)
	}
}
