package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"wheel-rotation-backend/internal/api"
	"wheel-rotation-backend/internal/db"
	"wheel-rotation-backend/internal/events"
	"wheel-rotation-backend/internal/notification"
	"wheel-rotation-backend/internal/permission"
	"wheel-rotation-backend/internal/reminder"
	"wheel-rotation-backend/internal/store"
	"wheel-rotation-backend/internal/wheel"
)

const shutdownTimeout = 5 * time.Second

func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	gormDB, err := db.Init(&cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	appStore := store.NewGormStore(gormDB)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	granted, err := permission.Bootstrap(ctx, appStore, cfg.Server.Admins)
	if err != nil {
		return err
	}
	if cfg.Server.RequirePermissions && granted == 0 {
		logger.Warn("permissions are enforced but no admins are configured, capabilities can only be granted in the database")
	}

	opts := []wheel.Option{}
	if cfg.Redis.Enabled {
		client := events.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		defer client.Close()
		if err := events.Ping(ctx, client); err != nil {
			logger.Warn("redis is unreachable, rotation events will be dropped until it recovers",
				zap.String("addr", cfg.Redis.Addr), zap.Error(err))
		}
		opts = append(opts, wheel.WithPublisher(events.NewRedisPublisher(client, cfg.Redis.Stream, cfg.Redis.MaxLen)))
		logger.Info("publishing rotation events", zap.String("stream", cfg.Redis.Stream))
	}
	wheels := wheel.NewService(appStore, logger.Named("wheel"), opts...)

	var pool *notification.WorkerPool
	if pushOptions := api.WebPushOptions(cfg.Push); pushOptions != nil {
		pool = notification.NewWorkerPool(cfg.WorkerPool.Size, appStore, pushOptions, logger.Named("notification"))
		pool.Start(ctx)

		scanner := reminder.NewService(cfg.Reminder, appStore, pool, logger.Named("reminder"))
		go scanner.Run(ctx)
	} else {
		logger.Warn("VAPID keys are not configured, due reminders are disabled")
	}

	router := api.NewRouter(api.NewHandler(wheels, appStore, cfg, logger.Named("api")), cfg.Server)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("HTTP server starting", zap.Int("port", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stop:
		logger.Info("shutdown signal received, stopping services", zap.String("signal", sig.String()))
	case err := <-serverErr:
		cancel()
		return fmt.Errorf("HTTP server failed: %w", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("HTTP server shutdown: %w", err)
	}

	cancel()
	if pool != nil {
		pool.Wait()
	}
	if sqlDB, err := gormDB.DB(); err == nil {
		sqlDB.Close()
	}

	logger.Info("server gracefully stopped")
	return nil
}
