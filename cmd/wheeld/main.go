package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"wheel-rotation-backend/config"
	"wheel-rotation-backend/internal/db"
	"wheel-rotation-backend/internal/logging"
)

const serviceName = "wheel-rotation-backend"

var configPath string

var rootCmd = &cobra.Command{
	Use:           "wheeld",
	Short:         "Wheel rotation scheduling backend",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd, args)
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the reminder scanner",
	RunE:  runServe,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema and exit",
	RunE:  runMigrate,
}

func init() {
	defaultPath := os.Getenv("CONFIG_PATH")
	if defaultPath == "" {
		defaultPath = "./config/config.yaml"
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", defaultPath, "Path to the YAML config file (or set CONFIG_PATH)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
}

// setup loads configuration and builds the logger.
func setup() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration from %s: %w", configPath, err)
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format, serviceName)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build logger: %w", err)
	}
	logger.Info("configuration loaded", zap.String("path", configPath))
	return cfg, logger, nil
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	gormDB, err := db.Open(&cfg.Database)
	if err != nil {
		return err
	}
	if err := db.Migrate(gormDB, logger); err != nil {
		return err
	}
	if sqlDB, err := gormDB.DB(); err == nil {
		sqlDB.Close()
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
