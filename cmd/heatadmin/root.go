package main

import (
	"context"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/cityheat/heatadmin/internal/config"
	"github.com/cityheat/heatadmin/internal/db"
)

var (
	configPath string
	verbose    bool
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "heatadmin",
		Short: "Administrative tools for the building thermal data platform",
	}
	cmd.PersistentFlags().StringVar(&configPath, "config", ".", "directory containing config.yaml")
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	cmd.AddCommand(newIngestCmd())
	cmd.AddCommand(newExportCmd())
	cmd.AddCommand(newDatasetCmd())
	return cmd
}

func execute() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	if verbose {
		log.SetLevel(logrus.DebugLevel)
	}
	return log
}

// connect loads configuration, opens the pool, and applies migrations.
func connect(ctx context.Context, log *logrus.Logger) (config.Config, *db.Connection, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, nil, err
	}

	conn, err := db.NewConnection(ctx, cfg.DB)
	if err != nil {
		return config.Config{}, nil, err
	}

	if err := db.RunMigrations(cfg.DB); err != nil {
		conn.Close()
		return config.Config{}, nil, err
	}

	log.WithFields(logrus.Fields{
		"host":   cfg.DB.Host,
		"dbname": cfg.DB.DBName,
	}).Debug("database ready")

	return cfg, conn, nil
}
