package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"

	"aquaculture-platform/internal/config"
	"aquaculture-platform/pkg/database"
	"aquaculture-platform/pkg/logging"
	"aquaculture-platform/pkg/metrics"
)

func main() {
	direction := flag.String("direction", database.DirectionUp, "Migration direction: up or down")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewStructuredLogger("pond-migrate", "1.0.0", cfg.LogLevel())
	ctx := context.Background()

	db, err := database.Open(cfg.DatabaseConnConfig(), logger, metrics.NewCollector("aquaculture_migrate", prometheus.NewRegistry()))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	fmt.Printf("Connected to %s database successfully\n", db.DriverName())

	if err := db.Migrate(ctx, *direction); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to execute migration: %v\n", err)
		db.Close()
		os.Exit(1)
	}

	schemaVersion, err := db.MigrationVersion(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read schema version: %v\n", err)
		db.Close()
		os.Exit(1)
	}

	fmt.Printf("Migration %s completed successfully, schema version %d\n", *direction, schemaVersion)
}
