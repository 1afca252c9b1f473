// scripts/prune-runs.go - Manual ingestion run history pruning tool
package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/recurzes/taskstore/internal/storage"
)

func main() {
	ctx := context.Background()

	// Use default config to find database
	cfg := storage.DefaultConfig()

	// Allow override via environment variable
	if dbPath := os.Getenv("TASKSTORE_DB"); dbPath != "" {
		cfg.Path = dbPath
	}

	// Retention window in days, default 30
	retentionDays := 30
	if v := os.Getenv("TASKSTORE_RUN_RETENTION_DAYS"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 {
			fmt.Fprintf(os.Stderr, "Invalid TASKSTORE_RUN_RETENTION_DAYS: %q\n", v)
			os.Exit(1)
		}
		retentionDays = parsed
	}

	fmt.Printf("Connecting to database: %s\n", cfg.Path)

	store, err := storage.NewStorage(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening storage: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	cutoff := time.Now().UTC().AddDate(0, 0, -retentionDays)
	fmt.Printf("Pruning ingestion runs older than %d days (before %s)...\n",
		retentionDays, cutoff.Format("2006-01-02"))

	pruned, err := store.PruneIngestionRuns(ctx, cutoff)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error during pruning: %v\n", err)
		os.Exit(1)
	}

	if pruned > 0 {
		fmt.Printf("✓ Pruned %d old ingestion run(s)\n", pruned)
	} else {
		fmt.Println("✓ No ingestion runs old enough to prune")
	}
}
