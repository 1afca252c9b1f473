package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/recurzes/taskstore/internal/config"
	"github.com/recurzes/taskstore/internal/storage"
)

var (
	cfgFile string
	dbPath  string

	// Loaded in PersistentPreRunE, available to all commands
	cfg config.Config
)

var rootCmd = &cobra.Command{
	Use:   "taskstore",
	Short: "Semantic task store with embedding-based deduplication",
	Long: `taskstore persists tasks alongside embedding vectors and rejects
near-duplicate tasks by cosine distance.

Tasks are embedded via the OpenAI embeddings API and stored in a local
SQLite database. Ingestion compares each candidate against its nearest
stored neighbor and rejects it when the distance falls below the
configured threshold.

Set OPENAI_API_KEY before running commands that embed text.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.LoadFile(cfgFile)
		if err != nil {
			return err
		}
		if dbPath != "" {
			cfg.StoragePath = dbPath
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "taskstore.yaml", "Path to YAML config file")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "SQLite database path (overrides config)")
}

// openStore opens the configured database. Callers must Close it.
func openStore(ctx context.Context) (storage.Storage, error) {
	store, err := storage.NewStorage(ctx, cfg.StorageConfig())
	if err != nil {
		return nil, fmt.Errorf("opening database %s: %w", cfg.StoragePath, err)
	}
	return store, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
