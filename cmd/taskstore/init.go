package main

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the task database and verify it is usable",
	Long: `Create the SQLite database at the configured path, apply the schema,
and run a probe query to verify the store works end to end.

Example:
  taskstore init
  taskstore init --db=/data/tasks.db`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		store, err := openStore(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer store.Close()

		// Probe the freshly created schema
		count, err := store.CountTasks(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: schema probe failed: %v\n", err)
			os.Exit(1)
		}

		green := color.New(color.FgGreen).SprintFunc()
		cyan := color.New(color.FgCyan).SprintFunc()
		gray := color.New(color.FgHiBlack).SprintFunc()

		fmt.Printf("\n%s Initialized task store\n\n", green("✓"))
		fmt.Printf("  Database: %s\n", cyan(cfg.StoragePath))
		fmt.Printf("  Dimensions: %s\n", cyan(fmt.Sprintf("%d", cfg.Dimensions)))
		fmt.Printf("  Tasks stored: %s\n", cyan(fmt.Sprintf("%d", count)))
		fmt.Println()
		fmt.Printf("%s Next steps:\n", gray("→"))
		fmt.Printf("  %s\n", gray("export OPENAI_API_KEY=sk-..."))
		fmt.Printf("  %s\n", gray("taskstore ingest --file=tasks.json"))
		fmt.Printf("  %s\n", gray("taskstore recent"))
		fmt.Println()
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
