package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	runsLimit int
	runsJSON  bool
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Show ingestion run history",
	Long: `List past ingestion runs, newest first, with their accepted and
rejected counts.

Example:
  taskstore runs
  taskstore runs --limit=5`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		store, err := openStore(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer store.Close()

		runs, err := store.GetIngestionRuns(ctx, runsLimit)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		if runsJSON {
			out, err := json.MarshalIndent(runs, "", "  ")
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			fmt.Println(string(out))
			return
		}

		if len(runs) == 0 {
			fmt.Println("No ingestion runs recorded yet.")
			return
		}

		cyan := color.New(color.FgCyan).SprintFunc()
		red := color.New(color.FgRed).SprintFunc()
		gray := color.New(color.FgHiBlack).SprintFunc()

		for _, run := range runs {
			line := fmt.Sprintf("  %s %s %s",
				cyan(run.ID),
				run.StartedAt.Format("2006-01-02 15:04:05"),
				gray(fmt.Sprintf("%d candidates, %d saved, %d duplicates",
					run.TotalCount, run.AcceptedCount, run.RejectedCount)))
			if run.Error != "" {
				line += fmt.Sprintf(" %s", red("error: "+run.Error))
			}
			fmt.Println(line)
		}
	},
}

func init() {
	runsCmd.Flags().IntVarP(&runsLimit, "limit", "n", 10, "Maximum number of runs to list")
	runsCmd.Flags().BoolVar(&runsJSON, "json", false, "Print runs as JSON")
	rootCmd.AddCommand(runsCmd)
}
