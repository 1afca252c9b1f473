package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/recurzes/taskstore/internal/deduplication"
	"github.com/recurzes/taskstore/internal/embedding"
	"github.com/recurzes/taskstore/internal/ingest"
	"github.com/recurzes/taskstore/internal/types"
)

var (
	ingestFile string
	ingestJSON bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Ingest candidate tasks, rejecting near-duplicates",
	Long: `Ingest a batch of candidate tasks from a JSON file or stdin.

Each candidate is embedded, compared against its nearest stored
neighbor, and inserted unless the cosine distance falls below the
duplicate threshold.

The input is a JSON array of candidates:

  [
    {"name": "Pay rent", "priority": 1, "due_date": "2026-09-01",
     "email_context": "Reminder from landlord"},
    {"name": "Buy groceries", "priority": 3, "due_date": "2026-08-31"}
  ]

Example:
  taskstore ingest --file=tasks.json
  cat tasks.json | taskstore ingest`,
	Run: func(cmd *cobra.Command, args []string) {
		candidates, err := readCandidates(ingestFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		ctx := context.Background()
		store, err := openStore(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer store.Close()

		gateway, err := embedding.NewOpenAIGateway(cfg.EmbeddingConfig())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		policy, err := deduplication.NewPolicy(cfg.DedupConfig())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		pipeline, err := ingest.New(gateway, store, policy, cfg.IngestConfig())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		result, runErr := pipeline.Ingest(ctx, candidates)
		if result != nil {
			printIngestResult(result, ingestJSON)
		}
		if runErr != nil {
			fmt.Fprintf(os.Stderr, "Error: ingestion run aborted: %v\n", runErr)
			os.Exit(1)
		}
	},
}

// readCandidates loads the candidate batch from a file, or stdin when
// path is empty or "-".
func readCandidates(path string) ([]types.Candidate, error) {
	var r io.Reader = os.Stdin
	if path != "" && path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("opening candidate file: %w", err)
		}
		defer f.Close()
		r = f
	}
	return parseCandidates(r)
}

// parseCandidates decodes a JSON array of candidates.
func parseCandidates(r io.Reader) ([]types.Candidate, error) {
	var candidates []types.Candidate
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&candidates); err != nil {
		return nil, fmt.Errorf("parsing candidates: %w", err)
	}
	return candidates, nil
}

func printIngestResult(result *ingest.Result, asJSON bool) {
	if asJSON {
		out, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(string(out))
		return
	}

	green := color.New(color.FgGreen).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()
	gray := color.New(color.FgHiBlack).SprintFunc()

	fmt.Printf("\n%s Ingestion run %s\n\n", green("✓"), cyan(result.RunID))

	if len(result.Accepted) > 0 {
		fmt.Printf("  Saved (%d):\n", len(result.Accepted))
		for _, task := range result.Accepted {
			fmt.Printf("    %s #%d %s %s\n",
				green("+"), task.ID, task.Name,
				gray(fmt.Sprintf("[%s, due %s]", types.PriorityLabel(task.Priority), task.DueDate)))
		}
	}
	if len(result.Rejected) > 0 {
		fmt.Printf("  Duplicates (%d):\n", len(result.Rejected))
		for _, rej := range result.Rejected {
			fmt.Printf("    %s %s %s\n",
				yellow("~"), rej.Name,
				gray(fmt.Sprintf("(matches #%d %q, distance %.4f)",
					rej.DuplicateOf, rej.DuplicateName, rej.Distance)))
		}
	}

	fmt.Printf("\n  %s\n", gray(fmt.Sprintf("%d candidates, %d saved, %d duplicates in %dms",
		result.Stats.TotalCandidates, result.Stats.AcceptedCount,
		result.Stats.RejectedCount, result.Stats.ProcessingTimeMs)))
	fmt.Println()
}

func init() {
	ingestCmd.Flags().StringVarP(&ingestFile, "file", "f", "", "JSON file with candidates (default: stdin)")
	ingestCmd.Flags().BoolVar(&ingestJSON, "json", false, "Print the result as JSON")
	rootCmd.AddCommand(ingestCmd)
}
