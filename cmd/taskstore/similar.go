package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/recurzes/taskstore/internal/embedding"
)

var (
	similarK       int
	similarContext string
	similarJSON    bool
)

var similarCmd = &cobra.Command{
	Use:   "similar <text>",
	Short: "Find stored tasks nearest to the given text",
	Long: `Embed the given text and list the k nearest stored tasks by cosine
distance, closest first.

The text is embedded the same way candidates are during ingestion, so
passing --context reproduces the exact input a candidate with that
email context would produce.

Example:
  taskstore similar "pay the rent"
  taskstore similar "pay the rent" --context="Reminder from landlord" -k 3`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		text := strings.Join(args, " ")

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

		vector, err := gateway.Embed(ctx, embedding.BuildInput(text, similarContext))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: embedding query: %v\n", err)
			os.Exit(1)
		}

		tasks, err := store.FindSimilar(ctx, vector, similarK)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		if similarJSON {
			printTasksJSON(tasks)
			return
		}
		if len(tasks) == 0 {
			fmt.Println("No tasks stored yet.")
			return
		}
		printTaskList(tasks, true)
	},
}

func init() {
	similarCmd.Flags().IntVarP(&similarK, "limit", "k", 5, "Number of nearest tasks to return")
	similarCmd.Flags().StringVar(&similarContext, "context", "", "Email context to embed with the text")
	similarCmd.Flags().BoolVar(&similarJSON, "json", false, "Print tasks as JSON")
	rootCmd.AddCommand(similarCmd)
}
