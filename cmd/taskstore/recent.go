package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/recurzes/taskstore/internal/types"
)

var (
	recentLimit int
	recentJSON  bool
)

var recentCmd = &cobra.Command{
	Use:   "recent",
	Short: "List the most recently created tasks",
	Long: `List stored tasks ordered by creation time, newest first.

Example:
  taskstore recent
  taskstore recent --limit=25`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		store, err := openStore(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer store.Close()

		tasks, err := store.GetRecentTasks(ctx, recentLimit)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		if recentJSON {
			printTasksJSON(tasks)
			return
		}
		if len(tasks) == 0 {
			fmt.Println("No tasks stored yet.")
			return
		}
		printTaskList(tasks, false)
	},
}

func printTasksJSON(tasks []*types.Task) {
	out, err := json.MarshalIndent(tasks, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(out))
}

// printTaskList renders tasks one per line. When withDistance is set,
// each line ends with the similarity distance of that result.
func printTaskList(tasks []*types.Task, withDistance bool) {
	cyan := color.New(color.FgCyan).SprintFunc()
	gray := color.New(color.FgHiBlack).SprintFunc()

	for _, task := range tasks {
		line := fmt.Sprintf("  %s %s %s",
			cyan(fmt.Sprintf("#%d", task.ID)), task.Name,
			gray(fmt.Sprintf("[%s, due %s, created %s]",
				types.PriorityLabel(task.Priority), task.DueDate,
				task.CreatedAt.Format("2006-01-02 15:04"))))
		if withDistance && task.SimilarityDistance != nil {
			line += gray(fmt.Sprintf(" distance=%.4f", *task.SimilarityDistance))
		}
		fmt.Println(line)
	}
}

func init() {
	recentCmd.Flags().IntVarP(&recentLimit, "limit", "n", 10, "Maximum number of tasks to list")
	recentCmd.Flags().BoolVar(&recentJSON, "json", false, "Print tasks as JSON")
	rootCmd.AddCommand(recentCmd)
}
