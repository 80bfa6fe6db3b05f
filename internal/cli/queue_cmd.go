package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/pantrykit/scanbatch/internal/domain"
	"github.com/spf13/cobra"
)

func newQueueCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect and edit the session queue",
	}

	cmd.AddCommand(
		newQueueListCmd(app),
		newQueueRemoveCmd(app),
		newQueueClearCmd(app),
	)

	return cmd
}

func newQueueListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List queued entries in scan order",
		RunE: func(cmd *cobra.Command, args []string) error {
			entries := app.Queue.Entries()
			if len(entries) == 0 {
				fmt.Println("Queue is empty.")
				return nil
			}
			for i, e := range entries {
				fmt.Println(formatEntryLine(i, e))
			}
			stats := app.Queue.Stats()
			fmt.Printf("\n%d items, %d scans total\n", stats.Entries, stats.Total)
			return nil
		},
	}
}

// formatEntryLine renders one queue row for list output.
func formatEntryLine(i int, e domain.ScanEntry) string {
	count := ""
	if e.Count > 1 {
		count = fmt.Sprintf("  ×%d", e.Count)
	}
	return fmt.Sprintf("%3d  %-13s %s%s", i+1, e.Format, e.Code, count)
}

func newQueueRemoveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <position>",
		Short: "Remove the entry at the given list position",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pos, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("position must be a number: %q", args[0])
			}
			entries := app.Queue.Entries()
			if pos < 1 || pos > len(entries) {
				fmt.Printf("No entry at position %d.\n", pos)
				return nil
			}
			code := entries[pos-1].Code
			if err := app.Queue.Remove(context.Background(), pos-1); err != nil {
				return err
			}
			fmt.Printf("Removed %s\n", code)
			return nil
		},
	}
}

func newQueueClearCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every entry from the queue",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.Queue.Clear(context.Background()); err != nil {
				return err
			}
			fmt.Println("Queue cleared.")
			return nil
		},
	}
}
