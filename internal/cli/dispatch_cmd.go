package cli

import (
	"context"
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/pantrykit/scanbatch/internal/domain"
	"github.com/pantrykit/scanbatch/internal/host"
	"github.com/pantrykit/scanbatch/internal/service"
	"github.com/spf13/cobra"
)

func newDispatchCmd(app *App) *cobra.Command {
	var modeFlag string
	var yes bool
	var closeSession bool

	cmd := &cobra.Command{
		Use:   "dispatch",
		Short: "Hand the queued batch to the host and clear the queue",
		Long: `Build the batch payload from the session queue, clear the queue,
and hand the payload to the host messaging channel. Dispatching an
empty queue is a no-op.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			mode := app.Mode.Mode()
			if modeFlag != "" {
				m, ok := domain.ParseMode(modeFlag)
				if !ok {
					return fmt.Errorf("invalid mode %q (want add or remove)", modeFlag)
				}
				mode = m
			}

			stats := app.Queue.Stats()
			if stats.Entries == 0 {
				fmt.Println("Queue is empty, nothing to dispatch.")
				return nil
			}

			if !yes && app.interactive() {
				ok, err := confirmDispatch(mode, stats)
				if err != nil {
					return err
				}
				if !ok {
					fmt.Println("Dispatch cancelled.")
					return nil
				}
			}

			res, err := app.Queue.Dispatch(context.Background(), mode)
			if err != nil {
				return err
			}
			printDispatchSummary(res)
			app.Bridge.Notify(host.FeedbackSuccess)

			if closeSession {
				if err := app.Bridge.Close(); err != nil {
					return fmt.Errorf("closing host session: %w", err)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&modeFlag, "mode", "", "Override the session mode for this dispatch (add|remove)")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")
	cmd.Flags().BoolVar(&closeSession, "close", false, "Signal the host that the session is complete after dispatch")

	return cmd
}

func confirmDispatch(mode domain.Mode, stats service.QueueStats) (bool, error) {
	verb := "Add"
	if mode == domain.ModeDepletion {
		verb = "Remove"
	}
	ok := true
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("%s %d items (%d scans)?", verb, stats.Entries, stats.Total)).
				Value(&ok),
		),
	).WithShowHelp(false)
	if err := form.Run(); err != nil {
		if err == huh.ErrUserAborted {
			return false, nil
		}
		return false, fmt.Errorf("reading confirmation: %w", err)
	}
	return ok, nil
}

// printDispatchSummary echoes the dispatched batch the way the host
// previews it: first ten codes, then a count of the rest.
func printDispatchSummary(res service.DispatchResult) {
	fmt.Printf("Dispatched %d items (%d scans, mode %s)\n", res.Entries, res.Total, res.Payload.Mode)
	for i, scan := range res.Payload.Scans {
		if i == 10 {
			fmt.Printf("  …and %d more\n", len(res.Payload.Scans)-10)
			break
		}
		if scan.Count > 1 {
			fmt.Printf("  %s ×%d\n", scan.Code, scan.Count)
		} else {
			fmt.Printf("  %s\n", scan.Code)
		}
	}
}
