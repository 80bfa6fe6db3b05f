package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/pantrykit/scanbatch/internal/domain"
	"github.com/pantrykit/scanbatch/internal/service"
	"github.com/spf13/cobra"
)

func newAddCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add [code...]",
		Short: "Manually enter codes into the session queue",
		Long: `Add one or more codes to the session queue without scanning.
Manual codes are classified into a symbology; repeats of a queued code
increment its count instead of adding a new entry.

With no arguments and an interactive terminal, prompts for a code.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			codes := args
			if len(codes) == 0 {
				if !app.interactive() {
					return fmt.Errorf("no codes given")
				}
				code, err := promptForCode()
				if err != nil {
					return err
				}
				if code == "" {
					return nil // cancelled, nothing to add
				}
				codes = []string{code}
			}

			ctx := context.Background()
			for _, code := range codes {
				code = strings.TrimSpace(code)
				if code == "" {
					continue // empty input never reaches the queue
				}
				outcome, err := addManual(ctx, app, code)
				if err != nil {
					return err
				}
				entry := "queued"
				if outcome == service.OutcomeIncremented {
					entry = "count bumped"
				}
				fmt.Printf("%s %s (%s)\n", code, entry, domain.Classify(code))
			}

			stats := app.Queue.Stats()
			fmt.Printf("Queue: %d items, %d scans\n", stats.Entries, stats.Total)
			return nil
		},
	}
	return cmd
}

// addManual classifies a manual code, adds it, and asks the host for
// feedback matching the branch taken.
func addManual(ctx context.Context, app *App, code string) (service.AddOutcome, error) {
	outcome, err := app.Queue.Add(ctx, code, domain.Classify(code), time.Now().UTC())
	if err != nil {
		return "", err
	}
	notifyOutcome(app, outcome)
	return outcome, nil
}

func promptForCode() (string, error) {
	var code string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Code").
				Placeholder("4006381333931").
				Value(&code).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("code must not be empty")
					}
					return nil
				}),
		),
	).WithShowHelp(false)
	if err := form.Run(); err != nil {
		if err == huh.ErrUserAborted {
			return "", nil
		}
		return "", fmt.Errorf("reading code: %w", err)
	}
	return strings.TrimSpace(code), nil
}
