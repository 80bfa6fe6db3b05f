package cli

import (
	"github.com/pantrykit/scanbatch/internal/host"
	"github.com/pantrykit/scanbatch/internal/service"
	"github.com/spf13/cobra"
)

// App holds references to the services and host capabilities used by
// CLI commands.
type App struct {
	Queue  service.QueueService
	Mode   *service.ModeController
	Bridge host.Bridge

	// IsInteractive reports whether stdin is an interactive terminal,
	// used to decide between forms/TUI and plain flag-driven behavior.
	IsInteractive func() bool
}

func (a *App) interactive() bool {
	return a.IsInteractive != nil && a.IsInteractive()
}

// notifyOutcome maps an add outcome to host feedback: success for a
// new entry, warning for a repeat that only bumped a count.
func notifyOutcome(app *App, outcome service.AddOutcome) {
	if outcome == service.OutcomeIncremented {
		app.Bridge.Notify(host.FeedbackWarning)
	} else {
		app.Bridge.Notify(host.FeedbackSuccess)
	}
}

// NewRootCmd creates the top-level "scanbatch" command and registers
// all subcommands against the provided App.
func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:   "scanbatch",
		Short: "Batch barcode scanner with a dispatchable session queue",
	}

	root.AddCommand(
		newScanCmd(app),
		newAddCmd(app),
		newSendCmd(app),
		newQueueCmd(app),
		newDispatchCmd(app),
		newModeCmd(app),
	)

	return root
}
