package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/pantrykit/scanbatch/internal/domain"
	"github.com/pantrykit/scanbatch/internal/host"
	"github.com/spf13/cobra"
)

func newSendCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "send <code>",
		Short: "Send one code to the host immediately, bypassing the queue",
		Long: `Classify a single code and hand it straight to the host in the
one-scan wire shape, without queueing. The current session mode is
stamped on the payload.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			code := strings.TrimSpace(args[0])
			if code == "" {
				return fmt.Errorf("code must not be empty")
			}
			mode := app.Mode.Mode()
			if err := app.Queue.SendSingle(context.Background(), code, domain.Classify(code), mode); err != nil {
				return err
			}
			app.Bridge.Notify(host.FeedbackSuccess)
			fmt.Printf("Sent %s (mode %s)\n", code, mode)
			return nil
		},
	}
}
