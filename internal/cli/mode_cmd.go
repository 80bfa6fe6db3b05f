package cli

import (
	"fmt"

	"github.com/pantrykit/scanbatch/internal/domain"
	"github.com/spf13/cobra"
)

func newModeCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "mode [add|remove]",
		Short: "Show or switch the session mode",
		Long: `The session mode decides what the host does with the batch at
dispatch: "add" takes items in, "remove" depletes them. It applies to
the whole queue, including items scanned before the switch.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				fmt.Println(modeLabel(app.Mode.Mode()))
				return nil
			}
			m, ok := domain.ParseMode(args[0])
			if !ok {
				return fmt.Errorf("invalid mode %q (want add or remove)", args[0])
			}
			app.Mode.Set(m)
			fmt.Printf("Mode set to %s\n", modeLabel(m))
			return nil
		},
	}
}

func modeLabel(m domain.Mode) string {
	if m == domain.ModeDepletion {
		return "remove (deplete items)"
	}
	return "add (intake items)"
}
