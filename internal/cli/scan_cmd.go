package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/pantrykit/scanbatch/internal/capture"
	"github.com/pantrykit/scanbatch/internal/domain"
	"github.com/spf13/cobra"
)

// doneEngine is implemented by engines whose input can run out, such
// as a piped line device or a demo script.
type doneEngine interface {
	Done() <-chan struct{}
}

func newScanCmd(app *App) *cobra.Command {
	var device string
	var demo bool
	var single bool
	var dispatchAfter bool

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Capture codes from a scanner device into the session queue",
		Long: `Start the capture session. Codes are read from a line-oriented
scanner device (or stdin with --device -), debounced, and aggregated
into the session queue.

With an interactive terminal this opens the scan view. The terminal
then owns stdin, so capture needs an explicit --device path; with the
default device the view starts idle and takes manual entry. Otherwise
codes are consumed until the device closes and a summary is printed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := capture.DefaultConfig()
			cfg.Continuous = !single

			interactive := app.interactive()
			eng := selectEngine(interactive, device, demo)

			if interactive && !demo {
				return runScanTUI(app, eng, cfg)
			}
			return runScanHeadless(app, eng, cfg, dispatchAfter)
		},
	}

	cmd.Flags().StringVar(&device, "device", "-", "Scanner device path, or - for stdin")
	cmd.Flags().BoolVar(&demo, "demo", false, "Replay a built-in decode script instead of reading a device")
	cmd.Flags().BoolVar(&single, "single", false, "Stop after the first accepted scan")
	cmd.Flags().BoolVar(&dispatchAfter, "dispatch", false, "Dispatch the queue when the device closes (non-interactive)")

	return cmd
}

// selectEngine picks the capture transport. In an interactive session
// stdin carries keystrokes for the view, so the default "-" device
// must not also be read as a line scanner: two readers on the same
// descriptor would steal bytes from each other and queue stray
// keystroke lines as codes. The view starts idle instead, with manual
// entry available; an explicit device path still gets a line reader.
func selectEngine(interactive bool, device string, demo bool) capture.Engine {
	if demo {
		return capture.NewScriptEngine(demoScript())
	}
	if interactive && device == "-" {
		return capture.NoDeviceEngine{}
	}
	return capture.NewReaderEngine(device)
}

// runScanHeadless consumes the device until it closes, then prints a
// summary. Used for piped input: scanbatch scan --device - < codes.txt
func runScanHeadless(app *App, eng capture.Engine, cfg capture.Config, dispatchAfter bool) error {
	ctx := context.Background()
	events := make(chan capture.Event, 16)
	ctrl := capture.NewController(eng, cfg, func(e capture.Event) { events <- e })

	if err := ctrl.Start(ctx); err != nil {
		if errors.Is(err, capture.ErrUnavailable) {
			// Non-fatal by design: the queue still works via manual entry.
			fmt.Println("Scanner unavailable. Use `scanbatch add` for manual entry.")
			return nil
		}
		return err
	}
	defer ctrl.Stop()

	var done <-chan struct{}
	if de, ok := eng.(doneEngine); ok {
		done = de.Done()
	}

	for {
		select {
		case e := <-events:
			if err := handleScan(ctx, app, e); err != nil {
				return err
			}
		case <-done:
			// Drain anything emitted before the device closed.
			for {
				select {
				case e := <-events:
					if err := handleScan(ctx, app, e); err != nil {
						return err
					}
				default:
					goto drained
				}
			}
		}
	}

drained:
	stats := app.Queue.Stats()
	fmt.Printf("Queue: %d items, %d scans\n", stats.Entries, stats.Total)

	if dispatchAfter {
		res, err := app.Queue.Dispatch(ctx, app.Mode.Mode())
		if err != nil {
			return err
		}
		if res.Sent {
			printDispatchSummary(res)
		}
	}
	return nil
}

func handleScan(ctx context.Context, app *App, e capture.Event) error {
	outcome, err := app.Queue.Add(ctx, e.Code, e.Format, e.At)
	if err != nil {
		return err
	}
	notifyOutcome(app, outcome)
	fmt.Printf("%s %s\n", e.Code, e.Format)
	return nil
}

func runScanTUI(app *App, eng capture.Engine, cfg capture.Config) error {
	events := make(chan capture.Event, 16)
	ctrl := capture.NewController(eng, cfg, func(e capture.Event) { events <- e })

	m := newScanModel(app, ctrl, events)
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	// The view is torn down; force the capture resources released even
	// if the program exited abnormally.
	ctrl.Stop()
	if err != nil {
		return fmt.Errorf("running scan view: %w", err)
	}
	return nil
}

// demoScript replays a short scan session, including a duplicate
// inside the debounce window that gets dropped.
func demoScript() []capture.ScriptedDecode {
	return []capture.ScriptedDecode{
		{After: 300 * time.Millisecond, Code: "4006381333931", Format: domain.SymbologyEAN13},
		{After: 400 * time.Millisecond, Code: "4006381333931", Format: domain.SymbologyEAN13},
		{After: 500 * time.Millisecond, Code: "12345678", Format: domain.SymbologyEAN8},
		{After: 300 * time.Millisecond, Code: "https://example.com/x", Format: domain.SymbologyQRCode},
		{After: 2200 * time.Millisecond, Code: "4006381333931", Format: domain.SymbologyEAN13},
	}
}
