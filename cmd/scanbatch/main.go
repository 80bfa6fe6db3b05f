package main

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/mattn/go-isatty"
	"github.com/pantrykit/scanbatch/internal/cli"
	"github.com/pantrykit/scanbatch/internal/db"
	"github.com/pantrykit/scanbatch/internal/host"
	"github.com/pantrykit/scanbatch/internal/repository"
	"github.com/pantrykit/scanbatch/internal/service"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Determine session store path: env var or default ~/.scanbatch/session.db
	dbPath := os.Getenv("SCANBATCH_DB")
	if dbPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("finding home directory: %w", err)
		}
		dbPath = filepath.Join(home, ".scanbatch", "session.db")
	}

	database, err := db.OpenDB(dbPath)
	if err != nil {
		return fmt.Errorf("opening session store: %w", err)
	}
	defer database.Close()

	stateRepo := repository.NewSQLiteStateRepo(database)
	ensureSessionID(stateRepo)

	bridge, err := buildBridge()
	if err != nil {
		return err
	}

	// Aggregator telemetry is opt-in and goes to stderr, away from the
	// payload stream on stdout.
	var observers []service.QueueObserver
	if os.Getenv("SCANBATCH_LOG") != "" {
		observers = append(observers, service.NewLogQueueObserver(os.Stderr))
	}

	app := &cli.App{
		Queue:  service.NewQueueService(stateRepo, bridge, observers...),
		Mode:   service.NewModeController(bridge),
		Bridge: bridge,
	}

	// Detect interactive terminal for forms and the scan view.
	app.IsInteractive = func() bool {
		return isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
	}

	rootCmd := cli.NewRootCmd(app)
	return rootCmd.Execute()
}

// buildBridge selects the host channel: an HTTP webhook when
// SCANBATCH_HOST is set, else payloads go to stdout. Launch parameters
// come from the endpoint query or SCANBATCH_MODE.
func buildBridge() (host.Bridge, error) {
	if endpoint := os.Getenv("SCANBATCH_HOST"); endpoint != "" {
		bridge, err := host.NewHTTPBridge(endpoint)
		if err != nil {
			return nil, fmt.Errorf("configuring host bridge: %w", err)
		}
		return bridge, nil
	}
	params := url.Values{}
	if mode := os.Getenv("SCANBATCH_MODE"); mode != "" {
		params.Set("mode", mode)
	}
	return host.NewWriterBridge(os.Stdout, params), nil
}

// ensureSessionID stamps a stable identifier into the session store on
// first open. Best effort: the store is a cache and may be unavailable.
func ensureSessionID(repo repository.StateRepo) {
	ctx := context.Background()
	if _, err := repo.Get(ctx, "session_id"); err == nil {
		return
	}
	_ = repo.Set(ctx, "session_id", uuid.New().String())
}
