// Package cli wires the commands and bootstraps the workspace.
package cli

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/d-elbel/curlew/internal/config"
	"github.com/d-elbel/curlew/internal/importer"
	httpclient "github.com/d-elbel/curlew/internal/protocol/http"
	"github.com/d-elbel/curlew/internal/storage/envfile"
	"github.com/d-elbel/curlew/internal/storage/sqlite"
	"github.com/d-elbel/curlew/internal/tui/views"
	"github.com/d-elbel/curlew/internal/workspace"
)

// NewRootCommand creates the root command.
func NewRootCommand(version string) *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:     "curlew",
		Short:   "Curlew - a TUI API workbench",
		Long:    "Curlew organizes saved requests into collections and runs them against switchable environments.",
		Version: version,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd.Context(), configPath)
		},
	}

	cmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultPath(), "config file path")

	cmd.AddCommand(NewSendCommand())
	cmd.AddCommand(NewImportCommand(&configPath))

	return cmd
}

// bootstrap opens the stores and returns a loaded workspace.
func bootstrap(ctx context.Context, configPath string) (*workspace.Store, func(), error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	logger := hclog.New(&hclog.LoggerOptions{
		Name:   "curlew",
		Level:  hclog.Warn,
		Output: os.Stderr,
	})

	store, err := sqlite.New(cfg.DatabasePath())
	if err != nil {
		return nil, nil, err
	}

	envs, err := envfile.New(cfg.EnvironmentsPath(), logger)
	if err != nil {
		store.Close()
		return nil, nil, err
	}

	ws := workspace.New(store, envs,
		workspace.WithLogger(logger),
		workspace.WithAutosaveDelay(cfg.AutosaveDelay),
		workspace.WithExecutor(httpclient.NewClient(httpclient.WithTimeout(cfg.RequestTimeout))),
		workspace.WithImporter(importer.NewPostmanImporter(store)),
	)

	if err := ws.LoadAll(ctx); err != nil {
		store.Close()
		envs.Close()
		return nil, nil, err
	}

	if cfg.DefaultEnvironment != "" {
		if err := ws.SetActiveEnvironment(cfg.DefaultEnvironment); err != nil {
			logger.Warn("default environment not found", "name", cfg.DefaultEnvironment)
		}
	}

	// Re-scan environments whenever a file changes on disk.
	watchCtx, stopWatch := context.WithCancel(context.Background())
	go func() {
		if err := envs.Watch(watchCtx, func() {
			if err := ws.LoadAll(watchCtx); err != nil {
				logger.Warn("failed to reload after environment change", "error", err)
			}
		}); err != nil && watchCtx.Err() == nil {
			logger.Warn("environment watcher stopped", "error", err)
		}
	}()

	cleanup := func() {
		stopWatch()
		store.Close()
		envs.Close()
	}
	return ws, cleanup, nil
}

func runTUI(ctx context.Context, configPath string) error {
	ws, cleanup, err := bootstrap(ctx, configPath)
	if err != nil {
		return err
	}
	defer cleanup()

	p := tea.NewProgram(views.NewMainView(ws), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("failed to run interface: %w", err)
	}
	return nil
}
