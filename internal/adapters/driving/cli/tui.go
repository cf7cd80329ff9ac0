package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime/debug"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/eunio-health/eunio-sync/internal/adapters/driving/tui"
	"github.com/eunio-health/eunio-sync/internal/logger"
)

// tuiCmd represents the tui command.
var tuiCmd = &cobra.Command{
	Use:   "tui <user-id>",
	Short: "Launch the interactive terminal UI",
	Long: `Launch the interactive terminal dashboard for one user.

The dashboard shows the state of the last sync pass, streams the phases
of a running pass and lists conflicts awaiting a decision. While it is
open, the background scheduler runs periodic sync and conflict expiry.

Controls:
  s        - Sync now
  c        - Show pending conflicts
  ↑/k, ↓/j - Navigate conflicts
  l, r, m  - Keep local, keep remote, merge
  Esc      - Back
  ?        - Toggle help
  q        - Quit`,
	Args: cobra.ExactArgs(1),
	RunE: runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, args []string) error {
	// Add panic recovery to get stack traces
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic in TUI: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
		}
	}()

	if syncOrchestrator == nil || conflictService == nil {
		return errors.New("sync services not configured")
	}

	// Start scheduler if enabled (TUI is long-running, needs background tasks)
	if schedulerConfig.Enabled && scheduler != nil {
		schedulerCtx, schedulerCancel := context.WithCancel(cmd.Context())
		defer schedulerCancel()

		go func() {
			if err := scheduler.Start(schedulerCtx); err != nil {
				// Scheduler errors shouldn't block the TUI
				logger.Warn("scheduler stopped", logger.Err(err))
			}
		}()

		defer func() {
			if err := scheduler.Stop(); err != nil {
				logger.Warn("scheduler stop error", logger.Err(err))
			}
		}()
	}

	app, err := tui.NewApp(tui.NewPorts(syncOrchestrator, conflictService), args[0])
	if err != nil {
		return fmt.Errorf("failed to create TUI: %w", err)
	}
	app.WithContext(cmd.Context())

	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}

	return nil
}
