package cli

import (
	"errors"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status <user-id>",
	Short: "Show sync status for a user",
	Long: `Shows whether a sync pass is running for the user, the phase of the
current or most recent pass, and the result of the last finished pass.`,
	Args: cobra.ExactArgs(1),
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	if syncOrchestrator == nil {
		return errors.New("sync service not configured")
	}

	state, err := syncOrchestrator.Status(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to get status: %w", err)
	}

	cmd.Printf("User: %s\n", args[0])
	cmd.Printf("Strategy: %s\n", syncOrchestrator.Strategy())

	switch {
	case state.Running:
		cmd.Printf("State: running (%s)\n", state.Phase.Description())
	case state.Phase == "":
		cmd.Println("State: never synced")
		return nil
	default:
		cmd.Printf("State: idle (%s)\n", state.Phase.Description())
	}

	if !state.LastCompleted.IsZero() {
		cmd.Printf("Last completed: %s\n", humanize.Time(state.LastCompleted))
	}
	if state.LastError != "" {
		cmd.Printf("Last error: %s\n", state.LastError)
	}
	if state.LastResult != nil {
		printResult(cmd, *state.LastResult)
	}
	return nil
}
