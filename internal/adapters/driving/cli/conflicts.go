package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/eunio-health/eunio-sync/internal/core/domain"
)

var conflictsCmd = &cobra.Command{
	Use:   "conflicts <user-id>",
	Short: "List conflicts awaiting a decision",
	Long: `Lists the user's conflicts that the user_guided strategy deferred.
Answer one with 'eunio-sync resolve <conflict-id> <choice>'.`,
	Args: cobra.ExactArgs(1),
	RunE: runConflicts,
}

var resolveCmd = &cobra.Command{
	Use:   "resolve <conflict-id> <keep_local|keep_remote|merge>",
	Short: "Resolve a pending conflict",
	Long: `Applies a decision to a pending conflict. The chosen value is written
to both the local and the remote store.

Choices:
  keep_local   - keep the version on this device
  keep_remote  - keep the version in the remote store
  merge        - merge both versions field by field`,
	Args: cobra.ExactArgs(2),
	RunE: runResolve,
}

func init() {
	rootCmd.AddCommand(conflictsCmd)
	rootCmd.AddCommand(resolveCmd)
}

func runConflicts(cmd *cobra.Command, args []string) error {
	if conflictService == nil {
		return errors.New("conflict service not configured")
	}

	conflicts, err := conflictService.PendingConflicts(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to list conflicts: %w", err)
	}

	if len(conflicts) == 0 {
		cmd.Println("No pending conflicts.")
		return nil
	}

	cmd.Printf("%s awaiting a decision:\n\n", pluralise(len(conflicts), "conflict"))
	for _, c := range conflicts {
		cmd.Printf("  %s\n", c.ID)
		cmd.Printf("    Record:    %s %s\n", c.Entity, c.RecordID)
		cmd.Printf("    Detection: %s\n", c.Detection)
		cmd.Printf("    Detected:  %s\n", humanize.Time(c.DetectedAt))
		if c.Reason != "" {
			cmd.Printf("    Reason:    %s\n", c.Reason)
		}
		cmd.Println()
	}
	return nil
}

func runResolve(cmd *cobra.Command, args []string) error {
	if conflictService == nil {
		return errors.New("conflict service not configured")
	}

	conflictID := args[0]
	decision := domain.Decision(strings.ToLower(args[1]))
	if !decision.IsValid() {
		return fmt.Errorf("unknown choice %q: use keep_local, keep_remote or merge", args[1])
	}

	if err := conflictService.ConfirmResolution(cmd.Context(), conflictID, decision); err != nil {
		return fmt.Errorf("failed to resolve conflict: %w", err)
	}

	cmd.Printf("Conflict %s resolved: %s\n", conflictID, decision)
	return nil
}
