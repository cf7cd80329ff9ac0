package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/eunio-health/eunio-sync/internal/adapters/driving/tui/views/progress"
	"github.com/eunio-health/eunio-sync/internal/core/domain"
)

var syncCmd = &cobra.Command{
	Use:   "sync <user-id>",
	Short: "Synchronise a user's records",
	Long: `Runs a sync pass for one user: local changes are uploaded, remote
changes are downloaded, and concurrent edits are settled by the conflict
strategy.

Use --upload-only or --download-only to run a single phase. --strategy
overrides the configured conflict strategy for this run.`,
	Args: cobra.ExactArgs(1),
	RunE: runSync,
}

func init() {
	syncCmd.Flags().Bool("upload-only", false, "only upload pending local changes")
	syncCmd.Flags().Bool("download-only", false, "only download remote changes")
	syncCmd.Flags().String("strategy", "", "conflict strategy (last_write_wins, field_level_merge, user_guided)")
	syncCmd.Flags().Bool("plain", false, "print plain progress lines even on a terminal")
	syncCmd.MarkFlagsMutuallyExclusive("upload-only", "download-only")
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	if syncOrchestrator == nil {
		return errors.New("sync service not configured")
	}

	userID := args[0]
	uploadOnly, _ := cmd.Flags().GetBool("upload-only")     //nolint:errcheck // flag is registered
	downloadOnly, _ := cmd.Flags().GetBool("download-only") //nolint:errcheck // flag is registered
	strategyFlag, _ := cmd.Flags().GetString("strategy")    //nolint:errcheck // flag is registered
	plain, _ := cmd.Flags().GetBool("plain")                //nolint:errcheck // flag is registered

	if strategyFlag != "" {
		strategy := domain.Strategy(strategyFlag)
		if !strategy.IsValid() {
			return fmt.Errorf("unknown strategy %q", strategyFlag)
		}
		previous := syncOrchestrator.Strategy()
		if err := syncOrchestrator.SetStrategy(strategy); err != nil {
			return fmt.Errorf("setting strategy: %w", err)
		}
		defer syncOrchestrator.SetStrategy(previous) //nolint:errcheck // restoring a valid strategy
	}

	mode := "full"
	run := syncOrchestrator.SyncUserData
	switch {
	case uploadOnly:
		mode = "upload"
		run = syncOrchestrator.SyncPendingChanges
	case downloadOnly:
		mode = "download"
		run = syncOrchestrator.DownloadRemoteChanges
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	pass := func(ctx context.Context) (domain.SyncResult, error) {
		return run(ctx, userID)
	}

	cmd.Printf("Synchronising %s (%s, %s)...\n", userID, mode, syncOrchestrator.Strategy())

	status, unsubscribe := syncOrchestrator.ObserveSyncStatus(userID)
	defer unsubscribe()

	var (
		result domain.SyncResult
		err    error
	)
	if !plain && isTerminal(cmd) {
		result, err = syncInteractive(ctx, status, pass)
	} else {
		result, err = syncPlain(ctx, cmd, status, pass)
	}
	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}

	printResult(cmd, result)
	if deferred := totalDeferred(result); deferred > 0 {
		cmd.Printf("\n%s awaiting a decision. Run 'eunio-sync conflicts %s' to review.\n",
			pluralise(deferred, "conflict"), userID)
	}
	return nil
}

// isTerminal reports whether the command writes to an interactive terminal.
func isTerminal(cmd *cobra.Command) bool {
	f, ok := cmd.OutOrStdout().(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// syncInteractive runs the pass behind the bubbletea progress view.
func syncInteractive(
	ctx context.Context,
	status <-chan domain.SyncStatus,
	pass progress.RunFunc,
) (domain.SyncResult, error) {
	view := progress.NewStandalone(ctx, nil, status, pass)
	if _, err := tea.NewProgram(view, tea.WithContext(ctx)).Run(); err != nil {
		return domain.SyncResult{}, fmt.Errorf("progress view: %w", err)
	}
	if !view.Done() {
		return domain.SyncResult{}, context.Canceled
	}
	return view.Result(), view.Err()
}

// syncPlain runs the pass and prints one line per phase as it starts.
func syncPlain(
	ctx context.Context,
	cmd *cobra.Command,
	status <-chan domain.SyncStatus,
	pass progress.RunFunc,
) (domain.SyncResult, error) {
	type outcome struct {
		result domain.SyncResult
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		result, err := pass(ctx)
		done <- outcome{result: result, err: err}
	}()

	for {
		select {
		case s, ok := <-status:
			if !ok {
				status = nil
				continue
			}
			printPhase(cmd, s)
		case out := <-done:
			// Events published before the pass returned are still buffered.
			for {
				select {
				case s, ok := <-status:
					if !ok {
						return out.result, out.err
					}
					printPhase(cmd, s)
				default:
					return out.result, out.err
				}
			}
		}
	}
}

func printPhase(cmd *cobra.Command, s domain.SyncStatus) {
	if s.Phase.IsTerminal() {
		return
	}
	cmd.Printf("  %s...\n", s.Phase.Description())
}

func printResult(cmd *cobra.Command, r domain.SyncResult) {
	cmd.Println()
	cmd.Printf("%-10s %8s %8s %8s %8s\n", "ENTITY", "UPLOADED", "DOWNLOAD", "MERGED", "DEFERRED")
	for _, entity := range []domain.EntityType{domain.EntityUser, domain.EntityDailyLog, domain.EntitySettings} {
		c := r.Counts(entity)
		cmd.Printf("%-10s %8s %8s %8s %8s\n", entity,
			humanize.Comma(int64(c.Uploaded)),
			humanize.Comma(int64(c.Downloaded)),
			humanize.Comma(int64(c.Merged)),
			humanize.Comma(int64(c.Deferred)))
	}
	cmd.Println()
	cmd.Printf("%s, %s\n",
		pluralise(r.TotalOperations(), "operation"),
		pluralise(len(r.Errors), "record error"))
	for i := range r.Errors {
		cmd.Printf("  %v\n", &r.Errors[i])
	}
}

func totalDeferred(r domain.SyncResult) int {
	return r.Users.Deferred + r.DailyLogs.Deferred + r.Settings.Deferred
}

func pluralise(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return humanize.Comma(int64(n)) + " " + noun + "s"
}
