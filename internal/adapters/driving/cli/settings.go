package cli

import (
	"bufio"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/eunio-health/eunio-sync/internal/core/domain"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage engine settings",
	Long: `View and configure the conflict strategy, retry policy, caches and
scheduler. Settings are stored in ~/.eunio/config.toml.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsStrategyCmd = &cobra.Command{
	Use:   "strategy [strategy]",
	Short: "Set the conflict strategy",
	Long: `Set the strategy applied to detected conflicts.

Available strategies:
  last_write_wins   - the replica with the later timestamp wins
  field_level_merge - replicas are merged field by field
  user_guided       - conflicts wait for 'eunio-sync resolve'

Without an argument the strategy is chosen interactively.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSettingsStrategy,
}

var settingsNearWindowCmd = &cobra.Command{
	Use:   "near-window <duration>",
	Short: "Set the near-simultaneous edit window",
	Long: `Set the largest timestamp gap still treated as a near-simultaneous
edit, as a Go duration such as 15m or 90s.`,
	Args: cobra.ExactArgs(1),
	RunE: runSettingsNearWindow,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsStrategyCmd)
	settingsCmd.AddCommand(settingsNearWindowCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	cmd.Println("[Sync]")
	cmd.Printf("  Strategy: %s\n", settings.Sync.Strategy.Description())
	cmd.Printf("  Near window: %s\n", settings.Sync.NearWindow)
	cmd.Printf("  Max attempts: %d (retry delay %s)\n", settings.Sync.MaxAttempts, settings.Sync.RetryDelay)
	cmd.Printf("  Operation timeout: %s\n", settings.Sync.OperationTimeout)
	cmd.Printf("  Workers: %d\n", settings.Sync.Workers)
	if settings.Sync.RatePerSecond > 0 {
		cmd.Printf("  Rate limit: %g/s\n", settings.Sync.RatePerSecond)
	} else {
		cmd.Println("  Rate limit: off")
	}
	if settings.Sync.ManualTimeout > 0 {
		cmd.Printf("  Manual timeout: %s\n", settings.Sync.ManualTimeout)
	} else {
		cmd.Println("  Manual timeout: wait forever")
	}
	cmd.Println()

	cmd.Println("[Cache]")
	cmd.Printf("  Capacity: %d\n", settings.Cache.Capacity)
	if settings.Cache.TTL > 0 {
		cmd.Printf("  TTL: %s\n", settings.Cache.TTL)
	} else {
		cmd.Println("  TTL: never expires")
	}
	cmd.Println()

	cmd.Println("[Scheduler]")
	if !settings.Scheduler.Enabled {
		cmd.Println("  Enabled: no")
	} else {
		cmd.Println("  Enabled: yes")
		cmd.Printf("  Users: %s\n", strings.Join(settings.Scheduler.Users, ", "))
		for _, id := range []string{domain.TaskIDPeriodicSync, domain.TaskIDConflictExpiry} {
			tc := settings.Scheduler.GetTaskConfig(id)
			state := "off"
			if tc.Enabled {
				state = "every " + tc.Interval.String()
			}
			cmd.Printf("  %s: %s\n", id, state)
		}
	}

	return nil
}

func runSettingsStrategy(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	var selected domain.Strategy
	if len(args) == 1 {
		selected = domain.Strategy(args[0])
		if !selected.IsValid() {
			return fmt.Errorf("unknown strategy %q", args[0])
		}
	} else {
		reader := bufio.NewReader(cmd.InOrStdin())

		cmd.Println("Select Conflict Strategy")
		cmd.Println("------------------------")
		strategies := domain.AllStrategies()
		for i, s := range strategies {
			cmd.Printf("  %d. %s\n", i+1, s.Description())
		}
		cmd.Print("\nEnter choice: ")
		idx := parseChoice(readLine(reader), len(strategies), 0)
		if idx == 0 {
			return errors.New("invalid selection")
		}
		selected = strategies[idx-1]
	}

	if err := settingsService.SetStrategy(selected); err != nil {
		return fmt.Errorf("failed to set strategy: %w", err)
	}
	cmd.Printf("Conflict strategy set to: %s\n", selected.Description())
	return nil
}

func runSettingsNearWindow(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	window, err := time.ParseDuration(args[0])
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", args[0], err)
	}
	if err := settingsService.SetNearWindow(window); err != nil {
		return fmt.Errorf("failed to set near window: %w", err)
	}
	cmd.Printf("Near-simultaneous window set to: %s\n", window)
	return nil
}

// Helper functions.

//nolint:errcheck // CLI helper, error ignored for UX
func readLine(reader *bufio.Reader) string {
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func parseChoice(input string, maxVal, defaultVal int) int {
	if input == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(input)
	if err != nil || val < 1 || val > maxVal {
		return defaultVal
	}
	return val
}
