// Package cli provides the cobra command tree for eunio-sync.
// It is a driving adapter: every command talks to the core through the
// driving ports injected with SetServices.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/eunio-health/eunio-sync/internal/core/domain"
	"github.com/eunio-health/eunio-sync/internal/core/ports/driving"
	"github.com/eunio-health/eunio-sync/internal/logger"
)

// version is set at build time via -ldflags or SetVersion.
var version = "dev"

// Services injected by the composition root.
var (
	syncOrchestrator driving.SyncOrchestrator
	conflictService  driving.ConflictService
	settingsService  driving.SettingsService
	scheduler        driving.Scheduler
	schedulerConfig  domain.SchedulerConfig
	caches           []driving.CacheControl
)

// Services aggregates the driving ports the commands use.
type Services struct {
	Sync            driving.SyncOrchestrator
	Conflicts       driving.ConflictService
	Settings        driving.SettingsService
	Scheduler       driving.Scheduler
	SchedulerConfig domain.SchedulerConfig
	Caches          []driving.CacheControl
}

var rootCmd = &cobra.Command{
	Use:   "eunio-sync",
	Short: "Offline-first sync for Eunio health records",
	Long: `eunio-sync reconciles the records kept on this device with the remote
document store. Local writes are queued and uploaded on the next pass;
remote changes are downloaded through the changed-since feed, and
concurrent edits are settled by the configured conflict strategy.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, _ []string) {
		if verbose, err := cmd.Flags().GetBool("verbose"); err == nil && verbose {
			logger.SetVerbose(true)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "print debug logging")
}

// SetServices injects the core services into the command tree.
func SetServices(s Services) {
	syncOrchestrator = s.Sync
	conflictService = s.Conflicts
	settingsService = s.Settings
	scheduler = s.Scheduler
	schedulerConfig = s.SchedulerConfig
	caches = s.Caches
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
