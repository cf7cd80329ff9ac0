package cli

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect the read caches",
	Long:  `Commands for inspecting and clearing the in-process read caches.`,
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cache statistics",
	RunE:  runCacheStats,
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Drop every cached entry",
	RunE:  runCacheClear,
}

func init() {
	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)
}

func runCacheStats(cmd *cobra.Command, _ []string) error {
	if len(caches) == 0 {
		cmd.Println("No caches configured.")
		return nil
	}

	cmd.Printf("%-12s %9s %6s %8s %8s %10s\n", "CACHE", "ENTRIES", "USED", "HITS", "MISSES", "EVICTIONS")
	for _, c := range caches {
		s := c.Stats()
		cmd.Printf("%-12s %9s %6s %8s %8s %10s\n",
			c.Name(),
			fmt.Sprintf("%d/%d", s.Entries, s.Capacity),
			fmt.Sprintf("%.0f%%", s.Utilization()*100),
			humanize.Comma(int64(s.Hits)),
			humanize.Comma(int64(s.Misses)),
			humanize.Comma(int64(s.Evictions)))
	}
	return nil
}

func runCacheClear(cmd *cobra.Command, _ []string) error {
	for _, c := range caches {
		c.InvalidateAll()
	}
	cmd.Printf("Cleared %s.\n", pluralise(len(caches), "cache"))
	return nil
}
