package mcp

import (
	"github.com/eunio-health/eunio-sync/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Sync runs passes and reports their status.
	Sync driving.SyncOrchestrator

	// Conflicts lists and answers pending conflicts.
	Conflicts driving.ConflictService

	// Caches are reported by the caches resource. Optional.
	Caches []driving.CacheControl
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Sync == nil {
		return ErrMissingSyncOrchestrator
	}
	if p.Conflicts == nil {
		return ErrMissingConflictService
	}
	return nil
}
