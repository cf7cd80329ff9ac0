// Package tui provides an interactive terminal dashboard for eunio-sync.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/eunio-health/eunio-sync/internal/core/ports/driving"
)

// Ports aggregates the driving port interfaces required by the TUI.
type Ports struct {
	// Sync runs passes and streams their status.
	Sync driving.SyncOrchestrator

	// Conflicts lists and answers pending conflicts.
	Conflicts driving.ConflictService
}

// NewPorts creates a new Ports aggregate with the given services.
func NewPorts(sync driving.SyncOrchestrator, conflicts driving.ConflictService) *Ports {
	return &Ports{
		Sync:      sync,
		Conflicts: conflicts,
	}
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p == nil {
		return ErrInvalidPorts
	}
	if p.Sync == nil {
		return ErrMissingSyncOrchestrator
	}
	if p.Conflicts == nil {
		return ErrMissingConflictService
	}
	return nil
}
