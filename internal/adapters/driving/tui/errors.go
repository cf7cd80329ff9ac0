package tui

import "errors"

// ErrMissingSyncOrchestrator is returned when the sync orchestrator is not provided.
var ErrMissingSyncOrchestrator = errors.New("tui: sync orchestrator is required")

// ErrMissingConflictService is returned when the conflict service is not provided.
var ErrMissingConflictService = errors.New("tui: conflict service is required")

// ErrMissingUser is returned when no user ID is given.
var ErrMissingUser = errors.New("tui: user id is required")

// ErrInvalidPorts is returned when ports validation fails.
var ErrInvalidPorts = errors.New("tui: invalid ports configuration")
