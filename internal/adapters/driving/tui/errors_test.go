package tui

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrors_AreDistinct(t *testing.T) {
	errors := []error{
		ErrMissingSyncOrchestrator,
		ErrMissingConflictService,
		ErrMissingUser,
		ErrInvalidPorts,
	}

	seen := make(map[string]bool)
	for _, err := range errors {
		msg := err.Error()
		assert.False(t, seen[msg], "duplicate error message: %s", msg)
		seen[msg] = true
	}
}

func TestErrMissingSyncOrchestrator_Message(t *testing.T) {
	assert.Contains(t, ErrMissingSyncOrchestrator.Error(), "sync orchestrator")
}

func TestErrMissingConflictService_Message(t *testing.T) {
	assert.Contains(t, ErrMissingConflictService.Error(), "conflict service")
}

func TestErrInvalidPorts_Message(t *testing.T) {
	assert.Contains(t, ErrInvalidPorts.Error(), "invalid ports")
}
