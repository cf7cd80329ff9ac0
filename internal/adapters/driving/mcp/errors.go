// Package mcp provides an MCP (Model Context Protocol) server adapter for eunio-sync.
// It lets AI assistants run sync passes, read sync status and answer pending conflicts.
package mcp

import "errors"

// ErrMissingSyncOrchestrator is returned when the sync orchestrator is not provided.
var ErrMissingSyncOrchestrator = errors.New("mcp: sync orchestrator is required")

// ErrMissingConflictService is returned when the conflict service is not provided.
var ErrMissingConflictService = errors.New("mcp: conflict service is required")
