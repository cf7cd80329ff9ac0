package mcp

import (
	"context"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/eunio-health/eunio-sync/internal/core/domain"
)

// SyncInput is the input schema for the sync_user_data tool.
type SyncInput struct {
	UserID string `json:"user_id" jsonschema:"the user whose records are synchronised"`
	Mode   string `json:"mode,omitempty" jsonschema:"full (default), upload or download"`
}

// SyncOutput is the output schema for the sync_user_data tool.
type SyncOutput struct {
	UserID     string         `json:"user_id"`
	Mode       string         `json:"mode"`
	Operations int            `json:"operations"`
	Counts     []EntityOutput `json:"counts"`
	Errors     []string       `json:"errors,omitempty"`
}

// EntityOutput holds the counters of one entity type.
type EntityOutput struct {
	Entity     string `json:"entity"`
	Uploaded   int    `json:"uploaded"`
	Downloaded int    `json:"downloaded"`
	Merged     int    `json:"merged"`
	Deferred   int    `json:"deferred"`
}

// UserInput is the input schema for tools that take only a user.
type UserInput struct {
	UserID string `json:"user_id" jsonschema:"the user to inspect"`
}

// StatusOutput is the output schema for the sync_status tool.
type StatusOutput struct {
	UserID        string      `json:"user_id"`
	Running       bool        `json:"running"`
	Phase         string      `json:"phase,omitempty"`
	Strategy      string      `json:"strategy"`
	LastCompleted string      `json:"last_completed,omitempty"`
	LastError     string      `json:"last_error,omitempty"`
	LastResult    *SyncOutput `json:"last_result,omitempty"`
}

// ConflictsOutput is the output schema for the list_conflicts tool.
type ConflictsOutput struct {
	Conflicts []ConflictOutput `json:"conflicts"`
	Count     int              `json:"count"`
}

// ConflictOutput describes one pending conflict.
type ConflictOutput struct {
	ID         string `json:"id"`
	Entity     string `json:"entity"`
	RecordID   string `json:"record_id"`
	Detection  string `json:"detection"`
	Reason     string `json:"reason,omitempty"`
	DetectedAt string `json:"detected_at"`
	Local      string `json:"local,omitempty"`
	Remote     string `json:"remote,omitempty"`
}

// ResolveInput is the input schema for the resolve_conflict tool.
type ResolveInput struct {
	ConflictID string `json:"conflict_id" jsonschema:"the pending conflict to answer"`
	Decision   string `json:"decision" jsonschema:"keep_local, keep_remote or merge"`
}

// ResolveOutput is the output schema for the resolve_conflict tool.
type ResolveOutput struct {
	ConflictID string `json:"conflict_id"`
	Decision   string `json:"decision"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "sync_user_data",
		Description: "Run a sync pass for a user and return the per-entity counts",
	}, s.handleSync)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "sync_status",
		Description: "Report whether a sync pass is running for a user and how the last one ended",
	}, s.handleStatus)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_conflicts",
		Description: "List a user's conflicts awaiting a manual decision",
	}, s.handleListConflicts)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "resolve_conflict",
		Description: "Answer a pending conflict with keep_local, keep_remote or merge",
	}, s.handleResolveConflict)
}

// handleSync handles the sync_user_data tool invocation.
func (s *Server) handleSync(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SyncInput,
) (*mcp.CallToolResult, SyncOutput, error) {
	if input.UserID == "" {
		return nil, SyncOutput{}, fmt.Errorf("%w: user_id is required", domain.ErrInvalidInput)
	}

	mode := input.Mode
	if mode == "" {
		mode = "full"
	}

	var (
		result domain.SyncResult
		err    error
	)
	switch mode {
	case "full":
		result, err = s.ports.Sync.SyncUserData(ctx, input.UserID)
	case "upload":
		result, err = s.ports.Sync.SyncPendingChanges(ctx, input.UserID)
	case "download":
		result, err = s.ports.Sync.DownloadRemoteChanges(ctx, input.UserID)
	default:
		return nil, SyncOutput{}, fmt.Errorf("%w: unknown mode %q", domain.ErrInvalidInput, input.Mode)
	}
	if err != nil {
		return nil, SyncOutput{}, err
	}

	return nil, toSyncOutput(input.UserID, mode, result), nil
}

// handleStatus handles the sync_status tool invocation.
func (s *Server) handleStatus(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input UserInput,
) (*mcp.CallToolResult, StatusOutput, error) {
	if input.UserID == "" {
		return nil, StatusOutput{}, fmt.Errorf("%w: user_id is required", domain.ErrInvalidInput)
	}

	state, err := s.ports.Sync.Status(ctx, input.UserID)
	if err != nil {
		return nil, StatusOutput{}, err
	}

	output := StatusOutput{
		UserID:    input.UserID,
		Running:   state.Running,
		Phase:     string(state.Phase),
		Strategy:  string(s.ports.Sync.Strategy()),
		LastError: state.LastError,
	}
	if !state.LastCompleted.IsZero() {
		output.LastCompleted = state.LastCompleted.UTC().Format(time.RFC3339)
	}
	if state.LastResult != nil {
		last := toSyncOutput(input.UserID, "", *state.LastResult)
		output.LastResult = &last
	}
	return nil, output, nil
}

// handleListConflicts handles the list_conflicts tool invocation.
func (s *Server) handleListConflicts(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input UserInput,
) (*mcp.CallToolResult, ConflictsOutput, error) {
	if input.UserID == "" {
		return nil, ConflictsOutput{}, fmt.Errorf("%w: user_id is required", domain.ErrInvalidInput)
	}

	conflicts, err := s.ports.Conflicts.PendingConflicts(ctx, input.UserID)
	if err != nil {
		return nil, ConflictsOutput{}, err
	}

	output := ConflictsOutput{
		Conflicts: make([]ConflictOutput, len(conflicts)),
		Count:     len(conflicts),
	}
	for i := range conflicts {
		output.Conflicts[i] = toConflictOutput(conflicts[i])
	}
	return nil, output, nil
}

// handleResolveConflict handles the resolve_conflict tool invocation.
func (s *Server) handleResolveConflict(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ResolveInput,
) (*mcp.CallToolResult, ResolveOutput, error) {
	decision := domain.Decision(input.Decision)
	if input.ConflictID == "" || !decision.IsValid() {
		return nil, ResolveOutput{}, fmt.Errorf("%w: conflict_id and a decision of keep_local, keep_remote or merge are required",
			domain.ErrInvalidInput)
	}

	if err := s.ports.Conflicts.ConfirmResolution(ctx, input.ConflictID, decision); err != nil {
		return nil, ResolveOutput{}, err
	}
	return nil, ResolveOutput{ConflictID: input.ConflictID, Decision: string(decision)}, nil
}

func toSyncOutput(userID, mode string, r domain.SyncResult) SyncOutput {
	output := SyncOutput{
		UserID:     userID,
		Mode:       mode,
		Operations: r.TotalOperations(),
	}
	for _, entity := range []domain.EntityType{domain.EntityUser, domain.EntityDailyLog, domain.EntitySettings} {
		c := r.Counts(entity)
		output.Counts = append(output.Counts, EntityOutput{
			Entity:     string(entity),
			Uploaded:   c.Uploaded,
			Downloaded: c.Downloaded,
			Merged:     c.Merged,
			Deferred:   c.Deferred,
		})
	}
	for i := range r.Errors {
		output.Errors = append(output.Errors, r.Errors[i].Error())
	}
	return output
}

func toConflictOutput(c domain.PendingConflict) ConflictOutput {
	return ConflictOutput{
		ID:         c.ID,
		Entity:     string(c.Entity),
		RecordID:   c.RecordID,
		Detection:  string(c.Detection),
		Reason:     c.Reason,
		DetectedAt: c.DetectedAt.UTC().Format(time.RFC3339),
		Local:      string(c.Local),
		Remote:     string(c.Remote),
	}
}
