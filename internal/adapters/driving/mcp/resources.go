package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	// uriScheme is the custom URI scheme for eunio-sync resources.
	uriScheme = "eunio://"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "caches",
		Name:        "caches",
		Description: "Statistics of the read caches",
		MIMEType:    "application/json",
	}, s.handleCachesResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "users/{userId}/status",
		Name:        "user-sync-status",
		Description: "Sync state snapshot of a user",
		MIMEType:    "application/json",
	}, s.handleStatusResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "users/{userId}/conflicts",
		Name:        "user-conflicts",
		Description: "Conflicts of a user awaiting a decision",
		MIMEType:    "application/json",
	}, s.handleConflictsResource)
}

// handleCachesResource returns statistics for every configured cache.
func (s *Server) handleCachesResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	type cacheInfo struct {
		Name        string  `json:"name"`
		Entries     int     `json:"entries"`
		Capacity    int     `json:"capacity"`
		Utilization float64 `json:"utilization"`
		HitRatio    float64 `json:"hit_ratio"`
		Evictions   uint64  `json:"evictions"`
	}

	infos := make([]cacheInfo, len(s.ports.Caches))
	for i, c := range s.ports.Caches {
		stats := c.Stats()
		infos[i] = cacheInfo{
			Name:        c.Name(),
			Entries:     stats.Entries,
			Capacity:    stats.Capacity,
			Utilization: stats.Utilization(),
			HitRatio:    stats.HitRatio(),
			Evictions:   stats.Evictions,
		}
	}

	return jsonResource(req.Params.URI, infos)
}

// handleStatusResource returns the sync state of a user.
func (s *Server) handleStatusResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	userID := extractUserID(req.Params.URI, "/status")
	if userID == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	_, output, err := s.handleStatus(ctx, nil, UserInput{UserID: userID})
	if err != nil {
		return nil, fmt.Errorf("getting sync status: %w", err)
	}
	return jsonResource(req.Params.URI, output)
}

// handleConflictsResource returns the pending conflicts of a user.
func (s *Server) handleConflictsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	userID := extractUserID(req.Params.URI, "/conflicts")
	if userID == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	_, output, err := s.handleListConflicts(ctx, nil, UserInput{UserID: userID})
	if err != nil {
		return nil, fmt.Errorf("listing conflicts: %w", err)
	}
	return jsonResource(req.Params.URI, output.Conflicts)
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling resource: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// extractUserID extracts the user ID from a URI like eunio://users/{userId}/status.
func extractUserID(uri, suffix string) string {
	const prefix = uriScheme + "users/"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}

	uri = strings.TrimPrefix(uri, prefix)
	if !strings.HasSuffix(uri, suffix) {
		return ""
	}

	id := strings.TrimSuffix(uri, suffix)
	if strings.Contains(id, "/") {
		return ""
	}
	return id
}
