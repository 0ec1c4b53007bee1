package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const uriScheme = "sessync://"

// historyResourceLimit bounds the history resource.
const historyResourceLimit = 20

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "status",
		Name:        "status",
		Description: "Last sync outcome, last clear, last connection test and scheduler state",
		MIMEType:    "application/json",
	}, s.handleStatusResource)

	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "history",
		Name:        "history",
		Description: "Most recent terminal sync outcomes",
		MIMEType:    "application/json",
	}, s.handleHistoryResource)
}

func (s *Server) handleStatusResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	status, err := s.ports.Agent.Status(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading status: %w", err)
	}
	return jsonResource(req.Params.URI, status)
}

func (s *Server) handleHistoryResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	outcomes, err := s.ports.Agent.History(ctx, historyResourceLimit)
	if err != nil {
		return nil, fmt.Errorf("reading history: %w", err)
	}
	return jsonResource(req.Params.URI, outcomes)
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling %s: %w", uri, err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}
