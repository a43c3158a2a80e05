// ABOUTME: MCP resource handlers for exposing campaign data
// ABOUTME: Provides read-only JSON views of collection counts and experiment generators via URI
package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/outbound/campaign"
)

const resourceScheme = "outbound://"

type ResourceHandlers struct {
	engine *campaign.Engine
}

func NewResourceHandlers(engine *campaign.Engine) *ResourceHandlers {
	return &ResourceHandlers{engine: engine}
}

// ReadResource handles resource read requests
func (h *ResourceHandlers) ReadResource(ctx context.Context, request *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	uri := request.Params.URI
	if !strings.HasPrefix(uri, resourceScheme) {
		return nil, fmt.Errorf("invalid URI scheme: expected %s", resourceScheme)
	}

	switch strings.TrimPrefix(uri, resourceScheme) {
	case "statistics":
		stats, err := h.engine.Statistics(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to count records: %w", err)
		}
		return jsonResource(uri, stats)

	case "experimentgenerators":
		gens, err := h.engine.ListExperimentGenerators(ctx, "", "")
		if err != nil {
			return nil, fmt.Errorf("failed to fetch experiment generators: %w", err)
		}
		return jsonResource(uri, gens)

	default:
		return nil, fmt.Errorf("unknown resource: %s", uri)
	}
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s: %w", uri, err)
	}

	return &mcp.ReadResourceResult{Contents: []*mcp.ResourceContents{
		{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}}, nil
}
