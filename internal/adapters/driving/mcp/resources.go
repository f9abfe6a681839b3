package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/partsearch/internal/core/domain"
)

const (
	// URIScheme is the custom URI scheme for partsearch resources.
	uriScheme = "partsearch://"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	// Static resource for catalog metrics.
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "metrics",
		Name:        "metrics",
		Description: "Summary of the loaded parts catalog",
		MIMEType:    "application/json",
	}, s.handleMetricsResource)

	// Template for a single part.
	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "parts/{partNumber}",
		Name:        "part",
		Description: "A single part with its cost and availability insights",
		MIMEType:    "application/json",
	}, s.handlePartResource)
}

// handleMetricsResource returns the quick metrics.
func (s *Server) handleMetricsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	m, err := s.ports.Search.QuickMetrics(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading metrics: %w", err)
	}
	return jsonResource(req.Params.URI, m)
}

// handlePartResource looks a part up by its part number.
func (s *Server) handlePartResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	// Extract partNumber from URI: partsearch://parts/{partNumber}
	partNumber := extractPartNumber(req.Params.URI)
	if partNumber == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	resp, err := s.ports.Search.Query(ctx, domain.QueryRequest{
		Query:    partNumber,
		Limit:    1,
		Strategy: domain.StrategyExactMatch,
	})
	if err != nil {
		return nil, fmt.Errorf("looking up part: %w", err)
	}
	if len(resp.Results) == 0 || !strings.EqualFold(resp.Results[0].PartNumber(), partNumber) {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	return jsonResource(req.Params.URI, toResultOutputs(resp.Results)[0])
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

// extractPartNumber extracts the part number from a URI like partsearch://parts/{partNumber}.
func extractPartNumber(uri string) string {
	const prefix = uriScheme + "parts/"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}

	partNumber := strings.TrimPrefix(uri, prefix)
	if strings.Contains(partNumber, "/") {
		return ""
	}
	return partNumber
}
