// Package mcptools exposes the quote calculators and the status lookup as MCP
// tools, so operators can price a request or check a quote from an assistant
// without opening the admin panel.
package mcptools

import (
	"context"
	"errors"
	"strings"

	"hexagono/internal/apierror"
	"hexagono/internal/dto"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Calculator is the pricing side of the quote service.
type Calculator interface {
	Preview(ctx context.Context, req dto.EstimateRequest) (*dto.EstimateResponse, error)
	Quick(ctx context.Context, req dto.QuickQuoteRequest) (*dto.QuickQuoteResponse, error)
}

// StatusReader looks quotes up by their public number.
type StatusReader interface {
	GetByNumber(ctx context.Context, number string) (*dto.QuoteResponse, error)
}

const serverInstructions = `Hexágono quote tools.
- estimate_quote: itemized estimate for a service and a list of feature ids. Nothing is stored.
- quick_quote: plan price plus extras, adjusted by urgency and discount.
- quote_status: current status, priority and history of a stored quote by number.
All amounts are ARS.`

// NewServer registers the tools on a new MCP server. status may be nil when no
// database is reachable; quote_status is then left out.
func NewServer(version string, calc Calculator, status StatusReader) *server.MCPServer {
	s := server.NewMCPServer(
		"hexagono-quotes",
		version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions),
	)

	estimate := NewEstimateTool(calc)
	s.AddTool(estimate.Definition(), estimate.Handle)

	quick := NewQuickQuoteTool(calc)
	s.AddTool(quick.Definition(), quick.Handle)

	if status != nil {
		st := NewQuoteStatusTool(status)
		s.AddTool(st.Definition(), st.Handle)
	}
	return s
}

// toolError turns a domain error into a tool-level error result. Only
// unexpected failures are returned as Go errors.
func toolError(err error) (*mcp.CallToolResult, error) {
	var e *apierror.Error
	if !errors.As(err, &e) || e.Kind == apierror.KindInternal {
		return nil, err
	}
	switch e.Kind {
	case apierror.KindNotFound:
		return mcp.NewToolResultError("quote not found"), nil
	case apierror.KindTransient:
		return mcp.NewToolResultError("quote store unavailable, try again"), nil
	}
	if e.Field != "" {
		return mcp.NewToolResultErrorf("%s: %s", e.Field, e.Detail), nil
	}
	return mcp.NewToolResultError(e.Detail), nil
}

func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
