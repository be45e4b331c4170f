package mcptools

import (
	"context"
	"fmt"
	"strings"

	"hexagono/internal/model"
	"hexagono/internal/notify"

	"github.com/mark3labs/mcp-go/mcp"
)

// QuoteStatusTool handles the quote_status MCP tool. It shows the operator
// view, internal notes included.
type QuoteStatusTool struct{ reader StatusReader }

func NewQuoteStatusTool(reader StatusReader) *QuoteStatusTool {
	return &QuoteStatusTool{reader: reader}
}

// Definition returns the MCP tool definition for registration.
func (t *QuoteStatusTool) Definition() mcp.Tool {
	return mcp.NewTool("quote_status",
		mcp.WithDescription(
			"Look up a stored quote by its number (e.g. COT-20260301-0007). "+
				"Returns client, price, status, priority, assignee, the status history and notes.",
		),
		mcp.WithString("quote_number",
			mcp.Required(),
			mcp.Description("Quote number as sent to the client."),
		),
	)
}

// Handle processes the quote_status tool call.
func (t *QuoteStatusTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	number := strings.TrimSpace(req.GetString("quote_number", ""))
	if number == "" {
		return mcp.NewToolResultError("'quote_number' is required"), nil
	}

	q, err := t.reader.GetByNumber(ctx, number)
	if err != nil {
		return toolError(err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", q.QuoteNumber)
	fmt.Fprintf(&b, "- **Client:** %s <%s>\n", q.ClientName, q.ClientEmail)
	fmt.Fprintf(&b, "- **Service:** %s\n", model.ServiceType(q.ServiceType).Label())
	fmt.Fprintf(&b, "- **Estimated price:** %s %s\n", notify.FormatMoney(q.EstimatedPrice), q.Currency)
	fmt.Fprintf(&b, "- **Status:** %s (%s)\n", q.Status, model.QuoteStatus(q.Status).Label())
	fmt.Fprintf(&b, "- **Priority:** %s\n", q.Priority)
	if q.AssignedTo != nil {
		fmt.Fprintf(&b, "- **Assigned to:** %s\n", *q.AssignedTo)
	}
	fmt.Fprintf(&b, "- **Created:** %s\n", q.CreatedAt)

	if len(q.History) > 0 {
		b.WriteString("\n## History\n\n")
		for _, h := range q.History {
			from := "new"
			if h.PreviousStatus != nil {
				from = *h.PreviousStatus
			}
			fmt.Fprintf(&b, "- %s: %s → %s by %s", h.CreatedAt, from, h.NewStatus, h.ChangedBy)
			if h.Notes != nil {
				fmt.Fprintf(&b, " (%s)", *h.Notes)
			}
			b.WriteString("\n")
		}
	}

	if len(q.Notes) > 0 {
		b.WriteString("\n## Notes\n\n")
		for _, n := range q.Notes {
			visibility := "client"
			if n.Internal {
				visibility = "internal"
			}
			fmt.Fprintf(&b, "- [%s] %s, %s: %s\n", visibility, n.CreatedAt, n.Author, n.Body)
		}
	}
	return mcp.NewToolResultText(b.String()), nil
}
