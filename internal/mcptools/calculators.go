package mcptools

import (
	"context"
	"fmt"
	"strings"

	"hexagono/internal/dto"
	"hexagono/internal/model"
	"hexagono/internal/notify"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/shopspring/decimal"
)

func serviceTypeIDs() []string {
	out := make([]string, 0, 4)
	for _, st := range model.ServiceTypes() {
		out = append(out, string(st))
	}
	return out
}

// EstimateTool handles the estimate_quote MCP tool.
type EstimateTool struct{ calc Calculator }

func NewEstimateTool(calc Calculator) *EstimateTool { return &EstimateTool{calc: calc} }

// Definition returns the MCP tool definition for registration.
func (t *EstimateTool) Definition() mcp.Tool {
	return mcp.NewTool("estimate_quote",
		mcp.WithDescription(
			"Itemized price estimate for a service. "+
				"Feature costs are scaled by the service multiplier; unknown feature ids are left out. "+
				"Custom requirements longer than 100 characters add a complexity bonus. Nothing is stored.",
		),
		mcp.WithString("service_type",
			mcp.Required(),
			mcp.Enum(serviceTypeIDs()...),
			mcp.Description("Service to price."),
		),
		mcp.WithArray("features",
			mcp.WithStringItems(),
			mcp.Description("Feature ids, e.g. seo-optimization, contact-form, online-payments."),
		),
		mcp.WithString("custom_requirements",
			mcp.Description("Free-text requirements from the client."),
		),
	)
}

// Handle processes the estimate_quote tool call.
func (t *EstimateTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	serviceType := strings.ToUpper(strings.TrimSpace(req.GetString("service_type", "")))
	if serviceType == "" {
		return mcp.NewToolResultError("'service_type' is required"), nil
	}

	est, err := t.calc.Preview(ctx, dto.EstimateRequest{
		ServiceType:        serviceType,
		Features:           cleanList(req.GetStringSlice("features", nil)),
		CustomRequirements: req.GetString("custom_requirements", ""),
	})
	if err != nil {
		return toolError(err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Estimate: %s\n\n", est.ServiceType)
	fmt.Fprintf(&b, "| Item | Cost |\n|---|---|\n")
	fmt.Fprintf(&b, "| Base price | %s |\n", notify.FormatMoney(est.BasePrice))
	for _, f := range est.Features {
		fmt.Fprintf(&b, "| %s | %s |\n", f.Name, notify.FormatMoney(f.Cost))
	}
	if est.ComplexityBonus.IsPositive() {
		fmt.Fprintf(&b, "| Complexity bonus | %s |\n", notify.FormatMoney(est.ComplexityBonus))
	}
	fmt.Fprintf(&b, "\n**Total:** %s %s (priority %s)\n\n", notify.FormatMoney(est.Total), est.Currency, est.Priority)
	b.WriteString("_" + est.Disclaimer + "_\n")
	return mcp.NewToolResultText(b.String()), nil
}

// QuickQuoteTool handles the quick_quote MCP tool.
type QuickQuoteTool struct{ calc Calculator }

func NewQuickQuoteTool(calc Calculator) *QuickQuoteTool { return &QuickQuoteTool{calc: calc} }

// Definition returns the MCP tool definition for registration.
func (t *QuickQuoteTool) Definition() mcp.Tool {
	return mcp.NewTool("quick_quote",
		mcp.WithDescription(
			"Quick calculator: monthly plan price plus extras, multiplied by the urgency factor "+
				"and reduced by the discount rate, rounded to whole pesos.",
		),
		mcp.WithString("service_type",
			mcp.Required(),
			mcp.Enum(serviceTypeIDs()...),
			mcp.Description("Plan to price."),
		),
		mcp.WithNumber("extras",
			mcp.Min(0),
			mcp.Description("Extra amount added to the plan price before adjustments."),
		),
		mcp.WithString("urgency",
			mcp.Enum("normal", "urgent", "very-urgent"),
			mcp.Description("Delivery urgency (default normal)."),
		),
		mcp.WithString("discount",
			mcp.Enum("none", "first-client", "referral", "nonprofit", "annual-plan"),
			mcp.Description("Discount to apply (default none)."),
		),
	)
}

// Handle processes the quick_quote tool call.
func (t *QuickQuoteTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	serviceType := strings.ToUpper(strings.TrimSpace(req.GetString("service_type", "")))
	if serviceType == "" {
		return mcp.NewToolResultError("'service_type' is required"), nil
	}

	q, err := t.calc.Quick(ctx, dto.QuickQuoteRequest{
		ServiceType: serviceType,
		Extras:      decimal.NewFromFloat(req.GetFloat("extras", 0)),
		Urgency:     req.GetString("urgency", ""),
		Discount:    req.GetString("discount", ""),
	})
	if err != nil {
		return toolError(err)
	}

	text := fmt.Sprintf(
		"%s: plan %s, subtotal %s, urgency x%s, discount %s%% → **%s %s**",
		q.ServiceType,
		notify.FormatMoney(q.PlanPrice),
		notify.FormatMoney(q.Subtotal),
		q.UrgencyMultiplier.String(),
		q.DiscountRate.Mul(decimal.NewFromInt(100)).String(),
		notify.FormatMoney(q.Total),
		q.Currency,
	)
	return mcp.NewToolResultText(text), nil
}
