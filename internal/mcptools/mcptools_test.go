package mcptools

import (
	"context"
	"errors"
	"testing"

	"hexagono/internal/apierror"
	"hexagono/internal/dto"
	"hexagono/internal/service"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ── helpers ───────────────────────────────────────────────────────────────────

func makeReq(args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, result)
	require.NotEmpty(t, result.Content)
	tc, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected TextContent, got %T", result.Content[0])
	return tc.Text
}

type stubStatus struct {
	resp   *dto.QuoteResponse
	err    error
	lastNo string
}

func (s *stubStatus) GetByNumber(_ context.Context, number string) (*dto.QuoteResponse, error) {
	s.lastNo = number
	return s.resp, s.err
}

type failingCalc struct{ err error }

func (f failingCalc) Preview(context.Context, dto.EstimateRequest) (*dto.EstimateResponse, error) {
	return nil, f.err
}

func (f failingCalc) Quick(context.Context, dto.QuickQuoteRequest) (*dto.QuickQuoteResponse, error) {
	return nil, f.err
}

func calculator() Calculator {
	return service.NewQuoteService(service.QuoteServiceDeps{})
}

// ── estimate_quote ────────────────────────────────────────────────────────────

func TestEstimateTool_Definition(t *testing.T) {
	def := NewEstimateTool(calculator()).Definition()
	assert.Equal(t, "estimate_quote", def.Name)
	assert.Contains(t, def.InputSchema.Required, "service_type")
}

func TestEstimateTool_ItemizedTotal(t *testing.T) {
	tool := NewEstimateTool(calculator())
	result, err := tool.Handle(context.Background(), makeReq(map[string]any{
		"service_type": "landing_page",
		"features":     []any{"seo-optimization", " ", "does-not-exist"},
	}))
	require.NoError(t, err)
	assert.False(t, result.IsError)

	text := resultText(t, result)
	assert.Contains(t, text, "LANDING_PAGE")
	assert.Contains(t, text, "priority MEDIUM")
	assert.NotContains(t, text, "does-not-exist")
}

func TestEstimateTool_MissingServiceType(t *testing.T) {
	result, err := NewEstimateTool(calculator()).Handle(context.Background(), makeReq(map[string]any{}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "service_type")
}

func TestEstimateTool_UnknownServiceIsToolError(t *testing.T) {
	result, err := NewEstimateTool(calculator()).Handle(context.Background(), makeReq(map[string]any{
		"service_type": "MOBILE_APP",
	}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestEstimateTool_InternalErrorPropagates(t *testing.T) {
	boom := errors.New("boom")
	result, err := NewEstimateTool(failingCalc{err: boom}).Handle(context.Background(), makeReq(map[string]any{
		"service_type": "ECOMMERCE",
	}))
	assert.Nil(t, result)
	assert.ErrorIs(t, err, boom)
}

// ── quick_quote ───────────────────────────────────────────────────────────────

func TestQuickQuoteTool_UrgentFirstClient(t *testing.T) {
	result, err := NewQuickQuoteTool(calculator()).Handle(context.Background(), makeReq(map[string]any{
		"service_type": "SOCIAL_MEDIA",
		"extras":       20000.0,
		"urgency":      "urgent",
		"discount":     "first-client",
	}))
	require.NoError(t, err)
	assert.False(t, result.IsError)

	text := resultText(t, result)
	assert.Contains(t, text, "SOCIAL_MEDIA")
	assert.Contains(t, text, "urgency x1.25")
	assert.Contains(t, text, "discount 10%")
}

func TestQuickQuoteTool_InvalidUrgency(t *testing.T) {
	result, err := NewQuickQuoteTool(calculator()).Handle(context.Background(), makeReq(map[string]any{
		"service_type": "SOCIAL_MEDIA",
		"urgency":      "yesterday",
	}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

// ── quote_status ──────────────────────────────────────────────────────────────

func TestQuoteStatusTool_Found(t *testing.T) {
	prev := "PENDING"
	assignee := "lucia"
	st := &stubStatus{resp: &dto.QuoteResponse{
		QuoteSummary: dto.QuoteSummary{
			QuoteNumber:    "COT-20260301-0007",
			ClientName:     "Ana",
			ClientEmail:    "ana@example.com",
			ServiceType:    "ECOMMERCE",
			EstimatedPrice: decimal.NewFromInt(514000),
			Status:         "IN_REVIEW",
			Priority:       "HIGH",
			AssignedTo:     &assignee,
		},
		Currency: "ARS",
		History: []dto.HistoryEntryResponse{
			{NewStatus: "PENDING", ChangedBy: "system"},
			{PreviousStatus: &prev, NewStatus: "IN_REVIEW", ChangedBy: "lucia"},
		},
		Notes: []dto.NoteResponse{{Author: "lucia", Body: "call back monday", Internal: true}},
	}}

	result, err := NewQuoteStatusTool(st).Handle(context.Background(), makeReq(map[string]any{
		"quote_number": "  cot-20260301-0007 ",
	}))
	require.NoError(t, err)
	assert.False(t, result.IsError)
	assert.Equal(t, "cot-20260301-0007", st.lastNo)

	text := resultText(t, result)
	assert.Contains(t, text, "COT-20260301-0007")
	assert.Contains(t, text, "PENDING → IN_REVIEW by lucia")
	assert.Contains(t, text, "[internal]")
	assert.Contains(t, text, "**Assigned to:** lucia")
}

func TestQuoteStatusTool_ErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"not found", apierror.NotFound("quote_number", "no quote %s", "X"), "quote not found"},
		{"store down", apierror.Transient(errors.New("conn refused")), "try again"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := NewQuoteStatusTool(&stubStatus{err: tt.err}).Handle(context.Background(), makeReq(map[string]any{
				"quote_number": "COT-1",
			}))
			require.NoError(t, err)
			assert.True(t, result.IsError)
			assert.Contains(t, resultText(t, result), tt.want)
		})
	}
}

func TestQuoteStatusTool_MissingNumber(t *testing.T) {
	result, err := NewQuoteStatusTool(&stubStatus{}).Handle(context.Background(), makeReq(map[string]any{
		"quote_number": "   ",
	}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

// ── server ────────────────────────────────────────────────────────────────────

func TestNewServer_StatusToolOptional(t *testing.T) {
	withStatus := NewServer("test", calculator(), &stubStatus{})
	assert.Len(t, withStatus.ListTools(), 3)

	calcOnly := NewServer("test", calculator(), nil)
	tools := calcOnly.ListTools()
	assert.Len(t, tools, 2)
	assert.NotContains(t, tools, "quote_status")
}
