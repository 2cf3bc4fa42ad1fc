package respond

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/retailsense/concierge/plugin/llm"
	"github.com/retailsense/concierge/plugin/nlp/intent"
	"github.com/retailsense/concierge/plugin/nlp/slot"
)

func TestRuleGeneratorKPIResponse(t *testing.T) {
	g := NewRuleGenerator()

	text, sources := g.Generate(Input{
		Query:    "Show me sales for branch A",
		Intent:   intent.KPIQuery,
		Slots:    slot.Slots{slot.KeyBranchID: "A", slot.KeyKPIType: "sales", slot.KeyTimeRange: "yesterday"},
		Endpoint: "/api/v1/kpis/branch/A?date=yesterday&kpi_type=sales",
		Contexts: []ContextDoc{
			{Text: "Sales is the total transaction revenue per window.", Source: "kpi_docs", DocType: "kpi_explanation"},
		},
	})

	require.Contains(t, text, "I'll retrieve the sales KPI data for A during yesterday.")
	require.Contains(t, text, "Context: Sales is the total transaction revenue per window.")
	require.Contains(t, text, "Core endpoint used: /api/v1/kpis/branch/A")
	require.Equal(t, []string{"kpi_docs"}, sources)
}

func TestRuleGeneratorTaskResponse(t *testing.T) {
	g := NewRuleGenerator()

	text, _ := g.Generate(Input{
		Intent:   intent.TaskManagement,
		Slots:    slot.Slots{slot.KeyEmployeeName: "John"},
		Endpoint: "/api/v1/tasks?assigned_to=John",
	})
	require.Contains(t, text, "tasks assigned to John")

	text, _ = g.Generate(Input{Intent: intent.TaskManagement, Slots: slot.Slots{}, Endpoint: "/api/v1/tasks"})
	require.Contains(t, text, "I'll retrieve the task list.")
}

func TestRuleGeneratorChitchat(t *testing.T) {
	g := NewRuleGenerator()

	tests := []struct {
		query string
		want  string
	}{
		{"Hello there", "Hello!"},
		{"how are you doing", "functioning well"},
		{"thanks a lot", "You're welcome"},
		{"ok bye", "Goodbye"},
		{"tell me a joke", "I'm here to help with retail analytics"},
	}
	for _, tt := range tests {
		text, sources := g.Generate(Input{Query: tt.query, Intent: intent.Chitchat})
		require.Contains(t, text, tt.want)
		require.Nil(t, sources)
	}
}

func TestRuleGeneratorUnknown(t *testing.T) {
	g := NewRuleGenerator()

	text, _ := g.Generate(Input{Intent: intent.Unknown})
	require.Contains(t, text, "I'm not sure I understand your request")
	require.Contains(t, text, "KPI queries")
}

func TestFormatCoreResponseKPI(t *testing.T) {
	text := FormatCoreResponse(Input{
		Intent:   intent.KPIQuery,
		Slots:    slot.Slots{slot.KeyBranchID: "A", slot.KeyKPIType: "traffic"},
		Endpoint: "/api/v1/kpis/branch/A?date=today&kpi_type=traffic",
		CoreData: map[string]any{
			"value": []any{
				map[string]any{
					"time_window_start": "2024-01-15T09:00:00Z",
					"time_window_end":   "2024-01-15T10:00:00Z",
					"traffic_index":     0.82,
					"conversion_proxy":  0.31,
					"avg_dwell_time":    145.2,
					"congestion_level":  "medium",
					"utilization_ratio": 0.64,
				},
			},
			"Count": float64(1),
		},
	})

	require.Contains(t, text, "Here are the KPIs for **A** (type: **traffic**)")
	require.Contains(t, text, "traffic_index: 0.82")
	require.Contains(t, text, "congestion_level: medium")
	require.Contains(t, text, "Rows returned: 1")
}

func TestFormatCoreResponseEmptyRows(t *testing.T) {
	text := FormatCoreResponse(Input{
		Intent:   intent.KPIQuery,
		Slots:    slot.Slots{slot.KeyBranchID: "B"},
		Endpoint: "/api/v1/kpis/branch/B?date=today&kpi_type=general",
		CoreData: map[string]any{"value": []any{}},
	})
	require.Contains(t, text, "no KPI rows back")
	require.Contains(t, text, "Branch: B")
}

func TestFormatCoreResponseGeneric(t *testing.T) {
	text := FormatCoreResponse(Input{
		Intent:   intent.BranchStatus,
		Endpoint: "/api/v1/recommendations/A",
		CoreData: map[string]any{"recommendations": []any{}, "branch_id": "A"},
	})
	require.Contains(t, text, "I fetched data from Core Backend.")
	require.Contains(t, text, "Raw keys: [branch_id, recommendations]")
}

type fakeLLM struct {
	content string
	err     error
}

func (f *fakeLLM) Chat(_ context.Context, _ []llm.Message) (string, error) {
	return f.content, f.err
}

func (f *fakeLLM) ChatJSON(ctx context.Context, messages []llm.Message, out any) error {
	content, err := f.Chat(ctx, messages)
	if err != nil {
		return err
	}
	return llm.DecodeJSON(content, out)
}

func TestServicePrefersCoreData(t *testing.T) {
	svc := NewService(NewRuleGenerator(), NewLLMGenerator(&fakeLLM{content: "llm text"}))

	got := svc.Generate(context.Background(), Input{
		Intent:   intent.BranchStatus,
		Endpoint: "/api/v1/recommendations/A",
		CoreData: map[string]any{"branch_id": "A"},
	})
	require.Contains(t, got.Text, "I fetched data from Core Backend.")
	require.Equal(t, []string{"core_backend"}, got.Sources)
	require.NotEmpty(t, got.HTML)
}

func TestServiceUsesLLMWithoutCoreData(t *testing.T) {
	svc := NewService(NewRuleGenerator(), NewLLMGenerator(&fakeLLM{content: "Certainly, pulling that up."}))

	got := svc.Generate(context.Background(), Input{
		Query:    "Compare branch A and B",
		Intent:   intent.PerformanceAnalysis,
		Endpoint: "/api/v1/recommendations/A",
		Contexts: []ContextDoc{{Text: "doc", Source: "business_rules"}},
	})
	require.Equal(t, "Certainly, pulling that up.", got.Text)
	require.Equal(t, []string{"business_rules"}, got.Sources)
}

func TestServiceFallsBackToTemplates(t *testing.T) {
	svc := NewService(NewRuleGenerator(), NewLLMGenerator(&fakeLLM{err: errors.New("down")}))

	got := svc.Generate(context.Background(), Input{
		Intent:   intent.EventQuery,
		Slots:    slot.Slots{slot.KeyEventType: "incident"},
		Endpoint: "/api/v1/events?type=incident",
	})
	require.Contains(t, got.Text, "I'll retrieve incident events")
}

func TestRenderHTML(t *testing.T) {
	html, err := RenderHTML("Here are the KPIs for **A**:\n\n- traffic_index: 0.82")
	require.NoError(t, err)
	require.Contains(t, html, "<strong>A</strong>")
	require.Contains(t, html, "<li>")
}
