package slot

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/retailsense/concierge/plugin/llm"
)

func TestRuleFillerExtract(t *testing.T) {
	f := NewRuleFiller()
	ctx := context.Background()

	tests := []struct {
		name   string
		query  string
		intent string
		want   Slots
	}{
		{
			name:   "branch and time",
			query:  "How was branch A yesterday?",
			intent: "branch_status",
			want:   Slots{KeyBranchID: "A", KeyTimeRange: "yesterday"},
		},
		{
			name:   "kpi with branch and range",
			query:  "Show me sales for branch B last week",
			intent: "kpi_query",
			want:   Slots{KeyBranchID: "B", KeyTimeRange: "last_week", KeyKPIType: "sales"},
		},
		{
			name:   "occupancy maps to traffic",
			query:  "What's the occupancy of store S12 today?",
			intent: "kpi_query",
			want:   Slots{KeyBranchID: "S12", KeyTimeRange: "today", KeyKPIType: "traffic"},
		},
		{
			name:   "kpi default type",
			query:  "Numbers for branch C please",
			intent: "kpi_query",
			want:   Slots{KeyBranchID: "C", KeyKPIType: "general"},
		},
		{
			name:   "event type",
			query:  "Any maintenance scheduled this week?",
			intent: "event_query",
			want:   Slots{KeyEventType: "maintenance", KeyTimeRange: "this_week"},
		},
		{
			name:   "employee name",
			query:  "What tasks are assigned to John?",
			intent: "task_management",
			want:   Slots{KeyEmployeeName: "John"},
		},
		{
			name:   "iso date",
			query:  "Show traffic for branch A on 2024-01-15",
			intent: "kpi_query",
			want:   Slots{KeyBranchID: "A", KeyTimeRange: "2024-01-15", KeyKPIType: "traffic"},
		},
		{
			name:   "quarter",
			query:  "Revenue for outlet N3 in Q1 2024",
			intent: "kpi_query",
			want:   Slots{KeyBranchID: "N3", KeyTimeRange: "Q1 2024", KeyKPIType: "sales"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := f.Extract(ctx, tt.query, tt.intent)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestValidate(t *testing.T) {
	require.True(t, Validate(Slots{KeyBranchID: "A"}, "kpi_query"))
	require.False(t, Validate(Slots{KeyKPIType: "sales"}, "kpi_query"))
	require.False(t, Validate(Slots{}, "branch_status"))
	require.True(t, Validate(Slots{}, "task_management"))
	require.True(t, Validate(Slots{}, "chitchat"))
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

func TestLLMFillerExtract(t *testing.T) {
	f := NewLLMFiller(&fakeLLM{
		content: `{"branch_id": "B", "time_range": "last week", "kpi_type": "sales", "employee_name": null, "event_type": null, "product_name": null}`,
	})

	got, err := f.Extract(context.Background(), "Show me sales for branch B last week", "kpi_query")
	require.NoError(t, err)
	require.Equal(t, Slots{
		KeyBranchID:  "B",
		KeyTimeRange: "last week",
		KeyKPIType:   "sales",
	}, got)
}

func TestLLMFillerIgnoresUnknownKeys(t *testing.T) {
	f := NewLLMFiller(&fakeLLM{
		content: `{"branch_id": "A", "mood": "curious"}`,
	})

	got, err := f.Extract(context.Background(), "q", "kpi_query")
	require.NoError(t, err)
	require.Equal(t, Slots{KeyBranchID: "A"}, got)
}

func TestServiceFallsBackToRules(t *testing.T) {
	svc := NewService(NewRuleFiller(), NewLLMFiller(&fakeLLM{err: errors.New("timeout")}))

	got, err := svc.Extract(context.Background(), "Show me sales for branch B last week", "kpi_query")
	require.NoError(t, err)
	require.Equal(t, "B", got[KeyBranchID])
	require.Equal(t, "sales", got[KeyKPIType])
}

func TestServiceWithoutLLM(t *testing.T) {
	svc := NewService(NewRuleFiller(), nil)

	got, err := svc.Extract(context.Background(), "How crowded is branch A?", "branch_status")
	require.NoError(t, err)
	require.Equal(t, "A", got[KeyBranchID])
}
