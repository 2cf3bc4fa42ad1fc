package route

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/retailsense/concierge/plugin/nlp/intent"
	"github.com/retailsense/concierge/plugin/nlp/slot"
)

func TestRouterResolve(t *testing.T) {
	r := NewRouter()

	tests := []struct {
		name   string
		intent intent.Intent
		slots  slot.Slots
		want   string
	}{
		{
			name:   "kpi query with slots",
			intent: intent.KPIQuery,
			slots:  slot.Slots{slot.KeyBranchID: "A", slot.KeyTimeRange: "yesterday", slot.KeyKPIType: "sales"},
			want:   "/api/v1/kpis/branch/A?date=yesterday&kpi_type=sales",
		},
		{
			name:   "kpi query defaults",
			intent: intent.KPIQuery,
			slots:  slot.Slots{},
			want:   "/api/v1/kpis/branch/unknown?date=today&kpi_type=general",
		},
		{
			name:   "branch status",
			intent: intent.BranchStatus,
			slots:  slot.Slots{slot.KeyBranchID: "B"},
			want:   "/api/v1/recommendations/B",
		},
		{
			name:   "performance analysis",
			intent: intent.PerformanceAnalysis,
			slots:  slot.Slots{slot.KeyBranchID: "C"},
			want:   "/api/v1/recommendations/C",
		},
		{
			name:   "tasks with assignee",
			intent: intent.TaskManagement,
			slots:  slot.Slots{slot.KeyEmployeeName: "John"},
			want:   "/api/v1/tasks?assigned_to=John",
		},
		{
			name:   "tasks without assignee",
			intent: intent.TaskManagement,
			slots:  slot.Slots{},
			want:   "/api/v1/tasks",
		},
		{
			name:   "events with filters",
			intent: intent.EventQuery,
			slots:  slot.Slots{slot.KeyEventType: "incident", slot.KeyTimeRange: "today"},
			want:   "/api/v1/events?date=today&type=incident",
		},
		{
			name:   "events bare",
			intent: intent.EventQuery,
			slots:  slot.Slots{},
			want:   "/api/v1/events",
		},
		{
			name:   "promotions with product",
			intent: intent.PromotionQuery,
			slots:  slot.Slots{slot.KeyProductName: "coffee"},
			want:   "/api/v1/promotions?product=coffee",
		},
		{
			name:   "chitchat",
			intent: intent.Chitchat,
			slots:  slot.Slots{},
			want:   "/chitchat",
		},
		{
			name:   "unknown",
			intent: intent.Unknown,
			slots:  slot.Slots{},
			want:   "/unknown",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := r.Resolve(tt.intent, tt.slots)
			require.Equal(t, tt.want, got.Endpoint)
			require.Equal(t, "GET", got.Method)
		})
	}
}
