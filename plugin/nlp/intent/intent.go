// Package intent classifies user queries into the retail analytics
// intent taxonomy. Classification is layered: deterministic rule
// overrides first, then an LLM classifier for everything the rules do
// not cover.
package intent

// Intent is a query intent category.
type Intent string

const (
	KPIQuery            Intent = "kpi_query"
	BranchStatus        Intent = "branch_status"
	PerformanceAnalysis Intent = "performance_analysis"
	TaskManagement      Intent = "task_management"
	EventQuery          Intent = "event_query"
	PromotionQuery      Intent = "promotion_query"
	Chitchat            Intent = "chitchat"
	Unknown             Intent = "unknown"

	// Rejected is recorded in the query log when a guardrail blocks the
	// query. It is never produced by a classifier.
	Rejected Intent = "rejected"
)

// All lists the intents a classifier may produce.
var All = []Intent{
	KPIQuery,
	BranchStatus,
	PerformanceAnalysis,
	TaskManagement,
	EventQuery,
	PromotionQuery,
	Chitchat,
	Unknown,
}

// IsValid reports whether s is a classifiable intent.
func IsValid(s string) bool {
	for _, it := range All {
		if string(it) == s {
			return true
		}
	}
	return false
}

// Description returns a human-readable description of the intent.
func Description(it Intent) string {
	switch it {
	case KPIQuery:
		return "Query about Key Performance Indicators"
	case BranchStatus:
		return "Query about branch status or information"
	case PerformanceAnalysis:
		return "Request for performance comparison or analysis"
	case TaskManagement:
		return "Task creation, assignment, or retrieval"
	case EventQuery:
		return "Query about events or incidents"
	case PromotionQuery:
		return "Query about promotions or offers"
	case Chitchat:
		return "Casual conversation"
	default:
		return "Intent could not be determined"
	}
}

// Result is a classification outcome.
type Result struct {
	Intent     Intent
	Confidence float64
	// Method records which layer produced the result: "rule" or "llm".
	Method string
	// Reasoning is the LLM's explanation, empty for rule matches.
	Reasoning string
}
