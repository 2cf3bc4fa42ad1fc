package slot

import (
	"context"
	"fmt"

	"github.com/retailsense/concierge/plugin/llm"
)

const fillerSystemPrompt = `You are an entity extractor for retail analytics queries.
Extract these entities when present:
- branch_id: Branch identifier (e.g., "A", "B", "branch-001")
- time_range: Time period (e.g., "yesterday", "last week", "Q1 2024")
- kpi_type: Metric type (traffic, sales, conversion, revenue, footfall, dwell_time, basket_size)
- employee_name: Employee or staff name
- event_type: Type of event or incident
- product_name: Product or item name

Respond with JSON containing only the entities found. Use null for missing entities.

Examples:
Query: How was branch A yesterday?
Output: {"branch_id": "A", "time_range": "yesterday", "kpi_type": null, "employee_name": null, "event_type": null, "product_name": null}

Query: Show me sales for branch B last week
Output: {"branch_id": "B", "time_range": "last week", "kpi_type": "sales", "employee_name": null, "event_type": null, "product_name": null}

Query: What's the conversion rate for all branches this month?
Output: {"branch_id": null, "time_range": "this month", "kpi_type": "conversion", "employee_name": null, "event_type": null, "product_name": null}

Query: Create a task for John to check inventory
Output: {"branch_id": null, "time_range": null, "kpi_type": null, "employee_name": "John", "event_type": null, "product_name": null}`

// LLMFiller extracts slots with the LLM. A nil or empty entity in the
// completion means the slot is absent.
type LLMFiller struct {
	llm llm.Service
}

func NewLLMFiller(svc llm.Service) *LLMFiller {
	return &LLMFiller{llm: svc}
}

func (f *LLMFiller) Extract(ctx context.Context, query string, _ string) (Slots, error) {
	var out map[string]*string

	messages := []llm.Message{
		llm.SystemPrompt(fillerSystemPrompt),
		llm.UserMessage(fmt.Sprintf("Now extract entities from this query:\nQuery: %s\nOutput:", query)),
	}
	if err := f.llm.ChatJSON(ctx, messages, &out); err != nil {
		return nil, err
	}

	slots := Slots{}
	for key, value := range out {
		if value == nil || *value == "" {
			continue
		}
		switch key {
		case KeyBranchID, KeyTimeRange, KeyKPIType, KeyEmployeeName, KeyEventType, KeyProductName:
			slots[key] = *value
		}
	}
	return slots, nil
}
