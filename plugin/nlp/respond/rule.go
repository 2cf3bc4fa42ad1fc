package respond

import (
	"fmt"
	"strings"

	"github.com/retailsense/concierge/plugin/nlp/intent"
	"github.com/retailsense/concierge/plugin/nlp/slot"
)

// RuleGenerator produces deterministic template responses. It is the
// last line of defense: it never fails.
type RuleGenerator struct{}

func NewRuleGenerator() *RuleGenerator {
	return &RuleGenerator{}
}

// Generate returns the response text and its sources.
func (g *RuleGenerator) Generate(in Input) (string, []string) {
	var text string
	switch in.Intent {
	case intent.KPIQuery:
		text = g.kpiResponse(in)
	case intent.BranchStatus:
		text = g.branchStatusResponse(in)
	case intent.PerformanceAnalysis:
		text = g.performanceResponse(in)
	case intent.TaskManagement:
		text = g.taskResponse(in)
	case intent.EventQuery:
		text = g.eventResponse(in)
	case intent.PromotionQuery:
		text = g.promotionResponse(in)
	case intent.Chitchat:
		return g.chitchatResponse(in.Query), nil
	default:
		return g.unknownResponse(in), nil
	}
	return text, contextSources(in.Contexts)
}

func (g *RuleGenerator) kpiResponse(in Input) string {
	branchID := slotOr(in.Slots, slot.KeyBranchID, "the specified branch")
	timeRange := slotOr(in.Slots, slot.KeyTimeRange, "the requested period")
	kpiType := slotOr(in.Slots, slot.KeyKPIType, "general")

	var b strings.Builder
	fmt.Fprintf(&b, "I'll retrieve the %s KPI data for %s during %s.", kpiType, branchID, timeRange)

	for _, doc := range in.Contexts {
		if doc.DocType != "kpi_explanation" {
			continue
		}
		if strings.Contains(strings.ToLower(doc.Text), kpiType) || doc.Metadata["kpi"] == kpiType {
			fmt.Fprintf(&b, "\n\nContext: %s", doc.Text)
			break
		}
	}

	fmt.Fprintf(&b, "\n\nCore endpoint used: %s", in.Endpoint)
	return b.String()
}

func (g *RuleGenerator) branchStatusResponse(in Input) string {
	branchID := slotOr(in.Slots, slot.KeyBranchID, "the specified branch")
	return fmt.Sprintf(
		"I'll check the current status of %s. This includes occupancy levels, staff on duty, and any operational alerts.\n\nCore endpoint used: %s",
		branchID, in.Endpoint)
}

func (g *RuleGenerator) performanceResponse(in Input) string {
	branchID := slotOr(in.Slots, slot.KeyBranchID, "the branch")

	var b strings.Builder
	fmt.Fprintf(&b, "I've analyzed the performance of %s.", branchID)

	for _, doc := range in.Contexts {
		text := strings.ToLower(doc.Text)
		if strings.Contains(text, "performance") || strings.Contains(text, "issue") ||
			strings.Contains(text, "recommendation") || strings.Contains(text, "traffic") ||
			strings.Contains(text, "underperforming") {
			fmt.Fprintf(&b, "\n\nContext: %s", doc.Text)
			break
		}
	}

	fmt.Fprintf(&b, "\n\nCore endpoint used: %s", in.Endpoint)
	return b.String()
}

func (g *RuleGenerator) taskResponse(in Input) string {
	var b strings.Builder
	if name, ok := in.Slots[slot.KeyEmployeeName]; ok {
		fmt.Fprintf(&b, "I'll retrieve tasks assigned to %s.", name)
	} else {
		b.WriteString("I'll retrieve the task list.")
	}

	for _, doc := range in.Contexts {
		if doc.Source == "task_docs" {
			fmt.Fprintf(&b, "\n\n%s", doc.Text)
			break
		}
	}

	fmt.Fprintf(&b, "\n\nCore endpoint used: %s", in.Endpoint)
	return b.String()
}

func (g *RuleGenerator) eventResponse(in Input) string {
	eventType := slotOr(in.Slots, slot.KeyEventType, "all")
	timeRange := slotOr(in.Slots, slot.KeyTimeRange, "recent")
	return fmt.Sprintf("I'll retrieve %s events from %s.\n\nCore endpoint used: %s",
		eventType, timeRange, in.Endpoint)
}

func (g *RuleGenerator) promotionResponse(in Input) string {
	var b strings.Builder
	if product, ok := in.Slots[slot.KeyProductName]; ok {
		fmt.Fprintf(&b, "I'll check for promotions related to %s.", product)
	} else {
		b.WriteString("I'll retrieve current promotions.")
	}

	for _, doc := range in.Contexts {
		if doc.Source == "business_rules" && strings.Contains(strings.ToLower(doc.Text), "promotion") {
			fmt.Fprintf(&b, "\n\nNote: %s", doc.Text)
			break
		}
	}

	fmt.Fprintf(&b, "\n\nCore endpoint used: %s", in.Endpoint)
	return b.String()
}

func (g *RuleGenerator) chitchatResponse(query string) string {
	queryLower := strings.ToLower(query)

	switch {
	case containsAny(queryLower, "hello", "hi", "hey"):
		return "Hello! I'm here to help you with retail analytics queries. You can ask me about KPIs, branch status, tasks, events, or promotions."
	case containsAny(queryLower, "how are you", "how's it going"):
		return "I'm functioning well, thank you! How can I assist you with your retail analytics needs today?"
	case containsAny(queryLower, "thank", "thanks"):
		return "You're welcome! Let me know if you need anything else."
	case containsAny(queryLower, "bye", "goodbye"):
		return "Goodbye! Feel free to return if you have more questions."
	default:
		return "I'm here to help with retail analytics. You can ask about KPIs, branch performance, tasks, events, or promotions."
	}
}

func (g *RuleGenerator) unknownResponse(in Input) string {
	var b strings.Builder
	b.WriteString("I'm not sure I understand your request. I can help you with:\n")
	b.WriteString("- KPI queries (e.g., 'Show me sales for branch A')\n")
	b.WriteString("- Branch status (e.g., 'How busy is branch B?')\n")
	b.WriteString("- Task management (e.g., 'What tasks are assigned to John?')\n")
	b.WriteString("- Events (e.g., 'Any incidents today?')\n")
	b.WriteString("- Promotions (e.g., 'Current promotions?')\n")

	if len(in.Contexts) > 0 {
		fmt.Fprintf(&b, "\n\nYou might find this helpful: %s", in.Contexts[0].Text)
	}
	return b.String()
}

func slotOr(slots slot.Slots, key, fallback string) string {
	if v, ok := slots[key]; ok {
		return v
	}
	return fallback
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
