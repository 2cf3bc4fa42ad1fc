package respond

import (
	"fmt"
	"sort"
	"strings"

	"github.com/retailsense/concierge/plugin/nlp/intent"
	"github.com/retailsense/concierge/plugin/nlp/slot"
)

// FormatCoreResponse turns a backend payload into readable markdown.
// The KPI endpoint returns {"value": [row, ...], "Count": n}; other
// intents get a generic preview.
func FormatCoreResponse(in Input) string {
	if in.Intent == intent.KPIQuery {
		return formatKPIRows(in)
	}

	keys := make([]string, 0, len(in.CoreData))
	for k := range in.CoreData {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	return fmt.Sprintf("I fetched data from Core Backend.\nEndpoint used: %s\nRaw keys: [%s]",
		in.Endpoint, strings.Join(keys, ", "))
}

func formatKPIRows(in Input) string {
	branchID := slotOr(in.Slots, slot.KeyBranchID, "unknown")
	kpiType := slotOr(in.Slots, slot.KeyKPIType, "general")

	items, _ := in.CoreData["value"].([]any)
	count := len(items)
	if c, ok := in.CoreData["Count"].(float64); ok {
		count = int(c)
	}

	if len(items) == 0 {
		return fmt.Sprintf(
			"I called the core KPIs endpoint but got no KPI rows back.\n- Branch: %s\n- KPI type: %s\n- Endpoint used: %s",
			branchID, kpiType, in.Endpoint)
	}

	first, _ := items[0].(map[string]any)

	var b strings.Builder
	fmt.Fprintf(&b, "Here are the KPIs for **%s** (type: **%s**) from Core Backend:\n\n", branchID, kpiType)
	fmt.Fprintf(&b, "- Time window: %v to %v\n", first["time_window_start"], first["time_window_end"])
	for _, field := range []string{
		"traffic_index", "conversion_proxy", "avg_dwell_time", "congestion_level", "utilization_ratio",
	} {
		fmt.Fprintf(&b, "- %s: %v\n", field, first[field])
	}
	fmt.Fprintf(&b, "\nRows returned: %d\nEndpoint used: %s", count, in.Endpoint)
	return b.String()
}
