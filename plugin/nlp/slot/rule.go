package slot

import (
	"context"
	"regexp"
	"strings"
)

type timePattern struct {
	pattern *regexp.Regexp
	// normalized is the canonical value, empty to keep the match as-is.
	normalized string
}

type valuePattern struct {
	pattern    *regexp.Regexp
	normalized string
}

// RuleFiller extracts slots with regex pattern banks plus a small
// heuristic for employee names.
type RuleFiller struct {
	timePatterns   []timePattern
	branchPatterns []*regexp.Regexp
	kpiPatterns    []valuePattern
	eventPatterns  []valuePattern

	namePattern *regexp.Regexp
}

func NewRuleFiller() *RuleFiller {
	return &RuleFiller{
		timePatterns: []timePattern{
			{regexp.MustCompile(`(?i)\b(yesterday)\b`), "yesterday"},
			{regexp.MustCompile(`(?i)\b(today)\b`), "today"},
			{regexp.MustCompile(`(?i)\b(last\s+week)\b`), "last_week"},
			{regexp.MustCompile(`(?i)\b(this\s+week)\b`), "this_week"},
			{regexp.MustCompile(`(?i)\b(last\s+month)\b`), "last_month"},
			{regexp.MustCompile(`(?i)\b(this\s+month)\b`), "this_month"},
			{regexp.MustCompile(`(?i)\b(last\s+quarter)\b`), "last_quarter"},
			{regexp.MustCompile(`(?i)\b(Q[1-4]\s+\d{4})\b`), ""},
			{regexp.MustCompile(`\b(\d{4}-\d{2}-\d{2})\b`), ""},
			{regexp.MustCompile(`\b(\d{1,2}/\d{1,2}/\d{4})\b`), ""},
		},
		branchPatterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\bbranch\s+([A-Z0-9_-]+)\b`),
			regexp.MustCompile(`(?i)\bstore\s+([A-Z0-9_-]+)\b`),
			regexp.MustCompile(`(?i)\blocation\s+([A-Z0-9_-]+)\b`),
			regexp.MustCompile(`(?i)\boutlet\s+([A-Z0-9_-]+)\b`),
		},
		kpiPatterns: []valuePattern{
			{regexp.MustCompile(`(?i)\b(traffic|footfall|foot\s+traffic)\b`), "traffic"},
			{regexp.MustCompile(`(?i)\b(sales|revenue)\b`), "sales"},
			{regexp.MustCompile(`(?i)\b(conversion|conversion\s+rate)\b`), "conversion"},
			{regexp.MustCompile(`(?i)\b(dwell\s+time|time\s+spent)\b`), "dwell_time"},
			{regexp.MustCompile(`(?i)\b(basket\s+size|average\s+basket)\b`), "basket_size"},
			{regexp.MustCompile(`(?i)\b(busy|busyness|occupancy)\b`), "traffic"},
		},
		eventPatterns: []valuePattern{
			{regexp.MustCompile(`(?i)\b(incident|accident|emergency)\b`), "incident"},
			{regexp.MustCompile(`(?i)\b(maintenance|repair)\b`), "maintenance"},
			{regexp.MustCompile(`(?i)\b(delivery|shipment)\b`), "delivery"},
			{regexp.MustCompile(`(?i)\b(meeting|conference)\b`), "meeting"},
		},
		namePattern: regexp.MustCompile(`(?:\bfor|\bto|\bby|assigned\s+to)\s+([A-Z][a-z]+)\b`),
	}
}

func (f *RuleFiller) Extract(_ context.Context, query string, intent string) (Slots, error) {
	slots := Slots{}

	if v, ok := f.matchTime(query); ok {
		slots[KeyTimeRange] = v
	}
	for _, p := range f.branchPatterns {
		if m := p.FindStringSubmatch(query); m != nil {
			slots[KeyBranchID] = strings.ToUpper(m[1])
			break
		}
	}
	for _, p := range f.kpiPatterns {
		if p.pattern.MatchString(query) {
			slots[KeyKPIType] = p.normalized
			break
		}
	}
	for _, p := range f.eventPatterns {
		if p.pattern.MatchString(query) {
			slots[KeyEventType] = p.normalized
			break
		}
	}
	if m := f.namePattern.FindStringSubmatch(query); m != nil {
		slots[KeyEmployeeName] = m[1]
	}

	if intent == "kpi_query" {
		if _, ok := slots[KeyKPIType]; !ok {
			slots[KeyKPIType] = "general"
		}
	}
	return slots, nil
}

func (f *RuleFiller) matchTime(query string) (string, bool) {
	for _, p := range f.timePatterns {
		m := p.pattern.FindStringSubmatch(query)
		if m == nil {
			continue
		}
		if p.normalized != "" {
			return p.normalized, true
		}
		return m[1], true
	}
	return "", false
}
