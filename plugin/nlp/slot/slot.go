// Package slot extracts structured entities from user queries.
package slot

import (
	"context"
)

// Slot keys.
const (
	KeyBranchID     = "branch_id"
	KeyTimeRange    = "time_range"
	KeyKPIType      = "kpi_type"
	KeyEmployeeName = "employee_name"
	KeyEventType    = "event_type"
	KeyProductName  = "product_name"
)

// Slots holds the extracted entities keyed by slot name. Absent slots
// are simply missing from the map.
type Slots map[string]string

// Filler extracts slots from a query. intent provides context for
// intent-specific defaults.
type Filler interface {
	Extract(ctx context.Context, query string, intent string) (Slots, error)
}

// requiredSlots lists the slots an intent cannot be served without.
var requiredSlots = map[string][]string{
	"kpi_query":     {KeyBranchID},
	"branch_status": {KeyBranchID},
}

// Validate reports whether slots carry everything the intent requires.
func Validate(slots Slots, intent string) bool {
	for _, key := range requiredSlots[intent] {
		if _, ok := slots[key]; !ok {
			return false
		}
	}
	return true
}
