// Package route maps a classified intent and its slots to the core
// backend endpoint that can answer it.
package route

import (
	"fmt"
	"net/url"

	"github.com/retailsense/concierge/plugin/nlp/intent"
	"github.com/retailsense/concierge/plugin/nlp/slot"
)

// Route is a resolved core backend call.
type Route struct {
	Endpoint string
	Method   string
}

// Router builds core backend routes from intent and slots.
type Router struct{}

func NewRouter() *Router {
	return &Router{}
}

// Resolve returns the route for the given intent. Unroutable intents
// get sentinel paths the fetch layer knows to skip.
func (r *Router) Resolve(it intent.Intent, slots slot.Slots) Route {
	return Route{
		Endpoint: r.endpoint(it, slots),
		Method:   "GET",
	}
}

func (r *Router) endpoint(it intent.Intent, slots slot.Slots) string {
	switch it {
	case intent.KPIQuery:
		branchID := valueOr(slots, slot.KeyBranchID, "unknown")
		params := url.Values{}
		params.Set("date", valueOr(slots, slot.KeyTimeRange, "today"))
		params.Set("kpi_type", valueOr(slots, slot.KeyKPIType, "general"))
		return fmt.Sprintf("/api/v1/kpis/branch/%s?%s", branchID, params.Encode())

	case intent.BranchStatus, intent.PerformanceAnalysis:
		return "/api/v1/recommendations/" + valueOr(slots, slot.KeyBranchID, "unknown")

	case intent.TaskManagement:
		if name, ok := slots[slot.KeyEmployeeName]; ok {
			params := url.Values{}
			params.Set("assigned_to", name)
			return "/api/v1/tasks?" + params.Encode()
		}
		return "/api/v1/tasks"

	case intent.EventQuery:
		params := url.Values{}
		if v, ok := slots[slot.KeyEventType]; ok {
			params.Set("type", v)
		}
		if v, ok := slots[slot.KeyTimeRange]; ok {
			params.Set("date", v)
		}
		if len(params) > 0 {
			return "/api/v1/events?" + params.Encode()
		}
		return "/api/v1/events"

	case intent.PromotionQuery:
		params := url.Values{}
		if v, ok := slots[slot.KeyProductName]; ok {
			params.Set("product", v)
		}
		if v, ok := slots[slot.KeyTimeRange]; ok {
			params.Set("date", v)
		}
		if len(params) > 0 {
			return "/api/v1/promotions?" + params.Encode()
		}
		return "/api/v1/promotions"

	case intent.Chitchat:
		return "/chitchat"

	default:
		return "/unknown"
	}
}

func valueOr(slots slot.Slots, key, fallback string) string {
	if v, ok := slots[key]; ok {
		return v
	}
	return fallback
}
