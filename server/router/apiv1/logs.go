package apiv1

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/retailsense/concierge/store"
)

const (
	defaultLogLimit = 100
	maxLogLimit     = 1000
)

// QueryLogResponse is the wire shape of one query log entry.
type QueryLogResponse struct {
	ID             string  `json:"id"`
	ConversationID string  `json:"conversation_id"`
	UserRole       string  `json:"user_role"`
	QueryText      string  `json:"query_text"`
	Intent         string  `json:"intent"`
	Confidence     float64 `json:"confidence"`
	RoutedEndpoint string  `json:"routed_endpoint,omitempty"`
	CreatedAt      string  `json:"created_at"`
}

// ListQueryLogs handles GET /api/v1/nlp/logs.
func (s *APIV1Service) ListQueryLogs(c echo.Context) error {
	find := &store.FindQueryLog{}

	if v := c.QueryParam("conversation_id"); v != "" {
		find.ConversationID = &v
	}
	if v := c.QueryParam("user_role"); v != "" {
		find.UserRole = &v
	}
	if v := c.QueryParam("intent"); v != "" {
		find.Intent = &v
	}
	if v := c.QueryParam("start_date"); v != "" {
		ts, err := parseTimestamp(v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid start_date")
		}
		find.CreatedTsAfter = &ts
	}
	if v := c.QueryParam("end_date"); v != "" {
		ts, err := parseTimestamp(v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid end_date")
		}
		find.CreatedTsBefore = &ts
	}

	limit := defaultLogLimit
	if v := c.QueryParam("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxLogLimit {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid limit")
		}
		limit = n
	}
	find.Limit = &limit
	if v := c.QueryParam("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid offset")
		}
		find.Offset = &n
	}

	logs, err := s.Store.ListQueryLogs(c.Request().Context(), find)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list query logs")
	}

	resp := make([]QueryLogResponse, 0, len(logs))
	for _, l := range logs {
		resp = append(resp, QueryLogResponse{
			ID:             l.UID,
			ConversationID: l.ConversationID,
			UserRole:       l.UserRole,
			QueryText:      l.QueryText,
			Intent:         l.Intent,
			Confidence:     l.Confidence,
			RoutedEndpoint: l.RoutedEndpoint,
			CreatedAt:      time.Unix(l.CreatedTs, 0).UTC().Format(time.RFC3339),
		})
	}
	return c.JSON(http.StatusOK, resp)
}

// parseTimestamp accepts RFC3339 or a plain date.
func parseTimestamp(v string) (int64, error) {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t.Unix(), nil
	}
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return 0, err
	}
	return t.Unix(), nil
}
