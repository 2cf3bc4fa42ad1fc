package apiv1

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/retailsense/concierge/server/orchestrator"
)

const maxQueryLength = 1000

var allowedUserRoles = map[string]bool{
	"manager": true,
	"analyst": true,
	"staff":   true,
}

// QueryRequest is the NLP query payload.
type QueryRequest struct {
	Query          string `json:"query"`
	ConversationID string `json:"conversation_id"`
	UserRole       string `json:"user_role"`
}

func (r *QueryRequest) validate() error {
	if strings.TrimSpace(r.Query) == "" {
		return errors.New("query is required")
	}
	if len(r.Query) > maxQueryLength {
		return errors.Errorf("query exceeds %d characters", maxQueryLength)
	}
	if r.ConversationID != "" {
		if _, err := uuid.Parse(r.ConversationID); err != nil {
			return errors.Errorf("invalid conversation_id: %s", r.ConversationID)
		}
	}
	if r.UserRole == "" {
		r.UserRole = "staff"
	}
	if !allowedUserRoles[r.UserRole] {
		return errors.Errorf("invalid user_role: %s", r.UserRole)
	}
	return nil
}

// ProcessQuery handles POST /api/v1/nlp/query.
func (s *APIV1Service) ProcessQuery(c echo.Context) error {
	var req QueryRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}
	if err := req.validate(); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	resp, err := s.Orchestrator.ProcessQuery(c.Request().Context(), orchestrator.Request{
		Query:          req.Query,
		ConversationID: req.ConversationID,
		UserRole:       req.UserRole,
	})
	if err != nil {
		var rejection *orchestrator.RejectionError
		if errors.As(err, &rejection) {
			return c.JSON(http.StatusBadRequest, map[string]string{
				"error": rejection.Reason,
			})
		}
		slog.Error("query processing failed", slog.Any("error", err))
		return echo.NewHTTPError(http.StatusInternalServerError,
			"An error occurred while processing your query. Please try again.")
	}

	return c.JSON(http.StatusOK, resp)
}
