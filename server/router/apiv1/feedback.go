package apiv1

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/lithammer/shortuuid/v4"

	"github.com/retailsense/concierge/store"
)

const maxCommentLength = 1000

// FeedbackRequest is the payload for rating a previously logged query.
type FeedbackRequest struct {
	QueryID string `json:"query_id"`
	Rating  int32  `json:"rating"`
	Comment string `json:"comment"`
}

func (r *FeedbackRequest) validate() error {
	if r.QueryID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "query_id is required")
	}
	if r.Rating < 1 || r.Rating > 5 {
		return echo.NewHTTPError(http.StatusBadRequest, "rating must be between 1 and 5")
	}
	if len(r.Comment) > maxCommentLength {
		return echo.NewHTTPError(http.StatusBadRequest, "comment must not exceed 1000 characters")
	}
	return nil
}

// FeedbackResponse is the wire shape of a stored feedback record.
type FeedbackResponse struct {
	ID        string `json:"id"`
	QueryID   string `json:"query_id"`
	Rating    int32  `json:"rating"`
	Comment   string `json:"comment,omitempty"`
	CreatedAt string `json:"created_at"`
}

// CreateFeedback handles POST /api/v1/nlp/feedback.
func (s *APIV1Service) CreateFeedback(c echo.Context) error {
	ctx := c.Request().Context()

	request := &FeedbackRequest{}
	if err := c.Bind(request); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}
	if err := request.validate(); err != nil {
		return err
	}

	queryLog, err := s.Store.GetQueryLog(ctx, &store.FindQueryLog{UID: &request.QueryID})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to look up query log")
	}
	if queryLog == nil {
		return echo.NewHTTPError(http.StatusNotFound, "query not found")
	}

	feedback, err := s.Store.CreateFeedback(ctx, &store.Feedback{
		UID:        shortuuid.New(),
		QueryLogID: queryLog.ID,
		Rating:     request.Rating,
		Comment:    request.Comment,
		CreatedTs:  time.Now().Unix(),
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to store feedback")
	}

	return c.JSON(http.StatusCreated, FeedbackResponse{
		ID:        feedback.UID,
		QueryID:   queryLog.UID,
		Rating:    feedback.Rating,
		Comment:   feedback.Comment,
		CreatedAt: time.Unix(feedback.CreatedTs, 0).UTC().Format(time.RFC3339),
	})
}
