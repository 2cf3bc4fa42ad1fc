package apiv1

import (
	"encoding/base64"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/retailsense/concierge/server/orchestrator"
)

// VoiceQueryResponse wraps the pipeline response with the transcript
// and, when requested, the synthesized answer audio.
type VoiceQueryResponse struct {
	Transcript string                 `json:"transcript"`
	Response   *orchestrator.Response `json:"response"`
	// AudioBase64 is the mp3 answer encoded as base64, present only
	// when speak=true.
	AudioBase64 string `json:"audio_base64,omitempty"`
	AudioFormat string `json:"audio_format,omitempty"`
}

// ProcessVoiceQuery handles POST /api/v1/nlp/voice/query. The audio
// file is sent as multipart form data under the "audio" field.
func (s *APIV1Service) ProcessVoiceQuery(c echo.Context) error {
	ctx := c.Request().Context()

	fileHeader, err := c.FormFile("audio")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "audio file is required")
	}
	file, err := fileHeader.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "failed to read audio file")
	}
	defer file.Close()

	transcript, err := s.VoiceService.Transcribe(ctx, file, fileHeader.Filename)
	if err != nil {
		slog.Error("transcription failed", slog.Any("error", err))
		return echo.NewHTTPError(http.StatusBadGateway, "failed to transcribe audio")
	}
	if transcript == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "no speech detected in audio")
	}
	if len(transcript) > maxQueryLength {
		transcript = transcript[:maxQueryLength]
	}

	userRole := c.FormValue("user_role")
	if userRole == "" {
		userRole = "staff"
	}
	if !allowedUserRoles[userRole] {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid user_role: "+userRole)
	}

	conversationID := c.FormValue("conversation_id")
	if conversationID != "" {
		if _, err := uuid.Parse(conversationID); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid conversation_id: "+conversationID)
		}
	}

	resp, err := s.Orchestrator.ProcessQuery(ctx, orchestrator.Request{
		Query:          transcript,
		ConversationID: conversationID,
		UserRole:       userRole,
	})
	if err != nil {
		var rejection *orchestrator.RejectionError
		if errors.As(err, &rejection) {
			return c.JSON(http.StatusBadRequest, map[string]string{
				"transcript": transcript,
				"error":      rejection.Reason,
			})
		}
		slog.Error("voice query processing failed", slog.Any("error", err))
		return echo.NewHTTPError(http.StatusInternalServerError,
			"An error occurred while processing your query. Please try again.")
	}

	result := VoiceQueryResponse{
		Transcript: transcript,
		Response:   resp,
	}
	if c.FormValue("speak") == "true" {
		audio, err := s.VoiceService.Synthesize(ctx, resp.ResponseText)
		if err != nil {
			// The text answer still stands on its own.
			slog.Warn("speech synthesis failed", slog.Any("error", err))
		} else {
			result.AudioBase64 = base64.StdEncoding.EncodeToString(audio)
			result.AudioFormat = "mp3"
		}
	}
	return c.JSON(http.StatusOK, result)
}
