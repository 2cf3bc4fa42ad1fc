// Package voice handles speech-to-text and text-to-speech through
// OpenAI-compatible audio endpoints.
package voice

import (
	"bytes"
	"context"
	"io"
	"strings"

	"github.com/pkg/errors"
	"github.com/sashabaranov/go-openai"

	"github.com/retailsense/concierge/internal/profile"
)

// Service converts between audio and text.
type Service interface {
	// Transcribe converts spoken audio to text. filename hints the
	// container format to the transcription endpoint.
	Transcribe(ctx context.Context, audio io.Reader, filename string) (string, error)

	// Synthesize converts text to spoken audio (mp3).
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

type service struct {
	client             *openai.Client
	transcriptionModel string
	speechModel        string
	speechVoice        string
}

// NewService creates the voice service from the profile. The API key
// falls back to the embedding key so a single OpenAI credential covers
// both.
func NewService(p *profile.Profile) (Service, error) {
	apiKey := p.VoiceAPIKey
	if apiKey == "" {
		apiKey = p.EmbeddingAPIKey
	}
	if apiKey == "" {
		return nil, errors.New("voice service requires an API key")
	}

	clientConfig := openai.DefaultConfig(apiKey)
	if p.VoiceBaseURL != "" {
		clientConfig.BaseURL = p.VoiceBaseURL
	}

	return &service{
		client:             openai.NewClientWithConfig(clientConfig),
		transcriptionModel: p.TranscriptionModel,
		speechModel:        p.SpeechModel,
		speechVoice:        p.SpeechVoice,
	}, nil
}

func (s *service) Transcribe(ctx context.Context, audio io.Reader, filename string) (string, error) {
	resp, err := s.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    s.transcriptionModel,
		Reader:   audio,
		FilePath: filename,
	})
	if err != nil {
		return "", errors.Wrap(err, "transcription failed")
	}
	return strings.TrimSpace(resp.Text), nil
}

func (s *service) Synthesize(ctx context.Context, text string) ([]byte, error) {
	resp, err := s.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model: openai.SpeechModel(s.speechModel),
		Input: text,
		Voice: openai.SpeechVoice(s.speechVoice),
	})
	if err != nil {
		return nil, errors.Wrap(err, "speech synthesis failed")
	}
	defer resp.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, resp); err != nil {
		return nil, errors.Wrap(err, "failed to read synthesized audio")
	}
	return buf.Bytes(), nil
}
