package llm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"time"

	"github.com/pkg/errors"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
	"golang.org/x/sync/semaphore"

	"github.com/retailsense/concierge/internal/profile"
	"github.com/retailsense/concierge/plugin/llm/cache"
)

// Message represents a chat message.
type Message struct {
	Role    string // system, user, assistant
	Content string
}

// Service is the LLM chat interface used by the NLP pipeline.
type Service interface {
	// Chat performs synchronous chat and returns the raw completion.
	Chat(ctx context.Context, messages []Message) (string, error)

	// ChatJSON performs chat and decodes the completion into out. The
	// completion may be wrapped in markdown code fences or surrounded by
	// prose; the first JSON object found is decoded.
	ChatJSON(ctx context.Context, messages []Message, out any) error
}

type service struct {
	model       llms.Model
	maxTokens   int
	temperature float64
	timeout     time.Duration

	// sem caps in-flight provider calls so a burst of queries cannot
	// exhaust a local ollama instance.
	sem   *semaphore.Weighted
	cache *cache.Cache
}

// NewService creates an LLM service for the configured provider.
func NewService(p *profile.Profile) (Service, error) {
	var model llms.Model
	var err error

	switch p.LLMProvider {
	case "ollama":
		model, err = ollama.New(
			ollama.WithModel(p.LLMModel),
			ollama.WithServerURL(p.LLMBaseURL),
		)

	case "openai":
		opts := []openai.Option{
			openai.WithToken(p.LLMAPIKey),
			openai.WithModel(p.LLMModel),
		}
		if p.LLMBaseURL != "" {
			opts = append(opts, openai.WithBaseURL(p.LLMBaseURL))
		}
		model, err = openai.New(opts...)

	case "anthropic":
		model, err = anthropic.New(
			anthropic.WithToken(p.LLMAPIKey),
			anthropic.WithModel(p.LLMModel),
		)

	default:
		return nil, errors.Errorf("unsupported LLM provider: %s", p.LLMProvider)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to initialize %s client", p.LLMProvider)
	}

	svc := &service{
		model:       model,
		maxTokens:   p.LLMMaxTokens,
		temperature: p.LLMTemperature,
		timeout:     p.LLMTimeout,
		sem:         semaphore.NewWeighted(p.LLMMaxConcurrent),
	}
	if p.LLMCacheEnabled {
		svc.cache = cache.New(1000, 5*time.Minute)
	}
	return svc, nil
}

func (s *service) Chat(ctx context.Context, messages []Message) (string, error) {
	key := cacheKey(messages)
	if s.cache != nil {
		if v, ok := s.cache.Get(key); ok {
			return string(v), nil
		}
	}

	if err := s.sem.Acquire(ctx, 1); err != nil {
		return "", errors.Wrap(err, "waiting for LLM slot")
	}
	defer s.sem.Release(1)

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	resp, err := s.model.GenerateContent(ctx, convertMessages(messages),
		llms.WithMaxTokens(s.maxTokens),
		llms.WithTemperature(s.temperature),
	)
	if err != nil {
		return "", errors.Wrap(err, "LLM completion failed")
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("empty LLM response")
	}

	content := resp.Choices[0].Content
	slog.Debug("llm completion", slog.Duration("elapsed", time.Since(start)), slog.Int("chars", len(content)))

	if s.cache != nil {
		s.cache.Set(key, []byte(content), 0)
	}
	return content, nil
}

func (s *service) ChatJSON(ctx context.Context, messages []Message, out any) error {
	content, err := s.Chat(ctx, messages)
	if err != nil {
		return err
	}
	return DecodeJSON(content, out)
}

func cacheKey(messages []Message) string {
	h := sha256.New()
	for _, m := range messages {
		h.Write([]byte(m.Role))
		h.Write([]byte{0})
		h.Write([]byte(m.Content))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

func convertMessages(messages []Message) []llms.MessageContent {
	llmMessages := make([]llms.MessageContent, len(messages))
	for i, m := range messages {
		role := llms.ChatMessageTypeHuman
		switch m.Role {
		case "system":
			role = llms.ChatMessageTypeSystem
		case "assistant":
			role = llms.ChatMessageTypeAI
		}
		llmMessages[i] = llms.MessageContent{
			Role:  role,
			Parts: []llms.ContentPart{llms.TextPart(m.Content)},
		}
	}
	return llmMessages
}

// SystemPrompt builds a system message.
func SystemPrompt(content string) Message {
	return Message{Role: "system", Content: content}
}

// UserMessage builds a user message.
func UserMessage(content string) Message {
	return Message{Role: "user", Content: content}
}
