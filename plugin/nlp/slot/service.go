package slot

import (
	"context"
	"log/slog"
)

// MetricsRecorder counts LLM usage. Satisfied by the metrics collector.
type MetricsRecorder interface {
	RecordLLMCall(fallback bool)
}

// Service prefers the LLM filler and falls back to the rule filler
// when the model fails or is not configured.
type Service struct {
	rules   *RuleFiller
	llm     *LLMFiller
	metrics MetricsRecorder
}

func NewService(rules *RuleFiller, llmFiller *LLMFiller) *Service {
	return &Service{rules: rules, llm: llmFiller}
}

// WithMetrics enables LLM call accounting.
func (s *Service) WithMetrics(recorder MetricsRecorder) *Service {
	s.metrics = recorder
	return s
}

func (s *Service) Extract(ctx context.Context, query string, intent string) (Slots, error) {
	if s.llm != nil {
		slots, err := s.llm.Extract(ctx, query, intent)
		if err == nil {
			if s.metrics != nil {
				s.metrics.RecordLLMCall(false)
			}
			return slots, nil
		}
		slog.Warn("LLM slot extraction failed, using rule filler", slog.Any("error", err))
		if s.metrics != nil {
			s.metrics.RecordLLMCall(true)
		}
	}
	return s.rules.Extract(ctx, query, intent)
}
