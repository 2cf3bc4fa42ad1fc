package intent

import (
	"context"
	"log/slog"
)

// Classifier produces an intent for a query.
type Classifier interface {
	Classify(ctx context.Context, query string) (Result, error)
}

// MetricsRecorder counts LLM usage. Satisfied by the metrics collector.
type MetricsRecorder interface {
	RecordLLMCall(fallback bool)
}

// Service chains the classification layers: rule overrides, then the
// LLM, then keyword scoring. The LLM layer is optional; keyword
// scoring also absorbs LLM failures so the pipeline keeps answering.
type Service struct {
	rules    *RuleClassifier
	llm      *LLMClassifier
	keywords *KeywordClassifier
	metrics  MetricsRecorder
}

func NewService(rules *RuleClassifier, llmClassifier *LLMClassifier, keywords *KeywordClassifier) *Service {
	return &Service{rules: rules, llm: llmClassifier, keywords: keywords}
}

// WithMetrics enables LLM call accounting.
func (s *Service) WithMetrics(recorder MetricsRecorder) *Service {
	s.metrics = recorder
	return s
}

func (s *Service) Classify(ctx context.Context, query string) (Result, error) {
	if result, ok := s.rules.Match(query); ok {
		slog.Debug("intent classified by rule",
			slog.String("intent", string(result.Intent)),
			slog.Float64("confidence", result.Confidence))
		return result, nil
	}

	if s.llm != nil {
		result, err := s.llm.Classify(ctx, query)
		if err == nil {
			if s.metrics != nil {
				s.metrics.RecordLLMCall(false)
			}
			slog.Debug("intent classified by llm",
				slog.String("intent", string(result.Intent)),
				slog.Float64("confidence", result.Confidence))
			return result, nil
		}
		// The pipeline must keep answering when the model is down.
		slog.Warn("LLM intent classification failed", slog.Any("error", err))
		if s.metrics != nil {
			s.metrics.RecordLLMCall(true)
		}
	}

	if s.keywords == nil {
		return Result{Intent: Unknown, Confidence: 0, Method: "keyword"}, nil
	}
	result := s.keywords.Classify(query)
	slog.Debug("intent classified by keyword scoring",
		slog.String("intent", string(result.Intent)),
		slog.Float64("confidence", result.Confidence))
	return result, nil
}
