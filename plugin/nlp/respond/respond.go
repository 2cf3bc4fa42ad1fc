// Package respond turns the pipeline's intermediate results into the
// final answer text. Generation prefers concrete backend data, then
// the LLM, then deterministic templates.
package respond

import (
	"context"
	"log/slog"
	"sort"

	"github.com/retailsense/concierge/plugin/nlp/intent"
	"github.com/retailsense/concierge/plugin/nlp/slot"
)

// ContextDoc is a retrieved knowledge base snippet.
type ContextDoc struct {
	Text   string
	Source string
	// DocType distinguishes kpi_explanation, business_rule, task_doc.
	DocType string
	// Metadata holds extra attributes such as the KPI a doc explains.
	Metadata map[string]string
	Score    float64
}

// Input is everything response generation may draw on.
type Input struct {
	Query    string
	Intent   intent.Intent
	Slots    slot.Slots
	Endpoint string
	Contexts []ContextDoc
	// CoreData is the decoded backend payload, nil when the fetch was
	// skipped or failed.
	CoreData map[string]any
}

// Response is the generated answer.
type Response struct {
	Text    string
	HTML    string
	Sources []string
}

// MetricsRecorder counts LLM usage. Satisfied by the metrics collector.
type MetricsRecorder interface {
	RecordLLMCall(fallback bool)
}

// Service coordinates the generators.
type Service struct {
	rules   *RuleGenerator
	llm     *LLMGenerator
	metrics MetricsRecorder
}

func NewService(rules *RuleGenerator, llmGenerator *LLMGenerator) *Service {
	return &Service{rules: rules, llm: llmGenerator}
}

// WithMetrics enables LLM call accounting.
func (s *Service) WithMetrics(recorder MetricsRecorder) *Service {
	s.metrics = recorder
	return s
}

// Generate produces the response. Real backend data short-circuits to
// the deterministic formatter so the answer carries actual figures.
func (s *Service) Generate(ctx context.Context, in Input) Response {
	var text string
	var sources []string

	switch {
	case in.CoreData != nil:
		text = FormatCoreResponse(in)
		sources = []string{"core_backend"}

	case s.llm != nil:
		generated, err := s.llm.Generate(ctx, in)
		if err != nil {
			slog.Warn("LLM response generation failed, using templates", slog.Any("error", err))
			if s.metrics != nil {
				s.metrics.RecordLLMCall(true)
			}
			text, sources = s.rules.Generate(in)
		} else {
			if s.metrics != nil {
				s.metrics.RecordLLMCall(false)
			}
			text = generated
			sources = contextSources(in.Contexts)
		}

	default:
		text, sources = s.rules.Generate(in)
	}

	html, err := RenderHTML(text)
	if err != nil {
		slog.Warn("markdown rendering failed", slog.Any("error", err))
	}

	return Response{Text: text, HTML: html, Sources: sources}
}

// contextSources returns the distinct sources of the retrieved docs in
// stable order.
func contextSources(contexts []ContextDoc) []string {
	seen := map[string]bool{}
	sources := []string{}
	for _, doc := range contexts {
		source := doc.Source
		if source == "" {
			source = "unknown"
		}
		if !seen[source] {
			seen[source] = true
			sources = append(sources, source)
		}
	}
	sort.Strings(sources)
	return sources
}
