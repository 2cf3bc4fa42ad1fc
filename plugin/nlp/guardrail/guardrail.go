// Package guardrail runs safety and quality checks over queries and
// generated responses before they leave the service.
package guardrail

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"
)

// Result is the outcome of a guardrail check. Reason is the
// user-facing rejection message when Passed is false.
type Result struct {
	Passed bool
	Check  string
	Reason string
}

func pass() Result {
	return Result{Passed: true}
}

// Input carries everything the checks inspect.
type Input struct {
	Query      string
	Intent     string
	Confidence float64
	Response   string
	UserRole   string
}

// Service runs the guardrail chain: profanity, PII, confidence, scope,
// custom policies, hallucination. The first failing check wins.
type Service struct {
	confidenceThreshold float64
	policies            *PolicyEngine

	retailKeywords     []string
	outOfScopeKeywords []string

	hallucinationPatterns []*regexp.Regexp
}

// NewService creates the guardrail chain. policies may be nil.
func NewService(confidenceThreshold float64, policies *PolicyEngine) *Service {
	return &Service{
		confidenceThreshold: confidenceThreshold,
		policies:            policies,
		retailKeywords: []string{
			"branch", "store", "kpi", "sales", "revenue", "traffic", "footfall",
			"conversion", "customer", "task", "event", "promotion", "product",
			"inventory", "staff", "employee", "manager", "analytics", "performance",
			"busy", "occupancy", "dwell", "basket", "transaction",
		},
		outOfScopeKeywords: []string{
			"weather", "news", "sports", "entertainment", "politics",
			"recipe", "travel", "medical", "legal", "financial advice",
		},
		hallucinationPatterns: []*regexp.Regexp{
			regexp.MustCompile(`\b\d+%\s+(?:increase|decrease|growth|decline)\b`),
			regexp.MustCompile(`\b\$\d+(?:,\d{3})*(?:\.\d{2})?\b`),
			regexp.MustCompile(`\b\d+\s+(?:customers|visitors|transactions)\b`),
		},
	}
}

// CheckAll runs every check in order and returns the first failure.
func (s *Service) CheckAll(in Input) Result {
	if r := s.CheckProfanity(in.Query); !r.Passed {
		return r
	}
	if r := s.CheckPII(in.Query); !r.Passed {
		return r
	}
	if r := s.CheckConfidence(in.Confidence); !r.Passed {
		return r
	}
	if r := s.CheckScope(in.Query, in.Intent); !r.Passed {
		return r
	}
	if s.policies != nil {
		if r := s.policies.Check(in); !r.Passed {
			return r
		}
	}
	s.checkHallucination(in.Response)
	return pass()
}

// CheckConfidence rejects classifications below the threshold.
func (s *Service) CheckConfidence(confidence float64) Result {
	if confidence < s.confidenceThreshold {
		slog.Warn("low confidence",
			slog.Float64("confidence", confidence),
			slog.Float64("threshold", s.confidenceThreshold))
		return Result{
			Check: "confidence",
			Reason: fmt.Sprintf(
				"I'm not confident enough in understanding your request (confidence: %.2f). Could you please rephrase?",
				confidence),
		}
	}
	return pass()
}

// CheckScope rejects queries that are clearly outside retail analytics.
func (s *Service) CheckScope(query, intent string) Result {
	queryLower := strings.ToLower(query)

	for _, keyword := range s.outOfScopeKeywords {
		if strings.Contains(queryLower, keyword) {
			slog.Warn("out of scope query", slog.String("keyword", keyword))
			return Result{
				Check:  "scope",
				Reason: "I'm specialized in retail analytics queries. Your question appears to be outside my area of expertise.",
			}
		}
	}

	// Unknown intent without any domain vocabulary is likely off-topic.
	// Very short queries get the benefit of the doubt.
	if intent == "unknown" && len(strings.Fields(query)) > 3 {
		for _, keyword := range s.retailKeywords {
			if strings.Contains(queryLower, keyword) {
				return pass()
			}
		}
		slog.Warn("unknown intent with no retail keywords")
		return Result{
			Check:  "scope",
			Reason: "I couldn't understand your request. I specialize in retail analytics. Try asking about KPIs, branch status, tasks, events, or promotions.",
		}
	}
	return pass()
}

// checkHallucination flags concrete figures in a generated response.
// Log-only: formatted backend data legitimately contains numbers, so
// rejection would cause too many false positives.
func (s *Service) checkHallucination(response string) {
	responseLower := strings.ToLower(response)
	for _, phrase := range []string{"i'll retrieve", "access", "check"} {
		if strings.Contains(responseLower, phrase) {
			return
		}
	}
	for _, p := range s.hallucinationPatterns {
		if p.MatchString(responseLower) {
			slog.Warn("potential hallucination detected", slog.String("pattern", p.String()))
			return
		}
	}
}
