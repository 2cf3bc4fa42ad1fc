package guardrail

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"
)

type piiPattern struct {
	kind    string
	pattern *regexp.Regexp
}

// Ordered so the most specific patterns are reported first: an SSN
// also matches the phone pattern.
var piiPatterns = []piiPattern{
	{"email", regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)},
	{"ssn", regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`)},
	{"credit_card", regexp.MustCompile(`\b\d{4}[\s-]?\d{4}[\s-]?\d{4}[\s-]?\d{4}\b`)},
	{"phone", regexp.MustCompile(`\b(\+\d{1,2}\s?)?\(?\d{3}\)?[\s.-]?\d{3}[\s.-]?\d{4}\b`)},
}

// CheckPII rejects queries carrying personally identifiable
// information.
func (s *Service) CheckPII(text string) Result {
	for _, p := range piiPatterns {
		if p.pattern.MatchString(text) {
			slog.Warn("PII detected", slog.String("pii_type", p.kind))
			return Result{
				Check: "pii",
				Reason: fmt.Sprintf(
					"Your query contains sensitive information (%s). Please remove personal data and try again.",
					p.kind),
			}
		}
	}
	return pass()
}

// RedactPII replaces PII with typed placeholders. Used before queries
// are written to the query log.
func RedactPII(text string) string {
	redacted := text
	for _, p := range piiPatterns {
		placeholder := fmt.Sprintf("[REDACTED_%s]", strings.ToUpper(p.kind))
		redacted = p.pattern.ReplaceAllString(redacted, placeholder)
	}
	return redacted
}
