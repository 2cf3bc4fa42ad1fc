package guardrail

import (
	"log/slog"
	"regexp"
	"strings"
)

// A small built-in deny list. Matching is word-boundary based so
// "assess" or "class" never trip it.
var profanityWords = []string{
	"fuck", "fucking", "shit", "bullshit", "asshole", "bitch",
	"bastard", "damn", "crap", "dick", "piss", "cunt", "slut",
	"whore", "motherfucker", "prick", "douche",
}

var profanityPattern = buildProfanityPattern()

func buildProfanityPattern() *regexp.Regexp {
	escaped := make([]string, len(profanityWords))
	for i, w := range profanityWords {
		escaped[i] = regexp.QuoteMeta(w)
	}
	return regexp.MustCompile(`(?i)\b(` + strings.Join(escaped, "|") + `)\b`)
}

// CheckProfanity rejects queries containing inappropriate language.
func (s *Service) CheckProfanity(text string) Result {
	if profanityPattern.MatchString(text) {
		slog.Warn("profanity detected")
		return Result{
			Check:  "profanity",
			Reason: "Your query contains inappropriate language. Please rephrase.",
		}
	}
	return pass()
}
