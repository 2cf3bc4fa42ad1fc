package llm

import (
	"encoding/json"
	"strings"

	"github.com/pkg/errors"
)

// DecodeJSON extracts and decodes the first JSON object from a model
// completion. Small local models routinely wrap JSON in ```json fences
// or prepend a sentence of prose, so the decoder tolerates both.
func DecodeJSON(content string, out any) error {
	raw := ExtractJSON(content)
	if raw == "" {
		return errors.Errorf("no JSON object in completion: %.80s", content)
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return errors.Wrap(err, "failed to decode completion JSON")
	}
	return nil
}

// ExtractJSON returns the first balanced JSON object in content, or ""
// if none is found.
func ExtractJSON(content string) string {
	s := strings.TrimSpace(content)

	// Strip markdown code fences.
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if idx := strings.LastIndex(s, "```"); idx >= 0 {
			s = s[:idx]
		}
		s = strings.TrimSpace(s)
	}

	start := strings.Index(s, "{")
	if start < 0 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if escaped {
			escaped = false
			continue
		}
		switch c {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '{':
			if !inString {
				depth++
			}
		case '}':
			if !inString {
				depth--
				if depth == 0 {
					return s[start : i+1]
				}
			}
		}
	}
	return ""
}
