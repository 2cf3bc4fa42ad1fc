package llm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{
			name:    "bare object",
			content: `{"intent": "kpi_query", "confidence": 0.9}`,
			want:    `{"intent": "kpi_query", "confidence": 0.9}`,
		},
		{
			name:    "json fence",
			content: "```json\n{\"intent\": \"chitchat\"}\n```",
			want:    `{"intent": "chitchat"}`,
		},
		{
			name:    "plain fence",
			content: "```\n{\"a\": 1}\n```",
			want:    `{"a": 1}`,
		},
		{
			name:    "surrounding prose",
			content: `Sure! Here is the result: {"intent": "unknown"} Hope that helps.`,
			want:    `{"intent": "unknown"}`,
		},
		{
			name:    "nested object",
			content: `{"slots": {"branch_id": "B001"}, "ok": true}`,
			want:    `{"slots": {"branch_id": "B001"}, "ok": true}`,
		},
		{
			name:    "braces inside string",
			content: `{"text": "a } b { c"}`,
			want:    `{"text": "a } b { c"}`,
		},
		{
			name:    "no json",
			content: "I cannot answer that.",
			want:    "",
		},
		{
			name:    "unbalanced",
			content: `{"intent": "kpi_query"`,
			want:    "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, ExtractJSON(tt.content))
		})
	}
}

func TestDecodeJSON(t *testing.T) {
	var out struct {
		Intent     string  `json:"intent"`
		Confidence float64 `json:"confidence"`
	}

	err := DecodeJSON("```json\n{\"intent\": \"kpi_query\", \"confidence\": 0.85}\n```", &out)
	require.NoError(t, err)
	require.Equal(t, "kpi_query", out.Intent)
	require.InDelta(t, 0.85, out.Confidence, 1e-9)

	err = DecodeJSON("no json here", &out)
	require.Error(t, err)
}
