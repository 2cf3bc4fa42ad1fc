package guardrail

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCheckProfanity(t *testing.T) {
	s := NewService(0.3, nil)

	r := s.CheckProfanity("what the fuck is going on at branch A")
	require.False(t, r.Passed)
	require.Equal(t, "profanity", r.Check)

	// Substrings of clean words must not trip the word-boundary match.
	require.True(t, s.CheckProfanity("assess the class performance").Passed)
	require.True(t, s.CheckProfanity("Show me sales for branch B").Passed)
}

func TestCheckPII(t *testing.T) {
	s := NewService(0.3, nil)

	tests := []struct {
		name string
		text string
		kind string
	}{
		{"email", "send the report to john@example.com", "email"},
		{"ssn", "my ssn is 123-45-6789", "ssn"},
		{"credit card", "charge 4111 1111 1111 1111 please", "credit_card"},
		{"phone", "call me at (555) 123-4567", "phone"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := s.CheckPII(tt.text)
			require.False(t, r.Passed)
			require.Equal(t, "pii", r.Check)
			require.Contains(t, r.Reason, tt.kind)
		})
	}

	require.True(t, s.CheckPII("Show me sales for branch B last week").Passed)
}

func TestRedactPII(t *testing.T) {
	got := RedactPII("email john@example.com or call (555) 123-4567")
	require.NotContains(t, got, "john@example.com")
	require.NotContains(t, got, "123-4567")
	require.Contains(t, got, "[REDACTED_EMAIL]")
	require.Contains(t, got, "[REDACTED_PHONE]")
}

func TestCheckConfidence(t *testing.T) {
	s := NewService(0.3, nil)

	r := s.CheckConfidence(0.1)
	require.False(t, r.Passed)
	require.Equal(t, "confidence", r.Check)
	require.Contains(t, r.Reason, "0.10")

	require.True(t, s.CheckConfidence(0.3).Passed)
	require.True(t, s.CheckConfidence(0.95).Passed)
}

func TestCheckScope(t *testing.T) {
	s := NewService(0.3, nil)

	r := s.CheckScope("What's the weather like today?", "unknown")
	require.False(t, r.Passed)
	require.Equal(t, "scope", r.Check)

	// Unknown intent without any retail vocabulary is rejected.
	r = s.CheckScope("Tell me a story about dragons and castles", "unknown")
	require.False(t, r.Passed)

	// Unknown but retail-flavored gets through.
	require.True(t, s.CheckScope("Something about our store layout I guess", "unknown").Passed)

	// Short unknown queries get the benefit of the doubt.
	require.True(t, s.CheckScope("huh what", "unknown").Passed)

	require.True(t, s.CheckScope("Show me sales for branch B", "kpi_query").Passed)
}

func TestCheckAllOrder(t *testing.T) {
	s := NewService(0.3, nil)

	// Profanity is checked before confidence.
	r := s.CheckAll(Input{
		Query:      "show me the damn numbers",
		Intent:     "kpi_query",
		Confidence: 0.1,
	})
	require.False(t, r.Passed)
	require.Equal(t, "profanity", r.Check)

	r = s.CheckAll(Input{
		Query:      "Show me sales for branch B",
		Intent:     "kpi_query",
		Confidence: 0.95,
		Response:   "I'll retrieve the sales KPI data.",
	})
	require.True(t, r.Passed)
}

func TestPolicyEngine(t *testing.T) {
	engine, err := NewPolicyEngine(`user_role == "viewer" && intent == "task_management"; confidence < 0.0`)
	require.NoError(t, err)
	require.NotNil(t, engine)

	r := engine.Check(Input{Intent: "task_management", UserRole: "viewer", Confidence: 0.9})
	require.False(t, r.Passed)
	require.Equal(t, "policy", r.Check)

	r = engine.Check(Input{Intent: "task_management", UserRole: "manager", Confidence: 0.9})
	require.True(t, r.Passed)
}

func TestPolicyEngineEmptySource(t *testing.T) {
	engine, err := NewPolicyEngine("   ")
	require.NoError(t, err)
	require.Nil(t, engine)
}

func TestPolicyEngineInvalidExpression(t *testing.T) {
	_, err := NewPolicyEngine("this is not CEL ((")
	require.Error(t, err)

	_, err = NewPolicyEngine(`query`) // string, not bool
	require.Error(t, err)
}
