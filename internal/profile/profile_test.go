package profile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfileDefaults(t *testing.T) {
	p := &Profile{}
	p.FromEnv()

	assert.Equal(t, "http://127.0.0.1:8000", p.CoreAPIBaseURL)
	assert.True(t, p.UseLLM)
	assert.Equal(t, "ollama", p.LLMProvider)
	assert.Equal(t, "llama3.2:3b", p.LLMModel)
	assert.Equal(t, "http://localhost:11434", p.LLMBaseURL)
	assert.Equal(t, 500, p.LLMMaxTokens)
	assert.True(t, p.LLMFallbackToRules)
	assert.Equal(t, "text-embedding-3-small", p.EmbeddingModel)
	assert.Equal(t, 384, p.EmbeddingDimensions)
	assert.InDelta(t, 0.3, p.IntentConfidenceThreshold, 1e-9)
	assert.Equal(t, 3, p.RetrievalTopK)
	assert.False(t, p.VoiceEnabled)
}

func TestProfileEnvOverrides(t *testing.T) {
	t.Setenv("CONCIERGE_MODE", "prod")
	t.Setenv("CONCIERGE_PORT", "9090")
	t.Setenv("CONCIERGE_LLM_PROVIDER", "openai")
	t.Setenv("CONCIERGE_LLM_API_KEY", "sk-test")
	t.Setenv("CONCIERGE_LLM_TIMEOUT", "45s")
	t.Setenv("CONCIERGE_USE_LLM", "false")

	p := &Profile{}
	p.FromEnv()

	assert.Equal(t, "prod", p.Mode)
	assert.Equal(t, 9090, p.Port)
	assert.Equal(t, "openai", p.LLMProvider)
	assert.Equal(t, "45s", p.LLMTimeout.String())
	assert.False(t, p.UseLLM)
	assert.False(t, p.IsLLMEnabled(), "disabled switch wins over configured key")
}

func TestProfileValidate(t *testing.T) {
	tests := []struct {
		name    string
		profile Profile
		wantErr bool
	}{
		{
			name:    "sqlite defaults ok",
			profile: Profile{Mode: "dev", Driver: "sqlite"},
		},
		{
			name:    "postgres without dsn rejected",
			profile: Profile{Mode: "prod", Driver: "postgres"},
			wantErr: true,
		},
		{
			name:    "unknown driver rejected",
			profile: Profile{Mode: "dev", Driver: "mysql"},
			wantErr: true,
		},
		{
			name:    "unsupported llm provider rejected",
			profile: Profile{Mode: "dev", Driver: "sqlite", UseLLM: true, LLMProvider: "bedrock"},
			wantErr: true,
		},
		{
			name:    "threshold out of range rejected",
			profile: Profile{Mode: "dev", Driver: "sqlite", IntentConfidenceThreshold: 1.5},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.profile.Validate()
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestProfileValidateFillsSQLiteDSN(t *testing.T) {
	p := Profile{Mode: "dev", Driver: "sqlite"}
	require.NoError(t, p.Validate())
	assert.Equal(t, "concierge_dev.db", p.DSN)
}
