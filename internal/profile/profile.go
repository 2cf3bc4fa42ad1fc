package profile

import (
	"os"
	"strconv"
	"time"

	"github.com/pkg/errors"
)

// Profile is the configuration to start the main server.
type Profile struct {
	// Mode can be "prod" or "dev"
	Mode string
	// Addr is the binding address for server
	Addr string
	// Port is the binding port for server
	Port int
	// Driver is the database driver (sqlite or postgres)
	Driver string
	// DSN points to where concierge stores its own data
	DSN string
	// Version is the current version of server
	Version string

	// CoreAPIBaseURL is the base URL of the core analytics backend.
	CoreAPIBaseURL string // CONCIERGE_CORE_API_BASE_URL (default: http://127.0.0.1:8000)
	// CoreAPITimeout is the per-request timeout for core backend calls.
	CoreAPITimeout time.Duration // CONCIERGE_CORE_API_TIMEOUT (default: 10s)

	// LLM configuration
	UseLLM             bool          // CONCIERGE_USE_LLM (default: true)
	LLMProvider        string        // CONCIERGE_LLM_PROVIDER: ollama, openai, anthropic (default: ollama)
	LLMModel           string        // CONCIERGE_LLM_MODEL (default: llama3.2:3b)
	LLMBaseURL         string        // CONCIERGE_LLM_BASE_URL (default: http://localhost:11434)
	LLMAPIKey          string        // CONCIERGE_LLM_API_KEY
	LLMTemperature     float64       // CONCIERGE_LLM_TEMPERATURE (default: 0.7)
	LLMMaxTokens       int           // CONCIERGE_LLM_MAX_TOKENS (default: 500)
	LLMTimeout         time.Duration // CONCIERGE_LLM_TIMEOUT (default: 30s)
	LLMFallbackToRules bool          // CONCIERGE_LLM_FALLBACK_TO_RULES (default: true)
	LLMCacheEnabled    bool          // CONCIERGE_LLM_CACHE_ENABLED (default: true)
	LLMMaxConcurrent   int64         // CONCIERGE_LLM_MAX_CONCURRENT (default: 4)

	// Embedding configuration
	EmbeddingProvider   string // CONCIERGE_EMBEDDING_PROVIDER: openai, siliconflow (default: openai)
	EmbeddingModel      string // CONCIERGE_EMBEDDING_MODEL (default: text-embedding-3-small)
	EmbeddingDimensions int    // CONCIERGE_EMBEDDING_DIMENSIONS (default: 384)
	EmbeddingAPIKey     string // CONCIERGE_EMBEDDING_API_KEY
	EmbeddingBaseURL    string // CONCIERGE_EMBEDDING_BASE_URL

	// Voice configuration (OpenAI-compatible audio endpoints)
	VoiceEnabled       bool   // CONCIERGE_VOICE_ENABLED (default: false)
	TranscriptionModel string // CONCIERGE_VOICE_TRANSCRIPTION_MODEL (default: whisper-1)
	SpeechModel        string // CONCIERGE_VOICE_SPEECH_MODEL (default: tts-1)
	SpeechVoice        string // CONCIERGE_VOICE_SPEECH_VOICE (default: alloy)
	VoiceAPIKey        string // CONCIERGE_VOICE_API_KEY (falls back to embedding key)
	VoiceBaseURL       string // CONCIERGE_VOICE_BASE_URL

	// Thresholds
	IntentConfidenceThreshold    float64 // CONCIERGE_INTENT_CONFIDENCE_THRESHOLD (default: 0.3)
	GuardrailConfidenceThreshold float64 // CONCIERGE_GUARDRAIL_CONFIDENCE_THRESHOLD (default: 0.3)

	// Retrieval
	RetrievalTopK int // CONCIERGE_RETRIEVAL_TOP_K (default: 3)

	// GuardrailPolicies holds optional CEL deny rules as semicolon
	// separated boolean expressions.
	GuardrailPolicies string // CONCIERGE_GUARDRAIL_POLICIES
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// IsLLMEnabled reports whether the LLM pipeline can actually run: the
// feature switch is on and the provider either needs no key (ollama) or
// has one configured.
func (p *Profile) IsLLMEnabled() bool {
	if !p.UseLLM {
		return false
	}
	if p.LLMProvider == "ollama" {
		return p.LLMBaseURL != ""
	}
	return p.LLMAPIKey != ""
}

// IsVoiceEnabled reports whether voice endpoints should be registered.
func (p *Profile) IsVoiceEnabled() bool {
	return p.VoiceEnabled && (p.VoiceAPIKey != "" || p.EmbeddingAPIKey != "")
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1"
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// FromEnv loads configuration from CONCIERGE_* environment variables.
func (p *Profile) FromEnv() {
	if v := os.Getenv("CONCIERGE_MODE"); v != "" {
		p.Mode = v
	}
	if v := os.Getenv("CONCIERGE_ADDR"); v != "" {
		p.Addr = v
	}
	if v := os.Getenv("CONCIERGE_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			p.Port = n
		}
	}
	if v := os.Getenv("CONCIERGE_DRIVER"); v != "" {
		p.Driver = v
	}
	if v := os.Getenv("CONCIERGE_DSN"); v != "" {
		p.DSN = v
	}

	p.CoreAPIBaseURL = getEnvOrDefault("CONCIERGE_CORE_API_BASE_URL", "http://127.0.0.1:8000")
	p.CoreAPITimeout = getDurationEnv("CONCIERGE_CORE_API_TIMEOUT", 10*time.Second)

	p.UseLLM = getBoolEnv("CONCIERGE_USE_LLM", true)
	p.LLMProvider = getEnvOrDefault("CONCIERGE_LLM_PROVIDER", "ollama")
	p.LLMModel = getEnvOrDefault("CONCIERGE_LLM_MODEL", "llama3.2:3b")
	p.LLMBaseURL = getEnvOrDefault("CONCIERGE_LLM_BASE_URL", "http://localhost:11434")
	p.LLMAPIKey = os.Getenv("CONCIERGE_LLM_API_KEY")
	p.LLMTemperature = getFloatEnv("CONCIERGE_LLM_TEMPERATURE", 0.7)
	p.LLMMaxTokens = getIntEnv("CONCIERGE_LLM_MAX_TOKENS", 500)
	p.LLMTimeout = getDurationEnv("CONCIERGE_LLM_TIMEOUT", 30*time.Second)
	p.LLMFallbackToRules = getBoolEnv("CONCIERGE_LLM_FALLBACK_TO_RULES", true)
	p.LLMCacheEnabled = getBoolEnv("CONCIERGE_LLM_CACHE_ENABLED", true)
	p.LLMMaxConcurrent = int64(getIntEnv("CONCIERGE_LLM_MAX_CONCURRENT", 4))

	p.EmbeddingProvider = getEnvOrDefault("CONCIERGE_EMBEDDING_PROVIDER", "openai")
	p.EmbeddingModel = getEnvOrDefault("CONCIERGE_EMBEDDING_MODEL", "text-embedding-3-small")
	p.EmbeddingDimensions = getIntEnv("CONCIERGE_EMBEDDING_DIMENSIONS", 384)
	p.EmbeddingAPIKey = os.Getenv("CONCIERGE_EMBEDDING_API_KEY")
	p.EmbeddingBaseURL = os.Getenv("CONCIERGE_EMBEDDING_BASE_URL")

	p.VoiceEnabled = getBoolEnv("CONCIERGE_VOICE_ENABLED", false)
	p.TranscriptionModel = getEnvOrDefault("CONCIERGE_VOICE_TRANSCRIPTION_MODEL", "whisper-1")
	p.SpeechModel = getEnvOrDefault("CONCIERGE_VOICE_SPEECH_MODEL", "tts-1")
	p.SpeechVoice = getEnvOrDefault("CONCIERGE_VOICE_SPEECH_VOICE", "alloy")
	p.VoiceAPIKey = os.Getenv("CONCIERGE_VOICE_API_KEY")
	p.VoiceBaseURL = os.Getenv("CONCIERGE_VOICE_BASE_URL")

	p.IntentConfidenceThreshold = getFloatEnv("CONCIERGE_INTENT_CONFIDENCE_THRESHOLD", 0.3)
	p.GuardrailConfidenceThreshold = getFloatEnv("CONCIERGE_GUARDRAIL_CONFIDENCE_THRESHOLD", 0.3)

	p.RetrievalTopK = getIntEnv("CONCIERGE_RETRIEVAL_TOP_K", 3)
	p.GuardrailPolicies = os.Getenv("CONCIERGE_GUARDRAIL_POLICIES")
}

func (p *Profile) Validate() error {
	if p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "dev"
	}

	switch p.Driver {
	case "sqlite", "postgres":
	case "":
		p.Driver = "sqlite"
	default:
		return errors.Errorf("unknown db driver %q: only 'postgres' and 'sqlite' are supported", p.Driver)
	}

	if p.Driver == "sqlite" && p.DSN == "" {
		p.DSN = "concierge_" + p.Mode + ".db"
	}
	if p.Driver == "postgres" && p.DSN == "" {
		return errors.New("DSN is required for the postgres driver")
	}

	if p.UseLLM {
		switch p.LLMProvider {
		case "ollama", "openai", "anthropic":
		default:
			return errors.Errorf("unsupported LLM provider: %s", p.LLMProvider)
		}
	}

	if p.IntentConfidenceThreshold < 0 || p.IntentConfidenceThreshold > 1 {
		return errors.New("intent confidence threshold must be within [0, 1]")
	}
	if p.GuardrailConfidenceThreshold < 0 || p.GuardrailConfidenceThreshold > 1 {
		return errors.New("guardrail confidence threshold must be within [0, 1]")
	}
	if p.RetrievalTopK <= 0 {
		p.RetrievalTopK = 3
	}

	return nil
}
