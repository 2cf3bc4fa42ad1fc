package intent

import (
	"context"
	"fmt"

	"github.com/retailsense/concierge/plugin/llm"
)

const classifierSystemPrompt = `You are an intent classifier for a retail intelligence system.
Your job is to classify user queries into one of these categories:
- kpi_query: Questions about metrics like sales, traffic, conversion, revenue
- branch_status: Questions about branch information, status, or operations
- performance_analysis: Requests for performance comparisons or analysis
- task_management: Creating, viewing, or managing tasks
- event_query: Questions about events, incidents, or alerts
- promotion_query: Questions about promotions, offers, or campaigns
- chitchat: Casual conversation, greetings, or off-topic questions
- unknown: Queries that don't fit any category

Respond with JSON containing:
- intent: The classified intent
- confidence: A score from 0.0 to 1.0
- reasoning: Brief explanation of your classification

Examples:
Query: What were the sales yesterday?
{"intent": "kpi_query", "confidence": 0.95, "reasoning": "User is asking about a specific KPI (sales) for a time period"}

Query: Is branch A open today?
{"intent": "branch_status", "confidence": 0.92, "reasoning": "User is asking about the operational status of a branch"}

Query: Compare performance of branch A and B
{"intent": "performance_analysis", "confidence": 0.90, "reasoning": "User wants to analyze and compare branch performance"}`

// LLMClassifier is the second classification layer.
type LLMClassifier struct {
	llm       llm.Service
	threshold float64
}

// NewLLMClassifier creates a classifier backed by the given LLM
// service. Results below threshold are downgraded to unknown.
func NewLLMClassifier(svc llm.Service, threshold float64) *LLMClassifier {
	return &LLMClassifier{llm: svc, threshold: threshold}
}

func (c *LLMClassifier) Classify(ctx context.Context, query string) (Result, error) {
	var out struct {
		Intent     string  `json:"intent"`
		Confidence float64 `json:"confidence"`
		Reasoning  string  `json:"reasoning"`
	}

	messages := []llm.Message{
		llm.SystemPrompt(classifierSystemPrompt),
		llm.UserMessage(fmt.Sprintf("Now classify this query:\nQuery: %s", query)),
	}
	if err := c.llm.ChatJSON(ctx, messages, &out); err != nil {
		return Result{}, err
	}

	// Models occasionally report scores outside [0, 1].
	confidence := min(max(out.Confidence, 0), 1)

	result := Result{
		Intent:     Intent(out.Intent),
		Confidence: confidence,
		Method:     "llm",
		Reasoning:  out.Reasoning,
	}
	if !IsValid(out.Intent) {
		result.Intent = Unknown
		result.Confidence = 0
	}
	if result.Confidence < c.threshold {
		result.Intent = Unknown
	}
	return result, nil
}
