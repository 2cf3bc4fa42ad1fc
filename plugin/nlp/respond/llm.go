package respond

import (
	"context"
	"fmt"
	"strings"

	"github.com/retailsense/concierge/plugin/llm"
	"github.com/retailsense/concierge/plugin/nlp/slot"
)

const generatorSystemPrompt = `You are a helpful retail analytics assistant.
Generate natural, professional responses based on the user's query and the information provided.

Your responses should:
1. Acknowledge what data will be retrieved
2. Explain what the system will do
3. Set clear expectations
4. Use natural, conversational language
5. Be concise but informative

Do NOT make up data or numbers. Only explain what will be retrieved.`

// LLMGenerator produces a free-form response grounded on the retrieved
// context.
type LLMGenerator struct {
	llm llm.Service
}

func NewLLMGenerator(svc llm.Service) *LLMGenerator {
	return &LLMGenerator{llm: svc}
}

func (g *LLMGenerator) Generate(ctx context.Context, in Input) (string, error) {
	var b strings.Builder

	if len(in.Contexts) > 0 {
		b.WriteString("Relevant context from knowledge base:\n")
		for i, doc := range in.Contexts {
			if i >= 3 {
				break
			}
			fmt.Fprintf(&b, "- %s\n", doc.Text)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "User query: %s\n", in.Query)
	fmt.Fprintf(&b, "Detected intent: %s\n", in.Intent)
	fmt.Fprintf(&b, "Extracted information: %s\n", formatSlots(in.Slots))
	fmt.Fprintf(&b, "API endpoint to call: %s\n", in.Endpoint)
	b.WriteString("\nGenerate a helpful response:")

	return g.llm.Chat(ctx, []llm.Message{
		llm.SystemPrompt(generatorSystemPrompt),
		llm.UserMessage(b.String()),
	})
}

func formatSlots(slots slot.Slots) string {
	if len(slots) == 0 {
		return "none"
	}
	keys := []string{
		slot.KeyBranchID, slot.KeyTimeRange, slot.KeyKPIType,
		slot.KeyEmployeeName, slot.KeyEventType, slot.KeyProductName,
	}
	parts := make([]string, 0, len(slots))
	for _, key := range keys {
		if v, ok := slots[key]; ok {
			parts = append(parts, fmt.Sprintf("%s=%s", key, v))
		}
	}
	return strings.Join(parts, ", ")
}
