package intent

import (
	"regexp"
)

// maxKeywordConfidence keeps keyword scores below the rule override
// confidence.
const maxKeywordConfidence = 0.85

type weightedPattern struct {
	pattern *regexp.Regexp
	weight  float64
}

// KeywordClassifier is the last classification layer: weighted keyword
// scoring across all intents, argmax wins. It stands in for the
// original model-based classifier when no LLM is available.
type KeywordClassifier struct {
	threshold float64
	banks     []intentBank
}

type intentBank struct {
	intent   Intent
	patterns []weightedPattern
}

func NewKeywordClassifier(threshold float64) *KeywordClassifier {
	kw := func(weight float64, expr string) weightedPattern {
		return weightedPattern{regexp.MustCompile(`(?i)\b(?:` + expr + `)\b`), weight}
	}
	return &KeywordClassifier{
		threshold: threshold,
		banks: []intentBank{
			{PerformanceAnalysis, []weightedPattern{
				kw(1.5, `performance|performing`),
				kw(1.5, `compare|comparison|versus|vs`),
				kw(1.2, `trend|trends`),
				kw(1.2, `analysis|analyze|analyse`),
				kw(1.0, `improve|improvement|underperforming`),
			}},
			{KPIQuery, []weightedPattern{
				kw(1.2, `how\s+many`),
				kw(1.0, `visitors|customers|shoppers`),
				kw(0.8, `average|numbers|figures`),
			}},
			{BranchStatus, []weightedPattern{
				kw(1.5, `how\s+is\s+branch|how's\s+branch`),
				kw(1.2, `recommendation|recommendations`),
				kw(0.8, `right\s+now|currently`),
			}},
			{TaskManagement, []weightedPattern{
				kw(1.2, `remind|reminder|checklist`),
				kw(1.0, `workload`),
			}},
			{EventQuery, []weightedPattern{
				kw(1.2, `event|events`),
				kw(1.0, `happening|happened`),
			}},
			{PromotionQuery, []weightedPattern{
				kw(1.2, `campaign|campaigns`),
				kw(1.0, `sale|bundle`),
			}},
			{Chitchat, []weightedPattern{
				kw(1.5, `how\s+are\s+you|what\s+can\s+you\s+do`),
				kw(1.5, `good\s+morning|good\s+afternoon|good\s+evening`),
				kw(1.2, `who\s+are\s+you`),
			}},
		},
	}
}

// Classify scores every intent bank and returns the best one. A best
// score below the threshold comes back as unknown with the scored
// confidence kept, mirroring the LLM layer.
func (c *KeywordClassifier) Classify(query string) Result {
	best := Unknown
	bestScore := 0.0
	for _, bank := range c.banks {
		score := 0.0
		for _, p := range bank.patterns {
			if p.pattern.MatchString(query) {
				score += p.weight
			}
		}
		if score > bestScore {
			best = bank.intent
			bestScore = score
		}
	}

	confidence := bestScore / (bestScore + 1)
	if confidence > maxKeywordConfidence {
		confidence = maxKeywordConfidence
	}
	if confidence < c.threshold {
		best = Unknown
	}
	return Result{Intent: best, Confidence: confidence, Method: "keyword"}
}
