package intent

import (
	"regexp"
	"strings"
)

// ruleConfidence is assigned to every rule override. Rules are
// deliberately narrow, so a hit is near-certain.
const ruleConfidence = 0.95

type rule struct {
	intent  Intent
	pattern *regexp.Regexp
}

// RuleClassifier is the first classification layer. It protects the
// critical operational intents from LLM misclassification with ordered
// regex overrides: the first matching rule wins.
type RuleClassifier struct {
	rules []rule
}

// NewRuleClassifier creates the classifier with the predefined rule set.
func NewRuleClassifier() *RuleClassifier {
	return &RuleClassifier{
		rules: []rule{
			// Situations, crowding and congestion must go to branch_status.
			{BranchStatus, regexp.MustCompile(`(?i)\b(situation|situations|status)\b`)},
			{BranchStatus, regexp.MustCompile(`(?i)\b(crowding|crowded|congestion|overcrowd|too\s+busy)\b`)},

			{KPIQuery, regexp.MustCompile(`(?i)\b(kpi|kpis|metric|metrics)\b`)},
			{KPIQuery, regexp.MustCompile(`(?i)\b(traffic|footfall|sales|revenue|conversion|dwell|basket)\b`)},

			{TaskManagement, regexp.MustCompile(`(?i)\b(task|tasks|assign|assigned|todo|to\s+do|overdue|priority)\b`)},

			{PromotionQuery, regexp.MustCompile(`(?i)\b(promo|promotion|discount|offer|deal)\b`)},

			// Operational events only, crowding is handled above.
			{EventQuery, regexp.MustCompile(`(?i)\b(incident|accident|emergency|maintenance|repair|delivery|shipment|meeting)\b`)},

			{Chitchat, regexp.MustCompile(`(?i)^\s*(hello|hi|hey|thanks|thank\s+you|bye|goodbye)\b`)},
		},
	}
}

// Match attempts rule-based classification. It reports false when no
// rule fires and a higher layer should decide.
func (c *RuleClassifier) Match(query string) (Result, bool) {
	q := strings.TrimSpace(query)
	if q == "" {
		return Result{Intent: Unknown, Confidence: 0, Method: "rule"}, true
	}

	for _, r := range c.rules {
		if r.pattern.MatchString(q) {
			return Result{Intent: r.intent, Confidence: ruleConfidence, Method: "rule"}, true
		}
	}
	return Result{}, false
}
