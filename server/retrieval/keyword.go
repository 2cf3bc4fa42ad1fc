package retrieval

import (
	"regexp"
	"sort"
	"strings"

	"github.com/retailsense/concierge/store"
)

var tokenPattern = regexp.MustCompile(`[a-z0-9_]+`)

var stopwords = map[string]bool{
	"the": true, "a": true, "an": true, "is": true, "are": true,
	"was": true, "were": true, "for": true, "of": true, "in": true,
	"on": true, "at": true, "to": true, "and": true, "or": true,
	"me": true, "my": true, "show": true, "what": true, "how": true,
}

func tokenize(text string) []string {
	tokens := tokenPattern.FindAllString(strings.ToLower(text), -1)
	out := tokens[:0]
	for _, t := range tokens {
		if !stopwords[t] {
			out = append(out, t)
		}
	}
	return out
}

// keywordScore is the fraction of query terms present in the document.
func keywordScore(queryTokens []string, docText string) float64 {
	if len(queryTokens) == 0 {
		return 0
	}
	docTokens := map[string]bool{}
	for _, t := range tokenize(docText) {
		docTokens[t] = true
	}

	hits := 0
	for _, t := range queryTokens {
		if docTokens[t] {
			hits++
		}
	}
	return float64(hits) / float64(len(queryTokens))
}

// keywordSearch ranks documents by term overlap with the query.
func keywordSearch(query string, docs []*store.Document, limit int) []*Result {
	queryTokens := tokenize(query)

	var results []*Result
	for _, doc := range docs {
		score := keywordScore(queryTokens, doc.Text)
		if score <= 0 {
			continue
		}
		results = append(results, &Result{Document: doc, Score: score})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results
}
