// Package retrieval implements hybrid document retrieval over the
// knowledge base: keyword ranking fused with vector similarity search
// via Reciprocal Rank Fusion. Without an embedder, or when the vector
// side fails, it degrades to keyword-only.
package retrieval

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/pkg/errors"

	"github.com/retailsense/concierge/store"
)

// Result is one retrieved document with its relevance score.
type Result struct {
	Document *store.Document
	Score    float64
}

// Metadata decodes the document's metadata JSON. A broken or empty
// payload yields an empty map.
func (r *Result) Metadata() map[string]string {
	meta := map[string]string{}
	if r.Document.Metadata == "" {
		return meta
	}
	if err := json.Unmarshal([]byte(r.Document.Metadata), &meta); err != nil {
		slog.Warn("invalid document metadata",
			slog.Int("document", int(r.Document.ID)), slog.Any("error", err))
	}
	return meta
}

// Service performs hybrid search over the document corpus.
type Service struct {
	store    *store.Store
	embedder Embedder
	topK     int
}

// NewService creates the retrieval service. embedder may be nil.
func NewService(st *store.Store, embedder Embedder, topK int) *Service {
	if topK <= 0 {
		topK = 3
	}
	return &Service{store: st, embedder: embedder, topK: topK}
}

// Search returns the topK most relevant documents for the query.
func (s *Service) Search(ctx context.Context, query string) ([]*Result, error) {
	docs, err := s.store.ListDocuments(ctx, &store.FindDocument{})
	if err != nil {
		return nil, errors.Wrap(err, "failed to load documents")
	}

	// Keyword candidates beyond topK give RRF something to fuse.
	keywordResults := keywordSearch(query, docs, s.topK*2)

	vectorResults := s.vectorSearch(ctx, query)
	if vectorResults == nil {
		if len(keywordResults) > s.topK {
			keywordResults = keywordResults[:s.topK]
		}
		return keywordResults, nil
	}

	return fuseRRF(keywordResults, vectorResults, s.topK), nil
}

// vectorSearch returns nil when semantic search is unavailable, which
// is not an error: the keyword path still answers.
func (s *Service) vectorSearch(ctx context.Context, query string) []*Result {
	if s.embedder == nil {
		return nil
	}

	vector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		slog.Warn("query embedding failed, keyword-only retrieval", slog.Any("error", err))
		return nil
	}

	matches, err := s.store.VectorSearch(ctx, &store.VectorSearchOptions{
		Vector: vector,
		Limit:  s.topK * 2,
	})
	if err != nil {
		slog.Warn("vector search failed, keyword-only retrieval", slog.Any("error", err))
		return nil
	}

	results := make([]*Result, 0, len(matches))
	for _, m := range matches {
		results = append(results, &Result{Document: m.Document, Score: float64(m.Score)})
	}
	return results
}
