package store

import (
	"context"
	"time"
)

// Document is one entry of the retrieval corpus (KPI explanations,
// business rules, task docs and similar snippets).
type Document struct {
	ID        int32
	UID       string
	Text      string
	Source    string
	DocType   string
	Metadata  string // JSON string
	CreatedTs int64
	UpdatedTs int64
}

// FindDocument is the find condition for documents.
type FindDocument struct {
	ID      *int32
	UID     *string
	Source  *string
	DocType *string

	Limit  *int
	Offset *int
}

// DeleteDocument is the delete condition for documents.
type DeleteDocument struct {
	ID int32
}

// DocumentEmbedding represents the vector embedding of a document.
type DocumentEmbedding struct {
	ID         int32
	DocumentID int32
	Embedding  []float32
	Model      string
	CreatedTs  int64
	UpdatedTs  int64
}

// FindDocumentEmbedding is the find condition for document embeddings.
type FindDocumentEmbedding struct {
	DocumentID *int32
	Model      *string
}

// DocumentWithScore is a retrieval result with a similarity score.
type DocumentWithScore struct {
	Document *Document
	Score    float32
}

// VectorSearchOptions are the options for vector similarity search.
type VectorSearchOptions struct {
	Vector []float32
	Limit  int
}

func (s *Store) CreateDocument(ctx context.Context, create *Document) (*Document, error) {
	return s.driver.CreateDocument(ctx, create)
}

func (s *Store) ListDocuments(ctx context.Context, find *FindDocument) ([]*Document, error) {
	return s.driver.ListDocuments(ctx, find)
}

func (s *Store) DeleteDocument(ctx context.Context, delete *DeleteDocument) error {
	return s.driver.DeleteDocument(ctx, delete)
}

func (s *Store) CountDocuments(ctx context.Context) (int, error) {
	return s.driver.CountDocuments(ctx)
}

func (s *Store) UpsertDocumentEmbedding(ctx context.Context, embedding *DocumentEmbedding) (*DocumentEmbedding, error) {
	now := time.Now().Unix()
	if embedding.CreatedTs == 0 {
		embedding.CreatedTs = now
	}
	embedding.UpdatedTs = now
	return s.driver.UpsertDocumentEmbedding(ctx, embedding)
}

func (s *Store) ListDocumentEmbeddings(ctx context.Context, find *FindDocumentEmbedding) ([]*DocumentEmbedding, error) {
	return s.driver.ListDocumentEmbeddings(ctx, find)
}

// VectorSearch performs vector similarity search over the document
// corpus. Only supported on the postgres driver.
func (s *Store) VectorSearch(ctx context.Context, opts *VectorSearchOptions) ([]*DocumentWithScore, error) {
	return s.driver.VectorSearch(ctx, opts)
}

// FindDocumentsWithoutEmbedding lists documents missing an embedding for
// the given model. Used by the offline indexer.
func (s *Store) FindDocumentsWithoutEmbedding(ctx context.Context, model string) ([]*Document, error) {
	return s.driver.FindDocumentsWithoutEmbedding(ctx, model)
}
