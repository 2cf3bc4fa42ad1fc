package store

import (
	"context"
	"database/sql"
)

// Driver is an interface for store driver.
// It contains all methods that a store database driver should implement.
type Driver interface {
	GetDB() *sql.DB
	Close() error

	IsInitialized(ctx context.Context) (bool, error)

	// QueryLog model related methods.
	CreateQueryLog(ctx context.Context, create *QueryLog) (*QueryLog, error)
	ListQueryLogs(ctx context.Context, find *FindQueryLog) ([]*QueryLog, error)
	DeleteQueryLog(ctx context.Context, delete *DeleteQueryLog) error

	// Feedback model related methods.
	CreateFeedback(ctx context.Context, create *Feedback) (*Feedback, error)
	ListFeedback(ctx context.Context, find *FindFeedback) ([]*Feedback, error)
	DeleteFeedback(ctx context.Context, delete *DeleteFeedback) error

	// Document model related methods.
	CreateDocument(ctx context.Context, create *Document) (*Document, error)
	ListDocuments(ctx context.Context, find *FindDocument) ([]*Document, error)
	DeleteDocument(ctx context.Context, delete *DeleteDocument) error
	CountDocuments(ctx context.Context) (int, error)

	// DocumentEmbedding model related methods.
	UpsertDocumentEmbedding(ctx context.Context, embedding *DocumentEmbedding) (*DocumentEmbedding, error)
	ListDocumentEmbeddings(ctx context.Context, find *FindDocumentEmbedding) ([]*DocumentEmbedding, error)
	FindDocumentsWithoutEmbedding(ctx context.Context, model string) ([]*Document, error)

	// VectorSearch performs semantic search using vector similarity.
	VectorSearch(ctx context.Context, opts *VectorSearchOptions) ([]*DocumentWithScore, error)
}
