// Package indexer loads knowledge base documents and builds their
// vector embeddings offline.
package indexer

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/lithammer/shortuuid/v4"
	"github.com/panjf2000/ants/v2"
	"github.com/pkg/errors"

	"github.com/retailsense/concierge/server/retrieval"
	"github.com/retailsense/concierge/store"
)

const embedBatchSize = 32

// Indexer ingests documents into the store and embeds the ones that
// have no vector yet.
type Indexer struct {
	store    *store.Store
	embedder retrieval.Embedder
	pool     *ants.Pool
	logger   *slog.Logger
}

// New creates an indexer. embedder may be nil; EmbedMissing then
// becomes a no-op and retrieval stays keyword-only. workers below 1
// defaults to half the CPUs.
func New(st *store.Store, embedder retrieval.Embedder, workers int) (*Indexer, error) {
	if workers < 1 {
		workers = runtime.NumCPU() / 2
		if workers < 1 {
			workers = 1
		}
	}
	pool, err := ants.NewPool(workers)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create worker pool")
	}
	return &Indexer{
		store:    st,
		embedder: embedder,
		pool:     pool,
		logger:   slog.Default(),
	}, nil
}

// Release frees the worker pool. The indexer must not be used after.
func (ix *Indexer) Release() {
	ix.pool.Release()
}

// documentRecord is the on-disk document shape: the text plus a
// metadata object whose "source" and "type" keys are lifted into
// dedicated columns.
type documentRecord struct {
	Text     string         `json:"text"`
	Metadata map[string]any `json:"metadata"`
}

// LoadDocuments reads a JSON array of documents and stores each one.
// It returns the number of documents created.
func (ix *Indexer) LoadDocuments(ctx context.Context, path string) (int, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, errors.Wrapf(err, "failed to read %s", path)
	}

	var records []documentRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		return 0, errors.Wrapf(err, "failed to parse %s", path)
	}

	created := 0
	for i, record := range records {
		if record.Text == "" {
			ix.logger.Warn("skipping document without text", slog.Int("index", i))
			continue
		}

		source, _ := record.Metadata["source"].(string)
		docType, _ := record.Metadata["type"].(string)
		metadata := map[string]any{}
		for k, v := range record.Metadata {
			if k == "source" || k == "type" {
				continue
			}
			metadata[k] = v
		}
		metadataJSON, err := json.Marshal(metadata)
		if err != nil {
			return created, errors.Wrap(err, "failed to encode metadata")
		}

		now := time.Now().Unix()
		if _, err := ix.store.CreateDocument(ctx, &store.Document{
			UID:       shortuuid.New(),
			Text:      record.Text,
			Source:    source,
			DocType:   docType,
			Metadata:  string(metadataJSON),
			CreatedTs: now,
			UpdatedTs: now,
		}); err != nil {
			return created, errors.Wrap(err, "failed to create document")
		}
		created++
	}

	ix.logger.Info("documents loaded",
		slog.String("path", path), slog.Int("created", created))
	return created, nil
}

// EmbedMissing embeds every document that has no vector for the
// embedder's model. Batches run concurrently on the worker pool; a
// failed batch is logged and skipped so one bad document cannot stall
// the whole run. It returns the number of documents embedded.
func (ix *Indexer) EmbedMissing(ctx context.Context) (int, error) {
	if ix.embedder == nil {
		ix.logger.Info("no embedder configured, skipping embedding")
		return 0, nil
	}

	documents, err := ix.store.FindDocumentsWithoutEmbedding(ctx, ix.embedder.Model())
	if err != nil {
		return 0, errors.Wrap(err, "failed to list unembedded documents")
	}
	if len(documents) == 0 {
		return 0, nil
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		embedded int
	)
	for start := 0; start < len(documents); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(documents) {
			end = len(documents)
		}
		batch := documents[start:end]

		wg.Add(1)
		submitErr := ix.pool.Submit(func() {
			defer wg.Done()
			n, err := ix.embedBatch(ctx, batch)
			if err != nil {
				ix.logger.Error("embedding batch failed",
					slog.Int("size", len(batch)), slog.Any("error", err))
				return
			}
			mu.Lock()
			embedded += n
			mu.Unlock()
		})
		if submitErr != nil {
			wg.Done()
			return embedded, errors.Wrap(submitErr, "failed to submit embedding batch")
		}
	}
	wg.Wait()

	ix.logger.Info("embedding pass complete",
		slog.Int("candidates", len(documents)), slog.Int("embedded", embedded))
	return embedded, nil
}

func (ix *Indexer) embedBatch(ctx context.Context, batch []*store.Document) (int, error) {
	texts := make([]string, len(batch))
	for i, doc := range batch {
		texts[i] = doc.Text
	}

	vectors, err := ix.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return 0, err
	}
	if len(vectors) != len(batch) {
		return 0, errors.Errorf("embedder returned %d vectors for %d documents", len(vectors), len(batch))
	}

	embedded := 0
	for i, doc := range batch {
		if _, err := ix.store.UpsertDocumentEmbedding(ctx, &store.DocumentEmbedding{
			DocumentID: doc.ID,
			Embedding:  vectors[i],
			Model:      ix.embedder.Model(),
		}); err != nil {
			return embedded, errors.Wrapf(err, "failed to store embedding for document %d", doc.ID)
		}
		embedded++
	}
	return embedded, nil
}
