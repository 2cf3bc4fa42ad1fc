package indexer

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/retailsense/concierge/internal/profile"
	"github.com/retailsense/concierge/store"
	"github.com/retailsense/concierge/store/db/sqlite"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	p := &profile.Profile{
		Mode:   "dev",
		Driver: "sqlite",
		DSN:    filepath.Join(t.TempDir(), "indexer_test.db"),
	}
	driver, err := sqlite.NewDB(p)
	require.NoError(t, err)

	st := store.New(driver, p)
	require.NoError(t, st.Migrate(context.Background()))
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func writeDocumentsFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "documents.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadDocuments(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	ix, err := New(st, nil, 2)
	require.NoError(t, err)
	defer ix.Release()

	path := writeDocumentsFile(t, `[
		{
			"text": "Traffic index measures footfall relative to the branch baseline.",
			"metadata": {"source": "kpi_docs", "type": "explanation", "kpi": "traffic_index"}
		},
		{
			"text": "Branches flag congestion when utilization stays above 85% for 15 minutes.",
			"metadata": {"source": "business_rules", "type": "rule"}
		},
		{
			"text": ""
		}
	]`)

	created, err := ix.LoadDocuments(ctx, path)
	require.NoError(t, err)
	require.Equal(t, 2, created)

	count, err := st.CountDocuments(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, count)

	source := "kpi_docs"
	docs, err := st.ListDocuments(ctx, &store.FindDocument{Source: &source})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	require.Equal(t, "explanation", docs[0].DocType)
	require.Contains(t, docs[0].Metadata, "traffic_index")
	require.NotEmpty(t, docs[0].UID)
}

func TestLoadDocumentsBadInput(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	ix, err := New(st, nil, 1)
	require.NoError(t, err)
	defer ix.Release()

	_, err = ix.LoadDocuments(ctx, filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)

	path := writeDocumentsFile(t, `{"not": "an array"}`)
	_, err = ix.LoadDocuments(ctx, path)
	require.Error(t, err)
}

type fakeEmbedder struct {
	dims int
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	vector := make([]float32, f.dims)
	for i := range vector {
		vector[i] = float32(len(text)%(i+2)) + 0.5
	}
	return vector, nil
}

func (f *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		v, err := f.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		vectors[i] = v
	}
	return vectors, nil
}

func (f *fakeEmbedder) Dimensions() int { return f.dims }
func (f *fakeEmbedder) Model() string   { return "fake-embedder" }

func TestEmbedMissing(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	ix, err := New(st, &fakeEmbedder{dims: 8}, 2)
	require.NoError(t, err)
	defer ix.Release()

	path := writeDocumentsFile(t, `[
		{"text": "Conversion proxy estimates purchases per visitor.", "metadata": {"source": "kpi_docs", "type": "explanation"}},
		{"text": "Dwell time above twenty minutes signals queue problems.", "metadata": {"source": "business_rules", "type": "rule"}}
	]`)
	_, err = ix.LoadDocuments(ctx, path)
	require.NoError(t, err)

	embedded, err := ix.EmbedMissing(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, embedded)

	// A second pass finds nothing left to embed.
	embedded, err = ix.EmbedMissing(ctx)
	require.NoError(t, err)
	require.Zero(t, embedded)

	query, err := (&fakeEmbedder{dims: 8}).Embed(ctx, "dwell time")
	require.NoError(t, err)
	results, err := st.VectorSearch(ctx, &store.VectorSearchOptions{Vector: query, Limit: 1})
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Greater(t, results[0].Score, float32(0))
}

func TestEmbedMissingWithoutEmbedder(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	ix, err := New(st, nil, 1)
	require.NoError(t, err)
	defer ix.Release()

	embedded, err := ix.EmbedMissing(ctx)
	require.NoError(t, err)
	require.Zero(t, embedded)
}
