package chromem

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/manualqa/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/manualqa/internal/core/domain"
	"github.com/custodia-labs/manualqa/internal/core/ports/driven"
)

type letterEmbedder struct {
	model string
}

func (e *letterEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	v := make([]float32, 4)
	for _, r := range text {
		if r >= 'a' && r <= 'd' {
			v[r-'a']++
		}
	}
	v[3] += 0.01
	return v, nil
}

func (e *letterEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i], _ = e.Embed(ctx, t)
	}
	return out, nil
}

func (e *letterEmbedder) Dimensions() int { return 4 }
func (e *letterEmbedder) ModelName() string { return e.model }
func (e *letterEmbedder) Ping(context.Context) error { return nil }
func (e *letterEmbedder) Close() error { return nil }

func testChunks() []domain.Chunk {
	texts := []string{"aaab", "bbbc", "cccd", "ddda", "abcd"}
	chunks := make([]domain.Chunk, len(texts))
	for i, text := range texts {
		page := domain.NewPageRecord("pump.pdf", i+1, text)
		page.Metadata[domain.MetaPath] = "/docs/pump.pdf"
		chunks[i] = domain.Chunk{ID: text, Content: text, Position: i, Metadata: page.Metadata}
	}
	return chunks
}

func TestBackend_Name(t *testing.T) {
	assert.Equal(t, "chromem", NewBackend("").Name())
	assert.Equal(t, DefaultCollection, NewBackend("").collection)
	assert.Equal(t, "custom", NewBackend("custom").collection)
}

func TestBackend_QueryMatchesMemoryBackend(t *testing.T) {
	ctx := context.Background()
	emb := &letterEmbedder{model: "letters"}

	idx, err := NewBackend("manuals").Build(ctx, testChunks(), emb)
	require.NoError(t, err)
	ref, err := memory.Backend{}.Build(ctx, testChunks(), emb)
	require.NoError(t, err)
	assert.Equal(t, 5, idx.Len())

	opts := driven.QueryOptions{K: 3, FetchK: 5, Lambda: 0.5}
	for _, q := range []string{"aaaa", "bcbb", "dddc"} {
		want, err := ref.Query(ctx, q, opts)
		require.NoError(t, err)
		got, err := idx.Query(ctx, q, opts)
		require.NoError(t, err)

		require.Len(t, got, len(want))
		for i := range want {
			assert.Equal(t, want[i].Chunk.ID, got[i].Chunk.ID, "query %q rank %d", q, i)
			assert.Equal(t, want[i].Chunk.Metadata, got[i].Chunk.Metadata)
			assert.InDelta(t, want[i].Score, got[i].Score, 1e-4)
		}
	}
}

func TestBackend_PersistAndLoad(t *testing.T) {
	ctx := context.Background()
	emb := &letterEmbedder{model: "letters"}
	dir := filepath.Join(t.TempDir(), "index")
	b := NewBackend("manuals")

	built, err := b.Build(ctx, testChunks(), emb)
	require.NoError(t, err)
	require.NoError(t, built.Persist(ctx, dir))
	assert.FileExists(t, filepath.Join(dir, FileName))
	assert.FileExists(t, filepath.Join(dir, InfoFileName))

	loaded, err := b.Load(ctx, dir, emb)
	require.NoError(t, err)
	assert.Equal(t, built.Len(), loaded.Len())
	assert.Equal(t, memory.Info{Backend: BackendName, Model: "letters", Dimensions: 4}, loaded.(*Index).Info())

	opts := driven.QueryOptions{K: 2, FetchK: 4, Lambda: 0.5}
	want, err := built.Query(ctx, "cccc", opts)
	require.NoError(t, err)
	got, err := loaded.Query(ctx, "cccc", opts)
	require.NoError(t, err)
	require.Len(t, got, len(want))
	for i := range want {
		assert.Equal(t, want[i].Chunk.ID, got[i].Chunk.ID)
		assert.Equal(t, want[i].Chunk.Position, got[i].Chunk.Position)
		assert.Equal(t, want[i].Chunk.Metadata, got[i].Chunk.Metadata)
	}
}

func TestBackend_Load(t *testing.T) {
	ctx := context.Background()
	emb := &letterEmbedder{model: "letters"}

	t.Run("missing dir", func(t *testing.T) {
		_, err := NewBackend("").Load(ctx, filepath.Join(t.TempDir(), "nope"), emb)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("foreign dir", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "index.db"), []byte("x"), 0o600))
		_, err := NewBackend("").Load(ctx, dir, emb)
		assert.ErrorIs(t, err, domain.ErrIndexUnavailable)
	})

	t.Run("stale model", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "index")
		built, err := NewBackend("").Build(ctx, testChunks(), &letterEmbedder{model: "old"})
		require.NoError(t, err)
		require.NoError(t, built.Persist(ctx, dir))

		_, err = NewBackend("").Load(ctx, dir, emb)
		assert.ErrorIs(t, err, domain.ErrIndexStale)
	})

	t.Run("other collection", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "index")
		built, err := NewBackend("a").Build(ctx, testChunks(), emb)
		require.NoError(t, err)
		require.NoError(t, built.Persist(ctx, dir))

		_, err = NewBackend("b").Load(ctx, dir, emb)
		assert.ErrorIs(t, err, domain.ErrIndexUnavailable)
	})
}

func TestIndex_QueryBounds(t *testing.T) {
	ctx := context.Background()
	emb := &letterEmbedder{model: "letters"}
	idx, err := NewBackend("").Build(ctx, testChunks()[:2], emb)
	require.NoError(t, err)

	got, err := idx.Query(ctx, "aaaa", driven.QueryOptions{K: 5, FetchK: 20, Lambda: 0.5, MinSimilarity: -1})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = idx.Query(ctx, "aaaa", driven.QueryOptions{K: 0})
	require.NoError(t, err)
	assert.Empty(t, got)

	empty, err := NewBackend("").Build(ctx, nil, emb)
	require.NoError(t, err)
	got, err = empty.Query(ctx, "aaaa", driven.QueryOptions{K: 3, FetchK: 3})
	require.NoError(t, err)
	assert.Empty(t, got)
}
