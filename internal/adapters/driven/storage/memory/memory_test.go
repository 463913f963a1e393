package memory

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/manualqa/internal/core/domain"
	"github.com/custodia-labs/manualqa/internal/core/ports/driven"
)

// vectorEmbedder returns fixed vectors keyed by text.
type vectorEmbedder struct {
	vectors map[string][]float32
	err     error
}

func (e *vectorEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if e.err != nil {
		return nil, e.err
	}
	return e.vectors[text], nil
}

func (e *vectorEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := e.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (e *vectorEmbedder) Dimensions() int { return 2 }
func (e *vectorEmbedder) ModelName() string { return "fixed" }
func (e *vectorEmbedder) Ping(context.Context) error { return nil }
func (e *vectorEmbedder) Close() error { return nil }

func chunk(pos int, content string, vec ...float32) domain.Chunk {
	return domain.Chunk{
		ID:        content,
		Content:   content,
		Position:  pos,
		Embedding: vec,
		Metadata:  map[string]any{domain.MetaSource: "m.pdf", domain.MetaPage: 1},
	}
}

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 2}, []float32{1, 2}, 1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1},
		{"scaled", []float32{1, 1}, []float32{3, 3}, 1},
		{"zero vector", []float32{0, 0}, []float32{1, 0}, 0},
		{"length mismatch", []float32{1}, []float32{1, 0}, 0},
		{"empty", nil, nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, CosineSimilarity(tt.a, tt.b), 1e-9)
		})
	}
}

func TestRankCandidates(t *testing.T) {
	in := []domain.ScoredChunk{
		{Chunk: chunk(3, "c"), Score: 0.5},
		{Chunk: chunk(1, "a"), Score: 0.9},
		{Chunk: chunk(0, "z"), Score: 0.5},
		{Chunk: chunk(2, "b"), Score: 0.1},
	}

	got := RankCandidates(in, 0.1, 10)
	require.Len(t, got, 3)
	assert.Equal(t, "a", got[0].Chunk.Content)
	assert.Equal(t, "z", got[1].Chunk.Content, "ties break by position")
	assert.Equal(t, "c", got[2].Chunk.Content)

	assert.Len(t, RankCandidates(in, -1, 2), 2)
	assert.Empty(t, RankCandidates(in, 0.95, 10))
}

func TestSelectMMR_PrefersDiversity(t *testing.T) {
	// b is nearly a duplicate of a; c is less relevant but different.
	candidates := []domain.ScoredChunk{
		{Chunk: chunk(0, "a", 1, 0), Score: 0.95},
		{Chunk: chunk(1, "b", 1, 0.01), Score: 0.94},
		{Chunk: chunk(2, "c", 0, 1), Score: 0.6},
	}

	got := SelectMMR(candidates, 2, 0.5)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].Chunk.Content)
	assert.Equal(t, "c", got[1].Chunk.Content)

	relevanceOnly := SelectMMR(candidates, 2, 1)
	assert.Equal(t, "b", relevanceOnly[1].Chunk.Content)
}

func TestSelectMMR_Bounds(t *testing.T) {
	candidates := []domain.ScoredChunk{
		{Chunk: chunk(0, "a", 1, 0), Score: 0.9},
		{Chunk: chunk(1, "b", 0, 1), Score: 0.8},
	}

	assert.Nil(t, SelectMMR(candidates, 0, 0.5))
	assert.Nil(t, SelectMMR(nil, 3, 0.5))
	assert.Len(t, SelectMMR(candidates, 5, 0.5), 2)
}

func TestSelectMMR_FirstPickTiesGoToEarlier(t *testing.T) {
	candidates := []domain.ScoredChunk{
		{Chunk: chunk(0, "first", 1, 0), Score: 0.7},
		{Chunk: chunk(1, "second", 0, 1), Score: 0.7},
	}
	got := SelectMMR(candidates, 1, 0.5)
	require.Len(t, got, 1)
	assert.Equal(t, "first", got[0].Chunk.Content)
}

func newTestIndex(t *testing.T) (*Index, *vectorEmbedder) {
	t.Helper()
	emb := &vectorEmbedder{vectors: map[string][]float32{
		"oil":    {1, 0},
		"filter": {0.8, 0.6},
		"torque": {0, 1},
		"query":  {1, 0.1},
	}}
	chunks := []domain.Chunk{
		{Content: "oil", Position: 0, Metadata: map[string]any{domain.MetaSource: "a.pdf"}},
		{Content: "filter", Position: 1, Metadata: map[string]any{domain.MetaSource: "a.pdf"}},
		{Content: "torque", Position: 2, Metadata: map[string]any{domain.MetaSource: "b.pdf"}},
	}
	idx, err := Backend{}.Build(context.Background(), chunks, emb)
	require.NoError(t, err)
	return idx.(*Index), emb
}

func TestIndex_Query(t *testing.T) {
	idx, _ := newTestIndex(t)

	got, err := idx.Query(context.Background(), "query", driven.QueryOptions{K: 2, FetchK: 3, Lambda: 0.5, MinSimilarity: 0})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "oil", got[0].Chunk.Content)
	for _, sc := range got {
		assert.Greater(t, sc.Score, 0.0)
		assert.LessOrEqual(t, sc.Score, 1.0+1e-9)
	}
}

func TestIndex_QueryRespectsK(t *testing.T) {
	idx, _ := newTestIndex(t)

	for k := 0; k <= 5; k++ {
		got, err := idx.Query(context.Background(), "query", driven.QueryOptions{K: k, FetchK: 1, Lambda: 0.5, MinSimilarity: -1})
		require.NoError(t, err)
		assert.LessOrEqual(t, len(got), k)
		assert.LessOrEqual(t, len(got), idx.Len())
	}
}

func TestIndex_QueryMinSimilarityFilters(t *testing.T) {
	idx, _ := newTestIndex(t)

	got, err := idx.Query(context.Background(), "query", driven.QueryOptions{K: 3, FetchK: 3, Lambda: 0.5, MinSimilarity: 0.99})
	require.NoError(t, err)
	for _, sc := range got {
		assert.Greater(t, sc.Score, 0.99)
	}
	assert.Less(t, len(got), 3)
}

func TestIndex_QueryResultsAreDetached(t *testing.T) {
	idx, _ := newTestIndex(t)
	opts := driven.QueryOptions{K: 1, FetchK: 1, Lambda: 0.5}

	first, err := idx.Query(context.Background(), "query", opts)
	require.NoError(t, err)
	first[0].Chunk.Metadata[domain.MetaSource] = "changed"

	second, err := idx.Query(context.Background(), "query", opts)
	require.NoError(t, err)
	assert.Equal(t, "a.pdf", second[0].Chunk.Metadata[domain.MetaSource])
}

func TestIndex_QueryEmbedError(t *testing.T) {
	idx, emb := newTestIndex(t)
	emb.err = domain.ErrRateLimited

	_, err := idx.Query(context.Background(), "query", driven.QueryOptions{K: 1})
	assert.ErrorIs(t, err, domain.ErrRateLimited)
}

func TestBackend(t *testing.T) {
	idx, _ := newTestIndex(t)
	assert.Equal(t, 3, idx.Len())
	assert.Equal(t, Info{Backend: BackendName, Model: "fixed", Dimensions: 2}, idx.Info())
	assert.NoError(t, idx.Persist(context.Background(), t.TempDir()))

	_, err := Backend{}.Load(context.Background(), t.TempDir(), nil)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, idx.Close())
	assert.Equal(t, 0, idx.Len())
}

func TestEmbedChunks_Errors(t *testing.T) {
	chunks := []domain.Chunk{{Content: "a"}, {Content: "b"}}

	t.Run("embedder failure", func(t *testing.T) {
		want := errors.New("offline")
		_, _, err := EmbedChunks(context.Background(), chunks, &vectorEmbedder{err: want})
		assert.ErrorIs(t, err, want)
	})

	t.Run("inconsistent dimensions", func(t *testing.T) {
		emb := &vectorEmbedder{vectors: map[string][]float32{"a": {1, 0}, "b": {1}}}
		_, _, err := EmbedChunks(context.Background(), chunks, emb)
		assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
	})

	t.Run("empty vector", func(t *testing.T) {
		emb := &vectorEmbedder{vectors: map[string][]float32{"a": {}, "b": {}}}
		_, _, err := EmbedChunks(context.Background(), chunks, emb)
		assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
	})

	t.Run("no chunks", func(t *testing.T) {
		out, dims, err := EmbedChunks(context.Background(), nil, &vectorEmbedder{})
		assert.NoError(t, err)
		assert.Nil(t, out)
		assert.Zero(t, dims)
	})
}

func TestEmbedChunks_DoesNotModifyInput(t *testing.T) {
	chunks := []domain.Chunk{{Content: "a", Metadata: map[string]any{"k": "v"}}}
	emb := &vectorEmbedder{vectors: map[string][]float32{"a": {0.6, 0.8}}}

	out, dims, err := EmbedChunks(context.Background(), chunks, emb)
	require.NoError(t, err)
	assert.Equal(t, 2, dims)
	assert.Nil(t, chunks[0].Embedding)
	assert.InDelta(t, 1.0, math.Hypot(float64(out[0].Embedding[0]), float64(out[0].Embedding[1])), 1e-6)
}
