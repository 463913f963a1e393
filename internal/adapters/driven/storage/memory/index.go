// Package memory provides the in-memory vector index the persistent
// backends load into, plus the similarity and MMR selection they share.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/custodia-labs/manualqa/internal/adapters/driven/storage/fsutil"
	"github.com/custodia-labs/manualqa/internal/core/domain"
	"github.com/custodia-labs/manualqa/internal/core/ports/driven"
	"github.com/custodia-labs/manualqa/internal/logger"
)

// Info describes how an index was built. Backends persist it and compare
// the model on load.
type Info struct {
	Backend    string
	Model      string
	Dimensions int
}

// Writer persists chunks into a directory. Backends implement it; the
// directory passed is a fresh temporary directory.
type Writer interface {
	Write(ctx context.Context, dir string, chunks []domain.Chunk, info Info) error
}

// Index is a brute-force cosine index over embedded chunks.
// It is safe for concurrent queries.
type Index struct {
	mu       sync.RWMutex
	chunks   []domain.Chunk
	info     Info
	embedder driven.EmbeddingService
	writer   Writer
}

var _ driven.VectorIndex = (*Index)(nil)

// NewIndex creates an index over chunks, which must all carry embeddings.
// A nil writer makes Persist a no-op.
func NewIndex(chunks []domain.Chunk, info Info, embedder driven.EmbeddingService, writer Writer) *Index {
	return &Index{
		chunks:   chunks,
		info:     info,
		embedder: embedder,
		writer:   writer,
	}
}

// Query embeds text, scores every chunk and selects results by MMR.
func (x *Index) Query(ctx context.Context, text string, opts driven.QueryOptions) ([]domain.ScoredChunk, error) {
	if opts.K <= 0 {
		return nil, nil
	}
	vec, err := x.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	x.mu.RLock()
	scored := make([]domain.ScoredChunk, len(x.chunks))
	for i, c := range x.chunks {
		scored[i] = domain.ScoredChunk{Chunk: c, Score: CosineSimilarity(vec, c.Embedding)}
	}
	x.mu.RUnlock()

	candidates := RankCandidates(scored, opts.MinSimilarity, max(opts.FetchK, opts.K))
	selected := SelectMMR(candidates, opts.K, opts.Lambda)
	logger.Debug("index query: %d candidates above %.2f, %d selected", len(candidates), opts.MinSimilarity, len(selected))
	return copyResults(selected), nil
}

// Persist writes the index to dir through the backend writer.
func (x *Index) Persist(ctx context.Context, dir string) error {
	if x.writer == nil {
		return nil
	}
	x.mu.RLock()
	defer x.mu.RUnlock()
	return fsutil.WriteDir(dir, func(tmp string) error {
		return x.writer.Write(ctx, tmp, x.chunks, x.info)
	})
}

// Len returns the number of indexed chunks.
func (x *Index) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.chunks)
}

// Info returns how the index was built.
func (x *Index) Info() Info {
	return x.info
}

// Close releases the chunk slice.
func (x *Index) Close() error {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.chunks = nil
	return nil
}

// copyResults detaches returned chunks from index storage so callers may
// modify metadata freely.
func copyResults(in []domain.ScoredChunk) []domain.ScoredChunk {
	out := make([]domain.ScoredChunk, len(in))
	for i, sc := range in {
		sc.Chunk.Metadata = domain.CloneMetadata(sc.Chunk.Metadata)
		out[i] = sc
	}
	return out
}
