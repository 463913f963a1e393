package memory

import (
	"context"
	"fmt"

	"github.com/custodia-labs/manualqa/internal/core/domain"
	"github.com/custodia-labs/manualqa/internal/core/ports/driven"
	"github.com/custodia-labs/manualqa/internal/logger"
)

// EmbedChunks returns copies of chunks with embeddings attached.
// Every vector must be non-empty and share one dimension.
func EmbedChunks(ctx context.Context, chunks []domain.Chunk, embedder driven.EmbeddingService) ([]domain.Chunk, int, error) {
	if len(chunks) == 0 {
		return nil, 0, nil
	}
	defer logger.Timed(fmt.Sprintf("embedding %d chunks", len(chunks)))()

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}
	vectors, err := embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, 0, fmt.Errorf("embedding chunks: %w", err)
	}
	if len(vectors) != len(chunks) {
		return nil, 0, fmt.Errorf("%w: got %d embeddings for %d chunks",
			domain.ErrEmbeddingUnavailable, len(vectors), len(chunks))
	}

	dims := len(vectors[0])
	out := make([]domain.Chunk, len(chunks))
	for i, c := range chunks {
		if len(vectors[i]) == 0 || len(vectors[i]) != dims {
			return nil, 0, fmt.Errorf("%w: embedding %d has %d dimensions, want %d",
				domain.ErrEmbeddingUnavailable, i, len(vectors[i]), dims)
		}
		c.Embedding = vectors[i]
		c.Metadata = domain.CloneMetadata(c.Metadata)
		out[i] = c
	}
	return out, dims, nil
}
