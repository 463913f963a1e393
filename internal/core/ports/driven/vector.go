package driven

import (
	"context"

	"github.com/custodia-labs/manualqa/internal/core/domain"
)

// VectorIndex stores chunk embeddings and answers diversity-aware
// nearest-neighbour queries.
type VectorIndex interface {
	// Query embeds text and returns at most opts.K chunks selected by
	// maximal marginal relevance from the opts.FetchK nearest candidates.
	Query(ctx context.Context, text string, opts QueryOptions) ([]domain.ScoredChunk, error)

	// Persist writes the index to dir atomically. Readers of dir observe
	// either the previous state or the complete new index. Returns
	// domain.ErrIndexExists if dir is already populated.
	Persist(ctx context.Context, dir string) error

	// Len returns the number of indexed chunks.
	Len() int

	// Close releases resources.
	Close() error
}

// QueryOptions configures a VectorIndex query.
type QueryOptions struct {
	// K is the number of chunks to return.
	K int

	// FetchK is the number of nearest candidates considered by MMR.
	FetchK int

	// Lambda weights relevance (1) against diversity (0).
	Lambda float64

	// MinSimilarity drops candidates whose similarity is not above it.
	MinSimilarity float64
}

// IndexBackend creates VectorIndex instances, either from persisted
// state or from freshly segmented chunks.
type IndexBackend interface {
	// Name identifies the backend in logs and index metadata.
	Name() string

	// Load opens a persisted index. Returns domain.ErrNotFound when dir is
	// missing or empty, and domain.ErrIndexStale when it was built with
	// another embedding model.
	Load(ctx context.Context, dir string, embedder EmbeddingService) (VectorIndex, error)

	// Build embeds chunks and returns an in-memory index ready to Persist.
	Build(ctx context.Context, chunks []domain.Chunk, embedder EmbeddingService) (VectorIndex, error)
}
