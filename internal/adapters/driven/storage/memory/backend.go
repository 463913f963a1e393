package memory

import (
	"context"

	"github.com/custodia-labs/manualqa/internal/core/domain"
	"github.com/custodia-labs/manualqa/internal/core/ports/driven"
)

// BackendName identifies the non-persistent backend.
const BackendName = "memory"

// Backend builds indexes that live only for the process lifetime.
// It is used for one-off runs and tests.
type Backend struct{}

var _ driven.IndexBackend = Backend{}

// Name returns the backend name.
func (Backend) Name() string { return BackendName }

// Load always reports that no persisted index exists.
func (Backend) Load(context.Context, string, driven.EmbeddingService) (driven.VectorIndex, error) {
	return nil, domain.ErrNotFound
}

// Build embeds chunks into a new index.
func (Backend) Build(ctx context.Context, chunks []domain.Chunk, embedder driven.EmbeddingService) (driven.VectorIndex, error) {
	embedded, dims, err := EmbedChunks(ctx, chunks, embedder)
	if err != nil {
		return nil, err
	}
	info := Info{Backend: BackendName, Model: embedder.ModelName(), Dimensions: dims}
	return NewIndex(embedded, info, embedder, nil), nil
}
