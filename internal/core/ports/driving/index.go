package driving

import (
	"context"

	"github.com/custodia-labs/manualqa/internal/core/domain"
)

// IndexService owns the lifecycle of the persisted vector index.
type IndexService interface {
	// Ensure loads the persisted index, building and persisting it first
	// when the index directory is missing or empty, or when force is set.
	Ensure(ctx context.Context, force bool) (*domain.IndexReport, error)

	// Search returns the chunks retrieved for a query without generating an answer.
	Search(ctx context.Context, query string, k int) ([]domain.ScoredChunk, error)

	// Close releases the loaded index.
	Close() error
}
