package driving

import (
	"context"

	"github.com/custodia-labs/manualqa/internal/core/domain"
)

// CorpusService turns the source directory into segmented chunks.
type CorpusService interface {
	// Build loads and segments every recognised file named by manifest.
	// Per-file failures are returned as a *domain.BuildError alongside the
	// partial corpus.
	Build(ctx context.Context, manifest domain.Manifest) (*domain.Corpus, error)
}
