package driven

import (
	"context"

	"github.com/custodia-labs/manualqa/internal/core/domain"
)

// Segmenter splits page records into chunks.
// Output preserves page order; every chunk is trimmed, non-empty and carries
// a deep copy of its page metadata.
type Segmenter interface {
	// Name returns the strategy name recorded on produced chunks.
	Name() string

	// Segment splits the pages of one document.
	Segment(ctx context.Context, pages []domain.PageRecord) ([]domain.Chunk, error)
}

// SegmenterRegistry resolves segmentation strategies by tag.
type SegmenterRegistry interface {
	// Get returns the segmenter for a strategy.
	Get(strategy domain.SegmentStrategy) (Segmenter, error)
}
