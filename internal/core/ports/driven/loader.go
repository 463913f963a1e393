package driven

import (
	"context"

	"github.com/custodia-labs/manualqa/internal/core/domain"
)

// PageLoader extracts page-level text records from a source file.
// Implementations fail with *domain.LoadError on unreadable or corrupt files.
type PageLoader interface {
	// Extensions returns the lower-case file extensions handled, with dot.
	Extensions() []string

	// Load returns one record per page in page order.
	Load(ctx context.Context, path string) ([]domain.PageRecord, error)
}

// LoaderRegistry selects a PageLoader by file extension.
type LoaderRegistry interface {
	// Register adds a loader for each of its extensions.
	Register(loader PageLoader)

	// For returns the loader for a path, or false if the type is not recognised.
	For(path string) (PageLoader, bool)

	// Extensions lists every recognised extension.
	Extensions() []string
}
