package normalisers

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/custodia-labs/manualqa/internal/core/ports/driven"
)

// Registry maps lower-case file extensions to page loaders.
// It implements driven.LoaderRegistry.
type Registry struct {
	loaders map[string]driven.PageLoader
}

var _ driven.LoaderRegistry = (*Registry)(nil)

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{loaders: make(map[string]driven.PageLoader)}
}

// Register adds a loader for each extension it reports.
// A later registration for the same extension replaces the earlier one.
func (r *Registry) Register(loader driven.PageLoader) {
	for _, ext := range loader.Extensions() {
		r.loaders[strings.ToLower(ext)] = loader
	}
}

// For returns the loader for path based on its extension.
func (r *Registry) For(path string) (driven.PageLoader, bool) {
	loader, ok := r.loaders[strings.ToLower(filepath.Ext(path))]
	return loader, ok
}

// Extensions returns every registered extension in sorted order.
func (r *Registry) Extensions() []string {
	exts := make([]string, 0, len(r.loaders))
	for ext := range r.loaders {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}
