package postprocessors

import (
	"github.com/custodia-labs/manualqa/internal/core/domain"
	"github.com/custodia-labs/manualqa/internal/core/ports/driven"
	"github.com/custodia-labs/manualqa/internal/postprocessors/chunker"
)

// RegisterDefaults registers the manual and header strategies from config.
// Call this during application initialisation.
func RegisterDefaults(r *Registry, cfg domain.SegmenterConfig) {
	r.Register(domain.StrategyManual, cfg.Manual, buildManual)
	r.Register(domain.StrategyHeader, cfg.Header, buildHeader)
}

// NewDefaultRegistry returns a registry with the built-in strategies.
func NewDefaultRegistry(cfg domain.SegmenterConfig) *Registry {
	r := NewRegistry()
	RegisterDefaults(r, cfg)
	return r
}

// buildManual creates the line-granular generic splitter.
func buildManual(s domain.SplitSettings) (driven.Segmenter, error) {
	opts := append(splitOptions(s), chunker.WithName(string(domain.StrategyManual)))
	return withCleanup(chunker.NewGeneric(opts...)), nil
}

// buildHeader creates the header-aware splitter. Separators default to the
// header sentinel pair when unset.
func buildHeader(s domain.SplitSettings) (driven.Segmenter, error) {
	return withCleanup(chunker.NewHeaderAware(splitOptions(s)...)), nil
}

func splitOptions(s domain.SplitSettings) []chunker.Option {
	opts := []chunker.Option{
		chunker.WithMaxSize(s.MaxSize),
		chunker.WithOverlap(s.Overlap),
	}
	if len(s.Separators) > 0 {
		opts = append(opts, chunker.WithSeparators(s.Separators...))
	}
	return opts
}

// withCleanup only rewrites whitespace; every other character of the page
// must reach the segmenter.
func withCleanup(seg driven.Segmenter) *Pipeline {
	return NewPipeline(seg, NormaliseNewlines{})
}
