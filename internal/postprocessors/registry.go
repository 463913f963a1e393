package postprocessors

import (
	"fmt"
	"sort"

	"github.com/custodia-labs/manualqa/internal/core/domain"
	"github.com/custodia-labs/manualqa/internal/core/ports/driven"
)

// BuilderFunc creates a segmenter from the settings of one strategy.
type BuilderFunc func(settings domain.SplitSettings) (driven.Segmenter, error)

// Registry maps strategy tags to their segmenters.
// It implements driven.SegmenterRegistry.
type Registry struct {
	builders   map[domain.SegmentStrategy]BuilderFunc
	settings   map[domain.SegmentStrategy]domain.SplitSettings
	segmenters map[domain.SegmentStrategy]driven.Segmenter
}

var _ driven.SegmenterRegistry = (*Registry)(nil)

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		builders:   make(map[domain.SegmentStrategy]BuilderFunc),
		settings:   make(map[domain.SegmentStrategy]domain.SplitSettings),
		segmenters: make(map[domain.SegmentStrategy]driven.Segmenter),
	}
}

// Register adds a builder and its settings for a strategy, replacing any
// previous registration.
func (r *Registry) Register(strategy domain.SegmentStrategy, settings domain.SplitSettings, builder BuilderFunc) {
	r.builders[strategy] = builder
	r.settings[strategy] = settings
	delete(r.segmenters, strategy)
}

// Get returns the segmenter for a strategy, building it on first use.
func (r *Registry) Get(strategy domain.SegmentStrategy) (driven.Segmenter, error) {
	if seg, ok := r.segmenters[strategy]; ok {
		return seg, nil
	}
	builder, ok := r.builders[strategy]
	if !ok {
		return nil, fmt.Errorf("%w: segmentation strategy %q", domain.ErrUnsupportedType, strategy)
	}
	seg, err := builder(r.settings[strategy])
	if err != nil {
		return nil, fmt.Errorf("build %s segmenter: %w", strategy, err)
	}
	r.segmenters[strategy] = seg
	return seg, nil
}

// Has returns true if a strategy is registered.
func (r *Registry) Has(strategy domain.SegmentStrategy) bool {
	_, ok := r.builders[strategy]
	return ok
}

// Names returns the registered strategies in sorted order.
func (r *Registry) Names() []domain.SegmentStrategy {
	names := make([]domain.SegmentStrategy, 0, len(r.builders))
	for name := range r.builders {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}
