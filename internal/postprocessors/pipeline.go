// Package postprocessors assembles the segmentation strategies used during
// ingestion: page clean-up stages chained in front of a chunker.
package postprocessors

import (
	"context"
	"strings"

	"github.com/custodia-labs/manualqa/internal/core/domain"
	"github.com/custodia-labs/manualqa/internal/core/ports/driven"
)

// PageStage rewrites page text before segmentation.
type PageStage interface {
	Name() string
	Apply(text string) string
}

// Pipeline runs page stages in order and hands the result to a segmenter.
// It implements driven.Segmenter.
type Pipeline struct {
	stages    []PageStage
	segmenter driven.Segmenter
}

var _ driven.Segmenter = (*Pipeline)(nil)

// NewPipeline creates a pipeline ending in segmenter.
// Stages are executed in the order provided.
func NewPipeline(segmenter driven.Segmenter, stages ...PageStage) *Pipeline {
	return &Pipeline{
		stages:    stages,
		segmenter: segmenter,
	}
}

// Name returns the underlying segmenter's strategy name.
func (p *Pipeline) Name() string {
	return p.segmenter.Name()
}

// Add appends a stage to the pipeline.
func (p *Pipeline) Add(stage PageStage) {
	p.stages = append(p.stages, stage)
}

// Segment applies every stage to a copy of each page, then segments.
// Pages without text pass through untouched so the segmenter can report them.
func (p *Pipeline) Segment(ctx context.Context, pages []domain.PageRecord) ([]domain.Chunk, error) {
	if len(p.stages) == 0 {
		return p.segmenter.Segment(ctx, pages)
	}

	prepared := make([]domain.PageRecord, len(pages))
	for i, page := range pages {
		prepared[i] = page
		if page.Text == nil {
			continue
		}
		text := *page.Text
		for _, stage := range p.stages {
			text = stage.Apply(text)
		}
		prepared[i].Text = &text
	}
	return p.segmenter.Segment(ctx, prepared)
}

// NormaliseNewlines converts CRLF and lone CR line endings to LF.
type NormaliseNewlines struct{}

// Name returns the stage name.
func (NormaliseNewlines) Name() string { return "normalise_newlines" }

// Apply rewrites line endings.
func (NormaliseNewlines) Apply(text string) string {
	if !strings.Contains(text, "\r") {
		return text
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.ReplaceAll(text, "\r", "\n")
}
