package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/custodia-labs/manualqa/internal/core/domain"
	"github.com/custodia-labs/manualqa/internal/core/ports/driven"
	"github.com/custodia-labs/manualqa/internal/core/ports/driving"
	"github.com/custodia-labs/manualqa/internal/logger"
)

// Ensure CorpusBuilder implements the interface.
var _ driving.CorpusService = (*CorpusBuilder)(nil)

// CorpusBuilder loads every recognised source file and segments it with the
// strategy tagged for it in the manifest.
type CorpusBuilder struct {
	loaders    driven.LoaderRegistry
	segmenters driven.SegmenterRegistry
}

// NewCorpusBuilder creates a corpus builder.
func NewCorpusBuilder(loaders driven.LoaderRegistry, segmenters driven.SegmenterRegistry) *CorpusBuilder {
	return &CorpusBuilder{loaders: loaders, segmenters: segmenters}
}

// Build processes files in filename order and assigns corpus-wide positions.
// Failures are collected per file; with FailFast the first one stops the
// build. A non-empty failure list is also returned as a *domain.BuildError.
func (b *CorpusBuilder) Build(ctx context.Context, manifest domain.Manifest) (*domain.Corpus, error) {
	logger.Section("Corpus Build")
	defer logger.Timed("corpus build")()

	files, failures, err := b.discover(manifest)
	if err != nil {
		return nil, err
	}
	logger.Debug("Discovered %d file(s) in %s", len(files), manifest.SourceDir)

	corpus := &domain.Corpus{Failures: failures}
	if len(failures) > 0 && manifest.FailFast {
		return corpus, &domain.BuildError{Failures: corpus.Failures}
	}

	for _, name := range files {
		chunks, err := b.buildFile(ctx, manifest, name)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			logger.Warn("Skipping %s: %v", name, err)
			corpus.Failures = append(corpus.Failures, err)
			if manifest.FailFast {
				break
			}
			continue
		}

		for i := range chunks {
			chunks[i].Position = len(corpus.Chunks) + i
		}
		corpus.Chunks = append(corpus.Chunks, chunks...)
		corpus.Files = append(corpus.Files, name)
	}

	logger.Info("Corpus: %d chunk(s) from %d file(s), %d failure(s)",
		len(corpus.Chunks), len(corpus.Files), len(corpus.Failures))

	if len(corpus.Failures) > 0 {
		return corpus, &domain.BuildError{Failures: corpus.Failures}
	}
	return corpus, nil
}

// discover lists recognised files in byte order of their names. Manifest
// entries that are missing or of an unknown type become LoadErrors.
func (b *CorpusBuilder) discover(manifest domain.Manifest) ([]string, []error, error) {
	entries, err := os.ReadDir(manifest.SourceDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil, fmt.Errorf("source directory %s: %w", manifest.SourceDir, domain.ErrNotFound)
		}
		return nil, nil, fmt.Errorf("read source directory: %w", err)
	}

	present := make(map[string]bool, len(entries))
	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		present[e.Name()] = true
		if _, ok := b.loaders.For(e.Name()); ok {
			files = append(files, e.Name())
		} else {
			logger.Debug("Ignoring %s: unsupported file type", e.Name())
		}
	}

	var failures []error
	for _, d := range manifest.Documents {
		path := filepath.Join(manifest.SourceDir, d.File)
		switch _, ok := b.loaders.For(d.File); {
		case !present[d.File]:
			failures = append(failures, &domain.LoadError{Path: path, Err: domain.ErrNotFound})
		case !ok:
			failures = append(failures, &domain.LoadError{Path: path, Err: domain.ErrUnsupportedType})
		}
	}
	return files, failures, nil
}

func (b *CorpusBuilder) buildFile(ctx context.Context, manifest domain.Manifest, name string) ([]domain.Chunk, error) {
	path := filepath.Join(manifest.SourceDir, name)
	loader, _ := b.loaders.For(name)

	pages, err := loader.Load(ctx, path)
	if err != nil {
		return nil, err
	}

	strategy := manifest.StrategyFor(name)
	segmenter, err := b.segmenters.Get(strategy)
	if err != nil {
		return nil, err
	}

	chunks, err := segmenter.Segment(ctx, pages)
	if err != nil {
		return nil, err
	}
	logger.Info("%s: %d page(s), %d chunk(s) [%s]", name, len(pages), len(chunks), strategy)
	return chunks, nil
}
