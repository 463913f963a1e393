package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/custodia-labs/manualqa/internal/core/domain"
	"github.com/custodia-labs/manualqa/internal/core/ports/driven"
	"github.com/custodia-labs/manualqa/internal/core/ports/driving"
	"github.com/custodia-labs/manualqa/internal/logger"
)

// Ensure IndexService implements the interface.
var _ driving.IndexService = (*IndexService)(nil)

// IndexConfig locates the index and tunes retrieval.
type IndexConfig struct {
	// Dir is the persisted index directory.
	Dir string

	// Manifest describes the sources indexed when a build is needed.
	Manifest domain.Manifest

	Retrieval domain.RetrievalConfig

	// Replace publishes a replacement for the index in Dir. write persists
	// the new index into a staging directory; the old index is removed only
	// after write succeeds. Nil replaces in place.
	Replace func(dir string, write func(staged string) error) error
}

// IndexService loads the persisted index or builds it from the corpus.
// The loaded index is swapped atomically so searches can run during a rebuild.
type IndexService struct {
	backend  driven.IndexBackend
	embedder driven.EmbeddingService
	corpus   driving.CorpusService
	cfg      IndexConfig

	build sync.Mutex // serialises Ensure

	mu    sync.RWMutex
	index driven.VectorIndex
}

// NewIndexService creates an index service. No index is loaded until Ensure.
func NewIndexService(
	backend driven.IndexBackend,
	embedder driven.EmbeddingService,
	corpus driving.CorpusService,
	cfg IndexConfig,
) *IndexService {
	return &IndexService{
		backend:  backend,
		embedder: embedder,
		corpus:   corpus,
		cfg:      cfg,
	}
}

// Ensure makes an index available. A populated directory is loaded as is;
// a missing or empty one triggers a build. force, or an index built with a
// different embedding model, rebuilds and replaces the persisted index.
// A failed build leaves the persisted index untouched.
func (s *IndexService) Ensure(ctx context.Context, force bool) (*domain.IndexReport, error) {
	s.build.Lock()
	defer s.build.Unlock()

	logger.Section("Index")
	replace := force
	if !force {
		idx, err := s.backend.Load(ctx, s.cfg.Dir, s.embedder)
		switch {
		case err == nil:
			logger.Info("Loaded %s index from %s (%d chunks)", s.backend.Name(), s.cfg.Dir, idx.Len())
			s.swap(idx)
			return &domain.IndexReport{Backend: s.backend.Name(), Chunks: idx.Len()}, nil
		case errors.Is(err, domain.ErrNotFound):
			logger.Info("No index at %s, building", s.cfg.Dir)
		case errors.Is(err, domain.ErrIndexStale):
			logger.Warn("Index at %s is stale (%v), rebuilding", s.cfg.Dir, err)
			replace = true
		default:
			return nil, fmt.Errorf("load index: %w", err)
		}
	}

	corpus, err := s.corpus.Build(ctx, s.cfg.Manifest)
	if err != nil {
		var buildErr *domain.BuildError
		if !errors.As(err, &buildErr) || s.cfg.Manifest.FailFast {
			return nil, err
		}
	}
	if len(corpus.Chunks) == 0 {
		if err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: no chunks ingested from %s", domain.ErrIndexUnavailable, s.cfg.Manifest.SourceDir)
	}

	idx, err := s.buildIndex(ctx, corpus.Chunks)
	if err != nil {
		return nil, err
	}

	report := &domain.IndexReport{
		Built:    true,
		Backend:  s.backend.Name(),
		Chunks:   idx.Len(),
		Files:    corpus.Files,
		Failures: corpus.Failures,
	}

	switch err := s.persist(ctx, idx, replace); {
	case err == nil:
		logger.Info("Persisted %d chunks to %s", idx.Len(), s.cfg.Dir)
		s.swap(idx)
		return report, nil
	case errors.Is(err, domain.ErrIndexExists):
		// Another process published first; use its index.
		idx.Close()
		logger.Info("Index at %s was published concurrently, loading it", s.cfg.Dir)
		existing, loadErr := s.backend.Load(ctx, s.cfg.Dir, s.embedder)
		if loadErr != nil {
			return nil, fmt.Errorf("load concurrent index: %w", loadErr)
		}
		s.swap(existing)
		return &domain.IndexReport{Backend: s.backend.Name(), Chunks: existing.Len()}, nil
	default:
		idx.Close()
		return nil, fmt.Errorf("persist index: %w", err)
	}
}

func (s *IndexService) persist(ctx context.Context, idx driven.VectorIndex, replace bool) error {
	if !replace || s.cfg.Replace == nil {
		return idx.Persist(ctx, s.cfg.Dir)
	}
	return s.cfg.Replace(s.cfg.Dir, func(staged string) error {
		return idx.Persist(ctx, staged)
	})
}

func (s *IndexService) buildIndex(ctx context.Context, chunks []domain.Chunk) (driven.VectorIndex, error) {
	defer logger.Timed("embed corpus")()
	logger.Info("Embedding %d chunks with %s", len(chunks), s.embedder.ModelName())
	idx, err := s.backend.Build(ctx, chunks, s.embedder)
	if err != nil {
		return nil, fmt.Errorf("build index: %w", err)
	}
	return idx, nil
}

func (s *IndexService) swap(idx driven.VectorIndex) {
	s.mu.Lock()
	old := s.index
	s.index = idx
	s.mu.Unlock()
	if old != nil {
		old.Close()
	}
}

// Search returns at most k chunks for query selected by MMR. A non-positive
// k uses the configured retrieval.k.
func (s *IndexService) Search(ctx context.Context, query string, k int) ([]domain.ScoredChunk, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, domain.ErrEmptyQuestion
	}
	if k <= 0 {
		k = s.cfg.Retrieval.K
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.index == nil {
		return nil, domain.ErrIndexUnavailable
	}

	results, err := s.index.Query(ctx, query, driven.QueryOptions{
		K:             k,
		FetchK:        max(s.cfg.Retrieval.FetchK, k),
		Lambda:        s.cfg.Retrieval.Lambda,
		MinSimilarity: s.cfg.Retrieval.MinSimilarity,
	})
	if err != nil {
		return nil, err
	}
	logger.Debug("Retrieved %d chunk(s) for %q", len(results), query)
	return results, nil
}

// Close releases the loaded index.
func (s *IndexService) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.index == nil {
		return nil
	}
	err := s.index.Close()
	s.index = nil
	return err
}
