// Package ratelimit throttles requests to an embedding provider.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/manualqa/internal/core/domain"
	"github.com/custodia-labs/manualqa/internal/core/ports/driven"
	"github.com/custodia-labs/manualqa/internal/logger"
)

// Config holds rate limiting configuration.
type Config struct {
	// RequestsPerSecond is the sustained request rate.
	RequestsPerSecond float64

	// BurstSize is the maximum burst size (default: 1).
	BurstSize int

	// BatchSize is the number of texts sent per request (default: 64).
	BatchSize int

	// Cooldown is how long to hold all requests after the provider reports
	// a rate limit (default: 30s).
	Cooldown time.Duration
}

// EmbeddingService wraps another EmbeddingService with a token bucket.
// Batches are split so each provider request takes one token.
type EmbeddingService struct {
	driven.EmbeddingService

	mu        sync.Mutex
	limiter   *rate.Limiter
	retryAt   time.Time
	batchSize int
	cooldown  time.Duration
}

var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// Wrap returns svc throttled to cfg. A non-positive rate returns svc as is.
func Wrap(svc driven.EmbeddingService, cfg Config) driven.EmbeddingService {
	if cfg.RequestsPerSecond <= 0 {
		return svc
	}
	if cfg.BurstSize <= 0 {
		cfg.BurstSize = 1
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 64
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = 30 * time.Second
	}
	return &EmbeddingService{
		EmbeddingService: svc,
		limiter:          rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.BurstSize),
		batchSize:        cfg.BatchSize,
		cooldown:         cfg.Cooldown,
	}
}

// Embed waits for a token, then embeds text.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	v, err := s.EmbeddingService.Embed(ctx, text)
	s.record(err)
	return v, err
}

// EmbedBatch embeds texts in throttled batches.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += s.batchSize {
		end := min(start+s.batchSize, len(texts))
		if err := s.wait(ctx); err != nil {
			return nil, err
		}
		vectors, err := s.EmbeddingService.EmbedBatch(ctx, texts[start:end])
		s.record(err)
		if err != nil {
			return nil, err
		}
		out = append(out, vectors...)
	}
	return out, nil
}

// Wait blocks until a request can be made without exceeding the rate limit.
// It also respects any cooldown started by a provider rate limit error.
func (s *EmbeddingService) wait(ctx context.Context) error {
	s.mu.Lock()
	retryAt := s.retryAt
	s.mu.Unlock()

	if d := time.Until(retryAt); d > 0 {
		logger.Debug("embedding cooldown: waiting %s", d.Round(time.Second))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(d):
		}
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("waiting for rate limiter: %w", err)
	}
	return nil
}

func (s *EmbeddingService) record(err error) {
	if !errors.Is(err, domain.ErrRateLimited) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.retryAt = time.Now().Add(s.cooldown)
}
