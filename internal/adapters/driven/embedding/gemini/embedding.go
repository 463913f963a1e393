// Package gemini provides an embedding service adapter using the Google Gemini API.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/custodia-labs/manualqa/internal/core/domain"
	"github.com/custodia-labs/manualqa/internal/core/ports/driven"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// Default configuration values.
const (
	DefaultModel      = "text-embedding-004"
	DefaultDimensions = 768

	// DefaultBatchSize is the largest batch the API accepts.
	DefaultBatchSize = 100
)

// Config holds configuration for the Gemini embedding service.
type Config struct {
	// APIKey is the Gemini API key (required).
	APIKey string

	// Model is the embedding model to use (default: text-embedding-004).
	Model string

	// BatchSize is the number of texts per request (default: 100).
	BatchSize int
}

// EmbeddingService generates embeddings using the Gemini API.
type EmbeddingService struct {
	client     *genai.Client
	model      *genai.EmbeddingModel
	name       string
	dimensions int
	batchSize  int
}

// NewEmbeddingService creates a new Gemini embedding service.
func NewEmbeddingService(ctx context.Context, cfg Config) (*EmbeddingService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini: API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.BatchSize <= 0 || cfg.BatchSize > DefaultBatchSize {
		cfg.BatchSize = DefaultBatchSize
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}

	dimensions := domain.EmbeddingDimensions()[cfg.Model]
	if dimensions == 0 {
		dimensions = DefaultDimensions
	}

	model := client.EmbeddingModel(cfg.Model)
	model.TaskType = genai.TaskTypeRetrievalDocument

	return &EmbeddingService{
		client:     client,
		model:      model,
		name:       cfg.Model,
		dimensions: dimensions,
		batchSize:  cfg.BatchSize,
	}, nil
}

// Embed generates a vector embedding for the given text.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := s.model.EmbedContent(ctx, genai.Text(text))
	if err != nil {
		return nil, Classify(err, domain.ErrEmbeddingUnavailable)
	}
	if resp.Embedding == nil {
		return nil, fmt.Errorf("gemini: %w: empty embedding", domain.ErrEmbeddingUnavailable)
	}
	return toFloat32(resp.Embedding.Values), nil
}

// EmbedBatch generates embeddings in requests of at most BatchSize texts.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += s.batchSize {
		end := min(start+s.batchSize, len(texts))

		batch := s.model.NewBatch()
		for _, t := range texts[start:end] {
			batch.AddContent(genai.Text(t))
		}
		resp, err := s.model.BatchEmbedContents(ctx, batch)
		if err != nil {
			return nil, fmt.Errorf("embed texts %d-%d: %w", start, end-1, Classify(err, domain.ErrEmbeddingUnavailable))
		}
		if len(resp.Embeddings) != end-start {
			return nil, fmt.Errorf("gemini: %w: got %d embeddings for %d texts",
				domain.ErrEmbeddingUnavailable, len(resp.Embeddings), end-start)
		}
		for _, e := range resp.Embeddings {
			out = append(out, toFloat32(e.Values))
		}
	}
	return out, nil
}

// Dimensions returns the embedding vector size.
func (s *EmbeddingService) Dimensions() int {
	return s.dimensions
}

// ModelName returns the name of the embedding model being used.
func (s *EmbeddingService) ModelName() string {
	return s.name
}

// Ping validates the API key by listing one model.
func (s *EmbeddingService) Ping(ctx context.Context) error {
	return Ping(ctx, s.client, domain.ErrEmbeddingUnavailable)
}

// Close releases the client connection.
func (s *EmbeddingService) Close() error {
	return s.client.Close()
}

// Ping lists one model with client. Failures wrap unavailable.
func Ping(ctx context.Context, client *genai.Client, unavailable error) error {
	_, err := client.ListModels(ctx).Next()
	if err != nil && !errors.Is(err, iterator.Done) {
		return fmt.Errorf("gemini: ping failed: %w", Classify(err, unavailable))
	}
	return nil
}

// Classify maps Gemini API failures onto domain errors. The SDK exposes
// quota failures only through the error text.
func Classify(err error, unavailable error) error {
	if err == nil {
		return nil
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "429"),
		strings.Contains(msg, "rate limit"),
		strings.Contains(msg, "quota"),
		strings.Contains(msg, "resource exhausted"),
		strings.Contains(msg, "resourceexhausted"):
		return fmt.Errorf("gemini: %w: %v", domain.ErrRateLimited, err)
	case strings.Contains(msg, "api key not valid"),
		strings.Contains(msg, "permission denied"),
		strings.Contains(msg, "permissiondenied"),
		strings.Contains(msg, "unauthenticated"):
		return fmt.Errorf("gemini: %w: %v", unavailable, err)
	}
	return fmt.Errorf("gemini: %w", err)
}

func toFloat32[T float32 | float64](values []T) []float32 {
	out := make([]float32, len(values))
	for i, v := range values {
		out[i] = float32(v)
	}
	return out
}
