package ai

import (
	"context"

	"github.com/custodia-labs/manualqa/internal/core/domain"
	"github.com/custodia-labs/manualqa/internal/core/ports/driving"
)

// Ensure Checker implements the interface.
var _ driving.HealthService = (*Checker)(nil)

// Checker checks the AI services named by a configuration.
type Checker struct {
	cfg domain.Config
}

// NewChecker creates a checker for cfg.
func NewChecker(cfg domain.Config) *Checker {
	return &Checker{cfg: cfg}
}

// Check implements driving.HealthService.
func (c *Checker) Check(ctx context.Context) []domain.ServiceStatus {
	return Check(ctx, c.cfg)
}

// Check creates and pings both configured services, then releases them.
// Both are always checked so every problem is reported at once.
func Check(ctx context.Context, cfg domain.Config) []domain.ServiceStatus {
	results := make([]domain.ServiceStatus, 0, 2)

	embedder, err := CreateAndValidateEmbeddingService(ctx, cfg.Embedding)
	embedResult := domain.ServiceStatus{Service: "embedding", Provider: cfg.Embedding.Provider, Err: err}
	if err == nil {
		embedResult.Model = embedder.ModelName()
		embedder.Close()
	} else {
		embedResult.Model = cfg.Embedding.Model
	}
	results = append(results, embedResult)

	llm, err := CreateAndValidateLLMService(ctx, cfg.LLM)
	llmResult := domain.ServiceStatus{Service: "llm", Provider: cfg.LLM.Provider, Model: cfg.LLM.Model, Err: err}
	if err == nil {
		llmResult.Model = llm.ModelName()
		llm.Close()
	}
	results = append(results, llmResult)

	return results
}
