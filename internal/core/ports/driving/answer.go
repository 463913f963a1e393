package driving

import (
	"context"

	"github.com/custodia-labs/manualqa/internal/core/domain"
)

// AnswerService answers questions against the loaded index.
type AnswerService interface {
	// NewSession starts an empty conversation.
	NewSession() *domain.Session

	// Answer retrieves context for question, asks the model and records the
	// exchange in session. Failures are *domain.AnswerGenerationError.
	Answer(ctx context.Context, session *domain.Session, question string) (*domain.Answer, error)
}
