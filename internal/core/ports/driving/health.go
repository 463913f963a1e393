package driving

import (
	"context"

	"github.com/custodia-labs/manualqa/internal/core/domain"
)

// HealthService checks that the configured AI providers are reachable.
type HealthService interface {
	// Check reports every configured service, including the failing ones.
	Check(ctx context.Context) []domain.ServiceStatus
}
