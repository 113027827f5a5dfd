package ports

import (
	"context"

	"github.com/emiliopalmerini/abkit/internal/domain"
)

// ResultRepository persists metric observations. Results are append-only.
type ResultRepository interface {
	Append(ctx context.Context, result *domain.Result) error
	ListByExperiment(ctx context.Context, experimentID string) ([]*domain.Result, error)
	ListAll(ctx context.Context) ([]*domain.Result, error)
}
