package ports

import (
	"context"

	"github.com/emiliopalmerini/abkit/internal/domain"
)

// ExperimentRepository persists experiment definitions. Save has upsert
// semantics keyed by experiment id. GetByID returns (nil, nil) when the id
// is unknown.
type ExperimentRepository interface {
	Save(ctx context.Context, experiment *domain.Experiment) error
	GetByID(ctx context.Context, id string) (*domain.Experiment, error)
	List(ctx context.Context) ([]*domain.Experiment, error)
}
