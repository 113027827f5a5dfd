package ports

import (
	"context"

	"github.com/emiliopalmerini/abkit/internal/domain"
)

// AssignmentRepository persists sticky user-variation assignments, keyed by
// (userID, experimentID). Get returns (nil, nil) when no assignment exists.
type AssignmentRepository interface {
	Save(ctx context.Context, assignment *domain.Assignment) error
	Get(ctx context.Context, userID, experimentID string) (*domain.Assignment, error)
	ListByUser(ctx context.Context, userID string) ([]*domain.Assignment, error)
	ListAll(ctx context.Context) ([]*domain.Assignment, error)
}
