package ports

import (
	"context"

	"github.com/emiliopalmerini/abkit/internal/domain"
)

// TelemetrySink forwards metric observations to an external system.
// Delivery is best-effort: callers log failures and move on.
type TelemetrySink interface {
	// Deliver sends a single metric observation.
	Deliver(ctx context.Context, result *domain.Result) error
	// Close shuts down the sink and flushes anything pending.
	Close(ctx context.Context) error
}
