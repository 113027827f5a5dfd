package webhook

import (
	"context"

	"github.com/emiliopalmerini/abkit/internal/domain"
)

// NoOpSink is a telemetry sink that does nothing.
type NoOpSink struct{}

// NewNoOpSink creates a no-op sink for graceful degradation when no
// telemetry backend is configured.
func NewNoOpSink() *NoOpSink {
	return &NoOpSink{}
}

func (s *NoOpSink) Deliver(ctx context.Context, r *domain.Result) error {
	return nil
}

func (s *NoOpSink) Close(ctx context.Context) error {
	return nil
}
