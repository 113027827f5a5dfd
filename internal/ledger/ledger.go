// Package ledger records metric observations per experiment, variation and
// metric, and forwards each observation to a telemetry sink in the
// background.
package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/emiliopalmerini/abkit/internal/domain"
	"github.com/emiliopalmerini/abkit/internal/ports"
)

const deliverTimeout = 5 * time.Second

// Ledger is an append-only store of metric observations. Writes go to the
// in-memory index and the repository synchronously; telemetry delivery runs
// on a single worker fed by a bounded queue. When the queue is full the
// oldest pending record is dropped and logged, so LogMetric never blocks.
type Ledger struct {
	mu     sync.RWMutex
	groups map[string]*domain.ResultGroup
	order  []string
	closed bool

	repo   ports.ResultRepository
	sink   ports.TelemetrySink
	logger *slog.Logger

	queue chan *domain.Result
	done  chan struct{}
}

// New builds a ledger, warms it from the repository and starts the telemetry
// worker. queueSize bounds the number of undelivered records; values below 1
// fall back to 64.
func New(ctx context.Context, repo ports.ResultRepository, sink ports.TelemetrySink, queueSize int, logger *slog.Logger) *Ledger {
	if queueSize < 1 {
		queueSize = 64
	}
	l := &Ledger{
		groups: make(map[string]*domain.ResultGroup),
		repo:   repo,
		sink:   sink,
		logger: logger,
		queue:  make(chan *domain.Result, queueSize),
		done:   make(chan struct{}),
	}

	results, err := repo.ListAll(ctx)
	if err != nil {
		logger.Warn("failed to load results, starting empty", "error", err)
	} else {
		for _, r := range results {
			l.appendLocked(r)
		}
	}

	go l.deliverLoop()
	return l
}

// LogMetric appends an observation and enqueues it for telemetry delivery.
// Delivery failures are logged, never retried and never surfaced.
func (l *Ledger) LogMetric(ctx context.Context, experimentID, variationID, metricName string, value float64) error {
	result := &domain.Result{
		ExperimentID: experimentID,
		VariationID:  variationID,
		MetricName:   metricName,
		Value:        value,
	}

	l.mu.Lock()
	l.appendLocked(result)
	l.mu.Unlock()

	if err := l.repo.Append(ctx, result); err != nil {
		return fmt.Errorf("append result: %w", err)
	}

	l.enqueue(result)
	return nil
}

// GetResults returns every result group whose key is prefixed by
// experimentID, in first-recorded order. Groups are copied; callers cannot
// mutate the ledger through them.
func (l *Ledger) GetResults(experimentID string) []*domain.ResultGroup {
	prefix := experimentID + ":"

	l.mu.RLock()
	defer l.mu.RUnlock()

	var groups []*domain.ResultGroup
	for _, key := range l.order {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		g := l.groups[key]
		values := make([]float64, len(g.Values))
		copy(values, g.Values)
		groups = append(groups, &domain.ResultGroup{
			ExperimentID: g.ExperimentID,
			VariationID:  g.VariationID,
			MetricName:   g.MetricName,
			Values:       values,
		})
	}
	return groups
}

// Close stops the telemetry worker after draining the queue and closes the
// sink. Closing twice is a no-op on the queue.
func (l *Ledger) Close(ctx context.Context) error {
	l.mu.Lock()
	if !l.closed {
		l.closed = true
		close(l.queue)
	}
	l.mu.Unlock()

	select {
	case <-l.done:
	case <-ctx.Done():
		return ctx.Err()
	}
	return l.sink.Close(ctx)
}

func (l *Ledger) appendLocked(r *domain.Result) {
	key := r.GroupKey()
	g, ok := l.groups[key]
	if !ok {
		g = &domain.ResultGroup{
			ExperimentID: r.ExperimentID,
			VariationID:  r.VariationID,
			MetricName:   r.MetricName,
		}
		l.groups[key] = g
		l.order = append(l.order, key)
	}
	g.Values = append(g.Values, r.Value)
}

// enqueue never blocks: on a full queue the oldest pending record is dropped
// and the drop is logged. The send happens under the mutex so it cannot race
// with Close closing the queue; after Close the record is dropped.
func (l *Ledger) enqueue(r *domain.Result) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		l.logger.Warn("ledger closed, dropping telemetry record",
			"experiment_id", r.ExperimentID,
			"variation_id", r.VariationID,
			"metric", r.MetricName)
		return
	}
	for {
		select {
		case l.queue <- r:
			return
		default:
		}
		select {
		case dropped := <-l.queue:
			l.logger.Warn("telemetry queue full, dropping oldest record",
				"experiment_id", dropped.ExperimentID,
				"variation_id", dropped.VariationID,
				"metric", dropped.MetricName)
		default:
		}
	}
}

func (l *Ledger) deliverLoop() {
	defer close(l.done)
	for r := range l.queue {
		ctx, cancel := context.WithTimeout(context.Background(), deliverTimeout)
		if err := l.sink.Deliver(ctx, r); err != nil {
			l.logger.Warn("telemetry delivery failed",
				"experiment_id", r.ExperimentID,
				"variation_id", r.VariationID,
				"metric", r.MetricName,
				"error", err)
		}
		cancel()
	}
}
