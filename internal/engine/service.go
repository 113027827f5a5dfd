// Package engine exposes the public operations of the experiment engine as
// one explicit service object, constructed once at startup and passed by
// reference to consumers.
package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/emiliopalmerini/abkit/internal/assign"
	"github.com/emiliopalmerini/abkit/internal/domain"
	"github.com/emiliopalmerini/abkit/internal/ledger"
	"github.com/emiliopalmerini/abkit/internal/ports"
	"github.com/emiliopalmerini/abkit/internal/registry"
	"github.com/emiliopalmerini/abkit/internal/stats"
)

type Service struct {
	registry *registry.Registry
	assigner *assign.Engine
	ledger   *ledger.Ledger
	results  ports.ResultRepository
}

// Config carries the injected collaborators for New.
type Config struct {
	Experiments ports.ExperimentRepository
	Assignments ports.AssignmentRepository
	Results     ports.ResultRepository
	Sink        ports.TelemetrySink
	QueueSize   int
	Logger      *slog.Logger
}

// New wires the registry, assignment engine and ledger, loading persisted
// state once. Corrupt or missing state is logged by the components and
// treated as empty; construction never fails on it.
func New(ctx context.Context, cfg Config) *Service {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	reg := registry.New(ctx, cfg.Experiments, logger)
	return &Service{
		registry: reg,
		assigner: assign.New(ctx, reg, cfg.Assignments, logger),
		ledger:   ledger.New(ctx, cfg.Results, cfg.Sink, cfg.QueueSize, logger),
		results:  cfg.Results,
	}
}

// Close drains pending telemetry and shuts down the sink.
func (s *Service) Close(ctx context.Context) error {
	return s.ledger.Close(ctx)
}

func (s *Service) CreateExperiment(ctx context.Context, exp *domain.Experiment) (*domain.Experiment, error) {
	return s.registry.Create(ctx, exp)
}

func (s *Service) GetExperiment(ctx context.Context, id string) (*domain.Experiment, error) {
	return s.registry.Get(ctx, id)
}

func (s *Service) ListExperiments(ctx context.Context, status domain.ExperimentStatus) ([]*domain.Experiment, error) {
	return s.registry.List(ctx, status)
}

func (s *Service) UpdateExperimentStatus(ctx context.Context, id string, status domain.ExperimentStatus) error {
	return s.registry.UpdateStatus(ctx, id, status)
}

func (s *Service) Assign(ctx context.Context, userID, experimentID string) (*domain.VariationPick, error) {
	return s.assigner.Assign(ctx, userID, experimentID)
}

func (s *Service) GetUserVariation(ctx context.Context, userID, experimentID string) (*domain.VariationPick, error) {
	return s.assigner.GetUserVariation(ctx, userID, experimentID)
}

func (s *Service) ListUserAssignments(ctx context.Context, userID string) ([]*domain.Assignment, error) {
	return s.assigner.ListForUser(ctx, userID)
}

func (s *Service) LogMetric(ctx context.Context, experimentID, variationID, metricName string, value float64) error {
	return s.ledger.LogMetric(ctx, experimentID, variationID, metricName, value)
}

func (s *Service) GetResults(ctx context.Context, experimentID string) []*domain.ResultGroup {
	return s.ledger.GetResults(experimentID)
}

func (s *Service) CalculateSignificance(control, treatment []float64) domain.Significance {
	return stats.CalculateSignificance(control, treatment)
}

// GetWinner averages the primary metric per variation and returns the one
// with the strictly highest average. Ties resolve to the variation listed
// first in the experiment's variation order. It returns (nil, nil) when no
// primary-metric results exist, and a NotFoundError for an unknown
// experiment. Results are read from the repository, so observations written
// by other processes sharing the database are counted too.
func (s *Service) GetWinner(ctx context.Context, experimentID string) (*domain.Winner, error) {
	exp, err := s.registry.Get(ctx, experimentID)
	if err != nil {
		return nil, err
	}
	if exp == nil {
		return nil, &domain.NotFoundError{Kind: "experiment", ID: experimentID}
	}

	rows, err := s.results.ListByExperiment(ctx, experimentID)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	var winner *domain.Winner
	for _, v := range exp.Variations {
		var values []float64
		for _, r := range rows {
			if r.VariationID == v.ID && r.MetricName == exp.PrimaryMetric {
				values = append(values, r.Value)
			}
		}
		if len(values) == 0 {
			continue
		}

		sum := 0.0
		for _, val := range values {
			sum += val
		}
		mean := sum / float64(len(values))

		if winner == nil || mean > winner.Mean {
			winner = &domain.Winner{VariationID: v.ID, Mean: mean, SampleSize: len(values)}
		}
	}
	return winner, nil
}
