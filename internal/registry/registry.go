// Package registry stores and validates experiment definitions. It keeps an
// in-memory index for lookups and writes through to an injected repository
// on every mutation.
package registry

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/emiliopalmerini/abkit/internal/domain"
	"github.com/emiliopalmerini/abkit/internal/ports"
)

type Registry struct {
	mu     sync.RWMutex
	byID   map[string]*domain.Experiment
	order  []string
	repo   ports.ExperimentRepository
	logger *slog.Logger
}

// New builds a registry and warms its index from the repository. A load
// failure is logged and treated as empty state, never fatal.
func New(ctx context.Context, repo ports.ExperimentRepository, logger *slog.Logger) *Registry {
	r := &Registry{
		byID:   make(map[string]*domain.Experiment),
		repo:   repo,
		logger: logger,
	}

	experiments, err := repo.List(ctx)
	if err != nil {
		logger.Warn("failed to load experiments, starting empty", "error", err)
		return r
	}
	for _, exp := range experiments {
		r.byID[exp.ID] = exp
		r.order = append(r.order, exp.ID)
	}
	return r
}

// Create validates and stores an experiment. Variation weights must sum to
// exactly 100. An empty id gets a generated one, an empty status defaults to
// draft, and a zero start date defaults to now. Creating with an existing id
// overwrites the stored definition.
func (r *Registry) Create(ctx context.Context, exp *domain.Experiment) (*domain.Experiment, error) {
	if err := exp.ValidateWeights(); err != nil {
		return nil, err
	}
	if exp.Status == "" {
		exp.Status = domain.StatusDraft
	}
	if !exp.Status.Valid() {
		return nil, &domain.ValidationError{Field: "status", Reason: fmt.Sprintf("unknown status %q", exp.Status)}
	}

	if exp.ID == "" {
		exp.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if exp.StartDate.IsZero() {
		exp.StartDate = now
	}
	if exp.CreatedAt.IsZero() {
		exp.CreatedAt = now
	}

	r.mu.Lock()
	if _, exists := r.byID[exp.ID]; !exists {
		r.order = append(r.order, exp.ID)
	}
	r.byID[exp.ID] = exp
	r.mu.Unlock()

	if err := r.repo.Save(ctx, exp); err != nil {
		return nil, fmt.Errorf("save experiment: %w", err)
	}
	return exp, nil
}

// Get returns the experiment with the given id, or (nil, nil) when unknown.
func (r *Registry) Get(ctx context.Context, id string) (*domain.Experiment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byID[id], nil
}

// List returns all experiments in insertion order, optionally filtered by
// status. An empty status returns everything.
func (r *Registry) List(ctx context.Context, status domain.ExperimentStatus) ([]*domain.Experiment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	experiments := make([]*domain.Experiment, 0, len(r.order))
	for _, id := range r.order {
		exp := r.byID[id]
		if status != "" && exp.Status != status {
			continue
		}
		experiments = append(experiments, exp)
	}
	return experiments, nil
}

// UpdateStatus mutates an experiment's status in place and persists it.
// Unknown ids are a no-op.
func (r *Registry) UpdateStatus(ctx context.Context, id string, status domain.ExperimentStatus) error {
	if !status.Valid() {
		return &domain.ValidationError{Field: "status", Reason: fmt.Sprintf("unknown status %q", status)}
	}

	r.mu.Lock()
	exp, ok := r.byID[id]
	if ok {
		exp.Status = status
	}
	r.mu.Unlock()

	if !ok {
		return nil
	}
	if err := r.repo.Save(ctx, exp); err != nil {
		return fmt.Errorf("save experiment: %w", err)
	}
	return nil
}
