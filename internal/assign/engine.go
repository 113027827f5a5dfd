// Package assign deterministically buckets users into weighted experiment
// variations and keeps assignments sticky for the lifetime of the record.
package assign

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/emiliopalmerini/abkit/internal/domain"
	"github.com/emiliopalmerini/abkit/internal/ports"
)

// ExperimentSource is the slice of the registry the engine needs.
type ExperimentSource interface {
	Get(ctx context.Context, id string) (*domain.Experiment, error)
}

// Engine computes and memoizes user-variation assignments. The in-memory
// cache is an index over the repository: it is warmed once at construction
// and updated on every new assignment.
type Engine struct {
	mu          sync.RWMutex
	cache       map[string]*domain.Assignment
	experiments ExperimentSource
	repo        ports.AssignmentRepository
	logger      *slog.Logger
}

// New builds an engine and warms its cache from the repository. A load
// failure is logged and treated as empty state.
func New(ctx context.Context, experiments ExperimentSource, repo ports.AssignmentRepository, logger *slog.Logger) *Engine {
	e := &Engine{
		cache:       make(map[string]*domain.Assignment),
		experiments: experiments,
		repo:        repo,
		logger:      logger,
	}

	assignments, err := repo.ListAll(ctx)
	if err != nil {
		logger.Warn("failed to load assignments, starting empty", "error", err)
		return e
	}
	for _, a := range assignments {
		e.cache[cacheKey(a.UserID, a.ExperimentID)] = a
	}
	return e
}

func cacheKey(userID, experimentID string) string {
	return userID + ":" + experimentID
}

// Assign returns the variation for (userID, experimentID), computing and
// persisting it on first use. It returns a NotFoundError for an unknown
// experiment and (nil, nil) when the user is ineligible: experiment not
// running, or outside the audience allow-list.
//
// Assignments are sticky: a cached assignment keeps its variation id even if
// the experiment's variation table is edited afterwards. The config returned
// on a cache hit is the variation's current config, or nil if the variation
// no longer exists.
func (e *Engine) Assign(ctx context.Context, userID, experimentID string) (*domain.VariationPick, error) {
	exp, err := e.experiments.Get(ctx, experimentID)
	if err != nil {
		return nil, fmt.Errorf("get experiment: %w", err)
	}
	if exp == nil {
		return nil, &domain.NotFoundError{Kind: "experiment", ID: experimentID}
	}
	if exp.Status != domain.StatusRunning {
		return nil, nil
	}

	e.mu.RLock()
	cached := e.cache[cacheKey(userID, experimentID)]
	e.mu.RUnlock()
	if cached != nil {
		e.markExposed(ctx, cached)
		return pickFor(exp, cached.VariationID), nil
	}

	if exp.Audience != nil && !exp.Audience.Contains(userID) {
		return nil, nil
	}

	bucket := bucketOf(cacheKey(userID, experimentID))
	variation := pickVariation(exp.Variations, bucket)

	assignment := &domain.Assignment{
		UserID:         userID,
		ExperimentID:   experimentID,
		VariationID:    variation.ID,
		AssignedAt:     time.Now().UTC(),
		ExposureLogged: true,
	}
	if err := e.repo.Save(ctx, assignment); err != nil {
		return nil, fmt.Errorf("save assignment: %w", err)
	}

	e.mu.Lock()
	e.cache[cacheKey(userID, experimentID)] = assignment
	e.mu.Unlock()

	return &domain.VariationPick{VariationID: variation.ID, Config: variation.Config}, nil
}

// GetUserVariation returns the stored assignment for (userID, experimentID)
// without ever creating one. It returns (nil, nil) when no assignment exists
// or the experiment is gone.
func (e *Engine) GetUserVariation(ctx context.Context, userID, experimentID string) (*domain.VariationPick, error) {
	e.mu.RLock()
	cached := e.cache[cacheKey(userID, experimentID)]
	e.mu.RUnlock()

	if cached == nil {
		stored, err := e.repo.Get(ctx, userID, experimentID)
		if err != nil {
			return nil, fmt.Errorf("get assignment: %w", err)
		}
		if stored == nil {
			return nil, nil
		}
		e.mu.Lock()
		e.cache[cacheKey(userID, experimentID)] = stored
		e.mu.Unlock()
		cached = stored
	}

	exp, err := e.experiments.Get(ctx, experimentID)
	if err != nil {
		return nil, fmt.Errorf("get experiment: %w", err)
	}
	if exp == nil {
		return nil, nil
	}
	return pickFor(exp, cached.VariationID), nil
}

// ListForUser returns every stored assignment for userID across experiments,
// straight from the repository.
func (e *Engine) ListForUser(ctx context.Context, userID string) ([]*domain.Assignment, error) {
	assignments, err := e.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	return assignments, nil
}

// markExposed flips ExposureLogged the first time a cached assignment is
// served. The sticky triple itself never changes. The check-and-set happens
// under the engine lock; the assignment is shared with the cache and Assign
// can race on it from concurrent handlers. Exactly one caller persists the
// flip.
func (e *Engine) markExposed(ctx context.Context, a *domain.Assignment) {
	e.mu.Lock()
	if a.ExposureLogged {
		e.mu.Unlock()
		return
	}
	a.ExposureLogged = true
	e.mu.Unlock()

	if err := e.repo.Save(ctx, a); err != nil {
		e.logger.Warn("failed to persist exposure flag",
			"user_id", a.UserID, "experiment_id", a.ExperimentID, "error", err)
	}
}

func pickFor(exp *domain.Experiment, variationID string) *domain.VariationPick {
	pick := &domain.VariationPick{VariationID: variationID}
	if v := exp.VariationByID(variationID); v != nil {
		pick.Config = v.Config
	}
	return pick
}
