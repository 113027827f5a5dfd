// Package memory provides in-process implementations of the persistence
// ports for tests.
package memory

import (
	"context"
	"sync"

	"github.com/emiliopalmerini/abkit/internal/domain"
)

type ExperimentRepository struct {
	mu    sync.RWMutex
	byID  map[string]*domain.Experiment
	order []string
}

func NewExperimentRepository() *ExperimentRepository {
	return &ExperimentRepository{byID: make(map[string]*domain.Experiment)}
}

func (r *ExperimentRepository) Save(ctx context.Context, experiment *domain.Experiment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byID[experiment.ID]; !exists {
		r.order = append(r.order, experiment.ID)
	}
	r.byID[experiment.ID] = experiment
	return nil
}

func (r *ExperimentRepository) GetByID(ctx context.Context, id string) (*domain.Experiment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byID[id], nil
}

func (r *ExperimentRepository) List(ctx context.Context) ([]*domain.Experiment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	experiments := make([]*domain.Experiment, 0, len(r.order))
	for _, id := range r.order {
		experiments = append(experiments, r.byID[id])
	}
	return experiments, nil
}

type AssignmentRepository struct {
	mu    sync.RWMutex
	byKey map[string]*domain.Assignment
	order []string
}

func NewAssignmentRepository() *AssignmentRepository {
	return &AssignmentRepository{byKey: make(map[string]*domain.Assignment)}
}

func assignmentKey(userID, experimentID string) string {
	return userID + ":" + experimentID
}

func (r *AssignmentRepository) Save(ctx context.Context, assignment *domain.Assignment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := assignmentKey(assignment.UserID, assignment.ExperimentID)
	if _, exists := r.byKey[key]; !exists {
		r.order = append(r.order, key)
	}
	r.byKey[key] = assignment
	return nil
}

func (r *AssignmentRepository) Get(ctx context.Context, userID, experimentID string) (*domain.Assignment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byKey[assignmentKey(userID, experimentID)], nil
}

func (r *AssignmentRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Assignment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var assignments []*domain.Assignment
	for _, key := range r.order {
		if a := r.byKey[key]; a.UserID == userID {
			assignments = append(assignments, a)
		}
	}
	return assignments, nil
}

func (r *AssignmentRepository) ListAll(ctx context.Context) ([]*domain.Assignment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	assignments := make([]*domain.Assignment, 0, len(r.order))
	for _, key := range r.order {
		assignments = append(assignments, r.byKey[key])
	}
	return assignments, nil
}

type ResultRepository struct {
	mu      sync.RWMutex
	results []*domain.Result
}

func NewResultRepository() *ResultRepository {
	return &ResultRepository{}
}

func (r *ResultRepository) Append(ctx context.Context, result *domain.Result) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, result)
	return nil
}

func (r *ResultRepository) ListByExperiment(ctx context.Context, experimentID string) ([]*domain.Result, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var results []*domain.Result
	for _, res := range r.results {
		if res.ExperimentID == experimentID {
			results = append(results, res)
		}
	}
	return results, nil
}

func (r *ResultRepository) ListAll(ctx context.Context) ([]*domain.Result, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	results := make([]*domain.Result, len(r.results))
	copy(results, r.results)
	return results, nil
}
