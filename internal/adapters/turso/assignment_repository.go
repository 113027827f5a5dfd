package turso

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/emiliopalmerini/abkit/internal/domain"
)

type AssignmentRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewAssignmentRepository(db *sql.DB, logger *slog.Logger) *AssignmentRepository {
	return &AssignmentRepository{db: db, logger: logger}
}

func (r *AssignmentRepository) Save(ctx context.Context, a *domain.Assignment) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO assignments
			(user_id, experiment_id, variation_id, assigned_at, exposure_logged)
		VALUES (?, ?, ?, ?, ?)
	`,
		a.UserID,
		a.ExperimentID,
		a.VariationID,
		a.AssignedAt.Format(time.RFC3339),
		boolToInt64(a.ExposureLogged),
	)
	if err != nil {
		return fmt.Errorf("failed to save assignment: %w", err)
	}
	return nil
}

func (r *AssignmentRepository) Get(ctx context.Context, userID, experimentID string) (*domain.Assignment, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT user_id, experiment_id, variation_id, assigned_at, exposure_logged
		FROM assignments WHERE user_id = ? AND experiment_id = ?
	`, userID, experimentID)

	a, err := scanAssignment(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get assignment: %w", err)
	}
	return a, nil
}

func (r *AssignmentRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Assignment, error) {
	return r.list(ctx, `
		SELECT user_id, experiment_id, variation_id, assigned_at, exposure_logged
		FROM assignments WHERE user_id = ? ORDER BY assigned_at
	`, userID)
}

func (r *AssignmentRepository) ListAll(ctx context.Context) ([]*domain.Assignment, error) {
	return r.list(ctx, `
		SELECT user_id, experiment_id, variation_id, assigned_at, exposure_logged
		FROM assignments ORDER BY assigned_at
	`)
}

func (r *AssignmentRepository) list(ctx context.Context, query string, args ...any) ([]*domain.Assignment, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list assignments: %w", err)
	}
	defer rows.Close()

	var assignments []*domain.Assignment
	for rows.Next() {
		a, err := scanAssignment(rows.Scan)
		if err != nil {
			r.logger.Warn("skipping malformed assignment row", "error", err)
			continue
		}
		assignments = append(assignments, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate assignments: %w", err)
	}
	return assignments, nil
}

func scanAssignment(scan func(...any) error) (*domain.Assignment, error) {
	var (
		a          domain.Assignment
		assignedAt string
		exposure   int64
	)
	if err := scan(&a.UserID, &a.ExperimentID, &a.VariationID, &assignedAt, &exposure); err != nil {
		return nil, err
	}

	t, err := time.Parse(time.RFC3339, assignedAt)
	if err != nil {
		return nil, fmt.Errorf("parse assigned at for %s:%s: %w", a.UserID, a.ExperimentID, err)
	}
	a.AssignedAt = t
	a.ExposureLogged = exposure == 1
	return &a, nil
}

func boolToInt64(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
