package turso

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/emiliopalmerini/abkit/internal/domain"
)

type ResultRepository struct {
	db *sql.DB
}

func NewResultRepository(db *sql.DB) *ResultRepository {
	return &ResultRepository{db: db}
}

func (r *ResultRepository) Append(ctx context.Context, result *domain.Result) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO results (experiment_id, variation_id, metric_name, value, recorded_at)
		VALUES (?, ?, ?, ?, ?)
	`,
		result.ExperimentID,
		result.VariationID,
		result.MetricName,
		result.Value,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to append result: %w", err)
	}
	return nil
}

func (r *ResultRepository) ListByExperiment(ctx context.Context, experimentID string) ([]*domain.Result, error) {
	return r.list(ctx, `
		SELECT experiment_id, variation_id, metric_name, value
		FROM results WHERE experiment_id = ? ORDER BY id
	`, experimentID)
}

func (r *ResultRepository) ListAll(ctx context.Context) ([]*domain.Result, error) {
	return r.list(ctx, `
		SELECT experiment_id, variation_id, metric_name, value
		FROM results ORDER BY id
	`)
}

func (r *ResultRepository) list(ctx context.Context, query string, args ...any) ([]*domain.Result, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list results: %w", err)
	}
	defer rows.Close()

	var results []*domain.Result
	for rows.Next() {
		var res domain.Result
		if err := rows.Scan(&res.ExperimentID, &res.VariationID, &res.MetricName, &res.Value); err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}
		results = append(results, &res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate results: %w", err)
	}
	return results, nil
}
