package turso

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/emiliopalmerini/abkit/internal/domain"
)

type ExperimentRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewExperimentRepository(db *sql.DB, logger *slog.Logger) *ExperimentRepository {
	return &ExperimentRepository{db: db, logger: logger}
}

func (r *ExperimentRepository) Save(ctx context.Context, exp *domain.Experiment) error {
	variations, err := json.Marshal(exp.Variations)
	if err != nil {
		return fmt.Errorf("marshal variations: %w", err)
	}
	secondary, err := json.Marshal(exp.SecondaryMetrics)
	if err != nil {
		return fmt.Errorf("marshal secondary metrics: %w", err)
	}

	var audience sql.NullString
	if exp.Audience != nil {
		raw, err := json.Marshal(exp.Audience)
		if err != nil {
			return fmt.Errorf("marshal audience: %w", err)
		}
		audience = sql.NullString{String: string(raw), Valid: true}
	}

	var endDate sql.NullString
	if exp.EndDate != nil {
		endDate = sql.NullString{String: exp.EndDate.Format(time.RFC3339), Valid: true}
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO experiments
			(id, name, status, hypothesis, start_date, end_date, variations, audience, primary_metric, secondary_metrics, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		exp.ID,
		exp.Name,
		string(exp.Status),
		nullString(exp.Hypothesis),
		exp.StartDate.Format(time.RFC3339),
		endDate,
		string(variations),
		audience,
		exp.PrimaryMetric,
		string(secondary),
		exp.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save experiment: %w", err)
	}
	return nil
}

func (r *ExperimentRepository) GetByID(ctx context.Context, id string) (*domain.Experiment, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, status, hypothesis, start_date, end_date, variations, audience, primary_metric, secondary_metrics, created_at
		FROM experiments WHERE id = ?
	`, id)

	exp, err := r.scanExperiment(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get experiment: %w", err)
	}
	return exp, nil
}

func (r *ExperimentRepository) List(ctx context.Context) ([]*domain.Experiment, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, status, hypothesis, start_date, end_date, variations, audience, primary_metric, secondary_metrics, created_at
		FROM experiments ORDER BY created_at, id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list experiments: %w", err)
	}
	defer rows.Close()

	var experiments []*domain.Experiment
	for rows.Next() {
		exp, err := r.scanExperiment(rows.Scan)
		if err != nil {
			// A malformed row is logged and skipped, never fatal.
			r.logger.Warn("skipping malformed experiment row", "error", err)
			continue
		}
		experiments = append(experiments, exp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate experiments: %w", err)
	}
	return experiments, nil
}

func (r *ExperimentRepository) scanExperiment(scan func(...any) error) (*domain.Experiment, error) {
	var (
		exp            domain.Experiment
		status         string
		hypothesis     sql.NullString
		startDate      string
		endDate        sql.NullString
		variationsJSON string
		audienceJSON   sql.NullString
		secondaryJSON  string
		createdAt      string
	)

	err := scan(&exp.ID, &exp.Name, &status, &hypothesis, &startDate, &endDate,
		&variationsJSON, &audienceJSON, &exp.PrimaryMetric, &secondaryJSON, &createdAt)
	if err != nil {
		return nil, err
	}

	exp.Status = domain.ExperimentStatus(status)
	exp.Hypothesis = nullStringToPtr(hypothesis)

	if exp.StartDate, err = time.Parse(time.RFC3339, startDate); err != nil {
		return nil, fmt.Errorf("parse start date of %s: %w", exp.ID, err)
	}
	if endDate.Valid {
		t, err := time.Parse(time.RFC3339, endDate.String)
		if err != nil {
			return nil, fmt.Errorf("parse end date of %s: %w", exp.ID, err)
		}
		exp.EndDate = &t
	}
	if exp.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return nil, fmt.Errorf("parse created at of %s: %w", exp.ID, err)
	}

	if err := json.Unmarshal([]byte(variationsJSON), &exp.Variations); err != nil {
		return nil, fmt.Errorf("decode variations of %s: %w", exp.ID, err)
	}
	if secondaryJSON != "" {
		if err := json.Unmarshal([]byte(secondaryJSON), &exp.SecondaryMetrics); err != nil {
			return nil, fmt.Errorf("decode secondary metrics of %s: %w", exp.ID, err)
		}
	}
	if audienceJSON.Valid {
		var audience domain.Audience
		if err := json.Unmarshal([]byte(audienceJSON.String), &audience); err != nil {
			return nil, fmt.Errorf("decode audience of %s: %w", exp.ID, err)
		}
		exp.Audience = &audience
	}
	return &exp, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullStringToPtr(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	return &s.String
}
