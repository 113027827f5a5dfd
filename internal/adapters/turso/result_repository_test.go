package turso_test

import (
	"context"
	"testing"

	"github.com/emiliopalmerini/abkit/internal/adapters/turso"
	"github.com/emiliopalmerini/abkit/internal/domain"
)

func TestResultRepository_AppendAndList(t *testing.T) {
	ctx := context.Background()
	repo := turso.NewResultRepository(testDB(t))

	records := []*domain.Result{
		{ExperimentID: "exp-1", VariationID: "a", MetricName: "conversion", Value: 1},
		{ExperimentID: "exp-1", VariationID: "a", MetricName: "conversion", Value: 0},
		{ExperimentID: "exp-1", VariationID: "b", MetricName: "conversion", Value: 1},
		{ExperimentID: "exp-2", VariationID: "a", MetricName: "conversion", Value: 1},
	}
	for _, r := range records {
		if err := repo.Append(ctx, r); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	mine, err := repo.ListByExperiment(ctx, "exp-1")
	if err != nil {
		t.Fatalf("list by experiment: %v", err)
	}
	if len(mine) != 3 {
		t.Fatalf("expected 3 results for exp-1, got %d", len(mine))
	}
	// Append order is preserved.
	if mine[0].Value != 1 || mine[1].Value != 0 || mine[2].VariationID != "b" {
		t.Errorf("unexpected order: %+v", mine)
	}

	all, err := repo.ListAll(ctx)
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 4 {
		t.Errorf("expected 4 results in total, got %d", len(all))
	}
}
