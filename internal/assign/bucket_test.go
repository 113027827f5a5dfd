package assign

import (
	"fmt"
	"testing"

	"github.com/emiliopalmerini/abkit/internal/domain"
)

func TestBucketOf_Deterministic(t *testing.T) {
	first := bucketOf("u1:exp-1")
	for i := 0; i < 100; i++ {
		if got := bucketOf("u1:exp-1"); got != first {
			t.Fatalf("bucketOf not deterministic: got %d, want %d", got, first)
		}
	}
}

func TestBucketOf_Range(t *testing.T) {
	for i := 0; i < 10000; i++ {
		b := bucketOf(fmt.Sprintf("user-%d:exp-1", i))
		if b < 0 || b >= bucketCount {
			t.Fatalf("bucket %d out of [0, %d)", b, bucketCount)
		}
	}
}

func TestPickVariation_Boundaries(t *testing.T) {
	variations := []domain.Variation{
		{ID: "a", Weight: 30},
		{ID: "b", Weight: 70},
	}

	tests := []struct {
		bucket int
		want   string
	}{
		{0, "a"},
		{299, "a"},
		{300, "b"}, // boundary 300 is not > 300, so a's slot ends at 299
		{999, "b"},
	}
	for _, tt := range tests {
		if got := pickVariation(variations, tt.bucket); got.ID != tt.want {
			t.Errorf("pickVariation(bucket=%d) = %q, want %q", tt.bucket, got.ID, tt.want)
		}
	}
}

func TestPickVariation_FallbackToLast(t *testing.T) {
	// Weights summing below 100 leave a gap past the final boundary; the
	// last variation absorbs it so every bucket maps to a variation.
	variations := []domain.Variation{
		{ID: "a", Weight: 40},
		{ID: "b", Weight: 40},
	}
	if got := pickVariation(variations, 950); got.ID != "b" {
		t.Errorf("expected fallback to last variation, got %q", got.ID)
	}
}

func TestBucketUniformity(t *testing.T) {
	// 50/50 split over 10k distinct users should land close to 5k per arm.
	variations := []domain.Variation{
		{ID: "a", Weight: 50},
		{ID: "b", Weight: 50},
	}

	counts := map[string]int{}
	const n = 10000
	for i := 0; i < n; i++ {
		key := fmt.Sprintf("user-%d:exp-uniform", i)
		v := pickVariation(variations, bucketOf(key))
		counts[v.ID]++
	}

	// 5 standard deviations for a fair binomial (sigma = sqrt(n*0.25) = 50).
	const tolerance = 250
	for _, id := range []string{"a", "b"} {
		if diff := counts[id] - n/2; diff > tolerance || diff < -tolerance {
			t.Errorf("variation %q count %d deviates more than %d from %d", id, counts[id], tolerance, n/2)
		}
	}
}
