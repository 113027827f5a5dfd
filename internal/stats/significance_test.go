package stats

import (
	"math"
	"testing"
)

func assertFloatNear(t *testing.T, name string, expected, actual float64) {
	t.Helper()
	if math.Abs(expected-actual) > 0.0001 {
		t.Errorf("%s: expected %.6f, got %.6f", name, expected, actual)
	}
}

func TestCalculateSignificance_EmptySamples(t *testing.T) {
	tests := []struct {
		name      string
		control   []float64
		treatment []float64
	}{
		{"empty control", nil, []float64{1.0}},
		{"empty treatment", []float64{1.0}, nil},
		{"both empty", nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CalculateSignificance(tt.control, tt.treatment)
			assertFloatNear(t, "PValue", 1, got.PValue)
			assertFloatNear(t, "Confidence", 0, got.Confidence)
			if got.IsSignificant {
				t.Error("empty samples must not be significant")
			}
		})
	}
}

func TestCalculateSignificance_SameDistribution(t *testing.T) {
	control := []float64{10, 11, 9, 10, 12, 8, 10, 11}
	treatment := []float64{9, 10, 12, 10, 11, 10, 9, 11}

	got := CalculateSignificance(control, treatment)
	assertFloatNear(t, "PValue", 1, got.PValue)
	if got.IsSignificant {
		t.Error("samples from the same distribution must not be significant")
	}
	assertFloatNear(t, "Confidence", 0, got.Confidence)
}

func TestCalculateSignificance_ClearDifference(t *testing.T) {
	control := []float64{10, 12, 14, 11, 13, 12, 10, 14}
	treatment := []float64{20, 22, 24, 21, 23, 22, 20, 24}

	got := CalculateSignificance(control, treatment)
	if got.PValue != 0.001 {
		t.Errorf("expected p=0.001 for a large separation, got %v", got.PValue)
	}
	if !got.IsSignificant {
		t.Error("expected a significant result")
	}
	assertFloatNear(t, "Confidence", 99.9, got.Confidence)
}

func TestCalculateSignificance_IdenticalConstantSamples(t *testing.T) {
	// Zero variance on both sides with equal means: t is NaN, which falls
	// through every threshold to p = 1.
	got := CalculateSignificance([]float64{5, 5, 5}, []float64{5, 5, 5})
	assertFloatNear(t, "PValue", 1, got.PValue)
	if got.IsSignificant {
		t.Error("identical constant samples must not be significant")
	}
}

func TestCalculateSignificance_DistinctConstantSamples(t *testing.T) {
	// Zero variance on both sides but different means: the separation is
	// maximal, t is ±Inf and the result lands in the strongest bucket.
	got := CalculateSignificance([]float64{10, 10, 10}, []float64{20, 20, 20})
	if got.PValue != 0.001 {
		t.Errorf("expected p=0.001 for distinct constant samples, got %v", got.PValue)
	}
	if !got.IsSignificant {
		t.Error("expected a significant result")
	}
	assertFloatNear(t, "Confidence", 99.9, got.Confidence)
}

func TestPValueForT_Thresholds(t *testing.T) {
	tests := []struct {
		t    float64
		want float64
	}{
		{3.5, 0.001},
		{-3.5, 0.001},
		{2.8, 0.01},
		{2.1, 0.05},
		{-2.1, 0.05},
		{1.7, 0.1},
		{1.0, 1.0},
		{0, 1.0},
	}
	for _, tt := range tests {
		if got := pValueForT(tt.t); got != tt.want {
			t.Errorf("pValueForT(%v) = %v, want %v", tt.t, got, tt.want)
		}
	}
}

func TestMeanAndVariance(t *testing.T) {
	sample := []float64{2, 4, 6}
	m := mean(sample)
	assertFloatNear(t, "mean", 4, m)
	// Population variance: ((−2)²+0²+2²)/3.
	assertFloatNear(t, "variance", 8.0/3.0, variance(sample, m))
}
