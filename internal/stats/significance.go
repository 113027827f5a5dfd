// Package stats estimates whether one variation outperforms another.
//
// The p-value is a threshold-table approximation over the t-statistic, not
// an exact distribution lookup. The thresholds correspond to the usual
// two-tailed critical values of the normal distribution.
package stats

import (
	"math"

	"github.com/emiliopalmerini/abkit/internal/domain"
)

// CalculateSignificance compares a control and a treatment sample. An empty
// sample on either side yields {PValue: 1, IsSignificant: false,
// Confidence: 0} rather than a division by zero.
func CalculateSignificance(control, treatment []float64) domain.Significance {
	if len(control) == 0 || len(treatment) == 0 {
		return domain.Significance{PValue: 1, IsSignificant: false, Confidence: 0}
	}

	meanControl := mean(control)
	meanTreatment := mean(treatment)

	// Population variance: divisor n, not n-1.
	varControl := variance(control, meanControl)
	varTreatment := variance(treatment, meanTreatment)

	pooledStdErr := math.Sqrt(varControl/float64(len(control)) + varTreatment/float64(len(treatment)))

	// A zero standard error is left to IEEE division: distinct means give
	// t = ±Inf (maximal separation, p = 0.001), equal means give NaN, which
	// falls through every threshold to p = 1.
	tStat := (meanTreatment - meanControl) / pooledStdErr

	p := pValueForT(tStat)
	return domain.Significance{
		PValue:        p,
		IsSignificant: p < 0.05,
		Confidence:    (1 - p) * 100,
	}
}

func mean(sample []float64) float64 {
	sum := 0.0
	for _, v := range sample {
		sum += v
	}
	return sum / float64(len(sample))
}

func variance(sample []float64, mean float64) float64 {
	sum := 0.0
	for _, v := range sample {
		d := v - mean
		sum += d * d
	}
	return sum / float64(len(sample))
}

// pValueForT maps |t| to an approximate two-tailed p-value.
func pValueForT(t float64) float64 {
	abs := math.Abs(t)
	switch {
	case abs > 3:
		return 0.001
	case abs > 2.576:
		return 0.01
	case abs > 1.96:
		return 0.05
	case abs > 1.645:
		return 0.1
	default:
		return 1.0
	}
}
