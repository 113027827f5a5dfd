package domain

import "fmt"

// Result is a single metric observation. Results are append-only; they are
// never updated or deleted.
type Result struct {
	ExperimentID string
	VariationID  string
	MetricName   string
	Value        float64
}

// GroupKey is the ledger key a result is filed under.
func (r *Result) GroupKey() string {
	return ResultKey(r.ExperimentID, r.VariationID, r.MetricName)
}

// ResultKey builds the experimentID:variationID:metricName ledger key.
func ResultKey(experimentID, variationID, metricName string) string {
	return fmt.Sprintf("%s:%s:%s", experimentID, variationID, metricName)
}

// ResultGroup is every observation recorded under one ledger key.
type ResultGroup struct {
	ExperimentID string
	VariationID  string
	MetricName   string
	Values       []float64
}

// Significance is the outcome of comparing two result samples.
type Significance struct {
	PValue        float64
	IsSignificant bool
	Confidence    float64
}

// Winner identifies the variation with the highest primary-metric average.
type Winner struct {
	VariationID string
	Mean        float64
	SampleSize  int
}
