package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/emiliopalmerini/abkit/internal/domain"
)

// parseVariations turns "a:50,b:50" into weighted variations. The variation
// name defaults to its id.
func parseVariations(spec string) ([]domain.Variation, error) {
	if strings.TrimSpace(spec) == "" {
		return nil, fmt.Errorf("at least one variation is required")
	}

	var variations []domain.Variation
	for _, part := range strings.Split(spec, ",") {
		id, weightStr, ok := strings.Cut(strings.TrimSpace(part), ":")
		if !ok {
			return nil, fmt.Errorf("invalid variation %q, expected id:weight", part)
		}
		weight, err := strconv.Atoi(weightStr)
		if err != nil {
			return nil, fmt.Errorf("invalid weight in %q: %w", part, err)
		}
		variations = append(variations, domain.Variation{ID: id, Name: id, Weight: weight})
	}
	return variations, nil
}

// parseFloats turns "1.2,3,4.5" into a float slice. An empty string is an
// empty sample, not an error.
func parseFloats(spec string) ([]float64, error) {
	if strings.TrimSpace(spec) == "" {
		return nil, nil
	}

	var values []float64
	for _, part := range strings.Split(spec, ",") {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid value %q: %w", part, err)
		}
		values = append(values, v)
	}
	return values, nil
}

func splitList(spec string) []string {
	if strings.TrimSpace(spec) == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(spec, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
