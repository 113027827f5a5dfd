// Package webhook delivers metric observations as one JSON POST per record.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/emiliopalmerini/abkit/internal/domain"
)

type payload struct {
	ExperimentID string  `json:"experimentId"`
	VariationID  string  `json:"variationId"`
	MetricName   string  `json:"metricName"`
	Value        float64 `json:"value"`
}

// Sink POSTs every metric observation to a configured URL. Delivery is
// best-effort; the ledger logs and swallows failures.
type Sink struct {
	url    string
	client *http.Client
}

func NewSink(url string) *Sink {
	return &Sink{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (s *Sink) Deliver(ctx context.Context, r *domain.Result) error {
	body, err := json.Marshal(payload{
		ExperimentID: r.ExperimentID,
		VariationID:  r.VariationID,
		MetricName:   r.MetricName,
		Value:        r.Value,
	})
	if err != nil {
		return fmt.Errorf("marshal metric: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("post metric: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("post metric: unexpected status %d", resp.StatusCode)
	}
	return nil
}

func (s *Sink) Close(ctx context.Context) error {
	s.client.CloseIdleConnections()
	return nil
}
