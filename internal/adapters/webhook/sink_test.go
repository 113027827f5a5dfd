package webhook_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/emiliopalmerini/abkit/internal/adapters/webhook"
	"github.com/emiliopalmerini/abkit/internal/domain"
)

func TestSink_Deliver(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("expected application/json, got %q", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	sink := webhook.NewSink(srv.URL)
	err := sink.Deliver(context.Background(), &domain.Result{
		ExperimentID: "exp-1",
		VariationID:  "a",
		MetricName:   "conversion",
		Value:        2.5,
	})
	if err != nil {
		t.Fatalf("deliver: %v", err)
	}

	want := map[string]any{
		"experimentId": "exp-1",
		"variationId":  "a",
		"metricName":   "conversion",
		"value":        2.5,
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("payload[%q] = %v, want %v", k, got[k], v)
		}
	}
}

func TestSink_DeliverNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer srv.Close()

	sink := webhook.NewSink(srv.URL)
	err := sink.Deliver(context.Background(), &domain.Result{ExperimentID: "exp-1"})
	if err == nil {
		t.Fatal("expected error for non-2xx response")
	}
}
