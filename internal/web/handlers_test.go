package web_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/emiliopalmerini/abkit/internal/adapters/memory"
	"github.com/emiliopalmerini/abkit/internal/adapters/webhook"
	"github.com/emiliopalmerini/abkit/internal/engine"
	"github.com/emiliopalmerini/abkit/internal/web"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := engine.New(context.Background(), engine.Config{
		Experiments: memory.NewExperimentRepository(),
		Assignments: memory.NewAssignmentRepository(),
		Results:     memory.NewResultRepository(),
		Sink:        webhook.NewNoOpSink(),
		Logger:      logger,
	})
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = svc.Close(ctx)
	})

	r := chi.NewRouter()
	web.NewHandler(svc, logger).RegisterRoutes(r)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decode(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func createExperiment(t *testing.T, srv *httptest.Server, status string) {
	t.Helper()
	resp := postJSON(t, srv.URL+"/experiments", map[string]any{
		"id":            "exp-1",
		"name":          "checkout-button",
		"status":        status,
		"primaryMetric": "conversion",
		"variations": []map[string]any{
			{"id": "a", "name": "A", "weight": 50},
			{"id": "b", "name": "B", "weight": 50},
		},
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create experiment: status %d", resp.StatusCode)
	}
}

func TestCreateExperiment_BadWeightsRejected(t *testing.T) {
	srv := newTestServer(t)

	resp := postJSON(t, srv.URL+"/experiments", map[string]any{
		"name":          "broken",
		"primaryMetric": "conversion",
		"variations": []map[string]any{
			{"id": "a", "weight": 40},
			{"id": "b", "weight": 40},
			{"id": "c", "weight": 10},
		},
	})
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for weights summing to 90, got %d", resp.StatusCode)
	}
}

func TestAssign_UnknownExperimentIs404(t *testing.T) {
	srv := newTestServer(t)

	resp := postJSON(t, srv.URL+"/experiments/nope/assignments", map[string]any{"userId": "u1"})
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestAssign_DraftExperimentIsEmpty200(t *testing.T) {
	srv := newTestServer(t)
	createExperiment(t, srv, "draft")

	resp := postJSON(t, srv.URL+"/experiments/exp-1/assignments", map[string]any{"userId": "u1"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var body map[string]any
	decode(t, resp, &body)
	if len(body) != 0 {
		t.Errorf("expected empty object for ineligible user, got %v", body)
	}
}

func TestAssign_RunningExperimentReturnsVariation(t *testing.T) {
	srv := newTestServer(t)
	createExperiment(t, srv, "running")

	resp := postJSON(t, srv.URL+"/experiments/exp-1/assignments", map[string]any{"userId": "u1"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var body map[string]any
	decode(t, resp, &body)
	if body["variationId"] != "a" && body["variationId"] != "b" {
		t.Errorf("expected a variation id, got %v", body)
	}

	// The read-only lookup agrees with the assignment.
	lookup, err := http.Get(srv.URL + "/experiments/exp-1/assignments/u1")
	if err != nil {
		t.Fatalf("GET assignment: %v", err)
	}
	defer lookup.Body.Close()
	var stored map[string]any
	decode(t, lookup, &stored)
	if stored["variationId"] != body["variationId"] {
		t.Errorf("lookup %v disagrees with assignment %v", stored, body)
	}
}

func TestListUserAssignments(t *testing.T) {
	srv := newTestServer(t)
	createExperiment(t, srv, "running")

	resp := postJSON(t, srv.URL+"/experiments/exp-1/assignments", map[string]any{"userId": "u1"})
	var pick map[string]any
	decode(t, resp, &pick)

	list, err := http.Get(srv.URL + "/users/u1/assignments")
	if err != nil {
		t.Fatalf("GET user assignments: %v", err)
	}
	defer list.Body.Close()
	var assignments []map[string]any
	decode(t, list, &assignments)
	if len(assignments) != 1 {
		t.Fatalf("expected 1 assignment, got %d", len(assignments))
	}
	if assignments[0]["experimentId"] != "exp-1" || assignments[0]["variationId"] != pick["variationId"] {
		t.Errorf("unexpected assignment listing: %v", assignments[0])
	}

	empty, err := http.Get(srv.URL + "/users/nobody/assignments")
	if err != nil {
		t.Fatalf("GET unknown user: %v", err)
	}
	defer empty.Body.Close()
	var none []map[string]any
	decode(t, empty, &none)
	if len(none) != 0 {
		t.Errorf("expected empty list for unknown user, got %v", none)
	}
}

func TestMetricsAndWinner(t *testing.T) {
	srv := newTestServer(t)
	createExperiment(t, srv, "running")

	log := func(variation string, value float64) {
		resp := postJSON(t, srv.URL+"/metrics", map[string]any{
			"experimentId": "exp-1",
			"variationId":  variation,
			"metricName":   "conversion",
			"value":        value,
		})
		if resp.StatusCode != http.StatusAccepted {
			t.Fatalf("log metric: status %d", resp.StatusCode)
		}
	}
	for _, v := range []float64{10, 12, 14} {
		log("a", v)
	}
	for _, v := range []float64{20, 22, 24} {
		log("b", v)
	}

	results, err := http.Get(srv.URL + "/experiments/exp-1/results")
	if err != nil {
		t.Fatalf("GET results: %v", err)
	}
	defer results.Body.Close()
	var groups []map[string]any
	decode(t, results, &groups)
	if len(groups) != 2 {
		t.Fatalf("expected 2 result groups, got %d", len(groups))
	}

	winner, err := http.Get(srv.URL + "/experiments/exp-1/winner")
	if err != nil {
		t.Fatalf("GET winner: %v", err)
	}
	defer winner.Body.Close()
	var body map[string]any
	decode(t, winner, &body)
	if body["variationId"] != "b" {
		t.Errorf("expected winner b, got %v", body)
	}
}

func TestSignificanceEndpoint(t *testing.T) {
	srv := newTestServer(t)

	resp := postJSON(t, srv.URL+"/significance", map[string]any{
		"control":   []float64{},
		"treatment": []float64{1.0},
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var body map[string]any
	decode(t, resp, &body)
	if body["pValue"] != 1.0 || body["isSignificant"] != false || body["confidence"] != 0.0 {
		t.Errorf("unexpected significance for empty control: %v", body)
	}
}

func TestUpdateStatusEndpoint(t *testing.T) {
	srv := newTestServer(t)
	createExperiment(t, srv, "running")

	req, err := http.NewRequest(http.MethodPatch, srv.URL+"/experiments/exp-1/status", bytes.NewReader([]byte(`{"status":"paused"}`)))
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("PATCH status: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.StatusCode)
	}

	// A paused experiment no longer assigns.
	assign := postJSON(t, srv.URL+"/experiments/exp-1/assignments", map[string]any{"userId": "u-new"})
	var body map[string]any
	decode(t, assign, &body)
	if len(body) != 0 {
		t.Errorf("expected empty assignment for paused experiment, got %v", body)
	}
}
