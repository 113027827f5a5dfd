// Package web exposes the engine's public operations as a JSON API.
package web

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/emiliopalmerini/abkit/internal/domain"
	"github.com/emiliopalmerini/abkit/internal/engine"
)

type Handler struct {
	svc    *engine.Service
	logger *slog.Logger
}

func NewHandler(svc *engine.Service, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// RegisterRoutes mounts every public operation on r.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/experiments", h.handleCreateExperiment)
	r.Get("/experiments", h.handleListExperiments)
	r.Get("/experiments/{id}", h.handleGetExperiment)
	r.Patch("/experiments/{id}/status", h.handleUpdateStatus)
	r.Post("/experiments/{id}/assignments", h.handleAssign)
	r.Get("/experiments/{id}/assignments/{userID}", h.handleGetUserVariation)
	r.Get("/users/{userID}/assignments", h.handleListUserAssignments)
	r.Get("/experiments/{id}/results", h.handleGetResults)
	r.Get("/experiments/{id}/winner", h.handleGetWinner)
	r.Post("/metrics", h.handleLogMetric)
	r.Post("/significance", h.handleSignificance)
}

type variationPayload struct {
	ID     string         `json:"id"`
	Name   string         `json:"name"`
	Weight int            `json:"weight"`
	Config map[string]any `json:"config,omitempty"`
}

type experimentPayload struct {
	ID               string             `json:"id,omitempty"`
	Name             string             `json:"name"`
	Status           string             `json:"status,omitempty"`
	Hypothesis       *string            `json:"hypothesis,omitempty"`
	StartDate        *time.Time         `json:"startDate,omitempty"`
	EndDate          *time.Time         `json:"endDate,omitempty"`
	Variations       []variationPayload `json:"variations"`
	AudienceUserIDs  []string           `json:"audienceUserIds,omitempty"`
	PrimaryMetric    string             `json:"primaryMetric"`
	SecondaryMetrics []string           `json:"secondaryMetrics,omitempty"`
}

func (p *experimentPayload) toDomain() *domain.Experiment {
	exp := &domain.Experiment{
		ID:               p.ID,
		Name:             p.Name,
		Status:           domain.ExperimentStatus(p.Status),
		Hypothesis:       p.Hypothesis,
		EndDate:          p.EndDate,
		PrimaryMetric:    p.PrimaryMetric,
		SecondaryMetrics: p.SecondaryMetrics,
	}
	if p.StartDate != nil {
		exp.StartDate = *p.StartDate
	}
	for _, v := range p.Variations {
		exp.Variations = append(exp.Variations, domain.Variation{
			ID: v.ID, Name: v.Name, Weight: v.Weight, Config: v.Config,
		})
	}
	if len(p.AudienceUserIDs) > 0 {
		exp.Audience = &domain.Audience{UserIDs: p.AudienceUserIDs}
	}
	return exp
}

func experimentToPayload(exp *domain.Experiment) experimentPayload {
	p := experimentPayload{
		ID:               exp.ID,
		Name:             exp.Name,
		Status:           string(exp.Status),
		Hypothesis:       exp.Hypothesis,
		EndDate:          exp.EndDate,
		PrimaryMetric:    exp.PrimaryMetric,
		SecondaryMetrics: exp.SecondaryMetrics,
	}
	start := exp.StartDate
	p.StartDate = &start
	for _, v := range exp.Variations {
		p.Variations = append(p.Variations, variationPayload{ID: v.ID, Name: v.Name, Weight: v.Weight, Config: v.Config})
	}
	if exp.Audience != nil {
		p.AudienceUserIDs = exp.Audience.UserIDs
	}
	return p
}

func (h *Handler) handleCreateExperiment(w http.ResponseWriter, r *http.Request) {
	var payload experimentPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	created, err := h.svc.CreateExperiment(r.Context(), payload.toDomain())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, experimentToPayload(created))
}

func (h *Handler) handleListExperiments(w http.ResponseWriter, r *http.Request) {
	status := domain.ExperimentStatus(r.URL.Query().Get("status"))
	experiments, err := h.svc.ListExperiments(r.Context(), status)
	if err != nil {
		h.writeError(w, err)
		return
	}

	payloads := make([]experimentPayload, 0, len(experiments))
	for _, exp := range experiments {
		payloads = append(payloads, experimentToPayload(exp))
	}
	h.writeJSON(w, http.StatusOK, payloads)
}

func (h *Handler) handleGetExperiment(w http.ResponseWriter, r *http.Request) {
	exp, err := h.svc.GetExperiment(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	if exp == nil {
		http.Error(w, "experiment not found", http.StatusNotFound)
		return
	}
	h.writeJSON(w, http.StatusOK, experimentToPayload(exp))
}

func (h *Handler) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	err := h.svc.UpdateExperimentStatus(r.Context(), chi.URLParam(r, "id"), domain.ExperimentStatus(payload.Status))
	if err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleAssign(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		UserID string `json:"userId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.UserID == "" {
		http.Error(w, "userId is required", http.StatusBadRequest)
		return
	}

	pick, err := h.svc.Assign(r.Context(), payload.UserID, chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writePick(w, pick)
}

func (h *Handler) handleGetUserVariation(w http.ResponseWriter, r *http.Request) {
	pick, err := h.svc.GetUserVariation(r.Context(), chi.URLParam(r, "userID"), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writePick(w, pick)
}

func (h *Handler) handleListUserAssignments(w http.ResponseWriter, r *http.Request) {
	assignments, err := h.svc.ListUserAssignments(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		h.writeError(w, err)
		return
	}

	type assignmentPayload struct {
		ExperimentID   string    `json:"experimentId"`
		VariationID    string    `json:"variationId"`
		AssignedAt     time.Time `json:"assignedAt"`
		ExposureLogged bool      `json:"exposureLogged"`
	}
	payloads := make([]assignmentPayload, 0, len(assignments))
	for _, a := range assignments {
		payloads = append(payloads, assignmentPayload{
			ExperimentID:   a.ExperimentID,
			VariationID:    a.VariationID,
			AssignedAt:     a.AssignedAt,
			ExposureLogged: a.ExposureLogged,
		})
	}
	h.writeJSON(w, http.StatusOK, payloads)
}

func (h *Handler) handleLogMetric(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		ExperimentID string  `json:"experimentId"`
		VariationID  string  `json:"variationId"`
		MetricName   string  `json:"metricName"`
		Value        float64 `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	err := h.svc.LogMetric(r.Context(), payload.ExperimentID, payload.VariationID, payload.MetricName, payload.Value)
	if err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (h *Handler) handleGetResults(w http.ResponseWriter, r *http.Request) {
	groups := h.svc.GetResults(r.Context(), chi.URLParam(r, "id"))

	type groupPayload struct {
		ExperimentID string    `json:"experimentId"`
		VariationID  string    `json:"variationId"`
		MetricName   string    `json:"metricName"`
		Values       []float64 `json:"values"`
	}
	payloads := make([]groupPayload, 0, len(groups))
	for _, g := range groups {
		payloads = append(payloads, groupPayload{
			ExperimentID: g.ExperimentID,
			VariationID:  g.VariationID,
			MetricName:   g.MetricName,
			Values:       g.Values,
		})
	}
	h.writeJSON(w, http.StatusOK, payloads)
}

func (h *Handler) handleGetWinner(w http.ResponseWriter, r *http.Request) {
	winner, err := h.svc.GetWinner(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	if winner == nil {
		h.writeJSON(w, http.StatusOK, map[string]any{})
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"variationId": winner.VariationID,
		"mean":        winner.Mean,
		"sampleSize":  winner.SampleSize,
	})
}

func (h *Handler) handleSignificance(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Control   []float64 `json:"control"`
		Treatment []float64 `json:"treatment"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	sig := h.svc.CalculateSignificance(payload.Control, payload.Treatment)
	h.writeJSON(w, http.StatusOK, map[string]any{
		"pValue":        sig.PValue,
		"isSignificant": sig.IsSignificant,
		"confidence":    sig.Confidence,
	})
}

// writePick renders an assignment result. An ineligible user is not an
// error: it comes back as 200 with an empty object.
func (h *Handler) writePick(w http.ResponseWriter, pick *domain.VariationPick) {
	if pick == nil {
		h.writeJSON(w, http.StatusOK, map[string]any{})
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"variationId": pick.VariationID,
		"config":      pick.Config,
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Warn("failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case domain.IsValidation(err):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	case domain.IsNotFound(err):
		http.Error(w, err.Error(), http.StatusNotFound)
	default:
		h.logger.Error("request failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
