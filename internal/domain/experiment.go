package domain

import "time"

type ExperimentStatus string

const (
	StatusDraft     ExperimentStatus = "draft"
	StatusRunning   ExperimentStatus = "running"
	StatusPaused    ExperimentStatus = "paused"
	StatusCompleted ExperimentStatus = "completed"
	StatusArchived  ExperimentStatus = "archived"
)

// Valid reports whether s is one of the known experiment statuses.
func (s ExperimentStatus) Valid() bool {
	switch s {
	case StatusDraft, StatusRunning, StatusPaused, StatusCompleted, StatusArchived:
		return true
	}
	return false
}

// Variation is one weighted arm of an experiment. Config is opaque to the
// engine and handed back verbatim to callers on assignment.
type Variation struct {
	ID     string
	Name   string
	Weight int
	Config map[string]any
}

// Audience restricts an experiment to an explicit allow-list of user ids.
// A nil Audience means every user is eligible.
type Audience struct {
	UserIDs []string
}

// Contains reports whether userID is in the allow-list.
func (a *Audience) Contains(userID string) bool {
	if a == nil {
		return true
	}
	for _, id := range a.UserIDs {
		if id == userID {
			return true
		}
	}
	return false
}

type Experiment struct {
	ID               string
	Name             string
	Status           ExperimentStatus
	Hypothesis       *string
	StartDate        time.Time
	EndDate          *time.Time
	Variations       []Variation
	Audience         *Audience
	PrimaryMetric    string
	SecondaryMetrics []string
	CreatedAt        time.Time
}

// ValidateWeights checks that variation weights sum to exactly 100.
// The invariant is enforced at creation only; stored experiments are
// trusted afterwards.
func (e *Experiment) ValidateWeights() error {
	if len(e.Variations) == 0 {
		return &ValidationError{Field: "variations", Reason: "at least one variation is required"}
	}
	sum := 0
	for _, v := range e.Variations {
		if v.Weight < 0 || v.Weight > 100 {
			return &ValidationError{Field: "variations", Reason: "variation weight must be between 0 and 100"}
		}
		sum += v.Weight
	}
	if sum != 100 {
		return &ValidationError{Field: "variations", Reason: "variation weights must sum to 100"}
	}
	return nil
}

// VariationByID returns the variation with the given id, or nil if the
// experiment no longer carries it.
func (e *Experiment) VariationByID(id string) *Variation {
	for i := range e.Variations {
		if e.Variations[i].ID == id {
			return &e.Variations[i]
		}
	}
	return nil
}
