package domain

import "time"

// Assignment records that a user was bucketed into a variation. The
// (UserID, ExperimentID, VariationID) triple is written once and never
// changes; only ExposureLogged flips when the assignment is first served.
type Assignment struct {
	UserID         string
	ExperimentID   string
	VariationID    string
	AssignedAt     time.Time
	ExposureLogged bool
}

// VariationPick is what a caller receives from an assignment: the sticky
// variation id plus that variation's current config. Config is nil when the
// variation was removed from the experiment after the assignment was made.
type VariationPick struct {
	VariationID string
	Config      map[string]any
}
