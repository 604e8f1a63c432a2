// Package model defines shared data structures.
package model

// Reading is a single simulated blood-pressure measurement. Values are
// fixed at dataset-generation time and never mutated.
type Reading struct {
	Systolic  int   `json:"systolic"`
	Diastolic int   `json:"diastolic"`
	Timestamp int64 `json:"timestamp"`
}

// PulsePressure returns systolic minus diastolic.
func (r Reading) PulsePressure() int {
	return r.Systolic - r.Diastolic
}

// Limits bounds the admissible combination space.
type Limits struct {
	SystolicMin  int
	SystolicMax  int
	DiastolicMin int
	DiastolicMax int
	PulseMin     int
	PulseMax     int
}

// StorageKeys names the three persisted slots.
type StorageKeys struct {
	Dataset   string
	Index     string
	Timestamp string
}

// SessionView is the display-facing session state: the current reading (nil
// before the session is ready), a loading flag, and a user-visible error
// message, empty when healthy.
type SessionView struct {
	Reading *Reading
	Loading bool
	Err     string
}
