// Package model defines the estimator contracts shared across goplda:
// fitted-state tracking, the Fitter/Predictor/Transformer interface
// families, and gob persistence helpers.
package model

import "sync"

// StateManager tracks whether an estimator has been fitted, along with the
// dimensions of the data it was fitted on. Estimators that guard their
// learned fields with their own mutex compose a StateManager rather than
// embedding BaseEstimator; Fit sets the flag last, so once IsFitted reports
// true the learned fields are complete and safe to read concurrently.
//
// Fields are exported so the struct can pass through encoding/gob; callers
// go through the accessors, which take the lock.
type StateManager struct {
	Fitted    bool
	NFeatures int
	NSamples  int

	mu sync.RWMutex
}

// NewStateManager returns a StateManager in the unfitted state.
func NewStateManager() *StateManager {
	return &StateManager{}
}

// IsFitted reports whether the estimator has completed a successful fit.
func (s *StateManager) IsFitted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Fitted
}

// SetFitted marks the estimator as fitted. Call it only after every learned
// field has been published.
func (s *StateManager) SetFitted() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Fitted = true
}

// Reset returns the estimator to the unfitted state and clears the recorded
// dimensions. Used when a fit fails partway so no partial model is observable.
func (s *StateManager) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Fitted = false
	s.NFeatures = 0
	s.NSamples = 0
}

// SetDimensions records the feature and sample counts of the training data.
func (s *StateManager) SetDimensions(nFeatures, nSamples int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.NFeatures = nFeatures
	s.NSamples = nSamples
}

// GetDimensions returns the feature and sample counts recorded at fit time.
func (s *StateManager) GetDimensions() (nFeatures, nSamples int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.NFeatures, s.NSamples
}
