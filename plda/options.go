package plda

import (
	"github.com/YuminosukeSato/goplda/preprocessing"
)

// Option is a configuration option for PLDA.
type Option func(*PLDA)

// WithReducer sets the dimensionality reducer applied before fitting and
// before every inference call. The default is the identity (no reduction).
// Configure a PCA reducer when the within-class scatter would be singular,
// typically when n_features > n_samples - n_classes.
func WithReducer(r preprocessing.Reducer) Option {
	return func(p *PLDA) {
		p.reducer = r
	}
}

// WithEigenSolver swaps the generalized eigensolver used during fitting.
// The default is CholeskySolver.
func WithEigenSolver(s EigenSolver) Option {
	return func(p *PLDA) {
		p.solver = s
	}
}

// WithPriorOdds sets the pi_diff/pi_same prior odds used by SameClass.
// The default is 1.0 (equal priors).
func WithPriorOdds(odds float64) Option {
	return func(p *PLDA) {
		p.priorOdds = odds
	}
}

// WithDiagonalResidualTol sets the relative off-diagonal residual above
// which fitting emits a DiagonalizationWarning. The default is 1e-6.
func WithDiagonalResidualTol(tol float64) Option {
	return func(p *PLDA) {
		p.diagTol = tol
	}
}
