package plda

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/goplda/core/parallel"
	"github.com/YuminosukeSato/goplda/pkg/errors"
)

// Parameters is a fitted PLDA parameter set. It is constructed once by the
// fitter (or rebuilt by the persistence layer) and never mutated, so a
// single instance is safe for unlimited concurrent readers.
//
// The latent space is defined by the invertible map A: within-class noise
// has identity covariance there and class centers are distributed as
// N(0, diag(Psi)). Only dimensions with Psi > 0 carry class information.
type Parameters struct {
	// Mean is the global mean m of the training data (post-reduction space).
	Mean *mat.VecDense

	// A is the invertible latent-space map (d x d).
	A *mat.Dense

	// Psi holds the latent prior variances, clamped at zero, in eigenvalue
	// order (ascending eigenvalues, so discriminative dimensions sit last).
	Psi []float64

	// RelevantDims lists the indices with Psi > 0, ascending.
	RelevantDims []int

	// invA caches A^{-1}; the fitter builds it directly from the eigenbasis
	// rather than inverting A.
	invA *mat.Dense
}

// NewParameters assembles a parameter set from its persisted parts and
// recomputes the cached inverse of A. RelevantDims may be nil, in which
// case it is derived from Psi.
func NewParameters(mean *mat.VecDense, a *mat.Dense, psi []float64, relevantDims []int) (*Parameters, error) {
	d := mean.Len()
	ar, ac := a.Dims()
	if ar != ac || ar != d {
		return nil, errors.NewDimensionError("NewParameters", d, ar, 0)
	}
	if len(psi) != d {
		return nil, errors.NewDimensionError("NewParameters", d, len(psi), 0)
	}
	for _, v := range psi {
		if v < 0 {
			return nil, errors.NewValueError("NewParameters",
				"psi must be non-negative (clamp before constructing)")
		}
	}

	if relevantDims == nil {
		relevantDims = relevantDimensions(psi)
	}
	if len(relevantDims) == 0 {
		return nil, errors.NewNoDiscriminativeDimensionsError("NewParameters", d)
	}

	var invA mat.Dense
	if err := invA.Inverse(a); err != nil {
		return nil, errors.Wrap(err, "matrix A is not invertible")
	}

	return &Parameters{
		Mean:         mean,
		A:            a,
		Psi:          psi,
		RelevantDims: relevantDims,
		invA:         &invA,
	}, nil
}

// relevantDimensions returns the indices with strictly positive prior
// variance, ascending.
func relevantDimensions(psi []float64) []int {
	dims := make([]int, 0, len(psi))
	for i, v := range psi {
		if v > 0 {
			dims = append(dims, i)
		}
	}
	return dims
}

// Dim returns the dimensionality of the latent space (post-reduction).
func (p *Parameters) Dim() int {
	return p.Mean.Len()
}

// relevantPsi returns Psi restricted to RelevantDims.
func (p *Parameters) relevantPsi() []float64 {
	out := make([]float64, len(p.RelevantDims))
	for i, d := range p.RelevantDims {
		out[i] = p.Psi[d]
	}
	return out
}

// ToLatent maps rows of X from data space into latent space:
//
//	U = (X - m) (A^{-1})^T
//
// A new matrix is returned; X is not modified.
func (p *Parameters) ToLatent(X mat.Matrix) (*mat.Dense, error) {
	r, c := X.Dims()
	if c != p.Dim() {
		return nil, errors.NewDimensionError("Parameters.ToLatent", p.Dim(), c, 1)
	}

	centered := mat.NewDense(r, c, nil)
	const parallelThreshold = 1000
	parallel.ParallelizeWithThreshold(r, parallelThreshold, func(start, end int) {
		for i := start; i < end; i++ {
			for j := 0; j < c; j++ {
				centered.Set(i, j, X.At(i, j)-p.Mean.AtVec(j))
			}
		}
	})

	u := mat.NewDense(r, c, nil)
	u.Mul(centered, p.invA.T())
	return u, nil
}

// ToData maps rows of U from latent space back to data space:
//
//	X = m + U A^T
//
// ToData(ToLatent(x)) reproduces x up to floating-point error.
func (p *Parameters) ToData(U mat.Matrix) (*mat.Dense, error) {
	r, c := U.Dims()
	if c != p.Dim() {
		return nil, errors.NewDimensionError("Parameters.ToData", p.Dim(), c, 1)
	}

	x := mat.NewDense(r, c, nil)
	x.Mul(U, p.A.T())

	const parallelThreshold = 1000
	parallel.ParallelizeWithThreshold(r, parallelThreshold, func(start, end int) {
		for i := start; i < end; i++ {
			for j := 0; j < c; j++ {
				x.Set(i, j, x.At(i, j)+p.Mean.AtVec(j))
			}
		}
	})
	return x, nil
}

// ToRelevant selects the RelevantDims columns of a latent matrix, the
// subspace where classes actually differ.
func (p *Parameters) ToRelevant(U mat.Matrix) (*mat.Dense, error) {
	r, c := U.Dims()
	if c != p.Dim() {
		return nil, errors.NewDimensionError("Parameters.ToRelevant", p.Dim(), c, 1)
	}

	out := mat.NewDense(r, len(p.RelevantDims), nil)
	for i := 0; i < r; i++ {
		for j, d := range p.RelevantDims {
			out.Set(i, j, U.At(i, d))
		}
	}
	return out, nil
}

// ToFull scatters a relevant-dimensions matrix back into the full latent
// space, zero-filling the clamped dimensions. ToRelevant(ToFull(u)) is
// exact; the dropped dimensions carry no class information.
func (p *Parameters) ToFull(Um mat.Matrix) (*mat.Dense, error) {
	r, c := Um.Dims()
	if c != len(p.RelevantDims) {
		return nil, errors.NewDimensionError("Parameters.ToFull", len(p.RelevantDims), c, 1)
	}

	out := mat.NewDense(r, p.Dim(), nil)
	for i := 0; i < r; i++ {
		for j, d := range p.RelevantDims {
			out.Set(i, d, Um.At(i, j))
		}
	}
	return out, nil
}
