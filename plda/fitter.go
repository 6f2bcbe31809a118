package plda

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/goplda/pkg/errors"
)

// defaultDiagonalResidualTol is the relative off-diagonal residual above
// which the fitter emits a DiagonalizationWarning.
const defaultDiagonalResidualTol = 1e-6

// FitParameters fits a PLDA parameter set on labeled data with the default
// Cholesky eigensolver and warning tolerance. X is (n_samples x n_features),
// y holds one integer class id per row. The estimator facade exposes the
// same fit with configurable collaborators.
func FitParameters(X mat.Matrix, y []int) (*Parameters, error) {
	return fitParameters(X, y, CholeskySolver{}, defaultDiagonalResidualTol)
}

// fitParameters is the closed-form Ioffe (2006) fit:
//
//  1. scatter matrices S_b, S_w from per-class moments
//  2. generalized eigenproblem S_b w = lambda S_w w
//  3. Lambda_b = diag(W^T S_b W), Lambda_w = diag(W^T S_w W)
//  4. A = (W^T)^{-1} diag(sqrt(n/(n-1) Lambda_w)), with n the average
//     examples per class
//  5. Psi = max(0, (n-1)/n * Lambda_b/Lambda_w - 1/n)
//
// Unequal class sizes go through the average count n, the approximation the
// reference formulation makes; it is not an error.
func fitParameters(X mat.Matrix, y []int, solver EigenSolver, diagTol float64) (*Parameters, error) {
	n, f := X.Dims()
	if n == 0 || f == 0 {
		return nil, errors.NewModelError("FitParameters", "empty data", errors.ErrEmptyData)
	}
	if len(y) != n {
		return nil, errors.NewDimensionError("FitParameters", n, len(y), 0)
	}

	classes, byClass := groupByClass(y)
	k := len(classes)
	avg := float64(n) / float64(k)
	if k < 2 {
		return nil, errors.NewInvalidTrainingSetError("FitParameters", k, avg,
			"at least two classes are required")
	}
	if avg <= 1 {
		return nil, errors.NewInvalidTrainingSetError("FitParameters", k, avg,
			"average examples per class must exceed one")
	}

	stats, err := estimateScatter(X, classes, byClass)
	if err != nil {
		return nil, err
	}

	_, w, err := solver.SolveSymDefinite(stats.sb, stats.sw)
	if err != nil {
		return nil, err
	}

	// Diagonalize both scatters through W. In exact arithmetic the products
	// are diagonal; a large off-diagonal residual means the basis is inexact
	// and is reported as a warning, never a failure.
	lb, residB := diagonalize(w, stats.sb)
	lw, residW := diagonalize(w, stats.sw)
	if resid := math.Max(residB, residW); resid > diagTol {
		errors.Warn(errors.NewDiagonalizationWarning("FitParameters", resid, diagTol))
	}

	for _, v := range lw {
		if v <= 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, errors.NewNumericalInstabilityError("FitParameters", []float64{v})
		}
	}

	// A = (W^T)^{-1} D with D = diag(sqrt(n/(n-1) Lambda_w)), solved rather
	// than inverted; A^{-1} = D^{-1} W^T is assembled directly.
	dDiag := make([]float64, f)
	for i, v := range lw {
		dDiag[i] = math.Sqrt(avg / (avg - 1.0) * v)
	}

	var a mat.Dense
	if err := a.Solve(w.T(), mat.NewDiagDense(f, dDiag)); err != nil {
		return nil, errors.NewSingularScatterError("FitParameters", f, "eigenbasis is singular")
	}
	if err := errors.CheckMatrix("FitParameters", &a, f, f); err != nil {
		return nil, err
	}

	invA := mat.NewDense(f, f, nil)
	for i := 0; i < f; i++ {
		for j := 0; j < f; j++ {
			invA.Set(i, j, w.At(j, i)/dDiag[i])
		}
	}

	// Latent prior variances; finite-sample estimates can dip below zero
	// and are clamped per dimension.
	psi := make([]float64, f)
	for i := range psi {
		raw := (avg-1.0)/avg*(lb[i]/lw[i]) - 1.0/avg
		if raw > 0 {
			psi[i] = raw
		}
	}

	dims := relevantDimensions(psi)
	if len(dims) == 0 {
		return nil, errors.NewNoDiscriminativeDimensionsError("FitParameters", f)
	}

	return &Parameters{
		Mean:         stats.mean,
		A:            &a,
		Psi:          psi,
		RelevantDims: dims,
		invA:         invA,
	}, nil
}

// groupByClass splits row indices by class id; ids come back ascending so
// every downstream iteration is deterministic.
func groupByClass(y []int) ([]int, map[int][]int) {
	byClass := make(map[int][]int)
	for i, id := range y {
		byClass[id] = append(byClass[id], i)
	}
	classes := make([]int, 0, len(byClass))
	for id := range byClass {
		classes = append(classes, id)
	}
	sort.Ints(classes)
	return classes, byClass
}

// diagonalize computes W^T S W, returning its diagonal and the largest
// off-diagonal magnitude relative to the largest diagonal magnitude.
func diagonalize(w *mat.Dense, s mat.Symmetric) (diag []float64, residual float64) {
	n := s.SymmetricDim()

	var tmp, prod mat.Dense
	tmp.Mul(w.T(), s)
	prod.Mul(&tmp, w)

	diag = make([]float64, n)
	maxDiag := 0.0
	for i := 0; i < n; i++ {
		diag[i] = prod.At(i, i)
		if v := math.Abs(diag[i]); v > maxDiag {
			maxDiag = v
		}
	}

	maxOff := 0.0
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			if v := math.Abs(prod.At(i, j)); v > maxOff {
				maxOff = v
			}
		}
	}

	if maxDiag == 0 {
		return diag, maxOff
	}
	return diag, maxOff / maxDiag
}
