package plda

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/goplda/pkg/errors"
)

// EigenSolver solves the generalized symmetric-definite eigenproblem
//
//	S_b w = lambda S_w w
//
// for symmetric S_b and symmetric positive-definite S_w. Implementations
// return eigenvalues in ascending order and eigenvectors as the columns of
// W with W^T S_w W = I. The interface is exactly the one operation the
// fitter consumes, so alternative decompositions can be swapped in through
// WithEigenSolver.
type EigenSolver interface {
	SolveSymDefinite(sb, sw mat.Symmetric) (values []float64, w *mat.Dense, err error)
}

// CholeskySolver solves the generalized problem by reducing it to a
// standard symmetric eigenproblem through the Cholesky factor of S_w:
//
//	S_w = L L^T,  C = L^{-1} S_b L^{-T},  W = L^{-T} V
//
// where C V = V diag(lambda). The columns of W are S_w-orthonormal by
// construction. A failed factorization means S_w is not positive definite
// (typically n_features > n_samples - n_classes) and is reported as a
// SingularScatterError.
type CholeskySolver struct{}

// SolveSymDefinite implements EigenSolver.
func (CholeskySolver) SolveSymDefinite(sb, sw mat.Symmetric) (values []float64, w *mat.Dense, err error) {
	// gonum panics on shape violations; surface them as errors.
	defer errors.Recover(&err, "CholeskySolver.SolveSymDefinite")

	n := sw.SymmetricDim()
	if got := sb.SymmetricDim(); got != n {
		return nil, nil, errors.NewDimensionError("CholeskySolver.SolveSymDefinite", n, got, 0)
	}

	var chol mat.Cholesky
	if ok := chol.Factorize(sw); !ok {
		return nil, nil, errors.NewSingularScatterError("CholeskySolver.SolveSymDefinite", n,
			"Cholesky factorization failed")
	}

	var l mat.TriDense
	chol.LTo(&l)

	// Reduce to the standard problem: Y = L^{-1} S_b, then C = Y L^{-T}
	// computed as C^T = L^{-1} Y^T.
	sbDense := mat.NewDense(n, n, nil)
	sbDense.Copy(sb)

	var y mat.Dense
	if err := y.Solve(&l, sbDense); err != nil {
		return nil, nil, errors.NewSingularScatterError("CholeskySolver.SolveSymDefinite", n,
			"triangular solve failed")
	}
	var ct mat.Dense
	if err := ct.Solve(&l, y.T()); err != nil {
		return nil, nil, errors.NewSingularScatterError("CholeskySolver.SolveSymDefinite", n,
			"triangular solve failed")
	}

	// C is symmetric up to round-off; average the residual away so the
	// symmetric eigensolver sees an exactly symmetric matrix.
	c := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			c.SetSym(i, j, 0.5*(ct.At(j, i)+ct.At(i, j)))
		}
	}

	var eig mat.EigenSym
	if ok := eig.Factorize(c, true); !ok {
		return nil, nil, errors.NewModelError("CholeskySolver.SolveSymDefinite",
			"eigendecomposition did not converge", nil)
	}
	values = eig.Values(nil)

	var v mat.Dense
	eig.VectorsTo(&v)

	// Back-substitute W = L^{-T} V by solving L^T W = V.
	w = mat.NewDense(n, n, nil)
	if err := w.Solve(l.T(), &v); err != nil {
		return nil, nil, errors.NewSingularScatterError("CholeskySolver.SolveSymDefinite", n,
			"triangular solve failed")
	}
	return values, w, nil
}

var _ EigenSolver = CholeskySolver{}
