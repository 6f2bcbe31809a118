package plda

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/goplda/pkg/errors"
)

// GaussianParams describes a diagonal Gaussian over the relevant latent
// dimensions. It is used for the class-center prior, the per-class
// posteriors, and the posterior predictives.
type GaussianParams struct {
	Mean    []float64
	CovDiag []float64
}

// Clone returns an independent copy.
func (g GaussianParams) Clone() GaussianParams {
	mean := make([]float64, len(g.Mean))
	copy(mean, g.Mean)
	cov := make([]float64, len(g.CovDiag))
	copy(cov, g.CovDiag)
	return GaussianParams{Mean: mean, CovDiag: cov}
}

// PriorParams returns the prior over class centers in relevant latent
// space: zero mean with covariance Psi restricted to RelevantDims.
func PriorParams(p *Parameters) GaussianParams {
	return GaussianParams{
		Mean:    make([]float64, len(p.RelevantDims)),
		CovDiag: p.relevantPsi(),
	}
}

// PosteriorParams computes the posterior over a class center given the
// class's examples U (n x d, relevant latent space). With the within-class
// noise whitened to identity, the update is diagonal:
//
//	cov_post = psi / (1 + n psi)
//	mean_post = colsum(U) * cov_post
//
// elementwise per dimension. More examples always shrink the posterior:
// cov_post decreases monotonically in n and tends to zero.
func PosteriorParams(prior GaussianParams, U mat.Matrix) (GaussianParams, error) {
	n, d := U.Dims()
	if n == 0 {
		return GaussianParams{}, errors.NewEmptyGalleryError("PosteriorParams", -1)
	}
	if d != len(prior.CovDiag) {
		return GaussianParams{}, errors.NewDimensionError("PosteriorParams", len(prior.CovDiag), d, 1)
	}

	mean := make([]float64, d)
	cov := make([]float64, d)
	col := make([]float64, n)
	for j := 0; j < d; j++ {
		mat.Col(col, j, U)
		sum := floats.Sum(col)
		cov[j] = prior.CovDiag[j] / (1.0 + float64(n)*prior.CovDiag[j])
		mean[j] = sum * cov[j]
	}
	return GaussianParams{Mean: mean, CovDiag: cov}, nil
}

// PosteriorPredictiveParams turns a class-center posterior into the
// predictive distribution for a new example of that class: the mean is
// unchanged and the unit within-class variance is added, so the predictive
// covariance tends to one as the posterior sharpens.
func PosteriorPredictiveParams(post GaussianParams) GaussianParams {
	mean := make([]float64, len(post.Mean))
	copy(mean, post.Mean)
	cov := make([]float64, len(post.CovDiag))
	copy(cov, post.CovDiag)
	floats.AddConst(1.0, cov)
	return GaussianParams{Mean: mean, CovDiag: cov}
}
