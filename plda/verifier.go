package plda

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/goplda/pkg/errors"
)

const logTwoPi = 1.8378770664093453 // log(2 pi)

// Verification is the outcome of a same-class hypothesis test.
type Verification struct {
	// LogRatio is log R, the marginal-likelihood log-ratio of "one shared
	// class center" over "independent class centers". Positive favors same.
	LogRatio float64

	// Ratio is R itself, computed overflow-safe (clipped at exp(700)).
	Ratio float64

	// PriorOdds is the pi_diff/pi_same ratio the decision used.
	PriorOdds float64

	// SameClass reports LogRatio > log(PriorOdds), the Bayes decision.
	SameClass bool
}

// MarginalLogLikelihood evaluates the log-likelihood of U (n x d, relevant
// latent space, already centered by ToLatent) under the hypothesis that all
// n rows share one class center drawn from the prior. Per dimension t with
// psi the prior variance:
//
//	logC = -1/2 log(2 pi) - 1/2 log(n psi + 1)
//	E1   =  1/2 n^2 psi mean(u_t)^2 / (n psi + 1)
//	E2   = -1/2 sum_i u_ti^2
//
// and the total is the sum of logC + E1 + E2 over dimensions.
func MarginalLogLikelihood(prior GaussianParams, U mat.Matrix) (float64, error) {
	n, d := U.Dims()
	if n == 0 {
		return 0, errors.NewEmptyExampleSetError("MarginalLogLikelihood", "example")
	}
	if d != len(prior.CovDiag) {
		return 0, errors.NewDimensionError("MarginalLogLikelihood", len(prior.CovDiag), d, 1)
	}

	nf := float64(n)
	col := make([]float64, n)
	total := 0.0
	for t := 0; t < d; t++ {
		mat.Col(col, t, U)
		sum := floats.Sum(col)
		sumSq := floats.Dot(col, col)

		psi := prior.CovDiag[t]
		denom := nf*psi + 1.0
		mean := sum / nf

		logC := -0.5*logTwoPi - 0.5*math.Log(denom)
		e1 := 0.5 * nf * nf * psi * mean * mean / denom
		e2 := -0.5 * sumSq
		total += logC + e1 + e2
	}

	return total, errors.CheckScalar("MarginalLogLikelihood", total)
}

// SameClassLogRatio returns the log-likelihood ratio
//
//	log R = MLL(probe ++ gallery) - MLL(probe) - MLL(gallery)
//
// comparing "probe and gallery share one class center" against "each set
// has its own". Both sets live in relevant latent space. Positive favors
// the same-class hypothesis.
func SameClassLogRatio(prior GaussianParams, probe, gallery mat.Matrix) (float64, error) {
	np, dp := probe.Dims()
	ng, dg := gallery.Dims()
	if np == 0 {
		return 0, errors.NewEmptyExampleSetError("SameClassLogRatio", "probe")
	}
	if ng == 0 {
		return 0, errors.NewEmptyExampleSetError("SameClassLogRatio", "gallery")
	}
	if dp != len(prior.CovDiag) {
		return 0, errors.NewDimensionError("SameClassLogRatio", len(prior.CovDiag), dp, 1)
	}
	if dg != dp {
		return 0, errors.NewDimensionError("SameClassLogRatio", dp, dg, 1)
	}

	var combined mat.Dense
	combined.Stack(probe, gallery)

	mllSame, err := MarginalLogLikelihood(prior, &combined)
	if err != nil {
		return 0, err
	}
	mllProbe, err := MarginalLogLikelihood(prior, probe)
	if err != nil {
		return 0, err
	}
	mllGallery, err := MarginalLogLikelihood(prior, gallery)
	if err != nil {
		return 0, err
	}

	return mllSame - mllProbe - mllGallery, nil
}

// SameClassTest runs the Bayes decision on top of SameClassLogRatio.
// priorOdds is pi_diff/pi_same; 1.0 means equal priors. The comparison
// happens in log space (LogRatio > log(priorOdds)), which is equivalent to
// R > priorOdds but cannot overflow; the reported Ratio is clipped instead.
func SameClassTest(prior GaussianParams, probe, gallery mat.Matrix, priorOdds float64) (*Verification, error) {
	if priorOdds <= 0 {
		return nil, errors.NewValueError("SameClassTest",
			fmt.Sprintf("prior odds must be positive, got %g", priorOdds))
	}

	logRatio, err := SameClassLogRatio(prior, probe, gallery)
	if err != nil {
		return nil, err
	}

	return &Verification{
		LogRatio:  logRatio,
		Ratio:     errors.StabilizeExp(logRatio),
		PriorOdds: priorOdds,
		SameClass: logRatio > math.Log(priorOdds),
	}, nil
}
