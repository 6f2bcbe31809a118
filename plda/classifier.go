package plda

import (
	"math"

	"github.com/YuminosukeSato/goplda/pkg/errors"
)

// LogDensityDiagonal evaluates the log-density of a diagonal Gaussian at x:
//
//	-1/2 * sum_t [ log(2 pi sigma_t) + (x_t - mu_t)^2 / sigma_t ]
//
// Only reciprocals of the diagonal variances appear; no matrix is formed or
// inverted. The slices must have equal length; the exported callers
// validate shapes before reaching this loop.
func LogDensityDiagonal(x, mean, covDiag []float64) float64 {
	sum := 0.0
	for t := range x {
		diff := x[t] - mean[t]
		sum += math.Log(2.0*math.Pi*covDiag[t]) + diff*diff/covDiag[t]
	}
	return -0.5 * sum
}

// ClassifyLatent scores a probe (relevant latent space) against the
// posterior predictive of every class and returns the winning class id
// together with the unnormalized log-densities in classIDs order.
//
// classIDs is visited in the given ascending order with a strict greater-
// than comparison, so ties resolve to the lowest class id and repeated
// calls return identical results.
func ClassifyLatent(probe []float64, classIDs []int, predictive map[int]GaussianParams) (int, []float64, error) {
	if len(classIDs) == 0 {
		return 0, nil, errors.NewEmptyGalleryError("ClassifyLatent", -1)
	}
	first, ok := predictive[classIDs[0]]
	if !ok {
		return 0, nil, errors.NewEmptyGalleryError("ClassifyLatent", classIDs[0])
	}
	if len(probe) != len(first.Mean) {
		return 0, nil, errors.NewDimensionError("ClassifyLatent", len(first.Mean), len(probe), 1)
	}

	logps := make([]float64, len(classIDs))
	best := classIDs[0]
	bestLp := math.Inf(-1)
	for i, id := range classIDs {
		g, ok := predictive[id]
		if !ok {
			return 0, nil, errors.NewEmptyGalleryError("ClassifyLatent", id)
		}
		lp := LogDensityDiagonal(probe, g.Mean, g.CovDiag)
		logps[i] = lp
		if lp > bestLp {
			bestLp = lp
			best = id
		}
	}
	return best, logps, nil
}
