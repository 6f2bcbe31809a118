package plda

import (
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/goplda/core/parallel"
	"github.com/YuminosukeSato/goplda/pkg/errors"
)

// classStat holds the first and second moments of a single class.
type classStat struct {
	id    int
	count int
	mean  *mat.VecDense
	cov   *mat.SymDense // unbiased (n_k - 1 denominator)
}

// scatterStats holds the dataset-level statistics the fitter consumes.
type scatterStats struct {
	n       int         // total examples
	f       int         // features
	classes []int       // ascending class ids
	counts  map[int]int // examples per class
	mean    *mat.VecDense
	sb      *mat.SymDense // between-class scatter
	sw      *mat.SymDense // within-class scatter
}

// estimateScatter computes per-class moments and aggregates them into the
// between-class and within-class scatter matrices
//
//	S_b = sum_k (n_k/N) (m_k - m)(m_k - m)^T
//	S_w = sum_k ((n_k-1)/N) cov_k
//
// where m is the global mean. Per-class moments are independent, so they
// are computed in parallel; the reduction runs sequentially in ascending
// class order so the result is deterministic.
//
// Any class with fewer than two examples makes the unbiased covariance
// undefined and returns a DegenerateClassError.
func estimateScatter(X mat.Matrix, classes []int, byClass map[int][]int) (*scatterStats, error) {
	n, f := X.Dims()

	stats := make([]classStat, len(classes))
	errs := make([]error, len(classes))

	// Per-class covariance is O(n_k * f^2), so parallelize even for a
	// handful of classes.
	const parallelThreshold = 4
	parallel.ParallelizeWithThreshold(len(classes), parallelThreshold, func(start, end int) {
		for ci := start; ci < end; ci++ {
			id := classes[ci]
			idx := byClass[id]
			if len(idx) < 2 {
				errs[ci] = errors.NewDegenerateClassError("estimateScatter", id, len(idx))
				continue
			}

			sub := mat.NewDense(len(idx), f, nil)
			for i, ri := range idx {
				for j := 0; j < f; j++ {
					sub.Set(i, j, X.At(ri, j))
				}
			}

			mean := mat.NewVecDense(f, nil)
			for j := 0; j < f; j++ {
				sum := 0.0
				for i := 0; i < len(idx); i++ {
					sum += sub.At(i, j)
				}
				mean.SetVec(j, sum/float64(len(idx)))
			}

			cov := mat.NewSymDense(f, nil)
			stat.CovarianceMatrix(cov, sub, nil)

			stats[ci] = classStat{id: id, count: len(idx), mean: mean, cov: cov}
		}
	})

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	// Global mean over all examples.
	mean := mat.NewVecDense(f, nil)
	for j := 0; j < f; j++ {
		sum := 0.0
		for i := 0; i < n; i++ {
			sum += X.At(i, j)
		}
		mean.SetVec(j, sum/float64(n))
	}

	// Sequential reduction in class order.
	sb := mat.NewSymDense(f, nil)
	sw := mat.NewSymDense(f, nil)
	diff := mat.NewVecDense(f, nil)
	for _, cs := range stats {
		diff.SubVec(cs.mean, mean)
		sb.SymRankOne(sb, float64(cs.count)/float64(n), diff)

		w := float64(cs.count-1) / float64(n)
		for i := 0; i < f; i++ {
			for j := i; j < f; j++ {
				sw.SetSym(i, j, sw.At(i, j)+w*cs.cov.At(i, j))
			}
		}
	}

	counts := make(map[int]int, len(stats))
	for _, cs := range stats {
		counts[cs.id] = cs.count
	}

	return &scatterStats{
		n:       n,
		f:       f,
		classes: classes,
		counts:  counts,
		mean:    mean,
		sb:      sb,
		sw:      sw,
	}, nil
}
