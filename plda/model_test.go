package plda

import (
	"math"
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	pkgerrors "github.com/YuminosukeSato/goplda/pkg/errors"
	"github.com/YuminosukeSato/goplda/preprocessing"
)

func TestPLDAFitPredict(t *testing.T) {
	X, _, yMat := makeTwoClusters(50, 42)

	model := NewPLDA()
	require.NoError(t, model.Fit(X, yMat))

	assert.Equal(t, []int{0, 1}, model.Classes())
	assert.Equal(t, 2, model.NFeatures())
	require.NotNil(t, model.Params())

	probes := mat.NewDense(4, 2, []float64{
		0.5, -0.5,
		-1, 1,
		10.5, 9.5,
		9, 11,
	})
	pred, err := model.Predict(probes)
	require.NoError(t, err)

	r, c := pred.Dims()
	require.Equal(t, 4, r)
	require.Equal(t, 1, c)
	assert.Equal(t, 0.0, pred.At(0, 0))
	assert.Equal(t, 0.0, pred.At(1, 0))
	assert.Equal(t, 1.0, pred.At(2, 0))
	assert.Equal(t, 1.0, pred.At(3, 0))

	// Training data is linearly separable by a wide margin.
	acc, err := model.Score(X, yMat)
	require.NoError(t, err)
	assert.Equal(t, 1.0, acc)
}

func TestPLDAPredictProba(t *testing.T) {
	X, _, yMat := makeTwoClusters(40, 11)

	model := NewPLDA()
	require.NoError(t, model.Fit(X, yMat))

	probes := mat.NewDense(3, 2, []float64{
		0, 0,
		5, 5, // equidistant from both centers
		10, 10,
	})

	logProba, err := model.PredictLogProba(probes)
	require.NoError(t, err)
	proba, err := model.PredictProba(probes)
	require.NoError(t, err)

	r, c := proba.Dims()
	require.Equal(t, 3, r)
	require.Equal(t, 2, c)

	for i := 0; i < r; i++ {
		rowSum := 0.0
		for j := 0; j < c; j++ {
			p := proba.At(i, j)
			assert.GreaterOrEqual(t, p, 0.0, "proba[%d,%d]", i, j)
			assert.LessOrEqual(t, p, 1.0, "proba[%d,%d]", i, j)
			assert.InDelta(t, math.Exp(logProba.At(i, j)), p, 1e-12)
			rowSum += p
		}
		assert.InDelta(t, 1.0, rowSum, 1e-9, "row %d must sum to one", i)
	}

	// Certain cases saturate, the ambiguous one does not.
	assert.Greater(t, proba.At(0, 0), 0.99)
	assert.Greater(t, proba.At(2, 1), 0.99)
	assert.InDelta(t, 0.5, proba.At(1, 0), 0.2)

	// Argmax agrees with Predict.
	pred, err := model.Predict(probes)
	require.NoError(t, err)
	for i := 0; i < r; i++ {
		argmax := 0
		if proba.At(i, 1) > proba.At(i, 0) {
			argmax = 1
		}
		assert.Equal(t, float64(argmax), pred.At(i, 0), "row %d", i)
	}
}

func TestPLDAUnfitted(t *testing.T) {
	model := NewPLDA()
	X := mat.NewDense(1, 2, []float64{0, 0})

	var nfe *pkgerrors.NotFittedError

	_, err := model.Predict(X)
	assert.True(t, pkgerrors.As(err, &nfe), "Predict: %v", err)

	_, err = model.PredictLogProba(X)
	assert.True(t, pkgerrors.As(err, &nfe), "PredictLogProba: %v", err)

	_, err = model.Transform(X)
	assert.True(t, pkgerrors.As(err, &nfe), "Transform: %v", err)

	_, err = model.InverseTransform(X)
	assert.True(t, pkgerrors.As(err, &nfe), "InverseTransform: %v", err)

	_, err = model.SameClass(X, X)
	assert.True(t, pkgerrors.As(err, &nfe), "SameClass: %v", err)

	_, err = model.LogRatio(X, X)
	assert.True(t, pkgerrors.As(err, &nfe), "LogRatio: %v", err)

	_, err = model.Prior()
	assert.True(t, pkgerrors.As(err, &nfe), "Prior: %v", err)

	_, err = model.Posterior(0)
	assert.True(t, pkgerrors.As(err, &nfe), "Posterior: %v", err)

	assert.Nil(t, model.Params())
	assert.Nil(t, model.Classes())
}

func TestPLDAFitValidation(t *testing.T) {
	model := NewPLDA()

	t.Run("empty data", func(t *testing.T) {
		err := model.Fit(&mat.Dense{}, &mat.Dense{})
		assert.True(t, pkgerrors.Is(err, pkgerrors.ErrEmptyData), "got %v", err)
	})

	t.Run("sample count mismatch", func(t *testing.T) {
		X := mat.NewDense(3, 2, nil)
		y := mat.NewDense(2, 1, nil)
		err := model.Fit(X, y)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "same number of samples")
	})

	t.Run("y must be a column vector", func(t *testing.T) {
		X := mat.NewDense(3, 2, nil)
		y := mat.NewDense(3, 2, nil)
		err := model.Fit(X, y)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "column vector")
	})

	t.Run("predict dimension mismatch after fit", func(t *testing.T) {
		X, _, yMat := makeTwoClusters(10, 5)
		require.NoError(t, model.Fit(X, yMat))

		_, err := model.Predict(mat.NewDense(1, 3, []float64{0, 0, 0}))
		var de *pkgerrors.DimensionError
		require.True(t, pkgerrors.As(err, &de), "got %v", err)
		assert.Equal(t, 2, de.Expected)
		assert.Equal(t, 3, de.Got)
	})
}

func TestPLDATransformInverseTransform(t *testing.T) {
	X, _, yMat := makeTwoClusters(30, 21)

	model := NewPLDA()
	require.NoError(t, model.Fit(X, yMat))

	embedded, err := model.Transform(X)
	require.NoError(t, err)

	r, c := embedded.Dims()
	assert.Equal(t, 60, r)
	assert.Equal(t, len(model.Params().RelevantDims), c)

	back, err := model.InverseTransform(embedded)
	require.NoError(t, err)
	br, bc := back.Dims()
	assert.Equal(t, 60, br)
	assert.Equal(t, 2, bc)

	// Reconstruction drops the non-discriminative latent coordinates, so it
	// is a projection: running the round trip twice changes nothing.
	embedded2, err := model.Transform(back)
	require.NoError(t, err)
	assert.True(t, mat.EqualApprox(embedded, embedded2, 1e-8))

	back2, err := model.InverseTransform(embedded2)
	require.NoError(t, err)
	assert.True(t, mat.EqualApprox(back, back2, 1e-8))
}

func TestPLDAVerification(t *testing.T) {
	X, _, yMat := makeTwoClusters(50, 33)

	model := NewPLDA()
	require.NoError(t, model.Fit(X, yMat))

	rng := rand.New(rand.NewSource(99))
	fresh := func(center float64, n int) *mat.Dense {
		out := mat.NewDense(n, 2, nil)
		for i := 0; i < n; i++ {
			out.Set(i, 0, center+rng.NormFloat64())
			out.Set(i, 1, center+rng.NormFloat64())
		}
		return out
	}

	sameProbe, sameGallery := fresh(0, 3), fresh(0, 5)
	diffProbe, diffGallery := fresh(10, 3), fresh(0, 5)

	t.Run("same class accepted", func(t *testing.T) {
		v, err := model.SameClass(sameProbe, sameGallery)
		require.NoError(t, err)
		assert.True(t, v.SameClass)
		assert.Greater(t, v.LogRatio, 0.0)
	})

	t.Run("different classes rejected", func(t *testing.T) {
		v, err := model.SameClass(diffProbe, diffGallery)
		require.NoError(t, err)
		assert.False(t, v.SameClass)
		assert.Less(t, v.LogRatio, 0.0)
	})

	t.Run("log ratio matches verification", func(t *testing.T) {
		v, err := model.SameClass(sameProbe, sameGallery)
		require.NoError(t, err)
		ratio, err := model.LogRatio(sameProbe, sameGallery)
		require.NoError(t, err)
		assert.InDelta(t, v.LogRatio, ratio, 1e-12)
	})

	t.Run("empty sets rejected", func(t *testing.T) {
		var ese *pkgerrors.EmptyExampleSetError

		_, err := model.SameClass(&mat.Dense{}, sameGallery)
		require.True(t, pkgerrors.As(err, &ese), "got %v", err)
		assert.Equal(t, "probe", ese.Set)

		_, err = model.LogRatio(sameProbe, &mat.Dense{})
		require.True(t, pkgerrors.As(err, &ese), "got %v", err)
		assert.Equal(t, "gallery", ese.Set)
	})
}

func TestPLDAPosteriorAccessors(t *testing.T) {
	X, _, yMat := makeTwoClusters(50, 17)

	model := NewPLDA()
	require.NoError(t, model.Fit(X, yMat))

	prior, err := model.Prior()
	require.NoError(t, err)
	d := len(model.Params().RelevantDims)
	require.Len(t, prior.CovDiag, d)
	for i, v := range prior.CovDiag {
		assert.Greater(t, v, 0.0, "prior.CovDiag[%d]", i)
		assert.Equal(t, 0.0, prior.Mean[i])
	}

	post, err := model.Posterior(0)
	require.NoError(t, err)
	pred, err := model.PosteriorPredictive(0)
	require.NoError(t, err)

	require.Len(t, post.CovDiag, d)
	for i := range post.CovDiag {
		// 50 training examples shrink the posterior well below the prior;
		// the predictive re-adds the unit within-class variance.
		assert.Less(t, post.CovDiag[i], prior.CovDiag[i], "dim %d", i)
		assert.InDelta(t, post.CovDiag[i]+1.0, pred.CovDiag[i], 1e-12, "dim %d", i)
		assert.Equal(t, post.Mean[i], pred.Mean[i], "dim %d", i)
	}

	// Accessors return copies.
	post.CovDiag[0] = -99
	again, err := model.Posterior(0)
	require.NoError(t, err)
	assert.NotEqual(t, -99.0, again.CovDiag[0])

	_, err = model.Posterior(42)
	var ve *pkgerrors.ValueError
	assert.True(t, pkgerrors.As(err, &ve), "got %v", err)
	_, err = model.PosteriorPredictive(42)
	assert.True(t, pkgerrors.As(err, &ve), "got %v", err)
}

func TestPLDAWithPCAReducer(t *testing.T) {
	// Two clusters in 3-D where the third coordinate is small noise; PCA
	// keeps the two informative directions before the PLDA fit.
	rng := rand.New(rand.NewSource(8))
	const perClass = 40
	X := mat.NewDense(2*perClass, 3, nil)
	yMat := mat.NewDense(2*perClass, 1, nil)
	for c := 0; c < 2; c++ {
		center := float64(c) * 10.0
		for i := 0; i < perClass; i++ {
			row := c*perClass + i
			X.Set(row, 0, center+rng.NormFloat64())
			X.Set(row, 1, center+rng.NormFloat64())
			X.Set(row, 2, 0.01*rng.NormFloat64())
			yMat.Set(row, 0, float64(c))
		}
	}

	model := NewPLDA(WithReducer(preprocessing.NewPCA(2)))
	require.NoError(t, model.Fit(X, yMat))

	assert.Equal(t, 3, model.NFeatures())
	assert.Equal(t, 2, model.Params().Dim())

	acc, err := model.Score(X, yMat)
	require.NoError(t, err)
	assert.Equal(t, 1.0, acc)

	// InverseTransform goes back through the reducer to the original space.
	embedded, err := model.Transform(X)
	require.NoError(t, err)
	back, err := model.InverseTransform(embedded)
	require.NoError(t, err)
	_, bc := back.Dims()
	assert.Equal(t, 3, bc)
}

type recordingSolver struct {
	calls int
}

func (s *recordingSolver) SolveSymDefinite(sb, sw mat.Symmetric) ([]float64, *mat.Dense, error) {
	s.calls++
	return CholeskySolver{}.SolveSymDefinite(sb, sw)
}

func TestPLDAOptions(t *testing.T) {
	t.Run("custom eigensolver is used", func(t *testing.T) {
		solver := &recordingSolver{}
		model := NewPLDA(WithEigenSolver(solver))

		X, _, yMat := makeTwoClusters(10, 2)
		require.NoError(t, model.Fit(X, yMat))
		assert.Equal(t, 1, solver.calls)
	})

	t.Run("prior odds drive the decision", func(t *testing.T) {
		X, _, yMat := makeTwoClusters(50, 12)

		balanced := NewPLDA()
		require.NoError(t, balanced.Fit(X, yMat))

		skeptical := NewPLDA(WithPriorOdds(1e12))
		require.NoError(t, skeptical.Fit(X, yMat))

		probe := mat.NewDense(1, 2, []float64{0.2, -0.1})
		gallery := mat.NewDense(2, 2, []float64{0.5, 0.3, -0.4, 0.2})

		v1, err := balanced.SameClass(probe, gallery)
		require.NoError(t, err)
		assert.True(t, v1.SameClass)

		v2, err := skeptical.SameClass(probe, gallery)
		require.NoError(t, err)
		assert.InDelta(t, v1.LogRatio, v2.LogRatio, 1e-12, "odds must not change the ratio")
		assert.False(t, v2.SameClass)
	})

	t.Run("invalid prior odds surface on use", func(t *testing.T) {
		model := NewPLDA(WithPriorOdds(-1))
		X, _, yMat := makeTwoClusters(10, 4)
		require.NoError(t, model.Fit(X, yMat))

		probe := mat.NewDense(1, 2, []float64{0, 0})
		_, err := model.SameClass(probe, probe)
		var ve *pkgerrors.ValueError
		assert.True(t, pkgerrors.As(err, &ve), "got %v", err)
	})
}

func TestPLDARefitReplacesState(t *testing.T) {
	model := NewPLDA()

	X1, _, y1 := makeTwoClusters(20, 6)
	require.NoError(t, model.Fit(X1, y1))
	assert.Equal(t, []int{0, 1}, model.Classes())

	// Refit with shifted labels; the old classes must be gone.
	rows, _ := y1.Dims()
	y2 := mat.NewDense(rows, 1, nil)
	for i := 0; i < rows; i++ {
		y2.Set(i, 0, y1.At(i, 0)+5)
	}
	require.NoError(t, model.Fit(X1, y2))
	assert.Equal(t, []int{5, 6}, model.Classes())

	pred, err := model.Predict(mat.NewDense(1, 2, []float64{0, 0}))
	require.NoError(t, err)
	assert.Equal(t, 5.0, pred.At(0, 0))

	_, err = model.Posterior(0)
	var ve *pkgerrors.ValueError
	assert.True(t, pkgerrors.As(err, &ve), "stale class id must be rejected, got %v", err)
}

func TestPLDAConcurrentInference(t *testing.T) {
	X, _, yMat := makeTwoClusters(50, 27)

	model := NewPLDA()
	require.NoError(t, model.Fit(X, yMat))

	probes := mat.NewDense(10, 2, nil)
	for i := 0; i < 10; i++ {
		center := float64(i%2) * 10.0
		probes.Set(i, 0, center)
		probes.Set(i, 1, center)
	}

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for iter := 0; iter < 20; iter++ {
				if _, err := model.Predict(probes); err != nil {
					errs[g] = err
					return
				}
				if _, err := model.Transform(probes); err != nil {
					errs[g] = err
					return
				}
			}
		}(g)
	}
	wg.Wait()

	for g, err := range errs {
		assert.NoError(t, err, "goroutine %d", g)
	}
}
