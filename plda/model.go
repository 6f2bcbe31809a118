package plda

import (
	"fmt"
	"math"
	"sync"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/goplda/core/model"
	"github.com/YuminosukeSato/goplda/core/parallel"
	"github.com/YuminosukeSato/goplda/metrics"
	"github.com/YuminosukeSato/goplda/pkg/errors"
	"github.com/YuminosukeSato/goplda/pkg/log"
	"github.com/YuminosukeSato/goplda/preprocessing"
)

// PLDA is the Probabilistic Linear Discriminant Analysis estimator.
// Fit learns the latent-space parameters and per-class posteriors from
// labeled vectors; afterwards the model classifies, embeds (Transform),
// and runs same-class verification. A fitted model is immutable and safe
// for concurrent use.
type PLDA struct {
	// Fitted-state tracking and structured logging
	state  *model.StateManager
	logger log.Logger

	// Configuration
	reducer   preprocessing.Reducer
	solver    EigenSolver
	priorOdds float64
	diagTol   float64

	// Learned state, underscore suffix marks fields set by Fit
	params_      *Parameters
	classes_     []int // ascending
	posteriors_  map[int]GaussianParams
	predictives_ map[int]GaussianParams
	nFeatures_   int // pre-reduction feature count

	// Guards all mutable state above
	mu sync.RWMutex
}

// NewPLDA creates a new PLDA estimator.
func NewPLDA(options ...Option) *PLDA {
	p := &PLDA{
		reducer:   preprocessing.NewIdentityReducer(),
		solver:    CholeskySolver{},
		priorOdds: 1.0,
		diagTol:   defaultDiagonalResidualTol,
	}

	for _, opt := range options {
		opt(p)
	}

	p.state = model.NewStateManager()
	p.logger = log.GetLoggerWithName("PLDA")

	return p
}

// Fit trains the model on X (n_samples x n_features) with integer class
// ids in the column vector y. Training is single-pass and closed-form; on
// any error the estimator is left unfitted with no partial state.
func (p *PLDA) Fit(X, y mat.Matrix) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	// Drop any previous fit so a failed call never leaves a partial model
	p.reset()

	if err := p.validateInput(X, y); err != nil {
		return err
	}

	rows, cols := X.Dims()
	start := time.Now()

	labels := make([]int, rows)
	for i := 0; i < rows; i++ {
		labels[i] = int(y.At(i, 0))
	}

	reduced, err := p.reducer.FitTransform(X)
	if err != nil {
		return err
	}

	params, err := fitParameters(reduced, labels, p.solver, p.diagTol)
	if err != nil {
		return err
	}

	// Per-class posteriors and predictives over the training data, in
	// ascending class order.
	latent, err := params.ToLatent(reduced)
	if err != nil {
		return err
	}
	relevant, err := params.ToRelevant(latent)
	if err != nil {
		return err
	}

	classes, byClass := groupByClass(labels)
	prior := PriorParams(params)
	d := len(params.RelevantDims)

	posteriors := make(map[int]GaussianParams, len(classes))
	predictives := make(map[int]GaussianParams, len(classes))
	for _, id := range classes {
		idx := byClass[id]
		sub := mat.NewDense(len(idx), d, nil)
		for ri, r := range idx {
			for j := 0; j < d; j++ {
				sub.Set(ri, j, relevant.At(r, j))
			}
		}
		post, err := PosteriorParams(prior, sub)
		if err != nil {
			return err
		}
		posteriors[id] = post
		predictives[id] = PosteriorPredictiveParams(post)
	}

	p.params_ = params
	p.classes_ = classes
	p.posteriors_ = posteriors
	p.predictives_ = predictives
	p.nFeatures_ = cols

	p.state.SetDimensions(cols, rows)
	p.state.SetFitted()

	p.logger.Info("PLDA model fitted",
		log.OperationKey, log.OperationFit,
		log.PhaseKey, log.PhaseTraining,
		log.SamplesKey, rows,
		log.FeaturesKey, cols,
		log.ClassesKey, len(classes),
		log.LatentDimsKey, params.Dim(),
		log.RelevantDimsKey, len(params.RelevantDims),
		log.DurationMsKey, time.Since(start).Milliseconds())

	return nil
}

// Predict classifies each row of X and returns the class ids as an
// (n_samples x 1) matrix. Ties resolve to the lowest class id.
func (p *PLDA) Predict(X mat.Matrix) (mat.Matrix, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if !p.state.IsFitted() {
		return nil, errors.NewNotFittedError("PLDA", "Predict")
	}

	nProbes, _ := X.Dims()
	p.logger.Debug("classifying probes",
		log.OperationKey, log.OperationPredict,
		log.PhaseKey, log.PhaseInference,
		log.SamplesKey, nProbes)

	relevant, err := p.toRelevantLatent(X, "Predict")
	if err != nil {
		return nil, err
	}

	rows, _ := relevant.Dims()
	predictions := mat.NewDense(rows, 1, nil)
	errs := make([]error, rows)

	const parallelThreshold = 1000
	parallel.ParallelizeWithThreshold(rows, parallelThreshold, func(start, end int) {
		for i := start; i < end; i++ {
			probe := mat.Row(nil, i, relevant)
			id, _, err := ClassifyLatent(probe, p.classes_, p.predictives_)
			if err != nil {
				errs[i] = err
				continue
			}
			predictions.Set(i, 0, float64(id))
		}
	})

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return predictions, nil
}

// PredictLogProba returns the (n_samples x n_classes) matrix of
// log-posterior class probabilities, columns in ascending class-id order.
// Each row is normalized with a log-sum-exp, so its exponentials sum to 1.
func (p *PLDA) PredictLogProba(X mat.Matrix) (mat.Matrix, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if !p.state.IsFitted() {
		return nil, errors.NewNotFittedError("PLDA", "PredictLogProba")
	}

	relevant, err := p.toRelevantLatent(X, "PredictLogProba")
	if err != nil {
		return nil, err
	}

	rows, _ := relevant.Dims()
	logProba := mat.NewDense(rows, len(p.classes_), nil)
	errs := make([]error, rows)

	const parallelThreshold = 1000
	parallel.ParallelizeWithThreshold(rows, parallelThreshold, func(start, end int) {
		for i := start; i < end; i++ {
			probe := mat.Row(nil, i, relevant)
			_, logps, err := ClassifyLatent(probe, p.classes_, p.predictives_)
			if err != nil {
				errs[i] = err
				continue
			}
			norm := errors.LogSumExp(logps)
			for c := range logps {
				logProba.Set(i, c, logps[c]-norm)
			}
		}
	})

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return logProba, nil
}

// PredictProba returns the (n_samples x n_classes) matrix of posterior
// class probabilities; each row sums to 1.
func (p *PLDA) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	logProba, err := p.PredictLogProba(X)
	if err != nil {
		return nil, err
	}

	rows, cols := logProba.Dims()
	proba := mat.NewDense(rows, cols, nil)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			proba.Set(i, j, math.Exp(logProba.At(i, j)))
		}
	}
	return proba, nil
}

// Score returns the mean accuracy of Predict on the given test data.
func (p *PLDA) Score(X, y mat.Matrix) (float64, error) {
	predictions, err := p.Predict(X)
	if err != nil {
		return 0, err
	}

	yRows, _ := y.Dims()
	if yRows == 0 {
		return 0, errors.NewValueError("PLDA.Score", "y must not be empty")
	}
	pRows, _ := predictions.Dims()

	yTrue := mat.NewVecDense(yRows, nil)
	for i := 0; i < yRows; i++ {
		yTrue.SetVec(i, y.At(i, 0))
	}
	yPred := mat.NewVecDense(pRows, nil)
	for i := 0; i < pRows; i++ {
		yPred.SetVec(i, predictions.At(i, 0))
	}

	return metrics.Accuracy(yTrue, yPred)
}

// Transform embeds rows of X into the relevant latent subspace, the
// coordinates where classes actually differ.
func (p *PLDA) Transform(X mat.Matrix) (mat.Matrix, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if !p.state.IsFitted() {
		return nil, errors.NewNotFittedError("PLDA", "Transform")
	}
	return p.toRelevantLatent(X, "Transform")
}

// InverseTransform maps relevant-latent coordinates back to data space,
// zero-filling the non-discriminative latent dimensions. Round-tripping
// through Transform reproduces the input up to the information discarded
// by the reducer and the clamped dimensions.
func (p *PLDA) InverseTransform(U mat.Matrix) (mat.Matrix, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if !p.state.IsFitted() {
		return nil, errors.NewNotFittedError("PLDA", "InverseTransform")
	}

	full, err := p.params_.ToFull(U)
	if err != nil {
		return nil, err
	}
	reduced, err := p.params_.ToData(full)
	if err != nil {
		return nil, err
	}
	return p.reducer.InverseTransform(reduced)
}

// SameClass tests whether probe and gallery (rows of data-space examples)
// share a class, using the prior odds configured with WithPriorOdds.
func (p *PLDA) SameClass(probe, gallery mat.Matrix) (*Verification, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if !p.state.IsFitted() {
		return nil, errors.NewNotFittedError("PLDA", "SameClass")
	}

	pr, gr, err := p.verificationSets(probe, gallery, "SameClass")
	if err != nil {
		return nil, err
	}
	return SameClassTest(PriorParams(p.params_), pr, gr, p.priorOdds)
}

// LogRatio returns the same-class log-likelihood ratio for probe and
// gallery without applying a decision threshold. Use it to build score
// distributions or ROC curves over example-set pairs.
func (p *PLDA) LogRatio(probe, gallery mat.Matrix) (float64, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if !p.state.IsFitted() {
		return 0, errors.NewNotFittedError("PLDA", "LogRatio")
	}

	pr, gr, err := p.verificationSets(probe, gallery, "LogRatio")
	if err != nil {
		return 0, err
	}
	return SameClassLogRatio(PriorParams(p.params_), pr, gr)
}

// verificationSets projects both example sets into relevant latent space,
// rejecting empty sets before any matrix work.
func (p *PLDA) verificationSets(probe, gallery mat.Matrix, op string) (*mat.Dense, *mat.Dense, error) {
	if r, _ := probe.Dims(); r == 0 {
		return nil, nil, errors.NewEmptyExampleSetError(op, "probe")
	}
	if r, _ := gallery.Dims(); r == 0 {
		return nil, nil, errors.NewEmptyExampleSetError(op, "gallery")
	}

	pr, err := p.toRelevantLatent(probe, op)
	if err != nil {
		return nil, nil, err
	}
	gr, err := p.toRelevantLatent(gallery, op)
	if err != nil {
		return nil, nil, err
	}
	return pr, gr, nil
}

// toRelevantLatent runs the full data-to-latent pipeline: reduce, map
// through A^{-1}, select the relevant dimensions.
func (p *PLDA) toRelevantLatent(X mat.Matrix, op string) (*mat.Dense, error) {
	rows, cols := X.Dims()
	if rows == 0 {
		return nil, errors.NewModelError(op, "empty data", errors.ErrEmptyData)
	}
	if cols != p.nFeatures_ {
		return nil, errors.NewDimensionError(op, p.nFeatures_, cols, 1)
	}

	reduced, err := p.reducer.Transform(X)
	if err != nil {
		return nil, err
	}
	latent, err := p.params_.ToLatent(reduced)
	if err != nil {
		return nil, err
	}
	return p.params_.ToRelevant(latent)
}

// Params returns the fitted parameter set, or nil before fitting. The
// returned value is shared and must be treated as read-only.
func (p *PLDA) Params() *Parameters {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.params_
}

// Classes returns the class labels seen during fitting, ascending.
func (p *PLDA) Classes() []int {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.classes_ == nil {
		return nil
	}
	classes := make([]int, len(p.classes_))
	copy(classes, p.classes_)
	return classes
}

// NFeatures returns the pre-reduction feature count seen during fitting.
func (p *PLDA) NFeatures() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.nFeatures_
}

// Prior returns the latent prior over class centers.
func (p *PLDA) Prior() (GaussianParams, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if !p.state.IsFitted() {
		return GaussianParams{}, errors.NewNotFittedError("PLDA", "Prior")
	}
	return PriorParams(p.params_), nil
}

// Posterior returns the class-center posterior for a training class.
func (p *PLDA) Posterior(classID int) (GaussianParams, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if !p.state.IsFitted() {
		return GaussianParams{}, errors.NewNotFittedError("PLDA", "Posterior")
	}
	post, ok := p.posteriors_[classID]
	if !ok {
		return GaussianParams{}, errors.NewValueError("Posterior",
			fmt.Sprintf("unknown class id %d", classID))
	}
	return post.Clone(), nil
}

// PosteriorPredictive returns the predictive distribution for new examples
// of a training class.
func (p *PLDA) PosteriorPredictive(classID int) (GaussianParams, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if !p.state.IsFitted() {
		return GaussianParams{}, errors.NewNotFittedError("PLDA", "PosteriorPredictive")
	}
	pred, ok := p.predictives_[classID]
	if !ok {
		return GaussianParams{}, errors.NewValueError("PosteriorPredictive",
			fmt.Sprintf("unknown class id %d", classID))
	}
	return pred.Clone(), nil
}

// validateInput validates the training data shapes.
func (p *PLDA) validateInput(X, y mat.Matrix) error {
	xRows, xCols := X.Dims()
	yRows, yCols := y.Dims()

	if xRows == 0 || xCols == 0 {
		return errors.NewModelError("PLDA.Fit", "empty data", errors.ErrEmptyData)
	}
	if xRows != yRows {
		return fmt.Errorf("x and y must have the same number of samples: got %d and %d", xRows, yRows)
	}
	if yCols != 1 {
		return fmt.Errorf("y must be a column vector: got shape (%d, %d)", yRows, yCols)
	}
	return nil
}

// reset clears the learned state.
func (p *PLDA) reset() {
	p.params_ = nil
	p.classes_ = nil
	p.posteriors_ = nil
	p.predictives_ = nil
	p.nFeatures_ = 0
	p.state.Reset()
}

// Interface compliance checks.
var (
	_ model.Fitter    = (*PLDA)(nil)
	_ model.Predictor = (*PLDA)(nil)
	_ model.Scorer    = (*PLDA)(nil)
)
