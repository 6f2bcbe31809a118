package plda

import (
	"bytes"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/goplda/core/model"
	"github.com/YuminosukeSato/goplda/pkg/errors"
	"github.com/YuminosukeSato/goplda/pkg/log"
	"github.com/YuminosukeSato/goplda/preprocessing"
)

// paramsFormatVersion is the JSON interchange version written by
// ExportParams and accepted by ImportParams.
const paramsFormatVersion = "1.0"

// gaussianState is the wire form of GaussianParams.
type gaussianState struct {
	Mean    []float64
	CovDiag []float64
}

// pldaState is the gob wire form of a fitted estimator. gonum matrices have
// no exported fields, so the parameters are flattened into plain slices. The
// reducer travels through gob's interface registry; the preprocessing
// package registers its implementations, custom reducers must be registered
// by the caller.
type pldaState struct {
	NFeatures    int
	NSamples     int
	Mean         []float64
	ARows, ACols int
	AData        []float64
	Psi          []float64
	RelevantDims []int
	Classes      []int
	Posteriors   []gaussianState // aligned with Classes
	Predictives  []gaussianState
	PriorOdds    float64
	Reducer      preprocessing.Reducer
}

// GobEncode snapshots the fitted estimator: parameters, class table,
// per-class Gaussians, prior odds, and the reducer. Fit-time collaborators
// (the eigensolver and the warning tolerance) are not part of the snapshot;
// a reloaded model falls back to the defaults if refitted. Encoding an
// unfitted model returns NotFittedError.
func (p *PLDA) GobEncode() ([]byte, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.state == nil || !p.state.IsFitted() {
		return nil, errors.NewNotFittedError("PLDA", "GobEncode")
	}

	f := p.params_.Dim()
	state := pldaState{
		NFeatures:    p.nFeatures_,
		Mean:         make([]float64, f),
		ARows:        f,
		ACols:        f,
		AData:        make([]float64, 0, f*f),
		Psi:          append([]float64(nil), p.params_.Psi...),
		RelevantDims: append([]int(nil), p.params_.RelevantDims...),
		Classes:      append([]int(nil), p.classes_...),
		PriorOdds:    p.priorOdds,
		Reducer:      p.reducer,
	}
	_, state.NSamples = p.state.GetDimensions()

	for i := 0; i < f; i++ {
		state.Mean[i] = p.params_.Mean.AtVec(i)
		state.AData = append(state.AData, p.params_.A.RawRowView(i)...)
	}

	state.Posteriors = make([]gaussianState, len(state.Classes))
	state.Predictives = make([]gaussianState, len(state.Classes))
	for i, id := range state.Classes {
		post := p.posteriors_[id]
		pred := p.predictives_[id]
		state.Posteriors[i] = gaussianState{Mean: post.Mean, CovDiag: post.CovDiag}
		state.Predictives[i] = gaussianState{Mean: pred.Mean, CovDiag: pred.CovDiag}
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(state); err != nil {
		return nil, errors.Wrap(err, "failed to encode PLDA state")
	}
	return buf.Bytes(), nil
}

// GobDecode restores a fitted estimator from a GobEncode snapshot. The
// parameter set is validated and its cached inverse rebuilt before any
// receiver state changes, so a corrupt payload leaves the receiver as it
// was.
func (p *PLDA) GobDecode(data []byte) error {
	var state pldaState
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&state); err != nil {
		return errors.Wrap(err, "failed to decode PLDA state")
	}

	if len(state.Mean) == 0 || state.ARows != len(state.Mean) ||
		len(state.AData) != state.ARows*state.ACols {
		return errors.NewValueError("PLDA.GobDecode",
			"snapshot parameters are missing or inconsistent")
	}
	if len(state.Posteriors) != len(state.Classes) || len(state.Predictives) != len(state.Classes) {
		return errors.NewValueError("PLDA.GobDecode",
			"class table and posterior tables disagree")
	}

	mean := mat.NewVecDense(len(state.Mean), state.Mean)
	a := mat.NewDense(state.ARows, state.ACols, state.AData)
	params, err := NewParameters(mean, a, state.Psi, state.RelevantDims)
	if err != nil {
		return errors.Wrap(err, "invalid PLDA snapshot")
	}

	posteriors := make(map[int]GaussianParams, len(state.Classes))
	predictives := make(map[int]GaussianParams, len(state.Classes))
	for i, id := range state.Classes {
		posteriors[id] = GaussianParams{Mean: state.Posteriors[i].Mean, CovDiag: state.Posteriors[i].CovDiag}
		predictives[id] = GaussianParams{Mean: state.Predictives[i].Mean, CovDiag: state.Predictives[i].CovDiag}
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	// The receiver may be a zero value rather than one from NewPLDA.
	if p.state == nil {
		p.state = model.NewStateManager()
	}
	if p.logger == nil {
		p.logger = log.GetLoggerWithName("PLDA")
	}
	if p.solver == nil {
		p.solver = CholeskySolver{}
	}
	if p.diagTol == 0 {
		p.diagTol = defaultDiagonalResidualTol
	}

	p.reducer = state.Reducer
	if p.reducer == nil {
		p.reducer = preprocessing.NewIdentityReducer()
	}
	// gob drops zero-valued fields, so an absent entry decodes as 0.
	p.priorOdds = state.PriorOdds
	if p.priorOdds <= 0 {
		p.priorOdds = 1.0
	}

	p.params_ = params
	p.classes_ = state.Classes
	p.posteriors_ = posteriors
	p.predictives_ = predictives
	p.nFeatures_ = state.NFeatures
	p.state.SetDimensions(state.NFeatures, state.NSamples)
	p.state.SetFitted()
	return nil
}

// SaveModel writes the fitted model to path in gob format.
func (p *PLDA) SaveModel(path string) error {
	return model.SaveModel(p, path)
}

// LoadPLDA reads a model previously written by SaveModel. The loaded model
// predicts, transforms, and verifies exactly as the saved one did.
func LoadPLDA(path string) (*PLDA, error) {
	clf := NewPLDA()
	if err := model.LoadModel(clf, path); err != nil {
		return nil, err
	}
	return clf, nil
}

// paramsPayload is the JSON form of Parameters: the global mean m, the
// loading matrix A by rows, the latent prior variances psi, and the indices
// of the dimensions with positive variance.
type paramsPayload struct {
	M            []float64   `json:"m"`
	A            [][]float64 `json:"A"`
	Psi          []float64   `json:"psi"`
	RelevantDims []int       `json:"relevant_dims"`
}

// ExportParams writes the fitted parameters as a versioned JSON envelope:
//
//	{"model": "plda", "format_version": "1.0", "params": {...}}
//
// The envelope carries the parameter set only, not the class table or the
// reducer; it is meant for interchange with other implementations rather
// than for full model storage (SaveModel covers that).
func (p *PLDA) ExportParams(w io.Writer) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if !p.state.IsFitted() {
		return errors.NewNotFittedError("PLDA", "ExportParams")
	}

	f := p.params_.Dim()
	payload := paramsPayload{
		M:            make([]float64, f),
		A:            make([][]float64, f),
		Psi:          append([]float64(nil), p.params_.Psi...),
		RelevantDims: append([]int(nil), p.params_.RelevantDims...),
	}
	for i := 0; i < f; i++ {
		payload.M[i] = p.params_.Mean.AtVec(i)
		payload.A[i] = mat.Row(nil, i, p.params_.A)
	}

	return model.WriteParamsEnvelope(w, "plda", paramsFormatVersion, payload)
}

// ExportParamsFile writes the JSON parameter envelope to a file.
func (p *PLDA) ExportParamsFile(path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	return p.ExportParams(file)
}

// ImportParams loads a parameter envelope written by ExportParams (or by a
// compatible implementation) and replaces the learned state.
//
// The envelope has no class table, so the imported model starts with an
// empty gallery: Transform, InverseTransform, SameClass, and LogRatio work
// immediately, while Predict reports EmptyGalleryError until the model is
// refitted on labeled data. The format is defined on model-space inputs, so
// any configured reducer is replaced by the identity.
func (p *PLDA) ImportParams(r io.Reader) error {
	env, err := model.ReadParamsEnvelope(r, "plda")
	if err != nil {
		return err
	}
	if env.FormatVersion != paramsFormatVersion {
		return errors.NewValueError("PLDA.ImportParams",
			fmt.Sprintf("unsupported format version %q", env.FormatVersion))
	}

	var payload paramsPayload
	if err := json.Unmarshal(env.Params, &payload); err != nil {
		return errors.Wrap(err, "failed to unmarshal PLDA params")
	}

	f := len(payload.M)
	if f == 0 {
		return errors.NewValueError("PLDA.ImportParams", "params must include a non-empty mean m")
	}
	if len(payload.A) != f {
		return errors.NewDimensionError("PLDA.ImportParams", f, len(payload.A), 0)
	}
	aData := make([]float64, 0, f*f)
	for _, row := range payload.A {
		if len(row) != f {
			return errors.NewDimensionError("PLDA.ImportParams", f, len(row), 1)
		}
		aData = append(aData, row...)
	}
	for _, dim := range payload.RelevantDims {
		if dim < 0 || dim >= f {
			return errors.NewValueError("PLDA.ImportParams",
				fmt.Sprintf("relevant dimension %d out of range [0, %d)", dim, f))
		}
	}

	// An absent relevant_dims list is derived from psi.
	var relevant []int
	if len(payload.RelevantDims) > 0 {
		relevant = payload.RelevantDims
	}
	params, err := NewParameters(
		mat.NewVecDense(f, payload.M),
		mat.NewDense(f, f, aData),
		payload.Psi, relevant)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.reset()
	p.reducer = preprocessing.NewIdentityReducer()
	p.params_ = params
	p.nFeatures_ = f
	p.state.SetDimensions(f, 0)
	p.state.SetFitted()
	return nil
}

// ImportParamsFile loads a JSON parameter envelope from a file.
func (p *PLDA) ImportParamsFile(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	return p.ImportParams(file)
}
