package errors

import (
	"fmt"
	"strings"
	"testing"
)

func TestNewModelError(t *testing.T) {
	tests := []struct {
		name    string
		op      string
		kind    string
		err     error
		wantMsg string
	}{
		{
			name:    "with cause",
			op:      "CholeskySolver.SolveSymDefinite",
			kind:    "within-class scatter is not positive definite",
			err:     ErrSingularMatrix,
			wantMsg: "goplda: CholeskySolver.SolveSymDefinite: within-class scatter is not positive definite: singular matrix",
		},
		{
			name:    "without cause",
			op:      "Whiten",
			kind:    "not fitted",
			err:     nil,
			wantMsg: "goplda: Whiten: not fitted",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewModelError(tt.op, tt.kind, tt.err)

			if err.Error() != tt.wantMsg {
				t.Errorf("Error() = %v, want %v", err.Error(), tt.wantMsg)
			}

			var modelErr *ModelError
			if !As(err, &modelErr) {
				t.Error("Error should be castable to *ModelError")
			}
		})
	}

	// %+v はWithStackが付与したスタックトレースを展開する
	formatted := fmt.Sprintf("%+v", NewModelError("Fit", "failed", nil))
	if !strings.Contains(formatted, "errors_test.go") {
		t.Error("Expected stack trace to contain test file name")
	}
}

func TestNewDimensionError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantMsg string
	}{
		{
			name:    "row mismatch",
			err:     NewDimensionError("FitParameters", 120, 118, 0),
			wantMsg: "goplda: FitParameters: dimension mismatch on axis 0 (rows). Expected 120, got 118",
		},
		{
			name:    "feature mismatch",
			err:     NewDimensionError("Parameters.ToLatent", 12, 8, 1),
			wantMsg: "goplda: Parameters.ToLatent: dimension mismatch on axis 1 (features). Expected 12, got 8",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Error() != tt.wantMsg {
				t.Errorf("Error() = %v, want %v", tt.err.Error(), tt.wantMsg)
			}

			var dimErr *DimensionError
			if !As(tt.err, &dimErr) {
				t.Error("Error should be castable to *DimensionError")
			}
		})
	}
}

func TestNewNotFittedError(t *testing.T) {
	err := NewNotFittedError("PLDA", "Transform")

	want := "goplda: PLDA: this model is not fitted yet. Call Fit() before using Transform()"
	if err.Error() != want {
		t.Errorf("Error() = %v, want %v", err.Error(), want)
	}

	var notFittedErr *NotFittedError
	if !As(err, &notFittedErr) {
		t.Error("Error should be castable to *NotFittedError")
	}
	if notFittedErr.ModelName != "PLDA" {
		t.Errorf("ModelName = %s, want PLDA", notFittedErr.ModelName)
	}
}

func TestNewValueError(t *testing.T) {
	tests := []struct {
		name    string
		op      string
		message string
		wantMsg string
	}{
		{
			name:    "negative component count",
			op:      "PCA.Fit",
			message: "n_components must be non-negative, got -3",
			wantMsg: "goplda: PCA.Fit: n_components must be non-negative, got -3",
		},
		{
			name:    "empty label vector",
			op:      "PLDA.Score",
			message: "y must not be empty",
			wantMsg: "goplda: PLDA.Score: y must not be empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewValueError(tt.op, tt.message)

			if err.Error() != tt.wantMsg {
				t.Errorf("Error() = %v, want %v", err.Error(), tt.wantMsg)
			}

			var valErr *ValueError
			if !As(err, &valErr) {
				t.Error("Error should be castable to *ValueError")
			}
		})
	}
}

func TestNewDegenerateClassError(t *testing.T) {
	err := NewDegenerateClassError("Fit", 3, 1)

	want := "goplda: Fit: class 3 has 1 example(s); at least 2 are required for an unbiased covariance"
	if err.Error() != want {
		t.Errorf("Error() = %v, want %v", err.Error(), want)
	}

	var degErr *DegenerateClassError
	if !As(err, &degErr) {
		t.Error("Error should be castable to *DegenerateClassError")
	}
	if degErr.ClassID != 3 || degErr.Count != 1 {
		t.Errorf("fields = (%d, %d), want (3, 1)", degErr.ClassID, degErr.Count)
	}
}

func TestNewSingularScatterError(t *testing.T) {
	tests := []struct {
		name    string
		detail  string
		wantMsg string
	}{
		{
			name:    "with detail",
			detail:  "cholesky factorization failed",
			wantMsg: "goplda: Fit: within-class scatter (4x4) is not positive definite; reduce dimensionality before fitting: cholesky factorization failed",
		},
		{
			name:    "without detail",
			detail:  "",
			wantMsg: "goplda: Fit: within-class scatter (4x4) is not positive definite; reduce dimensionality before fitting",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewSingularScatterError("Fit", 4, tt.detail)
			if err.Error() != tt.wantMsg {
				t.Errorf("Error() = %v, want %v", err.Error(), tt.wantMsg)
			}

			var singErr *SingularScatterError
			if !As(err, &singErr) {
				t.Error("Error should be castable to *SingularScatterError")
			}
		})
	}
}

func TestNewInvalidTrainingSetError(t *testing.T) {
	err := NewInvalidTrainingSetError("Fit", 1, 5.0, "at least 2 classes are required")

	want := "goplda: Fit: invalid training set: at least 2 classes are required (classes=1, avg examples/class=5.00)"
	if err.Error() != want {
		t.Errorf("Error() = %v, want %v", err.Error(), want)
	}

	var tsErr *InvalidTrainingSetError
	if !As(err, &tsErr) {
		t.Error("Error should be castable to *InvalidTrainingSetError")
	}
}

func TestNewEmptyGalleryError(t *testing.T) {
	tests := []struct {
		name    string
		classID int
		wantMsg string
	}{
		{
			name:    "with class id",
			classID: 7,
			wantMsg: "goplda: Posterior: class 7 has no examples; the posterior requires at least one",
		},
		{
			name:    "anonymous set",
			classID: -1,
			wantMsg: "goplda: Posterior: empty gallery; the posterior requires at least one example",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewEmptyGalleryError("Posterior", tt.classID)
			if err.Error() != tt.wantMsg {
				t.Errorf("Error() = %v, want %v", err.Error(), tt.wantMsg)
			}

			var galErr *EmptyGalleryError
			if !As(err, &galErr) {
				t.Error("Error should be castable to *EmptyGalleryError")
			}
		})
	}
}

func TestNewEmptyExampleSetError(t *testing.T) {
	err := NewEmptyExampleSetError("SameClassTest", "probe")

	want := "goplda: SameClassTest: probe set is empty; the marginal likelihood requires at least one example"
	if err.Error() != want {
		t.Errorf("Error() = %v, want %v", err.Error(), want)
	}

	var setErr *EmptyExampleSetError
	if !As(err, &setErr) {
		t.Error("Error should be castable to *EmptyExampleSetError")
	}
}

func TestNewNoDiscriminativeDimensionsError(t *testing.T) {
	err := NewNoDiscriminativeDimensionsError("Fit", 8)

	want := "goplda: Fit: all 8 latent prior variances clamped to zero; no discriminative dimensions remain"
	if err.Error() != want {
		t.Errorf("Error() = %v, want %v", err.Error(), want)
	}

	var ndErr *NoDiscriminativeDimensionsError
	if !As(err, &ndErr) {
		t.Error("Error should be castable to *NoDiscriminativeDimensionsError")
	}
}

func TestNewDiagonalizationWarning(t *testing.T) {
	warn := NewDiagonalizationWarning("FitParameters", 0.01, 1e-6)

	// 警告はgopldaプレフィックスを持たない
	want := "FitParameters: off-diagonal residual 0.01 exceeds tolerance 1e-06; scatter diagonalization is inexact"
	if warn.Error() != want {
		t.Errorf("Error() = %v, want %v", warn.Error(), want)
	}

	var diagWarn *DiagonalizationWarning
	if !As(warn, &diagWarn) {
		t.Error("Warning should be castable to *DiagonalizationWarning")
	}
}

func TestWarnHandler(t *testing.T) {
	var captured []error
	SetWarningHandler(func(w error) {
		captured = append(captured, w)
	})
	defer SetWarningHandler(nil)

	Warn(NewDiagonalizationWarning("FitParameters", 0.5, 1e-6))
	Warn(NewUndefinedMetricWarning("AUC", "only one class present", 0.5))

	if len(captured) != 2 {
		t.Fatalf("handler captured %d warnings, want 2", len(captured))
	}
	var diagWarn *DiagonalizationWarning
	if !As(captured[0], &diagWarn) {
		t.Error("first warning should be a *DiagonalizationWarning")
	}
}

func TestWrapAndIs(t *testing.T) {
	wrapped := Wrap(ErrSingularMatrix, "eigensolve failed on the whitened scatter")

	// Isはラップを透過して番兵エラーに届く
	if !Is(wrapped, ErrSingularMatrix) {
		t.Error("Expected Is(wrapped, ErrSingularMatrix) to be true")
	}
	if !strings.Contains(wrapped.Error(), "eigensolve failed on the whitened scatter") {
		t.Error("Expected wrapped error to contain wrapping message")
	}
}

func TestWrapf(t *testing.T) {
	wrapped := Wrapf(ErrEmptyData, "gallery for class %d is empty", 7)

	if !Is(wrapped, ErrEmptyData) {
		t.Error("Expected Is(wrapped, ErrEmptyData) to be true")
	}
	if !strings.Contains(wrapped.Error(), "gallery for class 7 is empty") {
		t.Errorf("wrapped message = %q, want the formatted context", wrapped.Error())
	}
}

func TestErrorChaining(t *testing.T) {
	// 3段のチェーンを作り、メッセージと%+vの両方で全体が見えることを確認する
	root := New("cholesky factorization failed")
	mid := Wrap(root, "whitening transform unavailable")
	top := NewModelError("PLDA.Fit", "scatter decomposition failed", mid)

	if !strings.Contains(top.Error(), "cholesky factorization failed") {
		t.Error("Expected error chain to contain the root message")
	}
	if !Is(top, root) {
		t.Error("Expected Is to reach the root through the chain")
	}

	formatted := fmt.Sprintf("%+v", top)
	if !strings.Contains(formatted, "errors_test.go") {
		t.Error("Expected detailed error to contain stack trace")
	}
}
