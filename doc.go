// Package goplda provides Probabilistic Linear Discriminant Analysis
// (Ioffe, 2006) for Go: closed-form fitting on labeled feature vectors,
// classification against the training classes, and same/different-class
// verification for classes never seen during training.
//
// The estimator API follows scikit-learn conventions: Fit(X, y), Predict,
// PredictProba, Transform, and functional options on the constructor.
//
// # Installation
//
//	go get github.com/YuminosukeSato/goplda
//
// # Quick Start
//
// Fit a model on labeled vectors and classify new ones:
//
//	package main
//
//	import (
//	    "fmt"
//	    "log"
//
//	    "github.com/YuminosukeSato/goplda/plda"
//	    "gonum.org/v1/gonum/mat"
//	)
//
//	func main() {
//	    // Two examples per class, two classes.
//	    X := mat.NewDense(4, 2, []float64{
//	        0.1, 0.2,
//	        -0.3, 0.1,
//	        9.8, 10.1,
//	        10.2, 9.9,
//	    })
//	    y := mat.NewDense(4, 1, []float64{0, 0, 1, 1})
//
//	    model := plda.NewPLDA()
//	    if err := model.Fit(X, y); err != nil {
//	        log.Fatal(err)
//	    }
//
//	    predictions, err := model.Predict(mat.NewDense(1, 2, []float64{9.5, 10.3}))
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    fmt.Println("predicted class:", predictions.At(0, 0))
//	}
//
// Verification asks whether two sets of examples share a class, without
// naming the class and without it having appeared in training:
//
//	result, err := model.SameClass(probe, gallery)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(result.SameClass, result.LogRatio)
//
// # Packages
//
//   - plda: the estimator (fitting, classification, verification, persistence)
//   - preprocessing: pre-reduction collaborators (identity, PCA) for
//     high-dimensional data where the within-class scatter would be singular
//   - metrics: evaluation helpers (accuracy, log loss, ROC AUC)
//   - core/model: estimator interfaces, fitted-state management, gob and
//     JSON-envelope persistence
//   - core/parallel: chunked index-range parallelization
//   - pkg/errors: structured errors and warnings
//   - pkg/log: logging facade with a zerolog provider
//
// # Determinism and Concurrency
//
// Fitting is single-pass and closed-form; eigenvalues are kept in ascending
// order, class ids in ascending order, and classification ties resolve to
// the lowest class id, so results are reproducible for a given dataset. A
// fitted model is immutable and safe for concurrent inference. Batch loops
// parallelize automatically above a size threshold.
package goplda
