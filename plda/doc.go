// Package plda implements Probabilistic Linear Discriminant Analysis
// (Ioffe, "Probabilistic Linear Discriminant Analysis", ECCV 2006) for
// classification and same-class verification over real-valued vectors.
//
// PLDA models each example as a class center drawn from a Gaussian prior
// plus within-class Gaussian noise. Fitting solves a generalized
// eigenproblem over the between-class and within-class scatter matrices
// and produces an invertible map into a latent space where both Gaussians
// are diagonal: the within-class noise has identity covariance and the
// class centers have diagonal covariance Psi. Classification, posterior
// inference, and likelihood-ratio verification all become cheap diagonal
// computations in that space.
//
// # Basic Usage
//
// Fit on labeled vectors and classify new ones:
//
//	model := plda.NewPLDA()
//	if err := model.Fit(X, y); err != nil {
//	    log.Fatal(err)
//	}
//
//	predictions, _ := model.Predict(XTest)
//	accuracy, _ := model.Score(XTest, yTest)
//
// X is an (n_samples x n_features) matrix; y holds integer class ids.
//
// # Verification
//
// Decide whether two sets of examples share a class without naming it:
//
//	result, err := model.SameClass(probe, gallery)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if result.SameClass {
//	    fmt.Printf("same class (log ratio %.2f)\n", result.LogRatio)
//	}
//
// The decision compares the marginal likelihood of "one shared class
// center" against "independent class centers" and is returned together
// with the likelihood ratio.
//
// # High-Dimensional Data
//
// Fitting requires the within-class scatter to be positive definite, which
// fails when n_features exceeds n_samples - n_classes. Configure a PCA
// reducer to project the data first:
//
//	model := plda.NewPLDA(plda.WithReducer(preprocessing.NewPCA(50)))
//
// The reducer is applied inside Fit and all inference methods; with no
// reducer configured the data passes through unchanged.
//
// # Persistence
//
// Models round-trip through gob for storage and through a JSON parameter
// envelope for interchange:
//
//	_ = model.SaveModel("plda.gob")
//	restored, _ := plda.LoadPLDA("plda.gob")
//
// # Numerical Notes
//
// Latent prior variances are clamped at zero per dimension (finite-sample
// estimates can dip below), and only dimensions with positive variance
// participate in inference. Eigenvalues are returned in ascending order,
// class ids are processed in ascending order, and ties in classification
// resolve to the lowest class id, so results are deterministic for a given
// dataset. Fitting with unequal class sizes uses the average examples per
// class, the approximation the reference formulation makes.
package plda
