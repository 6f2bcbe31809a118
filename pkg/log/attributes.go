package log

// Attribute keys shared by every component that logs through this package.
// Keys are namespaced ("model.", "data.", "perf.", "error.") so structured
// log pipelines can filter on a whole category at once. Components must use
// these constants instead of inline strings; a typo in a key silently
// orphans the record from every dashboard built on the catalog.

// Model and operation context.
const (
	// ModelNameKey identifies the estimator type, for example "PLDA" or "PCA".
	ModelNameKey = "model.name"

	// EstimatorIDKey distinguishes instances of the same estimator type
	// when several are trained in one process.
	EstimatorIDKey = "estimator.id"

	// OperationKey names the API operation being performed. Use the
	// Operation* constants below.
	OperationKey = "ml.operation"

	// ComponentKey carries the package or subsystem name. Providers attach
	// it automatically via GetLoggerWithName.
	ComponentKey = "ml.component"

	// PhaseKey places the record in the model lifecycle. Use the Phase*
	// constants below.
	PhaseKey = "ml.phase"
)

// Data shape.
const (
	// SamplesKey is the number of rows in the data being processed.
	SamplesKey = "data.samples"

	// FeaturesKey is the number of columns. Logged on fit so shape
	// mismatches in later calls can be diagnosed from the record stream.
	FeaturesKey = "data.features"

	// ClassesKey is the number of distinct labels seen during training.
	ClassesKey = "data.classes"
)

// Fitted model characteristics.
const (
	// LatentDimsKey is the dimensionality of the latent space after any
	// configured pre-reduction.
	LatentDimsKey = "model.latent_dims"

	// RelevantDimsKey counts the latent dimensions with strictly positive
	// prior variance, the ones that actually separate classes.
	RelevantDimsKey = "model.relevant_dims"
)

// Performance and evaluation.
const (
	// DurationMsKey is the wall-clock time of an operation in milliseconds.
	DurationMsKey = "perf.duration_ms"

	// AccuracyKey is a classification accuracy in [0, 1].
	AccuracyKey = "metrics.accuracy"

	// LossKey is an evaluation loss, lower is better.
	LossKey = "metrics.loss"
)

// Error context.
const (
	// ErrorCodeKey carries a stable machine-readable code. Use the Error*
	// constants below.
	ErrorCodeKey = "error.code"

	// SuggestionKey carries a short remediation hint, for example
	// "reduce dimensionality before fitting".
	SuggestionKey = "error.suggestion"
)

// Values for OperationKey, one per public estimator operation.
const (
	OperationFit          = "fit"
	OperationPredict      = "predict"
	OperationTransform    = "transform"
	OperationFitTransform = "fit_transform"
	OperationScore        = "score"
	OperationVerify       = "verify"
)

// Values for PhaseKey.
const (
	PhaseTraining      = "training"
	PhaseValidation    = "validation"
	PhaseTesting       = "testing"
	PhaseInference     = "inference"
	PhasePreprocessing = "preprocessing"
)

// Values for ErrorCodeKey, one per error kind the library reports.
const (
	ErrorNotFitted         = "NOT_FITTED"
	ErrorDimensionMismatch = "DIMENSION_MISMATCH"
	ErrorEmptyData         = "EMPTY_DATA"
	ErrorInvalidInput      = "INVALID_INPUT"
	ErrorSingularScatter   = "SINGULAR_SCATTER"
	ErrorDegenerateClass   = "DEGENERATE_CLASS"
	ErrorNoDiscriminative  = "NO_DISCRIMINATIVE_DIMS"
)
