// Standard attribute keys used across clinstat logging. Keys follow a
// hierarchical naming convention ("model.name", "data.samples") to enable
// structured filtering of analysis runs.

package log

// Model and operation context.
const (
	// ModelNameKey identifies the estimator type.
	// Examples: "OLS", "Logistic", "StandardScaler"
	ModelNameKey = "model.name"

	// OperationKey specifies the operation being performed.
	// Standard values: "fit", "predict", "transform", "score"
	OperationKey = "stat.operation"

	// ComponentKey identifies the package performing the operation.
	// Examples: "linear", "logistic", "preprocessing", "imbalance"
	ComponentKey = "stat.component"

	// PhaseKey indicates the phase of the analysis pipeline.
	// Examples: "training", "inference", "preprocessing", "evaluation"
	PhaseKey = "stat.phase"
)

// Data shape and characteristics.
const (
	// SamplesKey indicates the number of rows being processed.
	SamplesKey = "data.samples"

	// FeaturesKey indicates the number of predictor columns.
	FeaturesKey = "data.features"

	// ColumnKey names a single table column involved in the operation.
	ColumnKey = "data.column"

	// TrainRowsKey and TestRowsKey record partition sizes after a split.
	TrainRowsKey = "data.train_rows"
	TestRowsKey  = "data.test_rows"
)

// Performance and evaluation metrics.
const (
	// DurationMsKey records the execution time of an operation in milliseconds.
	DurationMsKey = "perf.duration_ms"

	// AccuracyKey records classification accuracy, in [0, 1].
	AccuracyKey = "metrics.accuracy"

	// R2ScoreKey records the R² coefficient of determination.
	R2ScoreKey = "metrics.r2_score"

	// RMSEKey records root mean squared error.
	RMSEKey = "metrics.rmse"

	// AUCKey records the area under the ROC curve.
	AUCKey = "metrics.auc"

	// AICKey records the Akaike Information Criterion of a fitted model.
	AICKey = "metrics.aic"

	// IterationsKey records optimizer iterations used by a fit.
	IterationsKey = "training.iterations"
)

// Prediction context.
const (
	// PredsKey indicates the number of predictions made.
	PredsKey = "preds.count"

	// ThresholdKey records the decision threshold used for classification.
	ThresholdKey = "preds.threshold"
)

// Reproducibility.
const (
	// RandomSeedKey records the random seed driving a stochastic step.
	// Essential for reproducing partition splits and oversampling.
	RandomSeedKey = "config.random_seed"
)

// Standard attribute values.
const (
	OperationFit       = "fit"
	OperationPredict   = "predict"
	OperationTransform = "transform"
	OperationScore     = "score"
	OperationSplit     = "split"
	OperationResample  = "resample"

	PhaseTraining      = "training"
	PhaseInference     = "inference"
	PhasePreprocessing = "preprocessing"
	PhaseEvaluation    = "evaluation"
)
