// Standard attribute keys for fitting operations.
//
// Using these keys consistently across the module enables structured log
// analysis and filtering. The keys follow a hierarchical naming convention
// (e.g. "fit.datasets", "params.lambda").

package log

// Operation context.
const (
	// ComponentKey identifies the package performing the operation.
	// Examples: "exprate", "linalg", "metrics"
	ComponentKey = "ml.component"

	// OperationKey names the operation being performed.
	// Standard values: "fit", "estimate", "solve"
	OperationKey = "ml.operation"
)

// Batch and dataset shape.
const (
	// DatasetsKey is the number of independent datasets in a batch.
	DatasetsKey = "fit.datasets"

	// SamplesKey is the number of (x, y) samples per dataset.
	SamplesKey = "fit.samples"

	// BadFitsKey counts datasets whose fit was flagged bad.
	BadFitsKey = "fit.bad"
)

// Iteration state.
const (
	// RoundKey is the current Newton iteration round within one fit.
	RoundKey = "fit.round"

	// IterationCapKey is the configured maximum number of rounds per fit.
	IterationCapKey = "fit.iteration_cap"

	// SumSqErrKey is the current sum-of-squared-error score.
	SumSqErrKey = "fit.sum_sq_err"

	// ThresholdKey is the relative score-change convergence threshold.
	ThresholdKey = "fit.threshold"

	// TrustRadiusKey is the configured trust-region radius.
	TrustRadiusKey = "fit.trust_radius"
)

// Fitted parameters.
const (
	// LambdaKey is the current rate constant of the exponential model.
	LambdaKey = "params.lambda"

	// TauKey is the reported time constant, 1/lambda.
	TauKey = "params.tau"
)

// Performance.
const (
	// DurationMsKey records the execution time of an operation in
	// milliseconds.
	DurationMsKey = "perf.duration_ms"
)

// Error context.
const (
	// ErrorTypeKey categorizes the error encountered.
	// Examples: "ValidationError", "ConvergenceWarning"
	ErrorTypeKey = "error.type"

	// StacktraceKey contains stack trace information for debugging;
	// populated automatically by the error-formatting handler.
	StacktraceKey = "error.stacktrace"
)
