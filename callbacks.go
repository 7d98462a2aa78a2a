package exprate

// IterationRecord is the payload handed to the per-iteration callback: the
// current parameters, the round counter, and the scores driving the
// convergence test. Forced marks rounds that run regardless of the score
// change because the previous step was guard-truncated (or because it is the
// first round of the fit).
type IterationRecord struct {
	A      float64
	B      float64
	Lambda float64

	// Round is the 1-based iteration counter. The trailing invocation after
	// a fit leaves its loop repeats the last counter value.
	Round int

	SumSqErr    float64
	OldSumSqErr float64
	Threshold   float64
	Forced      bool
}

// IterationCallback observes every round of one fit in strict iteration
// order. A returned error aborts the entire batch.
type IterationCallback func(IterationRecord) error

// FitRecord is the payload handed to the per-fit callback after each dataset
// of a batch is finalized. FitCount is 1-based and follows first-to-last
// dataset order.
type FitRecord struct {
	FitCount int
	NumFits  int

	SumSqErr    float64
	OldSumSqErr float64
	Threshold   float64
	Rounds      int
}

// FitCallback runs after each finished dataset. Returning false stops the
// batch: no dataset that has not yet started will start, and the remaining
// result slots keep their zero values. A returned error likewise aborts the
// batch and propagates to the caller.
type FitCallback func(FitRecord) (bool, error)
