package exprate

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/exprate/core/parallel"
	"github.com/YuminosukeSato/exprate/pkg/errors"
	"github.com/YuminosukeSato/exprate/pkg/log"
)

// Result is the outcome of fitting one dataset. Bad fits still carry the last
// computed parameter values so callers may inspect or mask them.
type Result struct {
	A   float64
	B   float64
	Tau float64

	// Bad is set when the fit exhausted its iteration cap or the final
	// lambda violated the configured bounds. It is never set for a fit that
	// met the convergence threshold within bounds.
	Bad bool

	// Rounds is the number of iteration rounds the fit ran.
	Rounds int
}

// fitOutcome carries the per-dataset state the batch driver needs beyond the
// public Result: the final scores feed the per-fit callback.
type fitOutcome struct {
	res         Result
	sumSqErr    float64
	oldSumSqErr float64
}

// FitExponential fits a single dataset to y = A + B*exp(x/tau) and returns
// the fitted parameters. Both callbacks are honored; for the per-fit callback
// the batch consists of this one dataset.
func FitExponential(xs, ys []float64, opts Options) (Result, error) {
	opts = opts.withDefaults()
	if err := opts.Validate(); err != nil {
		return Result{}, err
	}
	if len(xs) == 0 {
		return Result{}, errors.NewModelError("FitExponential", "empty data", errors.ErrEmptyData)
	}
	if len(xs) != len(ys) {
		return Result{}, errors.NewDimensionError("FitExponential", len(xs), len(ys), 0)
	}

	out, err := fitDataset(xs, ys, &opts)
	if err != nil {
		return Result{}, err
	}
	if opts.EachFit != nil {
		if _, err := invokeFitCallback(opts.EachFit, fitRecord(out, 1, 1, opts.Threshold)); err != nil {
			return Result{}, err
		}
	}
	return out.res, nil
}

// FitExponentialBatch fits every row of x against the matching row of y as an
// independent dataset and returns one Result per row.
//
// When neither callback is configured the rows are fanned out across worker
// goroutines; each row's fit is fully independent, so only the result order
// is defined. With a callback configured the batch runs strictly first to
// last on the calling goroutine, so per-iteration callbacks arrive in
// iteration order, fit numbering is deterministic, and a stop signal from the
// per-fit callback prevents every later row from starting. After an abort the
// remaining entries of the returned slice keep their zero values.
func FitExponentialBatch(x, y mat.Matrix, opts Options) ([]Result, error) {
	opts = opts.withDefaults()
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	rx, cx := x.Dims()
	ry, cy := y.Dims()
	if rx == 0 || cx == 0 {
		return nil, errors.NewModelError("FitExponentialBatch", "empty data", errors.ErrEmptyData)
	}
	if rx != ry {
		return nil, errors.NewDimensionError("FitExponentialBatch", rx, ry, 0)
	}
	if cx != cy {
		return nil, errors.NewDimensionError("FitExponentialBatch", cx, cy, 1)
	}

	logger := log.GetLogger().With(log.ComponentKey, "exprate")
	logger.Debug("starting exponential batch fit",
		log.DatasetsKey, rx,
		log.SamplesKey, cx,
		log.ThresholdKey, opts.Threshold,
		log.IterationCapKey, opts.Iterations,
	)

	results := make([]Result, rx)

	if opts.EachIteration == nil && opts.EachFit == nil {
		fitRowsParallel(x, y, &opts, results)
	} else if err := fitRowsSequential(x, y, &opts, results); err != nil {
		return results, err
	}

	bad := 0
	for _, r := range results {
		if r.Bad {
			bad++
		}
	}
	logger.Debug("exponential batch fit finished",
		log.DatasetsKey, rx,
		log.BadFitsKey, bad,
	)
	return results, nil
}

// machineEpsilon is the float64 unit roundoff, the granularity below which
// score comparisons are meaningless.
const machineEpsilon = 0x1p-52

// parallelFitThreshold is the batch size above which rows are fitted
// concurrently. A single fit is already substantial work, so the bar is much
// lower than for elementwise kernels.
const parallelFitThreshold = 4

func fitRowsParallel(x, y mat.Matrix, opts *Options, results []Result) {
	parallel.ParallelizeWithThreshold(len(results), parallelFitThreshold, func(start, end int) {
		// mat.Row allocates on the first pass and reuses the full-length
		// buffers afterwards.
		var xs, ys []float64
		for i := start; i < end; i++ {
			xs = mat.Row(xs, i, x)
			ys = mat.Row(ys, i, y)
			// Without callbacks fitDataset cannot fail: numerical
			// degeneracy only marks the row bad.
			out, _ := fitDataset(xs, ys, opts)
			results[i] = out.res
		}
	})
}

func fitRowsSequential(x, y mat.Matrix, opts *Options, results []Result) error {
	n := len(results)
	var xs, ys []float64
	for i := 0; i < n; i++ {
		xs = mat.Row(xs, i, x)
		ys = mat.Row(ys, i, y)

		out, err := fitDataset(xs, ys, opts)
		if err != nil {
			return errors.Wrapf(err, "exprate: fit %d of %d", i+1, n)
		}
		results[i] = out.res

		if opts.EachFit != nil {
			cont, err := invokeFitCallback(opts.EachFit, fitRecord(out, i+1, n, opts.Threshold))
			if err != nil {
				return errors.Wrapf(err, "exprate: fit %d of %d", i+1, n)
			}
			if !cont {
				break
			}
		}
	}
	return nil
}

// fitDataset runs the estimate-then-iterate state machine for one dataset.
// The only error source is the per-iteration callback; every numerical
// failure mode resolves to a bad fit instead.
func fitDataset(xs, ys []float64, opts *Options) (fitOutcome, error) {
	a, b, lambda, sse, err := EstimateExponential(xs, ys)
	if err != nil {
		return fitOutcome{}, err
	}
	p := parameters{a: a, b: b, lambda: lambda}

	// Score changes below the objective's floating-point noise floor carry
	// no information: near a perfect fit each residual is dominated by
	// rounding of order eps*|y|, so the summed score wobbles at
	// eps^2 * sum(y^2) without ever settling under a purely relative test.
	noiseFloor := machineEpsilon * machineEpsilon * floats.Dot(ys, ys)

	oldSSE := sse
	forced := true // the first round always runs
	round := 0
	bad := false

	for forced || math.Abs(oldSSE-sse) > math.Max(oldSSE*opts.Threshold, noiseFloor) {
		round++
		if round > opts.Iterations || !lambdaInBounds(p.lambda, opts) {
			// Fail without taking a further Newton step; the last
			// computed parameters are still reported.
			bad = true
			break
		}

		if opts.EachIteration != nil {
			rec := iterationRecord(&p, round, sse, oldSSE, opts.Threshold, forced)
			if err := invokeIterationCallback(opts.EachIteration, rec); err != nil {
				return fitOutcome{}, err
			}
		}

		oldSSE = sse
		sse, forced = newtonStep(xs, ys, &p, opts.TrustRadius)
	}

	if opts.EachIteration != nil {
		rec := iterationRecord(&p, round, sse, oldSSE, opts.Threshold, forced)
		if err := invokeIterationCallback(opts.EachIteration, rec); err != nil {
			return fitOutcome{}, err
		}
	}

	if bad {
		errors.Warn(errors.NewConvergenceWarning("FitExponential", round,
			fmt.Sprintf("lambda=%g sum_sq_err=%g", p.lambda, sse)))
	}

	return fitOutcome{
		res: Result{
			A:      p.a,
			B:      p.b,
			Tau:    Tau(p.lambda),
			Bad:    bad,
			Rounds: round,
		},
		sumSqErr:    sse,
		oldSumSqErr: oldSSE,
	}, nil
}

func lambdaInBounds(lambda float64, opts *Options) bool {
	// A non-finite lambda (degenerate initial estimate or a diverged step)
	// would slip through both comparisons below, so it is rejected outright.
	if math.IsNaN(lambda) || math.IsInf(lambda, 0) {
		return false
	}
	al := math.Abs(lambda)
	if al < opts.MinLambda {
		return false
	}
	if opts.MaxLambda > 0 && al > opts.MaxLambda {
		return false
	}
	return true
}

func iterationRecord(p *parameters, round int, sse, oldSSE, threshold float64, forced bool) IterationRecord {
	return IterationRecord{
		A:           p.a,
		B:           p.b,
		Lambda:      p.lambda,
		Round:       round,
		SumSqErr:    sse,
		OldSumSqErr: oldSSE,
		Threshold:   threshold,
		Forced:      forced,
	}
}

func fitRecord(out fitOutcome, fitCount, numFits int, threshold float64) FitRecord {
	return FitRecord{
		FitCount:    fitCount,
		NumFits:     numFits,
		SumSqErr:    out.sumSqErr,
		OldSumSqErr: out.oldSumSqErr,
		Threshold:   threshold,
		Rounds:      out.res.Rounds,
	}
}

// invokeIterationCallback shields the fitter from panics in caller-supplied
// code: a recovered panic aborts the batch as an error, like any other
// callback failure.
func invokeIterationCallback(cb IterationCallback, rec IterationRecord) error {
	return errors.SafeExecute("each_iteration callback", func() error {
		return cb(rec)
	})
}

func invokeFitCallback(cb FitCallback, rec FitRecord) (cont bool, err error) {
	defer errors.Recover(&err, "each_fit callback")
	return cb(rec)
}
