package exprate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/exprate/pkg/errors"
)

func init() {
	// Convergence warnings from deliberately failing fits would clutter the
	// test output.
	errors.SetWarningHandler(func(error) {})
}

func exponentialSeries(a, b, tau float64, x0 float64, n int) (xs, ys []float64) {
	lambda := 1 / tau
	xs = make([]float64, n)
	ys = make([]float64, n)
	for i := range xs {
		xs[i] = x0 + float64(i)
		ys[i] = Model(a, b, lambda, xs[i])
	}
	return xs, ys
}

func TestFitExponentialRecoversParameters(t *testing.T) {
	// Reference scenario: x = 100..129, A=150, B=10, tau=-10.
	xs, ys := exponentialSeries(150, 10, -10, 100, 30)

	res, err := FitExponential(xs, ys, DefaultOptions())
	require.NoError(t, err)

	assert.False(t, res.Bad, "noiseless fit must not be flagged bad")
	assert.InEpsilon(t, 150, res.A, 1e-2)
	assert.InEpsilon(t, 10, res.B, 1e-2)
	assert.InEpsilon(t, -10, res.Tau, 1e-2)
	assert.GreaterOrEqual(t, res.Rounds, 1)
}

func TestFitExponentialDenseScaling(t *testing.T) {
	if testing.Short() {
		t.Skip("large dataset")
	}

	// Densely sampled slow decay: once the guarded loop is near the
	// optimum, Newton's quadratic convergence pins the parameters to
	// almost machine precision.
	xs, ys := exponentialSeries(150, 10, -1e5, 0, 30000)

	res, err := FitExponential(xs, ys, DefaultOptions())
	require.NoError(t, err)

	assert.False(t, res.Bad)
	assert.InEpsilon(t, 150, res.A, 1e-7)
	assert.InEpsilon(t, 10, res.B, 1e-7)
	assert.InEpsilon(t, -1e5, res.Tau, 1e-7)
}

func TestFitExponentialValidation(t *testing.T) {
	opts := DefaultOptions()

	_, err := FitExponential(nil, nil, opts)
	assert.Error(t, err, "empty data")

	_, err = FitExponential([]float64{1, 2}, []float64{1}, opts)
	assert.Error(t, err, "length mismatch")

	bad := opts
	bad.TrustRadius = -1
	_, err = FitExponential([]float64{1, 2}, []float64{1, 2}, bad)
	assert.Error(t, err, "negative trust radius")

	var vErr *errors.ValidationError
	assert.True(t, errors.As(err, &vErr))
}

func TestFitExponentialBadOnIterationCap(t *testing.T) {
	xs, ys := exponentialSeries(150, 10, -10, 100, 30)

	opts := DefaultOptions()
	opts.Iterations = 1

	res, err := FitExponential(xs, ys, opts)
	require.NoError(t, err)
	assert.True(t, res.Bad, "a single round cannot satisfy the forced-round rule")
}

func TestFitExponentialBadOnLambdaBounds(t *testing.T) {
	xs, ys := exponentialSeries(150, 10, -10, 100, 30)

	t.Run("min lambda", func(t *testing.T) {
		opts := DefaultOptions()
		opts.MinLambda = 1.0 // true |lambda| is 0.1
		res, err := FitExponential(xs, ys, opts)
		require.NoError(t, err)
		assert.True(t, res.Bad)
	})

	t.Run("max lambda", func(t *testing.T) {
		opts := DefaultOptions()
		opts.MaxLambda = 1e-3
		res, err := FitExponential(xs, ys, opts)
		require.NoError(t, err)
		assert.True(t, res.Bad)
	})

	t.Run("bounds admitting the fit", func(t *testing.T) {
		opts := DefaultOptions()
		opts.MaxLambda = 10
		res, err := FitExponential(xs, ys, opts)
		require.NoError(t, err)
		assert.False(t, res.Bad)
	})
}

func TestFitExponentialDegenerateDataMarkedBad(t *testing.T) {
	// An all-zero series produces a non-finite initial lambda; the bounds
	// check must catch it on the first round and flag the fit, without
	// erroring and without aborting a batch.
	xs := []float64{1, 2, 3, 4, 5}
	ys := []float64{0, 0, 0, 0, 0}

	res, err := FitExponential(xs, ys, DefaultOptions())
	require.NoError(t, err)
	assert.True(t, res.Bad)
	assert.Equal(t, 1, res.Rounds)
}

func TestFitExponentialIterationCallbackOrder(t *testing.T) {
	xs, ys := exponentialSeries(150, 10, -10, 100, 30)

	var records []IterationRecord
	opts := DefaultOptions()
	opts.EachIteration = func(rec IterationRecord) error {
		records = append(records, rec)
		return nil
	}

	res, err := FitExponential(xs, ys, opts)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(records), 2)

	// Rounds count up from 1; the trailing invocation repeats the final
	// round with the final values.
	for i, rec := range records[:len(records)-1] {
		assert.Equal(t, i+1, rec.Round, "iteration callbacks must arrive in order")
	}
	last := records[len(records)-1]
	assert.Equal(t, records[len(records)-2].Round, last.Round)
	assert.InDelta(t, res.A, last.A, 1e-12)
	assert.InDelta(t, res.B, last.B, 1e-12)
	assert.InDelta(t, 1/res.Tau, last.Lambda, 1e-12)

	// The first round always runs regardless of the score change.
	assert.True(t, records[0].Forced)
	assert.Equal(t, DefaultThreshold, records[0].Threshold)
}

func TestFitExponentialIterationCallbackError(t *testing.T) {
	xs, ys := exponentialSeries(150, 10, -10, 100, 30)

	opts := DefaultOptions()
	opts.EachIteration = func(rec IterationRecord) error {
		if rec.Round == 2 {
			return errors.New("observer failure")
		}
		return nil
	}

	_, err := FitExponential(xs, ys, opts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "observer failure")
}

func TestFitExponentialCallbackPanicBecomesError(t *testing.T) {
	xs, ys := exponentialSeries(150, 10, -10, 100, 30)

	opts := DefaultOptions()
	opts.EachIteration = func(IterationRecord) error {
		panic("observer exploded")
	}

	_, err := FitExponential(xs, ys, opts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panic")

	var pErr *errors.PanicError
	assert.True(t, errors.As(err, &pErr))
}

func batchMatrices(t *testing.T, rows int) (*mat.Dense, *mat.Dense) {
	t.Helper()
	xs, ys := exponentialSeries(150, 10, -10, 100, 30)

	x := mat.NewDense(rows, len(xs), nil)
	y := mat.NewDense(rows, len(ys), nil)
	for i := 0; i < rows; i++ {
		x.SetRow(i, xs)
		y.SetRow(i, ys)
	}
	return x, y
}

func TestFitExponentialBatchParallelPath(t *testing.T) {
	// Without callbacks rows are fanned out across workers; every row is
	// identical here so every result must match.
	x, y := batchMatrices(t, 16)

	results, err := FitExponentialBatch(x, y, DefaultOptions())
	require.NoError(t, err)
	require.Len(t, results, 16)

	for i, res := range results {
		assert.False(t, res.Bad, "row %d", i)
		assert.InEpsilon(t, -10, res.Tau, 1e-2, "row %d", i)
	}
}

func TestFitExponentialBatchFitCallbackNumbering(t *testing.T) {
	x, y := batchMatrices(t, 5)

	var counts []int
	opts := DefaultOptions()
	opts.EachFit = func(rec FitRecord) (bool, error) {
		assert.Equal(t, 5, rec.NumFits)
		assert.Greater(t, rec.Rounds, 0)
		counts = append(counts, rec.FitCount)
		return true, nil
	}

	_, err := FitExponentialBatch(x, y, opts)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, counts)
}

func TestFitExponentialBatchAbort(t *testing.T) {
	x, y := batchMatrices(t, 5)

	opts := DefaultOptions()
	opts.EachFit = func(rec FitRecord) (bool, error) {
		return rec.FitCount < 2, nil // stop after the second fit
	}

	results, err := FitExponentialBatch(x, y, opts)
	require.NoError(t, err)
	require.Len(t, results, 5)

	for i := 0; i < 2; i++ {
		assert.Greater(t, results[i].Rounds, 0, "fit %d must have run", i+1)
	}
	for i := 2; i < 5; i++ {
		assert.Equal(t, Result{}, results[i], "fit %d must never start", i+1)
	}
}

func TestFitExponentialBatchShapeValidation(t *testing.T) {
	x := mat.NewDense(2, 10, nil)
	y := mat.NewDense(3, 10, nil)
	_, err := FitExponentialBatch(x, y, DefaultOptions())
	assert.Error(t, err, "row mismatch")

	y2 := mat.NewDense(2, 9, nil)
	_, err = FitExponentialBatch(x, y2, DefaultOptions())
	assert.Error(t, err, "column mismatch")
}

func TestFitExponentialBatchBadRowDoesNotAbort(t *testing.T) {
	// One degenerate row inside an otherwise healthy batch: the row is
	// flagged bad, the rest fit normally.
	xs, ys := exponentialSeries(150, 10, -10, 100, 30)

	x := mat.NewDense(3, len(xs), nil)
	y := mat.NewDense(3, len(ys), nil)
	for i := 0; i < 3; i++ {
		x.SetRow(i, xs)
		y.SetRow(i, ys)
	}
	y.SetRow(1, make([]float64, len(ys))) // all zeros

	var badFlags []bool
	opts := DefaultOptions()
	opts.EachFit = func(rec FitRecord) (bool, error) {
		return true, nil
	}
	results, err := FitExponentialBatch(x, y, opts)
	require.NoError(t, err)
	for _, res := range results {
		badFlags = append(badFlags, res.Bad)
	}
	assert.Equal(t, []bool{false, true, false}, badFlags)
}

func TestFitExponentialSingleFitCallback(t *testing.T) {
	xs, ys := exponentialSeries(150, 10, -10, 100, 30)

	called := 0
	opts := DefaultOptions()
	opts.EachFit = func(rec FitRecord) (bool, error) {
		called++
		assert.Equal(t, 1, rec.FitCount)
		assert.Equal(t, 1, rec.NumFits)
		return true, nil
	}

	_, err := FitExponential(xs, ys, opts)
	require.NoError(t, err)
	assert.Equal(t, 1, called)
}

func TestFitExponentialConvergenceWarning(t *testing.T) {
	xs, ys := exponentialSeries(150, 10, -10, 100, 30)

	var warned []error
	errors.SetWarningHandler(func(w error) { warned = append(warned, w) })
	defer errors.SetWarningHandler(func(error) {})

	opts := DefaultOptions()
	opts.Iterations = 1
	res, err := FitExponential(xs, ys, opts)
	require.NoError(t, err)
	require.True(t, res.Bad)

	require.Len(t, warned, 1)
	var cw *errors.ConvergenceWarning
	assert.True(t, errors.As(warned[0], &cw))
}

func TestResultTauIsInverseLambda(t *testing.T) {
	xs, ys := exponentialSeries(150, 10, -10, 100, 30)

	var lastLambda float64
	opts := DefaultOptions()
	opts.EachIteration = func(rec IterationRecord) error {
		lastLambda = rec.Lambda
		return nil
	}

	res, err := FitExponential(xs, ys, opts)
	require.NoError(t, err)
	assert.InDelta(t, 1/lastLambda, res.Tau, 1e-12)
}
