// Command exprate fits batches of noisy time series to the exponential model
// y = A + B*exp(x/tau).
//
// The x and y samples are read from two .npy files holding matrices of the
// same shape, one dataset per row, and one report line is printed per fitted
// row:
//
//	exprate -x xs.npy -y ys.npy [-trust-radius 0.1] [-iterations 50] \
//	    [-threshold 0.001] [-min-lambda 1e-8] [-max-lambda 0] [-v]
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/sbinet/npyio"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/exprate"
	"github.com/YuminosukeSato/exprate/metrics"
	"github.com/YuminosukeSato/exprate/pkg/errors"
	"github.com/YuminosukeSato/exprate/pkg/log"
)

func main() {
	var (
		xPath       = flag.String("x", "", "path to the .npy file with x samples (one dataset per row)")
		yPath       = flag.String("y", "", "path to the .npy file with y samples (same shape as -x)")
		trustRadius = flag.Float64("trust-radius", exprate.DefaultTrustRadius, "trust-region radius as a fraction of each parameter's magnitude")
		iterations  = flag.Int("iterations", exprate.DefaultIterations, "maximum Newton rounds per dataset")
		threshold   = flag.Float64("threshold", exprate.DefaultThreshold, "relative sum-of-squared-error change that signals convergence")
		minLambda   = flag.Float64("min-lambda", exprate.DefaultMinLambda, "fits with |lambda| below this are flagged bad")
		maxLambda   = flag.Float64("max-lambda", 0, "fits with |lambda| above this are flagged bad (0 = unbounded)")
		verbose     = flag.Bool("v", false, "log every iteration round")
	)
	flag.Parse()

	if *xPath == "" || *yPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	level := "info"
	if *verbose {
		level = "debug"
	}
	log.SetupLogger(level)
	logger := log.GetLogger().With(log.ComponentKey, "exprate-cli")

	x, err := readMatrix(*xPath)
	if err != nil {
		logger.Error("failed to load x samples", log.ErrAttr(err))
		os.Exit(1)
	}
	y, err := readMatrix(*yPath)
	if err != nil {
		logger.Error("failed to load y samples", log.ErrAttr(err))
		os.Exit(1)
	}

	opts := exprate.Options{
		TrustRadius: *trustRadius,
		Iterations:  *iterations,
		Threshold:   *threshold,
		MinLambda:   *minLambda,
		MaxLambda:   *maxLambda,
	}
	if *verbose {
		opts.EachIteration = func(rec exprate.IterationRecord) error {
			logger.Debug("iteration",
				log.RoundKey, rec.Round,
				log.LambdaKey, rec.Lambda,
				log.SumSqErrKey, rec.SumSqErr,
			)
			return nil
		}
	}

	results, err := exprate.FitExponentialBatch(x, y, opts)
	if err != nil {
		logger.Error("batch fit failed", log.ErrAttr(err))
		os.Exit(1)
	}

	report(x, y, results)
}

// readMatrix loads a 2-D .npy file into a dense matrix and rejects inputs
// with non-finite entries up front; inside the fitter they would silently
// turn into bad fits, which is the wrong diagnosis for a broken file.
func readMatrix(path string) (*mat.Dense, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	defer f.Close()

	r, err := npyio.NewReader(f)
	if err != nil {
		return nil, errors.Wrapf(err, "read npy header of %s", path)
	}

	m := &mat.Dense{}
	if err := r.Read(m); err != nil {
		return nil, errors.Wrapf(err, "read npy data of %s", path)
	}

	if err := errors.CheckNumericalStability(path, m.RawMatrix().Data, 0); err != nil {
		return nil, err
	}
	return m, nil
}

func report(x, y mat.Matrix, results []exprate.Result) {
	_, cols := x.Dims()
	pred := mat.NewVecDense(cols, nil)
	obs := mat.NewVecDense(cols, nil)

	for i, res := range results {
		for j := 0; j < cols; j++ {
			lambda := 1 / res.Tau
			pred.SetVec(j, exprate.Model(res.A, res.B, lambda, x.At(i, j)))
			obs.SetVec(j, y.At(i, j))
		}

		status := "ok"
		if res.Bad {
			status = "bad"
		}

		line := fmt.Sprintf("fit %3d: A=%12.6g B=%12.6g tau=%12.6g rounds=%3d [%s]",
			i+1, res.A, res.B, res.Tau, res.Rounds, status)
		if mse, err := metrics.MSE(obs, pred); err == nil {
			line += fmt.Sprintf(" mse=%.6g", mse)
		}
		if r2, err := metrics.R2Score(obs, pred); err == nil {
			line += fmt.Sprintf(" r2=%.4f", r2)
		}
		fmt.Println(line)
	}
}
