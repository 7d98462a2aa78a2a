// Package exprate fits noisy time-series data to a single-exponential model
//
//	y = A + B*exp(x/tau)
//
// using a robust, iterative least-squares procedure: a quadratic fit
// bootstraps the initial parameter guess, and a trust-region-guarded Newton
// iteration refines it to convergence. Batches of independent datasets are
// fitted in one call, with optional callbacks for per-round observability and
// early termination.
//
// # Quick Start
//
//	package main
//
//	import (
//	    "fmt"
//	    "log"
//	    "math"
//
//	    "github.com/YuminosukeSato/exprate"
//	)
//
//	func main() {
//	    xs := make([]float64, 30)
//	    ys := make([]float64, 30)
//	    for i := range xs {
//	        xs[i] = 100 + float64(i)
//	        ys[i] = 150 + 10*math.Exp(xs[i]/-10)
//	    }
//
//	    res, err := exprate.FitExponential(xs, ys, exprate.DefaultOptions())
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    fmt.Printf("A=%.3f B=%.3f tau=%.3f bad=%v\n", res.A, res.B, res.Tau, res.Bad)
//	}
//
// # Packages
//
// The module is organized into several packages:
//
//   - exprate: the fitting driver, parameter estimation, and Newton refinement
//   - linalg: the Householder 3x3 solver behind every fitting step
//   - metrics: regression quality metrics (SSE, MSE, R²)
//   - pkg/errors: structured error types and the warning system
//   - pkg/log: structured logging built on log/slog
//
// # Error Handling
//
// Numerical degeneracies inside a single fit never abort a batch: they
// surface as non-finite parameters, are caught by the lambda validity bounds,
// and mark that fit bad. Only caller-supplied callback failures and the
// explicit stop signal abort a batch.
package exprate
