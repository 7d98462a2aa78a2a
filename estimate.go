package exprate

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/YuminosukeSato/exprate/pkg/errors"
)

// Model evaluates the exponential model A + B*exp(lambda*x) at x.
func Model(a, b, lambda, x float64) float64 {
	return a + b*math.Exp(lambda*x)
}

// Tau converts a fitted rate constant into the reported time constant
// tau = 1/lambda. A degenerate lambda passes straight through as ±Inf.
func Tau(lambda float64) float64 {
	return 1 / lambda
}

// SumSquaredError computes the residual sum of squares of the exponential
// model over the samples:
//
//	sum_i (A + B*exp(lambda*x_i) - y_i)^2
//
// It scores both the initial estimate and every Newton step.
func SumSquaredError(xs, ys []float64, a, b, lambda float64) float64 {
	var sse float64
	for i, x := range xs {
		r := a + b*math.Exp(lambda*x) - ys[i]
		sse += r * r
	}
	return sse
}

// EstimateExponential bootstraps an initial (A, B, lambda) guess for the
// exponential model from a quadratic fit of the samples, together with the
// sum-of-squared-error score of that guess.
//
// The quadratic and its derivative are evaluated at the sample mean; matching
// value, slope, and curvature of an exponential against the parabola at that
// point gives the closed forms
//
//	lambda = 2*c2 / (c1 + 2*c2*xmean)
//	B      = (c1 + 2*c2*xmean) / (lambda * exp(lambda*xmean))
//	A      = q(xmean) - B*exp(lambda*xmean)
//
// When c1 + 2*c2*xmean is (near) zero, lambda is undefined and comes back
// non-finite; the batch driver's lambda bounds are the intended backstop, so
// no error is raised here.
func EstimateExponential(xs, ys []float64) (a, b, lambda, sumSqErr float64, err error) {
	c0, c1, c2, err := FitQuadratic(xs, ys)
	if err != nil {
		return 0, 0, 0, 0, errors.Wrap(err, "exprate: initial estimate")
	}

	xMean := floats.Sum(xs) / float64(len(xs))
	qVal := c0 + c1*xMean + c2*xMean*xMean
	qDeriv := c1 + 2*c2*xMean

	lambda = 2 * c2 / qDeriv
	el := math.Exp(lambda * xMean)
	b = qDeriv / (lambda * el)
	a = qVal - b*el

	return a, b, lambda, SumSquaredError(xs, ys, a, b, lambda), nil
}
