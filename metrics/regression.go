// Package metrics provides regression quality metrics for fitted exponential
// models: residual sums, mean errors, and the coefficient of determination.
package metrics

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/exprate/pkg/errors"
)

// SSE computes the residual sum of squares Σ(yTrue - yPred)².
func SSE(yTrue, yPred *mat.VecDense) (float64, error) {
	n := yTrue.Len()
	if n == 0 {
		return 0, errors.NewValueError("SSE", "empty vector")
	}
	if yPred.Len() != n {
		return 0, errors.NewDimensionError("SSE", n, yPred.Len(), 0)
	}

	var sum float64
	for i := 0; i < n; i++ {
		diff := yTrue.AtVec(i) - yPred.AtVec(i)
		sum += diff * diff
	}
	return sum, nil
}

// MSE computes the mean squared error (1/n)·Σ(yTrue - yPred)².
func MSE(yTrue, yPred *mat.VecDense) (float64, error) {
	sse, err := SSE(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return sse / float64(yTrue.Len()), nil
}

// RMSE computes the root mean squared error.
func RMSE(yTrue, yPred *mat.VecDense) (float64, error) {
	mse, err := MSE(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return math.Sqrt(mse), nil
}

// R2Score computes the coefficient of determination R² = 1 - RSS/TSS.
// A constant yTrue (zero total variation) is reported as a ValueError since
// R² is undefined there.
func R2Score(yTrue, yPred *mat.VecDense) (float64, error) {
	n := yTrue.Len()
	if n == 0 {
		return 0, errors.NewValueError("R2Score", "empty vector")
	}
	if yPred.Len() != n {
		return 0, errors.NewDimensionError("R2Score", n, yPred.Len(), 0)
	}

	var yMean float64
	for i := 0; i < n; i++ {
		yMean += yTrue.AtVec(i)
	}
	yMean /= float64(n)

	var tss, rss float64
	for i := 0; i < n; i++ {
		yTrueVal := yTrue.AtVec(i)
		yPredVal := yPred.AtVec(i)

		tss += (yTrueVal - yMean) * (yTrueVal - yMean)
		rss += (yTrueVal - yPredVal) * (yTrueVal - yPredVal)
	}

	if tss == 0 {
		return 0, errors.NewValueError("R2Score", "total sum of squares is zero")
	}
	return 1 - rss/tss, nil
}
