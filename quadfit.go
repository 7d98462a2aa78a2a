package exprate

import (
	"gonum.org/v1/gonum/floats"

	"github.com/YuminosukeSato/exprate/linalg"
	"github.com/YuminosukeSato/exprate/pkg/errors"
)

// FitQuadratic computes the least-squares quadratic fit
//
//	y = c0 + c1*x + c2*x^2
//
// over the given samples by accumulating the normal equations and solving the
// resulting 3x3 system.
//
// The normal-equation matrix is symmetric; only the upper triangle is
// accumulated from the data and the lower triangle is mirrored before
// solving. A rank-deficient system (fewer than three samples, or degenerate
// x values) is not a distinct error: it surfaces as non-finite coefficients,
// exactly like any other singular solve.
func FitQuadratic(xs, ys []float64) (c0, c1, c2 float64, err error) {
	if len(xs) == 0 {
		return 0, 0, 0, errors.NewModelError("FitQuadratic", "empty data", errors.ErrEmptyData)
	}
	if len(xs) != len(ys) {
		return 0, 0, 0, errors.NewDimensionError("FitQuadratic", len(xs), len(ys), 0)
	}

	// Power sums of x up to x^4 and the mixed sums with y.
	var sx, sx2, sx3, sx4, sxy, sx2y float64
	for _, x := range xs {
		x2 := x * x
		sx += x
		sx2 += x2
		sx3 += x2 * x
		sx4 += x2 * x2
	}
	for i, x := range xs {
		sxy += x * ys[i]
		sx2y += x * x * ys[i]
	}
	sy := floats.Sum(ys)

	m := linalg.Matrix3{
		{float64(len(xs)), sx, sx2},
		{0, sx2, sx3},
		{0, 0, sx4},
	}
	// Mirror the upper triangle.
	m[1][0] = m[0][1]
	m[2][0] = m[0][2]
	m[2][1] = m[1][2]

	c := linalg.Solve3x3(m, linalg.Vector3{sy, sxy, sx2y})
	return c[0], c[1], c[2], nil
}
