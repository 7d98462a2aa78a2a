// Package linalg provides the small dense linear-algebra kernels used by the
// exponential fitter. The only operation exposed is the direct solution of a
// 3x3 system via Householder orthogonal triangularization; it is the workhorse
// behind both the quadratic bootstrap fit and every Newton step.
package linalg

import "math"

// Matrix3 is a dense 3x3 coefficient matrix in row-major order.
type Matrix3 [3][3]float64

// Vector3 is a 3-element column vector.
type Vector3 [3]float64

// Solve3x3 solves m * x = y for x using Householder orthogonal
// triangularization followed by back substitution.
//
// The arguments are taken by value; the triangularization mutates its working
// copies in place and the caller's data is never touched. A singular system is
// not detected explicitly: a zero diagonal entry during back substitution
// divides through and the affected components come back as ±Inf or NaN.
// Callers are expected to treat non-finite output as a failed solve.
func Solve3x3(m Matrix3, y Vector3) Vector3 {
	// Triangularize one pivot column at a time. Each reflection zeroes the
	// entries below the diagonal of column n.
	for n := 0; n < 3; n++ {
		alpha := 0.0
		for i := n; i < 3; i++ {
			alpha += m[i][n] * m[i][n]
		}
		alpha = math.Sqrt(alpha)
		// Choose the sign opposite the pivot to avoid cancellation.
		if m[n][n] > 0 {
			alpha = -alpha
		}

		var v Vector3
		v[n] = m[n][n] - alpha
		for i := n + 1; i < 3; i++ {
			v[i] = m[i][n]
		}

		beta := 0.0
		for i := n; i < 3; i++ {
			beta += v[i] * v[i]
		}
		if beta == 0 {
			// Column is already triangular; nothing to reflect.
			continue
		}

		// Apply the reflector to the remaining columns and the RHS:
		// w -= 2 (v.w / beta) v, restricted to rows n..2.
		for c := n; c < 3; c++ {
			dot := 0.0
			for i := n; i < 3; i++ {
				dot += v[i] * m[i][c]
			}
			s := 2 * dot / beta
			for i := n; i < 3; i++ {
				m[i][c] -= s * v[i]
			}
		}
		dot := 0.0
		for i := n; i < 3; i++ {
			dot += v[i] * y[i]
		}
		s := 2 * dot / beta
		for i := n; i < 3; i++ {
			y[i] -= s * v[i]
		}
	}

	// Back substitution on the upper-triangular system.
	var x Vector3
	for j := 2; j >= 0; j-- {
		sum := y[j]
		for k := j + 1; k < 3; k++ {
			sum -= m[j][k] * x[k]
		}
		x[j] = sum / m[j][j]
	}
	return x
}
