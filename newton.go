package exprate

import (
	"math"

	"github.com/YuminosukeSato/exprate/linalg"
)

// parameters holds the current (A, B, lambda) triple of one fit. Newton steps
// mutate it in place; the batch driver finalizes tau and the validity flag.
type parameters struct {
	a, b, lambda float64
}

// newtonStep performs one guarded Newton step on the sum-of-squares objective
// and reports the new score and whether the trust-region guard truncated the
// step.
//
// The gradient and Hessian of sum_i (A + B*e^{lambda*x_i} - y_i)^2 are
// accumulated in closed form (a common factor of 2 cancels between the two
// sides of the Newton system and is dropped). Only the upper triangle of the
// Hessian is accumulated; the lower triangle is mirrored before solving.
//
// Guarding: every component of the proposed step is scaled by the single
// factor min(1, trustRadius*|p_i|/|step_i|) over the three parameters, so one
// oversized component caps the whole step. Steps are only ever scaled down.
func newtonStep(xs, ys []float64, p *parameters, trustRadius float64) (sumSqErr float64, truncated bool) {
	var h linalg.Matrix3
	var g linalg.Vector3

	for i, x := range xs {
		e := math.Exp(p.lambda * x)
		be := p.b * e
		r := p.a + be - ys[i]

		// Negative gradient.
		g[0] -= r
		g[1] -= r * e
		g[2] -= r * be * x

		// Hessian, upper triangle.
		h[0][0]++
		h[0][1] += e
		h[0][2] += be * x
		h[1][1] += e * e
		h[1][2] += x * e * (be + r)
		h[2][2] += p.b * x * x * e * (be + r)
	}
	h[1][0] = h[0][1]
	h[2][0] = h[0][2]
	h[2][1] = h[1][2]

	step := linalg.Solve3x3(h, g)

	scale := 1.0
	for i, cur := range [3]float64{p.a, p.b, p.lambda} {
		if step[i] == 0 {
			continue
		}
		if r := trustRadius * math.Abs(cur) / math.Abs(step[i]); r < scale {
			scale = r
		}
	}

	p.a += step[0] * scale
	p.b += step[1] * scale
	p.lambda += step[2] * scale

	return SumSquaredError(xs, ys, p.a, p.b, p.lambda), scale < 1
}
