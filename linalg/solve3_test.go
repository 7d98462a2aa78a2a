package linalg

import (
	"math"
	"math/rand"
	"testing"
)

func TestSolve3x3Diagonal(t *testing.T) {
	tests := []struct {
		name string
		diag [3]float64
		rhs  Vector3
	}{
		{
			name: "identity",
			diag: [3]float64{1, 1, 1},
			rhs:  Vector3{3, -2, 7},
		},
		{
			name: "mixed signs",
			diag: [3]float64{2, -4, 0.5},
			rhs:  Vector3{1, 2, 3},
		},
		{
			name: "large spread",
			diag: [3]float64{1e8, 1e-8, -3},
			rhs:  Vector3{-5, 6, 9},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var m Matrix3
			for i := 0; i < 3; i++ {
				m[i][i] = tt.diag[i]
			}
			x := Solve3x3(m, tt.rhs)
			for i := 0; i < 3; i++ {
				want := tt.rhs[i] / tt.diag[i]
				if math.Abs(x[i]-want) > 1e-12*math.Abs(want) {
					t.Errorf("x[%d] = %v, want %v", i, x[i], want)
				}
			}
		})
	}
}

func TestSolve3x3RoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for trial := 0; trial < 100; trial++ {
		var m Matrix3
		var want Vector3
		for i := 0; i < 3; i++ {
			want[i] = rng.NormFloat64() * 10
			for j := 0; j < 3; j++ {
				m[i][j] = rng.NormFloat64()
			}
		}
		// A random Gaussian matrix is singular with probability zero, but a
		// nearly singular draw would only loosen the tolerance, so keep the
		// determinant away from zero.
		if math.Abs(det3(m)) < 1e-3 {
			continue
		}

		var rhs Vector3
		for i := 0; i < 3; i++ {
			for j := 0; j < 3; j++ {
				rhs[i] += m[i][j] * want[j]
			}
		}

		got := Solve3x3(m, rhs)
		for i := 0; i < 3; i++ {
			tol := 1e-8 * math.Max(1, math.Abs(want[i]))
			if math.Abs(got[i]-want[i]) > tol {
				t.Fatalf("trial %d: x[%d] = %v, want %v (matrix %v)", trial, i, got[i], want[i], m)
			}
		}
	}
}

func TestSolve3x3InputsUntouched(t *testing.T) {
	m := Matrix3{{4, 1, 0}, {1, 3, -1}, {0, -1, 2}}
	y := Vector3{1, 2, 3}
	mCopy, yCopy := m, y

	Solve3x3(m, y)

	if m != mCopy || y != yCopy {
		t.Errorf("Solve3x3 mutated its arguments: m=%v y=%v", m, y)
	}
}

func TestSolve3x3AlreadyTriangular(t *testing.T) {
	// An already upper-triangular input must come back unchanged in value;
	// the reflections reduce to sign flips of whole rows.
	m := Matrix3{
		{-2, 1, 3},
		{0, -5, 2},
		{0, 0, -4},
	}
	y := Vector3{1, 2, 3}

	got := Solve3x3(m, y)

	// Solve the triangular system directly for the expected values.
	var want Vector3
	want[2] = y[2] / m[2][2]
	want[1] = (y[1] - m[1][2]*want[2]) / m[1][1]
	want[0] = (y[0] - m[0][1]*want[1] - m[0][2]*want[2]) / m[0][0]

	for i := 0; i < 3; i++ {
		if math.Abs(got[i]-want[i]) > 1e-12*math.Max(1, math.Abs(want[i])) {
			t.Errorf("x[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestSolve3x3SingularGivesNonFinite(t *testing.T) {
	// A zero on the diagonal with nothing beneath it survives
	// triangularization untouched and divides through during back
	// substitution. The result must be non-finite, not a panic.
	m := Matrix3{
		{1, 2, 3},
		{0, 0, 4},
		{0, 0, 5},
	}
	y := Vector3{1, 1, 1}

	x := Solve3x3(m, y)

	finite := true
	for i := 0; i < 3; i++ {
		if math.IsNaN(x[i]) || math.IsInf(x[i], 0) {
			finite = false
		}
	}
	if finite {
		t.Errorf("expected non-finite solution for singular system, got %v", x)
	}
}

func det3(m Matrix3) float64 {
	return m[0][0]*(m[1][1]*m[2][2]-m[1][2]*m[2][1]) -
		m[0][1]*(m[1][0]*m[2][2]-m[1][2]*m[2][0]) +
		m[0][2]*(m[1][0]*m[2][1]-m[1][1]*m[2][0])
}
