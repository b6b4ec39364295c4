// Package linalg implements the small dense linear-algebra kernel the
// asking-price estimator uses to refit its hedonic coefficients every
// month: a Cholesky solve of (XtX + ridge*I) x = Xty, plus the incremental
// accumulators that build XtX/Xty from a stream of feature rows without
// ever materializing X.
package linalg

import (
	"fmt"
	"math"

	"housingmarket/internal/simerr"
)

// Ridge is the regularization constant callers add to the diagonal of XtX
// before solving (A = XtX + Ridge*I), keeping the system solvable even when
// the recent sales window is small relative to the number of features.
const Ridge = 1e-4

// MaxDim is the largest system size the solver supports.
const MaxDim = 16

// Matrix is a dense symmetric n x n matrix stored row-major, n <= MaxDim.
type Matrix struct {
	n    int
	data []float64
}

// NewMatrix creates an n x n zero matrix.
func NewMatrix(n int) *Matrix {
	return &Matrix{n: n, data: make([]float64, n*n)}
}

// N returns the matrix dimension.
func (m *Matrix) N() int { return m.n }

// At returns element (i, j).
func (m *Matrix) At(i, j int) float64 { return m.data[i*m.n+j] }

// Set assigns element (i, j).
func (m *Matrix) Set(i, j int, v float64) { m.data[i*m.n+j] = v }

// AddOuterProduct accumulates s * (v v^T) into m in place, the incremental
// way XtX is built one feature row at a time: `add_outer_product(M, v, s)`.
func (m *Matrix) AddOuterProduct(v []float64, s float64) {
	n := m.n
	for i := 0; i < n; i++ {
		vi := v[i] * s
		if vi == 0 {
			continue
		}
		base := i * n
		for j := 0; j < n; j++ {
			m.data[base+j] += vi * v[j]
		}
	}
}

// AddScaledVector accumulates s*v into y in place, the incremental way Xty
// is built: `add_scaled_vector(y, v, s)`.
func AddScaledVector(y []float64, v []float64, s float64) {
	for i := range y {
		y[i] += v[i] * s
	}
}

// AddRidge adds lambda to every diagonal element of m in place. Callers
// build A = XtX then call AddRidge(A, linalg.Ridge) before Solve, matching
// `A = XᵀX + λI`.
func (m *Matrix) AddRidge(lambda float64) {
	for i := 0; i < m.n; i++ {
		m.data[i*m.n+i] += lambda
	}
}

// Solve solves Ax = b via Cholesky decomposition, where A is symmetric
// positive (semi)definite (accumulated via AddOuterProduct, typically with
// a ridge term already folded in via AddRidge). It returns
// simerr.NotPositiveDefinite if A is not positive definite; callers must
// keep their previous coefficient vector on that error.
func Solve(a *Matrix, b []float64) ([]float64, error) {
	n := a.N()
	if n == 0 || n > MaxDim {
		return nil, fmt.Errorf("linalg: invalid dimension %d", n)
	}
	if len(b) != n {
		return nil, fmt.Errorf("linalg: b has length %d, want %d", len(b), n)
	}

	// L is the lower-triangular Cholesky factor of A.
	l := make([]float64, n*n)
	for i := 0; i < n; i++ {
		for j := 0; j <= i; j++ {
			sum := a.At(i, j)
			for k := 0; k < j; k++ {
				sum -= l[i*n+k] * l[j*n+k]
			}
			if i == j {
				if sum <= 0 {
					return nil, simerr.New("linalg.Solve", 0, 0, simerr.NotPositiveDefinite, nil)
				}
				l[i*n+j] = math.Sqrt(sum)
			} else {
				l[i*n+j] = sum / l[j*n+j]
			}
		}
	}

	// Forward substitution: L y = b.
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		sum := b[i]
		for k := 0; k < i; k++ {
			sum -= l[i*n+k] * y[k]
		}
		y[i] = sum / l[i*n+i]
	}

	// Back substitution: L^T x = y.
	x := make([]float64, n)
	for i := n - 1; i >= 0; i-- {
		sum := y[i]
		for k := i + 1; k < n; k++ {
			sum -= l[k*n+i] * x[k]
		}
		x[i] = sum / l[i*n+i]
	}

	return x, nil
}
