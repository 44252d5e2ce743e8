package linalg

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// qrColPivSolve solves a x = b with column-pivoted Householder QR.
// gonum's QR does not pivot, so the elimination is done here directly;
// pivoting keeps the back substitution stable on the nearly rank
// deficient systems that show up around constraint singularities.
func qrColPivSolve(a *mat.Dense, b, dst *mat.VecDense) error {
	n, _ := a.Dims()
	r := mat.DenseCopyOf(a)
	rhs := make([]float64, n)
	for i := 0; i < n; i++ {
		rhs[i] = b.AtVec(i)
	}
	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}

	v := make([]float64, n)
	for k := 0; k < n; k++ {
		// Pivot on the trailing column with the largest norm.
		best, bestNorm := k, colNorm(r, k, k)
		for j := k + 1; j < n; j++ {
			if nj := colNorm(r, k, j); nj > bestNorm {
				best, bestNorm = j, nj
			}
		}
		if bestNorm == 0 {
			return ErrSingular
		}
		if best != k {
			swapCols(r, k, best)
			perm[k], perm[best] = perm[best], perm[k]
		}

		// Householder reflection annihilating r[k+1:, k].
		alpha := bestNorm
		if r.At(k, k) > 0 {
			alpha = -alpha
		}
		vnorm2 := 0.0
		for i := k; i < n; i++ {
			v[i] = r.At(i, k)
			if i == k {
				v[i] -= alpha
			}
			vnorm2 += v[i] * v[i]
		}
		if vnorm2 > 0 {
			for j := k; j < n; j++ {
				s := 0.0
				for i := k; i < n; i++ {
					s += v[i] * r.At(i, j)
				}
				s *= 2 / vnorm2
				for i := k; i < n; i++ {
					r.Set(i, j, r.At(i, j)-s*v[i])
				}
			}
			s := 0.0
			for i := k; i < n; i++ {
				s += v[i] * rhs[i]
			}
			s *= 2 / vnorm2
			for i := k; i < n; i++ {
				rhs[i] -= s * v[i]
			}
		}
		r.Set(k, k, alpha)
		for i := k + 1; i < n; i++ {
			r.Set(i, k, 0)
		}
	}

	for i := n - 1; i >= 0; i-- {
		s := rhs[i]
		for j := i + 1; j < n; j++ {
			s -= r.At(i, j) * rhs[j]
		}
		d := r.At(i, i)
		if d == 0 {
			return ErrSingular
		}
		rhs[i] = s / d
	}
	for j := 0; j < n; j++ {
		dst.SetVec(perm[j], rhs[j])
	}
	return nil
}

func colNorm(a *mat.Dense, fromRow, col int) float64 {
	n, _ := a.Dims()
	s := 0.0
	for i := fromRow; i < n; i++ {
		s += a.At(i, col) * a.At(i, col)
	}
	return math.Sqrt(s)
}

func swapCols(a *mat.Dense, i, j int) {
	n, _ := a.Dims()
	for r := 0; r < n; r++ {
		vi, vj := a.At(r, i), a.At(r, j)
		a.Set(r, i, vj)
		a.Set(r, j, vi)
	}
}
