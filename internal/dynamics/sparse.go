package dynamics

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// FactorizeLTL overwrites the lower triangle of h with the factor L of
// H = L'L, touching only entries that couple a degree of freedom with
// its ancestors in dofParent (-1 marks a root). The upper triangle is
// left untouched and must be ignored afterwards.
func FactorizeLTL(h *mat.Dense, dofParent []int) {
	for k := len(dofParent) - 1; k >= 0; k-- {
		h.Set(k, k, math.Sqrt(h.At(k, k)))
		for i := dofParent[k]; i >= 0; i = dofParent[i] {
			h.Set(k, i, h.At(k, i)/h.At(k, k))
		}
		for i := dofParent[k]; i >= 0; i = dofParent[i] {
			for j := i; j >= 0; j = dofParent[j] {
				h.Set(i, j, h.At(i, j)-h.At(k, i)*h.At(k, j))
			}
		}
	}
}

// SolveLx solves L x = b in place, with L produced by FactorizeLTL.
func SolveLx(l *mat.Dense, dofParent []int, x []float64) {
	for i := 0; i < len(dofParent); i++ {
		for j := dofParent[i]; j >= 0; j = dofParent[j] {
			x[i] -= l.At(i, j) * x[j]
		}
		x[i] /= l.At(i, i)
	}
}

// SolveLTx solves L' x = b in place, with L produced by FactorizeLTL.
func SolveLTx(l *mat.Dense, dofParent []int, x []float64) {
	for i := len(dofParent) - 1; i >= 0; i-- {
		x[i] /= l.At(i, i)
		for j := dofParent[i]; j >= 0; j = dofParent[j] {
			x[j] -= l.At(i, j) * x[i]
		}
	}
}
