//go:build litemath

package linalg

import "gonum.org/v1/gonum/mat"

// Under litemath the LU path degrades to Householder QR.
func luSolve(a *mat.Dense, b, dst *mat.VecDense) error {
	return qrSolve(a, b, dst)
}
