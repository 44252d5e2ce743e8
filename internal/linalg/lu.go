//go:build !litemath

package linalg

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

func luSolve(a *mat.Dense, b, dst *mat.VecDense) error {
	var lu mat.LU
	lu.Factorize(a)
	if err := lu.SolveVecTo(dst, false, b); err != nil {
		return fmt.Errorf("%w: %v", ErrSingular, err)
	}
	return nil
}
