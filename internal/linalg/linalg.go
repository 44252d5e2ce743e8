// Package linalg selects and runs the dense linear solvers the
// constraint machinery relies on. The default build factorizes with
// gonum's LU; the litemath build tag swaps the LU path for plain
// Householder QR so the library can run where partial pivoting is not
// wanted.
package linalg

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

var (
	ErrSingular      = errors.New("linalg: matrix is singular to working precision")
	ErrShape         = errors.New("linalg: dimension mismatch")
	ErrUnknownSolver = errors.New("linalg: unknown solver")
)

// Solver names the factorization used for the dense linear systems
// assembled by the constraint solvers.
type Solver int

const (
	SolverLU Solver = iota
	SolverQR
	SolverColPivQR
)

func (s Solver) String() string {
	switch s {
	case SolverLU:
		return "lu"
	case SolverQR:
		return "qr"
	case SolverColPivQR:
		return "colpivqr"
	}
	return fmt.Sprintf("solver(%d)", int(s))
}

// ParseSolver maps a configuration string onto a Solver.
func ParseSolver(name string) (Solver, error) {
	switch name {
	case "lu", "":
		return SolverLU, nil
	case "qr":
		return SolverQR, nil
	case "colpivqr":
		return SolverColPivQR, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownSolver, name)
}

// Solve solves the square system a x = dst using the requested
// factorization, writing the solution into dst.
func Solve(a *mat.Dense, b, dst *mat.VecDense, s Solver) error {
	ar, ac := a.Dims()
	if ar != ac || b.Len() != ar || dst.Len() != ar {
		return ErrShape
	}
	switch s {
	case SolverLU:
		return luSolve(a, b, dst)
	case SolverQR:
		return qrSolve(a, b, dst)
	case SolverColPivQR:
		return qrColPivSolve(a, b, dst)
	}
	return fmt.Errorf("%w: %v", ErrUnknownSolver, s)
}

func qrSolve(a *mat.Dense, b, dst *mat.VecDense) error {
	var qr mat.QR
	qr.Factorize(a)
	if err := qr.SolveVecTo(dst, false, b); err != nil {
		return fmt.Errorf("%w: %v", ErrSingular, err)
	}
	return nil
}
