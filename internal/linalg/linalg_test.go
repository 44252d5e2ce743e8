package linalg

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func solveAndCheck(t *testing.T, s Solver) {
	t.Helper()
	a := mat.NewDense(3, 3, []float64{
		2, 1, -1,
		-3, -1, 2,
		-2, 1, 2,
	})
	b := mat.NewVecDense(3, []float64{8, -11, -3})
	want := []float64{2, 3, -1}

	dst := mat.NewVecDense(3, nil)
	if err := Solve(a, b, dst, s); err != nil {
		t.Fatalf("%v: %v", s, err)
	}
	for i, w := range want {
		if math.Abs(dst.AtVec(i)-w) > 1e-12 {
			t.Errorf("%v: x[%d] = %g, want %g", s, i, dst.AtVec(i), w)
		}
	}
}

func TestSolvers(t *testing.T) {
	for _, s := range []Solver{SolverLU, SolverQR, SolverColPivQR} {
		solveAndCheck(t, s)
	}
}

func TestColPivQRSingular(t *testing.T) {
	a := mat.NewDense(2, 2, []float64{1, 0, 2, 0})
	b := mat.NewVecDense(2, []float64{1, 2})
	dst := mat.NewVecDense(2, nil)
	if err := Solve(a, b, dst, SolverColPivQR); !errors.Is(err, ErrSingular) {
		t.Errorf("expected ErrSingular, got %v", err)
	}
}

func TestSolveShapeMismatch(t *testing.T) {
	a := mat.NewDense(2, 2, nil)
	b := mat.NewVecDense(3, nil)
	dst := mat.NewVecDense(2, nil)
	if err := Solve(a, b, dst, SolverLU); !errors.Is(err, ErrShape) {
		t.Errorf("expected ErrShape, got %v", err)
	}
}

func TestParseSolver(t *testing.T) {
	cases := map[string]Solver{"lu": SolverLU, "qr": SolverQR, "colpivqr": SolverColPivQR, "": SolverLU}
	for name, want := range cases {
		got, err := ParseSolver(name)
		if err != nil || got != want {
			t.Errorf("ParseSolver(%q) = %v, %v", name, got, err)
		}
	}
	if _, err := ParseSolver("cholesky"); !errors.Is(err, ErrUnknownSolver) {
		t.Errorf("expected ErrUnknownSolver, got %v", err)
	}
}
