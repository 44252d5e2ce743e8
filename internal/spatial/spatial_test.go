package spatial

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

const tol = 1e-12

func vecApproxEqual(t *testing.T, got, want Vector, eps float64) {
	t.Helper()
	for i := range got {
		if math.Abs(got[i]-want[i]) > eps {
			t.Fatalf("component %d: got %v, want %v", i, got, want)
		}
	}
}

func TestApplyMatchesToMatrix(t *testing.T) {
	x := RotationZ(0.7).Mul(Translation(mgl64.Vec3{0.3, -1.2, 2.0}))
	v := Vector{0.1, -0.4, 0.9, 1.5, -2.2, 0.7}

	got := x.Apply(v)
	want := x.ToMatrix().MulVec(v)

	vecApproxEqual(t, got, want, tol)
}

func TestApplyAdjointMatchesMatrix(t *testing.T) {
	x := RotationX(-0.3).Mul(Translation(mgl64.Vec3{1, 2, 3}))
	f := Vector{0.5, 0.1, -0.7, 2.0, 0.4, -1.1}

	vecApproxEqual(t, x.ApplyAdjoint(f), x.ToMatrixAdjoint().MulVec(f), tol)
	vecApproxEqual(t, x.ApplyTranspose(f), x.ToMatrixTranspose().MulVec(f), tol)
}

func TestTransformCompose(t *testing.T) {
	x1 := RotationY(0.4).Mul(Translation(mgl64.Vec3{0, 1, 0}))
	x2 := RotationZ(-1.1).Mul(Translation(mgl64.Vec3{2, 0, -1}))
	v := Vector{1, 2, 3, 4, 5, 6}

	got := x1.Mul(x2).Apply(v)
	want := x1.Apply(x2.Apply(v))

	vecApproxEqual(t, got, want, 1e-11)
}

func TestInverseRoundTrip(t *testing.T) {
	x := RotationAxis(0.9, mgl64.Vec3{1, 1, 0}.Normalize()).
		Mul(Translation(mgl64.Vec3{-0.5, 0.25, 1.75}))
	v := Vector{0.3, -0.6, 0.1, 1.0, 2.0, -3.0}

	vecApproxEqual(t, x.Inverse().Apply(x.Apply(v)), v, 1e-11)
}

func TestCrossMotionAgainstDefinition(t *testing.T) {
	v := Vector{0.2, -0.5, 0.8, 1.1, 0.3, -0.9}
	u := Vector{-0.7, 0.4, 0.1, 0.6, -1.2, 0.5}

	w, l := v.Angular(), v.Linear()
	want := NewVector(
		w.Cross(u.Angular()),
		w.Cross(u.Linear()).Add(l.Cross(u.Angular())),
	)
	vecApproxEqual(t, CrossMotion(v, u), want, tol)
}

func TestCrossForceDuality(t *testing.T) {
	// For any motion vectors u, v and force f: (v x u) . f = -u . (v x* f).
	v := Vector{0.2, -0.5, 0.8, 1.1, 0.3, -0.9}
	u := Vector{-0.7, 0.4, 0.1, 0.6, -1.2, 0.5}
	f := Vector{0.9, 0.2, -0.3, -0.8, 0.5, 1.4}

	lhs := CrossMotion(v, u).Dot(f)
	rhs := -u.Dot(CrossForce(v, f))
	if math.Abs(lhs-rhs) > tol {
		t.Fatalf("duality violated: %g vs %g", lhs, rhs)
	}
}

func TestInertiaPointMass(t *testing.T) {
	mass := 2.5
	com := mgl64.Vec3{0, 0.5, 0}
	ic := Inertia(mass, com, mgl64.Mat3{})

	// Force needed for unit linear acceleration along x through the body
	// origin: f = m*a at the linear rows, plus the moment m*c x a.
	a := NewVector(mgl64.Vec3{}, mgl64.Vec3{1, 0, 0})
	f := ic.MulVec(a)

	want := NewVector(com.Cross(mgl64.Vec3{mass, 0, 0}), mgl64.Vec3{mass, 0, 0})
	vecApproxEqual(t, f, want, tol)
}

func TestSandwich63MatchesDense(t *testing.T) {
	u := Matrix63{
		Vector{1, 0, 0.5, 0, 0.2, 0},
		Vector{0, 1, 0, -0.3, 0, 0.1},
		Vector{0.2, 0, 1, 0, -0.4, 0},
	}
	d := mgl64.Mat3FromRows(
		mgl64.Vec3{2, 0.1, 0},
		mgl64.Vec3{0.1, 3, 0.2},
		mgl64.Vec3{0, 0.2, 1.5},
	)

	got := Sandwich63(u, d)
	for a := 0; a < 6; a++ {
		for b := 0; b < 6; b++ {
			var want float64
			for i := 0; i < 3; i++ {
				for j := 0; j < 3; j++ {
					want += u[i][a] * d.At(i, j) * u[j][b]
				}
			}
			if math.Abs(got[a][b]-want) > tol {
				t.Fatalf("entry (%d,%d): got %g want %g", a, b, got[a][b], want)
			}
		}
	}
}
