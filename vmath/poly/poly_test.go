package poly

import (
	"fmt"
	"math/rand"
	"testing"
)

func TestSolveQuadraticKnownRoots(t *testing.T) {
	lo, hi, ok := SolveQuadratic(1, 0, -4)
	if !ok {
		t.Fatalf("SolveQuadratic(1, 0, -4) reported no roots")
	}
	if lo != -2 || hi != 2 {
		t.Errorf("Bad roots; got (%v, %v), want (-2, 2)", lo, hi)
	}
}

func TestSolveQuadraticNoRoots(t *testing.T) {
	if _, _, ok := SolveQuadratic(1, 0, 4); ok {
		t.Errorf("SolveQuadratic(1, 0, 4) reported roots, want none")
	}
	if _, _, ok := SolveQuadratic(0, 1, 1); ok {
		t.Errorf("SolveQuadratic(0, 1, 1) reported roots, want none")
	}
}

func TestSolveQuadraticOrdered(t *testing.T) {
	r := rand.New(rand.NewSource(4141))
	for i := 0; i < 200; i++ {
		a := r.Float64()*10 - 5
		b := r.Float64()*10 - 5
		c := r.Float64()*10 - 5
		if a == 0 {
			continue
		}
		t.Run(fmt.Sprintf("Case %d", i), func(t *testing.T) {
			lo, hi, ok := SolveQuadratic(a, b, c)
			if ok != (b*b-4*a*c >= 0) {
				t.Fatalf("Bad root existence for (%v, %v, %v); got ok=%v", a, b, c, ok)
			}
			if ok && lo > hi {
				t.Errorf("Roots out of order for (%v, %v, %v); got (%v, %v)", a, b, c, lo, hi)
			}
		})
	}
}
