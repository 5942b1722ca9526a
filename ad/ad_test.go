/*
Copyright © 2026 the spatialgev authors.
This file is part of spatialgev.

spatialgev is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

spatialgev is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with spatialgev.  If not, see <http://www.gnu.org/licenses/>.
*/

package ad

import (
	"math"
	"testing"
)

func different(a, b, tolerance float64) bool {
	if 2*math.Abs(a-b)/math.Abs(a+b) > tolerance || math.IsNaN(a) || math.IsNaN(b) {
		return true
	}
	return false
}

func TestBesselKClosedForm(t *testing.T) {
	for _, x := range []float64{0.01, 0.1, 0.5, 1, 2.5, 10, 40} {
		half := math.Sqrt(math.Pi/(2*x)) * math.Exp(-x)
		if k := besselK(x, 0.5); different(k, half, 1e-9) {
			t.Errorf("K_0.5(%g) = %g, want %g", x, k, half)
		}
		if k := besselK(x, -0.5); different(k, half, 1e-9) {
			t.Errorf("K_-0.5(%g) = %g, want %g", x, k, half)
		}
		threeHalves := half * (1 + 1/x)
		if k := besselK(x, 1.5); different(k, threeHalves, 1e-9) {
			t.Errorf("K_1.5(%g) = %g, want %g", x, k, threeHalves)
		}
	}
}

func TestBesselKEdges(t *testing.T) {
	if k := besselK(0, 1); !math.IsInf(k, 1) {
		t.Errorf("K_1(0) = %g, want +Inf", k)
	}
	if k := besselK(-1, 1); !math.IsNaN(k) {
		t.Errorf("K_1(-1) = %g, want NaN", k)
	}
	if k := besselK(math.Inf(1), 1); k != 0 {
		t.Errorf("K_1(Inf) = %g, want 0", k)
	}
}

// TestForwardDerivatives checks every Forward operation against central
// finite differences of the corresponding Float operation.
func TestForwardDerivatives(t *testing.T) {
	const h = 1e-6
	var fl Float
	fw := Forward{N: 2}

	tests := []struct {
		name string
		x, y float64
		f    func(Ops[float64], float64, float64) float64
		d    func(Forward, Dual, Dual) Dual
	}{
		{"add", 1.3, 0.7,
			func(o Ops[float64], x, y float64) float64 { return o.Add(x, y) },
			func(o Forward, x, y Dual) Dual { return o.Add(x, y) }},
		{"sub", 1.3, 0.7,
			func(o Ops[float64], x, y float64) float64 { return o.Sub(x, y) },
			func(o Forward, x, y Dual) Dual { return o.Sub(x, y) }},
		{"mul", 1.3, 0.7,
			func(o Ops[float64], x, y float64) float64 { return o.Mul(x, y) },
			func(o Forward, x, y Dual) Dual { return o.Mul(x, y) }},
		{"div", 1.3, 0.7,
			func(o Ops[float64], x, y float64) float64 { return o.Div(x, y) },
			func(o Forward, x, y Dual) Dual { return o.Div(x, y) }},
		{"pow", 1.3, 0.7,
			func(o Ops[float64], x, y float64) float64 { return o.Pow(x, y) },
			func(o Forward, x, y Dual) Dual { return o.Pow(x, y) }},
		{"exp-log-sqrt", 1.3, 0.7,
			func(o Ops[float64], x, y float64) float64 {
				return o.Mul(o.Exp(x), o.Sqrt(o.Log(o.AddConst(y, 2))))
			},
			func(o Forward, x, y Dual) Dual {
				return o.Mul(o.Exp(x), o.Sqrt(o.Log(o.AddConst(y, 2))))
			}},
		{"lgamma", 2.6, 0.4,
			func(o Ops[float64], x, y float64) float64 { return o.Add(o.Lgamma(x), o.Scale(3, o.Lgamma(y))) },
			func(o Forward, x, y Dual) Dual { return o.Add(o.Lgamma(x), o.Scale(3, o.Lgamma(y))) }},
		{"besselK", 0.8, 1.7,
			func(o Ops[float64], x, y float64) float64 { return o.BesselK(x, y) },
			func(o Forward, x, y Dual) Dual { return o.BesselK(x, y) }},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			r := test.d(fw, fw.Variable(test.x, 0), fw.Variable(test.y, 1))
			if want := test.f(fl, test.x, test.y); different(r.V, want, 1e-12) {
				t.Errorf("value: %g != %g", r.V, want)
			}
			dx := (test.f(fl, test.x+h, test.y) - test.f(fl, test.x-h, test.y)) / (2 * h)
			dy := (test.f(fl, test.x, test.y+h) - test.f(fl, test.x, test.y-h)) / (2 * h)
			if different(r.D[0], dx, 1e-5) {
				t.Errorf("d/dx: %g != %g", r.D[0], dx)
			}
			if different(r.D[1], dy, 1e-5) {
				t.Errorf("d/dy: %g != %g", r.D[1], dy)
			}
		})
	}
}

func TestForwardConstants(t *testing.T) {
	fw := Forward{N: 3}
	c := fw.Mul(fw.Const(2), fw.Exp(fw.Const(1)))
	if c.D != nil {
		t.Errorf("constant expression carries a derivative: %v", c.D)
	}
	g := []float64{1, 2, 3}
	Gradient(g, c)
	for i, v := range g {
		if v != 0 {
			t.Errorf("gradient[%d] = %g, want 0", i, v)
		}
	}
	x := fw.Variable(2, 1)
	y := fw.Add(fw.Const(1), x)
	Gradient(g, y)
	if g[0] != 0 || g[1] != 1 || g[2] != 0 {
		t.Errorf("gradient = %v, want [0 1 0]", g)
	}
	if x.D[1] != 1 {
		t.Errorf("seed was modified: %v", x.D)
	}
}

func TestSumDot(t *testing.T) {
	var fl Float
	if s := Sum[float64](fl, 1, 2, 3.5); s != 6.5 {
		t.Errorf("Sum = %g", s)
	}
	if d := Dot[float64](fl, []float64{1, 2}, []float64{3, 4}); d != 11 {
		t.Errorf("Dot = %g", d)
	}
}
