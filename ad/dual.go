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

	"gonum.org/v1/gonum/mathext"
)

// Dual is a value together with its partial derivatives with respect to
// the seeded variables. A nil D means that every partial derivative is zero.
// The D slice of a Dual is never modified after the Dual is created, so
// Duals can share it.
type Dual struct {
	V float64
	D []float64
}

// Forward implements Ops for Dual numbers, propagating derivatives in
// forward mode. N is the number of seeded variables, i.e. the length of
// every non-nil derivative slice.
type Forward struct {
	N int
}

var _ Ops[Dual] = Forward{}

// Variable returns a Dual with value v whose derivative is 1 in
// direction i and 0 in every other direction.
func (f Forward) Variable(v float64, i int) Dual {
	d := make([]float64, f.N)
	d[i] = 1
	return Dual{V: v, D: d}
}

// Variables seeds one variable per element of vs, in order.
func (f Forward) Variables(vs []float64) []Dual {
	o := make([]Dual, len(vs))
	for i, v := range vs {
		o[i] = f.Variable(v, i)
	}
	return o
}

// Gradient copies the partial derivatives of x into dst, which must have
// length N.
func Gradient(dst []float64, x Dual) {
	if x.D == nil {
		for i := range dst {
			dst[i] = 0
		}
		return
	}
	copy(dst, x.D)
}

// scaled returns a*x.
func scaled(a float64, x []float64) []float64 {
	if x == nil {
		return nil
	}
	o := make([]float64, len(x))
	for i, v := range x {
		o[i] = a * v
	}
	return o
}

// lin returns a*x + b*y for derivative slices x and y.
func lin(a float64, x []float64, b float64, y []float64) []float64 {
	switch {
	case x == nil && y == nil:
		return nil
	case y == nil:
		return scaled(a, x)
	case x == nil:
		return scaled(b, y)
	}
	o := make([]float64, len(x))
	for i := range o {
		o[i] = a*x[i] + b*y[i]
	}
	return o
}

func (Forward) Const(v float64) Dual { return Dual{V: v} }

func (Forward) Value(x Dual) float64 { return x.V }

func (Forward) Add(x, y Dual) Dual {
	return Dual{V: x.V + y.V, D: lin(1, x.D, 1, y.D)}
}

func (Forward) Sub(x, y Dual) Dual {
	return Dual{V: x.V - y.V, D: lin(1, x.D, -1, y.D)}
}

func (Forward) Mul(x, y Dual) Dual {
	return Dual{V: x.V * y.V, D: lin(y.V, x.D, x.V, y.D)}
}

func (Forward) Div(x, y Dual) Dual {
	v := x.V / y.V
	return Dual{V: v, D: lin(1/y.V, x.D, -v/y.V, y.D)}
}

func (Forward) Neg(x Dual) Dual {
	return Dual{V: -x.V, D: scaled(-1, x.D)}
}

func (Forward) Scale(f float64, x Dual) Dual {
	return Dual{V: f * x.V, D: scaled(f, x.D)}
}

func (Forward) AddConst(x Dual, c float64) Dual {
	return Dual{V: x.V + c, D: x.D}
}

func (Forward) Exp(x Dual) Dual {
	e := math.Exp(x.V)
	return Dual{V: e, D: scaled(e, x.D)}
}

func (Forward) Log(x Dual) Dual {
	return Dual{V: math.Log(x.V), D: scaled(1/x.V, x.D)}
}

func (Forward) Sqrt(x Dual) Dual {
	s := math.Sqrt(x.V)
	return Dual{V: s, D: scaled(0.5/s, x.D)}
}

func (Forward) Pow(x, y Dual) Dual {
	v := math.Pow(x.V, y.V)
	var a, b float64
	if x.D != nil {
		a = y.V * math.Pow(x.V, y.V-1)
	}
	if y.D != nil {
		b = v * math.Log(x.V)
	}
	return Dual{V: v, D: lin(a, x.D, b, y.D)}
}

func (Forward) Lgamma(x Dual) Dual {
	lg, _ := math.Lgamma(x.V)
	if x.D == nil {
		return Dual{V: lg}
	}
	return Dual{V: lg, D: scaled(mathext.Digamma(x.V), x.D)}
}

// BesselK differentiates K_nu(x) in x through the recurrence
// K'_nu = -(K_{nu-1} + K_{nu+1})/2 and in nu through the integral
// representation.
func (Forward) BesselK(x, nu Dual) Dual {
	v := besselK(x.V, nu.V)
	var a, b float64
	if x.D != nil {
		a = -0.5 * (besselK(x.V, nu.V-1) + besselK(x.V, nu.V+1))
	}
	if nu.D != nil {
		b = besselKDNu(x.V, nu.V)
	}
	return Dual{V: v, D: lin(a, x.D, b, nu.D)}
}
