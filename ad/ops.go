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

// Package ad holds the arithmetic that likelihood evaluations are written in.
// A host chooses the numeric type by choosing an Ops implementation:
// Float evaluates plain float64 values, and Forward carries a gradient
// alongside every value so that a single evaluation also yields the
// derivatives with respect to all of the seeded variables.
package ad

// Ops is the set of operations a likelihood evaluation may use. Every
// operation is differentiable almost everywhere, so any function composed
// only of Ops calls can be differentiated by an implementation that tracks
// derivatives.
type Ops[T any] interface {
	// Const lifts a constant into T. Constants carry no derivative.
	Const(v float64) T

	// Value returns the numeric value of x, discarding any derivative
	// information.
	Value(x T) float64

	Add(x, y T) T
	Sub(x, y T) T
	Mul(x, y T) T
	Div(x, y T) T
	Neg(x T) T

	// Scale returns f*x for a constant f.
	Scale(f float64, x T) T

	// AddConst returns x+c for a constant c.
	AddConst(x T, c float64) T

	Exp(x T) T
	Log(x T) T
	Sqrt(x T) T

	// Pow returns x**y.
	Pow(x, y T) T

	// Lgamma returns the natural logarithm of the absolute value of Γ(x).
	Lgamma(x T) T

	// BesselK returns the modified Bessel function of the second kind
	// K_nu(x) for x > 0 and real order nu.
	BesselK(x, nu T) T
}

// Sum adds up xs.
func Sum[T any](ops Ops[T], xs ...T) T {
	s := ops.Const(0)
	for _, x := range xs {
		s = ops.Add(s, x)
	}
	return s
}

// Dot returns the inner product of x and y, which must have the same length.
func Dot[T any](ops Ops[T], x, y []T) T {
	s := ops.Const(0)
	for i := range x {
		s = ops.Add(s, ops.Mul(x[i], y[i]))
	}
	return s
}
