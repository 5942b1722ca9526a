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

package spatialgev

import (
	"fmt"
	"math"

	"github.com/spatialmodel/spatialgev/ad"
)

// Reparam specifies how the shape parameter of the GEV distribution is
// stored by the caller.
type Reparam int

const (
	// ShapeZero fixes the shape at zero, giving a Gumbel likelihood.
	ShapeZero Reparam = iota
	// ShapePositive constrains the shape to be positive; log(s) is stored.
	ShapePositive
	// ShapeNegative constrains the shape to be negative; log(-s) is stored.
	ShapeNegative
	// ShapeFree leaves the shape unconstrained; s is stored.
	ShapeFree
)

var reparamNames = [...]string{"zero", "positive", "negative", "unconstrained"}

func (r Reparam) String() string {
	if r.valid() {
		return reparamNames[r]
	}
	return fmt.Sprintf("Reparam(%d)", int(r))
}

func (r Reparam) valid() bool { return r >= ShapeZero && r <= ShapeFree }

// ParseReparam returns the Reparam with the given name.
func ParseReparam(s string) (Reparam, error) {
	for i, n := range reparamNames {
		if n == s {
			return Reparam(i), nil
		}
	}
	return 0, fmt.Errorf("spatialgev: unknown shape reparameterization %q: %w", s, ErrReparam)
}

// FlatPriorSD is the smallest shape prior standard deviation that is taken
// to mean an improper flat prior.
const FlatPriorSD = 9999

// GumbelLogPDF returns the log-density of the Gumbel distribution with
// location a and scale exp(logB) at x.
func GumbelLogPDF[T any](ops ad.Ops[T], x float64, a, logB T) T {
	t := ops.Div(ops.Sub(ops.Const(x), a), ops.Exp(logB))
	return ops.Sub(ops.Sub(ops.Neg(ops.Exp(ops.Neg(t))), t), logB)
}

// GEVLogPDF returns the log-density of the GEV distribution with location
// a, scale exp(logB) and shape s at x. Outside the support of the
// distribution, where 1 + s(x-a)/exp(logB) <= 0, the result is not finite.
func GEVLogPDF[T any](ops ad.Ops[T], x float64, a, logB, s T) T {
	logT := ops.Log(ops.AddConst(ops.Div(ops.Mul(s, ops.Sub(ops.Const(x), a)), ops.Exp(logB)), 1))
	return ops.Sub(
		ops.Sub(ops.Neg(ops.Exp(ops.Neg(ops.Div(logT, s)))), ops.Mul(ops.Div(ops.AddConst(s, 1), s), logT)),
		logB)
}

// NormalLogPDF returns the log-density of a normal distribution with the
// given mean and standard deviation at x.
func NormalLogPDF[T any](ops ad.Ops[T], x T, mean, sd float64) T {
	z := ops.Scale(1/sd, ops.AddConst(x, -mean))
	return ops.AddConst(ops.Scale(-0.5, ops.Mul(z, z)), -math.Log(sd)-0.5*log2Pi)
}

// TransformShape returns the GEV shape recovered from its stored value s.
func TransformShape[T any](ops ad.Ops[T], r Reparam, s T) T {
	switch r {
	case ShapeZero:
		return ops.Const(0)
	case ShapePositive:
		return ops.Exp(s)
	case ShapeNegative:
		return ops.Neg(ops.Exp(s))
	case ShapeFree:
		return s
	default:
		panic(fmt.Errorf("spatialgev: %v: %w", r, ErrReparam))
	}
}

// ShapePriorNLL returns the negative log-density of the normal prior on the
// stored shape value s. It is exactly zero when sd >= FlatPriorSD.
func ShapePriorNLL[T any](ops ad.Ops[T], s T, mean, sd float64) T {
	if sd >= FlatPriorSD {
		return ops.Const(0)
	}
	return ops.Neg(NormalLogPDF(ops, s, mean, sd))
}

// LocParam is a GEV parameter that is either shared by every location or
// takes one value per location.
type LocParam[T any] struct {
	shared T
	values []T
	index  []int
}

// Shared returns a parameter with value v at every location.
func Shared[T any](v T) LocParam[T] { return LocParam[T]{shared: v} }

// PerLocation returns a parameter whose value at location i is
// values[index[i]], or values[i] if index is nil.
func PerLocation[T any](values []T, index []int) LocParam[T] {
	return LocParam[T]{values: values, index: index}
}

// At returns the value of p at location loc.
func (p LocParam[T]) At(loc int) T {
	switch {
	case p.values == nil:
		return p.shared
	case p.index == nil:
		return p.values[loc]
	default:
		return p.values[p.index[loc]]
	}
}

// Observations are block maxima grouped by location: the observations of
// location i are a contiguous block of Y of length NObs[i].
type Observations struct {
	y      []float64
	offset []int
}

// NewObservations groups y by location according to nObs.
func NewObservations(y []float64, nObs []int) (Observations, error) {
	offset := make([]int, len(nObs)+1)
	for i, c := range nObs {
		if c < 0 {
			return Observations{}, fmt.Errorf("spatialgev: location %d has %d observations: %w", i, c, ErrObservationCount)
		}
		offset[i+1] = offset[i] + c
	}
	if offset[len(nObs)] != len(y) {
		return Observations{}, fmt.Errorf("spatialgev: observation counts sum to %d but there are %d observations: %w",
			offset[len(nObs)], len(y), ErrObservationCount)
	}
	return Observations{y: y, offset: offset}, nil
}

// Locations returns the number of locations.
func (o Observations) Locations() int { return len(o.offset) - 1 }

// At returns the observations at location loc.
func (o Observations) At(loc int) []float64 { return o.y[o.offset[loc]:o.offset[loc+1]] }

// AccumulateDataNLL subtracts the log-likelihood of the observations from
// nll and returns the result. Under ShapeZero every observation is Gumbel
// distributed. Otherwise the normal prior on the stored shape s is added
// unless sSD >= FlatPriorSD, s is transformed according to r, and every
// observation is GEV distributed.
func AccumulateDataNLL[T any](ops ad.Ops[T], nll T, obs Observations, a, logB LocParam[T], s T, r Reparam, sMean, sSD float64) T {
	if r == ShapeZero {
		for loc := 0; loc < obs.Locations(); loc++ {
			al, bl := a.At(loc), logB.At(loc)
			for _, y := range obs.At(loc) {
				nll = ops.Sub(nll, GumbelLogPDF(ops, y, al, bl))
			}
		}
		return nll
	}
	if sSD < FlatPriorSD {
		nll = ops.Sub(nll, NormalLogPDF(ops, s, sMean, sSD))
	}
	shape := TransformShape(ops, r, s)
	for loc := 0; loc < obs.Locations(); loc++ {
		al, bl := a.At(loc), logB.At(loc)
		for _, y := range obs.At(loc) {
			nll = ops.Sub(nll, GEVLogPDF(ops, y, al, bl, shape))
		}
	}
	return nll
}

// AccumulateFieldShapeNLL is AccumulateDataNLL for a shape that varies by
// location. The stored shape of each location is transformed according to
// r, and no prior is placed on it here. A shape field cannot be fixed at
// zero, so r must not be ShapeZero.
func AccumulateFieldShapeNLL[T any](ops ad.Ops[T], nll T, obs Observations, a, logB, s LocParam[T], r Reparam) T {
	if r == ShapeZero {
		panic(fmt.Errorf("spatialgev: a shape field cannot be fixed at zero: %w", ErrReparam))
	}
	for loc := 0; loc < obs.Locations(); loc++ {
		al, bl := a.At(loc), logB.At(loc)
		shape := TransformShape(ops, r, s.At(loc))
		for _, y := range obs.At(loc) {
			nll = ops.Sub(nll, GEVLogPDF(ops, y, al, bl, shape))
		}
	}
	return nll
}
