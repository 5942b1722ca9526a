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

	"gonum.org/v1/gonum/integrate/quad"
)

// besselKNodes is the number of Gauss-Legendre nodes used for the
// integral representation of K_nu.
const besselKNodes = 256

// besselKTail is how far (in log units) the integrand of K_nu must have
// decayed from its value at t=0 before the integral is truncated.
const besselKTail = 50.

// besselK returns the modified Bessel function of the second kind of real
// order nu, using
//
//	K_nu(x) = ∫_0^∞ exp(-x cosh t) cosh(nu t) dt.
func besselK(x, nu float64) float64 {
	return besselKIntegral(x, nu, func(t float64) float64 {
		return math.Cosh(nu * t)
	})
}

// besselKDNu returns ∂K_nu(x)/∂nu.
func besselKDNu(x, nu float64) float64 {
	return besselKIntegral(x, nu, func(t float64) float64 {
		return t * math.Sinh(nu*t)
	})
}

func besselKIntegral(x, nu float64, g func(t float64) float64) float64 {
	switch {
	case math.IsNaN(x) || math.IsNaN(nu) || x < 0:
		return math.NaN()
	case x == 0:
		return math.Inf(1)
	case math.IsInf(x, 1):
		return 0
	}
	upper := besselKUpper(x, math.Abs(nu))
	f := func(t float64) float64 {
		return math.Exp(-x*(math.Cosh(t)-1)) * g(t)
	}
	return math.Exp(-x) * quad.Fixed(f, 0, upper, besselKNodes, quad.Legendre{}, 1)
}

// besselKUpper finds a truncation point for the K_nu integral beyond which
// the integrand is negligible.
func besselKUpper(x, nu float64) float64 {
	t := 1.
	for x*(math.Cosh(t)-1)-nu*t-math.Log(1+t) < besselKTail && t < 700 {
		t *= 1.5
	}
	return math.Min(t, 700)
}
