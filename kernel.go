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
	"gonum.org/v1/gonum/mat"
)

// thresholded reports whether a pair of sites at distance d is beyond the
// sparsification cutoff.
func thresholded(d, threshold float64) bool { return d >= threshold }

func checkKernelDims[T any](dst *SymMatrix[T], dd mat.Symmetric) error {
	if n := dd.SymmetricDim(); n != dst.Size() {
		return fmt.Errorf("spatialgev: covariance is %d×%d but distance matrix is %d×%d: %w",
			dst.Size(), dst.Size(), n, n, ErrDimension)
	}
	return nil
}

// ExponentialCov fills dst with the exponential covariance
// sigma·exp(-dd/ell). A threshold of zero means no sparsification and every
// entry is computed from the formula. A positive threshold forces every
// pair of sites at least that far apart to exactly zero. The diagonal is
// always sigma.
func ExponentialCov[T any](ops ad.Ops[T], dst *SymMatrix[T], dd mat.Symmetric, sigma, ell T, threshold float64) error {
	if err := checkKernelDims(dst, dd); err != nil {
		return err
	}
	n := dst.Size()
	expo := func(d float64) T {
		return ops.Mul(sigma, ops.Exp(ops.Div(ops.Const(-d), ell)))
	}
	if threshold == 0 {
		for i := 0; i < n; i++ {
			for j := 0; j < n; j++ {
				dst.data[i*n+j] = expo(dd.At(i, j))
			}
		}
		return nil
	}
	zero := ops.Const(0)
	for i := 0; i < n; i++ {
		dst.data[i*n+i] = sigma
		for j := 0; j < i; j++ {
			d := dd.At(i, j)
			if thresholded(d, threshold) {
				dst.set(i, j, zero)
			} else {
				dst.set(i, j, expo(d))
			}
		}
	}
	return nil
}

// Matern returns the Matérn correlation between two sites at distance d,
// with range phi and smoothness kappa:
//
//	1/(Γ(κ)·2^(κ-1)) · (d/φ)^κ · K_κ(d/φ).
//
// It is 1 at d = 0.
func Matern[T any](ops ad.Ops[T], d float64, phi, kappa T) T {
	if d == 0 {
		return ops.Const(1)
	}
	x := ops.Div(ops.Const(d), phi)
	norm := ops.Exp(ops.Neg(ops.Add(ops.Lgamma(kappa), ops.Scale(math.Ln2, ops.AddConst(kappa, -1)))))
	return ops.Mul(norm, ops.Mul(ops.Pow(x, kappa), ops.BesselK(x, kappa)))
}

// MaternCov fills dst with the Matérn covariance. Unlike ExponentialCov,
// threshold is always a literal distance cutoff: pairs at least threshold
// apart are zero, so a threshold of zero leaves only the diagonal, and
// +Inf disables sparsification. The diagonal is 1.
func MaternCov[T any](ops ad.Ops[T], dst *SymMatrix[T], dd mat.Symmetric, phi, kappa T, threshold float64) error {
	if err := checkKernelDims(dst, dd); err != nil {
		return err
	}
	n := dst.Size()
	zero, one := ops.Const(0), ops.Const(1)
	for i := 0; i < n; i++ {
		dst.data[i*n+i] = one
		for j := 0; j < i; j++ {
			d := dd.At(i, j)
			if thresholded(d, threshold) {
				dst.set(i, j, zero)
			} else {
				dst.set(i, j, Matern(ops, d, phi, kappa))
			}
		}
	}
	return nil
}

// Sparsify zeroes every off-diagonal entry of m whose sites are at least
// threshold apart.
func Sparsify[T any](ops ad.Ops[T], m *SymMatrix[T], dd mat.Symmetric, threshold float64) error {
	if err := checkKernelDims(m, dd); err != nil {
		return err
	}
	zero := ops.Const(0)
	for i := 0; i < m.n; i++ {
		for j := 0; j < i; j++ {
			if thresholded(dd.At(i, j), threshold) {
				m.set(i, j, zero)
			}
		}
	}
	return nil
}
