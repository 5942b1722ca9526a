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

	"github.com/spatialmodel/spatialgev/ad"
	"gonum.org/v1/gonum/mat"
)

// MVNPenalty returns the negative log-density at x of a zero-mean
// multivariate normal distribution with covariance cov:
//
//	½·log det Σ + ½·xᵀΣ⁻¹x + (n/2)·log 2π.
//
// ErrNotPositiveDefinite is returned if the Cholesky decomposition of cov
// fails.
func MVNPenalty[T any](ops ad.Ops[T], cov *SymMatrix[T], x []T) (T, error) {
	n := cov.Size()
	if len(x) != n {
		var zero T
		return zero, fmt.Errorf("spatialgev: field has length %d but covariance is %d×%d: %w", len(x), n, n, ErrDimension)
	}
	l, err := cholesky(ops, cov)
	if err != nil {
		var zero T
		return zero, err
	}
	// Solve L z = x by forward substitution; xᵀΣ⁻¹x = zᵀz.
	z := make([]T, n)
	halfLogDet := ops.Const(0)
	for i := 0; i < n; i++ {
		s := x[i]
		for k := 0; k < i; k++ {
			s = ops.Sub(s, ops.Mul(l[i*n+k], z[k]))
		}
		z[i] = ops.Div(s, l[i*n+i])
		halfLogDet = ops.Add(halfLogDet, ops.Log(l[i*n+i]))
	}
	quad := ad.Dot(ops, z, z)
	return ops.AddConst(ops.Add(halfLogDet, ops.Scale(0.5, quad)), 0.5*float64(n)*log2Pi), nil
}

// GMRFPenalty returns the negative log-density at x of a zero-mean
// Gaussian Markov random field with precision q whose standard deviation
// is multiplied by scale:
//
//	-½·log det Q + ½·zᵀQz + (n/2)·log 2π + n·log(scale),  z = x/scale.
//
// ErrNotPositiveDefinite is returned if the Cholesky decomposition of q
// fails.
func GMRFPenalty[T any](ops ad.Ops[T], q *Precision[T], scale T, x []T) (T, error) {
	n := q.Size()
	if len(x) != n {
		var zero T
		return zero, fmt.Errorf("spatialgev: field has length %d but precision is %d×%d: %w", len(x), n, n, ErrDimension)
	}
	halfLogDet, err := q.halfLogDet(ops)
	if err != nil {
		var zero T
		return zero, err
	}
	z := make([]T, n)
	for i, v := range x {
		z[i] = ops.Div(v, scale)
	}
	nll := ops.Sub(ops.Scale(0.5, q.quadForm(ops, z)), halfLogDet)
	nll = ops.AddConst(nll, 0.5*float64(n)*log2Pi)
	return ops.Add(nll, ops.Scale(float64(n), ops.Log(scale))), nil
}

// Center returns x − Xβ, the deviation of a latent field from the linear
// mean trend given by design matrix X and coefficients beta.
func Center[T any](ops ad.Ops[T], x []T, design mat.Matrix, beta []T) []T {
	r, c := design.Dims()
	o := make([]T, r)
	for i := 0; i < r; i++ {
		mu := ops.Const(0)
		for k := 0; k < c; k++ {
			if v := design.At(i, k); v != 0 {
				mu = ops.Add(mu, ops.Scale(v, beta[k]))
			}
		}
		o[i] = ops.Sub(x[i], mu)
	}
	return o
}
