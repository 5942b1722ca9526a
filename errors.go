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

import "errors"

// Structural errors. These are returned when the inputs to an evaluation
// do not fit together; they are never produced by parameter values.
// Callers should match them with errors.Is.
var (
	// ErrDimension indicates that a vector or matrix does not have the
	// length or shape implied by the rest of the inputs.
	ErrDimension = errors.New("spatialgev: dimension mismatch")

	// ErrObservationCount indicates that the per-location observation
	// counts do not add up to the number of observations, or that a
	// count is negative.
	ErrObservationCount = errors.New("spatialgev: observation counts do not match observations")

	// ErrReparam indicates an unknown shape reparameterization flag, or
	// one that is not allowed for the model variant.
	ErrReparam = errors.New("spatialgev: invalid shape reparameterization")

	// ErrDistance indicates a distance matrix with a non-zero diagonal or
	// negative or NaN entries, or a negative sparsification threshold.
	ErrDistance = errors.New("spatialgev: invalid distance matrix")

	// ErrMesh indicates a malformed SPDE mesh operator.
	ErrMesh = errors.New("spatialgev: invalid mesh operator")

	// ErrMeshIndex indicates a location that maps to a mesh node outside
	// of the mesh.
	ErrMeshIndex = errors.New("spatialgev: mesh index out of range")

	// ErrVariant indicates an unknown model variant, or inputs that the
	// variant cannot use.
	ErrVariant = errors.New("spatialgev: invalid model variant")
)

// ErrNotPositiveDefinite is returned by the latent-field penalties when the
// Cholesky decomposition of a covariance or precision matrix fails. The
// model assemblers do not return it; they turn it into a NaN likelihood.
var ErrNotPositiveDefinite = errors.New("spatialgev: matrix is not positive definite")
