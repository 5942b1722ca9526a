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
	"errors"
	"fmt"
	"math"

	"github.com/spatialmodel/spatialgev/ad"
	"gonum.org/v1/gonum/mat"
)

// betaPriorSD is the standard deviation of the normal prior placed on
// regression coefficients when Data.BetaPrior is set.
const betaPriorSD = 100

// Data holds the observation-level inputs shared by every model variant.
type Data struct {
	// Y holds the block maxima, grouped by location.
	Y []float64

	// NObs holds the number of observations at each location.
	NObs []int

	// Reparam specifies how the shape parameter is stored.
	Reparam Reparam

	// SMean and SSD are the mean and standard deviation of the normal
	// prior on the stored shape. SSD >= FlatPriorSD gives a flat prior.
	SMean, SSD float64

	// BetaPrior places a N(0, 100²) prior on every regression coefficient.
	// Otherwise the coefficients have a flat prior.
	BetaPrior bool
}

// observations checks d and groups its observations. shapePrior is true for
// variants with a scalar shape, whose prior uses SMean and SSD.
func (d *Data) observations(shapePrior bool) (Observations, error) {
	if !d.Reparam.valid() {
		return Observations{}, fmt.Errorf("spatialgev: %v: %w", d.Reparam, ErrReparam)
	}
	if shapePrior && d.Reparam != ShapeZero && !(d.SSD > 0) {
		return Observations{}, fmt.Errorf("spatialgev: shape prior standard deviation %g is not positive: %w", d.SSD, ErrReparam)
	}
	return NewObservations(d.Y, d.NObs)
}

// DenseData is the input to the variants that build dense covariance
// matrices from a distance matrix.
type DenseData struct {
	Data

	// Dist holds the distances between every pair of locations.
	Dist mat.Symmetric

	// Threshold is the covariance sparsification cutoff. See ExponentialCov
	// and MaternCov for how each kernel interprets it.
	Threshold float64

	// DesignA, DesignB and DesignS are the optional design matrices for the
	// mean trends of a, log_b and s, with one row per location. A nil
	// design matrix means the field has zero mean.
	DesignA, DesignB, DesignS mat.Matrix
}

// Validate checks d for use with variant v.
func (d *DenseData) Validate(v Variant) error {
	_, err := d.validate(v)
	return err
}

func (d *DenseData) validate(v Variant) (Observations, error) {
	if v.Kernel() == SPDEKernel || !v.valid() {
		return Observations{}, fmt.Errorf("spatialgev: %v cannot use a distance matrix: %w", v, ErrVariant)
	}
	obs, err := d.observations(v.Fields() != FieldsABS)
	if err != nil {
		return obs, err
	}
	if v.Fields() == FieldsABS && d.Reparam == ShapeZero {
		return obs, fmt.Errorf("spatialgev: %v requires a non-zero shape: %w", v, ErrReparam)
	}
	n := obs.Locations()
	if d.Dist == nil || d.Dist.SymmetricDim() != n {
		return obs, fmt.Errorf("spatialgev: distance matrix does not match %d locations: %w", n, ErrDimension)
	}
	for i := 0; i < n; i++ {
		if d.Dist.At(i, i) != 0 {
			return obs, fmt.Errorf("spatialgev: distance from location %d to itself is %g: %w", i, d.Dist.At(i, i), ErrDistance)
		}
		for j := 0; j < i; j++ {
			if dij := d.Dist.At(i, j); !(dij >= 0) {
				return obs, fmt.Errorf("spatialgev: distance between locations %d and %d is %g: %w", i, j, dij, ErrDistance)
			}
		}
	}
	if !(d.Threshold >= 0) {
		return obs, fmt.Errorf("spatialgev: sparsification threshold %g is negative: %w", d.Threshold, ErrDistance)
	}
	return obs, checkDesigns(v, n, d.DesignA, d.DesignB, d.DesignS)
}

// SPDEData is the input to the SPDE variant.
type SPDEData struct {
	Data

	// Mesh is the finite-element discretization over which the latent
	// fields are defined.
	Mesh *Mesh

	// MeshIdxLoc holds the mesh node of each location.
	MeshIdxLoc []int

	// Nu is the fixed Matérn smoothness of the SPDE approximation.
	Nu float64

	// DesignA and DesignB are the optional design matrices for the mean
	// trends of a and log_b, with one row per mesh node.
	DesignA, DesignB mat.Matrix
}

// Validate checks d.
func (d *SPDEData) Validate() error {
	_, err := d.validate()
	return err
}

func (d *SPDEData) validate() (Observations, error) {
	obs, err := d.observations(true)
	if err != nil {
		return obs, err
	}
	if err := d.Mesh.Validate(); err != nil {
		return obs, err
	}
	if len(d.MeshIdxLoc) != obs.Locations() {
		return obs, fmt.Errorf("spatialgev: %d mesh indices for %d locations: %w", len(d.MeshIdxLoc), obs.Locations(), ErrMeshIndex)
	}
	nodes := d.Mesh.Size()
	for i, k := range d.MeshIdxLoc {
		if k < 0 || k >= nodes {
			return obs, fmt.Errorf("spatialgev: location %d maps to mesh node %d of %d: %w", i, k, nodes, ErrMeshIndex)
		}
	}
	if !(d.Nu > 0) {
		return obs, fmt.Errorf("spatialgev: smoothness %g is not positive: %w", d.Nu, ErrMesh)
	}
	return obs, checkDesigns(ABSPDE, nodes, d.DesignA, d.DesignB, nil)
}

// checkDesigns checks that each design matrix has one row per field
// element and is only supplied for fields that v estimates.
func checkDesigns(v Variant, n int, designs ...mat.Matrix) error {
	fields := v.Fields().names()
	for i, x := range designs {
		if x == nil {
			continue
		}
		name := [...]string{"a", "log_b", "s"}[i]
		if i >= len(fields) {
			return fmt.Errorf("spatialgev: %v has no %s field for a design matrix: %w", v, name, ErrVariant)
		}
		if r, _ := x.Dims(); r != n {
			return fmt.Errorf("spatialgev: design matrix for %s has %d rows, want %d: %w", name, r, n, ErrDimension)
		}
	}
	return nil
}

// latentField is one latent Gaussian field of a model, with an optional
// linear mean trend.
type latentField[T any] struct {
	name    string
	values  []T
	design  mat.Matrix
	beta    []T
	penalty func(x []T) (T, error)
}

func (f latentField[T]) check(n int) error {
	if len(f.values) != n {
		return fmt.Errorf("spatialgev: field %s has length %d, want %d: %w", f.name, len(f.values), n, ErrDimension)
	}
	r := 0
	if f.design != nil {
		_, r = f.design.Dims()
	}
	if len(f.beta) != r {
		return fmt.Errorf("spatialgev: field %s has %d coefficients for %d covariates: %w", f.name, len(f.beta), r, ErrDimension)
	}
	return nil
}

// assemble returns the sum of the latent field penalties, the coefficient
// priors and the data layer term. A covariance or precision that is not
// positive definite gives a NaN result rather than an error, and the NaN
// reaches every derivative carried by the field values.
func assemble[T any](ops ad.Ops[T], n int, fields []latentField[T], betaPrior bool, dataTerm func(nll T) T) (T, error) {
	for _, f := range fields {
		if err := f.check(n); err != nil {
			var zero T
			return zero, err
		}
	}
	nll := ops.Const(0)
	for _, f := range fields {
		x := f.values
		if f.design != nil {
			x = Center(ops, x, f.design, f.beta)
		}
		p, err := f.penalty(x)
		if errors.Is(err, ErrNotPositiveDefinite) {
			return notPositiveDefinite(ops, fields), nil
		} else if err != nil {
			var zero T
			return zero, err
		}
		nll = ops.Add(nll, p)
		if betaPrior {
			for _, b := range f.beta {
				nll = ops.Sub(nll, NormalLogPDF(ops, b, 0, betaPriorSD))
			}
		}
	}
	return dataTerm(nll), nil
}

// notPositiveDefinite returns NaN scaled into every argument of the fields,
// so that each seeded derivative is NaN as well.
func notPositiveDefinite[T any](ops ad.Ops[T], fields []latentField[T]) T {
	sum := ops.Const(0)
	for _, f := range fields {
		sum = ops.Add(sum, ad.Sum(ops, f.values...))
		sum = ops.Add(sum, ad.Sum(ops, f.beta...))
	}
	return ops.Scale(math.NaN(), sum)
}

// exponentialPenalty returns the MVN penalty of a field with an
// exponential covariance.
func exponentialPenalty[T any](ops ad.Ops[T], dd mat.Symmetric, logSigma, logEll T, threshold float64) func([]T) (T, error) {
	return func(x []T) (T, error) {
		cov := NewSymMatrix[T](len(x))
		if err := ExponentialCov(ops, cov, dd, ops.Exp(logSigma), ops.Exp(logEll), threshold); err != nil {
			var zero T
			return zero, err
		}
		return MVNPenalty(ops, cov, x)
	}
}

// maternPenalty returns the MVN penalty of a field with a Matérn
// covariance.
func maternPenalty[T any](ops ad.Ops[T], dd mat.Symmetric, logPhi, logKappa T, threshold float64) func([]T) (T, error) {
	return func(x []T) (T, error) {
		cov := NewSymMatrix[T](len(x))
		if err := MaternCov(ops, cov, dd, ops.Exp(logPhi), ops.Exp(logKappa), threshold); err != nil {
			var zero T
			return zero, err
		}
		return MVNPenalty(ops, cov, x)
	}
}

// spdePenalty returns the GMRF penalty of a field with an SPDE precision,
// scaled so that the field has marginal variance close to exp(logSigma).
func spdePenalty[T any](ops ad.Ops[T], mesh *Mesh, nu float64, logSigma, logKappa T) func([]T) (T, error) {
	return func(x []T) (T, error) {
		kappa := ops.Exp(logKappa)
		q := SPDEPrecision(ops, mesh, kappa)
		scale := ops.Div(ops.Exp(logSigma), MarginalVariance(ops, kappa, nu))
		return GMRFPenalty(ops, q, scale, x)
	}
}
