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
)

// Kernel is the family of spatial covariance used for the latent fields.
type Kernel int

const (
	ExponentialKernel Kernel = iota
	MaternKernel
	SPDEKernel
)

var kernelNames = [...]string{"exponential", "matern", "spde"}

func (k Kernel) String() string {
	if k >= ExponentialKernel && k <= SPDEKernel {
		return kernelNames[k]
	}
	return fmt.Sprintf("Kernel(%d)", int(k))
}

// ParseKernel returns the kernel with the given name.
func ParseKernel(s string) (Kernel, error) {
	for i, n := range kernelNames {
		if n == s {
			return Kernel(i), nil
		}
	}
	return 0, fmt.Errorf("spatialgev: unknown kernel %q: %w", s, ErrVariant)
}

// FieldSet specifies which GEV parameters are latent spatial fields.
type FieldSet int

const (
	// FieldsA has a field for the location a only.
	FieldsA FieldSet = iota
	// FieldsAB has fields for the location a and the log-scale log_b.
	FieldsAB
	// FieldsABS has fields for a, log_b and the shape s.
	FieldsABS
)

func (f FieldSet) names() []string {
	return [...][]string{{"a"}, {"a", "log_b"}, {"a", "log_b", "s"}}[f]
}

// Variant is a supported spatial GEV model.
type Variant int

const (
	// AExp has an exponential-kernel field for a.
	AExp Variant = iota
	// ABExp has exponential-kernel fields for a and log_b.
	ABExp
	// ABMatern has Matérn-kernel fields for a and log_b.
	ABMatern
	// ABSPDE has SPDE fields for a and log_b over a mesh.
	ABSPDE
	// ABSExp has exponential-kernel fields for a, log_b and s.
	ABSExp
)

var variants = [...]struct {
	name   string
	kernel Kernel
	fields FieldSet
}{
	AExp:     {"a_exp", ExponentialKernel, FieldsA},
	ABExp:    {"ab_exp", ExponentialKernel, FieldsAB},
	ABMatern: {"ab_matern", MaternKernel, FieldsAB},
	ABSPDE:   {"ab_spde", SPDEKernel, FieldsAB},
	ABSExp:   {"abs_exp", ExponentialKernel, FieldsABS},
}

func (v Variant) valid() bool { return v >= AExp && v <= ABSExp }

func (v Variant) String() string {
	if v.valid() {
		return variants[v].name
	}
	return fmt.Sprintf("Variant(%d)", int(v))
}

// Kernel returns the covariance family of v.
func (v Variant) Kernel() Kernel { return variants[v].kernel }

// Fields returns the latent fields of v.
func (v Variant) Fields() FieldSet { return variants[v].fields }

// ParseVariant returns the variant with the given name, such as "ab_exp".
func ParseVariant(s string) (Variant, error) {
	for i, v := range variants {
		if v.name == s {
			return Variant(i), nil
		}
	}
	return 0, fmt.Errorf("spatialgev: unknown model %q: %w", s, ErrVariant)
}

// AExpParams are the parameters of AExp.
type AExpParams[T any] struct {
	A                  []T
	LogB, S            T
	BetaA              []T
	LogSigmaA, LogEllA T
}

// ABExpParams are the parameters of ABExp.
type ABExpParams[T any] struct {
	A, LogB                                []T
	S                                      T
	BetaA, BetaB                           []T
	LogSigmaA, LogEllA, LogSigmaB, LogEllB T
}

// ABMaternParams are the parameters of ABMatern. The Matérn covariance has
// unit variance.
type ABMaternParams[T any] struct {
	A, LogB                                []T
	S                                      T
	BetaA, BetaB                           []T
	LogPhiA, LogKappaA, LogPhiB, LogKappaB T
}

// ABSPDEParams are the parameters of ABSPDE. A and LogB take one value per
// mesh node.
type ABSPDEParams[T any] struct {
	A, LogB                                    []T
	S                                          T
	BetaA, BetaB                               []T
	LogSigmaA, LogKappaA, LogSigmaB, LogKappaB T
}

// ABSExpParams are the parameters of ABSExp. S holds the stored shape of
// each location.
type ABSExpParams[T any] struct {
	A, LogB, S                                                 []T
	BetaA, BetaB, BetaS                                        []T
	LogSigmaA, LogEllA, LogSigmaB, LogEllB, LogSigmaS, LogEllS T
}

// NLLAExp returns the negative log-likelihood of AExp.
func NLLAExp[T any](ops ad.Ops[T], d *DenseData, p *AExpParams[T]) (T, error) {
	obs, err := d.validate(AExp)
	if err != nil {
		var zero T
		return zero, err
	}
	fields := []latentField[T]{
		{"a", p.A, d.DesignA, p.BetaA, exponentialPenalty(ops, d.Dist, p.LogSigmaA, p.LogEllA, d.Threshold)},
	}
	return assemble(ops, obs.Locations(), fields, d.BetaPrior, func(nll T) T {
		return AccumulateDataNLL(ops, nll, obs, PerLocation(p.A, nil), Shared(p.LogB), p.S, d.Reparam, d.SMean, d.SSD)
	})
}

// NLLABExp returns the negative log-likelihood of ABExp.
func NLLABExp[T any](ops ad.Ops[T], d *DenseData, p *ABExpParams[T]) (T, error) {
	obs, err := d.validate(ABExp)
	if err != nil {
		var zero T
		return zero, err
	}
	fields := []latentField[T]{
		{"a", p.A, d.DesignA, p.BetaA, exponentialPenalty(ops, d.Dist, p.LogSigmaA, p.LogEllA, d.Threshold)},
		{"log_b", p.LogB, d.DesignB, p.BetaB, exponentialPenalty(ops, d.Dist, p.LogSigmaB, p.LogEllB, d.Threshold)},
	}
	return assemble(ops, obs.Locations(), fields, d.BetaPrior, func(nll T) T {
		return AccumulateDataNLL(ops, nll, obs, PerLocation(p.A, nil), PerLocation(p.LogB, nil), p.S, d.Reparam, d.SMean, d.SSD)
	})
}

// NLLABMatern returns the negative log-likelihood of ABMatern.
func NLLABMatern[T any](ops ad.Ops[T], d *DenseData, p *ABMaternParams[T]) (T, error) {
	obs, err := d.validate(ABMatern)
	if err != nil {
		var zero T
		return zero, err
	}
	fields := []latentField[T]{
		{"a", p.A, d.DesignA, p.BetaA, maternPenalty(ops, d.Dist, p.LogPhiA, p.LogKappaA, d.Threshold)},
		{"log_b", p.LogB, d.DesignB, p.BetaB, maternPenalty(ops, d.Dist, p.LogPhiB, p.LogKappaB, d.Threshold)},
	}
	return assemble(ops, obs.Locations(), fields, d.BetaPrior, func(nll T) T {
		return AccumulateDataNLL(ops, nll, obs, PerLocation(p.A, nil), PerLocation(p.LogB, nil), p.S, d.Reparam, d.SMean, d.SSD)
	})
}

// NLLABSPDE returns the negative log-likelihood of ABSPDE. The fields are
// defined over the mesh nodes, and each location takes the field values of
// its mesh node.
func NLLABSPDE[T any](ops ad.Ops[T], d *SPDEData, p *ABSPDEParams[T]) (T, error) {
	obs, err := d.validate()
	if err != nil {
		var zero T
		return zero, err
	}
	fields := []latentField[T]{
		{"a", p.A, d.DesignA, p.BetaA, spdePenalty(ops, d.Mesh, d.Nu, p.LogSigmaA, p.LogKappaA)},
		{"log_b", p.LogB, d.DesignB, p.BetaB, spdePenalty(ops, d.Mesh, d.Nu, p.LogSigmaB, p.LogKappaB)},
	}
	return assemble(ops, d.Mesh.Size(), fields, d.BetaPrior, func(nll T) T {
		return AccumulateDataNLL(ops, nll, obs, PerLocation(p.A, d.MeshIdxLoc), PerLocation(p.LogB, d.MeshIdxLoc),
			p.S, d.Reparam, d.SMean, d.SSD)
	})
}

// NLLABSExp returns the negative log-likelihood of ABSExp. The stored shape
// is a latent field, so SMean and SSD are not used.
func NLLABSExp[T any](ops ad.Ops[T], d *DenseData, p *ABSExpParams[T]) (T, error) {
	obs, err := d.validate(ABSExp)
	if err != nil {
		var zero T
		return zero, err
	}
	fields := []latentField[T]{
		{"a", p.A, d.DesignA, p.BetaA, exponentialPenalty(ops, d.Dist, p.LogSigmaA, p.LogEllA, d.Threshold)},
		{"log_b", p.LogB, d.DesignB, p.BetaB, exponentialPenalty(ops, d.Dist, p.LogSigmaB, p.LogEllB, d.Threshold)},
		{"s", p.S, d.DesignS, p.BetaS, exponentialPenalty(ops, d.Dist, p.LogSigmaS, p.LogEllS, d.Threshold)},
	}
	return assemble(ops, obs.Locations(), fields, d.BetaPrior, func(nll T) T {
		return AccumulateFieldShapeNLL(ops, nll, obs, PerLocation(p.A, nil), PerLocation(p.LogB, nil),
			PerLocation(p.S, nil), d.Reparam)
	})
}
