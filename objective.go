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

	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/spatialgev/ad"
	"gonum.org/v1/gonum/mat"
)

// Block is a named, contiguous range of a flat parameter vector.
type Block struct {
	Name   string
	Offset int
	Size   int

	// Vector is true for latent fields and regression coefficients, which
	// are vectors even when they have a single element.
	Vector bool
}

// Objective evaluates the negative log-likelihood of one model variant as a
// function of a flat parameter vector, for use by numerical optimizers.
type Objective struct {
	// Log, if set, receives a debug message whenever an evaluation is not
	// finite.
	Log logrus.FieldLogger

	variant Variant
	dense   *DenseData
	spde    *SPDEData
	layout  []Block
	n       int
}

// NewDenseObjective returns an objective for a variant that uses a distance
// matrix. d is validated once here and must not be modified afterwards.
func NewDenseObjective(v Variant, d *DenseData) (*Objective, error) {
	obs, err := d.validate(v)
	if err != nil {
		return nil, err
	}
	o := &Objective{variant: v, dense: d}
	n := obs.Locations()
	o.addFields(v, n)
	o.addBetas(d.DesignA, d.DesignB, d.DesignS)
	switch v.Kernel() {
	case ExponentialKernel:
		for _, f := range v.Fields().names() {
			o.add("log_sigma_"+hyperSuffix(f), 1, false)
			o.add("log_ell_"+hyperSuffix(f), 1, false)
		}
	case MaternKernel:
		for _, f := range v.Fields().names() {
			o.add("log_phi_"+hyperSuffix(f), 1, false)
			o.add("log_kappa_"+hyperSuffix(f), 1, false)
		}
	}
	return o, nil
}

// NewSPDEObjective returns an objective for ABSPDE. d is validated once here
// and must not be modified afterwards.
func NewSPDEObjective(d *SPDEData) (*Objective, error) {
	if _, err := d.validate(); err != nil {
		return nil, err
	}
	o := &Objective{variant: ABSPDE, spde: d}
	o.addFields(ABSPDE, d.Mesh.Size())
	o.addBetas(d.DesignA, d.DesignB, nil)
	for _, f := range ABSPDE.Fields().names() {
		o.add("log_sigma_"+hyperSuffix(f), 1, false)
		o.add("log_kappa_"+hyperSuffix(f), 1, false)
	}
	return o, nil
}

// hyperSuffix returns the suffix of the hyperparameters of field f.
func hyperSuffix(f string) string {
	if f == "log_b" {
		return "b"
	}
	return f
}

func (o *Objective) add(name string, size int, vector bool) {
	if size == 0 {
		return
	}
	o.layout = append(o.layout, Block{Name: name, Offset: o.n, Size: size, Vector: vector})
	o.n += size
}

// addFields adds the latent fields of v, and the scalar log_b and s where
// v does not treat them as fields.
func (o *Objective) addFields(v Variant, n int) {
	switch v.Fields() {
	case FieldsA:
		o.add("a", n, true)
		o.add("log_b", 1, false)
		o.add("s", 1, false)
	case FieldsAB:
		o.add("a", n, true)
		o.add("log_b", n, true)
		o.add("s", 1, false)
	case FieldsABS:
		o.add("a", n, true)
		o.add("log_b", n, true)
		o.add("s", n, true)
	}
}

func (o *Objective) addBetas(designs ...mat.Matrix) {
	for i, x := range designs {
		if x == nil {
			continue
		}
		_, c := x.Dims()
		o.add("beta_"+[...]string{"a", "b", "s"}[i], c, true)
	}
}

// Variant returns the model variant that o evaluates.
func (o *Objective) Variant() Variant { return o.variant }

// Len returns the length of the parameter vector.
func (o *Objective) Len() int { return o.n }

// Layout returns the blocks of the parameter vector, in order.
func (o *Objective) Layout() []Block { return o.layout }

// Names returns the name of each element of the parameter vector.
// Elements of vector blocks are named like "a[3]".
func (o *Objective) Names() []string {
	names := make([]string, 0, o.n)
	for _, b := range o.layout {
		if !b.Vector {
			names = append(names, b.Name)
			continue
		}
		for i := 0; i < b.Size; i++ {
			names = append(names, fmt.Sprintf("%s[%d]", b.Name, i))
		}
	}
	return names
}

// split returns the blocks of theta by name.
func split[T any](layout []Block, theta []T) map[string][]T {
	p := make(map[string][]T, len(layout))
	for _, b := range layout {
		p[b.Name] = theta[b.Offset : b.Offset+b.Size]
	}
	return p
}

func evaluate[T any](ops ad.Ops[T], o *Objective, theta []T) (T, error) {
	p := split(o.layout, theta)
	one := func(name string) T { return p[name][0] }
	switch o.variant {
	case AExp:
		return NLLAExp(ops, o.dense, &AExpParams[T]{
			A: p["a"], LogB: one("log_b"), S: one("s"), BetaA: p["beta_a"],
			LogSigmaA: one("log_sigma_a"), LogEllA: one("log_ell_a"),
		})
	case ABExp:
		return NLLABExp(ops, o.dense, &ABExpParams[T]{
			A: p["a"], LogB: p["log_b"], S: one("s"), BetaA: p["beta_a"], BetaB: p["beta_b"],
			LogSigmaA: one("log_sigma_a"), LogEllA: one("log_ell_a"),
			LogSigmaB: one("log_sigma_b"), LogEllB: one("log_ell_b"),
		})
	case ABMatern:
		return NLLABMatern(ops, o.dense, &ABMaternParams[T]{
			A: p["a"], LogB: p["log_b"], S: one("s"), BetaA: p["beta_a"], BetaB: p["beta_b"],
			LogPhiA: one("log_phi_a"), LogKappaA: one("log_kappa_a"),
			LogPhiB: one("log_phi_b"), LogKappaB: one("log_kappa_b"),
		})
	case ABSPDE:
		return NLLABSPDE(ops, o.spde, &ABSPDEParams[T]{
			A: p["a"], LogB: p["log_b"], S: one("s"), BetaA: p["beta_a"], BetaB: p["beta_b"],
			LogSigmaA: one("log_sigma_a"), LogKappaA: one("log_kappa_a"),
			LogSigmaB: one("log_sigma_b"), LogKappaB: one("log_kappa_b"),
		})
	case ABSExp:
		return NLLABSExp(ops, o.dense, &ABSExpParams[T]{
			A: p["a"], LogB: p["log_b"], S: p["s"],
			BetaA: p["beta_a"], BetaB: p["beta_b"], BetaS: p["beta_s"],
			LogSigmaA: one("log_sigma_a"), LogEllA: one("log_ell_a"),
			LogSigmaB: one("log_sigma_b"), LogEllB: one("log_ell_b"),
			LogSigmaS: one("log_sigma_s"), LogEllS: one("log_ell_s"),
		})
	default:
		panic(fmt.Errorf("spatialgev: %v: %w", o.variant, ErrVariant))
	}
}

func (o *Objective) checkLen(theta []float64) {
	if len(theta) != o.n {
		panic(fmt.Errorf("spatialgev: %v has %d parameters, got %d: %w", o.variant, o.n, len(theta), ErrDimension))
	}
}

func (o *Objective) report(v float64) {
	if o.Log == nil || !(math.IsNaN(v) || math.IsInf(v, 0)) {
		return
	}
	o.Log.WithFields(logrus.Fields{
		"model": o.variant.String(),
		"nll":   v,
	}).Debug("spatialgev: non-finite negative log-likelihood")
}

// Func returns the negative log-likelihood at theta.
func (o *Objective) Func(theta []float64) float64 {
	o.checkLen(theta)
	v, err := evaluate[float64](ad.Float{}, o, theta)
	if err != nil {
		panic(err)
	}
	o.report(v)
	return v
}

// FuncGrad returns the negative log-likelihood at theta and stores its
// gradient in grad.
func (o *Objective) FuncGrad(grad, theta []float64) float64 {
	o.checkLen(theta)
	if len(grad) != o.n {
		panic(fmt.Errorf("spatialgev: gradient has length %d, want %d: %w", len(grad), o.n, ErrDimension))
	}
	fw := ad.Forward{N: o.n}
	v, err := evaluate[ad.Dual](fw, o, fw.Variables(theta))
	if err != nil {
		panic(err)
	}
	ad.Gradient(grad, v)
	if math.IsNaN(v.V) {
		// Hyperparameters of a failed factorization carry no NaN of their own.
		for i := range grad {
			grad[i] = math.NaN()
		}
	}
	o.report(v.V)
	return v.V
}

// Grad stores the gradient of the negative log-likelihood at theta in grad.
func (o *Objective) Grad(grad, theta []float64) {
	o.FuncGrad(grad, theta)
}
