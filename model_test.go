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
	"math"
	"testing"

	"github.com/spatialmodel/spatialgev/ad"
	"gonum.org/v1/gonum/mat"
)

// denseTestData returns three locations with two, one and three
// observations.
func denseTestData(r Reparam) *DenseData {
	return &DenseData{
		Data: Data{
			Y:       []float64{1.1, 0.7, 2.3, 1.6, 0.9, 1.4},
			NObs:    []int{2, 1, 3},
			Reparam: r,
			SMean:   -1,
			SSD:     FlatPriorSD,
		},
		Dist: lineDist(0, 0.8, 2),
	}
}

func TestNLLAExpComposition(t *testing.T) {
	var fl ad.Float
	d := denseTestData(ShapeFree)
	d.SSD = 2
	p := &AExpParams[float64]{
		A:         []float64{1, 1.2, 0.9},
		LogB:      -0.3,
		S:         0.1,
		LogSigmaA: 0.2,
		LogEllA:   -0.1,
	}
	have, err := NLLAExp[float64](fl, d, p)
	if err != nil {
		t.Fatal(err)
	}

	cov := NewSymMatrix[float64](3)
	if err := ExponentialCov[float64](fl, cov, d.Dist, math.Exp(0.2), math.Exp(-0.1), 0); err != nil {
		t.Fatal(err)
	}
	pen, err := MVNPenalty[float64](fl, cov, p.A)
	if err != nil {
		t.Fatal(err)
	}
	obs, _ := NewObservations(d.Y, d.NObs)
	want := AccumulateDataNLL[float64](fl, pen, obs, PerLocation(p.A, nil), Shared(p.LogB), p.S, ShapeFree, -1, 2)
	if different(have, want, 1e-13) {
		t.Errorf("%g != %g", have, want)
	}
}

func TestNLLCoincidentSitesIsNaN(t *testing.T) {
	d := denseTestData(ShapeZero)
	d.Dist = lineDist(0, 0, 1)
	p := &AExpParams[float64]{A: []float64{1, 1, 1}}
	v, err := NLLAExp[float64](ad.Float{}, d, p)
	if err != nil {
		t.Fatal(err)
	}
	if !math.IsNaN(v) {
		t.Errorf("nll = %g, want NaN", v)
	}

	fw := ad.Forward{N: 3}
	pd := &AExpParams[ad.Dual]{A: fw.Variables([]float64{1, 1, 1})}
	vd, err := NLLAExp[ad.Dual](fw, d, pd)
	if err != nil {
		t.Fatal(err)
	}
	if len(vd.D) != 3 {
		t.Fatalf("derivative length %d, want 3", len(vd.D))
	}
	for i, g := range vd.D {
		if !math.IsNaN(g) {
			t.Errorf("d nll / d a[%d] = %g, want NaN", i, g)
		}
	}
}

func TestNLLABExpCovariates(t *testing.T) {
	var fl ad.Float
	d := denseTestData(ShapePositive)
	d.SSD = 0.5
	d.BetaPrior = true
	d.Threshold = 1.5
	d.DesignA = mat.NewDense(3, 2, []float64{1, 0.1, 1, -0.4, 1, 0.8})
	p := &ABExpParams[float64]{
		A:         []float64{1, 1.2, 0.9},
		LogB:      []float64{-0.3, -0.1, 0},
		S:         -2,
		BetaA:     []float64{1.05, 0.2},
		LogSigmaA: 0.2,
		LogEllA:   -0.1,
		LogSigmaB: -1,
		LogEllB:   0.3,
	}
	have, err := NLLABExp[float64](fl, d, p)
	if err != nil {
		t.Fatal(err)
	}

	covA, covB := NewSymMatrix[float64](3), NewSymMatrix[float64](3)
	ExponentialCov[float64](fl, covA, d.Dist, math.Exp(0.2), math.Exp(-0.1), 1.5)
	ExponentialCov[float64](fl, covB, d.Dist, math.Exp(-1), math.Exp(0.3), 1.5)
	pa, err := MVNPenalty[float64](fl, covA, Center[float64](fl, p.A, d.DesignA, p.BetaA))
	if err != nil {
		t.Fatal(err)
	}
	pb, err := MVNPenalty[float64](fl, covB, p.LogB)
	if err != nil {
		t.Fatal(err)
	}
	prior := -NormalLogPDF[float64](fl, 1.05, 0, 100) - NormalLogPDF[float64](fl, 0.2, 0, 100)
	obs, _ := NewObservations(d.Y, d.NObs)
	want := AccumulateDataNLL[float64](fl, pa+prior+pb, obs, PerLocation(p.A, nil), PerLocation(p.LogB, nil),
		p.S, ShapePositive, -1, 0.5)
	if different(have, want, 1e-12) {
		t.Errorf("%g != %g", have, want)
	}

	d.BetaPrior = false
	flat, err := NLLABExp[float64](fl, d, p)
	if err != nil {
		t.Fatal(err)
	}
	if different(have-flat, prior, 1e-8) {
		t.Errorf("coefficient prior: %g != %g", have-flat, prior)
	}
}

func TestNLLABMaternComposition(t *testing.T) {
	var fl ad.Float
	d := denseTestData(ShapeZero)
	d.Threshold = math.Inf(1)
	p := &ABMaternParams[float64]{
		A:         []float64{1, 1.2, 0.9},
		LogB:      []float64{-0.3, -0.1, 0},
		LogPhiA:   0.1,
		LogKappaA: math.Log(1.5),
		LogPhiB:   -0.2,
		LogKappaB: 0,
	}
	have, err := NLLABMatern[float64](fl, d, p)
	if err != nil {
		t.Fatal(err)
	}
	covA, covB := NewSymMatrix[float64](3), NewSymMatrix[float64](3)
	MaternCov[float64](fl, covA, d.Dist, math.Exp(0.1), 1.5, d.Threshold)
	MaternCov[float64](fl, covB, d.Dist, math.Exp(-0.2), 1, d.Threshold)
	pa, _ := MVNPenalty[float64](fl, covA, p.A)
	pb, _ := MVNPenalty[float64](fl, covB, p.LogB)
	obs, _ := NewObservations(d.Y, d.NObs)
	want := AccumulateDataNLL[float64](fl, pa+pb, obs, PerLocation(p.A, nil), PerLocation(p.LogB, nil), 0, ShapeZero, 0, 0)
	if different(have, want, 1e-9) {
		t.Errorf("%g != %g", have, want)
	}
}

func spdeTestData(r Reparam) *SPDEData {
	return &SPDEData{
		Data: Data{
			Y:       []float64{1.1, 0.7, 2.3, 1.6},
			NObs:    []int{3, 1},
			Reparam: r,
			SSD:     FlatPriorSD,
		},
		Mesh:       chainMesh(5, 0.5),
		MeshIdxLoc: []int{3, 1},
		Nu:         1,
	}
}

func TestNLLABSPDEComposition(t *testing.T) {
	var fl ad.Float
	d := spdeTestData(ShapeNegative)
	p := &ABSPDEParams[float64]{
		A:         []float64{1, 1.1, 1.2, 0.9, 1},
		LogB:      []float64{-0.3, -0.1, 0, 0.2, 0.1},
		S:         -1.5,
		LogSigmaA: 0.2,
		LogKappaA: 0.5,
		LogSigmaB: -0.4,
		LogKappaB: 0.1,
	}
	have, err := NLLABSPDE[float64](fl, d, p)
	if err != nil {
		t.Fatal(err)
	}
	penalty := func(x []float64, logSigma, logKappa float64) float64 {
		kappa := math.Exp(logKappa)
		q := SPDEPrecision[float64](fl, d.Mesh, kappa)
		v, err := GMRFPenalty[float64](fl, q, math.Exp(logSigma)/MarginalVariance[float64](fl, kappa, 1), x)
		if err != nil {
			t.Fatal(err)
		}
		return v
	}
	pen := penalty(p.A, 0.2, 0.5) + penalty(p.LogB, -0.4, 0.1)
	obs, _ := NewObservations(d.Y, d.NObs)
	// Location 0 is at mesh node 3 and location 1 at node 1.
	want := AccumulateDataNLL[float64](fl, pen, obs, PerLocation([]float64{0.9, 1.1}, nil),
		PerLocation([]float64{0.2, -0.1}, nil), p.S, ShapeNegative, 0, FlatPriorSD)
	if different(have, want, 1e-12) {
		t.Errorf("%g != %g", have, want)
	}
}

func TestNLLABSExpComposition(t *testing.T) {
	var fl ad.Float
	d := denseTestData(ShapeFree)
	d.DesignA = mat.NewDense(3, 1, []float64{1, 1, 1})
	d.DesignS = mat.NewDense(3, 1, []float64{1, 1, 1})
	p := &ABSExpParams[float64]{
		A:         []float64{1, 1.2, 0.9},
		LogB:      []float64{-0.3, -0.1, 0},
		S:         []float64{0.1, 0.05, 0.2},
		BetaA:     []float64{1},
		BetaS:     []float64{0.1},
		LogSigmaA: 0.2, LogEllA: -0.1,
		LogSigmaB: -1, LogEllB: 0.3,
		LogSigmaS: -2, LogEllS: 0.5,
	}
	have, err := NLLABSExp[float64](fl, d, p)
	if err != nil {
		t.Fatal(err)
	}
	pen := func(x []float64, logSigma, logEll float64) float64 {
		cov := NewSymMatrix[float64](3)
		ExponentialCov[float64](fl, cov, d.Dist, math.Exp(logSigma), math.Exp(logEll), 0)
		v, err := MVNPenalty[float64](fl, cov, x)
		if err != nil {
			t.Fatal(err)
		}
		return v
	}
	total := pen([]float64{0, 0.2, -0.1}, 0.2, -0.1) +
		pen(p.LogB, -1, 0.3) +
		pen([]float64{0, -0.05, 0.1}, -2, 0.5)
	obs, _ := NewObservations(d.Y, d.NObs)
	want := AccumulateFieldShapeNLL[float64](fl, total, obs, PerLocation(p.A, nil), PerLocation(p.LogB, nil),
		PerLocation(p.S, nil), ShapeFree)
	if different(have, want, 1e-10) {
		t.Errorf("%g != %g", have, want)
	}
}

func TestValidation(t *testing.T) {
	var fl ad.Float
	aexp := func(d *DenseData, p *AExpParams[float64]) error {
		if p == nil {
			p = &AExpParams[float64]{A: []float64{1, 1, 1}}
		}
		_, err := NLLAExp[float64](fl, d, p)
		return err
	}
	tests := []struct {
		name string
		err  error
		f    func() error
	}{
		{"count", ErrObservationCount, func() error {
			d := denseTestData(ShapeZero)
			d.NObs = []int{2, 1, 2}
			return aexp(d, nil)
		}},
		{"distance size", ErrDimension, func() error {
			d := denseTestData(ShapeZero)
			d.Dist = lineDist(0, 1)
			return aexp(d, nil)
		}},
		{"no distance", ErrDimension, func() error {
			d := denseTestData(ShapeZero)
			d.Dist = nil
			return aexp(d, nil)
		}},
		{"negative distance", ErrDistance, func() error {
			d := denseTestData(ShapeZero)
			dd := lineDist(0, 1, 2)
			dd.SetSym(2, 0, -1)
			d.Dist = dd
			return aexp(d, nil)
		}},
		{"diagonal", ErrDistance, func() error {
			d := denseTestData(ShapeZero)
			dd := lineDist(0, 1, 2)
			dd.SetSym(1, 1, 0.1)
			d.Dist = dd
			return aexp(d, nil)
		}},
		{"threshold", ErrDistance, func() error {
			d := denseTestData(ShapeZero)
			d.Threshold = -1
			return aexp(d, nil)
		}},
		{"reparam", ErrReparam, func() error {
			return aexp(denseTestData(Reparam(7)), nil)
		}},
		{"shape sd", ErrReparam, func() error {
			d := denseTestData(ShapeFree)
			d.SSD = 0
			return aexp(d, nil)
		}},
		{"field shape without prior", nil, func() error {
			d := denseTestData(ShapeFree)
			d.SSD = 0
			_, err := NLLABSExp[float64](fl, d, &ABSExpParams[float64]{
				A: []float64{1, 1, 1}, LogB: []float64{0, 0, 0}, S: []float64{0.1, 0.1, 0.1},
			})
			return err
		}},
		{"field length", ErrDimension, func() error {
			return aexp(denseTestData(ShapeZero), &AExpParams[float64]{A: []float64{1, 1}})
		}},
		{"design rows", ErrDimension, func() error {
			d := denseTestData(ShapeZero)
			d.DesignA = mat.NewDense(2, 1, []float64{1, 1})
			return aexp(d, &AExpParams[float64]{A: []float64{1, 1, 1}, BetaA: []float64{0}})
		}},
		{"coefficients", ErrDimension, func() error {
			d := denseTestData(ShapeZero)
			d.DesignA = mat.NewDense(3, 1, []float64{1, 1, 1})
			return aexp(d, &AExpParams[float64]{A: []float64{1, 1, 1}})
		}},
		{"coefficients without design", ErrDimension, func() error {
			return aexp(denseTestData(ShapeZero), &AExpParams[float64]{A: []float64{1, 1, 1}, BetaA: []float64{0}})
		}},
		{"design for missing field", ErrVariant, func() error {
			d := denseTestData(ShapeZero)
			d.DesignB = mat.NewDense(3, 1, []float64{1, 1, 1})
			return aexp(d, nil)
		}},
		{"zero shape field", ErrReparam, func() error {
			d := denseTestData(ShapeZero)
			_, err := NLLABSExp[float64](fl, d, &ABSExpParams[float64]{})
			return err
		}},
		{"mesh index", ErrMeshIndex, func() error {
			d := spdeTestData(ShapeZero)
			d.MeshIdxLoc = []int{3, 5}
			_, err := NLLABSPDE[float64](fl, d, &ABSPDEParams[float64]{})
			return err
		}},
		{"mesh index count", ErrMeshIndex, func() error {
			d := spdeTestData(ShapeZero)
			d.MeshIdxLoc = []int{3}
			return d.Validate()
		}},
		{"mesh", ErrMesh, func() error {
			d := spdeTestData(ShapeZero)
			d.Mesh = nil
			return d.Validate()
		}},
		{"smoothness", ErrMesh, func() error {
			d := spdeTestData(ShapeZero)
			d.Nu = 0
			return d.Validate()
		}},
		{"spde field length", ErrDimension, func() error {
			d := spdeTestData(ShapeZero)
			_, err := NLLABSPDE[float64](fl, d, &ABSPDEParams[float64]{A: make([]float64, 2), LogB: make([]float64, 2)})
			return err
		}},
		{"dense variant", ErrVariant, func() error {
			return denseTestData(ShapeZero).Validate(ABSPDE)
		}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if err := test.f(); !errors.Is(err, test.err) {
				t.Errorf("have %v, want %v", err, test.err)
			}
		})
	}
}

func TestParseVariant(t *testing.T) {
	for v := AExp; v <= ABSExp; v++ {
		p, err := ParseVariant(v.String())
		if err != nil || p != v {
			t.Errorf("%v: %v, %v", v, p, err)
		}
	}
	if _, err := ParseVariant("b_exp"); !errors.Is(err, ErrVariant) {
		t.Errorf("have %v, want %v", err, ErrVariant)
	}
	if ABSPDE.Kernel() != SPDEKernel || ABMatern.Fields() != FieldsAB || ABSExp.Fields() != FieldsABS {
		t.Error("wrong variant payload")
	}
	for k := ExponentialKernel; k <= SPDEKernel; k++ {
		p, err := ParseKernel(k.String())
		if err != nil || p != k {
			t.Errorf("%v: %v, %v", k, p, err)
		}
	}
	if _, err := ParseKernel("gaussian"); !errors.Is(err, ErrVariant) {
		t.Errorf("have %v, want %v", err, ErrVariant)
	}
}
