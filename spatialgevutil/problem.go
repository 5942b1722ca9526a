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

package spatialgevutil

import (
	"fmt"
	"math"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/ctessum/geom/proj"
	"github.com/ctessum/sparse"
	"github.com/spatialmodel/spatialgev"
	"github.com/spatialmodel/spatialgev/sites"
	"github.com/spf13/cast"
	"gonum.org/v1/gonum/mat"
)

// Problem holds the data and parameter values of a likelihood evaluation,
// as read from a TOML file. Matrices are given as arrays of rows.
type Problem struct {
	// Variant is the name of the model, for example "ab_exp".
	Variant string

	// Reparam is the name of the shape reparameterization: "zero",
	// "positive", "negative" or "unconstrained".
	Reparam string

	// SMean and SSD are the mean and standard deviation of the normal prior
	// on the stored shape.
	SMean, SSD float64

	// BetaPrior places a normal prior on the regression coefficients.
	BetaPrior bool

	// Threshold is the covariance sparsification cutoff. An ab_matern
	// problem that leaves it out is not sparsified.
	Threshold float64

	// Nu is the Matérn smoothness used by the SPDE model.
	Nu float64

	Y    []float64
	NObs []int

	// Dist is the distance matrix of the dense models. It is ignored when
	// SitesFile is set.
	Dist [][]float64

	// SitesFile is a point shapefile holding one site per location, in
	// location order. Distances between the sites are measured with Metric,
	// after converting the sites to SitesProj if it is set.
	// It can include environment variables.
	SitesFile string
	Metric    string
	SitesProj string

	DesignA, DesignB, DesignS [][]float64

	// Mesh holds the finite-element matrices of the SPDE model.
	Mesh MeshFile

	// MeshIdxLoc holds the mesh node of each location.
	MeshIdxLoc []int

	// Params holds the parameter values by block name, as listed by
	// Objective.Layout. Latent fields and coefficients are arrays; a
	// single number given for one of them is used for every element.
	Params map[string]interface{}
}

// MeshFile holds the matrices of a finite-element mesh with N nodes.
type MeshFile struct {
	N          int
	M0, M1, M2 Triplets
}

// Triplets holds the non-zero elements of a symmetric sparse matrix. Each
// off-diagonal pair only needs to be listed once.
type Triplets struct {
	I, J []int
	V    []float64
}

// LoadProblem reads a Problem from the TOML file filename.
func LoadProblem(filename string) (*Problem, error) {
	p := &Problem{
		Reparam: spatialgev.ShapeZero.String(),
		SSD:     spatialgev.FlatPriorSD,
		Metric:  sites.Euclidean.String(),
		Nu:      1,
	}
	md, err := toml.DecodeFile(filename, p)
	if err != nil {
		return nil, fmt.Errorf("spatialgev: problem reading problem file: %v", err)
	}
	// A zero Matérn cutoff drops every off-diagonal covariance.
	if !md.IsDefined("Threshold") && p.Variant == spatialgev.ABMatern.String() {
		p.Threshold = math.Inf(1)
	}
	return p, nil
}

// Objective returns the objective function described by p.
func (p *Problem) Objective() (*spatialgev.Objective, error) {
	v, err := spatialgev.ParseVariant(p.Variant)
	if err != nil {
		return nil, err
	}
	r, err := spatialgev.ParseReparam(p.Reparam)
	if err != nil {
		return nil, err
	}
	data := spatialgev.Data{
		Y:         p.Y,
		NObs:      p.NObs,
		Reparam:   r,
		SMean:     p.SMean,
		SSD:       p.SSD,
		BetaPrior: p.BetaPrior,
	}
	if v.Kernel() == spatialgev.SPDEKernel {
		d := &spatialgev.SPDEData{
			Data:       data,
			MeshIdxLoc: p.MeshIdxLoc,
			Nu:         p.Nu,
		}
		if d.Mesh, err = p.Mesh.mesh(); err != nil {
			return nil, err
		}
		if d.DesignA, err = dense("DesignA", p.DesignA); err != nil {
			return nil, err
		}
		if d.DesignB, err = dense("DesignB", p.DesignB); err != nil {
			return nil, err
		}
		if len(p.DesignS) != 0 {
			return nil, fmt.Errorf("spatialgev: %v has no shape field for DesignS: %w", v, spatialgev.ErrVariant)
		}
		return spatialgev.NewSPDEObjective(d)
	}

	d := &spatialgev.DenseData{
		Data:      data,
		Threshold: p.Threshold,
	}
	if d.Dist, err = p.distances(); err != nil {
		return nil, err
	}
	if d.DesignA, err = dense("DesignA", p.DesignA); err != nil {
		return nil, err
	}
	if d.DesignB, err = dense("DesignB", p.DesignB); err != nil {
		return nil, err
	}
	if d.DesignS, err = dense("DesignS", p.DesignS); err != nil {
		return nil, err
	}
	return spatialgev.NewDenseObjective(v, d)
}

// distances returns the distance matrix, either from the sites file or
// as given.
func (p *Problem) distances() (mat.Symmetric, error) {
	if p.SitesFile == "" {
		return symmetric("Dist", p.Dist)
	}
	m, err := sites.ParseMetric(p.Metric)
	if err != nil {
		return nil, err
	}
	var sr *proj.SR
	if p.SitesProj != "" {
		if sr, err = proj.Parse(p.SitesProj); err != nil {
			return nil, fmt.Errorf("spatialgev: parsing SitesProj: %v", err)
		}
	}
	points, err := sites.Load(os.ExpandEnv(p.SitesFile), sr)
	if err != nil {
		return nil, err
	}
	return sites.DistanceMatrix(points, m), nil
}

// Theta returns the parameter vector of o filled in from p.Params.
func (p *Problem) Theta(o *spatialgev.Objective) ([]float64, error) {
	theta := make([]float64, o.Len())
	for _, b := range o.Layout() {
		v, ok := p.Params[b.Name]
		if !ok {
			return nil, fmt.Errorf("spatialgev: parameter %s is not set", b.Name)
		}
		dst := theta[b.Offset : b.Offset+b.Size]
		if err := fill(dst, b, v); err != nil {
			return nil, err
		}
	}
	for name := range p.Params {
		if !hasBlock(o.Layout(), name) {
			return nil, fmt.Errorf("spatialgev: %v has no parameter %s", o.Variant(), name)
		}
	}
	return theta, nil
}

func hasBlock(layout []spatialgev.Block, name string) bool {
	for _, b := range layout {
		if b.Name == name {
			return true
		}
	}
	return false
}

// fill sets dst to the value v of block b.
func fill(dst []float64, b spatialgev.Block, v interface{}) error {
	if fs, ok := v.([]float64); ok {
		vs := make([]interface{}, len(fs))
		for i, f := range fs {
			vs[i] = f
		}
		v = vs
	}
	if vs, err := cast.ToSliceE(v); err == nil {
		if !b.Vector {
			return fmt.Errorf("spatialgev: parameter %s must be a number", b.Name)
		}
		if len(vs) != len(dst) {
			return fmt.Errorf("spatialgev: parameter %s has %d values, want %d: %w",
				b.Name, len(vs), len(dst), spatialgev.ErrDimension)
		}
		for i, x := range vs {
			f, err := cast.ToFloat64E(x)
			if err != nil {
				return fmt.Errorf("spatialgev: parameter %s[%d]: %v", b.Name, i, err)
			}
			dst[i] = f
		}
		return nil
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return fmt.Errorf("spatialgev: parameter %s: %v", b.Name, err)
	}
	for i := range dst {
		dst[i] = f
	}
	return nil
}

// dense converts rows to a matrix. It returns nil for a matrix with no rows.
func dense(name string, rows [][]float64) (mat.Matrix, error) {
	if len(rows) == 0 {
		return nil, nil
	}
	c := len(rows[0])
	if c == 0 {
		return nil, fmt.Errorf("spatialgev: %s has no columns: %w", name, spatialgev.ErrDimension)
	}
	m := mat.NewDense(len(rows), c, nil)
	for i, row := range rows {
		if len(row) != c {
			return nil, fmt.Errorf("spatialgev: row %d of %s has %d columns, want %d: %w",
				i, name, len(row), c, spatialgev.ErrDimension)
		}
		m.SetRow(i, row)
	}
	return m, nil
}

// symmetric converts rows to a symmetric matrix.
// It returns nil for a matrix with no rows.
func symmetric(name string, rows [][]float64) (mat.Symmetric, error) {
	n := len(rows)
	if n == 0 {
		return nil, nil
	}
	m := mat.NewSymDense(n, nil)
	for i, row := range rows {
		if len(row) != n {
			return nil, fmt.Errorf("spatialgev: row %d of %s has %d columns, want %d: %w",
				i, name, len(row), n, spatialgev.ErrDimension)
		}
	}
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			if rows[i][j] != rows[j][i] {
				return nil, fmt.Errorf("spatialgev: %s is not symmetric at (%d, %d): %w",
					name, i, j, spatialgev.ErrDistance)
			}
			m.SetSym(i, j, rows[i][j])
		}
	}
	return m, nil
}

func (m MeshFile) mesh() (*spatialgev.Mesh, error) {
	if m.N <= 0 {
		return nil, fmt.Errorf("spatialgev: mesh has %d nodes: %w", m.N, spatialgev.ErrMesh)
	}
	mesh := spatialgev.NewMesh(m.N)
	for _, t := range []struct {
		name string
		src  Triplets
		dst  *sparse.SparseArray
	}{{"M0", m.M0, mesh.M0}, {"M1", m.M1, mesh.M1}, {"M2", m.M2, mesh.M2}} {
		if len(t.src.J) != len(t.src.I) || len(t.src.V) != len(t.src.I) {
			return nil, fmt.Errorf("spatialgev: mesh matrix %s has %d rows, %d columns and %d values: %w",
				t.name, len(t.src.I), len(t.src.J), len(t.src.V), spatialgev.ErrMesh)
		}
		for k, i := range t.src.I {
			j := t.src.J[k]
			if i < 0 || i >= m.N || j < 0 || j >= m.N {
				return nil, fmt.Errorf("spatialgev: mesh matrix %s element (%d, %d) is outside the mesh: %w",
					t.name, i, j, spatialgev.ErrMesh)
			}
			spatialgev.SetSym(t.dst, t.src.V[k], i, j)
		}
	}
	return mesh, nil
}
