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
	"sort"

	"github.com/ctessum/sparse"
	"github.com/spatialmodel/spatialgev/ad"
)

// Mesh holds the finite-element matrices of an SPDE triangulation: the
// mass matrix M0, and M1 and M2, from which the precision of a Matérn-like
// GMRF over the mesh nodes is built. Each is a symmetric n×n array over the
// n mesh nodes, with both triangles stored.
type Mesh struct {
	M0, M1, M2 *sparse.SparseArray
}

// NewMesh returns an empty mesh with n nodes.
func NewMesh(n int) *Mesh {
	return &Mesh{
		M0: sparse.ZerosSparse(n, n),
		M1: sparse.ZerosSparse(n, n),
		M2: sparse.ZerosSparse(n, n),
	}
}

// Size returns the number of mesh nodes.
func (m *Mesh) Size() int { return m.M0.Shape[0] }

// SetSym sets element (i, j) and (j, i) of a to v.
func SetSym(a *sparse.SparseArray, v float64, i, j int) {
	a.Set(v, i, j)
	a.Set(v, j, i)
}

// Validate checks that the mesh matrices are square, of equal size and
// symmetric.
func (m *Mesh) Validate() error {
	if m == nil || m.M0 == nil || m.M1 == nil || m.M2 == nil {
		return fmt.Errorf("spatialgev: mesh matrices are missing: %w", ErrMesh)
	}
	if len(m.M0.Shape) != 2 || m.M0.Shape[0] != m.M0.Shape[1] || m.M0.Shape[0] == 0 {
		return fmt.Errorf("spatialgev: mesh matrix M0 has shape %v: %w", m.M0.Shape, ErrMesh)
	}
	n := m.Size()
	for k, a := range []*sparse.SparseArray{m.M0, m.M1, m.M2} {
		if len(a.Shape) != 2 || a.Shape[0] != n || a.Shape[1] != n {
			return fmt.Errorf("spatialgev: mesh matrix M%d has shape %v, want [%d %d]: %w",
				k, a.Shape, n, n, ErrMesh)
		}
		for idx, v := range a.Elements {
			i, j := idx/n, idx%n
			if a.Elements[j*n+i] != v {
				return fmt.Errorf("spatialgev: mesh matrix M%d is not symmetric at (%d, %d): %w",
					k, i, j, ErrMesh)
			}
		}
	}
	return nil
}

// lowerTriangle returns the (row, column, value) triplets of the lower
// triangle of a, in row-major order.
func lowerTriangle(a *sparse.SparseArray, n int) (rows, cols []int, vals []float64) {
	idx := make([]int, 0, len(a.Elements))
	for k := range a.Elements {
		if k/n >= k%n {
			idx = append(idx, k)
		}
	}
	sort.Ints(idx)
	for _, k := range idx {
		rows = append(rows, k/n)
		cols = append(cols, k%n)
		vals = append(vals, a.Elements[k])
	}
	return
}

// SPDEPrecision returns the sparse precision matrix
//
//	Q = κ⁴·M0 + 2κ²·M1 + M2
//
// of the SPDE approximation to a Matérn field with inverse range kappa.
func SPDEPrecision[T any](ops ad.Ops[T], mesh *Mesh, kappa T) *Precision[T] {
	n := mesh.Size()
	k2 := ops.Mul(kappa, kappa)
	k4 := ops.Mul(k2, k2)
	terms := []struct {
		a   *sparse.SparseArray
		coef func(v float64) T
	}{
		{mesh.M0, func(v float64) T { return ops.Scale(v, k4) }},
		{mesh.M1, func(v float64) T { return ops.Scale(2*v, k2) }},
		{mesh.M2, func(v float64) T { return ops.Const(v) }},
	}

	first := make([]int, n)
	for i := range first {
		first[i] = i
	}
	type triplets struct {
		rows, cols []int
		vals       []float64
	}
	lower := make([]triplets, len(terms))
	for t, term := range terms {
		r, c, v := lowerTriangle(term.a, n)
		lower[t] = triplets{r, c, v}
		for k := range r {
			if c[k] < first[r[k]] {
				first[r[k]] = c[k]
			}
		}
	}

	q := newPrecision(ops, first)
	for t, term := range terms {
		l := lower[t]
		for k := range l.rows {
			q.add(ops, l.rows[k], l.cols[k], term.coef(l.vals[k]))
		}
	}
	return q
}

// MarginalVariance returns the marginal variance
//
//	Γ(ν) / (Γ(ν+1)·4π·κ^(2ν))
//
// of the Matérn field that an SPDE precision with inverse range kappa and
// smoothness nu approximates.
func MarginalVariance[T any](ops ad.Ops[T], kappa T, nu float64) T {
	lgNu, _ := math.Lgamma(nu)
	lgNu1, _ := math.Lgamma(nu + 1)
	c := math.Exp(lgNu) / (math.Exp(lgNu1) * 4 * math.Pi)
	return ops.Div(ops.Const(c), ops.Pow(kappa, ops.Const(2*nu)))
}
