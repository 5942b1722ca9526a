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

const log2Pi = 1.8378770664093454835606594728112352797227949472755668 // log(2π)

// pdTolerance is the smallest ratio between a Cholesky pivot and its
// diagonal entry that is accepted as positive.
const pdTolerance = 1e-12

// SymMatrix is a dense symmetric n×n matrix of T. Both triangles are
// stored.
type SymMatrix[T any] struct {
	n    int
	data []T
}

// NewSymMatrix allocates an n×n symmetric matrix. Its contents are
// unspecified until it is filled by one of the kernel builders.
func NewSymMatrix[T any](n int) *SymMatrix[T] {
	return &SymMatrix[T]{n: n, data: make([]T, n*n)}
}

// Size returns the number of rows (and columns) in m.
func (m *SymMatrix[T]) Size() int { return m.n }

// At returns element (i, j).
func (m *SymMatrix[T]) At(i, j int) T { return m.data[i*m.n+j] }

// set stores v at (i, j) and (j, i).
func (m *SymMatrix[T]) set(i, j int, v T) {
	m.data[i*m.n+j] = v
	m.data[j*m.n+i] = v
}

// SymDenseOf copies the values of m into a gonum symmetric matrix.
func SymDenseOf(m *SymMatrix[float64]) *mat.SymDense {
	o := mat.NewSymDense(m.n, nil)
	for i := 0; i < m.n; i++ {
		for j := i; j < m.n; j++ {
			o.SetSym(i, j, m.At(i, j))
		}
	}
	return o
}

// cholesky returns the lower-triangular factor L of m = L Lᵀ, stored
// row-major in an n×n slice.
func cholesky[T any](ops ad.Ops[T], m *SymMatrix[T]) ([]T, error) {
	n := m.n
	l := make([]T, n*n)
	for j := 0; j < n; j++ {
		d := m.At(j, j)
		for k := 0; k < j; k++ {
			d = ops.Sub(d, ops.Mul(l[j*n+k], l[j*n+k]))
		}
		if !pivotOK(ops.Value(d), ops.Value(m.At(j, j))) {
			return nil, fmt.Errorf("%w: pivot %d is %g", ErrNotPositiveDefinite, j, ops.Value(d))
		}
		ljj := ops.Sqrt(d)
		l[j*n+j] = ljj
		for i := j + 1; i < n; i++ {
			s := m.At(i, j)
			for k := 0; k < j; k++ {
				s = ops.Sub(s, ops.Mul(l[i*n+k], l[j*n+k]))
			}
			l[i*n+j] = ops.Div(s, ljj)
		}
	}
	return l, nil
}

// pivotOK reports whether a Cholesky pivot d, computed from diagonal
// entry diag, is safely positive. NaN pivots are rejected.
func pivotOK(d, diag float64) bool {
	return d > pdTolerance*math.Abs(diag)
}

// Precision is a sparse symmetric matrix of T stored as a lower-triangular
// envelope: row i holds the entries in columns first[i] through i. The
// Cholesky factor of a matrix has the same envelope, so the factorization
// needs no further storage.
type Precision[T any] struct {
	n     int
	first []int // first stored column of each row
	start []int // offset of each row in vals
	vals  []T
	zero  T
}

// newPrecision allocates a zero-valued precision matrix with the given
// envelope.
func newPrecision[T any](ops ad.Ops[T], first []int) *Precision[T] {
	n := len(first)
	q := &Precision[T]{n: n, first: first, start: make([]int, n+1), zero: ops.Const(0)}
	for i := 0; i < n; i++ {
		q.start[i+1] = q.start[i] + i - first[i] + 1
	}
	q.vals = make([]T, q.start[n])
	for i := range q.vals {
		q.vals[i] = q.zero
	}
	return q
}

// Size returns the number of rows (and columns) in q.
func (q *Precision[T]) Size() int { return q.n }

// At returns element (i, j).
func (q *Precision[T]) At(i, j int) T {
	if j > i {
		i, j = j, i
	}
	if j < q.first[i] {
		return q.zero
	}
	return q.vals[q.start[i]+j-q.first[i]]
}

// add adds v to element (i, j), where j <= i and j is inside the envelope
// of row i.
func (q *Precision[T]) add(ops ad.Ops[T], i, j int, v T) {
	k := q.start[i] + j - q.first[i]
	q.vals[k] = ops.Add(q.vals[k], v)
}

// quadForm returns xᵀ q x.
func (q *Precision[T]) quadForm(ops ad.Ops[T], x []T) T {
	s := ops.Const(0)
	for i := 0; i < q.n; i++ {
		row := q.vals[q.start[i]:q.start[i+1]]
		off := ops.Const(0)
		for k, v := range row[:len(row)-1] {
			off = ops.Add(off, ops.Mul(v, x[q.first[i]+k]))
		}
		s = ops.Add(s, ops.Mul(x[i], ops.Add(ops.Mul(row[len(row)-1], x[i]), ops.Scale(2, off))))
	}
	return s
}

// halfLogDet returns ½·log det q, computed from the envelope Cholesky
// factor of q.
func (q *Precision[T]) halfLogDet(ops ad.Ops[T]) (T, error) {
	l := make([]T, len(q.vals))
	// lAt returns L(i, j) for j inside the envelope of row i.
	lAt := func(i, j int) T { return l[q.start[i]+j-q.first[i]] }
	ld := ops.Const(0)
	for i := 0; i < q.n; i++ {
		fi := q.first[i]
		for j := fi; j <= i; j++ {
			s := q.vals[q.start[i]+j-fi]
			lo := fi
			if q.first[j] > lo {
				lo = q.first[j]
			}
			for k := lo; k < j; k++ {
				s = ops.Sub(s, ops.Mul(lAt(i, k), lAt(j, k)))
			}
			if j < i {
				l[q.start[i]+j-fi] = ops.Div(s, lAt(j, j))
				continue
			}
			if !pivotOK(ops.Value(s), ops.Value(q.vals[q.start[i]+i-fi])) {
				var zero T
				return zero, fmt.Errorf("%w: pivot %d is %g", ErrNotPositiveDefinite, i, ops.Value(s))
			}
			lii := ops.Sqrt(s)
			l[q.start[i]+i-fi] = lii
			ld = ops.Add(ld, ops.Log(lii))
		}
	}
	return ld, nil
}
