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

package ad

import "math"

// Float implements Ops for plain float64 values.
type Float struct{}

var _ Ops[float64] = Float{}

func (Float) Const(v float64) float64 { return v }
func (Float) Value(x float64) float64 { return x }
func (Float) Add(x, y float64) float64 { return x + y }
func (Float) Sub(x, y float64) float64 { return x - y }
func (Float) Mul(x, y float64) float64 { return x * y }
func (Float) Div(x, y float64) float64 { return x / y }
func (Float) Neg(x float64) float64 { return -x }
func (Float) Scale(f, x float64) float64 { return f * x }
func (Float) AddConst(x, c float64) float64 { return x + c }
func (Float) Exp(x float64) float64 { return math.Exp(x) }
func (Float) Log(x float64) float64 { return math.Log(x) }
func (Float) Sqrt(x float64) float64 { return math.Sqrt(x) }
func (Float) Pow(x, y float64) float64 { return math.Pow(x, y) }
func (Float) BesselK(x, nu float64) float64 { return besselK(x, nu) }

// Lgamma returns log|Γ(x)|.
func (Float) Lgamma(x float64) float64 {
	lg, _ := math.Lgamma(x)
	return lg
}
