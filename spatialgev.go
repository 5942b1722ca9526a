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

// Package spatialgev assembles the negative log-likelihood of hierarchical
// spatial extreme-value models. Block maxima at each location follow a
// GEV (or Gumbel) distribution whose location, log-scale and optionally
// shape vary smoothly in space as Gaussian random fields. The fields have
// either a dense covariance matrix built from an exponential or Matérn
// kernel of inter-location distance, or a sparse SPDE precision matrix
// built from a finite-element mesh.
//
// Every evaluation is written once against the arithmetic in package ad,
// so the same code yields plain values or values with gradients.
package spatialgev

// Version gives the version number.
const Version = "0.1.0"
