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

// Package sites turns the locations of observation sites into the distance
// matrices used by the dense spatial GEV models.
package sites

import (
	"fmt"
	"math"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/encoding/shp"
	"github.com/ctessum/geom/proj"
	"gonum.org/v1/gonum/mat"
)

// EarthRadius is the mean radius of the Earth in kilometers.
const EarthRadius = 6371.0088

// Metric specifies how the distance between two sites is measured.
type Metric int

const (
	// Euclidean is the straight-line distance between projected
	// coordinates, in the units of the projection.
	Euclidean Metric = iota

	// GreatCircle is the distance in kilometers along the surface of a
	// spherical Earth between points whose X and Y are longitude and
	// latitude in degrees.
	GreatCircle
)

var metricNames = [...]string{"euclidean", "great_circle"}

func (m Metric) String() string {
	if m >= Euclidean && m <= GreatCircle {
		return metricNames[m]
	}
	return fmt.Sprintf("Metric(%d)", int(m))
}

// ParseMetric returns the metric with the given name.
func ParseMetric(s string) (Metric, error) {
	for i, n := range metricNames {
		if n == s {
			return Metric(i), nil
		}
	}
	return 0, fmt.Errorf("sites: unknown distance metric %q", s)
}

// Distance returns the distance between a and b.
func (m Metric) Distance(a, b geom.Point) float64 {
	switch m {
	case Euclidean:
		return math.Hypot(a.X-b.X, a.Y-b.Y)
	case GreatCircle:
		return haversine(a, b)
	default:
		panic(fmt.Errorf("sites: invalid metric %d", int(m)))
	}
}

func haversine(a, b geom.Point) float64 {
	const rad = math.Pi / 180
	lat1, lat2 := a.Y*rad, b.Y*rad
	dLat := lat2 - lat1
	dLon := (b.X - a.X) * rad
	h := math.Pow(math.Sin(dLat/2), 2) + math.Cos(lat1)*math.Cos(lat2)*math.Pow(math.Sin(dLon/2), 2)
	return 2 * EarthRadius * math.Asin(math.Min(1, math.Sqrt(h)))
}

// DistanceMatrix returns the distances between every pair of points,
// of which there must be at least one.
func DistanceMatrix(points []geom.Point, m Metric) *mat.SymDense {
	d := mat.NewSymDense(len(points), nil)
	for i, p := range points {
		for j := i + 1; j < len(points); j++ {
			d.SetSym(i, j, m.Distance(p, points[j]))
		}
	}
	return d
}

// Load reads the sites in the point shapefile filename, in file order. If
// dst is not nil the points are converted from the spatial reference in the
// shapefile's .prj file to dst.
func Load(filename string, dst *proj.SR) ([]geom.Point, error) {
	d, err := shp.NewDecoder(filename)
	if err != nil {
		return nil, fmt.Errorf("sites: opening %s: %v", filename, err)
	}
	defer d.Close()

	var trans proj.Transformer
	if dst != nil {
		src, err := d.SR()
		if err != nil {
			return nil, fmt.Errorf("sites: reading spatial reference of %s: %v", filename, err)
		}
		trans, err = src.NewTransform(dst)
		if err != nil {
			return nil, err
		}
	}

	var points []geom.Point
	for {
		g, _, more := d.DecodeRowFields()
		if !more {
			break
		}
		if g == nil {
			return nil, fmt.Errorf("sites: %s: record %d has no geometry", filename, len(points))
		}
		if trans != nil {
			if g, err = g.Transform(trans); err != nil {
				return nil, err
			}
		}
		p, ok := g.(geom.Point)
		if !ok {
			return nil, fmt.Errorf("sites: %s: record %d is a %T, not a point", filename, len(points), g)
		}
		points = append(points, p)
	}
	if err := d.Error(); err != nil {
		return nil, fmt.Errorf("sites: reading %s: %v", filename, err)
	}
	if len(points) == 0 {
		return nil, fmt.Errorf("sites: %s holds no sites", filename)
	}
	return points, nil
}
