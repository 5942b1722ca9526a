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
	"io"

	"github.com/BurntSushi/toml"
)

// Distance writes the distances between the sites in the point shapefile
// sitesFile to w as a TOML Dist entry that can be pasted into a problem
// file. metric and projection are as for the Metric and SitesProj
// fields of Problem.
func Distance(w io.Writer, sitesFile, metric, projection string) error {
	if sitesFile == "" {
		return fmt.Errorf("spatialgev: no sites file specified")
	}
	p := &Problem{
		SitesFile: sitesFile,
		Metric:    metric,
		SitesProj: projection,
	}
	d, err := p.distances()
	if err != nil {
		return err
	}
	n := d.SymmetricDim()
	rows := make([][]float64, n)
	for i := range rows {
		rows[i] = make([]float64, n)
		for j := range rows[i] {
			rows[i][j] = d.At(i, j)
		}
	}
	return toml.NewEncoder(w).Encode(struct{ Dist [][]float64 }{rows})
}
