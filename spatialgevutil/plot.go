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

	"github.com/spatialmodel/spatialgev"
	"github.com/spatialmodel/spatialgev/ad"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// kernelPoints is the number of distances at which the kernel is drawn.
const kernelPoints = 200

// kernelCurve returns the covariance between two locations as a function
// of the distance between them, from 0 to maxDist. For the exponential
// kernel logA and logB are log_sigma and log_ell; for the Matérn kernel
// they are log_phi and log_kappa.
func kernelCurve(k spatialgev.Kernel, logA, logB, threshold, maxDist float64) (plotter.XYs, error) {
	if !(maxDist > 0) {
		return nil, fmt.Errorf("spatialgev: maximum distance %g is not positive", maxDist)
	}
	var ops ad.Float
	a, b := math.Exp(logA), math.Exp(logB)
	cov := spatialgev.NewSymMatrix[float64](2)
	xys := make(plotter.XYs, kernelPoints+1)
	for i := range xys {
		d := maxDist * float64(i) / kernelPoints
		dd := mat.NewSymDense(2, []float64{0, d, d, 0})
		var err error
		switch k {
		case spatialgev.ExponentialKernel:
			err = spatialgev.ExponentialCov[float64](ops, cov, dd, a, b, threshold)
		case spatialgev.MaternKernel:
			err = spatialgev.MaternCov[float64](ops, cov, dd, a, b, threshold)
		default:
			return nil, fmt.Errorf("spatialgev: the %v kernel is not a function of distance: %w", k, spatialgev.ErrVariant)
		}
		if err != nil {
			return nil, err
		}
		xys[i].X = d
		xys[i].Y = cov.At(1, 0)
	}
	return xys, nil
}

// KernelPlot draws the covariance implied by kernel k between two
// locations against the distance between them and saves it to filename,
// whose extension sets the image format. See kernelCurve for the meaning
// of logA and logB.
func KernelPlot(filename string, k spatialgev.Kernel, logA, logB, threshold, maxDist float64) error {
	xys, err := kernelCurve(k, logA, logB, threshold, maxDist)
	if err != nil {
		return err
	}
	p := plot.New()
	p.Title.Text = fmt.Sprintf("%v kernel", k)
	p.X.Label.Text = "Distance"
	p.Y.Label.Text = "Covariance"
	l, err := plotter.NewLine(xys)
	if err != nil {
		return err
	}
	p.Add(l, plotter.NewGrid())
	if err := p.Save(5*vg.Inch, 3.5*vg.Inch, filename); err != nil {
		return fmt.Errorf("spatialgev: saving kernel plot: %v", err)
	}
	return nil
}
