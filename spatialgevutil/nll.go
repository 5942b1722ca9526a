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
	"os"
	"text/tabwriter"

	"github.com/sirupsen/logrus"
)

// NLL evaluates the negative log-likelihood of the problem in the TOML
// file problemFile at the parameter values given there, and writes it to w.
// If gradient is true, the derivative with respect to each parameter is
// written as well.
func NLL(w io.Writer, problemFile string, gradient bool, log logrus.FieldLogger) error {
	p, err := LoadProblem(os.ExpandEnv(problemFile))
	if err != nil {
		return err
	}
	o, err := p.Objective()
	if err != nil {
		return err
	}
	o.Log = log
	theta, err := p.Theta(o)
	if err != nil {
		return err
	}
	log.WithFields(logrus.Fields{
		"model":      o.Variant().String(),
		"parameters": o.Len(),
		"locations":  len(p.NObs),
	}).Info("spatialgev: evaluating negative log-likelihood")

	tw := tabwriter.NewWriter(w, 0, 8, 1, ' ', 0)
	if !gradient {
		fmt.Fprintf(tw, "nll\t%g\n", o.Func(theta))
		return tw.Flush()
	}
	grad := make([]float64, o.Len())
	fmt.Fprintf(tw, "nll\t%g\n", o.FuncGrad(grad, theta))
	for i, name := range o.Names() {
		fmt.Fprintf(tw, "d/d%s\t%g\n", name, grad[i])
	}
	return tw.Flush()
}
