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

// Package spatialgevutil contains the command-line interface to the
// spatial GEV likelihood engine.
package spatialgevutil

import (
	"fmt"
	"math"
	"os"

	"github.com/lnashier/viper"
	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/spatialgev"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Cfg holds configuration information.
var Cfg *viper.Viper

func init() {
	options := []struct {
		name, usage, shorthand string
		defaultVal             interface{}
		flagsets               []*pflag.FlagSet
	}{
		{
			name: "config",
			usage: `
              config specifies the configuration file location.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "LogLevel",
			usage: `
              LogLevel is the minimum level of the log messages that are
              printed: debug, info, warning or error. At the debug level,
              evaluations that are not finite are reported.`,
			defaultVal: "info",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "Problem",
			usage: `
              Problem is the path to the TOML file holding the data, model
              variant and parameter values to evaluate. It can include
              environment variables.`,
			shorthand:  "p",
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{nllCmd.Flags()},
		},
		{
			name: "Gradient",
			usage: `
              Gradient specifies whether to also print the derivative of the
              negative log-likelihood with respect to every parameter.`,
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{nllCmd.Flags()},
		},
		{
			name: "SitesFile",
			usage: `
              SitesFile is the path to a point shapefile holding one site per
              location. It can include environment variables.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{distanceCmd.Flags()},
		},
		{
			name: "Metric",
			usage: `
              Metric is how distances between sites are measured: euclidean
              for projected coordinates or great_circle for longitude and
              latitude in degrees, giving kilometers.`,
			defaultVal: "euclidean",
			flagsets:   []*pflag.FlagSet{distanceCmd.Flags()},
		},
		{
			name: "SitesProj",
			usage: `
              SitesProj is the spatial reference, in Proj4 or WKT format, that
              the sites are converted to before distances are measured. If it
              is empty the sites are used as stored.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{distanceCmd.Flags()},
		},
		{
			name: "Kernel",
			usage: `
              Kernel is the covariance kernel to plot: exponential or matern.`,
			defaultVal: "exponential",
			flagsets:   []*pflag.FlagSet{kernelCmd.Flags()},
		},
		{
			name: "LogA",
			usage: `
              LogA is the first kernel hyperparameter: log_sigma for the
              exponential kernel or log_phi for the Matérn kernel.`,
			defaultVal: 0.0,
			flagsets:   []*pflag.FlagSet{kernelCmd.Flags()},
		},
		{
			name: "LogB",
			usage: `
              LogB is the second kernel hyperparameter: log_ell for the
              exponential kernel or log_kappa for the Matérn kernel.`,
			defaultVal: 0.0,
			flagsets:   []*pflag.FlagSet{kernelCmd.Flags()},
		},
		{
			name: "Threshold",
			usage: `
              Threshold is the covariance sparsification cutoff distance.`,
			defaultVal: math.Inf(1),
			flagsets:   []*pflag.FlagSet{kernelCmd.Flags()},
		},
		{
			name: "MaxDist",
			usage: `
              MaxDist is the largest distance to plot.`,
			defaultVal: 5.0,
			flagsets:   []*pflag.FlagSet{kernelCmd.Flags()},
		},
		{
			name: "OutputFile",
			usage: `
              OutputFile is the path to the kernel plot. Its extension sets
              the image format, for example .png, .svg or .pdf.`,
			shorthand:  "o",
			defaultVal: "kernel.png",
			flagsets:   []*pflag.FlagSet{kernelCmd.Flags()},
		},
	}

	Cfg = viper.New()

	// Set the prefix for configuration environment variables.
	Cfg.SetEnvPrefix("SPATIALGEV")
	Cfg.AutomaticEnv()

	for _, option := range options {
		for i, set := range option.flagsets {
			if i != 0 { // We don't want to create the same flag twice.
				set.AddFlag(option.flagsets[0].Lookup(option.name))
				continue
			}
			switch option.defaultVal.(type) {
			case string:
				if option.shorthand == "" {
					set.String(option.name, option.defaultVal.(string), option.usage)
				} else {
					set.StringP(option.name, option.shorthand, option.defaultVal.(string), option.usage)
				}
			case bool:
				if option.shorthand == "" {
					set.Bool(option.name, option.defaultVal.(bool), option.usage)
				} else {
					set.BoolP(option.name, option.shorthand, option.defaultVal.(bool), option.usage)
				}
			case float64:
				if option.shorthand == "" {
					set.Float64(option.name, option.defaultVal.(float64), option.usage)
				} else {
					set.Float64P(option.name, option.shorthand, option.defaultVal.(float64), option.usage)
				}
			default:
				panic("invalid argument type")
			}
			Cfg.BindPFlag(option.name, set.Lookup(option.name))
		}
	}
}

func init() {
	// Link the commands together.
	Root.AddCommand(versionCmd)
	Root.AddCommand(nllCmd)
	Root.AddCommand(distanceCmd)
	Root.AddCommand(kernelCmd)
}

// setConfig finds and reads in the configuration file, if there is one,
// and sets the logging level.
func setConfig() error {
	if cfgpath := Cfg.GetString("config"); cfgpath != "" {
		Cfg.SetConfigFile(cfgpath)
		if err := Cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("spatialgev: problem reading configuration file: %v", err)
		}
	}
	level, err := logrus.ParseLevel(Cfg.GetString("LogLevel"))
	if err != nil {
		return fmt.Errorf("spatialgev: %v", err)
	}
	logrus.SetLevel(level)
	return nil
}

// Root is the main command.
var Root = &cobra.Command{
	Use:   "spatialgev",
	Short: "Likelihoods of spatial extreme-value models.",
	Long: `spatialgev evaluates the negative log-likelihood of hierarchical spatial
generalized extreme value (GEV) models, in which the GEV parameters at each
location are Gaussian random fields over space. Use the subcommands specified
below to access the functionality.

Refer to the subcommand documentation for configuration options and default settings.
Configuration can be changed by using a configuration file (and providing the
path to the file using the --config flag), by using command-line arguments,
or by setting environment variables in the format 'SPATIALGEV_var' where 'var' is the
name of the variable to be set.
Refer to https://github.com/spf13/viper for additional configuration information.`,
	DisableAutoGenTag: true,
	PersistentPreRunE: func(*cobra.Command, []string) error { return setConfig() },
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  "version prints the version number of this version of spatialgev.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("spatialgev v%s\n", spatialgev.Version)
	},
	DisableAutoGenTag: true,
}

// nllCmd is a command that evaluates a negative log-likelihood.
var nllCmd = &cobra.Command{
	Use:   "nll",
	Short: "Evaluate a negative log-likelihood.",
	Long: `nll evaluates the negative log-likelihood of the model, data and
parameter values in a problem file and prints it. Optionally the gradient
is printed as well.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return NLL(cmd.OutOrStdout(), Cfg.GetString("Problem"), Cfg.GetBool("Gradient"),
			logrus.StandardLogger())
	},
	DisableAutoGenTag: true,
}

// distanceCmd is a command that prints the distances between sites.
var distanceCmd = &cobra.Command{
	Use:   "distance",
	Short: "Compute distances between sites.",
	Long: `distance reads the sites in a point shapefile and prints the matrix
of distances between them in the format used by problem files.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return Distance(cmd.OutOrStdout(), os.ExpandEnv(Cfg.GetString("SitesFile")),
			Cfg.GetString("Metric"), Cfg.GetString("SitesProj"))
	},
	DisableAutoGenTag: true,
}

// kernelCmd is a command that plots a covariance kernel.
var kernelCmd = &cobra.Command{
	Use:   "kernel",
	Short: "Plot a covariance kernel.",
	Long: `kernel plots the covariance between two locations as a function of
the distance between them, for given kernel hyperparameters.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		k, err := spatialgev.ParseKernel(Cfg.GetString("Kernel"))
		if err != nil {
			return err
		}
		return KernelPlot(os.ExpandEnv(Cfg.GetString("OutputFile")), k,
			Cfg.GetFloat64("LogA"), Cfg.GetFloat64("LogB"),
			Cfg.GetFloat64("Threshold"), Cfg.GetFloat64("MaxDist"))
	},
	DisableAutoGenTag: true,
}
