/*
Copyright © 2024 the fatesmetrics authors.
This file is part of fatesmetrics.

fatesmetrics is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

fatesmetrics is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with fatesmetrics.  If not, see <http://www.gnu.org/licenses/>.
*/

// Package fatesutil reads evaluation configurations and runs ensemble
// evaluations with package fatesmetrics.
package fatesutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/kovenock/fatesmetrics"
	"gopkg.in/yaml.v3"
)

// Config holds the settings of an ensemble evaluation. Paths may contain
// $Input and $Output, which are replaced by the corresponding Dirs
// entries, and environment variables.
type Config struct {
	Dirs DirInfo `toml:"Dirs" yaml:"dirs"`

	NYears         int     `toml:"NYears" yaml:"nyears"`                  // Number of final model years to evaluate.
	StartMonth     int     `toml:"StartMonth" yaml:"start_month"`         // First month (1-12) of observation years. Default is 1.
	RangeExpansion float64 `toml:"RangeExpansion" yaml:"range_expansion"` // Fraction the observed range is extended by in the error rate.
	HighPerforming int     `toml:"HighPerforming" yaml:"high_performing"` // Number of best parameter sets to report for each scenario.

	Scenarios []*Scenario       `toml:"Scenarios" yaml:"scenarios"`
	Variables []*VariableConfig `toml:"Variables" yaml:"variables"`

	// Derived holds additional derived variables, mapping each name to the
	// names of the variables that are summed to calculate it.
	Derived map[string][]string `toml:"Derived" yaml:"derived"`

	Output OutputConfig `toml:"Output" yaml:"output"`
}

// DirInfo holds the directories paths may refer to.
type DirInfo struct {
	Input  string `toml:"Input" yaml:"input"`   // Directory of model output and observation files
	Output string `toml:"Output" yaml:"output"` // Directory for metric files
}

// Scenario is one CO2 scenario of the ensemble.
type Scenario struct {
	Name string `toml:"Name" yaml:"name"`

	// Files are the netCDF model output files of the scenario. Variables
	// are read from the first file that holds them.
	Files []string `toml:"Files" yaml:"files"`
}

// VariableConfig configures the evaluation of one model variable.
type VariableConfig struct {
	Name string `toml:"Name" yaml:"name"`

	// FileType is "monthly" for monthly ecosystem-wide output or
	// "sizeclass" for annual output by size class.
	FileType string `toml:"FileType" yaml:"file_type"`

	ConvFactor *float64 `toml:"ConvFactor" yaml:"conv_factor"` // Multiplier for raw model values. Default is 1.
	Units      string   `toml:"Units" yaml:"units"`            // Units of the converted values, e.g. "gC m-2 yr-1".
	Weight     *float64 `toml:"Weight" yaml:"weight"`          // Weight in the aggregate NRMSE. Default is 1.

	Obs ObsConfig `toml:"Obs" yaml:"obs"`

	fileType fatesmetrics.FileType
}

// ObsConfig locates the observations of one variable.
type ObsConfig struct {
	// Files are the observation files, one per independent estimate.
	// Files ending in .csv hold one row per year and one column per month;
	// other files are read as netCDF.
	Files []string `toml:"Files" yaml:"files"`

	// NCVariable is the name of the observed variable in netCDF files.
	// Default is the model variable name.
	NCVariable string `toml:"NCVariable" yaml:"nc_variable"`

	// StartMonth overrides Config.StartMonth for this variable.
	StartMonth int `toml:"StartMonth" yaml:"start_month"`
}

// OutputConfig names the files metrics are written to. Empty names are
// skipped.
type OutputConfig struct {
	NCF  string `toml:"NCF" yaml:"ncf"`
	XLSX string `toml:"XLSX" yaml:"xlsx"`
}

// ReadConfigFile reads a TOML or YAML (.yaml or .yml) configuration file,
// fills in default values, and checks the settings. All problems found
// are returned together.
func ReadConfigFile(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("fatesutil: reading configuration file: %v", err)
	}
	c := new(Config)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, c); err != nil {
			return nil, fmt.Errorf("fatesutil: parsing YAML configuration file %s: %v", path, err)
		}
	default:
		if _, err := toml.Decode(string(b), c); err != nil {
			return nil, fmt.Errorf("fatesutil: parsing TOML configuration file %s: %v", path, err)
		}
	}
	if err := c.Setup(); err != nil {
		return nil, err
	}
	return c, nil
}

// Setup fills in default values, expands paths, and checks the
// configuration.
func (c *Config) Setup() error {
	e := new(fatesmetrics.ErrCat)
	if c.StartMonth == 0 {
		c.StartMonth = 1
	}
	if c.NYears <= 0 {
		e.Add(fmt.Errorf("fatesutil: NYears must be positive, got %d", c.NYears))
	}
	if c.StartMonth < 1 || c.StartMonth > 12 {
		e.Add(fmt.Errorf("fatesutil: StartMonth %d: %w", c.StartMonth, fatesmetrics.ErrBadStartMonth))
	}
	if c.RangeExpansion < 0 {
		e.Add(fmt.Errorf("fatesutil: RangeExpansion must not be negative, got %g", c.RangeExpansion))
	}
	if c.HighPerforming < 0 {
		e.Add(fmt.Errorf("fatesutil: HighPerforming must not be negative, got %d", c.HighPerforming))
	}

	if len(c.Scenarios) == 0 {
		e.Add(fmt.Errorf("fatesutil: no scenarios"))
	}
	names := make(map[string]bool)
	for i, s := range c.Scenarios {
		if s.Name == "" {
			s.Name = fmt.Sprintf("scenario%d", i+1)
		}
		if names[s.Name] {
			e.Add(fmt.Errorf("fatesutil: duplicate scenario %q", s.Name))
		}
		names[s.Name] = true
		if len(s.Files) == 0 {
			e.Add(fmt.Errorf("fatesutil: scenario %q has no files", s.Name))
		}
		for j, f := range s.Files {
			s.Files[j] = c.expand(f)
		}
	}

	if len(c.Variables) == 0 {
		e.Add(fmt.Errorf("fatesutil: no variables"))
	}
	names = make(map[string]bool)
	for _, v := range c.Variables {
		c.setupVariable(v, names, e)
	}
	for name, comps := range c.Derived {
		if len(comps) == 0 {
			e.Add(fmt.Errorf("fatesutil: derived variable %q has no components", name))
		}
	}

	c.Output.NCF = c.expand(c.Output.NCF)
	c.Output.XLSX = c.expand(c.Output.XLSX)
	return e.Err()
}

func (c *Config) setupVariable(v *VariableConfig, names map[string]bool, e *fatesmetrics.ErrCat) {
	if v.Name == "" {
		e.Add(fmt.Errorf("fatesutil: variable with no name"))
		return
	}
	if names[v.Name] {
		e.Add(fmt.Errorf("fatesutil: duplicate variable %q", v.Name))
	}
	names[v.Name] = true

	switch strings.ToLower(v.FileType) {
	case "", "0", "monthly", "monthly-ecosystem":
		v.fileType = fatesmetrics.MonthlyEcosystem
	case "1", "sizeclass", "size-class", "annual-by-size-class":
		v.fileType = fatesmetrics.AnnualBySizeClass
	default:
		e.Add(fmt.Errorf("fatesutil: variable %q: unknown file type %q", v.Name, v.FileType))
	}
	if v.ConvFactor == nil {
		one := 1.
		v.ConvFactor = &one
	}
	if v.Weight == nil {
		one := 1.
		v.Weight = &one
	} else if *v.Weight < 0 {
		e.Add(fmt.Errorf("fatesutil: variable %q: negative weight %g", v.Name, *v.Weight))
	}
	if _, err := parseUnits(v.Units); err != nil {
		e.Add(fmt.Errorf("fatesutil: variable %q: %v", v.Name, err))
	}

	if len(v.Obs.Files) == 0 {
		e.Add(fmt.Errorf("fatesutil: variable %q has no observation files", v.Name))
	}
	for i, f := range v.Obs.Files {
		v.Obs.Files[i] = c.expand(f)
	}
	if v.Obs.NCVariable == "" {
		v.Obs.NCVariable = v.Name
	}
	if v.Obs.StartMonth == 0 {
		v.Obs.StartMonth = c.StartMonth
	} else if v.Obs.StartMonth < 1 || v.Obs.StartMonth > 12 {
		e.Add(fmt.Errorf("fatesutil: variable %q: StartMonth %d: %w",
			v.Name, v.Obs.StartMonth, fatesmetrics.ErrBadStartMonth))
	}
}

// expand replaces $Input, $Output, and environment variables in path.
func (c *Config) expand(path string) string {
	return os.Expand(path, func(key string) string {
		switch key {
		case "Input":
			return c.Dirs.Input
		case "Output":
			return c.Dirs.Output
		default:
			return os.Getenv(key)
		}
	})
}

// ModelVariables returns the configured variables. Setup must have been
// called.
func (c *Config) ModelVariables() ([]fatesmetrics.Variable, error) {
	o := make([]fatesmetrics.Variable, len(c.Variables))
	for i, v := range c.Variables {
		dims, err := parseUnits(v.Units)
		if err != nil {
			return nil, fmt.Errorf("fatesutil: variable %q: %v", v.Name, err)
		}
		o[i] = fatesmetrics.Variable{
			Name:       v.Name,
			Type:       v.fileType,
			Conversion: newConversion(*v.ConvFactor, dims),
			Label:      v.Units,
			Weight:     *v.Weight,
		}
	}
	return o, nil
}

// DerivedVariables returns the default derived variables together with
// the configured ones. Configured definitions replace default ones with
// the same name.
func (c *Config) DerivedVariables() fatesmetrics.DerivedVariables {
	o := make(fatesmetrics.DerivedVariables)
	for name, d := range fatesmetrics.DefaultDerived {
		o[name] = d
	}
	for name, comps := range c.Derived {
		o[name] = fatesmetrics.Derived{Components: comps}
	}
	return o
}
