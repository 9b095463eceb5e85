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

// Command fatesmetrics evaluates a FATES parameter ensemble against
// observations.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/kovenock/fatesmetrics"
	"github.com/kovenock/fatesmetrics/fatesutil"
	"github.com/spf13/cobra"
)

func main() {
	if err := Root.Execute(); err != nil {
		os.Exit(1)
	}
}

// Root is the top-level command.
var Root = &cobra.Command{
	Use:     "fatesmetrics",
	Short:   "Performance metrics for FATES parameter ensembles.",
	Version: fatesmetrics.Version,
}

var (
	configFile string
	ncfOut     string
	xlsxOut    string
	printTable bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Calculate error rates, NRMSE, and aggregate NRMSE for an ensemble.",
	Long: `run reads the ensemble output and observations listed in a TOML or
YAML configuration file, calculates the metrics of every parameter set in
every CO2 scenario, and writes them to the configured output files.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		log.Println("\n",
			"----------------------------------------------------------\n",
			"                        Welcome!\n",
			"   fatesmetrics: FATES ensemble performance metrics\n",
			"                     Version "+fatesmetrics.Version+"\n",
			"----------------------------------------------------------\n")

		c, err := fatesutil.ReadConfigFile(configFile)
		if err != nil {
			return err
		}
		if ncfOut != "" {
			c.Output.NCF = ncfOut
		}
		if xlsxOut != "" {
			c.Output.XLSX = xlsxOut
		}
		r, err := fatesutil.Run(cmd.Context(), c)
		if err != nil {
			return err
		}
		if printTable {
			for s, scen := range r.Scenarios {
				t, err := r.Table(fatesmetrics.MetricNRMSE, s)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "\nNRMSE, scenario %s\n", scen)
				if _, err := t.Tabbed(cmd.OutOrStdout()); err != nil {
					return err
				}
			}
		}
		for s, ids := range r.HighPerforming {
			log.Printf("High-performing parameter sets for %s: %v", r.Scenarios[s], ids)
		}

		log.Println("\n",
			"------------------------------------\n",
			"       fatesmetrics Completed!\n",
			"------------------------------------\n")
		return nil
	},
}

func init() {
	runCmd.Flags().StringVar(&configFile, "config", "", "path to the configuration file")
	runCmd.Flags().StringVar(&ncfOut, "ncf", "", "netCDF output file; overrides the configuration file")
	runCmd.Flags().StringVar(&xlsxOut, "xlsx", "", "Excel output file; overrides the configuration file")
	runCmd.Flags().BoolVar(&printTable, "table", false, "print the NRMSE table of each scenario")
	if err := runCmd.MarkFlagRequired("config"); err != nil {
		panic(err)
	}
	Root.AddCommand(runCmd)
}
