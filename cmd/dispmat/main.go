/*
 * main.go, part of dispmi.
 *
 * Copyright 2024 Raul Mera <rauldotmeraatusachdotcl>
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 */

// dispmat fits the trajectories matching a pattern onto their first frames, and
// writes, for each, the matrix of per-atom displacements from that first frame.
// All the matrices are then stacked, in file order, into a global matrix.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rmera/dispmi/align"
	"github.com/rmera/dispmi/disp"
	"github.com/rmera/dispmi/internal/cli"
	"github.com/rmera/dispmi/matio"
)

type options struct {
	SourceDir       string        `long:"sourcedir" env:"DISPMI_SOURCEDIR" description:"Pattern matching the trajectories (** allowed)"`
	SourcePDB       string        `long:"sourcepdb" env:"DISPMI_SOURCEPDB" description:"Reference structure (PDB). Trajectories must have its number of atoms"`
	OutputDir       string        `long:"outputdir" env:"DISPMI_OUTPUTDIR" default:"." description:"Directory for the output files"`
	Index           string        `long:"index" env:"DISPMI_INDEX" description:"GROMACS index file. The first group selects the atoms to use"`
	AlignOnGroup    bool          `long:"alignongroup" description:"Fit using only the atoms of the second group of the index file"`
	ContinueOnError bool          `long:"continue-on-error" description:"Skip the trajectories that fail instead of stopping"`
	Workers         int           `short:"j" long:"workers" env:"DISPMI_WORKERS" description:"Trajectories processed concurrently (default: number of CPUs)"`
	Format          string        `long:"format" env:"DISPMI_FORMAT" choice:"npy" choice:"gmat" default:"npy" description:"Format of the matrix files"`
	Aligner         string        `long:"aligner" env:"DISPMI_ALIGNER" choice:"kabsch" choice:"gromacs" default:"kabsch" description:"How to fit the frames"`
	Gmx             string        `long:"gmx" env:"GMX" default:"gmx" description:"GROMACS executable, for --aligner=gromacs"`
	Timeout         time.Duration `long:"timeout" env:"DISPMI_TIMEOUT" default:"10m" description:"Timeout for each GROMACS call"`
	ScratchDir      string        `long:"scratchdir" env:"DISPMI_SCRATCHDIR" description:"Where GROMACS scratch directories are created (default: system temporary directory)"`
	cli.LogOptions
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	var opts options
	if ok, code := cli.Parse(&opts, func() *cli.LogOptions { return &opts.LogOptions }, args); !ok {
		return code
	}
	log := opts.Logger(os.Stderr)
	if opts.SourceDir == "" {
		log.Error("the --sourcedir pattern is required")
		return 2
	}
	format, err := matio.ParseFormat(opts.Format)
	if err != nil {
		log.Error(err)
		return 2
	}
	o := disp.DefaultOptions()
	o.Reference = opts.SourcePDB
	o.OutputDir = opts.OutputDir
	o.Index = opts.Index
	o.AlignOnGroup = opts.AlignOnGroup
	o.ContinueOnError = opts.ContinueOnError
	if opts.Workers > 0 {
		o.Workers = opts.Workers
	}
	o.Format = format
	o.Logger = log
	ao := align.DefaultOptions()
	ao.Logger = log
	ao.Gmx = opts.Gmx
	ao.Timeout = opts.Timeout
	if opts.ScratchDir != "" {
		ao.ScratchDir = opts.ScratchDir
	}
	if opts.Aligner == "gromacs" {
		o.Aligner = align.NewGromacs(ao)
	} else {
		o.Aligner = align.NewKabsch(ao)
	}

	ctx, cancel := cli.Context()
	defer cancel()
	report, err := disp.Run(ctx, opts.SourceDir, o)
	if report != nil {
		for _, f := range report.Failed() {
			fmt.Fprintf(os.Stderr, "FAILED %d %s: %s\n", f.Index, f.Path, f.Error)
		}
		if report.Global != "" {
			fmt.Printf("%s: %d x %d\n", report.Global, report.Rows, report.Cols)
		}
	}
	if err != nil {
		log.Error(err)
		return 1
	}
	return 0
}
