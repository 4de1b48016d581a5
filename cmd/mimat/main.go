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

// mimat computes the mutual information between every pair of columns of a matrix,
// such as the one produced by dispmat, and writes the resulting symmetric matrix.
package main

import (
	"fmt"
	"os"

	"github.com/rmera/dispmi/internal/cli"
	"github.com/rmera/dispmi/mi"
)

type options struct {
	InFile  string `short:"i" long:"infile" env:"DISPMI_INFILE" description:"Input matrix (.npy or .gmat), one observation per row"`
	OutFile string `short:"o" long:"outfile" env:"DISPMI_OUTFILE" description:"Output MI matrix (.npy or .gmat)"`
	NumBins int    `short:"b" long:"numbins" env:"DISPMI_NUMBINS" default:"32" description:"Bins per axis"`
	Workers int    `short:"j" long:"workers" env:"DISPMI_WORKERS" description:"Rows computed concurrently (default: number of CPUs)"`
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
	if opts.InFile == "" || opts.OutFile == "" {
		log.Error("both --infile and --outfile are required")
		return 2
	}
	o := mi.DefaultOptions()
	o.Bins = opts.NumBins
	if opts.Workers > 0 {
		o.Workers = opts.Workers
	}
	o.Logger = log
	ctx, cancel := cli.Context()
	defer cancel()
	res, err := mi.Run(ctx, opts.InFile, opts.OutFile, o)
	if err != nil {
		log.Error(err)
		return 1
	}
	if len(res.Degenerate) > 0 {
		fmt.Fprintf(os.Stderr, "columns with zero variance: %v\n", res.Degenerate)
	}
	return 0
}
