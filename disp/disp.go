/*
 * disp.go, part of dispmi.
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

// Package disp computes per-atom displacement matrices for batches of trajectories.
//
// For every trajectory, frames are fitted onto the first one and the distance of
// each atom to its position in that first frame is computed, giving a frames x atoms
// matrix. The matrices of all trajectories are then stacked, in the lexicographic
// order of the file names, into a global matrix.
package disp

import (
	"io"
	"runtime"

	chem "github.com/rmera/dispmi"
	"github.com/rmera/dispmi/align"
	"github.com/rmera/dispmi/matio"
	v3 "github.com/rmera/dispmi/v3"
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Names of the batch artifacts in the output directory. The global matrix
// gets the extension of the matrix format.
const (
	FileOrderName = "Fileorder.json"
	ReportName    = "report.json"
	GlobalName    = "all_displacements"
	suffix        = "_displacement"
)

// Options contains the options for a batch run.
type Options struct {
	Reference       string //structure file; trajectories must have its number of atoms. Optional.
	OutputDir       string
	Index           string //GROMACS index file. The first group selects the atoms to use.
	AlignOnGroup    bool   //fit only on the atoms of the second group of Index
	ContinueOnError bool
	Workers         int
	Format          matio.Format
	Aligner         align.Aligner
	Logger          logrus.FieldLogger
}

// DefaultOptions returns options that write .npy files to the current directory,
// stop at the first failure, use one worker per CPU and the in-process aligner.
func DefaultOptions() *Options {
	r := new(Options)
	r.OutputDir = "."
	r.Workers = runtime.NumCPU()
	r.Format = matio.NPY
	l := logrus.New()
	l.SetOutput(io.Discard)
	l.SetLevel(logrus.WarnLevel)
	r.Logger = l
	r.Aligner = align.NewKabsch(&align.Options{Logger: l})
	return r
}

// Displacement returns a matrix with one row per frame and one column per atom, where each
// element is the distance between the atom in that frame and in the first frame.
// The first row is always zero.
func Displacement(frames []*v3.Matrix) (*mat.Dense, error) {
	if len(frames) == 0 {
		return nil, chem.NewError(chem.ShapeMismatch, "", nil, "no frames")
	}
	first := frames[0]
	natoms := first.NVecs()
	if natoms == 0 {
		return nil, chem.NewError(chem.ShapeMismatch, "", nil, "no atoms")
	}
	ret := mat.NewDense(len(frames), natoms, nil)
	for i, f := range frames {
		if f.NVecs() != natoms {
			return nil, chem.NewError(chem.ShapeMismatch, "", nil, "frame %d has %d atoms, frame 0 has %d", i, f.NVecs(), natoms)
		}
		if i == 0 {
			continue
		}
		row := ret.RawRowView(i)
		for j := range row {
			row[j] = floats.Distance(f.RawRowView(j), first.RawRowView(j), 2)
		}
	}
	return ret, nil
}
