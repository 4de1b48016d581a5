/*
 * align.go, part of dispmi.
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

// Package align superimposes trajectory frames onto a reference structure,
// either in-process (Kabsch) or by delegating to GROMACS.
package align

import (
	"context"
	"io"
	"os"
	"time"

	chem "github.com/rmera/dispmi"
	v3 "github.com/rmera/dispmi/v3"
	"github.com/sirupsen/logrus"
)

// Aligner fits every frame onto ref, using only the atoms in subset (all atoms if
// subset is empty) to compute the fit, and applying it to all atoms. It returns new
// matrices, frames are not modified.
type Aligner interface {
	Align(ctx context.Context, frames []*v3.Matrix, ref *v3.Matrix, subset []int) ([]*v3.Matrix, error)
}

// Options contains the options for the aligners.
type Options struct {
	Timeout    time.Duration //for each call to an external program
	Gmx        string        //GROMACS executable
	ScratchDir string        //where the per-call scratch directories are created
	Logger     logrus.FieldLogger
}

// DefaultOptions returns options with a 10 minute timeout, the gmx executable
// from the GMX environment variable (or "gmx") and the system temporary directory.
func DefaultOptions() *Options {
	r := new(Options)
	r.Timeout = 10 * time.Minute
	r.Gmx = "gmx"
	if g := os.Getenv("GMX"); g != "" {
		r.Gmx = g
	}
	r.ScratchDir = os.TempDir()
	r.Logger = quietLogger()
	return r
}

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func (O *Options) logger() logrus.FieldLogger {
	if O == nil || O.Logger == nil {
		return quietLogger()
	}
	return O.Logger
}

// validate checks that all frames and ref have the same number of atoms, and that
// subset is valid for that number. It returns the subset to use (nil for all atoms).
func validate(frames []*v3.Matrix, ref *v3.Matrix, subset []int) ([]int, error) {
	if ref == nil {
		return nil, chem.NewError(chem.ShapeMismatch, "", nil, "nil reference structure")
	}
	natoms := ref.NVecs()
	for i, f := range frames {
		if f.NVecs() != natoms {
			return nil, chem.NewError(chem.ShapeMismatch, "", nil, "frame %d has %d atoms, the reference %d", i, f.NVecs(), natoms)
		}
	}
	if len(subset) == 0 {
		return nil, nil
	}
	sel := chem.Selection{Atoms: subset}
	if err := sel.Check(natoms); err != nil {
		return nil, err
	}
	return subset, nil
}
