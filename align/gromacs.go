/*
 * gromacs.go, part of dispmi.
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

package align

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	pkgerrors "github.com/pkg/errors"
	chem "github.com/rmera/dispmi"
	v3 "github.com/rmera/dispmi/v3"
	"github.com/sirupsen/logrus"
)

const (
	refName     = "ref.pdb"
	trajName    = "traj.pdb"
	alignedName = "aligned.pdb"
	ndxName     = "index.ndx"
	//index groups in the file we write
	systemGroup = 0
	fitGroup    = 1
	//how much of the program's output goes into error messages
	tailLines = 15
)

// Gromacs fits frames by running "gmx trjconv -fit rot+trans" on files in a scratch
// directory. Each call uses its own directory, so a Gromacs can be used concurrently.
type Gromacs struct {
	o *Options
}

// NewGromacs returns an aligner that uses the GROMACS program in o.Gmx. If o is nil,
// DefaultOptions are used.
func NewGromacs(o *Options) *Gromacs {
	if o == nil {
		o = DefaultOptions()
	}
	return &Gromacs{o: o}
}

// Align fits each frame onto ref using GROMACS. See Aligner. Any failure
// of the external program is reported as a chem.AlignmentFailure containing
// the last lines of its output.
func (G *Gromacs) Align(ctx context.Context, frames []*v3.Matrix, ref *v3.Matrix, subset []int) ([]*v3.Matrix, error) {
	subset, err := validate(frames, ref, subset)
	if err != nil {
		return nil, err
	}
	if len(frames) == 0 {
		return nil, nil
	}
	natoms := ref.NVecs()
	dir, err := os.MkdirTemp(G.o.ScratchDir, "dispmi-"+uuid.NewString()+"-")
	if err != nil {
		return nil, chem.NewError(chem.IOFailure, G.o.ScratchDir, err, "creating scratch directory")
	}
	defer os.RemoveAll(dir)
	log := G.o.logger().WithFields(logrus.Fields{"scratch": dir, "frames": len(frames), "atoms": natoms})

	if err := G.prepare(dir, frames, ref, subset); err != nil {
		return nil, err
	}
	timeout := G.o.Timeout
	if timeout <= 0 {
		timeout = DefaultOptions().Timeout
	}
	tctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	args := []string{"trjconv", "-s", refName, "-f", trajName, "-o", alignedName, "-n", ndxName, "-fit", "rot+trans"}
	cmd := exec.CommandContext(tctx, G.o.Gmx, args...)
	cmd.Dir = dir
	cmd.Stdin = strings.NewReader(fmt.Sprintf("%d\n%d\n", fitGroup, systemGroup))
	cmd.WaitDelay = time.Second
	start := time.Now()
	log.WithField("command", G.o.Gmx+" "+strings.Join(args, " ")).Debug("running GROMACS")
	out, err := cmd.CombinedOutput()
	if err != nil {
		switch {
		case errors.Is(tctx.Err(), context.DeadlineExceeded) && ctx.Err() == nil:
			err = pkgerrors.Errorf("timed out after %s", timeout)
		case ctx.Err() != nil:
			return nil, ctx.Err()
		}
		return nil, chem.NewError(chem.AlignmentFailure, "", err, "%s trjconv failed. Output:\n%s", G.o.Gmx, tail(out, tailLines))
	}
	_, aligned, err := chem.PDBFileRead(filepath.Join(dir, alignedName))
	if err != nil {
		return nil, chem.NewError(chem.AlignmentFailure, "", err, "reading the aligned trajectory. Output:\n%s", tail(out, tailLines))
	}
	if len(aligned) != len(frames) {
		return nil, chem.NewError(chem.AlignmentFailure, "", nil, "aligned trajectory has %d frames, expected %d", len(aligned), len(frames))
	}
	if aligned[0].NVecs() != natoms {
		return nil, chem.NewError(chem.AlignmentFailure, "", nil, "aligned trajectory has %d atoms, expected %d", aligned[0].NVecs(), natoms)
	}
	log.WithField("elapsed", time.Since(start)).Debug("GROMACS alignment done")
	return aligned, nil
}

// prepare writes the reference, the trajectory and the index file to dir.
func (G *Gromacs) prepare(dir string, frames []*v3.Matrix, ref *v3.Matrix, subset []int) error {
	natoms := ref.NVecs()
	top := chem.Generic(natoms)
	if err := chem.PDBFileWrite(filepath.Join(dir, refName), top, []*v3.Matrix{ref}); err != nil {
		return err
	}
	if err := chem.PDBFileWrite(filepath.Join(dir, trajName), top, frames); err != nil {
		return err
	}
	all := make([]int, natoms)
	for i := range all {
		all[i] = i
	}
	fit := subset
	if fit == nil {
		fit = all
	}
	f, err := os.Create(filepath.Join(dir, ndxName))
	if err != nil {
		return chem.NewError(chem.IOFailure, ndxName, err, "")
	}
	err = chem.NDXWrite(f, []chem.IndexGroup{{Name: "System", Atoms: all}, {Name: "Align", Atoms: fit}})
	if cerr := f.Close(); err == nil && cerr != nil {
		err = chem.NewError(chem.IOFailure, ndxName, cerr, "")
	}
	return err
}

// tail returns the last n lines of out.
func tail(out []byte, n int) string {
	lines := strings.Split(strings.TrimRight(string(out), "\n"), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}

var _ Aligner = (*Gromacs)(nil)
