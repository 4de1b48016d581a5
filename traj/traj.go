/*
 * traj.go, part of dispmi.
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

// Package traj loads and saves whole trajectories, picking the format from the
// file extension.
package traj

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	chem "github.com/rmera/dispmi"
	"github.com/rmera/dispmi/traj/dcd"
	"github.com/rmera/dispmi/traj/stf"
	v3 "github.com/rmera/dispmi/v3"
)

// Format identifies a trajectory file format.
type Format int

const (
	Unknown Format = iota
	PDB
	DCD
	STF
)

func (f Format) String() string {
	switch f {
	case PDB:
		return "pdb"
	case DCD:
		return "dcd"
	case STF:
		return "stf"
	}
	return "unknown"
}

// FormatOf returns the format of the file name, from its extension.
// Any 3-letter extension starting with "st" is an STF variant.
func FormatOf(name string) Format {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	switch {
	case ext == "pdb":
		return PDB
	case ext == "dcd":
		return DCD
	case len(ext) == 3 && strings.HasPrefix(ext, "st"):
		return STF
	}
	return Unknown
}

type closeTraj interface {
	chem.Traj
	Close()
}

func open(path string, format Format) (closeTraj, error) {
	switch format {
	case DCD:
		return dcd.New(path)
	case STF:
		t, _, err := stf.New(path)
		return t, err
	}
	return nil, chem.NewError(chem.IOFailure, path, nil, "unsupported trajectory format %q", filepath.Ext(path))
}

// Load reads every frame of the trajectory in path.
func Load(path string) ([]*v3.Matrix, error) {
	format := FormatOf(path)
	if format == Unknown {
		return nil, chem.NewError(chem.IOFailure, path, nil, "unsupported trajectory format %q", filepath.Ext(path))
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, chem.NewError(chem.InputNotFound, path, err, "")
		}
		return nil, chem.NewError(chem.IOFailure, path, err, "")
	}
	if format == PDB {
		_, frames, err := chem.PDBFileRead(path)
		return frames, err
	}
	t, err := open(path, format)
	if err != nil {
		return nil, chem.NewError(chem.IOFailure, path, err, "")
	}
	defer t.Close()
	frames, err := ReadAll(t)
	if err != nil {
		if chem.KindOf(err) == "" {
			err = chem.NewError(chem.IOFailure, path, err, "")
		}
		return nil, err
	}
	return frames, nil
}

// ReadAll reads frames from t until it signals its last frame.
// A trajectory without frames is an error.
func ReadAll(t chem.Traj) ([]*v3.Matrix, error) {
	var frames []*v3.Matrix
	for {
		c := v3.Zeros(t.Len())
		err := t.Next(c)
		if err != nil {
			var last chem.LastFrameError
			if errors.As(err, &last) {
				break
			}
			return nil, err
		}
		frames = append(frames, c)
	}
	if len(frames) == 0 {
		return nil, chem.NewError(chem.IOFailure, "", nil, "trajectory has no frames")
	}
	return frames, nil
}

// Save writes frames to path, in the format given by its extension. top is only
// used for PDB files, and can be nil, in which case a generic topology is used.
func Save(path string, top chem.Atomer, frames []*v3.Matrix) error {
	if len(frames) == 0 {
		return chem.NewError(chem.IOFailure, path, nil, "no frames to write")
	}
	natoms := frames[0].NVecs()
	for i, f := range frames {
		if f.NVecs() != natoms {
			return chem.NewError(chem.ShapeMismatch, path, nil, "frame %d has %d atoms, frame 0 has %d", i, f.NVecs(), natoms)
		}
	}
	var w chem.TrajWriter
	var err error
	switch FormatOf(path) {
	case PDB:
		if top == nil || top.Len() != natoms {
			top = chem.Generic(natoms)
		}
		return chem.PDBFileWrite(path, top, frames)
	case DCD:
		w, err = dcd.NewWriter(path, natoms)
	case STF:
		w, err = stf.NewWriter(path, natoms, nil)
	default:
		return chem.NewError(chem.IOFailure, path, nil, "unsupported trajectory format %q", filepath.Ext(path))
	}
	if err != nil {
		return chem.NewError(chem.IOFailure, path, err, "")
	}
	for _, f := range frames {
		if err := w.WNext(f); err != nil {
			w.Close()
			return chem.NewError(chem.IOFailure, path, err, "")
		}
	}
	if c, ok := w.(interface{ CloseErr() error }); ok {
		if err := c.CloseErr(); err != nil {
			return chem.NewError(chem.IOFailure, path, err, "")
		}
		return nil
	}
	w.Close()
	return nil
}
