/*
 * traj_test.go, part of dispmi.
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

package traj

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	chem "github.com/rmera/dispmi"
	v3 "github.com/rmera/dispmi/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func frames(n, natoms int) []*v3.Matrix {
	ret := make([]*v3.Matrix, n)
	for i := range ret {
		ret[i] = v3.Zeros(natoms)
		for j := 0; j < natoms; j++ {
			ret[i].Set(j, 0, float64(j))
			ret[i].Set(j, 1, float64(i)*0.25)
			ret[i].Set(j, 2, -1.5)
		}
	}
	return ret
}

func TestFormatOf(Te *testing.T) {
	assert.Equal(Te, PDB, FormatOf("a/b/prot.PDB"))
	assert.Equal(Te, DCD, FormatOf("x.dcd"))
	assert.Equal(Te, STF, FormatOf("x.stf"))
	assert.Equal(Te, STF, FormatOf("x.stz"))
	assert.Equal(Te, Unknown, FormatOf("x.xtc"))
	assert.Equal(Te, Unknown, FormatOf("x.st"))
	assert.Equal(Te, "dcd", DCD.String())
}

func TestSaveLoad(Te *testing.T) {
	dir := Te.TempDir()
	want := frames(3, 5)
	for _, ext := range []string{".pdb", ".dcd", ".stf", ".stz"} {
		name := filepath.Join(dir, "t"+ext)
		require.NoError(Te, Save(name, nil, want), ext)
		got, err := Load(name)
		require.NoError(Te, err, ext)
		require.Len(Te, got, 3, ext)
		for i := range got {
			assert.InDeltaSlice(Te, want[i].RawMatrix().Data, got[i].RawMatrix().Data, 1e-3, ext)
		}
	}
}

func TestLoadErrors(Te *testing.T) {
	dir := Te.TempDir()
	_, err := Load(filepath.Join(dir, "missing.dcd"))
	assert.True(Te, errors.Is(err, chem.InputNotFound), err)

	odd := filepath.Join(dir, "traj.xyz")
	require.NoError(Te, os.WriteFile(odd, []byte("3\n"), 0o644))
	_, err = Load(odd)
	assert.True(Te, errors.Is(err, chem.IOFailure), err)

	uneven := append(frames(1, 4), frames(1, 3)...)
	err = Save(filepath.Join(dir, "u.dcd"), nil, uneven)
	assert.True(Te, errors.Is(err, chem.ShapeMismatch), err)

	err = Save(filepath.Join(dir, "e.dcd"), nil, nil)
	assert.Error(Te, err)
}
