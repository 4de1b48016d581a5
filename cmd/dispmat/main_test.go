/*
 * main_test.go, part of dispmi.
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

package main

import (
	"os"
	"path/filepath"
	"testing"

	chem "github.com/rmera/dispmi"
	"github.com/rmera/dispmi/traj"
	v3 "github.com/rmera/dispmi/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun(Te *testing.T) {
	dir := Te.TempDir()
	frames := make([]*v3.Matrix, 3)
	for i := range frames {
		f, err := v3.NewMatrix([]float64{0, 0, 0, 1, 0, 0, 0, 1, float64(i) * 0.1, 1, 1, 1})
		require.NoError(Te, err)
		frames[i] = f
	}
	require.NoError(Te, traj.Save(filepath.Join(dir, "md1.dcd"), nil, frames))
	require.NoError(Te, traj.Save(filepath.Join(dir, "md2.dcd"), nil, frames[:2]))
	require.NoError(Te, chem.PDBFileWrite(filepath.Join(dir, "ref.pdb"), chem.Generic(4), frames[:1]))
	out := filepath.Join(dir, "out")
	code := run([]string{"--sourcedir", filepath.Join(dir, "*.dcd"), "--sourcepdb", filepath.Join(dir, "ref.pdb"), "--outputdir", out, "--format", "gmat"})
	assert.Equal(Te, 0, code)
	for _, name := range []string{"Fileorder.json", "report.json", "md1_displacement.gmat", "md2_displacement.gmat", "all_displacements.gmat"} {
		_, err := os.Stat(filepath.Join(out, name))
		assert.NoError(Te, err, name)
	}

	assert.Equal(Te, 2, run([]string{"--outputdir", out}))
	assert.Equal(Te, 2, run([]string{"--sourcedir", "x", "--format", "csv"}))
	assert.Equal(Te, 1, run([]string{"--sourcedir", filepath.Join(dir, "*.dcd"), "--sourcepdb", filepath.Join(dir, "none.pdb"), "--outputdir", out}))
}
