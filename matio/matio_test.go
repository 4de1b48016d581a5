/*
 * matio_test.go, part of dispmi.
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

package matio

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	chem "github.com/rmera/dispmi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestSaveLoad(Te *testing.T) {
	dir := Te.TempDir()
	m := mat.NewDense(3, 4, []float64{0, 1.5, 2, 3, 4, 5, 6, 7, 8, 9, 10, 1e-300})
	for _, f := range []Format{NPY, GMat} {
		name := filepath.Join(dir, "m"+f.Ext())
		require.NoError(Te, Save(name, m), f)
		got, err := Load(name)
		require.NoError(Te, err, f)
		assert.True(Te, mat.Equal(m, got), "%s: %v", f, mat.Formatted(got))
	}
	//no leftovers from the temporary files
	entries, err := os.ReadDir(dir)
	require.NoError(Te, err)
	assert.Len(Te, entries, 2)
}

func TestSaveSymmetric(Te *testing.T) {
	name := filepath.Join(Te.TempDir(), "s.npy")
	s := mat.NewSymDense(2, []float64{1, 2, 2, 3})
	require.NoError(Te, Save(name, s))
	got, err := Load(name)
	require.NoError(Te, err)
	assert.True(Te, mat.Equal(s, got))
}

func TestFormats(Te *testing.T) {
	f, err := FormatFromExt("a/b.NPY")
	require.NoError(Te, err)
	assert.Equal(Te, NPY, f)
	f, err = ParseFormat("gmat")
	require.NoError(Te, err)
	assert.Equal(Te, GMat, f)
	_, err = FormatFromExt("x.csv")
	assert.True(Te, errors.Is(err, chem.IOFailure))
}

func TestLoadErrors(Te *testing.T) {
	dir := Te.TempDir()
	_, err := Load(filepath.Join(dir, "none.npy"))
	assert.True(Te, errors.Is(err, chem.InputNotFound), err)
	bad := filepath.Join(dir, "bad.gmat")
	require.NoError(Te, os.WriteFile(bad, []byte("not zstd"), 0o644))
	_, err = Load(bad)
	assert.True(Te, errors.Is(err, chem.IOFailure), err)
	err = Save(filepath.Join(dir, "nodir", "m.npy"), mat.NewDense(1, 1, nil))
	assert.True(Te, errors.Is(err, chem.IOFailure), err)
}

func TestFileOrder(Te *testing.T) {
	name := filepath.Join(Te.TempDir(), "Fileorder.json")
	files := []string{"a/t1.dcd", "a/t2.dcd"}
	require.NoError(Te, SaveFileOrder(name, files))
	got, err := LoadFileOrder(name)
	require.NoError(Te, err)
	assert.Equal(Te, files, got)
	require.NoError(Te, SaveFileOrder(name, nil))
	got, err = LoadFileOrder(name)
	require.NoError(Te, err)
	assert.Empty(Te, got)
}

func TestPermissions(Te *testing.T) {
	if runtime.GOOS == "windows" {
		Te.Skip("no unix permissions")
	}
	dir := Te.TempDir()
	m := mat.NewDense(2, 2, []float64{1, 2, 3, 4})
	names := []string{filepath.Join(dir, "m.npy"), filepath.Join(dir, "m.gmat"), filepath.Join(dir, "order.json")}
	require.NoError(Te, Save(names[0], m))
	require.NoError(Te, Save(names[1], m))
	require.NoError(Te, SaveFileOrder(names[2], []string{"a.dcd"}))
	for _, n := range names {
		info, err := os.Stat(n)
		require.NoError(Te, err)
		assert.Equal(Te, os.FileMode(0o644), info.Mode().Perm(), n)
	}
}
