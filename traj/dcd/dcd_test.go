/*
 * dcd_test.go, part of dispmi.
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

package dcd

import (
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"testing"

	chem "github.com/rmera/dispmi"
	v3 "github.com/rmera/dispmi/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func frame(natoms int, shift float64) *v3.Matrix {
	m := v3.Zeros(natoms)
	for i := 0; i < natoms; i++ {
		m.Set(i, 0, float64(i)+shift)
		m.Set(i, 1, -float64(i)*0.5)
		m.Set(i, 2, shift*2)
	}
	return m
}

func TestDCDRoundTrip(Te *testing.T) {
	name := filepath.Join(Te.TempDir(), "traj.dcd")
	w, err := NewWriter(name, 6)
	require.NoError(Te, err)
	for i := 0; i < 4; i++ {
		require.NoError(Te, w.WNext(frame(6, float64(i))))
	}
	require.NoError(Te, w.CloseErr())

	r, err := New(name)
	require.NoError(Te, err)
	assert.Equal(Te, 6, r.Len())
	assert.Equal(Te, 4, r.Frames())
	c := v3.Zeros(6)
	n := 0
	for ; ; n++ {
		err := r.Next(c)
		if err != nil {
			var last chem.LastFrameError
			require.True(Te, errors.As(err, &last), err)
			break
		}
		assert.InDeltaSlice(Te, frame(6, float64(n)).RawMatrix().Data, c.RawMatrix().Data, 1e-5)
	}
	assert.Equal(Te, 4, n)
	assert.False(Te, r.Readable())
}

func TestDCDBadFiles(Te *testing.T) {
	dir := Te.TempDir()
	_, err := New(filepath.Join(dir, "none.dcd"))
	assert.ErrorIs(Te, err, os.ErrNotExist)

	garbage := filepath.Join(dir, "garbage.dcd")
	require.NoError(Te, os.WriteFile(garbage, []byte("this is not a dcd file at all"), 0o644))
	_, err = New(garbage)
	assert.Error(Te, err)

	//a header for 3 atoms followed by half a frame
	trunc := filepath.Join(dir, "trunc.dcd")
	w, err := NewWriter(trunc, 3)
	require.NoError(Te, err)
	require.NoError(Te, w.CloseErr())
	f, err := os.OpenFile(trunc, os.O_APPEND|os.O_WRONLY, 0)
	require.NoError(Te, err)
	require.NoError(Te, binary.Write(f, binary.LittleEndian, int32(12)))
	require.NoError(Te, binary.Write(f, binary.LittleEndian, []float32{1, 2}))
	f.Close()
	r, err := New(trunc)
	require.NoError(Te, err)
	err = r.Next(nil)
	require.Error(Te, err)
	var last chem.LastFrameError
	assert.False(Te, errors.As(err, &last))
}

func TestDCDWrongSize(Te *testing.T) {
	name := filepath.Join(Te.TempDir(), "w.dcd")
	w, err := NewWriter(name, 3)
	require.NoError(Te, err)
	assert.Error(Te, w.WNext(frame(4, 0)))
	assert.Error(Te, w.WNext(nil))
	w.Close()
	assert.Error(Te, w.WNext(frame(3, 0)))
	_, err = NewWriter(name, 0)
	assert.Error(Te, err)
}
