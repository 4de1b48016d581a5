/*
 * gochem_test.go, part of dispmi.
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

package chem

import (
	"bytes"
	"errors"
	"math"
	"path/filepath"
	"strings"
	"testing"

	v3 "github.com/rmera/dispmi/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func coords(Te *testing.T, data ...float64) *v3.Matrix {
	m, err := v3.NewMatrix(data)
	require.NoError(Te, err)
	return m
}

// rotZ returns A rotated by angle radians around the z axis, and then translated by t.
func rotZ(A *v3.Matrix, angle float64, t [3]float64) *v3.Matrix {
	r := mat.NewDense(3, 3, []float64{
		math.Cos(angle), math.Sin(angle), 0,
		-math.Sin(angle), math.Cos(angle), 0,
		0, 0, 1,
	})
	ret := v3.Zeros(A.NVecs())
	ret.Mul(A.Dense, r)
	ret.AddVec(ret, &v3.Matrix{Dense: mat.NewDense(1, 3, t[:])})
	return ret
}

func TestErrorKinds(Te *testing.T) {
	err := NewError(ShapeMismatch, "traj.dcd", nil, "%d vs %d atoms", 3, 4)
	var e error = err
	assert.True(Te, errors.Is(e, ShapeMismatch))
	assert.False(Te, errors.Is(e, InputNotFound))
	assert.Equal(Te, ShapeMismatch, KindOf(e))
	assert.Contains(Te, e.Error(), "traj.dcd")
	assert.Equal(Te, []string{"Super"}, err.Decorate("Super"))
	assert.Equal(Te, Kind(""), KindOf(errors.New("plain")))

	wrapped := NewError(AlignmentFailure, "", err, "fit failed")
	assert.True(Te, errors.Is(wrapped, ShapeMismatch))
	assert.Equal(Te, AlignmentFailure, KindOf(wrapped))
}

func TestPDBRoundTrip(Te *testing.T) {
	top := Generic(3)
	top.Atoms[1].Name = "CB"
	f1 := coords(Te, 0, 0, 0, 1.5, 0, 0, 0, 1.5, 0)
	f2 := coords(Te, 0.1, 0, 0, 1.6, 0.2, 0, 0, 1.5, -0.3)
	var buf bytes.Buffer
	require.NoError(Te, PDBWrite(&buf, top, []*v3.Matrix{f1, f2}))

	rtop, frames, err := PDBRead(&buf)
	require.NoError(Te, err)
	require.Len(Te, frames, 2)
	assert.Equal(Te, 3, rtop.Len())
	assert.Equal(Te, "CB", rtop.Atom(1).Name)
	assert.True(Te, mat.EqualApprox(f2, frames[1], 1e-3))
}

func TestPDBReadSingleModel(Te *testing.T) {
	pdb := `CRYST1   10.000   10.000   10.000  90.00  90.00  90.00 P 1           1
ATOM      1  N   ALA A   1       1.000   2.000   3.000  1.00  0.00           N
ATOM      2  CA  ALA A   1       4.000   5.000   6.000  1.00  0.00           C
TER
END
`
	top, frames, err := PDBRead(strings.NewReader(pdb))
	require.NoError(Te, err)
	require.Len(Te, frames, 1)
	assert.Equal(Te, "CA", top.Atom(1).Name)
	assert.Equal(Te, "ALA", top.Atom(1).MolName)
	assert.Equal(Te, 6.0, frames[0].At(1, 2))
}

func TestPDBLargeSerials(Te *testing.T) {
	pdb := `ATOM  99999  OW  SOL X9999       1.000   2.000   3.000  1.00  0.00           O
ATOM  *****  HW1 SOL X9999       1.500   2.000   3.000  1.00  0.00           H
ATOM  186a0  HW2 SOL X9999       1.000   2.500   3.000  1.00  0.00           H
END
`
	top, frames, err := PDBRead(strings.NewReader(pdb))
	require.NoError(Te, err)
	require.Len(Te, frames, 1)
	assert.Equal(Te, 3, top.Len())
	assert.Equal(Te, 99999, top.Atom(0).ID)
	assert.Equal(Te, 2, top.Atom(1).ID)
	assert.Equal(Te, "HW2", top.Atom(2).Name)
	assert.Equal(Te, 2.5, frames[0].At(2, 1))
}

func TestPDBErrors(Te *testing.T) {
	_, _, err := PDBFileRead(filepath.Join(Te.TempDir(), "missing.pdb"))
	assert.True(Te, errors.Is(err, InputNotFound))

	uneven := `MODEL        1
ATOM      1  CA  ALA A   1       1.000   2.000   3.000  1.00  0.00           C
ATOM      2  CA  ALA A   2       1.000   2.000   3.000  1.00  0.00           C
ENDMDL
MODEL        2
ATOM      1  CA  ALA A   1       1.000   2.000   3.000  1.00  0.00           C
ENDMDL
`
	_, _, err = PDBRead(strings.NewReader(uneven))
	assert.True(Te, errors.Is(err, ShapeMismatch))

	bad := "ATOM      1  CA  ALA A   1       1.000   x.000   3.000  1.00  0.00           C\n"
	_, _, err = PDBRead(strings.NewReader(bad))
	assert.True(Te, errors.Is(err, IOFailure))
}

func TestNDX(Te *testing.T) {
	ndx := `[ System ]
   1    2    3    4    5
[ Backbone ]
   2    4
`
	groups, err := NDXRead(strings.NewReader(ndx))
	require.NoError(Te, err)
	require.Len(Te, groups, 2)
	assert.Equal(Te, "Backbone", groups[1].Name)
	assert.Equal(Te, []int{1, 3}, groups[1].Atoms)

	var buf bytes.Buffer
	require.NoError(Te, NDXWrite(&buf, groups))
	again, err := NDXRead(&buf)
	require.NoError(Te, err)
	assert.Equal(Te, groups, again)

	sel, err := SelectionFromGroups(groups, true)
	require.NoError(Te, err)
	pos, err := sel.AlignPositions()
	require.NoError(Te, err)
	assert.Equal(Te, []int{1, 3}, pos)
	assert.NoError(Te, sel.Check(5))
	assert.True(Te, errors.Is(sel.Check(4), ShapeMismatch))

	_, err = SelectionFromGroups(groups[:1], true)
	assert.True(Te, errors.Is(err, ShapeMismatch))
	_, err = SelectionFromGroups([]IndexGroup{{"empty", nil}, {"b", []int{1}}}, false)
	assert.True(Te, errors.Is(err, ShapeMismatch))
	_, err = SelectionFromGroups(nil, false)
	assert.True(Te, errors.Is(err, ShapeMismatch))
	_, err = SelectionFromGroups([]IndexGroup{{"a", []int{0, 1}}, {"b", []int{7}}}, true)
	assert.True(Te, errors.Is(err, ShapeMismatch))

	sel, err = SelectionFromGroups(groups[1:], false)
	require.NoError(Te, err)
	assert.Nil(Te, sel.Align)
}

func TestSuper(Te *testing.T) {
	templa := coords(Te, 0, 0, 0, 1, 0, 0, 0, 2, 0, 0, 0, 3, 1, 1, 1)
	test := rotZ(templa, 0.7, [3]float64{3, -2, 5})
	sup, err := Super(test, templa, nil)
	require.NoError(Te, err)
	rmsd, err := RMSD(sup, templa)
	require.NoError(Te, err)
	assert.InDelta(Te, 0.0, rmsd, 1e-9)

	//fit only on the first 4 atoms, the 5th moves with them.
	moved := test.Copy()
	moved.Set(4, 0, moved.At(4, 0)+2)
	sup, err = Super(moved, templa, []int{0, 1, 2, 3})
	require.NoError(Te, err)
	sub := v3.Zeros(4)
	sub.SomeVecs(sup, []int{0, 1, 2, 3})
	tsub := v3.Zeros(4)
	tsub.SomeVecs(templa, []int{0, 1, 2, 3})
	rmsd, err = RMSD(sub, tsub)
	require.NoError(Te, err)
	assert.InDelta(Te, 0.0, rmsd, 1e-9)
	assert.InDelta(Te, 2.0, floatsDist(sup.RawRowView(4), templa.RawRowView(4)), 1e-9)

	_, err = Super(test, coords(Te, 0, 0, 0), nil)
	assert.True(Te, errors.Is(err, ShapeMismatch))
	_, err = Super(test, templa, []int{0, 9})
	assert.True(Te, errors.Is(err, ShapeMismatch))
}

func TestSuperMirror(Te *testing.T) {
	//a mirror image can't be superimposed by a proper rotation, the result must still be a rotation.
	templa := coords(Te, 0, 0, 0, 1, 0, 0, 0, 2, 0, 0, 0, 3)
	mirror := coords(Te, 0, 0, 0, 1, 0, 0, 0, 2, 0, 0, 0, -3)
	rot, _, _, err := RotatorTranslatorToSuper(mirror, templa)
	require.NoError(Te, err)
	assert.InDelta(Te, 1.0, mat.Det(rot), 1e-9)
}

func floatsDist(a, b []float64) float64 {
	var s float64
	for i := range a {
		s += (a[i] - b[i]) * (a[i] - b[i])
	}
	return math.Sqrt(s)
}
