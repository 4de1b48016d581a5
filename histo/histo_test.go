/*
 * histo_test.go, part of dispmi.
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

package histo

import (
	"errors"
	"math/rand"
	"sort"
	"testing"

	chem "github.com/rmera/dispmi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

func TestDividers(Te *testing.T) {
	d := Dividers(0, 4, 4)
	assert.Equal(Te, []float64{0, 1, 2, 3, 4}, d)
	d = Dividers(2, 2, 2)
	assert.Equal(Te, []float64{1.5, 2, 2.5}, d)
	assert.Panics(Te, func() { Dividers(0, 1, 0) })
}

func TestBin(Te *testing.T) {
	d := []float64{0, 1, 2, 3}
	assert.Equal(Te, 0, Bin(d, 0))
	assert.Equal(Te, 0, Bin(d, 0.99))
	assert.Equal(Te, 1, Bin(d, 1))
	assert.Equal(Te, 2, Bin(d, 2.5))
	assert.Equal(Te, 2, Bin(d, 3)) //the right edge goes into the last bin
	assert.Equal(Te, -1, Bin(d, 3.01))
	assert.Equal(Te, -1, Bin(d, -0.01))
}

// The counts must agree with gonum's stat.Histogram, once the last divider is
// nudged so the maximum is inside its half-open bin.
func TestAxisAgainstStat(Te *testing.T) {
	r := rand.New(rand.NewSource(7))
	data := make([]float64, 1000)
	for i := range data {
		data[i] = r.NormFloat64()*3 + 1
	}
	A := NewAxis(data, 17)
	require.Equal(Te, 17, A.Bins())
	assert.False(Te, A.Degenerate())
	assert.Equal(Te, 1000.0, floats.Sum(A.Counts()))

	div := A.CopyDividers()
	div[len(div)-1] += 1e-9
	sorted := append([]float64(nil), data...)
	sort.Float64s(sorted)
	want := stat.Histogram(nil, div, sorted, nil)
	assert.Equal(Te, want, A.Counts())
	for i, v := range data {
		b := A.Index(i)
		assert.True(Te, v >= div[b] && v < div[b+1], "observation %d", i)
	}
}

func TestDegenerateAxis(Te *testing.T) {
	A := NewAxis([]float64{3, 3, 3, 3}, 4)
	assert.True(Te, A.Degenerate())
	assert.Equal(Te, []float64{0, 0, 4, 0}, A.Counts())
	dest := make([]float64, 10)
	d := A.CopyDividers(dest)
	assert.Len(Te, d, 5)
	assert.InDelta(Te, 2.5, d[0], 1e-12)
}

func TestJoint(Te *testing.T) {
	x := NewAxis([]float64{0, 1, 2, 3, 3}, 3)
	y := NewAxis([]float64{10, 10, 20, 20, 20}, 2)
	J, err := NewJoint(x, y)
	require.NoError(Te, err)
	r, c := J.Dims()
	assert.Equal(Te, 3, r)
	assert.Equal(Te, 2, c)
	assert.Equal(Te, 5, J.Total())
	//row-major, 3x2
	assert.Equal(Te, []float64{1, 0, 1, 0, 0, 3}, J.Counts())
	assert.Equal(Te, x.Counts(), J.Marginal(0))
	assert.Equal(Te, y.Counts(), J.Marginal(1))
	assert.Equal(Te, 5.0, floats.Sum(J.Counts()))
	assert.Panics(Te, func() { J.Marginal(2) })
	_, err = NewJoint(x, NewAxis([]float64{1}, 2))
	assert.True(Te, errors.Is(err, chem.ShapeMismatch), err)
}
