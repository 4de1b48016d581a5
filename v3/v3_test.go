/*
 * v3_test.go, part of dispmi.
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

package v3

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMatrix(Te *testing.T) {
	A, err := NewMatrix([]float64{1, 2, 3, 4, 5, 6})
	require.NoError(Te, err)
	assert.Equal(Te, 2, A.NVecs())
	assert.Equal(Te, 6.0, A.At(1, 2))

	_, err = NewMatrix([]float64{1, 2, 3, 4})
	assert.Error(Te, err)
	_, err = NewMatrix(nil)
	assert.Error(Te, err)
}

func TestSomeVecs(Te *testing.T) {
	A, err := NewMatrix([]float64{0, 0, 0, 1, 1, 1, 2, 2, 2, 3, 3, 3})
	require.NoError(Te, err)
	B := Zeros(2)
	B.SomeVecs(A, []int{3, 1})
	assert.Equal(Te, 3.0, B.At(0, 1))
	assert.Equal(Te, 1.0, B.At(1, 2))

	C := Zeros(2)
	err = C.SomeVecsSafe(A, []int{0, 7})
	assert.Error(Te, err)
	err = C.SomeVecsSafe(A, []int{0, 1, 2})
	assert.Error(Te, err)
}

func TestSetVecsAndViews(Te *testing.T) {
	A := Zeros(3)
	B, err := NewMatrix([]float64{9, 8, 7})
	require.NoError(Te, err)
	A.SetVecs(B, []int{2})
	assert.Equal(Te, []float64{9, 8, 7}, A.VecView(2).RawRowView(0))

	//views share data with the parent
	A.VecView(0).Set(0, 1, 5)
	assert.Equal(Te, 5.0, A.At(0, 1))

	C := A.Copy()
	C.Set(0, 1, -1)
	assert.Equal(Te, 5.0, A.At(0, 1))

	S := Zeros(4)
	S.Stack(A, B)
	assert.Equal(Te, 7.0, S.At(3, 2))
	assert.Equal(Te, 5.0, S.At(0, 1))

	S.AddVec(S, B)
	assert.Equal(Te, 14.0, S.At(3, 2))
	assert.Equal(Te, 9.0, S.At(1, 0))
}

func TestShapePanics(Te *testing.T) {
	A := Zeros(2)
	assert.Panics(Te, func() { A.SomeVecs(Zeros(3), []int{0}) })
	assert.Panics(Te, func() { A.Stack(Zeros(2), Zeros(1)) })
}
