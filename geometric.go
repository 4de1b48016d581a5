/*
 * geometric.go, part of dispmi.
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
	"math"

	v3 "github.com/rmera/dispmi/v3"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Centroid returns the geometric center of the vectors in A as a 1x3 matrix.
func Centroid(A *v3.Matrix) *v3.Matrix {
	ret := v3.Zeros(1)
	n := float64(A.NVecs())
	col := make([]float64, A.NVecs())
	for j := 0; j < 3; j++ {
		mat.Col(col, j, A.Dense)
		ret.Set(0, j, floats.Sum(col)/n)
	}
	return ret
}

// centrate returns a copy of A with the vector cen substracted from each of its vectors.
func centrate(A, cen *v3.Matrix) *v3.Matrix {
	neg := v3.Zeros(1)
	neg.Scale(-1, cen.Dense)
	ret := v3.Zeros(A.NVecs())
	ret.AddVec(A, neg)
	return ret
}

// RotatorTranslatorToSuper obtains the transformation that superimposes the vectors in test on those of
// templa (Kabsch). It returns the rotation matrix and the centroids of test and templa. To superimpose
// a set of coordinates, the centroid of test has to be substracted from them, then the (row-vector)
// rotation must be applied and, finally, the centroid of templa added.
// Reflections are never returned: if needed, the sign of the smallest singular component is flipped.
func RotatorTranslatorToSuper(test, templa *v3.Matrix) (*mat.Dense, *v3.Matrix, *v3.Matrix, error) {
	if test.NVecs() != templa.NVecs() {
		return nil, nil, nil, NewError(ShapeMismatch, "", nil, "can't superimpose sets of %d and %d atoms", test.NVecs(), templa.NVecs())
	}
	if test.NVecs() == 0 {
		return nil, nil, nil, NewError(ShapeMismatch, "", nil, "can't superimpose empty sets of atoms")
	}
	tcen := Centroid(test)
	rcen := Centroid(templa)
	ctest := centrate(test, tcen)
	ctempla := centrate(templa, rcen)
	var H mat.Dense
	H.Mul(ctest.T(), ctempla.Dense)
	var svd mat.SVD
	if ok := svd.Factorize(&H, mat.SVDFull); !ok {
		return nil, nil, nil, NewError(AlignmentFailure, "", nil, "SVD factorization failed")
	}
	var U, V mat.Dense
	svd.UTo(&U)
	svd.VTo(&V)
	d := 1.0
	if mat.Det(&U)*mat.Det(&V) < 0 {
		d = -1.0
	}
	D := mat.NewDiagDense(3, []float64{1, 1, d})
	rot := mat.NewDense(3, 3, nil)
	rot.Product(&U, D, V.T())
	return rot, tcen, rcen, nil
}

// Super returns a copy of test superimposed onto templa. The superposition is calculated using only the atoms
// with index in indexes (all atoms if indexes is nil) and then applied to all the atoms of test.
func Super(test, templa *v3.Matrix, indexes []int) (*v3.Matrix, error) {
	if test.NVecs() != templa.NVecs() {
		return nil, NewError(ShapeMismatch, "", nil, "test has %d atoms and the template %d", test.NVecs(), templa.NVecs())
	}
	ctest, ctempla := test, templa
	if indexes != nil {
		ctest = v3.Zeros(len(indexes))
		ctempla = v3.Zeros(len(indexes))
		if err := ctest.SomeVecsSafe(test, indexes); err != nil {
			return nil, NewError(ShapeMismatch, "", err, "invalid superposition indexes")
		}
		if err := ctempla.SomeVecsSafe(templa, indexes); err != nil {
			return nil, NewError(ShapeMismatch, "", err, "invalid superposition indexes")
		}
	}
	rot, tcen, rcen, err := RotatorTranslatorToSuper(ctest, ctempla)
	if err != nil {
		return nil, errDecorate(err, "Super")
	}
	moved := centrate(test, tcen)
	ret := v3.Zeros(test.NVecs())
	ret.Mul(moved.Dense, rot)
	ret.AddVec(ret, rcen)
	return ret, nil
}

// RMSD returns the root of the mean square deviation between the sets of
// cartesian coordinates in test and template. No superposition is performed.
func RMSD(test, template *v3.Matrix) (float64, error) {
	if test.NVecs() != template.NVecs() {
		return 0, NewError(ShapeMismatch, "", nil, "ill formed matrices for RMSD calculation")
	}
	var sq float64
	for i := 0; i < test.NVecs(); i++ {
		d := floats.Distance(test.RawRowView(i), template.RawRowView(i), 2)
		sq += d * d
	}
	return math.Sqrt(sq / float64(test.NVecs())), nil
}
