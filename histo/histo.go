/*
 * histo.go, part of dispmi.
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

// Package histo builds the equal-width 1D and 2D histograms used to estimate
// entropies. The binning follows the usual convention: bins are closed on the left
// and open on the right, except the last one, which also contains its right edge.
package histo

import (
	"fmt"
	"sort"

	chem "github.com/rmera/dispmi"
	"gonum.org/v1/gonum/floats"
)

// Dividers returns the bins+1 equally spaced edges of bins bins spanning [lo, hi].
// If lo == hi, the range is widened to [lo-0.5, hi+0.5].
func Dividers(lo, hi float64, bins int) []float64 {
	if bins < 1 {
		panic(fmt.Sprintf("histo.Dividers: invalid number of bins %d", bins))
	}
	if lo == hi {
		lo -= 0.5
		hi += 0.5
	}
	d := floats.Span(make([]float64, bins+1), lo, hi)
	d[bins] = hi
	return d
}

// Bin returns the bin, defined by dividers, where v falls. It returns -1 if v is outside
// the range of the dividers.
func Bin(dividers []float64, v float64) int {
	last := len(dividers) - 1
	if v < dividers[0] || v > dividers[last] {
		return -1
	}
	//number of dividers <= v, minus one
	i := sort.Search(len(dividers), func(i int) bool { return dividers[i] > v }) - 1
	if i == last {
		i--
	}
	return i
}

// Axis is the binning of one variable: the dividers, spanning the range of the data,
// the bin assigned to each observation, and the resulting counts.
type Axis struct {
	dividers   []float64
	index      []int
	counts     []float64
	degenerate bool
}

// NewAxis bins data into bins equal-width bins spanning its range.
func NewAxis(data []float64, bins int) *Axis {
	if len(data) == 0 {
		panic("histo.NewAxis: no data")
	}
	lo, hi := floats.Min(data), floats.Max(data)
	A := &Axis{
		dividers:   Dividers(lo, hi, bins),
		index:      make([]int, len(data)),
		counts:     make([]float64, bins),
		degenerate: lo == hi,
	}
	for i, v := range data {
		b := Bin(A.dividers, v)
		A.index[i] = b
		A.counts[b]++
	}
	return A
}

// Degenerate returns true if all the data in the axis had the same value.
func (A *Axis) Degenerate() bool {
	return A.degenerate
}

// Bins returns the number of bins.
func (A *Axis) Bins() int {
	return len(A.counts)
}

// Len returns the number of observations.
func (A *Axis) Len() int {
	return len(A.index)
}

// Index returns the bin of the observation i.
func (A *Axis) Index(i int) int {
	return A.index[i]
}

// Counts returns a view of the counts of each bin.
func (A *Axis) Counts() []float64 {
	return A.counts
}

// CopyDividers copies the dividers into dest, if given and large enough, or
// into a new slice, and returns it.
func (A *Axis) CopyDividers(dest ...[]float64) []float64 {
	d := getCopySlice(len(A.dividers), dest...)
	copy(d, A.dividers)
	return d
}

// Joint is the 2D histogram of the observations of two axes.
type Joint struct {
	rows, cols int
	total      int
	counts     []float64 //row-major
}

// NewJoint counts the pairs (x.Index(i), y.Index(i)). Both axes must have the
// same number of observations.
func NewJoint(x, y *Axis) (*Joint, error) {
	if x.Len() != y.Len() {
		return nil, chem.NewError(chem.ShapeMismatch, "", nil, "axes with %d and %d observations", x.Len(), y.Len())
	}
	J := &Joint{rows: x.Bins(), cols: y.Bins(), total: x.Len()}
	J.counts = make([]float64, J.rows*J.cols)
	for i, r := range x.index {
		J.counts[r*J.cols+y.index[i]]++
	}
	return J, nil
}

// Dims returns the number of bins along each axis.
func (J *Joint) Dims() (int, int) {
	return J.rows, J.cols
}

// Counts returns a row-major view of the counts.
func (J *Joint) Counts() []float64 {
	return J.counts
}

// Total returns the number of observations.
func (J *Joint) Total() int {
	return J.total
}

// Marginal returns the counts summed over the other axis: axis 0 gives
// one value per row, 1, one per column.
func (J *Joint) Marginal(axis int) []float64 {
	switch axis {
	case 0:
		ret := make([]float64, J.rows)
		for r := range ret {
			ret[r] = floats.Sum(J.counts[r*J.cols : (r+1)*J.cols])
		}
		return ret
	case 1:
		ret := make([]float64, J.cols)
		for r := 0; r < J.rows; r++ {
			floats.Add(ret, J.counts[r*J.cols:(r+1)*J.cols])
		}
		return ret
	}
	panic(fmt.Sprintf("histo.Joint.Marginal: invalid axis %d", axis))
}

func getCopySlice(N int, dest ...[]float64) []float64 {
	if len(dest) > 0 && len(dest[0]) >= N {
		return dest[0][:N]
	}
	return make([]float64, N)
}
