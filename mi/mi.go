/*
 * mi.go, part of dispmi.
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

// Package mi estimates the mutual information between the columns of a matrix
// from equal-width histograms.
package mi

import (
	"context"
	"io"
	"math"
	"runtime"
	"time"

	chem "github.com/rmera/dispmi"
	"github.com/rmera/dispmi/histo"
	"github.com/rmera/dispmi/matio"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// DefaultBins is the default number of bins per axis.
const DefaultBins = 32

// Options contains the options for the MI matrix builder.
type Options struct {
	Bins    int
	Workers int
	Logger  logrus.FieldLogger
}

// DefaultOptions returns options with DefaultBins bins, one worker per CPU and
// a logger that only reports warnings and errors, to nowhere.
func DefaultOptions() *Options {
	l := logrus.New()
	l.SetOutput(io.Discard)
	l.SetLevel(logrus.WarnLevel)
	return &Options{Bins: DefaultBins, Workers: runtime.NumCPU(), Logger: l}
}

// Entropy returns -sum(a*ln(a)) over the elements of freq, with 0*ln(0) taken as 0.
// freq is usually made of raw counts, not probabilities.
func Entropy(freq []float64) float64 {
	return stat.Entropy(freq)
}

// entropyN returns the entropy of the probabilities counts/n, computed from the raw counts.
func entropyN(counts []float64, n float64) float64 {
	return Entropy(counts)/n + math.Log(n)
}

// fromJoint returns Hx + Hy - Hxy for the joint histogram J.
func fromJoint(J *histo.Joint) float64 {
	n := float64(J.Total())
	hxy := entropyN(J.Counts(), n)
	hx := entropyN(J.Marginal(0), n)
	hy := entropyN(J.Marginal(1), n)
	return hx + hy - hxy
}

// Pair returns the mutual information between x and y, using bins equal-width bins
// spanning the range of each of them.
func Pair(x, y []float64, bins int) (float64, error) {
	if len(x) != len(y) || len(x) == 0 {
		return 0, chem.NewError(chem.ShapeMismatch, "", nil, "can't compare series of %d and %d observations", len(x), len(y))
	}
	if bins < 1 {
		return 0, chem.NewError(chem.ShapeMismatch, "", nil, "invalid number of bins: %d", bins)
	}
	J, err := histo.NewJoint(histo.NewAxis(x, bins), histo.NewAxis(y, bins))
	if err != nil {
		return 0, err
	}
	return fromJoint(J), nil
}

// Result is a mutual information matrix, plus the columns for which all observations
// had the same value. The MI involving those is finite, but carries no information.
type Result struct {
	MI         *mat.SymDense
	Degenerate []int
}

// Matrix returns the mutual information between every pair of columns of data (the
// diagonal included, which is the entropy of each column). Each row of the result is
// computed by a separate task, using at most o.Workers goroutines.
func Matrix(ctx context.Context, data mat.Matrix, o *Options) (*Result, error) {
	if o == nil {
		o = DefaultOptions()
	}
	rows, cols := data.Dims()
	if rows == 0 || cols == 0 {
		return nil, chem.NewError(chem.ShapeMismatch, "", nil, "empty %dx%d matrix", rows, cols)
	}
	if o.Bins < 1 {
		return nil, chem.NewError(chem.ShapeMismatch, "", nil, "invalid number of bins: %d", o.Bins)
	}
	workers := o.Workers
	if workers < 1 {
		workers = runtime.NumCPU()
	}
	log := o.Logger
	if log == nil {
		log = DefaultOptions().Logger
	}

	//The binning of a column doesn't depend on the column it is paired with.
	axes := make([]*histo.Axis, cols)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for j := 0; j < cols; j++ {
		j := j
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			axes[j] = histo.NewAxis(mat.Col(nil, j, data), o.Bins)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	res := &Result{}
	for j, a := range axes {
		if a.Degenerate() {
			res.Degenerate = append(res.Degenerate, j)
			w := chem.Warning(chem.DegenerateColumn, "", "column %d has zero variance, its MI is 0", j)
			log.WithError(w).WithFields(logrus.Fields{"column": j, "kind": w.Kind()}).Warn("degenerate column")
		}
	}

	start := time.Now()
	upper := make([][]float64, cols) //upper[i][k] is MI(i, i+k)
	g, gctx = errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := 0; i < cols; i++ {
		i := i
		g.Go(func() error {
			row := make([]float64, cols-i)
			for k := range row {
				if err := gctx.Err(); err != nil {
					return err
				}
				J, err := histo.NewJoint(axes[i], axes[i+k])
				if err != nil {
					return err
				}
				row[k] = fromJoint(J)
			}
			upper[i] = row
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	res.MI = mat.NewSymDense(cols, nil)
	for i, row := range upper {
		for k, v := range row {
			res.MI.SetSym(i, i+k, v)
		}
	}
	log.WithFields(logrus.Fields{"columns": cols, "frames": rows, "bins": o.Bins, "elapsed": time.Since(start)}).Info("MI matrix built")
	return res, nil
}

// Run loads the matrix in infile, builds its MI matrix and saves it to outfile.
// The file formats are taken from the extensions.
func Run(ctx context.Context, infile, outfile string, o *Options) (*Result, error) {
	if o == nil {
		o = DefaultOptions()
	}
	data, err := matio.Load(infile)
	if err != nil {
		return nil, err
	}
	if o.Logger != nil {
		r, c := data.Dims()
		o.Logger.WithFields(logrus.Fields{"file": infile, "frames": r, "columns": c}).Info("matrix loaded")
	}
	res, err := Matrix(ctx, data, o)
	if err != nil {
		return nil, err
	}
	if err := matio.Save(outfile, res.MI); err != nil {
		return nil, err
	}
	return res, nil
}
