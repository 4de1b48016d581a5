/*
 * batch.go, part of dispmi.
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

package disp

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	chem "github.com/rmera/dispmi"
	"github.com/rmera/dispmi/align"
	"github.com/rmera/dispmi/matio"
	"github.com/rmera/dispmi/traj"
	v3 "github.com/rmera/dispmi/v3"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"
)

// FileResult is the outcome of processing one trajectory.
type FileResult struct {
	Index    int       `json:"index"` //position in the file order
	Path     string    `json:"path"`
	Output   string    `json:"output,omitempty"`
	Frames   int       `json:"frames,omitempty"`
	Atoms    int       `json:"atoms,omitempty"`
	RowStart int       `json:"row_start"` //rows of the global matrix, [RowStart, RowEnd)
	RowEnd   int       `json:"row_end"`
	Kind     chem.Kind `json:"kind,omitempty"`
	Error    string    `json:"error,omitempty"`

	err  error
	disp *mat.Dense
}

// Failed returns true if the trajectory could not be processed.
func (F *FileResult) Failed() bool {
	return F.err != nil
}

// Err returns the error that prevented processing the trajectory, or nil.
func (F *FileResult) Err() error {
	return F.err
}

func (F *FileResult) fail(err error) {
	F.err = err
	F.Error = err.Error()
	F.Kind = chem.KindOf(err)
	F.disp = nil
	F.RowStart, F.RowEnd = 0, 0
}

// Report describes a batch run. Kind and Error are set only if the run failed before
// any trajectory was processed, e.g. because the reference could not be read.
type Report struct {
	FileOrder []string      `json:"file_order"`
	Files     []*FileResult `json:"files"`
	Global    string        `json:"global,omitempty"` //global matrix file, empty if none was written
	Rows      int           `json:"rows"`
	Cols      int           `json:"cols"`
	Kind      chem.Kind     `json:"kind,omitempty"`
	Error     string        `json:"error,omitempty"`
}

// Failed returns the results of the trajectories that could not be processed.
func (R *Report) Failed() []*FileResult {
	var ret []*FileResult
	for _, f := range R.Files {
		if f.Failed() {
			ret = append(ret, f)
		}
	}
	return ret
}

// Err returns all the per-file errors of the run, combined, or nil if there were none.
func (R *Report) Err() error {
	var merr *multierror.Error
	for _, f := range R.Failed() {
		merr = multierror.Append(merr, errors.Wrapf(f.err, "trajectory %d (%s)", f.Index, f.Path))
	}
	return merr.ErrorOrNil()
}

// Run processes all the trajectories matching pattern, which can contain "**" to match
// any number of directories, in lexicographic order. See RunFiles.
func Run(ctx context.Context, pattern string, o *Options) (*Report, error) {
	paths, err := doublestar.Glob(pattern)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid pattern %q", pattern)
	}
	if len(paths) == 0 {
		return nil, chem.NewError(chem.InputNotFound, "", nil, "no trajectories match %q", pattern)
	}
	sort.Strings(paths)
	return RunFiles(ctx, paths, o)
}

// RunFiles processes the trajectories in paths, in the given order, which becomes the
// file order. The file order is saved before anything else, then each trajectory is
// fitted, its displacement matrix computed and saved, and finally all the matrices are
// stacked, in file order, into the global matrix. A report of the run is also saved.
//
// If o.ContinueOnError is false, the first failure cancels the trajectories not yet
// processed, and no global matrix is written. Otherwise the failed trajectories are
// left out of the global matrix. In both cases, the returned error combines all the
// per-file errors, and the report tells which trajectories failed, and why.
func RunFiles(ctx context.Context, paths []string, o *Options) (*Report, error) {
	b, err := newBatch(o)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(b.o.OutputDir, 0o755); err != nil {
		return nil, chem.NewError(chem.IOFailure, b.o.OutputDir, err, "creating output directory")
	}
	report := &Report{FileOrder: append([]string{}, paths...), Files: make([]*FileResult, len(paths))}
	outputs := outputNames(paths, b.o.Format)
	for i, p := range paths {
		report.Files[i] = &FileResult{Index: i, Path: p, Output: filepath.Join(b.o.OutputDir, outputs[i])}
	}
	if err := matio.SaveFileOrder(filepath.Join(b.o.OutputDir, FileOrderName), report.FileOrder); err != nil {
		return nil, err
	}
	if err := b.loadSelection(); err != nil {
		report.Kind, report.Error = chem.KindOf(err), err.Error()
		b.log.WithField("kind", report.Kind).Error(err)
		b.saveReport(report)
		return report, err
	}

	var g *errgroup.Group
	gctx := ctx
	if b.o.ContinueOnError {
		g = new(errgroup.Group)
	} else {
		g, gctx = errgroup.WithContext(ctx)
	}
	g.SetLimit(b.o.Workers)
	start := time.Now()
	for i := range paths {
		res := report.Files[i]
		g.Go(func() error {
			b.unit(gctx, res)
			if res.Failed() && !b.o.ContinueOnError {
				return res.err
			}
			return nil
		})
	}
	firstErr := g.Wait()
	if err := ctx.Err(); err != nil {
		b.saveReport(report)
		return report, err
	}
	if firstErr != nil {
		//the matrices already written stay, but there is no global matrix
		for _, r := range report.Files {
			r.disp = nil
		}
		b.saveReport(report)
		return report, report.Err()
	}
	if err := b.global(report); err != nil {
		b.saveReport(report)
		return report, err
	}
	if err := b.saveReport(report); err != nil {
		return report, err
	}
	b.log.WithFields(logrus.Fields{"files": len(paths), "failed": len(report.Failed()), "rows": report.Rows, "cols": report.Cols, "elapsed": time.Since(start)}).Info("batch done")
	return report, report.Err()
}

// batch holds what is shared, read-only, by all the units of a run.
type batch struct {
	o        *Options
	log      logrus.FieldLogger
	natoms   int   //atoms in the reference, 0 if there is no reference
	atoms    []int //selected atoms, nil for all
	alignPos []int //positions, within the selection, of the fitting atoms. nil for all
}

func newBatch(o *Options) (*batch, error) {
	d := DefaultOptions()
	if o == nil {
		o = d
	}
	c := *o
	if c.OutputDir == "" {
		c.OutputDir = d.OutputDir
	}
	if c.Workers < 1 {
		c.Workers = d.Workers
	}
	if c.Format == "" {
		c.Format = d.Format
	}
	if _, err := matio.ParseFormat(string(c.Format)); err != nil {
		return nil, err
	}
	if c.Logger == nil {
		c.Logger = d.Logger
	}
	if c.Aligner == nil {
		c.Aligner = align.NewKabsch(&align.Options{Logger: c.Logger})
	}
	if c.AlignOnGroup && c.Index == "" {
		return nil, errors.New("aligning on a group requires an index file")
	}
	return &batch{o: &c, log: c.Logger}, nil
}

func (b *batch) loadSelection() error {
	if b.o.Reference != "" {
		_, ref, err := chem.PDBFileRead(b.o.Reference)
		if err != nil {
			return err
		}
		b.natoms = ref[0].NVecs()
	}
	if b.o.Index == "" {
		return nil
	}
	groups, err := chem.NDXFileRead(b.o.Index)
	if err != nil {
		return err
	}
	sel, err := chem.SelectionFromGroups(groups, b.o.AlignOnGroup)
	if err != nil {
		return err
	}
	if b.natoms > 0 {
		if err := sel.Check(b.natoms); err != nil {
			return err
		}
	}
	b.atoms = sel.Atoms
	b.alignPos, err = sel.AlignPositions()
	return err
}

// unit processes one trajectory, recording the outcome in res.
func (b *batch) unit(ctx context.Context, res *FileResult) {
	log := b.log.WithFields(logrus.Fields{"file": res.Path, "index": res.Index})
	start := time.Now()
	m, err := b.displacement(ctx, res.Path)
	if err == nil {
		err = matio.Save(res.Output, m)
	}
	if err != nil {
		res.fail(err)
		log.WithField("kind", res.Kind).Error(err)
		return
	}
	res.disp = m
	res.Frames, res.Atoms = m.Dims()
	log.WithFields(logrus.Fields{"frames": res.Frames, "atoms": res.Atoms, "elapsed": time.Since(start)}).Info("displacement matrix written")
}

func (b *batch) displacement(ctx context.Context, path string) (*mat.Dense, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	frames, err := traj.Load(path)
	if err != nil {
		return nil, err
	}
	natoms := frames[0].NVecs()
	if b.natoms > 0 && natoms != b.natoms {
		return nil, chem.NewError(chem.ShapeMismatch, path, nil, "trajectory has %d atoms, the reference %d", natoms, b.natoms)
	}
	if b.atoms != nil {
		if err := (&chem.Selection{Atoms: b.atoms}).Check(natoms); err != nil {
			return nil, err
		}
		for i, f := range frames {
			s := v3.Zeros(len(b.atoms))
			s.SomeVecs(f, b.atoms)
			frames[i] = s
		}
	}
	aligned, err := b.o.Aligner.Align(ctx, frames, frames[0], b.alignPos)
	if err != nil {
		return nil, err
	}
	return Displacement(aligned)
}

// global stacks the matrices of the successful units, in file order, and saves the result.
// Matrices with a number of atoms different from the first one are marked as failed, in
// which case nothing is saved unless the batch continues on errors.
func (b *batch) global(report *Report) error {
	rows, cols := 0, 0
	for _, r := range report.Files {
		if r.Failed() {
			continue
		}
		if cols == 0 {
			cols = r.Atoms
		}
		if r.Atoms != cols {
			r.fail(chem.NewError(chem.ShapeMismatch, r.Path, nil, "%d atoms, the previous trajectories have %d", r.Atoms, cols))
			continue
		}
		r.RowStart = rows
		rows += r.Frames
		r.RowEnd = rows
	}
	if !b.o.ContinueOnError {
		if err := report.Err(); err != nil {
			for _, r := range report.Files {
				r.disp = nil
			}
			return err
		}
	}
	if rows == 0 {
		return report.Err()
	}
	g := mat.NewDense(rows, cols, nil)
	for _, r := range report.Files {
		if r.Failed() {
			continue
		}
		g.Slice(r.RowStart, r.RowEnd, 0, cols).(*mat.Dense).Copy(r.disp)
		r.disp = nil
	}
	name := filepath.Join(b.o.OutputDir, GlobalName+b.o.Format.Ext())
	if err := matio.Save(name, g); err != nil {
		return err
	}
	report.Global, report.Rows, report.Cols = name, rows, cols
	return nil
}

func (b *batch) saveReport(report *Report) error {
	err := matio.SaveJSON(filepath.Join(b.o.OutputDir, ReportName), report)
	if err != nil {
		b.log.WithField("kind", chem.KindOf(err)).Error(err)
	}
	return err
}

// outputNames returns the name of the displacement matrix file for each path. Names are
// taken from the base name of the trajectory. If two trajectories share a base name,
// the later ones get their index appended.
func outputNames(paths []string, f matio.Format) []string {
	ret := make([]string, len(paths))
	seen := make(map[string]bool, len(paths))
	for i, p := range paths {
		base := filepath.Base(p)
		base = strings.TrimSuffix(base, filepath.Ext(base)) + suffix
		if seen[base] {
			base = fmt.Sprintf("%s_%d", base, i)
		}
		seen[base] = true
		ret[i] = base + f.Ext()
	}
	return ret
}
