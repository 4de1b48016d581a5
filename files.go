/*
 * files.go, part of dispmi.
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
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"

	v3 "github.com/rmera/dispmi/v3"
)

//PDB read family

// pdbCoords parses the coordinates of an ATOM/HETATM line
func pdbCoords(line string, coords []float64) error {
	if len(line) < 54 {
		return fmt.Errorf("line too short for an ATOM record")
	}
	var err error
	for i := 0; i < 3; i++ {
		field := strings.TrimSpace(line[30+8*i : 38+8*i])
		coords[i], err = strconv.ParseFloat(field, 64)
		if err != nil {
			return err
		}
	}
	return nil
}

// pdbAtom parses the atom information (everything but coordinates) from an ATOM/HETATM line.
// serial is used as the atom ID if the line doesn't carry a valid one, which is what
// gromacs writes for systems with more than 99999 atoms.
func pdbAtom(line string, serial int) *Atom {
	var err error
	at := new(Atom)
	at.Het = strings.HasPrefix(line, "HETATM")
	at.ID, err = strconv.Atoi(strings.TrimSpace(line[6:11]))
	if err != nil {
		at.ID = serial
	}
	at.Name = strings.TrimSpace(line[12:16])
	at.MolName = strings.TrimSpace(line[17:20])
	at.Chain = strings.TrimSpace(line[21:22])
	at.MolID, _ = strconv.Atoi(strings.TrimSpace(line[22:26])) //gromacs sometimes writes garbage here for large systems, we don't care.
	if len(line) >= 78 {
		at.Symbol = strings.TrimSpace(line[76:78])
	}
	if at.Symbol == "" {
		if n := strings.TrimLeft(at.Name, "0123456789"); n != "" {
			at.Symbol = n[:1]
		}
	}
	return at
}

// PDBRead reads a (possibly multi-model) PDB from r. It returns the topology, taken from the
// first model, and one coordinate matrix per model. All models must have the same number of atoms.
func PDBRead(r io.Reader) (*Topology, []*v3.Matrix, error) {
	ats := make([]*Atom, 0, 100)
	frames := make([]*v3.Matrix, 0, 1)
	var current []float64
	coords := make([]float64, 3)
	closeFrame := func(lineno int) error {
		if len(current) == 0 {
			return nil
		}
		if len(frames) > 0 && len(current) != 3*frames[0].NVecs() {
			return NewError(ShapeMismatch, "", nil, "model ending at line %d has %d atoms, the first model has %d", lineno, len(current)/3, frames[0].NVecs())
		}
		m, err := v3.NewMatrix(current)
		if err != nil {
			return err
		}
		frames = append(frames, m)
		current = nil
		return nil
	}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 1024), 1024*1024)
	lineno := 0
	for sc.Scan() {
		lineno++
		line := sc.Text()
		switch {
		case strings.HasPrefix(line, "ATOM") || strings.HasPrefix(line, "HETATM"):
			if err := pdbCoords(line, coords); err != nil {
				return nil, nil, NewError(IOFailure, "", err, "malformed coordinates in line %d", lineno)
			}
			if len(frames) == 0 {
				ats = append(ats, pdbAtom(line, len(ats)+1))
			}
			current = append(current, coords...)
		case strings.HasPrefix(line, "ENDMDL"), strings.HasPrefix(line, "MODEL"), strings.HasPrefix(line, "END"):
			if err := closeFrame(lineno); err != nil {
				return nil, nil, err
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, nil, NewError(IOFailure, "", err, "reading PDB")
	}
	if err := closeFrame(lineno); err != nil {
		return nil, nil, err
	}
	if len(frames) == 0 {
		return nil, nil, NewError(IOFailure, "", nil, "no atoms found in PDB")
	}
	return NewTopology(ats), frames, nil
}

// PDBFileRead reads the PDB file pdbname. See PDBRead.
func PDBFileRead(pdbname string) (*Topology, []*v3.Matrix, error) {
	f, err := os.Open(pdbname)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil, NewError(InputNotFound, pdbname, err, "")
		}
		return nil, nil, NewError(IOFailure, pdbname, err, "")
	}
	defer f.Close()
	top, frames, err := PDBRead(bufio.NewReader(f))
	if err != nil {
		if e, ok := err.(*KindError); ok && e.filename == "" {
			e.filename = pdbname
		}
		return nil, nil, errDecorate(err, "PDBFileRead")
	}
	return top, frames, nil
}

//PDB write family

func pdbAtomName(name string) string {
	if len(name) < 4 {
		return " " + name
	}
	return name
}

func pdbAtomLine(at *Atom, i int, c []float64) string {
	rec := "ATOM"
	if at.Het {
		rec = "HETATM"
	}
	chain := at.Chain
	if len(chain) != 1 {
		chain = "A"
	}
	return fmt.Sprintf("%-6s%5d %-4s %-3s %1s%4d    %8.3f%8.3f%8.3f%6.2f%6.2f          %2s\n",
		rec, (i+1)%100000, pdbAtomName(at.Name), at.MolName, chain, at.MolID%10000,
		c[0], c[1], c[2], 1.0, 0.0, at.Symbol)
}

// PDBWrite writes the frames in coords as a multi-model PDB to out, using mol as the topology.
// The coordinates are written with 3 decimal places, as the format requires.
func PDBWrite(out io.Writer, mol Atomer, coords []*v3.Matrix) error {
	if len(coords) == 0 {
		return NewError(ShapeMismatch, "", nil, "no frames to write")
	}
	w := bufio.NewWriter(out)
	for m, c := range coords {
		if c.NVecs() != mol.Len() {
			return NewError(ShapeMismatch, "", nil, "frame %d has %d atoms, the topology %d", m, c.NVecs(), mol.Len())
		}
		fmt.Fprintf(w, "MODEL     %4d\n", m+1)
		for i := 0; i < mol.Len(); i++ {
			w.WriteString(pdbAtomLine(mol.Atom(i), i, c.RawRowView(i)))
		}
		w.WriteString("TER\nENDMDL\n")
	}
	if _, err := w.WriteString("END\n"); err != nil {
		return NewError(IOFailure, "", err, "writing PDB")
	}
	if err := w.Flush(); err != nil {
		return NewError(IOFailure, "", err, "writing PDB")
	}
	return nil
}

// PDBFileWrite writes a multi-model PDB file with the name pdbname. See PDBWrite.
func PDBFileWrite(pdbname string, mol Atomer, coords []*v3.Matrix) error {
	out, err := os.Create(pdbname)
	if err != nil {
		return NewError(IOFailure, pdbname, err, "")
	}
	err = PDBWrite(out, mol, coords)
	if cerr := out.Close(); err == nil && cerr != nil {
		err = NewError(IOFailure, pdbname, cerr, "")
	}
	return errDecorate(err, "PDBFileWrite")
}
