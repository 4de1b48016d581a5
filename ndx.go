/*
 * ndx.go, part of dispmi.
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
)

// IndexGroup is a named group of atoms from a Gromacs index (ndx) file.
// Atoms contains 0-based indexes, while the file uses 1-based atom numbers.
type IndexGroup struct {
	Name  string
	Atoms []int
}

// NDXRead reads the groups of a Gromacs index file from r, in the order they appear.
func NDXRead(r io.Reader) ([]IndexGroup, error) {
	var groups []IndexGroup
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 1024), 1024*1024)
	lineno := 0
	for sc.Scan() {
		lineno++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, ";") {
			continue
		}
		if strings.HasPrefix(line, "[") {
			name := strings.TrimSpace(strings.Trim(line, "[]"))
			groups = append(groups, IndexGroup{Name: name})
			continue
		}
		if len(groups) == 0 {
			return nil, NewError(IOFailure, "", nil, "atom numbers before the first group header in line %d", lineno)
		}
		g := &groups[len(groups)-1]
		for _, f := range strings.Fields(line) {
			n, err := strconv.Atoi(f)
			if err != nil || n < 1 {
				return nil, NewError(IOFailure, "", err, "invalid atom number '%s' in line %d", f, lineno)
			}
			g.Atoms = append(g.Atoms, n-1)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, NewError(IOFailure, "", err, "reading index")
	}
	if len(groups) == 0 {
		return nil, NewError(IOFailure, "", nil, "no groups in index")
	}
	return groups, nil
}

// NDXFileRead reads the Gromacs index file name. See NDXRead.
func NDXFileRead(name string) ([]IndexGroup, error) {
	f, err := os.Open(name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, NewError(InputNotFound, name, err, "")
		}
		return nil, NewError(IOFailure, name, err, "")
	}
	defer f.Close()
	g, err := NDXRead(f)
	if err != nil {
		if e, ok := err.(*KindError); ok {
			e.filename = name
		}
		return nil, errDecorate(err, "NDXFileRead")
	}
	return g, nil
}

// NDXWrite writes groups to out in the Gromacs index format, 15 atom numbers per line.
func NDXWrite(out io.Writer, groups []IndexGroup) error {
	w := bufio.NewWriter(out)
	for _, g := range groups {
		fmt.Fprintf(w, "[ %s ]\n", g.Name)
		for i, v := range g.Atoms {
			fmt.Fprintf(w, "%5d", v+1)
			if (i+1)%15 == 0 || i == len(g.Atoms)-1 {
				w.WriteString("\n")
			}
		}
	}
	if err := w.Flush(); err != nil {
		return NewError(IOFailure, "", err, "writing index")
	}
	return nil
}

// Selection is the subset of atoms a displacement calculation runs on.
// Both slices contain 0-based indexes in the full system. Align is nil
// unless the fit is to be done only on a group of atoms.
type Selection struct {
	Atoms []int
	Align []int
}

// SelectionFromGroups builds a selection from index groups. The first group
// contains the atoms to operate on. If alignOnGroup is true, the second group
// contains the atoms used for the fit, which must all be in the first group.
func SelectionFromGroups(groups []IndexGroup, alignOnGroup bool) (*Selection, error) {
	if len(groups) == 0 || len(groups[0].Atoms) == 0 {
		return nil, NewError(ShapeMismatch, "", nil, "the first index group must contain the atoms to operate on")
	}
	S := &Selection{Atoms: groups[0].Atoms}
	if alignOnGroup {
		if len(groups) < 2 || len(groups[1].Atoms) == 0 {
			return nil, NewError(ShapeMismatch, "", nil, "aligning on a group requires a second, non-empty, index group")
		}
		S.Align = groups[1].Atoms
	}
	if _, err := S.AlignPositions(); err != nil {
		return nil, err
	}
	return S, nil
}

// Check returns a ShapeMismatch error if any atom in the selection doesn't exist in a
// system of natoms atoms, or if an atom is repeated.
func (S *Selection) Check(natoms int) error {
	seen := make(map[int]bool, len(S.Atoms))
	for _, v := range S.Atoms {
		if v < 0 || v >= natoms {
			return NewError(ShapeMismatch, "", nil, "selected atom %d doesn't exist in a system of %d atoms", v+1, natoms)
		}
		if seen[v] {
			return NewError(ShapeMismatch, "", nil, "atom %d selected more than once", v+1)
		}
		seen[v] = true
	}
	return nil
}

// AlignPositions returns the positions, within S.Atoms, of the alignment atoms, or nil if
// S.Align is nil. It fails if an alignment atom is not in S.Atoms.
func (S *Selection) AlignPositions() ([]int, error) {
	if S.Align == nil {
		return nil, nil
	}
	pos := make(map[int]int, len(S.Atoms))
	for i, v := range S.Atoms {
		pos[v] = i
	}
	ret := make([]int, 0, len(S.Align))
	for _, v := range S.Align {
		p, ok := pos[v]
		if !ok {
			return nil, NewError(ShapeMismatch, "", nil, "alignment atom %d is not in the selection", v+1)
		}
		ret = append(ret, p)
	}
	return ret, nil
}
