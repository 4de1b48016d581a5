/*
 * chem.go, part of dispmi.
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

import "fmt"

// Atom contains the information on one atom except for the coordinates,
// which are kept in v3.Matrix objects, one per frame.
type Atom struct {
	Name    string
	ID      int
	MolName string //residue name
	MolID   int    //residue number
	Chain   string
	Symbol  string
	Het     bool // is hetatm in the pdb file?
}

// Copy returns a copy of the Atom object.
func (A *Atom) Copy() *Atom {
	if A == nil {
		panic("Attempted to copy a nil atom")
	}
	ret := *A
	return &ret
}

// Topology is a slice of atoms. It implements Atomer.
type Topology struct {
	Atoms []*Atom
}

// NewTopology returns a topology with the given atoms.
func NewTopology(ats []*Atom) *Topology {
	return &Topology{Atoms: ats}
}

// Atom returns the ith atom of the topology.
func (T *Topology) Atom(i int) *Atom {
	return T.Atoms[i]
}

// Len returns the number of atoms in the topology.
func (T *Topology) Len() int {
	if T == nil {
		return 0
	}
	return len(T.Atoms)
}

// SomeAtoms returns a new topology with the atoms of T with index in clist, in
// the order given. The atoms are copied.
func (T *Topology) SomeAtoms(clist []int) (*Topology, error) {
	ret := make([]*Atom, 0, len(clist))
	for _, v := range clist {
		if v < 0 || v >= T.Len() {
			return nil, NewError(ShapeMismatch, "", nil, "atom index %d out of range for a topology of %d atoms", v, T.Len())
		}
		ret = append(ret, T.Atoms[v].Copy())
	}
	return NewTopology(ret), nil
}

// Generic returns a topology of n atoms with placeholder names. It is used when
// a structure file needs to be written and no real topology is at hand.
func Generic(n int) *Topology {
	ats := make([]*Atom, n)
	for i := range ats {
		ats[i] = &Atom{Name: "CA", ID: i + 1, MolName: "UNK", MolID: i + 1, Chain: "A", Symbol: "C"}
	}
	return NewTopology(ats)
}

func (A *Atom) String() string {
	return fmt.Sprintf("%d %s %s%d%s", A.ID, A.Name, A.MolName, A.MolID, A.Chain)
}
