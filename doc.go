/*
 * doc.go, part of dispmi.
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
/***Dedicated to the long life of the Ven. Khenpo Phuntzok Tenzin Rinpoche***/

/*Package chem is the main package of dispmi. It provides the atom and topology
structures, readers and writers for the structure files used by the pipelines
(multi-model PDB and Gromacs index files), the rigid-body superposition used to
remove global rotation and translation from trajectories, and the error kinds
shared by all packages.

	**dispmi Capabilities**

    Reads trajectories (PDB, DCD, STF) and computes, per trajectory, the
	displacement of every atom from its position in the first frame after
	a rigid-body fit (package disp). Many trajectories are processed
	concurrently and concatenated, in a reproducible order, into a
	single displacement matrix.

    Superimposes structures with the Kabsch method, optionally using only a
	subset of the atoms for the fit (Super), or through the Gromacs trjconv
	program (package align).

    Calculates the mutual information between every pair of columns of a
	matrix using 2D histograms (package mi).

    Reads/writes matrices as numpy .npy files (package matio).

Errors returned by dispmi can be classified with errors.Is against the
kinds InputNotFound, ShapeMismatch, AlignmentFailure, DegenerateColumn
and IOFailure.*/
package chem
