/*
 * dcd_write.go, part of dispmi.
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

package dcd

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"math"
	"os"

	chem "github.com/rmera/dispmi"
	v3 "github.com/rmera/dispmi/v3"
)

// framesOffset is the position of the frame count in the file: the 84 marker plus "CORD".
const framesOffset = 8

// DCDWObj is a DCD trajectory opened for writing.
type DCDWObj struct {
	natoms   int32
	frames   int32
	writable bool
	filename string
	f        *os.File
	w        *bufio.Writer
	endian   binary.ByteOrder
	fields   [3][]float32
}

// NewWriter creates the DCD file filename to write frames of natoms atoms.
func NewWriter(filename string, natoms int) (*DCDWObj, error) {
	if natoms <= 0 {
		return nil, Error{fmt.Sprintf("Invalid number of atoms: %d", natoms), filename, []string{"NewWriter"}, true, nil}
	}
	D := &DCDWObj{natoms: int32(natoms), filename: filename, endian: binary.LittleEndian}
	var err error
	D.f, err = os.Create(filename)
	if err != nil {
		return nil, Error{UnableToOpen, filename, []string{"NewWriter"}, true, err}
	}
	D.w = bufio.NewWriter(D.f)
	if err := D.writeHeader(); err != nil {
		D.f.Close()
		return nil, errDecorate(err, "NewWriter")
	}
	for i := range D.fields {
		D.fields[i] = make([]float32, natoms)
	}
	D.writable = true
	return D, nil
}

func (D *DCDWObj) writeHeader() error {
	h := header{Magic: [4]byte{'C', 'O', 'R', 'D'}}
	h.Icntrl[2] = 1 //step interval
	//the timestep is stored as a float32 in Icntrl[9]
	h.Icntrl[9] = int32(math.Float32bits(1))
	h.Icntrl[19] = 24 //charmm version
	title := make([]byte, titleLen)
	copy(title, "Created by dispmi")
	for i := len("Created by dispmi"); i < titleLen; i++ {
		title[i] = ' '
	}
	rec := []any{
		int32(84), &h, int32(84),
		int32(4 + titleLen), int32(1), title, int32(4 + titleLen),
		int32(4), D.natoms, int32(4),
	}
	for _, v := range rec {
		if err := binary.Write(D.w, D.endian, v); err != nil {
			return Error{WriteError, D.filename, []string{"writeHeader"}, true, err}
		}
	}
	return nil
}

// Len returns the number of atoms per frame.
func (D *DCDWObj) Len() int {
	return int(D.natoms)
}

// WNext writes the next frame to the trajectory. The box is ignored, as the
// files are written without unit cell information.
func (D *DCDWObj) WNext(towrite *v3.Matrix, box ...[]float64) error {
	if !D.writable {
		return Error{"Traj object uninitialized to write", D.filename, []string{"WNext"}, true, nil}
	}
	if towrite == nil {
		return Error{"got nil coordinates", D.filename, []string{"WNext"}, true, nil}
	}
	if int32(towrite.NVecs()) != D.natoms {
		return Error{"Coordinates don't match the trajectory size", D.filename, []string{"WNext"}, true, nil}
	}
	for i := 0; i < int(D.natoms); i++ {
		r := towrite.RawRowView(i)
		D.fields[0][i] = float32(r[0])
		D.fields[1][i] = float32(r[1])
		D.fields[2][i] = float32(r[2])
	}
	size := D.natoms * 4
	for _, block := range D.fields {
		for _, v := range []any{size, block, size} {
			if err := binary.Write(D.w, D.endian, v); err != nil {
				return Error{WriteError, D.filename, []string{"WNext"}, true, err}
			}
		}
	}
	D.frames++
	return nil
}

// Close flushes the file, writes the final frame count to the header and closes it.
func (D *DCDWObj) Close() {
	D.CloseErr()
}

// CloseErr is like Close, but returns the first error found, if any.
func (D *DCDWObj) CloseErr() error {
	if !D.writable {
		return nil
	}
	D.writable = false
	err := D.w.Flush()
	if err == nil {
		var b [4]byte
		D.endian.PutUint32(b[:], uint32(D.frames))
		_, err = D.f.WriteAt(b[:], framesOffset)
	}
	if err2 := D.f.Close(); err == nil {
		err = err2
	}
	if err != nil {
		return Error{WriteError, D.filename, []string{"Close"}, true, err}
	}
	return nil
}

var _ chem.TrajWriter = (*DCDWObj)(nil)
