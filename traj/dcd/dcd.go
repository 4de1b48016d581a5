/*
 * dcd.go, part of dispmi.
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

// Package dcd reads and writes CHARMM/NAMD binary (DCD) trajectories.
// Both endiannesses are read; files are always written little-endian.
// X-plor DCDs and trajectories with fixed atoms are not supported.
package dcd

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	chem "github.com/rmera/dispmi"
	v3 "github.com/rmera/dispmi/v3"
)

const titleLen = 80

// header is the first Fortran record of a DCD file, without its length markers.
type header struct {
	Magic  [4]byte
	Icntrl [20]int32
}

func (h *header) frames() int      { return int(h.Icntrl[0]) }
func (h *header) fixed() int32     { return h.Icntrl[8] }
func (h *header) unitCell() bool   { return h.Icntrl[10] != 0 }
func (h *header) fourDim() bool    { return h.Icntrl[11] == 1 }
func (h *header) charmmVer() int32 { return h.Icntrl[19] }

// DCDObj is a DCD trajectory opened for reading.
type DCDObj struct {
	natoms   int32
	nframes  int
	readable bool
	filename string
	hdr      header
	f        *os.File
	r        *bufio.Reader
	endian   binary.ByteOrder
	fields   [3][]float32
}

// New opens the DCD file filename for reading and reads its header.
func New(filename string) (*DCDObj, error) {
	D := &DCDObj{filename: filename}
	var err error
	D.f, err = os.Open(filename)
	if err != nil {
		return nil, Error{UnableToOpen, filename, []string{"New"}, true, err}
	}
	D.r = bufio.NewReader(D.f)
	if err := D.readHeader(); err != nil {
		D.f.Close()
		return nil, errDecorate(err, "New")
	}
	for i := range D.fields {
		D.fields[i] = make([]float32, D.natoms)
	}
	D.readable = true
	return D, nil
}

func (D *DCDObj) readHeader() error {
	wrong := func(msg string, err error) error {
		return Error{msg, D.filename, []string{"readHeader"}, true, err}
	}
	var mark [4]byte
	if _, err := io.ReadFull(D.r, mark[:]); err != nil {
		return wrong(WrongFormat, err)
	}
	//The first record is always 84 bytes long. That tells us the endianness.
	switch {
	case binary.LittleEndian.Uint32(mark[:]) == 84:
		D.endian = binary.LittleEndian
	case binary.BigEndian.Uint32(mark[:]) == 84:
		D.endian = binary.BigEndian
	default:
		return wrong(WrongFormat, nil)
	}
	if err := binary.Read(D.r, D.endian, &D.hdr); err != nil {
		return wrong(WrongFormat, err)
	}
	if string(D.hdr.Magic[:]) != "CORD" {
		return wrong("Wrong magic number", nil)
	}
	if D.hdr.charmmVer() == 0 {
		return wrong("X-plor DCD not supported", nil)
	}
	if D.hdr.fixed() != 0 {
		return wrong("Fixed atoms not supported", nil)
	}
	if err := D.expect(84); err != nil {
		return err
	}
	//title record
	var size, ntitle int32
	if err := binary.Read(D.r, D.endian, &size); err != nil {
		return wrong(WrongFormat, err)
	}
	if err := binary.Read(D.r, D.endian, &ntitle); err != nil {
		return wrong(WrongFormat, err)
	}
	if _, err := D.r.Discard(int(ntitle) * titleLen); err != nil {
		return wrong(WrongFormat, err)
	}
	if err := D.expect(size); err != nil {
		return err
	}
	if err := D.expect(4); err != nil {
		return err
	}
	if err := binary.Read(D.r, D.endian, &D.natoms); err != nil {
		return wrong(WrongFormat, err)
	}
	if D.natoms <= 0 {
		return wrong(fmt.Sprintf("Invalid number of atoms: %d", D.natoms), nil)
	}
	D.nframes = D.hdr.frames()
	return D.expect(4)
}

// expect reads an int32 and fails if it is not val.
func (D *DCDObj) expect(val int32) error {
	var check int32
	if err := binary.Read(D.r, D.endian, &check); err != nil {
		return Error{WrongFormat, D.filename, []string{"expect"}, true, err}
	}
	if check != val {
		return Error{fmt.Sprintf("%s: record marker %d, expected %d", WrongFormat, check, val), D.filename, []string{"expect"}, true, nil}
	}
	return nil
}

// Readable returns true if the object is ready to be read from,
// false otherwise. It doesn't guarantee that there is something to read.
func (D *DCDObj) Readable() bool {
	return D.readable
}

// Len returns the number of atoms per frame.
func (D *DCDObj) Len() int {
	return int(D.natoms)
}

// Frames returns the number of frames declared in the header. Some writers
// leave it at zero, so it is only a hint.
func (D *DCDObj) Frames() int {
	return D.nframes
}

// Next reads the next frame into keep, or discards it if keep is nil. If a box slice with
// at least 9 elements is given, and the frame has unit cell information, the box lengths
// are put on the diagonal of box.
// At the end of the trajectory, it returns an error that satisfies chem.LastFrameError.
func (D *DCDObj) Next(keep *v3.Matrix, box ...[]float64) error {
	if !D.readable {
		return Error{TrajUnIni, D.filename, []string{"Next"}, true, nil}
	}
	if keep != nil && keep.NVecs() != int(D.natoms) {
		return Error{fmt.Sprintf("Matrix with %d vectors given for a %d-atom frame", keep.NVecs(), D.natoms), D.filename, []string{"Next"}, true, nil}
	}
	var size int32
	err := binary.Read(D.r, D.endian, &size)
	if errors.Is(err, io.EOF) {
		D.Close()
		return newlastFrameError(D.filename, "Next")
	}
	if err != nil {
		D.Close()
		return Error{ReadError, D.filename, []string{"Next"}, true, err}
	}
	//Not all frames carry the unit cell block even when the header says so,
	//so we use the record size to tell it apart from the X block.
	if D.hdr.unitCell() && size != D.natoms*4 {
		if err := D.unitCell(size, box...); err != nil {
			D.Close()
			return errDecorate(err, "Next")
		}
		size = 0
	}
	for i := range D.fields {
		if i > 0 || size == 0 {
			if err := binary.Read(D.r, D.endian, &size); err != nil {
				D.Close()
				return Error{ReadError, D.filename, []string{"Next"}, true, err}
			}
		}
		if size != D.natoms*4 {
			D.Close()
			return Error{WrongFormat, D.filename, []string{"Next"}, true, nil}
		}
		if err := binary.Read(D.r, D.endian, D.fields[i]); err != nil {
			D.Close()
			return Error{ReadError, D.filename, []string{"Next"}, true, err}
		}
		if err := D.expect(size); err != nil {
			D.Close()
			return errDecorate(err, "Next")
		}
	}
	if D.hdr.fourDim() {
		if err := D.skipRecord(); err != nil && !errors.Is(err, io.EOF) {
			D.Close()
			return errDecorate(err, "Next")
		}
	}
	if keep == nil {
		return nil
	}
	for i := 0; i < int(D.natoms); i++ {
		r := keep.RawRowView(i)
		r[0] = float64(D.fields[0][i])
		r[1] = float64(D.fields[1][i])
		r[2] = float64(D.fields[2][i])
	}
	return nil
}

// unitCell reads the 6 doubles of the CHARMM unit cell record (A, gamma, B, beta, alpha, C).
func (D *DCDObj) unitCell(size int32, box ...[]float64) error {
	if size != 48 {
		return Error{fmt.Sprintf("%s: unit cell record of %d bytes", WrongFormat, size), D.filename, []string{"unitCell"}, true, nil}
	}
	var cell [6]float64
	if err := binary.Read(D.r, D.endian, &cell); err != nil {
		return Error{ReadError, D.filename, []string{"unitCell"}, true, err}
	}
	if len(box) > 0 && len(box[0]) >= 9 {
		b := box[0]
		for i := range b[:9] {
			b[i] = 0
		}
		b[0], b[4], b[8] = cell[0], cell[2], cell[5]
	}
	return D.expect(size)
}

func (D *DCDObj) skipRecord() error {
	var size int32
	if err := binary.Read(D.r, D.endian, &size); err != nil {
		return err
	}
	if _, err := D.r.Discard(int(size)); err != nil {
		return Error{ReadError, D.filename, []string{"skipRecord"}, true, err}
	}
	return D.expect(size)
}

// Close closes the file and marks the object as unreadable.
func (D *DCDObj) Close() {
	if D.f == nil {
		return
	}
	D.f.Close()
	D.f = nil
	D.readable = false
}

//Errors

// Error is the general structure for DCD trajectory errors. It fullfills chem.Error and chem.TrajError
type Error struct {
	message  string
	filename string //the input file that has problems, or empty string if none.
	deco     []string
	critical bool
	cause    error
}

func (err Error) Error() string {
	if err.cause != nil {
		return fmt.Sprintf("dcd file %s error: %s: %v", err.filename, err.message, err.cause)
	}
	return fmt.Sprintf("dcd file %s error: %s", err.filename, err.message)
}

// Decorate adds new information to the error
func (err Error) Decorate(deco string) []string {
	if deco != "" {
		err.deco = append(err.deco, deco)
	}
	return err.deco
}

func (err Error) Unwrap() error { return err.cause }

// FileName returns the file to which the failing trajectory was associated
func (err Error) FileName() string { return err.filename }

// Format returns the format of the file (always "dcd") associated to the error
func (err Error) Format() string { return "dcd" }

// Critical returns true if the error is critical, false otherwise
func (err Error) Critical() bool { return err.critical }

const (
	TrajUnIni    = "Traj object uninitialized to read"
	ReadError    = "Error reading frame"
	WriteError   = "Error writing frame"
	UnableToOpen = "Unable to open file"
	WrongFormat  = "Wrong format in the DCD file or frame"
)

// errDecorate adds caller to the decoration of err, if err is a chem.Error.
func errDecorate(err error, caller string) error {
	if err == nil {
		return nil
	}
	switch e := err.(type) {
	case Error:
		e.deco = append(e.deco, caller)
		return e
	case chem.Error:
		e.Decorate(caller)
	}
	return err
}

// lastFrameError implements chem.LastFrameError
type lastFrameError struct {
	deco     []string
	fileName string
}

// NormalLastFrameTermination does nothing
func (E *lastFrameError) NormalLastFrameTermination() {}

func (E *lastFrameError) FileName() string { return E.fileName }

func (E *lastFrameError) Error() string { return "EOF" }

func (E *lastFrameError) Critical() bool { return false }

func (E *lastFrameError) Format() string { return "dcd" }

func (E *lastFrameError) Decorate(deco string) []string {
	if deco != "" {
		E.deco = append(E.deco, deco)
	}
	return E.deco
}

func newlastFrameError(filename string, caller string) *lastFrameError {
	return &lastFrameError{fileName: filename, deco: []string{caller}}
}

var (
	_ chem.Traj           = (*DCDObj)(nil)
	_ chem.LastFrameError = (*lastFrameError)(nil)
	_ chem.TrajError      = Error{}
)
