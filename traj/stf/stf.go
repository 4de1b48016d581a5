/*
 * stf.go, part of dispmi.
 *
 * Copyright 2021 Raul Mera <rauldotmeraatusachdotcl>
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

package stf

import (
	"bufio"
	"compress/flate"
	"compress/gzip"
	"compress/lzw"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/klauspost/compress/zstd"
	chem "github.com/rmera/dispmi"
	v3 "github.com/rmera/dispmi/v3"
)

const (
	lzwLitwidth int = 8
	defaultPrec int = 2
)

// compression returns the compression to use, from the last character of the file name.
func compression(name string) byte {
	if name == "" {
		return 's'
	}
	c := strings.ToLower(name)[len(name)-1]
	switch c {
	case 'z', 'l', 'r':
		return c
	}
	return 's'
}

//Write!

// StfW is a handle for a STF file opened for writing.
type StfW struct {
	f         *os.File
	h         io.WriteCloser
	w         *bufio.Writer
	natoms    int
	filename  string
	writeable bool
	prec      int
	mult      float64
}

// NewWriter creates the STF file name for writing natoms atoms per frame. The header map is written
// to the file. If it contains a "prec" key, it has to be a positive integer, and will be used as precision.
func NewWriter(name string, natoms int, header map[string]string) (*StfW, error) {
	S := &StfW{natoms: natoms, filename: name, prec: defaultPrec}
	if header != nil {
		if p, ok := header["prec"]; ok {
			prec, err := strconv.Atoi(p)
			if err != nil || prec < 1 {
				return nil, Error{"Invalid precision " + p, name, []string{"NewWriter"}, true, err}
			}
			S.prec = prec
		}
	}
	S.mult = math.Pow(10, float64(S.prec))
	var err error
	S.f, err = os.Create(name)
	if err != nil {
		return nil, Error{UnableToOpen, name, []string{"NewWriter"}, true, err}
	}
	switch compression(name) {
	case 'l':
		S.h = lzw.NewWriter(S.f, lzw.MSB, lzwLitwidth)
	case 'z':
		S.h = gzip.NewWriter(S.f)
	case 'r':
		S.h, err = flate.NewWriter(S.f, flate.DefaultCompression)
	default:
		S.h, err = zstd.NewWriter(S.f, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
	}
	if err != nil {
		S.f.Close()
		return nil, Error{"Can't set up the compressor", name, []string{"NewWriter"}, true, err}
	}
	S.w = bufio.NewWriter(S.h)
	keys := make([]string, 0, len(header)+1)
	for k := range header {
		if k != "prec" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys) //so the files are reproducible
	fmt.Fprintf(S.w, "prec=%d\n", S.prec)
	for _, k := range keys {
		fmt.Fprintf(S.w, "%s=%s\n", k, header[k])
	}
	fmt.Fprintf(S.w, "** %d\n", S.natoms)
	S.writeable = true
	return S, nil
}

// Len returns the number of atoms per frame.
func (S *StfW) Len() int {
	return S.natoms
}

// WNext writes the coordinates in coord as the next frame, with the box vectors, if given.
func (S *StfW) WNext(coord *v3.Matrix, box ...[]float64) error {
	if !S.writeable {
		return Error{TrajUnIniWrite, S.filename, []string{"WNext"}, true, nil}
	}
	if coord == nil {
		return Error{NilCoordinates, S.filename, []string{"WNext"}, true, nil}
	}
	if v := coord.NVecs(); v != S.natoms {
		return Error{fmt.Sprintf("%d coordinates given, but %d expected", v, S.natoms), S.filename, []string{"WNext"}, true, nil}
	}
	for i := 0; i < S.natoms; i++ {
		r := coord.RawRowView(i)
		fmt.Fprintf(S.w, "%d %d %d\n", int64(math.RoundToEven(r[0]*S.mult)),
			int64(math.RoundToEven(r[1]*S.mult)), int64(math.RoundToEven(r[2]*S.mult)))
	}
	if len(box) > 0 && len(box[0]) >= 9 {
		b := box[0]
		_, err := fmt.Fprintf(S.w, "* %g %g %g %g %g %g %g %g %g\n", b[0], b[1], b[2], b[3], b[4], b[5], b[6], b[7], b[8])
		return S.werr(err)
	}
	_, err := S.w.WriteString("*\n")
	return S.werr(err)
}

func (S *StfW) werr(err error) error {
	if err != nil {
		return Error{WriteError, S.filename, []string{"WNext"}, true, err}
	}
	return nil
}

// Close flushes and closes the file. It returns the first error found, if any.
func (S *StfW) Close() {
	S.CloseErr()
}

// CloseErr flushes and closes the file, returning the first error found, if any.
func (S *StfW) CloseErr() error {
	if S == nil || !S.writeable {
		return nil
	}
	S.writeable = false
	err := S.w.Flush()
	if err2 := S.h.Close(); err == nil {
		err = err2
	}
	if err2 := S.f.Close(); err == nil {
		err = err2
	}
	if err != nil {
		return Error{WriteError, S.filename, []string{"Close"}, true, err}
	}
	return nil
}

//Read!

// StfR is a handle for a STF file opened for reading.
type StfR struct {
	f        *os.File
	dec      io.ReadCloser
	h        *bufio.Reader
	natoms   int
	filename string
	prec     int
	div      float64
	readable bool
}

// zstdCloser wraps a *zstd.Decoder to make it an io.ReadCloser
type zstdCloser struct {
	*zstd.Decoder
}

// Close closes the decoder. It can not be used after this call
func (s zstdCloser) Close() error {
	s.Decoder.Close()
	return nil
}

// New opens a STF trajectory for reading, and returns a pointer
// to the handle, a map with the header, excluding the atom number, and error or nil.
func New(name string) (*StfR, map[string]string, error) {
	S := &StfR{natoms: -1, filename: name, prec: defaultPrec}
	var err error
	S.f, err = os.Open(name)
	if err != nil {
		return nil, nil, Error{UnableToOpen, name, []string{"New"}, true, err}
	}
	buffered := bufio.NewReader(S.f)
	switch compression(name) {
	case 'l':
		S.dec = lzw.NewReader(buffered, lzw.MSB, lzwLitwidth)
	case 'z':
		S.dec, err = gzip.NewReader(buffered)
	case 'r':
		S.dec = flate.NewReader(buffered)
	default:
		var z *zstd.Decoder
		z, err = zstd.NewReader(buffered)
		if err == nil {
			S.dec = zstdCloser{z}
		}
	}
	if err != nil {
		S.f.Close()
		return nil, nil, Error{"Can't read header", name, []string{"New"}, true, err}
	}
	S.h = bufio.NewReader(S.dec)
	m := make(map[string]string)
	for {
		str, err := S.h.ReadString('\n')
		if err != nil {
			S.close()
			return nil, nil, Error{"Can't read header", name, []string{"New"}, true, err}
		}
		str = strings.TrimSuffix(str, "\n")
		if strings.HasPrefix(str, "**") {
			nat := strings.Fields(str)
			if len(nat) < 2 {
				S.close()
				return nil, nil, Error{fmt.Sprintf("Can't read atom number from '%s'", str), name, []string{"New"}, true, nil}
			}
			S.natoms, err = strconv.Atoi(nat[1])
			if err != nil {
				S.close()
				return nil, nil, Error{fmt.Sprintf("Can't read atom number from '%s'", nat[1]), name, []string{"New"}, true, err}
			}
			break
		}
		kv := strings.SplitN(str, "=", 2)
		if len(kv) != 2 {
			S.close()
			return nil, nil, Error{"Malformed header line: " + str, name, []string{"New"}, true, nil}
		}
		m[kv[0]] = kv[1]
	}
	if p, ok := m["prec"]; ok {
		prec, err := strconv.Atoi(p)
		if err != nil || prec < 1 {
			S.close()
			return nil, nil, Error{"Invalid precision " + p, name, []string{"New"}, true, err}
		}
		S.prec = prec
	}
	S.div = math.Pow(10, float64(S.prec))
	S.readable = true
	return S, m, nil
}

// Readable returns true if the handle is readable (if it is possible to call Next on it)
func (S *StfR) Readable() bool {
	return S.readable
}

func coordsDecode(str string, temp *[3]float64, div float64) error {
	s := strings.Fields(str)
	if len(s) != 3 {
		return fmt.Errorf("Ill formatted coordinates line: %d fields: %s", len(s), str)
	}
	for i, v := range s {
		f, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("Can't parse coordinate %d (%s): %w", i, v, err)
		}
		temp[i] = float64(f) / div
	}
	return nil
}

// Next puts in the given matrix (c) the coordinates for the next frame of the trajectory
// and, if given, and the information is present, puts the box vector information in box.
// If c is nil, the frame is read and checked, but discarded.
// At the end of the trajectory, it returns an error that satisfies chem.LastFrameError.
func (S *StfR) Next(c *v3.Matrix, box ...[]float64) error {
	if !S.readable {
		return Error{TrajUnIniRead, S.filename, []string{"Next"}, true, nil}
	}
	if c != nil && c.NVecs() != S.natoms {
		return Error{fmt.Sprintf("Matrix with %d vectors given for a %d-atom frame", c.NVecs(), S.natoms), S.filename, []string{"Next"}, true, nil}
	}
	var temp [3]float64
	for i := 0; i < S.natoms; i++ {
		b, err := S.h.ReadString('\n')
		if err != nil {
			if errors.Is(err, io.EOF) && i == 0 && b == "" {
				//nothing bad happened here, the trajectory just ended.
				S.close()
				return newlastFrameError(S.filename, "Next")
			}
			S.close()
			return Error{ReadError, S.filename, []string{"Next"}, true, err}
		}
		if err = coordsDecode(b, &temp, S.div); err != nil {
			S.close()
			return Error{WrongFormat, S.filename, []string{"Next"}, true, err}
		}
		if c == nil {
			continue
		}
		c.Set(i, 0, temp[0])
		c.Set(i, 1, temp[1])
		c.Set(i, 2, temp[2])
	}
	s, err := S.h.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && s != "") {
		S.close()
		return Error{"Can't read the frame termination mark", S.filename, []string{"Next"}, true, err}
	}
	if len(s) == 0 || s[0] != '*' {
		S.close()
		return Error{"Wrong number of atoms in frame", S.filename, []string{"Next"}, true, nil}
	}
	if len(box) > 0 && len(box[0]) >= 9 {
		fields := strings.Fields(s)
		if len(fields) >= 10 { // The "*" and the 9 numbers
			for j, v := range fields[1:10] {
				box[0][j], err = strconv.ParseFloat(v, 64)
				if err != nil {
					return Error{"Malformed box in frame", S.filename, []string{"Next"}, false, err}
				}
			}
		}
	}
	return nil
}

func (S *StfR) close() {
	if S.dec != nil {
		S.dec.Close()
	}
	S.f.Close()
	S.readable = false
}

// Close closes the object, and marks it as unreadable
func (S *StfR) Close() {
	if !S.readable {
		return
	}
	S.close()
}

// Len returns the number of atoms in each frame of the trajectory.
func (S *StfR) Len() int {
	return S.natoms
}

//Errors

// Error is the general structure for STF trajectory errors. It fullfills chem.Error and chem.TrajError
type Error struct {
	message  string
	filename string //the input file that has problems, or empty string if none.
	deco     []string
	critical bool
	cause    error
}

func (err Error) Error() string {
	if err.cause != nil {
		return fmt.Sprintf("stf file %s error: %s: %v", err.filename, err.message, err.cause)
	}
	return fmt.Sprintf("stf file %s error: %s", err.filename, err.message)
}

// Decorate Adds new information to the error
func (err Error) Decorate(deco string) []string {
	//Even though this method does not use a pointer as a receiver, and tries to alter the received,
	//it works, since the slice header returned carries the new element.
	if deco != "" {
		err.deco = append(err.deco, deco)
	}
	return err.deco
}

func (err Error) Unwrap() error { return err.cause }

// FileName returns the file to which the failing trajectory was associated
func (err Error) FileName() string { return err.filename }

// Format returns the format of the file (always "stf") associated to the error
func (err Error) Format() string { return "stf" }

// Critical returns true if the error is critical, false otherwise
func (err Error) Critical() bool { return err.critical }

const (
	TrajUnIniRead  = "Traj object uninitialized to read"
	TrajUnIniWrite = "Traj object uninitialized to write"
	ReadError      = "Error reading frame"
	WriteError     = "Error writing frame"
	UnableToOpen   = "Unable to open file"
	NilCoordinates = "Given nil coordinates"
	WrongFormat    = "Wrong format in the STF file or frame"
)

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

func (E *lastFrameError) Format() string { return "stf" }

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
	_ chem.Traj           = (*StfR)(nil)
	_ chem.TrajWriter     = (*StfW)(nil)
	_ chem.LastFrameError = (*lastFrameError)(nil)
	_ chem.TrajError      = Error{}
)
