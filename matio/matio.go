/*
 * matio.go, part of dispmi.
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

// Package matio saves and loads the matrices and bookkeeping files produced by dispmi.
// Every write goes to a temporary file in the destination directory which is then
// renamed into place, so a failed run never leaves a truncated file behind.
package matio

import (
	"bufio"
	"encoding/json"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"
	chem "github.com/rmera/dispmi"
	"github.com/sbinet/npyio"
	"gonum.org/v1/gonum/mat"
)

// Format is a matrix file format.
type Format string

const (
	NPY  Format = "npy"  //NumPy array file, float64, C order
	GMat Format = "gmat" //gonum binary matrix, zstd-compressed
)

// Ext returns the file extension for the format, including the dot.
func (f Format) Ext() string {
	return "." + string(f)
}

// FormatFromExt returns the format corresponding to the extension of name.
func FormatFromExt(name string) (Format, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".npy":
		return NPY, nil
	case ".gmat":
		return GMat, nil
	}
	return "", chem.NewError(chem.IOFailure, name, nil, "unknown matrix format %q", filepath.Ext(name))
}

// ParseFormat returns the format with the given name ("npy" or "gmat").
func ParseFormat(s string) (Format, error) {
	return FormatFromExt("." + s)
}

// Save writes m to path, in the format given by the extension of path.
func Save(path string, m mat.Matrix) error {
	format, err := FormatFromExt(path)
	if err != nil {
		return err
	}
	d := mat.DenseCopyOf(m)
	return atomicWrite(path, func(w io.Writer) error {
		switch format {
		case NPY:
			return errors.Wrap(npyio.Write(w, d), "encoding npy")
		default:
			z, err := zstd.NewWriter(w, zstd.WithEncoderConcurrency(1))
			if err != nil {
				return errors.Wrap(err, "zstd")
			}
			if _, err := d.MarshalBinaryTo(z); err != nil {
				z.Close()
				return errors.Wrap(err, "encoding gmat")
			}
			return errors.Wrap(z.Close(), "zstd")
		}
	})
}

// Load reads a matrix from path, in the format given by its extension.
func Load(path string) (*mat.Dense, error) {
	format, err := FormatFromExt(path)
	if err != nil {
		return nil, err
	}
	f, err := open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	r := bufio.NewReader(f)
	var d mat.Dense
	switch format {
	case NPY:
		err = errors.Wrap(npyio.Read(r, &d), "decoding npy")
	default:
		var z *zstd.Decoder
		z, err = zstd.NewReader(r)
		if err == nil {
			_, err = d.UnmarshalBinaryFrom(z)
			z.Close()
		}
		err = errors.Wrap(err, "decoding gmat")
	}
	if err != nil {
		return nil, chem.NewError(chem.IOFailure, path, err, "")
	}
	return &d, nil
}

// SaveFileOrder writes the list of input files, in processing order, as a JSON array.
func SaveFileOrder(path string, files []string) error {
	if files == nil {
		files = []string{}
	}
	return SaveJSON(path, files)
}

// LoadFileOrder reads a list written by SaveFileOrder.
func LoadFileOrder(path string) ([]string, error) {
	f, err := open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var files []string
	if err := json.NewDecoder(f).Decode(&files); err != nil {
		return nil, chem.NewError(chem.IOFailure, path, errors.Wrap(err, "decoding file order"), "")
	}
	return files, nil
}

// SaveJSON writes v as indented JSON to path.
func SaveJSON(path string, v any) error {
	return atomicWrite(path, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return errors.Wrap(enc.Encode(v), "encoding JSON")
	})
}

func open(path string) (*os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, chem.NewError(chem.InputNotFound, path, err, "")
		}
		return nil, chem.NewError(chem.IOFailure, path, err, "")
	}
	return f, nil
}

// atomicWrite calls write on a temporary file next to path, and renames it to path
// if everything went well. The temporary file is removed otherwise. The final file is
// readable by everyone, as the ones created by os.Create usually are.
const filePerm fs.FileMode = 0o644

func atomicWrite(path string, write func(io.Writer) error) (err error) {
	dir, base := filepath.Split(path)
	if dir == "" {
		dir = "."
	}
	tmp, err := os.CreateTemp(dir, "."+base+".tmp*")
	if err != nil {
		return chem.NewError(chem.IOFailure, path, err, "")
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()
	w := bufio.NewWriter(tmp)
	if err = write(w); err != nil {
		return chem.NewError(chem.IOFailure, path, err, "")
	}
	if err = w.Flush(); err != nil {
		return chem.NewError(chem.IOFailure, path, err, "")
	}
	if err = tmp.Chmod(filePerm); err != nil {
		return chem.NewError(chem.IOFailure, path, err, "")
	}
	if err = tmp.Close(); err != nil {
		return chem.NewError(chem.IOFailure, path, err, "")
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return chem.NewError(chem.IOFailure, path, err, "")
	}
	return nil
}
