/*
 * errors.go, part of dispmi.
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
	"errors"
	"fmt"
	"strings"
)

// Kind classifies the errors produced by dispmi. A Kind is itself an error, so
// errors.Is(err, chem.ShapeMismatch) works on any error wrapping a *chem.KindError.
type Kind string

func (k Kind) Error() string { return string(k) }

const (
	InputNotFound    Kind = "input not found"
	ShapeMismatch    Kind = "shape mismatch"
	AlignmentFailure Kind = "alignment failure"
	DegenerateColumn Kind = "degenerate column"
	IOFailure        Kind = "IO failure"
)

// KindError is the general error type of dispmi. It fulfills the Error interface and
// unwraps to its cause, if any.
type KindError struct {
	kind     Kind
	message  string
	filename string
	deco     []string
	critical bool
	cause    error
}

// NewError returns a critical error of the given kind. filename and cause can be empty/nil.
func NewError(kind Kind, filename string, cause error, format string, a ...any) *KindError {
	return &KindError{kind: kind, message: fmt.Sprintf(format, a...), filename: filename, critical: true, cause: cause}
}

// Warning returns a non-critical error of the given kind.
func Warning(kind Kind, filename string, format string, a ...any) *KindError {
	return &KindError{kind: kind, message: fmt.Sprintf(format, a...), filename: filename}
}

func (err *KindError) Error() string {
	var b strings.Builder
	b.WriteString(string(err.kind))
	if err.filename != "" {
		fmt.Fprintf(&b, " (%s)", err.filename)
	}
	if err.message != "" {
		b.WriteString(": ")
		b.WriteString(err.message)
	}
	if err.cause != nil {
		b.WriteString(": ")
		b.WriteString(err.cause.Error())
	}
	return b.String()
}

// Decorate adds the caller name to the trail of the error and returns the trail.
// An empty string just returns the current trail.
func (err *KindError) Decorate(deco string) []string {
	if deco != "" {
		err.deco = append(err.deco, deco)
	}
	return err.deco
}

// Kind returns the kind of the error.
func (err *KindError) Kind() Kind { return err.kind }

// FileName returns the file associated with the error, or an empty string.
func (err *KindError) FileName() string { return err.filename }

// Critical returns false for errors that are only warnings.
func (err *KindError) Critical() bool { return err.critical }

func (err *KindError) Unwrap() error { return err.cause }

// Is reports whether target is the Kind of err.
func (err *KindError) Is(target error) bool {
	k, ok := target.(Kind)
	return ok && k == err.kind
}

// KindOf returns the Kind of the first *KindError in err's chain, or an
// empty Kind if there is none.
func KindOf(err error) Kind {
	var e *KindError
	if errors.As(err, &e) {
		return e.kind
	}
	var k Kind
	if errors.As(err, &k) {
		return k
	}
	return ""
}

// errDecorate decorates err with caller if err implements the Error interface
// and returns it unchanged otherwise.
func errDecorate(err error, caller string) error {
	if e, ok := err.(Error); ok {
		e.Decorate(caller)
	}
	return err
}
