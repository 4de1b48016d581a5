/*
 * cli.go, part of dispmi.
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

// Package cli holds what the dispmi programs share: logging and configuration flags,
// and the parsing of the command line plus an optional INI file.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	flags "github.com/jessevdk/go-flags"
	"github.com/sirupsen/logrus"
)

// LogOptions are the logging flags of every program.
type LogOptions struct {
	Verbose   []bool `short:"v" long:"verbose" description:"More output (repeat for more)"`
	LogFormat string `long:"log-format" env:"DISPMI_LOG_FORMAT" choice:"text" choice:"json" default:"text" description:"Log format"`
	Config    string `long:"config" env:"DISPMI_CONFIG" no-ini:"true" description:"INI file with default values for the options"`
}

// Logger returns a logger writing to w, configured from the options. Without -v only
// warnings and errors are shown.
func (L *LogOptions) Logger(w io.Writer) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(w)
	switch len(L.Verbose) {
	case 0:
		l.SetLevel(logrus.WarnLevel)
	case 1:
		l.SetLevel(logrus.InfoLevel)
	case 2:
		l.SetLevel(logrus.DebugLevel)
	default:
		l.SetLevel(logrus.TraceLevel)
	}
	if L.LogFormat == "json" {
		l.SetFormatter(&logrus.JSONFormatter{})
	} else {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return l
}

// Parse parses args into data, which must embed LogOptions, and which is returned by
// config. If a config file is given, its values are read first, and args are parsed
// again so they take precedence. It returns ok=false if the program should exit,
// with the given exit code.
func Parse(data any, config func() *LogOptions, args []string) (ok bool, code int) {
	parser := flags.NewParser(data, flags.Default)
	if _, err := parser.ParseArgs(args); err != nil {
		var ferr *flags.Error
		if errors.As(err, &ferr) && ferr.Type == flags.ErrHelp {
			return false, 0
		}
		return false, 2
	}
	name := config().Config
	if name == "" {
		return true, 0
	}
	if err := flags.NewIniParser(parser).ParseFile(name); err != nil {
		fmt.Fprintf(os.Stderr, "reading %s: %v\n", name, err)
		return false, 2
	}
	if _, err := parser.ParseArgs(args); err != nil {
		return false, 2
	}
	return true, 0
}

// Context returns a context that is cancelled on SIGINT or SIGTERM.
func Context() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
