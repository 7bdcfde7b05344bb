// Copyright (c) streamtools 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package optscan

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/pflag"
	"github.com/streamtools/stdbuf/internal/buffermode"
)

const (
	// FlagInput is the long name of the stdin buffering option.
	FlagInput = "input"
	// FlagOutput is the long name of the stdout buffering option.
	FlagOutput = "output"
	// FlagError is the long name of the stderr buffering option.
	FlagError = "error"
	// FlagHelp is the long name of the usage option.
	FlagHelp = "help"
	// FlagVersion is the long name of the version option.
	FlagVersion = "version"
)

// ErrNoModeGiven is returned when a prefix names a command but none of the
// buffering options.
var ErrNoModeGiven = errors.New("you must specify a buffering mode option")

// errNotOneCommand is the retry reason for prefixes that do not end at
// exactly one command word.
var errNotOneCommand = errors.New("expected exactly one command argument")

// ProgramOptions carries the resolved buffering mode for each standard
// stream of the wrapped command. The zero value leaves every stream at the
// platform default.
type ProgramOptions struct {
	Stdin  buffermode.Mode
	Stdout buffermode.Mode
	Stderr buffermode.Mode
}

// String renders the three stream modes for log output.
func (o ProgramOptions) String() string {
	return fmt.Sprintf("stdin=%s stdout=%s stderr=%s", o.Stdin, o.Stdout, o.Stderr)
}

type flagValues struct {
	input   string
	output  string
	errMode string
	help    bool
	version bool
}

// newFlagSet declares the option surface. Parse failures surface as errors
// rather than prints, so the output writer is discarded and the scanner can
// treat a failed prefix as one more retry.
func newFlagSet() (*pflag.FlagSet, *flagValues) {
	vals := &flagValues{}

	fs := pflag.NewFlagSet("stdbuf", pflag.ContinueOnError)
	fs.SortFlags = false
	fs.SetOutput(io.Discard)
	fs.StringVarP(&vals.input, FlagInput, "i", "", "adjust standard input stream buffering to `MODE`")
	fs.StringVarP(&vals.output, FlagOutput, "o", "", "adjust standard output stream buffering to `MODE`")
	fs.StringVarP(&vals.errMode, FlagError, "e", "", "adjust standard error stream buffering to `MODE`")
	fs.BoolVar(&vals.help, FlagHelp, false, "display this help and exit")
	fs.BoolVar(&vals.version, FlagVersion, false, "output version information and exit")

	return fs, vals
}

// FlagUsages renders the option block for the usage text, in declaration
// order.
func FlagUsages() string {
	fs, _ := newFlagSet()

	return fs.FlagUsages()
}

// resolution is the verdict for a single candidate prefix.
type resolution struct {
	outcome Outcome
	options ProgramOptions
	err     error
}

// resolve parses one candidate prefix and classifies the result. Help and
// version take precedence over everything else. A mode that fails to parse
// is fatal, whereas a prefix that merely does not parse, or does not end at
// exactly one command word, asks the scanner to retry with a longer prefix.
func resolve(prefix []string) resolution {
	fs, vals := newFlagSet()

	if err := fs.Parse(prefix); err != nil {
		return resolution{outcome: OutcomeRetry, err: err}
	}

	if vals.help {
		return resolution{outcome: OutcomeHelp}
	}

	if vals.version {
		return resolution{outcome: OutcomeVersion}
	}

	var (
		opts     ProgramOptions
		modified bool
	)

	streams := []struct {
		flag   string
		stream buffermode.Stream
		value  string
		target *buffermode.Mode
	}{
		{FlagInput, buffermode.StreamStdin, vals.input, &opts.Stdin},
		{FlagOutput, buffermode.StreamStdout, vals.output, &opts.Stdout},
		{FlagError, buffermode.StreamStderr, vals.errMode, &opts.Stderr},
	}

	for _, s := range streams {
		if !fs.Changed(s.flag) {
			continue
		}

		modified = true

		mode, err := buffermode.Parse(s.stream, s.value)
		if err != nil {
			return resolution{outcome: OutcomeFatal, err: err}
		}

		*s.target = mode
	}

	if fs.NArg() != 1 {
		return resolution{outcome: OutcomeRetry, err: errNotOneCommand}
	}

	if !modified {
		return resolution{outcome: OutcomeFatal, err: ErrNoModeGiven}
	}

	return resolution{outcome: OutcomeResolved, options: opts}
}
