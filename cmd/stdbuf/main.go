// Copyright (c) streamtools 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package main contains the stdbuf command-line interface (CLI).
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/streamtools/stdbuf"
	"github.com/streamtools/stdbuf/internal/ctxlog"
	"github.com/streamtools/stdbuf/internal/launch"
	"github.com/streamtools/stdbuf/internal/optscan"
	"github.com/urfave/cli/v3"
)

const (
	appName    = "stdbuf"
	cliExitStr = ""
)

const usageBrief = `Usage: stdbuf OPTION... COMMAND
Run COMMAND, with modified buffering operations for its standard streams
Mandatory arguments to long options are mandatory for short options too.`

const usageExplanation = `If MODE is 'L' the corresponding stream will be line buffered.
This option is invalid with standard input.

If MODE is '0' the corresponding stream will be unbuffered.

Otherwise MODE is a number which may be followed by one of the following:

KB 1000, K 1024, MB 1000*1000, M 1024*1024, and so on for G, T, P, E, Z, Y.
In this case the corresponding stream will be fully buffered with the buffer size set to MODE bytes.

NOTE: If COMMAND adjusts the buffering of its standard streams ('tee' does for e.g.) then that will override corresponding settings changed by 'stdbuf'.
Also some filters (like 'dd' and 'cat' etc.) don't use streams for I/O, and are thus unaffected by 'stdbuf' settings.`

// launcherRun starts the wrapped command. It is a variable to allow mocking
// in test.
var launcherRun = func(ctx context.Context, opts optscan.ProgramOptions, argv []string) (int, error) {
	l := &launch.Launcher{}

	return l.Run(ctx, opts, argv)
}

// rootCmd is the root command for the CLI. Flag parsing is skipped because
// the boundary scanner needs the raw argument list to find where the wrapped
// command starts.
var rootCmd = &cli.Command{
	Writer:    os.Stdout,
	ErrWriter: os.Stderr,
	Name:      appName,
	Description: `Stdbuf runs a command with modified buffering for its standard streams.
The buffering policy is communicated to the child process through environment
variables consumed by a preloaded shim library.`,
	Usage:     "stdbuf -o L COMMAND",
	Copyright: "Copyright (c) streamtools 2025. All rights reserved.",
	Authors: []any{
		"streamtools",
	},
	HideHelp:        true,
	SkipFlagParsing: true,
	Action:          actionFunc,
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	ctx = ctxlog.New(ctx, ctxlog.DefaultLogger)
	defer cancel()

	err := rootCmd.Run(ctx, os.Args) // Exit coders are handled by the cli framework
	if err != nil {
		ctxlog.Logger(ctx).Error("command execution failed", "error", err)
		os.Exit(launch.ExitCanceled)
	}
}

func actionFunc(ctx context.Context, cmd *cli.Command) error {
	ctxlog.Debug(ctx, "starting", "version", stdbuf.Version, "commit", stdbuf.Commit)

	args := cmd.Args().Slice()

	res, err := optscan.Scan(ctx, args)
	if err != nil {
		return cli.Exit(scanFailure(err), launch.ExitCanceled)
	}

	switch res.Outcome {
	case optscan.OutcomeHelp:
		printUsage(cmd.Writer)

		return nil
	case optscan.OutcomeVersion:
		printVersion(cmd.Writer)

		return nil
	default:
	}

	code, err := launcherRun(ctx, res.Options, args[res.CommandIndex:])
	if err != nil {
		return cli.Exit(fmt.Sprintf("%s: %v", appName, err), code)
	}

	if code != launch.ExitOK {
		// Relay the child's own status with no message of our own.
		return cli.Exit(cliExitStr, code)
	}

	return nil
}

// scanFailure renders a scanning failure with the conventional hint trailer.
func scanFailure(err error) string {
	return fmt.Sprintf("%s: %v\nTry '%s --help' for more information.", appName, err, appName)
}

func printUsage(w io.Writer) {
	fmt.Fprintf(w, "%s\n\nOptions:\n%s\n%s\n", usageBrief, optscan.FlagUsages(), usageExplanation)
}

func printVersion(w io.Writer) {
	fmt.Fprintf(w, "%s version %s\n", appName, stdbuf.Version)
}
