// Copyright (c) streamtools 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/prashantv/gostub"
	"github.com/streamtools/stdbuf/internal/buffermode"
	"github.com/streamtools/stdbuf/internal/launch"
	"github.com/streamtools/stdbuf/internal/optscan"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"
)

// newTestCmd mirrors the root command wiring with a capturable writer.
func newTestCmd(w io.Writer) *cli.Command {
	return &cli.Command{
		Name:            appName,
		Writer:          w,
		ErrWriter:       io.Discard,
		HideHelp:        true,
		SkipFlagParsing: true,
		Action:          actionFunc,
	}
}

// stubExiter captures the exit code the cli framework would have used.
func stubExiter(t *testing.T) *int {
	t.Helper()

	code := -1
	stub := gostub.Stub(&cli.OsExiter, func(c int) { code = c })
	t.Cleanup(stub.Reset)

	return &code
}

func TestPrintUsage(t *testing.T) {
	buf := new(bytes.Buffer)
	printUsage(buf)

	out := buf.String()
	assert.Contains(t, out, "Usage: stdbuf OPTION... COMMAND", "expected the usage line")
	assert.Contains(t, out, "Options:", "expected the option listing header")
	assert.Contains(t, out, "-i, --input MODE", "expected the stdin option")
	assert.Contains(t, out, "-o, --output MODE", "expected the stdout option")
	assert.Contains(t, out, "-e, --error MODE", "expected the stderr option")
	assert.Contains(t, out, "display this help and exit", "expected the help option")
	assert.Contains(t, out, "output version information and exit", "expected the version option")
	assert.Contains(t, out, "KB 1000, K 1024", "expected the unit table")
	assert.Contains(t, out, "'tee' does", "expected the self-adjusting command note")
	assert.Contains(t, out, "'dd' and 'cat'", "expected the stream-bypassing command note")
}

func TestPrintVersion(t *testing.T) {
	buf := new(bytes.Buffer)
	printVersion(buf)

	assert.Equal(t, "stdbuf version 1.0.0\n", buf.String(), "the version line is part of the scripting surface")
}

func TestScanFailure(t *testing.T) {
	assert.Equal(t,
		"stdbuf: invalid options\nTry 'stdbuf --help' for more information.",
		scanFailure(optscan.ErrInvalidOptions),
		"an exhausted scan reports the generic diagnostic")

	assert.Equal(t,
		"stdbuf: you must specify a buffering mode option\nTry 'stdbuf --help' for more information.",
		scanFailure(optscan.ErrNoModeGiven),
		"a fatal cause is preserved in the diagnostic")
}

func TestAction_Help(t *testing.T) {
	buf := new(bytes.Buffer)

	err := newTestCmd(buf).Run(context.Background(), []string{appName, "--help"})
	require.NoError(t, err, "help is a successful outcome")
	assert.Contains(t, buf.String(), "Usage: stdbuf OPTION... COMMAND", "expected the usage text")
}

func TestAction_HelpIgnoresTrailingGarbage(t *testing.T) {
	buf := new(bytes.Buffer)

	err := newTestCmd(buf).Run(context.Background(), []string{appName, "--help", "--no-such-option", "x"})
	require.NoError(t, err, "help short-circuits before the garbage is ever parsed")
	assert.Contains(t, buf.String(), "Usage: stdbuf OPTION... COMMAND", "expected the usage text")
}

func TestAction_Version(t *testing.T) {
	buf := new(bytes.Buffer)

	err := newTestCmd(buf).Run(context.Background(), []string{appName, "--version", "trailing-garbage"})
	require.NoError(t, err, "version is a successful outcome")
	assert.Equal(t, "stdbuf version 1.0.0\n", buf.String(), "expected the exact version line")
}

func TestAction_InvalidOptionsExit(t *testing.T) {
	code := stubExiter(t)

	launched := false
	stub := gostub.Stub(&launcherRun, func(_ context.Context, _ optscan.ProgramOptions, _ []string) (int, error) {
		launched = true

		return 0, nil
	})
	t.Cleanup(stub.Reset)

	// A bare command word carries no buffering mode, which is fatal.
	_ = newTestCmd(io.Discard).Run(context.Background(), []string{appName, "cat"})

	assert.Equal(t, launch.ExitCanceled, *code, "expected the reserved failure exit code")
	assert.False(t, launched, "nothing may launch without a resolved boundary")
}

func TestAction_RelaysChildExit(t *testing.T) {
	code := stubExiter(t)

	var (
		gotOpts optscan.ProgramOptions
		gotArgv []string
	)

	stub := gostub.Stub(&launcherRun, func(_ context.Context, opts optscan.ProgramOptions, argv []string) (int, error) {
		gotOpts = opts
		gotArgv = argv

		return 7, nil
	})
	t.Cleanup(stub.Reset)

	_ = newTestCmd(io.Discard).Run(context.Background(), []string{appName, "-o", "0", "sh", "-c", "exit 7"})

	assert.Equal(t, 7, *code, "the child's exit status is the program's exit status")
	assert.Equal(t, []string{"sh", "-c", "exit 7"}, gotArgv, "the launcher receives everything from the boundary on")
	assert.Equal(t, buffermode.Mode{Kind: buffermode.KindUnbuffered}, gotOpts.Stdout, "the resolved options reach the launcher")
}

func TestAction_LaunchFailureExit(t *testing.T) {
	code := stubExiter(t)

	stub := gostub.Stub(&launcherRun, func(_ context.Context, _ optscan.ProgramOptions, _ []string) (int, error) {
		return launch.ExitNotFound, errors.New("command not found")
	})
	t.Cleanup(stub.Reset)

	_ = newTestCmd(io.Discard).Run(context.Background(), []string{appName, "-o", "L", "nosuch"})

	assert.Equal(t, launch.ExitNotFound, *code, "a launch failure keeps its own exit code")
}

func TestAction_ChildSuccess(t *testing.T) {
	code := stubExiter(t)

	stub := gostub.Stub(&launcherRun, func(_ context.Context, _ optscan.ProgramOptions, _ []string) (int, error) {
		return 0, nil
	})
	t.Cleanup(stub.Reset)

	err := newTestCmd(io.Discard).Run(context.Background(), []string{appName, "-i", "0", "true"})
	require.NoError(t, err, "a zero child status is plain success")
	assert.Equal(t, -1, *code, "no exit coder fires on success")
}
