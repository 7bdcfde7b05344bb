// Copyright (c) streamtools 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package launch

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"syscall"

	"github.com/streamtools/stdbuf/internal/ctxlog"
	"github.com/streamtools/stdbuf/internal/optscan"
	"github.com/streamtools/stdbuf/internal/signalbroker"
)

// Exit codes follow the shell launcher convention: the tool reserves the
// codes above 124 for its own failures so anything else can be relayed from
// the command untouched.
const (
	// ExitOK is the success code for help and version requests.
	ExitOK = 0
	// ExitCanceled is returned when the tool fails before the command runs,
	// including unresolvable options.
	ExitCanceled = 125
	// ExitCannotInvoke is returned when the command exists but cannot be
	// started.
	ExitCannotInvoke = 126
	// ExitNotFound is returned when the command cannot be found.
	ExitNotFound = 127
	// exitSignalBase plus the signal number reports a signal death.
	exitSignalBase = 128
)

var (
	// ErrNoCommand is returned when there is nothing to launch.
	ErrNoCommand = errors.New("no command to launch")
	// ErrCommandNotFound is returned when the command is not on the PATH.
	ErrCommandNotFound = errors.New("command not found")
	// ErrCannotInvoke is returned when the command could not be started.
	ErrCannotInvoke = errors.New("failed to invoke command")
	// ErrExecUnsupported is returned where the platform cannot replace the
	// process image, sending the launcher down the spawn path.
	ErrExecUnsupported = errors.New("exec is not supported on this platform")
)

// Launcher starts the wrapped command. The zero value is ready to use.
type Launcher struct {
	execFn func(path string, argv, env []string) error // image replacement, swappable in test
	sigCh  chan os.Signal                              // allows mocking in test
}

// Run launches argv[0] with the buffering contract in its environment and
// returns the exit code to report. On Unix the call does not return for a
// command that starts successfully, because the process image is replaced.
func (l *Launcher) Run(ctx context.Context, opts optscan.ProgramOptions, argv []string) (int, error) {
	if len(argv) == 0 {
		return ExitCanceled, ErrNoCommand
	}

	path, err := exec.LookPath(argv[0])
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return ExitNotFound, errors.Join(ErrCommandNotFound, err)
		}

		return ExitCannotInvoke, errors.Join(ErrCannotInvoke, err)
	}

	env, err := Environ(ctx, os.Environ(), opts)
	if err != nil {
		return ExitCanceled, err
	}

	ctxlog.Debug(ctx, "launching", "path", path, "args", argv[1:])

	execFn := l.execFn
	if execFn == nil {
		execFn = execImage
	}

	err = execFn(path, argv, env)
	if errors.Is(err, ErrExecUnsupported) {
		return l.spawn(ctx, path, argv, env)
	}

	// The image replacement only ever returns on failure.
	if errors.Is(err, os.ErrNotExist) {
		return ExitNotFound, errors.Join(ErrCommandNotFound, err)
	}

	return ExitCannotInvoke, errors.Join(ErrCannotInvoke, err)
}

// spawn runs the command as a child with inherited stdio, forwards
// termination signals and relays the exit code.
func (l *Launcher) spawn(ctx context.Context, path string, argv, env []string) (int, error) {
	if l.sigCh == nil {
		l.sigCh = signalbroker.New(ctx)
	}

	defer signalbroker.Stop(l.sigCh)

	ps, err := os.StartProcess(path, argv, &os.ProcAttr{
		Env:   env,
		Files: []*os.File{os.Stdin, os.Stdout, os.Stderr},
	})
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ExitNotFound, errors.Join(ErrCommandNotFound, err)
		}

		return ExitCannotInvoke, errors.Join(ErrCannotInvoke, err)
	}

	ctxlog.Debug(ctx, "process started", "pid", ps.Pid)

	done := make(chan struct{})
	defer close(done)

	go l.forwardSignals(ctx, ps, done)

	state, err := ps.Wait()
	if err != nil {
		return ExitCannotInvoke, errors.Join(ErrCannotInvoke, err)
	}

	code := exitStatus(state)
	ctxlog.Debug(ctx, "process finished", "exitCode", code)

	return code, nil
}

// forwardSignals relays termination signals to the process. A repeated
// signal of the same type means the user wants out now, so the process is
// killed outright.
func (l *Launcher) forwardSignals(ctx context.Context, ps *os.Process, done <-chan struct{}) {
	seen := make(map[os.Signal]struct{})

	for {
		select {
		case s := <-l.sigCh:
			if _, ok := seen[s]; ok {
				ctxlog.Info(ctx, "received duplicate signal, killing the command", "signal", s.String())
				kill(ctx, ps)

				return
			}

			seen[s] = struct{}{}

			ctxlog.Debug(ctx, "forwarding signal", "signal", s.String())

			if err := ps.Signal(s); err != nil && !errors.Is(err, os.ErrProcessDone) {
				ctxlog.Warn(ctx, "failed to forward signal", "signal", s.String(), "error", err)
			}

		case <-ctx.Done():
			ctxlog.Info(ctx, "context done, killing the command")
			kill(ctx, ps)

			return

		case <-done:
			return
		}
	}
}

// kill terminates the process, tolerating one that already exited.
func kill(ctx context.Context, ps *os.Process) {
	if err := ps.Kill(); err != nil {
		if errors.Is(err, os.ErrProcessDone) {
			ctxlog.Debug(ctx, "process already done", "pid", ps.Pid)

			return
		}

		ctxlog.Error(ctx, "process kill error", "pid", ps.Pid, "error", err)

		return
	}

	ctxlog.Info(ctx, "process killed", "pid", ps.Pid)
}

// exitStatus maps a wait status to the shell exit code convention.
func exitStatus(state *os.ProcessState) int {
	if ws, ok := state.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return exitSignalBase + int(ws.Signal())
	}

	return state.ExitCode()
}
