// Copyright (c) streamtools 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package signalbroker subscribes to the OS signals a process wrapper has to
// care about. The launcher forwards them to the wrapped command, so the
// default set covers the interactive termination signals plus terminal
// hangup.
package signalbroker

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/streamtools/stdbuf/internal/ctxlog"
)

var termSignals = []os.Signal{
	syscall.SIGINT,
	syscall.SIGTERM,
	syscall.SIGQUIT,
	syscall.SIGHUP,
	os.Interrupt,
}

// New creates a new signal broker that listens for OS signals. With no
// explicit signals it subscribes to the termination set.
func New(ctx context.Context, sigs ...os.Signal) chan os.Signal {
	ch := make(chan os.Signal, 1)

	if len(sigs) == 0 {
		sigs = termSignals
	}

	ctxlog.Debug(ctx, "signalbroker", "detail", "creating signal broker", "signals", sigs)
	signal.Notify(ch, sigs...)

	return ch
}

// Stop unsubscribes the channel from signal delivery. Signals already
// buffered in the channel stay there.
func Stop(ch chan os.Signal) {
	signal.Stop(ch)
}
