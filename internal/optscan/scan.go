// Copyright (c) streamtools 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package optscan

import (
	"context"
	"errors"

	"github.com/streamtools/stdbuf/internal/ctxlog"
)

// ErrInvalidOptions is returned when every candidate prefix has been tried
// and none resolved to a command boundary.
var ErrInvalidOptions = errors.New("invalid options")

// Result is the final verdict of a scan over the full argument vector.
type Result struct {
	Outcome Outcome
	Options ProgramOptions
	// CommandIndex is the index into the scanned arguments of the command to
	// launch, or -1 when the outcome carries no boundary.
	CommandIndex int
}

// Scan tries successively longer prefixes of args until one resolves.
// Help and version short-circuit the scan, a fatal verdict stops it, and
// exhausting args without a resolution yields ErrInvalidOptions. On a
// resolved outcome the command word is the last argument of the winning
// prefix and everything after it is left for the command itself.
func Scan(ctx context.Context, args []string) (Result, error) {
	for l := 1; l <= len(args); l++ {
		res := resolve(args[:l])

		switch res.outcome {
		case OutcomeHelp, OutcomeVersion:
			return Result{Outcome: res.outcome, CommandIndex: -1}, nil
		case OutcomeResolved:
			ctxlog.Debug(ctx, "command boundary resolved",
				"index", l-1,
				"command", args[l-1],
				"options", res.options.String(),
			)

			return Result{Outcome: OutcomeResolved, Options: res.options, CommandIndex: l - 1}, nil
		case OutcomeFatal:
			return Result{Outcome: OutcomeFatal, CommandIndex: -1}, res.err
		case OutcomeRetry:
			ctxlog.Debug(ctx, "prefix did not resolve", "len", l, "reason", res.err)
		}
	}

	return Result{Outcome: OutcomeFatal, CommandIndex: -1}, ErrInvalidOptions
}
