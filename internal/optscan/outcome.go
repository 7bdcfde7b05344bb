// Copyright (c) streamtools 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package optscan

// Outcome classifies the verdict for one candidate argument prefix.
type Outcome int

const (
	// OutcomeRetry means the prefix does not resolve yet and the scan moves on to a longer one.
	OutcomeRetry Outcome = iota
	// OutcomeFatal means the scan must stop without a command boundary.
	OutcomeFatal
	// OutcomeResolved means the prefix parsed to buffering options plus a command boundary.
	OutcomeResolved
	// OutcomeHelp means usage text was requested, so nothing will be launched.
	OutcomeHelp
	// OutcomeVersion means version information was requested, so nothing will be launched.
	OutcomeVersion
)

const (
	outcomeRetryStr    = "retry"
	outcomeFatalStr    = "fatal"
	outcomeResolvedStr = "resolved"
	outcomeHelpStr     = "help"
	outcomeVersionStr  = "version"
	outcomeUnknownStr  = "unknown"
)

// String returns the string representation of the Outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomeRetry:
		return outcomeRetryStr
	case OutcomeFatal:
		return outcomeFatalStr
	case OutcomeResolved:
		return outcomeResolvedStr
	case OutcomeHelp:
		return outcomeHelpStr
	case OutcomeVersion:
		return outcomeVersionStr
	default:
		return outcomeUnknownStr
	}
}
