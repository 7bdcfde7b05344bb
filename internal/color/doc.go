// Copyright (c) streamtools 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package color provides functions to determine if color output is enabled,
// and a function to colorize strings with ANSI escape codes.
// The package checks the environment variables NO_COLOR and FORCE_COLOR to
// determine if color output should be enabled or disabled. It also checks if
// standard error is a terminal using the golang.org/x/term package, since
// standard output belongs to the wrapped command and is never written to.
package color
