// Copyright (c) streamtools 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package stdbuf provides the version and commit information for the stdbuf launcher.
package stdbuf

var (
	// Version is the released tool version, overridable at build time.
	Version = "1.0.0"
	// Commit is set during the build process.
	Commit = "unknown"
)
