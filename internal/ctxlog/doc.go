// Copyright (c) streamtools 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package ctxlog provides a context-aware logger for diagnostics. It uses the
// slog package for structured logging and supports different log levels.
//
// The default is a console handler that renders compact human-readable lines
// on standard error, keeping standard output untouched for the wrapped
// command. The log level comes from the STDBUF_LOG_LEVEL environment
// variable and defaults to WARN.
package ctxlog
