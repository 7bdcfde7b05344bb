// Copyright (c) streamtools 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package launch starts the wrapped command with the buffering contract
// applied. The resolved modes travel to the child as _STDBUF_I, _STDBUF_O
// and _STDBUF_E environment variables, and a preloaded shim library inside
// the child reads them to adjust its stdio buffers before main runs.
//
// On Unix the launcher replaces the current process image, so the command
// owns the terminal, the exit code and the signal dispositions outright.
// Where that is not possible it falls back to spawning a child, forwarding
// termination signals and relaying the exit code, including the shell
// convention of 128 plus the signal number for a signal death.
package launch
