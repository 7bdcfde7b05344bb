// Copyright (c) streamtools 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package buffermode defines the buffering policies that stdbuf can request for
// a standard stream and parses the user-supplied mode tokens (such as "0", "L"
// or "64MB") into them.
//
// A bare unit letter (K, M, G, ...) scales by powers of 1024; the same letter
// with a trailing B (KB, MB, ...) scales by powers of 1000. Scaling is checked
// 64-bit arithmetic: anything that would wrap is a parse failure.
package buffermode
