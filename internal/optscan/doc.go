// Copyright (c) streamtools 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package optscan locates the wrapped command inside the argument vector.
// Nothing separates the buffering options from the command, so the scanner
// grows a candidate prefix one argument at a time and asks the resolver for
// a verdict, stopping at the first prefix that parses cleanly down to a
// single command word. Arguments beyond that boundary belong to the wrapped
// command and are never interpreted here.
package optscan
