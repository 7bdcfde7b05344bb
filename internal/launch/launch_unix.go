// Copyright (c) streamtools 2025. All rights reserved.
// SPDX-License-Identifier: MIT

//go:build unix

package launch

import "golang.org/x/sys/unix"

// execImage replaces the current process with the command. It only returns
// on failure.
func execImage(path string, argv, env []string) error {
	return unix.Exec(path, argv, env)
}
