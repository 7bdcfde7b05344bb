// Copyright (c) streamtools 2025. All rights reserved.
// SPDX-License-Identifier: MIT

//go:build !unix

package launch

// execImage reports that image replacement is unavailable here, sending the
// launcher down the spawn path.
func execImage(_ string, _, _ []string) error {
	return ErrExecUnsupported
}
