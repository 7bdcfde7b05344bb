// Copyright (c) streamtools 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package launch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/afero"
	"github.com/streamtools/stdbuf/internal/ctxlog"
)

// EnvShimPath overrides the shim library search with an explicit path.
const EnvShimPath = "STDBUF_LIB"

var (
	// ErrShimNotFound is returned when no shim library exists at any
	// candidate path.
	ErrShimNotFound = errors.New("failed to find the preload shim library")
	// ErrShimOverrideMissing is returned when STDBUF_LIB names a file that
	// does not exist. An explicit override that cannot be honored is an
	// error, unlike an unsuccessful search.
	ErrShimOverrideMissing = errors.New("the shim library override does not exist")
)

// FS is the filesystem used to probe for the shim library.
var FS = afero.NewOsFs()

// osExecutable reports the path of the running binary.
var osExecutable = os.Executable

const shimBaseName = "libstdbuf"

// shimLibName is the platform spelling of the shim library file.
func shimLibName() string {
	if runtime.GOOS == "darwin" {
		return shimBaseName + ".dylib"
	}

	return shimBaseName + ".so"
}

// preloadEnvVar is the dynamic loader variable that injects the shim.
func preloadEnvVar() string {
	if runtime.GOOS == "darwin" {
		return "DYLD_INSERT_LIBRARIES"
	}

	return "LD_PRELOAD"
}

// locateShim finds the shim library. An explicit STDBUF_LIB wins; otherwise
// the search covers the directory of this binary, its sibling libexec tree
// and the system libexec directory.
func locateShim(ctx context.Context) (string, error) {
	if p := os.Getenv(EnvShimPath); p != "" {
		ok, err := afero.Exists(FS, p)
		if err == nil && ok {
			ctxlog.Debug(ctx, "shim library from environment", "path", p)

			return p, nil
		}

		return "", errors.Join(ErrShimOverrideMissing, fmt.Errorf("%s=%s: %w", EnvShimPath, p, os.ErrNotExist))
	}

	var errs error

	name := shimLibName()

	for _, dir := range shimSearchDirs() {
		candidate := filepath.Join(dir, name)

		ok, err := afero.Exists(FS, candidate)
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("%s: %w", candidate, err))

			continue
		}

		if ok {
			ctxlog.Debug(ctx, "shim library found", "path", candidate)

			return candidate, nil
		}

		errs = multierror.Append(errs, fmt.Errorf("%s: %w", candidate, os.ErrNotExist))
	}

	return "", errors.Join(ErrShimNotFound, errs)
}

// shimSearchDirs lists the candidate directories in probe order.
func shimSearchDirs() []string {
	dirs := make([]string, 0, 3)

	if exe, err := osExecutable(); err == nil {
		exeDir := filepath.Dir(exe)
		dirs = append(dirs,
			exeDir,
			filepath.Join(exeDir, "..", "libexec", "coreutils"),
		)
	}

	return append(dirs, "/usr/libexec/coreutils")
}
