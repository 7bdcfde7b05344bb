// Copyright (c) streamtools 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package launch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/prashantv/gostub"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// searchFixture stubs the probe filesystem and the executable path so the
// candidate directories are predictable.
func searchFixture(t *testing.T, exe string, files ...string) {
	t.Helper()

	fs := afero.NewMemMapFs()

	for _, f := range files {
		require.NoError(t, afero.WriteFile(fs, f, []byte{}, 0o644), "expected to write the fixture file")
	}

	stub := gostub.Stub(&FS, fs).Stub(&osExecutable, func() (string, error) {
		if exe == "" {
			return "", errors.New("executable path unavailable")
		}

		return exe, nil
	})
	t.Cleanup(stub.Reset)
	t.Setenv(EnvShimPath, "")
}

func TestLocateShim_EnvOverride(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/custom/shim.so", []byte{}, 0o644), "expected to write the fixture file")

	stub := gostub.Stub(&FS, fs)
	t.Cleanup(stub.Reset)
	t.Setenv(EnvShimPath, "/custom/shim.so")

	got, err := locateShim(context.Background())
	require.NoError(t, err, "unexpected error locating the shim")
	assert.Equal(t, "/custom/shim.so", got, "the override path wins regardless of its file name")
}

func TestLocateShim_EnvOverrideMissing(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("skipping unix path test on windows")
	}

	// A shim in a search directory must not rescue a broken override.
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, filepath.Join("/usr/libexec/coreutils", shimLibName()), []byte{}, 0o644),
		"expected to write the fixture file")

	stub := gostub.Stub(&FS, fs)
	t.Cleanup(stub.Reset)
	t.Setenv(EnvShimPath, "/custom/shim.so")

	_, err := locateShim(context.Background())
	assert.ErrorIs(t, err, ErrShimOverrideMissing, "expected the override error")
	assert.NotErrorIs(t, err, ErrShimNotFound, "a broken override is not a search miss")
	assert.ErrorIs(t, err, os.ErrNotExist, "the override failure reports the missing file")
	assert.Contains(t, err.Error(), "/custom/shim.so", "the error names the override path")
}

func TestLocateShim_ExecutableDir(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("skipping unix path test on windows")
	}

	want := filepath.Join("/opt/tools", shimLibName())
	searchFixture(t, "/opt/tools/stdbuf", want)

	got, err := locateShim(context.Background())
	require.NoError(t, err, "unexpected error locating the shim")
	assert.Equal(t, want, got, "the directory of the running binary is probed first")
}

func TestLocateShim_LibexecSibling(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("skipping unix path test on windows")
	}

	want := filepath.Join("/opt/libexec/coreutils", shimLibName())
	searchFixture(t, "/opt/bin/stdbuf", want)

	got, err := locateShim(context.Background())
	require.NoError(t, err, "unexpected error locating the shim")
	assert.Equal(t, want, got, "the sibling libexec tree is probed after the binary directory")
}

func TestLocateShim_SystemFallback(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("skipping unix path test on windows")
	}

	want := filepath.Join("/usr/libexec/coreutils", shimLibName())
	searchFixture(t, "", want)

	got, err := locateShim(context.Background())
	require.NoError(t, err, "unexpected error locating the shim")
	assert.Equal(t, want, got, "the system libexec directory is the last resort")
}

func TestLocateShim_SearchOrder(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("skipping unix path test on windows")
	}

	name := shimLibName()
	searchFixture(t, "/opt/bin/stdbuf",
		filepath.Join("/opt/bin", name),
		filepath.Join("/opt/libexec/coreutils", name),
		filepath.Join("/usr/libexec/coreutils", name),
	)

	got, err := locateShim(context.Background())
	require.NoError(t, err, "unexpected error locating the shim")
	assert.Equal(t, filepath.Join("/opt/bin", name), got, "the first candidate in probe order wins")
}

func TestLocateShim_NothingFound(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("skipping unix path test on windows")
	}

	searchFixture(t, "/opt/bin/stdbuf")

	_, err := locateShim(context.Background())
	assert.ErrorIs(t, err, ErrShimNotFound, "expected the shim not found error")
	assert.ErrorIs(t, err, os.ErrNotExist, "every candidate miss is reported")
	assert.Contains(t, err.Error(), filepath.Join("/opt/bin", shimLibName()),
		"the error lists the binary directory candidate")
	assert.Contains(t, err.Error(), filepath.Join("/usr/libexec/coreutils", shimLibName()),
		"the error lists the system candidate")
}

func TestShimSearchDirs(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("skipping unix path test on windows")
	}

	stub := gostub.Stub(&osExecutable, func() (string, error) {
		return "/opt/bin/stdbuf", nil
	})
	t.Cleanup(stub.Reset)

	assert.Equal(t, []string{
		"/opt/bin",
		filepath.Join("/opt", "libexec", "coreutils"),
		"/usr/libexec/coreutils",
	}, shimSearchDirs(), "unexpected probe order")

	stub.Stub(&osExecutable, func() (string, error) {
		return "", errors.New("executable path unavailable")
	})

	assert.Equal(t, []string{"/usr/libexec/coreutils"}, shimSearchDirs(),
		"an unknown binary path leaves only the system directory")
}

func TestShimLibName(t *testing.T) {
	if runtime.GOOS == "darwin" {
		assert.Equal(t, "libstdbuf.dylib", shimLibName(), "darwin loads dylib shims")

		return
	}

	assert.Equal(t, "libstdbuf.so", shimLibName(), "non-darwin platforms load shared object shims")
}

func TestPreloadEnvVar(t *testing.T) {
	if runtime.GOOS == "darwin" {
		assert.Equal(t, "DYLD_INSERT_LIBRARIES", preloadEnvVar(), "darwin uses the dyld insertion variable")

		return
	}

	assert.Equal(t, "LD_PRELOAD", preloadEnvVar(), "non-darwin platforms use the glibc preload variable")
}
