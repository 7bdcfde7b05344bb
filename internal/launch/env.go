// Copyright (c) streamtools 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package launch

import (
	"context"
	"errors"
	"strings"

	"github.com/streamtools/stdbuf/internal/buffermode"
	"github.com/streamtools/stdbuf/internal/ctxlog"
	"github.com/streamtools/stdbuf/internal/optscan"
)

// Environment variables of the child-side contract. The shim library reads
// the _STDBUF_ values; a stream with default buffering has no variable at
// all.
const (
	// EnvStdin carries the stdin mode token to the shim.
	EnvStdin = "_STDBUF_I"
	// EnvStdout carries the stdout mode token to the shim.
	EnvStdout = "_STDBUF_O"
	// EnvStderr carries the stderr mode token to the shim.
	EnvStderr = "_STDBUF_E"
)

// envVarFor maps a stream to its contract variable.
func envVarFor(stream buffermode.Stream) string {
	switch stream {
	case buffermode.StreamStdin:
		return EnvStdin
	case buffermode.StreamStderr:
		return EnvStderr
	default:
		return EnvStdout
	}
}

// Environ builds the child environment from base: the mode tokens for every
// non-default stream, plus the preload variable so the dynamic loader brings
// the shim in. A shim the search cannot find is tolerated; an explicit
// override that does not exist is not. Existing keys are replaced in place
// rather than appended, because a raw exec environment with duplicate keys
// resolves to the first entry and a stale value would win.
func Environ(ctx context.Context, base []string, opts optscan.ProgramOptions) ([]string, error) {
	env := make([]string, len(base))
	copy(env, base)

	modes := []struct {
		stream buffermode.Stream
		mode   buffermode.Mode
	}{
		{buffermode.StreamStdin, opts.Stdin},
		{buffermode.StreamStdout, opts.Stdout},
		{buffermode.StreamStderr, opts.Stderr},
	}

	injected := false

	for _, m := range modes {
		if m.mode.Kind == buffermode.KindDefault {
			continue
		}

		injected = true
		env = setEnv(env, envVarFor(m.stream), m.mode.Token())
		ctxlog.Debug(ctx, "child env", "key", envVarFor(m.stream), "value", m.mode.Token())
	}

	if !injected {
		return env, nil
	}

	shim, err := locateShim(ctx)
	if err != nil {
		if errors.Is(err, ErrShimOverrideMissing) {
			return nil, err
		}

		// A child that consumes the contract variables directly still honors
		// them, so an unsuccessful search only costs the preload injection.
		ctxlog.Warn(ctx, "shim library not found, buffering modes may not apply", "error", err)

		return env, nil
	}

	key := preloadEnvVar()
	if prior, ok := lookupEnv(env, key); ok && prior != "" {
		// The loader walks the list left to right; earlier preloads keep
		// precedence over the shim.
		shim = prior + ":" + shim
	}

	env = setEnv(env, key, shim)
	ctxlog.Debug(ctx, "child env", "key", key, "value", shim)

	return env, nil
}

// setEnv replaces the first entry for key, or appends one.
func setEnv(env []string, key, value string) []string {
	prefix := key + "="
	for i, kv := range env {
		if strings.HasPrefix(kv, prefix) {
			env[i] = prefix + value

			return env
		}
	}

	return append(env, prefix+value)
}

// lookupEnv finds the first entry for key.
func lookupEnv(env []string, key string) (string, bool) {
	prefix := key + "="
	for _, kv := range env {
		if strings.HasPrefix(kv, prefix) {
			return kv[len(prefix):], true
		}
	}

	return "", false
}
