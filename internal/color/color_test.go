// Copyright (c) streamtools 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package color

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsColorCapable(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	assert.False(t, isColorCapable(), "expected color output to be disabled")

	t.Setenv("FORCE_COLOR", "1")
	assert.False(t, isColorCapable(), "expected color output to be disabled as NO_COLOR is still set")

	t.Setenv("NO_COLOR", "")
	assert.True(t, isColorCapable(), "expected color output to be enabled as FORCE_COLOR is set and NO_COLOR is unset")
}

func TestColorize(t *testing.T) {
	was := enabled

	defer func() { enabled = was }()

	enabled = false
	assert.Equal(t, "plain", Colorize("plain", FgRed), "expected passthrough when disabled")

	enabled = true
	got := Colorize("hot", FgRed)
	assert.True(t, strings.HasPrefix(got, "\033[31m"), "expected the red control code")
	assert.True(t, strings.HasSuffix(got, "\033[0m"), "expected the reset code")
	assert.Contains(t, got, "hot", "expected the original text")
}

func TestColorizeMultipleCodes(t *testing.T) {
	was := enabled

	defer func() { enabled = was }()

	enabled = true
	got := Colorize("x", FgWhite, FgHiMagenta)
	assert.True(t, strings.HasPrefix(got, "\033[37;95m"), "expected both codes joined with a semicolon")
}
