// Copyright (c) streamtools 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package ctxlog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/TylerBrock/colorjson"
	"github.com/streamtools/stdbuf/internal/color"
)

var (
	// ErrMarshalAttribute is returned when an error occurs while marshaling an attribute.
	ErrMarshalAttribute = errors.New("error when marshaling attribute")
	// ErrIoWrite is returned when an error occurs while writing to the output.
	ErrIoWrite = errors.New("error when writing to output")
)

const (
	// TimeFormat is the format used for timestamps in log messages.
	TimeFormat = "[15:04:05.000]"
)

// ConsoleHandler is a slog handler that renders each record as a single
// human-readable line: timestamp, colorized level, message and then the
// attribute payload pretty-printed as JSON. Groups flatten to dotted keys.
type ConsoleHandler struct {
	mu        *sync.Mutex
	writer    io.Writer
	level     slog.Leveler
	formatter *colorjson.Formatter
	attrs     []slog.Attr
	groups    []string
	color     bool
}

// NewConsole creates a new ConsoleHandler with the given options.
func NewConsole(handlerOptions *slog.HandlerOptions, options ...Option) *ConsoleHandler {
	if handlerOptions == nil {
		handlerOptions = &slog.HandlerOptions{}
	}

	level := handlerOptions.Level
	if level == nil {
		level = slog.LevelInfo
	}

	handler := &ConsoleHandler{
		mu:     &sync.Mutex{},
		writer: os.Stderr,
		level:  level,
	}

	for _, opt := range options {
		opt(handler)
	}

	handler.formatter = colorjson.NewFormatter()
	handler.formatter.Indent = 2
	handler.formatter.DisabledColor = !handler.color

	return handler
}

// Option implements a functional options pattern for ConsoleHandler.
type Option func(h *ConsoleHandler)

// WithDestinationWriter sets the destination writer for the ConsoleHandler.
func WithDestinationWriter(writer io.Writer) Option {
	return func(h *ConsoleHandler) {
		h.writer = writer
	}
}

// WithColor enables color output for the ConsoleHandler.
func WithColor() Option {
	return func(h *ConsoleHandler) {
		h.color = true
	}
}

// WithAutoColor enables color output when the environment supports it.
func WithAutoColor() Option {
	return func(h *ConsoleHandler) {
		h.color = color.Enabled()
	}
}

// Enabled checks if the handler is enabled for the given level.
func (h *ConsoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// WithAttrs creates a new handler with the given attributes added under the
// open groups.
func (h *ConsoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	h2 := h.clone()
	for _, a := range attrs {
		h2.attrs = append(h2.attrs, h.qualify(a))
	}

	return h2
}

// WithGroup creates a new handler with the given group name opened. An empty
// name leaves the handler unchanged, as the slog contract requires.
func (h *ConsoleHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}

	h2 := h.clone()
	h2.groups = append(h2.groups, name)

	return h2
}

func (h *ConsoleHandler) clone() *ConsoleHandler {
	return &ConsoleHandler{
		mu:        h.mu,
		writer:    h.writer,
		level:     h.level,
		formatter: h.formatter,
		attrs:     h.attrs[:len(h.attrs):len(h.attrs)],
		groups:    h.groups[:len(h.groups):len(h.groups)],
		color:     h.color,
	}
}

// qualify prefixes the attribute key with the open group path.
func (h *ConsoleHandler) qualify(a slog.Attr) slog.Attr {
	if len(h.groups) == 0 || a.Key == "" {
		return a
	}

	a.Key = strings.Join(h.groups, ".") + "." + a.Key

	return a
}

// Handle implements the slog.Handler interface for ConsoleHandler.
func (h *ConsoleHandler) Handle(_ context.Context, r slog.Record) error {
	level := r.Level.String() + ":"

	if h.color {
		switch {
		case r.Level <= slog.LevelDebug:
			level = color.Colorize(level, color.FgWhite)
		case r.Level <= slog.LevelInfo:
			level = color.Colorize(level, color.FgCyan)
		case r.Level < slog.LevelWarn:
			level = color.Colorize(level, color.FgBlue)
		case r.Level < slog.LevelError:
			level = color.Colorize(level, color.FgYellow)
		case r.Level <= slog.LevelError+1:
			level = color.Colorize(level, color.FgRed)
		default: // r.Level > slog.LevelError+1
			level = color.Colorize(level, color.FgHiMagenta)
		}
	}

	out := strings.Builder{}

	if !r.Time.IsZero() {
		out.WriteString(h.colorize(r.Time.Format(TimeFormat), color.FgWhite))
		out.WriteString(" ")
	}

	out.WriteString(level)
	out.WriteString(" ")

	if r.Message != "" {
		out.WriteString(h.colorize(r.Message, color.FgHiWhite))
		out.WriteString(" ")
	}

	attrs := h.attrMap(r)
	if len(attrs) > 0 {
		attrsAsBytes, err := h.formatter.Marshal(attrs)
		if err != nil {
			return errors.Join(ErrMarshalAttribute, err)
		}

		out.WriteString(h.colorize(string(attrsAsBytes), color.FgHiWhite))
	}

	out.WriteString("\n")

	h.mu.Lock()
	defer h.mu.Unlock()

	if _, err := io.WriteString(h.writer, out.String()); err != nil {
		return errors.Join(ErrIoWrite, err)
	}

	return nil
}

func (h *ConsoleHandler) colorize(str string, c color.Code) string {
	if !h.color {
		return str
	}

	return color.Colorize(str, c)
}

// attrMap flattens the handler attributes and the record attributes into a
// single map ready for JSON rendering.
func (h *ConsoleHandler) attrMap(r slog.Record) map[string]any {
	m := make(map[string]any, len(h.attrs)+r.NumAttrs())

	for _, a := range h.attrs {
		addAttr(m, "", a)
	}

	groupPrefix := ""
	if len(h.groups) > 0 {
		groupPrefix = strings.Join(h.groups, ".") + "."
	}

	r.Attrs(func(a slog.Attr) bool {
		addAttr(m, groupPrefix, a)

		return true
	})

	return m
}

// addAttr stores one attribute in the map, descending into groups with a
// dotted key prefix. Empty attributes are dropped per the slog contract.
func addAttr(m map[string]any, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}

	if a.Value.Kind() == slog.KindGroup {
		group := a.Value.Group()
		if len(group) == 0 {
			return
		}

		childPrefix := prefix
		if a.Key != "" {
			childPrefix = prefix + a.Key + "."
		}

		for _, ga := range group {
			addAttr(m, childPrefix, ga)
		}

		return
	}

	m[prefix+a.Key] = attrValue(a.Value)
}

// attrValue converts a resolved slog value into something the JSON formatter
// renders faithfully.
func attrValue(v slog.Value) any {
	switch v.Kind() {
	case slog.KindString:
		return v.String()
	case slog.KindInt64:
		return json.Number(strconv.FormatInt(v.Int64(), 10))
	case slog.KindUint64:
		return json.Number(strconv.FormatUint(v.Uint64(), 10))
	case slog.KindFloat64:
		return v.Float64()
	case slog.KindBool:
		return v.Bool()
	case slog.KindDuration:
		return v.Duration().String()
	case slog.KindTime:
		return v.Time().Format(time.RFC3339Nano)
	default:
		val := v.Any()
		if err, ok := val.(error); ok {
			return err.Error()
		}

		if s, ok := val.(fmt.Stringer); ok {
			return s.String()
		}

		return fmt.Sprint(val)
	}
}
