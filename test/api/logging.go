/*
Copyright 2026 the Unikorn Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package api

import (
	"io"
	"log/slog"
	"strings"

	"github.com/dusted-go/logging/prettylog"
)

const (
	LogFormatText   = "text"
	LogFormatJSON   = "json"
	LogFormatPretty = "pretty"
)

// ParseLogLevel maps LOG_LEVEL onto a slog level, defaulting to info.
func ParseLogLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger builds the harness logger. Suites pass GinkgoWriter so output
// is attached to the spec that produced it.
func NewLogger(config *TestConfig, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: ParseLogLevel(config.LogLevel),
	}

	var handler slog.Handler

	switch strings.ToLower(config.LogFormat) {
	case LogFormatJSON:
		handler = slog.NewJSONHandler(w, opts)
	case LogFormatPretty:
		// Colour is left off, GinkgoWriter output ends up in reports.
		handler = prettylog.New(opts, prettylog.WithDestinationWriter(w))
	default:
		handler = slog.NewTextHandler(w, opts)
	}

	return slog.New(handler)
}
