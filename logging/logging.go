// Copyright 2025 The Rivaas Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package logging wraps log/slog the way the teacher's logging package
// does: a *slog.Logger is the public surface, with an optional
// go.uber.org/zap backend swapped in via zap/exp/zapslog for structured
// sampling and rotation in production. Request-scoped fields (request
// ID, route name) are attached with Logger.With, mirroring the
// teacher's per-request child-logger pattern.
package logging

import (
	"log/slog"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/exp/zapslog"
)

// Option configures the logger returned by New.
type Option func(*config)

type config struct {
	level  slog.Level
	zapLog *zap.Logger
}

// WithLevel sets the minimum log level.
func WithLevel(level slog.Level) Option {
	return func(c *config) { c.level = level }
}

// WithZapBackend swaps slog's default handler for one backed by an
// existing *zap.Logger, so the caller's zap sampling/rotation/output
// configuration applies to every slog call made through the returned
// logger.
func WithZapBackend(z *zap.Logger) Option {
	return func(c *config) { c.zapLog = z }
}

// New builds a *slog.Logger. Without WithZapBackend, it uses a plain
// JSON handler over stderr; with it, log records are routed through
// zap via zapslog.NewHandler.
func New(opts ...Option) *slog.Logger {
	cfg := &config{level: slog.LevelInfo}
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.zapLog != nil {
		return slog.New(zapslog.NewHandler(cfg.zapLog.Core()))
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.level}))
}

// WithRequestID returns a child logger with the request_id field
// attached, the same per-request enrichment pattern the teacher's
// logging package documents.
func WithRequestID(l *slog.Logger, requestID string) *slog.Logger {
	return l.With(slog.String("request_id", requestID))
}
