// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package logger wraps zerolog for the sync client and the reference server.
//
// Every entry is JSON with a "role" field naming the process, a timestamp
// and a "func" caller field holding the fully qualified function name.
// Request and job scoped loggers travel in a context; use [FromContext] or
// [FromRequest] to get them back.
package logger

import (
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	defaultClientLogName = "sync-client.log"

	rotateMaxSizeMB  = 10
	rotateMaxBackups = 3
	rotateMaxAgeDays = 28
)

var setupGlobals sync.Once

// Logger embeds zerolog.Logger, so the whole zerolog API is available.
type Logger struct {
	zerolog.Logger
}

// NewLogger writes to stdout. It is used by the server, which runs
// headless.
func NewLogger(role string) *Logger {
	return newLogger(os.Stdout, role)
}

// NewClientLogger writes to a rotating file, since the terminal belongs to
// the dashboard. An empty logFile puts sync-client.log next to the binary.
func NewClientLogger(role, logFile string) *Logger {
	if logFile == "" {
		logFile = defaultClientLogPath()
	}

	return newLogger(&lumberjack.Logger{
		Filename:   logFile,
		MaxSize:    rotateMaxSizeMB,
		MaxBackups: rotateMaxBackups,
		MaxAge:     rotateMaxAgeDays,
	}, role)
}

// Nop discards everything. Tests use it.
func Nop() *Logger {
	return &Logger{zerolog.Nop()}
}

func newLogger(w io.Writer, role string) *Logger {
	setupGlobals.Do(func() {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		zerolog.CallerFieldName = "func"
		zerolog.CallerMarshalFunc = func(pc uintptr, _ string, _ int) string {
			return runtime.FuncForPC(pc).Name()
		}
	})

	return &Logger{zerolog.New(w).With().
		Str("role", role).
		Timestamp().
		Caller().
		Logger()}
}

func defaultClientLogPath() string {
	exe, err := os.Executable()
	if err != nil {
		return defaultClientLogName
	}
	return filepath.Join(filepath.Dir(exe), defaultClientLogName)
}

// WithStr returns a child logger that adds key=value to every entry. The
// receiver is left untouched.
func (l *Logger) WithStr(key, value string) *Logger {
	return &Logger{l.With().Str(key, value).Logger()}
}

// FromContext returns the logger attached to ctx, or zerolog's default
// logger when none is attached. It never returns nil.
func FromContext(ctx context.Context) *Logger {
	return &Logger{*log.Ctx(ctx)}
}

// FromRequest is FromContext for r's context.
func FromRequest(r *http.Request) *Logger {
	return FromContext(r.Context())
}
