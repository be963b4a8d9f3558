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

package logging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// HandlerType represents the type of logging handler.
type HandlerType string

const (
	// JSONHandler outputs one JSON object per line.
	JSONHandler HandlerType = "json"
	// TextHandler outputs key=value text logs.
	TextHandler HandlerType = "text"
	// ConsoleHandler outputs colored human-readable logs.
	ConsoleHandler HandlerType = "console"
)

// Level represents log level.
type Level = slog.Level

const (
	LevelDebug = slog.LevelDebug
	LevelInfo  = slog.LevelInfo
	LevelWarn  = slog.LevelWarn
	LevelError = slog.LevelError
)

// redactedKeys are replaced with [Redacted] wherever they appear.
var redactedKeys = map[string]struct{}{
	"password":      {},
	"token":         {},
	"secret":        {},
	"api_key":       {},
	"authorization": {},
}

// Redacted replaces the value of a sensitive attribute.
const Redacted = "***REDACTED***"

// Logger wraps a [slog.Logger] configured from options. All methods are safe
// for concurrent use.
type Logger struct {
	handlerType HandlerType
	output      io.Writer
	level       slog.LevelVar
	addSource   bool

	serviceName    string
	serviceVersion string
	environment    string

	batchSize     int
	batchInterval time.Duration
	batch         *BatchWriter

	registerGlobal bool

	slogger  atomic.Pointer[slog.Logger]
	shutdown sync.Once
}

// Option is a functional option for configuring the logger.
type Option func(*Logger)

func defaultLogger() *Logger {
	return &Logger{
		handlerType: JSONHandler,
		output:      os.Stdout,
	}
}

// New creates a Logger with the given options. It does not replace the
// global slog default unless [WithGlobalLogger] is given.
func New(opts ...Option) (*Logger, error) {
	l := defaultLogger()
	l.level.Set(LevelInfo)
	for _, opt := range opts {
		opt(l)
	}

	if err := l.validate(); err != nil {
		return nil, fmt.Errorf("invalid logging configuration: %w", err)
	}

	out := l.output
	if l.batchSize > 0 {
		l.batch = NewBatchWriter(out, l.batchSize, l.batchInterval)
		out = l.batch
	}

	handler, err := l.newHandler(out)
	if err != nil {
		return nil, err
	}

	sl := slog.New(newTraceHandler(handler))
	var attrs []any
	if l.serviceName != "" {
		attrs = append(attrs, "service", l.serviceName)
	}
	if l.serviceVersion != "" {
		attrs = append(attrs, "version", l.serviceVersion)
	}
	if l.environment != "" {
		attrs = append(attrs, "env", l.environment)
	}
	if len(attrs) > 0 {
		sl = sl.With(attrs...)
	}

	l.slogger.Store(sl)
	if l.registerGlobal {
		slog.SetDefault(sl)
	}
	return l, nil
}

// MustNew creates a Logger or panics on error.
func MustNew(opts ...Option) *Logger {
	l, err := New(opts...)
	if err != nil {
		panic("logging initialization failed: " + err.Error())
	}
	return l
}

func (l *Logger) validate() error {
	var errs []error
	if l.output == nil {
		errs = append(errs, ErrNilOutput)
	}
	switch l.handlerType {
	case JSONHandler, TextHandler, ConsoleHandler:
	default:
		errs = append(errs, fmt.Errorf("%w: %q", ErrInvalidHandler, l.handlerType))
	}
	if l.batchSize < 0 || (l.batchSize > 0 && l.batchInterval <= 0) {
		errs = append(errs, ErrInvalidBatch)
	}
	return errors.Join(errs...)
}

func (l *Logger) newHandler(w io.Writer) (slog.Handler, error) {
	opts := &slog.HandlerOptions{
		Level:       &l.level,
		AddSource:   l.addSource,
		ReplaceAttr: redact,
	}

	switch l.handlerType {
	case JSONHandler:
		return slog.NewJSONHandler(w, opts), nil
	case TextHandler:
		return slog.NewTextHandler(w, opts), nil
	case ConsoleHandler:
		return newConsoleHandler(w, opts), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrInvalidHandler, l.handlerType)
}

func redact(_ []string, a slog.Attr) slog.Attr {
	if _, ok := redactedKeys[strings.ToLower(a.Key)]; ok {
		return slog.String(a.Key, Redacted)
	}
	return a
}

// Logger returns the underlying [slog.Logger].
func (l *Logger) Logger() *slog.Logger {
	return l.slogger.Load()
}

// With returns a [slog.Logger] with additional attributes.
func (l *Logger) With(args ...any) *slog.Logger {
	return l.Logger().With(args...)
}

func (l *Logger) Debug(msg string, args ...any) { l.Logger().Debug(msg, args...) }
func (l *Logger) Info(msg string, args ...any)  { l.Logger().Info(msg, args...) }
func (l *Logger) Warn(msg string, args ...any)  { l.Logger().Warn(msg, args...) }
func (l *Logger) Error(msg string, args ...any) { l.Logger().Error(msg, args...) }

// SetLevel changes the minimum level at runtime.
func (l *Logger) SetLevel(level Level) {
	l.level.Set(level)
}

// Level returns the current minimum level.
func (l *Logger) Level() Level {
	return l.level.Level()
}

// ServiceName returns the service name attached to every entry.
func (l *Logger) ServiceName() string {
	return l.serviceName
}

// Shutdown flushes batched entries. Calling it more than once is safe.
func (l *Logger) Shutdown(_ context.Context) error {
	var err error
	l.shutdown.Do(func() {
		if l.batch != nil {
			err = l.batch.Close()
		}
	})
	return err
}

// ParseLevel maps a level name (debug, info, warn, warning, error; any
// case) to a [Level].
func ParseLevel(name string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return LevelDebug, nil
	case "info", "":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error", "critical":
		return LevelError, nil
	}
	return LevelInfo, fmt.Errorf("%w: %q", ErrInvalidLevel, name)
}
