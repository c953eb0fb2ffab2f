// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package log provides leveled key/value logging on top of go-ethereum's slog based logger.
package log

import (
	"io"
	"log/slog"
	"os"

	ethlog "github.com/ethereum/go-ethereum/log"
	"github.com/mattn/go-isatty"
)

// Logger writes key/value pairs to the root handler.
type Logger interface {
	With(ctx ...any) Logger
	Trace(msg string, ctx ...any)
	Debug(msg string, ctx ...any)
	Info(msg string, ctx ...any)
	Warn(msg string, ctx ...any)
	Error(msg string, ctx ...any)
}

// WithContext returns a logger carrying the given context.
// The root handler is resolved on every call, so package level loggers
// follow later SetDefault calls.
func WithContext(ctx ...any) Logger {
	return &logger{ctx: ctx}
}

type logger struct {
	ctx []any
}

func (l *logger) merge(ctx []any) []any {
	if len(ctx) == 0 {
		return l.ctx
	}
	return append(l.ctx[:len(l.ctx):len(l.ctx)], ctx...)
}

func (l *logger) With(ctx ...any) Logger        { return &logger{ctx: l.merge(ctx)} }
func (l *logger) Trace(msg string, ctx ...any) { ethlog.Root().Trace(msg, l.merge(ctx)...) }
func (l *logger) Debug(msg string, ctx ...any) { ethlog.Root().Debug(msg, l.merge(ctx)...) }
func (l *logger) Info(msg string, ctx ...any)  { ethlog.Root().Info(msg, l.merge(ctx)...) }
func (l *logger) Warn(msg string, ctx ...any)  { ethlog.Root().Warn(msg, l.merge(ctx)...) }
func (l *logger) Error(msg string, ctx ...any) { ethlog.Root().Error(msg, l.merge(ctx)...) }

var root = WithContext()

// Info logs at info level on the root logger.
func Info(msg string, ctx ...any) { root.Info(msg, ctx...) }

// Warn logs at warn level on the root logger.
func Warn(msg string, ctx ...any) { root.Warn(msg, ctx...) }

// Error logs at error level on the root logger.
func Error(msg string, ctx ...any) { root.Error(msg, ctx...) }

// SetDefault installs h as the root handler.
func SetDefault(h slog.Handler) {
	ethlog.SetDefault(ethlog.NewLogger(h))
}

// FromVerbosity maps the 0 (crit) .. 5 (trace) verbosity scale to a level.
func FromVerbosity(v int) slog.Level {
	return ethlog.FromLegacyLevel(v)
}

// NewTerminalHandler returns a human readable handler. Colors are enabled
// when w is a terminal.
func NewTerminalHandler(w io.Writer, lvl slog.Level) slog.Handler {
	useColor := false
	if f, ok := w.(*os.File); ok {
		useColor = isatty.IsTerminal(f.Fd()) && os.Getenv("TERM") != "dumb"
	}
	return ethlog.NewTerminalHandlerWithLevel(w, lvl, useColor)
}

// JSONHandler returns a handler writing one JSON object per record.
func JSONHandler(w io.Writer, lvl slog.Level) slog.Handler {
	return ethlog.JSONHandlerWithLevel(w, lvl)
}

// DiscardHandler returns a no-op handler.
func DiscardHandler() slog.Handler {
	return ethlog.DiscardHandler()
}
