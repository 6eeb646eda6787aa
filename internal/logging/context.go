// ============================================================================
// Scanrunner Structured Logging Context
// ============================================================================
//
// Package: internal/logging
// File: context.go
// Purpose: Ambient per-module logging context, explicit rather than
//          goroutine-local
//
// Every log line emitted on behalf of a module carries the scan id and
// module name as structured fields. Rather than a goroutine-local
// variable, the scoping travels as an explicit Context value threaded
// through every component and call site.
//
// ============================================================================

package logging

import (
	"log/slog"
	"os"
)

// Context carries the structured fields (scan id, module name) that every
// log line emitted on behalf of a module should include.
type Context struct {
	logger *slog.Logger
}

// defaultBase is the fallback handler used when no *slog.Logger is
// supplied.
func defaultBase() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, nil))
}

// New builds a Context scoped to one scan and one module.
func New(base *slog.Logger, scanID, moduleName string) Context {
	if base == nil {
		base = defaultBase()
	}
	return Context{logger: base.With("scan_id", scanID, "module", moduleName)}
}

// Background returns a Context with no scan/module scoping, for
// components that run before a module is attached to a scan.
func Background() Context {
	return Context{logger: defaultBase()}
}

func (c Context) Debug(msg string, args ...any) { c.logger.Debug(msg, args...) }
func (c Context) Info(msg string, args ...any)  { c.logger.Info(msg, args...) }
func (c Context) Warn(msg string, args ...any)  { c.logger.Warn(msg, args...) }
func (c Context) Error(msg string, args ...any) { c.logger.Error(msg, args...) }

// Verbose logs at debug level with an explicit "verbose" tag; slog has no
// dedicated verbose level.
func (c Context) Verbose(msg string, args ...any) {
	c.logger.Debug(msg, append([]any{"level_alias", "verbose"}, args...)...)
}

// With returns a derived Context with additional structured fields.
func (c Context) With(args ...any) Context {
	return Context{logger: c.logger.With(args...)}
}
