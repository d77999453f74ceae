// Copyright (C) 2014 The Syncthing Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

// Package logger implements a small facility-based logging wrapper around
// the standard library's log package. Each subsystem registers its own
// named facility; verbosity per facility is controlled by the STRACE
// environment variable.
package logger

import (
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
)

type Level int

const (
	LevelDebug Level = iota
	LevelVerbose
	LevelInfo
	LevelWarn
)

// Logger is a facility-scoped handle returned by NewFacility. All methods
// are safe for concurrent use.
type Logger struct {
	root     *root
	facility string
}

type root struct {
	mu       sync.Mutex
	base     *log.Logger
	debug    map[string]bool
	excluded map[string]bool
	allDebug bool
	discard  bool
}

// DefaultLogger is the package-wide logger instance, configured from the
// STRACE environment variable at process start.
var DefaultLogger = newRoot()

func newRoot() *root {
	r := &root{
		base:     log.New(os.Stderr, "", log.LstdFlags),
		debug:    make(map[string]bool),
		excluded: make(map[string]bool),
	}
	if os.Getenv("LOGGER_DISCARD") != "" {
		r.discard = true
	}
	r.parseTrace(os.Getenv("STRACE"))
	return r
}

func (r *root) parseTrace(v string) {
	if v == "" {
		return
	}
	fields := strings.FieldsFunc(v, func(c rune) bool {
		return c == ',' || c == ';' || c == ' ' || c == '\t'
	})
	for _, f := range fields {
		name := f
		excl := false
		if strings.HasPrefix(name, "!") {
			excl = true
			name = name[1:]
		}
		if i := strings.IndexByte(name, ':'); i >= 0 {
			name = name[:i]
		}
		if name == "all" {
			if excl {
				continue
			}
			r.allDebug = true
			continue
		}
		if excl {
			r.excluded[name] = true
		} else {
			r.debug[name] = true
		}
	}
}

// NewFacility returns a Logger scoped to the given facility name.
// description is accepted for parity with the teacher's API and is
// currently unused beyond documentation purposes.
func (r *root) NewFacility(name, description string) *Logger {
	return &Logger{root: r, facility: name}
}

// SetDebug enables or disables debug-level output for a facility at
// runtime, overriding the STRACE-derived default.
func (r *root) SetDebug(facility string, enabled bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if enabled {
		delete(r.excluded, facility)
		r.debug[facility] = true
	} else {
		delete(r.debug, facility)
		r.excluded[facility] = true
	}
}

// SetFlags mirrors log.Logger.SetFlags on the underlying writer.
func (r *root) SetFlags(flags int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.base.SetFlags(flags)
}

func (r *root) debugEnabled(facility string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.excluded[facility] {
		return false
	}
	return r.allDebug || r.debug[facility]
}

func (l *Logger) logf(level Level, format string, args ...interface{}) {
	if l.root.discard {
		return
	}
	if level == LevelDebug && !l.root.debugEnabled(l.facility) {
		return
	}
	prefix := fmt.Sprintf("[%s] %s: ", levelTag(level), l.facility)
	l.root.mu.Lock()
	l.root.base.Output(3, prefix+fmt.Sprintf(format, args...))
	l.root.mu.Unlock()
}

func levelTag(l Level) string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelVerbose:
		return "VERBOSE"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	default:
		return "INFO"
	}
}

func (l *Logger) Debugf(format string, args ...interface{})   { l.logf(LevelDebug, format, args...) }
func (l *Logger) Debugln(args ...interface{})                 { l.logf(LevelDebug, strings.Repeat("%v ", len(args)), args...) }
func (l *Logger) Verbosef(format string, args ...interface{}) { l.logf(LevelVerbose, format, args...) }
func (l *Logger) Infof(format string, args ...interface{})    { l.logf(LevelInfo, format, args...) }
func (l *Logger) Infoln(args ...interface{})                  { l.logf(LevelInfo, strings.Repeat("%v ", len(args)), args...) }
func (l *Logger) Warnf(format string, args ...interface{})    { l.logf(LevelWarn, format, args...) }
func (l *Logger) Warnln(args ...interface{})                  { l.logf(LevelWarn, strings.Repeat("%v ", len(args)), args...) }

// IsDebug reports whether debug-level output is currently enabled for this
// facility, useful for callers who want to skip expensive formatting.
func (l *Logger) IsDebug() bool {
	return l.root.debugEnabled(l.facility)
}
