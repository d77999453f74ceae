// Copyright (C) 2024 The Syncthing Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package engine

// Code is a small enumeration of engine status codes, mirroring the
// reference implementation's sauron_err_t.
type Code int

const (
	CodeOK Code = iota
	CodeNullArgument
	CodeInvalidArgument
	CodeOutOfMemory
	CodeIO
)

// Error wraps a Code as a regular Go error, usable with errors.Is against
// the Err* sentinels below.
type Error struct {
	Code Code
}

func (e *Error) Error() string {
	switch e.Code {
	case CodeNullArgument:
		return "engine: null argument"
	case CodeInvalidArgument:
		return "engine: invalid argument"
	case CodeOutOfMemory:
		return "engine: out of memory"
	case CodeIO:
		return "engine: i/o error"
	default:
		return "engine: ok"
	}
}

var (
	ErrNullArgument    = &Error{CodeNullArgument}
	ErrInvalidArgument = &Error{CodeInvalidArgument}
	ErrOutOfMemory     = &Error{CodeOutOfMemory}
	ErrIO              = &Error{CodeIO}
)
