// Copyright (C) 2015 The Syncthing Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

// Package osutil provides small OS-level helpers used by the rest of the
// module, such as atomic file replacement for snapshot persistence.
package osutil

import (
	"os"
	"path/filepath"
)

// AtomicWriter is returned by CreateAtomic. The target file is not created
// or modified until Close is called; Close either publishes the write or,
// on error, leaves the target untouched.
type AtomicWriter struct {
	f    *os.File
	dst  string
	tmp  string
	done bool
}

// CreateAtomic prepares an atomic write to path. Data written through the
// returned writer lands in a temporary sibling file and is not visible at
// path until Close succeeds. If path already exists, its permission bits
// are preserved on the replacement file.
func CreateAtomic(path string) (*AtomicWriter, error) {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".tmp-"+filepath.Base(path)+"-")
	if err != nil {
		return nil, err
	}
	return &AtomicWriter{f: tmp, dst: path, tmp: tmp.Name()}, nil
}

func (w *AtomicWriter) Write(p []byte) (int, error) {
	return w.f.Write(p)
}

// Close flushes and syncs the temporary file, applies the original file's
// permissions (if it existed), then renames it into place.
func (w *AtomicWriter) Close() error {
	if w.done {
		return nil
	}
	w.done = true

	if err := w.f.Sync(); err != nil {
		w.f.Close()
		os.Remove(w.tmp)
		return err
	}
	if err := w.f.Close(); err != nil {
		os.Remove(w.tmp)
		return err
	}

	if info, err := os.Stat(w.dst); err == nil {
		if err := os.Chmod(w.tmp, info.Mode()); err != nil {
			os.Remove(w.tmp)
			return err
		}
	}

	if err := os.Rename(w.tmp, w.dst); err != nil {
		os.Remove(w.tmp)
		return err
	}
	return nil
}

// Cancel discards the temporary file without publishing it. Used when a
// caller detects an error after CreateAtomic but wants Close to be a no-op.
func (w *AtomicWriter) Cancel() {
	if w.done {
		return
	}
	w.done = true
	w.f.Close()
	os.Remove(w.tmp)
}
