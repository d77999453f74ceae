// Copyright (C) 2024 The Syncthing Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

// Package snapshot saves and restores an engine's nonzero scores to a
// compact binary archive, written atomically so a crash mid-write never
// corrupts an existing archive.
package snapshot

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rondilley/Sauron-Lib/lib/engine"
	"github.com/rondilley/Sauron-Lib/lib/logger"
	"github.com/rondilley/Sauron-Lib/lib/osutil"
)

var log = logger.DefaultLogger.NewFacility("snapshot", "archive save/load")

const (
	magic          = "SAUR"
	archiveVersion = 1

	headerSize = 4 + 4 + 8 // magic + version + entry count
	entrySize  = 4 + 2     // address + score

	// maxArchiveEntries bounds a malformed or hostile entry count so Load
	// fails fast instead of attempting to read gigabytes on a truncated
	// file; it matches the full IPv4 address space, which is also the
	// structural maximum number of distinct nonzero entries.
	maxArchiveEntries = uint64(1) << 32
)

var (
	// ErrBadMagic is returned by Load when the file does not begin with
	// the archive's magic bytes.
	ErrBadMagic = errors.New("snapshot: bad magic")
	// ErrBadVersion is returned by Load for an unsupported archive version.
	ErrBadVersion = errors.New("snapshot: unsupported version")
	// ErrTooManyEntries is returned by Load when the header's entry count
	// exceeds maxArchiveEntries.
	ErrTooManyEntries = errors.New("snapshot: entry count too large")
)

// writeBufferEntries is the number of entries buffered before a flush to
// the underlying writer, matching the reference implementation's
// WRITE_BUFFER_ENTRIES.
const writeBufferEntries = 4096

// Save writes every nonzero score in e to path, replacing any existing
// file there only once the full archive has been written and synced.
func Save(e *engine.Engine, path string) (err error) {
	w, err := osutil.CreateAtomic(path)
	if err != nil {
		return fmt.Errorf("snapshot: create: %w", err)
	}
	defer func() {
		if err != nil {
			w.Cancel()
		}
	}()

	bw := bufio.NewWriterSize(w, writeBufferEntries*entrySize)

	if _, err = bw.WriteString(magic); err != nil {
		return err
	}
	var versionBuf [4]byte
	binary.LittleEndian.PutUint32(versionBuf[:], archiveVersion)
	if _, err = bw.Write(versionBuf[:]); err != nil {
		return err
	}

	var count uint64
	var countErr error
	e.ForEach(func(addr uint32, score int16) bool {
		count++
		return true
	})

	var countBuf [8]byte
	binary.LittleEndian.PutUint64(countBuf[:], count)
	if _, err = bw.Write(countBuf[:]); err != nil {
		return err
	}

	var entry [entrySize]byte
	e.ForEach(func(addr uint32, score int16) bool {
		binary.LittleEndian.PutUint32(entry[0:4], addr)
		binary.LittleEndian.PutUint16(entry[4:6], uint16(score))
		if _, werr := bw.Write(entry[:]); werr != nil {
			countErr = werr
			return false
		}
		return true
	})
	if countErr != nil {
		return countErr
	}

	if err = bw.Flush(); err != nil {
		return err
	}

	log.Debugf("saved %d entries to %s", count, path)
	return w.Close()
}

// Load clears e and populates it from the archive at path.
func Load(e *engine.Engine, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	br := bufio.NewReader(f)

	var hdr [8]byte
	if _, err := io.ReadFull(br, hdr[:]); err != nil {
		return fmt.Errorf("snapshot: read header: %w", err)
	}
	if string(hdr[0:4]) != magic {
		return ErrBadMagic
	}
	version := binary.LittleEndian.Uint32(hdr[4:8])
	if version == 0 || version > archiveVersion {
		return ErrBadVersion
	}

	var countBuf [8]byte
	if _, err := io.ReadFull(br, countBuf[:]); err != nil {
		return fmt.Errorf("snapshot: read count: %w", err)
	}
	count := binary.LittleEndian.Uint64(countBuf[:])
	if count > maxArchiveEntries {
		return ErrTooManyEntries
	}

	e.Clear()

	var entry [entrySize]byte
	for i := uint64(0); i < count; i++ {
		if _, err := io.ReadFull(br, entry[:]); err != nil {
			return fmt.Errorf("snapshot: read entry %d: %w", i, err)
		}
		addr := binary.LittleEndian.Uint32(entry[0:4])
		score := int16(binary.LittleEndian.Uint16(entry[4:6]))
		if score == 0 {
			continue
		}
		if _, err := e.Set(addr, score); err != nil {
			return fmt.Errorf("snapshot: apply entry %d: %w", i, err)
		}
	}

	log.Debugf("loaded %d entries from %s", count, path)
	return nil
}
