// Copyright (C) 2024 The Syncthing Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

// Package bulkload applies a CSV-like bulk scoring grammar to an engine:
// one "address,value" pair per line, where value is either an absolute
// score or a relative adjustment. See Parse for the exact grammar.
package bulkload

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rondilley/Sauron-Lib/lib/engine"
	"github.com/rondilley/Sauron-Lib/lib/ipaddr"
	"github.com/rondilley/Sauron-Lib/lib/logger"
)

var log = logger.DefaultLogger.NewFacility("bulkload", "CSV bulk scoring loader")

// Stats reports the outcome of a bulk load.
type Stats struct {
	LinesProcessed int64
	LinesSkipped   int64
	Sets           int64
	Updates        int64
	ParseErrors    int64
	ElapsedSeconds float64
	LinesPerSecond float64
}

// kind distinguishes the two ways a parsed line can be applied.
type kind int

const (
	kindAbsolute kind = iota
	kindRelative
)

type line struct {
	addr  uint32
	value int16
	kind  kind
}

// Parse parses one bulk-load line into an address/value/kind triple.
// Grammar (grounded on the reference implementation's parse_bulk_line):
//
//	<ip>,<N>       absolute set to N
//	<ip>,-<N>      absolute set to -N
//	<ip>,+<N>      relative increment by N
//	<ip>,+-<N>     relative decrement by N (the only way to express a
//	               relative decrease; a bare "-N" is always absolute)
//
// Leading/trailing whitespace around the IP and value is permitted, as is
// a trailing "#" comment. Blank lines and lines starting with "#" (after
// leading whitespace) are not parse errors — callers should skip them
// before calling Parse; see isSkippable.
func Parse(s string) (line, error) {
	s = strings.TrimRight(s, "\r\n")

	commaIdx := strings.IndexByte(s, ',')
	if commaIdx < 0 {
		return line{}, fmt.Errorf("bulkload: missing ','")
	}
	ipPart := strings.TrimSpace(s[:commaIdx])
	rest := strings.TrimSpace(s[commaIdx+1:])

	addr, ok := ipaddr.Parse(ipPart)
	if !ok {
		return line{}, fmt.Errorf("bulkload: invalid address %q", ipPart)
	}

	if idx := strings.IndexByte(rest, '#'); idx >= 0 {
		rest = strings.TrimSpace(rest[:idx])
	}
	if rest == "" {
		return line{}, fmt.Errorf("bulkload: missing value")
	}

	k := kindAbsolute
	negative := false
	switch rest[0] {
	case '+':
		k = kindRelative
		rest = rest[1:]
		if strings.HasPrefix(rest, "-") {
			negative = true
			rest = rest[1:]
		}
	case '-':
		negative = true
		rest = rest[1:]
	}
	if rest == "" {
		return line{}, fmt.Errorf("bulkload: missing digits after sign")
	}

	var n int32
	for _, c := range rest {
		if c < '0' || c > '9' {
			return line{}, fmt.Errorf("bulkload: invalid digit %q", c)
		}
		n = n*10 + int32(c-'0')
		if n > 32767 {
			n = 32767
		}
	}
	if negative {
		n = -n
	}

	return line{addr: addr, value: int16(n), kind: k}, nil
}

// isSkippable reports whether a raw line is a blank or comment line (after
// leading whitespace) that should be counted in LinesProcessed and
// otherwise ignored, rather than passed to Parse.
func isSkippable(raw string) bool {
	t := strings.TrimSpace(raw)
	return t == "" || strings.HasPrefix(t, "#")
}

func apply(e *engine.Engine, l line) (isUpdate bool, err error) {
	switch l.kind {
	case kindRelative:
		_, err = e.Increment(l.addr, l.value)
		return true, err
	default:
		old, err := e.Set(l.addr, l.value)
		return old != 0, err
	}
}

// Load reads path line by line and applies each to e, returning Stats on
// completion. Every line, including blanks and comments, counts toward
// LinesProcessed; a malformed line additionally counts in both
// ParseErrors and LinesSkipped. A malformed line does not abort the load.
func Load(e *engine.Engine, path string) (Stats, error) {
	f, err := os.Open(path)
	if err != nil {
		return Stats{}, err
	}
	defer f.Close()
	return load(e, f)
}

// LoadBuffer applies every line in buf to e, with the same grammar and
// semantics as Load.
func LoadBuffer(e *engine.Engine, buf string) (Stats, error) {
	return load(e, strings.NewReader(buf))
}

const scannerBufferSize = 65536

func load(e *engine.Engine, r io.Reader) (Stats, error) {
	t0 := time.Now()
	var stats Stats

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, scannerBufferSize), scannerBufferSize)

	for scanner.Scan() {
		raw := scanner.Text()
		stats.LinesProcessed++
		if isSkippable(raw) {
			continue
		}

		l, err := Parse(raw)
		if err != nil {
			stats.ParseErrors++
			stats.LinesSkipped++
			log.Debugf("parse error: %v", err)
			continue
		}

		isUpdate, err := apply(e, l)
		if err != nil {
			return stats, fmt.Errorf("bulkload: apply: %w", err)
		}
		if isUpdate {
			stats.Updates++
		} else {
			stats.Sets++
		}
	}
	if err := scanner.Err(); err != nil {
		return stats, err
	}

	stats.ElapsedSeconds = time.Since(t0).Seconds()
	if stats.ElapsedSeconds > 0 {
		stats.LinesPerSecond = float64(stats.LinesProcessed) / stats.ElapsedSeconds
	}
	return stats, nil
}

// parsedLine is the result of parsing one raw line in LoadParallel's
// worker pool: either a successfully parsed line, a skip, or a parse
// error, tagged so the single-threaded apply loop can update Stats
// correctly regardless of which worker produced it.
type parsedLine struct {
	l        line
	ok       bool
	skipped  bool
	parseErr bool
}

// LoadParallel behaves like Load but parses lines across a worker pool
// before applying them serially to e (engine writes stay on one
// goroutine; only address/value parsing — the bottleneck on very large
// files — is parallelized). workers <= 0 selects a default of 4.
func LoadParallel(e *engine.Engine, path string, workers int) (Stats, error) {
	f, err := os.Open(path)
	if err != nil {
		return Stats{}, err
	}
	defer f.Close()

	if workers <= 0 {
		workers = 4
	}

	t0 := time.Now()
	var stats Stats

	type indexed struct {
		idx int
		raw string
	}
	rawLines := make(chan indexed, 1024)
	results := make(chan struct {
		idx int
		pl  parsedLine
	}, 1024)

	var readErr error
	go func() {
		defer close(rawLines)
		scanner := bufio.NewScanner(f)
		scanner.Buffer(make([]byte, scannerBufferSize), scannerBufferSize)
		idx := 0
		for scanner.Scan() {
			rawLines <- indexed{idx: idx, raw: scanner.Text()}
			idx++
		}
		readErr = scanner.Err()
	}()

	var g errgroup.Group
	for i := 0; i < workers; i++ {
		g.Go(func() error {
			for rl := range rawLines {
				var pl parsedLine
				switch {
				case isSkippable(rl.raw):
					pl.skipped = true
				default:
					parsed, err := Parse(rl.raw)
					if err != nil {
						pl.parseErr = true
					} else {
						pl.l = parsed
						pl.ok = true
					}
				}
				results <- struct {
					idx int
					pl  parsedLine
				}{rl.idx, pl}
			}
			return nil
		})
	}
	go func() {
		g.Wait()
		close(results)
	}()

	for r := range results {
		stats.LinesProcessed++
		switch {
		case r.pl.skipped:
			// counted in LinesProcessed only
		case r.pl.parseErr:
			stats.ParseErrors++
			stats.LinesSkipped++
		default:
			isUpdate, err := apply(e, r.pl.l)
			if err != nil {
				return stats, fmt.Errorf("bulkload: apply: %w", err)
			}
			if isUpdate {
				stats.Updates++
			} else {
				stats.Sets++
			}
		}
	}

	if readErr != nil {
		return stats, readErr
	}

	stats.ElapsedSeconds = time.Since(t0).Seconds()
	if stats.ElapsedSeconds > 0 {
		stats.LinesPerSecond = float64(stats.LinesProcessed) / stats.ElapsedSeconds
	}
	return stats, nil
}
