// Copyright (C) 2024 The Syncthing Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package bulkload

import (
	"os"
	"testing"

	"github.com/rondilley/Sauron-Lib/lib/engine"
	"github.com/rondilley/Sauron-Lib/lib/ipaddr"
)

func TestParseGrammar(t *testing.T) {
	cases := []struct {
		in        string
		wantAddr  string
		wantValue int16
		wantKind  kind
	}{
		{"1.2.3.4,100", "1.2.3.4", 100, kindAbsolute},
		{"1.2.3.4,-100", "1.2.3.4", -100, kindAbsolute},
		{"1.2.3.4,+100", "1.2.3.4", 100, kindRelative},
		{"1.2.3.4,+-100", "1.2.3.4", -100, kindRelative},
		{" 1.2.3.4 , 50 ", "1.2.3.4", 50, kindAbsolute},
		{"1.2.3.4,50 # comment", "1.2.3.4", 50, kindAbsolute},
		{"1.2.3.4,99999", "1.2.3.4", 32767, kindAbsolute},
	}
	for _, c := range cases {
		got, err := Parse(c.in)
		if err != nil {
			t.Errorf("Parse(%q) failed: %v", c.in, err)
			continue
		}
		wantAddr, _ := ipaddr.Parse(c.wantAddr)
		if got.addr != wantAddr || got.value != c.wantValue || got.kind != c.wantKind {
			t.Errorf("Parse(%q) = %+v, want addr=%s value=%d kind=%v", c.in, got, c.wantAddr, c.wantValue, c.wantKind)
		}
	}
}

func TestParseInvalid(t *testing.T) {
	cases := []string{
		"",
		"no comma here",
		"1.2.3.4,",
		"1.2.3.4,abc",
		"not.an.ip,5",
		"1.2.3.4,+",
		"1.2.3.4,+-",
	}
	for _, in := range cases {
		if _, err := Parse(in); err == nil {
			t.Errorf("Parse(%q) unexpectedly succeeded", in)
		}
	}
}

func TestIsSkippable(t *testing.T) {
	cases := map[string]bool{
		"":              true,
		"   ":           true,
		"# a comment":   true,
		"  # indented":  true,
		"1.2.3.4,5":     false,
	}
	for in, want := range cases {
		if got := isSkippable(in); got != want {
			t.Errorf("isSkippable(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestLoadBufferAppliesAbsoluteAndRelative(t *testing.T) {
	e := engine.New()
	buf := "" +
		"# a leading comment\n" +
		"\n" +
		"1.1.1.1,100\n" +
		"1.1.1.1,+10\n" +
		"1.1.1.2,-5\n" +
		"1.1.1.1,+-20\n"

	stats, err := LoadBuffer(e, buf)
	if err != nil {
		t.Fatal(err)
	}

	if got := e.Get(ipaddr.MustParse("1.1.1.1")); got != 90 {
		t.Errorf("1.1.1.1 = %d, want 90 (100 +10 -20)", got)
	}
	if got := e.Get(ipaddr.MustParse("1.1.1.2")); got != -5 {
		t.Errorf("1.1.1.2 = %d, want -5", got)
	}

	if stats.LinesSkipped != 0 {
		t.Errorf("LinesSkipped = %d, want 0", stats.LinesSkipped)
	}
	if stats.LinesProcessed != 6 {
		t.Errorf("LinesProcessed = %d, want 6", stats.LinesProcessed)
	}
	if stats.Sets != 2 {
		t.Errorf("Sets = %d, want 2", stats.Sets)
	}
	if stats.Updates != 2 {
		t.Errorf("Updates = %d, want 2", stats.Updates)
	}
	if stats.ParseErrors != 0 {
		t.Errorf("ParseErrors = %d, want 0", stats.ParseErrors)
	}
}

func TestLoadBufferCountsParseErrors(t *testing.T) {
	e := engine.New()
	buf := "1.1.1.1,100\nnot a line\n1.1.1.2,abc\n"

	stats, err := LoadBuffer(e, buf)
	if err != nil {
		t.Fatal(err)
	}
	if stats.ParseErrors != 2 {
		t.Errorf("ParseErrors = %d, want 2", stats.ParseErrors)
	}
	if stats.LinesSkipped != 2 {
		t.Errorf("LinesSkipped = %d, want 2 (parse errors also count as skipped)", stats.LinesSkipped)
	}
	if stats.LinesProcessed != 3 {
		t.Errorf("LinesProcessed = %d, want 3", stats.LinesProcessed)
	}
	if stats.Sets != 1 {
		t.Errorf("Sets = %d, want 1", stats.Sets)
	}
}

func TestLoadParallelMatchesSerialOnDistinctAddresses(t *testing.T) {
	e := engine.New()
	var buf string
	for i := 0; i < 500; i++ {
		buf += ipaddr.Format(uint32(i)<<8|1) + ",10\n"
	}

	stats, err := LoadBuffer(engine.New(), buf)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Sets != 500 {
		t.Fatalf("serial Sets = %d, want 500", stats.Sets)
	}

	dir := t.TempDir()
	path := dir + "/bulk.csv"
	if err := os.WriteFile(path, []byte(buf), 0644); err != nil {
		t.Fatal(err)
	}

	pstats, err := LoadParallel(e, path, 8)
	if err != nil {
		t.Fatal(err)
	}
	if pstats.Sets != 500 {
		t.Errorf("parallel Sets = %d, want 500", pstats.Sets)
	}
	if e.Count() != 500 {
		t.Errorf("engine.Count() = %d, want 500", e.Count())
	}
}
