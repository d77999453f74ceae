// Copyright (C) 2024 The Syncthing Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package snapshot

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/rondilley/Sauron-Lib/lib/engine"
	"github.com/rondilley/Sauron-Lib/lib/ipaddr"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scores.sau")

	e := engine.New()
	want := map[uint32]int16{
		ipaddr.MustParse("1.1.1.1"):     100,
		ipaddr.MustParse("8.8.8.8"):     -100,
		ipaddr.MustParse("255.255.255.255"): 1,
	}
	for addr, score := range want {
		if _, err := e.Set(addr, score); err != nil {
			t.Fatal(err)
		}
	}

	if err := Save(e, path); err != nil {
		t.Fatal(err)
	}

	loaded := engine.New()
	if err := Load(loaded, path); err != nil {
		t.Fatal(err)
	}

	got := map[uint32]int16{}
	loaded.ForEach(func(addr uint32, score int16) bool {
		got[addr] = score
		return true
	})

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestSaveEmptyEngine(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "empty.sau")

	e := engine.New()
	if err := Save(e, path); err != nil {
		t.Fatal(err)
	}

	loaded := engine.New()
	if err := Load(loaded, path); err != nil {
		t.Fatal(err)
	}
	if loaded.Count() != 0 {
		t.Errorf("loaded.Count() = %d, want 0", loaded.Count())
	}
}

func TestLoadBadMagic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.sau")
	if err := os.WriteFile(path, []byte("NOPE12345678"), 0644); err != nil {
		t.Fatal(err)
	}

	e := engine.New()
	if err := Load(e, path); err != ErrBadMagic {
		t.Errorf("Load on bad magic = %v, want ErrBadMagic", err)
	}
}

func TestLoadBadVersion(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "badversion.sau")
	data := append([]byte(magic), 0xFF, 0xFF, 0xFF, 0xFF) // version = 0xFFFFFFFF
	data = append(data, make([]byte, 8)...)                // entry count
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	e := engine.New()
	if err := Load(e, path); err != ErrBadVersion {
		t.Errorf("Load on bad version = %v, want ErrBadVersion", err)
	}
}

func TestLoadClearsExistingScores(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scores.sau")

	e := engine.New()
	e.Set(ipaddr.MustParse("1.1.1.1"), 5)
	if err := Save(e, path); err != nil {
		t.Fatal(err)
	}

	loaded := engine.New()
	loaded.Set(ipaddr.MustParse("9.9.9.9"), 123)
	if err := Load(loaded, path); err != nil {
		t.Fatal(err)
	}

	if got := loaded.Get(ipaddr.MustParse("9.9.9.9")); got != 0 {
		t.Errorf("stale entry survived Load: got %d, want 0", got)
	}
	if got := loaded.Get(ipaddr.MustParse("1.1.1.1")); got != 5 {
		t.Errorf("loaded entry = %d, want 5", got)
	}
}

func TestSaveDoesNotClobberOnFailure(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "existing.sau")

	e := engine.New()
	e.Set(ipaddr.MustParse("1.1.1.1"), 1)
	if err := Save(e, path); err != nil {
		t.Fatal(err)
	}

	// Saving into a directory that doesn't exist should fail without
	// touching the original file.
	if err := Save(e, filepath.Join(dir, "missing-subdir", "x.sau")); err == nil {
		t.Fatal("expected error saving into nonexistent directory")
	}

	loaded := engine.New()
	if err := Load(loaded, path); err != nil {
		t.Fatal(err)
	}
	if got := loaded.Get(ipaddr.MustParse("1.1.1.1")); got != 1 {
		t.Errorf("original archive was modified: got %d, want 1", got)
	}
}
