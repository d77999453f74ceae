// Copyright (C) 2024 The Syncthing Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package main

import (
	"path/filepath"
	"testing"
)

func TestParseAddress(t *testing.T) {
	if _, err := parseAddress("1.2.3.4"); err != nil {
		t.Errorf("parseAddress(valid) failed: %v", err)
	}
	if _, err := parseAddress("not an ip"); err == nil {
		t.Error("parseAddress(invalid) unexpectedly succeeded")
	}
}

func TestOpenEngineMissingArchiveStartsEmpty(t *testing.T) {
	cli := &CLI{Archive: filepath.Join(t.TempDir(), "does-not-exist.sau")}
	e, err := openEngine(cli)
	if err != nil {
		t.Fatal(err)
	}
	if e.Count() != 0 {
		t.Errorf("Count = %d, want 0", e.Count())
	}
}

func TestOpenSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "archive.sau")
	cli := &CLI{Archive: path}

	e, err := openEngine(cli)
	if err != nil {
		t.Fatal(err)
	}
	addr, err := parseAddress("10.0.0.1")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := e.Set(addr, 42); err != nil {
		t.Fatal(err)
	}
	if err := saveEngine(cli, e); err != nil {
		t.Fatal(err)
	}

	reloaded, err := openEngine(cli)
	if err != nil {
		t.Fatal(err)
	}
	if got := reloaded.Get(addr); got != 42 {
		t.Errorf("reloaded score = %d, want 42", got)
	}
}
