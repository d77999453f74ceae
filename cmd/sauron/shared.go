// Copyright (C) 2024 The Syncthing Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package main

import (
	"fmt"
	"os"

	"github.com/rondilley/Sauron-Lib/lib/engine"
	"github.com/rondilley/Sauron-Lib/lib/ipaddr"
	"github.com/rondilley/Sauron-Lib/lib/logger"
	"github.com/rondilley/Sauron-Lib/lib/snapshot"
)

var log = logger.DefaultLogger.NewFacility("cli", "sauron command-line interface")

// openEngine constructs an Engine, loading cli.Archive into it if the path
// is set and the file exists. A missing archive is not an error — the
// engine simply starts empty, matching the reference CLI's behavior on
// first use.
func openEngine(cli *CLI) (*engine.Engine, error) {
	e := engine.New()
	if cli.Archive == "" {
		return e, nil
	}
	if _, err := os.Stat(cli.Archive); os.IsNotExist(err) {
		return e, nil
	}
	if err := snapshot.Load(e, cli.Archive); err != nil {
		return nil, fmt.Errorf("loading %s: %w", cli.Archive, err)
	}
	return e, nil
}

// saveEngine persists e to cli.Archive, if set. Commands that mutate the
// engine call this after a successful operation.
func saveEngine(cli *CLI, e *engine.Engine) error {
	if cli.Archive == "" {
		return nil
	}
	if err := snapshot.Save(e, cli.Archive); err != nil {
		return fmt.Errorf("saving %s: %w", cli.Archive, err)
	}
	return nil
}

func parseAddress(s string) (uint32, error) {
	addr, ok := ipaddr.Parse(s)
	if !ok {
		return 0, fmt.Errorf("invalid IPv4 address %q", s)
	}
	return addr, nil
}
