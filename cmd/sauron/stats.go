// Copyright (C) 2024 The Syncthing Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package main

import (
	"fmt"

	"github.com/rondilley/Sauron-Lib/lib/engine"
)

// StatsCmd prints engine-wide counters. It never mutates the archive.
type StatsCmd struct{}

func (c *StatsCmd) Run(cli *CLI) error {
	e, err := openEngine(cli)
	if err != nil {
		return err
	}
	fmt.Printf("version:        %s\n", engine.Version())
	fmt.Printf("scored addresses: %d\n", e.Count())
	fmt.Printf("allocated blocks: %d\n", e.BlockCount())
	fmt.Printf("memory usage:     %d bytes\n", e.MemoryUsage())
	return nil
}
