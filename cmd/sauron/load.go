// Copyright (C) 2024 The Syncthing Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package main

import (
	"fmt"

	"github.com/rondilley/Sauron-Lib/lib/bulkload"
)

// LoadCmd applies a CSV bulk-scoring file to the archive and saves the
// result.
type LoadCmd struct {
	Path     string `arg:"" type:"existingfile" help:"CSV file to load."`
	Parallel int    `help:"Number of parsing workers (0 uses the sequential loader)." default:"0"`
}

func (c *LoadCmd) Run(cli *CLI) error {
	e, err := openEngine(cli)
	if err != nil {
		return err
	}

	var stats bulkload.Stats
	if c.Parallel > 0 {
		stats, err = bulkload.LoadParallel(e, c.Path, c.Parallel)
	} else {
		stats, err = bulkload.Load(e, c.Path)
	}
	if err != nil {
		return err
	}

	if err := saveEngine(cli, e); err != nil {
		return err
	}

	fmt.Printf("processed=%d skipped=%d sets=%d updates=%d parse_errors=%d elapsed=%.3fs rate=%.0f/s\n",
		stats.LinesProcessed, stats.LinesSkipped, stats.Sets, stats.Updates,
		stats.ParseErrors, stats.ElapsedSeconds, stats.LinesPerSecond)
	return nil
}
