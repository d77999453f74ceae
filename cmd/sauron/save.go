// Copyright (C) 2024 The Syncthing Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package main

import (
	"fmt"

	"github.com/rondilley/Sauron-Lib/lib/snapshot"
)

// SaveCmd rewrites the archive file from the engine's current state. It
// is mostly useful for normalizing an archive (e.g. after an out-of-band
// modification) since every mutating command already saves on its own.
type SaveCmd struct{}

func (c *SaveCmd) Run(cli *CLI) error {
	if cli.Archive == "" {
		return fmt.Errorf("save requires -f <archive>")
	}
	e, err := openEngine(cli)
	if err != nil {
		return err
	}
	if err := snapshot.Save(e, cli.Archive); err != nil {
		return err
	}
	fmt.Printf("saved %d entries to %s\n", e.Count(), cli.Archive)
	return nil
}
