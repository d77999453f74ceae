// Copyright (C) 2024 The Syncthing Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package main

import "fmt"

// SetCmd assigns an absolute score to an address and saves the archive
// afterward.
type SetCmd struct {
	Address string `arg:"" help:"IPv4 address to set."`
	Score   int16  `arg:"" help:"Score to assign, in [-32767,32767]."`
}

func (c *SetCmd) Run(cli *CLI) error {
	addr, err := parseAddress(c.Address)
	if err != nil {
		return err
	}
	e, err := openEngine(cli)
	if err != nil {
		return err
	}
	old, err := e.Set(addr, c.Score)
	if err != nil {
		return err
	}
	if err := saveEngine(cli, e); err != nil {
		return err
	}
	fmt.Printf("%s: %d -> %d\n", c.Address, old, c.Score)
	return nil
}
