// Copyright (C) 2024 The Syncthing Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package main

import "fmt"

// IncrCmd adds delta to an address's score, saturating at the score
// bounds, and saves the archive afterward.
type IncrCmd struct {
	Address string `arg:"" help:"IPv4 address to increment."`
	Delta   int16  `arg:"" optional:"" default:"1" help:"Amount to add."`
}

func (c *IncrCmd) Run(cli *CLI) error {
	addr, err := parseAddress(c.Address)
	if err != nil {
		return err
	}
	e, err := openEngine(cli)
	if err != nil {
		return err
	}
	newVal, err := e.Increment(addr, c.Delta)
	if err != nil {
		return err
	}
	if err := saveEngine(cli, e); err != nil {
		return err
	}
	fmt.Printf("%s: %d\n", c.Address, newVal)
	return nil
}
