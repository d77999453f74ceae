// Copyright (C) 2024 The Syncthing Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package main

import "fmt"

// DeleteCmd zeroes an address's score and saves the archive afterward.
type DeleteCmd struct {
	Address string `arg:"" help:"IPv4 address to delete."`
}

func (c *DeleteCmd) Run(cli *CLI) error {
	addr, err := parseAddress(c.Address)
	if err != nil {
		return err
	}
	e, err := openEngine(cli)
	if err != nil {
		return err
	}
	old := e.Delete(addr)
	if err := saveEngine(cli, e); err != nil {
		return err
	}
	fmt.Printf("%s: %d -> 0\n", c.Address, old)
	return nil
}
