// Copyright (C) 2024 The Syncthing Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package main

import "fmt"

// GetCmd prints the current score for an address. It never mutates the
// archive, so no save occurs afterward.
type GetCmd struct {
	Address string `arg:"" help:"IPv4 address to look up."`
}

func (g *GetCmd) Run(cli *CLI) error {
	addr, err := parseAddress(g.Address)
	if err != nil {
		return err
	}
	e, err := openEngine(cli)
	if err != nil {
		return err
	}
	fmt.Println(e.Get(addr))
	return nil
}
