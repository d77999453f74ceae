// Copyright (C) 2024 The Syncthing Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package main

import "fmt"

// DecayCmd applies a multiplicative decay sweep to every score in the
// archive and saves it afterward.
type DecayCmd struct {
	Factor   float64 `arg:"" help:"Decay multiplier in [0,1]."`
	Deadzone int16   `arg:"" optional:"" default:"0" help:"Scores whose magnitude falls at or below this are snapped to zero."`
}

func (c *DecayCmd) Run(cli *CLI) error {
	e, err := openEngine(cli)
	if err != nil {
		return err
	}
	examined := e.Decay(c.Factor, c.Deadzone)
	if err := saveEngine(cli, e); err != nil {
		return err
	}
	fmt.Printf("decayed %d scores\n", examined)
	return nil
}
