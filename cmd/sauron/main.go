// Copyright (C) 2024 The Syncthing Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

// Command sauron is a CLI front-end over the in-memory IPv4 scoring
// engine: one process invocation performs one operation, optionally
// loading and saving an on-disk archive around it.
package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"

	_ "github.com/rondilley/Sauron-Lib/lib/automaxprocs"
	"github.com/rondilley/Sauron-Lib/lib/engine"
	"github.com/rondilley/Sauron-Lib/lib/logger"
)

// CLI is the root kong command: global flags shared by every subcommand,
// plus the subcommand table itself.
type CLI struct {
	Debug   bool   `short:"d" help:"Enable debug logging for all facilities."`
	Archive string `short:"f" help:"Path to the score archive file (loaded before, saved after mutating commands)." type:"path"`

	Get       GetCmd       `cmd:"" help:"Print the score for an address."`
	Set       SetCmd       `cmd:"" help:"Set the score for an address."`
	Incr      IncrCmd      `cmd:"" help:"Increment the score for an address."`
	Decr      DecrCmd      `cmd:"" help:"Decrement the score for an address."`
	Delete    DeleteCmd    `cmd:"" help:"Zero the score for an address."`
	Decay     DecayCmd     `cmd:"" help:"Apply a decay sweep to every score in the archive."`
	Stats     StatsCmd     `cmd:"" help:"Print engine statistics."`
	Load      LoadCmd      `cmd:"" help:"Bulk-load scores from a CSV file into the archive."`
	Save      SaveCmd      `cmd:"" help:"Rewrite the archive file."`
	Benchmark BenchmarkCmd `cmd:"" help:"Run a concurrent throughput benchmark."`

	Version kong.VersionFlag `short:"v" default:"${version}" help:"Print version and exit."`
}

func main() {
	var cli CLI
	parser, err := kong.New(&cli,
		kong.Name("sauron"),
		kong.Description("Concurrent in-memory IPv4 address scoring engine."),
		kong.Vars{"version": engine.Version()},
		kong.UsageOnError(),
	)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	kongCtx, err := parser.Parse(os.Args[1:])
	parser.FatalIfErrorf(err)

	if cli.Debug {
		logger.DefaultLogger.SetDebug("engine", true)
		logger.DefaultLogger.SetDebug("snapshot", true)
		logger.DefaultLogger.SetDebug("bulkload", true)
		logger.DefaultLogger.SetDebug("cli", true)
	}

	if err := kongCtx.Run(&cli); err != nil {
		fmt.Fprintln(os.Stderr, "sauron:", err)
		os.Exit(1)
	}
}
