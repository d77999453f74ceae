// Copyright (C) 2024 The Syncthing Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package main

import (
	"fmt"
	"math/rand"
	"runtime"
	"sync"
	"time"

	"github.com/rondilley/Sauron-Lib/lib/engine"
)

// BenchmarkCmd drives concurrent Increment calls against a fresh,
// unarchived engine and reports achieved throughput. Grounded on the
// reference implementation's stress/performance test programs, which
// exercise the same concurrent-increment workload.
type BenchmarkCmd struct {
	Count int `arg:"" optional:"" default:"1000000" help:"Number of increment operations, split evenly across workers (rounded down to a multiple of the worker count, at least one per worker)."`
}

func (c *BenchmarkCmd) Run(cli *CLI) error {
	e := engine.New()
	workers := runtime.GOMAXPROCS(0)
	perWorker := c.Count / workers
	if perWorker == 0 {
		perWorker = 1
	}

	var wg sync.WaitGroup
	start := time.Now()
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			r := rand.New(rand.NewSource(seed))
			for i := 0; i < perWorker; i++ {
				addr := r.Uint32()
				if _, err := e.Increment(addr, 1); err != nil {
					return
				}
			}
		}(int64(w) + 1)
	}
	wg.Wait()
	elapsed := time.Since(start)

	total := perWorker * workers
	rate := float64(total) / elapsed.Seconds()
	fmt.Printf("workers=%d operations=%d elapsed=%s rate=%.0f ops/s\n", workers, total, elapsed, rate)
	fmt.Printf("distinct addresses scored: %d, blocks allocated: %d\n", e.Count(), e.BlockCount())
	return nil
}
