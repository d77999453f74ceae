// Copyright (C) 2024 The Syncthing Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package engine

import "github.com/prometheus/client_golang/prometheus"

const (
	opGet       = "get"
	opSet       = "set"
	opIncrement = "increment"
	opDecrement = "decrement"
	opDelete    = "delete"
	opDecay     = "decay"
	opClear     = "clear"
	opForEach   = "foreach"

	resultHit      = "hit"
	resultMiss     = "miss"
	resultOutOfMem = "out_of_memory"
	resultSuccess  = "success"
)

var (
	engineOperations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sauron",
		Subsystem: "engine",
		Name:      "operations_total",
		Help:      "Number of engine operations, by operation and result.",
	}, []string{"operation", "result"})

	engineOperationSeconds = prometheus.NewSummaryVec(prometheus.SummaryOpts{
		Namespace:  "sauron",
		Subsystem:  "engine",
		Name:       "operation_seconds",
		Help:       "Latency of engine operations, by operation.",
		Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
	}, []string{"operation"})

	engineGauges = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "sauron",
		Subsystem: "engine",
		Name:      "stats",
		Help:      "Current engine-wide statistics, by kind.",
	}, []string{"kind"})
)

func init() {
	prometheus.MustRegister(engineOperations, engineOperationSeconds, engineGauges)
}

// reportStats pushes the engine's current counters into the gauge vector.
// Called after any operation that changes score_count/block_count so that
// scraped metrics stay current without a separate polling goroutine.
func (e *Engine) reportStats() {
	engineGauges.WithLabelValues("nonzero_scores").Set(float64(e.scoreCount.Load()))
	engineGauges.WithLabelValues("blocks_allocated").Set(float64(e.blockCount.Load()))
	engineGauges.WithLabelValues("memory_bytes").Set(float64(e.MemoryUsage()))
}
