// Copyright (C) 2024 The Syncthing Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

// Package engine implements the in-memory IPv4 scoring structure: a
// bitmap existence filter over the three-level bitmap/directory/block
// layout described by the project's specification, offering concurrent
// lock-free reads and per-block-locked writes.
package engine

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/rondilley/Sauron-Lib/lib/ipaddr"
	"github.com/rondilley/Sauron-Lib/lib/logger"
)

const (
	prefix16Count    = 1 << 16
	allocLockStripes = 256
)

var log = logger.DefaultLogger.NewFacility("engine", "in-memory scoring structure")

// blockSlots holds the 256 score-block pointers for one /16 network,
// indexed by block index (the third octet).
type blockSlots [blocksPer16]atomic.Pointer[scoreBlock]

// Engine is the concurrent scoring structure. The zero value is not usable;
// construct with New.
type Engine struct {
	bitmap     *bitmap
	directory  []atomic.Pointer[blockSlots]
	allocLocks [allocLockStripes]sync.Mutex

	scoreCount         atomic.Int64
	blockCount         atomic.Int64
	directoryAllocated atomic.Int64

	maxBlocks int64 // 0 = unlimited
}

// Option configures an Engine at construction time.
type Option func(*Engine)

// WithMaxBlocks caps the number of /24 score blocks the engine will
// allocate. Once the cap is reached, writes that would require a new
// block become no-ops returning ErrOutOfMemory, mirroring the reference
// implementation's allocation-failure contract (Go has no recoverable
// malloc-failure equivalent, so this is the documented substitute — see
// the Open Questions section of SPEC_FULL.md). 0 (the default) means
// unlimited.
func WithMaxBlocks(n int64) Option {
	return func(e *Engine) { e.maxBlocks = n }
}

// New creates an empty Engine.
func New(opts ...Option) *Engine {
	e := &Engine{
		bitmap:    newBitmap(),
		directory: make([]atomic.Pointer[blockSlots], prefix16Count),
	}
	for _, opt := range opts {
		opt(e)
	}
	log.Debugf("created engine, maxBlocks=%d", e.maxBlocks)
	return e
}

// getBlock returns the existing score block for addr without allocating
// one, and whether it was found.
func (e *Engine) getBlock(addr uint32) (*scoreBlock, bool) {
	prefix24 := ipaddr.Prefix24(addr)
	if !e.bitmap.test(prefix24) {
		return nil, false
	}
	prefix16 := ipaddr.Prefix16(addr)
	slots := e.directory[prefix16].Load()
	if slots == nil {
		return nil, false
	}
	blk := slots[ipaddr.BlockIndex(addr)].Load()
	if blk == nil {
		return nil, false
	}
	return blk, true
}

// getOrAllocBlock returns the score block for addr, allocating the
// directory slot array and/or the block itself if necessary.
func (e *Engine) getOrAllocBlock(addr uint32) (*scoreBlock, error) {
	prefix24 := ipaddr.Prefix24(addr)
	prefix16 := ipaddr.Prefix16(addr)
	blockIdx := ipaddr.BlockIndex(addr)

	if e.bitmap.test(prefix24) {
		if slots := e.directory[prefix16].Load(); slots != nil {
			if blk := slots[blockIdx].Load(); blk != nil {
				return blk, nil
			}
		}
	}

	stripe := &e.allocLocks[prefix16%allocLockStripes]
	stripe.Lock()
	defer stripe.Unlock()

	slots := e.directory[prefix16].Load()
	if slots == nil {
		if e.maxBlocks != 0 && e.blockCount.Load() >= e.maxBlocks {
			return nil, ErrOutOfMemory
		}
		slots = &blockSlots{}
		e.directory[prefix16].Store(slots)
		e.directoryAllocated.Add(1)
	}

	blk := slots[blockIdx].Load()
	if blk == nil {
		if e.maxBlocks != 0 && e.blockCount.Load() >= e.maxBlocks {
			return nil, ErrOutOfMemory
		}
		blk = newScoreBlock()
		slots[blockIdx].Store(blk)
		e.blockCount.Add(1)
	}

	e.bitmap.set(prefix24)
	return blk, nil
}

// Get returns the current score for addr, or 0 if it has never been set
// (or has decayed/been deleted back to zero).
func (e *Engine) Get(addr uint32) int16 {
	t0 := time.Now()
	blk, ok := e.getBlock(addr)
	defer func() {
		engineOperations.WithLabelValues(opGet, resultSuccess).Inc()
		engineOperationSeconds.WithLabelValues(opGet).Observe(time.Since(t0).Seconds())
	}()
	if !ok {
		return 0
	}
	return blk.get(ipaddr.HostIndex(addr))
}

// GetEx returns the current score for addr and reports whether addr
// currently holds a nonzero score. Zero means absent: an address that was
// never set, explicitly set to zero, deleted, or decayed to zero all
// report present == false.
func (e *Engine) GetEx(addr uint32) (score int16, present bool) {
	blk, ok := e.getBlock(addr)
	if !ok {
		return 0, false
	}
	s := blk.get(ipaddr.HostIndex(addr))
	return s, s != 0
}

// Set assigns score to addr and returns the previous score. Returns
// ErrOutOfMemory if a MaxBlocks cap prevented allocating backing storage.
func (e *Engine) Set(addr uint32, score int16) (int16, error) {
	t0 := time.Now()
	blk, err := e.getOrAllocBlock(addr)
	if err != nil {
		engineOperations.WithLabelValues(opSet, resultOutOfMem).Inc()
		return 0, err
	}
	blk.mu.Lock()
	old := blk.setLocked(ipaddr.HostIndex(addr), int32(score))
	blk.mu.Unlock()

	e.adjustScoreCount(old, score)
	engineOperations.WithLabelValues(opSet, resultSuccess).Inc()
	engineOperationSeconds.WithLabelValues(opSet).Observe(time.Since(t0).Seconds())
	e.reportStats()
	return old, nil
}

// Increment adds delta to addr's score, saturating at the engine's score
// bounds, and returns the new score.
func (e *Engine) Increment(addr uint32, delta int16) (int16, error) {
	if delta == 0 {
		return e.Get(addr), nil
	}
	t0 := time.Now()
	blk, err := e.getOrAllocBlock(addr)
	if err != nil {
		engineOperations.WithLabelValues(opIncrement, resultOutOfMem).Inc()
		return 0, err
	}
	host := ipaddr.HostIndex(addr)

	blk.mu.Lock()
	old := blk.cells[host].Load()
	newVal := saturatingAdd(old, int32(delta))
	blk.setLocked(host, newVal)
	blk.mu.Unlock()

	e.adjustScoreCount(int16(old), int16(newVal))
	engineOperations.WithLabelValues(opIncrement, resultSuccess).Inc()
	engineOperationSeconds.WithLabelValues(opIncrement).Observe(time.Since(t0).Seconds())
	e.reportStats()
	return int16(newVal), nil
}

// Decrement subtracts delta from addr's score, saturating at the engine's
// score bounds, and returns the new score. delta == math.MinInt16 is
// special-cased (negating it would overflow int16): its negation is clamped
// to 32767, so the call becomes Increment(addr, 32767).
func (e *Engine) Decrement(addr uint32, delta int16) (int16, error) {
	if delta == -32768 {
		return e.Increment(addr, 32767)
	}
	return e.Increment(addr, -delta)
}

// Delete zeroes addr's score (if it was nonzero) and returns the score it
// had. It never allocates backing storage.
func (e *Engine) Delete(addr uint32) int16 {
	blk, ok := e.getBlock(addr)
	if !ok {
		engineOperations.WithLabelValues(opDelete, resultMiss).Inc()
		return 0
	}
	host := ipaddr.HostIndex(addr)

	blk.mu.Lock()
	old := blk.setLocked(host, 0)
	blk.mu.Unlock()

	if old != 0 {
		e.scoreCount.Add(-1)
		engineOperations.WithLabelValues(opDelete, resultHit).Inc()
	} else {
		engineOperations.WithLabelValues(opDelete, resultMiss).Inc()
	}
	e.reportStats()
	return old
}

func (e *Engine) adjustScoreCount(old, new int16) {
	if old == 0 && new != 0 {
		e.scoreCount.Add(1)
	} else if old != 0 && new == 0 {
		e.scoreCount.Add(-1)
	}
}

// Count returns the number of addresses currently holding a nonzero score.
func (e *Engine) Count() int64 { return e.scoreCount.Load() }

// BlockCount returns the number of /24 score blocks currently allocated.
func (e *Engine) BlockCount() int64 { return e.blockCount.Load() }

// MemoryUsage estimates the engine's current heap footprint in bytes:
// the bitmap, the allocated directory slot arrays, and the allocated
// score blocks.
func (e *Engine) MemoryUsage() int64 {
	const (
		bitmapBytes     = bitmapSize24 / 8
		blockSlotsBytes = blocksPer16 * 8 // pointer-sized slots
		scoreBlockBytes = scoresPerBlock*4 + 64
	)
	return int64(bitmapBytes) +
		e.directoryAllocated.Load()*blockSlotsBytes +
		e.blockCount.Load()*scoreBlockBytes
}

// Clear resets every score to zero and clears the bitmap, without
// releasing allocated directory or block storage (mirroring the reference
// implementation, whose block allocations are never freed while the
// engine is alive).
func (e *Engine) Clear() {
	for p16 := 0; p16 < prefix16Count; p16++ {
		slots := e.directory[p16].Load()
		if slots == nil {
			continue
		}
		for b := 0; b < blocksPer16; b++ {
			blk := slots[b].Load()
			if blk == nil {
				continue
			}
			blk.mu.Lock()
			for h := range blk.cells {
				blk.cells[h].Store(0)
			}
			blk.activeCount.Store(0)
			blk.mu.Unlock()
		}
	}
	for i := range e.bitmap.words {
		e.bitmap.words[i].Store(0)
	}
	e.scoreCount.Store(0)
	e.reportStats()
	engineOperations.WithLabelValues(opClear, resultSuccess).Inc()
}

// VisitFunc is called once per nonzero-scored address during ForEach. If
// it returns false, iteration stops early.
type VisitFunc func(addr uint32, score int16) bool

// ForEach calls visit for every address currently holding a nonzero score.
// Iteration order follows the directory layout (ascending /16, then
// block, then host) and is not a consistent snapshot under concurrent
// mutation — a torn read of an in-flight write may or may not be observed,
// matching the reference implementation's documented behavior.
func (e *Engine) ForEach(visit VisitFunc) {
	for p16 := 0; p16 < prefix16Count; p16++ {
		slots := e.directory[p16].Load()
		if slots == nil {
			continue
		}
		for b := 0; b < blocksPer16; b++ {
			blk := slots[b].Load()
			if blk == nil || blk.activeCount.Load() == 0 {
				continue
			}
			base := uint32(p16)<<16 | uint32(b)<<8
			for h := 0; h < scoresPerBlock; h++ {
				score := blk.get(uint8(h))
				if score == 0 {
					continue
				}
				if !visit(base|uint32(h), score) {
					engineOperations.WithLabelValues(opForEach, resultSuccess).Inc()
					return
				}
			}
		}
	}
	engineOperations.WithLabelValues(opForEach, resultSuccess).Inc()
}
