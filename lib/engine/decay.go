// Copyright (C) 2024 The Syncthing Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

package engine

import "time"

// Decay multiplies every nonzero score by decayFactor and snaps any score
// whose magnitude falls at or below deadzone down to zero. decayFactor
// must be in [0,1]; values outside that range make Decay a no-op and
// return 0. Returns the number of scores it examined (the count of
// addresses that were nonzero before the sweep).
//
// Decay iterates every allocated /16-then-/24 in directory order, skipping
// any /24 whose bitmap bit is clear and clearing the bit for any block
// whose active count reaches zero during the sweep — exactly the
// reference implementation's scalar decay path, which its own comments
// note is required for deterministic rounding (a SIMD decay pass can
// disagree at the last bit of Q15 precision).
func (e *Engine) Decay(decayFactor float64, deadzone int16) int64 {
	if decayFactor < 0 || decayFactor > 1 {
		return 0
	}
	t0 := time.Now()
	absDeadzone := deadzone
	if absDeadzone < 0 {
		absDeadzone = -absDeadzone
	}

	var examined int64

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
			prefix24 := uint32(p16)<<8 | uint32(b)
			if !e.bitmap.test(prefix24) {
				continue
			}
			if blk.activeCount.Load() == 0 {
				e.bitmap.clear(prefix24)
				continue
			}

			blk.mu.Lock()
			for h := 0; h < scoresPerBlock; h++ {
				old := blk.cells[h].Load()
				if old == 0 {
					continue
				}
				examined++
				newVal := int32(float64(old) * decayFactor)
				if newVal >= -int32(absDeadzone) && newVal <= int32(absDeadzone) {
					newVal = 0
				}
				if newVal != old {
					blk.setLocked(uint8(h), newVal)
					if old != 0 && newVal == 0 {
						e.scoreCount.Add(-1)
					}
				}
			}
			if blk.activeCount.Load() == 0 {
				e.bitmap.clear(prefix24)
			}
			blk.mu.Unlock()
		}
	}

	engineOperations.WithLabelValues(opDecay, resultSuccess).Inc()
	engineOperationSeconds.WithLabelValues(opDecay).Observe(time.Since(t0).Seconds())
	e.reportStats()
	log.Debugf("decay sweep examined %d scores in %s", examined, time.Since(t0))
	return examined
}
