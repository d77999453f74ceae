// Copyright (C) 2024 The Syncthing Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

// Package ipaddr parses and formats IPv4 addresses and decomposes them
// into the prefix/block/host indices the scoring engine's three-level
// structure is built around.
package ipaddr

import (
	"fmt"
	"strconv"
)

// Prefix24 returns the /24 network index (the top 24 bits) of addr.
func Prefix24(addr uint32) uint32 { return addr >> 8 }

// Prefix16 returns the /16 network index (the top 16 bits) of addr.
func Prefix16(addr uint32) uint32 { return addr >> 16 }

// BlockIndex returns the index of addr's /24 block within its /16 (0-255).
func BlockIndex(addr uint32) uint8 { return uint8((addr >> 8) & 0xFF) }

// HostIndex returns the index of addr's host within its /24 block (0-255).
func HostIndex(addr uint32) uint8 { return uint8(addr & 0xFF) }

// Parse converts a dotted-decimal IPv4 address string to its 32-bit
// representation. It requires exactly four octets in [0,255] separated by
// three dots, with no leading/trailing garbage and no empty octets.
func Parse(s string) (uint32, bool) {
	var octets [4]uint32
	octetIdx := 0
	var cur uint32
	digits := 0

	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= '0' && c <= '9':
			cur = cur*10 + uint32(c-'0')
			digits++
			if digits > 3 || cur > 255 {
				return 0, false
			}
		case c == '.':
			if digits == 0 || octetIdx >= 3 {
				return 0, false
			}
			octets[octetIdx] = cur
			octetIdx++
			cur = 0
			digits = 0
		default:
			return 0, false
		}
	}
	if digits == 0 || octetIdx != 3 {
		return 0, false
	}
	octets[3] = cur

	return octets[0]<<24 | octets[1]<<16 | octets[2]<<8 | octets[3], true
}

// Format renders addr in dotted-decimal notation.
func Format(addr uint32) string {
	return fmt.Sprintf("%d.%d.%d.%d",
		(addr>>24)&0xFF, (addr>>16)&0xFF, (addr>>8)&0xFF, addr&0xFF)
}

// MustParse parses s and panics if it is not a valid IPv4 address. Intended
// for tests and literal constants, not for untrusted input.
func MustParse(s string) uint32 {
	a, ok := Parse(s)
	if !ok {
		panic("ipaddr: invalid address " + strconv.Quote(s))
	}
	return a
}
