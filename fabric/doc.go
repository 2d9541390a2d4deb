// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package fabric implements an address-routed spine multiplexer.
//
// A spine is a shared bus running past a chain of row units. Each unit owns a
// grid of 2 rows by N columns of slots and is identified on the spine by a
// 4 bits strap address. The inward spine frame carries a 10 bits select code:
//
//	[9:6] row address, compared against the unit strap
//	[5]   row half (bottom or top)
//	[4:1] group index, one group is two adjacent columns
//	[0]   column parity within the group
//
// On the read path, the selected unit drives the output vector of the
// addressed slot onto the outward spine frame. On the write path, the inward
// payload is broadcast to the addressed slot together with its enable bit;
// every other slot sees zero.
//
// The package provides two models of the same fabric. Unit and Chain are the
// behavioral reference: pure functions over uint64 vectors, with a tri-state
// Bus type and explicit contention reporting through Resolve. UnitChip and
// ChainChip build the same logic out of hwlib parts for the spinesim engine,
// and Bench evaluates them with per-path settle instrumentation. Tests
// compare both models against each other.
//
package fabric
