// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package fabric

import (
	"fmt"
)

// An Address is the 4 bits strap identifying a unit on the spine.
//
type Address uint8

// MaxAddress is the highest valid strap.
//
const MaxAddress Address = 1<<AddrBits - 1

// Valid returns true if a fits in 4 bits.
//
func (a Address) Valid() bool { return a <= MaxAddress }

func (a Address) String() string { return fmt.Sprintf("%#x", uint8(a)) }

// Row is the row of a slot within its column.
//
type Row uint8

// Rows.
//
const (
	Bottom Row = iota
	Top
)

func (r Row) String() string {
	if r == Top {
		return "top"
	}
	return "bottom"
}

// A Slot is an addressable endpoint of a unit.
//
type Slot struct {
	Column int
	Row    Row
}

// SlotAt returns the slot with the given index. See Slot.Index.
//
func SlotAt(i int) Slot { return Slot{i / 2, Row(i & 1)} }

// Index returns the position of the slot in the flat slot buses of a unit:
// 2n for the bottom slot of column n, 2n+1 for the top one.
//
func (s Slot) Index() int { return 2*s.Column + int(s.Row) }

// Group returns the group s belongs to.
//
func (s Slot) Group() Group { return Group(s.Column / 2) }

func (s Slot) String() string { return fmt.Sprintf("(%d,%s)", s.Column, s.Row) }

// A Group is a set of 4 slots: two adjacent columns A and B, both rows.
//
type Group int

// Members returns the slots of g in canonical order: bottom of A, top of A,
// bottom of B, top of B. Member i has index 4g+i.
//
func (g Group) Members() [4]Slot {
	a := 2 * int(g)
	return [4]Slot{{a, Bottom}, {a, Top}, {a + 1, Bottom}, {a + 1, Top}}
}

// A SelectCode is the 10 bits select field of an inward spine frame.
//
type SelectCode uint16

// Select field layout.
//
const (
	parityBit  = 0
	groupShift = 1
	groupMask  = 0xf
	halfBit    = 5
	rowShift   = 6
	selMask    = 1<<SelectBits - 1
)

// NewSelectCode returns the select code addressing slot s of the unit strapped
// at a.
//
func NewSelectCode(a Address, s Slot) SelectCode {
	return SelectCode(a&MaxAddress)<<rowShift |
		SelectCode(s.Row&1)<<halfBit |
		SelectCode(s.Group()&groupMask)<<groupShift |
		SelectCode(s.Column&1)<<parityBit
}

// RowAddress returns the address of the selected unit.
//
func (c SelectCode) RowAddress() Address { return Address(c>>rowShift) & MaxAddress }

// RowHalf returns the selected row.
//
func (c SelectCode) RowHalf() Row { return Row(c>>halfBit) & 1 }

// Group returns the selected group. It may be out of range for a unit.
//
func (c SelectCode) Group() Group { return Group(c>>groupShift) & groupMask }

// ColumnParity returns 0 for column A of the selected group, 1 for column B.
//
func (c SelectCode) ColumnParity() int { return int(c>>parityBit) & 1 }

// Selector returns the part of the code that selects a slot within a unit.
//
func (c SelectCode) Selector() SlotSelector { return SlotSelector(c & (1<<rowShift - 1)) }

// Valid returns true if c fits in the select field.
//
func (c SelectCode) Valid() bool { return c <= selMask }

func (c SelectCode) String() string { return fmt.Sprintf("%#03x", uint16(c)) }

// A SlotSelector holds the 6 low bits of a select code. The same bits are
// read in two ways:
//
// On the read path, the group output multiplexer uses a 2 bits index into
// the group members, {parity, half}, with the parity as the high bit.
//
// On the write path, each slot compares the parity and half bits against its
// own column parity and row.
//
// Both views resolve to the same physical slot for every code.
//
type SlotSelector uint8

// Group returns the selected group.
//
func (s SlotSelector) Group() Group { return SelectCode(s).Group() }

// ReadIndex returns the index of the selected slot in Group().Members().
//
func (s SlotSelector) ReadIndex() int {
	c := SelectCode(s)
	return c.ColumnParity()<<1 | int(c.RowHalf())
}

// WriteCoordinates returns the column parity and row that the write path
// matches against each slot.
//
func (s SlotSelector) WriteCoordinates() (parity int, half Row) {
	c := SelectCode(s)
	return c.ColumnParity(), c.RowHalf()
}

// ReadSlot returns the slot driven onto the spine by the read path.
//
func (s SlotSelector) ReadSlot() Slot { return s.Group().Members()[s.ReadIndex()] }

// WriteSlot returns the slot enabled by the write path.
//
func (s SlotSelector) WriteSlot() Slot {
	parity, half := s.WriteCoordinates()
	return Slot{2*int(s.Group()) + parity, half}
}
