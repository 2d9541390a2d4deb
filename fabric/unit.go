// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package fabric

import (
	"strconv"

	"github.com/pkg/errors"
)

// A Unit is the behavioral model of one row unit. It is immutable and safe
// for concurrent use.
//
type Unit struct {
	cfg  Config
	addr Address
}

// NewUnit returns a unit strapped at addr.
//
func NewUnit(cfg Config, addr Address) (*Unit, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if !addr.Valid() {
		return nil, errors.Errorf("invalid unit address %d", uint8(addr))
	}
	return &Unit{cfg, addr}, nil
}

// Address returns the unit strap.
//
func (u *Unit) Address() Address { return u.addr }

// Config returns the unit configuration.
//
func (u *Unit) Config() Config { return u.cfg }

// A Result is the response of a unit to an inward spine frame.
//
type Result struct {
	Out         OutFrame // contribution to the outward spine
	SlotIn      []uint64 // slot input vectors, by slot index
	SlotEna     []bool   // slot enables, by slot index
	RowSelected bool
	GroupMatch  []bool
}

// Eval evaluates the unit for the inward spine vector spineIn and the output
// vectors of its slots, indexed by Slot.Index. Output vectors are truncated
// to OutWidth bits.
//
// A unit never drives more than one group onto its output bus; should that
// happen, Eval returns the result with a floating user field and a
// *ContentionError as the error cause.
//
func (u *Unit) Eval(spineIn uint64, slotOut []uint64) (Result, error) {
	if len(slotOut) != u.cfg.Slots() {
		return Result{}, errors.Errorf("got %d slot output vectors, expected %d", len(slotOut), u.cfg.Slots())
	}
	f := u.cfg.UnpackIn(spineIn)
	r := Result{
		RowSelected: decodeRow(f.Select, f.Enable, u.addr, u.cfg.GateOnEnable),
	}
	r.GroupMatch = decodeGroups(r.RowSelected, f.Select.Group(), u.cfg.Groups())
	r.SlotIn, r.SlotEna = broadcastInputs(r.GroupMatch, f.Select.Selector(), f.Payload, u.cfg.Slots())

	user, err := muxOutputs(r.GroupMatch, f.Select.Selector().ReadIndex(), slotOut, mask(u.cfg.OutWidth()))
	r.Out = OutFrame{HighSentinel: TieLo, User: user, LowSentinel: TieLo}
	if err != nil {
		return r, errors.Wrapf(err, "unit %s", u.addr)
	}
	return r, nil
}

// decodeRow compares the row address of sel against the strap.
//
func decodeRow(sel SelectCode, ena bool, addr Address, gate bool) bool {
	return sel.RowAddress() == addr && (ena || !gate)
}

// decodeGroups returns the one-hot group match vector. Out of range group
// indices match no group.
//
func decodeGroups(rowSelected bool, g Group, groups int) []bool {
	m := make([]bool, groups)
	if rowSelected && int(g) < groups {
		m[g] = true
	}
	return m
}

// mux4 is the leaf 4-way selector.
//
func mux4(in [4]uint64, sel int) uint64 { return in[sel&3] }

// muxOutputs selects one member of each group and resolves the contribution
// of all groups to the unit output bus.
//
func muxOutputs(match []bool, idx int, slotOut []uint64, m uint64) (Bus, error) {
	ds := make([]Driver, len(match))
	for g := range match {
		var in [4]uint64
		for i := range in {
			in[i] = slotOut[4*g+i] & m
		}
		ds[g].Name = "group " + strconv.Itoa(g)
		if match[g] {
			ds[g].Bus = Driven(mux4(in, idx))
		}
	}
	return Resolve(ds...)
}

// broadcastInputs gates the payload onto the slot selected by the write path
// coordinates of s. All other slots get zero.
//
func broadcastInputs(match []bool, s SlotSelector, payload uint64, slots int) ([]uint64, []bool) {
	in, ena := make([]uint64, slots), make([]bool, slots)
	parity, half := s.WriteCoordinates()
	for i := range in {
		sl := SlotAt(i)
		if match[sl.Group()] && sl.Column&1 == parity && sl.Row == half {
			in[i], ena[i] = payload, true
		}
	}
	return in, ena
}
