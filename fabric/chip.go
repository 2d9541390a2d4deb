// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package fabric

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/db47h/spinesim"
	"github.com/db47h/spinesim/hwlib"
	"github.com/pkg/errors"
)

// rowDecoder compares the row address field of the select code against the
// strap pins.
//
type rowDecoder struct {
	Sel  [AddrBits]int `hw:"in"`
	Addr [AddrBits]int `hw:"in"`
	Out  int           `hw:"out,match"`
}

func (d *rowDecoder) Update(c *spinesim.Circuit) {
	for i := range d.Sel {
		if c.Get(d.Sel[i]) != c.Get(d.Addr[i]) {
			c.Set(d.Out, false)
			return
		}
	}
	c.Set(d.Out, true)
}

var rowDecoderSpec = spinesim.MakePart((*rowDecoder)(nil))

// span returns a bus range connection operand: name[off..off+n-1].
//
func span(name string, off, n int) string {
	return fmt.Sprintf("%s[%d..%d]", name, off, off+n-1)
}

type conns []string

func (c *conns) add(pp, cp string) { *c = append(*c, pp+"="+cp) }

func (c conns) String() string { return strings.Join(c, ", ") }

// Spine pin offsets, see InFrame.
//
func siPin(n int) string { return spinesim.BusPinName("si", n) }

// UnitChip returns a gate-level row unit.
//
//	Inputs: si[SpineInWidth], addr[4], um_ow[Slots*OutWidth]
//	Outputs: so[SpineOutWidth], um_iw[Slots*InWidth], um_ena[Slots], drv
//
// The output vector of slot i is um_ow[i*OutWidth .. (i+1)*OutWidth-1], its
// input vector um_iw[i*InWidth .. (i+1)*InWidth-1] and its enable um_ena[i].
// The strap is provided by the addr pins, usually tied to true or false.
// drv is high while one of the unit groups drives the user field of so.
//
func UnitChip(cfg Config) (spinesim.NewPartFn, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	ow, iw, slots, groups := cfg.OutWidth(), cfg.InWidth(), cfg.Slots(), cfg.Groups()
	var parts []spinesim.Part

	// tie-offs
	var tie conns
	tie.add("k_zero", "so[0]")
	tie.add("k_zero", spinesim.BusPinName("so", ow+1))
	parts = append(parts, hwlib.Tie(tie.String()))

	// row address decode
	var row conns
	row.add(span("sel", 0, AddrBits), span("si", inSelect+rowShift, AddrBits))
	row.add(span("addr", 0, AddrBits), span("addr", 0, AddrBits))
	if cfg.GateOnEnable {
		row.add("match", "row_match")
		parts = append(parts,
			rowDecoderSpec.NewPart(row.String()),
			hwlib.And("a=row_match, b="+siPin(inEnable)+", out=row_sel"))
	} else {
		row.add("match", "row_sel")
		parts = append(parts, rowDecoderSpec.NewPart(row.String()))
	}

	// group decode
	var grp conns
	grp.add(span("in", 0, 4), span("si", inSelect+groupShift, 4))
	grp.add("en", "row_sel")
	grp.add(span("out", 0, groups), span("grp", 0, groups))
	parts = append(parts,
		hwlib.DecodeN(4)(grp.String()),
		hwlib.OrNWay(groups)(span("in", 0, groups)+"="+span("grp", 0, groups)+", out=drv"),
	)

	// read path: one 4-way mux and tri-state buffer per group.
	mux, tri := hwlib.Mux4WayN(ow), hwlib.TriN(ow)
	for g := 0; g < groups; g++ {
		var m conns
		for i, w := range []string{"a", "b", "c", "d"} {
			m.add(span(w, 0, ow), span("um_ow", (4*g+i)*ow, ow))
		}
		// read index {parity, half}
		m.add("sel[0]", siPin(inSelect+halfBit))
		m.add("sel[1]", siPin(inSelect+parityBit))
		mo := "m" + strconv.Itoa(g)
		m.add(span("out", 0, ow), span(mo, 0, ow))
		parts = append(parts, mux(m.String()))

		var t conns
		t.add(span("in", 0, ow), span(mo, 0, ow))
		t.add("en", spinesim.BusPinName("grp", g))
		t.add(span("out", 0, ow), span("t", g*ow, ow))
		parts = append(parts, tri(t.String()))
	}
	var b conns
	b.add(span("in", 0, groups*ow), span("t", 0, groups*ow))
	b.add(span("out", 0, ow), span("so", 1, ow))
	parts = append(parts, hwlib.BusN(groups, ow)(b.String()))

	// write path
	parts = append(parts,
		hwlib.Not("in="+siPin(inSelect+parityBit)+", out=ncp"),
		hwlib.Not("in="+siPin(inSelect+halfBit)+", out=nrh"),
	)
	en, gate := hwlib.AndNWay(3), hwlib.AndN(iw)
	for i := 0; i < slots; i++ {
		s := SlotAt(i)
		var e conns
		e.add("in[0]", spinesim.BusPinName("grp", int(s.Group())))
		if s.Column&1 == 1 {
			e.add("in[1]", siPin(inSelect+parityBit))
		} else {
			e.add("in[1]", "ncp")
		}
		if s.Row == Top {
			e.add("in[2]", siPin(inSelect+halfBit))
		} else {
			e.add("in[2]", "nrh")
		}
		ena := "en" + strconv.Itoa(i)
		e.add("out", spinesim.BusPinName("um_ena", i))
		e.add("out", ena)
		parts = append(parts, en(e.String()))

		var p conns
		p.add(span("a", 0, iw), span("si", inPayload, iw))
		p.add(span("b", 0, iw), ena)
		p.add(span("out", 0, iw), span("um_iw", i*iw, iw))
		parts = append(parts, gate(p.String()))
	}

	chip, err := spinesim.Chip("ROWMUX",
		fmt.Sprintf("si[%d], addr[%d], um_ow[%d]", cfg.SpineInWidth(), AddrBits, slots*ow),
		fmt.Sprintf("so[%d], um_iw[%d], um_ena[%d], drv", cfg.SpineOutWidth(), slots*iw, slots),
		parts...)
	if err != nil {
		return nil, errors.Wrap(err, "row unit")
	}
	return chip, nil
}

// spineBus is the name of the part merging the unit outputs of a chain.
//
const spineBus = "SPINEBUS"

// ChainChip returns a gate-level chain of units strapped at addrs, sharing
// the same spine.
//
//	Inputs: si[SpineInWidth], um_ow[Units*Slots*OutWidth]
//	Outputs: so[SpineOutWidth], um_iw[Units*Slots*InWidth], um_ena[Units*Slots], drv[Units]
//
// Slot buses are those of UnitChip, concatenated in unit order, and drv[u] is
// the drv pin of unit u. The user fields of all units are merged by a
// hwlib.NamedBusN, which reports contention as a circuit fault.
//
func ChainChip(cfg Config, addrs []Address) (spinesim.NewPartFn, error) {
	if len(addrs) == 0 {
		return nil, errors.New("empty chain")
	}
	unit, err := UnitChip(cfg)
	if err != nil {
		return nil, err
	}
	ow, iw, slots, n := cfg.OutWidth(), cfg.InWidth(), cfg.Slots(), len(addrs)
	siw, sow := cfg.SpineInWidth(), cfg.SpineOutWidth()

	var parts []spinesim.Part
	for u, a := range addrs {
		if !a.Valid() {
			return nil, errors.Errorf("unit %d: invalid address %d", u, uint8(a))
		}
		var c conns
		c.add(span("si", 0, siw), span("si", 0, siw))
		for i := 0; i < AddrBits; i++ {
			v := spinesim.False
			if a&(1<<uint(i)) != 0 {
				v = spinesim.True
			}
			c.add(spinesim.BusPinName("addr", i), v)
		}
		c.add(span("um_ow", 0, slots*ow), span("um_ow", u*slots*ow, slots*ow))
		c.add(span("so", 1, ow), span("u"+strconv.Itoa(u), 0, ow))
		c.add(span("um_iw", 0, slots*iw), span("um_iw", u*slots*iw, slots*iw))
		c.add(span("um_ena", 0, slots), span("um_ena", u*slots, slots))
		c.add("drv", spinesim.BusPinName("drv", u))
		parts = append(parts, unit(c.String()))
	}
	var b conns
	for u := 0; u < n; u++ {
		b.add(span("in", u*ow, ow), span("u"+strconv.Itoa(u), 0, ow))
	}
	b.add(span("out", 0, ow), span("so", 1, ow))
	parts = append(parts, hwlib.NamedBusN(spineBus, n, ow)(b.String()))

	var tie conns
	tie.add("k_zero", "so[0]")
	tie.add("k_zero", spinesim.BusPinName("so", sow-1))
	parts = append(parts, hwlib.Tie(tie.String()))

	chip, err := spinesim.Chip("SPINE",
		fmt.Sprintf("si[%d], um_ow[%d]", siw, n*slots*ow),
		fmt.Sprintf("so[%d], um_iw[%d], um_ena[%d], drv[%d]", sow, n*slots*iw, n*slots, n),
		parts...)
	if err != nil {
		return nil, errors.Wrap(err, "spine chain")
	}
	return chip, nil
}
