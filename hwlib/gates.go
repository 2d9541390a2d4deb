// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package hwlib provides the parts the fabric is built from: gates, the leaf
// multiplexer, a one-hot decoder, tri-state buffers and shared nets, tie-off
// cells, and function based inputs, outputs and probes.
//
package hwlib

import (
	"strconv"

	"github.com/db47h/spinesim"
)

// common pin names
const (
	pA   = "a"
	pB   = "b"
	pIn  = "in"
	pEn  = "en"
	pSel = "sel"
	pOut = "out"
)

// make a bus name
func bus(bits int, names ...string) []string {
	b := make([]string, len(names)*bits)
	for i, n := range names {
		for j := 0; j < bits; j++ {
			b[i*bits+j] = spinesim.BusPinName(n, j)
		}
	}
	return b
}

var notGate = spinesim.PartSpec{Name: "NOT", Inputs: []string{pIn}, Outputs: []string{pOut},
	Mount: func(s *spinesim.Socket) []spinesim.Component {
		in, out := s.Pin(pIn), s.Pin(pOut)
		return []spinesim.Component{
			func(c *spinesim.Circuit) { c.Set(out, !c.Get(in)) },
		}
	},
}

// Not returns a NOT gate.
//
//	Inputs: in
//	Outputs: out
//	Function: out = !in
//
func Not(w string) spinesim.Part {
	return notGate.NewPart(w)
}

// other gates
type gate func(a, b bool) bool

func (g gate) mount(s *spinesim.Socket) []spinesim.Component {
	a, b, out := s.Pin(pA), s.Pin(pB), s.Pin(pOut)
	return []spinesim.Component{
		func(c *spinesim.Circuit) { c.Set(out, g(c.Get(a), c.Get(b))) },
	}
}

func newGate(name string, fn func(a, b bool) bool) *spinesim.PartSpec {
	return &spinesim.PartSpec{
		Name:    name,
		Inputs:  []string{pA, pB},
		Outputs: []string{pOut},
		Mount:   gate(fn).mount,
	}
}

var (
	and  = newGate("AND", func(a, b bool) bool { return a && b })
	nand = newGate("NAND", func(a, b bool) bool { return !(a && b) })
)

// And returns a AND gate.
//
//	Inputs: a, b
//	Outputs: out
//	Function: out = a && b
//
func And(w string) spinesim.Part { return and.NewPart(w) }

// Nand returns a NAND gate.
//
//	Inputs: a, b
//	Outputs: out
//	Function: out = !(a && b)
//
func Nand(w string) spinesim.Part { return nand.NewPart(w) }

type gateN struct {
	bits int
	fn   func(bool, bool) bool
}

func (g *gateN) mount(s *spinesim.Socket) []spinesim.Component {
	a, b, out := s.Bus(pA, g.bits), s.Bus(pB, g.bits), s.Bus(pOut, g.bits)
	return []spinesim.Component{
		func(c *spinesim.Circuit) {
			for i := range a {
				c.Set(out[i], g.fn(c.Get(a[i]), c.Get(b[i])))
			}
		},
	}
}

// newGateN returns a N-bits logic gate.
//
//	Inputs: a[bits], b[bits]
//	Outputs: out[bits]
//	Function: for i := range out { out[i] = f(a[i], b[i]) }
//
func newGateN(name string, bits int, f func(bool, bool) bool) spinesim.NewPartFn {
	return (&spinesim.PartSpec{
		Name:    name + strconv.Itoa(bits),
		Inputs:  bus(bits, pA, pB),
		Outputs: bus(bits, pOut),
		Mount:   (&gateN{bits, f}).mount,
	}).NewPart
}

// AndN returns a N-bits AND gate. With all b pins wired to the same enable
// signal, it gates a whole bus.
//
//	Inputs: a[bits], b[bits]
//	Outputs: out[bits]
//	Function: for i := range out { out[i] = a[i] && b[i] }
//
func AndN(bits int) spinesim.NewPartFn {
	return newGateN("AND", bits, func(a, b bool) bool { return a && b })
}

// OrNWay returns a N-Way OR gate. A row unit uses it to flag that one of its
// groups drives the spine.
//
//	Inputs: in[ways]
//	Outputs: out
//	Function: out = in[0] || in[1] || in[2] || ... || in[ways-1]
//
func OrNWay(ways int) spinesim.NewPartFn {
	return (&spinesim.PartSpec{
		Name:    "OR" + strconv.Itoa(ways) + "Way",
		Inputs:  bus(ways, pIn),
		Outputs: []string{pOut},
		Mount: func(s *spinesim.Socket) []spinesim.Component {
			in := s.Bus(pIn, ways)
			out := s.Pin(pOut)
			return []spinesim.Component{
				func(c *spinesim.Circuit) {
					for _, i := range in {
						if c.Get(i) {
							c.Set(out, true)
							return
						}
					}
					c.Set(out, false)
				}}
		}}).NewPart
}

// AndNWay returns a N-Way AND gate.
//
//	Inputs: in[ways]
//	Outputs: out
//	Function: out = in[0] && in[1] && in[2] && ... && in[ways-1]
//
func AndNWay(ways int) spinesim.NewPartFn {
	return (&spinesim.PartSpec{
		Name:    "AND" + strconv.Itoa(ways) + "Way",
		Inputs:  bus(ways, pIn),
		Outputs: []string{pOut},
		Mount: func(s *spinesim.Socket) []spinesim.Component {
			in := s.Bus(pIn, ways)
			out := s.Pin(pOut)
			return []spinesim.Component{
				func(c *spinesim.Circuit) {
					for _, i := range in {
						if !c.Get(i) {
							c.Set(out, false)
							return
						}
					}
					c.Set(out, true)
				}}
		}}).NewPart
}
