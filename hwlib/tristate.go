// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hwlib

import (
	"strconv"
	"strings"

	"github.com/db47h/spinesim"
)

// A ContentionError is reported as a circuit fault by BusN when more than one
// of its inputs drives the net during the same step.
//
type ContentionError struct {
	Part    string // name of the BusN part
	Drivers []int  // inputs driving the net
}

func (e *ContentionError) Error() string {
	var b strings.Builder
	b.WriteString(e.Part)
	b.WriteString(": bus contention between inputs")
	for i, d := range e.Drivers {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteByte(' ')
		b.WriteString(strconv.Itoa(d))
	}
	return b.String()
}

// TriN returns a N-bits tri-state buffer.
//
//	Inputs: in[bits], en
//	Outputs: out[bits]
//	Function: for i := range out { if en { out[i] = in[i] } else { out[i] = Z } }
//
func TriN(bits int) spinesim.NewPartFn {
	return (&spinesim.PartSpec{
		Name:    "TRI" + strconv.Itoa(bits),
		Inputs:  append(bus(bits, pIn), pEn),
		Outputs: bus(bits, pOut),
		Mount: func(s *spinesim.Socket) []spinesim.Component {
			in, en, out := s.Bus(pIn, bits), s.Pin(pEn), s.Bus(pOut, bits)
			return []spinesim.Component{func(c *spinesim.Circuit) {
				if !c.Get(en) {
					for _, o := range out {
						c.Drive(o, spinesim.Z)
					}
					return
				}
				for i, o := range out {
					c.Drive(o, c.Level(in[i]))
				}
			}}
		}}).NewPart
}

// BusN returns a N-bits net shared by several tri-state drivers. Driver w is
// connected to pins in[w*bits] to in[w*bits+bits-1].
//
//	Inputs: in[ways*bits]
//	Outputs: out[bits]
//	Function: for i := range out { out[i] = the only driven input bit, or Z }
//
// If more than one driver is active at the same time, the contended bits are
// left floating and a *ContentionError is reported with Circuit.Fault.
//
func BusN(ways, bits int) spinesim.NewPartFn {
	return NamedBusN("BUS"+strconv.Itoa(ways)+"x"+strconv.Itoa(bits), ways, bits)
}

// NamedBusN is like BusN with a custom part name. The name is reported in
// the ContentionError faults of the part, so that nets of the same size can
// be told apart.
//
func NamedBusN(name string, ways, bits int) spinesim.NewPartFn {
	return (&spinesim.PartSpec{
		Name:    name,
		Inputs:  bus(ways*bits, pIn),
		Outputs: bus(bits, pOut),
		Mount: func(s *spinesim.Socket) []spinesim.Component {
			in, out := s.Bus(pIn, ways*bits), s.Bus(pOut, bits)
			return []spinesim.Component{func(c *spinesim.Circuit) {
				var contended []bool
				for i, o := range out {
					l, first, n := spinesim.Z, -1, 0
					for w := 0; w < ways; w++ {
						v := c.Level(in[w*bits+i])
						if !v.Driven() {
							continue
						}
						if n++; n == 1 {
							l, first = v, w
							continue
						}
						if contended == nil {
							contended = make([]bool, ways)
						}
						contended[first], contended[w] = true, true
					}
					if n > 1 {
						l = spinesim.Z
					}
					c.Drive(o, l)
				}
				if contended != nil {
					e := &ContentionError{Part: name}
					for w, x := range contended {
						if x {
							e.Drivers = append(e.Drivers, w)
						}
					}
					c.Fault(e)
				}
			}}
		}}).NewPart
}

var tie = spinesim.PartSpec{
	Name:    "TIE",
	Inputs:  nil,
	Outputs: []string{"k_zero", "k_one"},
	Mount: func(s *spinesim.Socket) []spinesim.Component {
		lo, hi := s.Pin("k_zero"), s.Pin("k_one")
		return []spinesim.Component{func(c *spinesim.Circuit) {
			c.Set(lo, false)
			c.Set(hi, true)
		}}
	},
}

// Tie returns a tie-off cell providing constant levels to inputs that must
// never float.
//
//	Outputs: k_zero, k_one
//	Function: k_zero = 0, k_one = 1
//
func Tie(w string) spinesim.Part { return tie.NewPart(w) }
