// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hwlib

import (
	"strconv"

	"github.com/db47h/spinesim"
)

// ways of the leaf multiplexer, in select order.
var muxWays = [4]string{pA, pB, "c", "d"}

// Mux4WayN returns a 4-Way N-bits Mux. This is the leaf selection cell of the
// output multiplexer tree.
//
//	Inputs: a[bits], b[bits], c[bits], d[bits], sel[2]
//	Outputs: out[bits]
//	Function: out = [a, b, c, d][sel]
//
// The selected input level is copied as is, so a floating input yields a
// floating output.
//
func Mux4WayN(bits int) spinesim.NewPartFn {
	var inputs []string
	for _, w := range muxWays {
		inputs = append(inputs, bus(bits, w)...)
	}
	return (&spinesim.PartSpec{
		Name:    "MUX4Way" + strconv.Itoa(bits),
		Inputs:  append(inputs, bus(2, pSel)...),
		Outputs: bus(bits, pOut),
		Mount: func(s *spinesim.Socket) []spinesim.Component {
			var ins [4][]int
			for i, w := range muxWays {
				ins[i] = s.Bus(w, bits)
			}
			sel, out := s.Bus(pSel, 2), s.Bus(pOut, bits)
			return []spinesim.Component{func(c *spinesim.Circuit) {
				in := ins[busValue(c, sel)]
				for i, o := range out {
					c.Drive(o, c.Level(in[i]))
				}
			}}
		}}).NewPart
}

// busValue returns the value of a bus as an int. Pin 0 is lsb.
//
func busValue(c *spinesim.Circuit, pins []int) int {
	var v int
	for i, p := range pins {
		if c.Get(p) {
			v |= 1 << uint(i)
		}
	}
	return v
}
