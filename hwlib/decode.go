// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hwlib

import (
	"strconv"

	"github.com/db47h/spinesim"
)

// DecodeN returns a N-bits to 2^N lines one-hot decoder with enable.
//
//	Inputs: in[bits], en
//	Outputs: out[1<<bits]
//	Function: for i := range out { out[i] = en && in == i }
//
func DecodeN(bits int) spinesim.NewPartFn {
	lines := 1 << uint(bits)
	return (&spinesim.PartSpec{
		Name:    "DECODE" + strconv.Itoa(bits),
		Inputs:  append(bus(bits, pIn), pEn),
		Outputs: bus(lines, pOut),
		Mount: func(s *spinesim.Socket) []spinesim.Component {
			in, en, out := s.Bus(pIn, bits), s.Pin(pEn), s.Bus(pOut, lines)
			return []spinesim.Component{
				func(c *spinesim.Circuit) {
					n := busValue(c, in)
					if !c.Get(en) {
						n = -1
					}
					for i, o := range out {
						c.Set(o, i == n)
					}
				}}
		}}).NewPart
}
