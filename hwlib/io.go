// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hwlib

import (
	"strconv"

	"github.com/db47h/spinesim"
)

// Int64 returns the pins as an int64. Pin 0 is lsb. Floating pins read as 0.
//
func Int64(c *spinesim.Circuit, pins []int) int64 {
	var out int64
	for bit := range pins {
		if c.Get(pins[bit]) {
			out |= 1 << uint(bit)
		}
	}
	return out
}

// SetInt64 sets the pins to the given int64 value.
//
func SetInt64(c *spinesim.Circuit, pins []int, v int64) {
	for bit := range pins {
		c.Set(pins[bit], v&(1<<uint(bit)) != 0)
	}
}

// Input creates a function based input.
//
//	Outputs: out
//	Function: out = f()
//
func Input(f func() bool) spinesim.NewPartFn {
	p := &spinesim.PartSpec{
		Name:    "Input",
		Inputs:  nil,
		Outputs: []string{pOut},
		Mount: func(s *spinesim.Socket) []spinesim.Component {
			pin := s.Pin(pOut)
			return []spinesim.Component{
				func(c *spinesim.Circuit) {
					c.Set(pin, f())
				},
			}
		},
	}
	return p.NewPart
}

// Output creates an output or probe. The fn function is
// called with the named pin state on every circuit update.
//
//	Inputs: in
//	Function: f(in)
//
func Output(f func(bool)) spinesim.NewPartFn {
	p := &spinesim.PartSpec{
		Name:    "Output",
		Inputs:  []string{pIn},
		Outputs: nil,
		Mount: func(s *spinesim.Socket) []spinesim.Component {
			in := s.Pin(pIn)
			return []spinesim.Component{
				func(c *spinesim.Circuit) { f(c.Get(in)) },
			}
		},
	}
	return p.NewPart
}

// InputN creates an input bus of the given bits size.
//
//	Outputs: out[bits]
//	Function: out = f()
//
func InputN(bits int, f func() int64) spinesim.NewPartFn {
	return (&spinesim.PartSpec{
		Name:    "INPUT" + strconv.Itoa(bits),
		Inputs:  nil,
		Outputs: bus(bits, pOut),
		Mount: func(s *spinesim.Socket) []spinesim.Component {
			pins := s.Bus(pOut, bits)
			return []spinesim.Component{func(c *spinesim.Circuit) {
				SetInt64(c, pins, f())
			}}
		}}).NewPart
}

// OutputN creates an output bus of the given bits size.
//
//	Inputs: in[bits]
//	Function: f(in)
//
func OutputN(bits int, f func(int64)) spinesim.NewPartFn {
	return (&spinesim.PartSpec{
		Name:    "OUTPUT" + strconv.Itoa(bits),
		Inputs:  bus(bits, pIn),
		Outputs: nil,
		Mount: func(s *spinesim.Socket) []spinesim.Component {
			pins := s.Bus(pIn, bits)
			return []spinesim.Component{func(c *spinesim.Circuit) {
				f(Int64(c, pins))
			}}
		}}).NewPart
}

// ProbeN creates a level probe of the given bits size. Unlike OutputN, it
// can tell floating pins from pins driven low. f is called on every step with
// the current step number and the levels of the probed pins; the slice is
// reused between calls.
//
//	Inputs: in[bits]
//	Function: f(step, in)
//
func ProbeN(bits int, f func(step uint, ls []spinesim.Level)) spinesim.NewPartFn {
	return (&spinesim.PartSpec{
		Name:    "PROBE" + strconv.Itoa(bits),
		Inputs:  bus(bits, pIn),
		Outputs: nil,
		Mount: func(s *spinesim.Socket) []spinesim.Component {
			pins := s.Bus(pIn, bits)
			ls := make([]spinesim.Level, bits)
			return []spinesim.Component{func(c *spinesim.Circuit) {
				for i, p := range pins {
					ls[i] = c.Level(p)
				}
				f(c.Steps(), ls)
			}}
		}}).NewPart
}
