// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package spinesim

import (
	"strconv"

	"github.com/pkg/errors"
)

type chip struct {
	PartSpec             // PartSpec for this chip
	parts    []*PartSpec // sub parts
	// wires maps pins used in a chip to the internal wire name which may be the
	// name of any input/output of the chip or dynamically allocated (__0, __1, etc.)
	wires map[pin]string
}

func (c *chip) mount(s *Socket) []Component {
	var cs []Component

	for i, p := range c.parts {
		// make a sub-socket
		sub := newSocket(s.c)
		// src maps the private names already bound in sub to their wire.
		src := make(map[string]int, len(p.Pinout))
		// k is the exported pin name (always an input or output name)
		// subK is the pin name in the part's namespace.
		// Inputs come first so that they are the source of any output
		// sharing their private name.
		for _, k := range append(append([]string(nil), p.Inputs...), p.Outputs...) {
			subK := p.Pinout[k]
			if subK == "" {
				continue
			}
			// unknown pins are wired to False.
			// Chip() makes sure that unknown pins can only be inputs.
			w := cstFalse
			if n := c.wires[pin{i, k}]; n != "" {
				w = s.PinOrNew(n)
			}
			if from, ok := src[subK]; ok {
				// several chip outputs fed by the same source.
				if from != w {
					cs = append(cs, follow(from, w))
				}
				continue
			}
			src[subK] = w
			sub.m[subK] = w
		}
		cs = append(cs, p.Mount(sub)...)
	}
	return cs
}

// follow returns a component that copies the level of wire from to wire to.
//
func follow(from, to int) Component {
	return func(c *Circuit) { c.Drive(to, c.Level(from)) }
}

// Chip composes existing parts into a new part packaged into a chip.
// The pin names specified as inputs and outputs will be the inputs
// and outputs of the chip.
//
// An Xor gate could be created like this:
//
//	xor, err := Chip("XOR", "a, b", "out",
//		hwlib.Nand("a=a, b=b, out=nandAB"),
//		hwlib.Nand("a=a, b=nandAB, out=w0"),
//		hwlib.Nand("a=b, b=nandAB, out=w1"),
//		hwlib.Nand("a=w0, b=w1, out=out"),
//	)
//
// The returned value is a function of type NewPartFn that can be used to
// compose the new part with others into other chips:
//
//	xnor, err := Chip("XNOR", "a, b", "out",
//		xor("a=a, b=b, out=xorAB"),
//		hwlib.Not("in=xorAB, out=out"),
//	)
//
// Part inputs that are not connected are tied to false. Part outputs that are
// not connected are ignored. When a single source feeds several chip outputs,
// the first output carries the source wire and the others follow it one step
// later.
//
func Chip(name string, inputs string, outputs string, parts ...Part) (NewPartFn, error) {
	ins, err := parseIOspec(inputs)
	if err != nil {
		return nil, errors.Wrap(err, name+" inputs")
	}
	outs, err := parseIOspec(outputs)
	if err != nil {
		return nil, errors.Wrap(err, name+" outputs")
	}

	// build wiring
	wr, root := newWiring(ins, outs)
	spcs := make([]*PartSpec, len(parts))

	for pnum, p := range parts {
		sp := p.PartSpec
		spcs[pnum] = sp
		ex := make(map[string][]string, len(p.Conns))
		for _, c := range p.Conns {
			ex[c.PP] = append(ex[c.PP], c.CP)
		}

		// check that all keys match one of the part's input or output pins
		for k := range ex {
			if _, ok := sp.Pinout[k]; !ok {
				return nil, errors.New("invalid pin name " + k + " for part " + sp.Name)
			}
		}
		// add inputs
		for _, k := range sp.Inputs {
			if vs, ok := ex[k]; ok {
				if len(vs) > 1 {
					return nil, errors.New(sp.Name + " input pin " + k + " connected to more than one output")
				}
				i, o := pin{-1, vs[0]}, pin{pnum, k}
				if err := wr.add(i, typeUnknown, o, typeInput, root); err != nil {
					return nil, errors.Wrap(err, pinName(spcs, i)+":"+pinName(spcs, o))
				}
			}
		}
		// add outputs
		for _, k := range sp.Outputs {
			if vs, ok := ex[k]; ok {
				for _, v := range vs {
					i, o := pin{pnum, k}, pin{-1, v}
					if err := wr.add(i, typeOutput, o, typeUnknown, root); err != nil {
						return nil, errors.Wrap(err, pinName(spcs, i)+":"+pinName(spcs, o))
					}
				}
			} else {
				p := pin{pnum, k}
				wr[p] = &node{pin: p, typ: typeOutput}
			}
		}
	}

	pins, err := checkWiring(wr, root, spcs)
	if err != nil {
		return nil, err
	}

	pinout := make(map[string]string, len(ins)+len(outs))
	// map all input and output pins, even if not used.
	// mount will ignore pins with an empty value.
	for _, i := range ins {
		pinout[i] = pins[pin{-1, i}]
	}
	for _, o := range outs {
		pinout[o] = pins[pin{-1, o}]
	}

	c := &chip{
		PartSpec{
			Name:    name,
			Inputs:  ins,
			Outputs: outs,
			Pinout:  pinout,
		},
		spcs,
		pins,
	}
	c.PartSpec.Mount = c.mount
	return c.PartSpec.NewPart, nil
}

func pinName(sp []*PartSpec, p pin) string {
	if p.p < 0 {
		return p.name
	}
	return sp[p.p].Name + "." + p.name
}

func checkWiring(wr wiring, root *node, spcs []*PartSpec) (map[pin]string, error) {
	pins := make(map[pin]string, len(wr))
	wireNum := 0
	for _, n := range wr {
		// Error on non-output pins with no inbound connection.
		if !n.isOutput() && n.org == nil {
			return nil, errors.New("pin " + pinName(spcs, n.pin) + " not connected to any output")
		}

		// remove temporary pins.
		// input pins can safely be ignored since len(n.outs) is 0 for them.
		// Inspect every "next" output pin in the wire chain.
		for i := 0; i < len(n.outs); {
			next := n.outs[i]
			if len(next.outs) == 0 {
				if next.pin.p < 0 && !next.isOutput() {
					return nil, errors.New("pin " + pinName(spcs, next.pin) + " not connected to any input")
				}
				i++
				continue
			}
			// there is a wire chain: n -> next -> next.outs
			// merge it into n.outs = n.outs + next.outs
			for _, o := range next.outs {
				o.org = n
			}
			n.outs = append(n.outs, next.outs...)
			next.outs = nil
			// remove orphaned internal chip pins that are not outputs
			if next.pin.p < 0 && !next.isOutput() {
				n.outs[i] = n.outs[len(n.outs)-1]
				n.outs = n.outs[:len(n.outs)-1]
				delete(wr, next.pin)
			}
		}

		// assign a wire name to the pin tree
		if n.name == "" {
			t := n
			for t.org != nil && t.org != root {
				t = t.org
			}
			if t.org == nil {
				t.setName("__" + strconv.Itoa(wireNum))
				wireNum++
			} else {
				// chip input pin, use its name.
				t.setName(t.pin.name)
			}
		}
		pins[n.pin] = n.name
	}

	return pins, nil
}
