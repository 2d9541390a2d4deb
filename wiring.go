// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package spinesim

import "github.com/pkg/errors"

// a pin is identified by the part it belongs to and its name in that part's
// interface. Chip pins and chip internal wires have p == -1.
type pin struct {
	p    int
	name string
}

const (
	typeUnknown = iota
	typeInput
	typeOutput
)

type node struct {
	name string // chip internal pin name
	pin  pin
	outs []*node
	org  *node // pin feeding that node
	typ  int
}

func (n *node) isOutput() bool {
	return n.typ == typeOutput
}

func (n *node) setName(name string) {
	n.name = name
	for _, o := range n.outs {
		o.setName(name)
	}
}

type wiring map[pin]*node

func newWiring(ins, outs []string) (wr wiring, inputRoot *node) {
	wr = make(wiring, len(ins)+len(outs)+2)
	// inputRoot serves as a parent marker for chip inputs.
	inputRoot = &node{pin: pin{-1, "__INPUT__"}, typ: typeInput}

	// add true and false as chip inputs
	for _, name := range []string{True, False} {
		p := pin{-1, name}
		wr[p] = &node{pin: p, org: inputRoot, typ: typeUnknown}
	}

	for _, in := range ins {
		p := pin{-1, in}
		n := &node{pin: p, org: inputRoot, typ: typeUnknown}
		wr[p] = n
		inputRoot.outs = append(inputRoot.outs, n)
	}

	for _, out := range outs {
		p := pin{-1, out}
		wr[p] = &node{pin: p, org: nil, typ: typeOutput}
	}
	return wr, inputRoot
}

// add connects in to out. in feeds out.
//
func (wr wiring) add(in pin, iType int, out pin, oType int, root *node) error {
	if out.p < 0 {
		switch out.name {
		case False, True:
			return errors.New("output pin connected to constant " + out.name + " input")
		}
	}
	wi := wr[in]
	if wi == nil {
		wi = &node{pin: in, typ: iType}
		wr[in] = wi
	}
	wo := wr[out]
	switch {
	case wo == nil:
		wo = &node{pin: out, org: wi, typ: oType}
		wr[out] = wo
	case wo.org == nil:
		wo.org = wi
	case wo.org == root:
		return errors.New("chip input pin used as output")
	default:
		return errors.New("output pin already used as output")
	}
	wi.outs = append(wi.outs, wo)
	return nil
}
