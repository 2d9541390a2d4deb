// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package fabric

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/exp/slices"
)

// ErrDuplicateAddress is the cause of the error returned by Chain.Validate
// when two units share the same strap.
//
var ErrDuplicateAddress = errors.New("duplicate unit address")

// A Response holds the observable outputs of a chain of units.
//
type Response struct {
	Out     OutFrame   // outward spine frame
	SlotIn  [][]uint64 // slot input vectors by unit and slot index
	SlotEna [][]bool   // slot enables by unit and slot index
	Driver  string     // name of the only unit driving the spine, if any
}

// EnabledSlots returns the names of all slots with their enable asserted.
//
func (r *Response) EnabledSlots(addrs []Address) []string {
	var s []string
	for u, ena := range r.SlotEna {
		for i, e := range ena {
			if e {
				s = append(s, UnitName(u, addrs[u])+" slot "+SlotAt(i).String())
			}
		}
	}
	return s
}

// Diff returns a description of every difference between r and other. It
// returns nil if they are identical.
//
func (r *Response) Diff(other *Response) []string {
	var d []string
	if r.Out != other.Out {
		d = append(d, fmt.Sprintf("spine out: %+v != %+v", r.Out, other.Out))
	}
	if r.Driver != other.Driver {
		d = append(d, fmt.Sprintf("spine driver: %q != %q", r.Driver, other.Driver))
	}
	if len(r.SlotIn) != len(other.SlotIn) || len(r.SlotEna) != len(other.SlotEna) {
		return append(d, fmt.Sprintf("unit count: %d != %d", len(r.SlotIn), len(other.SlotIn)))
	}
	for u := range r.SlotIn {
		if !slices.Equal(r.SlotIn[u], other.SlotIn[u]) {
			d = append(d, fmt.Sprintf("unit %d slot inputs: %x != %x", u, r.SlotIn[u], other.SlotIn[u]))
		}
		if !slices.Equal(r.SlotEna[u], other.SlotEna[u]) {
			d = append(d, fmt.Sprintf("unit %d slot enables: %v != %v", u, r.SlotEna[u], other.SlotEna[u]))
		}
	}
	return d
}

// UnitName returns the driver name of the i-th unit of a chain.
//
func UnitName(i int, a Address) string {
	return fmt.Sprintf("unit%d@%s", i, a)
}

// A Chain is the behavioral model of several units sharing a spine.
//
type Chain struct {
	cfg   Config
	units []*Unit
	addrs []Address
	log   zerolog.Logger
}

// NewChain returns a chain of units strapped at addrs, in spine order.
// Duplicate addresses are accepted so that their contention can be
// observed; use Validate to reject them.
//
func NewChain(cfg Config, addrs []Address, opts ...Option) (*Chain, error) {
	if len(addrs) == 0 {
		return nil, errors.New("empty chain")
	}
	o := newOptions(opts)
	c := &Chain{cfg: cfg, addrs: append([]Address(nil), addrs...), log: o.log}
	for i, a := range addrs {
		u, err := NewUnit(cfg, a)
		if err != nil {
			return nil, errors.Wrapf(err, "unit %d", i)
		}
		c.units = append(c.units, u)
	}
	return c, nil
}

// Units returns the units of the chain.
//
func (c *Chain) Units() []*Unit { return c.units }

// Addresses returns the unit straps in spine order.
//
func (c *Chain) Addresses() []Address { return c.addrs }

// Config returns the configuration shared by all units.
//
func (c *Chain) Config() Config { return c.cfg }

// Validate checks that no two units share the same strap.
//
func (c *Chain) Validate() error {
	return validateAddresses(c.addrs)
}

func validateAddresses(addrs []Address) error {
	s := append([]Address(nil), addrs...)
	slices.Sort(s)
	var dups []string
	for i := 1; i < len(s); i++ {
		if s[i] == s[i-1] && (len(dups) == 0 || dups[len(dups)-1] != s[i].String()) {
			dups = append(dups, s[i].String())
		}
	}
	if len(dups) > 0 {
		return errors.Wrap(ErrDuplicateAddress, strings.Join(dups, ", "))
	}
	return nil
}

// A ChainResult is the response of a chain to an inward spine frame.
//
type ChainResult struct {
	Response
	Units []Result
}

// Eval evaluates every unit for the inward spine vector spineIn. slotOut
// holds the slot output vectors of each unit, indexed by Slot.Index.
//
// If more than one unit drives the spine, the outward user field is left
// floating and the returned error has a *ContentionError cause. The result
// is valid in that case.
//
func (c *Chain) Eval(spineIn uint64, slotOut [][]uint64) (ChainResult, error) {
	if len(slotOut) != len(c.units) {
		return ChainResult{}, errors.Errorf("got slot outputs for %d units, expected %d", len(slotOut), len(c.units))
	}
	var r ChainResult
	ds := make([]Driver, len(c.units))
	for i, u := range c.units {
		ur, err := u.Eval(spineIn, slotOut[i])
		if err != nil {
			return ChainResult{}, errors.Wrapf(err, "unit %d", i)
		}
		r.Units = append(r.Units, ur)
		r.SlotIn = append(r.SlotIn, ur.SlotIn)
		r.SlotEna = append(r.SlotEna, ur.SlotEna)
		ds[i] = Driver{UnitName(i, u.addr), ur.Out.User}
		if ur.Out.User.IsDriven() {
			r.Driver = ds[i].Name
		}
	}
	sel := c.cfg.UnpackIn(spineIn).Select
	user, err := Resolve(ds...)
	r.Out = OutFrame{HighSentinel: TieLo, User: user, LowSentinel: TieLo}
	if err != nil {
		r.Driver = ""
		c.log.Warn().Str("select", sel.String()).Err(err).Msg("spine contention")
		return r, errors.Wrapf(err, "select %s", sel)
	}
	c.log.Debug().
		Str("select", sel.String()).
		Str("driver", r.Driver).
		Str("spine", user.String()).
		Msg("chain eval")
	return r, nil
}

// CheckExclusive returns an error if more than one slot of the chain has its
// enable asserted in r.
//
func (c *Chain) CheckExclusive(r *Response) error {
	if s := r.EnabledSlots(c.addrs); len(s) > 1 {
		return errors.Errorf("write enable asserted on %d slots: %s", len(s), strings.Join(s, ", "))
	}
	return nil
}
