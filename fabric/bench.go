// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package fabric

import (
	"fmt"

	"github.com/db47h/spinesim"
	"github.com/db47h/spinesim/hwlib"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/exp/slices"
)

// Probed paths.
//
const (
	PathSpine   = "spine"    // outward spine frame
	PathSlotIn  = "slot_in"  // slot input vectors
	PathSlotEna = "slot_ena" // slot enables
	PathDrive   = "drive"    // unit drive flags
)

// Paths lists the probed paths.
//
var Paths = []string{PathSpine, PathSlotIn, PathSlotEna, PathDrive}

// A probe records the levels of a group of wires and the last step they
// changed. Each probe is only updated by its own component.
//
type probe struct {
	path    string
	levels  []spinesim.Level
	changed uint
}

func (p *probe) update(step uint, ls []spinesim.Level) {
	for i, l := range ls {
		if p.levels[i] != l {
			copy(p.levels, ls)
			p.changed = step
			return
		}
	}
}

func (p *probe) value() uint64 {
	var v uint64
	for i, l := range p.levels {
		if l == spinesim.High {
			v |= 1 << uint(i)
		}
	}
	return v
}

// A Bench evaluates a gate-level chain of units in a spinesim circuit.
//
// A Bench is not safe for concurrent use. Callers must call Dispose once the
// bench is no longer needed.
//
type Bench struct {
	cfg   Config
	addrs []Address
	limit int
	log   zerolog.Logger
	c     *spinesim.Circuit
	bus   string // name of the spine merge part

	spineIn uint64
	slotOut [][]uint64

	probes  []*probe
	spine   *probe
	slotIn  [][]*probe
	slotEna []*probe
	drive   *probe
}

// A BenchResult is the response of the gate-level chain to an inward spine
// frame.
//
type BenchResult struct {
	Response
	Steps     int            // steps taken to settle
	PathSteps map[string]int // steps until the last change on each path
}

// NewBench builds the gate-level chain of units strapped at addrs, with
// inputs and probes on every spine and slot bus.
//
func NewBench(cfg Config, addrs []Address, opts ...Option) (*Bench, error) {
	o := newOptions(opts)
	chain, err := ChainChip(cfg, addrs)
	if err != nil {
		return nil, err
	}
	b := &Bench{
		cfg:   cfg,
		addrs: append([]Address(nil), addrs...),
		limit: o.limit,
		log:   o.log,
		bus:   spineBus,
	}
	ow, iw, slots := cfg.OutWidth(), cfg.InWidth(), cfg.Slots()
	siw, sow := cfg.SpineInWidth(), cfg.SpineOutWidth()

	parts := []spinesim.Part{
		hwlib.InputN(siw, func() int64 { return int64(b.spineIn) })(span("out", 0, siw) + "=" + span("si", 0, siw)),
	}
	b.spine = b.newProbe(PathSpine, sow)
	parts = append(parts, hwlib.ProbeN(sow, b.spine.update)(span("in", 0, sow)+"="+span("so", 0, sow)))

	for u := range addrs {
		b.slotOut = append(b.slotOut, make([]uint64, slots))
		b.slotIn = append(b.slotIn, make([]*probe, slots))
		for s := 0; s < slots; s++ {
			out := b.slotOut[u]
			i, n := s, u*slots+s
			parts = append(parts, hwlib.InputN(ow, func() int64 { return int64(out[i]) })(
				span("out", 0, ow)+"="+span("um_ow", n*ow, ow)))
			p := b.newProbe(PathSlotIn, iw)
			b.slotIn[u][s] = p
			parts = append(parts, hwlib.ProbeN(iw, p.update)(span("in", 0, iw)+"="+span("um_iw", n*iw, iw)))
		}
		p := b.newProbe(PathSlotEna, slots)
		b.slotEna = append(b.slotEna, p)
		parts = append(parts, hwlib.ProbeN(slots, p.update)(span("in", 0, slots)+"="+span("um_ena", u*slots, slots)))
	}
	n := len(addrs)
	b.drive = b.newProbe(PathDrive, n)
	parts = append(parts, hwlib.ProbeN(n, b.drive.update)(span("in", 0, n)+"="+span("drv", 0, n)))

	var c conns
	c.add(span("si", 0, siw), span("si", 0, siw))
	c.add(span("um_ow", 0, len(addrs)*slots*ow), span("um_ow", 0, len(addrs)*slots*ow))
	c.add(span("so", 0, sow), span("so", 0, sow))
	c.add(span("um_iw", 0, len(addrs)*slots*iw), span("um_iw", 0, len(addrs)*slots*iw))
	c.add(span("um_ena", 0, n*slots), span("um_ena", 0, n*slots))
	c.add(span("drv", 0, n), span("drv", 0, n))
	parts = append(parts, chain(c.String()))

	if b.c, err = spinesim.NewCircuit(o.workers, parts...); err != nil {
		return nil, errors.Wrap(err, "bench circuit")
	}
	b.log.Debug().
		Int("units", len(addrs)).
		Int("components", b.c.Size()).
		Msg("bench ready")
	return b, nil
}

func (b *Bench) newProbe(path string, n int) *probe {
	p := &probe{path: path, levels: make([]spinesim.Level, n)}
	for i := range p.levels {
		p.levels[i] = spinesim.Z
	}
	b.probes = append(b.probes, p)
	return p
}

// Dispose releases the circuit resources.
//
func (b *Bench) Dispose() { b.c.Dispose() }

// Circuit returns the underlying circuit.
//
func (b *Bench) Circuit() *spinesim.Circuit { return b.c }

// Eval drives spineIn and the slot output vectors, settles the circuit and
// returns the probed outputs. The arguments are those of Chain.Eval.
//
// If more than one unit drives the spine in the settled state, the result is
// returned together with an error whose cause is a *ContentionError naming
// the units. A circuit that does not settle yields an error with cause
// spinesim.ErrUnstable and no result.
//
func (b *Bench) Eval(spineIn uint64, slotOut [][]uint64) (BenchResult, error) {
	if len(slotOut) != len(b.addrs) {
		return BenchResult{}, errors.Errorf("got slot outputs for %d units, expected %d", len(slotOut), len(b.addrs))
	}
	m := mask(b.cfg.OutWidth())
	for u, out := range slotOut {
		if len(out) != b.cfg.Slots() {
			return BenchResult{}, errors.Errorf("unit %d: got %d slot output vectors, expected %d", u, len(out), b.cfg.Slots())
		}
		for s, v := range out {
			b.slotOut[u][s] = v & m
		}
	}
	b.spineIn = spineIn & mask(b.cfg.SpineInWidth())
	sel := b.cfg.UnpackIn(b.spineIn).Select

	start := b.c.Steps()
	n, err := b.c.Settle(b.limit)
	if errors.Cause(err) == spinesim.ErrUnstable {
		return BenchResult{}, errors.Wrapf(err, "select %s", sel)
	}

	r := BenchResult{Steps: n, PathSteps: make(map[string]int, len(Paths))}
	for _, path := range Paths {
		r.PathSteps[path] = 0
	}
	for _, p := range b.probes {
		if p.changed > start {
			if d := int(p.changed - start); d > r.PathSteps[p.path] {
				r.PathSteps[p.path] = d
			}
		}
	}
	out, uerr := b.cfg.UnpackOut(b.spine.levels)
	if uerr != nil {
		return BenchResult{}, errors.Wrapf(uerr, "select %s", sel)
	}
	r.Out = out
	for u := range b.addrs {
		in := make([]uint64, b.cfg.Slots())
		for s, p := range b.slotIn[u] {
			in[s] = p.value()
		}
		ena := make([]bool, b.cfg.Slots())
		for s, l := range b.slotEna[u].levels {
			ena[s] = l == spinesim.High
		}
		r.SlotIn = append(r.SlotIn, in)
		r.SlotEna = append(r.SlotEna, ena)
	}
	r.Driver = b.driver()

	if err != nil {
		err = b.contention(err)
		b.log.Warn().Str("select", sel.String()).Err(err).Msg("spine contention")
		return r, errors.Wrapf(err, "select %s", sel)
	}
	b.log.Debug().
		Str("select", sel.String()).
		Str("driver", r.Driver).
		Int("steps", n).
		Interface("paths", r.PathSteps).
		Msg("bench eval")
	return r, nil
}

// driver returns the name of the unit with its drive flag set, or an empty
// string if there is none or more than one.
//
func (b *Bench) driver() string {
	d := ""
	for u, l := range b.drive.levels {
		if l != spinesim.High {
			continue
		}
		if d != "" {
			return ""
		}
		d = UnitName(u, b.addrs[u])
	}
	return d
}

// contention converts the circuit faults into a *ContentionError naming the
// contending units. Faults of other kinds are returned as is.
//
func (b *Bench) contention(err error) error {
	ce := &ContentionError{}
	for _, f := range b.c.Faults() {
		e, ok := f.(*hwlib.ContentionError)
		if !ok {
			return err
		}
		for _, d := range e.Drivers {
			if e.Part == b.bus {
				ce.Drivers = append(ce.Drivers, UnitName(d, b.addrs[d]))
			} else {
				ce.Drivers = append(ce.Drivers, fmt.Sprintf("%s input %d", e.Part, d))
			}
		}
	}
	if len(ce.Drivers) == 0 {
		return err
	}
	slices.Sort(ce.Drivers)
	return ce
}
