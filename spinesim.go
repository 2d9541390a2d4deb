// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package spinesim

import (
	"runtime"
	"sync"

	"github.com/pkg/errors"
)

// ErrUnstable is returned (wrapped) by Settle when the circuit is still
// changing after the requested number of steps.
//
var ErrUnstable = errors.New("circuit did not settle")

// A Component is a component in a circuit that can Get and Set states.
//
type Component func(c *Circuit)

// A MountFn mounts a part into socket s. MountFn's should query
// the socket for assigned pin numbers and return closures around
// these pin numbers.
//
// For example, a Not gate can be defined like this:
//
//	not := &PartSpec{
//		Name: "Not",
//		Inputs: IO("in"),
//		Outputs: IO("out"),
//		Mount: func (s *Socket) []Component {
//			in, out := s.Pin("in"), s.Pin("out")
//			return []Component{
//				func (c *Circuit) { c.Set(out, !c.Get(in)) },
//			}
//		}}
//
type MountFn func(s *Socket) []Component

// A PartSpec wraps a part specification (its blueprint).
//
// Custom parts are implemented by creating a PartSpec, then using its
// NewPart method as a NewPartFn:
//
//	var notGate = notSpec.NewPart
//
//	c, _ := Chip("dummy", "a, b", "c, d",
//		notGate("in=a, out=c"),
//		notGate("in=b, out=d"),
//	)
//
type PartSpec struct {
	// Part name.
	Name string
	// Input pin names. Must be distinct pin names.
	// Use the IO() function to expand an input description like
	// "a, b, bus[2]" to []string{"a", "b", "bus[0]", "bus[1]"}
	Inputs []string
	// Output pin name. Must be distinct pin names.
	Outputs []string
	// Pinout maps the input and output pin names (public interface) of a part
	// to internal (private) names. If nil, the Inputs and Outputs values will
	// be used and mapped one to one.
	// In a MountFn, only private pin names must be used when calling the Socket
	// methods.
	Pinout map[string]string

	// Mount function (see MountFn).
	Mount MountFn
}

// NewPart is a NewPartFn that wraps p with the given connections into a Part.
// It panics if the connection string cannot be parsed.
//
func (p *PartSpec) NewPart(connections string) Part {
	conns, err := ParseConnections(connections)
	if err != nil {
		panic(errors.Wrap(err, p.Name))
	}
	if p.Pinout == nil {
		pinout := make(map[string]string, len(p.Inputs)+len(p.Outputs))
		for _, i := range p.Inputs {
			pinout[i] = i
		}
		for _, o := range p.Outputs {
			pinout[o] = o
		}
		p.Pinout = pinout
	}
	return Part{p, conns}
}

// A NewPartFn is a function that takes a connection configuration and returns a
// new Part. See ParseConnections for the syntax of the connection configuration
// string.
//
type NewPartFn func(c string) Part

// A Part wraps a part specification together with its connections within a host
// chip.
//
type Part struct {
	*PartSpec
	Conns []Connection
}

// Parts is a convenience wrapper for []Part.
//
type Parts []Part

// Circuit is a runnable circuit simulation.
//
type Circuit struct {
	s0     []Level // wire states frame #0
	s1     []Level // wire states frame #1
	cs     []Component
	count  int  // wire count
	tick   uint // step counter
	stable bool

	mu     sync.Mutex
	faults []error

	wc []chan struct{}
	wg sync.WaitGroup
}

// NewCircuit builds a new circuit based on the given parts.
//
// workers is the number of goroutines used to update the state of the Circuit
// each step of the simulation. If less or equal to 0, the value of GOMAXPROCS
// will be used.
//
// Callers must make sure to call Dispose() once the circuit is no longer needed
// in order to release allocated resources.
//
func NewCircuit(workers int, parts ...Part) (*Circuit, error) {
	if len(parts) == 0 {
		return nil, errors.New("empty part list")
	}

	// new circuit with room for constant value pins.
	cc := &Circuit{count: cstCount}
	wrap, err := Chip("CIRCUIT", "", "", parts...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create chip wrapper")
	}
	ups := wrap("").Mount(newSocket(cc))
	cc.cs = ups
	cc.s0 = make([]Level, cc.count)
	cc.s1 = make([]Level, cc.count)
	// wires float until driven
	for i := cstCount; i < cc.count; i++ {
		cc.s0[i], cc.s1[i] = Z, Z
	}
	// init constant pins
	cc.s0[cstFalse], cc.s1[cstFalse] = Low, Low
	cc.s0[cstTrue], cc.s1[cstTrue] = High, High

	if workers <= 0 {
		workers = runtime.GOMAXPROCS(-1)
	}
	if workers <= 0 {
		workers = 1
	}
	for len(ups) > 0 {
		size := len(ups) / workers
		if size*workers < len(ups) {
			size++
		}
		wc := make(chan struct{}, 1)
		cc.wc = append(cc.wc, wc)
		go worker(cc, ups[:size], wc)
		ups = ups[size:]
	}

	return cc, nil
}

// Dispose releases all resources allocated for a circuit and stops
// worker goroutines.
//
func (c *Circuit) Dispose() {
	c.wg.Add(len(c.wc))
	for _, wc := range c.wc {
		close(wc)
	}
	c.wg.Wait()
	c.wc = nil
}

func worker(c *Circuit, cs []Component, wc <-chan struct{}) {
	for {
		_, ok := <-wc
		if !ok {
			c.wg.Done()
			return
		}
		for _, f := range cs {
			f(c)
		}
		c.wg.Done()
	}
}

// allocPin allocates a pin and returns its number.
//
func (c *Circuit) allocPin() int {
	cnt := c.count
	c.count++
	return cnt
}

// Steps returns the value of the step counter.
//
func (c *Circuit) Steps() uint {
	return c.tick
}

// Get returns the state of pin n. A floating pin reads as false. The value of
// n should be obtained in a MountFn by a call to one of the Socket methods.
//
func (c *Circuit) Get(n int) bool {
	return c.s0[n] == High
}

// Set sets the state s of pin n. The value of n should be obtained in a
// MountFn by a call to one of the Socket methods.
//
func (c *Circuit) Set(n int, s bool) {
	c.s1[n] = LevelOf(s)
}

// Level returns the level of pin n, including Z.
//
func (c *Circuit) Level(n int) Level {
	return c.s0[n]
}

// Drive sets the level of pin n. Tri-state parts use Drive(n, Z) to release
// a wire.
//
func (c *Circuit) Drive(n int, l Level) {
	c.s1[n] = l
}

// Fault reports an electrical fault, like two drivers fighting over the same
// net, detected during the current step. It is safe for concurrent use by
// components.
//
func (c *Circuit) Fault(err error) {
	c.mu.Lock()
	c.faults = append(c.faults, err)
	c.mu.Unlock()
}

// Faults returns the faults reported during the last step.
//
func (c *Circuit) Faults() []error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]error(nil), c.faults...)
}

// Step advances the simulation by one step.
//
func (c *Circuit) Step() {
	c.mu.Lock()
	c.faults = c.faults[:0]
	c.mu.Unlock()

	c.wg.Add(len(c.wc))
	for _, wc := range c.wc {
		wc <- struct{}{}
	}

	c.wg.Wait()
	c.tick++
	c.s0, c.s1 = c.s1, c.s0

	c.stable = true
	for i := range c.s0 {
		if c.s0[i] != c.s1[i] {
			c.stable = false
			break
		}
	}
}

// Stable returns true if the last step did not change the state of any wire.
//
func (c *Circuit) Stable() bool { return c.stable }

// Settle runs the simulation until a step leaves every wire unchanged and
// returns the number of steps it took. Since components are purely
// combinational, the circuit then stays in that state until one of its
// inputs changes.
//
// It fails if the circuit is still changing after limit steps, or if faults
// were reported while evaluating the stable state. Faults reported during
// intermediate steps are glitches and are ignored.
//
func (c *Circuit) Settle(limit int) (int, error) {
	for n := 1; n <= limit; n++ {
		c.Step()
		if !c.stable {
			continue
		}
		if fs := c.Faults(); len(fs) > 0 {
			return n, errors.Wrapf(fs[0], "%d fault(s) after %d steps", len(fs), n)
		}
		return n, nil
	}
	return limit, errors.Wrapf(ErrUnstable, "after %d steps", limit)
}

// Size returns the component count in the circuit.
//
func (c *Circuit) Size() int { return len(c.cs) }
