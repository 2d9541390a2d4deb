// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package hwtest provides utility functions for testing circuits.
//
package hwtest

import (
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/db47h/spinesim"
	"github.com/db47h/spinesim/hwlib"
	"github.com/pkg/errors"
)

// DefaultLimit is the default settle step limit used by ComparePart.
//
const DefaultLimit = 256

func connString(in, out []string) string {
	var b strings.Builder
	for _, n := range append(append([]string(nil), in...), out...) {
		if b.Len() > 0 {
			b.WriteRune(',')
		}
		b.WriteString(n)
		b.WriteRune('=')
		b.WriteString(n)
	}
	return b.String()
}

// pinList rebuilds an IO specification string from a list of pin names.
//
func pinList(in []string) string {
	bus := make(map[string]int)
	var order []string
	var b strings.Builder

	for _, n := range in {
		if i := strings.IndexRune(n, '['); i >= 0 {
			bn := n[:i]
			idx, err := strconv.Atoi(n[i+1 : strings.IndexRune(n, ']')])
			if err != nil {
				panic(err)
			}
			if bidx, ok := bus[bn]; !ok || bidx < idx {
				if !ok {
					order = append(order, bn)
				}
				bus[bn] = idx
			}
			continue
		}
		order = append(order, n)
	}
	for _, n := range order {
		if b.Len() > 0 {
			b.WriteRune(',')
		}
		b.WriteString(n)
		if idx, ok := bus[n]; ok {
			b.WriteRune('[')
			b.WriteString(strconv.Itoa(idx + 1))
			b.WriteRune(']')
		}
	}
	return b.String()
}

// Settle settles c and fails the test immediately if the circuit does not
// settle within limit steps or if any fault, like bus contention, is present
// in the settled state. It returns the number of steps taken.
//
func Settle(t testing.TB, c *spinesim.Circuit, limit int) int {
	t.Helper()
	n, err := c.Settle(limit)
	if err != nil {
		for _, f := range c.Faults() {
			t.Log(f)
		}
		t.Fatal(err)
	}
	return n
}

// ComparePart takes two parts and compares their outputs given the same inputs.
// Both parts must have the same Input/Output interface. Outputs are compared
// level by level, so that a floating output never matches a driven one.
//
// Parts with up to 12 inputs are tested exhaustively, others with all inputs
// low, all inputs high, and 4096 random input vectors.
//
func ComparePart(t *testing.T, part1 spinesim.NewPartFn, part2 spinesim.NewPartFn) {
	t.Helper()

	rnd := rand.New(rand.NewSource(time.Now().UnixNano()))

	ps1, ps2 := part1(""), part2("")

	// compare specs
	if len(ps1.Inputs) != len(ps2.Inputs) {
		t.Fatal("len(ps1.Inputs) != len(ps2.Inputs)")
	}
	if len(ps1.Outputs) != len(ps2.Outputs) {
		t.Fatal("len(ps1.Outputs) != len(ps2.Outputs)")
	}
	for i := range ps1.Inputs {
		if ps1.Inputs[i] != ps2.Inputs[i] {
			t.Fatalf("ps1.Inputs[i] = %q != ps2.Inputs[i] = %q", ps1.Inputs[i], ps2.Inputs[i])
		}
	}
	for i := range ps1.Outputs {
		if ps1.Outputs[i] != ps2.Outputs[i] {
			t.Fatalf("ps1.Outputs[i] = %q != ps2.Outputs[i] = %q", ps1.Outputs[i], ps2.Outputs[i])
		}
	}

	conns := connString(ps1.Inputs, ps1.Outputs)
	ps1, ps2 = part1(conns), part2(conns)

	inputs := make([]bool, len(ps1.Inputs))
	outputs := make([][2]spinesim.Level, len(ps1.Outputs))

	// build two wrappers with their own set of outputs
	parts1 := []spinesim.Part{ps1}
	parts2 := []spinesim.Part{ps2}
	for i, o := range ps1.Outputs {
		n := i
		parts1 = append(parts1, hwlib.ProbeN(1, func(_ uint, ls []spinesim.Level) { outputs[n][0] = ls[0] })("in[0]="+o))
		parts2 = append(parts2, hwlib.ProbeN(1, func(_ uint, ls []spinesim.Level) { outputs[n][1] = ls[0] })("in[0]="+o))
	}
	w1, err := spinesim.Chip("wrapper1", pinList(ps1.Inputs), "", parts1...)
	if err != nil {
		t.Fatal(err)
	}
	w2, err := spinesim.Chip("wrapper2", pinList(ps2.Inputs), "", parts2...)
	if err != nil {
		t.Fatal(err)
	}

	var parts []spinesim.Part
	for i, n := range ps1.Inputs {
		k := i
		parts = append(parts, hwlib.Input(func() bool { return inputs[k] })("out="+n))
	}
	cstr := connString(ps1.Inputs, nil)
	parts = append(parts, w1(cstr), w2(cstr))

	c, err := spinesim.NewCircuit(0, parts...)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Dispose()

	errString := func(oname string, ex, got spinesim.Level) string {
		var b strings.Builder
		for i, n := range ps1.Inputs {
			if b.Len() > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "%s=%v", n, inputs[i])
		}
		return fmt.Sprintf("\nExpected %s => %s=%v\nGot %v", b.String(), oname, ex, got)
	}

	check := func() {
		t.Helper()
		if _, err := c.Settle(DefaultLimit); errors.Cause(err) == spinesim.ErrUnstable {
			t.Fatal(err)
		}
		for o, out := range outputs {
			if out[0] != out[1] {
				t.Fatal(errString(ps1.Outputs[o], out[0], out[1]))
			}
		}
	}

	start := time.Now()

	if len(inputs) <= 12 {
		for v := 0; v < 1<<uint(len(inputs)); v++ {
			for in := range inputs {
				inputs[in] = v&(1<<uint(in)) != 0
			}
			check()
		}
	} else {
		// try all 0, then all 1
		check()
		for in := range inputs {
			inputs[in] = true
		}
		check()
		for i := 0; i < 1<<12; i++ {
			for in := range inputs {
				inputs[in] = rnd.Int63()&(1<<62) != 0
			}
			check()
		}
	}

	t.Logf("%d components. %d steps in %v.", c.Size(), c.Steps(), time.Since(start))
}
