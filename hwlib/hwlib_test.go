package hwlib_test

import (
	"strings"
	"testing"

	hw "github.com/db47h/spinesim"
	hl "github.com/db47h/spinesim/hwlib"
	"github.com/db47h/spinesim/hwtest"
)

const testLimit = 32

// testGate checks the outputs of gate against a truth table. result[o][i] is
// the expected value of output o for input vector i, where the first input
// pin is the most significant bit of i.
//
func testGate(t *testing.T, gate hw.NewPartFn, result [][]bool) {
	t.Helper()
	part := gate("").PartSpec // build dummy gate just to get to the partspec
	inputs := make([]bool, len(part.Inputs))
	outputs := make([]bool, len(part.Outputs))
	var w strings.Builder
	parts := make([]hw.Part, 0, len(part.Inputs)+len(part.Outputs)+1)
	for i, n := range part.Inputs {
		w.WriteByte(',')
		w.WriteString(n)
		w.WriteByte('=')
		w.WriteString(n)
		in := &inputs[i]
		parts = append(parts, hl.Input(func() bool { return *in })("out="+n))
	}
	for i, n := range part.Outputs {
		w.WriteByte(',')
		w.WriteString(n)
		w.WriteByte('=')
		w.WriteString(n)
		out := &outputs[i]
		parts = append(parts, hl.Output(func(v bool) { *out = v })("in="+n))
	}
	wr := w.String()
	// trim first ','
	if len(wr) > 0 {
		wr = wr[1:]
	}
	parts = append(parts, gate(wr))
	c, err := hw.NewCircuit(0, parts...)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Dispose()

	tot := 1 << uint(len(part.Inputs))
	for i := 0; i < tot; i++ {
		for bit := range inputs {
			inputs[len(inputs)-bit-1] = (i & (1 << uint(bit))) != 0
		}
		hwtest.Settle(t, c, testLimit)
		for o, out := range outputs {
			exp := result[o][i]
			if exp != out {
				t.Errorf("%s %v = %v, got %v", part.Name, inputs, exp, out)
			}
		}
	}
}

func TestInputN(t *testing.T) {
	in := int64(0)
	out := int64(0)
	c, err := hw.NewCircuit(0,
		hl.InputN(16, func() int64 { return in })("out[0..15]= t[0..15]"),
		hl.OutputN(16, func(n int64) { out = n })("in[0..15] = t[0..15]"),
	)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Dispose()

	in = 0x80a2
	hwtest.Settle(t, c, testLimit)
	if out != in {
		t.Fatalf("Expected %x, got %x", in, out)
	}
}

func TestProbeN(t *testing.T) {
	var en bool
	var got string
	var changed uint
	c, err := hw.NewCircuit(0,
		hl.Input(func() bool { return en })("out=en"),
		hl.TriN(4)("in[0]=true, in[1]=false, in[2]=true, in[3]=false, en=en, out[0..3]=t[0..3]"),
		hl.ProbeN(4, func(step uint, ls []hw.Level) {
			if s := hw.FormatLevels(ls); s != got {
				got, changed = s, step
			}
		})("in[0..3]=t[0..3]"),
	)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Dispose()

	hwtest.Settle(t, c, testLimit)
	if got != "zzzz" {
		t.Fatalf("disabled buffer: got %q, expected %q", got, "zzzz")
	}
	start := c.Steps()
	en = true
	hwtest.Settle(t, c, testLimit)
	if got != "0101" {
		t.Fatalf("enabled buffer: got %q, expected %q", got, "0101")
	}
	// input, buffer, then probe.
	if d := changed - start; d != 2 {
		t.Errorf("probe saw the change after %d steps, expected 2", d)
	}
}
