package spinesim_test

import (
	"strings"
	"testing"

	hw "github.com/db47h/spinesim"
	hl "github.com/db47h/spinesim/hwlib"
	"github.com/pkg/errors"
)

const testLimit = 64

func trace(t *testing.T, err error) {
	t.Helper()
	if err, ok := err.(interface {
		StackTrace() errors.StackTrace
	}); ok {
		for _, f := range err.StackTrace() {
			t.Logf("%+v ", f)
		}
	}
}

// testGate checks a part with a single output against a truth table.
//
func testGate(t *testing.T, gate hw.NewPartFn, result []bool) {
	t.Helper()
	part := gate("").PartSpec
	inputs := make([]bool, len(part.Inputs))
	var out bool
	var conns []string
	var parts []hw.Part
	for i, n := range part.Inputs {
		in := &inputs[i]
		conns = append(conns, n+"="+n)
		parts = append(parts, hl.Input(func() bool { return *in })("out="+n))
	}
	conns = append(conns, part.Outputs[0]+"=out")
	parts = append(parts,
		gate(strings.Join(conns, ", ")),
		hl.Output(func(v bool) { out = v })("in=out"))

	c, err := hw.NewCircuit(0, parts...)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Dispose()

	for i := range result {
		for bit := range inputs {
			inputs[len(inputs)-bit-1] = i&(1<<uint(bit)) != 0
		}
		if _, err := c.Settle(testLimit); err != nil {
			t.Fatal(err)
		}
		if out != result[i] {
			t.Errorf("%s %v = %v, got %v", part.Name, inputs, result[i], out)
		}
	}
}

func Test_gate_custom(t *testing.T) {
	and, err := hw.Chip("AND", "a, b", "out",
		hl.Nand("a=a, b=b, out=nand"),
		hl.Nand("a=nand, b=nand, out=out"),
	)
	if err != nil {
		t.Fatal(err)
	}
	or, err := hw.Chip("OR", "a, b", "out",
		hl.Nand("a=a, b=a, out=notA"),
		hl.Nand("a=b, b=b, out=notB"),
		hl.Nand("a=notA, b=notB, out=out"),
	)
	if err != nil {
		t.Fatal(err)
	}
	nor, err := hw.Chip("NOR", "a, b", "out",
		or("a=a, b=b, out=orAB"),
		hl.Nand("a=orAB, b=orAB, out=out"),
	)
	if err != nil {
		t.Fatal(err)
	}
	xor, err := hw.Chip("XOR", "a, b", "out",
		hl.Nand("a=a, b=b, out=nandAB"),
		hl.Nand("a=a, b=nandAB, out=w0"),
		hl.Nand("a=b, b=nandAB, out=w1"),
		hl.Nand("a=w0, b=w1, out=out"),
	)
	if err != nil {
		t.Fatal(err)
	}
	xnor, err := hw.Chip("XNOR", "a, b", "out",
		xor("a=a, b=b, out=xorAB"),
		hl.Not("in=xorAB, out=out"),
	)
	if err != nil {
		t.Fatal(err)
	}
	not, err := hw.Chip("NOT", "a", "out",
		hl.Nand("a=a, b=a, out=out"),
	)
	if err != nil {
		t.Fatal(err)
	}
	mux, err := hw.Chip("MUX", "a, b, sel", "out",
		hl.Not("in=sel, out=notSel"),
		hl.Nand("a=a, b=notSel, out=w0"),
		hl.Nand("a=b, b=sel, out=w1"),
		hl.Nand("a=w0, b=w1, out=out"),
	)
	if err != nil {
		t.Fatal(err)
	}
	td := []struct {
		name   string
		gate   hw.NewPartFn
		result []bool
	}{
		{"AND", and, []bool{false, false, false, true}},
		{"OR", or, []bool{false, true, true, true}},
		{"NOR", nor, []bool{true, false, false, false}},
		{"XOR", xor, []bool{false, true, true, false}},
		{"XNOR", xnor, []bool{true, false, false, true}},
		{"NOT", not, []bool{true, false}},
		{"MUX", mux, []bool{false, false, false, true, true, false, true, true}},
	}
	for _, d := range td {
		d := d
		t.Run(d.name, func(t *testing.T) {
			testGate(t, d.gate, d.result)
		})
	}
}

// A Nand gate looping onto itself never settles while enabled.
//
func TestCircuit_Settle_unstable(t *testing.T) {
	run := true
	osc, err := hw.Chip("OSC", "run", "tick",
		hl.Nand("a=run, b=tick, out=tick"),
	)
	if err != nil {
		t.Fatal(err)
	}
	c, err := hw.NewCircuit(0,
		hl.Input(func() bool { return run })("out=run"),
		osc("run=run, tick=out"),
		hl.Output(func(bool) {})("in=out"),
	)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Dispose()

	_, err = c.Settle(testLimit)
	if errors.Cause(err) != hw.ErrUnstable {
		t.Fatalf("got error %v, expected %v", err, hw.ErrUnstable)
	}
	if c.Stable() {
		t.Error("oscillator reported as stable")
	}

	run = false
	n, err := c.Settle(testLimit)
	if err != nil {
		t.Fatal(err)
	}
	// input, nand, then a step with no change.
	if n > 3 {
		t.Errorf("settled in %d steps, expected at most 3", n)
	}
	if !c.Stable() {
		t.Error("settled circuit not stable")
	}
}

// Faults reported during intermediate steps do not fail Settle.
//
func TestCircuit_Settle_glitch(t *testing.T) {
	errGlitch := errors.New("glitch")
	var a bool
	var faults int
	glitch := (&hw.PartSpec{
		Name:   "GLITCH",
		Inputs: hw.IO("a, b"),
		Mount: func(s *hw.Socket) []hw.Component {
			a, b := s.Pin("a"), s.Pin("b")
			return []hw.Component{func(c *hw.Circuit) {
				// a and its delayed inverse are both high for a single step.
				if c.Get(a) && c.Get(b) {
					faults++
					c.Fault(errGlitch)
				}
			}}
		}}).NewPart
	c, err := hw.NewCircuit(1,
		hl.Input(func() bool { return a })("out=a"),
		hl.Not("in=a, out=na"),
		glitch("a=a, b=na"),
	)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Dispose()

	if _, err = c.Settle(testLimit); err != nil {
		t.Fatal(err)
	}
	a = true
	if _, err = c.Settle(testLimit); err != nil {
		t.Fatal(err)
	}
	if faults != 1 {
		t.Errorf("got %d glitches, expected 1", faults)
	}
	if fs := c.Faults(); len(fs) != 0 {
		t.Errorf("unexpected faults in settled state: %v", fs)
	}
}

func TestCircuit_Settle_fault(t *testing.T) {
	errShort := errors.New("short")
	short := (&hw.PartSpec{
		Name:   "SHORT",
		Inputs: hw.IO("in"),
		Mount: func(s *hw.Socket) []hw.Component {
			in := s.Pin("in")
			return []hw.Component{func(c *hw.Circuit) {
				if c.Get(in) {
					c.Fault(errShort)
				}
			}}
		}}).NewPart
	c, err := hw.NewCircuit(0, short("in=true"))
	if err != nil {
		t.Fatal(err)
	}
	defer c.Dispose()

	if _, err = c.Settle(testLimit); errors.Cause(err) != errShort {
		t.Fatalf("got error %v, expected %v", err, errShort)
	}
	if fs := c.Faults(); len(fs) != 1 || fs[0] != errShort {
		t.Errorf("got faults %v, expected [%v]", fs, errShort)
	}
}

func TestNewCircuit_empty(t *testing.T) {
	if _, err := hw.NewCircuit(0); err == nil {
		t.Fatal("no error for an empty circuit")
	}
}
