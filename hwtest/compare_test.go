package hwtest_test

import (
	"testing"

	hw "github.com/db47h/spinesim"
	hl "github.com/db47h/spinesim/hwlib"
	"github.com/db47h/spinesim/hwtest"
)

func TestComparePart(t *testing.T) {
	and, err := hw.Chip("custom_and", "a,b", "out",
		hl.Nand("a=a, b=b, out=nandAB"),
		hl.Not("in=nandAB, out=out"),
	)
	if err != nil {
		t.Fatal(err)
	}
	hwtest.ComparePart(t, hl.And, and)
}

func TestComparePart_tristate(t *testing.T) {
	// a tri-state buffer feeding a single way bus behaves like the buffer alone.
	tri, err := hw.Chip("custom_tri", "in[2], en", "out[2]",
		hl.TriN(2)("in[0..1]=in[0..1], en=en, out[0..1]=t[0..1]"),
		hl.BusN(1, 2)("in[0..1]=t[0..1], out[0..1]=out[0..1]"),
	)
	if err != nil {
		t.Fatal(err)
	}
	hwtest.ComparePart(t, hl.TriN(2), tri)
}

func TestSettle(t *testing.T) {
	var a bool
	var out bool
	c, err := hw.NewCircuit(1,
		hl.Input(func() bool { return a })("out=a"),
		hl.Not("in=a, out=na"),
		hl.Not("in=na, out=nna"),
		hl.Output(func(v bool) { out = v })("in=nna"),
	)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Dispose()

	hwtest.Settle(t, c, 16)
	a = true
	if n := hwtest.Settle(t, c, 16); n < 3 {
		t.Errorf("settled in %d steps, expected at least 3", n)
	}
	if !out {
		t.Errorf("out = %v, expected true", out)
	}
}
