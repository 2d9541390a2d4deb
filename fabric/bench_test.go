package fabric_test

import (
	"fmt"
	"math/rand"
	"strings"
	"testing"

	"github.com/db47h/spinesim"
	"github.com/db47h/spinesim/fabric"
	"github.com/db47h/spinesim/hwlib"
	"github.com/db47h/spinesim/hwtest"
	"github.com/pkg/errors"
)

func newBench(t *testing.T, cfg fabric.Config, addrs ...fabric.Address) *fabric.Bench {
	t.Helper()
	b, err := fabric.NewBench(cfg, addrs, fabric.WithSettleLimit(hwtest.DefaultLimit))
	if err != nil {
		t.Fatal(err)
	}
	return b
}

func TestBench_scenario(t *testing.T) {
	cfg := scenarioConfig
	b := newBench(t, cfg, 0x3)
	defer b.Dispose()

	slot := fabric.Slot{Column: 5, Row: fabric.Bottom}
	out := slotPattern(cfg, 0)
	out[slot.Index()] = 0xAB

	r, err := b.Eval(cfg.PackIn(fabric.InFrame{Select: 0xC5, Payload: 0x5C, Enable: true}), [][]uint64{out})
	if err != nil {
		t.Fatal(err)
	}
	if r.Out.User != fabric.Driven(0xAB) {
		t.Errorf("spine user field = %v, expected 0xab", r.Out.User)
	}
	if exp := fabric.UnitName(0, 0x3); r.Driver != exp {
		t.Errorf("spine driven by %q, expected %q", r.Driver, exp)
	}
	if r.Out.LowSentinel != fabric.TieLo || r.Out.HighSentinel != fabric.TieLo {
		t.Errorf("sentinels = %v, %v", r.Out.LowSentinel, r.Out.HighSentinel)
	}
	for i := range r.SlotIn[0] {
		ena := i == slot.Index()
		exp := uint64(0)
		if ena {
			exp = 0x5C
		}
		if r.SlotIn[0][i] != exp || r.SlotEna[0][i] != ena {
			t.Errorf("slot %v: input %#x, enable %v", fabric.SlotAt(i), r.SlotIn[0][i], r.SlotEna[0][i])
		}
	}
	for _, p := range fabric.Paths {
		if r.PathSteps[p] <= 0 || r.PathSteps[p] >= r.Steps {
			t.Errorf("path %s settled after %d steps, circuit after %d", p, r.PathSteps[p], r.Steps)
		}
	}
	t.Logf("settled in %d steps: %v", r.Steps, r.PathSteps)

	// deselect: the spine floats, which is distinct from a driven zero.
	r, err = b.Eval(cfg.PackIn(fabric.InFrame{Select: fabric.NewSelectCode(0x4, slot)}), [][]uint64{out})
	if err != nil {
		t.Fatal(err)
	}
	if r.Out.User != fabric.Floating {
		t.Errorf("spine user field = %v, expected floating", r.Out.User)
	}
}

// The gate-level chain matches the behavioral model for every select code.
//
func TestBench_matchesChain(t *testing.T) {
	td := []struct {
		name  string
		cfg   fabric.Config
		addrs []fabric.Address
	}{
		{"2units", fabric.Config{Columns: 4, Outputs: 2, Inputs: 2, IOs: 1}, []fabric.Address{0x3, 0xa}},
		{"gated", fabric.Config{Columns: 6, Outputs: 3, Inputs: 1, GateOnEnable: true}, []fabric.Address{0x0, 0xf, 0x8}},
	}
	for _, d := range td {
		d := d
		t.Run(d.name, func(t *testing.T) {
			c := newChain(t, d.cfg, d.addrs...)
			b := newBench(t, d.cfg, d.addrs...)
			defer b.Dispose()

			rnd := rand.New(rand.NewSource(42))
			out := chainPattern(d.cfg, len(d.addrs))
			for code := fabric.SelectCode(0); code < 1<<fabric.SelectBits; code++ {
				in := d.cfg.PackIn(fabric.InFrame{
					Select:  code,
					Payload: uint64(rnd.Int63()),
					Enable:  rnd.Intn(2) == 1,
				})
				ref, err := c.Eval(in, out)
				if err != nil {
					t.Fatalf("select %v: %v", code, err)
				}
				got, err := b.Eval(in, out)
				if err != nil {
					t.Fatalf("select %v: %v", code, err)
				}
				if diff := ref.Diff(&got.Response); diff != nil {
					t.Fatalf("select %v:\n%s", code, strings.Join(diff, "\n"))
				}
			}
		})
	}
}

func TestBench_duplicate(t *testing.T) {
	cfg := fabric.Config{Columns: 2, Outputs: 2, Inputs: 1}
	addrs := []fabric.Address{0x1, 0x6, 0x1}
	b := newBench(t, cfg, addrs...)
	defer b.Dispose()
	c := newChain(t, cfg, addrs...)

	out := chainPattern(cfg, len(addrs))
	in := cfg.PackIn(fabric.InFrame{Select: fabric.NewSelectCode(0x1, fabric.Slot{Column: 1, Row: fabric.Top}), Payload: 1})
	got, err := b.Eval(in, out)
	ce, ok := errors.Cause(err).(*fabric.ContentionError)
	if !ok {
		t.Fatalf("got error %v, expected contention", err)
	}
	if exp := []string{"unit0@0x1", "unit2@0x1"}; len(ce.Drivers) != 2 || ce.Drivers[0] != exp[0] || ce.Drivers[1] != exp[1] {
		t.Errorf("contention between %v, expected %v", ce.Drivers, exp)
	}
	ref, rerr := c.Eval(in, out)
	if rerr == nil {
		t.Fatal("reference model missed the contention")
	}
	if diff := ref.Diff(&got.Response); diff != nil {
		t.Errorf("%s", strings.Join(diff, "\n"))
	}

	// no contention once the duplicate is deselected.
	in = cfg.PackIn(fabric.InFrame{Select: fabric.NewSelectCode(0x6, fabric.Slot{Column: 0, Row: fabric.Top})})
	if _, err = b.Eval(in, out); err != nil {
		t.Fatal(err)
	}
}

// The unit chip alone is equivalent to a single unit chain.
//
func TestUnitChip(t *testing.T) {
	cfg := fabric.Config{Columns: 2, Outputs: 1, Inputs: 1}
	unit, err := fabric.UnitChip(cfg)
	if err != nil {
		t.Fatal(err)
	}
	p := unit("")
	if exp := cfg.SpineInWidth() + fabric.AddrBits + cfg.Slots()*cfg.OutWidth(); len(p.Inputs) != exp {
		t.Errorf("%d inputs, expected %d", len(p.Inputs), exp)
	}
	if exp := cfg.SpineOutWidth() + cfg.Slots()*(cfg.InWidth()+1) + 1; len(p.Outputs) != exp {
		t.Errorf("%d outputs, expected %d", len(p.Outputs), exp)
	}
	if _, err = fabric.UnitChip(fabric.Config{Columns: 3}); errors.Cause(err) != fabric.ErrConfig {
		t.Errorf("got error %v, expected cause %v", err, fabric.ErrConfig)
	}
	if _, err = fabric.ChainChip(cfg, []fabric.Address{0x10}); err == nil {
		t.Error("no error for address 0x10")
	}
}

// spineLevels settles a chip with all its inputs low and returns the levels
// of its so pins, msb first.
//
func spineLevels(t *testing.T, cfg fabric.Config, chip spinesim.NewPartFn) string {
	t.Helper()
	w := cfg.SpineOutWidth()
	var got string
	so := fmt.Sprintf("[0..%d]", w-1)
	c, err := spinesim.NewCircuit(0,
		chip("so"+so+"=so"+so),
		hwlib.ProbeN(w, func(_ uint, ls []spinesim.Level) { got = spinesim.FormatLevels(ls) })("in"+so+"=so"+so),
	)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Dispose()
	hwtest.Settle(t, c, hwtest.DefaultLimit)
	return got
}

// Both sentinels are driven low, whether the user field is driven or not.
//
func TestChip_sentinels(t *testing.T) {
	cfg := fabric.Config{Columns: 2, Outputs: 3, Inputs: 1}
	ow := cfg.OutWidth()

	// strap 0 and select 0: slot (0,bottom) drives its all-zero outputs.
	unit, err := fabric.UnitChip(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if got, exp := spineLevels(t, cfg, unit), strings.Repeat("0", ow+2); got != exp {
		t.Errorf("unit spine = %q, expected %q", got, exp)
	}

	// no unit at row 0: the user field floats between the sentinels.
	chain, err := fabric.ChainChip(cfg, []fabric.Address{0x5, 0x9})
	if err != nil {
		t.Fatal(err)
	}
	if got, exp := spineLevels(t, cfg, chain), "0"+strings.Repeat("z", ow)+"0"; got != exp {
		t.Errorf("chain spine = %q, expected %q", got, exp)
	}
}

// The spine merge is told apart from the unit buses of the same size.
//
func TestBench_contentionNames(t *testing.T) {
	// two groups per unit and two units: all buses are 2 ways wide.
	cfg := fabric.Config{Columns: 4, Outputs: 2, Inputs: 1}
	addrs := []fabric.Address{0x7, 0x7}
	b := newBench(t, cfg, addrs...)
	defer b.Dispose()

	in := cfg.PackIn(fabric.InFrame{Select: fabric.NewSelectCode(0x7, fabric.Slot{Column: 2, Row: fabric.Top})})
	r, err := b.Eval(in, chainPattern(cfg, len(addrs)))
	ce, ok := errors.Cause(err).(*fabric.ContentionError)
	if !ok {
		t.Fatalf("got error %v, expected contention", err)
	}
	if exp := []string{"unit0@0x7", "unit1@0x7"}; len(ce.Drivers) != 2 || ce.Drivers[0] != exp[0] || ce.Drivers[1] != exp[1] {
		t.Errorf("contention between %v, expected %v", ce.Drivers, exp)
	}
	if r.Driver != "" || r.Out.User != fabric.Floating {
		t.Errorf("spine %v driven by %q, expected floating", r.Out.User, r.Driver)
	}
}
