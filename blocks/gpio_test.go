package blocks_test

import (
	"testing"

	"github.com/db47h/locksim"
	"github.com/db47h/locksim/blocks"
	"github.com/db47h/locksim/csr"
	"github.com/db47h/locksim/simtest"
)

func gpioBench(t *testing.T, pins *blocks.Pins, depth int, ovr *int64) *simtest.Bench {
	g := blocks.GPIO(pins, depth)("gpio", locksim.W{"override": "ovr"})
	return simtest.NewBench(t, []locksim.Part{
		input("ovr", pins.Len(), false, ovr),
		g.Part(),
	}, []csr.Block{g.Bank()}, nil)
}

func TestGPIOSynchronizer(t *testing.T) {
	for _, depth := range []int{2, 3, 5} {
		var ovr int64
		pins := blocks.NewPins(8)
		b := gpioBench(t, pins, depth, &ovr)
		b.Step(1)
		pins.SetExt(0xa5)
		// the change lands after the next edge
		b.Step(1)
		if v := b.Net("gpio.level"); v != 0xa5 {
			t.Fatalf("depth %d: level = %#x", depth, v)
		}
		for n := 1; n <= depth; n++ {
			b.Step(1)
			v := b.Net("gpio.sync_out")
			if n < depth && v != 0 {
				t.Fatalf("depth %d: input visible after %d cycles", depth, n)
			}
			if n == depth && v != 0xa5 {
				t.Fatalf("depth %d: input not visible after %d cycles", depth, n)
			}
		}
		if v := b.Get("gpio_in"); v != 0xa5 {
			t.Fatalf("depth %d: in = %#x", depth, v)
		}
		// status registers ignore writes
		b.Set("gpio_in", 0)
		if v := b.Get("gpio_in"); v != 0xa5 {
			t.Fatalf("depth %d: in = %#x after write", depth, v)
		}
	}
}

func TestGPIOMinDepth(t *testing.T) {
	var ovr int64
	pins := blocks.NewPins(4)
	b := gpioBench(t, pins, 0, &ovr)
	pins.Drive(2, true)
	b.Step(2)
	if v := b.Net("gpio.sync_out"); v != 0 {
		t.Fatalf("input visible after one cycle")
	}
	if v := b.Net("gpio.sync.s0"); v != 4 {
		t.Fatalf("first stage = %#x", v)
	}
	b.Step(1)
	if v := b.Net("gpio.sync_out"); v != 4 {
		t.Fatalf("in = %#x", v)
	}
}

func TestGPIOOutput(t *testing.T) {
	var ovr int64
	pins := blocks.NewPins(8)
	b := gpioBench(t, pins, 2, &ovr)
	pins.SetExt(0xf0)
	b.Set("gpio_out", 0x0f)
	b.Set("gpio_oe", 0x03)

	for i, want := range []blocks.Pin{
		{OE: true, Out: true, Ext: false},
		{OE: true, Out: true, Ext: false},
		{OE: false, Out: true, Ext: false},
		{OE: false, Out: true, Ext: false},
		{OE: false, Out: false, Ext: true},
	} {
		if p := pins.Pin(i); p != want {
			t.Fatalf("pin %d: %+v, expected %+v", i, p, want)
		}
	}
	if l := pins.Levels(); l != 0xf3 {
		t.Fatalf("levels %#x", l)
	}

	// driven pins read back through the synchronizer
	b.Step(2)
	if v := b.Get("gpio_in"); v != 0xf3 {
		t.Fatalf("in = %#x", v)
	}

	// override is or'ed with out
	ovr = 0x80
	b.Set("gpio_oe", 0x83)
	if p := pins.Pin(7); !p.OE || !p.Out || !p.Level() {
		t.Fatalf("pin 7: %+v", p)
	}
	if v := b.Get("gpio_out"); v != 0x0f {
		t.Fatalf("out = %#x", v)
	}
}

func TestPins(t *testing.T) {
	p := blocks.NewPins(4)
	p.SetExt(0xff)
	if v := p.Ext(); v != 0xf {
		t.Fatalf("ext = %#x", v)
	}
	p.Drive(1, false)
	p.Drive(7, true)
	if v := p.Ext(); v != 0xd {
		t.Fatalf("ext = %#x", v)
	}
	if p.Pin(1).Level() || !p.Pin(0).Level() {
		t.Fatalf("levels %#x", p.Levels())
	}
}

// A synchronizer is equivalent to a chain of shorter ones.
//
func TestSynchronizerChain(t *testing.T) {
	chain := (&locksim.PartSpec{
		Name:    "Chain",
		Inputs:  []locksim.Port{{Name: "in", Width: 8}},
		Outputs: []locksim.Port{{Name: "out", Width: 8}},
		Mount: func(s *locksim.Socket) {
			s.Mount(blocks.Synchronizer(8, 2)("s0", locksim.W{"in": "in", "out": "mid"}))
			s.Mount(blocks.Synchronizer(8, 2)("s1", locksim.W{"in": "mid", "out": "last"}))
			last, out := s.In("last"), s.Out("out")
			s.Comb([]locksim.Signal{last}, []locksim.Signal{out}, func(c *locksim.Circuit) {
				c.Set(out, c.Get(last))
			})
		}}).NewPart
	single := (&locksim.PartSpec{
		Name:    "Single",
		Inputs:  []locksim.Port{{Name: "in", Width: 8}},
		Outputs: []locksim.Port{{Name: "out", Width: 8}},
		Mount: func(s *locksim.Socket) {
			s.Mount(blocks.Synchronizer(8, 4)("s", locksim.W{"in": "in", "out": "last"}))
			last, out := s.In("last"), s.Out("out")
			s.Comb([]locksim.Signal{last}, []locksim.Signal{out}, func(c *locksim.Circuit) {
				c.Set(out, c.Get(last))
			})
		}}).NewPart
	simtest.ComparePart(t, 500, chain, single)
}
