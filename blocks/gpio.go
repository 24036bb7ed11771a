// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package blocks

import (
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/db47h/locksim"
	"github.com/db47h/locksim/csr"
	"github.com/db47h/locksim/fixed"
)

// MinSyncDepth is the minimum depth of input synchronizers.
//
const MinSyncDepth = 2

// A Pin is the state of a tri-state pin.
//
type Pin struct {
	OE  bool // output enable
	Out bool // value driven when OE is set
	Ext bool // value driven by the outside world
}

// Level returns the pin level.
//
func (p Pin) Level() bool {
	if p.OE {
		return p.Out
	}
	return p.Ext
}

// Pins is a group of up to 64 tri-state pins. Its methods are safe for
// concurrent use.
//
// External values can be changed at any time, independently of the clock.
//
type Pins struct {
	n   int
	ext uint64

	mu  sync.RWMutex // guards oe and out, which change together
	oe  uint64
	out uint64
}

// NewPins returns a group of n pins.
//
func NewPins(n int) *Pins {
	if n < 1 || n > 64 {
		panic("invalid pin count " + strconv.Itoa(n))
	}
	return &Pins{n: n}
}

// Len returns the number of pins.
//
func (p *Pins) Len() int { return p.n }

// SetExt sets the external value of all pins.
//
func (p *Pins) SetExt(v uint64) {
	atomic.StoreUint64(&p.ext, v&fixed.Mask(p.n))
}

// Ext returns the external value of all pins.
//
func (p *Pins) Ext() uint64 { return atomic.LoadUint64(&p.ext) }

// Drive sets the external value of pin i.
//
func (p *Pins) Drive(i int, level bool) {
	for {
		o := atomic.LoadUint64(&p.ext)
		n := o &^ (1 << uint(i))
		if level {
			n |= 1 << uint(i)
		}
		if atomic.CompareAndSwapUint64(&p.ext, o, n&fixed.Mask(p.n)) {
			return
		}
	}
}

// Pin returns the state of pin i.
//
func (p *Pins) Pin(i int) Pin {
	m := uint64(1) << uint(i)
	oe, out := p.driven()
	return Pin{
		OE:  oe&m != 0,
		Out: out&m != 0,
		Ext: atomic.LoadUint64(&p.ext)&m != 0,
	}
}

// Levels returns the level of all pins.
//
func (p *Pins) Levels() uint64 {
	oe, out := p.driven()
	return level(oe, out, atomic.LoadUint64(&p.ext)) & fixed.Mask(p.n)
}

func (p *Pins) driven() (oe, out uint64) {
	p.mu.RLock()
	oe, out = p.oe, p.out
	p.mu.RUnlock()
	return oe, out
}

func (p *Pins) drive(oe, out uint64) {
	p.mu.Lock()
	p.oe, p.out = oe, out
	p.mu.Unlock()
}

func level(oe, out, ext uint64) uint64 { return oe&out | ^oe&ext }

// shift returns a clocked component that shifts sample(c) into a chain of
// registers.
func shift(stages []locksim.Signal, sample func(c *locksim.Circuit) int64) locksim.Component {
	return func(c *locksim.Circuit) {
		for k := len(stages) - 1; k > 0; k-- {
			c.Next(stages[k], c.Get(stages[k-1]))
		}
		c.Next(stages[0], sample(c))
	}
}

// Synchronizer returns a chain of depth registers (at least MinSyncDepth).
//
//	Inputs: in
//	Outputs: out
//	Function: out(t) = in(t-depth)
//
func Synchronizer(bits, depth int) locksim.NewPartFn {
	if depth < MinSyncDepth {
		depth = MinSyncDepth
	}
	return (&locksim.PartSpec{
		Name:    "Synchronizer",
		Inputs:  []locksim.Port{{Name: pIn, Width: bits}},
		Outputs: []locksim.Port{{Name: pOut, Width: bits, Reg: true}},
		Mount: func(s *locksim.Socket) {
			in := s.In(pIn)
			stages := make([]locksim.Signal, depth)
			for k := 0; k < depth-1; k++ {
				stages[k] = s.Reg("s"+strconv.Itoa(k), bits, false, 0)
			}
			stages[depth-1] = s.Out(pOut)
			s.Sync(shift(stages, func(c *locksim.Circuit) int64 { return c.Get(in) }))
		}}).NewPart
}

// GPIO returns a GPIO block for the given pins.
//
// Pins with their oe bit set are driven with out | override, where override
// is an input of the block. Pin levels go through a Synchronizer of the given
// depth (at least MinSyncDepth), the output of which is the in status
// register. Like any Input, an external change lands after the next clock
// edge. From there, a level held for depth cycles is guaranteed to show in the
// in register. Shorter pulses may or may not show, depending on when they
// occur relative to the clock.
//
//	Inputs: override
//
// Registers, in bank order: in (ro), out, oe. All are as wide as pins.
//
func GPIO(pins *Pins, depth int) NewBlockFn {
	n := pins.Len()
	return func(name string, w locksim.W) *Block {
		return newBlock(name, w, func(bank *csr.Bank) *locksim.PartSpec {
			return &locksim.PartSpec{
				Name:   "Gpio",
				Inputs: []locksim.Port{{Name: "override", Width: n}},
				Mount: func(s *locksim.Socket) {
					ovr := s.In("override")
					lvl := s.Wire("level", n, false)
					s.Mount(Synchronizer(n, depth)("sync", locksim.W{pIn: "level", pOut: "sync_out"}))
					bank.Status("in", s.In("sync_out"))
					out := bank.Storage(s, "out", n, false, 0)
					oe := bank.Storage(s, "oe", n, false, 0)

					s.Comb([]locksim.Signal{out, oe, ovr}, []locksim.Signal{lvl}, func(c *locksim.Circuit) {
						en, driven := uint64(c.Get(oe)), uint64(c.Get(out)|c.Get(ovr))
						pins.drive(en, driven)
						c.Set(lvl, int64(level(en, driven, pins.Ext())))
					})
				}}
		})
	}
}
