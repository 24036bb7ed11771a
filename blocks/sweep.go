// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package blocks

import (
	"github.com/db47h/locksim"
	"github.com/db47h/locksim/fixed"
)

var sweepSpec = &locksim.PartSpec{
	Name: "Sweep",
	Inputs: []locksim.Port{
		{Name: "amp", Width: PathWidth, Signed: true},
		{Name: "offset", Width: PathWidth, Signed: true},
		{Name: "freq", Width: PathWidth},
	},
	Outputs: []locksim.Port{
		{Name: pO, Width: PathWidth, Signed: true, Reg: true},
		{Name: pTrigger, Width: 1, Reg: true},
	},
	Mount: func(s *locksim.Socket) {
		amp, off, freq := s.In("amp"), s.In("offset"), s.In("freq")
		o, trig := s.Out(pO), s.Out(pTrigger)
		down := s.Reg("down", 1, false, 0)
		s.Sync(func(c *locksim.Circuit) {
			lo := fixed.Saturate(c.Get(off)-c.Get(amp), PathWidth, true)
			hi := fixed.Saturate(c.Get(off)+c.Get(amp), PathWidth, true)
			v, d, f := c.Get(o), c.Get(down) != 0, c.Get(freq)
			var t bool
			switch {
			case f == 0:
				// stopped
			case !d:
				if v += f; v >= hi {
					v, d = hi, true
				}
			default:
				if v -= f; v <= lo {
					v, d, t = lo, false, true
				}
			}
			c.Next(o, fixed.Clamp(v, lo, hi))
			c.Next(down, b2i(d))
			c.Next(trig, b2i(t))
		})
	}}

// Sweep returns a triangle ramp generator.
//
// The output ramps up and down between offset-amp and offset+amp by freq per
// clock cycle, clamped at the bounds. trigger is high for one cycle each time
// the ramp turns at its lower bound. A zero freq freezes the ramp.
//
//	Inputs: amp, offset, freq
//	Outputs: o, trigger
//
func Sweep(name string, w locksim.W) locksim.Part {
	return sweepSpec.NewPart(name, w)
}
