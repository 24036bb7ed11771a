// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package locksim

import (
	"strconv"
)

// Input returns a combinational input of the given width. f is called every
// time the circuit settles, so it models a signal that may change at any
// time relative to the clock.
//
//	Outputs: out
//	Function: out = f()
//
func Input(bits int, signed bool, f func() int64) NewPartFn {
	return (&PartSpec{
		Name:    "Input" + strconv.Itoa(bits),
		Outputs: []Port{{Name: pOut, Width: bits, Signed: signed}},
		Mount: func(s *Socket) {
			out := s.Out(pOut)
			s.Comb(nil, []Signal{out}, func(c *Circuit) {
				c.Set(out, f())
			})
		}}).NewPart
}

// Sampler returns a registered input of the given width. f is called once per
// clock edge, which models a converter synchronous to the core clock.
//
//	Outputs: out
//	Function: out(t) = f() sampled at edge t
//
func Sampler(bits int, signed bool, f func() int64) NewPartFn {
	return (&PartSpec{
		Name:    "Sampler" + strconv.Itoa(bits),
		Outputs: []Port{{Name: pOut, Width: bits, Signed: signed, Reg: true}},
		Mount: func(s *Socket) {
			out := s.Out(pOut)
			s.Sync(func(c *Circuit) {
				c.Next(out, f())
			})
		}}).NewPart
}

// Output creates an output or probe. The f function is called with the
// settled value of its input once per cycle.
//
//	Inputs: in
//	Function: f(in)
//
func Output(bits int, signed bool, f func(int64)) NewPartFn {
	return (&PartSpec{
		Name:   "Output" + strconv.Itoa(bits),
		Inputs: []Port{{Name: pIn, Width: bits, Signed: signed}},
		Mount: func(s *Socket) {
			in := s.In(pIn)
			s.Comb([]Signal{in}, nil, func(c *Circuit) {
				f(c.Get(in))
			})
		}}).NewPart
}

const (
	pIn  = "in"
	pOut = "out"
)
