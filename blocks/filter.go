// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package blocks

import (
	"strings"

	"github.com/db47h/locksim"
	"github.com/db47h/locksim/csr"
	"github.com/db47h/locksim/fixed"
	"github.com/pkg/errors"
)

// CoeffFracBits is the number of fractional bits of filter coefficients when
// a0 is 0.
//
const CoeffFracBits = 24

// Coefficients holds the current coefficient register values of a filter
// stage. A2 and B2 are always 0 for first order stages.
//
type Coefficients struct {
	A0, A1, A2 int64
	B0, B1, B2 int64
}

// A Transform computes a filter stage output from its input.
//
// Output is evaluated combinationally and must not change the transform
// state. Advance is called once per clock edge with the settled input and
// output of the stage.
//
type Transform interface {
	Output(x int64, k *Coefficients) int64
	Advance(x, y int64)
}

// A TransformFn returns a new Transform instance. Each filter stage gets its
// own.
//
type TransformFn func() Transform

type passThrough struct{}

func (passThrough) Output(x int64, _ *Coefficients) int64 { return x }
func (passThrough) Advance(x, y int64)                     {}

// PassThrough returns a transform whose output is its input. Coefficients are
// ignored.
//
func PassThrough() Transform { return passThrough{} }

// DirectForm1 is a direct form I IIR transform:
//
//	y[n] = (b0 x[n] + b1 x[n-1] + b2 x[n-2] - a1 y[n-1] - a2 y[n-2]) >> (24 - a0)
//
// so that a0 sets the number of integer bits of the other coefficients. For
// a0 > 24 the sum is shifted left by a0 - 24, saturating.
//
type DirectForm1 struct {
	x1, x2 int64
	y1, y2 int64
}

// NewDirectForm1 returns a new DirectForm1 transform with zero state.
//
func NewDirectForm1() Transform { return new(DirectForm1) }

// Output implements Transform.
//
func (f *DirectForm1) Output(x int64, k *Coefficients) int64 {
	acc := k.B0*x + k.B1*f.x1 + k.B2*f.x2 - k.A1*f.y1 - k.A2*f.y2
	n := CoeffFracBits - k.A0
	if n < 0 {
		return fixed.Shl(acc, -n)
	}
	return fixed.Shr(acc, n)
}

// Advance implements Transform.
//
func (f *DirectForm1) Advance(x, y int64) {
	f.x2, f.x1 = f.x1, x
	f.y2, f.y1 = f.y1, y
}

// Transforms maps transform names to constructors.
//
var Transforms = map[string]TransformFn{
	"passthrough": PassThrough,
	"df1":         NewDirectForm1,
}

// TransformByName returns the named transform constructor.
//
func TransformByName(name string) (TransformFn, error) {
	if fn, ok := Transforms[strings.ToLower(name)]; ok {
		return fn, nil
	}
	return nil, errors.Errorf("unknown filter transform %q", name)
}

// IIR1 returns a first order filter stage with registers a0 (8 bits), a1, b0
// and b1 (25 bits signed).
//
//	Inputs: i
//	Outputs: o
//
func IIR1(tf TransformFn) NewBlockFn { return filter(1, tf) }

// IIR2 returns a second order filter stage with registers a0 (8 bits), a1,
// a2, b0, b1 and b2 (25 bits signed).
//
//	Inputs: i
//	Outputs: o
//
func IIR2(tf TransformFn) NewBlockFn { return filter(2, tf) }

func filter(order int, tf TransformFn) NewBlockFn {
	if tf == nil {
		tf = PassThrough
	}
	name := "IIR1"
	if order == 2 {
		name = "IIR2"
	}
	return func(inst string, w locksim.W) *Block {
		return newBlock(inst, w, func(bank *csr.Bank) *locksim.PartSpec {
			return &locksim.PartSpec{
				Name:    name,
				Inputs:  []locksim.Port{{Name: pI, Width: PathWidth, Signed: true}},
				Outputs: []locksim.Port{{Name: pO, Width: PathWidth, Signed: true}},
				Mount: func(s *locksim.Socket) {
					mountFilter(s, bank, order, tf())
				}}
		})
	}
}

func mountFilter(s *locksim.Socket, bank *csr.Bank, order int, t Transform) {
	i, o := s.In(pI), s.Out(pO)
	a0 := bank.Storage(s, "a0", 8, false, 0)
	a1 := bank.Storage(s, "a1", CoeffWidth, true, 0)
	var a2, b2 locksim.Signal
	if order == 2 {
		a2 = bank.Storage(s, "a2", CoeffWidth, true, 0)
	}
	b0 := bank.Storage(s, "b0", CoeffWidth, true, 0)
	b1 := bank.Storage(s, "b1", CoeffWidth, true, 0)
	if order == 2 {
		b2 = bank.Storage(s, "b2", CoeffWidth, true, 0)
	}

	coeffs := func(c *locksim.Circuit) Coefficients {
		k := Coefficients{
			A0: c.Get(a0), A1: c.Get(a1),
			B0: c.Get(b0), B1: c.Get(b1),
		}
		if order == 2 {
			k.A2, k.B2 = c.Get(a2), c.Get(b2)
		}
		return k
	}

	s.Comb([]locksim.Signal{i}, []locksim.Signal{o}, func(c *locksim.Circuit) {
		k := coeffs(c)
		c.Set(o, fixed.Saturate(t.Output(c.Get(i), &k), PathWidth, true))
	})
	if _, ok := t.(passThrough); !ok {
		s.Sync(func(c *locksim.Circuit) {
			t.Advance(c.Get(i), c.Get(o))
		})
	}
}
