// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package cordic provides the vector rotation primitive used by the lock-in
// channels for modulation and demodulation.
//
// Phases are unsigned 32 bit fractions of a full turn: 1<<30 is a quarter
// turn. Rotations are counter-clockwise.
//
package cordic

import (
	"math"

	"github.com/db47h/locksim/fixed"
)

// A Rotator rotates the vector (x, y) by phase.
//
// Implementations must saturate their outputs to their configured width and
// keep the rounding error bounded, but need not be bit-exact with each other.
//
type Rotator interface {
	Rotate(x, y int64, phase uint32) (xo, yo int64)
}

const (
	gainBits = 30
	guard    = 6
)

// Cordic is a shift-and-add rotator. It is functionally equivalent to a
// fully pipelined hardware CORDIC with Stages() stages, evaluated without
// pipeline delay.
//
type Cordic struct {
	width  int
	stages int
	atan   []int64
	gain   int64
}

// New returns a CORDIC rotator for signed samples of the given width.
//
func New(width int) *Cordic {
	c := &Cordic{
		width:  width,
		stages: width + 2,
	}
	c.atan = make([]int64, c.stages)
	for i := range c.atan {
		c.atan[i] = int64(math.Round(math.Atan(math.Ldexp(1, -i)) / (2 * math.Pi) * (1 << 32)))
	}
	k := 1.0
	for i := 0; i < c.stages; i++ {
		k /= math.Sqrt(1 + math.Ldexp(1, -2*i))
	}
	c.gain = int64(math.Round(k * (1 << gainBits)))
	return c
}

// Width returns the sample width in bits.
//
func (c *Cordic) Width() int { return c.width }

// Stages returns the number of micro-rotations.
//
func (c *Cordic) Stages() int { return c.stages }

// Rotate implements Rotator.
//
func (c *Cordic) Rotate(x, y int64, phase uint32) (xo, yo int64) {
	// pre-rotate by whole quadrants so that the residual angle is in
	// [0, pi/2), well within the convergence range.
	switch phase >> 30 {
	case 1:
		x, y = -y, x
	case 2:
		x, y = -x, -y
	case 3:
		x, y = y, -x
	}
	z := int64(phase & (1<<30 - 1))
	x <<= guard
	y <<= guard
	for i, a := range c.atan {
		s := uint(i)
		if z >= 0 {
			x, y = x-y>>s, y+x>>s
			z -= a
		} else {
			x, y = x+y>>s, y-x>>s
			z += a
		}
	}
	const shift = gainBits + guard
	xo = (x*c.gain + 1<<(shift-1)) >> shift
	yo = (y*c.gain + 1<<(shift-1)) >> shift
	return fixed.Saturate(xo, c.width, true), fixed.Saturate(yo, c.width, true)
}

// Float is a floating point reference rotator.
//
type Float struct {
	Width int
}

// Rotate implements Rotator.
//
func (f Float) Rotate(x, y int64, phase uint32) (xo, yo int64) {
	s, c := math.Sincos(2 * math.Pi * float64(phase) / (1 << 32))
	fx, fy := float64(x), float64(y)
	xo = int64(math.Round(fx*c - fy*s))
	yo = int64(math.Round(fx*s + fy*c))
	return fixed.Saturate(xo, f.Width, true), fixed.Saturate(yo, f.Width, true)
}
