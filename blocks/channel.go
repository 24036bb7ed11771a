// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package blocks

import (
	"github.com/db47h/locksim"
	"github.com/db47h/locksim/cordic"
	"github.com/db47h/locksim/csr"
	"github.com/db47h/locksim/fixed"
)

const (
	// DemodUnity is the demod_amp value for a demodulation gain of 1.
	DemodUnity = 1 << 16
	// PhaseOffsetShift is the left shift applied to the 18 bit demod_phase
	// register to obtain a 32 bit phase offset.
	PhaseOffsetShift = PhaseWidth - PathWidth
	// converter samples are left aligned on the signal path
	adcShift = PathWidth - ConverterWidth
)

// Channel returns a lock-in channel using rot for both modulation and
// demodulation.
//
//	Inputs: adc (14 bits), i
//	Outputs: o, dac (14 bits, registered), trigger
//
// The input path scales the ADC sample: x = clamp(adc >> in_shift, in_min,
// in_max). The forwarded output o is x, or its demodulation when demod is
// set. The output path computes
//
//	y = clamp((i + mod_out + sweep_out) >> out_shift, out_min, out_max)
//
// where mod_out and sweep_out only contribute when enabled. dac is y
// truncated to the converter width.
//
// The modulation phase accumulator advances by mod_freq every clock. The
// demodulation phase is the modulation phase plus demod_phase << 14 on every
// cycle, so both stay coherent.
//
// Registers, in bank order:
//
//	in_min, in_max, in_shift, in_val (ro), in_low (ro), in_high (ro),
//	demod, demod_amp, demod_phase,
//	mod, mod_amp, mod_freq (32 bits),
//	sweep, sweep_amp, sweep_offset, sweep_freq,
//	out_min, out_max, out_shift, out_val (ro), out_low (ro), out_high (ro)
//
// Enables and flags are 1 bit wide, other registers 18 bits.
//
func Channel(rot cordic.Rotator) NewBlockFn {
	return func(name string, w locksim.W) *Block {
		return newBlock(name, w, func(bank *csr.Bank) *locksim.PartSpec {
			return &locksim.PartSpec{
				Name: "InOut",
				Inputs: []locksim.Port{
					{Name: pADC, Width: ConverterWidth, Signed: true},
					{Name: pI, Width: PathWidth, Signed: true},
				},
				Outputs: []locksim.Port{
					{Name: pO, Width: PathWidth, Signed: true},
					{Name: pDAC, Width: ConverterWidth, Signed: true, Reg: true},
					{Name: pTrigger, Width: 1},
				},
				Mount: func(s *locksim.Socket) {
					mountChannel(s, bank, rot)
				}}
		})
	}
}

func mountChannel(s *locksim.Socket, bank *csr.Bank, rot cordic.Rotator) {
	adc, i := s.In(pADC), s.In(pI)
	o, dac, trig := s.Out(pO), s.Out(pDAC), s.Out(pTrigger)
	pmin, pmax := fixed.Min(PathWidth, true), fixed.Max(PathWidth, true)

	inMin := bank.Storage(s, "in_min", PathWidth, true, pmin)
	inMax := bank.Storage(s, "in_max", PathWidth, true, pmax)
	inShift := bank.Storage(s, "in_shift", PathWidth, false, 0)
	inVal := status(s, bank, "in_val", PathWidth, true)
	inLow := status(s, bank, "in_low", 1, false)
	inHigh := status(s, bank, "in_high", 1, false)

	demodEn := bank.Storage(s, "demod", 1, false, 0)
	demodAmp := bank.Storage(s, "demod_amp", PathWidth, true, DemodUnity)
	demodPhase := bank.Storage(s, "demod_phase", PathWidth, false, 0)

	modEn := bank.Storage(s, "mod", 1, false, 0)
	modAmp := bank.Storage(s, "mod_amp", PathWidth, true, 0)
	modFreq := bank.Storage(s, "mod_freq", PhaseWidth, false, 0)

	sweepEn := bank.Storage(s, "sweep", 1, false, 0)
	bank.Storage(s, "sweep_amp", PathWidth, true, 0)
	bank.Storage(s, "sweep_offset", PathWidth, true, 0)
	bank.Storage(s, "sweep_freq", PathWidth, false, 0)

	outMin := bank.Storage(s, "out_min", PathWidth, true, pmin)
	outMax := bank.Storage(s, "out_max", PathWidth, true, pmax)
	outShift := bank.Storage(s, "out_shift", PathWidth, false, 0)
	outVal := status(s, bank, "out_val", PathWidth, true)
	outLow := status(s, bank, "out_low", 1, false)
	outHigh := status(s, bank, "out_high", 1, false)

	// input path
	xs := s.Wire("in_scaled", PathWidth, true)
	x := s.Wire("x", PathWidth, true)
	s.Comb([]locksim.Signal{adc, inShift, inMin, inMax}, []locksim.Signal{xs, x}, func(c *locksim.Circuit) {
		v := fixed.Shr(c.Get(adc)<<adcShift, c.Get(inShift))
		c.Set(xs, v)
		c.Set(x, fixed.Clamp(v, c.Get(inMin), c.Get(inMax)))
	})

	// phase
	modAcc := s.Reg("mod_acc", PhaseWidth, false, 0)
	demodAcc := s.Wire("demod_acc", PhaseWidth, false)
	s.Comb([]locksim.Signal{modAcc, demodPhase}, []locksim.Signal{demodAcc}, func(c *locksim.Circuit) {
		c.Set(demodAcc, c.Get(modAcc)+c.Get(demodPhase)<<PhaseOffsetShift)
	})

	// modulation and demodulation
	modOut := s.Wire("mod_out", PathWidth, true)
	s.Comb([]locksim.Signal{modAmp, modAcc}, []locksim.Signal{modOut}, func(c *locksim.Circuit) {
		xo, _ := rot.Rotate(c.Get(modAmp), 0, uint32(c.Get(modAcc)))
		c.Set(modOut, xo)
	})
	demodOut := s.Wire("demod_out", PathWidth, true)
	s.Comb([]locksim.Signal{x, demodAcc, demodAmp}, []locksim.Signal{demodOut}, func(c *locksim.Circuit) {
		xo, _ := rot.Rotate(c.Get(x), 0, uint32(c.Get(demodAcc)))
		c.Set(demodOut, fixed.Saturate(xo*c.Get(demodAmp)>>16, PathWidth, true))
	})
	s.Comb([]locksim.Signal{demodEn, demodOut, x}, []locksim.Signal{o}, func(c *locksim.Circuit) {
		if c.Get(demodEn) != 0 {
			c.Set(o, c.Get(demodOut))
		} else {
			c.Set(o, c.Get(x))
		}
	})

	// sweep
	s.Mount(Sweep("sweep", locksim.W{
		"amp":    "sweep_amp",
		"offset": "sweep_offset",
		"freq":   "sweep_freq",
		pO:       "sweep_out",
		pTrigger: "sweep_trigger",
	}))
	sweepOut, sweepTrig := s.In("sweep_out"), s.In("sweep_trigger")
	s.Comb([]locksim.Signal{sweepTrig}, []locksim.Signal{trig}, func(c *locksim.Circuit) {
		c.Set(trig, c.Get(sweepTrig))
	})

	// output path; the sum of three path samples needs two extra bits
	ys := s.Wire("out_scaled", PathWidth+2, true)
	y := s.Wire("y", PathWidth, true)
	s.Comb([]locksim.Signal{i, modEn, modOut, sweepEn, sweepOut, outShift, outMin, outMax}, []locksim.Signal{ys, y},
		func(c *locksim.Circuit) {
			sum := c.Get(i)
			if c.Get(modEn) != 0 {
				sum += c.Get(modOut)
			}
			if c.Get(sweepEn) != 0 {
				sum += c.Get(sweepOut)
			}
			v := fixed.Shr(sum, c.Get(outShift))
			c.Set(ys, v)
			c.Set(y, fixed.Clamp(v, c.Get(outMin), c.Get(outMax)))
		})

	s.Sync(func(c *locksim.Circuit) {
		c.Next(modAcc, c.Get(modAcc)+c.Get(modFreq))

		v := c.Get(xs)
		c.Next(inVal, c.Get(x))
		c.Next(inLow, b2i(v <= c.Get(inMin)))
		c.Next(inHigh, b2i(v >= c.Get(inMax)))

		v = c.Get(ys)
		c.Next(outVal, c.Get(y))
		c.Next(outLow, b2i(v <= c.Get(outMin)))
		c.Next(outHigh, b2i(v >= c.Get(outMax)))
		c.Next(dac, c.Get(y)>>adcShift)
	})
}
