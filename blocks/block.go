// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package blocks provides the functional blocks of the lock-in core: lock-in
// channels, filter stages, the filter mux and GPIO. Every block is a part
// that owns a csr.Bank.
//
// Unless noted otherwise, path samples are 18 bits signed.
//
package blocks

import (
	"github.com/db47h/locksim"
	"github.com/db47h/locksim/csr"
)

// Fixed point widths.
//
const (
	PathWidth      = 18 // signal path samples
	CoeffWidth     = 25 // filter coefficients
	PhaseWidth     = 32 // phase accumulators
	ConverterWidth = 14 // ADC and DAC samples
)

// A Block is a part together with the register bank it exposes to the bus.
// Registers are added to the bank when the part is mounted, so a Block must
// be mounted exactly once.
//
type Block struct {
	part locksim.Part
	bank *csr.Bank
}

// A NewBlockFn returns a new Block with the given instance name and
// connections. The instance name is also the bank name.
//
type NewBlockFn func(name string, w locksim.W) *Block

func newBlock(name string, w locksim.W, spec func(bank *csr.Bank) *locksim.PartSpec) *Block {
	bank := csr.NewBank(name)
	return &Block{part: spec(bank).NewPart(name, w), bank: bank}
}

// Part returns the block's part.
//
func (b *Block) Part() locksim.Part { return b.part }

// Bank returns the block's register bank.
//
func (b *Block) Bank() *csr.Bank { return b.bank }

// Name returns the block's instance name.
//
func (b *Block) Name() string { return b.part.Instance }

// status adds a registered status signal to bank.
func status(s *locksim.Socket, bank *csr.Bank, name string, width int, signed bool) locksim.Signal {
	sig := s.Reg(name, width, signed, 0)
	bank.Status(name, sig)
	return sig
}

func b2i(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

const (
	pI       = "i"
	pO       = "o"
	pIn      = "in"
	pOut     = "out"
	pADC     = "adc"
	pDAC     = "dac"
	pTrigger = "trigger"
)
