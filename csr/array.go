// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package csr

import (
	"github.com/db47h/locksim"
	"github.com/db47h/locksim/fixed"
	"github.com/pkg/errors"
)

// ErrUnmapped is the cause of decode errors for addresses that do not map to
// any register.
//
var ErrUnmapped = errors.New("unmapped address")

// Config describes the register address space.
//
// A host byte address decodes as follows, after subtracting Base:
//
//	bits [0, 2)                              ignored (word aligned)
//	bits [2, 2+OffsetBits)                   word offset in bank
//	bits [2+OffsetBits, 2+OffsetBits+BankBits) bank index
//
// Any higher bit set is a decode error.
//
type Config struct {
	// Internal register bus data width: 8, 16 or 32. Registers wider than
	// this span several consecutive words, most significant chunk first.
	DataWidth int `koanf:"data_width" yaml:"data_width"`
	// Number of word offset bits per bank.
	OffsetBits int `koanf:"offset_bits" yaml:"offset_bits"`
	// Number of bank index bits.
	BankBits int `koanf:"bank_bits" yaml:"bank_bits"`
	// Base host address of the register space.
	Base uint32 `koanf:"base" yaml:"base"`
}

// DefaultConfig is the default register address space: 32 banks of 512 words
// at 0x40300000.
//
var DefaultConfig = Config{
	DataWidth:  32,
	OffsetBits: 9,
	BankBits:   5,
	Base:       0x40300000,
}

// Banks returns the number of banks in the address space.
//
func (cfg Config) Banks() int { return 1 << uint(cfg.BankBits) }

func (cfg Config) check() error {
	switch cfg.DataWidth {
	case 8, 16, 32:
	default:
		return errors.Errorf("invalid data width %d", cfg.DataWidth)
	}
	if cfg.OffsetBits < 1 || cfg.BankBits < 1 || 2+cfg.OffsetBits+cfg.BankBits > 32 {
		return errors.Errorf("invalid address layout: %d offset bits, %d bank bits", cfg.OffsetBits, cfg.BankBits)
	}
	return nil
}

type slot struct {
	reg   int
	shift uint
	bits  int
	last  bool
}

type mapped struct {
	blk     Block
	slots   []slot
	pending []uint64 // last committed value, merged with leading chunks of multi-word writes
}

// An Array holds every bank at its assigned index and decodes host addresses.
//
type Array struct {
	cfg   Config
	amap  *AddressMap
	banks []*mapped
}

// NewArray places the given blocks according to amap. Every block must have an
// index in amap and every name in amap must have a block.
//
func NewArray(cfg Config, amap *AddressMap, blocks ...Block) (*Array, error) {
	if err := cfg.check(); err != nil {
		return nil, err
	}
	if amap.Capacity() > cfg.Banks() {
		return nil, errors.Errorf("address map capacity %d exceeds %d banks", amap.Capacity(), cfg.Banks())
	}
	a := &Array{cfg: cfg, amap: amap, banks: make([]*mapped, cfg.Banks())}
	for _, blk := range blocks {
		i, ok := amap.Index(blk.Name())
		if !ok {
			return nil, errors.New("bank " + blk.Name() + " has no address")
		}
		if a.banks[i] != nil {
			return nil, errors.Errorf("address collision at index %d: %s", i, blk.Name())
		}
		m := &mapped{blk: blk, pending: make([]uint64, len(blk.Registers()))}
		for ri, r := range blk.Registers() {
			if r.Width < 1 || r.Width > 64 {
				return nil, errors.Errorf("%s.%s: invalid register width %d", blk.Name(), r.Name, r.Width)
			}
			m.pending[ri] = uint64(r.Reset) & fixed.Mask(r.Width)
			words := (r.Width + cfg.DataWidth - 1) / cfg.DataWidth
			for k := words - 1; k >= 0; k-- {
				bits := r.Width - k*cfg.DataWidth
				if bits > cfg.DataWidth {
					bits = cfg.DataWidth
				}
				m.slots = append(m.slots, slot{reg: ri, shift: uint(k * cfg.DataWidth), bits: bits, last: k == 0})
			}
		}
		if len(m.slots) > 1<<uint(cfg.OffsetBits) {
			return nil, errors.Errorf("bank %s needs %d words, only %d available", blk.Name(), len(m.slots), 1<<uint(cfg.OffsetBits))
		}
		a.banks[i] = m
	}
	for _, as := range amap.Assignments() {
		if a.banks[as.Index] == nil {
			return nil, errors.New("bank " + as.Name + " has an address but no block")
		}
	}
	return a, nil
}

// Config returns the address space configuration.
//
func (a *Array) Config() Config { return a.cfg }

// Map returns the bank address map.
//
func (a *Array) Map() *AddressMap { return a.amap }

// Block returns the named bank.
//
func (a *Array) Block(name string) (Block, bool) {
	i, ok := a.amap.Index(name)
	if !ok {
		return nil, false
	}
	return a.banks[i].blk, true
}

// Decode returns the bank index and word offset for a host address.
//
func (a *Array) Decode(addr uint32) (bank int, offset int, err error) {
	if addr < a.cfg.Base {
		return 0, 0, errors.Wrapf(ErrUnmapped, "address %#08x", addr)
	}
	word := (addr - a.cfg.Base) >> 2
	bank = int(word >> uint(a.cfg.OffsetBits))
	offset = int(word & uint32(fixed.Mask(a.cfg.OffsetBits)))
	if bank >= len(a.banks) || a.banks[bank] == nil || offset >= len(a.banks[bank].slots) {
		return 0, 0, errors.Wrapf(ErrUnmapped, "address %#08x", addr)
	}
	return bank, offset, nil
}

// Address returns the host address of the first word of a register.
//
func (a *Array) Address(bank, word int) uint32 {
	return a.cfg.Base + uint32(bank<<uint(a.cfg.OffsetBits)+word)<<2
}

func laneMask(sel uint8) uint64 {
	var m uint64
	for i := uint(0); i < 4; i++ {
		if sel&(1<<i) != 0 {
			m |= 0xff << (8 * i)
		}
	}
	return m
}

func (a *Array) read(c *locksim.Circuit, bank, offset int) uint32 {
	m := a.banks[bank]
	s := m.slots[offset]
	return uint32(m.blk.Read(c, s.reg) >> s.shift & fixed.Mask(s.bits))
}

func (a *Array) write(c *locksim.Circuit, bank, offset int, data uint32, sel uint8) {
	m := a.banks[bank]
	s := m.slots[offset]
	lanes := laneMask(sel) & fixed.Mask(s.bits)
	chunkMask := fixed.Mask(s.bits) << s.shift
	if !s.last {
		prev := m.pending[s.reg] >> s.shift
		v := prev&^lanes | uint64(data)&lanes
		m.pending[s.reg] = m.pending[s.reg]&^chunkMask | v<<s.shift&chunkMask
		return
	}
	cur := m.blk.Read(c, s.reg)
	v := cur&^lanes | uint64(data)&lanes
	full := m.pending[s.reg]&^chunkMask | v&chunkMask
	m.blk.Write(c, s.reg, full)
	m.pending[s.reg] = full & fixed.Mask(m.blk.Registers()[s.reg].Width)
}
