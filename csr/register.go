// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package csr implements the configuration and status register layer: register
// banks, their placement in the host address space, and the bus bridge that
// gives a host access to them.
//
package csr

import (
	"strings"

	"github.com/db47h/locksim"
	"github.com/db47h/locksim/fixed"
	"github.com/pkg/errors"
)

// Access is a register access mode.
//
type Access int

// Register access modes.
//
const (
	ReadWrite Access = iota // storage, written by the host
	ReadOnly                // status, driven by the owning block
)

func (a Access) String() string {
	if a == ReadOnly {
		return "ro"
	}
	return "rw"
}

// MarshalText implements encoding.TextMarshaler.
//
func (a Access) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
//
func (a *Access) UnmarshalText(b []byte) error {
	switch strings.ToLower(string(b)) {
	case "rw":
		*a = ReadWrite
	case "ro":
		*a = ReadOnly
	default:
		return errors.Errorf("invalid access mode %q", b)
	}
	return nil
}

// MarshalYAML implements yaml.Marshaler.
//
func (a Access) MarshalYAML() (interface{}, error) {
	return a.String(), nil
}

// A Register is a named, fixed-width configuration or status cell.
//
// Storage registers are registered signals: a host write becomes visible to
// the owning block on the cycle following the bus transaction. Status
// registers are bound to a signal driven by their block.
//
type Register struct {
	Name   string
	Width  int
	Access Access
	Reset  int64
	Signal locksim.Signal
}

// Block is the capability every register bank exposes to the bus.
//
type Block interface {
	// Name returns the bank name.
	Name() string
	// Registers returns the bank's registers, in offset order.
	Registers() []*Register
	// Read returns the raw bits of register i.
	Read(c *locksim.Circuit, i int) uint64
	// Write sets register i to v, truncated to the register width.
	// Writes to read-only registers are ignored.
	Write(c *locksim.Circuit, i int, v uint64)
}

// A Bank is an ordered group of registers belonging to one block.
//
// Registers are added while the owning part is being mounted, so that they
// can be bound to the part's signals.
//
type Bank struct {
	name string
	regs []*Register
}

// NewBank returns a new empty bank.
//
func NewBank(name string) *Bank {
	return &Bank{name: name}
}

// Name implements Block.
//
func (b *Bank) Name() string { return b.name }

// Registers implements Block.
//
func (b *Bank) Registers() []*Register { return b.regs }

// Index returns the index of the named register.
//
func (b *Bank) Index(name string) (int, bool) {
	for i, r := range b.regs {
		if r.Name == name {
			return i, true
		}
	}
	return -1, false
}

// Storage adds a read-write register to the bank and returns the registered
// signal holding its value.
//
func (b *Bank) Storage(s *locksim.Socket, name string, width int, signed bool, reset int64) locksim.Signal {
	sig := s.Reg(name, width, signed, reset)
	b.regs = append(b.regs, &Register{Name: name, Width: width, Access: ReadWrite, Reset: reset, Signal: sig})
	return sig
}

// Status adds a read-only register bound to sig.
//
func (b *Bank) Status(name string, sig locksim.Signal) {
	b.regs = append(b.regs, &Register{Name: name, Width: sig.Width(), Access: ReadOnly, Signal: sig})
}

// Read implements Block.
//
func (b *Bank) Read(c *locksim.Circuit, i int) uint64 {
	r := b.regs[i]
	return uint64(c.Get(r.Signal)) & fixed.Mask(r.Width)
}

// Write implements Block.
//
func (b *Bank) Write(c *locksim.Circuit, i int, v uint64) {
	r := b.regs[i]
	if r.Access == ReadOnly {
		return
	}
	c.Next(r.Signal, int64(v&fixed.Mask(r.Width)))
}
