// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package simtest provides utility functions for testing circuits.
//
package simtest

import (
	"context"
	"testing"

	"github.com/db47h/locksim"
	"github.com/db47h/locksim/client"
	"github.com/db47h/locksim/csr"
)

// A Bench is a step-driven circuit with its register banks reachable through
// a bus bridge.
//
// Register accesses go through the bridge and clock the circuit once per bus
// word. Bench methods fail the test on error.
//
type Bench struct {
	t      testing.TB
	c      *locksim.Circuit
	bridge *csr.Bridge
	array  *csr.Array
	cl     *client.Client
}

// NewBench mounts parts, places banks in order in the default address space
// (see csr.Assign) and builds the circuit with a single worker.
//
func NewBench(t testing.TB, parts []locksim.Part, banks []csr.Block, overrides map[string]int) *Bench {
	t.Helper()
	cfg := csr.DefaultConfig
	b := locksim.NewBuilder()
	if err := b.Mount(parts...); err != nil {
		t.Fatal(err)
	}
	names := make([]string, len(banks))
	for i, bk := range banks {
		names[i] = bk.Name()
	}
	amap, err := csr.Assign(names, overrides, cfg.Banks())
	if err != nil {
		t.Fatal(err)
	}
	array, err := csr.NewArray(cfg, amap, banks...)
	if err != nil {
		t.Fatal(err)
	}
	bridge := csr.NewBridge(csr.NewInterconnect(array))
	b.OnEdge(bridge.Edge)
	c, err := b.Build(1)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(c.Dispose)
	return &Bench{
		t:      t,
		c:      c,
		bridge: bridge,
		array:  array,
		cl:     client.New(bridge.Stepped(c), array.Table(), cfg.DataWidth),
	}
}

// Circuit returns the circuit under test.
//
func (b *Bench) Circuit() *locksim.Circuit { return b.c }

// Bridge returns the bus bridge.
//
func (b *Bench) Bridge() *csr.Bridge { return b.bridge }

// Array returns the bank array.
//
func (b *Bench) Array() *csr.Array { return b.array }

// Client returns a register client clocking the circuit.
//
func (b *Bench) Client() *client.Client { return b.cl }

// Step runs n clock cycles.
//
func (b *Bench) Step(n int) { b.c.Steps(n) }

// Net returns the current value of the named net.
//
func (b *Bench) Net(name string) int64 {
	b.t.Helper()
	s, ok := b.c.Lookup(name)
	if !ok {
		b.t.Fatalf("no such net: %s", name)
	}
	return b.c.Get(s)
}

// Get reads a register, sign extended if signed.
//
func (b *Bench) Get(name string) int64 {
	b.t.Helper()
	v, err := b.cl.GetInt(context.Background(), name)
	if err != nil {
		b.t.Fatal(err)
	}
	return v
}

// Set writes a register.
//
func (b *Bench) Set(name string, v int64) {
	b.t.Helper()
	if err := b.cl.Set(context.Background(), name, v); err != nil {
		b.t.Fatal(err)
	}
}
