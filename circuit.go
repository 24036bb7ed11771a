// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package locksim

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// Circuit is a runnable circuit simulation. Each call to Step simulates one
// clock edge of a single clock domain.
//
// A Step runs in four phases:
//
//	1. clocked components compute the next value of registered signals from
//	   the current (settled) values,
//	2. edge hooks run serially (this is where bus transactions happen),
//	3. next values are committed to registered signals,
//	4. combinational components re-settle in topological order.
//
// Once Step returns, every net holds its value for the new cycle.
//
type Circuit struct {
	v     []int64 // current values
	nx    []int64 // next values of registered signals
	regs  []int
	comb  []Component
	sync  []Component
	edge  []Component
	names map[string]Signal
	cycle uint64

	wc []chan struct{}
	wg sync.WaitGroup
}

func newCircuit(nets []*net, comb, clocked, edge []Component, workers int) *Circuit {
	c := &Circuit{
		v:     make([]int64, len(nets)),
		nx:    make([]int64, len(nets)),
		comb:  comb,
		sync:  clocked,
		edge:  edge,
		names: make(map[string]Signal, len(nets)),
	}
	for n, nt := range nets {
		s := Signal{n: n, width: nt.width, signed: nt.signed}
		c.names[nt.name] = s
		if nt.reg {
			c.regs = append(c.regs, n)
			c.v[n] = s.norm(nt.reset)
			c.nx[n] = c.v[n]
		}
	}

	if workers == 0 {
		workers = runtime.GOMAXPROCS(-1)
	}
	if workers > 1 {
		ups := clocked
		for len(ups) > 0 {
			size := len(ups) / workers
			if size*workers < len(ups) {
				size++
			}
			wc := make(chan struct{}, 1)
			c.wc = append(c.wc, wc)
			go worker(c, ups[:size], wc)
			ups = ups[size:]
		}
	}

	c.settle()
	return c
}

// Dispose releases all resources allocated for a circuit and stops
// worker goroutines.
//
func (c *Circuit) Dispose() {
	c.wg.Add(len(c.wc))
	for _, wc := range c.wc {
		close(wc)
	}
	c.wg.Wait()
	c.wc = nil
}

func worker(c *Circuit, cs []Component, wc <-chan struct{}) {
	for {
		_, ok := <-wc
		if !ok {
			c.wg.Done()
			return
		}
		for _, f := range cs {
			f(c)
		}
		c.wg.Done()
	}
}

func (c *Circuit) settle() {
	for _, f := range c.comb {
		f(c)
	}
}

// Step advances the simulation by one clock cycle.
//
// Step must not be called concurrently with itself or while Run is active.
//
func (c *Circuit) Step() {
	if len(c.wc) > 0 {
		c.wg.Add(len(c.wc))
		for _, wc := range c.wc {
			wc <- struct{}{}
		}
		c.wg.Wait()
	} else {
		for _, f := range c.sync {
			f(c)
		}
	}
	for _, f := range c.edge {
		f(c)
	}
	for _, n := range c.regs {
		c.v[n] = c.nx[n]
	}
	c.settle()
	atomic.AddUint64(&c.cycle, 1)
}

// Steps runs n clock cycles.
//
func (c *Circuit) Steps(n int) {
	for i := 0; i < n; i++ {
		c.Step()
	}
}

// Cycle returns the number of clock cycles simulated so far. It is safe to
// call concurrently with Run.
//
func (c *Circuit) Cycle() uint64 {
	return atomic.LoadUint64(&c.cycle)
}

// Get returns the current value of signal s.
//
func (c *Circuit) Get(s Signal) int64 {
	return c.v[s.n]
}

// Set sets the value of the combinational signal s. It must only be called
// from combinational components.
//
func (c *Circuit) Set(s Signal, v int64) {
	c.v[s.n] = s.norm(v)
}

// Next sets the value that registered signal s takes on the current clock
// edge. It must only be called from clocked components and edge hooks.
//
func (c *Circuit) Next(s Signal, v int64) {
	c.nx[s.n] = s.norm(v)
}

// Lookup returns the signal for the given fully qualified net name, for
// example "io_a.mod_phase".
//
func (c *Circuit) Lookup(name string) (Signal, bool) {
	s, ok := c.names[name]
	return s, ok
}

// Size returns the component count in the circuit.
//
func (c *Circuit) Size() int { return len(c.comb) + len(c.sync) + len(c.edge) }
