// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package locksim

import (
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// ErrCombLoop is the cause of the error returned by Builder.Build when the
// combinational parts of a circuit form a cycle that does not go through at
// least one registered signal.
//
var ErrCombLoop = errors.New("combinational loop")

const (
	cstZero = iota
	cstCount
)

type net struct {
	name   string
	width  int
	signed bool
	reg    bool
	reset  int64
	driver string // instance name of the driving part
}

type combComp struct {
	name   string
	reads  []Signal
	writes []Signal
	fn     Component
}

func (b *Builder) alloc(name string, width int, signed bool) int {
	n := len(b.nets)
	b.nets = append(b.nets, &net{name: name, width: width, signed: signed})
	return n
}

func (b *Builder) drive(n int, part string, reg bool, reset int64) error {
	if n == cstZero {
		return errors.New("output pin connected to constant " + Zero)
	}
	nt := b.nets[n]
	if nt.driver != "" {
		return errors.Errorf("net %s driven by both %s and %s", nt.name, nt.driver, part)
	}
	nt.driver, nt.reg, nt.reset = part, reg, reset
	return nil
}

// checkWiring validates the net list and returns the combinational
// components in evaluation order.
//
func (b *Builder) checkWiring() ([]Component, error) {
	writer := make([]int, len(b.nets))
	for i := range writer {
		writer[i] = -1
	}

	for ci, cc := range b.comb {
		for _, w := range cc.writes {
			nt := b.nets[w.n]
			if w.n == cstZero {
				return nil, errors.Errorf("%s: combinational write to constant %s", cc.name, Zero)
			}
			if nt.reg {
				return nil, errors.Errorf("%s: combinational write to registered signal %s", cc.name, nt.name)
			}
			if writer[w.n] >= 0 {
				return nil, errors.Errorf("net %s written by %s and %s", nt.name, b.comb[writer[w.n]].name, cc.name)
			}
			writer[w.n] = ci
		}
	}

	for n := cstCount; n < len(b.nets); n++ {
		nt := b.nets[n]
		if nt.driver == "" {
			return nil, errors.New("net " + nt.name + " not connected to any output")
		}
		if !nt.reg && writer[n] < 0 {
			return nil, errors.New("net " + nt.name + " has no combinational driver")
		}
	}

	// Kahn's algorithm. Edges run from the component writing a net to every
	// component reading it. Registered signals cut the graph.
	indeg := make([]int, len(b.comb))
	next := make([][]int, len(b.comb))
	for ci, cc := range b.comb {
		for _, r := range cc.reads {
			if r.n == cstZero || b.nets[r.n].reg {
				continue
			}
			w := writer[r.n]
			next[w] = append(next[w], ci)
			indeg[ci]++
		}
	}
	queue := make([]int, 0, len(b.comb))
	for ci := range b.comb {
		if indeg[ci] == 0 {
			queue = append(queue, ci)
		}
	}
	order := make([]Component, 0, len(b.comb))
	for len(queue) > 0 {
		ci := queue[0]
		queue = queue[1:]
		order = append(order, b.comb[ci].fn)
		for _, nc := range next[ci] {
			indeg[nc]--
			if indeg[nc] == 0 {
				queue = append(queue, nc)
			}
		}
	}

	if len(order) < len(b.comb) {
		seen := make(map[string]bool)
		var names []string
		for ci, d := range indeg {
			if d > 0 && !seen[b.comb[ci].name] {
				seen[b.comb[ci].name] = true
				names = append(names, b.comb[ci].name)
			}
		}
		sort.Strings(names)
		return nil, errors.Wrap(ErrCombLoop, "through "+strings.Join(names, ", "))
	}
	return order, nil
}
