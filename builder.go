// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package locksim

import (
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// A Builder assembles parts into a circuit. Parts are mounted in a flat
// top-level namespace; nets are created on first reference by name.
//
// The topology is frozen by Build. A Builder cannot be reused afterwards.
//
type Builder struct {
	nets  []*net
	top   *Socket
	comb  []combComp
	sync  []Component
	edge  []Component
	insts map[string]bool
	err   error
	built bool
}

// NewBuilder returns a new, empty Builder.
//
func NewBuilder() *Builder {
	b := &Builder{insts: make(map[string]bool)}
	b.nets = []*net{{name: Zero, width: 64, signed: true, driver: "const"}}
	b.top = newSocket(b, "", "top")
	return b
}

func (b *Builder) fail(err error) {
	if b.err == nil {
		b.err = err
	}
}

// Mount mounts the given parts. It returns the first wiring error encountered
// so far, including errors reported by the parts' MountFn.
//
func (b *Builder) Mount(parts ...Part) error {
	if b.built {
		return errors.New("circuit already built")
	}
	for _, p := range parts {
		if err := b.mount(b.top, p); err != nil {
			b.fail(err)
		}
	}
	return b.err
}

// OnEdge adds a top-level clock edge hook. See Socket.OnEdge.
//
func (b *Builder) OnEdge(fn Component) {
	b.edge = append(b.edge, fn)
}

func (b *Builder) mount(s *Socket, p Part) error {
	if p.PartSpec == nil || p.Mount == nil {
		return errors.New("part " + p.Instance + " has no mount function")
	}
	if p.Instance == "" {
		return errors.New("part " + p.Name + " has no instance name")
	}
	full := s.prefix + p.Instance
	if b.insts[full] {
		return errors.New("duplicate instance name " + full)
	}
	b.insts[full] = true
	sub := newSocket(b, full+".", full)

	// check that all keys match one of the part's ports
	ports := make(map[string]bool, len(p.Inputs)+len(p.Outputs))
	for _, in := range p.Inputs {
		ports[in.Name] = true
	}
	for _, out := range p.Outputs {
		ports[out.Name] = true
	}
	for k := range p.Wires {
		if !ports[k] {
			return errors.New("invalid pin name " + k + " for part " + p.Name)
		}
	}

	for _, in := range p.Inputs {
		name, ok := p.Wires[in.Name]
		if !ok {
			sub.m[in.Name] = cstZero
			continue
		}
		n, err := s.resolve(name, in.Width, in.Signed)
		if err != nil {
			return errors.Wrap(err, full+"."+in.Name)
		}
		sub.m[in.Name] = n
	}
	for _, out := range p.Outputs {
		var (
			n   int
			err error
		)
		if name, ok := p.Wires[out.Name]; ok {
			n, err = s.resolve(name, out.Width, out.Signed)
		} else {
			n, err = sub.resolve(out.Name, out.Width, out.Signed)
		}
		if err != nil {
			return errors.Wrap(err, full+"."+out.Name)
		}
		if err = b.drive(n, full, out.Reg, out.Reset); err != nil {
			return errors.Wrap(err, full+"."+out.Name)
		}
		b.nets[n].signed = out.Signed
		sub.m[out.Name] = n
	}

	p.Mount(sub)
	return nil
}

// Build checks the wiring and returns a runnable circuit.
//
// workers is the number of goroutines used to run clocked components on each
// step. If 0, the value of GOMAXPROCS is used. With a single worker, clocked
// components run on the caller's goroutine.
//
// Callers must make sure to call Dispose() once the circuit is no longer needed
// in order to release allocated resources.
//
func (b *Builder) Build(workers int) (*Circuit, error) {
	if b.err != nil {
		return nil, b.err
	}
	if b.built {
		return nil, errors.New("circuit already built")
	}
	order, err := b.checkWiring()
	if err != nil {
		return nil, err
	}
	b.built = true
	c := newCircuit(b.nets, order, b.sync, b.edge, workers)
	log.Debugf("built circuit: %d nets, %d registers, %d combinational and %d clocked components, %d edge hooks",
		len(b.nets), len(c.regs), len(order), len(b.sync), len(b.edge))
	return c, nil
}
