// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package locksim

import (
	"github.com/db47h/locksim/fixed"
	"github.com/pkg/errors"
)

// Zero is the name of the constant zero net. Unconnected inputs are wired to
// it.
//
const Zero = "0"

// A Signal is a handle to a net in a circuit. Handles are obtained from a
// Socket while mounting a part and are used by components to Get and Set net
// values.
//
type Signal struct {
	n      int
	width  int
	signed bool
}

// Width returns the signal width in bits.
//
func (s Signal) Width() int { return s.width }

// Signed returns true if the signal carries a two's-complement value.
//
func (s Signal) Signed() bool { return s.signed }

func (s Signal) norm(v int64) int64 {
	return fixed.Wrap(v, s.width, s.signed)
}

// A Socket maps a part's port and internal signal names to nets in the
// circuit under construction.
//
type Socket struct {
	b      *Builder
	prefix string
	part   string
	m      map[string]int
}

func newSocket(b *Builder, prefix, part string) *Socket {
	return &Socket{
		b:      b,
		prefix: prefix,
		part:   part,
		m:      map[string]int{Zero: cstZero},
	}
}

// Name returns the fully qualified instance name of the part being mounted.
//
func (s *Socket) Name() string {
	if len(s.prefix) > 0 {
		return s.prefix[:len(s.prefix)-1]
	}
	return ""
}

func (s *Socket) lookup(name string) (int, bool) {
	n, ok := s.m[name]
	return n, ok
}

// resolve returns the net bound to name in this scope, allocating a new one if
// necessary.
//
func (s *Socket) resolve(name string, width int, signed bool) (int, error) {
	if n, ok := s.m[name]; ok {
		if n != cstZero && s.b.nets[n].width != width {
			return n, errors.Errorf("net %s: width mismatch (%d != %d)", s.b.nets[n].name, s.b.nets[n].width, width)
		}
		return n, nil
	}
	n := s.b.alloc(s.prefix+name, width, signed)
	s.m[name] = n
	return n, nil
}

func (s *Socket) signal(n int) Signal {
	nt := s.b.nets[n]
	return Signal{n: n, width: nt.width, signed: nt.signed}
}

// In returns the signal connected to the named input port.
// This function panics if the port does not exist.
//
func (s *Socket) In(name string) Signal {
	n, ok := s.m[name]
	if !ok {
		panic("pin " + name + " does not exist")
	}
	return s.signal(n)
}

// Out returns the signal driven by the named output port.
// This function panics if the port does not exist.
//
func (s *Socket) Out(name string) Signal {
	return s.In(name)
}

// Wire allocates an internal combinational net driven by the part being
// mounted.
//
func (s *Socket) Wire(name string, width int, signed bool) Signal {
	return s.internal(name, width, signed, false, 0)
}

// Reg allocates an internal registered signal. Its value only changes on a
// clock edge, when set with Circuit.Next, and holds otherwise.
//
func (s *Socket) Reg(name string, width int, signed bool, reset int64) Signal {
	return s.internal(name, width, signed, true, reset)
}

func (s *Socket) internal(name string, width int, signed, reg bool, reset int64) Signal {
	if _, ok := s.m[name]; ok {
		s.b.fail(errors.Errorf("%s: duplicate signal name %s", s.part, s.prefix+name))
		return s.signal(cstZero)
	}
	n := s.b.alloc(s.prefix+name, width, signed)
	s.m[name] = n
	if err := s.b.drive(n, s.part, reg, reset); err != nil {
		s.b.fail(err)
	}
	return s.signal(n)
}

// Comb adds a combinational component. reads and writes list the nets the
// component depends on and drives; they are used to order combinational
// updates and to detect combinational loops. Registered signals listed in
// reads are ignored for ordering purposes.
//
func (s *Socket) Comb(reads, writes []Signal, fn Component) {
	s.b.comb = append(s.b.comb, combComp{
		name:   s.Name(),
		reads:  reads,
		writes: writes,
		fn:     fn,
	})
}

// Sync adds a clocked component. fn runs once per clock edge and should only
// update registered signals through Circuit.Next.
//
func (s *Socket) Sync(fn Component) {
	s.b.sync = append(s.b.sync, fn)
}

// OnEdge adds a hook that runs serially on every clock edge, after clocked
// components and before the new register values are committed.
//
func (s *Socket) OnEdge(fn Component) {
	s.b.edge = append(s.b.edge, fn)
}

// Mount mounts the given sub-part. Its wires are resolved in this socket's
// scope, allocating new internal nets as necessary.
//
func (s *Socket) Mount(p Part) {
	if err := s.b.mount(s, p); err != nil {
		s.b.fail(err)
	}
}
