// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package locksim

// A Component updates signals in a circuit.
//
type Component func(c *Circuit)

// A MountFn mounts a part into socket s. MountFn's should query the socket for
// the signals bound to the part's ports, allocate internal signals, and
// register closures around them.
//
// For example, a registered adder can be defined like this:
//
//	add := &PartSpec{
//		Name:    "Add",
//		Inputs:  []Port{{Name: "a", Width: 18, Signed: true}, {Name: "b", Width: 18, Signed: true}},
//		Outputs: []Port{{Name: "out", Width: 18, Signed: true, Reg: true}},
//		Mount: func(s *Socket) {
//			a, b, out := s.In("a"), s.In("b"), s.Out("out")
//			s.Sync(func(c *Circuit) { c.Next(out, c.Get(a)+c.Get(b)) })
//		}}
//
type MountFn func(s *Socket)

// A Port describes a part input or output.
//
type Port struct {
	Name   string
	Width  int
	Signed bool
	// Reg marks an output as registered: it only changes on a clock edge.
	// Ignored for inputs.
	Reg bool
	// Reset value of a registered output.
	Reset int64
}

// A PartSpec wraps a part specification (its blueprint).
//
type PartSpec struct {
	// Part name.
	Name string
	// Input ports. Must be distinct names.
	Inputs []Port
	// Output ports. Must be distinct names.
	Outputs []Port

	// Mount function (see MountFn).
	Mount MountFn
}

// NewPart is a NewPartFn that wraps p with the given instance name and
// connections into a Part.
//
func (p *PartSpec) NewPart(name string, w W) Part {
	return Part{p, name, w}
}

// W is a set of wires, connecting a part's ports (the map key) to nets in its
// container (the map value).
//
// Input ports missing from W are connected to the Zero net. Output ports
// missing from W are connected to a private net named after the instance and
// port.
//
type W map[string]string

// A NewPartFn is a function that takes an instance name and connections and
// returns a new Part.
//
type NewPartFn func(name string, w W) Part

// A Part wraps a part specification together with its instance name and
// connections within a host circuit.
//
type Part struct {
	*PartSpec
	Instance string
	Wires    W
}

// Parts is a convenience wrapper for []Part.
//
type Parts []Part
