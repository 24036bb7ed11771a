// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package simtest

import (
	"math/rand"
	"testing"

	"github.com/db47h/locksim"
	"github.com/db47h/locksim/fixed"
)

func wires(ports ...[]locksim.Port) locksim.W {
	w := make(locksim.W)
	for _, ps := range ports {
		for _, p := range ps {
			w[p.Name] = p.Name
		}
	}
	return w
}

func samePorts(a, b []locksim.Port) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Name != b[i].Name || a[i].Width != b[i].Width || a[i].Signed != b[i].Signed {
			return false
		}
	}
	return true
}

// wrap mounts p with random inputs and output probes.
func wrap(t *testing.T, p locksim.Part, inputs []int64, outputs []int64) *locksim.Circuit {
	parts := locksim.Parts{p}
	for i, in := range p.Inputs {
		i := i
		parts = append(parts, locksim.Input(in.Width, in.Signed, func() int64 { return inputs[i] })(
			"src_"+in.Name, locksim.W{"out": in.Name}))
	}
	for i, out := range p.Outputs {
		i := i
		parts = append(parts, locksim.Output(out.Width, out.Signed, func(v int64) { outputs[i] = v })(
			"probe_"+out.Name, locksim.W{"in": out.Name}))
	}
	b := locksim.NewBuilder()
	if err := b.Mount(parts...); err != nil {
		t.Fatal(err)
	}
	c, err := b.Build(1)
	if err != nil {
		t.Fatal(err)
	}
	return c
}

// ComparePart takes two parts and compares their outputs over the given
// number of clock cycles, given the same random inputs. Both parts must have
// the same Input/Output interface.
//
func ComparePart(t *testing.T, cycles int, part1 locksim.NewPartFn, part2 locksim.NewPartFn) {
	t.Helper()

	ps1, ps2 := part1("dut", nil), part2("dut", nil)
	if !samePorts(ps1.Inputs, ps2.Inputs) {
		t.Fatalf("%s and %s inputs differ", ps1.Name, ps2.Name)
	}
	if !samePorts(ps1.Outputs, ps2.Outputs) {
		t.Fatalf("%s and %s outputs differ", ps1.Name, ps2.Name)
	}
	w := wires(ps1.Inputs, ps1.Outputs)
	ps1, ps2 = part1("dut", w), part2("dut", w)

	inputs := make([]int64, len(ps1.Inputs))
	out1 := make([]int64, len(ps1.Outputs))
	out2 := make([]int64, len(ps2.Outputs))
	c1 := wrap(t, ps1, inputs, out1)
	defer c1.Dispose()
	c2 := wrap(t, ps2, inputs, out2)
	defer c2.Dispose()

	rnd := rand.New(rand.NewSource(int64(cycles)))
	for n := 0; n < cycles; n++ {
		for i, in := range ps1.Inputs {
			inputs[i] = fixed.Wrap(rnd.Int63(), in.Width, in.Signed)
		}
		c1.Step()
		c2.Step()
		for i, out := range ps1.Outputs {
			if out1[i] != out2[i] {
				t.Fatalf("cycle %d, output %s: %d != %d", n, out.Name, out1[i], out2[i])
			}
		}
	}
}
