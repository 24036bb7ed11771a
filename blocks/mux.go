// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package blocks

import (
	"strconv"

	"github.com/db47h/locksim"
	"github.com/db47h/locksim/csr"
	"github.com/db47h/locksim/fixed"
)

// Mux returns a registered n-to-n filter mux.
//
// For every output k, a selector register muxk picks one of the n inputs.
// Outputs latch the selected input on every clock edge, so a new selection
// shows at the output on the cycle after the selector changes. Selector
// values >= n select zero.
//
//	Inputs: in0, ..., in{n-1}
//	Outputs: out0, ..., out{n-1}
//
// Selector registers are ceil(log2(n)) bits wide.
//
func Mux(n int) NewBlockFn {
	ins := make([]locksim.Port, n)
	outs := make([]locksim.Port, n)
	for k := range ins {
		ins[k] = locksim.Port{Name: pIn + strconv.Itoa(k), Width: PathWidth, Signed: true}
		outs[k] = locksim.Port{Name: pOut + strconv.Itoa(k), Width: PathWidth, Signed: true, Reg: true}
	}
	width := fixed.BitsFor(n)
	return func(name string, w locksim.W) *Block {
		return newBlock(name, w, func(bank *csr.Bank) *locksim.PartSpec {
			return &locksim.PartSpec{
				Name:    "FilterMux",
				Inputs:  ins,
				Outputs: outs,
				Mount: func(s *locksim.Socket) {
					in := make([]locksim.Signal, n)
					out := make([]locksim.Signal, n)
					sel := make([]locksim.Signal, n)
					for k := range in {
						in[k] = s.In(ins[k].Name)
						out[k] = s.Out(outs[k].Name)
						sel[k] = bank.Storage(s, "mux"+strconv.Itoa(k), width, false, 0)
					}
					s.Sync(func(c *locksim.Circuit) {
						for k, o := range out {
							var v int64
							if i := c.Get(sel[k]); i < int64(n) {
								v = c.Get(in[i])
							}
							c.Next(o, v)
						}
					})
				}}
		})
	}
}
