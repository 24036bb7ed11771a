// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package top composes the lock-in core: two lock-in channels and eight filter
// stages routed through a filter mux, a GPIO block, and the register bus.
//
package top

import (
	"context"
	"strconv"
	"sync/atomic"

	"github.com/db47h/locksim"
	"github.com/db47h/locksim/blocks"
	"github.com/db47h/locksim/cordic"
	"github.com/db47h/locksim/csr"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Stages lists the filter mux stages in mux order. Their banks take the
// address indices 0 to 9 in this order.
//
var Stages = []string{
	"io_a", "io_b",
	"iir1_a", "iir1_b", "iir1_c", "iir1_d",
	"iir2_a", "iir2_b", "iir2_c", "iir2_d",
}

// Bank names other than the mux stages.
//
const (
	GPIO = "gpio"
	Mux  = "mux"
)

// DefaultOverrides pins the mux bank to the highest bank index.
//
var DefaultOverrides = map[string]int{Mux: 31}

// Options configures a System. The zero value is usable.
//
type Options struct {
	// Register address space. Defaults to csr.DefaultConfig.
	CSR *csr.Config
	// Rotator used by the lock-in channels. Defaults to an 18 bit CORDIC.
	Rotator cordic.Rotator
	// Filter stage transform. Defaults to blocks.PassThrough.
	Transform blocks.TransformFn
	// Number of GPIO pins. Defaults to 8.
	GPIOWidth int
	// GPIO input synchronizer depth. Defaults to blocks.MinSyncDepth.
	SyncDepth int
	// Bank index overrides. Defaults to DefaultOverrides.
	Overrides map[string]int
	// Number of worker goroutines, see locksim.Builder.Build.
	Workers int
}

// A System is a built lock-in core.
//
// Converter inputs and outputs and GPIO pins are safe for concurrent use.
// Registers are accessed through the bridge.
//
type System struct {
	c      *locksim.Circuit
	bridge *csr.Bridge
	array  *csr.Array
	blocks map[string]*blocks.Block
	pins   *blocks.Pins
	adc    [2]int64
	dac    [2]int64
}

var channels = [2]string{"a", "b"}

// triggers routes the channel sweep triggers to the two low GPIO override
// bits.
func triggers(width int) locksim.Part {
	return (&locksim.PartSpec{
		Name: "Triggers",
		Inputs: []locksim.Port{
			{Name: "a", Width: 1},
			{Name: "b", Width: 1},
		},
		Outputs: []locksim.Port{{Name: "out", Width: width}},
		Mount: func(s *locksim.Socket) {
			a, b, out := s.In("a"), s.In("b"), s.Out("out")
			s.Comb([]locksim.Signal{a, b}, []locksim.Signal{out}, func(c *locksim.Circuit) {
				c.Set(out, c.Get(a)|c.Get(b)<<1)
			})
		}}).NewPart("triggers", locksim.W{"a": "trigger_a", "b": "trigger_b", "out": "gpio_override"})
}

// New builds a new system.
//
func New(opts Options) (*System, error) {
	cfg := csr.DefaultConfig
	if opts.CSR != nil {
		cfg = *opts.CSR
	}
	if opts.Rotator == nil {
		opts.Rotator = cordic.New(blocks.PathWidth)
	}
	if opts.GPIOWidth == 0 {
		opts.GPIOWidth = 8
	}
	if opts.GPIOWidth < 2 || opts.GPIOWidth > 64 {
		return nil, errors.Errorf("invalid GPIO width %d", opts.GPIOWidth)
	}
	if opts.Overrides == nil {
		opts.Overrides = DefaultOverrides
	}

	s := &System{
		blocks: make(map[string]*blocks.Block),
		pins:   blocks.NewPins(opts.GPIOWidth),
	}
	var parts []locksim.Part
	var banks []csr.Block
	add := func(b *blocks.Block) {
		s.blocks[b.Name()] = b
		parts = append(parts, b.Part())
		banks = append(banks, b.Bank())
	}

	muxW := make(locksim.W)
	for k, name := range Stages {
		muxW["in"+strconv.Itoa(k)] = name + "_o"
		muxW["out"+strconv.Itoa(k)] = name + "_i"
	}

	channel := blocks.Channel(opts.Rotator)
	for k, ch := range channels {
		k, name := k, "io_"+ch
		add(channel(name, locksim.W{
			"adc":     "adc_" + ch,
			"dac":     "dac_" + ch,
			"i":       name + "_i",
			"o":       name + "_o",
			"trigger": "trigger_" + ch,
		}))
		parts = append(parts,
			locksim.Sampler(blocks.ConverterWidth, true, func() int64 {
				return atomic.LoadInt64(&s.adc[k])
			})("adc_"+ch+"_in", locksim.W{"out": "adc_" + ch}),
			locksim.Output(blocks.ConverterWidth, true, func(v int64) {
				atomic.StoreInt64(&s.dac[k], v)
			})("dac_"+ch+"_out", locksim.W{"in": "dac_" + ch}))
	}
	for _, name := range Stages[2:] {
		fn := blocks.IIR1(opts.Transform)
		if name[3] == '2' {
			fn = blocks.IIR2(opts.Transform)
		}
		add(fn(name, locksim.W{"i": name + "_i", "o": name + "_o"}))
	}
	add(blocks.GPIO(s.pins, opts.SyncDepth)(GPIO, locksim.W{"override": "gpio_override"}))
	add(blocks.Mux(len(Stages))(Mux, muxW))
	parts = append(parts, triggers(opts.GPIOWidth))

	b := locksim.NewBuilder()
	if err := b.Mount(parts...); err != nil {
		return nil, errors.Wrap(err, "mount")
	}
	names := make([]string, len(banks))
	for i, bk := range banks {
		names[i] = bk.Name()
	}
	amap, err := csr.Assign(names, opts.Overrides, cfg.Banks())
	if err != nil {
		return nil, err
	}
	if s.array, err = csr.NewArray(cfg, amap, banks...); err != nil {
		return nil, err
	}
	s.bridge = csr.NewBridge(csr.NewInterconnect(s.array))
	b.OnEdge(s.bridge.Edge)
	if s.c, err = b.Build(opts.Workers); err != nil {
		return nil, err
	}
	log.WithField("banks", len(banks)).Debug("top: system built")
	return s, nil
}

// Close releases the resources held by the system.
//
func (s *System) Close() { s.c.Dispose() }

// Circuit returns the underlying circuit.
//
func (s *System) Circuit() *locksim.Circuit { return s.c }

// Bridge returns the bus bridge.
//
func (s *System) Bridge() *csr.Bridge { return s.bridge }

// Array returns the bank array.
//
func (s *System) Array() *csr.Array { return s.array }

// Table returns the register map.
//
func (s *System) Table() csr.Table { return s.array.Table() }

// Block returns the named block.
//
func (s *System) Block(name string) (*blocks.Block, bool) {
	b, ok := s.blocks[name]
	return b, ok
}

// Pins returns the GPIO pins.
//
func (s *System) Pins() *blocks.Pins { return s.pins }

// SetADC sets the sample presented by the ADC of channel ch (0 or 1). The
// channel samples it on the next clock edge.
//
func (s *System) SetADC(ch int, v int64) { atomic.StoreInt64(&s.adc[ch], v) }

// DAC returns the last sample output by the DAC of channel ch (0 or 1).
//
func (s *System) DAC(ch int) int64 { return atomic.LoadInt64(&s.dac[ch]) }

// Do runs a single bus transaction and clocks the circuit once. It must not
// be used while the system is running.
//
func (s *System) Do(r csr.Request) (csr.Response, error) {
	return s.bridge.Do(s.c, r)
}

// Read reads the bus word at addr. It must not be used while the system is
// running.
//
func (s *System) Read(addr uint32) (csr.Response, error) {
	return s.Do(csr.Request{Addr: addr, Re: true})
}

// Write writes data to the bus word at addr. It must not be used while the
// system is running.
//
func (s *System) Write(addr, data uint32) (csr.Response, error) {
	return s.Do(csr.Request{Addr: addr, Data: data, Sel: 0xf, We: true})
}

// Stepped returns a transactor that clocks the system once per transaction.
//
func (s *System) Stepped() csr.Transactor { return s.bridge.Stepped(s.c) }

// Run clocks the system at approximately hz cycles per second until ctx is
// done. See locksim.Circuit.Run.
//
func (s *System) Run(ctx context.Context, hz float64) error {
	log.WithField("hz", hz).Info("top: clock running")
	err := s.c.Run(ctx, hz)
	log.WithField("cycles", s.c.Cycle()).Info("top: clock stopped")
	return err
}
