package top_test

import (
	"context"
	"math/rand"
	"os"
	"testing"
	"time"

	"github.com/db47h/locksim/blocks"
	"github.com/db47h/locksim/client"
	"github.com/db47h/locksim/csr"
	"github.com/db47h/locksim/fixed"
	"github.com/db47h/locksim/top"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSystem(t *testing.T, opts top.Options) (*top.System, *client.Client) {
	t.Helper()
	s, err := top.New(opts)
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s, client.New(s.Stepped(), s.Table(), s.Array().Config().DataWidth)
}

func net(t *testing.T, s *top.System, name string) int64 {
	t.Helper()
	sig, ok := s.Circuit().Lookup(name)
	require.True(t, ok, name)
	return s.Circuit().Get(sig)
}

func TestAddressMap(t *testing.T) {
	s1, _ := newSystem(t, top.Options{})
	s2, _ := newSystem(t, top.Options{})
	assert.Equal(t, s1.Table(), s2.Table(), "builds are deterministic")

	m := s1.Array().Map()
	for i, n := range top.Stages {
		idx, ok := m.Index(n)
		require.True(t, ok, n)
		assert.Equal(t, i, idx, n)
	}
	idx, _ := m.Index(top.GPIO)
	assert.Equal(t, 10, idx)
	idx, _ = m.Index(top.Mux)
	assert.Equal(t, 31, idx)
	assert.Equal(t, 12, m.Len())

	e, ok := s1.Table().Lookup("mux_mux9")
	require.True(t, ok)
	assert.Equal(t, uint32(0x40300000+31<<11+9<<2), e.Address)
	assert.Equal(t, 4, e.Width)
	e, ok = s1.Table().Lookup("io_b_in_min")
	require.True(t, ok)
	assert.Equal(t, uint32(0x40300000+1<<11), e.Address)
}

func TestWriteRead(t *testing.T) {
	for _, dw := range []int{8, 32} {
		cfg := csr.DefaultConfig
		cfg.DataWidth = dw
		_, cl := newSystem(t, top.Options{CSR: &cfg})
		ctx := context.Background()
		rnd := rand.New(rand.NewSource(int64(dw)))
		for _, e := range cl.Table() {
			if e.Access != csr.ReadWrite {
				continue
			}
			for n := 0; n < 4; n++ {
				v := rnd.Int63()
				require.NoError(t, cl.Set(ctx, e.Name(), v))
				got, err := cl.Get(ctx, e.Name())
				require.NoError(t, err)
				assert.Equal(t, uint64(v)&fixed.Mask(e.Width), got, "data width %d, register %s", dw, e.Name())
			}
		}
	}
}

func TestInvalidAddress(t *testing.T) {
	s, cl := newSystem(t, top.Options{})
	ctx := context.Background()
	table := cl.Table()
	valid := make(map[uint32]bool)
	rnd := rand.New(rand.NewSource(1))
	for _, e := range table {
		for w := 0; w < e.Words; w++ {
			valid[e.Address+uint32(4*w)] = true
		}
		if e.Access == csr.ReadWrite {
			require.NoError(t, cl.Set(ctx, e.Name(), rnd.Int63()))
		}
	}
	snapshot := func() map[string]uint64 {
		m := make(map[string]uint64)
		for _, e := range table {
			if e.Access == csr.ReadWrite {
				v, err := cl.Get(ctx, e.Name())
				require.NoError(t, err)
				m[e.Name()] = v
			}
		}
		return m
	}
	before := snapshot()
	base := s.Array().Config().Base
	for n := 0; n < 2000; n++ {
		var addr uint32
		switch n % 3 {
		case 0:
			addr = rnd.Uint32()
		case 1:
			addr = base + rnd.Uint32()%(1<<16)
		default:
			addr = base + rnd.Uint32()%(1<<14)
		}
		if valid[addr&^3] {
			continue
		}
		resp, err := s.Write(addr, rnd.Uint32())
		require.NoError(t, err)
		assert.True(t, resp.Err, "address %#08x", addr)
		resp, err = s.Read(addr)
		require.NoError(t, err)
		assert.True(t, resp.Err, "address %#08x", addr)
	}
	assert.Equal(t, before, snapshot())
}

func TestMuxRouting(t *testing.T) {
	s, cl := newSystem(t, top.Options{})
	ctx := context.Background()
	s.SetADC(0, 1000)
	s.SetADC(1, -500)
	s.Circuit().Steps(3)

	// reset selectors route io_a to every stage
	for _, n := range top.Stages {
		assert.Equal(t, int64(16000), net(t, s, n+"_i"), n)
	}
	// iir1_a is mux stage 2; route io_b to it
	require.NoError(t, cl.Set(ctx, "mux_mux2", 1))
	assert.Equal(t, int64(16000), net(t, s, "iir1_a_i"))
	s.Circuit().Step()
	assert.Equal(t, int64(-8000), net(t, s, "iir1_a_i"))
	// and iir1_a to io_a's input, through a pass-through stage
	require.NoError(t, cl.Set(ctx, "mux_mux0", 2))
	s.Circuit().Step()
	assert.Equal(t, int64(-8000), net(t, s, "io_a_i"))
	s.Circuit().Steps(2)
	assert.Equal(t, int64(-8000>>4), s.DAC(0))
}

func TestTriggerOverride(t *testing.T) {
	s, cl := newSystem(t, top.Options{})
	ctx := context.Background()
	require.NoError(t, cl.Set(ctx, "gpio_oe", 1))
	require.NoError(t, cl.Set(ctx, "io_a_sweep_amp", 50))
	require.NoError(t, cl.Set(ctx, "io_a_sweep_freq", 10))
	var pulses int
	for n := 0; n < 100; n++ {
		s.Circuit().Step()
		p := s.Pins().Pin(0)
		assert.True(t, p.OE)
		if p.Out {
			pulses++
			assert.Equal(t, int64(-50), net(t, s, "io_a.sweep_out"))
		}
		assert.False(t, s.Pins().Pin(1).Out, "io_b is not sweeping")
	}
	assert.Equal(t, 5, pulses)
}

// runPeriodic enables modulation with frequency word f on channel a and checks
// that the output repeats with the expected period.
func runPeriodic(t *testing.T, f int64, period uint64, window int) {
	s, cl := newSystem(t, top.Options{})
	ctx := context.Background()
	require.NoError(t, cl.Set(ctx, "io_a_mod_amp", 100000))
	require.NoError(t, cl.Set(ctx, "io_a_mod_freq", f))
	require.NoError(t, cl.Set(ctx, "io_a_mod", 1))

	c := s.Circuit()
	first := make([]int64, window)
	seen := make(map[int64]bool)
	for k := range first {
		c.Step()
		first[k] = net(t, s, "io_a.y")
		seen[first[k]] = true
	}
	require.True(t, len(seen) > 1, "output is constant")
	c.Steps(int(period) - window)
	for k, want := range first {
		c.Step()
		require.Equal(t, want, net(t, s, "io_a.y"), "cycle %d + period", k)
	}
}

func TestPeriodicShort(t *testing.T) {
	// 2^32 / gcd(3<<22, 2^32) = 1024
	runPeriodic(t, 3<<22, 1024, 1024)
}

func TestPeriodicLong(t *testing.T) {
	if os.Getenv("LOCKSIM_LONG") != "1" {
		t.Skip("set LOCKSIM_LONG=1 to run")
	}
	// 2^32 / gcd(1000, 2^32) = 2^29
	runPeriodic(t, 1000, 1<<29, 1<<16)
}

func TestRunning(t *testing.T) {
	s, err := top.New(top.Options{Workers: 4})
	require.NoError(t, err)
	defer s.Close()

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan error)
	go func() { stopped <- s.Run(ctx, 0) }()
	defer func() {
		cancel()
		assert.Equal(t, context.Canceled, <-stopped)
	}()

	cl := client.New(s.Bridge(), s.Table(), s.Array().Config().DataWidth)
	tctx, tcancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer tcancel()

	s.Pins().SetExt(0x5a)
	s.SetADC(0, 200)
	s.SetADC(1, 123)
	require.NoError(t, cl.Set(tctx, "io_b_in_shift", 1))
	require.Eventually(t, func() bool {
		v, err := cl.Get(tctx, "gpio_in")
		return err == nil && v == 0x5a
	}, 5*time.Second, time.Millisecond)
	require.Eventually(t, func() bool {
		v, err := cl.GetInt(tctx, "io_b_in_val")
		return err == nil && v == 123<<4>>1
	}, 5*time.Second, time.Millisecond)
	// io_a loops back to itself through the mux
	require.Eventually(t, func() bool { return s.DAC(0) == 200 }, 5*time.Second, time.Millisecond)
}

func TestOptions(t *testing.T) {
	_, err := top.New(top.Options{GPIOWidth: 1})
	assert.Error(t, err)
	_, err = top.New(top.Options{Overrides: map[string]int{"mux": 32}})
	assert.Error(t, err)
	_, err = top.New(top.Options{Overrides: map[string]int{"mux": 0, "gpio": 0}})
	assert.Error(t, err)

	s, cl := newSystem(t, top.Options{Transform: blocks.NewDirectForm1, GPIOWidth: 16})
	e, ok := s.Table().Lookup("gpio_out")
	require.True(t, ok)
	assert.Equal(t, 16, e.Width)
	// pass-through coefficients are all zero: a direct form stage outputs 0
	s.SetADC(0, 1000)
	s.Circuit().Steps(3)
	assert.Equal(t, int64(0), net(t, s, "iir1_a_o"))
	require.NoError(t, cl.SetFilter(context.Background(), "iir1_a", []int64{1, 0}, []int64{1 << 23, 0}))
	s.Circuit().Step()
	assert.Equal(t, int64(16000), net(t, s, "iir1_a_o"))
}
