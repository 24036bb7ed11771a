package cordic_test

import (
	"math/rand"
	"testing"
	"testing/quick"

	"github.com/db47h/locksim/cordic"
	"github.com/db47h/locksim/fixed"
)

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

func TestRotate(t *testing.T) {
	c := cordic.New(18)
	ref := cordic.Float{Width: 18}
	max := fixed.Max(18, true)
	check := func(a int32, phase uint32) bool {
		x := int64(a) % max
		xo, yo := c.Rotate(x, 0, phase)
		rx, ry := ref.Rotate(x, 0, phase)
		if abs(xo-rx) > 3 || abs(yo-ry) > 3 {
			t.Logf("Rotate(%d, 0, %#08x) = (%d, %d), want (%d, %d)", x, phase, xo, yo, rx, ry)
			return false
		}
		return true
	}
	if err := quick.Check(check, &quick.Config{MaxCount: 5000}); err != nil {
		t.Fatal(err)
	}
}

func TestQuadrants(t *testing.T) {
	c := cordic.New(18)
	const a = 100000
	td := []struct {
		phase  uint32
		xo, yo int64
	}{
		{0, a, 0},
		{1 << 30, 0, a},
		{2 << 30, -a, 0},
		{3 << 30, 0, -a},
		{1 << 29, 70711, 70711},
	}
	for _, d := range td {
		xo, yo := c.Rotate(a, 0, d.phase)
		if abs(xo-d.xo) > 3 || abs(yo-d.yo) > 3 {
			t.Errorf("Rotate(%d, 0, %#08x) = (%d, %d), want (%d, %d)", a, d.phase, xo, yo, d.xo, d.yo)
		}
	}
}

func TestSaturate(t *testing.T) {
	c := cordic.New(18)
	max, min := fixed.Max(18, true), fixed.Min(18, true)
	rnd := rand.New(rand.NewSource(42))
	for i := 0; i < 1000; i++ {
		xo, yo := c.Rotate(max, max, rnd.Uint32())
		if xo > max || xo < min || yo > max || yo < min {
			t.Fatalf("output (%d, %d) out of range", xo, yo)
		}
	}
	// a 45 degree rotation of (max, max) lands on the y axis, sqrt(2) out of range
	if _, yo := c.Rotate(max, max, 1<<29); yo != max {
		t.Fatalf("expected saturation, got %d", yo)
	}
}

func TestStages(t *testing.T) {
	c := cordic.New(18)
	if c.Width() != 18 || c.Stages() != 20 {
		t.Fatalf("width %d, stages %d", c.Width(), c.Stages())
	}
}

func BenchmarkRotate(b *testing.B) {
	c := cordic.New(18)
	var phase uint32
	for i := 0; i < b.N; i++ {
		c.Rotate(100000, 0, phase)
		phase += 1000
	}
}
