package fixed_test

import (
	"testing"
	"testing/quick"

	"github.com/db47h/locksim/fixed"
)

func TestWrap(t *testing.T) {
	td := []struct {
		v      int64
		bits   int
		signed bool
		want   int64
	}{
		{1 << 17, 18, true, -1 << 17},
		{1<<17 - 1, 18, true, 1<<17 - 1},
		{-1, 18, false, 1<<18 - 1},
		{1 << 32, 32, false, 0},
		{1<<32 + 5, 32, false, 5},
		{-1, 1, false, 1},
		{3, 1, true, -1},
		{42, 64, true, 42},
	}
	for _, d := range td {
		if got := fixed.Wrap(d.v, d.bits, d.signed); got != d.want {
			t.Errorf("Wrap(%d, %d, %v) = %d, want %d", d.v, d.bits, d.signed, got, d.want)
		}
	}
}

func TestWrapIdempotent(t *testing.T) {
	f := func(v int64, b uint8) bool {
		bits := int(b%63) + 1
		w := fixed.Wrap(v, bits, true)
		return fixed.Wrap(w, bits, true) == w && w >= fixed.Min(bits, true) && w <= fixed.Max(bits, true)
	}
	if err := quick.Check(f, nil); err != nil {
		t.Fatal(err)
	}
}

func TestSaturate(t *testing.T) {
	if got := fixed.Saturate(1<<20, 18, true); got != 1<<17-1 {
		t.Fatalf("got %d", got)
	}
	if got := fixed.Saturate(-1<<20, 18, true); got != -1<<17 {
		t.Fatalf("got %d", got)
	}
	if got := fixed.Saturate(-5, 8, false); got != 0 {
		t.Fatalf("got %d", got)
	}
	if got := fixed.Saturate(300, 8, false); got != 255 {
		t.Fatalf("got %d", got)
	}
}

func TestBitsFor(t *testing.T) {
	td := map[int]int{1: 1, 2: 1, 3: 2, 4: 2, 5: 3, 8: 3, 10: 4, 16: 4, 17: 5}
	for n, want := range td {
		if got := fixed.BitsFor(n); got != want {
			t.Errorf("BitsFor(%d) = %d, want %d", n, got, want)
		}
	}
}

func TestShr(t *testing.T) {
	if fixed.Shr(-8, 2) != -2 {
		t.Fatal("arithmetic shift expected")
	}
	if fixed.Shr(-1, 100) != -1 {
		t.Fatal("oversized shift should clamp")
	}
	if fixed.Shr(7, -3) != 7 {
		t.Fatal("negative shift should be a no-op")
	}
}

func TestShl(t *testing.T) {
	for _, d := range []struct{ v, n, want int64 }{
		{100, 6, 6400},
		{-3, 2, -12},
		{7, -3, 7},
		{1, 62, 1 << 62},
		{1, 63, 1<<63 - 1},
		{-1, 63, -1 << 63},
		{-2, 63, -1 << 63},
		{5, 200, 1<<63 - 1},
		{0, 200, 0},
	} {
		if got := fixed.Shl(d.v, d.n); got != d.want {
			t.Errorf("Shl(%d, %d) = %d, want %d", d.v, d.n, got, d.want)
		}
	}
}
