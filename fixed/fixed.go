// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package fixed implements the fixed-width integer arithmetic used on signal
// paths: two's-complement wraparound, saturation and sign extension.
//
// All values are carried in int64. A width of 64 is the identity.
//
package fixed

// Mask returns a mask of the given number of low bits.
//
func Mask(bits int) uint64 {
	if bits >= 64 {
		return ^uint64(0)
	}
	if bits <= 0 {
		return 0
	}
	return 1<<uint(bits) - 1
}

// SignExtend interprets the low bits of v as a two's-complement number.
//
func SignExtend(v int64, bits int) int64 {
	if bits >= 64 || bits <= 0 {
		return v
	}
	s := uint(64 - bits)
	return v << s >> s
}

// Wrap truncates v to bits, interpreting the result as signed or unsigned.
//
func Wrap(v int64, bits int, signed bool) int64 {
	if signed {
		return SignExtend(v, bits)
	}
	return int64(uint64(v) & Mask(bits))
}

// Min returns the smallest value representable with bits.
//
func Min(bits int, signed bool) int64 {
	if !signed {
		return 0
	}
	if bits >= 64 {
		return -1 << 63
	}
	return -1 << uint(bits-1)
}

// Max returns the largest value representable with bits.
//
func Max(bits int, signed bool) int64 {
	if signed {
		return int64(Mask(bits - 1))
	}
	if bits >= 64 {
		return 1<<63 - 1
	}
	return int64(Mask(bits))
}

// Saturate clamps v to the range representable with bits.
//
func Saturate(v int64, bits int, signed bool) int64 {
	return Clamp(v, Min(bits, signed), Max(bits, signed))
}

// Clamp bounds v to [lo, hi]. If lo > hi, lo wins.
//
func Clamp(v, lo, hi int64) int64 {
	if v > hi {
		v = hi
	}
	if v < lo {
		v = lo
	}
	return v
}

// Shr is an arithmetic right shift. Negative or oversized shift counts are
// clamped to [0, 63].
//
func Shr(v int64, n int64) int64 {
	if n <= 0 {
		return v
	}
	if n > 63 {
		n = 63
	}
	return v >> uint(n)
}

// Shl is an arithmetic left shift that saturates to the int64 range.
// Negative shift counts are a no-op.
//
func Shl(v int64, n int64) int64 {
	if n <= 0 || v == 0 {
		return v
	}
	if n > 63 {
		n = 63
	}
	r := v << uint(n)
	if r>>uint(n) != v {
		if v < 0 {
			return -1 << 63
		}
		return 1<<63 - 1
	}
	return r
}

// BitsFor returns the number of bits needed to select one of n items, that is
// ceil(log2(n)), with a minimum of 1.
//
func BitsFor(n int) int {
	b := 1
	for 1<<uint(b) < n {
		b++
	}
	return b
}
