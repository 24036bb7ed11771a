package blocks_test

import (
	"github.com/db47h/locksim"
)

// input returns a combinational source driving the top level net name with
// the value pointed to by v.
func input(name string, bits int, signed bool, v *int64) locksim.Part {
	return locksim.Input(bits, signed, func() int64 { return *v })("src_"+name, locksim.W{"out": name})
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
