package model

import "math/bits"

// bitset is a fixed-size set of node indices.
type bitset []uint64

func newBitset(n int) bitset {
	return make(bitset, (n+63)/64)
}

func (b bitset) set(i NodeID) {
	b[i/64] |= 1 << (uint(i) % 64)
}

func (b bitset) has(i NodeID) bool {
	if i < 0 || int(i)/64 >= len(b) {
		return false
	}
	return b[i/64]&(1<<(uint(i)%64)) != 0
}

func (b bitset) union(o bitset) {
	for i := range o {
		b[i] |= o[i]
	}
}

func (b bitset) count() int {
	n := 0
	for _, w := range b {
		n += bits.OnesCount64(w)
	}
	return n
}
