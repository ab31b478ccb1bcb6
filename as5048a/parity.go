package as5048a

import "math/bits"

// evenParity returns the bit that makes the total number of set bits in v
// even.
func evenParity(v uint16) uint16 {
	return uint16(bits.OnesCount16(v)) & 1
}

// checkParity recomputes parity over the low 15 bits of a received word and
// compares it against bit 15.
func checkParity(v uint16) bool {
	return v>>15 == evenParity(v&^parityMask)
}
