package protocol

// Checksum computes the trailing fingerprint byte over raw payload bytes.
type Checksum func(data []byte) byte

// XOR is the wire-default checksum: the XOR of every byte, 0 for empty input.
// It cannot see an even number of flips in the same bit position, nor
// reordered bytes.
func XOR(data []byte) byte {
	var sum byte
	for _, b := range data {
		sum ^= b
	}
	return sum
}

// OrXOR returns c, or XOR when c is nil.
func OrXOR(c Checksum) Checksum {
	if c == nil {
		return XOR
	}
	return c
}
