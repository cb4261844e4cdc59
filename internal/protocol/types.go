package protocol

// Wire byte values.
const (
	Start byte = 0xAA
	End   byte = 0xDD
	Esc   byte = 0x7D
)

const (
	// ChecksumSize is the number of checksum bytes trailing every payload.
	ChecksumSize = 1
	// MinBodyLen is the smallest decoded body accepted: one payload byte plus the checksum.
	MinBodyLen = 1 + ChecksumSize

	DefaultCapacity     = 256
	ConstrainedCapacity = 128
)
