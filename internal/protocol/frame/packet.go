package frame

import (
	"github.com/danmuck/uartlink/internal/protocol"
	"github.com/danmuck/uartlink/internal/protocol/escape"
)

// Codec assembles and disassembles single packets. The zero value uses the
// XOR checksum.
type Codec struct {
	Checksum protocol.Checksum
}

// DefaultCodec uses the XOR checksum.
func DefaultCodec() Codec {
	return Codec{Checksum: protocol.XOR}
}

// MaxWireLen is the worst-case wire size of a payload of n bytes.
func MaxWireLen(n int) int {
	return 2 + 2*(n+protocol.ChecksumSize)
}

// MaxPayloadLen is the largest payload whose escaped body always fits in a
// decoder of the given capacity, whatever its byte values. The body must stay
// below capacity-1 bytes so the End byte is not taken as overflow.
func MaxPayloadLen(capacity int) int {
	n := (capacity-2)/2 - protocol.ChecksumSize
	if n < 0 {
		return 0
	}
	return n
}

// Assemble returns the complete wire frame for payload.
func (c Codec) Assemble(payload []byte) []byte {
	return c.AppendAssemble(make([]byte, 0, MaxWireLen(len(payload))), payload)
}

// AppendAssemble appends Start, the escaped payload and checksum, and End to dst.
// Capacity is not enforced here; callers size payloads for the receiver.
func (c Codec) AppendAssemble(dst, payload []byte) []byte {
	sum := protocol.OrXOR(c.Checksum)(payload)
	dst = append(dst, protocol.Start)
	dst = escape.AppendEncode(dst, payload)
	dst = escape.AppendEncode(dst, []byte{sum})
	return append(dst, protocol.End)
}

// Disassemble validates an escaped frame body (the bytes strictly between
// Start and End) and returns its payload. Failures are *Diagnostic values.
func (c Codec) Disassemble(body []byte) ([]byte, error) {
	payload, diag := c.disassemble(make([]byte, 0, len(body)), body)
	if diag != nil {
		return nil, diag
	}
	return payload, nil
}

// disassemble decodes body into dst and returns the payload as a prefix of it.
func (c Codec) disassemble(dst, body []byte) ([]byte, *Diagnostic) {
	decoded, truncated := escape.AppendDecode(dst, body)
	if len(decoded) < protocol.MinBodyLen {
		return nil, &Diagnostic{Kind: KindFrameTooShort, Length: len(decoded), Truncated: truncated}
	}
	last := len(decoded) - protocol.ChecksumSize
	payload := decoded[:last]
	received := decoded[last]
	expected := protocol.OrXOR(c.Checksum)(payload)
	if received != expected {
		return nil, &Diagnostic{
			Kind:      KindChecksumMismatch,
			Length:    len(decoded),
			Received:  received,
			Expected:  expected,
			Truncated: truncated,
		}
	}
	return payload, nil
}

// Assemble frames payload with the default codec.
func Assemble(payload []byte) []byte {
	return DefaultCodec().Assemble(payload)
}

// Disassemble validates body with the default codec.
func Disassemble(body []byte) ([]byte, error) {
	return DefaultCodec().Disassemble(body)
}
