// Package escape byte-stuffs frame bodies so Start, End, and Esc never
// appear literally between delimiters.
package escape

import "github.com/danmuck/uartlink/internal/protocol"

// Reserved reports whether b must be escaped inside a frame body.
func Reserved(b byte) bool {
	return b == protocol.Start || b == protocol.End || b == protocol.Esc
}

// EncodedLen returns the escaped length of src.
func EncodedLen(src []byte) int {
	n := len(src)
	for _, b := range src {
		if Reserved(b) {
			n++
		}
	}
	return n
}

// Encode returns the escaped form of src.
func Encode(src []byte) []byte {
	return AppendEncode(make([]byte, 0, EncodedLen(src)), src)
}

// AppendEncode appends the escaped form of src to dst.
func AppendEncode(dst, src []byte) []byte {
	for _, b := range src {
		if Reserved(b) {
			dst = append(dst, protocol.Esc, b^protocol.Esc)
			continue
		}
		dst = append(dst, b)
	}
	return dst
}

// Decode reverses Encode. A trailing Esc with no follower stops decoding;
// it is dropped, truncated is true, and the prefix decoded so far is kept.
func Decode(src []byte) (decoded []byte, truncated bool) {
	return AppendDecode(make([]byte, 0, len(src)), src)
}

// AppendDecode appends the unescaped form of src to dst, with Decode's
// truncation rule.
func AppendDecode(dst, src []byte) ([]byte, bool) {
	for i := 0; i < len(src); i++ {
		b := src[i]
		if b != protocol.Esc {
			dst = append(dst, b)
			continue
		}
		if i+1 >= len(src) {
			return dst, true
		}
		i++
		dst = append(dst, src[i]^protocol.Esc)
	}
	return dst, false
}
