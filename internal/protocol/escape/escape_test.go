package escape

import (
	"bytes"
	"testing"

	"github.com/danmuck/uartlink/internal/protocol"
)

func TestEncodeEveryByteValueRoundTrips(t *testing.T) {
	for v := 0; v < 256; v++ {
		in := []byte{byte(v)}
		enc := Encode(in)
		if Reserved(byte(v)) {
			if len(enc) != 2 || enc[0] != protocol.Esc || enc[1] != byte(v)^protocol.Esc {
				t.Fatalf("value %#x: unexpected escape %x", v, enc)
			}
		} else if !bytes.Equal(enc, in) {
			t.Fatalf("value %#x: should pass through, got %x", v, enc)
		}
		dec, truncated := Decode(enc)
		if truncated {
			t.Fatalf("value %#x: unexpected truncation", v)
		}
		if !bytes.Equal(dec, in) {
			t.Fatalf("value %#x: round trip got %x", v, dec)
		}
	}
}

func TestEncodeKnownVectors(t *testing.T) {
	got := Encode([]byte{0xAA, 0x10, 0xDD, 0x7D, 0xBA})
	want := []byte{0x7D, 0xD7, 0x10, 0x7D, 0xA0, 0x7D, 0x00, 0xBA}
	if !bytes.Equal(got, want) {
		t.Fatalf("encode got=%x want=%x", got, want)
	}
	if n := EncodedLen([]byte{0xAA, 0x10, 0xDD, 0x7D, 0xBA}); n != len(want) {
		t.Fatalf("encoded len got=%d want=%d", n, len(want))
	}
}

func TestEncodedOutputHasNoReservedBytesOutsideEscapes(t *testing.T) {
	src := make([]byte, 256)
	for i := range src {
		src[i] = byte(i)
	}
	enc := Encode(src)
	if len(enc) != len(src)+3 {
		t.Fatalf("unexpected encoded length=%d", len(enc))
	}
	for i := 0; i < len(enc); i++ {
		switch enc[i] {
		case protocol.Start, protocol.End:
			t.Fatalf("literal delimiter at %d", i)
		case protocol.Esc:
			i++
			if i >= len(enc) {
				t.Fatalf("dangling escape")
			}
			if Reserved(enc[i]) {
				t.Fatalf("escaped byte %#x at %d is reserved", enc[i], i)
			}
		}
	}
}

func TestDecodeTrailingEscapeIsTruncated(t *testing.T) {
	dec, truncated := Decode([]byte{0x01, 0x7D, 0xD7, 0x02, 0x7D})
	if !truncated {
		t.Fatalf("expected truncated")
	}
	if !bytes.Equal(dec, []byte{0x01, 0xAA, 0x02}) {
		t.Fatalf("prefix got=%x", dec)
	}

	dec, truncated = Decode([]byte{0x7D})
	if !truncated || len(dec) != 0 {
		t.Fatalf("lone escape got=%x truncated=%v", dec, truncated)
	}
}

func TestDecodeEscapedNonReservedByte(t *testing.T) {
	// Not produced by Encode, but the decoder still XORs whatever follows Esc.
	dec, truncated := Decode([]byte{0x7D, 0x01})
	if truncated || !bytes.Equal(dec, []byte{0x7C}) {
		t.Fatalf("got=%x truncated=%v", dec, truncated)
	}
}

func TestAppendVariantsReuseDestination(t *testing.T) {
	dst := []byte{0xFF}
	dst = AppendEncode(dst, []byte{0xAA})
	if !bytes.Equal(dst, []byte{0xFF, 0x7D, 0xD7}) {
		t.Fatalf("append encode got=%x", dst)
	}
	out, truncated := AppendDecode([]byte{0xEE}, dst[1:])
	if truncated || !bytes.Equal(out, []byte{0xEE, 0xAA}) {
		t.Fatalf("append decode got=%x truncated=%v", out, truncated)
	}
}

func FuzzEncodeDecode(f *testing.F) {
	f.Add([]byte{})
	f.Add([]byte{0xAA, 0x10})
	f.Add([]byte{0x7D, 0x7D, 0xDD})
	f.Fuzz(func(t *testing.T, in []byte) {
		enc := Encode(in)
		if len(enc) < len(in) || len(enc) > 2*len(in) {
			t.Fatalf("encoded length %d out of range for %d", len(enc), len(in))
		}
		dec, truncated := Decode(enc)
		if truncated {
			t.Fatalf("well-formed input reported truncated")
		}
		if !bytes.Equal(dec, in) {
			t.Fatalf("round trip mismatch")
		}
	})
}
