package frame

import (
	"fmt"

	"github.com/danmuck/uartlink/internal/protocol"
)

// Kind classifies why a frame was discarded.
type Kind uint8

const (
	KindNone Kind = iota
	KindEscapeTruncated
	KindFrameTooShort
	KindChecksumMismatch
	KindBufferOverflow
	KindMissingEnd
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindEscapeTruncated:
		return "escape_truncated"
	case KindFrameTooShort:
		return "frame_too_short"
	case KindChecksumMismatch:
		return "checksum_mismatch"
	case KindBufferOverflow:
		return "buffer_overflow"
	case KindMissingEnd:
		return "missing_end"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Err returns the protocol sentinel matching k, or nil for KindNone.
func (k Kind) Err() error {
	switch k {
	case KindEscapeTruncated:
		return protocol.ErrEscapeTruncated
	case KindFrameTooShort:
		return protocol.ErrFrameTooShort
	case KindChecksumMismatch:
		return protocol.ErrChecksumMismatch
	case KindBufferOverflow:
		return protocol.ErrBufferOverflow
	case KindMissingEnd:
		return protocol.ErrMissingEnd
	default:
		return nil
	}
}

// Diagnostic describes one discarded frame. It is returned as an error and
// unwraps to the matching protocol sentinel.
type Diagnostic struct {
	Kind Kind
	// Length is the number of body bytes involved: decoded bytes for
	// too-short and checksum failures, accumulated escaped bytes otherwise.
	Length    int
	Received  byte
	Expected  byte
	Truncated bool
}

func (d *Diagnostic) Error() string {
	var msg string
	switch d.Kind {
	case KindChecksumMismatch:
		msg = fmt.Sprintf("frame: checksum mismatch received=%02X expected=%02X len=%d", d.Received, d.Expected, d.Length)
	case KindFrameTooShort:
		msg = fmt.Sprintf("frame: frame too short len=%d", d.Length)
	case KindBufferOverflow:
		msg = fmt.Sprintf("frame: buffer overflow, discarded %d bytes", d.Length)
	case KindMissingEnd:
		msg = fmt.Sprintf("frame: missing end, discarded %d bytes", d.Length)
	case KindEscapeTruncated:
		msg = "frame: escape marker at end of body"
	default:
		msg = "frame: " + d.Kind.String()
	}
	if d.Truncated && d.Kind != KindEscapeTruncated {
		msg += " (escape truncated)"
	}
	return msg
}

func (d *Diagnostic) Unwrap() error {
	return d.Kind.Err()
}
