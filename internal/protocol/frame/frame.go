package frame

import (
	"bufio"
	"fmt"
	"io"

	"github.com/danmuck/uartlink/internal/protocol"
)

// Limits constrains frame encode/decode memory use.
type Limits struct {
	Capacity        int
	MaxPayloadBytes int
}

func DefaultLimits() Limits {
	return LimitsFor(protocol.DefaultCapacity)
}

func ConstrainedLimits() Limits {
	return LimitsFor(protocol.ConstrainedCapacity)
}

// LimitsFor sizes payloads so any frame fits a receiver of the given capacity.
func LimitsFor(capacity int) Limits {
	return Limits{
		Capacity:        capacity,
		MaxPayloadBytes: MaxPayloadLen(capacity),
	}
}

func WriteFrame(w io.Writer, payload []byte, limits Limits) error {
	return DefaultCodec().WriteFrame(w, payload, limits)
}

// WriteFrame assembles payload and writes the whole frame in one call.
func (c Codec) WriteFrame(w io.Writer, payload []byte, limits Limits) error {
	if len(payload) == 0 {
		return protocol.ErrEmptyPayload
	}
	if limits.MaxPayloadBytes > 0 && len(payload) > limits.MaxPayloadBytes {
		return fmt.Errorf("%w: %d > %d", protocol.ErrPayloadTooLarge, len(payload), limits.MaxPayloadBytes)
	}
	_, err := w.Write(c.Assemble(payload))
	return err
}

// Reader pulls bytes from r through a Decoder until payloads complete.
type Reader struct {
	r   *bufio.Reader
	dec *Decoder
}

func NewReader(r io.Reader, dec *Decoder) *Reader {
	return &Reader{r: bufio.NewReader(r), dec: dec}
}

func (r *Reader) Decoder() *Decoder {
	return r.dec
}

// ReadFrame returns the next validated payload. Discarded frames are
// skipped; they are visible through the decoder Observer and Stats.
// Transport errors, io.EOF included, are returned unchanged.
func (r *Reader) ReadFrame() ([]byte, error) {
	for {
		b, err := r.r.ReadByte()
		if err != nil {
			return nil, err
		}
		if res := r.dec.Feed(b); res.Complete() {
			return res.Payload, nil
		}
	}
}
