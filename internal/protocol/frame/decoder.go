package frame

import (
	"fmt"
	"strings"

	"github.com/danmuck/uartlink/internal/protocol"
)

// State is the decoder position relative to frame delimiters.
type State uint8

const (
	StateIdle State = iota
	StateFraming
)

func (s State) String() string {
	if s == StateFraming {
		return "framing"
	}
	return "idle"
}

// Result is the outcome of feeding one byte. At most one of Payload, Text,
// and Err is set; all zero means nothing completed yet.
type Result struct {
	Payload []byte
	Text    string
	Err     error
}

// Complete reports whether a validated payload is ready.
func (r Result) Complete() bool {
	return r.Payload != nil
}

// Observer receives decoder outcomes as they happen.
type Observer interface {
	OnPacket(payload []byte)
	OnText(line string)
	OnDiagnostic(d *Diagnostic)
}

// Stats counts decoder activity since construction.
type Stats struct {
	Bytes            uint64 `json:"bytes"`
	Packets          uint64 `json:"packets"`
	TextLines        uint64 `json:"text_lines"`
	FrameTooShort    uint64 `json:"frame_too_short"`
	ChecksumMismatch uint64 `json:"checksum_mismatch"`
	BufferOverflow   uint64 `json:"buffer_overflow"`
	MissingEnd       uint64 `json:"missing_end"`
	EscapeTruncated  uint64 `json:"escape_truncated"`
}

// Option configures a Decoder.
type Option func(*Decoder)

func WithCapacity(n int) Option {
	return func(d *Decoder) { d.capacity = n }
}

func WithChecksum(c protocol.Checksum) Option {
	return func(d *Decoder) { d.codec.Checksum = c }
}

// WithTextCapture collects bytes seen outside frames into lines. Lines are
// flushed on '\n' or '\r', or when capacity-1 bytes are pending.
func WithTextCapture(enabled bool) Option {
	return func(d *Decoder) { d.captureText = enabled }
}

func WithObserver(o Observer) Option {
	return func(d *Decoder) { d.observer = o }
}

// Decoder reassembles frames from a byte stream, one byte per Feed call.
// A Decoder belongs to one connection and must not be fed concurrently.
type Decoder struct {
	codec       Codec
	capacity    int
	captureText bool
	observer    Observer

	state   State
	buf     []byte
	scratch []byte
	text    []byte
	stats   Stats
}

func NewDecoder(opts ...Option) (*Decoder, error) {
	d := &Decoder{
		codec:    DefaultCodec(),
		capacity: protocol.DefaultCapacity,
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.capacity <= protocol.MinBodyLen {
		return nil, fmt.Errorf("%w: %d", protocol.ErrInvalidCapacity, d.capacity)
	}
	d.codec.Checksum = protocol.OrXOR(d.codec.Checksum)
	d.buf = make([]byte, 0, d.capacity-1)
	d.scratch = make([]byte, 0, d.capacity-1)
	if d.captureText {
		d.text = make([]byte, 0, d.capacity)
	}
	return d, nil
}

func (d *Decoder) State() State {
	return d.state
}

func (d *Decoder) Capacity() int {
	return d.capacity
}

// Buffered returns the number of escaped body bytes held for the current frame.
func (d *Decoder) Buffered() int {
	return len(d.buf)
}

func (d *Decoder) Stats() Stats {
	return d.stats
}

// Reset drops any partial frame or text and returns to Idle.
func (d *Decoder) Reset() {
	d.state = StateIdle
	d.buf = d.buf[:0]
	d.text = d.text[:0]
}

// Feed consumes one byte. It never blocks and every failure leaves the
// decoder ready for the next frame.
func (d *Decoder) Feed(b byte) Result {
	d.stats.Bytes++
	var res Result
	switch d.state {
	case StateIdle:
		if b == protocol.Start {
			d.buf = d.buf[:0]
			d.state = StateFraming
			return res
		}
		if d.captureText {
			res.Text = d.appendText(b)
		}
	case StateFraming:
		switch {
		case b == protocol.Start:
			// previous frame never saw End; restart at this Start
			res.Err = d.discard(&Diagnostic{Kind: KindMissingEnd, Length: len(d.buf)}, StateFraming)
		case len(d.buf) >= d.capacity-1:
			// a full buffer overflows even on End
			res.Err = d.discard(&Diagnostic{Kind: KindBufferOverflow, Length: len(d.buf)}, StateIdle)
		case b == protocol.End:
			payload, diag := d.codec.disassemble(d.scratch[:0], d.buf)
			if diag != nil {
				res.Err = d.discard(diag, StateIdle)
				break
			}
			res.Payload = append(make([]byte, 0, len(payload)), payload...)
			d.buf = d.buf[:0]
			d.state = StateIdle
			d.stats.Packets++
		default:
			d.buf = append(d.buf, b)
		}
	}
	d.notify(res)
	return res
}

// Write feeds every byte of p. Outcomes reach the Observer only.
func (d *Decoder) Write(p []byte) (int, error) {
	for _, b := range p {
		d.Feed(b)
	}
	return len(p), nil
}

func (d *Decoder) discard(diag *Diagnostic, next State) error {
	d.buf = d.buf[:0]
	d.state = next
	d.count(diag)
	return diag
}

func (d *Decoder) count(diag *Diagnostic) {
	switch diag.Kind {
	case KindFrameTooShort:
		d.stats.FrameTooShort++
	case KindChecksumMismatch:
		d.stats.ChecksumMismatch++
	case KindBufferOverflow:
		d.stats.BufferOverflow++
	case KindMissingEnd:
		d.stats.MissingEnd++
	}
	if diag.Truncated {
		d.stats.EscapeTruncated++
	}
}

func (d *Decoder) appendText(b byte) string {
	d.text = append(d.text, b)
	var line string
	switch {
	case len(d.text) >= d.capacity-1:
		line = d.flushText()
	case b == '\n' || b == '\r':
		if len(d.text) > 1 {
			line = d.flushText()
		}
		d.text = d.text[:0]
	}
	return line
}

func (d *Decoder) flushText() string {
	line := strings.TrimRight(string(d.text), "\r\n")
	d.text = d.text[:0]
	if line != "" {
		d.stats.TextLines++
	}
	return line
}

func (d *Decoder) notify(res Result) {
	if d.observer == nil {
		return
	}
	switch {
	case res.Payload != nil:
		d.observer.OnPacket(res.Payload)
	case res.Err != nil:
		if diag, ok := res.Err.(*Diagnostic); ok {
			d.observer.OnDiagnostic(diag)
		}
	case res.Text != "":
		d.observer.OnText(res.Text)
	}
}
