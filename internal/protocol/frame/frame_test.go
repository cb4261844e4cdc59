package frame

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/danmuck/uartlink/internal/protocol"
	"github.com/danmuck/uartlink/internal/testutil/testlog"
)

func TestWriteReadFrameRoundTrip(t *testing.T) {
	testlog.Start(t)
	var buf bytes.Buffer
	payloads := [][]byte{{0xAA, 0x10}, []byte("status"), {0x7D, 0xDD}}
	for _, p := range payloads {
		if err := WriteFrame(&buf, p, DefaultLimits()); err != nil {
			t.Fatalf("write frame: %v", err)
		}
	}
	buf.Write([]byte("noise"))

	dec, err := NewDecoder()
	if err != nil {
		t.Fatalf("new decoder: %v", err)
	}
	r := NewReader(&buf, dec)
	for i, want := range payloads {
		got, err := r.ReadFrame()
		if err != nil {
			t.Fatalf("read frame %d: %v", i, err)
		}
		if !bytes.Equal(got, want) {
			t.Fatalf("frame %d got=%x want=%x", i, got, want)
		}
	}
	if _, err := r.ReadFrame(); !errors.Is(err, io.EOF) {
		t.Fatalf("expected io.EOF, got %v", err)
	}
}

func TestReaderSkipsDiscardedFrames(t *testing.T) {
	stream := []byte{0xAA, 0x01, 0x02, 0x04, 0xDD}
	stream = append(stream, Assemble([]byte{0x09})...)
	dec, err := NewDecoder()
	if err != nil {
		t.Fatalf("new decoder: %v", err)
	}
	r := NewReader(bytes.NewReader(stream), dec)
	got, err := r.ReadFrame()
	if err != nil {
		t.Fatalf("read frame: %v", err)
	}
	if !bytes.Equal(got, []byte{0x09}) {
		t.Fatalf("payload got=%x", got)
	}
	if r.Decoder().Stats().ChecksumMismatch != 1 {
		t.Fatalf("expected skipped frame to be counted")
	}
}

func TestWriteFrameLimits(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteFrame(&buf, nil, DefaultLimits()); !errors.Is(err, protocol.ErrEmptyPayload) {
		t.Fatalf("expected ErrEmptyPayload, got %v", err)
	}
	big := make([]byte, ConstrainedLimits().MaxPayloadBytes+1)
	if err := WriteFrame(&buf, big, ConstrainedLimits()); !errors.Is(err, protocol.ErrPayloadTooLarge) {
		t.Fatalf("expected ErrPayloadTooLarge, got %v", err)
	}
	if buf.Len() != 0 {
		t.Fatalf("rejected frames should not be written")
	}
	if err := WriteFrame(&buf, big, Limits{}); err != nil {
		t.Fatalf("zero limits should not cap payloads: %v", err)
	}
}
