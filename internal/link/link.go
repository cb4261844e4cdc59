package link

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/danmuck/uartlink/internal/observability"
	"github.com/danmuck/uartlink/internal/protocol/frame"
	"github.com/danmuck/uartlink/internal/protocol/message"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	ErrNotConnected = errors.New("link: not connected")
	ErrNilTransport = errors.New("link: nil transport")
	ErrRunStarted   = errors.New("link: run already started")
)

// Handler receives validated payloads on the read goroutine. The slice is
// owned by the handler.
type Handler func(payload []byte)

// Link pairs one transport with one frame decoder.
type Link struct {
	cfg    Config
	rw     io.ReadWriteCloser
	dec    *frame.Decoder
	codec  frame.Codec
	limits frame.Limits
	logger zerolog.Logger

	// handler is set once by Run before the first read and only used on
	// the read goroutine.
	handler Handler
	started atomic.Bool

	writeMu sync.Mutex

	statsMu sync.RWMutex
	stats   frame.Stats

	closeOnce sync.Once
	closeErr  error
}

func New(cfg Config, rw io.ReadWriteCloser) (*Link, error) {
	if rw == nil {
		return nil, ErrNilTransport
	}
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	l := &Link{
		cfg:    cfg,
		rw:     rw,
		codec:  frame.DefaultCodec(),
		limits: cfg.Limits(),
		logger: log.Logger.With().Str("node", cfg.Node).Str("device", cfg.Device).Logger(),
	}
	dec, err := frame.NewDecoder(
		frame.WithCapacity(cfg.Capacity),
		frame.WithTextCapture(cfg.TextCapture),
		frame.WithObserver(l),
	)
	if err != nil {
		return nil, err
	}
	l.dec = dec
	return l, nil
}

func (l *Link) Config() Config {
	return l.cfg
}

// Stats returns decoder counters as of the last processed read.
func (l *Link) Stats() frame.Stats {
	l.statsMu.RLock()
	defer l.statsMu.RUnlock()
	return l.stats
}

// Run reads the transport until ctx is done or the transport fails. The
// transport is closed when ctx is cancelled so blocked reads return. A Link
// runs at most once; later calls return ErrRunStarted.
func (l *Link) Run(ctx context.Context, handler Handler) error {
	if !l.started.CompareAndSwap(false, true) {
		return ErrRunStarted
	}
	l.handler = handler
	stop := context.AfterFunc(ctx, func() { _ = l.Close() })
	defer stop()

	l.logger.Info().Int("capacity", l.cfg.Capacity).Bool("text_capture", l.cfg.TextCapture).Msg("link up")
	buf := make([]byte, l.cfg.ReadBufferSize)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, err := l.rw.Read(buf)
		if n > 0 {
			observability.RecordLinkBytes(l.cfg.Node, "rx", n)
			for _, b := range buf[:n] {
				l.dec.Feed(b)
			}
			l.snapshot()
		}
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			return fmt.Errorf("link: read %s: %w", l.cfg.Device, err)
		}
	}
}

// Send frames payload and writes it. Safe to call while Run is active.
func (l *Link) Send(payload []byte) error {
	l.writeMu.Lock()
	defer l.writeMu.Unlock()

	cw := &countingWriter{w: l.rw}
	err := l.codec.WriteFrame(cw, payload, l.limits)
	if cw.n > 0 {
		observability.RecordLinkBytes(l.cfg.Node, "tx", cw.n)
	}
	if err != nil {
		return fmt.Errorf("link: send: %w", err)
	}
	observability.RecordLinkPacket(l.cfg.Node, "tx", typeLabel(payload))
	return nil
}

// SendMessage marshals m and sends it.
func (l *Link) SendMessage(m message.Message) error {
	payload, err := message.Marshal(m)
	if err != nil {
		return err
	}
	return l.Send(payload)
}

func (l *Link) Close() error {
	l.closeOnce.Do(func() {
		l.closeErr = l.rw.Close()
	})
	return l.closeErr
}

func (l *Link) OnPacket(payload []byte) {
	l.snapshot()
	observability.RecordLinkPacket(l.cfg.Node, "rx", typeLabel(payload))
	l.logger.Debug().Int("len", len(payload)).Str("type", typeLabel(payload)).Msg("packet")
	if l.handler != nil {
		l.handler(payload)
	}
}

func (l *Link) OnText(line string) {
	observability.RecordLinkText(l.cfg.Node)
	l.logger.Info().Str("text", line).Msg("device text")
}

func (l *Link) OnDiagnostic(d *frame.Diagnostic) {
	observability.RecordLinkDiagnostic(l.cfg.Node, d.Kind.String())
	event := l.logger.Warn().Str("kind", d.Kind.String()).Int("len", d.Length)
	if d.Kind == frame.KindChecksumMismatch {
		event = event.Hex("received", []byte{d.Received}).Hex("expected", []byte{d.Expected})
	}
	event.Bool("escape_truncated", d.Truncated).Msg("frame discarded")
}

func (l *Link) snapshot() {
	st := l.dec.Stats()
	l.statsMu.Lock()
	l.stats = st
	l.statsMu.Unlock()
}

func typeLabel(payload []byte) string {
	if len(payload) == 0 {
		return "empty"
	}
	return message.Type(payload[0]).String()
}

type countingWriter struct {
	w io.Writer
	n int
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += n
	return n, err
}
