package link

import (
	"context"
	"io"
	"math/rand"
	"sync"
	"time"

	"github.com/danmuck/uartlink/internal/observability"
	"github.com/danmuck/uartlink/internal/protocol/frame"
	"github.com/rs/zerolog/log"
)

// Opener opens the transport for one link session.
type Opener func(ctx context.Context) (io.ReadWriteCloser, error)

// Supervisor keeps a Link running, reopening the transport with backoff
// whenever it fails. Each session gets a fresh decoder.
type Supervisor struct {
	cfg     Config
	open    Opener
	handler Handler
	backoff *reopenBackoff

	mu      sync.RWMutex
	current *Link
}

func NewSupervisor(cfg Config, open Opener, handler Handler) *Supervisor {
	cfg = cfg.WithDefaults()
	return &Supervisor{
		cfg:     cfg,
		open:    open,
		handler: handler,
		backoff: newReopenBackoff(cfg.Reopen, rand.New(rand.NewSource(time.Now().UnixNano()))),
	}
}

// Run blocks until ctx is done or the config is rejected.
func (s *Supervisor) Run(ctx context.Context) error {
	if err := s.cfg.Validate(); err != nil {
		return err
	}
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		rw, err := s.open(ctx)
		if err != nil {
			observability.RecordLinkReopen(s.cfg.Node, false)
			delay := s.backoff.Next()
			log.Warn().
				Str("node", s.cfg.Node).
				Str("device", s.cfg.Device).
				Int("attempt", s.backoff.Attempt()).
				Dur("retry_in", delay).
				Err(err).
				Msg("link open failed")
			if err := sleepContext(ctx, delay); err != nil {
				return err
			}
			continue
		}
		s.backoff.Reset()
		observability.RecordLinkReopen(s.cfg.Node, true)

		l, err := New(s.cfg, rw)
		if err != nil {
			_ = rw.Close()
			return err
		}
		s.setCurrent(l)
		runErr := l.Run(ctx, s.handler)
		s.setCurrent(nil)
		_ = l.Close()
		if err := ctx.Err(); err != nil {
			return err
		}

		delay := s.backoff.Next()
		log.Warn().
			Str("node", s.cfg.Node).
			Str("device", s.cfg.Device).
			Uint64("packets", l.Stats().Packets).
			Dur("retry_in", delay).
			Err(runErr).
			Msg("link dropped")
		if err := sleepContext(ctx, delay); err != nil {
			return err
		}
	}
}

// Current returns the active link, or nil between sessions.
func (s *Supervisor) Current() *Link {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

func (s *Supervisor) Connected() bool {
	return s.Current() != nil
}

func (s *Supervisor) Send(payload []byte) error {
	l := s.Current()
	if l == nil {
		return ErrNotConnected
	}
	return l.Send(payload)
}

// Stats reports the active session's decoder counters.
func (s *Supervisor) Stats() frame.Stats {
	l := s.Current()
	if l == nil {
		return frame.Stats{}
	}
	return l.Stats()
}

func (s *Supervisor) setCurrent(l *Link) {
	s.mu.Lock()
	s.current = l
	s.mu.Unlock()
}
