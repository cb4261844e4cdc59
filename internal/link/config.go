package link

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/danmuck/uartlink/internal/protocol"
	"github.com/danmuck/uartlink/internal/protocol/frame"
)

var (
	ErrInvalidBaudRate   = errors.New("link: invalid baud rate")
	ErrInvalidReadBuffer = errors.New("link: invalid read buffer size")
	ErrMissingDevice     = errors.New("link: device required")
)

// BackoffConfig defines retry backoff behavior.
type BackoffConfig struct {
	InitialDelay time.Duration
	Multiplier   float64
	MaxDelay     time.Duration
	Jitter       bool
}

// Config defines one serial link.
type Config struct {
	Node           string
	Device         string
	BaudRate       int
	Capacity       int
	TextCapture    bool
	ReadBufferSize int
	Reopen         BackoffConfig
}

func DefaultConfig() Config {
	return Config{
		Node:           "uartlink",
		Device:         "/dev/ttyUSB0",
		BaudRate:       115200,
		Capacity:       protocol.DefaultCapacity,
		TextCapture:    false,
		ReadBufferSize: 64,
		Reopen: BackoffConfig{
			InitialDelay: 250 * time.Millisecond,
			Multiplier:   2.0,
			MaxDelay:     5 * time.Second,
			Jitter:       true,
		},
	}
}

// WithDefaults fills zero-valued fields from DefaultConfig.
func (c Config) WithDefaults() Config {
	def := DefaultConfig()
	if strings.TrimSpace(c.Node) == "" {
		c.Node = def.Node
	}
	if strings.TrimSpace(c.Device) == "" {
		c.Device = def.Device
	}
	if c.BaudRate == 0 {
		c.BaudRate = def.BaudRate
	}
	if c.Capacity == 0 {
		c.Capacity = def.Capacity
	}
	if c.ReadBufferSize == 0 {
		c.ReadBufferSize = def.ReadBufferSize
	}
	if c.Reopen.InitialDelay == 0 {
		c.Reopen.InitialDelay = def.Reopen.InitialDelay
	}
	if c.Reopen.Multiplier == 0 {
		c.Reopen.Multiplier = def.Reopen.Multiplier
	}
	if c.Reopen.MaxDelay == 0 {
		c.Reopen.MaxDelay = def.Reopen.MaxDelay
	}
	return c
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Device) == "" {
		return ErrMissingDevice
	}
	if c.BaudRate <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidBaudRate, c.BaudRate)
	}
	if c.Capacity <= protocol.MinBodyLen {
		return fmt.Errorf("%w: %d", protocol.ErrInvalidCapacity, c.Capacity)
	}
	if c.ReadBufferSize <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidReadBuffer, c.ReadBufferSize)
	}
	return nil
}

// Limits sizes outbound payloads for a peer with the same capacity.
func (c Config) Limits() frame.Limits {
	return frame.LimitsFor(c.Capacity)
}
