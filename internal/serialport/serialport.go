// Package serialport opens UART devices for a link.
package serialport

import (
	"context"
	"fmt"
	"io"
	"slices"

	"github.com/danmuck/uartlink/internal/link"
	"github.com/rs/zerolog/log"
	"go.bug.st/serial"
)

// FallbackBaudRate is used when the configured rate is not supported.
const FallbackBaudRate = 9600

var SupportedBaudRates = []int{9600, 19200, 38400, 57600, 115200, 230400}

// NormalizeBaudRate returns rate when supported, otherwise FallbackBaudRate
// and false.
func NormalizeBaudRate(rate int) (int, bool) {
	if slices.Contains(SupportedBaudRates, rate) {
		return rate, true
	}
	return FallbackBaudRate, false
}

// Mode is raw 8N1 at the given rate.
func Mode(baud int) *serial.Mode {
	return &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
}

func Open(cfg link.Config) (io.ReadWriteCloser, error) {
	baud, ok := NormalizeBaudRate(cfg.BaudRate)
	if !ok {
		log.Warn().
			Str("device", cfg.Device).
			Int("baud_rate", cfg.BaudRate).
			Int("fallback", baud).
			Msg("unsupported baud rate")
	}
	port, err := serial.Open(cfg.Device, Mode(baud))
	if err != nil {
		return nil, fmt.Errorf("serialport: open %s: %w", cfg.Device, err)
	}
	// drop whatever the device sent before we were listening
	if err := port.ResetInputBuffer(); err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("serialport: flush %s: %w", cfg.Device, err)
	}
	log.Info().Str("device", cfg.Device).Int("baud_rate", baud).Msg("serial port open")
	return port, nil
}

// Opener adapts Open for link.Supervisor.
func Opener(cfg link.Config) link.Opener {
	return func(ctx context.Context) (io.ReadWriteCloser, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return Open(cfg)
	}
}

// List returns the serial devices visible to the host.
func List() ([]string, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("serialport: list: %w", err)
	}
	return ports, nil
}
