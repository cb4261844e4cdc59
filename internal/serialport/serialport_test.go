package serialport

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/danmuck/uartlink/internal/link"
	"go.bug.st/serial"
)

func TestNormalizeBaudRate(t *testing.T) {
	for _, rate := range SupportedBaudRates {
		if got, ok := NormalizeBaudRate(rate); !ok || got != rate {
			t.Fatalf("rate %d: got=%d ok=%v", rate, got, ok)
		}
	}
	if got, ok := NormalizeBaudRate(14400); ok || got != FallbackBaudRate {
		t.Fatalf("unsupported rate: got=%d ok=%v", got, ok)
	}
}

func TestModeIsRaw8N1(t *testing.T) {
	m := Mode(115200)
	if m.BaudRate != 115200 || m.DataBits != 8 || m.Parity != serial.NoParity || m.StopBits != serial.OneStopBit {
		t.Fatalf("unexpected mode: %+v", m)
	}
}

func TestOpenMissingDevice(t *testing.T) {
	cfg := link.DefaultConfig()
	cfg.Device = filepath.Join(t.TempDir(), "ttyMISSING")
	if _, err := Open(cfg); err == nil {
		t.Fatalf("expected open error")
	}
}

func TestOpenerHonorsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Opener(link.DefaultConfig())(ctx); err != context.Canceled {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
