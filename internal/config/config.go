package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/danmuck/uartlink/internal/link"
	"github.com/danmuck/uartlink/internal/protocol"
)

var ErrInvalidDuration = errors.New("config: invalid duration")

// AppConfig is the full runtime configuration of one uartlink process.
type AppConfig struct {
	Link        link.Config
	AdminAddr   string
	CorsOrigins []string
}

func DefaultAppConfig() AppConfig {
	return AppConfig{
		Link:        link.DefaultConfig(),
		AdminAddr:   "",
		CorsOrigins: nil,
	}
}

type fileConfig struct {
	Node               string   `toml:"node"`
	Device             string   `toml:"device"`
	BaudRate           int      `toml:"baud_rate"`
	Capacity           int      `toml:"capacity"`
	Constrained        bool     `toml:"constrained"`
	TextCapture        bool     `toml:"text_capture"`
	ReadBufferSize     int      `toml:"read_buffer_size"`
	ReopenInitialDelay string   `toml:"reopen_initial_delay"`
	ReopenMaxDelay     string   `toml:"reopen_max_delay"`
	ReopenJitter       bool     `toml:"reopen_jitter"`
	AdminAddr          string   `toml:"admin_addr"`
	CorsOrigins        []string `toml:"cors_origins"`
}

// Load reads a TOML file and applies only the keys it defines on top of
// DefaultAppConfig.
func Load(path string) (AppConfig, error) {
	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return AppConfig{}, fmt.Errorf("config load failed (%s): %w", path, err)
	}
	cfg, err := apply(DefaultAppConfig(), raw, meta)
	if err != nil {
		return AppConfig{}, fmt.Errorf("config invalid (%s): %w", path, err)
	}
	return cfg, nil
}

// Decode is Load for in-memory TOML.
func Decode(data string) (AppConfig, error) {
	var raw fileConfig
	meta, err := toml.Decode(data, &raw)
	if err != nil {
		return AppConfig{}, fmt.Errorf("config parse failed: %w", err)
	}
	return apply(DefaultAppConfig(), raw, meta)
}

func apply(cfg AppConfig, raw fileConfig, meta toml.MetaData) (AppConfig, error) {
	if meta.IsDefined("node") {
		cfg.Link.Node = strings.TrimSpace(raw.Node)
	}
	if meta.IsDefined("device") {
		cfg.Link.Device = strings.TrimSpace(raw.Device)
	}
	if meta.IsDefined("baud_rate") {
		cfg.Link.BaudRate = raw.BaudRate
	}
	if meta.IsDefined("constrained") && raw.Constrained {
		cfg.Link.Capacity = protocol.ConstrainedCapacity
	}
	if meta.IsDefined("capacity") {
		cfg.Link.Capacity = raw.Capacity
	}
	if meta.IsDefined("text_capture") {
		cfg.Link.TextCapture = raw.TextCapture
	}
	if meta.IsDefined("read_buffer_size") {
		cfg.Link.ReadBufferSize = raw.ReadBufferSize
	}
	if meta.IsDefined("reopen_initial_delay") {
		d, err := parseDuration("reopen_initial_delay", raw.ReopenInitialDelay)
		if err != nil {
			return AppConfig{}, err
		}
		cfg.Link.Reopen.InitialDelay = d
	}
	if meta.IsDefined("reopen_max_delay") {
		d, err := parseDuration("reopen_max_delay", raw.ReopenMaxDelay)
		if err != nil {
			return AppConfig{}, err
		}
		cfg.Link.Reopen.MaxDelay = d
	}
	if meta.IsDefined("reopen_jitter") {
		cfg.Link.Reopen.Jitter = raw.ReopenJitter
	}
	if meta.IsDefined("admin_addr") {
		cfg.AdminAddr = strings.TrimSpace(raw.AdminAddr)
	}
	if meta.IsDefined("cors_origins") {
		cfg.CorsOrigins = normalizeOrigins(raw.CorsOrigins)
	}
	if err := Validate(cfg); err != nil {
		return AppConfig{}, err
	}
	return cfg, nil
}

func Validate(cfg AppConfig) error {
	if strings.TrimSpace(cfg.Link.Node) == "" {
		return fmt.Errorf("config missing node")
	}
	return cfg.Link.Validate()
}

func parseDuration(key, raw string) (time.Duration, error) {
	d, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrInvalidDuration, key, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%w: %s: negative", ErrInvalidDuration, key)
	}
	return d, nil
}

func normalizeOrigins(in []string) []string {
	out := make([]string, 0, len(in))
	for _, origin := range in {
		v := strings.TrimSpace(origin)
		if v == "" {
			continue
		}
		out = append(out, v)
	}
	return out
}
