package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/danmuck/uartlink/internal/admin"
	"github.com/danmuck/uartlink/internal/config"
	"github.com/danmuck/uartlink/internal/link"
	"github.com/danmuck/uartlink/internal/observability"
	"github.com/danmuck/uartlink/internal/protocol/message"
	"github.com/danmuck/uartlink/internal/serialport"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

type linkFlags struct {
	configPath string
	device     string
	baud       int
	capacity   int
	text       bool
}

func (f *linkFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.configPath, "config", "c", "", "TOML config file")
	cmd.Flags().StringVarP(&f.device, "device", "d", "", "serial device (overrides config)")
	cmd.Flags().IntVarP(&f.baud, "baud", "b", 0, "baud rate (overrides config)")
	cmd.Flags().IntVar(&f.capacity, "capacity", 0, "decoder buffer capacity (overrides config)")
	cmd.Flags().BoolVar(&f.text, "text", false, "log out-of-frame bytes as device text")
}

// resolve loads the config file, if any, then applies explicit flags.
func (f *linkFlags) resolve(cmd *cobra.Command) (config.AppConfig, error) {
	cfg := config.DefaultAppConfig()
	if f.configPath != "" {
		loaded, err := config.Load(f.configPath)
		if err != nil {
			return config.AppConfig{}, err
		}
		cfg = loaded
	}
	if cmd.Flags().Changed("device") {
		cfg.Link.Device = f.device
	}
	if cmd.Flags().Changed("baud") {
		cfg.Link.BaudRate = f.baud
	}
	if cmd.Flags().Changed("capacity") {
		cfg.Link.Capacity = f.capacity
	}
	if cmd.Flags().Changed("text") {
		cfg.Link.TextCapture = f.text
	}
	if err := config.Validate(cfg); err != nil {
		return config.AppConfig{}, err
	}
	return cfg, nil
}

func listenCmd() *cobra.Command {
	var flags linkFlags
	var adminAddr string

	cmd := &cobra.Command{
		Use:   "listen",
		Short: "Decode packets from the device until interrupted",
		Long: `Open the serial device, decode every frame it sends, and log the
messages. The port is reopened with backoff if it disappears. With an
admin address, /health, /ready, /stats, /metrics, POST /velocity and
POST /frames are served over HTTP.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.resolve(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("admin") {
				cfg.AdminAddr = adminAddr
			}
			observability.InitLogger(cfg.Link.Node)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runListen(ctx, cfg, serialport.Opener(cfg.Link))
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&adminAddr, "admin", "", "admin HTTP listen address (overrides config)")
	return cmd
}

func runListen(ctx context.Context, cfg config.AppConfig, open link.Opener) error {
	sup := link.NewSupervisor(cfg.Link, open, logMessage)

	adminErr := make(chan error, 1)
	if cfg.AdminAddr != "" {
		srv := admin.New(cfg.Link.Node, cfg.AdminAddr, cfg.CorsOrigins, sup)
		go func() { adminErr <- srv.Serve(ctx) }()
	}

	supErr := make(chan error, 1)
	go func() { supErr <- sup.Run(ctx) }()

	select {
	case err := <-supErr:
		return quiet(err)
	case err := <-adminErr:
		if quiet(err) == nil {
			return quiet(<-supErr)
		}
		return err
	}
}

// quiet maps shutdown errors to nil.
func quiet(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func logMessage(payload []byte) {
	msg, err := message.Unmarshal(payload)
	if err != nil {
		log.Warn().Err(err).Hex("payload", payload).Msg("undecodable payload")
		return
	}
	switch m := msg.(type) {
	case message.WheelEncoder:
		log.Info().Int32("left", m.Left).Int32("right", m.Right).Msg("wheel encoder")
	case message.Velocity:
		log.Info().Int16("left_rpm", m.LeftRPM).Int16("right_rpm", m.RightRPM).Msg("velocity")
	case message.DebugString:
		log.Info().Str("text", m.Text).Msg("debug")
	}
}
