package main

import (
	"fmt"

	"github.com/danmuck/uartlink/internal/link"
	"github.com/danmuck/uartlink/internal/observability"
	"github.com/danmuck/uartlink/internal/protocol/message"
	"github.com/danmuck/uartlink/internal/serialport"
	"github.com/spf13/cobra"
)

func sendVelocityCmd() *cobra.Command {
	var flags linkFlags
	var left, right int16

	cmd := &cobra.Command{
		Use:   "send-velocity",
		Short: "Send one velocity command to the device",
		Example: `  uartlink send-velocity -d /dev/ttyUSB0 --left 120 --right -120`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.resolve(cmd)
			if err != nil {
				return err
			}
			observability.InitLogger(cfg.Link.Node)

			rw, err := serialport.Open(cfg.Link)
			if err != nil {
				return err
			}
			l, err := link.New(cfg.Link, rw)
			if err != nil {
				_ = rw.Close()
				return err
			}
			defer l.Close()

			if err := l.SendMessage(message.Velocity{LeftRPM: left, RightRPM: right}); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "sent velocity left=%d right=%d to %s\n", left, right, cfg.Link.Device)
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().Int16Var(&left, "left", 0, "left wheel RPM")
	cmd.Flags().Int16Var(&right, "right", 0, "right wheel RPM")
	return cmd
}

func portsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ports",
		Short: "List serial devices",
		RunE: func(cmd *cobra.Command, args []string) error {
			ports, err := serialport.List()
			if err != nil {
				return err
			}
			for _, p := range ports {
				fmt.Fprintln(cmd.OutOrStdout(), p)
			}
			return nil
		},
	}
}
