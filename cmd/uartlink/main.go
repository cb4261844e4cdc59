package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "uartlink: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "uartlink",
		Short: "Framed packet link over a serial port",
		Long: `uartlink exchanges byte-stuffed, checksummed packets with a device on a
UART. Frames are 0xAA | escaped(payload ++ xor) | 0xDD.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		listenCmd(),
		sendVelocityCmd(),
		encodeCmd(),
		decodeCmd(),
		portsCmd(),
		versionCmd(),
	)
	return root
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "uartlink %s (%s)\n", version, commit)
		},
	}
}
