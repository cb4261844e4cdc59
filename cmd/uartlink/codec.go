package main

import (
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"github.com/danmuck/uartlink/internal/protocol"
	"github.com/danmuck/uartlink/internal/protocol/frame"
	"github.com/danmuck/uartlink/internal/protocol/message"
	"github.com/spf13/cobra"
)

func encodeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "encode <payload-hex>",
		Short: "Print the wire frame for a payload",
		Example: `  uartlink encode aa10
  aa7dd710badd`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			payload, err := parseHex(args[0])
			if err != nil {
				return err
			}
			if len(payload) == 0 {
				return protocol.ErrEmptyPayload
			}
			fmt.Fprintln(cmd.OutOrStdout(), hex.EncodeToString(frame.Assemble(payload)))
			return nil
		},
	}
}

func decodeCmd() *cobra.Command {
	var capacity int
	var text bool

	cmd := &cobra.Command{
		Use:   "decode <wire-hex>",
		Short: "Feed captured wire bytes through the decoder",
		Long: `Feed a captured byte stream through a fresh decoder one byte at a
time and print every payload, device text line, and discarded frame.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			wire, err := parseHex(args[0])
			if err != nil {
				return err
			}
			dec, err := frame.NewDecoder(frame.WithCapacity(capacity), frame.WithTextCapture(text))
			if err != nil {
				return err
			}
			decodeStream(cmd.OutOrStdout(), dec, wire)
			return nil
		},
	}
	cmd.Flags().IntVar(&capacity, "capacity", protocol.DefaultCapacity, "decoder buffer capacity")
	cmd.Flags().BoolVar(&text, "text", false, "report out-of-frame bytes as text lines")
	return cmd
}

func decodeStream(w io.Writer, dec *frame.Decoder, wire []byte) {
	for i, b := range wire {
		res := dec.Feed(b)
		switch {
		case res.Complete():
			fmt.Fprintf(w, "%d: packet %s%s\n", i, hex.EncodeToString(res.Payload), describe(res.Payload))
		case res.Err != nil:
			fmt.Fprintf(w, "%d: discarded: %v\n", i, res.Err)
		case res.Text != "":
			fmt.Fprintf(w, "%d: text %q\n", i, res.Text)
		}
	}
	st := dec.Stats()
	fmt.Fprintf(w, "bytes=%d packets=%d discarded=%d state=%s\n",
		st.Bytes, st.Packets, st.FrameTooShort+st.ChecksumMismatch+st.BufferOverflow+st.MissingEnd, dec.State())
}

func describe(payload []byte) string {
	msg, err := message.Unmarshal(payload)
	if err != nil {
		return ""
	}
	return fmt.Sprintf(" %s %+v", msg.Type(), msg)
}

func parseHex(raw string) ([]byte, error) {
	clean := strings.NewReplacer(" ", "", ":", "", "0x", "", ",", "").Replace(strings.ToLower(strings.TrimSpace(raw)))
	b, err := hex.DecodeString(clean)
	if err != nil {
		return nil, fmt.Errorf("invalid hex %q: %w", raw, err)
	}
	return b, nil
}
