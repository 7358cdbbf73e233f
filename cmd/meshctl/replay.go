package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fxamacker/cbor/v2"
	"github.com/spf13/cobra"

	"github.com/driftmesh/overlay/pkg/forwarding"
)

func newReplayCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "replay <recording-file>",
		Short: "Print the outbound messages captured by a distribution.Recorder",
		Long: `Decodes a recorder output file (the append-only CBOR log written by
distribution.Recorder, capped by the recording-directory/cap config) and
prints each node message in order.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			return runReplay(cmd, f, limit)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "stop after printing this many messages (0 means no limit)")

	return cmd
}

func runReplay(cmd *cobra.Command, r io.Reader, limit int) error {
	out := cmd.OutOrStdout()
	dec := cbor.NewDecoder(r)
	count := 0
	for {
		if limit > 0 && count >= limit {
			break
		}
		var msg forwarding.NodeMessage
		if err := dec.Decode(&msg); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return fmt.Errorf("decoding record %d: %w", count+1, err)
		}
		count++
		fmt.Fprintf(out, "%d: topic=%s kind=%s ttl=%d receivers=%v payload=%dB\n",
			count, msg.Topic, msg.Kind, msg.TTL, msg.Receivers, len(msg.Payload))
	}
	fmt.Fprintf(out, "%d message(s)\n", count)
	return nil
}
