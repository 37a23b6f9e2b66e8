// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/cemu/pkg/capture"
	"github.com/Thermoquad/cemu/pkg/ecbus"
	"github.com/Thermoquad/cemu/pkg/ecbus/loopback"
)

var replayPulses bool

var replayCmd = &cobra.Command{
	Use:   "replay <capture.cbor>",
	Short: "Decode a waveform capture through the receiver",
	Long: `Play a CBOR capture back onto a virtual bus and decode it with the same
receiver the emulator uses.

Every frame found in the capture is printed with its command name. With
--pulses, each measured pulse is printed with its classification.`,
	Args: cobra.ExactArgs(1),
	RunE: runReplay,
}

func init() {
	rootCmd.AddCommand(replayCmd)
	replayCmd.Flags().BoolVar(&replayPulses, "pulses", false, "Print every measured pulse")
}

func runReplay(cmd *cobra.Command, args []string) error {
	c, err := capture.Load(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("cemu - Capture Replay\n")
	fmt.Printf("File: %s\n", args[0])
	if c.Label != "" {
		fmt.Printf("Label: %s\n", c.Label)
	}
	fmt.Printf("Edges: %d over %v\n\n", len(c.Edges), c.Duration())

	table := ecbus.DefaultTable
	stats := ecbus.NewStatistics()
	bus := loopback.New()
	bus.InjectEdges(c.LoopbackEdges())
	codec := ecbus.NewCodec(bus.Hardware())
	rx := ecbus.NewReceiver()

	step := func() (uint32, bool) {
		w := codec.MeasurePulse()
		class := ecbus.Classify(w)
		stats.OnPulse(w, class)
		if replayPulses {
			fmt.Printf("[%10s] %s\n", formatVirtualTime(bus.Now()), ecbus.FormatPulse(w))
		}

		bits := rx.Bits()
		op, ok := rx.FeedClass(class)
		if ok {
			entry, _ := table.Lookup(op)
			stats.OnPacket(op, bits, entry)
			fmt.Printf("[%10s] %s, %d bits\n", formatVirtualTime(bus.Now()), ecbus.FormatOpcode(table, op), bits)
		}
		return op, ok
	}

	frames := loopback.Drain(bus, step)

	fmt.Printf("\nFrames: %d\n", len(frames))
	fmt.Print(stats.String())
	return nil
}
