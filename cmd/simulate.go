// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/cemu/pkg/capture"
	"github.com/Thermoquad/cemu/pkg/ecbus"
	"github.com/Thermoquad/cemu/pkg/ecbus/loopback"
)

var (
	simulateCapture string
	simulateLabel   string
	simulateBits    bool
)

var simulateCmd = &cobra.Command{
	Use:   "simulate [opcode...]",
	Short: "Run the emulator against a scripted head unit",
	Long: `Run the emulator on a virtual bus and send it a sequence of opcodes.

Opcodes are given as command names (seek_forward) or hex values (e716). With
no arguments the head unit's usual power-on sequence is sent. Each opcode is
sent as its own frame followed by a bus idle gap; the frames the emulator
answers with are decoded from the bus and printed.

--capture writes everything the emulator drove, including the power-on
handshake, to a CBOR capture file for use with the replay command.`,
	RunE: runSimulate,
}

// defaultScript is what a head unit sends after power-on and pressing play
var defaultScript = []uint32{
	ecbus.OpInitCassette,
	ecbus.OpColdStart,
	ecbus.OpTapeQuery,
	ecbus.OpPlayFlip,
	ecbus.OpPlayAck,
}

func init() {
	rootCmd.AddCommand(simulateCmd)
	simulateCmd.Flags().StringVar(&simulateCapture, "capture", "", "Write the emulator's waveform to this capture file")
	simulateCmd.Flags().StringVar(&simulateLabel, "label", "", "Label stored in the capture file")
	simulateCmd.Flags().BoolVar(&simulateBits, "bits", false, "Print reply frames bit by bit")
}

func runSimulate(cmd *cobra.Command, args []string) error {
	table := ecbus.DefaultTable
	script := defaultScript
	if len(args) > 0 {
		var err error
		if script, err = parseOpcodes(table, args); err != nil {
			return err
		}
	}

	stats := ecbus.NewStatistics()
	h := loopback.NewHarness(ecbus.Config{
		Table:    table,
		Observer: ecbus.MultiObserver(stats, logObserver{table: table}),
	})

	fmt.Printf("cemu - Simulation\n")
	fmt.Printf("Script: %s\n\n", formatOpcodes(script))

	recorded := h.Bus.Edges()
	fmt.Printf("[%10s] power-on\n", formatVirtualTime(0))
	printReplyFrames(loopback.DecodeEdges(recorded))

	for _, op := range script {
		ex := h.Send(op)
		recorded = append(recorded, ex.Edges...)

		fmt.Printf("[%10s] -> %s\n", formatVirtualTime(ex.Start), ecbus.FormatOpcode(table, op))
		if len(ex.Received) != 1 || ex.Received[0] != op {
			fmt.Printf("             !! emulator received %s\n", formatOpcodes(ex.Received))
		}
		if len(ex.Reply) == 0 {
			fmt.Printf("             (no reply)\n")
		}
		printReplyFrames(ex.Reply)
	}

	fmt.Println()
	fmt.Print(stats.String())

	if simulateCapture != "" {
		label := simulateLabel
		if label == "" {
			label = "simulate " + formatOpcodes(script)
		}
		c := capture.FromEdges(label, recorded)
		if err := capture.Save(simulateCapture, c); err != nil {
			return fmt.Errorf("failed to write capture: %w", err)
		}
		fmt.Printf("\nCapture: %s (%d edges, %v)\n", simulateCapture, len(c.Edges), c.Duration())
	}

	return nil
}

// printReplyFrames prints decoded frames, one per line
func printReplyFrames(frames []uint32) {
	for _, v := range frames {
		fmt.Printf("             <- 0x%08X", v)
		if simulateBits {
			fmt.Printf("  %b", v)
		}
		fmt.Println()
	}
}

// formatVirtualTime renders a bus timestamp in milliseconds
func formatVirtualTime(d time.Duration) string {
	return fmt.Sprintf("%.3fms", float64(d)/float64(time.Millisecond))
}
