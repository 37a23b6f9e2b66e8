// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/cemu/pkg/diaglog"
	"github.com/Thermoquad/cemu/pkg/ecbus"
)

var (
	packetTestTimeout int
)

var packetTestCmd = &cobra.Command{
	Use:   "packet_test",
	Short: "Test the diagnostic link by waiting for one decoded record",
	Long: `Wait for a valid diagnostic record on the connection until timeout.

This command connects to a serial port or WebSocket and waits for one
complete diagnostic line (a packet dump, or a pulse width with --widths).
Garbage before the first line terminator is skipped.

Exit codes:
  0 - Record received before timeout
  1 - Timeout reached without receiving a valid record
  2 - Connection error

Useful for checking the serial adapter wiring and baud rate.`,
	RunE: runPacketTest,
}

func init() {
	rootCmd.AddCommand(packetTestCmd)
	packetTestCmd.Flags().IntVar(&packetTestTimeout, "timeout", 10, "Timeout in seconds to wait for a record")
}

func runPacketTest(cmd *cobra.Command, args []string) error {
	conn, connInfo, err := OpenConnection()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Connection error: %v\n", err)
		os.Exit(2)
	}
	defer conn.Close()

	fmt.Printf("cemu - Packet Test\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Timeout: %d seconds\n", packetTestTimeout)
	fmt.Printf("Waiting for diagnostic output...\n\n")

	mode := diagMode(diagWidths)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, errCh := streamRecords(ctx, conn, mode)
	timeout := time.After(time.Duration(packetTestTimeout) * time.Second)
	skipped := 0

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				select {
				case err := <-errCh:
					fmt.Fprintf(os.Stderr, "Read error: %v\n", err)
				default:
					fmt.Fprintf(os.Stderr, "Connection closed\n")
				}
				os.Exit(2)
			}
			if ev.err != nil {
				skipped++
				continue
			}
			if skipped > 0 {
				fmt.Printf("(skipped %d bad lines before sync)\n", skipped)
			}
			fmt.Printf("SUCCESS: Received diagnostic record\n")
			fmt.Printf("  Raw: %q\n", ev.rec.Raw)
			if mode == diaglog.ModeWidths {
				fmt.Printf("  Width: %s\n", ecbus.FormatPulse(ev.rec.Width()))
			} else {
				fmt.Printf("  Opcode: %s\n", ecbus.FormatOpcode(ecbus.DefaultTable, ev.rec.Value))
			}
			os.Exit(0)

		case <-timeout:
			fmt.Fprintf(os.Stderr, "TIMEOUT: No valid record received within %d seconds\n", packetTestTimeout)
			os.Exit(1)
		}
	}
}
