// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"flag"

	"github.com/spf13/cobra"
)

var (
	// Serial connection flags
	portName string
	baudRate int

	// WebSocket connection flags
	wsURL         string
	wsUsername    string
	wsNoSSLVerify bool

	// Diagnostic output format
	diagWidths bool
)

var rootCmd = &cobra.Command{
	Use:   "cemu",
	Short: "E&C Cassette Changer Emulator Toolkit",
	Long: `cemu - Host tooling for the E&C bus cassette changer emulator.

Simulates the emulator against a scripted head unit on a virtual bus, records
and replays bus waveforms, and monitors the diagnostic serial output of the
firmware running on real hardware.

Connection modes (diagnostic output):
  Serial:    --port /dev/ttyUSB0 [--baud 9600]
  WebSocket: --url ws://host/path [--username user]

The firmware prints every completed packet as hex. Firmware built with width
dumping prints measured pulse widths in decimal instead; pass --widths to
decode those.

For WebSocket authentication, the password is read from the CEMU_PASSWORD
environment variable, or prompted interactively if not set.

Logging uses glog: -v=1 for connection details, -v=2 for per-pulse traces,
--logtostderr to log to the terminal.`,
	Version: "1.0.0",
}

func init() {
	// Serial connection flags
	rootCmd.PersistentFlags().StringVarP(&portName, "port", "p", "", "Serial port device")
	rootCmd.PersistentFlags().IntVarP(&baudRate, "baud", "b", 9600, "Baud rate (serial only)")

	// WebSocket connection flags
	rootCmd.PersistentFlags().StringVarP(&wsURL, "url", "u", "", "WebSocket URL (ws:// or wss://)")
	rootCmd.PersistentFlags().StringVar(&wsUsername, "username", "", "Username for HTTP Basic auth")
	rootCmd.PersistentFlags().BoolVar(&wsNoSSLVerify, "no-ssl-verify", false, "Skip TLS certificate verification (wss:// only)")

	rootCmd.PersistentFlags().BoolVar(&diagWidths, "widths", false, "Diagnostic output carries pulse widths instead of packets")

	// glog registers its flags on the standard flag set
	rootCmd.PersistentFlags().AddGoFlagSet(flag.CommandLine)
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}
