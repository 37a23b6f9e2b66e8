// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang/glog"
	"github.com/spf13/cobra"

	"github.com/Thermoquad/cemu/pkg/diaglog"
	"github.com/Thermoquad/cemu/pkg/ecbus"
)

var rawLogCmd = &cobra.Command{
	Use:   "raw_log",
	Short: "Display the emulator's diagnostic output in human-readable form",
	Long: `Continuously decode and display the emulator's diagnostic output.

Every completed packet the firmware dumps is shown with a timestamp and the
command name from the command table. With --widths, every measured pulse
width is shown with its classification instead.

Supports both serial and WebSocket connections.`,
	RunE: runRawLog,
}

func init() {
	rootCmd.AddCommand(rawLogCmd)
}

func runRawLog(cmd *cobra.Command, args []string) error {
	conn, connInfo, err := OpenConnection()
	if err != nil {
		return err
	}
	defer conn.Close()

	fmt.Printf("cemu - Raw Diagnostic Log\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Press Ctrl+C to exit\n\n")

	mode := diagMode(diagWidths)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, errCh := streamRecords(ctx, conn, mode)
	for ev := range events {
		if ev.err != nil {
			fmt.Printf("[ERROR] %v\n", ev.err)
			continue
		}
		fmt.Println(diaglog.FormatRecord(mode, ev.rec, ecbus.DefaultTable))
	}

	select {
	case err := <-errCh:
		if errors.Is(err, ErrConnectionClosed) {
			glog.Info("connection closed")
			return nil
		}
		return fmt.Errorf("read error: %w", err)
	default:
		glog.Info("connection closed")
		return nil
	}
}
