// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/cemu/pkg/ecbus"
)

var tableBits bool

var tableCmd = &cobra.Command{
	Use:   "table",
	Short: "Print and validate the command table",
	Long: `Print every opcode the emulator answers and the frames it replies with.

The table is validated for duplicate opcodes and frames whose value does not
fit their bit count.

Exit codes:
  0 - Table is valid
  1 - Validation failed`,
	RunE: runTable,
}

func init() {
	rootCmd.AddCommand(tableCmd)
	tableCmd.Flags().BoolVar(&tableBits, "bits", false, "Print reply frames bit by bit")
}

func runTable(cmd *cobra.Command, args []string) error {
	table := ecbus.DefaultTable

	fmt.Printf("%-14s %-10s  %s\n", "COMMAND", "OPCODE", "ACTION / REPLY")
	for i := range table {
		c := &table[i]
		fmt.Print(ecbus.FormatCommand(c))
		if tableBits {
			frames := c.Frames
			if c.Action == ecbus.ActionReinit {
				frames = ecbus.InitFrames[:]
			}
			for _, f := range frames {
				fmt.Printf("    %-14s %s\n", ecbus.FormatFrame(f), ecbus.FormatBits(f))
			}
		}
	}

	errs := ecbus.ValidateTable(table)
	for _, f := range ecbus.InitFrames {
		errs = append(errs, ecbus.ValidateFrame(f)...)
	}

	fmt.Println()
	if len(errs) == 0 {
		fmt.Printf("%d commands, table OK\n", len(table))
		return nil
	}

	for _, e := range errs {
		fmt.Fprintf(os.Stderr, "INVALID: %s\n", e.Message)
	}
	os.Exit(1)
	return nil
}
