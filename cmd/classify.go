// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/Thermoquad/cemu/pkg/ecbus"
)

var classifyMicros bool

var classifyCmd = &cobra.Command{
	Use:   "classify <width>...",
	Short: "Classify pulse widths",
	Long: fmt.Sprintf(`Classify low phase widths the way the receiver does.

Widths are timer ticks of %v unless --us is given. Bands:
  0             overflow, IDLE
  1-%d           NOISE
  %d-%d          ZERO
  %d-%d        ONE
  %d and above  IDLE`,
		ecbus.TickPeriod,
		ecbus.NoiseMaxTicks,
		ecbus.NoiseMaxTicks+1, ecbus.ZeroMaxTicks,
		ecbus.ZeroMaxTicks+1, ecbus.OneMaxTicks,
		ecbus.OneMaxTicks+1),
	Args: cobra.MinimumNArgs(1),
	RunE: runClassify,
}

func init() {
	rootCmd.AddCommand(classifyCmd)
	classifyCmd.Flags().BoolVar(&classifyMicros, "us", false, "Widths are in microseconds")
}

func runClassify(cmd *cobra.Command, args []string) error {
	for _, arg := range args {
		w, err := parseWidth(arg, classifyMicros)
		if err != nil {
			return err
		}
		fmt.Println(ecbus.FormatPulse(w))
	}
	return nil
}

// parseWidth converts a tick or microsecond count to a pulse width
func parseWidth(s string, micros bool) (ecbus.PulseWidth, error) {
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid width %q: %w", s, err)
	}
	if micros {
		v = uint64(time.Duration(v) * time.Microsecond / ecbus.TickPeriod)
	}
	return clampWidth(v), nil
}

// clampWidth converts a decoded width to a PulseWidth, saturating at the
// largest width instead of wrapping
func clampWidth(v uint64) ecbus.PulseWidth {
	if v > 0xFFFF {
		return 0xFFFF
	}
	return ecbus.PulseWidth(v)
}
