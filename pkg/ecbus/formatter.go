// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package ecbus

import (
	"fmt"
	"strings"
)

// FormatOpcode returns "NAME (0x0000E716)" using names from table
func FormatOpcode(table CommandTable, opcode uint32) string {
	return fmt.Sprintf("%s (0x%08X)", table.Name(opcode), opcode)
}

// FormatFrame returns the frame value and its bit count, e.g. "0x0030C692/22"
func FormatFrame(f Frame) string {
	return fmt.Sprintf("0x%08X/%d", f.Value, f.Bits())
}

// FormatBits renders the bits of f as they go on the wire, MSB first
func FormatBits(f Frame) string {
	var b strings.Builder
	for i := int(f.Length); i >= 0; i-- {
		if f.Bit(uint8(i)) {
			b.WriteByte('1')
		} else {
			b.WriteByte('0')
		}
	}
	return b.String()
}

// FormatPulse returns a one-line description of a measured pulse
func FormatPulse(w PulseWidth) string {
	if w == Overflow {
		return "OVERFLOW -> IDLE"
	}
	return fmt.Sprintf("%3d ticks (%4dus) -> %s", w, int64(w)*TickPeriod.Microseconds(), Classify(w))
}

// FormatCommand formats a table entry with its response frames
func FormatCommand(cmd *Command) string {
	result := fmt.Sprintf("%-14s 0x%08X  %s", cmd.Name, cmd.Opcode, cmd.Action)
	switch cmd.Action {
	case ActionReinit:
		frames := make([]string, len(InitFrames))
		for i, f := range InitFrames {
			frames[i] = FormatFrame(f)
		}
		result += "  " + strings.Join(frames, " ")
	case ActionReply:
		if len(cmd.Frames) == 0 {
			result += "  (no frames)"
		}
		for _, f := range cmd.Frames {
			result += "  " + FormatFrame(f)
		}
	}
	return result + "\n"
}

// FormatTransmit formats the outcome of one transmit attempt
func FormatTransmit(f Frame, err error) string {
	if err != nil {
		return fmt.Sprintf("TX %s FAILED: %v", FormatFrame(f), err)
	}
	return fmt.Sprintf("TX %s", FormatFrame(f))
}
