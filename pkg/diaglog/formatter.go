// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package diaglog

import (
	"fmt"

	"github.com/Thermoquad/cemu/pkg/ecbus"
)

// FormatRecord formats a record for display. Packets are named from table,
// widths are classified.
func FormatRecord(mode Mode, rec *Record, table ecbus.CommandTable) string {
	ts := rec.Timestamp.Format("15:04:05.000")
	if mode == ModeWidths {
		return fmt.Sprintf("[%s] %s", ts, ecbus.FormatPulse(rec.Width()))
	}
	return fmt.Sprintf("[%s] RX %s", ts, ecbus.FormatOpcode(table, rec.Value))
}
