// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Thermoquad/cemu/pkg/diaglog"
	"github.com/Thermoquad/cemu/pkg/ecbus"
)

func TestParseOpcode(t *testing.T) {
	tests := []struct {
		input    string
		expected uint32
	}{
		{"SEEK_FORWARD", ecbus.OpSeekForward},
		{"seek_forward", ecbus.OpSeekForward},
		{"e716", 0xE716},
		{"0xE716", 0xE716},
		{"0X39b82", 0x39B82},
		{" 0e72 ", ecbus.OpStop},
		{"FFFFFFFF", 0xFFFFFFFF},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := parseOpcode(ecbus.DefaultTable, tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestParseOpcode_Invalid(t *testing.T) {
	for _, input := range []string{"", "nope", "0x", "100000000"} {
		_, err := parseOpcode(ecbus.DefaultTable, input)
		assert.Error(t, err, "input %q", input)
	}
}

func TestParseOpcodes_StopsAtFirstError(t *testing.T) {
	ops, err := parseOpcodes(ecbus.DefaultTable, []string{"stop", "e716"})
	require.NoError(t, err)
	assert.Equal(t, []uint32{ecbus.OpStop, ecbus.OpSeekForward}, ops)

	_, err = parseOpcodes(ecbus.DefaultTable, []string{"stop", "bogus"})
	assert.Error(t, err)
}

func TestFormatOpcodes(t *testing.T) {
	assert.Equal(t, "0x0000E716 0x00000E72", formatOpcodes([]uint32{0xE716, 0xE72}))
	assert.Equal(t, "", formatOpcodes(nil))
}

func TestRecordAnomaly(t *testing.T) {
	table := ecbus.DefaultTable

	assert.Empty(t, recordAnomaly(diaglog.ModePackets, &diaglog.Record{Value: ecbus.OpStop}, table))
	assert.Contains(t, recordAnomaly(diaglog.ModePackets, &diaglog.Record{Value: 0x1234}, table), "unknown opcode")
	assert.Empty(t, recordAnomaly(diaglog.ModeWidths, &diaglog.Record{Value: 162}, table))
	assert.Contains(t, recordAnomaly(diaglog.ModeWidths, &diaglog.Record{Value: 3}, table), "noise")
	assert.Empty(t, recordAnomaly(diaglog.ModeWidths, &diaglog.Record{Value: 0x10003}, table))
}

func TestDiagMode(t *testing.T) {
	assert.Equal(t, diaglog.ModeWidths, diagMode(true))
	assert.Equal(t, diaglog.ModePackets, diagMode(false))
}

func TestParseWidth(t *testing.T) {
	w, err := parseWidth("162", false)
	require.NoError(t, err)
	assert.Equal(t, ecbus.PulseWidth(162), w)

	w, err = parseWidth("650", true)
	require.NoError(t, err)
	assert.Equal(t, ecbus.BitOne, ecbus.Classify(w))

	w, err = parseWidth("100000", false)
	require.NoError(t, err)
	assert.Equal(t, ecbus.PulseWidth(0xFFFF), w)

	_, err = parseWidth("-1", false)
	assert.Error(t, err)
}
