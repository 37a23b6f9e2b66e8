// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"testing"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Thermoquad/cemu/pkg/diaglog"
	"github.com/Thermoquad/cemu/pkg/ecbus"
)

func TestEncodeRecord_Text(t *testing.T) {
	rec := &diaglog.Record{Raw: "e716", Value: 0xE716}
	payload, err := encodeRecord("text", diaglog.ModePackets, rec, ecbus.DefaultTable)
	require.NoError(t, err)
	assert.Equal(t, []byte("e716"), payload)
}

func TestEncodeRecord_CBOR(t *testing.T) {
	ts := time.UnixMilli(1700000000123)
	rec := &diaglog.Record{Raw: "e716", Value: ecbus.OpSeekForward, Timestamp: ts}

	payload, err := encodeRecord("cbor", diaglog.ModePackets, rec, ecbus.DefaultTable)
	require.NoError(t, err)

	var got recordPayload
	require.NoError(t, cbor.Unmarshal(payload, &got))
	assert.Equal(t, uint32(ecbus.OpSeekForward), got.Value)
	assert.Equal(t, "SEEK_FORWARD", got.Name)
	assert.Equal(t, int64(1700000000123), got.Time)

	payload, err = encodeRecord("cbor", diaglog.ModeWidths, &diaglog.Record{Value: 25}, ecbus.DefaultTable)
	require.NoError(t, err)
	require.NoError(t, cbor.Unmarshal(payload, &got))
	assert.Equal(t, "ZERO", got.Name)

	// 0x10003 must not wrap around to a 3 tick noise pulse
	payload, err = encodeRecord("cbor", diaglog.ModeWidths, &diaglog.Record{Value: 0x10003}, ecbus.DefaultTable)
	require.NoError(t, err)
	require.NoError(t, cbor.Unmarshal(payload, &got))
	assert.Equal(t, "IDLE", got.Name)
	assert.Equal(t, uint32(0x10003), got.Value)
}

func TestEncodeRecord_UnknownFormat(t *testing.T) {
	_, err := encodeRecord("xml", diaglog.ModePackets, &diaglog.Record{}, nil)
	assert.Error(t, err)
}

func TestRecordTopic(t *testing.T) {
	assert.Equal(t, "cemu/packet", recordTopic("cemu", diaglog.ModePackets))
	assert.Equal(t, "car/width", recordTopic("car", diaglog.ModeWidths))
}
