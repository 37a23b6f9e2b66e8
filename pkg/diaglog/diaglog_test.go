// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package diaglog

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Thermoquad/cemu/pkg/ecbus"
)

// decodeAll feeds s through d and collects records and errors
func decodeAll(d *Decoder, s string) ([]*Record, []error) {
	var recs []*Record
	var errs []error
	for i := 0; i < len(s); i++ {
		rec, err := d.DecodeByte(s[i])
		if err != nil {
			errs = append(errs, err)
		}
		if rec != nil {
			recs = append(recs, rec)
		}
	}
	return recs, errs
}

// diagBytes renders what the firmware would emit for the given packets
func diagBytes(packets ...uint32) string {
	var out []byte
	ch := byteSink(func(b byte) { out = append(out, b) })
	for _, p := range packets {
		ecbus.DumpPacket(ch, p)
	}
	return string(out)
}

type byteSink func(byte)

func (f byteSink) EmitByte(b byte) { f(b) }

// ============================================================
// Decoder Tests
// ============================================================

func TestDecoder_PacketLines(t *testing.T) {
	d := NewDecoder(ModePackets)
	recs, errs := decodeAll(d, diagBytes(0xE716, 0x39B82, 0x0))

	require.Empty(t, errs)
	require.Len(t, recs, 3)
	assert.Equal(t, uint32(0xE716), recs[0].Value)
	assert.Equal(t, "e716", recs[0].Raw)
	assert.Equal(t, uint32(0x39B82), recs[1].Value)
	assert.Equal(t, uint32(0), recs[2].Value)
	assert.False(t, recs[0].Timestamp.IsZero())
}

func TestDecoder_WidthLines(t *testing.T) {
	d := NewDecoder(ModeWidths)
	recs, errs := decodeAll(d, "25\r\n162\r\n0\r\n")

	require.Empty(t, errs)
	require.Len(t, recs, 3)
	assert.Equal(t, []uint32{25, 162, 0}, []uint32{recs[0].Value, recs[1].Value, recs[2].Value})
}

func TestDecoder_BareNewlineAndBlankLines(t *testing.T) {
	d := NewDecoder(ModePackets)
	recs, errs := decodeAll(d, "\r\n\ne70e\n")

	require.Empty(t, errs)
	require.Len(t, recs, 1)
	assert.Equal(t, uint32(0xE70E), recs[0].Value)
}

func TestDecoder_GarbageResyncs(t *testing.T) {
	d := NewDecoder(ModePackets)
	recs, errs := decodeAll(d, "zz\r\ne716\r\n")

	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), "zz")
	require.Len(t, recs, 1)
	assert.Equal(t, uint32(0xE716), recs[0].Value)
}

func TestDecoder_LineTooLong(t *testing.T) {
	d := NewDecoder(ModePackets)
	recs, errs := decodeAll(d, strings.Repeat("f", 3*MaxLineLength)+"\r\ne704\r\n")

	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], ErrLineTooLong)
	require.Len(t, recs, 1)
	assert.Equal(t, uint32(ecbus.OpInitCassette), recs[0].Value)
}

func TestDecoder_ValueOutOfRange(t *testing.T) {
	d := NewDecoder(ModeWidths)
	recs, errs := decodeAll(d, "4294967296\r\n")

	assert.Empty(t, recs)
	require.Len(t, errs, 1)
}

// ============================================================
// Statistics Tests
// ============================================================

func TestStatistics_PacketMode(t *testing.T) {
	d := NewDecoder(ModePackets)
	s := NewStatistics()

	input := diagBytes(ecbus.OpStop, 0x1234) + "xx\r\n"
	for i := 0; i < len(input); i++ {
		rec, err := d.DecodeByte(input[i])
		s.Update(d.Mode(), rec, err, ecbus.DefaultTable)
	}

	assert.Equal(t, uint64(2), s.TotalRecords)
	assert.Equal(t, uint64(1), s.KnownPackets)
	assert.Equal(t, uint64(1), s.UnknownPackets)
	assert.Equal(t, uint64(1), s.DecodeErrors)

	out := s.String()
	assert.Contains(t, out, "Unknown Opcodes:")
	assert.Contains(t, out, "Decode Errors:")

	s.Reset()
	assert.Zero(t, s.TotalRecords)
	assert.Zero(t, s.DecodeErrors)
}

func TestStatistics_WidthMode(t *testing.T) {
	s := NewStatistics()
	for _, w := range []uint32{3, 25, 162, 162, 0, 240} {
		s.Update(ModeWidths, &Record{Value: w}, nil, ecbus.DefaultTable)
	}

	assert.Equal(t, uint64(1), s.NoiseWidths)
	assert.Equal(t, uint64(1), s.ZeroWidths)
	assert.Equal(t, uint64(2), s.OneWidths)
	assert.Equal(t, uint64(2), s.IdleWidths)
	assert.Zero(t, s.KnownPackets)

	// An out of range width saturates instead of wrapping to 3 ticks
	s.Update(ModeWidths, &Record{Value: 0x10003}, nil, ecbus.DefaultTable)
	assert.Equal(t, uint64(1), s.NoiseWidths)
	assert.Equal(t, uint64(3), s.IdleWidths)
}

func TestRecord_WidthSaturates(t *testing.T) {
	assert.Equal(t, ecbus.PulseWidth(162), (&Record{Value: 162}).Width())
	assert.Equal(t, ecbus.PulseWidth(0xFFFF), (&Record{Value: 0xFFFF}).Width())
	assert.Equal(t, ecbus.PulseWidth(0xFFFF), (&Record{Value: 0x10003}).Width())
	assert.Equal(t, ecbus.BitIdle, ecbus.Classify((&Record{Value: 0x10003}).Width()))
}

// ============================================================
// Formatter Tests
// ============================================================

func TestFormatRecord(t *testing.T) {
	rec := &Record{Value: ecbus.OpSeekForward}
	assert.Contains(t, FormatRecord(ModePackets, rec, ecbus.DefaultTable), "SEEK_FORWARD (0x0000E716)")

	rec = &Record{Value: 162}
	assert.Contains(t, FormatRecord(ModeWidths, rec, ecbus.DefaultTable), "ONE")
}
