// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package capture

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Thermoquad/cemu/pkg/ecbus"
	"github.com/Thermoquad/cemu/pkg/ecbus/loopback"
)

// recordReply runs opcode through an emulator and captures its reply
func recordReply(t *testing.T, opcode uint32) *Capture {
	t.Helper()
	bus := loopback.New()
	emu := ecbus.NewEmulator(bus.Hardware(), ecbus.Config{})
	emu.Start()
	bus.ClearEdges()

	bus.InjectOpcode(opcode)
	loopback.Drain(bus, emu.Step)
	return FromEdges(ecbus.DefaultTable.Name(opcode), bus.Edges())
}

// replay feeds c back through a receiver and returns the decoded frames
func replay(c *Capture) []uint32 {
	bus := loopback.New()
	bus.InjectEdges(c.LoopbackEdges())
	codec := ecbus.NewCodec(bus.Hardware())
	rx := ecbus.NewReceiver()

	step := func() (uint32, bool) { return rx.Feed(codec.MeasurePulse()) }
	return loopback.Drain(bus, step)
}

func TestCapture_FromEdgesRebases(t *testing.T) {
	c := recordReply(t, ecbus.OpStop)

	require.NotEmpty(t, c.Edges)
	assert.Equal(t, int64(0), c.Edges[0].At)
	assert.True(t, c.Edges[0].Low)
	assert.Equal(t, "STOP", c.Label)
	assert.Greater(t, int64(c.Duration()), int64(0))
}

func TestCapture_EncodeDecodeReplay(t *testing.T) {
	c := recordReply(t, ecbus.OpSeekForward)

	data, err := Encode(c)
	require.NoError(t, err)

	decoded, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, c.Label, decoded.Label)
	require.Len(t, decoded.Edges, len(c.Edges))

	cmd, ok := ecbus.DefaultTable.Lookup(ecbus.OpSeekForward)
	require.True(t, ok)
	expected := make([]uint32, len(cmd.Frames))
	for i, f := range cmd.Frames {
		expected[i] = f.Value
	}
	assert.Equal(t, expected, replay(decoded))
}

func TestCapture_StreamRoundTrip(t *testing.T) {
	c := recordReply(t, ecbus.OpTapeQuery)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, c))

	got, err := Read(&buf)
	require.NoError(t, err)
	assert.Equal(t, []uint32{0x00030C26}, replay(got))
}

func TestCapture_SaveLoad(t *testing.T) {
	c := recordReply(t, ecbus.OpPlayAck)
	path := filepath.Join(t.TempDir(), "play_ack.cbor")

	require.NoError(t, Save(path, c))
	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, c.Edges, got.Edges)
}

func TestCapture_RejectsOtherVersion(t *testing.T) {
	c := &Capture{Version: Version + 1, TickPeriod: int64(ecbus.TickPeriod)}
	data, err := cbor.Marshal(c)
	require.NoError(t, err)

	_, err = Decode(data)
	assert.ErrorIs(t, err, ErrVersion)
}

func TestCapture_RejectsBackwardsEdges(t *testing.T) {
	c := &Capture{
		Version:    Version,
		TickPeriod: int64(ecbus.TickPeriod),
		Edges:      []Edge{{At: 100, Low: true}, {At: 50, Low: false}},
	}
	data, err := Encode(c)
	require.NoError(t, err)

	_, err = Decode(data)
	assert.Error(t, err)
}

func TestCapture_RejectsGarbage(t *testing.T) {
	_, err := Decode([]byte{0xFF, 0x00})
	assert.Error(t, err)
}
