// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package loopback

import (
	"testing"

	"github.com/Thermoquad/cemu/pkg/ecbus"
)

func TestHarness_HandshakeLeftOnBus(t *testing.T) {
	h := NewHarness(ecbus.Config{})

	got := DecodeEdges(h.Bus.Edges())
	if len(got) != len(ecbus.InitFrames) {
		t.Fatalf("expected %d handshake frames, got %X", len(ecbus.InitFrames), got)
	}
	for i, f := range ecbus.InitFrames {
		if got[i] != f.Value {
			t.Errorf("frame %d: expected 0x%08X, got 0x%08X", i, f.Value, got[i])
		}
	}
}

func TestHarness_SendCollectsReply(t *testing.T) {
	h := NewHarness(ecbus.Config{})
	cmd, ok := ecbus.DefaultTable.Lookup(ecbus.OpSeekForward)
	if !ok {
		t.Fatal("SEEK_FORWARD missing from default table")
	}

	ex := h.Send(ecbus.OpSeekForward)

	if len(ex.Received) != 1 || ex.Received[0] != ecbus.OpSeekForward {
		t.Errorf("expected [0xE716] received, got %X", ex.Received)
	}
	if len(ex.Reply) != len(cmd.Frames) {
		t.Fatalf("expected %d reply frames, got %X", len(cmd.Frames), ex.Reply)
	}
	for i, f := range cmd.Frames {
		if ex.Reply[i] != f.Value {
			t.Errorf("reply %d: expected 0x%08X, got 0x%08X", i, f.Value, ex.Reply[i])
		}
	}
	if ex.End <= ex.Start {
		t.Errorf("virtual time did not advance: %v to %v", ex.Start, ex.End)
	}
}

func TestHarness_SendEdgesReplays(t *testing.T) {
	src := NewHarness(ecbus.Config{})
	first := src.Send(ecbus.OpStop)

	// Feed the emulator's own reply back in as head unit traffic
	h := NewHarness(ecbus.Config{})
	ex := h.SendEdges(first.Edges)

	if len(ex.Received) != len(first.Reply) {
		t.Fatalf("expected %d frames received, got %X", len(first.Reply), ex.Received)
	}
	for i := range first.Reply {
		if ex.Received[i] != first.Reply[i] {
			t.Errorf("frame %d: expected 0x%08X, got 0x%08X", i, first.Reply[i], ex.Received[i])
		}
	}
}

func TestHarness_UnknownOpcodeNoReply(t *testing.T) {
	h := NewHarness(ecbus.Config{})
	ex := h.Send(0x1234)

	if len(ex.Edges) != 0 || len(ex.Reply) != 0 {
		t.Errorf("expected silence, got %d edges", len(ex.Edges))
	}
}
