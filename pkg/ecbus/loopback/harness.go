// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package loopback

import (
	"time"

	"github.com/Thermoquad/cemu/pkg/ecbus"
)

// Exchange is the outcome of sending one opcode to the emulator
type Exchange struct {
	Opcode   uint32
	Received []uint32 // opcodes the emulator completed
	Edges    []Edge   // waveform the emulator drove in reply
	Reply    []uint32 // Edges decoded back into frames
	Start    time.Duration
	End      time.Duration
}

// Harness plays a scripted head unit against an emulator on a virtual bus
type Harness struct {
	Bus      *Bus
	Emulator *ecbus.Emulator
}

// NewHarness creates a bus and an emulator wired to it and runs the power-on
// handshake. The handshake edges are left on the bus for inspection.
func NewHarness(cfg ecbus.Config) *Harness {
	bus := New()
	emu := ecbus.NewEmulator(bus.Hardware(), cfg)
	emu.Start()
	return &Harness{Bus: bus, Emulator: emu}
}

// Send injects opcode, runs the emulator until the bus is quiet and returns
// what came back
func (h *Harness) Send(opcode uint32) Exchange {
	return h.run(opcode, func() { h.Bus.InjectOpcode(opcode) })
}

// SendFrame injects f as is, including any leading zero bits
func (h *Harness) SendFrame(f ecbus.Frame) Exchange {
	return h.run(f.Value, func() { h.Bus.InjectFrame(f) })
}

// SendEdges replays a recorded waveform
func (h *Harness) SendEdges(edges []Edge) Exchange {
	return h.run(0, func() { h.Bus.InjectEdges(edges) })
}

func (h *Harness) run(opcode uint32, inject func()) Exchange {
	h.Bus.ClearEdges()
	start := h.Bus.Now()
	inject()
	received := Drain(h.Bus, h.Emulator.Step)
	edges := h.Bus.Edges()
	return Exchange{
		Opcode:   opcode,
		Received: received,
		Edges:    edges,
		Reply:    DecodeEdges(edges),
		Start:    start,
		End:      h.Bus.Now(),
	}
}

// DecodeEdges recovers the frames in a recorded waveform the way a head unit
// would. Low phase widths become bits and any high phase of at least one
// timer period terminates the frame.
func DecodeEdges(edges []Edge) []uint32 {
	rx := ecbus.NewReceiver()
	var out []uint32

	var lowAt, highAt time.Duration
	haveHigh := false
	for _, e := range edges {
		if e.Low {
			if haveHigh && e.At-highAt >= ecbus.TimerPeriod {
				if op, ok := rx.Feed(ecbus.Overflow); ok {
					out = append(out, op)
				}
			}
			lowAt = e.At
			continue
		}
		w := ecbus.PulseWidth((e.At - lowAt) / ecbus.TickPeriod)
		if w == ecbus.Overflow {
			w = 1
		}
		rx.Feed(w)
		highAt = e.At
		haveHigh = true
	}
	if op, ok := rx.Feed(ecbus.Overflow); ok {
		out = append(out, op)
	}
	return out
}
