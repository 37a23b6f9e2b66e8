// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package loopback provides a virtual-time E&C bus for host-side testing and
// simulation.
//
// A Bus implements ecbus.BusPin, ecbus.Timer and ecbus.Delayer against a
// simulated clock. Every ReadLevel call advances the clock by one poll step,
// so the emulator's polling loops terminate exactly as they would on
// hardware. Inbound traffic from the head unit is scripted with the Inject
// methods; everything the emulator drives is recorded as edges.
package loopback

import (
	"time"

	"github.com/Thermoquad/cemu/pkg/ecbus"
)

// DefaultPollStep is the virtual time consumed by one pin read
const DefaultPollStep = time.Microsecond

// FrameGap is the idle time appended after every injected frame. It is long
// enough for the receiver to see an overflow.
const FrameGap = ecbus.SettleDelay

// Edge is a level change on the line, as driven by the emulator
type Edge struct {
	At  time.Duration
	Low bool
}

// span is one low phase scripted by the peer, [start, end)
type span struct {
	start time.Duration
	end   time.Duration
}

// Bus is a simulated open-collector bus line with a 256-tick timer.
// It is not safe for concurrent use.
type Bus struct {
	now  time.Duration
	step time.Duration

	timerAt time.Duration

	driving bool
	edges   []Edge

	script    []span
	cursor    int
	scriptEnd time.Duration
}

// New creates an idle bus at time zero
func New() *Bus {
	return &Bus{step: DefaultPollStep}
}

// Hardware returns the bus as emulator hardware
func (b *Bus) Hardware() ecbus.Hardware {
	return ecbus.Hardware{Pin: b, Timer: b, Delay: b}
}

// SetPollStep changes the virtual time consumed by one pin read
func (b *Bus) SetPollStep(step time.Duration) {
	if step > 0 {
		b.step = step
	}
}

// Now returns the current virtual time
func (b *Bus) Now() time.Duration {
	return b.now
}

// lineLow reports whether anything holds the line low at time t. t must not
// decrease between calls.
func (b *Bus) lineLow(t time.Duration) bool {
	if b.driving {
		return true
	}
	for b.cursor < len(b.script) && b.script[b.cursor].end <= t {
		b.cursor++
	}
	return b.cursor < len(b.script) && b.script[b.cursor].start <= t
}

// ReadLevel samples the line and advances the clock by one poll step
func (b *Bus) ReadLevel() bool {
	high := !b.lineLow(b.now)
	b.now += b.step
	return high
}

// DriveLevel asserts or releases the emulator's driver, recording an edge on
// every change
func (b *Bus) DriveLevel(active bool) {
	if active == b.driving {
		return
	}
	b.driving = active
	b.edges = append(b.edges, Edge{At: b.now, Low: active})
}

// Reset restarts the timer
func (b *Bus) Reset() {
	b.timerAt = b.now
}

// Elapsed returns the 8-bit tick count since Reset
func (b *Bus) Elapsed() uint16 {
	ticks := (b.now - b.timerAt) / ecbus.TickPeriod
	return uint16(ticks % ecbus.TimerPeriodTicks)
}

// Overflowed reports whether a full timer period passed since Reset
func (b *Bus) Overflowed() bool {
	return b.now-b.timerAt >= ecbus.TimerPeriod
}

// Delay advances the clock
func (b *Bus) Delay(d time.Duration) {
	if d > 0 {
		b.now += d
	}
}

// Edges returns a copy of the edges driven by the emulator so far
func (b *Bus) Edges() []Edge {
	out := make([]Edge, len(b.edges))
	copy(out, b.edges)
	return out
}

// ClearEdges forgets recorded edges
func (b *Bus) ClearEdges() {
	b.edges = b.edges[:0]
}

// Quiet reports whether all scripted traffic has been played out
func (b *Bus) Quiet() bool {
	return b.now >= b.scriptEnd
}

// Pending returns the number of scripted low phases not yet played out
func (b *Bus) Pending() int {
	n := 0
	for i := b.cursor; i < len(b.script); i++ {
		if b.script[i].end > b.now {
			n++
		}
	}
	return n
}

// appendAt returns the time the next injected pulse starts
func (b *Bus) appendAt() time.Duration {
	if b.scriptEnd > b.now {
		return b.scriptEnd
	}
	return b.now
}

// InjectPulse schedules one peer low phase followed by a high phase
func (b *Bus) InjectPulse(low, high time.Duration) {
	start := b.appendAt()
	b.script = append(b.script, span{start: start, end: start + low})
	b.scriptEnd = start + low + high
}

// InjectIdle schedules a high phase with no pulse
func (b *Bus) InjectIdle(d time.Duration) {
	b.scriptEnd = b.appendAt() + d
}

// InjectFrame schedules f encoded the way the emulator's transmitter encodes
// it, followed by FrameGap
func (b *Bus) InjectFrame(f ecbus.Frame) {
	for i := int(f.Length); i >= 0; i-- {
		s := ecbus.SymbolFor(f.Bit(uint8(i)))
		b.InjectPulse(s.Mark, s.Space)
	}
	b.InjectIdle(FrameGap)
}

// InjectOpcode schedules opcode with the minimum number of bits that holds it
func (b *Bus) InjectOpcode(opcode uint32) {
	b.InjectFrame(FrameFor(opcode))
}

// InjectEdges replays a recorded waveform, shifted to start at the end of the
// current script, followed by FrameGap. An unpaired trailing low edge is
// ignored.
func (b *Bus) InjectEdges(edges []Edge) {
	if len(edges) == 0 {
		return
	}

	offset := b.appendAt() - edges[0].At
	lowAt := time.Duration(-1)
	for _, e := range edges {
		at := e.At + offset
		switch {
		case e.Low && lowAt < 0:
			lowAt = at
		case !e.Low && lowAt >= 0:
			b.script = append(b.script, span{start: lowAt, end: at})
			lowAt = -1
		}
		if at > b.scriptEnd {
			b.scriptEnd = at
		}
	}
	b.InjectIdle(FrameGap)
}

// FrameFor returns a frame carrying opcode in the fewest bits possible
func FrameFor(opcode uint32) ecbus.Frame {
	length := uint8(0)
	for v := opcode >> 1; v != 0; v >>= 1 {
		length++
	}
	return ecbus.Frame{Value: opcode, Length: length}
}

// Drain steps the emulator until the script is played out and one more pulse
// (the trailing idle) has been measured. It returns the opcodes completed
// along the way.
func Drain(b *Bus, step func() (uint32, bool)) []uint32 {
	var opcodes []uint32
	for !b.Quiet() {
		if op, ok := step(); ok {
			opcodes = append(opcodes, op)
		}
	}
	if op, ok := step(); ok {
		opcodes = append(opcodes, op)
	}
	return opcodes
}
