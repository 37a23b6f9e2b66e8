// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package ecbus

import "time"

// PulseWidth is the length of one low phase in timer ticks.
type PulseWidth uint16

// Overflow is returned by MeasurePulse when no edge arrived within one timer
// period.
const Overflow PulseWidth = 0

// BitClass is the meaning of a single pulse.
type BitClass uint8

// Bit classes
const (
	BitNoise BitClass = iota
	BitZero
	BitOne
	BitIdle
)

// String returns the class name
func (c BitClass) String() string {
	switch c {
	case BitNoise:
		return "NOISE"
	case BitZero:
		return "ZERO"
	case BitOne:
		return "ONE"
	case BitIdle:
		return "IDLE"
	default:
		return "UNKNOWN"
	}
}

// Classify maps a pulse width onto its bit class. Overflow reads as Idle.
func Classify(w PulseWidth) BitClass {
	switch {
	case w == Overflow:
		return BitIdle
	case w <= NoiseMaxTicks:
		return BitNoise
	case w <= ZeroMaxTicks:
		return BitZero
	case w <= OneMaxTicks:
		return BitOne
	default:
		return BitIdle
	}
}

// Symbol is the mark/space pair that encodes one bit.
type Symbol struct {
	Mark  time.Duration
	Space time.Duration
}

// SymbolFor returns the encoding of bit
func SymbolFor(bit bool) Symbol {
	if bit {
		return Symbol{Mark: MarkOne, Space: SpaceOne}
	}
	return Symbol{Mark: MarkZero, Space: SpaceZero}
}

// Codec measures and produces single pulses on the bus pin.
type Codec struct {
	pin   BusPin
	timer Timer
	delay Delayer
}

// NewCodec creates a pulse codec on the given hardware
func NewCodec(hw Hardware) *Codec {
	return &Codec{
		pin:   hw.Pin,
		timer: hw.Timer,
		delay: hw.Delay,
	}
}

// MeasurePulse waits for the line to go low and returns how long it stayed
// low. It returns Overflow if either wait exceeds one timer period.
func (c *Codec) MeasurePulse() PulseWidth {
	c.timer.Reset()
	for c.pin.ReadLevel() && !c.timer.Overflowed() {
	}
	if c.timer.Overflowed() {
		return Overflow
	}

	c.timer.Reset()
	for !c.pin.ReadLevel() && !c.timer.Overflowed() {
	}
	if c.timer.Overflowed() {
		return Overflow
	}

	w := PulseWidth(c.timer.Elapsed())
	if w == Overflow {
		// A real edge shorter than one tick; keep 0 reserved for Overflow.
		w = 1
	}
	return w
}

// EmitBit drives one encoded bit onto the bus
func (c *Codec) EmitBit(bit bool) {
	s := SymbolFor(bit)
	c.pin.DriveLevel(true)
	c.delay.Delay(s.Mark)
	c.pin.DriveLevel(false)
	c.delay.Delay(s.Space)
}
