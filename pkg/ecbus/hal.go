// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package ecbus

import "time"

// BusPin is the bus line as seen by the emulator.
type BusPin interface {
	// ReadLevel reports the current line level (true = high/idle)
	ReadLevel() bool

	// DriveLevel asserts (true) or releases (false) the open-collector driver.
	// Asserting pulls the shared line low.
	DriveLevel(active bool)
}

// Timer is a free-running tick counter with a sticky overflow flag.
type Timer interface {
	// Reset zeroes the counter and clears the overflow flag
	Reset()

	// Elapsed returns ticks counted since the last Reset
	Elapsed() uint16

	// Overflowed reports whether the counter wrapped since the last Reset
	Overflowed() bool
}

// Delayer blocks for a fixed duration.
type Delayer interface {
	Delay(d time.Duration)
}

// DelayFunc adapts a plain function such as time.Sleep to a Delayer.
type DelayFunc func(d time.Duration)

// Delay calls f(d)
func (f DelayFunc) Delay(d time.Duration) { f(d) }

// TickDelayer busy-waits on a free-running 8-bit counter that advances once
// per TickPeriod. Count is read at least once per 256 ticks or time is lost.
type TickDelayer struct {
	Count func() uint8
}

// Delay spins until d worth of ticks have been counted
func (t TickDelayer) Delay(d time.Duration) {
	remaining := int64(d / TickPeriod)
	last := t.Count()
	for remaining > 0 {
		now := t.Count()
		remaining -= int64(now - last)
		last = now
	}
}

// DiagChannel receives debug output bytes.
type DiagChannel interface {
	EmitByte(b byte)
}

// Hardware groups the capabilities the emulator needs.
type Hardware struct {
	Pin   BusPin
	Timer Timer
	Delay Delayer
}
