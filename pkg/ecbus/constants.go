// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package ecbus emulates a cassette changer on the single-wire Entertainment
// and Comfort bus.
//
// The bus idles high. Every bit is a low pulse whose length encodes its value,
// followed by the line returning high. The package measures inbound pulses,
// assembles them into opcodes, and answers recognized opcodes with scripted
// frames after sensing that the bus is silent.
//
// Hardware is reached only through the BusPin, Timer and Delayer interfaces so
// the same code runs on the ATtiny85 target and on the host loopback bus.
//
// Bus timing reference: http://pangea.stanford.edu/~schmitt/e_and_c_bus/
package ecbus

import "time"

// Timer configuration. Timer0 runs from the 16MHz system clock through the
// /64 prescaler and wraps after 256 ticks.
const (
	CPUFrequency     = 16000000
	TimerPrescale    = 64
	TickPeriod       = time.Second * TimerPrescale / CPUFrequency // 4µs
	TimerPeriodTicks = 256
	TimerPeriod      = TickPeriod * TimerPeriodTicks // 1.024ms
)

// Pulse classification bands, in timer ticks. Widths up to NoiseMaxTicks are
// noise, up to ZeroMaxTicks a zero, up to OneMaxTicks a one, anything longer
// is idle. Rescale all three when changing TickPeriod.
const (
	NoiseMaxTicks = 5
	ZeroMaxTicks  = 49
	OneMaxTicks   = 219
)

// Bit symbols: the line is pulled low for the mark, released for the space.
const (
	MarkOne   = 650 * time.Microsecond
	SpaceOne  = 350 * time.Microsecond
	MarkZero  = 100 * time.Microsecond
	SpaceZero = 900 * time.Microsecond
)

// Transmitter and session timing
const (
	TxRetry      = 10
	SettleDelay  = 4 * time.Millisecond
	InitFrameGap = 1 * time.Millisecond
)

// MaxFrameLength is the largest Frame.Length the 32-bit accumulator can carry.
const MaxFrameLength = 31

// Diagnostic channel
const (
	DiagBaudRate = 9600
	DiagBitTime  = time.Second / DiagBaudRate
)

// Opcodes sent by the head unit
const (
	OpInitCassette = 0x0000E704
	OpColdStart    = 0x0000E70E
	OpTapePresent  = 0x0000E70D
	OpSeekForward  = 0x0000E716
	OpSeekReverse  = 0x0000E715
	OpFastForward  = 0x0000E71A
	OpRewind       = 0x000039C7
	OpPlayFlip     = 0x0000E71C
	OpTapeQuery    = 0x0000E71F
	OpPlayAck      = 0x00039B82
	OpStop         = 0x00000E72
)
