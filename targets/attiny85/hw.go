// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

//go:build tinygo && avr

package main

import (
	"device/avr"
	"machine"
)

// Pin assignment (Digispark layout)
const (
	pinBusRx = machine.PB3 // bus line through the input divider
	pinBusTx = machine.PB4 // base of the pull-down transistor
	pinDiag  = machine.PB0 // bit-banged serial out
)

// busPin reads the shared line on one pin and drives it through a transistor
// on another. Driving the transistor base high pulls the bus low.
type busPin struct {
	rx machine.Pin
	tx machine.Pin
}

func newBusPin(rx, tx machine.Pin) *busPin {
	rx.Configure(machine.PinConfig{Mode: machine.PinInput})
	tx.Configure(machine.PinConfig{Mode: machine.PinOutput})
	tx.Low()
	return &busPin{rx: rx, tx: tx}
}

func (p *busPin) ReadLevel() bool {
	return p.rx.Get()
}

func (p *busPin) DriveLevel(active bool) {
	p.tx.Set(active)
}

// timer1 is the 8-bit Timer/Counter1, free running with its interrupts
// masked. With the 16MHz clock and the CK/64 prescaler one tick is
// ecbus.TickPeriod. Timer0 is left to the runtime.
type timer1 struct{}

func newTimer1() timer1 {
	avr.TIMSK.ClearBits(avr.TIMSK_TOIE1 | avr.TIMSK_OCIE1A | avr.TIMSK_OCIE1B)
	avr.TCCR1.Set(avr.TCCR1_CS12 | avr.TCCR1_CS11 | avr.TCCR1_CS10)
	return timer1{}
}

func (timer1) Reset() {
	avr.TCNT1.Set(0)
	// TOV1 is cleared by writing a one to it
	avr.TIFR.Set(avr.TIFR_TOV1)
}

func (timer1) Elapsed() uint16 {
	return uint16(avr.TCNT1.Get())
}

func (timer1) Overflowed() bool {
	return avr.TIFR.HasBits(avr.TIFR_TOV1)
}

// count feeds the busy-wait delayer. Reset only rewinds the counter while the
// emulator is measuring, never during a delay.
func (timer1) count() uint8 {
	return avr.TCNT1.Get()
}
