// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

//go:build tinygo && avr

// Firmware for an ATtiny85 board sitting on the E&C bus in place of a cassette
// changer. Received packets are echoed as hex lines on the diagnostic pin.
package main

import (
	"context"
	"machine"

	"github.com/Thermoquad/cemu/pkg/ecbus"
)

func main() {
	timer := newTimer1()
	delay := ecbus.TickDelayer{Count: timer.count}

	pinDiag.Configure(machine.PinConfig{Mode: machine.PinOutput})
	pinDiag.High()
	diag := ecbus.NewSerialDiag(pinDiag.Set, delay, ecbus.DiagBaudRate)

	emu := ecbus.NewEmulator(ecbus.Hardware{
		Pin:   newBusPin(pinBusRx, pinBusTx),
		Timer: timer,
		Delay: delay,
	}, ecbus.Config{
		Observer: &ecbus.DiagObserver{Channel: diag},
	})

	// Run only returns on cancellation
	emu.Run(context.Background())
}
