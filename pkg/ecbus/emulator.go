// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package ecbus

import "context"

// Config holds optional emulator settings. The zero value uses DefaultTable
// and no observer.
type Config struct {
	Table    CommandTable
	Observer Observer
}

// Emulator is the outer receive loop: measure, classify, assemble, dispatch.
type Emulator struct {
	codec      *Codec
	rx         *Receiver
	tx         *Transmitter
	session    *Session
	dispatcher *Dispatcher
	table      CommandTable
	observer   Observer
}

// NewEmulator wires the emulator onto hw
func NewEmulator(hw Hardware, cfg Config) *Emulator {
	table := cfg.Table
	if table == nil {
		table = DefaultTable
	}
	observer := cfg.Observer
	if observer == nil {
		observer = NopObserver{}
	}

	codec := NewCodec(hw)
	tx := NewTransmitter(codec, observer)
	session := NewSession(tx, hw.Delay)

	return &Emulator{
		codec:      codec,
		rx:         NewReceiver(),
		tx:         tx,
		session:    session,
		dispatcher: NewDispatcher(table, tx, session),
		table:      table,
		observer:   observer,
	}
}

// Receiver exposes the packet assembler, mainly for inspection in tools
func (e *Emulator) Receiver() *Receiver {
	return e.rx
}

// Transmitter exposes the bus transmitter
func (e *Emulator) Transmitter() *Transmitter {
	return e.tx
}

// Start sends the session handshake
func (e *Emulator) Start() {
	e.session.Init()
}

// Step measures one pulse and acts on it. It returns the opcode and true
// when the pulse completed a packet. A completed packet is dispatched before
// observers hear about it, so OnTransmit for the reply precedes OnPacket.
func (e *Emulator) Step() (uint32, bool) {
	w := e.codec.MeasurePulse()
	class := Classify(w)
	e.observer.OnPulse(w, class)

	bits := e.rx.Bits()
	opcode, complete := e.rx.FeedClass(class)
	if !complete {
		return 0, false
	}

	// The reply must not wait on observers
	e.dispatcher.Dispatch(opcode)
	cmd, _ := e.table.Lookup(opcode)
	e.observer.OnPacket(opcode, bits, cmd)
	return opcode, true
}

// Run sends the handshake and then steps until ctx is cancelled. The context
// is only checked between pulses.
func (e *Emulator) Run(ctx context.Context) error {
	e.Start()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		e.Step()
	}
}
