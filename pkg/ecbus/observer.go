// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package ecbus

// Observer is notified of bus activity. Calls happen on the emulator's
// control path between pulses, so implementations must return quickly or
// they will distort the next measurement.
type Observer interface {
	// OnPulse is called for every measured pulse
	OnPulse(w PulseWidth, class BitClass)

	// OnPacket is called for every completed packet, after its reply was
	// sent. cmd is nil when the opcode is not in the command table.
	OnPacket(opcode uint32, bits int, cmd *Command)

	// OnTransmit is called after every transmit attempt
	OnTransmit(f Frame, err error)
}

// NopObserver ignores everything
type NopObserver struct{}

func (NopObserver) OnPulse(PulseWidth, BitClass)   {}
func (NopObserver) OnPacket(uint32, int, *Command) {}
func (NopObserver) OnTransmit(Frame, error)        {}

// multiObserver fans out to several observers
type multiObserver []Observer

// MultiObserver returns an observer that notifies each of obs in order
func MultiObserver(obs ...Observer) Observer {
	return multiObserver(obs)
}

func (m multiObserver) OnPulse(w PulseWidth, class BitClass) {
	for _, o := range m {
		o.OnPulse(w, class)
	}
}

func (m multiObserver) OnPacket(opcode uint32, bits int, cmd *Command) {
	for _, o := range m {
		o.OnPacket(opcode, bits, cmd)
	}
}

func (m multiObserver) OnTransmit(f Frame, err error) {
	for _, o := range m {
		o.OnTransmit(f, err)
	}
}
