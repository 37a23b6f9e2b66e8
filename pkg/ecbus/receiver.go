// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package ecbus

// ReceiverState is the assembly state of the inbound packet
type ReceiverState uint8

// Receiver states
const (
	StateEmpty ReceiverState = iota
	StateAccumulating
)

// String returns the state name
func (s ReceiverState) String() string {
	switch s {
	case StateEmpty:
		return "EMPTY"
	case StateAccumulating:
		return "ACCUMULATING"
	default:
		return "UNKNOWN"
	}
}

// Receiver assembles inbound pulses into opcodes.
//
// Bits are shifted in MSB first. An idle pulse terminates the packet and
// resets for the next one. Noise clears the packet and suppresses the next
// completion, so the tail of a frame corrupted by noise is never dispatched.
// Bits arriving after the noise do not lift the suppression; only the
// terminating idle does. The changer firmware this replaces cleared it on the
// next bit and could dispatch such a tail.
type Receiver struct {
	state   ReceiverState
	packet  uint32
	bits    int
	discard bool
}

// NewReceiver creates a receiver in the empty state
func NewReceiver() *Receiver {
	return &Receiver{state: StateEmpty}
}

// Reset drops any partial packet and clears the discard flag
func (r *Receiver) Reset() {
	r.state = StateEmpty
	r.packet = 0
	r.bits = 0
	r.discard = false
}

// State returns the current assembly state
func (r *Receiver) State() ReceiverState {
	return r.state
}

// Packet returns the bits accumulated so far
func (r *Receiver) Packet() uint32 {
	return r.packet
}

// Bits returns the number of bits accumulated so far. It keeps counting past
// 32 even though older bits have been shifted out of the accumulator.
func (r *Receiver) Bits() int {
	return r.bits
}

// Discarding reports whether the next completion will be suppressed
func (r *Receiver) Discarding() bool {
	return r.discard
}

// Feed classifies one measured pulse and advances the state machine.
// It returns the opcode and true when the pulse completed a packet.
func (r *Receiver) Feed(w PulseWidth) (uint32, bool) {
	return r.FeedClass(Classify(w))
}

// FeedClass advances the state machine with an already classified pulse
func (r *Receiver) FeedClass(c BitClass) (uint32, bool) {
	switch c {
	case BitNoise:
		r.packet = 0
		r.bits = 0
		r.state = StateEmpty
		r.discard = true

	case BitZero:
		r.shift(0)

	case BitOne:
		r.shift(1)

	case BitIdle:
		opcode := r.packet
		complete := r.state == StateAccumulating && !r.discard
		r.Reset()
		return opcode, complete
	}

	return 0, false
}

func (r *Receiver) shift(bit uint32) {
	r.packet = r.packet<<1 | bit
	r.bits++
	r.state = StateAccumulating
}
