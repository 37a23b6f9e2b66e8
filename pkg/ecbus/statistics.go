// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package ecbus

import "fmt"

// Statistics counts bus activity. It implements Observer.
type Statistics struct {
	// Pulses by class
	NoisePulses uint64
	ZeroBits    uint64
	OneBits     uint64
	IdlePulses  uint64
	Overflows   uint64

	// Packets
	Packets        uint64
	KnownPackets   uint64
	UnknownPackets uint64

	// Transmitter
	FramesSent    uint64
	Timeouts      uint64
	InvalidFrames uint64
}

// NewStatistics creates a zeroed statistics tracker
func NewStatistics() *Statistics {
	return &Statistics{}
}

// OnPulse counts a measured pulse
func (s *Statistics) OnPulse(w PulseWidth, class BitClass) {
	switch class {
	case BitNoise:
		s.NoisePulses++
	case BitZero:
		s.ZeroBits++
	case BitOne:
		s.OneBits++
	case BitIdle:
		s.IdlePulses++
		if w == Overflow {
			s.Overflows++
		}
	}
}

// OnPacket counts a completed packet
func (s *Statistics) OnPacket(opcode uint32, bits int, cmd *Command) {
	s.Packets++
	if cmd != nil {
		s.KnownPackets++
	} else {
		s.UnknownPackets++
	}
}

// OnTransmit counts a transmit attempt
func (s *Statistics) OnTransmit(f Frame, err error) {
	switch err {
	case nil:
		s.FramesSent++
	case ErrTimeout:
		s.Timeouts++
	case ErrInvalidFrame:
		s.InvalidFrames++
	}
}

// Pulses returns the total number of pulses measured
func (s *Statistics) Pulses() uint64 {
	return s.NoisePulses + s.ZeroBits + s.OneBits + s.IdlePulses
}

// String returns a formatted statistics summary
func (s *Statistics) String() string {
	result := "=== Bus Statistics ===\n"
	result += fmt.Sprintf("Pulses:          %8d\n", s.Pulses())
	result += fmt.Sprintf("  Zero bits:       %6d\n", s.ZeroBits)
	result += fmt.Sprintf("  One bits:        %6d\n", s.OneBits)
	result += fmt.Sprintf("  Idle:            %6d (%d overflow)\n", s.IdlePulses, s.Overflows)
	if s.NoisePulses > 0 {
		result += fmt.Sprintf("  Noise:           %6d\n", s.NoisePulses)
	}
	result += fmt.Sprintf("Packets:         %8d\n", s.Packets)
	result += fmt.Sprintf("  Known:           %6d\n", s.KnownPackets)
	if s.UnknownPackets > 0 {
		result += fmt.Sprintf("  Unknown:         %6d\n", s.UnknownPackets)
	}
	result += fmt.Sprintf("Frames Sent:     %8d\n", s.FramesSent)
	if s.Timeouts > 0 {
		result += fmt.Sprintf("Tx Timeouts:     %8d\n", s.Timeouts)
	}
	if s.InvalidFrames > 0 {
		result += fmt.Sprintf("Invalid Frames:  %8d\n", s.InvalidFrames)
	}
	result += "======================\n"

	return result
}

// Reset zeroes all counters
func (s *Statistics) Reset() {
	*s = Statistics{}
}
