// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package ecbus

import (
	"strconv"
	"time"
)

// SerialDiag bit-bangs 8N1 serial on a spare output pin.
type SerialDiag struct {
	write   func(high bool)
	delay   Delayer
	bitTime time.Duration
}

// NewSerialDiag creates a diagnostic channel. write sets the output level,
// baud <= 0 selects DiagBaudRate.
func NewSerialDiag(write func(high bool), delay Delayer, baud int) *SerialDiag {
	bitTime := DiagBitTime
	if baud > 0 {
		bitTime = time.Second / time.Duration(baud)
	}
	return &SerialDiag{
		write:   write,
		delay:   delay,
		bitTime: bitTime,
	}
}

// EmitByte sends a start bit, eight data bits LSB first and a stop bit
func (s *SerialDiag) EmitByte(b byte) {
	s.write(false)
	s.delay.Delay(s.bitTime)

	for mask := byte(0x01); mask != 0; mask <<= 1 {
		s.write(b&mask != 0)
		s.delay.Delay(s.bitTime)
	}

	s.write(true)
	s.delay.Delay(s.bitTime)
}

// NopDiag discards diagnostic output
type NopDiag struct{}

// EmitByte does nothing
func (NopDiag) EmitByte(byte) {}

// emitLine writes s followed by CRLF
func emitLine(ch DiagChannel, s []byte) {
	for _, b := range s {
		ch.EmitByte(b)
	}
	ch.EmitByte('\r')
	ch.EmitByte('\n')
}

// DumpPacket writes packet as lowercase hex followed by CRLF, e.g. "e716\r\n"
func DumpPacket(ch DiagChannel, packet uint32) {
	var buf [8]byte
	emitLine(ch, strconv.AppendUint(buf[:0], uint64(packet), 16))
}

// DumpInt writes n in decimal followed by CRLF
func DumpInt(ch DiagChannel, n uint) {
	var buf [20]byte
	emitLine(ch, strconv.AppendUint(buf[:0], uint64(n), 10))
}

// DiagObserver dumps bus activity to a diagnostic channel. By default every
// completed packet is dumped in hex. With Widths set, every measured pulse
// width is dumped in decimal instead.
type DiagObserver struct {
	Channel DiagChannel
	Widths  bool
}

// OnPulse dumps the width in width mode
func (d *DiagObserver) OnPulse(w PulseWidth, class BitClass) {
	if d.Widths {
		DumpInt(d.Channel, uint(w))
	}
}

// OnPacket dumps the packet in packet mode
func (d *DiagObserver) OnPacket(opcode uint32, bits int, cmd *Command) {
	if !d.Widths {
		DumpPacket(d.Channel, opcode)
	}
}

// OnTransmit does nothing; transmissions are not dumped
func (d *DiagObserver) OnTransmit(f Frame, err error) {}
