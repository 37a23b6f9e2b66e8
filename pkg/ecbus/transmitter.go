// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package ecbus

// Frame is an outbound packet sent most significant bit first.
//
// Length is the index of the first bit sent, not the bit count: a frame with
// Length 21 puts 22 bits on the bus. The command table is written against
// this convention.
type Frame struct {
	Value  uint32
	Length uint8
}

// Bits returns the number of bits the frame puts on the bus
func (f Frame) Bits() int {
	return int(f.Length) + 1
}

// Bit reports whether bit i of the value is set
func (f Frame) Bit(i uint8) bool {
	if i > MaxFrameLength {
		return false
	}
	return f.Value&(uint32(1)<<i) != 0
}

// Sender transmits frames. Transmitter is the bus implementation.
type Sender interface {
	Transmit(f Frame) error
}

// Transmitter waits for a silent bus and then clocks a frame out.
type Transmitter struct {
	codec    *Codec
	delay    Delayer
	observer Observer
}

// NewTransmitter creates a transmitter sharing the codec's hardware
func NewTransmitter(codec *Codec, observer Observer) *Transmitter {
	if observer == nil {
		observer = NopObserver{}
	}
	return &Transmitter{
		codec:    codec,
		delay:    codec.delay,
		observer: observer,
	}
}

// Transmit sends f once the bus has been silent for a full timer period.
// It returns ErrTimeout without touching the pin if TxRetry measurements in a
// row all saw traffic. A timed out frame is not followed by SettleDelay, so
// the next frame of a reply starts sensing at once.
func (t *Transmitter) Transmit(f Frame) error {
	err := t.transmit(f)
	t.observer.OnTransmit(f, err)
	return err
}

func (t *Transmitter) transmit(f Frame) error {
	if f.Length > MaxFrameLength {
		return ErrInvalidFrame
	}

	if !t.awaitSilence() {
		return ErrTimeout
	}

	for i := int(f.Length); i >= 0; i-- {
		t.codec.EmitBit(f.Bit(uint8(i)))
	}

	t.delay.Delay(SettleDelay)
	return nil
}

// awaitSilence reports whether an Overflow was seen within TxRetry measurements
func (t *Transmitter) awaitSilence() bool {
	for retry := 0; retry < TxRetry; retry++ {
		if t.codec.MeasurePulse() == Overflow {
			return true
		}
	}
	return false
}
