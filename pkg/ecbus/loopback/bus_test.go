// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package loopback

import (
	"testing"
	"time"

	"github.com/Thermoquad/cemu/pkg/ecbus"
)

func TestBus_IdleHighAndClockAdvances(t *testing.T) {
	b := New()
	for i := 0; i < 10; i++ {
		if !b.ReadLevel() {
			t.Fatal("idle bus read low")
		}
	}
	if b.Now() != 10*DefaultPollStep {
		t.Errorf("expected %v, got %v", 10*DefaultPollStep, b.Now())
	}
}

func TestBus_DriveRecordsEdges(t *testing.T) {
	b := New()
	b.DriveLevel(true)
	if b.ReadLevel() {
		t.Error("driven bus read high")
	}
	b.Delay(100 * time.Microsecond)
	b.DriveLevel(true) // no change, no edge
	b.DriveLevel(false)

	edges := b.Edges()
	if len(edges) != 2 {
		t.Fatalf("expected 2 edges, got %d", len(edges))
	}
	if !edges[0].Low || edges[1].Low {
		t.Errorf("unexpected edge levels: %+v", edges)
	}
	if edges[1].At-edges[0].At != 100*time.Microsecond+DefaultPollStep {
		t.Errorf("unexpected mark length %v", edges[1].At-edges[0].At)
	}

	b.ClearEdges()
	if len(b.Edges()) != 0 {
		t.Error("ClearEdges kept edges")
	}
}

func TestBus_Timer(t *testing.T) {
	b := New()
	b.Reset()
	b.Delay(100 * time.Microsecond)
	if b.Elapsed() != 25 {
		t.Errorf("expected 25 ticks, got %d", b.Elapsed())
	}
	if b.Overflowed() {
		t.Error("overflow before a full period")
	}

	b.Delay(ecbus.TimerPeriod)
	if !b.Overflowed() {
		t.Error("no overflow after a full period")
	}
	if b.Elapsed() != 25 {
		t.Errorf("expected counter to wrap to 25, got %d", b.Elapsed())
	}
}

func TestBus_InjectedPulse(t *testing.T) {
	b := New()
	b.InjectPulse(10*time.Microsecond, 20*time.Microsecond)

	low := 0
	for !b.Quiet() {
		if !b.ReadLevel() {
			low++
		}
	}
	if low != 10 {
		t.Errorf("expected 10 low samples, got %d", low)
	}
	if b.Pending() != 0 {
		t.Errorf("expected nothing pending, got %d", b.Pending())
	}
}

func TestBus_InjectAppends(t *testing.T) {
	b := New()
	b.InjectPulse(10*time.Microsecond, 10*time.Microsecond)
	b.InjectPulse(10*time.Microsecond, 10*time.Microsecond)

	if b.Pending() != 2 {
		t.Errorf("expected 2 pending, got %d", b.Pending())
	}
	b.Delay(25 * time.Microsecond)
	if b.ReadLevel() {
		t.Error("second pulse should hold the line low at 25us")
	}
}

func TestFrameFor(t *testing.T) {
	tests := []struct {
		opcode uint32
		length uint8
	}{
		{0x0, 0},
		{0x1, 0},
		{0x2, 1},
		{0xE716, 15},
		{0x39B82, 17},
		{0xFFFFFFFF, 31},
	}

	for _, tt := range tests {
		f := FrameFor(tt.opcode)
		if f.Length != tt.length || f.Value != tt.opcode {
			t.Errorf("FrameFor(0x%X): expected length %d, got %d", tt.opcode, tt.length, f.Length)
		}
	}
}

func TestInjectEdges_ReplaysRecording(t *testing.T) {
	src := New()
	tx := ecbus.NewTransmitter(ecbus.NewCodec(src.Hardware()), nil)
	if err := tx.Transmit(ecbus.Frame{Value: ecbus.OpSeekForward, Length: 15}); err != nil {
		t.Fatalf("transmit failed: %v", err)
	}

	dst := New()
	dst.Delay(time.Millisecond)
	dst.InjectEdges(src.Edges())

	rx := ecbus.NewReceiver()
	codec := ecbus.NewCodec(dst.Hardware())
	var got []uint32
	for !dst.Quiet() {
		if op, ok := rx.Feed(codec.MeasurePulse()); ok {
			got = append(got, op)
		}
	}
	if op, ok := rx.Feed(codec.MeasurePulse()); ok {
		got = append(got, op)
	}

	if len(got) != 1 || got[0] != ecbus.OpSeekForward {
		t.Errorf("expected [0xE716], got %X", got)
	}
}

func TestInjectEdges_IgnoresUnpairedLow(t *testing.T) {
	b := New()
	b.InjectEdges([]Edge{
		{At: 0, Low: true},
		{At: 100 * time.Microsecond, Low: false},
		{At: 200 * time.Microsecond, Low: true},
	})
	if b.Pending() != 1 {
		t.Errorf("expected 1 scripted low phase, got %d", b.Pending())
	}
}

func TestTickDelayer_CountsWrappingTicks(t *testing.T) {
	tests := []struct {
		name  string
		delay time.Duration
	}{
		{"zero", 0},
		{"under one period", time.Millisecond},
		{"several periods", 5 * time.Millisecond},
		{"settle", ecbus.SettleDelay},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := New()
			b.Reset()
			d := ecbus.TickDelayer{Count: func() uint8 {
				b.ReadLevel()
				return uint8(b.Elapsed())
			}}

			d.Delay(tt.delay)

			if b.Now() < tt.delay || b.Now() > tt.delay+ecbus.TickPeriod+DefaultPollStep {
				t.Errorf("Delay(%v) took %v", tt.delay, b.Now())
			}
		})
	}
}
