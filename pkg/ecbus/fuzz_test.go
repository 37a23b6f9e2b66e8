// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package ecbus_test

import (
	"math/rand"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/Thermoquad/cemu/pkg/ecbus"
	"github.com/Thermoquad/cemu/pkg/ecbus/loopback"
)

// getFuzzRounds returns the number of fuzz rounds from FUZZ_ROUNDS env var, default 1000
func getFuzzRounds() int {
	if envRounds := os.Getenv("FUZZ_ROUNDS"); envRounds != "" {
		if rounds, err := strconv.Atoi(envRounds); err == nil && rounds > 0 {
			return rounds
		}
	}
	return 1000
}

// getFuzzSeed returns the seed from FUZZ_SEED env var, or generates one from current time
func getFuzzSeed() int64 {
	if envSeed := os.Getenv("FUZZ_SEED"); envSeed != "" {
		if seed, err := strconv.ParseInt(envSeed, 10, 64); err == nil {
			return seed
		}
	}
	return time.Now().UnixNano()
}

// newFuzzRng creates a new random number generator and logs the seed for reproducibility
func newFuzzRng(t *testing.T) *rand.Rand {
	seed := getFuzzSeed()
	t.Logf("Seed: %d (reproduce with FUZZ_SEED=%d)", seed, seed)
	return rand.New(rand.NewSource(seed))
}

// randomFrame returns a frame whose value fits its length
func randomFrame(rng *rand.Rand) ecbus.Frame {
	length := uint8(rng.Intn(ecbus.MaxFrameLength + 1))
	value := rng.Uint32()
	if length < ecbus.MaxFrameLength {
		value &= uint32(1)<<(length+1) - 1
	}
	return ecbus.Frame{Value: value, Length: length}
}

// ============================================================
// Round Trip Fuzz Tests
// ============================================================

func TestFuzz_TransmitDecodeRoundTrip(t *testing.T) {
	rng := newFuzzRng(t)
	rounds := getFuzzRounds()

	for i := 0; i < rounds; i++ {
		bus := loopback.New()
		tx := ecbus.NewTransmitter(ecbus.NewCodec(bus.Hardware()), nil)
		f := randomFrame(rng)

		if err := tx.Transmit(f); err != nil {
			t.Fatalf("round %d: transmit %s failed: %v", i, ecbus.FormatFrame(f), err)
		}
		if edges := bus.Edges(); len(edges) != 2*f.Bits() {
			t.Fatalf("round %d: expected %d edges, got %d", i, 2*f.Bits(), len(edges))
		}
		if got := decodeEdges(bus.Edges()); !equalOpcodes(got, []uint32{f.Value}) {
			t.Fatalf("round %d: sent %s, decoded %X", i, ecbus.FormatFrame(f), got)
		}
	}
}

func TestFuzz_EmulatorReceivesRandomOpcodes(t *testing.T) {
	rng := newFuzzRng(t)
	rounds := getFuzzRounds() / 10
	if rounds == 0 {
		rounds = 1
	}

	bus, emu := newStartedEmulator(t, nil)
	for i := 0; i < rounds; i++ {
		op := rng.Uint32()
		bus.InjectOpcode(op)
		if got := loopback.Drain(bus, emu.Step); !equalOpcodes(got, []uint32{op}) {
			t.Fatalf("round %d: injected 0x%08X, received %X", i, op, got)
		}
	}
}

func TestFuzz_ReceiverNeverPanics(t *testing.T) {
	rng := newFuzzRng(t)
	rounds := getFuzzRounds()

	r := ecbus.NewReceiver()
	for i := 0; i < rounds*100; i++ {
		w := ecbus.PulseWidth(rng.Intn(300))
		_, complete := r.Feed(w)

		if ecbus.Classify(w) == ecbus.BitIdle || ecbus.Classify(w) == ecbus.BitNoise {
			if r.State() != ecbus.StateEmpty || r.Packet() != 0 {
				t.Fatalf("pulse %d (%d ticks): receiver not reset", i, w)
			}
		}
		if complete && ecbus.Classify(w) != ecbus.BitIdle {
			t.Fatalf("pulse %d (%d ticks): completed on a non-idle pulse", i, w)
		}
	}
}
