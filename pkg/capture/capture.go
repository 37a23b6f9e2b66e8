// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package capture stores recorded bus waveforms as CBOR.
//
// A capture holds the edges the emulator drove during a simulation. It can be
// replayed into a loopback bus to feed the recorded traffic back through a
// receiver.
package capture

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fxamacker/cbor/v2"

	"github.com/Thermoquad/cemu/pkg/ecbus"
	"github.com/Thermoquad/cemu/pkg/ecbus/loopback"
)

// Version is the capture format version written by this package
const Version = 1

// ErrVersion is returned when decoding a capture of another format version
var ErrVersion = errors.New("unsupported capture version")

// Edge is one level change, At nanoseconds from the start of the capture
type Edge struct {
	_   struct{} `cbor:",toarray"`
	At  int64
	Low bool
}

// Capture is a recorded waveform
type Capture struct {
	Version    uint   `cbor:"1,keyasint"`
	TickPeriod int64  `cbor:"2,keyasint"` // nanoseconds per timer tick
	Label      string `cbor:"3,keyasint,omitempty"`
	Edges      []Edge `cbor:"4,keyasint"`
}

// FromEdges creates a capture from loopback edges, rebased to start at zero
func FromEdges(label string, edges []loopback.Edge) *Capture {
	c := &Capture{
		Version:    Version,
		TickPeriod: int64(ecbus.TickPeriod),
		Label:      label,
		Edges:      make([]Edge, len(edges)),
	}
	if len(edges) == 0 {
		return c
	}

	base := edges[0].At
	for i, e := range edges {
		c.Edges[i] = Edge{At: int64(e.At - base), Low: e.Low}
	}
	return c
}

// LoopbackEdges converts the capture for replay with loopback.Bus.InjectEdges
func (c *Capture) LoopbackEdges() []loopback.Edge {
	out := make([]loopback.Edge, len(c.Edges))
	for i, e := range c.Edges {
		out[i] = loopback.Edge{At: time.Duration(e.At), Low: e.Low}
	}
	return out
}

// Duration returns the time from the first to the last edge
func (c *Capture) Duration() time.Duration {
	if len(c.Edges) == 0 {
		return 0
	}
	return time.Duration(c.Edges[len(c.Edges)-1].At - c.Edges[0].At)
}

// Encode serializes c to CBOR
func Encode(c *Capture) ([]byte, error) {
	data, err := cbor.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to encode capture: %w", err)
	}
	return data, nil
}

// Decode parses a CBOR capture
func Decode(data []byte) (*Capture, error) {
	var c Capture
	if err := cbor.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to decode capture: %w", err)
	}
	if err := c.check(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Write streams c to w
func Write(w io.Writer, c *Capture) error {
	if err := cbor.NewEncoder(w).Encode(c); err != nil {
		return fmt.Errorf("failed to write capture: %w", err)
	}
	return nil
}

// Read reads one capture from r
func Read(r io.Reader) (*Capture, error) {
	var c Capture
	if err := cbor.NewDecoder(r).Decode(&c); err != nil {
		return nil, fmt.Errorf("failed to read capture: %w", err)
	}
	if err := c.check(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Save writes c to a file
func Save(path string, c *Capture) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Write(f, c); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Load reads a capture file
func Load(path string) (*Capture, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Read(f)
}

func (c *Capture) check() error {
	if c.Version != Version {
		return fmt.Errorf("%w: %d", ErrVersion, c.Version)
	}
	if c.TickPeriod != int64(ecbus.TickPeriod) {
		return fmt.Errorf("capture tick period %v does not match bus tick period %v",
			time.Duration(c.TickPeriod), ecbus.TickPeriod)
	}
	for i := 1; i < len(c.Edges); i++ {
		if c.Edges[i].At < c.Edges[i-1].At {
			return fmt.Errorf("capture edge %d goes back in time", i)
		}
	}
	return nil
}
