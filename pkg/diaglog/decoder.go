// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package diaglog decodes the emulator's diagnostic serial output.
//
// The firmware writes one value per CRLF-terminated line: completed packets
// as lowercase hex, or pulse widths in decimal when width dumping is enabled.
package diaglog

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Thermoquad/cemu/pkg/ecbus"
)

// Mode selects how line contents are parsed
type Mode int

const (
	ModePackets Mode = iota // hex opcodes, e.g. "e716"
	ModeWidths              // decimal pulse widths, e.g. "162"
)

// MaxLineLength is the longest line accepted. A 32-bit value is at most ten
// decimal digits.
const MaxLineLength = 16

// ErrLineTooLong is returned when no line terminator arrives in time
var ErrLineTooLong = errors.New("diagnostic line too long")

// Record is one decoded diagnostic line
type Record struct {
	Raw       string
	Value     uint32
	Timestamp time.Time
}

// Width returns Value as a pulse width. Values that do not fit saturate at
// the longest width, which classifies as idle.
func (r *Record) Width() ecbus.PulseWidth {
	if r.Value > 0xFFFF {
		return 0xFFFF
	}
	return ecbus.PulseWidth(r.Value)
}

// Decoder assembles diagnostic bytes into records
type Decoder struct {
	mode     Mode
	buffer   []byte
	overflow bool
}

// NewDecoder creates a decoder for the given mode
func NewDecoder(mode Mode) *Decoder {
	return &Decoder{
		mode:   mode,
		buffer: make([]byte, 0, MaxLineLength),
	}
}

// Mode returns the parse mode
func (d *Decoder) Mode() Mode {
	return d.mode
}

// Reset drops any partial line
func (d *Decoder) Reset() {
	d.buffer = d.buffer[:0]
	d.overflow = false
}

// DecodeByte processes a single byte.
// Returns a completed record, or nil if the line is incomplete.
// Returns an error if the line cannot be parsed; the decoder resyncs at the
// next newline.
func (d *Decoder) DecodeByte(b byte) (*Record, error) {
	switch b {
	case '\r':
		return nil, nil
	case '\n':
		defer d.Reset()
		if d.overflow {
			return nil, nil
		}
		if len(d.buffer) == 0 {
			return nil, nil
		}
		return d.parse(string(d.buffer))
	}

	if d.overflow {
		return nil, nil
	}
	if len(d.buffer) >= MaxLineLength {
		d.overflow = true
		return nil, ErrLineTooLong
	}
	d.buffer = append(d.buffer, b)
	return nil, nil
}

func (d *Decoder) parse(line string) (*Record, error) {
	raw := strings.TrimSpace(line)
	base := 16
	if d.mode == ModeWidths {
		base = 10
	}

	v, err := strconv.ParseUint(raw, base, 32)
	if err != nil {
		return nil, fmt.Errorf("bad diagnostic line %q: %w", raw, err)
	}

	return &Record{
		Raw:       raw,
		Value:     uint32(v),
		Timestamp: time.Now(),
	}, nil
}
