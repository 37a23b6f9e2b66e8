// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package diaglog

import (
	"fmt"
	"time"

	"github.com/Thermoquad/cemu/pkg/ecbus"
)

// Statistics tracks diagnostic records and error rates
type Statistics struct {
	StartTime      time.Time
	LastUpdateTime time.Time

	// Counters
	TotalRecords   uint64
	KnownPackets   uint64
	UnknownPackets uint64
	DecodeErrors   uint64

	// Width mode counters by class
	NoiseWidths uint64
	ZeroWidths  uint64
	OneWidths   uint64
	IdleWidths  uint64

	// Rates (calculated)
	RecordRate float64 // records/sec
	ErrorRate  float64 // errors/sec
}

// NewStatistics creates a new statistics tracker
func NewStatistics() *Statistics {
	now := time.Now()
	return &Statistics{
		StartTime:      now,
		LastUpdateTime: now,
	}
}

// Update counts one decoded record or decode error. In packet mode the
// opcode is looked up in table; in width mode the width is classified.
func (s *Statistics) Update(mode Mode, rec *Record, decodeErr error, table ecbus.CommandTable) {
	if decodeErr != nil {
		s.DecodeErrors++
		return
	}
	if rec == nil {
		return
	}

	s.TotalRecords++
	s.LastUpdateTime = time.Now()

	if mode == ModeWidths {
		switch ecbus.Classify(rec.Width()) {
		case ecbus.BitNoise:
			s.NoiseWidths++
		case ecbus.BitZero:
			s.ZeroWidths++
		case ecbus.BitOne:
			s.OneWidths++
		case ecbus.BitIdle:
			s.IdleWidths++
		}
		return
	}

	if _, ok := table.Lookup(rec.Value); ok {
		s.KnownPackets++
	} else {
		s.UnknownPackets++
	}
}

// CalculateRates calculates record and error rates
func (s *Statistics) CalculateRates() {
	elapsed := time.Since(s.StartTime).Seconds()
	if elapsed > 0 {
		s.RecordRate = float64(s.TotalRecords) / elapsed
		s.ErrorRate = float64(s.DecodeErrors) / elapsed
	}
}

// String returns a formatted statistics summary
func (s *Statistics) String() string {
	s.CalculateRates()

	var knownPercent, unknownPercent float64
	if s.TotalRecords > 0 {
		knownPercent = float64(s.KnownPackets) * 100.0 / float64(s.TotalRecords)
		unknownPercent = float64(s.UnknownPackets) * 100.0 / float64(s.TotalRecords)
	}

	elapsed := time.Since(s.StartTime)

	result := fmt.Sprintf("=== Statistics (%.0f seconds) ===\n", elapsed.Seconds())
	result += fmt.Sprintf("Total Records:   %8d\n", s.TotalRecords)

	if s.KnownPackets > 0 || s.UnknownPackets > 0 {
		result += fmt.Sprintf("Known Opcodes:   %8d (%.1f%%)\n", s.KnownPackets, knownPercent)
		if s.UnknownPackets > 0 {
			result += fmt.Sprintf("Unknown Opcodes: %8d (%.1f%%)\n", s.UnknownPackets, unknownPercent)
		}
	}
	if widths := s.NoiseWidths + s.ZeroWidths + s.OneWidths + s.IdleWidths; widths > 0 {
		result += fmt.Sprintf("Widths:          %8d\n", widths)
		result += fmt.Sprintf("  Zero:             %5d\n", s.ZeroWidths)
		result += fmt.Sprintf("  One:              %5d\n", s.OneWidths)
		result += fmt.Sprintf("  Idle:             %5d\n", s.IdleWidths)
		if s.NoiseWidths > 0 {
			result += fmt.Sprintf("  Noise:            %5d\n", s.NoiseWidths)
		}
	}
	if s.DecodeErrors > 0 {
		result += fmt.Sprintf("Decode Errors:   %8d\n", s.DecodeErrors)
	}

	result += fmt.Sprintf("Record Rate:     %8.1f recs/sec\n", s.RecordRate)
	result += fmt.Sprintf("Error Rate:      %8.1f errors/sec\n", s.ErrorRate)
	result += "================================\n"

	return result
}

// Reset resets all statistics counters
func (s *Statistics) Reset() {
	*s = *NewStatistics()
}
