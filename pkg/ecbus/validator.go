// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package ecbus

import "fmt"

// AnomalyType represents different kinds of command table defects
type AnomalyType int

const (
	AnomalyDuplicateOpcode AnomalyType = iota
	AnomalyFrameTooLong
	AnomalyValueOverflow
	AnomalyEmptyReply
	AnomalyUnknownAction
)

// ValidationError represents a command table validation failure
type ValidationError struct {
	Type    AnomalyType
	Opcode  uint32
	Message string
}

// Error implements the error interface
func (v *ValidationError) Error() string {
	return v.Message
}

// ValidateFrame checks that f fits the accumulator and that its value has no
// bits above Length
func ValidateFrame(f Frame) []ValidationError {
	if f.Length > MaxFrameLength {
		return []ValidationError{{
			Type:    AnomalyFrameTooLong,
			Message: fmt.Sprintf("frame 0x%08X length %d exceeds %d", f.Value, f.Length, MaxFrameLength),
		}}
	}

	if f.Length < MaxFrameLength && f.Value>>(uint(f.Length)+1) != 0 {
		return []ValidationError{{
			Type:    AnomalyValueOverflow,
			Message: fmt.Sprintf("frame 0x%08X does not fit in %d bits", f.Value, f.Bits()),
		}}
	}

	return nil
}

// ValidateTable checks a command table for duplicate opcodes and malformed
// frames. Returns an empty slice if the table is valid.
func ValidateTable(t CommandTable) []ValidationError {
	errors := []ValidationError{}
	seen := make(map[uint32]string, len(t))

	for _, cmd := range t {
		if prev, ok := seen[cmd.Opcode]; ok {
			errors = append(errors, ValidationError{
				Type:    AnomalyDuplicateOpcode,
				Opcode:  cmd.Opcode,
				Message: fmt.Sprintf("%s: opcode 0x%08X already used by %s", cmd.Name, cmd.Opcode, prev),
			})
		} else {
			seen[cmd.Opcode] = cmd.Name
		}

		switch cmd.Action {
		case ActionReply:
			if len(cmd.Frames) == 0 {
				errors = append(errors, ValidationError{
					Type:    AnomalyEmptyReply,
					Opcode:  cmd.Opcode,
					Message: fmt.Sprintf("%s: reply has no frames", cmd.Name),
				})
			}
		case ActionReinit:
		default:
			errors = append(errors, ValidationError{
				Type:    AnomalyUnknownAction,
				Opcode:  cmd.Opcode,
				Message: fmt.Sprintf("%s: unknown action %d", cmd.Name, cmd.Action),
			})
		}

		for _, f := range cmd.Frames {
			for _, fe := range ValidateFrame(f) {
				fe.Opcode = cmd.Opcode
				fe.Message = cmd.Name + ": " + fe.Message
				errors = append(errors, fe)
			}
		}
	}

	return errors
}
