// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Thermoquad/cemu/pkg/ecbus"
)

// parseOpcode accepts a command name from table ("seek_forward") or a hex
// opcode with or without 0x prefix ("e716", "0x0000E716")
func parseOpcode(table ecbus.CommandTable, s string) (uint32, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty opcode")
	}

	for _, cmd := range table {
		if strings.EqualFold(cmd.Name, s) {
			return cmd.Opcode, nil
		}
	}

	hex := strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid opcode %q: not a command name or 32-bit hex value", s)
	}
	return uint32(v), nil
}

// parseOpcodes parses every argument with parseOpcode
func parseOpcodes(table ecbus.CommandTable, args []string) ([]uint32, error) {
	ops := make([]uint32, 0, len(args))
	for _, arg := range args {
		op, err := parseOpcode(table, arg)
		if err != nil {
			return nil, err
		}
		ops = append(ops, op)
	}
	return ops, nil
}

// formatOpcodes renders opcodes as a space separated hex list
func formatOpcodes(ops []uint32) string {
	parts := make([]string, len(ops))
	for i, op := range ops {
		parts[i] = fmt.Sprintf("0x%08X", op)
	}
	return strings.Join(parts, " ")
}
