// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/Thermoquad/cemu/pkg/ecbus"
	"github.com/Thermoquad/cemu/pkg/ecbus/loopback"
)

var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Interactive TUI for driving a simulated emulator",
	Long: `Play head unit against a simulated emulator from an interactive terminal UI.

The emulator runs on a virtual bus inside this process. Pick a command from
the table, or type any opcode in hex, and press Enter to send it. The frames
the emulator replies with are decoded from the bus and shown with their bit
patterns.

Features:
  - Command table browser
  - Free-form opcode entry
  - Reply frames with timing on the virtual bus
  - Statistics tracking
  - Event logging

Tab switches between the command list and the opcode input.`,
	RunE: runConsole,
}

func init() {
	rootCmd.AddCommand(consoleCmd)
}

// simSession serializes access to the simulated bus
type simSession struct {
	mu      sync.Mutex
	harness *loopback.Harness
	stats   *ecbus.Statistics
	table   ecbus.CommandTable
}

func newSimSession(table ecbus.CommandTable) *simSession {
	stats := ecbus.NewStatistics()
	h := loopback.NewHarness(ecbus.Config{
		Table:    table,
		Observer: ecbus.MultiObserver(stats, logObserver{table: table}),
	})
	return &simSession{
		harness: h,
		stats:   stats,
		table:   table,
	}
}

// handshake returns the frames sent at power-on
func (s *simSession) handshake() []uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return loopback.DecodeEdges(s.harness.Bus.Edges())
}

// send runs one exchange and returns it with a statistics snapshot
func (s *simSession) send(opcode uint32) (loopback.Exchange, ecbus.Statistics) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ex := s.harness.Send(opcode)
	return ex, *s.stats
}

// snapshot returns a copy of the current statistics
func (s *simSession) snapshot() ecbus.Statistics {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.stats
}

func runConsole(cmd *cobra.Command, args []string) error {
	session := newSimSession(ecbus.DefaultTable)
	m := initialConsoleModel(session)

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
