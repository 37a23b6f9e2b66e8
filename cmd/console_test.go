// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Thermoquad/cemu/pkg/ecbus"
)

// press feeds one key to the model. For Enter the returned exchange is run
// and fed back.
func press(t *testing.T, m consoleModel, key tea.KeyMsg) consoleModel {
	t.Helper()
	next, cmd := m.Update(key)
	m = next.(consoleModel)
	if cmd == nil || key.Type != tea.KeyEnter {
		return m
	}
	if msg, ok := cmd().(exchangeMsg); ok {
		next, _ = m.Update(msg)
		m = next.(consoleModel)
	}
	return m
}

func TestConsole_HandshakeLogged(t *testing.T) {
	m := initialConsoleModel(newSimSession(ecbus.DefaultTable))

	require.NotEmpty(t, m.eventLog)
	assert.Contains(t, m.eventLog[0].message, "0x00C31082 0x00C3108B")
	assert.Equal(t, uint64(2), m.stats.FramesSent)
}

func TestConsole_SendSelectedCommand(t *testing.T) {
	m := initialConsoleModel(newSimSession(ecbus.DefaultTable))

	// First entry is INIT_CASSETTE
	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	require.NotNil(t, m.last)
	assert.False(t, m.busy)
	assert.Equal(t, uint32(ecbus.OpInitCassette), m.last.Opcode)
	assert.Equal(t, []uint32{0x00C31082, 0x00C3108B}, m.last.Reply)
	assert.Equal(t, uint64(1), m.stats.KnownPackets)
}

func TestConsole_SendTypedOpcode(t *testing.T) {
	m := initialConsoleModel(newSimSession(ecbus.DefaultTable))

	m = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	require.Equal(t, focusOpcodeInput, m.focus)

	m = press(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("e71f")})
	assert.Equal(t, "e71f", m.opcodeInput.Value())

	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, m.last)
	assert.Equal(t, []uint32{0x00030C26}, m.last.Reply)
	assert.Empty(t, m.opcodeInput.Value())
}

func TestConsole_BadOpcodeLogsError(t *testing.T) {
	m := initialConsoleModel(newSimSession(ecbus.DefaultTable))

	m = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	m = press(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("xyz")})
	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	assert.Nil(t, m.last)
	last := m.eventLog[len(m.eventLog)-1]
	assert.True(t, last.isError)
}

func TestConsole_UnknownOpcodeHasNoReply(t *testing.T) {
	m := initialConsoleModel(newSimSession(ecbus.DefaultTable))

	m = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	m = press(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("1234")})
	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	require.NotNil(t, m.last)
	assert.Empty(t, m.last.Reply)
	assert.Equal(t, uint64(1), m.stats.UnknownPackets)
	assert.Contains(t, m.View(), "No reply")
}
