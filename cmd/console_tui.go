// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Thermoquad/cemu/pkg/ecbus"
	"github.com/Thermoquad/cemu/pkg/ecbus/loopback"
)

//////////////////////////////////////////////////////////////
// Constants
//////////////////////////////////////////////////////////////

// Focus states
const (
	focusCommandList = iota
	focusOpcodeInput
)

//////////////////////////////////////////////////////////////
// Types
//////////////////////////////////////////////////////////////

// commandItem is one command table entry in the list
type commandItem struct {
	cmd *ecbus.Command
}

// Implement list.Item interface
func (c commandItem) Title() string { return c.cmd.Name }
func (c commandItem) Description() string {
	if c.cmd.Action == ecbus.ActionReinit {
		return fmt.Sprintf("0x%08X  handshake", c.cmd.Opcode)
	}
	return fmt.Sprintf("0x%08X  %d frame(s)", c.cmd.Opcode, len(c.cmd.Frames))
}
func (c commandItem) FilterValue() string { return c.cmd.Name }

// consoleModel is the Bubble Tea model for the console TUI
type consoleModel struct {
	session *simSession

	commandList list.Model
	opcodeInput textinput.Model
	focus       int

	stats         ecbus.Statistics
	eventLog      []eventLogEntry
	maxLogEntries int
	last          *loopback.Exchange
	busy          bool

	width    int
	height   int
	quitting bool
}

//////////////////////////////////////////////////////////////
// Messages
//////////////////////////////////////////////////////////////

type exchangeMsg struct {
	exchange loopback.Exchange
	stats    ecbus.Statistics
}

//////////////////////////////////////////////////////////////
// Model Initialization
//////////////////////////////////////////////////////////////

func initialConsoleModel(session *simSession) consoleModel {
	ti := textinput.New()
	ti.Placeholder = "e716"
	ti.CharLimit = 10
	ti.Width = 12

	items := make([]list.Item, len(session.table))
	for i := range session.table {
		items[i] = commandItem{cmd: &session.table[i]}
	}
	delegate := list.NewDefaultDelegate()
	delegate.ShowDescription = true
	delegate.SetHeight(2)
	commandList := list.New(items, delegate, 30, 16)
	commandList.Title = "Commands"
	commandList.SetShowStatusBar(false)
	commandList.SetShowHelp(false)
	commandList.SetFilteringEnabled(false)

	m := consoleModel{
		session:       session,
		commandList:   commandList,
		opcodeInput:   ti,
		focus:         focusCommandList,
		stats:         session.snapshot(),
		eventLog:      make([]eventLogEntry, 0),
		maxLogEntries: 100,
		width:         80,
		height:        24,
	}
	m.addLogEntry(fmt.Sprintf("Power-on handshake: %s", formatOpcodes(session.handshake())), false)
	return m
}

//////////////////////////////////////////////////////////////
// Bubble Tea Interface
//////////////////////////////////////////////////////////////

func (m consoleModel) Init() tea.Cmd {
	return textinput.Blink
}

// sendCmd runs an exchange off the UI goroutine
func (m consoleModel) sendCmd(opcode uint32) tea.Cmd {
	session := m.session
	return func() tea.Msg {
		ex, stats := session.send(opcode)
		return exchangeMsg{exchange: ex, stats: stats}
	}
}

func (m consoleModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		listHeight := m.height - 14
		if listHeight < 6 {
			listHeight = 6
		}
		m.commandList.SetSize(30, listHeight)

	case exchangeMsg:
		m.busy = false
		m.stats = msg.stats
		ex := msg.exchange
		m.last = &ex
		m.logExchange(ex)
	}

	var cmd tea.Cmd
	if m.focus == focusCommandList {
		m.commandList, cmd = m.commandList.Update(msg)
	} else {
		m.opcodeInput, cmd = m.opcodeInput.Update(msg)
	}
	return m, cmd
}

func (m consoleModel) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		m.quitting = true
		return m, tea.Quit

	case "q":
		if m.focus == focusCommandList {
			m.quitting = true
			return m, tea.Quit
		}

	case "tab", "shift+tab":
		if m.focus == focusCommandList {
			m.focus = focusOpcodeInput
			m.opcodeInput.Focus()
		} else {
			m.focus = focusCommandList
			m.opcodeInput.Blur()
		}
		return m, nil

	case "enter":
		return m.handleEnter()
	}

	var cmd tea.Cmd
	if m.focus == focusOpcodeInput {
		m.opcodeInput, cmd = m.opcodeInput.Update(msg)
	} else {
		m.commandList, cmd = m.commandList.Update(msg)
	}
	return m, cmd
}

func (m consoleModel) handleEnter() (tea.Model, tea.Cmd) {
	if m.busy {
		m.addLogEntry("Bus busy, wait for the reply", true)
		return m, nil
	}

	var opcode uint32
	if m.focus == focusOpcodeInput {
		op, err := parseOpcode(m.session.table, m.opcodeInput.Value())
		if err != nil {
			m.addLogEntry(err.Error(), true)
			return m, nil
		}
		opcode = op
		m.opcodeInput.SetValue("")
	} else {
		item, ok := m.commandList.SelectedItem().(commandItem)
		if !ok {
			return m, nil
		}
		opcode = item.cmd.Opcode
	}

	m.busy = true
	m.addLogEntry(fmt.Sprintf("TX %s", ecbus.FormatOpcode(m.session.table, opcode)), false)
	return m, m.sendCmd(opcode)
}

func (m *consoleModel) addLogEntry(message string, isError bool) {
	m.eventLog = append(m.eventLog, eventLogEntry{
		timestamp: time.Now(),
		message:   message,
		isError:   isError,
	})
	if len(m.eventLog) > m.maxLogEntries {
		m.eventLog = m.eventLog[len(m.eventLog)-m.maxLogEntries:]
	}
}

// logExchange records the outcome of an exchange in the event log
func (m *consoleModel) logExchange(ex loopback.Exchange) {
	if len(ex.Received) != 1 || ex.Received[0] != ex.Opcode {
		m.addLogEntry(fmt.Sprintf("Emulator received %s, expected 0x%08X", formatOpcodes(ex.Received), ex.Opcode), true)
		return
	}
	if len(ex.Reply) == 0 {
		m.addLogEntry(fmt.Sprintf("RX nothing for 0x%08X", ex.Opcode), true)
		return
	}
	m.addLogEntry(fmt.Sprintf("RX %s", formatOpcodes(ex.Reply)), false)
}

//////////////////////////////////////////////////////////////
// View
//////////////////////////////////////////////////////////////

func (m consoleModel) View() string {
	if m.quitting {
		return "Shutting down...\n"
	}

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("12")).
		Background(lipgloss.Color("235")).
		Padding(0, 1)

	headerStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241"))

	statsLabelStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("12")).
		Bold(true)

	statsValueStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("10"))

	errorStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("9")).
		Bold(true)

	warningStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("11"))

	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1)

	focusedBoxStyle := boxStyle.
		BorderForeground(lipgloss.Color("12"))

	var s strings.Builder
	s.WriteString(titleStyle.Render("CEMU CONSOLE"))
	s.WriteString(" ")
	s.WriteString(headerStyle.Render("| virtual bus | q=quit Tab=switch Enter=send"))
	s.WriteString("\n\n")

	leftWidth := 30
	rightWidth := m.width - leftWidth - 6
	if rightWidth < 20 {
		rightWidth = 20
	}

	listStyle := boxStyle.Width(leftWidth)
	if m.focus == focusCommandList {
		listStyle = focusedBoxStyle.Width(leftWidth)
	}
	commandPanel := listStyle.Render(m.commandList.View())

	rightStyle := boxStyle.Width(rightWidth)
	if m.focus == focusOpcodeInput {
		rightStyle = focusedBoxStyle.Width(rightWidth)
	}
	exchangePanel := rightStyle.Render(m.renderExchangePanel(statsLabelStyle, statsValueStyle, headerStyle, warningStyle))

	s.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, commandPanel, " ", exchangePanel))
	s.WriteString("\n\n")

	s.WriteString(m.renderStatisticsBar(statsLabelStyle, statsValueStyle, errorStyle, boxStyle))
	s.WriteString("\n\n")

	s.WriteString(m.renderEventLog(statsLabelStyle, warningStyle, errorStyle, headerStyle, boxStyle))

	return s.String()
}

func (m consoleModel) renderExchangePanel(statsLabelStyle, statsValueStyle, headerStyle, warningStyle lipgloss.Style) string {
	var s strings.Builder

	s.WriteString(statsLabelStyle.Render("Opcode: "))
	if m.focus == focusOpcodeInput {
		s.WriteString(m.opcodeInput.View())
	} else {
		val := m.opcodeInput.Value()
		if val == "" {
			val = m.opcodeInput.Placeholder
		}
		s.WriteString(fmt.Sprintf("[%s]", val))
	}
	s.WriteString("\n\n")

	if m.busy {
		s.WriteString(warningStyle.Render("Sending..."))
		return s.String()
	}
	if m.last == nil {
		s.WriteString(headerStyle.Render("Nothing sent yet"))
		return s.String()
	}

	ex := m.last
	s.WriteString(fmt.Sprintf("%s %s\n",
		statsLabelStyle.Render("Sent:"),
		statsValueStyle.Render(ecbus.FormatOpcode(m.session.table, ex.Opcode))))
	s.WriteString(fmt.Sprintf("%s %s  %s\n",
		statsLabelStyle.Render("Bus time:"),
		statsValueStyle.Render(formatVirtualTime(ex.Start)),
		headerStyle.Render(fmt.Sprintf("(+%s)", formatVirtualTime(ex.End-ex.Start)))))

	if len(ex.Reply) == 0 {
		s.WriteString(warningStyle.Render("No reply"))
		return s.String()
	}
	for i, v := range ex.Reply {
		s.WriteString(fmt.Sprintf("%s %s  %s\n",
			statsLabelStyle.Render(fmt.Sprintf("Reply %d:", i)),
			statsValueStyle.Render(fmt.Sprintf("0x%08X", v)),
			headerStyle.Render(fmt.Sprintf("%b", v))))
	}

	return strings.TrimRight(s.String(), "\n")
}

func (m consoleModel) renderStatisticsBar(statsLabelStyle, statsValueStyle, errorStyle, boxStyle lipgloss.Style) string {
	content := fmt.Sprintf("%s %s  %s %s  %s %s  %s %s",
		statsLabelStyle.Render("Packets:"), statsValueStyle.Render(fmt.Sprintf("%d", m.stats.Packets)),
		statsLabelStyle.Render("Unknown:"), statsValueStyle.Render(fmt.Sprintf("%d", m.stats.UnknownPackets)),
		statsLabelStyle.Render("Frames Sent:"), statsValueStyle.Render(fmt.Sprintf("%d", m.stats.FramesSent)),
		statsLabelStyle.Render("Timeouts:"), func() string {
			if m.stats.Timeouts > 0 {
				return errorStyle.Render(fmt.Sprintf("%d", m.stats.Timeouts))
			}
			return statsValueStyle.Render("0")
		}(),
	)

	return boxStyle.Width(m.width - 4).Render(content)
}

func (m consoleModel) renderEventLog(statsLabelStyle, warningStyle, errorStyle, headerStyle, boxStyle lipgloss.Style) string {
	var s strings.Builder
	s.WriteString(statsLabelStyle.Render("EVENTS"))
	s.WriteString("\n")

	logHeight := 8
	if len(m.eventLog) < logHeight {
		logHeight = len(m.eventLog)
	}
	startIdx := len(m.eventLog) - logHeight

	if len(m.eventLog) == 0 {
		s.WriteString(headerStyle.Render("  (no events yet)"))
	} else {
		for i := startIdx; i < len(m.eventLog); i++ {
			entry := m.eventLog[i]
			timestamp := entry.timestamp.Format("15:04:05.000")
			icon := "i"
			style := warningStyle
			if entry.isError {
				icon = "x"
				style = errorStyle
			}
			s.WriteString(fmt.Sprintf("%s %s %s\n",
				headerStyle.Render(timestamp),
				style.Render(icon),
				entry.message))
		}
	}

	return boxStyle.Width(m.width - 4).Render(s.String())
}
