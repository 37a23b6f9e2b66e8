// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Thermoquad/cemu/pkg/diaglog"
	"github.com/Thermoquad/cemu/pkg/ecbus"
)

// Event log entry
type eventLogEntry struct {
	timestamp time.Time
	message   string
	isError   bool // true for anomalies, false for info
}

// Latest packet seen on the bus
type lastPacket struct {
	timestamp time.Time
	opcode    uint32
	command   *ecbus.Command
	count     int // consecutive repeats
}

// Monitor TUI model
type monitorModel struct {
	connInfo      string
	mode          diaglog.Mode
	table         ecbus.CommandTable
	statsInterval int
	showAll       bool
	stats         *diaglog.Statistics
	eventLog      []eventLogEntry
	maxLogEntries int
	synchronized  bool
	badLines      int
	connected     bool
	width         int
	height        int
	quitting      bool
	last          *lastPacket
	lastWidth     *diaglog.Record
}

// Messages
type tickMsg time.Time
type recordMsg struct {
	record    *diaglog.Record
	decodeErr error
}
type syncMsg struct {
	badLines int
}
type disconnectMsg struct{}

func initialMonitorModel(connInfo string, mode diaglog.Mode, statsInterval int, showAll bool) monitorModel {
	return monitorModel{
		connInfo:      connInfo,
		mode:          mode,
		table:         ecbus.DefaultTable,
		statsInterval: statsInterval,
		showAll:       showAll,
		stats:         diaglog.NewStatistics(),
		eventLog:      make([]eventLogEntry, 0),
		maxLogEntries: 100,
		connected:     true,
		width:         80,
		height:        24,
	}
}

func (m monitorModel) Init() tea.Cmd {
	return tea.Batch(
		tickCmd(),
		tea.EnterAltScreen,
	)
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m monitorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case "r":
			m.stats.Reset()
			m.addLogEntry("Statistics reset", false)
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tickMsg:
		m.stats.CalculateRates()
		return m, tickCmd()

	case syncMsg:
		m.synchronized = true
		m.badLines = msg.badLines
		if msg.badLines > 0 {
			m.addLogEntry(fmt.Sprintf("Synchronized after skipping %d bad lines", msg.badLines), false)
		} else {
			m.addLogEntry("Synchronized", false)
		}

	case disconnectMsg:
		m.connected = false
		m.addLogEntry("Connection closed", true)

	case recordMsg:
		if msg.decodeErr != nil {
			m.stats.Update(m.mode, nil, msg.decodeErr, m.table)
			m.addLogEntry(fmt.Sprintf("DECODE ERROR: %v", msg.decodeErr), true)
			return m, nil
		}

		m.stats.Update(m.mode, msg.record, nil, m.table)
		m.trackRecord(msg.record)

		if anomaly := recordAnomaly(m.mode, msg.record, m.table); anomaly != "" {
			m.addLogEntry(anomaly, true)
		} else if m.showAll {
			m.addLogEntry(diaglog.FormatRecord(m.mode, msg.record, m.table), false)
		}
	}

	return m, nil
}

func (m *monitorModel) addLogEntry(message string, isError bool) {
	entry := eventLogEntry{
		timestamp: time.Now(),
		message:   message,
		isError:   isError,
	}
	m.eventLog = append(m.eventLog, entry)

	// Keep only last N entries
	if len(m.eventLog) > m.maxLogEntries {
		m.eventLog = m.eventLog[len(m.eventLog)-m.maxLogEntries:]
	}
}

// trackRecord remembers the latest packet or width
func (m *monitorModel) trackRecord(rec *diaglog.Record) {
	if m.mode == diaglog.ModeWidths {
		m.lastWidth = rec
		return
	}

	if m.last != nil && m.last.opcode == rec.Value {
		m.last.count++
		m.last.timestamp = rec.Timestamp
		return
	}

	cmd, _ := m.table.Lookup(rec.Value)
	m.last = &lastPacket{
		timestamp: rec.Timestamp,
		opcode:    rec.Value,
		command:   cmd,
		count:     1,
	}
}

func (m monitorModel) View() string {
	if m.quitting {
		return "Shutting down...\n"
	}

	// Styles
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

	// Header
	var s strings.Builder
	s.WriteString(titleStyle.Render("CEMU - BUS MONITOR"))
	s.WriteString("\n")
	modeName := "Packets"
	if m.mode == diaglog.ModeWidths {
		modeName = "Widths"
	}
	filter := "Anomalies only"
	if m.showAll {
		filter = "All records"
	}
	s.WriteString(headerStyle.Render(fmt.Sprintf("%s | %s | %s | 'r' reset, 'q' quit",
		m.connInfo, modeName, filter)))
	s.WriteString("\n\n")

	// Link status
	switch {
	case !m.connected:
		s.WriteString(errorStyle.Render("✗ Disconnected"))
	case !m.synchronized:
		s.WriteString(warningStyle.Render("⏳ Waiting for synchronization..."))
	default:
		s.WriteString(statsValueStyle.Render("✓ Synchronized"))
		if m.badLines > 0 {
			s.WriteString(headerStyle.Render(fmt.Sprintf(" (skipped %d bad lines)", m.badLines)))
		}
	}
	s.WriteString("\n\n")

	// Statistics
	m.stats.CalculateRates()
	statsContent := strings.Builder{}
	statsContent.WriteString(fmt.Sprintf("%s %s   %s %s\n",
		statsLabelStyle.Render("Records:"), statsValueStyle.Render(fmt.Sprintf("%d", m.stats.TotalRecords)),
		statsLabelStyle.Render("Decode Errors:"), func() string {
			if m.stats.DecodeErrors > 0 {
				return errorStyle.Render(fmt.Sprintf("%d", m.stats.DecodeErrors))
			}
			return statsValueStyle.Render("0")
		}(),
	))

	if m.mode == diaglog.ModeWidths {
		statsContent.WriteString(fmt.Sprintf("%s %s   %s %s   %s %s   %s %s\n",
			statsLabelStyle.Render("Zero:"), statsValueStyle.Render(fmt.Sprintf("%d", m.stats.ZeroWidths)),
			statsLabelStyle.Render("One:"), statsValueStyle.Render(fmt.Sprintf("%d", m.stats.OneWidths)),
			statsLabelStyle.Render("Idle:"), statsValueStyle.Render(fmt.Sprintf("%d", m.stats.IdleWidths)),
			statsLabelStyle.Render("Noise:"), warningStyle.Render(fmt.Sprintf("%d", m.stats.NoiseWidths)),
		))
	} else {
		statsContent.WriteString(fmt.Sprintf("%s %s   %s %s\n",
			statsLabelStyle.Render("Known:"), statsValueStyle.Render(fmt.Sprintf("%d", m.stats.KnownPackets)),
			statsLabelStyle.Render("Unknown:"), warningStyle.Render(fmt.Sprintf("%d", m.stats.UnknownPackets)),
		))
	}

	statsContent.WriteString(fmt.Sprintf("%s %s   %s %s",
		statsLabelStyle.Render("Record Rate:"), statsValueStyle.Render(fmt.Sprintf("%.1f rec/s", m.stats.RecordRate)),
		statsLabelStyle.Render("Error Rate:"), func() string {
			if m.stats.ErrorRate > 0 {
				return errorStyle.Render(fmt.Sprintf("%.1f err/s", m.stats.ErrorRate))
			}
			return statsValueStyle.Render(fmt.Sprintf("%.1f err/s", m.stats.ErrorRate))
		}(),
	))

	s.WriteString(boxStyle.Render(statsContent.String()))
	s.WriteString("\n\n")

	// Latest packet and the emulator's reply to it
	if m.last != nil {
		s.WriteString(statsLabelStyle.Render("Latest Packet:"))
		s.WriteString("\n")

		packetContent := strings.Builder{}
		packetContent.WriteString(fmt.Sprintf("%s %s",
			statsLabelStyle.Render("Opcode:"), statsValueStyle.Render(ecbus.FormatOpcode(m.table, m.last.opcode)),
		))
		if m.last.count > 1 {
			packetContent.WriteString(headerStyle.Render(fmt.Sprintf(" x%d", m.last.count)))
		}
		packetContent.WriteString("\n")

		if m.last.command == nil {
			packetContent.WriteString(warningStyle.Render("No table entry, emulator stays silent"))
		} else {
			frames := m.last.command.Frames
			if m.last.command.Action == ecbus.ActionReinit {
				frames = ecbus.InitFrames[:]
			}
			for i, f := range frames {
				packetContent.WriteString(fmt.Sprintf("%s %s  %s\n",
					statsLabelStyle.Render(fmt.Sprintf("Reply %d:", i)),
					statsValueStyle.Render(ecbus.FormatFrame(f)),
					headerStyle.Render(ecbus.FormatBits(f)),
				))
			}
		}

		s.WriteString(boxStyle.Render(strings.TrimRight(packetContent.String(), "\n")))
		s.WriteString("\n\n")
	}

	if m.lastWidth != nil {
		s.WriteString(statsLabelStyle.Render("Latest Pulse: "))
		s.WriteString(statsValueStyle.Render(ecbus.FormatPulse(m.lastWidth.Width())))
		s.WriteString("\n\n")
	}

	// Event log
	s.WriteString(statsLabelStyle.Render("Recent Events:"))
	s.WriteString("\n")

	logHeight := m.height - 16
	if logHeight < 5 {
		logHeight = 5
	}

	logContent := strings.Builder{}
	startIdx := len(m.eventLog) - logHeight
	if startIdx < 0 {
		startIdx = 0
	}

	if len(m.eventLog) == 0 {
		logContent.WriteString(headerStyle.Render("  (no events yet)"))
	} else {
		for i := startIdx; i < len(m.eventLog); i++ {
			entry := m.eventLog[i]
			timestamp := entry.timestamp.Format("01/02/06 15:04:05.000")
			if entry.isError {
				logContent.WriteString(fmt.Sprintf("%s %s\n",
					headerStyle.Render(timestamp),
					errorStyle.Render("✗ "+entry.message),
				))
			} else {
				logContent.WriteString(fmt.Sprintf("%s %s\n",
					headerStyle.Render(timestamp),
					warningStyle.Render("ℹ "+entry.message),
				))
			}
		}
	}

	s.WriteString(boxStyle.Width(m.width - 4).Render(logContent.String()))

	return s.String()
}
