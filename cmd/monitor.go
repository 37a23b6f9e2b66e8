// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/golang/glog"
	"github.com/spf13/cobra"

	"github.com/Thermoquad/cemu/pkg/diaglog"
	"github.com/Thermoquad/cemu/pkg/ecbus"
)

var (
	showAll       bool
	statsInterval int
	useTUI        bool
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Monitor live bus traffic and flag anomalies",
	Long: `Track the emulator's diagnostic output with statistics.

In packet mode this command flags:
  - Opcodes missing from the command table
  - Lines that fail to decode
  - Statistics and trends (record rate, error rate, known ratio)

In width mode (--widths) it flags noise pulses, which usually point at a
loose bus connection or a marginal pull-up.

By default, only anomalies are displayed. Use --show-all to display every
record. Periodic statistics summaries are displayed at configurable intervals.`,
	RunE: runMonitor,
}

func init() {
	rootCmd.AddCommand(monitorCmd)
	monitorCmd.Flags().BoolVar(&showAll, "show-all", false, "Show all records (not just anomalies)")
	monitorCmd.Flags().IntVar(&statsInterval, "stats-interval", 10, "Statistics update interval (seconds)")
	monitorCmd.Flags().BoolVar(&useTUI, "tui", true, "Use terminal UI (false for text mode)")
}

func runMonitor(cmd *cobra.Command, args []string) error {
	conn, connInfo, err := OpenConnection()
	if err != nil {
		return err
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mode := diagMode(diagWidths)
	events, errCh := streamRecords(ctx, conn, mode)

	if useTUI {
		return runMonitorTUI(connInfo, mode, events)
	}
	return runMonitorText(connInfo, mode, events, errCh)
}

// recordAnomaly describes what is wrong with a record, or "" if nothing is
func recordAnomaly(mode diaglog.Mode, rec *diaglog.Record, table ecbus.CommandTable) string {
	if mode == diaglog.ModeWidths {
		if ecbus.Classify(rec.Width()) == ecbus.BitNoise {
			return fmt.Sprintf("noise pulse of %d ticks", rec.Value)
		}
		return ""
	}
	if _, ok := table.Lookup(rec.Value); !ok {
		return fmt.Sprintf("unknown opcode 0x%08X", rec.Value)
	}
	return ""
}

// printDecodeError prints a decode error in highlighted format
func printDecodeError(err error) {
	timestamp := time.Now().Format("15:04:05.000")
	fmt.Printf("[%s] \033[1;31mDECODE ERROR:\033[0m %v\n\n", timestamp, err)
}

// printAnomaly prints a record that needs attention
func printAnomaly(rec *diaglog.Record, anomaly string) {
	timestamp := rec.Timestamp.Format("15:04:05.000")
	fmt.Printf("[%s] \033[1;33mANOMALY:\033[0m %s\n", timestamp, anomaly)
	fmt.Printf("  Raw: %q\n\n", rec.Raw)
}

// printReply prints the frames the emulator answers a known opcode with
func printReply(cmd *ecbus.Command) {
	fmt.Printf("  %s", ecbus.FormatCommand(cmd))
}

// runMonitorTUI feeds records into the terminal UI
func runMonitorTUI(connInfo string, mode diaglog.Mode, events <-chan recordEvent) error {
	m := initialMonitorModel(connInfo, mode, statsInterval, showAll)
	p := tea.NewProgram(m)

	go func() {
		synchronized := false
		badLinesBeforeSync := 0
		for ev := range events {
			if ev.err != nil {
				if synchronized {
					p.Send(recordMsg{decodeErr: ev.err})
				} else {
					badLinesBeforeSync++
				}
				continue
			}
			if !synchronized {
				synchronized = true
				p.Send(syncMsg{badLines: badLinesBeforeSync})
			}
			p.Send(recordMsg{record: ev.rec})
		}
		p.Send(disconnectMsg{})
	}()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}

// runMonitorText prints anomalies and periodic statistics
func runMonitorText(connInfo string, mode diaglog.Mode, events <-chan recordEvent, errCh <-chan error) error {
	fmt.Printf("cemu - Bus Monitor\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Statistics interval: %d seconds\n", statsInterval)
	if showAll {
		fmt.Printf("Mode: All records\n")
	} else {
		fmt.Printf("Mode: Anomalies only\n")
	}
	fmt.Printf("Press Ctrl+C to exit\n\n")

	table := ecbus.DefaultTable
	stats := diaglog.NewStatistics()

	synchronized := false
	badLinesBeforeSync := 0

	statsTicker := time.NewTicker(time.Duration(statsInterval) * time.Second)
	defer statsTicker.Stop()

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				fmt.Println()
				fmt.Print(stats.String())
				select {
				case err := <-errCh:
					return fmt.Errorf("read error: %w", err)
				default:
					glog.Info("connection closed")
					return nil
				}
			}

			if ev.err != nil {
				if synchronized {
					stats.Update(mode, nil, ev.err, table)
					printDecodeError(ev.err)
				} else {
					badLinesBeforeSync++
				}
				continue
			}

			if !synchronized {
				synchronized = true
				if badLinesBeforeSync > 0 {
					fmt.Printf("[SYNC] Synchronized after skipping %d bad lines\n\n", badLinesBeforeSync)
				} else {
					fmt.Printf("[SYNC] Synchronized\n\n")
				}
			}

			stats.Update(mode, ev.rec, nil, table)

			if anomaly := recordAnomaly(mode, ev.rec, table); anomaly != "" {
				printAnomaly(ev.rec, anomaly)
			} else if showAll {
				fmt.Println(diaglog.FormatRecord(mode, ev.rec, table))
				if mode == diaglog.ModePackets {
					if cmd, ok := table.Lookup(ev.rec.Value); ok {
						printReply(cmd)
					}
				}
			}

		case <-statsTicker.C:
			fmt.Println()
			fmt.Print(stats.String())
			fmt.Println()
		}
	}
}
